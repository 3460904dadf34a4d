package app

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/metinatakli/cinema-seat-booking/api"
	"github.com/metinatakli/cinema-seat-booking/internal/domain"
)

func (app *Application) GetSeatStatusHandler(w http.ResponseWriter, r *http.Request) {
	showtimeID := strings.TrimSpace(chi.URLParam(r, "showtimeId"))
	if showtimeID == "" {
		app.badRequestResponse(w, r, fmt.Errorf("showtime ID must not be empty"))
		return
	}

	showtime, err := app.showtimes.GetShowtime(r.Context(), showtimeID)
	if err != nil {
		if errors.Is(err, domain.ErrRecordNotFound) {
			app.contextGetLogger(r).Warn("seat status requested for unknown showtime", "showtime_id", showtimeID)
			app.notFoundResponse(w, r)
			return
		}

		app.serverErrorResponse(w, r, err)
		return
	}

	err = app.writeJSON(w, http.StatusOK, toSeatStatusResponse(showtime), nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

func (app *Application) HoldSeatsHandler(w http.ResponseWriter, r *http.Request) {
	var input api.HoldSeatsRequest

	err := app.readJSON(w, r, &input)
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	err = app.validator.Struct(input)
	if err != nil {
		app.failedValidationResponse(w, r, err)
		return
	}

	err = app.seats.HoldSeats(r.Context(), input.ShowtimeId, input.SeatIds, input.CustomerPhone)
	if err != nil {
		app.domainErrorResponse(w, r, err)
		return
	}

	app.contextGetLogger(r).Info("seats held", "showtime_id", input.ShowtimeId, "seats", input.SeatIds)

	app.writeSeatHoldResponse(w, r, input.ShowtimeId, input.SeatIds, domain.SeatHolding)
}

func (app *Application) ReleaseSeatsHandler(w http.ResponseWriter, r *http.Request) {
	var input api.SeatsRequest

	err := app.readJSON(w, r, &input)
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	err = app.validator.Struct(input)
	if err != nil {
		app.failedValidationResponse(w, r, err)
		return
	}

	err = app.seats.ReleaseSeats(r.Context(), input.ShowtimeId, input.SeatIds)
	if err != nil {
		app.domainErrorResponse(w, r, err)
		return
	}

	app.writeSeatHoldResponse(w, r, input.ShowtimeId, input.SeatIds, domain.SeatAvailable)
}

func (app *Application) ExtendSeatHoldHandler(w http.ResponseWriter, r *http.Request) {
	var input api.SeatsRequest

	err := app.readJSON(w, r, &input)
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	err = app.validator.Struct(input)
	if err != nil {
		app.failedValidationResponse(w, r, err)
		return
	}

	err = app.seats.ExtendSeatHold(r.Context(), input.ShowtimeId, input.SeatIds)
	if err != nil {
		app.domainErrorResponse(w, r, err)
		return
	}

	app.writeSeatHoldResponse(w, r, input.ShowtimeId, input.SeatIds, domain.SeatHolding)
}

func (app *Application) writeSeatHoldResponse(
	w http.ResponseWriter,
	r *http.Request,
	showtimeID string,
	seatIDs []string,
	state domain.SeatState) {

	resp := api.SeatHoldResponse{
		ShowtimeId: showtimeID,
		SeatIds:    seatIDs,
		Status:     string(state),
	}

	if state == domain.SeatHolding {
		expiresAt := app.now().UTC().Add(app.seats.TTL()).Truncate(time.Second)
		resp.ExpiresAt = &expiresAt
	}

	err := app.writeJSON(w, http.StatusOK, resp, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

func toSeatStatusResponse(showtime *domain.Showtime) api.SeatStatusResponse {
	counters := showtime.SeatMap.Counters(showtime.TotalSeats)

	seatMap := make(map[string]api.SeatStatus, len(showtime.SeatMap))
	for seatID, status := range showtime.SeatMap {
		seatMap[seatID] = api.SeatStatus{
			State:         string(status.State),
			HoldStartedAt: status.HoldStartedAt,
			BookingId:     status.BookingID,
		}
	}

	return api.SeatStatusResponse{
		ShowtimeId:     showtime.ID,
		Status:         string(showtime.Status),
		TotalSeats:     showtime.TotalSeats,
		AvailableSeats: showtime.AvailableSeats,
		HoldingSeats:   counters.Holding,
		BookedSeats:    counters.Booked,
		SeatMap:        seatMap,
	}
}
