package app

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/metinatakli/cinema-seat-booking/api"
	"github.com/metinatakli/cinema-seat-booking/internal/booking"
	"github.com/metinatakli/cinema-seat-booking/internal/domain"
	openapi_types "github.com/oapi-codegen/runtime/types"
	"github.com/skip2/go-qrcode"
)

const qrCodeSize = 256

func (app *Application) CreateBookingHandler(w http.ResponseWriter, r *http.Request) {
	var input api.CreateBookingRequest

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

	detail, err := app.bookings.CreateBooking(r.Context(), toCreateBookingInput(input))
	if err != nil {
		app.domainErrorResponse(w, r, err)
		return
	}

	headers := make(http.Header)
	headers.Set("Location", fmt.Sprintf("/bookings/%s", detail.ConfirmationCode))

	err = app.writeJSON(w, http.StatusCreated, toBookingResponse(detail), headers)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

func (app *Application) GetBookingHandler(w http.ResponseWriter, r *http.Request) {
	code := strings.TrimSpace(chi.URLParam(r, "confirmationCode"))

	detail, err := app.bookings.GetByConfirmationCode(r.Context(), code)
	if err != nil {
		app.domainErrorResponse(w, r, err)
		return
	}

	err = app.writeJSON(w, http.StatusOK, toBookingResponse(detail), nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

// GetBookingQRHandler renders the confirmation code as a PNG for the ticket.
func (app *Application) GetBookingQRHandler(w http.ResponseWriter, r *http.Request) {
	code := strings.TrimSpace(chi.URLParam(r, "confirmationCode"))

	detail, err := app.bookings.GetByConfirmationCode(r.Context(), code)
	if err != nil {
		app.domainErrorResponse(w, r, err)
		return
	}

	if detail.PaymentStatus != domain.PaymentStatusCompleted {
		app.editConflictResponseWithErr(w, r, fmt.Errorf("booking %s has not been paid", detail.ConfirmationCode))
		return
	}

	png, err := qrcode.Encode(detail.ConfirmationCode, qrcode.Medium, qrCodeSize)
	if err != nil {
		app.serverErrorResponse(w, r, err)
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "private, max-age=3600")
	w.WriteHeader(http.StatusOK)
	w.Write(png)
}

func (app *Application) LookupBookingsHandler(w http.ResponseWriter, r *http.Request) {
	var input api.BookingLookupRequest

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

	details, err := app.bookings.LookupBookings(r.Context(), input.Phone, string(input.Email))
	if err != nil {
		app.serverErrorResponse(w, r, err)
		return
	}

	resp := api.BookingListResponse{
		Bookings: make([]api.BookingResponse, len(details)),
	}

	for i := range details {
		resp.Bookings[i] = toBookingResponse(&details[i])
	}

	err = app.writeJSON(w, http.StatusOK, resp, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

func toCreateBookingInput(req api.CreateBookingRequest) booking.CreateBookingInput {
	in := booking.CreateBookingInput{
		ShowtimeID: req.ShowtimeId,
		Customer: domain.CustomerInfo{
			FullName: strings.TrimSpace(req.CustomerInfo.FullName),
			Phone:    strings.TrimSpace(req.CustomerInfo.Phone),
			Email:    fromEmail(req.CustomerInfo.Email),
		},
		SeatIDs: req.Seats,
	}

	for _, t := range req.TicketTypes {
		in.Tickets = append(in.Tickets, booking.TicketInput{
			Type:           t.Type,
			Quantity:       t.Quantity,
			PricePerTicket: t.PricePerTicket,
		})
	}

	for _, c := range req.Concessions {
		in.Concessions = append(in.Concessions, booking.ConcessionInput{
			ItemID:   c.ItemId,
			Quantity: c.Quantity,
		})
	}

	return in
}

func toBookingResponse(detail *domain.BookingDetail) api.BookingResponse {
	resp := api.BookingResponse{
		Id:               detail.ID,
		ConfirmationCode: detail.ConfirmationCode,
		ShowtimeId:       detail.ShowtimeID,
		MovieTitle:       detail.MovieTitle,
		CinemaName:       detail.CinemaName,
		RoomName:         detail.RoomName,
		CustomerInfo: api.CustomerInfo{
			FullName: detail.Customer.FullName,
			Phone:    detail.Customer.Phone,
			Email:    toEmail(detail.Customer.Email),
		},
		Seats:            detail.Seats,
		TicketTypes:      make([]api.TicketLine, len(detail.Tickets)),
		Concessions:      make([]api.ConcessionLine, len(detail.Concessions)),
		TotalPrice:       detail.TotalPrice,
		PaymentStatus:    string(detail.PaymentStatus),
		PaymentMethod:    detail.PaymentMethod,
		PaymentReference: detail.PaymentReference,
		CreatedAt:        detail.CreatedAt,
	}

	if !detail.ShowDateTime.IsZero() {
		showDateTime := detail.ShowDateTime
		resp.ShowDateTime = &showDateTime
	}

	for i, t := range detail.Tickets {
		resp.TicketTypes[i] = api.TicketLine{
			Type:           t.Type,
			Quantity:       t.Quantity,
			PricePerTicket: t.PricePerTicket,
			Subtotal:       t.Subtotal,
		}
	}

	for i, c := range detail.Concessions {
		resp.Concessions[i] = api.ConcessionLine{
			ItemId:   c.ItemID,
			Name:     c.Name,
			Quantity: c.Quantity,
			Price:    c.Price,
		}
	}

	return resp
}

func fromEmail(email *openapi_types.Email) string {
	if email == nil {
		return ""
	}

	return strings.TrimSpace(string(*email))
}

func toEmail(email string) *openapi_types.Email {
	if email == "" {
		return nil
	}

	e := openapi_types.Email(email)
	return &e
}
