package booking

import (
	"context"

	"github.com/metinatakli/cinema-seat-booking/internal/domain"
)

const notAvailable = "N/A"

// enrich adds catalog names to a booking. Lookup failures degrade to "N/A"
// because the booking itself is already valid.
func (o *Orchestrator) enrich(ctx context.Context, booking *domain.Booking, showtime *domain.Showtime) *domain.BookingDetail {
	detail := &domain.BookingDetail{
		Booking:    *booking,
		MovieTitle: notAvailable,
		CinemaName: notAvailable,
		RoomName:   notAvailable,
	}

	if showtime == nil {
		var err error

		showtime, err = o.showtimes.GetShowtime(ctx, booking.ShowtimeID)
		if err != nil {
			o.logger.Warn("showtime lookup failed for booking details", "booking_id", booking.ID, "error", err)
			return detail
		}
	}

	detail.ShowDateTime = showtime.ShowDateTime

	if movie, err := o.catalog.FindMovie(ctx, showtime.MovieID); err == nil {
		detail.MovieTitle = movie.Title
	}

	if cinema, err := o.catalog.FindCinema(ctx, showtime.CinemaID); err == nil {
		detail.CinemaName = cinema.Name
	}

	if room, err := o.catalog.FindRoom(ctx, showtime.RoomID); err == nil {
		detail.RoomName = room.Name
	}

	return detail
}
