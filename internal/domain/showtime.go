package domain

import (
	"context"
	"fmt"
	"time"
)

type ShowtimeStatus string

const (
	ShowtimeActive     ShowtimeStatus = "ACTIVE"
	ShowtimeInactive   ShowtimeStatus = "INACTIVE"
	ShowtimeComingSoon ShowtimeStatus = "COMING_SOON"
	ShowtimeEnded      ShowtimeStatus = "ENDED"
)

func ParseShowtimeStatus(s string) (ShowtimeStatus, error) {
	switch status := ShowtimeStatus(s); status {
	case ShowtimeActive, ShowtimeInactive, ShowtimeComingSoon, ShowtimeEnded:
		return status, nil
	default:
		return "", fmt.Errorf("invalid showtime status %q", s)
	}
}

type Showtime struct {
	ID              string
	MovieID         string
	CinemaID        string
	RoomID          string
	ShowDateTime    time.Time
	TotalSeats      int
	AvailableSeats  int
	Status          ShowtimeStatus
	SeatMap         SeatMap
	HasHoldingSeats bool
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// SeatStore owns the per-showtime seat map. Implementations must apply each
// SeatTransition atomically and recompute AvailableSeats and HasHoldingSeats
// in the same write.
type SeatStore interface {
	GetShowtime(ctx context.Context, id string) (*Showtime, error)
	// TransitionSeat returns false without error when the precondition does not hold.
	TransitionSeat(ctx context.Context, t SeatTransition) (bool, error)
	ListShowtimesWithHoldingSeats(ctx context.Context) ([]Showtime, error)
}
