package domain

import (
	"fmt"
	"time"
)

type SeatState string

const (
	SeatAvailable   SeatState = "AVAILABLE"
	SeatHolding     SeatState = "HOLDING"
	SeatBooked      SeatState = "BOOKED"
	SeatUnavailable SeatState = "UNAVAILABLE"
)

func ParseSeatState(s string) (SeatState, error) {
	switch state := SeatState(s); state {
	case SeatAvailable, SeatHolding, SeatBooked, SeatUnavailable:
		return state, nil
	default:
		return "", fmt.Errorf("invalid seat state %q", s)
	}
}

// CanTransitionTo reports whether the seat state machine allows moving from s to next.
// BOOKED and UNAVAILABLE are terminal for the booking flow.
func (s SeatState) CanTransitionTo(next SeatState) bool {
	switch s {
	case SeatAvailable:
		return next == SeatHolding
	case SeatHolding:
		return next == SeatAvailable || next == SeatBooked
	default:
		return false
	}
}

type SeatStatus struct {
	State         SeatState  `json:"state"`
	HoldStartedAt *time.Time `json:"holdStartedAt,omitempty"`
	BookingID     *string    `json:"bookingId,omitempty"`
}

// SeatMap is keyed by seat id. A seat without an entry is AVAILABLE.
type SeatMap map[string]SeatStatus

func (m SeatMap) Status(seatID string) SeatStatus {
	if status, ok := m[seatID]; ok {
		return status
	}

	return SeatStatus{State: SeatAvailable}
}

type SeatCounters struct {
	Available int
	Holding   int
	Booked    int
}

func (m SeatMap) Counters(totalSeats int) SeatCounters {
	var c SeatCounters

	for _, status := range m {
		switch status.State {
		case SeatHolding:
			c.Holding++
		case SeatBooked:
			c.Booked++
		}
	}

	c.Available = totalSeats - c.Holding - c.Booked

	return c
}

// SeatTransition is a compare-and-swap on a single seat. The store applies To only
// when the seat's current state is one of From (absent counts as AVAILABLE) and,
// when set, holdStartedAt is strictly after HeldAfter or strictly before HeldBefore.
// Unstamped requires the seat to carry no holdStartedAt at all.
type SeatTransition struct {
	ShowtimeID string
	SeatID     string
	From       []SeatState
	To         SeatStatus
	HeldAfter  *time.Time
	HeldBefore *time.Time
	Unstamped  bool
}

// Matches evaluates the transition precondition against the current seat status.
func (t SeatTransition) Matches(current SeatStatus) bool {
	allowed := false
	for _, from := range t.From {
		if current.State != from {
			continue
		}

		// HOLDING -> HOLDING is an extension, not a state change.
		if from == t.To.State || from.CanTransitionTo(t.To.State) {
			allowed = true
			break
		}
	}

	if !allowed {
		return false
	}

	if t.HeldAfter != nil && (current.HoldStartedAt == nil || !current.HoldStartedAt.After(*t.HeldAfter)) {
		return false
	}

	if t.HeldBefore != nil && (current.HoldStartedAt == nil || !current.HoldStartedAt.Before(*t.HeldBefore)) {
		return false
	}

	if t.Unstamped && current.HoldStartedAt != nil {
		return false
	}

	return true
}
