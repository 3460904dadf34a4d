package seathold

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/metinatakli/cinema-seat-booking/internal/domain"
)

const DefaultHoldTTL = 10 * time.Minute

type Manager struct {
	store  domain.SeatStore
	ttl    time.Duration
	now    func() time.Time
	logger *slog.Logger
}

type Option func(*Manager)

func WithHoldTTL(ttl time.Duration) Option {
	return func(m *Manager) {
		if ttl > 0 {
			m.ttl = ttl
		}
	}
}

func WithClock(now func() time.Time) Option {
	return func(m *Manager) {
		m.now = now
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(m *Manager) {
		m.logger = logger
	}
}

func NewManager(store domain.SeatStore, opts ...Option) *Manager {
	m := &Manager{
		store:  store,
		ttl:    DefaultHoldTTL,
		now:    time.Now,
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}

	for _, opt := range opts {
		opt(m)
	}

	return m
}

func (m *Manager) TTL() time.Duration {
	return m.ttl
}

// HoldSeats moves every seat to HOLDING or none of them. Seats already held by
// this call are released again before a failure is returned.
func (m *Manager) HoldSeats(ctx context.Context, showtimeID string, seatIDs []string, holderRef string) error {
	logger := m.logger.With("showtime_id", showtimeID, "holder_ref", holderRef)

	now := m.now().UTC()
	held := make([]string, 0, len(seatIDs))

	for _, seatID := range seatIDs {
		ok, err := m.store.TransitionSeat(ctx, domain.SeatTransition{
			ShowtimeID: showtimeID,
			SeatID:     seatID,
			From:       []domain.SeatState{domain.SeatAvailable},
			To:         domain.SeatStatus{State: domain.SeatHolding, HoldStartedAt: &now},
		})
		if err == nil && ok {
			held = append(held, seatID)
			continue
		}

		m.rollbackHolds(ctx, showtimeID, held)

		if err != nil {
			return fmt.Errorf("failed to hold seat %s: %w", seatID, err)
		}

		logger.Warn("seat hold rejected: seat is not available", "seat_id", seatID)
		return &domain.SeatUnavailableError{ShowtimeID: showtimeID, SeatID: seatID}
	}

	logger.Info("seats held", "seats", seatIDs)

	return nil
}

func (m *Manager) rollbackHolds(ctx context.Context, showtimeID string, seatIDs []string) {
	if len(seatIDs) == 0 {
		return
	}

	// The caller may already be cancelled; compensation must still run.
	err := m.ReleaseSeats(context.WithoutCancel(ctx), showtimeID, seatIDs)
	if err != nil {
		m.logger.Error("failed to rollback seat holds", "showtime_id", showtimeID, "seats", seatIDs, "error", err)
	}
}

// ReleaseSeats returns HOLDING seats to AVAILABLE. Seats in any other state are skipped.
func (m *Manager) ReleaseSeats(ctx context.Context, showtimeID string, seatIDs []string) error {
	var errs []error

	for _, seatID := range seatIDs {
		ok, err := m.store.TransitionSeat(ctx, domain.SeatTransition{
			ShowtimeID: showtimeID,
			SeatID:     seatID,
			From:       []domain.SeatState{domain.SeatHolding},
			To:         domain.SeatStatus{State: domain.SeatAvailable},
		})
		if err != nil {
			errs = append(errs, fmt.Errorf("seat %s: %w", seatID, err))
			continue
		}

		if !ok {
			m.logger.Debug("release skipped: seat is not held", "showtime_id", showtimeID, "seat_id", seatID)
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("failed to release seats: %w", errors.Join(errs...))
	}

	return nil
}

// ExtendSeatHold restarts the hold timer for seats whose hold has not yet expired.
// An expired hold is never revived, even if the sweep has not reached it.
func (m *Manager) ExtendSeatHold(ctx context.Context, showtimeID string, seatIDs []string) error {
	now := m.now().UTC()
	threshold := now.Add(-m.ttl)

	for _, seatID := range seatIDs {
		ok, err := m.store.TransitionSeat(ctx, domain.SeatTransition{
			ShowtimeID: showtimeID,
			SeatID:     seatID,
			From:       []domain.SeatState{domain.SeatHolding},
			To:         domain.SeatStatus{State: domain.SeatHolding, HoldStartedAt: &now},
			HeldAfter:  &threshold,
		})
		if err != nil {
			return fmt.Errorf("failed to extend hold of seat %s: %w", seatID, err)
		}

		if !ok {
			m.logger.Warn("hold extension rejected", "showtime_id", showtimeID, "seat_id", seatID)
			return fmt.Errorf("seat %s: %w", seatID, domain.ErrHoldExpired)
		}
	}

	return nil
}

// ConfirmSeatBooking turns held seats into booked ones. It is meant to run inside
// the finalize transaction: a seat that is no longer HOLDING aborts the whole unit.
func (m *Manager) ConfirmSeatBooking(ctx context.Context, showtimeID string, seatIDs []string, bookingID string) error {
	for _, seatID := range seatIDs {
		ok, err := m.store.TransitionSeat(ctx, domain.SeatTransition{
			ShowtimeID: showtimeID,
			SeatID:     seatID,
			From:       []domain.SeatState{domain.SeatHolding},
			To:         domain.SeatStatus{State: domain.SeatBooked, BookingID: &bookingID},
		})
		if err != nil {
			return fmt.Errorf("failed to confirm seat %s: %w", seatID, err)
		}

		if ok {
			continue
		}

		state := domain.SeatAvailable

		showtime, err := m.store.GetShowtime(ctx, showtimeID)
		if err == nil {
			state = showtime.SeatMap.Status(seatID).State
		}

		m.logger.Error(
			"seat confirmation failed: seat is not held",
			"showtime_id", showtimeID,
			"seat_id", seatID,
			"booking_id", bookingID,
			"state", state,
		)

		return &domain.InconsistentStateError{ShowtimeID: showtimeID, SeatID: seatID, State: state}
	}

	return nil
}

// SweepExpiredHolds releases every hold older than the TTL and returns how many
// seats went back to AVAILABLE.
func (m *Manager) SweepExpiredHolds(ctx context.Context) (int, error) {
	showtimes, err := m.store.ListShowtimesWithHoldingSeats(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to list showtimes with holding seats: %w", err)
	}

	threshold := m.now().UTC().Add(-m.ttl)
	released := 0

	for _, showtime := range showtimes {
		for seatID, status := range showtime.SeatMap {
			if status.State != domain.SeatHolding {
				continue
			}

			// HeldBefore keeps a concurrent extension from being overwritten.
			transition := domain.SeatTransition{
				ShowtimeID: showtime.ID,
				SeatID:     seatID,
				From:       []domain.SeatState{domain.SeatHolding},
				To:         domain.SeatStatus{State: domain.SeatAvailable},
				HeldBefore: &threshold,
			}

			if status.HoldStartedAt == nil {
				// A hold with no start time can never age out on its own.
				m.logger.Warn("releasing seat hold without a start time", "showtime_id", showtime.ID, "seat_id", seatID)

				transition.HeldBefore = nil
				transition.Unstamped = true
			} else if !status.HoldStartedAt.Before(threshold) {
				continue
			}

			ok, err := m.store.TransitionSeat(ctx, transition)
			if err != nil {
				return released, fmt.Errorf("failed to release expired seat %s of showtime %s: %w", seatID, showtime.ID, err)
			}

			if ok {
				released++
			}
		}

		if err := ctx.Err(); err != nil {
			return released, err
		}
	}

	if released > 0 {
		m.logger.Info("expired seat holds released", "count", released, "showtimes", len(showtimes))
	}

	return released, nil
}
