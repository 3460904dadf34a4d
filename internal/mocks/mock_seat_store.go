package mocks

import (
	"context"

	"github.com/metinatakli/cinema-seat-booking/internal/domain"
	"github.com/stretchr/testify/mock"
)

type MockSeatStore struct {
	mock.Mock
	domain.SeatStore
}

func (m *MockSeatStore) GetShowtime(ctx context.Context, id string) (*domain.Showtime, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Showtime), args.Error(1)
}

func (m *MockSeatStore) TransitionSeat(ctx context.Context, t domain.SeatTransition) (bool, error) {
	args := m.Called(ctx, t)
	return args.Bool(0), args.Error(1)
}

func (m *MockSeatStore) ListShowtimesWithHoldingSeats(ctx context.Context) ([]domain.Showtime, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Showtime), args.Error(1)
}
