package mocks

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"
)

type MockSeatService struct {
	mock.Mock
}

func (m *MockSeatService) HoldSeats(ctx context.Context, showtimeID string, seatIDs []string, holderRef string) error {
	args := m.Called(ctx, showtimeID, seatIDs, holderRef)
	return args.Error(0)
}

func (m *MockSeatService) ReleaseSeats(ctx context.Context, showtimeID string, seatIDs []string) error {
	args := m.Called(ctx, showtimeID, seatIDs)
	return args.Error(0)
}

func (m *MockSeatService) ExtendSeatHold(ctx context.Context, showtimeID string, seatIDs []string) error {
	args := m.Called(ctx, showtimeID, seatIDs)
	return args.Error(0)
}

func (m *MockSeatService) ConfirmSeatBooking(ctx context.Context, showtimeID string, seatIDs []string, bookingID string) error {
	args := m.Called(ctx, showtimeID, seatIDs, bookingID)
	return args.Error(0)
}

func (m *MockSeatService) TTL() time.Duration {
	args := m.Called()
	return args.Get(0).(time.Duration)
}

func (m *MockSeatService) SweepExpiredHolds(ctx context.Context) (int, error) {
	args := m.Called(ctx)
	return args.Int(0), args.Error(1)
}
