package mocks

import (
	"context"

	"github.com/metinatakli/cinema-seat-booking/internal/domain"
	"github.com/stretchr/testify/mock"
)

type MockBookingRepo struct {
	mock.Mock
	domain.BookingRepository
}

func (m *MockBookingRepo) Create(ctx context.Context, booking *domain.Booking) error {
	args := m.Called(ctx, booking)
	return args.Error(0)
}

func (m *MockBookingRepo) GetByID(ctx context.Context, id string) (*domain.Booking, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Booking), args.Error(1)
}

func (m *MockBookingRepo) MarkCompleted(ctx context.Context, id, paymentMethod, paymentReference string) (bool, error) {
	args := m.Called(ctx, id, paymentMethod, paymentReference)
	return args.Bool(0), args.Error(1)
}
