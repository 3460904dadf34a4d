package mocks

import (
	"context"

	"github.com/metinatakli/cinema-seat-booking/internal/booking"
	"github.com/metinatakli/cinema-seat-booking/internal/domain"
	"github.com/stretchr/testify/mock"
)

type MockBookingService struct {
	mock.Mock
}

func (m *MockBookingService) CreateBooking(ctx context.Context, in booking.CreateBookingInput) (*domain.BookingDetail, error) {
	args := m.Called(ctx, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.BookingDetail), args.Error(1)
}

func (m *MockBookingService) GetByConfirmationCode(ctx context.Context, code string) (*domain.BookingDetail, error) {
	args := m.Called(ctx, code)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.BookingDetail), args.Error(1)
}

func (m *MockBookingService) LookupBookings(ctx context.Context, phone, email string) ([]domain.BookingDetail, error) {
	args := m.Called(ctx, phone, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.BookingDetail), args.Error(1)
}

func (m *MockBookingService) FinalizeSuccessfulPayment(
	ctx context.Context,
	bookingID,
	paymentMethod,
	transactionRef string) (*domain.Booking, error) {

	args := m.Called(ctx, bookingID, paymentMethod, transactionRef)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Booking), args.Error(1)
}
