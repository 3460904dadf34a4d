package mocks

import (
	"context"
	"net/url"

	"github.com/metinatakli/cinema-seat-booking/internal/domain"
	"github.com/metinatakli/cinema-seat-booking/internal/payment"
	"github.com/stretchr/testify/mock"
)

type MockPaymentService struct {
	mock.Mock
}

func (m *MockPaymentService) CreatePaymentURL(ctx context.Context, in payment.CreatePaymentInput) (*payment.PaymentURL, error) {
	args := m.Called(ctx, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*payment.PaymentURL), args.Error(1)
}

func (m *MockPaymentService) ProcessGatewayResponse(
	ctx context.Context,
	params url.Values,
	channel payment.Channel) (*payment.Outcome, error) {

	args := m.Called(ctx, params, channel)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*payment.Outcome), args.Error(1)
}

func (m *MockPaymentService) GetPaymentByReference(ctx context.Context, ref string) (*domain.Payment, error) {
	args := m.Called(ctx, ref)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Payment), args.Error(1)
}
