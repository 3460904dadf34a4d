package mocks

import (
	"context"

	"github.com/metinatakli/cinema-seat-booking/internal/domain"
	"github.com/stretchr/testify/mock"
)

type MockPaymentRepo struct {
	mock.Mock
	domain.PaymentRepository
}

func (m *MockPaymentRepo) Create(ctx context.Context, payment *domain.Payment) error {
	args := m.Called(ctx, payment)
	return args.Error(0)
}

func (m *MockPaymentRepo) GetByTransactionRef(ctx context.Context, ref string) (*domain.Payment, error) {
	args := m.Called(ctx, ref)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Payment), args.Error(1)
}

func (m *MockPaymentRepo) UpdateOutcome(
	ctx context.Context,
	payment *domain.Payment,
	expected domain.PaymentStatus) (bool, error) {

	args := m.Called(ctx, payment, expected)
	return args.Bool(0), args.Error(1)
}
