package domain

import (
	"context"
	"fmt"
	"time"
)

type PaymentStatus string

const (
	PaymentStatusPending   PaymentStatus = "PENDING"
	PaymentStatusCompleted PaymentStatus = "COMPLETED"
	PaymentStatusFailed    PaymentStatus = "FAILED"
)

func ParsePaymentStatus(s string) (PaymentStatus, error) {
	switch status := PaymentStatus(s); status {
	case PaymentStatusPending, PaymentStatusCompleted, PaymentStatusFailed:
		return status, nil
	default:
		return "", fmt.Errorf("invalid payment status %q", s)
	}
}

type Payment struct {
	ID                   string
	BookingID            string
	TransactionRef       string
	Amount               int64
	Status               PaymentStatus
	OrderInfo            string
	ResponseCode         string
	GatewayTransactionNo string
	BankCode             string
	PaymentMethod        string
	SecureHash           string
	RawLog               map[string]string
	CreatedAt            time.Time
	PaidAt               *time.Time
}

type PaymentRepository interface {
	// Create returns ErrDuplicateTransactionRef when the reference is already taken.
	Create(ctx context.Context, payment *Payment) error
	GetByTransactionRef(ctx context.Context, ref string) (*Payment, error)
	// UpdateOutcome persists status and gateway response fields only if the stored
	// status still equals expected, and reports whether a row changed.
	UpdateOutcome(ctx context.Context, payment *Payment, expected PaymentStatus) (bool, error)
}
