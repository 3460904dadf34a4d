package domain

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

type BookingConfirmedEvent struct {
	BookingID        string          `json:"bookingId"`
	ConfirmationCode string          `json:"confirmationCode"`
	ShowtimeID       string          `json:"showtimeId"`
	Seats            []string        `json:"seats"`
	TotalPrice       decimal.Decimal `json:"totalPrice"`
	PaymentReference string          `json:"paymentReference"`
	CustomerPhone    string          `json:"customerPhone"`
	CustomerEmail    string          `json:"customerEmail,omitempty"`
	ConfirmedAt      time.Time       `json:"confirmedAt"`
}

type EventPublisher interface {
	PublishBookingConfirmed(ctx context.Context, event BookingConfirmedEvent) error
}
