package domain

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

type CustomerInfo struct {
	FullName string `json:"fullName"`
	Phone    string `json:"phone"`
	Email    string `json:"email,omitempty"`
}

type TicketLine struct {
	Type           string          `json:"type"`
	Quantity       int             `json:"quantity"`
	PricePerTicket decimal.Decimal `json:"pricePerTicket"`
	Subtotal       decimal.Decimal `json:"subtotal"`
}

type ConcessionLine struct {
	ItemID   string          `json:"itemId"`
	Name     string          `json:"name"`
	Quantity int             `json:"quantity"`
	Price    decimal.Decimal `json:"price"`
}

type Booking struct {
	ID               string
	ShowtimeID       string
	Customer         CustomerInfo
	Seats            []string
	Tickets          []TicketLine
	Concessions      []ConcessionLine
	TotalPrice       decimal.Decimal
	PaymentStatus    PaymentStatus
	PaymentMethod    string
	PaymentReference string
	ConfirmationCode string
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

type BookingDetail struct {
	Booking
	MovieTitle   string
	CinemaName   string
	RoomName     string
	ShowDateTime time.Time
}

type BookingRepository interface {
	// Create returns ErrDuplicateConfirmationCode when the code is already taken.
	Create(ctx context.Context, booking *Booking) error
	GetByID(ctx context.Context, id string) (*Booking, error)
	GetByConfirmationCode(ctx context.Context, code string) (*Booking, error)
	GetByCustomerContact(ctx context.Context, phone, email string) ([]Booking, error)
	// MarkCompleted moves a PENDING booking to COMPLETED and reports whether a row changed.
	MarkCompleted(ctx context.Context, id, paymentMethod, paymentReference string) (bool, error)
}
