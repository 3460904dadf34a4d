// Package api holds the request and response bodies of the HTTP API.
package api

import (
	"time"

	openapi_types "github.com/oapi-codegen/runtime/types"
	"github.com/shopspring/decimal"
)

type ErrorResponse struct {
	Message   string    `json:"message"`
	RequestId string    `json:"requestId"`
	Timestamp time.Time `json:"timestamp"`
}

type ValidationError struct {
	Field string `json:"field"`
	Issue string `json:"issue"`
}

type ValidationErrorResponse struct {
	Message          string            `json:"message"`
	RequestId        string            `json:"requestId"`
	Timestamp        time.Time         `json:"timestamp"`
	ValidationErrors []ValidationError `json:"validationErrors"`
}

type SystemInfo struct {
	Version     string `json:"version"`
	Environment string `json:"environment"`
	Store       string `json:"store"`
}

type HealthcheckResponse struct {
	Status     string     `json:"status"`
	SystemInfo SystemInfo `json:"systemInfo"`
}

type SeatStatus struct {
	State         string     `json:"state"`
	HoldStartedAt *time.Time `json:"holdStartedAt,omitempty"`
	BookingId     *string    `json:"bookingId,omitempty"`
}

type SeatStatusResponse struct {
	ShowtimeId     string                `json:"showtimeId"`
	Status         string                `json:"status"`
	TotalSeats     int                   `json:"totalSeats"`
	AvailableSeats int                   `json:"availableSeats"`
	HoldingSeats   int                   `json:"holdingSeats"`
	BookedSeats    int                   `json:"bookedSeats"`
	SeatMap        map[string]SeatStatus `json:"seatMap"`
}

type HoldSeatsRequest struct {
	ShowtimeId    string   `json:"showtimeId" validate:"required"`
	SeatIds       []string `json:"seatIds" validate:"required,min=1,max=8,unique,dive,required"`
	CustomerPhone string   `json:"customerPhone" validate:"required,phone"`
}

type SeatsRequest struct {
	ShowtimeId string   `json:"showtimeId" validate:"required"`
	SeatIds    []string `json:"seatIds" validate:"required,min=1,max=8,unique,dive,required"`
}

type SeatHoldResponse struct {
	ShowtimeId string     `json:"showtimeId"`
	SeatIds    []string   `json:"seatIds"`
	Status     string     `json:"status"`
	ExpiresAt  *time.Time `json:"expiresAt,omitempty"`
}

type CustomerInfo struct {
	FullName string               `json:"fullName" validate:"required,max=100"`
	Phone    string               `json:"phone" validate:"required,phone"`
	Email    *openapi_types.Email `json:"email,omitempty" validate:"omitempty,email"`
}

type TicketType struct {
	Type           string          `json:"type" validate:"required"`
	Quantity       int             `json:"quantity" validate:"gte=1"`
	PricePerTicket decimal.Decimal `json:"pricePerTicket"`
}

type ConcessionItem struct {
	ItemId   string `json:"itemId" validate:"required"`
	Quantity int    `json:"quantity" validate:"gte=1"`
}

type CreateBookingRequest struct {
	ShowtimeId   string           `json:"showtimeId" validate:"required"`
	CustomerInfo CustomerInfo     `json:"customerInfo"`
	Seats        []string         `json:"seats" validate:"required,min=1,max=8,unique,dive,required"`
	TicketTypes  []TicketType     `json:"ticketTypes" validate:"dive"`
	Concessions  []ConcessionItem `json:"concessions" validate:"dive"`
}

type TicketLine struct {
	Type           string          `json:"type"`
	Quantity       int             `json:"quantity"`
	PricePerTicket decimal.Decimal `json:"pricePerTicket"`
	Subtotal       decimal.Decimal `json:"subtotal"`
}

type ConcessionLine struct {
	ItemId   string          `json:"itemId"`
	Name     string          `json:"name"`
	Quantity int             `json:"quantity"`
	Price    decimal.Decimal `json:"price"`
}

type BookingResponse struct {
	Id               string           `json:"id"`
	ConfirmationCode string           `json:"confirmationCode"`
	ShowtimeId       string           `json:"showtimeId"`
	MovieTitle       string           `json:"movieTitle"`
	CinemaName       string           `json:"cinemaName"`
	RoomName         string           `json:"roomName"`
	ShowDateTime     *time.Time       `json:"showDateTime,omitempty"`
	CustomerInfo     CustomerInfo     `json:"customerInfo"`
	Seats            []string         `json:"seats"`
	TicketTypes      []TicketLine     `json:"ticketTypes"`
	Concessions      []ConcessionLine `json:"concessions"`
	TotalPrice       decimal.Decimal  `json:"totalPrice"`
	PaymentStatus    string           `json:"paymentStatus"`
	PaymentMethod    string           `json:"paymentMethod,omitempty"`
	PaymentReference string           `json:"paymentReference,omitempty"`
	CreatedAt        time.Time        `json:"createdAt"`
}

type BookingLookupRequest struct {
	Phone string              `json:"phone" validate:"required,phone"`
	Email openapi_types.Email `json:"email" validate:"required,email"`
}

type BookingListResponse struct {
	Bookings []BookingResponse `json:"bookings"`
}

type CreatePaymentRequest struct {
	BookingId openapi_types.UUID `json:"bookingId" validate:"required,booking_id"`
	ReturnUrl string             `json:"returnUrl,omitempty" validate:"omitempty,url"`
}

type PaymentUrlResponse struct {
	PaymentUrl     string    `json:"paymentUrl"`
	TransactionRef string    `json:"transactionRef"`
	Amount         int64     `json:"amount"`
	ExpiresAt      time.Time `json:"expiresAt"`
}

type PaymentStatusResponse struct {
	TransactionRef       string     `json:"transactionRef"`
	BookingId            string     `json:"bookingId"`
	Amount               int64      `json:"amount"`
	Status               string     `json:"status"`
	ResponseCode         string     `json:"responseCode,omitempty"`
	GatewayTransactionNo string     `json:"gatewayTransactionNo,omitempty"`
	BankCode             string     `json:"bankCode,omitempty"`
	PaidAt               *time.Time `json:"paidAt,omitempty"`
	CreatedAt            time.Time  `json:"createdAt"`
}
