package booking

import (
	"fmt"
	"strings"

	"github.com/metinatakli/cinema-seat-booking/internal/domain"
	"github.com/shopspring/decimal"
)

const MaxSeatsPerBooking = 8

type TicketInput struct {
	Type           string
	Quantity       int
	PricePerTicket decimal.Decimal
}

type ConcessionInput struct {
	ItemID   string
	Quantity int
}

type CreateBookingInput struct {
	ShowtimeID  string
	Customer    domain.CustomerInfo
	SeatIDs     []string
	Tickets     []TicketInput
	Concessions []ConcessionInput
}

func (in CreateBookingInput) validate() error {
	if strings.TrimSpace(in.ShowtimeID) == "" {
		return domain.NewValidationError("showtimeId", "is required")
	}

	if strings.TrimSpace(in.Customer.FullName) == "" {
		return domain.NewValidationError("customerInfo.fullName", "is required")
	}

	if strings.TrimSpace(in.Customer.Phone) == "" {
		return domain.NewValidationError("customerInfo.phone", "is required")
	}

	if len(in.SeatIDs) == 0 {
		return domain.NewValidationError("seats", "at least one seat must be selected")
	}

	if len(in.SeatIDs) > MaxSeatsPerBooking {
		return domain.NewValidationError("seats", fmt.Sprintf("at most %d seats can be booked at once", MaxSeatsPerBooking))
	}

	seen := make(map[string]bool, len(in.SeatIDs))
	for _, seatID := range in.SeatIDs {
		if strings.TrimSpace(seatID) == "" {
			return domain.NewValidationError("seats", "seat id must not be empty")
		}

		if seen[seatID] {
			return domain.NewValidationError("seats", fmt.Sprintf("seat %s is selected more than once", seatID))
		}
		seen[seatID] = true
	}

	ticketCount := 0
	for _, t := range in.Tickets {
		if t.Quantity < 1 {
			return domain.NewValidationError("ticketTypes", "quantity must be greater than zero")
		}

		if t.PricePerTicket.IsNegative() {
			return domain.NewValidationError("ticketTypes", "price must not be negative")
		}

		ticketCount += t.Quantity
	}

	if len(in.Tickets) > 0 && ticketCount != len(in.SeatIDs) {
		return domain.NewValidationError("ticketTypes", "ticket quantities must match the number of seats")
	}

	for _, c := range in.Concessions {
		if strings.TrimSpace(c.ItemID) == "" {
			return domain.NewValidationError("concessions", "item id is required")
		}

		if c.Quantity < 1 {
			return domain.NewValidationError("concessions", "quantity must be greater than zero")
		}
	}

	return nil
}

func ticketLines(inputs []TicketInput) []domain.TicketLine {
	lines := make([]domain.TicketLine, len(inputs))

	for i, in := range inputs {
		lines[i] = domain.TicketLine{
			Type:           in.Type,
			Quantity:       in.Quantity,
			PricePerTicket: in.PricePerTicket,
			Subtotal:       in.PricePerTicket.Mul(decimal.NewFromInt(int64(in.Quantity))),
		}
	}

	return lines
}

func totalPrice(tickets []domain.TicketLine, concessions []domain.ConcessionLine) decimal.Decimal {
	total := decimal.Zero

	for _, t := range tickets {
		total = total.Add(t.Subtotal)
	}

	for _, c := range concessions {
		total = total.Add(c.Price.Mul(decimal.NewFromInt(int64(c.Quantity))))
	}

	return total
}
