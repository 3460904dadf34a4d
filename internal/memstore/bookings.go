package memstore

import (
	"context"
	"slices"
	"time"

	"github.com/metinatakli/cinema-seat-booking/internal/domain"
)

func (s *Store) Bookings() *BookingStore {
	return &BookingStore{s: s}
}

type BookingStore struct {
	s *Store
}

func (b *BookingStore) Create(ctx context.Context, booking *domain.Booking) error {
	if booking == nil {
		return errNilEntity
	}

	unlock, err := b.s.lockRow(ctx, bookingRow(booking.ID), true)
	if err != nil {
		return err
	}
	defer unlock()

	for _, existing := range b.s.bookings {
		if existing.ConfirmationCode == booking.ConfirmationCode {
			return domain.ErrDuplicateConfirmationCode
		}
	}

	if booking.CreatedAt.IsZero() {
		booking.CreatedAt = time.Now().UTC()
		booking.UpdatedAt = booking.CreatedAt
	}

	cp := copyBooking(booking)
	b.s.bookings[cp.ID] = cp

	recordUndo(ctx, func() {
		b.s.mu.Lock()
		delete(b.s.bookings, cp.ID)
		b.s.mu.Unlock()
	})

	return nil
}

func (b *BookingStore) GetByID(ctx context.Context, id string) (*domain.Booking, error) {
	unlock, err := b.s.lockRow(ctx, bookingRow(id), false)
	if err != nil {
		return nil, err
	}
	defer unlock()

	booking, ok := b.s.bookings[id]
	if !ok {
		return nil, domain.ErrRecordNotFound
	}

	return copyBooking(booking), nil
}

func (b *BookingStore) GetByConfirmationCode(ctx context.Context, code string) (*domain.Booking, error) {
	b.s.mu.RLock()
	defer b.s.mu.RUnlock()

	for _, booking := range b.s.bookings {
		if booking.ConfirmationCode == code {
			return copyBooking(booking), nil
		}
	}

	return nil, domain.ErrRecordNotFound
}

func (b *BookingStore) GetByCustomerContact(ctx context.Context, phone, email string) ([]domain.Booking, error) {
	b.s.mu.RLock()
	defer b.s.mu.RUnlock()

	bookings := make([]domain.Booking, 0)
	for _, booking := range b.s.bookings {
		if booking.Customer.Phone == phone && booking.Customer.Email == email {
			bookings = append(bookings, *copyBooking(booking))
		}
	}

	slices.SortFunc(bookings, func(x, y domain.Booking) int {
		return y.CreatedAt.Compare(x.CreatedAt)
	})

	return bookings, nil
}

func (b *BookingStore) MarkCompleted(ctx context.Context, id, paymentMethod, paymentReference string) (bool, error) {
	unlock, err := b.s.lockRow(ctx, bookingRow(id), true)
	if err != nil {
		return false, err
	}
	defer unlock()

	booking, ok := b.s.bookings[id]
	if !ok {
		return false, domain.ErrRecordNotFound
	}

	if booking.PaymentStatus != domain.PaymentStatusPending {
		return false, nil
	}

	previous := *booking

	booking.PaymentStatus = domain.PaymentStatusCompleted
	booking.PaymentMethod = paymentMethod
	booking.PaymentReference = paymentReference
	booking.UpdatedAt = time.Now().UTC()

	recordUndo(ctx, func() {
		b.s.mu.Lock()
		*booking = previous
		b.s.mu.Unlock()
	})

	return true, nil
}

// BookingCount is a test helper.
func (s *Store) BookingCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return len(s.bookings)
}

func copyBooking(booking *domain.Booking) *domain.Booking {
	cp := *booking
	cp.Seats = slices.Clone(booking.Seats)
	cp.Tickets = slices.Clone(booking.Tickets)
	cp.Concessions = slices.Clone(booking.Concessions)

	return &cp
}
