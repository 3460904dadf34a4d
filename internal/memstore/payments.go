package memstore

import (
	"context"
	"maps"

	"github.com/metinatakli/cinema-seat-booking/internal/domain"
)

func (s *Store) Payments() *PaymentStore {
	return &PaymentStore{s: s}
}

type PaymentStore struct {
	s *Store
}

func (p *PaymentStore) Create(ctx context.Context, payment *domain.Payment) error {
	if payment == nil {
		return errNilEntity
	}

	unlock, err := p.s.lockRow(ctx, paymentRow(payment.TransactionRef), true)
	if err != nil {
		return err
	}
	defer unlock()

	if _, ok := p.s.payments[payment.TransactionRef]; ok {
		return domain.ErrDuplicateTransactionRef
	}

	cp := copyPayment(payment)
	p.s.payments[cp.TransactionRef] = cp

	recordUndo(ctx, func() {
		p.s.mu.Lock()
		delete(p.s.payments, cp.TransactionRef)
		p.s.mu.Unlock()
	})

	return nil
}

func (p *PaymentStore) GetByTransactionRef(ctx context.Context, ref string) (*domain.Payment, error) {
	unlock, err := p.s.lockRow(ctx, paymentRow(ref), false)
	if err != nil {
		return nil, err
	}
	defer unlock()

	payment, ok := p.s.payments[ref]
	if !ok {
		return nil, domain.ErrRecordNotFound
	}

	return copyPayment(payment), nil
}

func (p *PaymentStore) UpdateOutcome(ctx context.Context, payment *domain.Payment, expected domain.PaymentStatus) (bool, error) {
	unlock, err := p.s.lockRow(ctx, paymentRow(payment.TransactionRef), true)
	if err != nil {
		return false, err
	}
	defer unlock()

	stored, ok := p.s.payments[payment.TransactionRef]
	if !ok {
		return false, domain.ErrRecordNotFound
	}

	if stored.Status != expected {
		return false, nil
	}

	previous := copyPayment(stored)

	stored.Status = payment.Status
	stored.ResponseCode = payment.ResponseCode
	stored.GatewayTransactionNo = payment.GatewayTransactionNo
	stored.BankCode = payment.BankCode
	stored.PaymentMethod = payment.PaymentMethod
	stored.RawLog = maps.Clone(payment.RawLog)
	stored.PaidAt = payment.PaidAt

	recordUndo(ctx, func() {
		p.s.mu.Lock()
		*stored = *previous
		p.s.mu.Unlock()
	})

	return true, nil
}

func copyPayment(payment *domain.Payment) *domain.Payment {
	cp := *payment
	cp.RawLog = maps.Clone(payment.RawLog)

	if payment.PaidAt != nil {
		t := *payment.PaidAt
		cp.PaidAt = &t
	}

	return &cp
}
