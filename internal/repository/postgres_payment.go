package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/metinatakli/cinema-seat-booking/internal/domain"
)

const paymentsTransactionRefKey = "payments_transaction_ref_key"

type PostgresPaymentRepository struct {
	db *pgxpool.Pool
}

func NewPostgresPaymentRepository(db *pgxpool.Pool) *PostgresPaymentRepository {
	return &PostgresPaymentRepository{
		db: db,
	}
}

func (p *PostgresPaymentRepository) Create(ctx context.Context, payment *domain.Payment) error {
	query := `
		INSERT INTO payments (
			id,
			booking_id,
			transaction_ref,
			amount,
			status,
			order_info,
			payment_method,
			secure_hash
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING created_at
	`

	err := conn(ctx, p.db).QueryRow(
		ctx,
		query,
		payment.ID,
		payment.BookingID,
		payment.TransactionRef,
		payment.Amount,
		payment.Status,
		payment.OrderInfo,
		payment.PaymentMethod,
		payment.SecureHash,
	).Scan(&payment.CreatedAt)

	if err != nil {
		if isUniqueViolation(err, paymentsTransactionRefKey) {
			return domain.ErrDuplicateTransactionRef
		}

		return err
	}

	return nil
}

func (p *PostgresPaymentRepository) GetByTransactionRef(ctx context.Context, ref string) (*domain.Payment, error) {
	query := `
		SELECT
			id,
			booking_id,
			transaction_ref,
			amount,
			status,
			order_info,
			response_code,
			gateway_transaction_no,
			bank_code,
			payment_method,
			secure_hash,
			raw_log,
			created_at,
			paid_at
		FROM payments
		WHERE transaction_ref = $1
	`

	var payment domain.Payment
	var status string
	var rawLog []byte

	err := conn(ctx, p.db).QueryRow(ctx, query, ref).Scan(
		&payment.ID,
		&payment.BookingID,
		&payment.TransactionRef,
		&payment.Amount,
		&status,
		&payment.OrderInfo,
		&payment.ResponseCode,
		&payment.GatewayTransactionNo,
		&payment.BankCode,
		&payment.PaymentMethod,
		&payment.SecureHash,
		&rawLog,
		&payment.CreatedAt,
		&payment.PaidAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrRecordNotFound
		}

		return nil, err
	}

	payment.Status, err = domain.ParsePaymentStatus(status)
	if err != nil {
		return nil, err
	}

	if len(rawLog) > 0 {
		err = json.Unmarshal(rawLog, &payment.RawLog)
		if err != nil {
			return nil, fmt.Errorf("failed to decode raw log of payment %s: %w", payment.ID, err)
		}
	}

	return &payment, nil
}

func (p *PostgresPaymentRepository) UpdateOutcome(
	ctx context.Context,
	payment *domain.Payment,
	expected domain.PaymentStatus) (bool, error) {

	var rawLog any
	if payment.RawLog != nil {
		encoded, err := json.Marshal(payment.RawLog)
		if err != nil {
			return false, fmt.Errorf("failed to encode raw log: %w", err)
		}
		rawLog = string(encoded)
	}

	query := `
		UPDATE payments
		SET status = $2,
			response_code = $3,
			gateway_transaction_no = $4,
			bank_code = $5,
			payment_method = $6,
			secure_hash = $7,
			raw_log = $8::jsonb,
			paid_at = $9
		WHERE transaction_ref = $1 AND status = $10
	`

	tag, err := conn(ctx, p.db).Exec(
		ctx,
		query,
		payment.TransactionRef,
		payment.Status,
		payment.ResponseCode,
		payment.GatewayTransactionNo,
		payment.BankCode,
		payment.PaymentMethod,
		payment.SecureHash,
		rawLog,
		payment.PaidAt,
		expected,
	)
	if err != nil {
		return false, err
	}

	return tag.RowsAffected() == 1, nil
}
