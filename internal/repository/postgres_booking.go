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

const bookingsConfirmationCodeKey = "bookings_confirmation_code_key"

type PostgresBookingRepository struct {
	db *pgxpool.Pool
}

func NewPostgresBookingRepository(db *pgxpool.Pool) *PostgresBookingRepository {
	return &PostgresBookingRepository{
		db: db,
	}
}

const bookingColumns = `
	id, showtime_id, customer_full_name, customer_phone, customer_email, seats,
	tickets, concessions, total_price, payment_status, payment_method,
	payment_reference, confirmation_code, created_at, updated_at`

func (p *PostgresBookingRepository) Create(ctx context.Context, booking *domain.Booking) error {
	tickets, err := json.Marshal(booking.Tickets)
	if err != nil {
		return fmt.Errorf("failed to encode tickets: %w", err)
	}

	concessions, err := json.Marshal(booking.Concessions)
	if err != nil {
		return fmt.Errorf("failed to encode concessions: %w", err)
	}

	query := `
		INSERT INTO bookings (
			id,
			showtime_id,
			customer_full_name,
			customer_phone,
			customer_email,
			seats,
			tickets,
			concessions,
			total_price,
			payment_status,
			confirmation_code
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7::jsonb, $8::jsonb, $9, $10, $11)
		RETURNING created_at, updated_at
	`

	err = conn(ctx, p.db).QueryRow(
		ctx,
		query,
		booking.ID,
		booking.ShowtimeID,
		booking.Customer.FullName,
		booking.Customer.Phone,
		booking.Customer.Email,
		booking.Seats,
		string(tickets),
		string(concessions),
		booking.TotalPrice,
		booking.PaymentStatus,
		booking.ConfirmationCode,
	).Scan(&booking.CreatedAt, &booking.UpdatedAt)

	if err != nil {
		if isUniqueViolation(err, bookingsConfirmationCodeKey) {
			return domain.ErrDuplicateConfirmationCode
		}

		return err
	}

	return nil
}

func (p *PostgresBookingRepository) GetByID(ctx context.Context, id string) (*domain.Booking, error) {
	query := `SELECT ` + bookingColumns + ` FROM bookings WHERE id = $1`

	return p.getOne(ctx, query, id)
}

func (p *PostgresBookingRepository) GetByConfirmationCode(ctx context.Context, code string) (*domain.Booking, error) {
	query := `SELECT ` + bookingColumns + ` FROM bookings WHERE confirmation_code = $1`

	return p.getOne(ctx, query, code)
}

func (p *PostgresBookingRepository) getOne(ctx context.Context, query string, arg string) (*domain.Booking, error) {
	booking, err := scanBooking(conn(ctx, p.db).QueryRow(ctx, query, arg))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrRecordNotFound
		}

		return nil, err
	}

	return booking, nil
}

func (p *PostgresBookingRepository) GetByCustomerContact(
	ctx context.Context,
	phone,
	email string) ([]domain.Booking, error) {

	query := `SELECT ` + bookingColumns + `
		FROM bookings
		WHERE customer_phone = $1 AND customer_email = $2
		ORDER BY created_at DESC
	`

	rows, err := conn(ctx, p.db).Query(ctx, query, phone, email)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	bookings := make([]domain.Booking, 0)

	for rows.Next() {
		booking, err := scanBooking(rows)
		if err != nil {
			return nil, err
		}

		bookings = append(bookings, *booking)
	}

	if err = rows.Err(); err != nil {
		return nil, err
	}

	return bookings, nil
}

func (p *PostgresBookingRepository) MarkCompleted(
	ctx context.Context,
	id,
	paymentMethod,
	paymentReference string) (bool, error) {

	query := `
		UPDATE bookings
		SET payment_status = 'COMPLETED', payment_method = $2, payment_reference = $3, updated_at = NOW()
		WHERE id = $1 AND payment_status = 'PENDING'
	`

	tag, err := conn(ctx, p.db).Exec(ctx, query, id, paymentMethod, paymentReference)
	if err != nil {
		return false, err
	}

	if tag.RowsAffected() == 1 {
		return true, nil
	}

	var exists bool

	err = conn(ctx, p.db).QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM bookings WHERE id = $1)`, id).Scan(&exists)
	if err != nil {
		return false, err
	}

	if !exists {
		return false, domain.ErrRecordNotFound
	}

	return false, nil
}

func scanBooking(row pgx.Row) (*domain.Booking, error) {
	var booking domain.Booking
	var tickets, concessions []byte
	var status string

	err := row.Scan(
		&booking.ID,
		&booking.ShowtimeID,
		&booking.Customer.FullName,
		&booking.Customer.Phone,
		&booking.Customer.Email,
		&booking.Seats,
		&tickets,
		&concessions,
		&booking.TotalPrice,
		&status,
		&booking.PaymentMethod,
		&booking.PaymentReference,
		&booking.ConfirmationCode,
		&booking.CreatedAt,
		&booking.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	booking.PaymentStatus, err = domain.ParsePaymentStatus(status)
	if err != nil {
		return nil, err
	}

	err = json.Unmarshal(tickets, &booking.Tickets)
	if err != nil {
		return nil, fmt.Errorf("failed to decode tickets of booking %s: %w", booking.ID, err)
	}

	err = json.Unmarshal(concessions, &booking.Concessions)
	if err != nil {
		return nil, fmt.Errorf("failed to decode concessions of booking %s: %w", booking.ID, err)
	}

	return &booking, nil
}
