package booking

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/metinatakli/cinema-seat-booking/internal/domain"
)

const (
	DefaultConfirmationCodePrefix = "CINESTAR"
	confirmationCodeLength        = 8
	maxConfirmationCodeAttempts   = 5
)

type SeatHolder interface {
	HoldSeats(ctx context.Context, showtimeID string, seatIDs []string, holderRef string) error
	ReleaseSeats(ctx context.Context, showtimeID string, seatIDs []string) error
	ConfirmSeatBooking(ctx context.Context, showtimeID string, seatIDs []string, bookingID string) error
}

type ShowtimeReader interface {
	GetShowtime(ctx context.Context, id string) (*domain.Showtime, error)
}

type Orchestrator struct {
	showtimes ShowtimeReader
	seats     SeatHolder
	bookings  domain.BookingRepository
	catalog   domain.CatalogLookup
	tx        domain.Transactor

	codePrefix string
	now        func() time.Time
	newCode    func() string
	logger     *slog.Logger
}

type Option func(*Orchestrator)

func WithConfirmationCodePrefix(prefix string) Option {
	return func(o *Orchestrator) {
		o.codePrefix = prefix
	}
}

func WithClock(now func() time.Time) Option {
	return func(o *Orchestrator) {
		o.now = now
	}
}

// WithCodeSuffixGenerator replaces the random part of confirmation codes.
func WithCodeSuffixGenerator(gen func() string) Option {
	return func(o *Orchestrator) {
		o.newCode = gen
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(o *Orchestrator) {
		o.logger = logger
	}
}

func NewOrchestrator(
	showtimes ShowtimeReader,
	seats SeatHolder,
	bookings domain.BookingRepository,
	catalog domain.CatalogLookup,
	tx domain.Transactor,
	opts ...Option) *Orchestrator {

	o := &Orchestrator{
		showtimes:  showtimes,
		seats:      seats,
		bookings:   bookings,
		catalog:    catalog,
		tx:         tx,
		codePrefix: DefaultConfirmationCodePrefix,
		now:        time.Now,
		newCode:    randomCodeSuffix,
		logger:     slog.New(slog.NewTextHandler(io.Discard, nil)),
	}

	for _, opt := range opts {
		opt(o)
	}

	return o
}

// CreateBooking holds the requested seats and persists a PENDING booking. Any
// failure after the hold releases the seats again.
func (o *Orchestrator) CreateBooking(ctx context.Context, in CreateBookingInput) (*domain.BookingDetail, error) {
	err := in.validate()
	if err != nil {
		return nil, err
	}

	showtime, err := o.loadBookableShowtime(ctx, in.ShowtimeID)
	if err != nil {
		return nil, err
	}

	logger := o.logger.With("showtime_id", showtime.ID)

	err = o.seats.HoldSeats(ctx, showtime.ID, in.SeatIDs, in.Customer.Phone)
	if err != nil {
		return nil, err
	}

	booking, err := o.newBooking(ctx, showtime, in)
	if err == nil {
		err = o.persist(ctx, booking)
	}

	if err != nil {
		logger.Warn("booking creation failed after seats were held, releasing seats", "seats", in.SeatIDs, "error", err)

		releaseErr := o.seats.ReleaseSeats(context.WithoutCancel(ctx), showtime.ID, in.SeatIDs)
		if releaseErr != nil {
			logger.Error("failed to release seats after booking failure", "seats", in.SeatIDs, "error", releaseErr)
		}

		return nil, err
	}

	logger.Info("booking created", "booking_id", booking.ID, "confirmation_code", booking.ConfirmationCode)

	return o.enrich(ctx, booking, showtime), nil
}

func (o *Orchestrator) loadBookableShowtime(ctx context.Context, showtimeID string) (*domain.Showtime, error) {
	showtime, err := o.showtimes.GetShowtime(ctx, showtimeID)
	if err != nil {
		if errors.Is(err, domain.ErrRecordNotFound) {
			return nil, domain.NewValidationError("showtimeId", "showtime does not exist")
		}

		return nil, fmt.Errorf("failed to load showtime %s: %w", showtimeID, err)
	}

	if showtime.Status != domain.ShowtimeActive {
		return nil, domain.NewValidationError("showtimeId", "showtime is not open for booking")
	}

	if !showtime.ShowDateTime.After(o.now()) {
		return nil, domain.NewValidationError("showtimeId", "showtime has already started")
	}

	return showtime, nil
}

func (o *Orchestrator) newBooking(ctx context.Context, showtime *domain.Showtime, in CreateBookingInput) (*domain.Booking, error) {
	tickets := ticketLines(in.Tickets)

	concessions, err := o.concessionLines(ctx, showtime, in.Concessions)
	if err != nil {
		return nil, err
	}

	now := o.now().UTC()

	return &domain.Booking{
		ID:            uuid.NewString(),
		ShowtimeID:    showtime.ID,
		Customer:      in.Customer,
		Seats:         in.SeatIDs,
		Tickets:       tickets,
		Concessions:   concessions,
		TotalPrice:    totalPrice(tickets, concessions),
		PaymentStatus: domain.PaymentStatusPending,
		CreatedAt:     now,
		UpdatedAt:     now,
	}, nil
}

func (o *Orchestrator) concessionLines(
	ctx context.Context,
	showtime *domain.Showtime,
	inputs []ConcessionInput) ([]domain.ConcessionLine, error) {

	lines := make([]domain.ConcessionLine, 0, len(inputs))

	for _, in := range inputs {
		concession, err := o.catalog.FindConcession(ctx, in.ItemID)
		if err != nil {
			if errors.Is(err, domain.ErrRecordNotFound) {
				return nil, domain.NewValidationError("concessions", fmt.Sprintf("concession %s does not exist", in.ItemID))
			}

			return nil, fmt.Errorf("failed to load concession %s: %w", in.ItemID, err)
		}

		if !concession.Available {
			return nil, domain.NewValidationError("concessions", fmt.Sprintf("concession %s is not available", concession.Name))
		}

		if !concession.AppliesTo(showtime.CinemaID) {
			return nil, domain.NewValidationError(
				"concessions",
				fmt.Sprintf("concession %s is not sold at this cinema", concession.Name),
			)
		}

		lines = append(lines, domain.ConcessionLine{
			ItemID:   concession.ID,
			Name:     concession.Name,
			Quantity: in.Quantity,
			Price:    concession.Price,
		})
	}

	return lines, nil
}

func (o *Orchestrator) persist(ctx context.Context, booking *domain.Booking) error {
	for range maxConfirmationCodeAttempts {
		booking.ConfirmationCode = o.codePrefix + o.newCode()

		err := o.bookings.Create(ctx, booking)
		if err == nil {
			return nil
		}

		if !errors.Is(err, domain.ErrDuplicateConfirmationCode) {
			return fmt.Errorf("failed to persist booking: %w", err)
		}

		o.logger.Warn("confirmation code collision, regenerating", "confirmation_code", booking.ConfirmationCode)
	}

	return fmt.Errorf("failed to generate a unique confirmation code: %w", domain.ErrDuplicateConfirmationCode)
}

// FinalizeSuccessfulPayment marks the booking paid and books its seats in one
// transaction. It joins a transaction already present on ctx. A booking that is
// already COMPLETED is returned unchanged.
func (o *Orchestrator) FinalizeSuccessfulPayment(
	ctx context.Context,
	bookingID string,
	paymentMethod string,
	transactionRef string) (*domain.Booking, error) {

	logger := o.logger.With("booking_id", bookingID, "transaction_ref", transactionRef)

	booking, err := o.bookings.GetByID(ctx, bookingID)
	if err != nil {
		return nil, fmt.Errorf("failed to load booking %s: %w", bookingID, err)
	}

	if booking.PaymentStatus == domain.PaymentStatusCompleted {
		logger.Warn("booking was already finalized")
		return booking, nil
	}

	var finalized *domain.Booking

	err = o.tx.WithinTx(ctx, func(ctx context.Context) error {
		updated, err := o.bookings.MarkCompleted(ctx, bookingID, paymentMethod, transactionRef)
		if err != nil {
			return fmt.Errorf("failed to mark booking %s completed: %w", bookingID, err)
		}

		if !updated {
			current, err := o.bookings.GetByID(ctx, bookingID)
			if err != nil {
				return fmt.Errorf("failed to reload booking %s: %w", bookingID, err)
			}

			if current.PaymentStatus == domain.PaymentStatusCompleted {
				finalized = current
				return nil
			}

			return fmt.Errorf("booking %s is %s: %w", bookingID, current.PaymentStatus, domain.ErrEditConflict)
		}

		err = o.seats.ConfirmSeatBooking(ctx, booking.ShowtimeID, booking.Seats, bookingID)
		if err != nil {
			return err
		}

		booking.PaymentStatus = domain.PaymentStatusCompleted
		booking.PaymentMethod = paymentMethod
		booking.PaymentReference = transactionRef
		booking.UpdatedAt = o.now().UTC()
		finalized = booking

		return nil
	})
	if err != nil {
		logger.Error("booking finalization rolled back", "error", err)
		return nil, err
	}

	logger.Info("booking finalized", "confirmation_code", finalized.ConfirmationCode)

	return finalized, nil
}

func (o *Orchestrator) GetByConfirmationCode(ctx context.Context, code string) (*domain.BookingDetail, error) {
	booking, err := o.bookings.GetByConfirmationCode(ctx, code)
	if err != nil {
		return nil, err
	}

	return o.enrich(ctx, booking, nil), nil
}

func (o *Orchestrator) LookupBookings(ctx context.Context, phone, email string) ([]domain.BookingDetail, error) {
	bookings, err := o.bookings.GetByCustomerContact(ctx, phone, email)
	if err != nil {
		return nil, err
	}

	details := make([]domain.BookingDetail, len(bookings))
	for i := range bookings {
		details[i] = *o.enrich(ctx, &bookings[i], nil)
	}

	return details, nil
}

func randomCodeSuffix() string {
	id := strings.ReplaceAll(uuid.NewString(), "-", "")
	return strings.ToUpper(id[:confirmationCodeLength])
}
