package payment

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math/big"
	"net/url"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/metinatakli/cinema-seat-booking/internal/domain"
	"github.com/shopspring/decimal"
)

const (
	MethodVNPay = "VNPAY"

	paymentTTL         = 15 * time.Minute
	maxTxnRefAttempts  = 5
	orderInfoPrefix    = "Thanh toan ve xem phim "
	defaultClientIP    = "127.0.0.1"
	txnRefSuffixDigits = 6
)

type Channel string

const (
	ChannelIPN    Channel = "ipn"
	ChannelReturn Channel = "return"
)

type Config struct {
	TmnCode    string
	HashSecret string
	PaymentURL string
	ReturnURL  string
}

type BookingReader interface {
	GetByID(ctx context.Context, id string) (*domain.Booking, error)
}

type BookingFinalizer interface {
	FinalizeSuccessfulPayment(ctx context.Context, bookingID, paymentMethod, transactionRef string) (*domain.Booking, error)
}

type Gateway struct {
	cfg       Config
	payments  domain.PaymentRepository
	bookings  BookingReader
	finalizer BookingFinalizer
	tx        domain.Transactor
	publisher domain.EventPublisher

	now       func() time.Time
	refSuffix func() string
	logger    *slog.Logger
}

type Option func(*Gateway)

func WithPublisher(publisher domain.EventPublisher) Option {
	return func(g *Gateway) {
		g.publisher = publisher
	}
}

func WithClock(now func() time.Time) Option {
	return func(g *Gateway) {
		g.now = now
	}
}

func WithRefSuffixGenerator(gen func() string) Option {
	return func(g *Gateway) {
		g.refSuffix = gen
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(g *Gateway) {
		g.logger = logger
	}
}

func NewGateway(
	cfg Config,
	payments domain.PaymentRepository,
	bookings BookingReader,
	finalizer BookingFinalizer,
	tx domain.Transactor,
	opts ...Option) *Gateway {

	g := &Gateway{
		cfg:       cfg,
		payments:  payments,
		bookings:  bookings,
		finalizer: finalizer,
		tx:        tx,
		now:       time.Now,
		refSuffix: randomDigits,
		logger:    slog.New(slog.NewTextHandler(io.Discard, nil)),
	}

	for _, opt := range opts {
		opt(g)
	}

	return g
}

type CreatePaymentInput struct {
	BookingID string
	ReturnURL string
	ClientIP  string
}

type PaymentURL struct {
	URL            string
	TransactionRef string
	Amount         int64
	ExpiresAt      time.Time
}

// CreatePaymentURL records a PENDING payment for the booking and returns the
// signed gateway redirect URL.
func (g *Gateway) CreatePaymentURL(ctx context.Context, in CreatePaymentInput) (*PaymentURL, error) {
	booking, err := g.bookings.GetByID(ctx, in.BookingID)
	if err != nil {
		return nil, fmt.Errorf("failed to load booking %s: %w", in.BookingID, err)
	}

	if booking.PaymentStatus == domain.PaymentStatusCompleted {
		return nil, domain.ErrBookingAlreadyPaid
	}

	returnURL := in.ReturnURL
	if returnURL == "" {
		returnURL = g.cfg.ReturnURL
	}

	clientIP := in.ClientIP
	if clientIP == "" {
		clientIP = defaultClientIP
	}

	createdAt := g.now()
	expiresAt := createdAt.Add(paymentTTL)

	payment := &domain.Payment{
		ID:        uuid.NewString(),
		BookingID: booking.ID,
		Amount:    toGatewayAmount(booking.TotalPrice),
		Status:    domain.PaymentStatusPending,
		OrderInfo: orderInfoPrefix + booking.ConfirmationCode,
		CreatedAt: createdAt.UTC(),
	}

	var canonical string

	for range maxTxnRefAttempts {
		payment.TransactionRef = payment.ID + "_" + g.refSuffix()

		params := url.Values{}
		params.Set(ParamVersion, protocolVersion)
		params.Set(ParamCommand, commandPay)
		params.Set(ParamTmnCode, g.cfg.TmnCode)
		params.Set(ParamAmount, strconv.FormatInt(payment.Amount, 10))
		params.Set(ParamCurrCode, currencyVND)
		params.Set(ParamTxnRef, payment.TransactionRef)
		params.Set(ParamOrderInfo, payment.OrderInfo)
		params.Set(ParamOrderType, orderTypeOther)
		params.Set(ParamLocale, localeVN)
		params.Set(ParamReturnURL, returnURL)
		params.Set(ParamIPAddr, clientIP)
		params.Set(ParamCreateDate, formatGatewayTime(createdAt))
		params.Set(ParamExpireDate, formatGatewayTime(expiresAt))

		canonical = Canonicalize(params)
		payment.SecureHash = Sign(g.cfg.HashSecret, canonical)

		err = g.payments.Create(ctx, payment)
		if err == nil {
			break
		}

		if !errors.Is(err, domain.ErrDuplicateTransactionRef) {
			return nil, fmt.Errorf("failed to persist payment: %w", err)
		}
	}

	if err != nil {
		return nil, fmt.Errorf("failed to generate a unique transaction reference: %w", err)
	}

	g.logger.Info(
		"payment url created",
		"booking_id", booking.ID,
		"transaction_ref", payment.TransactionRef,
		"amount", payment.Amount,
	)

	return &PaymentURL{
		URL:            g.cfg.PaymentURL + "?" + canonical + "&" + ParamSecureHash + "=" + payment.SecureHash,
		TransactionRef: payment.TransactionRef,
		Amount:         payment.Amount,
		ExpiresAt:      expiresAt,
	}, nil
}

// Outcome is what a gateway notification resolved to. Booking may be nil when
// it could not be loaded.
type Outcome struct {
	Payment   *domain.Payment
	Booking   *domain.Booking
	Success   bool
	Duplicate bool
}

func (o *Outcome) ConfirmationCode() string {
	if o == nil || o.Booking == nil {
		return ""
	}

	return o.Booking.ConfirmationCode
}

var errConcurrentUpdate = errors.New("payment was updated concurrently")

// ProcessGatewayResponse handles a signed gateway notification. The IPN and
// return channels share it and differ only in how the result is rendered.
// A notification for a payment that is no longer PENDING is a duplicate: it
// returns the recorded outcome and changes nothing.
func (g *Gateway) ProcessGatewayResponse(ctx context.Context, params url.Values, channel Channel) (*Outcome, error) {
	ref := params.Get(ParamTxnRef)
	logger := g.logger.With("transaction_ref", ref, "channel", channel)

	if ref == "" {
		return nil, domain.ErrTransactionNotFound
	}

	payment, err := g.payments.GetByTransactionRef(ctx, ref)
	if err != nil {
		if errors.Is(err, domain.ErrRecordNotFound) {
			logger.Warn("gateway notification for unknown transaction")
			return nil, domain.ErrTransactionNotFound
		}

		return nil, fmt.Errorf("failed to load payment %s: %w", ref, err)
	}

	if !VerifySignature(g.cfg.HashSecret, params) {
		logger.Warn("gateway notification rejected: invalid signature")
		return g.rejectInvalidSignature(ctx, payment), domain.ErrSignatureInvalid
	}

	if payment.Status != domain.PaymentStatusPending {
		logger.Info("duplicate gateway notification", "status", payment.Status)
		return g.recordedOutcome(ctx, payment), nil
	}

	payment.ResponseCode = params.Get(ParamResponseCode)
	payment.GatewayTransactionNo = params.Get(ParamTransactionNo)
	payment.BankCode = params.Get(ParamBankCode)
	payment.PaymentMethod = MethodVNPay
	payment.RawLog = flatten(params)

	if params.Get(ParamAmount) != strconv.FormatInt(payment.Amount, 10) {
		logger.Warn("gateway notification rejected: amount mismatch", "received", params.Get(ParamAmount), "expected", payment.Amount)

		outcome, err := g.fail(ctx, payment)
		if err != nil {
			return nil, err
		}

		return outcome, domain.ErrAmountMismatch
	}

	if payment.ResponseCode != ResponseCodeSuccess {
		logger.Info("payment failed at gateway", "response_code", payment.ResponseCode)
		return g.fail(ctx, payment)
	}

	return g.complete(ctx, payment, logger)
}

func (g *Gateway) complete(ctx context.Context, payment *domain.Payment, logger *slog.Logger) (*Outcome, error) {
	paidAt := g.now().UTC()
	payment.Status = domain.PaymentStatusCompleted
	payment.PaidAt = &paidAt

	var booking *domain.Booking

	err := g.tx.WithinTx(ctx, func(ctx context.Context) error {
		updated, err := g.payments.UpdateOutcome(ctx, payment, domain.PaymentStatusPending)
		if err != nil {
			return fmt.Errorf("failed to update payment: %w", err)
		}

		if !updated {
			return errConcurrentUpdate
		}

		booking, err = g.finalizer.FinalizeSuccessfulPayment(ctx, payment.BookingID, MethodVNPay, payment.TransactionRef)
		return err
	})

	if errors.Is(err, errConcurrentUpdate) {
		return g.reloadOutcome(ctx, payment.TransactionRef)
	}

	if err != nil {
		logger.Error("payment finalization rolled back", "booking_id", payment.BookingID, "error", err)
		return nil, fmt.Errorf("failed to finalize payment %s: %w", payment.TransactionRef, err)
	}

	logger.Info("payment completed", "booking_id", payment.BookingID)

	g.publishConfirmed(ctx, booking, paidAt)

	return &Outcome{Payment: payment, Booking: booking, Success: true}, nil
}

func (g *Gateway) fail(ctx context.Context, payment *domain.Payment) (*Outcome, error) {
	payment.Status = domain.PaymentStatusFailed

	updated, err := g.payments.UpdateOutcome(ctx, payment, domain.PaymentStatusPending)
	if err != nil {
		return nil, fmt.Errorf("failed to mark payment %s failed: %w", payment.TransactionRef, err)
	}

	if !updated {
		return g.reloadOutcome(ctx, payment.TransactionRef)
	}

	return &Outcome{Payment: payment, Booking: g.lookupBooking(ctx, payment.BookingID)}, nil
}

// rejectInvalidSignature fails a still-pending payment without trusting any
// field of the payload.
func (g *Gateway) rejectInvalidSignature(ctx context.Context, payment *domain.Payment) *Outcome {
	if payment.Status == domain.PaymentStatusPending {
		failed := *payment
		failed.Status = domain.PaymentStatusFailed

		updated, err := g.payments.UpdateOutcome(ctx, &failed, domain.PaymentStatusPending)
		if err != nil {
			g.logger.Error("failed to mark payment failed after invalid signature", "transaction_ref", payment.TransactionRef, "error", err)
		} else if updated {
			payment = &failed
		}
	}

	return &Outcome{Payment: payment, Booking: g.lookupBooking(ctx, payment.BookingID)}
}

func (g *Gateway) reloadOutcome(ctx context.Context, ref string) (*Outcome, error) {
	payment, err := g.payments.GetByTransactionRef(ctx, ref)
	if err != nil {
		return nil, fmt.Errorf("failed to reload payment %s: %w", ref, err)
	}

	return g.recordedOutcome(ctx, payment), nil
}

func (g *Gateway) recordedOutcome(ctx context.Context, payment *domain.Payment) *Outcome {
	return &Outcome{
		Payment:   payment,
		Booking:   g.lookupBooking(ctx, payment.BookingID),
		Success:   payment.Status == domain.PaymentStatusCompleted,
		Duplicate: true,
	}
}

func (g *Gateway) lookupBooking(ctx context.Context, bookingID string) *domain.Booking {
	booking, err := g.bookings.GetByID(ctx, bookingID)
	if err != nil {
		g.logger.Warn("booking lookup failed", "booking_id", bookingID, "error", err)
		return nil
	}

	return booking
}

// publishConfirmed runs after commit. A broker failure never undoes a payment.
func (g *Gateway) publishConfirmed(ctx context.Context, booking *domain.Booking, paidAt time.Time) {
	if g.publisher == nil || booking == nil {
		return
	}

	event := domain.BookingConfirmedEvent{
		BookingID:        booking.ID,
		ConfirmationCode: booking.ConfirmationCode,
		ShowtimeID:       booking.ShowtimeID,
		Seats:            booking.Seats,
		TotalPrice:       booking.TotalPrice,
		PaymentReference: booking.PaymentReference,
		CustomerPhone:    booking.Customer.Phone,
		CustomerEmail:    booking.Customer.Email,
		ConfirmedAt:      paidAt,
	}

	err := g.publisher.PublishBookingConfirmed(context.WithoutCancel(ctx), event)
	if err != nil {
		g.logger.Error("failed to publish booking confirmed event", "booking_id", booking.ID, "error", err)
	}
}

func (g *Gateway) GetPaymentByReference(ctx context.Context, ref string) (*domain.Payment, error) {
	return g.payments.GetByTransactionRef(ctx, ref)
}

// toGatewayAmount converts a VND price into the gateway's x100 integer convention.
func toGatewayAmount(total decimal.Decimal) int64 {
	return total.Mul(decimal.NewFromInt(100)).Round(0).IntPart()
}

func flatten(params url.Values) map[string]string {
	m := make(map[string]string, len(params))
	for key := range params {
		m[key] = params.Get(key)
	}

	return m
}

func randomDigits() string {
	limit := big.NewInt(1_000_000)

	n, err := rand.Int(rand.Reader, limit)
	if err != nil {
		n = big.NewInt(time.Now().UnixNano() % 1_000_000)
	}

	return fmt.Sprintf("%0*d", txnRefSuffixDigits, n.Int64())
}
