package integration_test

import (
	"log/slog"
	"os"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/metinatakli/cinema-seat-booking/internal/app"
	"github.com/metinatakli/cinema-seat-booking/internal/booking"
	"github.com/metinatakli/cinema-seat-booking/internal/mocks"
	"github.com/metinatakli/cinema-seat-booking/internal/payment"
	"github.com/metinatakli/cinema-seat-booking/internal/repository"
	"github.com/metinatakli/cinema-seat-booking/internal/seathold"
	appvalidator "github.com/metinatakli/cinema-seat-booking/internal/validator"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/mock"
)

type TestApp struct {
	App         *app.Application
	DB          *pgxpool.Pool
	RedisClient *redis.Client
	Showtimes   *repository.PostgresShowtimeRepository
	Bookings    *repository.PostgresBookingRepository
	Payments    *repository.PostgresPaymentRepository
	Transactor  *repository.PostgresTransactor
	Seats       *seathold.Manager
	Publisher   *mocks.MockEventPublisher
}

func newTestApp(cfg app.Config) (*TestApp, error) {
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))
	validator := appvalidator.NewValidator()

	db, err := app.NewDatabasePool(cfg)
	if err != nil {
		return nil, err
	}

	redisClient, err := app.NewRedisClient(cfg)
	if err != nil {
		db.Close()
		return nil, err
	}

	showtimeRepo := repository.NewPostgresShowtimeRepository(db)
	bookingRepo := repository.NewPostgresBookingRepository(db)
	paymentRepo := repository.NewPostgresPaymentRepository(db)
	catalogRepo := repository.NewPostgresCatalogRepository(db)
	transactor := repository.NewPostgresTransactor(db)

	publisher := new(mocks.MockEventPublisher)
	publisher.On("PublishBookingConfirmed", mock.Anything, mock.Anything).Return(nil)

	seats := seathold.NewManager(
		showtimeRepo,
		seathold.WithHoldTTL(cfg.Booking.HoldTTL),
		seathold.WithLogger(logger),
	)

	orchestrator := booking.NewOrchestrator(
		showtimeRepo,
		seats,
		bookingRepo,
		catalogRepo,
		transactor,
		booking.WithConfirmationCodePrefix(cfg.Booking.ConfirmationCodePrefix),
		booking.WithLogger(logger),
	)

	gateway := payment.NewGateway(
		payment.Config{
			TmnCode:    cfg.VNPay.TmnCode,
			HashSecret: cfg.VNPay.HashSecret,
			PaymentURL: cfg.VNPay.PaymentURL,
			ReturnURL:  cfg.VNPay.ReturnURL,
		},
		paymentRepo,
		bookingRepo,
		orchestrator,
		transactor,
		payment.WithPublisher(publisher),
		payment.WithLogger(logger),
		payment.WithClock(time.Now),
	)

	application := app.NewApp(cfg, logger, validator, showtimeRepo, seats, orchestrator, gateway)

	return &TestApp{
		App:         application,
		DB:          db,
		RedisClient: redisClient,
		Showtimes:   showtimeRepo,
		Bookings:    bookingRepo,
		Payments:    paymentRepo,
		Transactor:  transactor,
		Seats:       seats,
		Publisher:   publisher,
	}, nil
}
