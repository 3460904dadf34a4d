package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/exaring/otelpgx"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/validator/v10"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/metinatakli/cinema-seat-booking/internal/booking"
	"github.com/metinatakli/cinema-seat-booking/internal/domain"
	"github.com/metinatakli/cinema-seat-booking/internal/events"
	"github.com/metinatakli/cinema-seat-booking/internal/memstore"
	"github.com/metinatakli/cinema-seat-booking/internal/payment"
	"github.com/metinatakli/cinema-seat-booking/internal/repository"
	"github.com/metinatakli/cinema-seat-booking/internal/scheduler"
	"github.com/metinatakli/cinema-seat-booking/internal/seathold"
	appvalidator "github.com/metinatakli/cinema-seat-booking/internal/validator"
	"github.com/metinatakli/cinema-seat-booking/internal/vcs"
	"github.com/redis/go-redis/extra/redisotel/v9"
	"github.com/redis/go-redis/v9"
	"github.com/riandyrn/otelchi"
)

const serviceName = "cinema-seat-booking"

var (
	version = vcs.Version()
)

type ShowtimeReader interface {
	GetShowtime(ctx context.Context, id string) (*domain.Showtime, error)
}

type SeatService interface {
	HoldSeats(ctx context.Context, showtimeID string, seatIDs []string, holderRef string) error
	ReleaseSeats(ctx context.Context, showtimeID string, seatIDs []string) error
	ExtendSeatHold(ctx context.Context, showtimeID string, seatIDs []string) error
	TTL() time.Duration
}

type BookingService interface {
	CreateBooking(ctx context.Context, in booking.CreateBookingInput) (*domain.BookingDetail, error)
	GetByConfirmationCode(ctx context.Context, code string) (*domain.BookingDetail, error)
	LookupBookings(ctx context.Context, phone, email string) ([]domain.BookingDetail, error)
}

type PaymentService interface {
	CreatePaymentURL(ctx context.Context, in payment.CreatePaymentInput) (*payment.PaymentURL, error)
	ProcessGatewayResponse(ctx context.Context, params url.Values, channel payment.Channel) (*payment.Outcome, error)
	GetPaymentByReference(ctx context.Context, ref string) (*domain.Payment, error)
}

type Application struct {
	config    Config
	logger    *slog.Logger
	validator *validator.Validate

	showtimes ShowtimeReader
	seats     SeatService
	bookings  BookingService
	payments  PaymentService

	now func() time.Time
}

func NewApp(
	cfg Config,
	logger *slog.Logger,
	validator *validator.Validate,
	showtimes ShowtimeReader,
	seats SeatService,
	bookings BookingService,
	payments PaymentService) *Application {

	return &Application{
		config:    cfg,
		logger:    logger,
		validator: validator,
		showtimes: showtimes,
		seats:     seats,
		bookings:  bookings,
		payments:  payments,
		now:       time.Now,
	}
}

// storage groups the store implementations selected at startup.
type storage struct {
	showtimes domain.SeatStore
	bookings  domain.BookingRepository
	payments  domain.PaymentRepository
	catalog   domain.CatalogLookup
	tx        domain.Transactor
	close     func()
}

func Run() error {
	cfg, displayVersion, err := ParseConfig(os.Args[1:])
	if err != nil {
		return err
	}

	if displayVersion {
		fmt.Printf("Version:\t%s\n", version)
		return nil
	}

	err = cfg.Validate()
	if err != nil {
		return err
	}

	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))

	shutdownTelemetry, logger, err := InitTelemetry(cfg, logger)
	if err != nil {
		return err
	}
	defer shutdownTelemetry(context.Background())

	store, err := newStorage(cfg, logger)
	if err != nil {
		return err
	}
	defer store.close()

	var publisher domain.EventPublisher = events.NopPublisher{}
	if cfg.AMQP.URL != "" {
		amqpPublisher := events.NewAMQPPublisher(cfg.AMQP.URL, logger)
		defer amqpPublisher.Close()

		publisher = amqpPublisher
	} else {
		logger.Warn("rabbitmq url not set, booking events will not be published")
	}

	seats := seathold.NewManager(
		store.showtimes,
		seathold.WithHoldTTL(cfg.Booking.HoldTTL),
		seathold.WithLogger(logger),
	)

	orchestrator := booking.NewOrchestrator(
		store.showtimes,
		seats,
		store.bookings,
		store.catalog,
		store.tx,
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
		store.payments,
		store.bookings,
		orchestrator,
		store.tx,
		payment.WithPublisher(publisher),
		payment.WithLogger(logger),
	)

	schedulerOpts := []scheduler.Option{scheduler.WithLogger(logger)}

	if cfg.Redis.URL != "" {
		redisClient, err := NewRedisClient(cfg)
		if err != nil {
			return err
		}
		defer redisClient.Close()

		schedulerOpts = append(schedulerOpts, scheduler.WithLocker(scheduler.NewRedisLocker(redisClient, cfg.Booking.SweepInterval)))
	}

	expiry, err := scheduler.NewExpiryScheduler(seats, cfg.Booking.SweepInterval, schedulerOpts...)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	err = expiry.Start(ctx)
	if err != nil {
		return err
	}

	defer func() {
		if err := expiry.Shutdown(); err != nil {
			logger.Error("failed to stop scheduler", "error", err)
		}
	}()

	app := NewApp(cfg, logger, appvalidator.NewValidator(), store.showtimes, seats, orchestrator, gateway)

	return app.run()
}

func newStorage(cfg Config, logger *slog.Logger) (*storage, error) {
	if cfg.DB.DSN == "" {
		logger.Warn("database DSN not set, using the in-memory store with demo data")

		mem := memstore.New()

		err := mem.SeedDemo(time.Now())
		if err != nil {
			return nil, err
		}

		return &storage{
			showtimes: mem,
			bookings:  mem.Bookings(),
			payments:  mem.Payments(),
			catalog:   mem,
			tx:        mem,
			close:     func() {},
		}, nil
	}

	db, err := NewDatabasePool(cfg)
	if err != nil {
		return nil, err
	}

	return &storage{
		showtimes: repository.NewPostgresShowtimeRepository(db),
		bookings:  repository.NewPostgresBookingRepository(db),
		payments:  repository.NewPostgresPaymentRepository(db),
		catalog:   repository.NewPostgresCatalogRepository(db),
		tx:        repository.NewPostgresTransactor(db),
		close:     db.Close,
	}, nil
}

func NewRedisClient(cfg Config) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:            cfg.Redis.URL,
		MaxIdleConns:    cfg.Redis.MaxIdleConns,
		MaxActiveConns:  cfg.Redis.MaxOpenConns,
		ConnMaxIdleTime: cfg.Redis.MaxIdleTime,
	})

	err := redisotel.InstrumentTracing(rdb)
	if err != nil {
		rdb.Close()
		return nil, fmt.Errorf("failed to instrument redis client: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	err = rdb.Ping(ctx).Err()
	if err != nil {
		rdb.Close()
		return nil, err
	}

	return rdb, nil
}

func NewDatabasePool(cfg Config) (*pgxpool.Pool, error) {
	config, err := pgxpool.ParseConfig(cfg.DB.DSN)
	if err != nil {
		return nil, err
	}

	config.MaxConnIdleTime = cfg.DB.MaxIdleTime
	config.MaxConns = int32(cfg.DB.MaxOpenConns)
	config.ConnConfig.Tracer = otelpgx.NewTracer()

	db, err := pgxpool.NewWithConfig(context.Background(), config)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	err = db.Ping(ctx)
	if err != nil {
		db.Close()
		return nil, err
	}

	return db, nil
}

func (app *Application) run() error {
	srv := &http.Server{
		Addr:         fmt.Sprintf("0.0.0.0:%d", app.config.Port),
		Handler:      app.Routes(),
		IdleTimeout:  time.Minute,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		ErrorLog:     slog.NewLogLogger(app.logger.Handler(), slog.LevelDebug),
	}

	shutdownError := make(chan error)

	go func() {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		s := <-quit

		app.logger.Info("shutting down server", "signal", s.String())

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		shutdownError <- srv.Shutdown(ctx)
	}()

	app.logger.Info("starting server", "addr", srv.Addr, "env", app.config.Env)

	err := srv.ListenAndServe()
	if !errors.Is(err, http.ErrServerClosed) {
		return err
	}

	err = <-shutdownError
	if err != nil {
		return err
	}

	app.logger.Info("stopped server", "addr", srv.Addr)

	return nil
}

func (app *Application) Routes() http.Handler {
	r := chi.NewRouter()

	r.NotFound(app.notFoundResponse)
	r.MethodNotAllowed(app.methodNotAllowedResponse)

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(otelchi.Middleware(serviceName, otelchi.WithChiRoutes(r)))
	r.Use(app.logRequest)
	r.Use(app.recoverPanic)

	r.Get("/healthcheck", app.GetHealth)

	r.Get("/showtimes/{showtimeId}/seats", app.GetSeatStatusHandler)

	r.Route("/seats", func(r chi.Router) {
		r.Post("/hold", app.HoldSeatsHandler)
		r.Post("/release", app.ReleaseSeatsHandler)
		r.Post("/extend-hold", app.ExtendSeatHoldHandler)
	})

	r.Route("/bookings", func(r chi.Router) {
		r.Post("/", app.CreateBookingHandler)
		r.Post("/lookup", app.LookupBookingsHandler)
		r.Get("/{confirmationCode}", app.GetBookingHandler)
		r.Get("/{confirmationCode}/qr", app.GetBookingQRHandler)
	})

	r.Route("/payments", func(r chi.Router) {
		r.Post("/vnpay", app.CreateVNPayPaymentHandler)
		r.Get("/vnpay/ipn", app.VNPayIPNHandler)
		r.Get("/vnpay/return", app.VNPayReturnHandler)
		r.Get("/{transactionRef}", app.GetPaymentStatusHandler)
	})

	return r
}
