package app

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Port             int
	Env              string
	OtelCollectorUrl string
	DB               DBConfig
	Redis            RedisConfig
	VNPay            VNPayConfig
	Booking          BookingConfig
	AMQP             AMQPConfig
}

type DBConfig struct {
	DSN          string
	MaxOpenConns int
	MaxIdleTime  time.Duration
}

type RedisConfig struct {
	URL          string
	MaxOpenConns int
	MaxIdleConns int
	MaxIdleTime  time.Duration
}

type VNPayConfig struct {
	TmnCode    string
	HashSecret string
	PaymentURL string
	ReturnURL  string
	SuccessURL string
	FailureURL string
}

type BookingConfig struct {
	HoldTTL                time.Duration
	SweepInterval          time.Duration
	ConfirmationCodePrefix string
}

type AMQPConfig struct {
	URL string
}

// ParseConfig reads flags from args. Secrets default to environment variables,
// which may come from a .env file in the working directory.
func ParseConfig(args []string) (Config, bool, error) {
	err := godotenv.Load()
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return Config{}, false, fmt.Errorf("failed to load .env file: %w", err)
	}

	var cfg Config

	fs := flag.NewFlagSet("api", flag.ContinueOnError)

	fs.IntVar(&cfg.Port, "port", 3000, "server port")
	fs.StringVar(&cfg.Env, "env", "dev", "Environment (dev|staging|prod)")
	fs.StringVar(&cfg.OtelCollectorUrl, "otel-collector-url", os.Getenv("OTEL_COLLECTOR_URL"), "OpenTelemetry collector gRPC endpoint")

	fs.StringVar(&cfg.DB.DSN, "db-dsn", os.Getenv("DB_DSN"), "PostgreSQL DSN, in-memory store when empty")
	fs.IntVar(&cfg.DB.MaxOpenConns, "db-max-open-conns", 25, "PostgreSQL max open connections")
	fs.DurationVar(&cfg.DB.MaxIdleTime, "db-max-idle-time", 15*time.Minute, "PostgreSQL max idle time for connections")

	fs.StringVar(&cfg.Redis.URL, "redis-url", os.Getenv("REDIS_URL"), "Redis address, used for the sweep job lock")
	fs.IntVar(&cfg.Redis.MaxOpenConns, "redis-max-open-conns", 25, "Redis max open connections")
	fs.IntVar(&cfg.Redis.MaxIdleConns, "redis-max-idle-conns", 10, "Redis max idle connections")
	fs.DurationVar(&cfg.Redis.MaxIdleTime, "redis-max-idle-time", 2*time.Minute, "Redis max idle time for connections")

	fs.StringVar(&cfg.VNPay.TmnCode, "vnpay-tmn-code", os.Getenv("VNPAY_TMN_CODE"), "VNPay terminal code")
	fs.StringVar(&cfg.VNPay.HashSecret, "vnpay-hash-secret", os.Getenv("VNPAY_HASH_SECRET"), "VNPay hash secret")
	fs.StringVar(&cfg.VNPay.PaymentURL, "vnpay-payment-url", "https://sandbox.vnpayment.vn/paymentv2/vpcpay.html", "VNPay payment page")
	fs.StringVar(&cfg.VNPay.ReturnURL, "vnpay-return-url", "http://localhost:3000/payments/vnpay/return", "Default VNPay return URL")
	fs.StringVar(&cfg.VNPay.SuccessURL, "payment-success-url", "http://localhost:5173/payment/success", "Frontend page for successful payments")
	fs.StringVar(&cfg.VNPay.FailureURL, "payment-failure-url", "http://localhost:5173/payment/failure", "Frontend page for failed payments")

	fs.DurationVar(&cfg.Booking.HoldTTL, "hold-ttl", 10*time.Minute, "Seat hold lifetime")
	fs.DurationVar(&cfg.Booking.SweepInterval, "sweep-interval", time.Minute, "Expired hold sweep interval")
	fs.StringVar(&cfg.Booking.ConfirmationCodePrefix, "confirmation-code-prefix", "CINESTAR", "Booking confirmation code prefix")

	fs.StringVar(&cfg.AMQP.URL, "rabbitmq-url", os.Getenv("RABBITMQ_URL"), "RabbitMQ URL, events are dropped when empty")

	displayVersion := fs.Bool("version", false, "Display version and exit")

	err = fs.Parse(args)
	if err != nil {
		return Config{}, false, err
	}

	return cfg, *displayVersion, nil
}

func (c Config) Validate() error {
	var problems []string

	if c.Port < 1 || c.Port > 65535 {
		problems = append(problems, "port must be between 1 and 65535")
	}

	if c.VNPay.TmnCode == "" {
		problems = append(problems, "vnpay-tmn-code is required")
	}

	if c.VNPay.HashSecret == "" {
		problems = append(problems, "vnpay-hash-secret is required")
	}

	if c.VNPay.PaymentURL == "" {
		problems = append(problems, "vnpay-payment-url is required")
	}

	if c.Booking.HoldTTL <= 0 {
		problems = append(problems, "hold-ttl must be positive")
	}

	if c.Booking.SweepInterval <= 0 {
		problems = append(problems, "sweep-interval must be positive")
	}

	if len(problems) > 0 {
		return fmt.Errorf("invalid configuration: %s", strings.Join(problems, "; "))
	}

	return nil
}
