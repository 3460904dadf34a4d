// Package events publishes booking domain events to RabbitMQ.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/metinatakli/cinema-seat-booking/internal/domain"
	amqp "github.com/rabbitmq/amqp091-go"
)

const BookingConfirmedQueue = "booking.confirmed"

// AMQPPublisher keeps one connection open and redials after the broker drops it.
type AMQPPublisher struct {
	url    string
	logger *slog.Logger

	mu      sync.Mutex
	conn    *amqp.Connection
	channel *amqp.Channel
}

func NewAMQPPublisher(url string, logger *slog.Logger) *AMQPPublisher {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	return &AMQPPublisher{
		url:    url,
		logger: logger,
	}
}

func (p *AMQPPublisher) PublishBookingConfirmed(ctx context.Context, event domain.BookingConfirmedEvent) error {
	msg, err := newPublishing(event, time.Now())
	if err != nil {
		return err
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	ch, err := p.ensureChannel()
	if err != nil {
		return err
	}

	err = ch.PublishWithContext(ctx, "", BookingConfirmedQueue, false, false, msg)
	if err != nil {
		p.closeLocked()
		return fmt.Errorf("failed to publish %s: %w", BookingConfirmedQueue, err)
	}

	p.logger.Debug("booking confirmed event published", "booking_id", event.BookingID)

	return nil
}

func (p *AMQPPublisher) ensureChannel() (*amqp.Channel, error) {
	if p.conn != nil && !p.conn.IsClosed() && p.channel != nil && !p.channel.IsClosed() {
		return p.channel, nil
	}

	p.closeLocked()

	conn, err := amqp.Dial(p.url)
	if err != nil {
		return nil, fmt.Errorf("failed to dial rabbitmq: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("failed to open rabbitmq channel: %w", err)
	}

	// durable so queued events survive a broker restart
	_, err = ch.QueueDeclare(BookingConfirmedQueue, true, false, false, false, nil)
	if err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, fmt.Errorf("failed to declare queue %s: %w", BookingConfirmedQueue, err)
	}

	p.conn = conn
	p.channel = ch

	return ch, nil
}

func (p *AMQPPublisher) closeLocked() {
	if p.channel != nil {
		_ = p.channel.Close()
		p.channel = nil
	}

	if p.conn != nil {
		_ = p.conn.Close()
		p.conn = nil
	}
}

func (p *AMQPPublisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.closeLocked()

	return nil
}

func newPublishing(event domain.BookingConfirmedEvent, now time.Time) (amqp.Publishing, error) {
	body, err := json.Marshal(event)
	if err != nil {
		return amqp.Publishing{}, fmt.Errorf("failed to encode booking confirmed event: %w", err)
	}

	return amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		MessageId:    event.BookingID,
		Timestamp:    now.UTC(),
		Type:         BookingConfirmedQueue,
		Body:         body,
	}, nil
}

// NopPublisher drops every event. It is used when no broker is configured.
type NopPublisher struct{}

func (NopPublisher) PublishBookingConfirmed(context.Context, domain.BookingConfirmedEvent) error {
	return nil
}
