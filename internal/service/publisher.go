package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/iliyamo/game-table-reservation/internal/queue"
)

// NopPublisher discards events.
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, queue.BookingEvent) error { return nil }

// RabbitPublisher publishes booking events to a durable RabbitMQ queue.
// It dials per publish, so a broker outage never outlives a request.
type RabbitPublisher struct {
	URL         string
	Queue       string
	DialTimeout time.Duration
}

// NewRabbitPublisher returns a publisher for the bookings queue at url.
func NewRabbitPublisher(url string) *RabbitPublisher {
	return &RabbitPublisher{URL: url, Queue: queue.BookingsQueue, DialTimeout: 2 * time.Second}
}

// Publish sends ev as a persistent JSON message through the default
// exchange with the queue name as routing key.
func (p *RabbitPublisher) Publish(ctx context.Context, ev queue.BookingEvent) error {
	body, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}
	conn, err := amqp.DialConfig(p.URL, amqp.Config{Dial: amqp.DefaultDial(p.DialTimeout)})
	if err != nil {
		return fmt.Errorf("dial broker: %w", err)
	}
	defer func() { _ = conn.Close() }()

	ch, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("open channel: %w", err)
	}
	defer func() { _ = ch.Close() }()

	// Durable so messages survive broker restarts.
	if _, err := ch.QueueDeclare(p.Queue, true, false, false, false, nil); err != nil {
		return fmt.Errorf("declare queue: %w", err)
	}

	pub := amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    time.Now().UTC(),
		Type:         ev.Type,
		Body:         body,
	}
	if err := ch.PublishWithContext(ctx, "", p.Queue, false, false, pub); err != nil {
		return fmt.Errorf("publish: %w", err)
	}
	return nil
}
