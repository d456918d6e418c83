package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

// LogFile is the name of the booking log inside Consumer.LogDir.
const LogFile = "booking.log"

// Consumer reads booking events and appends one line per event to the
// booking log.
type Consumer struct {
	URL      string
	Queue    string
	LogDir   string
	Prefetch int
	Log      *slog.Logger

	mu sync.Mutex // serialises appends to the log file
}

// NewConsumer returns a consumer of the bookings queue.
func NewConsumer(url, logDir string, log *slog.Logger) *Consumer {
	if log == nil {
		log = slog.Default()
	}
	return &Consumer{URL: url, Queue: BookingsQueue, LogDir: logDir, Prefetch: 50, Log: log}
}

// Run connects to the broker and consumes until ctx is done.  Lost
// connections are re-dialled with exponential backoff capped at 30s.
func (c *Consumer) Run(ctx context.Context) error {
	backoff := time.Second
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		conn, err := amqp.Dial(c.URL)
		if err != nil {
			c.Log.Warn("booking consumer: dial failed", "err", err, "retry_in", backoff.String())
			if !sleep(ctx, backoff) {
				return ctx.Err()
			}
			if backoff < 30*time.Second {
				backoff *= 2
			}
			continue
		}
		backoff = time.Second
		c.Log.Info("booking consumer: connected", "queue", c.Queue)

		err = c.consume(ctx, conn)
		_ = conn.Close()
		if ctx.Err() != nil {
			return ctx.Err()
		}
		c.Log.Warn("booking consumer: consume loop ended, reconnecting", "err", err)
		if !sleep(ctx, 2*time.Second) {
			return ctx.Err()
		}
	}
}

func sleep(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}

func (c *Consumer) consume(ctx context.Context, conn *amqp.Connection) error {
	ch, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("channel open: %w", err)
	}
	defer func() { _ = ch.Close() }()

	if err := ch.Qos(c.Prefetch, 0, false); err != nil {
		c.Log.Warn("booking consumer: set QoS failed", "err", err)
	}
	if _, err := ch.QueueDeclare(c.Queue, true, false, false, false, nil); err != nil {
		return fmt.Errorf("queue declare: %w", err)
	}
	msgs, err := ch.ConsumeWithContext(ctx, c.Queue, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("queue consume: %w", err)
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case d, ok := <-msgs:
			if !ok {
				return errors.New("deliveries channel closed")
			}
			if err := c.HandleMessage(d.Body); err != nil {
				c.Log.Error("booking consumer: handle message failed", "err", err)
				// rejected without requeue so a poison message cannot loop
				_ = d.Nack(false, false)
				continue
			}
			_ = d.Ack(false)
		}
	}
}

// HandleMessage decodes a BookingEvent and appends it to the booking log.
func (c *Consumer) HandleMessage(body []byte) error {
	var ev BookingEvent
	if err := json.Unmarshal(body, &ev); err != nil {
		return fmt.Errorf("unmarshal: %w", err)
	}
	if ev.Type == "" {
		return errors.New("event without type")
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := os.MkdirAll(c.LogDir, 0o755); err != nil {
		return fmt.Errorf("mkdir %s: %w", c.LogDir, err)
	}
	f, err := os.OpenFile(filepath.Join(c.LogDir, LogFile), os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open log file: %w", err)
	}
	defer f.Close()
	if _, err := f.WriteString(FormatLine(ev)); err != nil {
		return fmt.Errorf("write log: %w", err)
	}
	return nil
}

// FormatLine renders ev as a single human-readable log line.
func FormatLine(ev BookingEvent) string {
	ids := make([]string, len(ev.BookingIDs))
	for i, id := range ev.BookingIDs {
		ids[i] = fmt.Sprint(id)
	}
	items := make([]string, len(ev.Items))
	for i, it := range ev.Items {
		items[i] = fmt.Sprintf("%s x%d", it.Name, it.Qty)
	}
	verb := "Booking event"
	switch ev.Type {
	case BookingCreated:
		verb = "Reservation created"
	case BookingCancelled:
		verb = "Booking cancelled"
	}
	return fmt.Sprintf("[%s] %s | bookings=[%s] | user_id=%d | table=%q | date=%s | slots=[%s] | games=[%s]\n",
		ev.OccurredAt, verb, strings.Join(ids, ","), ev.UserID, ev.TableName, ev.Date,
		strings.Join(ev.Slots, ","), strings.Join(items, ", "))
}
