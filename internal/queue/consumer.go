// Package queue contains the background consumer that listens to the
// reservation events queue and hands every event to a Sink.
package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

// ReservationQueueName is the durable queue both publisher and consumer
// declare.
const ReservationQueueName = "reservation.events"

// Sink persists or reports a consumed event.
type Sink interface {
	Record(ctx context.Context, ev ReservationEvent) error
}

// StartReservationConsumer connects to RabbitMQ, declares the
// reservation.events queue (durable), and starts consuming messages. Each
// message is passed to sink. The function runs a reconnect loop with
// exponential backoff and only returns once ctx is cancelled; processing
// errors are logged and the offending message is rejected so the server
// keeps running.
func StartReservationConsumer(ctx context.Context, url string, sink Sink) error {
	backoff := time.Second
	for {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		conn, err := amqp.Dial(url)
		if err != nil {
			log.Printf("reservation-consumer: failed to dial broker: %v; retrying in %s", err, backoff)
			if !sleepCtx(ctx, backoff) {
				return ctx.Err()
			}
			if backoff < 30*time.Second {
				backoff *= 2
			}
			continue
		}
		backoff = time.Second // reset after successful connect

		err = consumeLoop(ctx, conn, sink)
		_ = conn.Close()
		if ctx.Err() != nil {
			return ctx.Err()
		}
		log.Printf("reservation-consumer: consume loop ended: %v; reconnecting", err)
		if !sleepCtx(ctx, 2*time.Second) {
			return ctx.Err()
		}
	}
}

func consumeLoop(ctx context.Context, conn *amqp.Connection, sink Sink) error {
	ch, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("channel open: %w", err)
	}
	defer func() { _ = ch.Close() }()

	if err := ch.Qos(50, 0, false); err != nil {
		log.Printf("reservation-consumer: set QoS failed: %v", err)
	}

	if _, err := ch.QueueDeclare(ReservationQueueName, true, false, false, false, nil); err != nil {
		return fmt.Errorf("queue declare: %w", err)
	}

	msgs, err := ch.Consume(ReservationQueueName, "", false, false, false, false, nil)
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
			if err := handleMessage(ctx, sink, d.Body); err != nil {
				log.Printf("reservation-consumer: handle message failed: %v", err)
				_ = d.Nack(false, false) // reject, do not requeue to avoid tight loops
				continue
			}
			_ = d.Ack(false)
		}
	}
}

func handleMessage(ctx context.Context, sink Sink, body []byte) error {
	var ev ReservationEvent
	if err := json.Unmarshal(body, &ev); err != nil {
		return fmt.Errorf("unmarshal: %w", err)
	}
	if ev.Type == "" || ev.ReservationID == "" {
		return errors.New("event without type or reservation id")
	}
	return sink.Record(ctx, ev)
}

func sleepCtx(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}

// FileSink appends one human-friendly line per event to a log file.  It is
// used when no database is configured.
type FileSink struct {
	Path string
}

// Record implements Sink.
func (s FileSink) Record(_ context.Context, ev ReservationEvent) error {
	if err := os.MkdirAll(filepath.Dir(s.Path), 0o755); err != nil {
		return fmt.Errorf("mkdir logs: %w", err)
	}
	f, err := os.OpenFile(s.Path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open log file: %w", err)
	}
	defer f.Close()

	line := fmt.Sprintf("[%s] %s | reservation_id=%s | user_id=%s | email=%q | concert_id=%s | concert=%q | reserved=%d/%d\n",
		ev.OccurredAt, ev.Type, ev.ReservationID, ev.UserID, ev.UserEmail, ev.ConcertID, ev.ConcertName, ev.ReservedSeats, ev.TotalSeats)
	if _, err := f.WriteString(line); err != nil {
		return fmt.Errorf("write log: %w", err)
	}
	return nil
}
