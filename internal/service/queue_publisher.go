// Package service provides adapters between the stores and outside systems.
// QueuePublisher publishes reservation events to RabbitMQ.  Errors are
// logged and returned to allow callers to ignore failures without
// interrupting the main request flow.
package service

import (
	"context"
	"encoding/json"
	"log"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/iliyamo/concert-reservation/internal/queue"
)

// QueuePublisher dials the broker at URL for every publish.  It runs behind
// an AsyncPublisher, so the dial never holds up a request.
type QueuePublisher struct {
	URL string
}

// NewQueuePublisher returns a publisher for the broker at url.
func NewQueuePublisher(url string) *QueuePublisher { return &QueuePublisher{URL: url} }

// PublishReservationEvent publishes ev to the "reservation.events" queue.
// The function attempts to be robust and to never panic; any error is
// logged and returned so the caller can choose to ignore it. Messages are
// marked as persistent.
func (p *QueuePublisher) PublishReservationEvent(ctx context.Context, ev queue.ReservationEvent) error {
	conn, err := amqp.DialConfig(p.URL, amqp.Config{Dial: amqp.DefaultDial(3 * time.Second)})
	if err != nil {
		log.Printf("rabbitmq: dial failed: %v", err)
		return err
	}
	defer func() { _ = conn.Close() }()

	ch, err := conn.Channel()
	if err != nil {
		log.Printf("rabbitmq: channel open failed: %v", err)
		return err
	}
	defer func() { _ = ch.Close() }()

	// Ensure the queue exists (idempotent). Durable so messages survive broker restarts.
	if _, err := ch.QueueDeclare(
		queue.ReservationQueueName, // name
		true,                       // durable
		false,                      // autoDelete
		false,                      // exclusive
		false,                      // noWait
		nil,                        // args
	); err != nil {
		log.Printf("rabbitmq: queue declare failed: %v", err)
		return err
	}

	body, err := json.Marshal(ev)
	if err != nil {
		log.Printf("rabbitmq: marshal event failed: %v", err)
		return err
	}

	pub := amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent, // store on disk
		Timestamp:    time.Now().UTC(),
		Type:         ev.Type,
		Body:         body,
	}

	if err := ch.PublishWithContext(ctx,
		"",                         // default exchange
		queue.ReservationQueueName, // routing key = queue name
		false,                      // mandatory
		false,                      // immediate
		pub,
	); err != nil {
		log.Printf("rabbitmq: publish failed: %v", err)
		return err
	}
	return nil
}
