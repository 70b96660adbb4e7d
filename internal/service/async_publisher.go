package service

import (
	"context"
	"errors"
	"log"
	"sync"
	"time"

	"github.com/iliyamo/concert-reservation/internal/queue"
)

// ErrPublisherFull is returned when the buffer is full and the event was
// dropped.
var ErrPublisherFull = errors.New("event buffer full")

// ErrPublisherClosed is returned for events handed over after Close.
var ErrPublisherClosed = errors.New("publisher closed")

// EventSender delivers one event to the broker.  *QueuePublisher satisfies it.
type EventSender interface {
	PublishReservationEvent(ctx context.Context, ev queue.ReservationEvent) error
}

// AsyncPublisher queues events and sends them from a single goroutine, so
// callers never wait on the broker and events leave in the order they were
// queued.
type AsyncPublisher struct {
	next    EventSender
	timeout time.Duration

	mu     sync.RWMutex
	closed bool
	events chan queue.ReservationEvent
	done   chan struct{}
}

// NewAsyncPublisher starts the sending goroutine.  buffer below 1 is
// treated as 1.
func NewAsyncPublisher(next EventSender, buffer int) *AsyncPublisher {
	if buffer < 1 {
		buffer = 1
	}
	p := &AsyncPublisher{
		next:    next,
		timeout: 5 * time.Second,
		events:  make(chan queue.ReservationEvent, buffer),
		done:    make(chan struct{}),
	}
	go p.run()
	return p
}

// PublishReservationEvent queues ev without blocking.  A full buffer drops
// the event.
func (p *AsyncPublisher) PublishReservationEvent(_ context.Context, ev queue.ReservationEvent) error {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed {
		return ErrPublisherClosed
	}
	select {
	case p.events <- ev:
		return nil
	default:
		log.Printf("rabbitmq: buffer full, dropping %s for reservation %s", ev.Type, ev.ReservationID)
		return ErrPublisherFull
	}
}

// Close stops accepting events and waits until the queued ones are sent or
// ctx ends.
func (p *AsyncPublisher) Close(ctx context.Context) error {
	p.mu.Lock()
	if !p.closed {
		p.closed = true
		close(p.events)
	}
	p.mu.Unlock()

	select {
	case <-p.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (p *AsyncPublisher) run() {
	defer close(p.done)
	for ev := range p.events {
		ctx, cancel := context.WithTimeout(context.Background(), p.timeout)
		// the sender logs its own failures
		_ = p.next.PublishReservationEvent(ctx, ev)
		cancel()
	}
}
