package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/iliyamo/concert-reservation/internal/queue"
)

// EventRepo stores reservation lifecycle events in the reservation_events
// table.  It is an append-only audit trail; the stores above remain the
// source of truth and are never rebuilt from it.
type EventRepo struct {
	db *sql.DB
}

// NewEventRepo returns an EventRepo bound to the given database.
func NewEventRepo(db *sql.DB) *EventRepo { return &EventRepo{db: db} }

// EventRecord mirrors a row of reservation_events.
type EventRecord struct {
	ID            uint64    `json:"id"`
	Type          string    `json:"type"`
	ReservationID string    `json:"reservationId"`
	UserID        string    `json:"userId"`
	UserEmail     string    `json:"userEmail"`
	ConcertID     string    `json:"concertId"`
	ConcertName   string    `json:"concertName"`
	ReservedSeats int       `json:"reservedSeats"`
	TotalSeats    int       `json:"totalSeats"`
	OccurredAt    time.Time `json:"occurredAt"`
	RecordedAt    time.Time `json:"recordedAt"`
}

// Record inserts one event.  An unparseable occurred_at falls back to the
// current time.
func (r *EventRepo) Record(ctx context.Context, ev queue.ReservationEvent) error {
	occurred, err := time.Parse(time.RFC3339, ev.OccurredAt)
	if err != nil {
		occurred = time.Now().UTC()
	}
	const q = `INSERT INTO reservation_events
		(type, reservation_id, user_id, user_email, concert_id, concert_name, reserved_seats, total_seats, occurred_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`
	_, err = r.db.ExecContext(ctx, q,
		ev.Type, ev.ReservationID, ev.UserID, ev.UserEmail,
		ev.ConcertID, ev.ConcertName, ev.ReservedSeats, ev.TotalSeats, occurred.UTC())
	return err
}

// ListRecent returns up to limit events, newest first.
func (r *EventRepo) ListRecent(ctx context.Context, limit int) ([]EventRecord, error) {
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	const q = `SELECT id, type, reservation_id, user_id, user_email, concert_id, concert_name,
		reserved_seats, total_seats, occurred_at, recorded_at
		FROM reservation_events ORDER BY id DESC LIMIT ?`
	rows, err := r.db.QueryContext(ctx, q, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []EventRecord{}
	for rows.Next() {
		var e EventRecord
		if err := rows.Scan(&e.ID, &e.Type, &e.ReservationID, &e.UserID, &e.UserEmail,
			&e.ConcertID, &e.ConcertName, &e.ReservedSeats, &e.TotalSeats,
			&e.OccurredAt, &e.RecordedAt); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}
