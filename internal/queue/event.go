// Package queue defines message payloads exchanged over the message broker.
package queue

// Event types published on the reservation events queue.
const (
	EventReservationConfirmed = "reservation.confirmed"
	EventReservationCancelled = "reservation.cancelled"
)

// ReservationEvent is published after a reservation is confirmed or
// cancelled.  It carries the seat counters as they were right after the
// change so consumers can log or audit without calling back into the API.
type ReservationEvent struct {
	Type          string `json:"type"`
	ReservationID string `json:"reservation_id"`
	UserID        string `json:"user_id"`
	UserEmail     string `json:"user_email,omitempty"`
	ConcertID     string `json:"concert_id"`
	ConcertName   string `json:"concert_name,omitempty"`
	ReservedSeats int    `json:"reserved_seats"`
	TotalSeats    int    `json:"total_seats"`
	OccurredAt    string `json:"occurred_at"`
}
