package model

import "time"

// Reservation statuses.  A reservation starts confirmed and can move to
// cancelled exactly once.
const (
	ReservationConfirmed = "confirmed"
	ReservationCancelled = "cancelled"
)

// Reservation records one seat booked by a user for a concert.  UserID and
// ConcertID are weak references; User and Concert are resolved when the
// reservation is read and are nil when the referenced record no longer
// exists.
type Reservation struct {
	ID        string    `json:"id"`
	UserID    string    `json:"userId"`
	ConcertID string    `json:"concertId"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"createdAt"`
	User      *User     `json:"user"`
	Concert   *Concert  `json:"concert"`
}

// Active reports whether the reservation still holds a seat.
func (r Reservation) Active() bool { return r.Status == ReservationConfirmed }
