package model

import "time"

// Concert is a scheduled event with a fixed number of seats.  Only
// TotalSeats and ReservedSeats are stored; AvailableSeats and SoldOut are
// derived every time a concert leaves the catalog.
//
// Fields:
//
//	ID             – unique identifier.
//	Name           – concert title.
//	Description    – free text.
//	Date           – when the concert takes place.
//	Venue          – where the concert takes place.
//	TotalSeats     – capacity, always > 0.
//	ReservedSeats  – seats held by confirmed reservations, 0 ≤ n ≤ TotalSeats.
//	AvailableSeats – TotalSeats - ReservedSeats (derived).
//	SoldOut        – AvailableSeats == 0 (derived).
//	CreatedAt      – creation timestamp.
type Concert struct {
	ID             string    `json:"id"`
	Name           string    `json:"name"`
	Description    string    `json:"description"`
	Date           time.Time `json:"date"`
	Venue          string    `json:"venue"`
	TotalSeats     int       `json:"totalSeats"`
	ReservedSeats  int       `json:"reservedSeats"`
	AvailableSeats int       `json:"availableSeats"`
	SoldOut        bool      `json:"soldOut"`
	CreatedAt      time.Time `json:"createdAt"`
}

// WithAvailability returns a copy of c with the derived seat fields filled in.
func (c Concert) WithAvailability() Concert {
	c.AvailableSeats = c.TotalSeats - c.ReservedSeats
	c.SoldOut = c.AvailableSeats == 0
	return c
}

// ConcertPatch carries a partial update.  Nil fields are left untouched.
type ConcertPatch struct {
	Name        *string
	Description *string
	Date        *time.Time
	Venue       *string
	TotalSeats  *int
}
