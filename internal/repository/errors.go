// Package repository holds the in-memory stores behind the API: the user
// directory, the concert catalog and the reservation ledger.  The sentinel
// values below let handlers tell failure scenarios apart with errors.Is.
// Errors that concern a specific record are wrapped with its id, for
// example "concert 42: concert not found".
package repository

import (
	"errors"
	"fmt"
)

// ErrUserNotFound is returned when a user id does not resolve.
var ErrUserNotFound = errors.New("user not found")

// ErrConcertNotFound is returned when a concert id does not resolve.
var ErrConcertNotFound = errors.New("concert not found")

// ErrReservationNotFound is returned when a reservation id does not resolve.
var ErrReservationNotFound = errors.New("reservation not found")

// ErrEmailExists is returned when a user is created with an email that is
// already registered. Handlers should translate this into an HTTP 409
// response.
var ErrEmailExists = errors.New("user with this email already exists")

// ErrNotEnoughSeats is returned when more seats are requested than a
// concert has available.
var ErrNotEnoughSeats = errors.New("not enough available seats")

// ErrSoldOut is returned when booking a concert with no seats left.  It is
// a capacity failure, so errors.Is(ErrSoldOut, ErrNotEnoughSeats) holds.
var ErrSoldOut = fmt.Errorf("concert is sold out: %w", ErrNotEnoughSeats)

// ErrDuplicateReservation is returned when the user already holds a
// confirmed reservation for the concert.
var ErrDuplicateReservation = errors.New("user already has a reservation for this concert")

// ErrAlreadyCancelled is returned when cancelling a cancelled reservation.
var ErrAlreadyCancelled = errors.New("reservation is already cancelled")

// ErrConcertHasReservations is returned when deleting a concert that still
// has confirmed reservations. Handlers should translate this into an HTTP
// 409 response.
var ErrConcertHasReservations = errors.New("concert still has confirmed reservations")

// ErrSeatsBelowReserved is returned when an update would shrink a concert
// below the number of seats already reserved.
var ErrSeatsBelowReserved = errors.New("total seats cannot be lower than reserved seats")

// ErrInvalidSeatCount is returned when reserving fewer than one seat.
var ErrInvalidSeatCount = errors.New("seat count must be at least 1")
