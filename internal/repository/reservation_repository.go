package repository

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/iliyamo/concert-reservation/internal/model"
	"github.com/iliyamo/concert-reservation/internal/queue"
)

// UserLookup resolves users by id.  *UserRepo satisfies it.
type UserLookup interface {
	Exists(id string) bool
	GetByID(id string) (model.User, error)
}

// SeatCatalog is the part of the concert catalog the ledger drives.
// *ConcertRepo satisfies it.
type SeatCatalog interface {
	GetByID(id string) (model.Concert, error)
	ReserveSeats(id string, count int) (model.Concert, error)
	ReleaseSeats(id string, count int) (model.Concert, bool)
	Delete(id string) error
}

// EventPublisher receives reservation lifecycle events.  The ledger calls it
// with its lock held, so events arrive in the order the changes were made
// and implementations must hand them off without blocking.  Publishing is
// best effort: a failure never undoes the reservation change.
type EventPublisher interface {
	PublishReservationEvent(ctx context.Context, ev queue.ReservationEvent) error
}

// ReservationRepo is the in-memory reservation ledger.  Reservations are
// stored without their user and concert; both are looked up whenever a
// reservation is read.  Create, Cancel and RetireConcert run under a single
// ledger lock so the availability check, the duplicate check and the seat
// change cannot interleave with another booking.
type ReservationRepo struct {
	mu           sync.Mutex
	users        UserLookup
	concerts     SeatCatalog
	publisher    EventPublisher
	reservations []model.Reservation
}

// NewReservationRepo returns an empty ledger bound to the user directory and
// concert catalog.  publisher may be nil.
func NewReservationRepo(users UserLookup, concerts SeatCatalog, publisher EventPublisher) *ReservationRepo {
	if users == nil || concerts == nil {
		panic("nil store passed to NewReservationRepo")
	}
	return &ReservationRepo{users: users, concerts: concerts, publisher: publisher}
}

// List returns every reservation, enriched, in creation order.
func (r *ReservationRepo) List() []model.Reservation {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]model.Reservation, 0, len(r.reservations))
	for _, res := range r.reservations {
		out = append(out, r.enrich(res))
	}
	return out
}

// ListByUser returns the confirmed reservations of one user.
func (r *ReservationRepo) ListByUser(userID string) []model.Reservation {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []model.Reservation{}
	for _, res := range r.reservations {
		if res.UserID == userID && res.Active() {
			out = append(out, r.enrich(res))
		}
	}
	return out
}

// GetByID fetches a single reservation.
func (r *ReservationRepo) GetByID(id string) (model.Reservation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	i := r.indexOf(id)
	if i < 0 {
		return model.Reservation{}, notFoundReservation(id)
	}
	return r.enrich(r.reservations[i]), nil
}

// Create books one seat of concertID for userID.  Every check runs before
// any state changes, and the reservation is only recorded once the seat has
// been taken from the catalog.
func (r *ReservationRepo) Create(ctx context.Context, userID, concertID string) (model.Reservation, error) {
	r.mu.Lock()
	if !r.users.Exists(userID) {
		r.mu.Unlock()
		return model.Reservation{}, fmt.Errorf("user %s: %w", userID, ErrUserNotFound)
	}
	concert, err := r.concerts.GetByID(concertID)
	if err != nil {
		r.mu.Unlock()
		return model.Reservation{}, err
	}
	if concert.AvailableSeats == 0 {
		r.mu.Unlock()
		return model.Reservation{}, fmt.Errorf("concert %s: %w", concertID, ErrSoldOut)
	}
	for _, res := range r.reservations {
		if res.UserID == userID && res.ConcertID == concertID && res.Active() {
			r.mu.Unlock()
			return model.Reservation{}, fmt.Errorf("user %s, concert %s: %w", userID, concertID, ErrDuplicateReservation)
		}
	}
	if _, err := r.concerts.ReserveSeats(concertID, 1); err != nil {
		r.mu.Unlock()
		if errors.Is(err, ErrNotEnoughSeats) {
			return model.Reservation{}, fmt.Errorf("concert %s: %w", concertID, ErrSoldOut)
		}
		return model.Reservation{}, err
	}
	res := model.Reservation{
		ID:        uuid.NewString(),
		UserID:    userID,
		ConcertID: concertID,
		Status:    model.ReservationConfirmed,
		CreatedAt: time.Now().UTC(),
	}
	r.reservations = append(r.reservations, res)
	out := r.enrich(res)
	r.publish(ctx, queue.EventReservationConfirmed, out)
	r.mu.Unlock()
	return out, nil
}

// Cancel moves a confirmed reservation to cancelled and gives its seat back.
func (r *ReservationRepo) Cancel(ctx context.Context, id string) (model.Reservation, error) {
	r.mu.Lock()
	i := r.indexOf(id)
	if i < 0 {
		r.mu.Unlock()
		return model.Reservation{}, notFoundReservation(id)
	}
	if !r.reservations[i].Active() {
		r.mu.Unlock()
		return model.Reservation{}, fmt.Errorf("reservation %s: %w", id, ErrAlreadyCancelled)
	}
	r.reservations[i].Status = model.ReservationCancelled
	r.concerts.ReleaseSeats(r.reservations[i].ConcertID, 1)
	out := r.enrich(r.reservations[i])
	r.publish(ctx, queue.EventReservationCancelled, out)
	r.mu.Unlock()
	return out, nil
}

// RetireConcert deletes a concert unless a confirmed reservation still
// points at it.  Cancelled reservations keep their concert id and enrich to
// a nil concert afterwards.
func (r *ReservationRepo) RetireConcert(concertID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, err := r.concerts.GetByID(concertID); err != nil {
		return err
	}
	active := 0
	for _, res := range r.reservations {
		if res.ConcertID == concertID && res.Active() {
			active++
		}
	}
	if active > 0 {
		return fmt.Errorf("concert %s has %d: %w", concertID, active, ErrConcertHasReservations)
	}
	return r.concerts.Delete(concertID)
}

// enrich attaches the referenced user and concert.  A reference that no
// longer resolves is left nil.  Callers hold the lock.
func (r *ReservationRepo) enrich(res model.Reservation) model.Reservation {
	res.User, res.Concert = nil, nil
	if u, err := r.users.GetByID(res.UserID); err == nil {
		res.User = &u
	}
	if c, err := r.concerts.GetByID(res.ConcertID); err == nil {
		res.Concert = &c
	}
	return res
}

// publish hands the event for res to the publisher.  Callers hold the lock.
func (r *ReservationRepo) publish(ctx context.Context, typ string, res model.Reservation) {
	if r.publisher == nil {
		return
	}
	ev := queue.ReservationEvent{
		Type:          typ,
		ReservationID: res.ID,
		UserID:        res.UserID,
		ConcertID:     res.ConcertID,
		OccurredAt:    time.Now().UTC().Format(time.RFC3339),
	}
	if res.User != nil {
		ev.UserEmail = res.User.Email
	}
	if res.Concert != nil {
		ev.ConcertName = res.Concert.Name
		ev.ReservedSeats = res.Concert.ReservedSeats
		ev.TotalSeats = res.Concert.TotalSeats
	}
	// errors are logged by the publisher
	_ = r.publisher.PublishReservationEvent(context.WithoutCancel(ctx), ev)
}

func (r *ReservationRepo) indexOf(id string) int {
	for i := range r.reservations {
		if r.reservations[i].ID == id {
			return i
		}
	}
	return -1
}

func notFoundReservation(id string) error {
	return fmt.Errorf("reservation %s: %w", id, ErrReservationNotFound)
}
