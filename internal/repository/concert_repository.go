package repository

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/iliyamo/concert-reservation/internal/model"
)

// ConcertRepo is the in-memory concert catalog.  It owns the seat counters
// and is the only place where ReservedSeats changes.  Every concert it
// returns has AvailableSeats and SoldOut computed from the stored counters.
type ConcertRepo struct {
	mu       sync.RWMutex
	concerts []model.Concert
}

// NewConcertRepo returns an empty catalog.
func NewConcertRepo() *ConcertRepo { return &ConcertRepo{} }

// Seed installs the two demo concerts.
func (r *ConcertRepo) Seed() {
	now := time.Now().UTC()
	r.mu.Lock()
	defer r.mu.Unlock()
	r.concerts = append(r.concerts,
		model.Concert{
			ID:          "1",
			Name:        "Rock Concert 2025",
			Description: "The biggest rock concert of the year",
			Date:        time.Date(2024, 12, 15, 19, 0, 0, 0, time.UTC),
			Venue:       "Bangkok Arena",
			TotalSeats:  1000,
			CreatedAt:   now,
		},
		model.Concert{
			ID:          "2",
			Name:        "Jazz Night",
			Description: "An elegant evening of smooth jazz",
			Date:        time.Date(2024, 12, 20, 20, 0, 0, 0, time.UTC),
			Venue:       "Jazz Club Bangkok",
			TotalSeats:  200,
			CreatedAt:   now,
		},
	)
}

// List returns every concert in insertion order.
func (r *ConcertRepo) List() []model.Concert {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]model.Concert, 0, len(r.concerts))
	for _, c := range r.concerts {
		out = append(out, c.WithAvailability())
	}
	return out
}

// GetByID fetches a concert by id.
func (r *ConcertRepo) GetByID(id string) (model.Concert, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	i := r.indexOf(id)
	if i < 0 {
		return model.Concert{}, notFoundConcert(id)
	}
	return r.concerts[i].WithAvailability(), nil
}

// Create adds a concert with no reserved seats.  totalSeats is expected to
// have been validated as positive by the caller.
func (r *ConcertRepo) Create(name, description string, date time.Time, venue string, totalSeats int) model.Concert {
	c := model.Concert{
		ID:          uuid.NewString(),
		Name:        strings.TrimSpace(name),
		Description: description,
		Date:        date.UTC(),
		Venue:       strings.TrimSpace(venue),
		TotalSeats:  totalSeats,
		CreatedAt:   time.Now().UTC(),
	}
	r.mu.Lock()
	r.concerts = append(r.concerts, c)
	r.mu.Unlock()
	return c.WithAvailability()
}

// Update applies the non-nil fields of p.  Shrinking TotalSeats below the
// seats already reserved is rejected and leaves the concert untouched.
func (r *ConcertRepo) Update(id string, p model.ConcertPatch) (model.Concert, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	i := r.indexOf(id)
	if i < 0 {
		return model.Concert{}, notFoundConcert(id)
	}
	c := r.concerts[i]
	if p.TotalSeats != nil && *p.TotalSeats < c.ReservedSeats {
		return model.Concert{}, fmt.Errorf("concert %s has %d reserved: %w", id, c.ReservedSeats, ErrSeatsBelowReserved)
	}
	if p.Name != nil {
		c.Name = strings.TrimSpace(*p.Name)
	}
	if p.Description != nil {
		c.Description = *p.Description
	}
	if p.Date != nil {
		c.Date = p.Date.UTC()
	}
	if p.Venue != nil {
		c.Venue = strings.TrimSpace(*p.Venue)
	}
	if p.TotalSeats != nil {
		c.TotalSeats = *p.TotalSeats
	}
	r.concerts[i] = c
	return c.WithAvailability(), nil
}

// Delete removes a concert.  It does not look at reservations; callers
// that need that guarantee go through ReservationRepo.RetireConcert.
func (r *ConcertRepo) Delete(id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	i := r.indexOf(id)
	if i < 0 {
		return notFoundConcert(id)
	}
	r.concerts = append(r.concerts[:i], r.concerts[i+1:]...)
	return nil
}

// ReserveSeats takes count seats from the concert.  The availability check
// and the increment happen under one lock.
func (r *ConcertRepo) ReserveSeats(id string, count int) (model.Concert, error) {
	if count < 1 {
		return model.Concert{}, ErrInvalidSeatCount
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	i := r.indexOf(id)
	if i < 0 {
		return model.Concert{}, notFoundConcert(id)
	}
	if avail := r.concerts[i].TotalSeats - r.concerts[i].ReservedSeats; avail < count {
		return model.Concert{}, fmt.Errorf("concert %s has %d left, %d requested: %w", id, avail, count, ErrNotEnoughSeats)
	}
	r.concerts[i].ReservedSeats += count
	return r.concerts[i].WithAvailability(), nil
}

// ReleaseSeats gives count seats back to the concert.  The counter never
// drops below zero.  A missing concert is not an error: ok is false and
// nothing changes.
func (r *ConcertRepo) ReleaseSeats(id string, count int) (c model.Concert, ok bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	i := r.indexOf(id)
	if i < 0 {
		return model.Concert{}, false
	}
	if count < 1 {
		return r.concerts[i].WithAvailability(), true
	}
	r.concerts[i].ReservedSeats = max(0, r.concerts[i].ReservedSeats-count)
	return r.concerts[i].WithAvailability(), true
}

func (r *ConcertRepo) indexOf(id string) int {
	for i := range r.concerts {
		if r.concerts[i].ID == id {
			return i
		}
	}
	return -1
}

func notFoundConcert(id string) error {
	return fmt.Errorf("concert %s: %w", id, ErrConcertNotFound)
}
