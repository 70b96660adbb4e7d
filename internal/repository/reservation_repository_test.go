package repository_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/iliyamo/concert-reservation/internal/model"
	"github.com/iliyamo/concert-reservation/internal/queue"
	"github.com/iliyamo/concert-reservation/internal/repository"
)

type recordingPublisher struct {
	mu     sync.Mutex
	events []queue.ReservationEvent
	err    error
}

func (p *recordingPublisher) PublishReservationEvent(_ context.Context, ev queue.ReservationEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, ev)
	return p.err
}

type ledgerFixture struct {
	users        *repository.UserRepo
	concerts     *repository.ConcertRepo
	reservations *repository.ReservationRepo
	publisher    *recordingPublisher
}

func newLedger(t *testing.T) ledgerFixture {
	t.Helper()
	f := ledgerFixture{
		users:     repository.NewUserRepo(),
		concerts:  repository.NewConcertRepo(),
		publisher: &recordingPublisher{},
	}
	f.reservations = repository.NewReservationRepo(f.users, f.concerts, f.publisher)
	return f
}

func (f ledgerFixture) user(t *testing.T, email string) model.User {
	t.Helper()
	u, err := f.users.Create(email, "Test "+email, model.RoleUser)
	if err != nil {
		t.Fatalf("create user: %v", err)
	}
	return u
}

func (f ledgerFixture) concert(seats int) model.Concert {
	return f.concerts.Create("Show", "desc", testDate, "Hall", seats)
}

func (f ledgerFixture) seats(t *testing.T, id string) model.Concert {
	t.Helper()
	c, err := f.concerts.GetByID(id)
	if err != nil {
		t.Fatalf("get concert: %v", err)
	}
	if c.ReservedSeats < 0 || c.ReservedSeats > c.TotalSeats {
		t.Fatalf("reserved seats out of range: %+v", c)
	}
	if c.AvailableSeats+c.ReservedSeats != c.TotalSeats {
		t.Fatalf("derived identity broken: %+v", c)
	}
	return c
}

func TestReservationRepo_TwoSeatScenario(t *testing.T) {
	f := newLedger(t)
	ctx := context.Background()
	a, b, c := f.user(t, "a@example.com"), f.user(t, "b@example.com"), f.user(t, "c@example.com")
	concert := f.concert(2)

	resA, err := f.reservations.Create(ctx, a.ID, concert.ID)
	if err != nil {
		t.Fatalf("book A: %v", err)
	}
	if got := f.seats(t, concert.ID); got.ReservedSeats != 1 || got.AvailableSeats != 1 {
		t.Fatalf("after A: %+v", got)
	}

	if _, err := f.reservations.Create(ctx, b.ID, concert.ID); err != nil {
		t.Fatalf("book B: %v", err)
	}
	if got := f.seats(t, concert.ID); got.ReservedSeats != 2 || !got.SoldOut {
		t.Fatalf("after B: %+v", got)
	}

	_, err = f.reservations.Create(ctx, c.ID, concert.ID)
	if !errors.Is(err, repository.ErrSoldOut) || !errors.Is(err, repository.ErrNotEnoughSeats) {
		t.Fatalf("book C: expected capacity error, got %v", err)
	}

	if _, err := f.reservations.Cancel(ctx, resA.ID); err != nil {
		t.Fatalf("cancel A: %v", err)
	}
	if got := f.seats(t, concert.ID); got.ReservedSeats != 1 || got.AvailableSeats != 1 || got.SoldOut {
		t.Fatalf("after cancel A: %+v", got)
	}

	if _, err := f.reservations.Create(ctx, c.ID, concert.ID); err != nil {
		t.Fatalf("book C again: %v", err)
	}
}

func TestReservationRepo_CreateEnriches(t *testing.T) {
	f := newLedger(t)
	u := f.user(t, "a@example.com")
	concert := f.concert(10)

	res, err := f.reservations.Create(context.Background(), u.ID, concert.ID)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if res.Status != model.ReservationConfirmed {
		t.Fatalf("expected confirmed, got %s", res.Status)
	}
	if res.User == nil || res.User.ID != u.ID {
		t.Fatalf("expected enriched user, got %+v", res.User)
	}
	if res.Concert == nil || res.Concert.ReservedSeats != 1 {
		t.Fatalf("expected enriched concert with 1 reserved, got %+v", res.Concert)
	}
}

func TestReservationRepo_CreateFailuresLeaveStoresUntouched(t *testing.T) {
	f := newLedger(t)
	ctx := context.Background()
	u := f.user(t, "a@example.com")
	concert := f.concert(5)
	if _, err := f.reservations.Create(ctx, u.ID, concert.ID); err != nil {
		t.Fatalf("seed booking: %v", err)
	}

	tests := []struct {
		name      string
		userID    string
		concertID string
		want      error
	}{
		{"unknown user", "nobody", concert.ID, repository.ErrUserNotFound},
		{"unknown concert", u.ID, "missing", repository.ErrConcertNotFound},
		{"duplicate booking", u.ID, concert.ID, repository.ErrDuplicateReservation},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := f.reservations.Create(ctx, tt.userID, tt.concertID); !errors.Is(err, tt.want) {
				t.Fatalf("expected %v, got %v", tt.want, err)
			}
		})
	}
	if got := f.seats(t, concert.ID); got.ReservedSeats != 1 {
		t.Fatalf("expected 1 reserved seat, got %d", got.ReservedSeats)
	}
	if n := len(f.reservations.List()); n != 1 {
		t.Fatalf("expected 1 reservation, got %d", n)
	}
}

func TestReservationRepo_CancelTwice(t *testing.T) {
	f := newLedger(t)
	ctx := context.Background()
	u := f.user(t, "a@example.com")
	concert := f.concert(5)
	res, err := f.reservations.Create(ctx, u.ID, concert.ID)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	cancelled, err := f.reservations.Cancel(ctx, res.ID)
	if err != nil {
		t.Fatalf("Cancel: %v", err)
	}
	if cancelled.Status != model.ReservationCancelled {
		t.Fatalf("expected cancelled, got %s", cancelled.Status)
	}
	if _, err := f.reservations.Cancel(ctx, res.ID); !errors.Is(err, repository.ErrAlreadyCancelled) {
		t.Fatalf("expected ErrAlreadyCancelled, got %v", err)
	}
	if got := f.seats(t, concert.ID); got.ReservedSeats != 0 {
		t.Fatalf("second cancel must not release again, reserved=%d", got.ReservedSeats)
	}
	if _, err := f.reservations.Cancel(ctx, "missing"); !errors.Is(err, repository.ErrReservationNotFound) {
		t.Fatalf("expected ErrReservationNotFound, got %v", err)
	}
}

func TestReservationRepo_BookCancelRebook(t *testing.T) {
	f := newLedger(t)
	ctx := context.Background()
	u := f.user(t, "a@example.com")
	concert := f.concert(1)

	for i := 0; i < 3; i++ {
		res, err := f.reservations.Create(ctx, u.ID, concert.ID)
		if err != nil {
			t.Fatalf("round %d book: %v", i, err)
		}
		if _, err := f.reservations.Cancel(ctx, res.ID); err != nil {
			t.Fatalf("round %d cancel: %v", i, err)
		}
	}
	if got := f.seats(t, concert.ID); got.ReservedSeats != 0 {
		t.Fatalf("expected all seats released, got %d", got.ReservedSeats)
	}
	if n := len(f.reservations.List()); n != 3 {
		t.Fatalf("expected 3 reservations in history, got %d", n)
	}
}

func TestReservationRepo_ListByUserOnlyConfirmed(t *testing.T) {
	f := newLedger(t)
	ctx := context.Background()
	u, other := f.user(t, "a@example.com"), f.user(t, "b@example.com")
	c1, c2 := f.concert(5), f.concert(5)

	r1, _ := f.reservations.Create(ctx, u.ID, c1.ID)
	if _, err := f.reservations.Create(ctx, u.ID, c2.ID); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if _, err := f.reservations.Create(ctx, other.ID, c1.ID); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if _, err := f.reservations.Cancel(ctx, r1.ID); err != nil {
		t.Fatalf("Cancel: %v", err)
	}

	mine := f.reservations.ListByUser(u.ID)
	if len(mine) != 1 || mine[0].ConcertID != c2.ID {
		t.Fatalf("expected only the confirmed c2 booking, got %+v", mine)
	}
	if len(f.reservations.ListByUser("nobody")) != 0 {
		t.Fatal("expected empty list for unknown user")
	}
}

func TestReservationRepo_SoftEnrichment(t *testing.T) {
	f := newLedger(t)
	ctx := context.Background()
	u := f.user(t, "a@example.com")
	concert := f.concert(5)
	res, err := f.reservations.Create(ctx, u.ID, concert.ID)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if err := f.users.Delete(u.ID); err != nil {
		t.Fatalf("delete user: %v", err)
	}

	got, err := f.reservations.GetByID(res.ID)
	if err != nil {
		t.Fatalf("GetByID with dangling user: %v", err)
	}
	if got.User != nil {
		t.Fatalf("expected nil user, got %+v", got.User)
	}
	if got.Concert == nil {
		t.Fatal("expected concert to still resolve")
	}
	if all := f.reservations.List(); len(all) != 1 || all[0].User != nil {
		t.Fatalf("unexpected List result: %+v", all)
	}
}

func TestReservationRepo_RetireConcert(t *testing.T) {
	f := newLedger(t)
	ctx := context.Background()
	u := f.user(t, "a@example.com")
	concert := f.concert(5)
	res, err := f.reservations.Create(ctx, u.ID, concert.ID)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	if err := f.reservations.RetireConcert(concert.ID); !errors.Is(err, repository.ErrConcertHasReservations) {
		t.Fatalf("expected ErrConcertHasReservations, got %v", err)
	}
	if _, err := f.reservations.Cancel(ctx, res.ID); err != nil {
		t.Fatalf("Cancel: %v", err)
	}
	if err := f.reservations.RetireConcert(concert.ID); err != nil {
		t.Fatalf("RetireConcert: %v", err)
	}
	if _, err := f.concerts.GetByID(concert.ID); !errors.Is(err, repository.ErrConcertNotFound) {
		t.Fatalf("expected concert gone, got %v", err)
	}
	got, err := f.reservations.GetByID(res.ID)
	if err != nil || got.Concert != nil {
		t.Fatalf("expected cancelled reservation with nil concert, got %+v err=%v", got, err)
	}
	if err := f.reservations.RetireConcert(concert.ID); !errors.Is(err, repository.ErrConcertNotFound) {
		t.Fatalf("expected ErrConcertNotFound, got %v", err)
	}
}

func TestReservationRepo_PublishesEvents(t *testing.T) {
	f := newLedger(t)
	f.publisher.err = errors.New("broker down")
	ctx := context.Background()
	u := f.user(t, "a@example.com")
	concert := f.concert(5)

	res, err := f.reservations.Create(ctx, u.ID, concert.ID)
	if err != nil {
		t.Fatalf("Create must not fail on publish errors: %v", err)
	}
	if _, err := f.reservations.Cancel(ctx, res.ID); err != nil {
		t.Fatalf("Cancel: %v", err)
	}

	if len(f.publisher.events) != 2 {
		t.Fatalf("expected 2 events, got %d", len(f.publisher.events))
	}
	confirmed, cancelled := f.publisher.events[0], f.publisher.events[1]
	if confirmed.Type != queue.EventReservationConfirmed || confirmed.ReservedSeats != 1 || confirmed.UserEmail != u.Email {
		t.Fatalf("unexpected confirmed event: %+v", confirmed)
	}
	if cancelled.Type != queue.EventReservationCancelled || cancelled.ReservedSeats != 0 || cancelled.ReservationID != res.ID {
		t.Fatalf("unexpected cancelled event: %+v", cancelled)
	}
}

func TestReservationRepo_ConcurrentBookingsNeverOversell(t *testing.T) {
	f := newLedger(t)
	ctx := context.Background()
	concert := f.concert(10)

	const bookers = 50
	ids := make([]string, bookers)
	for i := range ids {
		ids[i] = f.user(t, fmt.Sprintf("user%d@example.com", i)).ID
	}

	var wg sync.WaitGroup
	var mu sync.Mutex
	booked := 0
	for _, id := range ids {
		wg.Add(1)
		go func(userID string) {
			defer wg.Done()
			if _, err := f.reservations.Create(ctx, userID, concert.ID); err == nil {
				mu.Lock()
				booked++
				mu.Unlock()
			}
		}(id)
	}
	wg.Wait()

	if booked != 10 {
		t.Fatalf("expected exactly 10 successful bookings, got %d", booked)
	}
	if got := f.seats(t, concert.ID); !got.SoldOut {
		t.Fatalf("expected sold out, got %+v", got)
	}
}

func TestReservationRepo_ConcurrentDuplicateBooking(t *testing.T) {
	f := newLedger(t)
	ctx := context.Background()
	u := f.user(t, "a@example.com")
	concert := f.concert(100)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = f.reservations.Create(ctx, u.ID, concert.ID)
		}()
	}
	wg.Wait()

	if n := len(f.reservations.ListByUser(u.ID)); n != 1 {
		t.Fatalf("expected one confirmed reservation, got %d", n)
	}
	if got := f.seats(t, concert.ID); got.ReservedSeats != 1 {
		t.Fatalf("expected 1 reserved seat, got %d", got.ReservedSeats)
	}
}

func TestReservationRepo_EventsFollowCommitOrder(t *testing.T) {
	f := newLedger(t)
	ctx := context.Background()
	concert := f.concert(100)

	const bookers = 40
	var wg sync.WaitGroup
	for i := 0; i < bookers; i++ {
		u := f.user(t, fmt.Sprintf("fan%d@example.com", i))
		wg.Add(1)
		go func(userID string, cancel bool) {
			defer wg.Done()
			res, err := f.reservations.Create(ctx, userID, concert.ID)
			if err != nil {
				t.Errorf("Create: %v", err)
				return
			}
			if cancel {
				if _, err := f.reservations.Cancel(ctx, res.ID); err != nil {
					t.Errorf("Cancel: %v", err)
				}
			}
		}(u.ID, i%2 == 0)
	}
	wg.Wait()

	f.publisher.mu.Lock()
	defer f.publisher.mu.Unlock()
	reserved := 0
	seen := map[string]string{}
	for i, ev := range f.publisher.events {
		switch ev.Type {
		case queue.EventReservationConfirmed:
			reserved++
		case queue.EventReservationCancelled:
			if seen[ev.ReservationID] != queue.EventReservationConfirmed {
				t.Fatalf("event %d: cancel of %s before its confirmation", i, ev.ReservationID)
			}
			reserved--
		}
		if ev.ReservedSeats != reserved {
			t.Fatalf("event %d: expected %d reserved seats, got %d", i, reserved, ev.ReservedSeats)
		}
		seen[ev.ReservationID] = ev.Type
	}
	if got := f.seats(t, concert.ID); got.ReservedSeats != reserved {
		t.Fatalf("catalog has %d reserved seats, events end at %d", got.ReservedSeats, reserved)
	}
}

// hiddenUsers resolves every id but reports none as existing.
type hiddenUsers struct{ *repository.UserRepo }

func (hiddenUsers) Exists(string) bool { return false }

func TestReservationRepo_CreateUsesExistenceCheck(t *testing.T) {
	users := repository.NewUserRepo()
	users.Seed()
	concerts := repository.NewConcertRepo()
	concerts.Seed()
	ledger := repository.NewReservationRepo(hiddenUsers{users}, concerts, nil)

	if _, err := ledger.Create(context.Background(), "2", "1"); !errors.Is(err, repository.ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}
	if c, _ := concerts.GetByID("1"); c.ReservedSeats != 0 {
		t.Fatalf("seat taken for a missing user: %+v", c)
	}
}
