package repository

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/iliyamo/concert-reservation/internal/model"
)

// UserRepo is the in-memory user directory.  Users are kept in insertion
// order and are immutable once created; they can only be removed.
type UserRepo struct {
	mu    sync.RWMutex
	users []model.User
}

// NewUserRepo returns an empty directory.
func NewUserRepo() *UserRepo { return &UserRepo{} }

// Seed installs the default admin and regular user.
func (r *UserRepo) Seed() {
	now := time.Now().UTC()
	r.mu.Lock()
	defer r.mu.Unlock()
	r.users = append(r.users,
		model.User{ID: "1", Email: "admin@example.com", Name: "Admin User", Role: model.RoleAdmin, CreatedAt: now},
		model.User{ID: "2", Email: "user@example.com", Name: "Regular User", Role: model.RoleUser, CreatedAt: now},
	)
}

// List returns every user in insertion order.
func (r *UserRepo) List() []model.User {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]model.User, len(r.users))
	copy(out, r.users)
	return out
}

// GetByID fetches a user by id.
func (r *UserRepo) GetByID(id string) (model.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if i := r.indexOf(id); i >= 0 {
		return r.users[i], nil
	}
	return model.User{}, fmt.Errorf("user %s: %w", id, ErrUserNotFound)
}

// Exists reports whether id resolves to a user.
func (r *UserRepo) Exists(id string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.indexOf(id) >= 0
}

// GetByEmail looks a user up by email.  A missing user is not an error; ok
// is false instead.
func (r *UserRepo) GetByEmail(email string) (u model.User, ok bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.byEmail(email)
}

// Create registers a new user.  An empty role defaults to "user".
func (r *UserRepo) Create(email, name, role string) (model.User, error) {
	email = strings.TrimSpace(email)
	if role == "" {
		role = model.RoleUser
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.byEmail(email); ok {
		return model.User{}, ErrEmailExists
	}
	u := model.User{
		ID:        uuid.NewString(),
		Email:     email,
		Name:      strings.TrimSpace(name),
		Role:      role,
		CreatedAt: time.Now().UTC(),
	}
	r.users = append(r.users, u)
	return u, nil
}

// Delete removes a user.
func (r *UserRepo) Delete(id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	i := r.indexOf(id)
	if i < 0 {
		return fmt.Errorf("user %s: %w", id, ErrUserNotFound)
	}
	r.users = append(r.users[:i], r.users[i+1:]...)
	return nil
}

func (r *UserRepo) indexOf(id string) int {
	for i := range r.users {
		if r.users[i].ID == id {
			return i
		}
	}
	return -1
}

// byEmail compares emails case-insensitively; callers hold the lock.
func (r *UserRepo) byEmail(email string) (model.User, bool) {
	email = strings.TrimSpace(email)
	for _, u := range r.users {
		if strings.EqualFold(u.Email, email) {
			return u, true
		}
	}
	return model.User{}, false
}
