// Package memory provides a process-local user repository.
package memory

import (
	"context"
	"sync"

	"github.com/kislikjeka/userdir/internal/platform/user"
)

// UserRepository keeps users in a map guarded by a RWMutex.
// List returns records in insertion order.
type UserRepository struct {
	mu    sync.RWMutex
	users map[string]*user.User
	order []string
}

// NewUserRepository creates an empty in-memory repository
func NewUserRepository() *UserRepository {
	return &UserRepository{
		users: make(map[string]*user.User),
	}
}

// Create inserts a user unless the username is taken
func (r *UserRepository) Create(ctx context.Context, u *user.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.users[u.Username]; exists {
		return user.ErrUserAlreadyExists
	}
	r.users[u.Username] = u.Clone()
	r.order = append(r.order, u.Username)
	return nil
}

// GetByUsername returns a copy of the stored user
func (r *UserRepository) GetByUsername(ctx context.Context, username string) (*user.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	u, ok := r.users[username]
	if !ok {
		return nil, user.ErrUserNotFound
	}
	return u.Clone(), nil
}

// List returns up to limit users in insertion order
func (r *UserRepository) List(ctx context.Context, limit int) ([]*user.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	n := min(limit, len(r.order))
	if n < 0 {
		n = 0
	}
	users := make([]*user.User, 0, n)
	for _, username := range r.order[:n] {
		users = append(users, r.users[username].Clone())
	}
	return users, nil
}

// Update replaces the stored record, keeping its position
func (r *UserRepository) Update(ctx context.Context, u *user.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.users[u.Username]; !ok {
		return user.ErrUserNotFound
	}
	r.users[u.Username] = u.Clone()
	return nil
}

// Patch applies a partial update in place
func (r *UserRepository) Patch(ctx context.Context, p *user.Patch) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	u, ok := r.users[p.Username]
	if !ok {
		return user.ErrUserNotFound
	}
	p.Apply(u)
	return nil
}

// Delete removes a user
func (r *UserRepository) Delete(ctx context.Context, username string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.users[username]; !ok {
		return user.ErrUserNotFound
	}
	delete(r.users, username)
	for i, name := range r.order {
		if name == username {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	return nil
}

// Ping always succeeds; the store has no external dependency
func (r *UserRepository) Ping(ctx context.Context) error {
	return nil
}

var _ user.Repository = (*UserRepository)(nil)
