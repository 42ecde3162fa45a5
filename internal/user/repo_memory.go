package user

import (
	"context"
	"sort"
	"strings"
	"sync"
)

// MemoryRepo is the in-memory Repository used by tests and local
// development.
type MemoryRepo struct {
	mu    sync.RWMutex
	users map[string]User
}

func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{users: make(map[string]User)}
}

func (r *MemoryRepo) Create(ctx context.Context, u User) error {
	_ = ctx
	if u.ID == "" || u.Email == "" {
		return ErrInvalidArgument
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.users[u.ID] = u
	return nil
}

func (r *MemoryRepo) Get(ctx context.Context, id string) (User, error) {
	_ = ctx
	r.mu.RLock()
	defer r.mu.RUnlock()
	u, ok := r.users[id]
	if !ok {
		return User{}, ErrNotFound
	}
	return u, nil
}

func (r *MemoryRepo) GetByEmail(ctx context.Context, email string) (User, error) {
	_ = ctx
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, u := range r.users {
		if strings.EqualFold(u.Email, email) {
			return u, nil
		}
	}
	return User{}, ErrNotFound
}

func (r *MemoryRepo) List(ctx context.Context) ([]User, error) {
	_ = ctx
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]User, 0, len(r.users))
	for _, u := range r.users {
		out = append(out, u)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Email < out[j].Email })
	return out, nil
}

func (r *MemoryRepo) FindAnySMTPFallback(ctx context.Context) (User, error) {
	_ = ctx
	r.mu.RLock()
	defer r.mu.RUnlock()

	// Deterministic pick: lowest email wins.
	var best User
	found := false
	for _, u := range r.users {
		if !u.SMTP.Complete() {
			continue
		}
		if !found || u.Email < best.Email {
			best = u
			found = true
		}
	}
	if !found {
		return User{}, ErrNotFound
	}
	return best, nil
}
