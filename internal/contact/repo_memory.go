package contact

import (
	"context"
	"sort"
	"strings"
	"sync"
)

// MemoryRepo is the in-memory Repository used by tests and local
// development.
type MemoryRepo struct {
	mu       sync.RWMutex
	contacts map[string]Contact
}

func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{contacts: make(map[string]Contact)}
}

func (r *MemoryRepo) Create(ctx context.Context, c Contact) error {
	_ = ctx
	if c.ID == "" || c.CampaignID == "" {
		return ErrInvalidArgument
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.contacts[c.ID] = c
	return nil
}

func (r *MemoryRepo) Get(ctx context.Context, id string) (Contact, error) {
	_ = ctx
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.contacts[id]
	if !ok {
		return Contact{}, ErrNotFound
	}
	return c, nil
}

func (r *MemoryRepo) ListByCampaign(ctx context.Context, campaignID string) ([]Contact, error) {
	_ = ctx
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := []Contact{}
	for _, c := range r.contacts {
		if c.CampaignID == campaignID {
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}

func (r *MemoryRepo) UpdateStatus(ctx context.Context, id, status string) error {
	_ = ctx
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.contacts[id]
	if !ok {
		return ErrNotFound
	}
	c.Status = status
	r.contacts[id] = c
	return nil
}

func (r *MemoryRepo) UpdateStage(ctx context.Context, id, stageKey string) error {
	_ = ctx
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.contacts[id]
	if !ok {
		return ErrNotFound
	}
	c.StageKey = stageKey
	r.contacts[id] = c
	return nil
}

func (r *MemoryRepo) FindByPhoneLast10(ctx context.Context, digits string) (Contact, error) {
	_ = ctx
	if len(digits) < 10 {
		return Contact{}, ErrNotFound
	}
	digits = digits[len(digits)-10:]

	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, c := range r.contacts {
		if c.Phone == "" {
			continue
		}
		if strings.HasSuffix(onlyDigits(c.Phone), digits) {
			return c, nil
		}
	}
	return Contact{}, ErrNotFound
}

func onlyDigits(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}
