package content

import (
	"context"
	"sort"
	"sync"
)

// MemoryRepo is the in-memory Repository used by tests and local
// development.
type MemoryRepo struct {
	mu        sync.RWMutex
	templates map[string]Template
}

func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{templates: make(map[string]Template)}
}

func (r *MemoryRepo) Create(ctx context.Context, t Template) error {
	_ = ctx
	if t.ID == "" || t.Type == "" {
		return ErrInvalidArgument
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.templates[t.ID] = t
	return nil
}

func (r *MemoryRepo) Find(ctx context.Context, id string, typ TemplateType) (Template, error) {
	_ = ctx
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.templates[id]
	if !ok || t.Type != typ {
		return Template{}, ErrNotFound
	}
	return t, nil
}

func (r *MemoryRepo) Get(ctx context.Context, id string) (Template, error) {
	_ = ctx
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.templates[id]
	if !ok {
		return Template{}, ErrNotFound
	}
	return t, nil
}

func (r *MemoryRepo) List(ctx context.Context, typ TemplateType) ([]Template, error) {
	_ = ctx
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := []Template{}
	for _, t := range r.templates {
		if typ == "" || t.Type == typ {
			out = append(out, t)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

func (r *MemoryRepo) Update(ctx context.Context, t Template) error {
	_ = ctx
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.templates[t.ID]; !ok {
		return ErrNotFound
	}
	r.templates[t.ID] = t
	return nil
}

func (r *MemoryRepo) Delete(ctx context.Context, id string) error {
	_ = ctx
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.templates[id]; !ok {
		return ErrNotFound
	}
	delete(r.templates, id)
	return nil
}
