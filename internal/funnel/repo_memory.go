package funnel

import (
	"context"
	"sort"
	"sync"
)

// MemoryTemplateRepo is the in-memory TemplateRepository used by tests and
// local development.
type MemoryTemplateRepo struct {
	mu        sync.RWMutex
	templates map[string]Template
}

func NewMemoryTemplateRepo() *MemoryTemplateRepo {
	return &MemoryTemplateRepo{templates: make(map[string]Template)}
}

func (r *MemoryTemplateRepo) Create(ctx context.Context, t Template) error {
	_ = ctx
	if t.ID == "" {
		return ErrInvalidArgument
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.templates[t.ID] = t
	return nil
}

func (r *MemoryTemplateRepo) Get(ctx context.Context, id string) (Template, error) {
	_ = ctx
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.templates[id]
	if !ok {
		return Template{}, ErrNotFound
	}
	return t, nil
}

func (r *MemoryTemplateRepo) List(ctx context.Context) ([]Template, error) {
	_ = ctx
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Template, 0, len(r.templates))
	for _, t := range r.templates {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

func (r *MemoryTemplateRepo) Update(ctx context.Context, t Template) error {
	_ = ctx
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.templates[t.ID]; !ok {
		return ErrNotFound
	}
	r.templates[t.ID] = t
	return nil
}

func (r *MemoryTemplateRepo) Delete(ctx context.Context, id string) error {
	_ = ctx
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.templates[id]; !ok {
		return ErrNotFound
	}
	delete(r.templates, id)
	return nil
}

// MemoryVersionRepo is the in-memory VersionRepository.
type MemoryVersionRepo struct {
	mu       sync.RWMutex
	versions map[string]Version
}

func NewMemoryVersionRepo() *MemoryVersionRepo {
	return &MemoryVersionRepo{versions: make(map[string]Version)}
}

func (r *MemoryVersionRepo) Create(ctx context.Context, v Version) error {
	_ = ctx
	if v.ID == "" || v.BaseTemplateID == "" {
		return ErrInvalidArgument
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.versions[v.ID] = v
	return nil
}

func (r *MemoryVersionRepo) Get(ctx context.Context, id string) (Version, error) {
	_ = ctx
	r.mu.RLock()
	defer r.mu.RUnlock()
	v, ok := r.versions[id]
	if !ok {
		return Version{}, ErrNotFound
	}
	return v, nil
}

func (r *MemoryVersionRepo) ListByTemplate(ctx context.Context, baseTemplateID string) ([]Version, error) {
	_ = ctx
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []Version
	for _, v := range r.versions {
		if v.BaseTemplateID == baseTemplateID {
			out = append(out, v)
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

func (r *MemoryVersionRepo) Delete(ctx context.Context, id string) error {
	_ = ctx
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.versions[id]; !ok {
		return ErrNotFound
	}
	delete(r.versions, id)
	return nil
}
