package stats

import (
	"context"
	"sort"
	"sync"

	"outreach-platform/internal/contact"
)

// MemoryRepo keeps the joined rows in slices; tests and fixtures populate
// the exported fields directly.
type MemoryRepo struct {
	mu sync.RWMutex

	Campaigns int
	Contacts  []contact.Contact
	Messages  []ContactMessage
}

func NewMemoryRepo() *MemoryRepo { return &MemoryRepo{} }

func (r *MemoryRepo) CountCampaigns(ctx context.Context) (int, error) {
	_ = ctx
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.Campaigns, nil
}

func (r *MemoryRepo) ListContacts(ctx context.Context, campaignID string) ([]contact.Contact, error) {
	_ = ctx
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := []contact.Contact{}
	for _, c := range r.Contacts {
		if campaignID == "" || c.CampaignID == campaignID {
			out = append(out, c)
		}
	}
	return out, nil
}

func (r *MemoryRepo) ListMessages(ctx context.Context, campaignID string, limit int) ([]ContactMessage, error) {
	_ = ctx
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := []ContactMessage{}
	for _, m := range r.Messages {
		if campaignID == "" || m.CampaignID == campaignID {
			out = append(out, m)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}
