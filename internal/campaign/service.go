package campaign

import (
	"context"
	"fmt"
	"time"

	"outreach-platform/internal/funnel"

	"github.com/google/uuid"
)

// Service creates and edits campaigns. Graph cloning goes through the
// funnel store so a campaign's funnel is private from creation onward.
type Service struct {
	repo  Repository
	store funnel.Store

	// clock is injectable for deterministic tests.
	clock func() time.Time
}

func NewService(repo Repository, store funnel.Store) *Service {
	return &Service{repo: repo, store: store, clock: time.Now}
}

// CreateRequest carries the campaign metadata. TemplateID, when present,
// selects the funnel to clone.
type CreateRequest struct {
	Name         string     `json:"name"`
	OwnerName    string     `json:"ownerName,omitempty"`
	OwnerEmail   string     `json:"ownerEmail,omitempty"`
	OwnerPhone   string     `json:"ownerPhone,omitempty"`
	City         string     `json:"city,omitempty"`
	State        string     `json:"state,omitempty"`
	VideoLink    string     `json:"videoLink,omitempty"`
	EventLink    string     `json:"eventLink,omitempty"`
	EventType    string     `json:"eventType,omitempty"`
	EventDate    *time.Time `json:"eventDate,omitempty"`
	LaunchDate   *time.Time `json:"launchDate,omitempty"`
	HotelName    string     `json:"hotelName,omitempty"`
	HotelAddress string     `json:"hotelAddress,omitempty"`
	CalendlyLink string     `json:"calendlyLink,omitempty"`
	SenderUserID string     `json:"senderUserId,omitempty"`
	TemplateID   string     `json:"templateId,omitempty"`
}

// Create stores the campaign and clones the referenced template graph into
// the campaign scope, so later template edits never change this campaign.
func (s *Service) Create(ctx context.Context, req CreateRequest) (Campaign, error) {
	if req.Name == "" {
		return Campaign{}, ErrInvalidArgument
	}
	now := s.clock().UTC()
	c := Campaign{
		ID:           uuid.NewString(),
		Name:         req.Name,
		OwnerName:    req.OwnerName,
		OwnerEmail:   req.OwnerEmail,
		OwnerPhone:   req.OwnerPhone,
		City:         req.City,
		State:        req.State,
		VideoLink:    req.VideoLink,
		EventLink:    req.EventLink,
		EventType:    req.EventType,
		EventDate:    req.EventDate,
		LaunchDate:   req.LaunchDate,
		HotelName:    req.HotelName,
		HotelAddress: req.HotelAddress,
		CalendlyLink: req.CalendlyLink,
		SenderUserID: req.SenderUserID,
		Status:       StatusDraft,
		TemplateID:   req.TemplateID,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.repo.Create(ctx, c); err != nil {
		return Campaign{}, err
	}
	if req.TemplateID != "" {
		if err := s.store.CloneGraph(ctx, funnel.TemplateScope(req.TemplateID), funnel.CampaignScope(c.ID)); err != nil {
			return Campaign{}, fmt.Errorf("clone template graph: %w", err)
		}
	}
	return c, nil
}

// Patch carries partial updates. Nil fields are unchanged; ImportGraph
// re-clones the campaign graph from its template.
type Patch struct {
	Name         *string    `json:"name,omitempty"`
	OwnerName    *string    `json:"ownerName,omitempty"`
	OwnerEmail   *string    `json:"ownerEmail,omitempty"`
	OwnerPhone   *string    `json:"ownerPhone,omitempty"`
	City         *string    `json:"city,omitempty"`
	State        *string    `json:"state,omitempty"`
	VideoLink    *string    `json:"videoLink,omitempty"`
	EventLink    *string    `json:"eventLink,omitempty"`
	EventType    *string    `json:"eventType,omitempty"`
	EventDate    *time.Time `json:"eventDate,omitempty"`
	LaunchDate   *time.Time `json:"launchDate,omitempty"`
	HotelName    *string    `json:"hotelName,omitempty"`
	HotelAddress *string    `json:"hotelAddress,omitempty"`
	CalendlyLink *string    `json:"calendlyLink,omitempty"`
	SenderUserID *string    `json:"senderUserId,omitempty"`
	Status       *string    `json:"status,omitempty"`
	TemplateID   *string    `json:"templateId,omitempty"`
	ImportGraph  bool       `json:"importGraph,omitempty"`
}

func (s *Service) Update(ctx context.Context, id string, p Patch) (Campaign, error) {
	c, err := s.repo.Get(ctx, id)
	if err != nil {
		return Campaign{}, err
	}

	apply := func(dst *string, src *string) {
		if src != nil {
			*dst = *src
		}
	}
	apply(&c.Name, p.Name)
	apply(&c.OwnerName, p.OwnerName)
	apply(&c.OwnerEmail, p.OwnerEmail)
	apply(&c.OwnerPhone, p.OwnerPhone)
	apply(&c.City, p.City)
	apply(&c.State, p.State)
	apply(&c.VideoLink, p.VideoLink)
	apply(&c.EventLink, p.EventLink)
	apply(&c.EventType, p.EventType)
	apply(&c.HotelName, p.HotelName)
	apply(&c.HotelAddress, p.HotelAddress)
	apply(&c.CalendlyLink, p.CalendlyLink)
	apply(&c.SenderUserID, p.SenderUserID)
	apply(&c.TemplateID, p.TemplateID)
	if p.EventDate != nil {
		c.EventDate = p.EventDate
	}
	if p.LaunchDate != nil {
		c.LaunchDate = p.LaunchDate
	}
	if p.Status != nil {
		if !validStatus(*p.Status) {
			return Campaign{}, fmt.Errorf("%w: status %q", ErrInvalidArgument, *p.Status)
		}
		c.Status = *p.Status
	}
	c.UpdatedAt = s.clock().UTC()

	if err := s.repo.Update(ctx, c); err != nil {
		return Campaign{}, err
	}

	if p.ImportGraph {
		if c.TemplateID == "" {
			return Campaign{}, fmt.Errorf("%w: importGraph without a template", ErrInvalidArgument)
		}
		if err := s.store.CloneGraph(ctx, funnel.TemplateScope(c.TemplateID), funnel.CampaignScope(c.ID)); err != nil {
			return Campaign{}, fmt.Errorf("import template graph: %w", err)
		}
	}
	return c, nil
}

func validStatus(s string) bool {
	switch s {
	case StatusDraft, StatusActive, StatusPaused, StatusStopped:
		return true
	}
	return false
}

func (s *Service) Get(ctx context.Context, id string) (Campaign, error) {
	if id == "" {
		return Campaign{}, ErrInvalidArgument
	}
	return s.repo.Get(ctx, id)
}

func (s *Service) List(ctx context.Context) ([]Campaign, error) {
	return s.repo.List(ctx)
}

// Delete removes the campaign and its private graph.
func (s *Service) Delete(ctx context.Context, id string) error {
	if id == "" {
		return ErrInvalidArgument
	}
	if _, err := s.repo.Get(ctx, id); err != nil {
		return err
	}
	if err := s.store.DeleteGraph(ctx, funnel.CampaignScope(id)); err != nil {
		return err
	}
	return s.repo.Delete(ctx, id)
}
