package contact

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/google/uuid"
)

// ConversationEnsurer guarantees a conversation exists for a contact on a
// channel. Implemented by the inbox repository.
type ConversationEnsurer interface {
	EnsureConversation(ctx context.Context, contactID, channel string) error
}

// Service creates roster entries and keeps each one reachable through a
// conversation from the moment it exists.
type Service struct {
	repo    Repository
	ensurer ConversationEnsurer
	log     *slog.Logger

	// clock is injectable for deterministic tests.
	clock func() time.Time
}

func NewService(repo Repository, ensurer ConversationEnsurer, log *slog.Logger) *Service {
	if log == nil {
		log = slog.Default()
	}
	return &Service{repo: repo, ensurer: ensurer, log: log, clock: time.Now}
}

// CreateRequest is one incoming roster row.
type CreateRequest struct {
	Name    string          `json:"name"`
	Company string          `json:"company,omitempty"`
	Email   string          `json:"email,omitempty"`
	Phone   string          `json:"phone,omitempty"`
	City    string          `json:"city,omitempty"`
	State   string          `json:"state,omitempty"`
	URL     string          `json:"url,omitempty"`
	Raw     json.RawMessage `json:"raw,omitempty"`
}

func (s *Service) Create(ctx context.Context, campaignID string, req CreateRequest) (Contact, error) {
	if campaignID == "" || req.Name == "" {
		return Contact{}, ErrInvalidArgument
	}
	now := s.clock().UTC()
	c := Contact{
		ID:         uuid.NewString(),
		CampaignID: campaignID,
		Name:       req.Name,
		Company:    req.Company,
		Email:      req.Email,
		Phone:      req.Phone,
		City:       req.City,
		State:      req.State,
		URL:        req.URL,
		Status:     StatusNoActivity,
		Raw:        req.Raw,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := s.repo.Create(ctx, c); err != nil {
		return Contact{}, err
	}
	s.ensureConversation(ctx, c)
	return c, nil
}

// BulkCreate inserts rows one by one; a bad row is skipped with a warning
// rather than aborting the batch.
func (s *Service) BulkCreate(ctx context.Context, campaignID string, reqs []CreateRequest) ([]Contact, error) {
	if campaignID == "" {
		return nil, ErrInvalidArgument
	}
	out := make([]Contact, 0, len(reqs))
	for _, req := range reqs {
		c, err := s.Create(ctx, campaignID, req)
		if err != nil {
			s.log.Warn("skipping contact in bulk create", "name", req.Name, "error", err)
			continue
		}
		out = append(out, c)
	}
	return out, nil
}

func (s *Service) ensureConversation(ctx context.Context, c Contact) {
	if s.ensurer == nil {
		return
	}
	channel := ""
	switch {
	case c.Phone != "":
		channel = "sms"
	case c.Email != "":
		channel = "email"
	default:
		return
	}
	if err := s.ensurer.EnsureConversation(ctx, c.ID, channel); err != nil {
		s.log.Warn("could not ensure conversation for new contact",
			"contact_id", c.ID, "channel", channel, "error", err)
	}
}

func (s *Service) Get(ctx context.Context, id string) (Contact, error) {
	if id == "" {
		return Contact{}, ErrInvalidArgument
	}
	return s.repo.Get(ctx, id)
}

func (s *Service) ListByCampaign(ctx context.Context, campaignID string) ([]Contact, error) {
	if campaignID == "" {
		return nil, ErrInvalidArgument
	}
	return s.repo.ListByCampaign(ctx, campaignID)
}

func (s *Service) UpdateStatus(ctx context.Context, id, status string) error {
	if id == "" || status == "" {
		return ErrInvalidArgument
	}
	return s.repo.UpdateStatus(ctx, id, status)
}

func (s *Service) UpdateStage(ctx context.Context, id, stageKey string) error {
	if id == "" {
		return ErrInvalidArgument
	}
	return s.repo.UpdateStage(ctx, id, stageKey)
}

// FindByPhoneLast10 matches a contact by the last ten digits of its phone
// number, the loose form inbound webhooks deliver.
func (s *Service) FindByPhoneLast10(ctx context.Context, digits string) (Contact, error) {
	return s.repo.FindByPhoneLast10(ctx, digits)
}
