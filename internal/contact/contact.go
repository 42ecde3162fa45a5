// Package contact stores campaign rosters and the merge values a contact
// contributes to rendered messages.
package contact

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"outreach-platform/internal/mergetag"
)

var (
	ErrNotFound        = errors.New("not found")
	ErrInvalidArgument = errors.New("invalid argument")
)

// StatusNoActivity is the initial funnel status of every contact. The
// stats module folds the other statuses into its funnel counters.
const (
	StatusNoActivity       = "No Activity"
	StatusNeedsBDR         = "Needs BDR"
	StatusReceivedRSVP     = "Received RSVP"
	StatusShowedUp         = "Showed Up To Event"
	StatusReceivedContract = "Received Agreement"
	StatusSignedContract   = "Signed Agreement"
)

// Contact is one person on a campaign roster. Raw preserves the source
// record from bulk imports so nothing is lost to the typed columns.
type Contact struct {
	ID         string          `json:"id"`
	CampaignID string          `json:"campaignId"`
	Name       string          `json:"name"`
	Company    string          `json:"company,omitempty"`
	Email      string          `json:"email,omitempty"`
	Phone      string          `json:"phone,omitempty"`
	City       string          `json:"city,omitempty"`
	State      string          `json:"state,omitempty"`
	URL        string          `json:"url,omitempty"`
	Status     string          `json:"status"`
	StageKey   string          `json:"stageKey,omitempty"`
	Raw        json.RawMessage `json:"raw,omitempty"`
	CreatedAt  time.Time       `json:"createdAt"`
	UpdatedAt  time.Time       `json:"updatedAt"`
}

// MergeValues builds the contact root of a merge context.
func (c Contact) MergeValues() map[string]any {
	first, last := mergetag.SplitName(c.Name)
	return map[string]any{
		"name":       c.Name,
		"first_name": first,
		"last_name":  last,
		"email":      c.Email,
		"phone":      c.Phone,
		"company":    c.Company,
		"city":       c.City,
		"state":      c.State,
	}
}

// Repository stores contacts.
//
// FindByPhoneLast10 matches on the last ten digits of the stored phone so
// webhook callers with or without country codes find the same contact.
type Repository interface {
	Create(ctx context.Context, c Contact) error
	Get(ctx context.Context, id string) (Contact, error)
	ListByCampaign(ctx context.Context, campaignID string) ([]Contact, error)
	UpdateStatus(ctx context.Context, id, status string) error
	UpdateStage(ctx context.Context, id, stageKey string) error
	FindByPhoneLast10(ctx context.Context, digits string) (Contact, error)
}
