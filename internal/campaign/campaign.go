// Package campaign stores campaign records and builds the campaign side of
// the merge context. Each campaign owns a private clone of its template's
// graph from the moment it is created.
package campaign

import (
	"context"
	"errors"
	"time"
)

var (
	ErrNotFound        = errors.New("not found")
	ErrInvalidArgument = errors.New("invalid argument")
)

// Statuses.
const (
	StatusDraft   = "draft"
	StatusActive  = "active"
	StatusPaused  = "paused"
	StatusStopped = "stopped"
)

// Campaign is one outreach effort: an event, its metadata and the people
// running it. TemplateID points at the funnel the graph was cloned from
// and may be cleared when that template is deleted.
type Campaign struct {
	ID           string     `json:"id"`
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
	Status       string     `json:"status"`
	TemplateID   string     `json:"templateId,omitempty"`
	CreatedAt    time.Time  `json:"createdAt"`
	UpdatedAt    time.Time  `json:"updatedAt"`
}

// MergeContext builds the campaign root of a merge context: snake_case
// keys, dates in ISO form, empty strings for unset fields so templates
// render blanks instead of literal tags.
func (c Campaign) MergeContext() map[string]any {
	return map[string]any{
		"name":          c.Name,
		"owner_name":    c.OwnerName,
		"owner_email":   c.OwnerEmail,
		"owner_phone":   c.OwnerPhone,
		"city":          c.City,
		"state":         c.State,
		"video_link":    c.VideoLink,
		"event_link":    c.EventLink,
		"event_type":    c.EventType,
		"event_date":    isoDate(c.EventDate),
		"launch_date":   isoDate(c.LaunchDate),
		"hotel_name":    c.HotelName,
		"hotel_address": c.HotelAddress,
		"calendly_link": c.CalendlyLink,
		"status":        c.Status,
	}
}

func isoDate(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.UTC().Format("2006-01-02")
}

// Repository stores campaigns. DetachTemplate clears the template pointer
// on every campaign cloned from it without touching their graphs.
type Repository interface {
	Create(ctx context.Context, c Campaign) error
	Get(ctx context.Context, id string) (Campaign, error)
	List(ctx context.Context) ([]Campaign, error)
	Update(ctx context.Context, c Campaign) error
	Delete(ctx context.Context, id string) error
	DetachTemplate(ctx context.Context, templateID string) error
}
