// Package content stores reusable message bodies and resolves what a graph
// node should actually say on its channel.
package content

import (
	"context"
	"errors"
	"time"
)

var (
	ErrNotFound        = errors.New("not found")
	ErrInvalidArgument = errors.New("invalid argument")
)

// TemplateType is the channel a content template belongs to. A template
// never resolves for a different channel than its own.
type TemplateType string

const (
	TypeEmail     TemplateType = "email"
	TypeSMS       TemplateType = "sms"
	TypeVoicemail TemplateType = "voicemail"
)

// Template is a reusable piece of channel content referenced from node
// configs by id.
type Template struct {
	ID        string       `json:"id"`
	Type      TemplateType `json:"type"`
	Name      string       `json:"name"`
	Subject   string       `json:"subject,omitempty"`
	Body      string       `json:"body,omitempty"`
	Text      string       `json:"text,omitempty"`
	TTSScript string       `json:"ttsScript,omitempty"`
	CreatedAt time.Time    `json:"createdAt"`
	UpdatedAt time.Time    `json:"updatedAt"`
}

// Repository stores content templates. Find is type-strict: asking for an
// existing id under the wrong type returns ErrNotFound.
type Repository interface {
	Create(ctx context.Context, t Template) error
	Find(ctx context.Context, id string, typ TemplateType) (Template, error)
	Get(ctx context.Context, id string) (Template, error)
	List(ctx context.Context, typ TemplateType) ([]Template, error)
	Update(ctx context.Context, t Template) error
	Delete(ctx context.Context, id string) error
}
