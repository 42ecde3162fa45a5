package content

import (
	"context"
	"errors"
	"log/slog"

	"outreach-platform/internal/funnel"
)

// Resolver turns a node config into the text a channel should carry.
//
// Precedence: a template reference is authoritative when present. A
// dangling or wrong-channel reference resolves to empty content with a
// warning; it never falls back to inline fields, so a typoed id cannot
// silently send stale inline copy.
type Resolver struct {
	repo Repository
	log  *slog.Logger
}

func NewResolver(repo Repository, log *slog.Logger) *Resolver {
	if log == nil {
		log = slog.Default()
	}
	return &Resolver{repo: repo, log: log}
}

func (r *Resolver) find(ctx context.Context, id string, typ TemplateType) (Template, bool) {
	t, err := r.repo.Find(ctx, id, typ)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			r.log.Warn("content template reference did not resolve",
				"template_id", id, "channel", string(typ))
		} else {
			r.log.Warn("content template lookup failed",
				"template_id", id, "channel", string(typ), "error", err)
		}
		return Template{}, false
	}
	return t, true
}

// ResolveSMSText returns the SMS body for cfg. Inline precedence is text,
// then message, then content.text.
func (r *Resolver) ResolveSMSText(ctx context.Context, cfg funnel.NodeConfig) string {
	if cfg.TemplateID != "" {
		t, ok := r.find(ctx, cfg.TemplateID, TypeSMS)
		if !ok {
			return ""
		}
		if t.Text != "" {
			return t.Text
		}
		return t.Body
	}
	if cfg.Text != "" {
		return cfg.Text
	}
	if cfg.Message != "" {
		return cfg.Message
	}
	if cfg.Content != nil {
		return cfg.Content.Text
	}
	return ""
}

// Email is a resolved email payload.
type Email struct {
	Subject string
	Body    string
}

// ResolveEmail returns subject and body for cfg. Inline content with only a
// text field yields a body-only email.
func (r *Resolver) ResolveEmail(ctx context.Context, cfg funnel.NodeConfig) Email {
	if cfg.TemplateID != "" {
		t, ok := r.find(ctx, cfg.TemplateID, TypeEmail)
		if !ok {
			return Email{}
		}
		body := t.Body
		if body == "" {
			body = t.Text
		}
		return Email{Subject: t.Subject, Body: body}
	}
	if cfg.Content != nil {
		body := cfg.Content.Body
		if body == "" {
			body = cfg.Content.Text
		}
		return Email{Subject: cfg.Content.Subject, Body: body}
	}
	if cfg.Text != "" {
		return Email{Body: cfg.Text}
	}
	return Email{}
}

// ResolveVoicemailScript returns the TTS script for cfg.
func (r *Resolver) ResolveVoicemailScript(ctx context.Context, cfg funnel.NodeConfig) string {
	if cfg.TemplateID != "" {
		t, ok := r.find(ctx, cfg.TemplateID, TypeVoicemail)
		if !ok {
			return ""
		}
		if t.TTSScript != "" {
			return t.TTSScript
		}
		return t.Text
	}
	if cfg.TTS != nil && cfg.TTS.CustomScript != "" {
		return cfg.TTS.CustomScript
	}
	if cfg.Text != "" {
		return cfg.Text
	}
	return cfg.Message
}
