package dispatch

import (
	"context"
	"errors"
	"testing"

	"outreach-platform/internal/config"
	"outreach-platform/internal/user"
)

func recordingMailer(cfg config.SMTPConfig, users user.Repository) (*Mailer, *[]SMTPCredentials) {
	m := NewMailer(cfg, users, nil)
	var seen []SMTPCredentials
	m.sendFn = func(ctx context.Context, creds SMTPCredentials, req EmailRequest) error {
		seen = append(seen, creds)
		return nil
	}
	return m, &seen
}

func TestMailer_ProcessDefaults(t *testing.T) {
	cfg := config.SMTPConfig{Host: "smtp.example.com", Port: 587, User: "sys@example.com", Pass: "pw"}
	m, seen := recordingMailer(cfg, user.NewMemoryRepo())

	res := m.Send(context.Background(), EmailRequest{To: "to@example.com", Subject: "s", Body: "b"})
	if !res.Sent || res.From != "sys@example.com" {
		t.Fatalf("got %+v", res)
	}
	if len(*seen) != 1 || (*seen)[0].Host != "smtp.example.com" {
		t.Fatalf("creds = %+v", *seen)
	}
}

func TestMailer_SenderUserOverrideWins(t *testing.T) {
	users := user.NewMemoryRepo()
	_ = users.Create(context.Background(), user.User{
		ID: "u1", Name: "Pat", Email: "pat@example.com", Role: "bdr",
		SMTP: user.SMTPSettings{Host: "smtp.pat.example", Port: 465, Username: "pat@example.com", Password: "pw"},
	})
	cfg := config.SMTPConfig{Host: "smtp.example.com", Port: 587, User: "sys@example.com", Pass: "pw"}
	m, seen := recordingMailer(cfg, users)

	res := m.Send(context.Background(), EmailRequest{To: "to@example.com", SenderUserID: "u1"})
	if !res.Sent {
		t.Fatalf("got %+v", res)
	}
	creds := (*seen)[0]
	if creds.Host != "smtp.pat.example" || !creds.Secure {
		t.Fatalf("user override not used: %+v", creds)
	}
}

func TestMailer_AnyUserFallbackWhenDefaultsIncomplete(t *testing.T) {
	users := user.NewMemoryRepo()
	_ = users.Create(context.Background(), user.User{
		ID: "u2", Name: "Lee", Email: "lee@example.com", Role: "bdr",
		SMTP: user.SMTPSettings{Host: "smtp.lee.example", Username: "lee@example.com", Password: "pw", From: "Lee <lee@example.com>"},
	})
	m, seen := recordingMailer(config.SMTPConfig{Host: "smtp.example.com"}, users)

	res := m.Send(context.Background(), EmailRequest{To: "to@example.com"})
	if !res.Sent {
		t.Fatalf("got %+v", res)
	}
	creds := (*seen)[0]
	if creds.Host != "smtp.lee.example" || creds.From != "Lee <lee@example.com>" {
		t.Fatalf("fallback user not used: %+v", creds)
	}
	if creds.Port != 587 {
		t.Fatalf("default port expected, got %d", creds.Port)
	}
}

func TestMailer_NothingConfigured(t *testing.T) {
	m, seen := recordingMailer(config.SMTPConfig{}, user.NewMemoryRepo())
	res := m.Send(context.Background(), EmailRequest{To: "to@example.com"})
	if res.Sent || res.Raw != "smtp not configured" {
		t.Fatalf("got %+v", res)
	}
	if len(*seen) != 0 {
		t.Fatalf("no transport call expected")
	}
}

func TestMailer_TransportErrorInResult(t *testing.T) {
	cfg := config.SMTPConfig{Host: "smtp.example.com", Port: 587, User: "sys@example.com", Pass: "pw"}
	m := NewMailer(cfg, nil, nil)
	m.sendFn = func(ctx context.Context, creds SMTPCredentials, req EmailRequest) error {
		return errors.New("connection refused")
	}
	res := m.Send(context.Background(), EmailRequest{To: "to@example.com"})
	if res.Sent || res.Raw != "connection refused" {
		t.Fatalf("got %+v", res)
	}
}
