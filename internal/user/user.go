// Package user stores operator accounts: login credentials, role, and the
// per-user sending identities (SMS from number, voicemail caller id, SMTP
// overrides).
package user

import (
	"context"
	"errors"
	"time"
)

var (
	ErrNotFound        = errors.New("not found")
	ErrInvalidArgument = errors.New("invalid argument")
)

// SMTPSettings are a user's personal outbound email credentials. Any field
// may be empty; Complete reports whether they can actually send.
type SMTPSettings struct {
	Host     string `json:"host,omitempty"`
	Port     int    `json:"port,omitempty"`
	Username string `json:"username,omitempty"`
	Password string `json:"-"`
	From     string `json:"from,omitempty"`
	Secure   bool   `json:"secure,omitempty"`
}

func (s SMTPSettings) Complete() bool {
	return s.Host != "" && s.Username != "" && s.Password != ""
}

// User is an operator account.
type User struct {
	ID            string       `json:"id"`
	Name          string       `json:"name"`
	Email         string       `json:"email"`
	Role          string       `json:"role"`
	PasswordHash  string       `json:"-"`
	SMSFromNumber string       `json:"smsFromNumber,omitempty"`
	VMCallerID    string       `json:"vmCallerId,omitempty"`
	SMTP          SMTPSettings `json:"smtp,omitempty"`
	CreatedAt     time.Time    `json:"createdAt"`
}

// Repository stores users.
//
// FindAnySMTPFallback returns some user with complete SMTP settings; the
// mailer uses it when process defaults are incomplete and no explicit
// override was given.
type Repository interface {
	Create(ctx context.Context, u User) error
	Get(ctx context.Context, id string) (User, error)
	GetByEmail(ctx context.Context, email string) (User, error)
	List(ctx context.Context) ([]User, error)
	FindAnySMTPFallback(ctx context.Context) (User, error)
}
