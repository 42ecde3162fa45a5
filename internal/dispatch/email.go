package dispatch

import (
	"context"
	"errors"
	"log/slog"

	"outreach-platform/internal/config"
	"outreach-platform/internal/user"

	"github.com/wneessen/go-mail"
)

// EmailRequest is one outbound plain-text email. SenderUserID selects that
// user's personal SMTP credentials when they are complete.
type EmailRequest struct {
	To           string
	Subject      string
	Body         string
	SenderUserID string
}

// EmailResult reports what the mailer did.
type EmailResult struct {
	Sent     bool   `json:"sent"`
	Provider string `json:"provider"`
	From     string `json:"from,omitempty"`
	Raw      string `json:"raw,omitempty"`
}

// SMTPCredentials is a resolved sending identity.
type SMTPCredentials struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
	Secure   bool
}

// Mailer resolves credentials and sends. Resolution order: the sender
// user's own complete settings, then process defaults, then any stored
// user with complete settings when the defaults can't send.
type Mailer struct {
	cfg   config.SMTPConfig
	users user.Repository
	log   *slog.Logger

	// sendFn is the transport seam; tests swap it for a recorder.
	sendFn func(ctx context.Context, creds SMTPCredentials, req EmailRequest) error
}

func NewMailer(cfg config.SMTPConfig, users user.Repository, log *slog.Logger) *Mailer {
	if log == nil {
		log = slog.Default()
	}
	m := &Mailer{cfg: cfg, users: users, log: log}
	m.sendFn = m.smtpSend
	return m
}

func (m *Mailer) Send(ctx context.Context, req EmailRequest) EmailResult {
	if req.To == "" {
		return EmailResult{Sent: false, Provider: "smtp", Raw: "missing recipient"}
	}
	creds, ok := m.resolveCredentials(ctx, req.SenderUserID)
	if !ok {
		return EmailResult{Sent: false, Provider: "smtp", Raw: "smtp not configured"}
	}
	if err := m.sendFn(ctx, creds, req); err != nil {
		m.log.Error("email send failed", "to", req.To, "host", creds.Host, "error", err)
		return EmailResult{Sent: false, Provider: "smtp", From: creds.From, Raw: err.Error()}
	}
	return EmailResult{Sent: true, Provider: "smtp", From: creds.From}
}

func (m *Mailer) resolveCredentials(ctx context.Context, senderUserID string) (SMTPCredentials, bool) {
	if senderUserID != "" && m.users != nil {
		u, err := m.users.Get(ctx, senderUserID)
		if err != nil && !errors.Is(err, user.ErrNotFound) {
			m.log.Warn("sender user lookup failed", "user_id", senderUserID, "error", err)
		}
		if err == nil && u.SMTP.Complete() {
			return fromUserSettings(u), true
		}
	}

	if m.cfg.Configured() {
		return SMTPCredentials{
			Host:     m.cfg.Host,
			Port:     m.cfg.Port,
			Username: m.cfg.User,
			Password: m.cfg.Pass,
			From:     m.cfg.User,
			Secure:   m.cfg.Secure,
		}, true
	}

	if m.users != nil {
		u, err := m.users.FindAnySMTPFallback(ctx)
		if err == nil {
			return fromUserSettings(u), true
		}
	}
	return SMTPCredentials{}, false
}

func fromUserSettings(u user.User) SMTPCredentials {
	from := u.SMTP.From
	if from == "" {
		from = u.SMTP.Username
	}
	port := u.SMTP.Port
	if port == 0 {
		port = 587
	}
	return SMTPCredentials{
		Host:     u.SMTP.Host,
		Port:     port,
		Username: u.SMTP.Username,
		Password: u.SMTP.Password,
		From:     from,
		Secure:   u.SMTP.Secure || port == 465,
	}
}

func (m *Mailer) smtpSend(ctx context.Context, creds SMTPCredentials, req EmailRequest) error {
	opts := []mail.Option{
		mail.WithPort(creds.Port),
		mail.WithSMTPAuth(mail.SMTPAuthPlain),
		mail.WithUsername(creds.Username),
		mail.WithPassword(creds.Password),
	}
	if creds.Secure {
		opts = append(opts, mail.WithSSL())
	}
	client, err := mail.NewClient(creds.Host, opts...)
	if err != nil {
		return err
	}

	msg := mail.NewMsg()
	if err := msg.From(creds.From); err != nil {
		return err
	}
	if err := msg.To(req.To); err != nil {
		return err
	}
	msg.Subject(req.Subject)
	msg.SetBodyString(mail.TypeTextPlain, req.Body)

	return client.DialAndSendWithContext(ctx, msg)
}
