package dispatch

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"

	"outreach-platform/internal/config"
)

// SMSRequest is one outbound text.
type SMSRequest struct {
	To         string
	Text       string
	FromNumber string // optional per-sender override
}

// SMSResult reports what a provider did. Sent=false with Provider="mock"
// means no provider was configured at all.
type SMSResult struct {
	Sent     bool   `json:"sent"`
	Provider string `json:"provider"`
	SID      string `json:"sid,omitempty"`
	Raw      string `json:"raw,omitempty"`
}

// SMSProvider is one link in the send chain. The first configured provider
// handles the request and is terminal: its failure is the final answer,
// never a reason to try the next link.
type SMSProvider interface {
	Name() string
	Configured() bool
	Send(ctx context.Context, req SMSRequest) SMSResult
}

// SMSSender walks an ordered provider chain.
type SMSSender struct {
	providers []SMSProvider
}

// NewSMSSender builds the chain for the selected provider. Selecting bonzo
// keeps twilio behind it for the unconfigured case; the mock terminal means
// Send always produces a result.
func NewSMSSender(cfg config.SMSConfig, log *slog.Logger) *SMSSender {
	if log == nil {
		log = slog.Default()
	}
	httpClient := &http.Client{Timeout: 30 * time.Second}

	bonzo := &BonzoProvider{cfg: cfg.Bonzo, http: httpClient, log: log}
	twilio := &TwilioProvider{cfg: cfg.Twilio, http: httpClient, log: log}
	mock := MockSMSProvider{}

	var chain []SMSProvider
	switch cfg.Provider {
	case "bonzo":
		chain = []SMSProvider{bonzo, twilio, mock}
	case "mock":
		chain = []SMSProvider{mock}
	default: // "twilio" and unset
		chain = []SMSProvider{twilio, mock}
	}
	return &SMSSender{providers: chain}
}

// NewSMSSenderFromProviders is the test seam.
func NewSMSSenderFromProviders(providers ...SMSProvider) *SMSSender {
	return &SMSSender{providers: providers}
}

func (s *SMSSender) Send(ctx context.Context, req SMSRequest) SMSResult {
	req.To = NormalizeE164BestEffort(req.To)
	for _, p := range s.providers {
		if !p.Configured() {
			continue
		}
		return p.Send(ctx, req)
	}
	return SMSResult{Sent: false, Provider: "mock"}
}

var (
	v3PathPattern    = regexp.MustCompile(`/v3(/|$)`)
	bonzoHostPattern = regexp.MustCompile(`(?i)^https?://app\.getbonzo\.com(/|$)`)
	apiPathPattern   = regexp.MustCompile(`(?i)/api(/|$)`)
)

// BonzoProvider posts to the bonzo send endpoint. The v3 API wants a
// different payload shape and lives under /api on the app host, so both
// are derived from the configured send path.
type BonzoProvider struct {
	cfg  config.BonzoConfig
	http *http.Client
	log  *slog.Logger
}

func NewBonzoProvider(cfg config.BonzoConfig, httpClient *http.Client, log *slog.Logger) *BonzoProvider {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	if log == nil {
		log = slog.Default()
	}
	return &BonzoProvider{cfg: cfg, http: httpClient, log: log}
}

func (p *BonzoProvider) Name() string     { return "bonzo" }
func (p *BonzoProvider) Configured() bool { return p.cfg.Configured() }

func (p *BonzoProvider) Send(ctx context.Context, req SMSRequest) SMSResult {
	base := strings.TrimRight(p.cfg.BaseURL, "/")
	isV3 := v3PathPattern.MatchString(p.cfg.SendPath)
	if isV3 && bonzoHostPattern.MatchString(base) && !apiPathPattern.MatchString(base) {
		base += "/api"
	}
	endpoint := base + p.cfg.SendPath

	var payload map[string]any
	if isV3 {
		sendAs := p.cfg.SendAs
		if sendAs == "" {
			sendAs = "owner"
		}
		payload = map[string]any{
			"first_name": "Contact",
			"phone":      req.To,
			"message":    req.Text,
			"send_as":    sendAs,
		}
	} else {
		payload = map[string]any{
			"to":      req.To,
			"message": req.Text,
			"text":    req.Text,
		}
		from := req.FromNumber
		if from == "" {
			from = p.cfg.FromNumber
		}
		if from != "" {
			payload["from"] = from
		}
		if p.cfg.SendAs != "" {
			payload["send_as"] = p.cfg.SendAs
		}
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return SMSResult{Sent: false, Provider: "bonzo", Raw: err.Error()}
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return SMSResult{Sent: false, Provider: "bonzo", Raw: err.Error()}
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")
	if p.cfg.AuthHeader != "" {
		val := p.cfg.APIKey
		if p.cfg.AuthScheme != "" {
			val = p.cfg.AuthScheme + " " + p.cfg.APIKey
		}
		httpReq.Header.Set(p.cfg.AuthHeader, val)
	}
	if p.cfg.OnBehalfOf != "" {
		httpReq.Header.Set("On-Behalf-Of", p.cfg.OnBehalfOf)
	}

	resp, err := p.http.Do(httpReq)
	if err != nil {
		return SMSResult{Sent: false, Provider: "bonzo", Raw: err.Error()}
	}
	defer resp.Body.Close()
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		p.log.Error("bonzo send failed", "status", resp.StatusCode, "url", endpoint, "raw", string(raw))
		return SMSResult{Sent: false, Provider: "bonzo", Raw: string(raw)}
	}
	return SMSResult{Sent: true, Provider: "bonzo", SID: extractSID(raw), Raw: string(raw)}
}

// extractSID digs id/sid/data.id out of a provider response; ids may come
// back as strings or numbers.
func extractSID(raw []byte) string {
	var parsed struct {
		ID   any `json:"id"`
		SID  any `json:"sid"`
		Data struct {
			ID any `json:"id"`
		} `json:"data"`
	}
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return ""
	}
	for _, v := range []any{parsed.ID, parsed.SID, parsed.Data.ID} {
		if s := anyToString(v); s != "" {
			return s
		}
	}
	return ""
}

func anyToString(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	default:
		return fmt.Sprintf("%v", t)
	}
}

const twilioAPIBase = "https://api.twilio.com"

// TwilioProvider sends through the Messages REST API with basic auth.
type TwilioProvider struct {
	cfg  config.TwilioConfig
	http *http.Client
	log  *slog.Logger

	// BaseURL overrides the twilio API host in tests.
	BaseURL string
}

func NewTwilioProvider(cfg config.TwilioConfig, httpClient *http.Client, log *slog.Logger) *TwilioProvider {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	if log == nil {
		log = slog.Default()
	}
	return &TwilioProvider{cfg: cfg, http: httpClient, log: log}
}

func (p *TwilioProvider) Name() string     { return "twilio" }
func (p *TwilioProvider) Configured() bool { return p.cfg.Configured() }

func (p *TwilioProvider) Send(ctx context.Context, req SMSRequest) SMSResult {
	base := p.BaseURL
	if base == "" {
		base = twilioAPIBase
	}
	endpoint := fmt.Sprintf("%s/2010-04-01/Accounts/%s/Messages.json", strings.TrimRight(base, "/"), p.cfg.AccountSID)

	form := url.Values{}
	form.Set("To", req.To)
	form.Set("Body", req.Text)
	if p.cfg.MessagingServiceSID != "" {
		form.Set("MessagingServiceSid", p.cfg.MessagingServiceSID)
	} else {
		from := p.cfg.FromNumber
		if req.FromNumber != "" {
			from = NormalizeE164BestEffort(req.FromNumber)
		}
		form.Set("From", from)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return SMSResult{Sent: false, Provider: "twilio", Raw: err.Error()}
	}
	httpReq.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	httpReq.SetBasicAuth(p.cfg.AccountSID, p.cfg.AuthToken)

	resp, err := p.http.Do(httpReq)
	if err != nil {
		return SMSResult{Sent: false, Provider: "twilio", Raw: err.Error()}
	}
	defer resp.Body.Close()
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		p.log.Error("twilio send failed", "status", resp.StatusCode, "raw", string(raw))
		return SMSResult{Sent: false, Provider: "twilio", Raw: string(raw)}
	}
	return SMSResult{Sent: true, Provider: "twilio", SID: extractSID(raw), Raw: string(raw)}
}

// MockSMSProvider is the terminal link: always configured, never sends.
type MockSMSProvider struct{}

func (MockSMSProvider) Name() string     { return "mock" }
func (MockSMSProvider) Configured() bool { return true }

func (MockSMSProvider) Send(ctx context.Context, req SMSRequest) SMSResult {
	_ = ctx
	_ = req
	return SMSResult{Sent: false, Provider: "mock"}
}
