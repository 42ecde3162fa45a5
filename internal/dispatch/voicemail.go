package dispatch

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	"outreach-platform/internal/config"
)

// VoicemailRequest is one ringless drop.
type VoicemailRequest struct {
	To         string
	AudioURL   string // mp3/wav/m4a URL; provider default is used when empty
	CallerID   string
	CampaignID string
	ScheduleAt string // provider date string; "now" when empty
	Note       string
}

// VoicemailResult reports what the drop provider did.
type VoicemailResult struct {
	Queued    bool   `json:"queued"`
	Provider  string `json:"provider"`
	SessionID string `json:"sessionId,omitempty"`
	Raw       string `json:"raw,omitempty"`
}

// VoicemailDropper queues ringless voicemail drops.
type VoicemailDropper interface {
	Drop(ctx context.Context, req VoicemailRequest) VoicemailResult
}

// NewVoicemailDropper returns the slybroadcast adapter, or a mock when a
// different provider is configured.
func NewVoicemailDropper(cfg config.VoicemailConfig, log *slog.Logger) VoicemailDropper {
	if cfg.Provider != "slybroadcast" {
		return MockVoicemailDropper{}
	}
	return NewSlybroadcast(cfg, nil, log)
}

// failurePattern is the gateway's error sniff: its legacy protocol answers
// 200 with a textual error, so the body has to be inspected.
var failurePattern = regexp.MustCompile(`(?i)error|invalid|fail`)

var sessionIDPattern = regexp.MustCompile(`(?i)^\s*OK\s+session_id=(\S+)`)

// Slybroadcast posts form-encoded drop requests to the gateway. It speaks
// the legacy protocol first and retries exactly once with the modern field
// set when the response smells like a failure.
type Slybroadcast struct {
	cfg  config.VoicemailConfig
	http *http.Client
	log  *slog.Logger
}

func NewSlybroadcast(cfg config.VoicemailConfig, httpClient *http.Client, log *slog.Logger) *Slybroadcast {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 60 * time.Second}
	}
	if log == nil {
		log = slog.Default()
	}
	return &Slybroadcast{cfg: cfg, http: httpClient, log: log}
}

func (s *Slybroadcast) Drop(ctx context.Context, req VoicemailRequest) VoicemailResult {
	if !s.cfg.Configured() {
		return VoicemailResult{Queued: false, Provider: "slybroadcast", Raw: "missing credentials"}
	}

	phone := NormalizePhone10(req.To)
	callerID := req.CallerID
	if callerID == "" {
		callerID = s.cfg.CallerID
	}
	callerID = NormalizePhone10(callerID)

	audioURL := req.AudioURL
	if audioURL == "" || strings.HasPrefix(audioURL, "data:") {
		audioURL = s.cfg.DefaultAudioURL
	}
	audioExt := audioExtension(audioURL)

	schedule := req.ScheduleAt
	if schedule == "" {
		schedule = "now"
	}

	legacy := url.Values{}
	legacy.Set("c_uid", s.cfg.Username)
	legacy.Set("c_password", s.cfg.Password)
	legacy.Set("c_url", audioURL)
	legacy.Set("c_audio", audioExt)
	legacy.Set("c_phone", phone)
	legacy.Set("c_callerID", callerID)
	legacy.Set("c_date", schedule)
	legacy.Set("c_title", req.CampaignID)
	if s.cfg.MobileOnly {
		legacy.Set("mobile_only", "1")
	}
	if s.cfg.DispoURL != "" {
		legacy.Set("c_dispo_url", s.cfg.DispoURL)
	}

	ok, body := s.post(ctx, legacy)
	if !ok {
		modern := url.Values{}
		modern.Set("campaign_id", req.CampaignID)
		modern.Set("caller_id", callerID)
		modern.Set("audio_url", audioURL)
		modern.Set("list", phone)
		modern.Set("s", "1")
		modern.Set("date", schedule)
		modern.Set("msg", req.Note)
		modern.Set("source", "api")
		modern.Set("method", "new")
		modern.Set("c_uid", s.cfg.Username)
		modern.Set("c_password", s.cfg.Password)

		ok, body = s.post(ctx, modern)
		if !ok {
			if body == "" {
				body = "no response"
			}
			return VoicemailResult{Queued: false, Provider: "slybroadcast", Raw: body}
		}
	}

	return parseDropResponse(body)
}

// post returns ok=false when the call failed or the body sniffs as an
// error, along with whatever body text there was.
func (s *Slybroadcast) post(ctx context.Context, form url.Values) (bool, string) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, s.cfg.BaseURL, strings.NewReader(form.Encode()))
	if err != nil {
		return false, err.Error()
	}
	httpReq.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := s.http.Do(httpReq)
	if err != nil {
		return false, err.Error()
	}
	defer resp.Body.Close()
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	body := string(raw)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return false, body
	}
	if body == "" || failurePattern.MatchString(body) {
		return false, body
	}
	return true, body
}

// parseDropResponse accepts the modern JSON body or the legacy
// "OK session_id=<id> ..." line.
func parseDropResponse(body string) VoicemailResult {
	var parsed struct {
		CampaignID any `json:"campaign_id"`
		ID         any `json:"id"`
	}
	if err := json.Unmarshal([]byte(body), &parsed); err == nil {
		id := anyToString(parsed.CampaignID)
		if id == "" {
			id = anyToString(parsed.ID)
		}
		return VoicemailResult{Queued: true, Provider: "slybroadcast", SessionID: id, Raw: body}
	}
	var id string
	if m := sessionIDPattern.FindStringSubmatch(body); m != nil {
		id = m[1]
	}
	return VoicemailResult{Queued: true, Provider: "slybroadcast", SessionID: id, Raw: body}
}

func audioExtension(audioURL string) string {
	lower := strings.ToLower(audioURL)
	switch {
	case strings.HasSuffix(lower, ".m4a"):
		return "m4a"
	case strings.HasSuffix(lower, ".wav"):
		return "wav"
	default:
		return "mp3"
	}
}

// MockVoicemailDropper is used when no real drop provider is selected.
type MockVoicemailDropper struct{}

func (MockVoicemailDropper) Drop(ctx context.Context, req VoicemailRequest) VoicemailResult {
	_ = ctx
	_ = req
	return VoicemailResult{Queued: false, Provider: "mock"}
}
