package dispatch

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"outreach-platform/internal/config"
)

func slyConfig(baseURL string) config.VoicemailConfig {
	return config.VoicemailConfig{
		Provider: "slybroadcast",
		BaseURL:  baseURL,
		Username: "u@example.com",
		Password: "pw",
		CallerID: "+15550001111",
	}
}

func TestSlybroadcast_MissingCredentials(t *testing.T) {
	s := NewSlybroadcast(config.VoicemailConfig{Provider: "slybroadcast", BaseURL: "http://unused"}, nil, nil)
	res := s.Drop(context.Background(), VoicemailRequest{To: "5551234567"})
	if res.Queued || res.Provider != "slybroadcast" || res.Raw != "missing credentials" {
		t.Fatalf("got %+v", res)
	}
}

func TestNewVoicemailDropper_OtherProviderIsMock(t *testing.T) {
	d := NewVoicemailDropper(config.VoicemailConfig{Provider: "dropcowboy"}, nil)
	res := d.Drop(context.Background(), VoicemailRequest{To: "5551234567"})
	if res.Queued || res.Provider != "mock" {
		t.Fatalf("got %+v", res)
	}
}

func TestSlybroadcast_LegacySuccessParsesSessionID(t *testing.T) {
	var forms []url.Values
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = r.ParseForm()
		forms = append(forms, r.PostForm)
		_, _ = w.Write([]byte("OK session_id=123456 number of phone=1"))
	}))
	defer srv.Close()

	s := NewSlybroadcast(slyConfig(srv.URL), srv.Client(), nil)
	res := s.Drop(context.Background(), VoicemailRequest{
		To:         "+1 (555) 123-4567",
		AudioURL:   "https://cdn.example.com/drop.WAV",
		CampaignID: "camp-1",
	})
	if !res.Queued || res.SessionID != "123456" {
		t.Fatalf("got %+v", res)
	}
	if len(forms) != 1 {
		t.Fatalf("expected a single legacy attempt, got %d", len(forms))
	}
	f := forms[0]
	if f.Get("c_phone") != "5551234567" {
		t.Fatalf("c_phone = %q", f.Get("c_phone"))
	}
	if f.Get("c_audio") != "wav" {
		t.Fatalf("audio extension should be inferred, got %q", f.Get("c_audio"))
	}
	if f.Get("c_callerID") != "5550001111" {
		t.Fatalf("c_callerID = %q", f.Get("c_callerID"))
	}
	if f.Get("c_date") != "now" {
		t.Fatalf("c_date = %q", f.Get("c_date"))
	}
	if f.Get("c_title") != "camp-1" {
		t.Fatalf("c_title = %q", f.Get("c_title"))
	}
}

func TestSlybroadcast_LegacyErrorTriggersExactlyOneModernRetry(t *testing.T) {
	var forms []url.Values
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = r.ParseForm()
		forms = append(forms, r.PostForm)
		if len(forms) == 1 {
			// 200 with a textual error: the sniff must catch this.
			_, _ = w.Write([]byte("ERROR invalid credentials format"))
			return
		}
		_, _ = w.Write([]byte(`{"campaign_id":"987"}`))
	}))
	defer srv.Close()

	s := NewSlybroadcast(slyConfig(srv.URL), srv.Client(), nil)
	res := s.Drop(context.Background(), VoicemailRequest{To: "5551234567", AudioURL: "https://cdn.example.com/a.mp3", Note: "evening drop"})
	if !res.Queued || res.SessionID != "987" {
		t.Fatalf("got %+v", res)
	}
	if len(forms) != 2 {
		t.Fatalf("expected exactly one retry, got %d attempts", len(forms))
	}
	modern := forms[1]
	if modern.Get("audio_url") != "https://cdn.example.com/a.mp3" || modern.Get("list") != "5551234567" {
		t.Fatalf("modern form wrong: %v", modern)
	}
	if modern.Get("method") != "new" || modern.Get("source") != "api" {
		t.Fatalf("modern form wrong: %v", modern)
	}
	if modern.Get("msg") != "evening drop" {
		t.Fatalf("msg = %q", modern.Get("msg"))
	}
}

func TestSlybroadcast_BothAttemptsFailing(t *testing.T) {
	hits := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	s := NewSlybroadcast(slyConfig(srv.URL), srv.Client(), nil)
	res := s.Drop(context.Background(), VoicemailRequest{To: "5551234567"})
	if res.Queued {
		t.Fatalf("got %+v", res)
	}
	if hits != 2 {
		t.Fatalf("expected two attempts then stop, got %d", hits)
	}
	if res.Raw != "no response" {
		t.Fatalf("empty failure body should report no response, got %q", res.Raw)
	}
}

func TestSlybroadcast_DefaultAudioWhenMissing(t *testing.T) {
	var got url.Values
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = r.ParseForm()
		got = r.PostForm
		_, _ = w.Write([]byte("OK session_id=1"))
	}))
	defer srv.Close()

	cfg := slyConfig(srv.URL)
	cfg.DefaultAudioURL = "https://cdn.example.com/default.m4a"
	s := NewSlybroadcast(cfg, srv.Client(), nil)

	res := s.Drop(context.Background(), VoicemailRequest{To: "5551234567"})
	if !res.Queued {
		t.Fatalf("got %+v", res)
	}
	if got.Get("c_url") != cfg.DefaultAudioURL || got.Get("c_audio") != "m4a" {
		t.Fatalf("default audio not used: %v", got)
	}
}
