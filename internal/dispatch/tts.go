package dispatch

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"outreach-platform/internal/config"
)

// TTSRequest is one synthesis call. VoiceID and ModelID override the
// configured defaults when set (voicemail nodes may pin a voice).
type TTSRequest struct {
	Script  string
	VoiceID string
	ModelID string
}

// TTSResult carries the synthesized MP3. OK=false with a reason means the
// synthesizer is unavailable or refused; it is not an error.
type TTSResult struct {
	OK    bool
	Audio []byte
	Raw   string
}

// Synthesizer turns a script into MP3 audio.
type Synthesizer interface {
	Synthesize(ctx context.Context, req TTSRequest) TTSResult
}

// ElevenLabs calls the text-to-speech endpoint and returns raw MP3 bytes.
type ElevenLabs struct {
	cfg  config.TTSConfig
	http *http.Client
	log  *slog.Logger
}

func NewElevenLabs(cfg config.TTSConfig, httpClient *http.Client, log *slog.Logger) *ElevenLabs {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 120 * time.Second}
	}
	if log == nil {
		log = slog.Default()
	}
	return &ElevenLabs{cfg: cfg, http: httpClient, log: log}
}

func (e *ElevenLabs) Synthesize(ctx context.Context, req TTSRequest) TTSResult {
	voiceID := req.VoiceID
	if voiceID == "" {
		voiceID = e.cfg.VoiceID
	}
	if e.cfg.APIKey == "" || voiceID == "" {
		return TTSResult{OK: false, Raw: "missing ELEVENLABS_API_KEY or ELEVENLABS_VOICE_ID"}
	}
	modelID := req.ModelID
	if modelID == "" {
		modelID = e.cfg.ModelID
	}
	if modelID == "" {
		modelID = "eleven_multilingual_v2"
	}

	payload := map[string]any{
		"text":     req.Script,
		"model_id": modelID,
		"voice_settings": map[string]any{
			"stability":        0.5,
			"similarity_boost": 0.75,
		},
		"output_format": "mp3_44100_128",
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return TTSResult{OK: false, Raw: err.Error()}
	}

	endpoint := fmt.Sprintf("%s/text-to-speech/%s", strings.TrimRight(e.cfg.BaseURL, "/"), voiceID)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return TTSResult{OK: false, Raw: err.Error()}
	}
	httpReq.Header.Set("xi-api-key", e.cfg.APIKey)
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "audio/mpeg")

	resp, err := e.http.Do(httpReq)
	if err != nil {
		return TTSResult{OK: false, Raw: err.Error()}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
		e.log.Warn("tts synthesis failed", "status", resp.StatusCode, "raw", string(raw))
		return TTSResult{OK: false, Raw: string(raw)}
	}

	audio, err := io.ReadAll(resp.Body)
	if err != nil {
		return TTSResult{OK: false, Raw: err.Error()}
	}
	return TTSResult{OK: true, Audio: audio}
}
