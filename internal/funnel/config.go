package funnel

import (
	"bytes"
	"encoding/json"
)

// MessageContent is the inline content form used by message nodes when no
// template reference is present.
type MessageContent struct {
	Subject string `json:"subject,omitempty"`
	Body    string `json:"body,omitempty"`
	Text    string `json:"text,omitempty"`
}

// TTSSpec configures synthesized audio for voicemail nodes.
type TTSSpec struct {
	CustomScript string `json:"custom_script,omitempty"`
	VoiceID      string `json:"voice_id,omitempty"`
	ModelID      string `json:"model_id,omitempty"`
}

// NodeConfig is the per-type payload of a node. Only the fields the engine
// reads are decoded; the original JSON is retained so unknown fields and
// unknown node types survive a load/store round trip byte-for-byte.
type NodeConfig struct {
	TemplateID string          `json:"template_id,omitempty"`
	Content    *MessageContent `json:"content,omitempty"`
	Text       string          `json:"text,omitempty"`
	Message    string          `json:"message,omitempty"`
	TTS        *TTSSpec        `json:"tts,omitempty"`
	Rules      json.RawMessage `json:"rules,omitempty"`

	raw json.RawMessage
}

// NewNodeConfig decodes b into a NodeConfig, retaining b verbatim.
func NewNodeConfig(b []byte) (NodeConfig, error) {
	var c NodeConfig
	if len(b) == 0 {
		return c, nil
	}
	if err := c.UnmarshalJSON(b); err != nil {
		return NodeConfig{}, err
	}
	return c, nil
}

// IsZero reports whether the config carries nothing.
func (c NodeConfig) IsZero() bool {
	return len(c.raw) == 0 && c.TemplateID == "" && c.Content == nil &&
		c.Text == "" && c.Message == "" && c.TTS == nil && len(c.Rules) == 0
}

// Raw returns the stored JSON form, or a fresh encoding of the decoded
// fields when the config was built in code.
func (c NodeConfig) Raw() json.RawMessage {
	if len(c.raw) > 0 {
		return c.raw
	}
	if c.IsZero() {
		return nil
	}
	b, err := json.Marshal(nodeConfigFields(c))
	if err != nil {
		return nil
	}
	return b
}

type nodeConfigFields NodeConfig

func (c *NodeConfig) UnmarshalJSON(b []byte) error {
	trimmed := bytes.TrimSpace(b)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		*c = NodeConfig{}
		return nil
	}
	var fields nodeConfigFields
	if err := json.Unmarshal(trimmed, &fields); err != nil {
		return err
	}
	*c = NodeConfig(fields)
	c.raw = append(json.RawMessage(nil), trimmed...)
	return nil
}

func (c NodeConfig) MarshalJSON() ([]byte, error) {
	if raw := c.Raw(); raw != nil {
		return raw, nil
	}
	return []byte("{}"), nil
}
