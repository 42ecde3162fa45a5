// Package funnel holds the outreach graph model: typed nodes joined by
// conditional edges, stored per template or per campaign, with CSV
// interchange and immutable version snapshots.
package funnel

import (
	"encoding/json"
	"errors"
	"time"
)

var (
	ErrNotFound        = errors.New("not found")
	ErrInvalidArgument = errors.New("invalid argument")
)

// NodeType classifies a graph node. Unknown values coming from imports are
// preserved as-is; only the dispatch engine cares about the channel types.
type NodeType string

const (
	NodeEmailSend     NodeType = "email_send"
	NodeSMSSend       NodeType = "sms_send"
	NodeVoicemailDrop NodeType = "voicemail_drop"
	NodeDecision      NodeType = "decision"
	NodeWait          NodeType = "wait"
	NodeTask          NodeType = "task"
	NodeWebRequest    NodeType = "web_request"
	NodeStage         NodeType = "stage"
	NodeESign         NodeType = "esign"
	NodeGoal          NodeType = "goal"
	NodeExit          NodeType = "exit"
)

// Position is the editor coordinate of a node. Stored, never interpreted.
type Position struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Node is one step in a funnel. Key is the author-assigned identifier used
// by edges; storage ids are an implementation detail of each store.
type Node struct {
	Key    string     `json:"id"`
	Type   NodeType   `json:"type"`
	Name   string     `json:"name"`
	Config NodeConfig `json:"config"`
	Pos    Position   `json:"position"`
}

// Edge connects two nodes by key. Condition is persisted verbatim and left
// to future evaluation; it never influences dispatch today.
type Edge struct {
	From      string          `json:"from"`
	To        string          `json:"to"`
	Condition json.RawMessage `json:"condition,omitempty"`
}

// Graph is a complete funnel: the unit of replace, clone and snapshot.
type Graph struct {
	Nodes []Node `json:"nodes"`
	Edges []Edge `json:"edges"`
}

// Template is the authored funnel a campaign clones from.
type Template struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Status    string    `json:"status"`
	Version   int       `json:"version"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Version is an immutable snapshot of a graph taken at a point in time,
// optionally tied to the campaign it was captured from.
type Version struct {
	ID             string          `json:"id"`
	BaseTemplateID string          `json:"baseTemplateId"`
	VersionName    string          `json:"versionName"`
	Description    string          `json:"description,omitempty"`
	CampaignID     string          `json:"campaignId,omitempty"`
	Nodes          json.RawMessage `json:"nodes"`
	Edges          json.RawMessage `json:"edges"`
	CreatedBy      string          `json:"createdBy,omitempty"`
	CreatedAt      time.Time       `json:"createdAt"`
}

// VersionSummary is the list shape: metadata plus node/edge counts instead
// of the full snapshot payload.
type VersionSummary struct {
	ID             string    `json:"id"`
	BaseTemplateID string    `json:"baseTemplateId"`
	VersionName    string    `json:"versionName"`
	Description    string    `json:"description,omitempty"`
	CampaignID     string    `json:"campaignId,omitempty"`
	NodeCount      int       `json:"nodeCount"`
	EdgeCount      int       `json:"edgeCount"`
	CreatedBy      string    `json:"createdBy,omitempty"`
	CreatedAt      time.Time `json:"createdAt"`
}
