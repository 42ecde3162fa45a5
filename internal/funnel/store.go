package funnel

import "context"

// ScopeKind selects which table family a graph lives in.
type ScopeKind string

const (
	ScopeTemplate ScopeKind = "template"
	ScopeCampaign ScopeKind = "campaign"
)

// Scope identifies one graph: a template's working copy or a campaign's
// private clone.
type Scope struct {
	Kind ScopeKind
	ID   string
}

func TemplateScope(id string) Scope { return Scope{Kind: ScopeTemplate, ID: id} }
func CampaignScope(id string) Scope { return Scope{Kind: ScopeCampaign, ID: id} }

func (s Scope) valid() bool {
	return s.ID != "" && (s.Kind == ScopeTemplate || s.Kind == ScopeCampaign)
}

// Store persists graphs per scope.
//
// ReplaceGraph is all-or-nothing: on error the previous graph is intact.
// CloneGraph copies by value; later edits to src never show through dst.
type Store interface {
	GetGraph(ctx context.Context, scope Scope) (Graph, error)
	ReplaceGraph(ctx context.Context, scope Scope, g Graph) error
	CloneGraph(ctx context.Context, src, dst Scope) error
	DeleteGraph(ctx context.Context, scope Scope) error
}
