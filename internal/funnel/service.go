package funnel

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"
)

// CampaignDetacher severs the template reference on campaigns that were
// created from a template being deleted. Cloned campaign graphs are left
// untouched; only the pointer back to the template is cleared.
type CampaignDetacher interface {
	DetachTemplate(ctx context.Context, templateID string) error
}

// Service provides template CRUD, graph access, version snapshots and CSV
// interchange on top of the repositories.
type Service struct {
	templates TemplateRepository
	versions  VersionRepository
	store     Store
	detacher  CampaignDetacher

	// clock is injectable for deterministic tests.
	clock func() time.Time
}

func NewService(templates TemplateRepository, versions VersionRepository, store Store, detacher CampaignDetacher) *Service {
	return &Service{
		templates: templates,
		versions:  versions,
		store:     store,
		detacher:  detacher,
		clock:     time.Now,
	}
}

func (s *Service) CreateTemplate(ctx context.Context, name string) (Template, error) {
	if name == "" {
		return Template{}, ErrInvalidArgument
	}
	now := s.clock().UTC()
	t := Template{
		ID:        uuid.NewString(),
		Name:      name,
		Status:    "draft",
		Version:   1,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.templates.Create(ctx, t); err != nil {
		return Template{}, err
	}
	return t, nil
}

func (s *Service) GetTemplate(ctx context.Context, id string) (Template, error) {
	if id == "" {
		return Template{}, ErrInvalidArgument
	}
	return s.templates.Get(ctx, id)
}

func (s *Service) ListTemplates(ctx context.Context) ([]Template, error) {
	return s.templates.List(ctx)
}

// TemplatePatch carries the mutable template fields. Nil means unchanged.
type TemplatePatch struct {
	Name   *string `json:"name,omitempty"`
	Status *string `json:"status,omitempty"`
}

func (s *Service) UpdateTemplate(ctx context.Context, id string, patch TemplatePatch) (Template, error) {
	t, err := s.templates.Get(ctx, id)
	if err != nil {
		return Template{}, err
	}
	if patch.Name != nil {
		if *patch.Name == "" {
			return Template{}, ErrInvalidArgument
		}
		t.Name = *patch.Name
	}
	if patch.Status != nil {
		t.Status = *patch.Status
	}
	t.UpdatedAt = s.clock().UTC()
	if err := s.templates.Update(ctx, t); err != nil {
		return Template{}, err
	}
	return t, nil
}

// DeleteTemplate removes the template and its working graph. Campaigns that
// cloned it keep their private graphs and only lose the back-reference.
func (s *Service) DeleteTemplate(ctx context.Context, id string) error {
	if id == "" {
		return ErrInvalidArgument
	}
	if _, err := s.templates.Get(ctx, id); err != nil {
		return err
	}
	if s.detacher != nil {
		if err := s.detacher.DetachTemplate(ctx, id); err != nil {
			return err
		}
	}
	if err := s.store.DeleteGraph(ctx, TemplateScope(id)); err != nil {
		return err
	}
	return s.templates.Delete(ctx, id)
}

func (s *Service) GetGraph(ctx context.Context, scope Scope) (Graph, error) {
	return s.store.GetGraph(ctx, scope)
}

// SaveGraph validates and replaces the graph under scope.
func (s *Service) SaveGraph(ctx context.Context, scope Scope, g Graph) error {
	if err := validateGraph(g); err != nil {
		return err
	}
	if scope.Kind == ScopeTemplate {
		t, err := s.templates.Get(ctx, scope.ID)
		if err != nil {
			return err
		}
		t.Version++
		t.UpdatedAt = s.clock().UTC()
		if err := s.templates.Update(ctx, t); err != nil {
			return err
		}
	}
	return s.store.ReplaceGraph(ctx, scope, g)
}

func validateGraph(g Graph) error {
	seen := make(map[string]bool, len(g.Nodes))
	for _, n := range g.Nodes {
		if n.Key == "" {
			return fmt.Errorf("%w: node without id", ErrInvalidArgument)
		}
		if seen[n.Key] {
			return fmt.Errorf("%w: duplicate node id %q", ErrInvalidArgument, n.Key)
		}
		seen[n.Key] = true
	}
	for _, e := range g.Edges {
		if e.From == "" || e.To == "" {
			return fmt.Errorf("%w: edge with empty endpoint", ErrInvalidArgument)
		}
	}
	return nil
}

// CreateVersionRequest captures a snapshot of a graph. When CampaignID is
// set the campaign's cloned graph is snapshotted, otherwise the template's
// working copy.
type CreateVersionRequest struct {
	BaseTemplateID string `json:"baseTemplateId"`
	VersionName    string `json:"versionName"`
	Description    string `json:"description,omitempty"`
	CampaignID     string `json:"campaignId,omitempty"`
	CreatedBy      string `json:"createdBy,omitempty"`
}

func (s *Service) CreateVersion(ctx context.Context, req CreateVersionRequest) (Version, error) {
	if req.BaseTemplateID == "" || req.VersionName == "" {
		return Version{}, ErrInvalidArgument
	}
	if _, err := s.templates.Get(ctx, req.BaseTemplateID); err != nil {
		return Version{}, err
	}

	scope := TemplateScope(req.BaseTemplateID)
	if req.CampaignID != "" {
		scope = CampaignScope(req.CampaignID)
	}
	g, err := s.store.GetGraph(ctx, scope)
	if err != nil {
		return Version{}, err
	}

	nodes, err := json.Marshal(g.Nodes)
	if err != nil {
		return Version{}, err
	}
	edges, err := json.Marshal(g.Edges)
	if err != nil {
		return Version{}, err
	}

	v := Version{
		ID:             uuid.NewString(),
		BaseTemplateID: req.BaseTemplateID,
		VersionName:    req.VersionName,
		Description:    req.Description,
		CampaignID:     req.CampaignID,
		Nodes:          nodes,
		Edges:          edges,
		CreatedBy:      req.CreatedBy,
		CreatedAt:      s.clock().UTC(),
	}
	if err := s.versions.Create(ctx, v); err != nil {
		return Version{}, err
	}
	return v, nil
}

func (s *Service) GetVersion(ctx context.Context, id string) (Version, error) {
	if id == "" {
		return Version{}, ErrInvalidArgument
	}
	return s.versions.Get(ctx, id)
}

func (s *Service) ListVersions(ctx context.Context, baseTemplateID string) ([]VersionSummary, error) {
	if baseTemplateID == "" {
		return nil, ErrInvalidArgument
	}
	vs, err := s.versions.ListByTemplate(ctx, baseTemplateID)
	if err != nil {
		return nil, err
	}
	out := make([]VersionSummary, 0, len(vs))
	for _, v := range vs {
		out = append(out, VersionSummary{
			ID:             v.ID,
			BaseTemplateID: v.BaseTemplateID,
			VersionName:    v.VersionName,
			Description:    v.Description,
			CampaignID:     v.CampaignID,
			NodeCount:      countArray(v.Nodes),
			EdgeCount:      countArray(v.Edges),
			CreatedBy:      v.CreatedBy,
			CreatedAt:      v.CreatedAt,
		})
	}
	return out, nil
}

func (s *Service) DeleteVersion(ctx context.Context, id string) error {
	if id == "" {
		return ErrInvalidArgument
	}
	return s.versions.Delete(ctx, id)
}

func countArray(raw json.RawMessage) int {
	var arr []json.RawMessage
	if err := json.Unmarshal(raw, &arr); err != nil {
		return 0
	}
	return len(arr)
}

// ExportCSV streams the graph under scope in interchange format.
func (s *Service) ExportCSV(ctx context.Context, scope Scope, w io.Writer) error {
	g, err := s.store.GetGraph(ctx, scope)
	if err != nil {
		return err
	}
	return ExportCSV(w, g)
}

// ImportCSV replaces the graph under scope with the parsed file contents.
func (s *Service) ImportCSV(ctx context.Context, scope Scope, r io.Reader) (Graph, error) {
	g, err := ImportCSV(r)
	if err != nil {
		return Graph{}, err
	}
	if err := s.SaveGraph(ctx, scope, g); err != nil {
		return Graph{}, err
	}
	return g, nil
}
