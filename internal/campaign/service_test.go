package campaign

import (
	"context"
	"errors"
	"testing"
	"time"

	"outreach-platform/internal/funnel"
)

func seedTemplateGraph(t *testing.T, store funnel.Store, templateID string) funnel.Graph {
	t.Helper()
	g := funnel.Graph{
		Nodes: []funnel.Node{
			{Key: "n1", Type: funnel.NodeSMSSend, Name: "Intro"},
			{Key: "n2", Type: funnel.NodeGoal, Name: "Done"},
		},
		Edges: []funnel.Edge{{From: "n1", To: "n2"}},
	}
	if err := store.ReplaceGraph(context.Background(), funnel.TemplateScope(templateID), g); err != nil {
		t.Fatalf("seed graph: %v", err)
	}
	return g
}

func TestCreate_ClonesTemplateGraph(t *testing.T) {
	ctx := context.Background()
	store := funnel.NewMemoryStore()
	s := NewService(NewMemoryRepo(), store)
	seedTemplateGraph(t, store, "tpl-1")

	c, err := s.Create(ctx, CreateRequest{Name: "Dallas Event", TemplateID: "tpl-1"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if c.Status != StatusDraft {
		t.Fatalf("new campaign should be draft, got %q", c.Status)
	}

	got, err := store.GetGraph(ctx, funnel.CampaignScope(c.ID))
	if err != nil {
		t.Fatalf("get clone: %v", err)
	}
	if len(got.Nodes) != 2 || len(got.Edges) != 1 {
		t.Fatalf("graph not cloned: %+v", got)
	}

	// Clone independence: a template edit after the clone stays invisible.
	if err := store.ReplaceGraph(ctx, funnel.TemplateScope("tpl-1"), funnel.Graph{}); err != nil {
		t.Fatalf("wipe template: %v", err)
	}
	got, _ = store.GetGraph(ctx, funnel.CampaignScope(c.ID))
	if len(got.Nodes) != 2 {
		t.Fatalf("campaign graph changed with template: %+v", got)
	}
}

func TestUpdate_ImportGraphReclones(t *testing.T) {
	ctx := context.Background()
	store := funnel.NewMemoryStore()
	s := NewService(NewMemoryRepo(), store)
	seedTemplateGraph(t, store, "tpl-1")

	c, err := s.Create(ctx, CreateRequest{Name: "C", TemplateID: "tpl-1"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	// Template grows a node; campaign only sees it after importGraph.
	bigger := funnel.Graph{Nodes: []funnel.Node{{Key: "a"}, {Key: "b"}, {Key: "c"}}}
	if err := store.ReplaceGraph(ctx, funnel.TemplateScope("tpl-1"), bigger); err != nil {
		t.Fatalf("grow template: %v", err)
	}
	g, _ := store.GetGraph(ctx, funnel.CampaignScope(c.ID))
	if len(g.Nodes) != 2 {
		t.Fatalf("campaign should still have old graph, got %d nodes", len(g.Nodes))
	}

	if _, err := s.Update(ctx, c.ID, Patch{ImportGraph: true}); err != nil {
		t.Fatalf("update: %v", err)
	}
	g, _ = store.GetGraph(ctx, funnel.CampaignScope(c.ID))
	if len(g.Nodes) != 3 {
		t.Fatalf("importGraph should replace the campaign graph, got %d nodes", len(g.Nodes))
	}
}

func TestUpdate_ImportGraphWithoutTemplateFails(t *testing.T) {
	ctx := context.Background()
	s := NewService(NewMemoryRepo(), funnel.NewMemoryStore())
	c, err := s.Create(ctx, CreateRequest{Name: "No Template"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := s.Update(ctx, c.ID, Patch{ImportGraph: true}); !errors.Is(err, ErrInvalidArgument) {
		t.Fatalf("expected ErrInvalidArgument, got %v", err)
	}
}

func TestUpdate_RejectsUnknownStatus(t *testing.T) {
	ctx := context.Background()
	s := NewService(NewMemoryRepo(), funnel.NewMemoryStore())
	c, _ := s.Create(ctx, CreateRequest{Name: "C"})

	bad := "launched"
	if _, err := s.Update(ctx, c.ID, Patch{Status: &bad}); !errors.Is(err, ErrInvalidArgument) {
		t.Fatalf("expected ErrInvalidArgument, got %v", err)
	}
	good := StatusActive
	if _, err := s.Update(ctx, c.ID, Patch{Status: &good}); err != nil {
		t.Fatalf("valid status rejected: %v", err)
	}
}

func TestMergeContext(t *testing.T) {
	event := time.Date(2026, 9, 15, 18, 30, 0, 0, time.UTC)
	c := Campaign{
		Name:      "Fall Tour",
		OwnerName: "Pat Smith",
		EventDate: &event,
		HotelName: "The Grand",
		Status:    StatusActive,
	}
	m := c.MergeContext()
	if m["owner_name"] != "Pat Smith" || m["hotel_name"] != "The Grand" {
		t.Fatalf("snake_case keys missing: %v", m)
	}
	if m["event_date"] != "2026-09-15" {
		t.Fatalf("event_date should be ISO date, got %v", m["event_date"])
	}
	if m["launch_date"] != "" {
		t.Fatalf("unset date should be empty string, got %v", m["launch_date"])
	}
}
