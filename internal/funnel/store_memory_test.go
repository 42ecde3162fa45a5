package funnel

import (
	"context"
	"testing"
)

func TestMemoryStore_GetMissingScopeIsEmptyGraph(t *testing.T) {
	s := NewMemoryStore()
	g, err := s.GetGraph(context.Background(), TemplateScope("none"))
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if len(g.Nodes) != 0 || len(g.Edges) != 0 {
		t.Fatalf("expected empty graph, got %+v", g)
	}
}

func TestMemoryStore_CloneIsByValue(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	src := TemplateScope("tpl-1")
	dst := CampaignScope("camp-1")

	orig := Graph{
		Nodes: []Node{{Key: "n1", Type: NodeSMSSend, Name: "Intro"}},
		Edges: []Edge{{From: "n1", To: "n1"}},
	}
	if err := s.ReplaceGraph(ctx, src, orig); err != nil {
		t.Fatalf("replace: %v", err)
	}
	if err := s.CloneGraph(ctx, src, dst); err != nil {
		t.Fatalf("clone: %v", err)
	}

	// Editing the template after the clone must not leak into the campaign.
	edited := Graph{Nodes: []Node{{Key: "other", Type: NodeWait, Name: "Changed"}}}
	if err := s.ReplaceGraph(ctx, src, edited); err != nil {
		t.Fatalf("replace after clone: %v", err)
	}

	got, err := s.GetGraph(ctx, dst)
	if err != nil {
		t.Fatalf("get clone: %v", err)
	}
	if len(got.Nodes) != 1 || got.Nodes[0].Key != "n1" || got.Nodes[0].Name != "Intro" {
		t.Fatalf("clone changed with source: %+v", got)
	}
}

func TestMemoryStore_ScopesAreIndependent(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	// Same id under different kinds must not collide.
	if err := s.ReplaceGraph(ctx, TemplateScope("x"), Graph{Nodes: []Node{{Key: "t"}}}); err != nil {
		t.Fatalf("replace template: %v", err)
	}
	if err := s.ReplaceGraph(ctx, CampaignScope("x"), Graph{Nodes: []Node{{Key: "c"}}}); err != nil {
		t.Fatalf("replace campaign: %v", err)
	}

	tg, _ := s.GetGraph(ctx, TemplateScope("x"))
	cg, _ := s.GetGraph(ctx, CampaignScope("x"))
	if tg.Nodes[0].Key != "t" || cg.Nodes[0].Key != "c" {
		t.Fatalf("scope collision: template=%+v campaign=%+v", tg, cg)
	}
}

func TestMemoryStore_Delete(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	scope := TemplateScope("tpl")
	if err := s.ReplaceGraph(ctx, scope, Graph{Nodes: []Node{{Key: "n"}}}); err != nil {
		t.Fatalf("replace: %v", err)
	}
	if err := s.DeleteGraph(ctx, scope); err != nil {
		t.Fatalf("delete: %v", err)
	}
	g, err := s.GetGraph(ctx, scope)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if len(g.Nodes) != 0 {
		t.Fatalf("expected empty after delete, got %+v", g)
	}
}
