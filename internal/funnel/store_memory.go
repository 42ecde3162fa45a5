package funnel

import (
	"context"
	"encoding/json"
	"sync"
)

// MemoryStore keeps graphs in a map keyed by scope. Used by tests and
// local development without Postgres.
type MemoryStore struct {
	mu     sync.RWMutex
	graphs map[Scope]Graph
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{graphs: make(map[Scope]Graph)}
}

func (s *MemoryStore) GetGraph(ctx context.Context, scope Scope) (Graph, error) {
	_ = ctx
	if !scope.valid() {
		return Graph{}, ErrInvalidArgument
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	g, ok := s.graphs[scope]
	if !ok {
		return Graph{Nodes: []Node{}, Edges: []Edge{}}, nil
	}
	return copyGraph(g), nil
}

func (s *MemoryStore) ReplaceGraph(ctx context.Context, scope Scope, g Graph) error {
	_ = ctx
	if !scope.valid() {
		return ErrInvalidArgument
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.graphs[scope] = copyGraph(g)
	return nil
}

func (s *MemoryStore) CloneGraph(ctx context.Context, src, dst Scope) error {
	_ = ctx
	if !src.valid() || !dst.valid() {
		return ErrInvalidArgument
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	g, ok := s.graphs[src]
	if !ok {
		s.graphs[dst] = Graph{}
		return nil
	}
	s.graphs[dst] = copyGraph(g)
	return nil
}

func (s *MemoryStore) DeleteGraph(ctx context.Context, scope Scope) error {
	_ = ctx
	if !scope.valid() {
		return ErrInvalidArgument
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.graphs, scope)
	return nil
}

func copyGraph(g Graph) Graph {
	out := Graph{
		Nodes: make([]Node, len(g.Nodes)),
		Edges: make([]Edge, len(g.Edges)),
	}
	copy(out.Nodes, g.Nodes)
	for i := range out.Nodes {
		out.Nodes[i].Config = copyConfig(out.Nodes[i].Config)
	}
	for i, e := range g.Edges {
		out.Edges[i] = Edge{From: e.From, To: e.To, Condition: append(json.RawMessage(nil), e.Condition...)}
	}
	return out
}

func copyConfig(c NodeConfig) NodeConfig {
	raw := c.Raw()
	if raw == nil {
		return NodeConfig{}
	}
	out, err := NewNodeConfig(append([]byte(nil), raw...))
	if err != nil {
		return c
	}
	return out
}
