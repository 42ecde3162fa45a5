package funnel

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"outreach-platform/pkg/utils"

	"github.com/google/uuid"
)

// PostgresStore persists graphs in two table families:
// template_nodes/template_edges and campaign_nodes/campaign_edges.
// Rows carry their own uuid; node keys are unique per scope.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func tableNames(scope Scope) (nodes, edges, fk string, err error) {
	switch scope.Kind {
	case ScopeTemplate:
		return "template_nodes", "template_edges", "template_id", nil
	case ScopeCampaign:
		return "campaign_nodes", "campaign_edges", "campaign_id", nil
	default:
		return "", "", "", ErrInvalidArgument
	}
}

func (s *PostgresStore) GetGraph(ctx context.Context, scope Scope) (Graph, error) {
	if !scope.valid() {
		return Graph{}, ErrInvalidArgument
	}
	nodesTable, edgesTable, fk, err := tableNames(scope)
	if err != nil {
		return Graph{}, err
	}

	g := Graph{Nodes: []Node{}, Edges: []Edge{}}

	q := fmt.Sprintf(`SELECT node_key, node_type, name, config, pos_x, pos_y
		FROM %s WHERE %s = $1 ORDER BY created_at, node_key`, nodesTable, fk)
	rows, err := s.db.QueryContext(ctx, q, scope.ID)
	if err != nil {
		return Graph{}, err
	}
	defer rows.Close()
	for rows.Next() {
		var (
			n   Node
			typ string
			cfg []byte
		)
		if err := rows.Scan(&n.Key, &typ, &n.Name, &cfg, &n.Pos.X, &n.Pos.Y); err != nil {
			return Graph{}, err
		}
		n.Type = NodeType(typ)
		if n.Config, err = NewNodeConfig(cfg); err != nil {
			return Graph{}, fmt.Errorf("node %s config: %w", n.Key, err)
		}
		g.Nodes = append(g.Nodes, n)
	}
	if err := rows.Err(); err != nil {
		return Graph{}, err
	}

	q = fmt.Sprintf(`SELECT from_key, to_key, condition
		FROM %s WHERE %s = $1 ORDER BY created_at, from_key, to_key`, edgesTable, fk)
	erows, err := s.db.QueryContext(ctx, q, scope.ID)
	if err != nil {
		return Graph{}, err
	}
	defer erows.Close()
	for erows.Next() {
		var (
			e    Edge
			cond []byte
		)
		if err := erows.Scan(&e.From, &e.To, &cond); err != nil {
			return Graph{}, err
		}
		if len(cond) > 0 {
			e.Condition = json.RawMessage(cond)
		}
		g.Edges = append(g.Edges, e)
	}
	if err := erows.Err(); err != nil {
		return Graph{}, err
	}
	return g, nil
}

func (s *PostgresStore) ReplaceGraph(ctx context.Context, scope Scope, g Graph) error {
	if !scope.valid() {
		return ErrInvalidArgument
	}
	return utils.WithTx(ctx, s.db, &sql.TxOptions{}, func(ctx context.Context, tx *sql.Tx) error {
		return replaceGraphTx(ctx, tx, scope, g)
	})
}

func (s *PostgresStore) CloneGraph(ctx context.Context, src, dst Scope) error {
	if !src.valid() || !dst.valid() {
		return ErrInvalidArgument
	}
	g, err := s.GetGraph(ctx, src)
	if err != nil {
		return err
	}
	return s.ReplaceGraph(ctx, dst, g)
}

func (s *PostgresStore) DeleteGraph(ctx context.Context, scope Scope) error {
	if !scope.valid() {
		return ErrInvalidArgument
	}
	return utils.WithTx(ctx, s.db, &sql.TxOptions{}, func(ctx context.Context, tx *sql.Tx) error {
		return deleteGraphTx(ctx, tx, scope)
	})
}

// ReplaceGraphTx is the transactional form for callers composing graph
// replacement with their own writes (campaign create/import).
func (s *PostgresStore) ReplaceGraphTx(ctx context.Context, tx *sql.Tx, scope Scope, g Graph) error {
	if !scope.valid() {
		return ErrInvalidArgument
	}
	return replaceGraphTx(ctx, tx, scope, g)
}

func replaceGraphTx(ctx context.Context, tx *sql.Tx, scope Scope, g Graph) error {
	if err := deleteGraphTx(ctx, tx, scope); err != nil {
		return err
	}
	nodesTable, edgesTable, fk, err := tableNames(scope)
	if err != nil {
		return err
	}

	nq := fmt.Sprintf(`INSERT INTO %s (id, %s, node_key, node_type, name, config, pos_x, pos_y, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, now())`, nodesTable, fk)
	for _, n := range g.Nodes {
		cfg := n.Config.Raw()
		if cfg == nil {
			cfg = json.RawMessage("{}")
		}
		if _, err := tx.ExecContext(ctx, nq,
			uuid.NewString(), scope.ID, n.Key, string(n.Type), n.Name, []byte(cfg), n.Pos.X, n.Pos.Y,
		); err != nil {
			return fmt.Errorf("insert node %s: %w", n.Key, err)
		}
	}

	eq := fmt.Sprintf(`INSERT INTO %s (id, %s, from_key, to_key, condition, created_at)
		VALUES ($1, $2, $3, $4, $5, now())`, edgesTable, fk)
	for _, e := range g.Edges {
		var cond any
		if len(e.Condition) > 0 {
			cond = []byte(e.Condition)
		}
		if _, err := tx.ExecContext(ctx, eq,
			uuid.NewString(), scope.ID, e.From, e.To, cond,
		); err != nil {
			return fmt.Errorf("insert edge %s->%s: %w", e.From, e.To, err)
		}
	}
	return nil
}

func deleteGraphTx(ctx context.Context, tx *sql.Tx, scope Scope) error {
	nodesTable, edgesTable, fk, err := tableNames(scope)
	if err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, fmt.Sprintf(`DELETE FROM %s WHERE %s = $1`, edgesTable, fk), scope.ID); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, fmt.Sprintf(`DELETE FROM %s WHERE %s = $1`, nodesTable, fk), scope.ID); err != nil {
		return err
	}
	return nil
}
