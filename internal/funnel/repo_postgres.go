package funnel

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
)

// PostgresTemplateRepo backs TemplateRepository with the templates table.
type PostgresTemplateRepo struct {
	db *sql.DB
}

func NewPostgresTemplateRepo(db *sql.DB) *PostgresTemplateRepo {
	return &PostgresTemplateRepo{db: db}
}

func (r *PostgresTemplateRepo) Create(ctx context.Context, t Template) error {
	if t.ID == "" {
		return ErrInvalidArgument
	}
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO templates (id, name, status, version, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		t.ID, t.Name, t.Status, t.Version, t.CreatedAt, t.UpdatedAt)
	return err
}

func (r *PostgresTemplateRepo) Get(ctx context.Context, id string) (Template, error) {
	var t Template
	err := r.db.QueryRowContext(ctx,
		`SELECT id, name, status, version, created_at, updated_at FROM templates WHERE id = $1`,
		id).Scan(&t.ID, &t.Name, &t.Status, &t.Version, &t.CreatedAt, &t.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return Template{}, ErrNotFound
	}
	if err != nil {
		return Template{}, err
	}
	return t, nil
}

func (r *PostgresTemplateRepo) List(ctx context.Context) ([]Template, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, name, status, version, created_at, updated_at FROM templates ORDER BY created_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []Template{}
	for rows.Next() {
		var t Template
		if err := rows.Scan(&t.ID, &t.Name, &t.Status, &t.Version, &t.CreatedAt, &t.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

func (r *PostgresTemplateRepo) Update(ctx context.Context, t Template) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE templates SET name = $2, status = $3, version = $4, updated_at = $5 WHERE id = $1`,
		t.ID, t.Name, t.Status, t.Version, t.UpdatedAt)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *PostgresTemplateRepo) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM templates WHERE id = $1`, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// PostgresVersionRepo backs VersionRepository with the template_versions
// table; node/edge payloads are stored as jsonb snapshots.
type PostgresVersionRepo struct {
	db *sql.DB
}

func NewPostgresVersionRepo(db *sql.DB) *PostgresVersionRepo {
	return &PostgresVersionRepo{db: db}
}

func (r *PostgresVersionRepo) Create(ctx context.Context, v Version) error {
	if v.ID == "" || v.BaseTemplateID == "" {
		return ErrInvalidArgument
	}
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO template_versions
		 (id, base_template_id, version_name, description, campaign_id, nodes, edges, created_by, created_at)
		 VALUES ($1, $2, $3, $4, NULLIF($5, ''), $6, $7, NULLIF($8, ''), $9)`,
		v.ID, v.BaseTemplateID, v.VersionName, v.Description, v.CampaignID,
		[]byte(v.Nodes), []byte(v.Edges), v.CreatedBy, v.CreatedAt)
	return err
}

func (r *PostgresVersionRepo) Get(ctx context.Context, id string) (Version, error) {
	var (
		v          Version
		campaignID sql.NullString
		createdBy  sql.NullString
		nodes      []byte
		edges      []byte
	)
	err := r.db.QueryRowContext(ctx,
		`SELECT id, base_template_id, version_name, COALESCE(description, ''), campaign_id, nodes, edges, created_by, created_at
		 FROM template_versions WHERE id = $1`, id).
		Scan(&v.ID, &v.BaseTemplateID, &v.VersionName, &v.Description, &campaignID, &nodes, &edges, &createdBy, &v.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return Version{}, ErrNotFound
	}
	if err != nil {
		return Version{}, err
	}
	v.CampaignID = campaignID.String
	v.CreatedBy = createdBy.String
	v.Nodes = json.RawMessage(nodes)
	v.Edges = json.RawMessage(edges)
	return v, nil
}

func (r *PostgresVersionRepo) ListByTemplate(ctx context.Context, baseTemplateID string) ([]Version, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, base_template_id, version_name, COALESCE(description, ''), campaign_id, nodes, edges, created_by, created_at
		 FROM template_versions WHERE base_template_id = $1 ORDER BY created_at DESC`, baseTemplateID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []Version{}
	for rows.Next() {
		var (
			v          Version
			campaignID sql.NullString
			createdBy  sql.NullString
			nodes      []byte
			edges      []byte
		)
		if err := rows.Scan(&v.ID, &v.BaseTemplateID, &v.VersionName, &v.Description, &campaignID, &nodes, &edges, &createdBy, &v.CreatedAt); err != nil {
			return nil, err
		}
		v.CampaignID = campaignID.String
		v.CreatedBy = createdBy.String
		v.Nodes = json.RawMessage(nodes)
		v.Edges = json.RawMessage(edges)
		out = append(out, v)
	}
	return out, rows.Err()
}

func (r *PostgresVersionRepo) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM template_versions WHERE id = $1`, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
