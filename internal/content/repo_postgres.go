package content

import (
	"context"
	"database/sql"
	"errors"
)

// PostgresRepo backs Repository with the content_templates table.
type PostgresRepo struct {
	db *sql.DB
}

func NewPostgresRepo(db *sql.DB) *PostgresRepo {
	return &PostgresRepo{db: db}
}

const contentColumns = `id, type, name, COALESCE(subject, ''), COALESCE(body, ''), COALESCE(text, ''), COALESCE(tts_script, ''), created_at, updated_at`

func scanTemplate(row interface{ Scan(...any) error }) (Template, error) {
	var t Template
	err := row.Scan(&t.ID, &t.Type, &t.Name, &t.Subject, &t.Body, &t.Text, &t.TTSScript, &t.CreatedAt, &t.UpdatedAt)
	return t, err
}

func (r *PostgresRepo) Create(ctx context.Context, t Template) error {
	if t.ID == "" || t.Type == "" {
		return ErrInvalidArgument
	}
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO content_templates (id, type, name, subject, body, text, tts_script, created_at, updated_at)
		 VALUES ($1, $2, $3, NULLIF($4, ''), NULLIF($5, ''), NULLIF($6, ''), NULLIF($7, ''), $8, $9)`,
		t.ID, string(t.Type), t.Name, t.Subject, t.Body, t.Text, t.TTSScript, t.CreatedAt, t.UpdatedAt)
	return err
}

func (r *PostgresRepo) Find(ctx context.Context, id string, typ TemplateType) (Template, error) {
	t, err := scanTemplate(r.db.QueryRowContext(ctx,
		`SELECT `+contentColumns+` FROM content_templates WHERE id = $1 AND type = $2`,
		id, string(typ)))
	if errors.Is(err, sql.ErrNoRows) {
		return Template{}, ErrNotFound
	}
	if err != nil {
		return Template{}, err
	}
	return t, nil
}

func (r *PostgresRepo) Get(ctx context.Context, id string) (Template, error) {
	t, err := scanTemplate(r.db.QueryRowContext(ctx,
		`SELECT `+contentColumns+` FROM content_templates WHERE id = $1`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return Template{}, ErrNotFound
	}
	if err != nil {
		return Template{}, err
	}
	return t, nil
}

func (r *PostgresRepo) List(ctx context.Context, typ TemplateType) ([]Template, error) {
	q := `SELECT ` + contentColumns + ` FROM content_templates ORDER BY created_at DESC`
	args := []any{}
	if typ != "" {
		q = `SELECT ` + contentColumns + ` FROM content_templates WHERE type = $1 ORDER BY created_at DESC`
		args = append(args, string(typ))
	}
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []Template{}
	for rows.Next() {
		t, err := scanTemplate(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

func (r *PostgresRepo) Update(ctx context.Context, t Template) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE content_templates
		 SET name = $2, subject = NULLIF($3, ''), body = NULLIF($4, ''), text = NULLIF($5, ''),
		     tts_script = NULLIF($6, ''), updated_at = $7
		 WHERE id = $1`,
		t.ID, t.Name, t.Subject, t.Body, t.Text, t.TTSScript, t.UpdatedAt)
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

func (r *PostgresRepo) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM content_templates WHERE id = $1`, id)
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
