package contact

import (
	"context"
	"database/sql"
	"errors"
)

// PostgresRepo backs Repository with the contacts table.
type PostgresRepo struct {
	db *sql.DB
}

func NewPostgresRepo(db *sql.DB) *PostgresRepo {
	return &PostgresRepo{db: db}
}

const contactColumns = `id, campaign_id, name, COALESCE(company, ''), COALESCE(email, ''), COALESCE(phone, ''),
	COALESCE(city, ''), COALESCE(state, ''), COALESCE(url, ''), status, COALESCE(stage_key, ''), raw, created_at, updated_at`

func scanContact(row interface{ Scan(...any) error }) (Contact, error) {
	var (
		c   Contact
		raw []byte
	)
	err := row.Scan(&c.ID, &c.CampaignID, &c.Name, &c.Company, &c.Email, &c.Phone,
		&c.City, &c.State, &c.URL, &c.Status, &c.StageKey, &raw, &c.CreatedAt, &c.UpdatedAt)
	if len(raw) > 0 {
		c.Raw = raw
	}
	return c, err
}

func (r *PostgresRepo) Create(ctx context.Context, c Contact) error {
	if c.ID == "" || c.CampaignID == "" {
		return ErrInvalidArgument
	}
	var raw any
	if len(c.Raw) > 0 {
		raw = []byte(c.Raw)
	}
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO contacts
		 (id, campaign_id, name, company, email, phone, city, state, url, status, stage_key, raw, created_at, updated_at)
		 VALUES ($1, $2, $3, NULLIF($4, ''), NULLIF($5, ''), NULLIF($6, ''), NULLIF($7, ''), NULLIF($8, ''),
		         NULLIF($9, ''), $10, NULLIF($11, ''), $12, $13, $14)`,
		c.ID, c.CampaignID, c.Name, c.Company, c.Email, c.Phone, c.City, c.State, c.URL,
		c.Status, c.StageKey, raw, c.CreatedAt, c.UpdatedAt)
	return err
}

func (r *PostgresRepo) Get(ctx context.Context, id string) (Contact, error) {
	c, err := scanContact(r.db.QueryRowContext(ctx,
		`SELECT `+contactColumns+` FROM contacts WHERE id = $1`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return Contact{}, ErrNotFound
	}
	if err != nil {
		return Contact{}, err
	}
	return c, nil
}

func (r *PostgresRepo) ListByCampaign(ctx context.Context, campaignID string) ([]Contact, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+contactColumns+` FROM contacts WHERE campaign_id = $1 ORDER BY created_at, id`, campaignID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []Contact{}
	for rows.Next() {
		c, err := scanContact(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (r *PostgresRepo) UpdateStatus(ctx context.Context, id, status string) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE contacts SET status = $2, updated_at = now() WHERE id = $1`, id, status)
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

func (r *PostgresRepo) UpdateStage(ctx context.Context, id, stageKey string) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE contacts SET stage_key = NULLIF($2, ''), updated_at = now() WHERE id = $1`, id, stageKey)
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

func (r *PostgresRepo) FindByPhoneLast10(ctx context.Context, digits string) (Contact, error) {
	if len(digits) < 10 {
		return Contact{}, ErrNotFound
	}
	digits = digits[len(digits)-10:]

	c, err := scanContact(r.db.QueryRowContext(ctx,
		`SELECT `+contactColumns+` FROM contacts
		 WHERE phone IS NOT NULL AND regexp_replace(phone, '\D', '', 'g') LIKE '%' || $1
		 ORDER BY updated_at DESC LIMIT 1`, digits))
	if errors.Is(err, sql.ErrNoRows) {
		return Contact{}, ErrNotFound
	}
	if err != nil {
		return Contact{}, err
	}
	return c, nil
}
