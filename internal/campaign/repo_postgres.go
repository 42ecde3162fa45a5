package campaign

import (
	"context"
	"database/sql"
	"errors"
)

// PostgresRepo backs Repository with the campaigns table.
type PostgresRepo struct {
	db *sql.DB
}

func NewPostgresRepo(db *sql.DB) *PostgresRepo {
	return &PostgresRepo{db: db}
}

const campaignColumns = `id, name, COALESCE(owner_name, ''), COALESCE(owner_email, ''), COALESCE(owner_phone, ''),
	COALESCE(city, ''), COALESCE(state, ''), COALESCE(video_link, ''), COALESCE(event_link, ''),
	COALESCE(event_type, ''), event_date, launch_date, COALESCE(hotel_name, ''), COALESCE(hotel_address, ''),
	COALESCE(calendly_link, ''), COALESCE(sender_user_id, ''), status, COALESCE(template_id, ''), created_at, updated_at`

func scanCampaign(row interface{ Scan(...any) error }) (Campaign, error) {
	var (
		c          Campaign
		eventDate  sql.NullTime
		launchDate sql.NullTime
	)
	err := row.Scan(&c.ID, &c.Name, &c.OwnerName, &c.OwnerEmail, &c.OwnerPhone,
		&c.City, &c.State, &c.VideoLink, &c.EventLink, &c.EventType,
		&eventDate, &launchDate, &c.HotelName, &c.HotelAddress,
		&c.CalendlyLink, &c.SenderUserID, &c.Status, &c.TemplateID, &c.CreatedAt, &c.UpdatedAt)
	if eventDate.Valid {
		t := eventDate.Time
		c.EventDate = &t
	}
	if launchDate.Valid {
		t := launchDate.Time
		c.LaunchDate = &t
	}
	return c, err
}

func (r *PostgresRepo) Create(ctx context.Context, c Campaign) error {
	if c.ID == "" {
		return ErrInvalidArgument
	}
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO campaigns
		 (id, name, owner_name, owner_email, owner_phone, city, state, video_link, event_link, event_type,
		  event_date, launch_date, hotel_name, hotel_address, calendly_link, sender_user_id, status, template_id,
		  created_at, updated_at)
		 VALUES ($1, $2, NULLIF($3, ''), NULLIF($4, ''), NULLIF($5, ''), NULLIF($6, ''), NULLIF($7, ''),
		         NULLIF($8, ''), NULLIF($9, ''), NULLIF($10, ''), $11, $12, NULLIF($13, ''), NULLIF($14, ''),
		         NULLIF($15, ''), NULLIF($16, ''), $17, NULLIF($18, ''), $19, $20)`,
		c.ID, c.Name, c.OwnerName, c.OwnerEmail, c.OwnerPhone, c.City, c.State, c.VideoLink, c.EventLink,
		c.EventType, c.EventDate, c.LaunchDate, c.HotelName, c.HotelAddress, c.CalendlyLink, c.SenderUserID,
		c.Status, c.TemplateID, c.CreatedAt, c.UpdatedAt)
	return err
}

func (r *PostgresRepo) Get(ctx context.Context, id string) (Campaign, error) {
	c, err := scanCampaign(r.db.QueryRowContext(ctx,
		`SELECT `+campaignColumns+` FROM campaigns WHERE id = $1`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return Campaign{}, ErrNotFound
	}
	if err != nil {
		return Campaign{}, err
	}
	return c, nil
}

func (r *PostgresRepo) List(ctx context.Context) ([]Campaign, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+campaignColumns+` FROM campaigns ORDER BY created_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []Campaign{}
	for rows.Next() {
		c, err := scanCampaign(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (r *PostgresRepo) Update(ctx context.Context, c Campaign) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE campaigns SET
		   name = $2, owner_name = NULLIF($3, ''), owner_email = NULLIF($4, ''), owner_phone = NULLIF($5, ''),
		   city = NULLIF($6, ''), state = NULLIF($7, ''), video_link = NULLIF($8, ''), event_link = NULLIF($9, ''),
		   event_type = NULLIF($10, ''), event_date = $11, launch_date = $12, hotel_name = NULLIF($13, ''),
		   hotel_address = NULLIF($14, ''), calendly_link = NULLIF($15, ''), sender_user_id = NULLIF($16, ''),
		   status = $17, template_id = NULLIF($18, ''), updated_at = $19
		 WHERE id = $1`,
		c.ID, c.Name, c.OwnerName, c.OwnerEmail, c.OwnerPhone, c.City, c.State, c.VideoLink, c.EventLink,
		c.EventType, c.EventDate, c.LaunchDate, c.HotelName, c.HotelAddress, c.CalendlyLink, c.SenderUserID,
		c.Status, c.TemplateID, c.UpdatedAt)
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
	res, err := r.db.ExecContext(ctx, `DELETE FROM campaigns WHERE id = $1`, id)
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

func (r *PostgresRepo) DetachTemplate(ctx context.Context, templateID string) error {
	if templateID == "" {
		return ErrInvalidArgument
	}
	_, err := r.db.ExecContext(ctx,
		`UPDATE campaigns SET template_id = NULL, updated_at = now() WHERE template_id = $1`, templateID)
	return err
}
