package stats

import (
	"context"
	"database/sql"

	"outreach-platform/internal/contact"
)

// PostgresRepo reads the aggregates' joined views straight from the
// campaigns, contacts, conversations and messages tables.
type PostgresRepo struct {
	db *sql.DB
}

func NewPostgresRepo(db *sql.DB) *PostgresRepo {
	return &PostgresRepo{db: db}
}

func (r *PostgresRepo) CountCampaigns(ctx context.Context) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM campaigns`).Scan(&n)
	return n, err
}

func (r *PostgresRepo) ListContacts(ctx context.Context, campaignID string) ([]contact.Contact, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, campaign_id, name, status
		 FROM contacts
		 WHERE $1 = '' OR campaign_id = $1
		 ORDER BY created_at, id`, campaignID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []contact.Contact{}
	for rows.Next() {
		var c contact.Contact
		if err := rows.Scan(&c.ID, &c.CampaignID, &c.Name, &c.Status); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (r *PostgresRepo) ListMessages(ctx context.Context, campaignID string, limit int) ([]ContactMessage, error) {
	q := `SELECT m.id, m.conversation_id, m.direction, m.text, COALESCE(m.subject, ''),
	             COALESCE(m.provider, ''), COALESCE(m.provider_message_id, ''), m.created_at,
	             c.contact_id, ct.name, ct.campaign_id
	      FROM messages m
	      JOIN conversations c ON c.id = m.conversation_id
	      JOIN contacts ct ON ct.id = c.contact_id
	      WHERE $1 = '' OR ct.campaign_id = $1
	      ORDER BY m.created_at DESC, m.id DESC`
	args := []any{campaignID}
	if limit > 0 {
		q += ` LIMIT $2`
		args = append(args, limit)
	}

	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []ContactMessage{}
	for rows.Next() {
		var m ContactMessage
		if err := rows.Scan(&m.ID, &m.ConversationID, &m.Direction, &m.Text, &m.Subject,
			&m.Provider, &m.ProviderMessageID, &m.CreatedAt,
			&m.ContactID, &m.ContactName, &m.CampaignID); err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}
