package inbox

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
)

// PostgresRepo backs Repository with the conversations and messages
// tables. A unique index on (contact_id, channel) makes find-or-create
// idempotent across processes: insert with ON CONFLICT DO NOTHING, then
// re-select the winner.
type PostgresRepo struct {
	db *sql.DB
}

func NewPostgresRepo(db *sql.DB) *PostgresRepo {
	return &PostgresRepo{db: db}
}

func (r *PostgresRepo) FindOrCreateConversation(ctx context.Context, contactID, channel string) (Conversation, error) {
	if !validConvArgs(contactID, channel) {
		return Conversation{}, ErrInvalidArgument
	}
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO conversations (id, contact_id, channel, created_at)
		 VALUES ($1, $2, $3, now())
		 ON CONFLICT (contact_id, channel) DO NOTHING`,
		uuid.NewString(), contactID, channel)
	if err != nil {
		return Conversation{}, err
	}

	var (
		conv Conversation
		last sql.NullTime
	)
	err = r.db.QueryRowContext(ctx,
		`SELECT id, contact_id, channel, created_at, last_message_at
		 FROM conversations WHERE contact_id = $1 AND channel = $2`,
		contactID, channel).
		Scan(&conv.ID, &conv.ContactID, &conv.Channel, &conv.CreatedAt, &last)
	if err != nil {
		return Conversation{}, err
	}
	conv.LastMessageAt = last.Time
	return conv, nil
}

// EnsureConversation satisfies the contact package's ensurer interface.
func (r *PostgresRepo) EnsureConversation(ctx context.Context, contactID, channel string) error {
	_, err := r.FindOrCreateConversation(ctx, contactID, channel)
	return err
}

func (r *PostgresRepo) ListConversationsByContact(ctx context.Context, contactID string) ([]Conversation, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, contact_id, channel, created_at, last_message_at
		 FROM conversations WHERE contact_id = $1 ORDER BY channel`, contactID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []Conversation{}
	for rows.Next() {
		var (
			conv Conversation
			last sql.NullTime
		)
		if err := rows.Scan(&conv.ID, &conv.ContactID, &conv.Channel, &conv.CreatedAt, &last); err != nil {
			return nil, err
		}
		conv.LastMessageAt = last.Time
		out = append(out, conv)
	}
	return out, rows.Err()
}

func (r *PostgresRepo) AppendMessage(ctx context.Context, m Message) error {
	if m.ConversationID == "" || (m.Direction != DirectionIn && m.Direction != DirectionOut) {
		return ErrInvalidArgument
	}
	if m.ID == "" {
		m.ID = uuid.NewString()
	}
	if m.CreatedAt.IsZero() {
		m.CreatedAt = time.Now().UTC()
	}
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO messages (id, conversation_id, direction, text, subject, provider, provider_message_id, created_at)
		 SELECT $1, c.id, $3, $4, NULLIF($5, ''), NULLIF($6, ''), NULLIF($7, ''), $8
		 FROM conversations c WHERE c.id = $2`,
		m.ID, m.ConversationID, m.Direction, m.Text, m.Subject, m.Provider, m.ProviderMessageID, m.CreatedAt)
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
	_, err = r.db.ExecContext(ctx,
		`UPDATE conversations SET last_message_at = $2 WHERE id = $1`, m.ConversationID, m.CreatedAt)
	return err
}

func (r *PostgresRepo) ListMessages(ctx context.Context, conversationID string) ([]Message, error) {
	var exists bool
	if err := r.db.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM conversations WHERE id = $1)`, conversationID).Scan(&exists); err != nil {
		return nil, err
	}
	if !exists {
		return nil, ErrNotFound
	}

	rows, err := r.db.QueryContext(ctx,
		`SELECT id, conversation_id, direction, text, COALESCE(subject, ''), COALESCE(provider, ''),
		        COALESCE(provider_message_id, ''), created_at
		 FROM messages WHERE conversation_id = $1 ORDER BY created_at, id`, conversationID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanMessages(rows)
}

func (r *PostgresRepo) ListMessagesSince(ctx context.Context, since time.Time) ([]Message, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, conversation_id, direction, text, COALESCE(subject, ''), COALESCE(provider, ''),
		        COALESCE(provider_message_id, ''), created_at
		 FROM messages WHERE created_at >= $1 ORDER BY created_at, id`, since)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanMessages(rows)
}

func scanMessages(rows *sql.Rows) ([]Message, error) {
	out := []Message{}
	for rows.Next() {
		var m Message
		if err := rows.Scan(&m.ID, &m.ConversationID, &m.Direction, &m.Text, &m.Subject,
			&m.Provider, &m.ProviderMessageID, &m.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
