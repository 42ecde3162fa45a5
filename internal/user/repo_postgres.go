package user

import (
	"context"
	"database/sql"
	"errors"
)

// PostgresRepo backs Repository with the users table.
type PostgresRepo struct {
	db *sql.DB
}

func NewPostgresRepo(db *sql.DB) *PostgresRepo {
	return &PostgresRepo{db: db}
}

const userColumns = `id, name, email, role, password_hash, COALESCE(sms_from_number, ''), COALESCE(vm_caller_id, ''),
	COALESCE(smtp_host, ''), COALESCE(smtp_port, 0), COALESCE(smtp_username, ''), COALESCE(smtp_password, ''),
	COALESCE(smtp_from, ''), COALESCE(smtp_secure, false), created_at`

func scanUser(row interface{ Scan(...any) error }) (User, error) {
	var u User
	err := row.Scan(&u.ID, &u.Name, &u.Email, &u.Role, &u.PasswordHash, &u.SMSFromNumber, &u.VMCallerID,
		&u.SMTP.Host, &u.SMTP.Port, &u.SMTP.Username, &u.SMTP.Password, &u.SMTP.From, &u.SMTP.Secure, &u.CreatedAt)
	return u, err
}

func (r *PostgresRepo) Create(ctx context.Context, u User) error {
	if u.ID == "" || u.Email == "" {
		return ErrInvalidArgument
	}
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO users
		 (id, name, email, role, password_hash, sms_from_number, vm_caller_id,
		  smtp_host, smtp_port, smtp_username, smtp_password, smtp_from, smtp_secure, created_at)
		 VALUES ($1, $2, $3, $4, $5, NULLIF($6, ''), NULLIF($7, ''), NULLIF($8, ''), NULLIF($9, 0),
		         NULLIF($10, ''), NULLIF($11, ''), NULLIF($12, ''), $13, $14)`,
		u.ID, u.Name, u.Email, u.Role, u.PasswordHash, u.SMSFromNumber, u.VMCallerID,
		u.SMTP.Host, u.SMTP.Port, u.SMTP.Username, u.SMTP.Password, u.SMTP.From, u.SMTP.Secure, u.CreatedAt)
	return err
}

func (r *PostgresRepo) Get(ctx context.Context, id string) (User, error) {
	u, err := scanUser(r.db.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE id = $1`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return User{}, ErrNotFound
	}
	if err != nil {
		return User{}, err
	}
	return u, nil
}

func (r *PostgresRepo) GetByEmail(ctx context.Context, email string) (User, error) {
	u, err := scanUser(r.db.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE lower(email) = lower($1)`, email))
	if errors.Is(err, sql.ErrNoRows) {
		return User{}, ErrNotFound
	}
	if err != nil {
		return User{}, err
	}
	return u, nil
}

func (r *PostgresRepo) List(ctx context.Context) ([]User, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+userColumns+` FROM users ORDER BY email`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []User{}
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, u)
	}
	return out, rows.Err()
}

func (r *PostgresRepo) FindAnySMTPFallback(ctx context.Context) (User, error) {
	u, err := scanUser(r.db.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users
		 WHERE smtp_host IS NOT NULL AND smtp_username IS NOT NULL AND smtp_password IS NOT NULL
		 ORDER BY email LIMIT 1`))
	if errors.Is(err, sql.ErrNoRows) {
		return User{}, ErrNotFound
	}
	if err != nil {
		return User{}, err
	}
	return u, nil
}
