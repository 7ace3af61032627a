package auth

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"labvault.app/internal/ids"
)

var _ UserStore = (*PGStore)(nil)

// PGStore implements UserStore using PostgreSQL.
type PGStore struct {
	db *sql.DB
}

func NewPGStore(db *sql.DB) *PGStore {
	return &PGStore{db: db}
}

func (s *PGStore) Create(ctx context.Context, u *User) error {
	if u.ID == "" {
		u.ID = ids.New()
	}
	u.Email = strings.ToLower(strings.TrimSpace(u.Email))
	_, err := s.db.ExecContext(ctx,
		`insert into users(id, email, password_hash, name) values($1,$2,$3,$4)`,
		u.ID, u.Email, u.PasswordHash, u.Name,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrAlreadyExists
		}
		return err
	}
	// The row timestamps come from column defaults; mirror them on the
	// struct so the caller can render the new account without a re-read.
	now := time.Now().UTC()
	u.CreatedAt = now
	u.UpdatedAt = now
	return nil
}

func (s *PGStore) Find(ctx context.Context, id string) (*User, error) {
	row := s.db.QueryRowContext(ctx,
		`select id, email, password_hash, name, created_at, updated_at from users where id=$1`, id)
	return scanUser(row)
}

func (s *PGStore) FindByEmail(ctx context.Context, email string) (*User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	row := s.db.QueryRowContext(ctx,
		`select id, email, password_hash, name, created_at, updated_at from users where email=$1`, email)
	return scanUser(row)
}

func scanUser(row *sql.Row) (*User, error) {
	var (
		u    User
		name sql.NullString
	)
	if err := row.Scan(&u.ID, &u.Email, &u.PasswordHash, &name, &u.CreatedAt, &u.UpdatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	u.Name = name.String
	return &u, nil
}

func isUniqueViolation(err error) bool {
	// pgx wraps server errors; SQLSTATE 23505 is unique_violation.
	return strings.Contains(err.Error(), "23505") ||
		strings.Contains(err.Error(), "duplicate key")
}
