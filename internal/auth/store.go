package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// UserStore persists accounts.
type UserStore interface {
	// Create inserts a new account. The account gets RoleAdmin when no other
	// account exists and RoleUser otherwise, decided atomically with the
	// insert. When the email is already taken the existing account is
	// returned with created == false.
	Create(ctx context.Context, email, passwordHash string) (user *User, created bool, err error)

	GetByEmail(ctx context.Context, email string) (*User, error)
	GetByID(ctx context.Context, id uuid.UUID) (*User, error)
}

// DBTX is the subset of pgx used by the store.
// Satisfied by both *pgxpool.Pool and pgx.Tx.
type DBTX interface {
	Exec(context.Context, string, ...interface{}) (pgconn.CommandTag, error)
	Query(context.Context, string, ...interface{}) (pgx.Rows, error)
	QueryRow(context.Context, string, ...interface{}) pgx.Row
	Begin(context.Context) (pgx.Tx, error)
}

const schemaSQL = `
CREATE TABLE IF NOT EXISTS users (
	id            UUID PRIMARY KEY,
	email         TEXT NOT NULL UNIQUE,
	password_hash TEXT NOT NULL,
	role          TEXT NOT NULL DEFAULT 'user',
	created_at    TIMESTAMPTZ NOT NULL DEFAULT now()
)`

// PGUserStore is the Postgres UserStore.
type PGUserStore struct {
	db DBTX
}

// NewPGUserStore creates a store over db.
func NewPGUserStore(db DBTX) *PGUserStore {
	return &PGUserStore{db: db}
}

// EnsureSchema creates the users table if it does not exist.
func (s *PGUserStore) EnsureSchema(ctx context.Context) error {
	if _, err := s.db.Exec(ctx, schemaSQL); err != nil {
		return fmt.Errorf("create users table: %w", err)
	}
	return nil
}

func (s *PGUserStore) Create(ctx context.Context, email, passwordHash string) (*User, bool, error) {
	id, err := uuid.NewRandom()
	if err != nil {
		return nil, false, fmt.Errorf("generate user id: %w", err)
	}

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return nil, false, fmt.Errorf("begin signup: %w", err)
	}
	defer tx.Rollback(ctx) // No-op if already committed

	// Signups take turns so only one of them can see an empty table.
	if _, err := tx.Exec(ctx, `LOCK TABLE users IN SHARE ROW EXCLUSIVE MODE`); err != nil {
		return nil, false, fmt.Errorf("lock users: %w", err)
	}

	var u User
	err = tx.QueryRow(ctx, `
		INSERT INTO users (id, email, password_hash, role)
		SELECT $1, $2, $3, CASE WHEN EXISTS (SELECT 1 FROM users) THEN $4 ELSE $5 END
		ON CONFLICT (email) DO NOTHING
		RETURNING id, email, role, password_hash, created_at`,
		id, normalizeEmail(email), passwordHash, RoleUser, RoleAdmin,
	).Scan(&u.ID, &u.Email, &u.Role, &u.PasswordHash, &u.CreatedAt)

	created := true
	if errors.Is(err, pgx.ErrNoRows) {
		existing, err := NewPGUserStore(tx).GetByEmail(ctx, email)
		if err != nil {
			return nil, false, fmt.Errorf("fetch existing user: %w", err)
		}
		u, created = *existing, false
	} else if err != nil {
		return nil, false, fmt.Errorf("insert user: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, false, fmt.Errorf("commit signup: %w", err)
	}
	return &u, created, nil
}

func (s *PGUserStore) GetByEmail(ctx context.Context, email string) (*User, error) {
	return s.getOne(ctx, `
		SELECT id, email, role, password_hash, created_at
		FROM users WHERE email = $1`, normalizeEmail(email))
}

func (s *PGUserStore) GetByID(ctx context.Context, id uuid.UUID) (*User, error) {
	return s.getOne(ctx, `
		SELECT id, email, role, password_hash, created_at
		FROM users WHERE id = $1`, id)
}

func (s *PGUserStore) getOne(ctx context.Context, query string, arg any) (*User, error) {
	var u User
	err := s.db.QueryRow(ctx, query, arg).
		Scan(&u.ID, &u.Email, &u.Role, &u.PasswordHash, &u.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query user: %w", err)
	}
	return &u, nil
}

// normalizeEmail lowercases and trims an address so lookups are
// case-insensitive.
func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
