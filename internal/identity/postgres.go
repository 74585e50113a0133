package identity

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"authgate/internal/platform/postgres"
)

// PostgresStore persists identities in PostgreSQL. The approved claim is
// raised with OR so concurrent logins cannot race it back to false.
type PostgresStore struct {
	pool *postgres.Pool
}

// NewPostgresStore constructs a postgres-backed identity store.
func NewPostgresStore(pool *postgres.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

// Schema is the table this store expects. Applied by deployment tooling, kept
// here so the contract is visible next to the queries.
const Schema = `
CREATE TABLE IF NOT EXISTS identities (
	subject      TEXT PRIMARY KEY,
	email        TEXT NOT NULL,
	display_name TEXT NOT NULL DEFAULT '',
	approved     BOOLEAN NOT NULL DEFAULT FALSE,
	created_at   TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at   TIMESTAMPTZ NOT NULL DEFAULT now()
);
`

func (s *PostgresStore) Upsert(ctx context.Context, record Identity) (Identity, error) {
	query := `
		INSERT INTO identities (subject, email, display_name, approved, created_at, updated_at)
		VALUES ($1, $2, $3, $4, now(), now())
		ON CONFLICT (subject) DO UPDATE SET
			email        = EXCLUDED.email,
			display_name = EXCLUDED.display_name,
			approved     = identities.approved OR EXCLUDED.approved,
			updated_at   = now()
		RETURNING subject, email, display_name, approved, created_at, updated_at
	`
	row := s.pool.QueryRow(ctx, query, record.Subject, record.Email, record.DisplayName, record.Approved)
	var out Identity
	if err := row.Scan(&out.Subject, &out.Email, &out.DisplayName, &out.Approved, &out.CreatedAt, &out.UpdatedAt); err != nil {
		return Identity{}, fmt.Errorf("upsert identity: %w", err)
	}
	return out, nil
}

func (s *PostgresStore) Find(ctx context.Context, subject string) (Identity, error) {
	query := `
		SELECT subject, email, display_name, approved, created_at, updated_at
		FROM identities
		WHERE subject = $1
	`
	row := s.pool.QueryRow(ctx, query, subject)
	var out Identity
	if err := row.Scan(&out.Subject, &out.Email, &out.DisplayName, &out.Approved, &out.CreatedAt, &out.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Identity{}, ErrNotFound
		}
		return Identity{}, fmt.Errorf("find identity: %w", err)
	}
	return out, nil
}
