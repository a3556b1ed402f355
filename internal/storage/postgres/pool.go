// Package postgres is the PostgreSQL storage backend, for deployments where
// the service does not own its database file.
package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Connect creates a connection pool and verifies connectivity.
func Connect(ctx context.Context, url string) (*pgxpool.Pool, error) {
	pool, err := pgxpool.New(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("create pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}

	return pool, nil
}

// Bootstrap creates the schema if it does not exist yet.
func Bootstrap(ctx context.Context, pool *pgxpool.Pool) error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS users (
			id            BIGSERIAL PRIMARY KEY,
			email         TEXT NOT NULL UNIQUE,
			name          TEXT NOT NULL,
			password_hash TEXT NOT NULL,
			created_at    TIMESTAMPTZ NOT NULL DEFAULT now(),
			updated_at    TIMESTAMPTZ NOT NULL DEFAULT now()
		)`,
		`CREATE TABLE IF NOT EXISTS courses (
			id          BIGSERIAL PRIMARY KEY,
			name        TEXT NOT NULL UNIQUE,
			description TEXT NOT NULL DEFAULT '',
			hours       INTEGER NOT NULL,
			level       TEXT NOT NULL CHECK (level IN ('beginner', 'intermediate', 'advanced'))
		)`,
		`CREATE TABLE IF NOT EXISTS enrollments (
			user_id     BIGINT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
			course_id   BIGINT NOT NULL REFERENCES courses(id) ON DELETE CASCADE,
			enrolled_at TIMESTAMPTZ NOT NULL DEFAULT now(),
			PRIMARY KEY (user_id, course_id)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_enrollments_course ON enrollments(course_id)`,
	}

	for _, stmt := range statements {
		if _, err := pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("bootstrap schema: %w", err)
		}
	}
	return nil
}
