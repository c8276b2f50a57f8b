// Package pgstore persists employees, users and the audit log in Postgres.
package pgstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
)

const uniqueViolation = "23505"

var schema = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id            TEXT PRIMARY KEY,
		username      TEXT NOT NULL UNIQUE,
		email         TEXT NOT NULL UNIQUE,
		password_hash TEXT NOT NULL,
		role          TEXT NOT NULL,
		is_active     BOOLEAN NOT NULL DEFAULT TRUE,
		last_login    TIMESTAMPTZ,
		created_at    TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at    TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE TABLE IF NOT EXISTS employees (
		id           TEXT PRIMARY KEY,
		employee_id  TEXT NOT NULL UNIQUE,
		name         TEXT NOT NULL,
		age          INTEGER NOT NULL,
		class        TEXT NOT NULL,
		subjects     JSONB NOT NULL DEFAULT '[]',
		attendance   JSONB NOT NULL DEFAULT '[]',
		salary       DOUBLE PRECISION,
		department   TEXT,
		position     TEXT,
		hire_date    TIMESTAMPTZ NOT NULL,
		contact_info JSONB,
		is_active    BOOLEAN NOT NULL DEFAULT TRUE,
		created_by   TEXT NOT NULL,
		updated_by   TEXT,
		version      BIGINT NOT NULL DEFAULT 1,
		created_at   TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at   TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE INDEX IF NOT EXISTS employees_name_idx ON employees (name)`,
	`CREATE INDEX IF NOT EXISTS employees_class_active_idx ON employees (class, is_active)`,
	`CREATE INDEX IF NOT EXISTS employees_department_active_idx ON employees (department, is_active)`,
	`CREATE INDEX IF NOT EXISTS employees_created_at_idx ON employees (created_at DESC, id)`,
	`CREATE TABLE IF NOT EXISTS audit_log (
		id          TEXT PRIMARY KEY,
		event_type  TEXT NOT NULL,
		employee_id TEXT NOT NULL,
		actor_id    TEXT NOT NULL,
		occurred_at TIMESTAMPTZ NOT NULL
	)`,
}

// Migrate creates the tables and indexes if they do not exist.
func Migrate(ctx context.Context, db *sql.DB) error {
	for _, stmt := range schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}
	return nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}
