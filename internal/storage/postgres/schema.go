package postgres

import (
	"context"
	"database/sql"
	"fmt"
)

const schema = `
CREATE TABLE IF NOT EXISTS directory_users (
	id         TEXT PRIMARY KEY,
	access_key TEXT NOT NULL UNIQUE,
	secret_key TEXT NOT NULL,
	is_admin   BOOLEAN NOT NULL DEFAULT FALSE,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS directory_projects (
	id          TEXT PRIMARY KEY,
	name        TEXT NOT NULL,
	description TEXT NOT NULL DEFAULT '',
	manager_id  TEXT NOT NULL REFERENCES directory_users (id) ON DELETE RESTRICT,
	created_at  TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at  TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS directory_projects_manager_idx ON directory_projects (manager_id);
`

// Migrate creates the directory tables if they do not exist yet.
func Migrate(ctx context.Context, db *sql.DB) error {
	if _, err := db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("migrate directory schema: %w", err)
	}
	return nil
}
