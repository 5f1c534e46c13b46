package db

import (
	"context"
	"database/sql"
	"fmt"
	"log"
)

// EnsureBootstrapped creates the minimal schema this core needs when it is
// not already present.
func EnsureBootstrapped(ctx context.Context, db *sql.DB) error {
	const ddl = `
	CREATE TABLE IF NOT EXISTS files (
		id                   TEXT PRIMARY KEY,
		storage_key          TEXT NOT NULL,
		title                TEXT NOT NULL,
		mime_hint            TEXT NOT NULL DEFAULT '',
		page_content_url     TEXT,
		word_count           INTEGER,
		token_count_estimate INTEGER,
		created_at           TIMESTAMPTZ NOT NULL DEFAULT now(),
		updated_at           TIMESTAMPTZ NOT NULL DEFAULT now()
	);

	CREATE TABLE IF NOT EXISTS workspaces (
		id   BIGSERIAL PRIMARY KEY,
		name TEXT NOT NULL,
		slug TEXT NOT NULL UNIQUE
	);

	CREATE TABLE IF NOT EXISTS workspace_documents (
		id           BIGSERIAL PRIMARY KEY,
		workspace_id BIGINT NOT NULL REFERENCES workspaces(id) ON DELETE CASCADE,
		docpath      TEXT NOT NULL,
		pinned       BOOLEAN NOT NULL DEFAULT FALSE,
		watched      BOOLEAN NOT NULL DEFAULT FALSE,
		UNIQUE (workspace_id, docpath)
	);

	CREATE TABLE IF NOT EXISTS folders (
		id   BIGSERIAL PRIMARY KEY,
		name TEXT NOT NULL UNIQUE
	);
	`
	if _, err := db.ExecContext(ctx, ddl); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	log.Println("Database schema ensured.")
	return nil
}
