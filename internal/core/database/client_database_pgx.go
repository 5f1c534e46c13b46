package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/docuflow-ai/docuflow/internal/config"
	"github.com/docuflow-ai/docuflow/internal/core"
	"github.com/docuflow-ai/docuflow/internal/models"
)

type DatabaseClient struct {
	db *sql.DB
}

func NewDatabaseClient(ctx context.Context, cfg *config.Config) (core.DbClient, error) {
	if cfg == nil {
		return nil, fmt.Errorf("database client configuration is nil")
	}
	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is empty")
	}

	db, err := sql.Open("pgx", cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	// Sensible pool settings for an API service; adjust as needed.
	db.SetMaxOpenConns(20)
	db.SetMaxIdleConns(10)
	db.SetConnMaxLifetime(30 * time.Minute)
	db.SetConnMaxIdleTime(10 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping db: %w", err)
	}

	if err := EnsureBootstrapped(pingCtx, db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("bootstrap: %w", err)
	}

	return &DatabaseClient{db: db}, nil
}

func (c *DatabaseClient) Close() error {
	if c.db != nil {
		return c.db.Close()
	}
	return nil
}

// File records

func (c *DatabaseClient) CreateFileRecord(ctx context.Context, file *models.UploadedFile) error {
	if file == nil {
		return errors.New("nil file record")
	}
	const q = `
		INSERT INTO files (id, storage_key, title, mime_hint, created_at, updated_at)
		VALUES ($1, $2, $3, $4, now(), now())
	`
	_, err := c.db.ExecContext(ctx, q, file.ID, file.StorageKey, file.Title, file.MimeHint)
	return err
}

func (c *DatabaseClient) GetFileRecord(ctx context.Context, id string) (*models.UploadedFile, error) {
	const q = `
		SELECT id, storage_key, title, mime_hint,
		       COALESCE(page_content_url, ''), COALESCE(word_count, 0),
		       COALESCE(token_count_estimate, 0), created_at, updated_at
		FROM files WHERE id = $1
	`
	var f models.UploadedFile
	err := c.db.QueryRowContext(ctx, q, id).Scan(
		&f.ID, &f.StorageKey, &f.Title, &f.MimeHint,
		&f.PageContentURL, &f.WordCount, &f.TokenCountEstimate, &f.CreatedAt, &f.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &f, nil
}

// UpdateFileRecord attaches the page-content URL and counts produced by a
// conversion to an existing record and returns the updated row.
func (c *DatabaseClient) UpdateFileRecord(ctx context.Context, id string, pageContentURL string, wordCount, tokenCountEstimate int) (*models.UploadedFile, error) {
	const q = `
		UPDATE files
		SET page_content_url = $2, word_count = $3, token_count_estimate = $4, updated_at = now()
		WHERE id = $1
		RETURNING id, storage_key, title, mime_hint,
		          page_content_url, word_count, token_count_estimate, created_at, updated_at
	`
	var f models.UploadedFile
	err := c.db.QueryRowContext(ctx, q, id, pageContentURL, wordCount, tokenCountEstimate).Scan(
		&f.ID, &f.StorageKey, &f.Title, &f.MimeHint,
		&f.PageContentURL, &f.WordCount, &f.TokenCountEstimate, &f.CreatedAt, &f.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("file record not found: %s", id)
	}
	if err != nil {
		return nil, err
	}
	return &f, nil
}

// Workspaces

func (c *DatabaseClient) ListWorkspaces(ctx context.Context) ([]models.Workspace, error) {
	const q = `SELECT id, name, slug FROM workspaces ORDER BY id`
	rows, err := c.db.QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.Workspace
	for rows.Next() {
		var w models.Workspace
		if err := rows.Scan(&w.ID, &w.Name, &w.Slug); err != nil {
			return nil, err
		}
		out = append(out, w)
	}
	return out, rows.Err()
}

// RemoveWorkspaceDocuments deletes the association rows linking the given
// document paths to one workspace. Paths with no association are simply
// not matched; that is not an error.
func (c *DatabaseClient) RemoveWorkspaceDocuments(ctx context.Context, workspaceID int64, docPaths []string) error {
	if len(docPaths) == 0 {
		return nil
	}
	const q = `
		DELETE FROM workspace_documents
		WHERE workspace_id = $1 AND docpath = ANY($2)
	`
	_, err := c.db.ExecContext(ctx, q, workspaceID, docPaths)
	return err
}

// Folders

func (c *DatabaseClient) GetFolder(ctx context.Context, name string) (*models.Folder, error) {
	const q = `SELECT id, name FROM folders WHERE name = $1`
	var f models.Folder
	err := c.db.QueryRowContext(ctx, q, name).Scan(&f.ID, &f.Name)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &f, nil
}

func (c *DatabaseClient) DeleteFolder(ctx context.Context, name string) error {
	const q = `DELETE FROM folders WHERE name = $1`
	_, err := c.db.ExecContext(ctx, q, name)
	return err
}
