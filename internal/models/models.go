package models

import (
	"time"
)

// UploadedFile is the record of a managed upload, created by the upload
// handler before conversion. StorageKey prefixes every derived object key.
type UploadedFile struct {
	ID                 string    `db:"id" json:"id"`
	StorageKey         string    `db:"storage_key" json:"storage_key"`
	Title              string    `db:"title" json:"title"`
	MimeHint           string    `db:"mime_hint" json:"mime_hint"`
	PageContentURL     string    `db:"page_content_url" json:"page_content_url"`
	WordCount          int       `db:"word_count" json:"word_count"`
	TokenCountEstimate int       `db:"token_count_estimate" json:"token_count_estimate"`
	CreatedAt          time.Time `db:"created_at" json:"created_at"`
	UpdatedAt          time.Time `db:"updated_at" json:"updated_at"`
}

// NormalizedDocument is the uniform record produced by any converter variant,
// ready for downstream chunking and embedding.
type NormalizedDocument struct {
	ID                 string `json:"id"`
	Title              string `json:"title"`
	DocAuthor          string `json:"docAuthor"`
	Description        string `json:"description"`
	DocSource          string `json:"docSource"`
	ChunkSource        string `json:"chunkSource"`
	Published          string `json:"published"`
	WordCount          int    `json:"wordCount"`
	TokenCountEstimate int    `json:"token_count_estimate"`
	PageContent        string `json:"pageContent"`
	PageContentURL     string `json:"pageContentUrl,omitempty"`
}

// ChunkRecord is one pre-computed chunk inside a vector-cache entry.
type ChunkRecord struct {
	ID       string         `json:"id"`
	Values   []float64      `json:"values"`
	Metadata map[string]any `json:"metadata,omitempty"`
}

// Workspace is the minimal surface of a workspace this core needs:
// enough identity to remove document associations from it.
type Workspace struct {
	ID   int64  `db:"id" json:"id"`
	Name string `db:"name" json:"name"`
	Slug string `db:"slug" json:"slug"`
}

// WorkspaceAssociation links a workspace to a document path. Pinned and
// Watched are carried through but never interpreted by this core.
type WorkspaceAssociation struct {
	ID          int64  `db:"id" json:"id"`
	WorkspaceID int64  `db:"workspace_id" json:"workspace_id"`
	DocPath     string `db:"docpath" json:"docpath"`
	Pinned      bool   `db:"pinned" json:"pinned"`
	Watched     bool   `db:"watched" json:"watched"`
}

// Folder is the metadata record of a document-root subfolder.
type Folder struct {
	ID   int64  `db:"id" json:"id"`
	Name string `db:"name" json:"name"`
}
