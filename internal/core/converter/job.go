package converter

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/gosimple/slug"

	"github.com/docuflow-ai/docuflow/internal/core"
	"github.com/docuflow-ai/docuflow/internal/core/docstore"
	objectclient "github.com/docuflow-ai/docuflow/internal/core/object-client"
	"github.com/docuflow-ai/docuflow/internal/core/tokenizer"
	"github.com/docuflow-ai/docuflow/internal/models"
)

// uploadJob converts a managed upload: the source lives in the object store
// under its storage key and an UploadedFile record already exists. Persisting
// uploads the extracted text next to the original and updates that record in
// place.
type uploadJob struct {
	file   models.UploadedFile
	obj    core.ObjectClient
	db     core.DbClient
	bucket string
}

// NewUploadJob builds the conversion job for a previously-registered upload.
func NewUploadJob(file models.UploadedFile, obj core.ObjectClient, db core.DbClient, bucket string) Job {
	return &uploadJob{file: file, obj: obj, db: db, bucket: bucket}
}

func (j *uploadJob) Filename() string { return j.file.Title }

func (j *uploadJob) Identifier() string { return objectclient.OriginalKey(j.file) }

func (j *uploadJob) Read(ctx context.Context) ([]byte, error) {
	return j.obj.GetFile(ctx, j.bucket, objectclient.OriginalKey(j.file))
}

func (j *uploadJob) Discard(ctx context.Context) {
	key := objectclient.OriginalKey(j.file)
	if err := j.obj.DeleteFile(ctx, j.bucket, key); err != nil {
		log.Printf("converter: could not discard unusable upload %s: %v", key, err)
	}
}

func (j *uploadJob) RemoteObject() (string, string, bool) {
	return j.bucket, objectclient.OriginalKey(j.file), true
}

func (j *uploadJob) Persist(ctx context.Context, text string) (models.NormalizedDocument, error) {
	url, err := j.obj.UploadFile(ctx, j.bucket, objectclient.PageContentKey(j.file), []byte(text), "text/plain")
	if err != nil {
		return models.NormalizedDocument{}, fmt.Errorf("upload page content: %w", err)
	}

	words := tokenizer.WordCount(text)
	tokens := tokenizer.Estimate(text)
	updated, err := j.db.UpdateFileRecord(ctx, j.file.ID, url, words, tokens)
	if err != nil {
		return models.NormalizedDocument{}, fmt.Errorf("update file record: %w", err)
	}

	return models.NormalizedDocument{
		ID:                 updated.ID,
		Title:              updated.Title,
		DocSource:          "file uploaded by the user",
		ChunkSource:        j.Identifier(),
		WordCount:          updated.WordCount,
		TokenCountEstimate: updated.TokenCountEstimate,
		PageContent:        text,
		PageContentURL:     updated.PageContentURL,
	}, nil
}

// localJob converts a directly-dropped local file: no prior record exists,
// so persisting creates a fresh normalized document in the document root.
type localJob struct {
	path   string
	folder string
	store  *docstore.Store
}

// NewLocalJob builds the conversion job for a raw filesystem input. folder
// selects the document-root subfolder; empty means custom-documents.
func NewLocalJob(path, folder string, store *docstore.Store) Job {
	return &localJob{path: path, folder: folder, store: store}
}

func (j *localJob) Filename() string { return filepath.Base(j.path) }

func (j *localJob) Identifier() string { return filepath.ToSlash(j.path) }

func (j *localJob) Read(ctx context.Context) ([]byte, error) {
	return os.ReadFile(j.path)
}

func (j *localJob) Discard(ctx context.Context) {
	if err := os.Remove(j.path); err != nil {
		log.Printf("converter: could not discard unusable file %s: %v", j.path, err)
	}
}

func (j *localJob) RemoteObject() (string, string, bool) { return "", "", false }

func (j *localJob) Persist(ctx context.Context, text string) (models.NormalizedDocument, error) {
	id := uuid.NewString()
	doc := models.NormalizedDocument{
		ID:                 id,
		Title:              j.Filename(),
		DocAuthor:          "no author found",
		Description:        "No description found.",
		DocSource:          "file uploaded by the user",
		Published:          createdDate(j.path),
		WordCount:          tokenizer.WordCount(text),
		TokenCountEstimate: tokenizer.Estimate(text),
		PageContent:        text,
	}

	folder := j.folder
	if folder == "" {
		folder = docstore.CustomDocumentsFolder
	}
	basename := slug.Make(j.Filename()) + "-" + id
	doc.ChunkSource = filepath.ToSlash(filepath.Join(folder, basename+".json"))

	if _, err := j.store.WriteDocument(&doc, folder, basename); err != nil {
		return models.NormalizedDocument{}, fmt.Errorf("write document record: %w", err)
	}
	return doc, nil
}

// createdDate reports the source file's modification time; "unknown" when
// the file cannot be examined.
func createdDate(path string) string {
	info, err := os.Stat(path)
	if err != nil {
		return "unknown"
	}
	return info.ModTime().Format(time.RFC3339)
}
