package core

import (
	"context"
	"io"

	"github.com/docuflow-ai/docuflow/internal/models"
)

// DbClient defines all persistence operations this core consumes.
// It abstracts Postgres so higher layers never depend on a specific DB.
type DbClient interface {
	CreateFileRecord(ctx context.Context, file *models.UploadedFile) error
	GetFileRecord(ctx context.Context, id string) (*models.UploadedFile, error)
	UpdateFileRecord(ctx context.Context, id string, pageContentURL string, wordCount, tokenCountEstimate int) (*models.UploadedFile, error)

	ListWorkspaces(ctx context.Context) ([]models.Workspace, error)
	RemoveWorkspaceDocuments(ctx context.Context, workspaceID int64, docPaths []string) error

	GetFolder(ctx context.Context, name string) (*models.Folder, error)
	DeleteFolder(ctx context.Context, name string) error
}

// ObjectClient defines interactions with S3 or any object storage.
// It's abstract so you can replace AWS with MinIO, GCP, etc. easily.
type ObjectClient interface {
	UploadFile(ctx context.Context, bucket, key string, data []byte, contentType string) (url string, err error)
	DeleteFile(ctx context.Context, bucket, key string) error
	GetFile(ctx context.Context, bucket, key string) ([]byte, error)

	GetObjectReader(ctx context.Context, bucket, key string) (io.ReadCloser, error)
}

// TextDetector extracts text from an object already resident in the object
// store. Implementations decide between a single synchronous detection call
// and an asynchronous job by the shape of the object.
type TextDetector interface {
	DetectText(ctx context.Context, bucket, key string) (string, error)
}
