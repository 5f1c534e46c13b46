package services

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/google/uuid"

	"github.com/docuflow-ai/docuflow/internal/core"
	"github.com/docuflow-ai/docuflow/internal/core/converter"
	"github.com/docuflow-ai/docuflow/internal/core/docstore"
	"github.com/docuflow-ai/docuflow/internal/models"
)

// IngestService is the managed-upload entry point into conversion: it
// stores the raw upload, registers its file record, and dispatches the
// matching converter variant.
type IngestService struct {
	db     core.DbClient
	obj    core.ObjectClient
	conv   *converter.Converter
	docs   *docstore.Store
	bucket string
}

func NewIngestService(db core.DbClient, obj core.ObjectClient, conv *converter.Converter, docs *docstore.Store, bucket string) *IngestService {
	return &IngestService{db: db, obj: obj, conv: conv, docs: docs, bucket: bucket}
}

// UploadAndProcess stores data under "{storageKey}-{title}", creates the
// upload record, and converts it. Conversion failures are reported in the
// Result, not as an error.
func (s *IngestService) UploadAndProcess(ctx context.Context, title, mimeHint string, data []byte) (converter.Result, *models.UploadedFile, error) {
	file := &models.UploadedFile{
		ID:         uuid.NewString(),
		StorageKey: uuid.NewString(),
		Title:      filepath.Base(title),
		MimeHint:   mimeHint,
	}

	key := file.StorageKey + "-" + file.Title
	if _, err := s.obj.UploadFile(ctx, s.bucket, key, data, mimeHint); err != nil {
		return converter.Result{}, nil, fmt.Errorf("store upload: %w", err)
	}
	if err := s.db.CreateFileRecord(ctx, file); err != nil {
		return converter.Result{}, nil, fmt.Errorf("create file record: %w", err)
	}

	res := s.conv.Dispatch(ctx, converter.NewUploadJob(*file, s.obj, s.db, s.bucket))
	return res, file, nil
}

// ProcessUpload converts a previously stored upload by record ID.
func (s *IngestService) ProcessUpload(ctx context.Context, id string) (converter.Result, error) {
	file, err := s.db.GetFileRecord(ctx, id)
	if err != nil {
		return converter.Result{}, fmt.Errorf("load file record: %w", err)
	}
	if file == nil {
		return converter.Result{}, fmt.Errorf("file record not found: %s", id)
	}
	return s.conv.Dispatch(ctx, converter.NewUploadJob(*file, s.obj, s.db, s.bucket)), nil
}

// ProcessLocalFile converts a raw filesystem input with no prior record,
// persisting the normalized document into the given document-root folder.
func (s *IngestService) ProcessLocalFile(ctx context.Context, path, folder string) converter.Result {
	return s.conv.Dispatch(ctx, converter.NewLocalJob(path, folder, s.docs))
}
