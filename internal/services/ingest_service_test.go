package services

import (
	"bytes"
	"context"
	"errors"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/docuflow-ai/docuflow/internal/core/converter"
	"github.com/docuflow-ai/docuflow/internal/core/docstore"
	"github.com/docuflow-ai/docuflow/internal/models"
)

type fakeObjectClient struct {
	objects map[string][]byte
}

func (f *fakeObjectClient) UploadFile(ctx context.Context, bucket, key string, data []byte, contentType string) (string, error) {
	f.objects[bucket+"/"+key] = data
	return "https://" + bucket + ".s3.test/" + key, nil
}

func (f *fakeObjectClient) DeleteFile(ctx context.Context, bucket, key string) error {
	delete(f.objects, bucket+"/"+key)
	return nil
}

func (f *fakeObjectClient) GetFile(ctx context.Context, bucket, key string) ([]byte, error) {
	data, ok := f.objects[bucket+"/"+key]
	if !ok {
		return nil, errors.New("no such object")
	}
	return data, nil
}

func (f *fakeObjectClient) GetObjectReader(ctx context.Context, bucket, key string) (io.ReadCloser, error) {
	data, err := f.GetFile(ctx, bucket, key)
	if err != nil {
		return nil, err
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

type fakeDbClient struct {
	records map[string]*models.UploadedFile
}

func (f *fakeDbClient) CreateFileRecord(ctx context.Context, file *models.UploadedFile) error {
	f.records[file.ID] = file
	return nil
}

func (f *fakeDbClient) GetFileRecord(ctx context.Context, id string) (*models.UploadedFile, error) {
	return f.records[id], nil
}

func (f *fakeDbClient) UpdateFileRecord(ctx context.Context, id, url string, words, tokens int) (*models.UploadedFile, error) {
	rec, ok := f.records[id]
	if !ok {
		return nil, errors.New("file record not found")
	}
	rec.PageContentURL = url
	rec.WordCount = words
	rec.TokenCountEstimate = tokens
	return rec, nil
}

func (f *fakeDbClient) ListWorkspaces(ctx context.Context) ([]models.Workspace, error) {
	return nil, nil
}

func (f *fakeDbClient) RemoveWorkspaceDocuments(ctx context.Context, workspaceID int64, docPaths []string) error {
	return nil
}

func (f *fakeDbClient) GetFolder(ctx context.Context, name string) (*models.Folder, error) {
	return nil, nil
}

func (f *fakeDbClient) DeleteFolder(ctx context.Context, name string) error { return nil }

func newTestIngestService(t *testing.T) (*IngestService, *fakeObjectClient, *fakeDbClient) {
	t.Helper()
	obj := &fakeObjectClient{objects: map[string][]byte{}}
	db := &fakeDbClient{records: map[string]*models.UploadedFile{}}
	svc := NewIngestService(db, obj, converter.New(nil), docstore.New(t.TempDir()), "docs")
	return svc, obj, db
}

func TestUploadAndProcess_TextFile(t *testing.T) {
	svc, obj, db := newTestIngestService(t)

	res, record, err := svc.UploadAndProcess(context.Background(), "notes.txt", "text/plain", []byte("hello ingest world"))
	require.NoError(t, err)
	require.NotNil(t, record)
	require.True(t, res.Success, res.Reason)

	// Original stored under "{storageKey}-{title}".
	assert.Contains(t, obj.objects, "docs/"+record.StorageKey+"-notes.txt")
	// Extracted text stored under pageContents/.
	assert.Contains(t, obj.objects, "docs/pageContents/"+record.StorageKey+"-notes.txt")
	// Record updated in place with counts.
	assert.Equal(t, 3, db.records[record.ID].WordCount)
}

func TestUploadAndProcess_UnsupportedExtensionLeavesRecord(t *testing.T) {
	svc, _, db := newTestIngestService(t)

	res, record, err := svc.UploadAndProcess(context.Background(), "binary.exe", "application/octet-stream", []byte{0x4D})
	require.NoError(t, err)
	assert.False(t, res.Success)
	assert.Contains(t, res.Reason, ".exe")
	// The stored upload and its record remain; only conversion failed.
	assert.Contains(t, db.records, record.ID)
}

func TestProcessUpload_UnknownIDIsError(t *testing.T) {
	svc, _, _ := newTestIngestService(t)

	_, err := svc.ProcessUpload(context.Background(), "no-such-id")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not found")
}
