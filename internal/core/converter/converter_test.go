package converter

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/docuflow-ai/docuflow/internal/core/docstore"
	"github.com/docuflow-ai/docuflow/internal/models"
)

// fakeObjectClient keeps objects in a map keyed by "bucket/key".
type fakeObjectClient struct {
	objects map[string][]byte
	deleted []string
	getErr  error
}

func newFakeObjectClient() *fakeObjectClient {
	return &fakeObjectClient{objects: map[string][]byte{}}
}

func (f *fakeObjectClient) put(bucket, key string, data []byte) {
	f.objects[bucket+"/"+key] = data
}

func (f *fakeObjectClient) UploadFile(ctx context.Context, bucket, key string, data []byte, contentType string) (string, error) {
	f.objects[bucket+"/"+key] = data
	return fmt.Sprintf("https://%s.s3.test/%s", bucket, key), nil
}

func (f *fakeObjectClient) DeleteFile(ctx context.Context, bucket, key string) error {
	f.deleted = append(f.deleted, bucket+"/"+key)
	delete(f.objects, bucket+"/"+key)
	return nil
}

func (f *fakeObjectClient) GetFile(ctx context.Context, bucket, key string) ([]byte, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
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

// fakeDbClient records file-record updates; the rest of core.DbClient is
// inert here.
type fakeDbClient struct {
	records map[string]*models.UploadedFile
}

func newFakeDbClient(files ...models.UploadedFile) *fakeDbClient {
	db := &fakeDbClient{records: map[string]*models.UploadedFile{}}
	for i := range files {
		db.records[files[i].ID] = &files[i]
	}
	return db
}

func (f *fakeDbClient) CreateFileRecord(ctx context.Context, file *models.UploadedFile) error {
	f.records[file.ID] = file
	return nil
}

func (f *fakeDbClient) GetFileRecord(ctx context.Context, id string) (*models.UploadedFile, error) {
	return f.records[id], nil
}

func (f *fakeDbClient) UpdateFileRecord(ctx context.Context, id, pageContentURL string, wordCount, tokenCountEstimate int) (*models.UploadedFile, error) {
	rec, ok := f.records[id]
	if !ok {
		return nil, errors.New("file record not found")
	}
	rec.PageContentURL = pageContentURL
	rec.WordCount = wordCount
	rec.TokenCountEstimate = tokenCountEstimate
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

// fakeDetector scripts the text-detection outcome.
type fakeDetector struct {
	text  string
	err   error
	calls int
}

func (f *fakeDetector) DetectText(ctx context.Context, bucket, key string) (string, error) {
	f.calls++
	return f.text, f.err
}

func uploadFixture(title string) models.UploadedFile {
	return models.UploadedFile{ID: "file-1", StorageKey: "sk123", Title: title}
}

func TestDispatch_NoExtension(t *testing.T) {
	conv := New(nil)
	job := NewLocalJob("/tmp/README", "", docstore.New(t.TempDir()))

	res := conv.Dispatch(context.Background(), job)
	assert.False(t, res.Success)
	assert.Contains(t, res.Reason, "No file extension")
	assert.Empty(t, res.Documents)
}

func TestDispatch_UnsupportedExtension(t *testing.T) {
	conv := New(nil)
	job := NewLocalJob("/tmp/archive.xyz", "", docstore.New(t.TempDir()))

	res := conv.Dispatch(context.Background(), job)
	assert.False(t, res.Success)
	assert.Contains(t, res.Reason, ".xyz")
	assert.Contains(t, res.Reason, "not supported")
	assert.Empty(t, res.Documents)
}

func TestDispatch_ExtensionCaseInsensitive(t *testing.T) {
	obj := newFakeObjectClient()
	file := uploadFixture("NOTES.TXT")
	obj.put("docs", "sk123-NOTES.TXT", []byte("hello world"))
	db := newFakeDbClient(file)
	conv := New(nil)

	res := conv.Dispatch(context.Background(), NewUploadJob(file, obj, db, "docs"))
	require.True(t, res.Success, res.Reason)
}

func TestConvertText_ZeroLengthFileSucceeds(t *testing.T) {
	obj := newFakeObjectClient()
	file := uploadFixture("empty.txt")
	obj.put("docs", "sk123-empty.txt", nil)
	db := newFakeDbClient(file)
	conv := New(nil)

	res := conv.Dispatch(context.Background(), NewUploadJob(file, obj, db, "docs"))
	require.True(t, res.Success, res.Reason)
	require.Len(t, res.Documents, 1)
	assert.Zero(t, res.Documents[0].WordCount)
	assert.Empty(t, res.Documents[0].PageContent)
}

func TestConvertText_PersistsCountsAndPageContent(t *testing.T) {
	obj := newFakeObjectClient()
	file := uploadFixture("notes.txt")
	obj.put("docs", "sk123-notes.txt", []byte("alpha bravo charlie"))
	db := newFakeDbClient(file)
	conv := New(nil)

	res := conv.Dispatch(context.Background(), NewUploadJob(file, obj, db, "docs"))
	require.True(t, res.Success, res.Reason)
	require.Len(t, res.Documents, 1)

	doc := res.Documents[0]
	assert.Equal(t, 3, doc.WordCount)
	assert.Equal(t, "alpha bravo charlie", doc.PageContent)
	assert.Equal(t, "sk123-notes.txt", doc.ChunkSource)

	// Extracted text was persisted alongside the original.
	assert.Equal(t, []byte("alpha bravo charlie"), obj.objects["docs/pageContents/sk123-notes.txt"])

	// The existing record was updated in place.
	rec := db.records["file-1"]
	assert.Equal(t, 3, rec.WordCount)
	assert.NotEmpty(t, rec.PageContentURL)
}

func TestConvertOffice_EmptyExtractionFailsAndDiscardsSource(t *testing.T) {
	obj := newFakeObjectClient()
	file := uploadFixture("deck.pptx")
	obj.put("docs", "sk123-deck.pptx", []byte("not really a pptx"))
	db := newFakeDbClient(file)
	conv := New(nil)

	res := conv.Dispatch(context.Background(), NewUploadJob(file, obj, db, "docs"))
	assert.False(t, res.Success)
	assert.Contains(t, res.Reason, "No text content found in deck.pptx")
	assert.Empty(t, res.Documents)
	assert.Contains(t, obj.deleted, "docs/sk123-deck.pptx")
}

func TestConvertOCR_Success(t *testing.T) {
	obj := newFakeObjectClient()
	file := uploadFixture("scan.png")
	obj.put("docs", "sk123-scan.png", []byte{0x89, 0x50})
	db := newFakeDbClient(file)
	detector := &fakeDetector{text: "detected line one\ndetected line two"}
	conv := New(detector)

	res := conv.Dispatch(context.Background(), NewUploadJob(file, obj, db, "docs"))
	require.True(t, res.Success, res.Reason)
	assert.Equal(t, 1, detector.calls)
	assert.Equal(t, 6, res.Documents[0].WordCount)
}

func TestConvertOCR_DetectionFailureDiscardsSource(t *testing.T) {
	obj := newFakeObjectClient()
	file := uploadFixture("report.pdf")
	obj.put("docs", "sk123-report.pdf", []byte("%PDF"))
	db := newFakeDbClient(file)
	conv := New(&fakeDetector{err: errors.New("job failed")})

	res := conv.Dispatch(context.Background(), NewUploadJob(file, obj, db, "docs"))
	assert.False(t, res.Success)
	assert.Empty(t, res.Documents)
	assert.Contains(t, obj.deleted, "docs/sk123-report.pdf")
}

func TestConvertOCR_EmptyTextDiscardsSource(t *testing.T) {
	obj := newFakeObjectClient()
	file := uploadFixture("blank.jpg")
	obj.put("docs", "sk123-blank.jpg", []byte{0xFF})
	db := newFakeDbClient(file)
	conv := New(&fakeDetector{text: "   \n"})

	res := conv.Dispatch(context.Background(), NewUploadJob(file, obj, db, "docs"))
	assert.False(t, res.Success)
	assert.Contains(t, res.Reason, "No text content found")
	assert.Contains(t, obj.deleted, "docs/sk123-blank.jpg")
}

func TestConvertOCR_MissingDetectorIsConfigFailure(t *testing.T) {
	obj := newFakeObjectClient()
	file := uploadFixture("scan.png")
	db := newFakeDbClient(file)
	conv := New(nil)

	res := conv.Dispatch(context.Background(), NewUploadJob(file, obj, db, "docs"))
	assert.False(t, res.Success)
	assert.Contains(t, res.Reason, "Missing environment variables")
}

func TestConvertOCR_LocalDropRequiresObjectStorage(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "scan.png")
	require.NoError(t, os.WriteFile(path, []byte{0x89}, 0o644))
	conv := New(&fakeDetector{text: "ignored"})

	res := conv.Dispatch(context.Background(), NewLocalJob(path, "", docstore.New(t.TempDir())))
	assert.False(t, res.Success)
	assert.Contains(t, res.Reason, "object storage")
}

func TestLocalDrop_TextFileCreatesDocumentRecord(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "field notes.txt")
	require.NoError(t, os.WriteFile(path, []byte("two words"), 0o644))

	store := docstore.New(t.TempDir())
	conv := New(nil)

	res := conv.Dispatch(context.Background(), NewLocalJob(path, "", store))
	require.True(t, res.Success, res.Reason)
	require.Len(t, res.Documents, 1)

	doc := res.Documents[0]
	assert.NotEmpty(t, doc.ID)
	assert.Equal(t, "field notes.txt", doc.Title)
	assert.Equal(t, 2, doc.WordCount)
	assert.True(t, strings.HasPrefix(doc.ChunkSource, "custom-documents/field-notes-txt-"), doc.ChunkSource)

	// The record is readable back from the document root.
	data, err := store.FileData(doc.ChunkSource)
	require.NoError(t, err)
	require.NotNil(t, data)
	assert.Equal(t, "two words", data["pageContent"])
}

func TestEndToEnd_PDFUploadThroughOCR(t *testing.T) {
	// Three result pages concatenated in order by the detection layer.
	extracted := "page one text page two text page three text"

	obj := newFakeObjectClient()
	file := uploadFixture("report.pdf")
	obj.put("docs", "sk123-report.pdf", []byte("%PDF"))
	db := newFakeDbClient(file)
	conv := New(&fakeDetector{text: extracted})

	res := conv.Dispatch(context.Background(), NewUploadJob(file, obj, db, "docs"))
	require.True(t, res.Success, res.Reason)
	require.Len(t, res.Documents, 1)

	doc := res.Documents[0]
	assert.Equal(t, len(strings.Fields(extracted)), doc.WordCount)
	assert.Equal(t, extracted, doc.PageContent)
	assert.Equal(t, []byte(extracted), obj.objects["docs/pageContents/sk123-report.txt"])
}
