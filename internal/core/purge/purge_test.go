package purge

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/docuflow-ai/docuflow/internal/core/docstore"
	"github.com/docuflow-ai/docuflow/internal/core/vectorcache"
	"github.com/docuflow-ai/docuflow/internal/models"
)

// fakeDbClient tracks workspace associations in memory.
type fakeDbClient struct {
	workspaces   []models.Workspace
	associations map[int64][]string
	folders      map[string]*models.Folder
	listErr      error
}

func newFakeDbClient(workspaces ...models.Workspace) *fakeDbClient {
	return &fakeDbClient{
		workspaces:   workspaces,
		associations: map[int64][]string{},
		folders:      map[string]*models.Folder{},
	}
}

func (f *fakeDbClient) associate(workspaceID int64, docPaths ...string) {
	f.associations[workspaceID] = append(f.associations[workspaceID], docPaths...)
}

func (f *fakeDbClient) CreateFileRecord(ctx context.Context, file *models.UploadedFile) error {
	return nil
}

func (f *fakeDbClient) GetFileRecord(ctx context.Context, id string) (*models.UploadedFile, error) {
	return nil, nil
}

func (f *fakeDbClient) UpdateFileRecord(ctx context.Context, id, url string, words, tokens int) (*models.UploadedFile, error) {
	return nil, nil
}

func (f *fakeDbClient) ListWorkspaces(ctx context.Context) ([]models.Workspace, error) {
	return f.workspaces, f.listErr
}

func (f *fakeDbClient) RemoveWorkspaceDocuments(ctx context.Context, workspaceID int64, docPaths []string) error {
	remaining := f.associations[workspaceID][:0]
	for _, existing := range f.associations[workspaceID] {
		keep := true
		for _, removed := range docPaths {
			if existing == removed {
				keep = false
				break
			}
		}
		if keep {
			remaining = append(remaining, existing)
		}
	}
	f.associations[workspaceID] = remaining
	return nil
}

func (f *fakeDbClient) GetFolder(ctx context.Context, name string) (*models.Folder, error) {
	return f.folders[name], nil
}

func (f *fakeDbClient) DeleteFolder(ctx context.Context, name string) error {
	delete(f.folders, name)
	return nil
}

type fixture struct {
	docs  *docstore.Store
	cache *vectorcache.Cache
	db    *fakeDbClient
	coord *Coordinator
}

func newFixture(t *testing.T, workspaces ...models.Workspace) *fixture {
	t.Helper()
	db := newFakeDbClient(workspaces...)
	docs := docstore.New(filepath.Join(t.TempDir(), "documents"))
	cache := vectorcache.New(filepath.Join(t.TempDir(), "vector-cache"))
	return &fixture{
		docs:  docs,
		cache: cache,
		db:    db,
		coord: NewCoordinator(docs, cache, db),
	}
}

func (f *fixture) addDocument(t *testing.T, folder, basename string) string {
	t.Helper()
	relPath, err := f.docs.WriteDocument(&models.NormalizedDocument{ID: basename}, folder, basename)
	require.NoError(t, err)
	require.NoError(t, f.cache.Put(relPath, []models.ChunkRecord{{ID: basename + "-chunk"}}))
	return relPath
}

func TestPurgeDocument_RemovesAllThreeStores(t *testing.T) {
	ws1 := models.Workspace{ID: 1, Slug: "team-a"}
	ws2 := models.Workspace{ID: 2, Slug: "team-b"}
	f := newFixture(t, ws1, ws2)

	relPath := f.addDocument(t, "custom-documents", "notes-txt")
	f.db.associate(1, relPath, "custom-documents/other.json")
	f.db.associate(2, relPath)

	require.NoError(t, f.coord.PurgeDocument(context.Background(), relPath))

	assert.False(t, f.cache.Exists(relPath))
	data, err := f.docs.FileData(relPath)
	require.NoError(t, err)
	assert.Nil(t, data, "source record must be gone")
	assert.Equal(t, []string{"custom-documents/other.json"}, f.db.associations[1])
	assert.Empty(t, f.db.associations[2])
}

func TestPurgeDocument_OutOfRootPathIsNoOp(t *testing.T) {
	f := newFixture(t, models.Workspace{ID: 1, Slug: "team-a"})
	relPath := f.addDocument(t, "uploads", "report")
	f.db.associate(1, relPath)

	require.NoError(t, f.coord.PurgeDocument(context.Background(), ".."))
	require.NoError(t, f.coord.PurgeDocument(context.Background(), "   "))

	// Nothing was touched.
	assert.True(t, f.cache.Exists(relPath))
	assert.Equal(t, []string{relPath}, f.db.associations[1])
}

func TestPurgeDocument_MissingTargetIsSuccess(t *testing.T) {
	f := newFixture(t, models.Workspace{ID: 1, Slug: "team-a"})
	require.NoError(t, f.coord.PurgeDocument(context.Background(), "uploads/never-existed.json"))
}

func TestPurgeFolder_RemovesDocumentsCacheAndAssociations(t *testing.T) {
	ws := models.Workspace{ID: 1, Slug: "team-a"}
	f := newFixture(t, ws)

	a := f.addDocument(t, "uploads", "a")
	b := f.addDocument(t, "uploads", "b")
	keep := f.addDocument(t, "archive", "keep")
	f.db.associate(1, a, b, keep)
	f.db.folders["uploads"] = &models.Folder{ID: 7, Name: "uploads"}

	require.NoError(t, f.coord.PurgeFolder(context.Background(), "uploads"))

	assert.NoDirExists(t, filepath.Join(f.docs.Root(), "uploads"))
	assert.False(t, f.cache.Exists(a))
	assert.False(t, f.cache.Exists(b))
	assert.True(t, f.cache.Exists(keep), "other folders untouched")
	assert.Equal(t, []string{keep}, f.db.associations[1])
	assert.NotContains(t, f.db.folders, "uploads")
}

func TestPurgeFolder_CustomDocumentsDiskIsProtected(t *testing.T) {
	f := newFixture(t, models.Workspace{ID: 1, Slug: "team-a"})
	relPath := f.addDocument(t, docstore.CustomDocumentsFolder, "precious")
	f.db.associate(1, relPath)
	f.db.folders[docstore.CustomDocumentsFolder] = &models.Folder{ID: 1, Name: docstore.CustomDocumentsFolder}

	require.NoError(t, f.coord.PurgeFolder(context.Background(), docstore.CustomDocumentsFolder))

	// On-disk contents and downstream references survive; only the
	// metadata record is deleted.
	assert.DirExists(t, filepath.Join(f.docs.Root(), docstore.CustomDocumentsFolder))
	data, err := f.docs.FileData(relPath)
	require.NoError(t, err)
	assert.NotNil(t, data)
	assert.True(t, f.cache.Exists(relPath))
	assert.Equal(t, []string{relPath}, f.db.associations[1])
	assert.NotContains(t, f.db.folders, docstore.CustomDocumentsFolder)
}

func TestPurgeFolder_MissingFolderIsNoOp(t *testing.T) {
	f := newFixture(t, models.Workspace{ID: 1, Slug: "team-a"})
	require.NoError(t, f.coord.PurgeFolder(context.Background(), "never-existed"))
	require.NoError(t, f.coord.PurgeFolder(context.Background(), "..")) // invalid
}

func TestPurgeFolder_SubtreeRemovedEvenWhenFolderRecordAbsent(t *testing.T) {
	f := newFixture(t)
	relPath := f.addDocument(t, "scratch", "tmp")

	require.NoError(t, f.coord.PurgeFolder(context.Background(), "scratch"))
	assert.NoDirExists(t, filepath.Join(f.docs.Root(), "scratch"))
	assert.False(t, f.cache.Exists(relPath))
}

func TestPurgeFolder_DiskOnlyCheckDoesNotTouchFiles(t *testing.T) {
	// A plain file (not a directory) with the folder's name is not removable.
	f := newFixture(t)
	filePath := filepath.Join(f.docs.Root(), "not-a-folder")
	require.NoError(t, os.MkdirAll(f.docs.Root(), 0o755))
	require.NoError(t, os.WriteFile(filePath, []byte("x"), 0o644))

	require.NoError(t, f.coord.PurgeFolder(context.Background(), "not-a-folder"))
	assert.FileExists(t, filePath)
}
