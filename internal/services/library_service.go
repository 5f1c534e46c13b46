package services

import (
	"context"
	"errors"

	"github.com/docuflow-ai/docuflow/internal/core/docstore"
	"github.com/docuflow-ai/docuflow/internal/core/purge"
	"github.com/docuflow-ai/docuflow/internal/core/vectorcache"
	"github.com/docuflow-ai/docuflow/internal/models"
)

// LibraryService exposes the local document library: browsing, cached
// vector lookups and purging.
type LibraryService struct {
	docs   *docstore.Store
	cache  *vectorcache.Cache
	purger *purge.Coordinator
}

func NewLibraryService(docs *docstore.Store, cache *vectorcache.Cache, purger *purge.Coordinator) *LibraryService {
	return &LibraryService{docs: docs, cache: cache, purger: purger}
}

// LocalFiles returns the document-root folder tree, annotated with whether
// each record has a cached vector entry.
func (s *LibraryService) LocalFiles() (*docstore.FolderEntry, error) {
	tree, err := s.docs.ViewLocalFiles()
	if err != nil {
		return nil, err
	}
	for fi := range tree.Items {
		folder := &tree.Items[fi]
		for di := range folder.Items {
			doc := &folder.Items[di]
			if doc.Fields == nil {
				doc.Fields = map[string]any{}
			}
			doc.Fields["cached"] = s.cache.Exists(folder.Name + "/" + doc.Name)
		}
	}
	return tree, nil
}

// DocumentData reads one stored document record; nil when absent. A bare
// filename with no folder prefix is searched across every folder.
func (s *LibraryService) DocumentData(relPath string) (map[string]any, error) {
	data, err := s.docs.FileData(relPath)
	if errors.Is(err, docstore.ErrInvalidPath) {
		return nil, nil
	}
	if err != nil || data != nil {
		return data, err
	}
	found, err := s.docs.FindDocument(relPath)
	if err != nil || found == "" {
		return nil, err
	}
	return s.docs.FileData(found)
}

// CachedVectorInformation returns the cached chunk set for a document, if
// any. Callers treat an unavailable cache the same as a miss.
func (s *LibraryService) CachedVectorInformation(relPath string) ([]models.ChunkRecord, bool, error) {
	return s.cache.Get(relPath)
}

// StoreVectorResult caches pre-chunked vector data for a document so a
// later re-embed can skip chunking entirely.
func (s *LibraryService) StoreVectorResult(relPath string, chunks []models.ChunkRecord) error {
	return s.cache.Put(relPath, chunks)
}

// PurgeDocument removes one document from every store.
func (s *LibraryService) PurgeDocument(ctx context.Context, relPath string) error {
	return s.purger.PurgeDocument(ctx, relPath)
}

// PurgeFolder removes a folder and its documents from every store.
func (s *LibraryService) PurgeFolder(ctx context.Context, folderName string) error {
	return s.purger.PurgeFolder(ctx, folderName)
}
