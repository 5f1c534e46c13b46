// Package purge removes a document or a whole folder from every store that
// references it: the on-disk source, the vector cache and each workspace's
// association list. Containment checks are the only hard gate; once past
// them, individual removals are best effort and independent so one failing
// store never strands the others.
package purge

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/docuflow-ai/docuflow/internal/core"
	"github.com/docuflow-ai/docuflow/internal/core/docstore"
	"github.com/docuflow-ai/docuflow/internal/core/vectorcache"
)

// Coordinator ties the three stores together for deletions.
type Coordinator struct {
	docs  *docstore.Store
	cache *vectorcache.Cache
	db    core.DbClient
}

func NewCoordinator(docs *docstore.Store, cache *vectorcache.Cache, db core.DbClient) *Coordinator {
	return &Coordinator{docs: docs, cache: cache, db: db}
}

// PurgeDocument removes one document from all three stores. A path that
// fails normalization or containment is a silent no-op: nothing is deleted
// anywhere. Removal errors are collected, not short-circuited.
func (c *Coordinator) PurgeDocument(ctx context.Context, docPath string) error {
	normalized, err := docstore.NormalizeRelPath(docPath)
	if err != nil {
		return nil
	}

	var errs []error
	if err := c.cache.Purge(normalized); err != nil {
		errs = append(errs, err)
	}
	if err := c.docs.PurgeSource(normalized); err != nil {
		errs = append(errs, err)
	}
	errs = append(errs, c.removeAssociations(ctx, []string{normalized})...)
	return errors.Join(errs...)
}

// PurgeFolder removes a folder's documents from the cache and every
// workspace, then deletes the folder subtree. The custom-documents folder's
// on-disk contents are never removed, though its metadata record still is.
// A folder that does not resolve to a real, contained directory is a silent
// no-op on disk.
func (c *Coordinator) PurgeFolder(ctx context.Context, folderName string) error {
	normalized, err := docstore.NormalizeRelPath(folderName)
	if err != nil {
		return nil
	}

	var errs []error
	if normalized == docstore.CustomDocumentsFolder {
		log.Printf("Skipping deletion of %q folder.", docstore.CustomDocumentsFolder)
	}
	// The metadata record goes regardless of on-disk protection.
	if err := c.deleteFolderRecord(ctx, normalized); err != nil {
		errs = append(errs, err)
	}

	docPaths, err := c.docs.ListFolderDocuments(normalized)
	if err != nil {
		errs = append(errs, err)
	}
	if len(docPaths) == 0 && len(errs) == 0 {
		// Protected, missing or empty folder: nothing on disk to clean up.
		if _, removable := c.docs.RemovableFolder(normalized); !removable {
			return nil
		}
	}

	// Per-document cache purges and per-workspace association removals are
	// independent of each other, so they run concurrently. Errors are
	// collected rather than returned so one failing removal never cancels
	// the rest, and the source subtree goes away only after every cleanup
	// has finished.
	var (
		g  errgroup.Group
		mu sync.Mutex
	)
	collect := func(err error) {
		if err != nil {
			mu.Lock()
			errs = append(errs, err)
			mu.Unlock()
		}
	}
	for _, docPath := range docPaths {
		docPath := docPath
		g.Go(func() error {
			collect(c.cache.Purge(docPath))
			return nil
		})
	}
	g.Go(func() error {
		for _, err := range c.removeAssociations(ctx, docPaths) {
			collect(err)
		}
		return nil
	})
	_ = g.Wait()

	if err := c.docs.RemoveFolderTree(normalized); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// removeAssociations drops the given document paths from every known
// workspace, collecting per-workspace errors.
func (c *Coordinator) removeAssociations(ctx context.Context, docPaths []string) []error {
	if len(docPaths) == 0 {
		return nil
	}
	workspaces, err := c.db.ListWorkspaces(ctx)
	if err != nil {
		return []error{fmt.Errorf("list workspaces: %w", err)}
	}

	var errs []error
	for _, ws := range workspaces {
		if err := c.db.RemoveWorkspaceDocuments(ctx, ws.ID, docPaths); err != nil {
			errs = append(errs, fmt.Errorf("remove documents from workspace %s: %w", ws.Slug, err))
		}
	}
	return errs
}

func (c *Coordinator) deleteFolderRecord(ctx context.Context, name string) error {
	folder, err := c.db.GetFolder(ctx, name)
	if err != nil {
		return fmt.Errorf("look up folder record: %w", err)
	}
	if folder == nil {
		return nil
	}
	if err := c.db.DeleteFolder(ctx, name); err != nil {
		return fmt.Errorf("delete folder record: %w", err)
	}
	log.Printf("Folder %q deleted.", name)
	return nil
}
