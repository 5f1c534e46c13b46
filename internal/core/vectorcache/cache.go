// Package vectorcache is a content-addressed store of previously computed
// chunk data. Entries are keyed by the digest of a document identifier and
// persisted as one JSON file each, so a document that was already embedded
// never needs to be re-chunked.
package vectorcache

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log"
	"os"
	"path/filepath"

	"github.com/docuflow-ai/docuflow/internal/core/digest"
	"github.com/docuflow-ai/docuflow/internal/models"
)

// Cache is a flat directory of {digest}.json entries.
type Cache struct {
	root string
}

func New(root string) *Cache {
	return &Cache{root: root}
}

func (c *Cache) entryPath(identifier string) string {
	return filepath.Join(c.root, digest.ForSource(identifier)+".json")
}

// Exists reports whether a complete entry is cached for the identifier.
// A missing entry is never an error.
func (c *Cache) Exists(identifier string) bool {
	info, err := os.Stat(c.entryPath(identifier))
	return err == nil && info.Mode().IsRegular()
}

// Get returns the cached chunk set for the identifier, or ok=false when
// no entry exists. A present entry is always complete: Put never leaves a
// partially-written file behind.
func (c *Cache) Get(identifier string) ([]models.ChunkRecord, bool, error) {
	raw, err := os.ReadFile(c.entryPath(identifier))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("vector cache read: %w", err)
	}

	var chunks []models.ChunkRecord
	if err := json.Unmarshal(raw, &chunks); err != nil {
		return nil, false, fmt.Errorf("vector cache decode: %w", err)
	}
	return chunks, true, nil
}

// Put writes the entry as a single atomic unit. The chunks are staged in a
// temp file inside the cache root and renamed into place, so readers observe
// either the old entry or the new one, never a partial write.
func (c *Cache) Put(identifier string, chunks []models.ChunkRecord) error {
	if err := os.MkdirAll(c.root, 0o755); err != nil {
		return fmt.Errorf("vector cache mkdir: %w", err)
	}

	raw, err := json.Marshal(chunks)
	if err != nil {
		return fmt.Errorf("vector cache encode: %w", err)
	}

	tmp, err := os.CreateTemp(c.root, ".cache-*")
	if err != nil {
		return fmt.Errorf("vector cache temp: %w", err)
	}
	tmpName := tmp.Name()
	defer func() {
		// Left behind only on a failed write; harmless either way.
		if err := os.Remove(tmpName); err != nil && !errors.Is(err, fs.ErrNotExist) {
			log.Printf("vectorcache: could not remove temp file %s: %v", tmpName, err)
		}
	}()

	if _, err := tmp.Write(raw); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("vector cache write: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("vector cache close: %w", err)
	}

	if err := os.Rename(tmpName, c.entryPath(identifier)); err != nil {
		return fmt.Errorf("vector cache rename: %w", err)
	}
	log.Printf("Caching vectorized results of %s to prevent duplicated embedding.", identifier)
	return nil
}

// Purge removes the entry if present. Removing a non-existent entry is a
// success, not an error.
func (c *Cache) Purge(identifier string) error {
	path := c.entryPath(identifier)
	info, err := os.Stat(path)
	if err != nil || !info.Mode().IsRegular() {
		return nil
	}
	log.Printf("Purging vector-cache of %s.", identifier)
	if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("vector cache purge: %w", err)
	}
	return nil
}

// HasCachedEntries reports whether any entry exists at all. Useful when the
// embedder changes, which invalidates every previous cache entry.
func (c *Cache) HasCachedEntries() bool {
	names, err := os.ReadDir(c.root)
	if err != nil {
		return false
	}
	for _, name := range names {
		if filepath.Ext(name.Name()) == ".json" {
			return true
		}
	}
	return false
}
