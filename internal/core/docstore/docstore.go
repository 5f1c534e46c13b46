// Package docstore manages the on-disk document root: a folder of
// per-source-type subfolders, each holding one JSON record per ingested
// file plus an optional metadata.json. Every path handed in by a caller is
// normalized and containment-checked against the root before any read or
// write, so a crafted path can never escape managed storage.
package docstore

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/docuflow-ai/docuflow/internal/models"
)

// CustomDocumentsFolder holds directly-dropped files; its on-disk contents
// are protected from folder-level purges.
const CustomDocumentsFolder = "custom-documents"

// ErrInvalidPath reports a path that normalizes to nothing usable: empty,
// the root itself, or a traversal outside the document root.
var ErrInvalidPath = errors.New("invalid document path")

// Store is rooted at one documents directory.
type Store struct {
	root string
}

func New(root string) *Store {
	return &Store{root: root}
}

// Root returns the absolute document root path.
func (s *Store) Root() string { return s.root }

// NormalizeRelPath strips leading traversal segments and rejects paths that
// collapse to the root or above it.
func NormalizeRelPath(p string) (string, error) {
	cleaned := filepath.Clean(strings.TrimSpace(p))
	for {
		rest, found := strings.CutPrefix(cleaned, ".."+string(filepath.Separator))
		if !found {
			break
		}
		cleaned = rest
	}
	cleaned = strings.TrimSpace(cleaned)
	if cleaned == "" || cleaned == "." || cleaned == ".." || cleaned == "/" {
		return "", ErrInvalidPath
	}
	return cleaned, nil
}

// isWithin reports whether inner lies strictly inside outer. The outer path
// itself does not count as within.
func isWithin(outer, inner string) bool {
	if outer == inner {
		return false
	}
	rel, err := filepath.Rel(outer, inner)
	if err != nil {
		return false
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}

// resolve normalizes relPath and anchors it strictly inside the root.
func (s *Store) resolve(relPath string) (string, error) {
	normalized, err := NormalizeRelPath(relPath)
	if err != nil {
		return "", err
	}
	full := filepath.Join(s.root, normalized)
	if !isWithin(s.root, full) {
		return "", ErrInvalidPath
	}
	return full, nil
}

// FileData reads one document record, e.g. "youtube-subject/video-123.json".
// Returns nil for paths that do not resolve to a real contained file.
func (s *Store) FileData(relPath string) (map[string]any, error) {
	full, err := s.resolve(relPath)
	if err != nil {
		return nil, err
	}
	raw, err := os.ReadFile(full)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read document record: %w", err)
	}

	var data map[string]any
	if err := json.Unmarshal(raw, &data); err != nil {
		return nil, fmt.Errorf("decode document record: %w", err)
	}
	return data, nil
}

// WriteDocument persists a normalized document record under the given
// subfolder, creating the folder on demand. The stored filename is
// "<basename>.json" and the returned path is relative to the root, which is
// the identifier later used for cache digests and workspace associations.
func (s *Store) WriteDocument(doc *models.NormalizedDocument, folder, basename string) (string, error) {
	if folder == "" {
		folder = CustomDocumentsFolder
	}
	relPath := filepath.Join(folder, basename+".json")
	full, err := s.resolve(relPath)
	if err != nil {
		return "", err
	}

	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return "", fmt.Errorf("create document folder: %w", err)
	}
	raw, err := json.Marshal(doc)
	if err != nil {
		return "", fmt.Errorf("encode document record: %w", err)
	}
	if err := os.WriteFile(full, raw, 0o644); err != nil {
		return "", fmt.Errorf("write document record: %w", err)
	}
	return filepath.ToSlash(relPath), nil
}

// PurgeSource removes a single document record. Paths that are missing, not
// contained, or not regular files are silent no-ops.
func (s *Store) PurgeSource(relPath string) error {
	full, err := s.resolve(relPath)
	if err != nil {
		return nil
	}
	info, err := os.Lstat(full)
	if err != nil || !info.Mode().IsRegular() {
		return nil
	}
	log.Printf("Purging source document of %s.", relPath)
	if err := os.Remove(full); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("purge source document: %w", err)
	}
	return nil
}

// RemovableFolder resolves folderName to a real, contained directory that is
// eligible for subtree removal. The protected custom-documents folder and
// anything that fails containment come back as ok=false.
func (s *Store) RemovableFolder(folderName string) (string, bool) {
	normalized, err := NormalizeRelPath(folderName)
	if err != nil || normalized == CustomDocumentsFolder {
		return "", false
	}
	full := filepath.Join(s.root, normalized)
	if !isWithin(s.root, full) {
		return "", false
	}
	info, err := os.Lstat(full)
	if err != nil || !info.IsDir() {
		return "", false
	}
	return full, true
}

// ListFolderDocuments returns the root-relative paths of every document
// record directly inside the folder.
func (s *Store) ListFolderDocuments(folderName string) ([]string, error) {
	full, ok := s.RemovableFolder(folderName)
	if !ok {
		return nil, nil
	}
	entries, err := os.ReadDir(full)
	if err != nil {
		return nil, fmt.Errorf("list folder: %w", err)
	}

	var paths []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		paths = append(paths, filepath.ToSlash(filepath.Join(filepath.Base(full), entry.Name())))
	}
	return paths, nil
}

// RemoveFolderTree deletes the folder subtree. Callers are expected to have
// finished per-document cleanup first.
func (s *Store) RemoveFolderTree(folderName string) error {
	full, ok := s.RemovableFolder(folderName)
	if !ok {
		return nil
	}
	if err := os.RemoveAll(full); err != nil {
		return fmt.Errorf("remove folder tree: %w", err)
	}
	return nil
}

// FolderEntry is one node of the local-files tree.
type FolderEntry struct {
	Name     string         `json:"name"`
	Type     string         `json:"type"`
	Items    []FolderEntry  `json:"items,omitempty"`
	Metadata map[string]any `json:"metadata,omitempty"`
	Fields   map[string]any `json:"fields,omitempty"`
}

// ViewLocalFiles walks the document root and returns the folder tree.
// Markdown files at the top level are skipped, metadata.json files annotate
// their folder instead of appearing as documents, and custom-documents sorts
// first. The root is created on first use.
func (s *Store) ViewLocalFiles() (*FolderEntry, error) {
	if err := os.MkdirAll(s.root, 0o755); err != nil {
		return nil, fmt.Errorf("create documents root: %w", err)
	}

	rootEntry := &FolderEntry{Name: "documents", Type: "folder"}
	entries, err := os.ReadDir(s.root)
	if err != nil {
		return nil, fmt.Errorf("read documents root: %w", err)
	}

	for _, entry := range entries {
		if !entry.IsDir() || filepath.Ext(entry.Name()) == ".md" {
			continue
		}
		folderPath := filepath.Join(s.root, entry.Name())
		folder := FolderEntry{
			Name:     entry.Name(),
			Type:     "folder",
			Metadata: s.readFolderMetadata(folderPath),
		}

		subfiles, err := os.ReadDir(folderPath)
		if err != nil {
			return nil, fmt.Errorf("read folder %s: %w", entry.Name(), err)
		}
		for _, subfile := range subfiles {
			if filepath.Ext(subfile.Name()) != ".json" || subfile.Name() == "metadata.json" {
				continue
			}
			fields, err := s.FileData(filepath.Join(entry.Name(), subfile.Name()))
			if err != nil {
				log.Printf("docstore: skipping unreadable record %s/%s: %v", entry.Name(), subfile.Name(), err)
				continue
			}
			delete(fields, "pageContent")
			folder.Items = append(folder.Items, FolderEntry{
				Name:   subfile.Name(),
				Type:   "file",
				Fields: fields,
			})
		}
		rootEntry.Items = append(rootEntry.Items, folder)
	}

	sort.SliceStable(rootEntry.Items, func(i, j int) bool {
		return rootEntry.Items[i].Name == CustomDocumentsFolder && rootEntry.Items[j].Name != CustomDocumentsFolder
	})
	return rootEntry, nil
}

func (s *Store) readFolderMetadata(folderPath string) map[string]any {
	raw, err := os.ReadFile(filepath.Join(folderPath, "metadata.json"))
	if err != nil {
		return nil
	}
	var metadata map[string]any
	if err := json.Unmarshal(raw, &metadata); err != nil {
		log.Printf("docstore: bad metadata.json in %s: %v", folderPath, err)
		return nil
	}
	return metadata
}

// FindDocument searches every folder for a record with the given filename
// and returns its root-relative path, or "" when absent.
func (s *Store) FindDocument(documentName string) (string, error) {
	normalized, err := NormalizeRelPath(documentName)
	if err != nil {
		return "", nil
	}
	entries, err := os.ReadDir(s.root)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", nil
		}
		return "", fmt.Errorf("read documents root: %w", err)
	}

	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		candidate := filepath.Join(s.root, entry.Name(), normalized)
		if !isWithin(s.root, candidate) {
			continue
		}
		if info, err := os.Lstat(candidate); err == nil && info.Mode().IsRegular() {
			return filepath.ToSlash(filepath.Join(entry.Name(), normalized)), nil
		}
	}
	return "", nil
}
