// Package digest derives stable cache keys from document identifiers.
// The same logical document always maps to the same key no matter how
// its path was spelled, so cached work survives relocation.
package digest

import (
	"strings"

	"github.com/google/uuid"
)

// ForSource returns the deterministic cache key for a document identifier.
// Identifiers are normalized to forward slashes before hashing so Windows
// and POSIX spellings of the same path agree.
func ForSource(identifier string) string {
	normalized := strings.ReplaceAll(strings.TrimSpace(identifier), "\\", "/")
	return uuid.NewSHA1(uuid.NameSpaceURL, []byte(normalized)).String()
}
