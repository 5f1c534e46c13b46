package objectclient

import (
	"path/filepath"
	"strings"

	"github.com/docuflow-ai/docuflow/internal/models"
)

// OriginalKey is the object key of an uploaded source file:
// "{storageKey}-{title}".
func OriginalKey(file models.UploadedFile) string {
	return file.StorageKey + "-" + file.Title
}

// PageContentKey is where a converter persists the extracted text of an
// upload: "pageContents/{storageKey}-{titleWithoutExt}.txt".
func PageContentKey(file models.UploadedFile) string {
	withoutExt := strings.TrimSuffix(file.Title, filepath.Ext(file.Title))
	return "pageContents/" + file.StorageKey + "-" + withoutExt + ".txt"
}
