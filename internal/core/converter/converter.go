// Package converter turns one uploaded or dropped file into a normalized
// document. A closed set of format families covers plain text, office
// documents and OCR-backed images/PDFs; anything else is rejected at
// dispatch. Expected failures (unsupported type, empty extraction, remote
// errors) are reported in the Result, never as panics or errors.
package converter

import (
	"context"
	"fmt"
	"log"
	"path/filepath"
	"strings"

	"github.com/docuflow-ai/docuflow/internal/core"
	"github.com/docuflow-ai/docuflow/internal/models"
)

// Result is the outcome of one conversion. Success=false always carries a
// human-readable Reason and an empty document list.
type Result struct {
	Success   bool                        `json:"success"`
	Reason    string                      `json:"reason,omitempty"`
	Documents []models.NormalizedDocument `json:"documents"`
}

func failure(reason string) Result {
	return Result{Reason: reason, Documents: []models.NormalizedDocument{}}
}

// Format is the closed set of supported format families.
type Format int

const (
	FormatUnknown Format = iota
	FormatPlainText
	FormatOffice
	FormatImage
	FormatPDF
)

// formatByExt is the static extension registry, fixed at process start.
// Extensions not listed here are rejected outright, never assumed to be
// plain text.
var formatByExt = map[string]Format{
	".txt": FormatPlainText,
	".md":  FormatPlainText,
	".log": FormatPlainText,

	".docx": FormatOffice,
	".odt":  FormatOffice,
	".odp":  FormatOffice,
	".pptx": FormatOffice,
	".xlsx": FormatOffice,

	".png":  FormatImage,
	".jpg":  FormatImage,
	".jpeg": FormatImage,
	".tiff": FormatImage,

	".pdf": FormatPDF,
}

// FormatForExtension resolves an extension (with leading dot, any case) to
// its format family.
func FormatForExtension(ext string) (Format, bool) {
	format, ok := formatByExt[strings.ToLower(ext)]
	return format, ok
}

// Payload is the readable side of a conversion job: where the raw source
// bytes live and how to discard them when they turn out to be unusable.
type Payload interface {
	// Filename is the original name of the file, extension included.
	Filename() string
	// Identifier is the stable path/identifier the document is known by
	// downstream (cache digests, workspace associations).
	Identifier() string
	// Read returns the raw source bytes.
	Read(ctx context.Context) ([]byte, error)
	// Discard removes the unusable source. Best effort: failures are
	// logged, never escalated.
	Discard(ctx context.Context)
	// RemoteObject reports the object-store location of the source, when
	// it has one. OCR conversion is only possible for remote sources.
	RemoteObject() (bucket, key string, ok bool)
}

// Sink is where a normalized document is persisted once text extraction
// succeeds. Managed uploads update the existing file record; local drops
// create a fresh record in the document root.
type Sink interface {
	Persist(ctx context.Context, text string) (models.NormalizedDocument, error)
}

// A Job is one file to convert: a payload to read and a sink to persist to.
type Job interface {
	Payload
	Sink
}

// Converter dispatches jobs to format-specific conversion paths. The text
// detector is only required for image/PDF conversions; passing nil turns
// those into configuration failures instead of panics.
type Converter struct {
	detector core.TextDetector
}

func New(detector core.TextDetector) *Converter {
	return &Converter{detector: detector}
}

// Dispatch selects the conversion path by filename extension and runs it.
// Files without an extension, or with one outside the registry, fail
// without touching any store.
func (c *Converter) Dispatch(ctx context.Context, job Job) Result {
	ext := strings.ToLower(filepath.Ext(job.Filename()))
	if ext == "" {
		return failure("No file extension found. This file cannot be processed.")
	}

	format, ok := FormatForExtension(ext)
	if !ok {
		return failure(fmt.Sprintf("File extension %s not supported for parsing and cannot be assumed as text file type.", ext))
	}

	log.Printf("-- Working %s --", job.Filename())
	switch format {
	case FormatPlainText:
		return c.convertText(ctx, job)
	case FormatOffice:
		return c.convertOffice(ctx, job)
	case FormatImage, FormatPDF:
		return c.convertOCR(ctx, job)
	default:
		return failure(fmt.Sprintf("File extension %s not supported for parsing and cannot be assumed as text file type.", ext))
	}
}

// finalize is the shared tail of every successful extraction: persist the
// text through the job's sink and report the resulting document.
func (c *Converter) finalize(ctx context.Context, job Job, text string) Result {
	doc, err := job.Persist(ctx, text)
	if err != nil {
		return failure(fmt.Sprintf("Failed to persist converted document: %v", err))
	}
	log.Printf("[SUCCESS]: %s converted & ready for embedding.", job.Filename())
	return Result{Success: true, Documents: []models.NormalizedDocument{doc}}
}
