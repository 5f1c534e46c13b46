package converter

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"code.sajari.com/docconv"
)

// convertOffice extracts paragraph text from office and office-like
// documents. The parser works against a file on disk, so the source bytes
// are staged in a temp file that is removed on every exit path. Empty
// extracted text is a failure and the unusable source is discarded.
func (c *Converter) convertOffice(ctx context.Context, job Job) Result {
	data, err := job.Read(ctx)
	if err != nil {
		return failure(fmt.Sprintf("Could not read %s: %v", job.Filename(), err))
	}

	text, err := extractOfficeText(job.Filename(), data)
	if err != nil {
		log.Printf("Could not parse office or office-like file %s: %v", job.Filename(), err)
	}
	if strings.TrimSpace(text) == "" {
		log.Printf("Resulting text content was empty for %s.", job.Filename())
		job.Discard(ctx)
		return failure(fmt.Sprintf("No text content found in %s.", job.Filename()))
	}

	return c.finalize(ctx, job, text)
}

// extractOfficeText stages the document in a temp file, keeping the original
// extension so the parser picks the right strategy.
func extractOfficeText(filename string, data []byte) (string, error) {
	tmp, err := os.CreateTemp("", "docuflow-*"+strings.ToLower(filepath.Ext(filename)))
	if err != nil {
		return "", fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer func() {
		if err := os.Remove(tmpName); err != nil {
			log.Printf("converter: could not remove temp file %s: %v", tmpName, err)
		}
	}()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return "", fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return "", fmt.Errorf("close temp file: %w", err)
	}

	res, err := docconv.ConvertPath(tmpName)
	if err != nil {
		return "", fmt.Errorf("docconv: %w", err)
	}
	return res.Body, nil
}
