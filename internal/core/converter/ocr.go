package converter

import (
	"context"
	"fmt"
	"log"
	"strings"
)

// convertOCR hands image and PDF sources to the remote text-detection
// provider. Only object store-backed sources can be OCR'd; a failed or
// empty detection discards the unusable source.
func (c *Converter) convertOCR(ctx context.Context, job Job) Result {
	if c.detector == nil {
		return failure("Missing environment variables for Document Intelligence.")
	}

	bucket, key, ok := job.RemoteObject()
	if !ok {
		return failure(fmt.Sprintf("%s must be uploaded to object storage before text detection.", job.Filename()))
	}

	text, err := c.detector.DetectText(ctx, bucket, key)
	if err != nil {
		log.Printf("Text detection failed for %s: %v", job.Filename(), err)
		job.Discard(ctx)
		return failure("Error processing the document.")
	}
	if strings.TrimSpace(text) == "" {
		log.Printf("Resulting text content was empty for %s.", job.Filename())
		job.Discard(ctx)
		return failure(fmt.Sprintf("No text content found in %s.", job.Filename()))
	}

	return c.finalize(ctx, job, text)
}
