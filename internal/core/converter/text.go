package converter

import (
	"context"
	"fmt"
)

// convertText reads the source directly as UTF-8 text. A zero-length file
// is a valid document, not a failure.
func (c *Converter) convertText(ctx context.Context, job Job) Result {
	data, err := job.Read(ctx)
	if err != nil {
		return failure(fmt.Sprintf("Could not read %s: %v", job.Filename(), err))
	}

	return c.finalize(ctx, job, string(data))
}
