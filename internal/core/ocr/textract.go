// Package ocr drives AWS Textract through submit, poll and collect for
// image and PDF objects resident in S3. Single images resolve in one
// synchronous detection call; multi-page PDFs run as an asynchronous job
// that is polled to a terminal status before results are collected.
package ocr

import (
	"context"
	"errors"
	"fmt"
	"log"
	"path/filepath"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/textract"
	"github.com/aws/aws-sdk-go-v2/service/textract/types"
)

var (
	// ErrJobFailed reports a provider-side terminal failure. No partial
	// text is ever returned alongside it.
	ErrJobFailed = errors.New("text detection job failed")

	// ErrTimeout reports that the job did not reach a terminal status
	// within the controller's maximum wait.
	ErrTimeout = errors.New("text detection job timed out")
)

// DetectionAPI is the slice of the Textract client this controller uses.
// *textract.Client satisfies it; tests substitute a scripted fake.
type DetectionAPI interface {
	DetectDocumentText(ctx context.Context, params *textract.DetectDocumentTextInput, optFns ...func(*textract.Options)) (*textract.DetectDocumentTextOutput, error)
	StartDocumentTextDetection(ctx context.Context, params *textract.StartDocumentTextDetectionInput, optFns ...func(*textract.Options)) (*textract.StartDocumentTextDetectionOutput, error)
	GetDocumentTextDetection(ctx context.Context, params *textract.GetDocumentTextDetectionInput, optFns ...func(*textract.Options)) (*textract.GetDocumentTextDetectionOutput, error)
}

// Controller runs one detection per call and keeps no state between calls.
type Controller struct {
	api          DetectionAPI
	pollInterval time.Duration
	maxWait      time.Duration
}

// NewController wires a controller over a detection API. pollInterval is the
// delay between status checks and between result-page fetches; maxWait bounds
// the whole asynchronous job so a provider outage surfaces as ErrTimeout
// instead of hanging forever.
func NewController(api DetectionAPI, pollInterval, maxWait time.Duration) *Controller {
	if pollInterval <= 0 {
		pollInterval = time.Second
	}
	return &Controller{api: api, pollInterval: pollInterval, maxWait: maxWait}
}

// DetectText extracts all line text from the given S3 object. PDF objects go
// through the asynchronous job path, everything else through a single
// synchronous detection call.
func (c *Controller) DetectText(ctx context.Context, bucket, key string) (string, error) {
	if strings.ToLower(filepath.Ext(key)) == ".pdf" {
		return c.detectDocument(ctx, bucket, key)
	}
	return c.detectImage(ctx, bucket, key)
}

// detectImage is the synchronous path: one call, line blocks joined with
// newlines in block order.
func (c *Controller) detectImage(ctx context.Context, bucket, key string) (string, error) {
	out, err := c.api.DetectDocumentText(ctx, &textract.DetectDocumentTextInput{
		Document: &types.Document{
			S3Object: &types.S3Object{
				Bucket: aws.String(bucket),
				Name:   aws.String(key),
			},
		},
	})
	if err != nil {
		return "", fmt.Errorf("detect document text: %w", err)
	}

	var lines []string
	for _, block := range out.Blocks {
		if block.BlockType == types.BlockTypeLine && block.Text != nil {
			lines = append(lines, *block.Text)
		}
	}
	log.Printf("[ocr] extracted %d lines from s3://%s/%s", len(lines), bucket, key)
	return strings.Join(lines, "\n"), nil
}

// detectDocument is the asynchronous path: submit, poll to a terminal
// status, then collect every result page.
func (c *Controller) detectDocument(ctx context.Context, bucket, key string) (string, error) {
	if c.maxWait > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeoutCause(ctx, c.maxWait, ErrTimeout)
		defer cancel()
	}

	jobID, err := c.startJob(ctx, bucket, key)
	if err != nil {
		return "", err
	}
	log.Printf("[ocr] job %s started for s3://%s/%s", jobID, bucket, key)

	if err := c.waitForJob(ctx, jobID); err != nil {
		return "", err
	}

	pages, err := c.collectResults(ctx, jobID)
	if err != nil {
		return "", err
	}
	return detectedText(pages), nil
}

func (c *Controller) startJob(ctx context.Context, bucket, key string) (string, error) {
	out, err := c.api.StartDocumentTextDetection(ctx, &textract.StartDocumentTextDetectionInput{
		DocumentLocation: &types.DocumentLocation{
			S3Object: &types.S3Object{
				Bucket: aws.String(bucket),
				Name:   aws.String(key),
			},
		},
	})
	if err != nil {
		return "", fmt.Errorf("start text detection: %w", err)
	}
	return aws.ToString(out.JobId), nil
}

// waitForJob polls on a fixed interval until the job reaches a terminal
// status. Any terminal status other than SUCCEEDED is a failure.
func (c *Controller) waitForJob(ctx context.Context, jobID string) error {
	for {
		if err := c.sleep(ctx); err != nil {
			return err
		}

		out, err := c.api.GetDocumentTextDetection(ctx, &textract.GetDocumentTextDetectionInput{
			JobId: aws.String(jobID),
		})
		if err != nil {
			return c.wrapWait(ctx, fmt.Errorf("get job status: %w", err))
		}
		log.Printf("[ocr] job %s status: %s", jobID, out.JobStatus)

		switch out.JobStatus {
		case types.JobStatusInProgress:
			continue
		case types.JobStatusSucceeded:
			return nil
		default:
			return fmt.Errorf("%w: terminal status %s", ErrJobFailed, out.JobStatus)
		}
	}
}

// collectResults fetches result pages, sleeping between fetches, until the
// number retrieved equals the provider-reported total page count or the
// provider stops handing out continuation tokens.
func (c *Controller) collectResults(ctx context.Context, jobID string) ([]*textract.GetDocumentTextDetectionOutput, error) {
	var (
		pages     []*textract.GetDocumentTextDetectionOutput
		nextToken *string
		total     int
	)

	for {
		if err := c.sleep(ctx); err != nil {
			return nil, err
		}

		out, err := c.api.GetDocumentTextDetection(ctx, &textract.GetDocumentTextDetectionInput{
			JobId:     aws.String(jobID),
			NextToken: nextToken,
		})
		if err != nil {
			return nil, c.wrapWait(ctx, fmt.Errorf("get job results: %w", err))
		}
		pages = append(pages, out)
		log.Printf("[ocr] job %s resultset page received: %d", jobID, len(pages))

		if out.DocumentMetadata != nil && out.DocumentMetadata.Pages != nil {
			total = int(*out.DocumentMetadata.Pages)
		}
		nextToken = out.NextToken
		if len(pages) >= total && total > 0 {
			return pages, nil
		}
		if nextToken == nil {
			return pages, nil
		}
	}
}

// detectedText concatenates line-block text across all result pages in page
// order then block order, with no separator, matching the provider's natural
// reading order.
func detectedText(pages []*textract.GetDocumentTextDetectionOutput) string {
	var sb strings.Builder
	for _, page := range pages {
		for _, block := range page.Blocks {
			if block.BlockType == types.BlockTypeLine && block.Text != nil {
				sb.WriteString(*block.Text)
			}
		}
	}
	return sb.String()
}

// sleep waits one poll interval, cutting out early on cancellation or on
// expiry of the job's maximum wait.
func (c *Controller) sleep(ctx context.Context) error {
	timer := time.NewTimer(c.pollInterval)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return c.wrapWait(ctx, ctx.Err())
	}
}

// wrapWait maps a deadline expiry caused by the controller's own max wait to
// ErrTimeout so callers can tell a slow provider from a failed job.
func (c *Controller) wrapWait(ctx context.Context, err error) error {
	if cause := context.Cause(ctx); errors.Is(cause, ErrTimeout) {
		return ErrTimeout
	}
	return err
}
