// Package client talks to the remote analysis service.
package client

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"time"

	"github.com/diversityiq/backend/internal/models"
	"github.com/diversityiq/backend/internal/report"
)

// DefaultEndpoint is the analysis service URL used when none is configured.
const DefaultEndpoint = "http://localhost:8000/upload"

// FileField is the multipart field name the analysis service reads.
const FileField = "file"

var (
	// ErrMalformedResponse means the service answered 2xx with an unusable body.
	ErrMalformedResponse = errors.New("malformed analysis response")
	// ErrFileTooLarge means the file exceeds the configured upload limit.
	ErrFileTooLarge = errors.New("file exceeds upload limit")
)

// StatusError is returned for non-2xx responses.
type StatusError struct {
	StatusCode int
	Status     string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("analysis service returned %s", e.Status)
}

// Analyzer sends a file for analysis and returns the decoded report.
type Analyzer interface {
	Analyze(ctx context.Context, name string, content []byte) (*models.AnalysisReport, error)
}

// Options configures an HTTPClient.
type Options struct {
	Endpoint      string
	Timeout       time.Duration
	MaxUploadSize int64 // 0 means unlimited
	HTTPClient    *http.Client
}

// HTTPClient implements Analyzer over a multipart POST.
type HTTPClient struct {
	endpoint      string
	maxUploadSize int64
	http          *http.Client
}

// New creates an analysis client.
func New(opts Options) *HTTPClient {
	endpoint := opts.Endpoint
	if endpoint == "" {
		endpoint = DefaultEndpoint
	}
	hc := opts.HTTPClient
	if hc == nil {
		hc = &http.Client{Timeout: opts.Timeout}
	}
	return &HTTPClient{
		endpoint:      endpoint,
		maxUploadSize: opts.MaxUploadSize,
		http:          hc,
	}
}

// Endpoint returns the configured service URL.
func (c *HTTPClient) Endpoint() string {
	return c.endpoint
}

// Analyze uploads content as the single "file" part and decodes the report.
// Non-2xx bodies are discarded unread.
func (c *HTTPClient) Analyze(ctx context.Context, name string, content []byte) (*models.AnalysisReport, error) {
	if c.maxUploadSize > 0 && int64(len(content)) > c.maxUploadSize {
		return nil, fmt.Errorf("%w: %d bytes (limit %d)", ErrFileTooLarge, len(content), c.maxUploadSize)
	}

	body, contentType, err := buildMultipart(name, content)
	if err != nil {
		return nil, fmt.Errorf("building multipart body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, body)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("posting to %s: %w", c.endpoint, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		io.Copy(io.Discard, resp.Body)
		return nil, &StatusError{StatusCode: resp.StatusCode, Status: resp.Status}
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response: %w", err)
	}

	r, err := report.Decode(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformedResponse, err)
	}
	return r, nil
}

func buildMultipart(name string, content []byte) (*bytes.Buffer, string, error) {
	buf := new(bytes.Buffer)
	w := multipart.NewWriter(buf)

	part, err := w.CreateFormFile(FileField, name)
	if err != nil {
		return nil, "", err
	}
	if _, err := part.Write(content); err != nil {
		return nil, "", err
	}
	if err := w.Close(); err != nil {
		return nil, "", err
	}
	return buf, w.FormDataContentType(), nil
}
