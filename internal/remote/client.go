// Package remote is the client for the document conversion service that
// backs the server-side PDF to Word flow.
//
// Requests are retried with exponential backoff on network errors and 5xx
// responses. 4xx responses fail immediately.
package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"
)

const (
	// DefaultTimeout bounds a single request.
	DefaultTimeout = 60 * time.Second
	// DefaultRetries is the number of retries after the first attempt.
	DefaultRetries = 2
	// DefaultMaxResponse caps the size of a response body.
	DefaultMaxResponse = 256 << 20
)

// ErrResponseTooLarge is returned when a response body exceeds
// Config.MaxResponse. It is not retried.
var ErrResponseTooLarge = errors.New("response body too large")

// Config configures a Client.
type Config struct {
	// BaseURL is the service root, e.g. http://localhost:8000 (required).
	BaseURL string
	// Headers are added to every request.
	Headers map[string]string
	Timeout time.Duration
	Retries int
	// Backoff is the delay before the first retry; it doubles per retry.
	Backoff time.Duration
	// MaxResponse is the largest response body accepted, in bytes.
	MaxResponse int64
}

// Client calls the conversion service.
type Client struct {
	config Config
	client *http.Client
	log    *zap.Logger
}

// New creates a client. It returns an error if BaseURL is empty.
func New(cfg Config, log *zap.Logger) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, errors.New("remote: base URL is required")
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.Retries < 0 {
		return nil, fmt.Errorf("remote: retries must be >= 0, got %d", cfg.Retries)
	}
	if cfg.Backoff <= 0 {
		cfg.Backoff = 500 * time.Millisecond
	}
	if cfg.MaxResponse <= 0 {
		cfg.MaxResponse = DefaultMaxResponse
	}
	if log == nil {
		log = zap.NewNop()
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	return &Client{
		config: cfg,
		client: &http.Client{Timeout: cfg.Timeout},
		log:    log.Named("remote"),
	}, nil
}

// StatusError is returned for non-2xx responses. Message carries the
// service's error detail when it sent one.
type StatusError struct {
	Code    int
	Message string
}

func (e *StatusError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("unexpected status %d: %s", e.Code, e.Message)
	}
	return fmt.Sprintf("unexpected status %d", e.Code)
}

// Retriable reports whether the request may succeed if repeated.
func (e *StatusError) Retriable() bool {
	return e.Code >= 500 || e.Code == http.StatusTooManyRequests
}

// PDFToWord uploads pdf as a multipart "file" field and returns the .docx
// produced by the service.
func (c *Client) PDFToWord(ctx context.Context, name string, pdf []byte) ([]byte, error) {
	if !strings.HasSuffix(strings.ToLower(name), ".pdf") {
		name += ".pdf"
	}
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	fw, err := mw.CreateFormFile("file", name)
	if err != nil {
		return nil, fmt.Errorf("remote: building form: %w", err)
	}
	if _, err := fw.Write(pdf); err != nil {
		return nil, fmt.Errorf("remote: building form: %w", err)
	}
	if err := mw.Close(); err != nil {
		return nil, fmt.Errorf("remote: building form: %w", err)
	}

	var out []byte
	err = c.retry(ctx, "pdf-to-word", func() error {
		var err error
		out, err = c.do(ctx, http.MethodPost, "/pdf-to-word", mw.FormDataContentType(), body.Bytes())
		return err
	})
	return out, err
}

// Health checks that the service answers.
func (c *Client) Health(ctx context.Context) error {
	_, err := c.do(ctx, http.MethodGet, "/health", "", nil)
	if err != nil {
		return fmt.Errorf("remote: health: %w", err)
	}
	return nil
}

func (c *Client) retry(ctx context.Context, op string, fn func() error) error {
	var lastErr error
	attempts := 1 + c.config.Retries
	for i := range attempts {
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("remote: %s: %w", op, err)
		}
		if i > 0 {
			backoff := c.config.Backoff << uint(i-1)
			c.log.Debug("retrying", zap.String("op", op), zap.Int("attempt", i+1), zap.Duration("backoff", backoff), zap.Error(lastErr))
			select {
			case <-ctx.Done():
				return fmt.Errorf("remote: %s: %w", op, ctx.Err())
			case <-time.After(backoff):
			}
		}

		lastErr = fn()
		if lastErr == nil {
			return nil
		}
		var se *StatusError
		if (errors.As(lastErr, &se) && !se.Retriable()) || errors.Is(lastErr, ErrResponseTooLarge) {
			return fmt.Errorf("remote: %s: %w", op, lastErr)
		}
	}
	return fmt.Errorf("remote: %s failed after %d attempts: %w", op, attempts, lastErr)
}

func (c *Client) do(ctx context.Context, method, path, contentType string, body []byte) ([]byte, error) {
	var rd io.Reader
	if body != nil {
		rd = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.config.BaseURL+path, rd)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	for k, v := range c.config.Headers {
		req.Header.Set(k, v)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	limit := c.config.MaxResponse
	data, err := io.ReadAll(io.LimitReader(resp.Body, limit+1))
	if err != nil {
		return nil, fmt.Errorf("reading response: %w", err)
	}
	if int64(len(data)) > limit {
		return nil, fmt.Errorf("%w: more than %d bytes", ErrResponseTooLarge, limit)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &StatusError{Code: resp.StatusCode, Message: detail(data)}
	}
	return data, nil
}

// detail extracts {"detail": "..."} from an error body.
func detail(body []byte) string {
	var v struct {
		Detail json.RawMessage `json:"detail"`
	}
	if json.Unmarshal(body, &v) != nil || len(v.Detail) == 0 {
		return ""
	}
	var s string
	if json.Unmarshal(v.Detail, &s) == nil {
		return s
	}
	return string(v.Detail)
}

// Close releases idle connections.
func (c *Client) Close() error {
	c.client.CloseIdleConnections()
	return nil
}
