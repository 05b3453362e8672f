package remote

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newClient(t *testing.T, url string) *Client {
	t.Helper()
	c, err := New(Config{BaseURL: url + "/", Retries: 2, Backoff: time.Millisecond}, nil)
	require.NoError(t, err)
	t.Cleanup(func() { c.Close() })
	return c
}

func TestPDFToWordUploadsMultipart(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/pdf-to-word", r.URL.Path)
		f, hdr, err := r.FormFile("file")
		if !assert.NoError(t, err) {
			return
		}
		defer f.Close()
		data, _ := io.ReadAll(f)
		assert.Equal(t, "report.pdf", hdr.Filename)
		assert.Equal(t, "%PDF-1.4", string(data))
		w.Write([]byte("DOCX"))
	}))
	defer srv.Close()

	out, err := newClient(t, srv.URL).PDFToWord(context.Background(), "report.pdf", []byte("%PDF-1.4"))
	require.NoError(t, err)
	assert.Equal(t, "DOCX", string(out))
}

func TestPDFToWordRetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.Write([]byte("ok"))
	}))
	defer srv.Close()

	out, err := newClient(t, srv.URL).PDFToWord(context.Background(), "a.pdf", []byte("x"))
	require.NoError(t, err)
	assert.Equal(t, "ok", string(out))
	assert.EqualValues(t, 3, calls.Load())
}

func TestPDFToWordDoesNotRetryClientErrors(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"detail":"File must be a PDF"}`))
	}))
	defer srv.Close()

	_, err := newClient(t, srv.URL).PDFToWord(context.Background(), "a.pdf", []byte("x"))
	var se *StatusError
	require.True(t, errors.As(err, &se), "err = %v", err)
	assert.Equal(t, http.StatusBadRequest, se.Code)
	assert.Equal(t, "File must be a PDF", se.Message)
	assert.EqualValues(t, 1, calls.Load())
}

func TestPDFToWordGivesUp(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	_, err := newClient(t, srv.URL).PDFToWord(context.Background(), "a", []byte("x"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed after 3 attempts")
}

func TestPDFToWordHonoursCancellation(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := newClient(t, srv.URL).PDFToWord(ctx, "a.pdf", nil)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestHealth(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/health", r.URL.Path)
		w.Write([]byte(`{"status":"healthy"}`))
	}))
	defer srv.Close()

	assert.NoError(t, newClient(t, srv.URL).Health(context.Background()))
}

func TestNewRequiresBaseURL(t *testing.T) {
	_, err := New(Config{}, nil)
	assert.Error(t, err)
}

func TestResponseOverLimitFails(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.Write([]byte("0123456789A"))
	}))
	defer srv.Close()

	c, err := New(Config{BaseURL: srv.URL, Retries: 2, Backoff: time.Millisecond, MaxResponse: 10}, nil)
	require.NoError(t, err)
	defer c.Close()

	_, err = c.PDFToWord(context.Background(), "a.pdf", []byte("x"))
	assert.ErrorIs(t, err, ErrResponseTooLarge)
	assert.EqualValues(t, 1, calls.Load(), "an oversized body is not retried")
}

func TestResponseAtLimitSucceeds(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("0123456789"))
	}))
	defer srv.Close()

	c, err := New(Config{BaseURL: srv.URL, MaxResponse: 10}, nil)
	require.NoError(t, err)
	defer c.Close()

	out, err := c.PDFToWord(context.Background(), "a.pdf", []byte("x"))
	require.NoError(t, err)
	assert.Equal(t, "0123456789", string(out))
}
