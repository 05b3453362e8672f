// Package pdfmerge concatenates PDF documents page by page.
package pdfmerge

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
)

// ErrNoInput is returned by Merge when there is nothing to merge.
var ErrNoInput = errors.New("pdfmerge: no documents")

var configOnce sync.Once

// config returns a pdfcpu configuration that never touches the user's
// config directory.
func config() *model.Configuration {
	configOnce.Do(api.DisableConfigDir)
	return model.NewDefaultConfiguration()
}

// PageCount returns the number of pages in data.
func PageCount(data []byte) (int, error) {
	n, err := api.PageCount(bytes.NewReader(data), config())
	if err != nil {
		return 0, fmt.Errorf("pdfmerge: reading page count: %w", err)
	}
	return n, nil
}

// Merge returns one PDF holding every page of docs, documents in the given
// order and pages in their original order within each document.
func Merge(ctx context.Context, docs [][]byte) ([]byte, error) {
	if len(docs) == 0 {
		return nil, ErrNoInput
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	rsc := make([]io.ReadSeeker, len(docs))
	for i, d := range docs {
		rsc[i] = bytes.NewReader(d)
	}
	var out bytes.Buffer
	if err := api.MergeRaw(rsc, &out, false, config()); err != nil {
		return nil, fmt.Errorf("pdfmerge: %w", err)
	}
	return out.Bytes(), nil
}
