package pdfmerge

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/porticus-lab/filekit/internal/pdf"
	"github.com/porticus-lab/filekit/internal/pdftest"
)

func labelled(from, to int) []byte {
	var pages [][]byte
	for i := from; i <= to; i++ {
		pages = append(pages, pdftest.TextPage(fmt.Sprintf("page-%d", i)))
	}
	return pdftest.Build(pages...)
}

func TestMergeKeepsDocumentAndPageOrder(t *testing.T) {
	out, err := Merge(context.Background(), [][]byte{labelled(1, 2), labelled(3, 5), labelled(6, 6)})
	require.NoError(t, err)

	n, err := PageCount(out)
	require.NoError(t, err)
	assert.Equal(t, 6, n)

	doc, err := pdf.Load(out)
	require.NoError(t, err)
	ex, err := pdf.NewExtractor(doc)
	require.NoError(t, err)
	texts, err := ex.All(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"page-1", "page-2", "page-3", "page-4", "page-5", "page-6"}, texts)
}

func TestMergeSingleDocument(t *testing.T) {
	out, err := Merge(context.Background(), [][]byte{labelled(1, 3)})
	require.NoError(t, err)
	n, err := PageCount(out)
	require.NoError(t, err)
	assert.Equal(t, 3, n)
}

func TestMergeNoInput(t *testing.T) {
	_, err := Merge(context.Background(), nil)
	assert.ErrorIs(t, err, ErrNoInput)
}

func TestMergeCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := Merge(ctx, [][]byte{labelled(1, 1)})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestPageCountRejectsGarbage(t *testing.T) {
	_, err := PageCount([]byte("not a pdf"))
	assert.Error(t, err)
}
