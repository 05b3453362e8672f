package filekit

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/porticus-lab/filekit/internal/pdftest"
)

func TestAcceptPatternMatches(t *testing.T) {
	tests := []struct {
		pattern AcceptPattern
		media   string
		want    bool
	}{
		{AcceptAny, "application/zip", true},
		{"application/pdf", "application/pdf", true},
		{"application/pdf", "application/PDF", false},
		{"image/png, image/jpeg", "image/jpeg", true},
		{"image/*", "image/webp", true},
		{"image/*", "imagex/webp", false},
		{"text/*", "application/json", false},
		{"", "text/plain", false},
		{"image/*,*/*", "application/zip", true},
		{"application/pdf, */*", "video/mp4", true},
		{" */* ", "text/plain", true},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, tt.pattern.Matches(tt.media), "%q matches %q", tt.pattern, tt.media)
	}
}

func candidate(name, media string, size int64) FileCandidate {
	return FileCandidate{Name: name, MediaType: media, Size: size}
}

func TestValidatePartition(t *testing.T) {
	lim := Limits{Ceilings: map[string]int64{"Convert PDF": 10}, DefaultCeiling: 10}
	tool := mustTool(t, "pdf-to-word")

	p, err := Validate(tool, []FileCandidate{
		candidate("a.pdf", "application/pdf", 3),
		candidate("b.png", "image/png", 3),
		candidate("c.pdf", "application/pdf", 11),
		candidate("d.pdf", "application/pdf", 10),
	}, lim)
	require.NoError(t, err)

	require.Len(t, p.Accepted, 2)
	assert.Equal(t, "a.pdf", p.Accepted[0].Name)
	assert.Equal(t, "d.pdf", p.Accepted[1].Name, "a file exactly at the ceiling is accepted")

	require.Len(t, p.Rejected, 2)
	assert.Equal(t, ReasonWrongType, p.Rejected[0].Reason)
	assert.Equal(t, `File "b.png" was rejected. Please upload one of the following types: application/pdf`, p.Rejected[0].Message)
	assert.Equal(t, ReasonTooLarge, p.Rejected[1].Reason)
	assert.Equal(t, `File "c.pdf" is too large. The limit for Convert PDF is 10 bytes.`, p.Rejected[1].Message)
}

func TestValidateWrongTypeTakesPrecedence(t *testing.T) {
	lim := Limits{DefaultCeiling: 10}
	p, err := Validate(mustTool(t, "pdf-to-jpg"), []FileCandidate{candidate("huge.png", "image/png", 1000)}, lim)
	assert.ErrorIs(t, err, ErrNoneAccepted)
	require.Len(t, p.Rejected, 1)
	assert.Equal(t, ReasonWrongType, p.Rejected[0].Reason)
}

func TestValidateEmptyAndNoneAccepted(t *testing.T) {
	tool := mustTool(t, "image-resizer")

	_, err := Validate(tool, nil, DefaultLimits())
	assert.ErrorIs(t, err, ErrNoFiles)
	assert.Equal(t, KindValidation, KindOf(err))

	p, err := Validate(tool, []FileCandidate{candidate("x.pdf", "application/pdf", 1)}, DefaultLimits())
	assert.ErrorIs(t, err, ErrNoneAccepted)
	assert.NotErrorIs(t, err, ErrNoFiles)
	assert.Len(t, p.Rejected, 1)
	assert.Empty(t, p.Accepted)
}

func TestValidateDefaultCeilings(t *testing.T) {
	tool := mustTool(t, "image-compressor")
	_, err := Validate(tool, []FileCandidate{candidate("big.png", "image/png", 25*MB)}, DefaultLimits())
	assert.NoError(t, err)

	p, err := Validate(tool, []FileCandidate{candidate("big.png", "image/png", 25*MB+1)}, DefaultLimits())
	assert.ErrorIs(t, err, ErrNoneAccepted)
	require.Len(t, p.Rejected, 1)
	assert.Contains(t, p.Rejected[0].Message, "The limit for Image Tools is 25 MB.")
}

func TestFormatSize(t *testing.T) {
	assert.Equal(t, "100 MB", formatSize(100*MB))
	assert.Equal(t, "512 KB", formatSize(512*KB))
	assert.Equal(t, "1500 bytes", formatSize(1500))
}

func TestIntakeBytesSniffsType(t *testing.T) {
	f := IntakeBytes("doc", "", pdftest.Build(pdftest.TextPage("hello")))
	assert.Equal(t, "application/pdf", f.MediaType)

	f = IntakeBytes("pic", "", pngBytes(t, 2, 2))
	assert.Equal(t, "image/png", f.MediaType)

	f = IntakeBytes("given.bin", "application/x-custom", []byte("abc"))
	assert.Equal(t, "application/x-custom", f.MediaType)
	assert.EqualValues(t, 3, f.Size)

	data, err := f.load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []byte("abc"), data)
}

func TestIntakePath(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "notes.txt")
	require.NoError(t, os.WriteFile(path, []byte("hello world\n"), 0o644))

	f, err := IntakePath(path)
	require.NoError(t, err)
	assert.Equal(t, "notes.txt", f.Name)
	assert.Equal(t, "text/plain", f.MediaType)
	assert.EqualValues(t, 12, f.Size)

	data, err := f.load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "hello world\n", string(data))

	_, err = IntakePath(dir)
	assert.Error(t, err)
	_, err = IntakePath(filepath.Join(dir, "missing.txt"))
	assert.Error(t, err)
}

func TestLoadHonoursCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := IntakeBytes("a.txt", "text/plain", []byte("abc")).load(ctx)
	assert.ErrorIs(t, err, context.Canceled)

	_, err = FileCandidate{Name: "empty"}.load(context.Background())
	assert.Error(t, err)
}
