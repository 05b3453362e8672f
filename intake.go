package filekit

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"
)

// AcceptAny accepts every media type.
const AcceptAny AcceptPattern = "*/*"

// AcceptPattern is a comma-separated list of media types. An entry ending
// in "/*" matches by prefix; other entries match exactly and case-sensitively.
type AcceptPattern string

// Entries returns the trimmed, non-empty entries.
func (p AcceptPattern) Entries() []string {
	var out []string
	for _, e := range strings.Split(string(p), ",") {
		if e = strings.TrimSpace(e); e != "" {
			out = append(out, e)
		}
	}
	return out
}

// Matches reports whether mediaType satisfies the pattern. A */* entry
// anywhere in the list matches every type.
func (p AcceptPattern) Matches(mediaType string) bool {
	for _, e := range p.Entries() {
		if e == string(AcceptAny) {
			return true
		}
		if prefix, ok := strings.CutSuffix(e, "/*"); ok {
			if strings.HasPrefix(mediaType, prefix+"/") {
				return true
			}
			continue
		}
		if e == mediaType {
			return true
		}
	}
	return false
}

// FileCandidate is a user-supplied file. Validation only looks at Name,
// MediaType and Size; content is read through Open when a run starts.
type FileCandidate struct {
	Name      string
	MediaType string
	Size      int64
	Open      func() (io.ReadCloser, error)
}

// Reason is a machine-readable rejection cause.
type Reason string

const (
	ReasonWrongType Reason = "wrong-type"
	ReasonTooLarge  Reason = "too-large"
)

// Verdict is the validation outcome for one file.
type Verdict struct {
	File     FileCandidate
	Accepted bool
	Reason   Reason
	Message  string
}

// Partition splits an offer into accepted files, in offer order, and one
// rejection verdict per refused file.
type Partition struct {
	Accepted []FileCandidate
	Rejected []Verdict
}

// Validate checks each file against the tool's accept pattern and its
// category size ceiling. The type check runs first, so a file that is both
// the wrong type and too large is reported as wrong-type. An empty offer
// returns ErrNoFiles; an offer with no accepted file returns
// ErrNoneAccepted together with the rejections.
func Validate(tool ToolDescriptor, files []FileCandidate, limits Limits) (Partition, error) {
	var p Partition
	if len(files) == 0 {
		return p, ErrNoFiles
	}
	accept := tool.AcceptPattern()
	ceiling := limits.CeilingFor(tool.Category)
	for _, f := range files {
		v := check(f, accept, tool.Category, ceiling)
		if v.Accepted {
			p.Accepted = append(p.Accepted, f)
		} else {
			p.Rejected = append(p.Rejected, v)
		}
	}
	if len(p.Accepted) == 0 {
		return p, ErrNoneAccepted
	}
	return p, nil
}

func check(f FileCandidate, accept AcceptPattern, category string, ceiling int64) Verdict {
	if !accept.Matches(f.MediaType) {
		return Verdict{
			File:    f,
			Reason:  ReasonWrongType,
			Message: fmt.Sprintf("File %q was rejected. Please upload one of the following types: %s", f.Name, accept),
		}
	}
	if ceiling > 0 && f.Size > ceiling {
		return Verdict{
			File:    f,
			Reason:  ReasonTooLarge,
			Message: fmt.Sprintf("File %q is too large. The limit for %s is %s.", f.Name, category, formatSize(ceiling)),
		}
	}
	return Verdict{File: f, Accepted: true}
}

func formatSize(n int64) string {
	switch {
	case n >= MB && n%MB == 0:
		return fmt.Sprintf("%d MB", n/MB)
	case n >= KB && n%KB == 0:
		return fmt.Sprintf("%d KB", n/KB)
	}
	return fmt.Sprintf("%d bytes", n)
}

// IntakePath builds a candidate for a file on disk. The media type is
// sniffed from the content.
func IntakePath(path string) (FileCandidate, error) {
	st, err := os.Stat(path)
	if err != nil {
		return FileCandidate{}, fmt.Errorf("filekit: %w", err)
	}
	if st.IsDir() {
		return FileCandidate{}, fmt.Errorf("filekit: %s is a directory", path)
	}
	mt, err := mimetype.DetectFile(path)
	if err != nil {
		return FileCandidate{}, fmt.Errorf("filekit: detecting type of %s: %w", path, err)
	}
	return FileCandidate{
		Name:      filepath.Base(path),
		MediaType: bareType(mt.String()),
		Size:      st.Size(),
		Open:      func() (io.ReadCloser, error) { return os.Open(path) },
	}, nil
}

// IntakeBytes builds a candidate for in-memory content. An empty mediaType
// is sniffed from data.
func IntakeBytes(name, mediaType string, data []byte) FileCandidate {
	if mediaType == "" {
		mediaType = bareType(mimetype.Detect(data).String())
	}
	return FileCandidate{
		Name:      name,
		MediaType: mediaType,
		Size:      int64(len(data)),
		Open:      func() (io.ReadCloser, error) { return io.NopCloser(bytes.NewReader(data)), nil },
	}
}

// bareType drops media type parameters such as charset.
func bareType(mt string) string {
	t, _, _ := strings.Cut(mt, ";")
	return strings.TrimSpace(t)
}

const readChunk = 1 << 20

// load reads the candidate's content, checking ctx between chunks.
func (f FileCandidate) load(ctx context.Context) ([]byte, error) {
	if f.Open == nil {
		return nil, fmt.Errorf("file %q has no content", f.Name)
	}
	rc, err := f.Open()
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	var buf bytes.Buffer
	if f.Size > 0 {
		buf.Grow(int(f.Size))
	}
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		n, err := io.CopyN(&buf, rc, readChunk)
		if err == io.EOF || (err == nil && n < readChunk) {
			return buf.Bytes(), nil
		}
		if err != nil {
			return nil, err
		}
	}
}
