package filekit

import (
	"bytes"
	"encoding/base64"
	"io"
	"path/filepath"
	"strings"
)

// Part is one produced file.
type Part struct {
	Name      string
	MediaType string
	Data      []byte
}

// Base64 returns the content as standard base64 (RFC 4648).
func (p Part) Base64() string {
	return base64.StdEncoding.EncodeToString(p.Data)
}

// Reader returns a reader over the content.
func (p Part) Reader() *bytes.Reader {
	return bytes.NewReader(p.Data)
}

// WriteTo writes the content to w. It implements [io.WriterTo].
func (p Part) WriteTo(w io.Writer) (int64, error) {
	n, err := w.Write(p.Data)
	return int64(n), err
}

// Artifact is the output of a successful transformation. Multi-page
// transformations produce one part per page, in page order.
type Artifact struct {
	// ID is assigned when the artifact is registered with a Lifecycle.
	ID string
	// Source is the name of the file the artifact was produced from, or
	// the names joined by ", " for a multi-file tool.
	Source string
	Parts  []Part
}

// Name returns the suggested file name of the first part.
func (a *Artifact) Name() string {
	if len(a.Parts) == 0 {
		return ""
	}
	return a.Parts[0].Name
}

// MediaType returns the media type of the first part.
func (a *Artifact) MediaType() string {
	if len(a.Parts) == 0 {
		return ""
	}
	return a.Parts[0].MediaType
}

// Size returns the total byte size of all parts.
func (a *Artifact) Size() int64 {
	var n int64
	for _, p := range a.Parts {
		n += int64(len(p.Data))
	}
	return n
}

// baseName strips directories and the final extension from a file name.
func baseName(name string) string {
	name = filepath.Base(name)
	if ext := filepath.Ext(name); ext != "" && ext != name {
		name = strings.TrimSuffix(name, ext)
	}
	if name == "" || name == "." || name == string(filepath.Separator) {
		return "output"
	}
	return name
}
