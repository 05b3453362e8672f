package filekit

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Saver is the download boundary. Save is fire-and-forget: implementations
// report their own failures.
type Saver interface {
	Save(name, mediaType string, data []byte)
}

// Copier places text on a clipboard or equivalent.
type Copier interface {
	Copy(text string) error
}

// Sharer hands an artifact to a platform share mechanism and returns the
// shared location. Implementations that cannot share return
// ErrShareUnavailable.
type Sharer interface {
	Share(ctx context.Context, a *Artifact) (string, error)
}

// Handle is the single live reference to a registered artifact. All
// methods return ErrReleased once the handle has been released.
type Handle struct {
	art      *Artifact
	log      *zap.Logger
	spoolDir string

	mu       sync.Mutex
	released bool
	spool    string
}

// Artifact returns the underlying artifact.
func (h *Handle) Artifact() (*Artifact, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.released {
		return nil, ErrReleased
	}
	return h.art, nil
}

// ID returns the artifact ID. It stays valid after release.
func (h *Handle) ID() string { return h.art.ID }

// Name returns the suggested file name. It stays valid after release.
func (h *Handle) Name() string { return h.art.Name() }

// Released reports whether the handle has been released.
func (h *Handle) Released() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.released
}

// Download hands every part to s in order.
func (h *Handle) Download(s Saver) error {
	a, err := h.Artifact()
	if err != nil {
		return err
	}
	for _, p := range a.Parts {
		s.Save(p.Name, p.MediaType, p.Data)
	}
	return nil
}

// Link materializes the artifact under the spool directory and returns a
// file:// URL. A single-part artifact links to the file itself, a
// multi-part one to the directory holding the parts. The files are
// removed on release.
func (h *Handle) Link() (string, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.released {
		return "", ErrReleased
	}
	if h.spool == "" {
		dir, err := os.MkdirTemp(h.spoolDir, "filekit-"+h.art.ID+"-*")
		if err != nil {
			return "", fmt.Errorf("filekit: creating spool directory: %w", err)
		}
		for _, p := range h.art.Parts {
			if err := os.WriteFile(filepath.Join(dir, filepath.Base(p.Name)), p.Data, 0o644); err != nil {
				os.RemoveAll(dir)
				return "", fmt.Errorf("filekit: spooling %s: %w", p.Name, err)
			}
		}
		h.spool = dir
	}
	target := h.spool
	if len(h.art.Parts) == 1 {
		target = filepath.Join(h.spool, filepath.Base(h.art.Parts[0].Name))
	}
	abs, err := filepath.Abs(target)
	if err != nil {
		return "", fmt.Errorf("filekit: resolving path: %w", err)
	}
	return (&url.URL{Scheme: "file", Path: filepath.ToSlash(abs)}).String(), nil
}

// DataURI returns the first part as a data: URI.
func (h *Handle) DataURI() (string, error) {
	a, err := h.Artifact()
	if err != nil {
		return "", err
	}
	if len(a.Parts) == 0 {
		return "", errors.New("filekit: artifact has no parts")
	}
	p := a.Parts[0]
	return "data:" + p.MediaType + ";base64," + p.Base64(), nil
}

// Copy copies the artifact link with c.
func (h *Handle) Copy(c Copier) error {
	link, err := h.Link()
	if err != nil {
		return err
	}
	return c.Copy(link)
}

// Share shares the artifact with s. When s is nil or reports
// ErrShareUnavailable the link is copied with c instead. The returned string
// is the shared location or the copied link.
func (h *Handle) Share(ctx context.Context, s Sharer, c Copier) (string, error) {
	a, err := h.Artifact()
	if err != nil {
		return "", err
	}
	if s != nil {
		loc, err := s.Share(ctx, a)
		if err == nil {
			return loc, nil
		}
		if !errors.Is(err, ErrShareUnavailable) {
			return "", fmt.Errorf("filekit: sharing %s: %w", a.Name(), err)
		}
		h.log.Debug("share unavailable, copying link", zap.String("artifact", a.ID))
	}
	if c == nil {
		return "", ErrShareUnavailable
	}
	link, err := h.Link()
	if err != nil {
		return "", err
	}
	if err := c.Copy(link); err != nil {
		return "", err
	}
	return link, nil
}

// release frees the spooled files. It is idempotent.
func (h *Handle) release() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.released {
		return
	}
	h.released = true
	if h.spool != "" {
		if err := os.RemoveAll(h.spool); err != nil {
			h.log.Warn("removing spooled artifact", zap.String("artifact", h.art.ID), zap.Error(err))
		}
		h.spool = ""
	}
	h.log.Debug("artifact released", zap.String("artifact", h.art.ID))
}

// Lifecycle owns the live artifact of a session. At most one handle is
// live at a time.
type Lifecycle struct {
	log      *zap.Logger
	spoolDir string

	mu  sync.Mutex
	cur *Handle
}

// NewLifecycle returns an empty Lifecycle. An empty spoolDir uses the
// system temp directory.
func NewLifecycle(log *zap.Logger, spoolDir string) *Lifecycle {
	if log == nil {
		log = zap.NewNop()
	}
	return &Lifecycle{log: log, spoolDir: spoolDir}
}

// Register releases the current handle, if any, and makes a the live
// artifact.
func (l *Lifecycle) Register(a *Artifact) *Handle {
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	h := &Handle{art: a, log: l.log, spoolDir: l.spoolDir}

	l.mu.Lock()
	prev := l.cur
	l.cur = h
	l.mu.Unlock()

	if prev != nil {
		prev.release()
	}
	l.log.Debug("artifact registered",
		zap.String("artifact", a.ID),
		zap.String("name", a.Name()),
		zap.Int("parts", len(a.Parts)),
		zap.Int64("bytes", a.Size()),
	)
	return h
}

// Release frees the live handle. Releasing an empty Lifecycle is a no-op.
func (l *Lifecycle) Release() {
	l.mu.Lock()
	h := l.cur
	l.cur = nil
	l.mu.Unlock()
	if h != nil {
		h.release()
	}
}

// Current returns the live handle, or nil.
func (l *Lifecycle) Current() *Handle {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.cur
}

// DirSaver saves parts into Dir. Failures are logged and the first one is
// kept for Err.
type DirSaver struct {
	Dir string
	Log *zap.Logger

	mu    sync.Mutex
	err   error
	saved []string
}

// Save implements Saver.
func (d *DirSaver) Save(name, mediaType string, data []byte) {
	path := filepath.Join(d.Dir, filepath.Base(name))
	err := os.MkdirAll(d.Dir, 0o755)
	if err == nil {
		err = os.WriteFile(path, data, 0o644)
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	if err != nil {
		if d.Log != nil {
			d.Log.Warn("saving artifact", zap.String("path", path), zap.Error(err))
		}
		if d.err == nil {
			d.err = fmt.Errorf("filekit: saving %s: %w", name, err)
		}
		return
	}
	d.saved = append(d.saved, path)
}

// Err returns the first save failure.
func (d *DirSaver) Err() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.err
}

// Saved returns the paths written so far.
func (d *DirSaver) Saved() []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]string(nil), d.saved...)
}
