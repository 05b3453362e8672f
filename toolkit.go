package filekit

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"strings"
	"sync"

	"go.uber.org/zap"
)

// Toolkit is the entry point of the library. It owns the catalog, the
// configuration and the dispatcher shared by the sessions it creates.
//
// A Toolkit is safe for concurrent use. Call [Toolkit.Close] to release
// collaborators such as the page renderer.
type Toolkit struct {
	cfg  config
	disp *dispatcher

	mu     sync.Mutex
	closed bool
}

// New creates a Toolkit with the given options.
func New(opts ...Option) *Toolkit {
	cfg := defaultConfig()
	for _, o := range opts {
		o(&cfg)
	}
	if cfg.catalog == nil {
		cfg.catalog = DefaultCatalog()
	}
	return &Toolkit{cfg: cfg, disp: newDispatcher(cfg)}
}

// Catalog returns the tool catalog.
func (k *Toolkit) Catalog() *Catalog { return k.cfg.catalog }

// Limits returns the configured limits.
func (k *Toolkit) Limits() Limits { return k.cfg.limits }

// Tool looks up a tool by slug.
func (k *Toolkit) Tool(slug string) (ToolDescriptor, error) {
	t, ok := k.cfg.catalog.Lookup(slug)
	if !ok {
		return ToolDescriptor{}, fmt.Errorf("%w: %q", ErrUnknownTool, slug)
	}
	return t, nil
}

// NewSession creates a processing session for the tool with the given
// slug. Standalone tools take no files and are refused with ErrStandalone.
func (k *Toolkit) NewSession(slug string) (*Session, error) {
	if err := k.checkClosed(); err != nil {
		return nil, err
	}
	t, err := k.Tool(slug)
	if err != nil {
		return nil, err
	}
	if t.Standalone {
		return nil, fmt.Errorf("%w: %s", ErrStandalone, t.Name)
	}
	return newSession(t, k.cfg, k.disp), nil
}

// Resolve maps the tool with the given slug to its transformation.
func (k *Toolkit) Resolve(slug string, p Params) (Transformation, error) {
	t, err := k.Tool(slug)
	if err != nil {
		return nil, err
	}
	return Resolve(t, p)
}

// WebsiteToPDF prints the page at rawURL to a PDF artifact using the
// configured PageRenderer. Failures are *Error values.
func (k *Toolkit) WebsiteToPDF(ctx context.Context, rawURL string) (*Artifact, error) {
	if err := k.checkClosed(); err != nil {
		return nil, err
	}
	u, err := url.ParseRequestURI(rawURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") {
		return nil, validationError(fmt.Sprintf("%q is not a valid http(s) URL", rawURL), err)
	}
	if k.cfg.renderer == nil {
		return nil, notImplementedError("Website to PDF")
	}
	data, err := k.cfg.renderer.RenderURL(ctx, rawURL)
	if err != nil {
		k.cfg.log.Warn("website to pdf failed", zap.String("url", rawURL), zap.Error(err))
		return nil, transformationError("the page could not be printed to PDF", err)
	}
	name := strings.ReplaceAll(u.Hostname(), ".", "-") + ".pdf"
	return &Artifact{Source: rawURL, Parts: []Part{{Name: name, MediaType: "application/pdf", Data: data}}}, nil
}

// Close releases collaborators that hold resources. Close is idempotent.
func (k *Toolkit) Close() error {
	k.mu.Lock()
	defer k.mu.Unlock()
	if k.closed {
		return nil
	}
	k.closed = true
	if c, ok := k.cfg.renderer.(io.Closer); ok {
		return c.Close()
	}
	return nil
}

func (k *Toolkit) checkClosed() error {
	k.mu.Lock()
	defer k.mu.Unlock()
	if k.closed {
		return ErrClosed
	}
	return nil
}
