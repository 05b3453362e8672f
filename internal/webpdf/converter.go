// Package webpdf prints web pages and HTML documents to PDF with headless
// Chrome over the DevTools protocol.
package webpdf

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"sync"

	"github.com/chromedp/cdproto/cdp"
	"github.com/chromedp/cdproto/fetch"
	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"
)

// ErrClosed is returned when using a closed Converter.
var ErrClosed = errors.New("webpdf: converter is closed")

// Converter owns one browser process reused across conversions. It is
// safe for concurrent use; each conversion runs in its own tab.
type Converter struct {
	cfg           converterConfig
	page          PageConfig
	allocCancel   context.CancelFunc
	browserCtx    context.Context
	browserCancel context.CancelFunc

	mu     sync.Mutex
	closed bool
}

// NewConverter starts the browser. The caller must call Close.
func NewConverter(opts ...Option) (*Converter, error) {
	cfg := defaultConfig()
	for _, o := range opts {
		o(&cfg)
	}
	if cfg.chromePath == "" && cfg.autoDownload {
		path, err := resolveBrowser()
		if err != nil {
			return nil, err
		}
		cfg.chromePath = path
	}

	allocOpts := append(
		chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.Flag("disable-extensions", true),
		chromedp.Flag("disable-background-networking", true),
		chromedp.Flag("no-first-run", true),
		chromedp.Flag("headless", cfg.headless),
	)
	if cfg.chromePath != "" {
		allocOpts = append(allocOpts, chromedp.ExecPath(cfg.chromePath))
	}
	if cfg.noSandbox {
		allocOpts = append(allocOpts, chromedp.Flag("no-sandbox", true))
	}

	allocCtx, allocCancel := chromedp.NewExecAllocator(context.Background(), allocOpts...)
	browserCtx, browserCancel := chromedp.NewContext(allocCtx)

	// start eagerly so a missing browser fails here
	if err := chromedp.Run(browserCtx); err != nil {
		browserCancel()
		allocCancel()
		return nil, fmt.Errorf("webpdf: starting browser: %w", err)
	}

	return &Converter{
		cfg:           cfg,
		page:          DefaultPageConfig(),
		allocCancel:   allocCancel,
		browserCtx:    browserCtx,
		browserCancel: browserCancel,
	}, nil
}

// Close stops the browser. Close is idempotent.
func (c *Converter) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return nil
	}
	c.closed = true
	c.browserCancel()
	c.allocCancel()
	return nil
}

// ConvertURL prints the page at rawURL. A nil pg uses DefaultPageConfig.
func (c *Converter) ConvertURL(ctx context.Context, rawURL string, pg *PageConfig) ([]byte, error) {
	if err := c.checkClosed(); err != nil {
		return nil, err
	}
	if _, err := url.ParseRequestURI(rawURL); err != nil {
		return nil, fmt.Errorf("webpdf: invalid URL %q: %w", rawURL, err)
	}
	return c.convert(ctx, rawURL, pg)
}

// ConvertHTML prints an HTML document. Relative references resolve
// against a temporary directory.
func (c *Converter) ConvertHTML(ctx context.Context, html string, pg *PageConfig) ([]byte, error) {
	if err := c.checkClosed(); err != nil {
		return nil, err
	}
	f, err := os.CreateTemp("", "webpdf-*.html")
	if err != nil {
		return nil, fmt.Errorf("webpdf: creating temp file: %w", err)
	}
	name := f.Name()
	defer os.Remove(name)

	if _, err := f.WriteString(html); err != nil {
		f.Close()
		return nil, fmt.Errorf("webpdf: writing temp file: %w", err)
	}
	if err := f.Close(); err != nil {
		return nil, fmt.Errorf("webpdf: closing temp file: %w", err)
	}
	abs, err := filepath.Abs(name)
	if err != nil {
		return nil, fmt.Errorf("webpdf: resolving path: %w", err)
	}
	return c.convert(ctx, "file://"+filepath.ToSlash(abs), pg)
}

// RenderURL prints rawURL with the default page setup.
func (c *Converter) RenderURL(ctx context.Context, rawURL string) ([]byte, error) {
	return c.ConvertURL(ctx, rawURL, &c.page)
}

// RenderHTML prints html with the default page setup.
func (c *Converter) RenderHTML(ctx context.Context, html string) ([]byte, error) {
	return c.ConvertHTML(ctx, html, &c.page)
}

func (c *Converter) convert(ctx context.Context, target string, pg *PageConfig) ([]byte, error) {
	r := pg.resolved()

	if c.cfg.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.cfg.timeout)
		defer cancel()
	}

	tabCtx, tabCancel := chromedp.NewContext(c.browserCtx)
	defer tabCancel()
	// tie the tab to the caller's deadline
	stop := context.AfterFunc(ctx, tabCancel)
	defer stop()

	var actions chromedp.Tasks
	if len(c.cfg.blocked) > 0 {
		c.blockResources(tabCtx)
		actions = append(actions, fetch.Enable())
	}

	width, height := r.paperInches()
	top, right, bottom, left := r.marginInches()

	var buf []byte
	actions = append(actions,
		chromedp.Navigate(target),
		chromedp.WaitReady("body", chromedp.ByQuery),
		chromedp.ActionFunc(func(ctx context.Context) error {
			var err error
			buf, _, err = page.PrintToPDF().
				WithPaperWidth(width).
				WithPaperHeight(height).
				WithMarginTop(top).
				WithMarginRight(right).
				WithMarginBottom(bottom).
				WithMarginLeft(left).
				WithScale(r.Scale).
				WithPrintBackground(r.PrintBackground).
				WithLandscape(r.Orientation == Landscape).
				Do(ctx)
			return err
		}),
	)
	if err := chromedp.Run(tabCtx, actions); err != nil {
		if ctx.Err() != nil {
			return nil, fmt.Errorf("webpdf: conversion failed: %w", ctx.Err())
		}
		return nil, fmt.Errorf("webpdf: conversion failed: %w", err)
	}
	return buf, nil
}

// blockResources fails paused requests whose resource type is blocked and
// lets the rest continue.
func (c *Converter) blockResources(tabCtx context.Context) {
	blocked := make(map[network.ResourceType]bool, len(c.cfg.blocked))
	for _, t := range c.cfg.blocked {
		blocked[network.ResourceType(t)] = true
	}
	chromedp.ListenTarget(tabCtx, func(ev interface{}) {
		paused, ok := ev.(*fetch.EventRequestPaused)
		if !ok {
			return
		}
		go func() {
			execCtx := cdp.WithExecutor(tabCtx, chromedp.FromContext(tabCtx).Target)
			if blocked[paused.ResourceType] {
				_ = fetch.FailRequest(paused.RequestID, network.ErrorReasonBlockedByClient).Do(execCtx)
				return
			}
			_ = fetch.ContinueRequest(paused.RequestID).Do(execCtx)
		}()
	})
}

func (c *Converter) checkClosed() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return ErrClosed
	}
	return nil
}
