package filekit

import (
	"context"

	"go.uber.org/zap"
)

// TextEngine selects how PDF page text is extracted.
type TextEngine string

const (
	// EngineNative uses the built-in pure-Go PDF parser.
	EngineNative TextEngine = "native"
	// EngineMuPDF uses MuPDF through the configured Rasterizer.
	EngineMuPDF TextEngine = "mupdf"
)

// DocumentService converts a PDF to a Word document out of process.
type DocumentService interface {
	PDFToWord(ctx context.Context, name string, pdf []byte) ([]byte, error)
}

// PageRenderer prints web pages and HTML documents to PDF.
type PageRenderer interface {
	RenderURL(ctx context.Context, rawURL string) ([]byte, error)
	RenderHTML(ctx context.Context, html string) ([]byte, error)
}

// config holds internal configuration for a Toolkit and its sessions.
type config struct {
	log        *zap.Logger
	catalog    *Catalog
	limits     Limits
	progress   Progress
	textEngine TextEngine
	docService DocumentService
	rasterizer Rasterizer
	rasterDPI  float64
	spoolDir   string
	renderer   PageRenderer
}

func defaultConfig() config {
	return config{
		log:        zap.NewNop(),
		limits:     DefaultLimits(),
		progress:   DefaultProgress(),
		textEngine: EngineNative,
	}
}

// Option configures a [Toolkit].
type Option func(*config)

// WithLogger sets the logger. The default discards everything.
func WithLogger(l *zap.Logger) Option {
	return func(c *config) {
		if l != nil {
			c.log = l
		}
	}
}

// WithCatalog replaces the built-in tool catalog.
func WithCatalog(cat *Catalog) Option {
	return func(c *config) {
		c.catalog = cat
	}
}

// WithLimits sets the size ceilings and capacity threshold.
func WithLimits(l Limits) Option {
	return func(c *config) {
		c.limits = l
	}
}

// WithProgress configures the progress ticker. Zero fields keep their
// defaults.
func WithProgress(p Progress) Option {
	return func(c *config) {
		c.progress = p
	}
}

// WithTextEngine selects the PDF text engine. Defaults to EngineNative.
func WithTextEngine(e TextEngine) Option {
	return func(c *config) {
		c.textEngine = e
	}
}

// WithDocumentService routes PDF to Word conversions to s instead of the
// local extractor.
func WithDocumentService(s DocumentService) Option {
	return func(c *config) {
		c.docService = s
	}
}

// WithRasterizer replaces the MuPDF rasterizer.
func WithRasterizer(r Rasterizer) Option {
	return func(c *config) {
		c.rasterizer = r
	}
}

// WithRasterDPI sets the resolution pages are rendered at.
func WithRasterDPI(dpi float64) Option {
	return func(c *config) {
		c.rasterDPI = dpi
	}
}

// WithSpoolDir sets where artifact links are materialized. Defaults to the
// system temp directory.
func WithSpoolDir(dir string) Option {
	return func(c *config) {
		c.spoolDir = dir
	}
}

// WithPageRenderer enables the website to PDF and HTML to PDF tools.
func WithPageRenderer(r PageRenderer) Option {
	return func(c *config) {
		c.renderer = r
	}
}
