package filekit

import (
	"fmt"
	"strings"

	"github.com/porticus-lab/filekit/internal/imaging"
	"github.com/porticus-lab/filekit/internal/textops"
)

// Transformation is the closed set of operations the dispatcher can run.
// Each variant carries its own parameters.
type Transformation interface {
	// Tool returns the slug of the tool the variant implements.
	Tool() string
	transformation()
}

// PDFToDocument extracts the text of every page into a .docx with one
// paragraph per page.
type PDFToDocument struct{}

// PDFToImages renders every page to an image.
type PDFToImages struct {
	// Format is "png" or "jpeg"; anything else falls back to PNG.
	Format string
	// Quality is the JPEG quality as a fraction in (0, 1]. Zero selects 0.9.
	Quality float64
}

// ImageConvert re-encodes an image as Format.
type ImageConvert struct {
	Format string
}

// ImageResize scales an image. A zero dimension is derived from the other.
type ImageResize struct {
	Width, Height int
	KeepAspect    bool
}

// ImageCompress re-encodes an image as JPEG at Quality.
type ImageCompress struct {
	Quality float64
}

// HTMLToPDF prints an HTML document to PDF.
type HTMLToPDF struct{}

// MergePDF concatenates every accepted PDF, in selection order, into one
// document.
type MergePDF struct{}

// TextCase converts the case of a text file.
type TextCase struct {
	Mode textops.Mode
}

// TextStats counts characters, words, sentences and paragraphs.
type TextStats struct{}

// Unsupported is any catalog tool without a backing transformation.
// Dispatching it fails with KindNotImplemented.
type Unsupported struct {
	Name string
}

func (PDFToDocument) Tool() string { return "pdf-to-word" }
func (PDFToImages) Tool() string   { return "pdf-to-jpg" }
func (HTMLToPDF) Tool() string     { return "html-to-pdf" }
func (MergePDF) Tool() string      { return "merge-pdf" }
func (ImageConvert) Tool() string  { return "image-converter" }
func (ImageResize) Tool() string   { return "image-resizer" }
func (ImageCompress) Tool() string { return "image-compressor" }
func (TextCase) Tool() string      { return "text-case-converter" }
func (TextStats) Tool() string     { return "character-and-word-counter" }
func (u Unsupported) Tool() string { return Slugify(u.Name) }

func (PDFToDocument) transformation() {}
func (PDFToImages) transformation()   {}
func (HTMLToPDF) transformation()     {}
func (MergePDF) transformation()      {}
func (ImageConvert) transformation()  {}
func (ImageResize) transformation()   {}
func (ImageCompress) transformation() {}
func (TextCase) transformation()      {}
func (TextStats) transformation()     {}
func (Unsupported) transformation()   {}

// multiFile is implemented by transformations that consume every accepted
// file instead of only the first.
type multiFile interface {
	takesAllFiles()
}

func (MergePDF) takesAllFiles() {}

// TakesAllFiles reports whether t runs over every accepted file.
func TakesAllFiles(t Transformation) bool {
	_, ok := t.(multiFile)
	return ok
}

// Params are the user-tunable settings a tool may read. Unused fields are
// ignored.
type Params struct {
	Format     string
	Quality    float64
	Width      int
	Height     int
	KeepAspect bool
	Case       string
}

// Resolve maps a tool to its transformation. Tools without one resolve to
// Unsupported. Parameter errors are validation errors.
func Resolve(tool ToolDescriptor, p Params) (Transformation, error) {
	if p.Quality < 0 || p.Quality > 1 {
		return nil, validationError(fmt.Sprintf("quality %.2f is outside 0-1", p.Quality), nil)
	}
	switch tool.Slug() {
	case "pdf-to-word":
		return PDFToDocument{}, nil
	case "pdf-to-jpg":
		format := p.Format
		if format == "" {
			format = "jpeg"
		}
		return PDFToImages{Format: format, Quality: p.Quality}, nil
	case "html-to-pdf":
		return HTMLToPDF{}, nil
	case "merge-pdf":
		return MergePDF{}, nil
	case "image-converter":
		if p.Format == "" {
			return nil, validationError("image converter needs a target format", nil)
		}
		return ImageConvert{Format: p.Format}, nil
	case "image-resizer":
		if p.Width < 0 || p.Height < 0 || (p.Width == 0 && p.Height == 0) {
			return nil, validationError(fmt.Sprintf("invalid target size %dx%d", p.Width, p.Height), nil)
		}
		return ImageResize{Width: p.Width, Height: p.Height, KeepAspect: p.KeepAspect}, nil
	case "image-compressor":
		return ImageCompress{Quality: p.Quality}, nil
	case "text-case-converter":
		mode := textops.Upper
		if strings.TrimSpace(p.Case) != "" {
			m, err := textops.ParseMode(p.Case)
			if err != nil {
				return nil, validationError(err.Error(), nil)
			}
			mode = m
		}
		return TextCase{Mode: mode}, nil
	case "character-and-word-counter":
		return TextStats{}, nil
	}
	return Unsupported{Name: tool.Name}, nil
}

// Implemented reports whether Resolve maps the tool to a real
// transformation.
func Implemented(tool ToolDescriptor) bool {
	switch tool.Slug() {
	case "pdf-to-word", "pdf-to-jpg", "html-to-pdf", "merge-pdf", "image-converter", "image-resizer",
		"image-compressor", "text-case-converter", "character-and-word-counter":
		return true
	}
	return false
}

func (t PDFToImages) format() imaging.Format { return imaging.ParseFormat(t.Format) }
