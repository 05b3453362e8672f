package filekit

import (
	"sort"
	"strings"
	"sync"

	"github.com/porticus-lab/filekit/internal/docx"
)

// ToolDescriptor is static metadata for one tool. Values are never mutated
// after the catalog is loaded.
type ToolDescriptor struct {
	Name        string
	Description string
	Category    string
	// Standalone tools take no file input and bypass the pipeline.
	Standalone bool
	IsNew      bool
	// Accept overrides the category accept pattern when set.
	Accept AcceptPattern
}

// Slug derives the lookup key: lowercase, spaces to hyphens, "&" to "and".
func (t ToolDescriptor) Slug() string {
	return Slugify(t.Name)
}

// Slugify applies the catalog slug rules to an arbitrary name.
func Slugify(name string) string {
	s := strings.ToLower(name)
	s = strings.ReplaceAll(s, " ", "-")
	return strings.ReplaceAll(s, "&", "and")
}

// AcceptPattern returns the effective accept pattern for the tool.
func (t ToolDescriptor) AcceptPattern() AcceptPattern {
	if t.Accept != "" {
		return t.Accept
	}
	return CategoryAccept(t.Category)
}

// CategoryAccept returns the accept pattern for a tool category.
func CategoryAccept(category string) AcceptPattern {
	switch category {
	case "Image Tools":
		return "image/png,image/jpeg,image/webp"
	case "Convert PDF", "Organize PDF", "Optimize PDF", "Edit PDF", "PDF Security":
		return "application/pdf"
	case "Audio Tools":
		return "audio/mpeg,audio/wav,audio/ogg"
	case "Video Tools":
		return "video/mp4,video/webm,video/ogg"
	}
	return AcceptAny
}

// Catalog is an immutable, slug-indexed set of tools.
type Catalog struct {
	tools  []ToolDescriptor
	bySlug map[string]int
}

// NewCatalog indexes tools by slug. Later duplicates are ignored.
func NewCatalog(tools []ToolDescriptor) *Catalog {
	c := &Catalog{bySlug: make(map[string]int, len(tools))}
	for _, t := range tools {
		slug := t.Slug()
		if _, dup := c.bySlug[slug]; dup {
			continue
		}
		c.bySlug[slug] = len(c.tools)
		c.tools = append(c.tools, t)
	}
	return c
}

// Lookup returns the tool for slug.
func (c *Catalog) Lookup(slug string) (ToolDescriptor, bool) {
	i, ok := c.bySlug[slug]
	if !ok {
		return ToolDescriptor{}, false
	}
	return c.tools[i], true
}

// Tools returns the tools in catalog order. The slice is a copy.
func (c *Catalog) Tools() []ToolDescriptor {
	return append([]ToolDescriptor(nil), c.tools...)
}

// Categories returns the distinct categories, sorted.
func (c *Catalog) Categories() []string {
	seen := map[string]bool{}
	var out []string
	for _, t := range c.tools {
		if !seen[t.Category] {
			seen[t.Category] = true
			out = append(out, t.Category)
		}
	}
	sort.Strings(out)
	return out
}

var (
	defaultCatalog     *Catalog
	defaultCatalogOnce sync.Once
)

// DefaultCatalog returns the built-in tool catalog. It is built once.
func DefaultCatalog() *Catalog {
	defaultCatalogOnce.Do(func() {
		defaultCatalog = NewCatalog(builtinTools)
	})
	return defaultCatalog
}

var builtinTools = []ToolDescriptor{
	// Convert PDF
	{Name: "PDF to Word", Description: "Convert your PDF to an editable Word document.", Category: "Convert PDF", IsNew: true},
	{Name: "Word to PDF", Description: "Convert Microsoft Word documents to PDF.", Category: "Convert PDF", Accept: "application/msword," + docx.MediaType},
	{Name: "PDF to JPG", Description: "Convert each PDF page into a JPG image.", Category: "Convert PDF"},
	{Name: "Image to PDF", Description: "Convert JPG, PNG, and other images to a single PDF file.", Category: "Convert PDF", IsNew: true, Accept: "image/*"},
	{Name: "Website to PDF", Description: "Convert any webpage into a PDF file.", Category: "Convert PDF", Standalone: true, IsNew: true},
	{Name: "PDF to PowerPoint", Description: "Convert your PDF to a presentation.", Category: "Convert PDF"},
	{Name: "PDF to Excel", Description: "Extract data from PDF tables to an Excel sheet.", Category: "Convert PDF"},
	{Name: "PowerPoint to PDF", Description: "Convert PowerPoint presentations to PDF.", Category: "Convert PDF", Accept: "application/vnd.ms-powerpoint,application/vnd.openxmlformats-officedocument.presentationml.presentation"},
	{Name: "Excel to PDF", Description: "Convert Excel spreadsheets to PDF.", Category: "Convert PDF", Accept: "application/vnd.ms-excel,application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"},
	{Name: "HTML to PDF", Description: "Convert webpages to PDF documents.", Category: "Convert PDF", Accept: "text/html"},
	{Name: "PDF to PDF/A", Description: "Convert to the ISO-standardized PDF/A format.", Category: "Convert PDF"},

	// Organize PDF
	{Name: "Merge PDF", Description: "Combine multiple PDF files into one.", Category: "Organize PDF"},
	{Name: "Split PDF", Description: "Extract pages from a PDF file.", Category: "Organize PDF"},
	{Name: "Remove Pages", Description: "Delete one or more pages from your PDF file.", Category: "Organize PDF"},
	{Name: "Extract Pages", Description: "Select and export specific pages from a PDF.", Category: "Organize PDF"},
	{Name: "Reorder Pages", Description: "Sort pages of your PDF file with drag & drop.", Category: "Organize PDF"},
	{Name: "Scan to PDF", Description: "Use your camera to scan documents into a PDF.", Category: "Organize PDF", IsNew: true},

	// Edit PDF
	{Name: "Rotate PDF", Description: "Rotate one or all pages in your PDF file.", Category: "Edit PDF"},
	{Name: "Add Page Numbers", Description: "Insert page numbers into your PDF easily.", Category: "Edit PDF"},
	{Name: "Add Watermark", Description: "Stamp text or an image over your PDF.", Category: "Edit PDF"},
	{Name: "Crop PDF", Description: "Trim the margins of your PDF pages.", Category: "Edit PDF"},
	{Name: "Draw/Annotate PDF", Description: "Draw, highlight, and add notes to a PDF.", Category: "Edit PDF"},
	{Name: "Fill & Edit PDF Forms", Description: "Edit and fill out AcroForms and XFA forms.", Category: "Edit PDF"},

	// Optimize PDF
	{Name: "Compress PDF", Description: "Reduce the file size of your PDF documents.", Category: "Optimize PDF"},
	{Name: "Repair PDF", Description: "Attempt to fix and recover data from a corrupted PDF.", Category: "Optimize PDF"},
	{Name: "OCR PDF", Description: "Extract selectable text from scanned PDFs.", Category: "Optimize PDF"},
	{Name: "Flatten PDF", Description: "Make PDF forms and annotations un-editable.", Category: "Optimize PDF"},

	// PDF Security
	{Name: "Unlock PDF", Description: "Remove password protection from a PDF file.", Category: "PDF Security"},
	{Name: "Protect PDF", Description: "Add a password and encrypt your PDF file.", Category: "PDF Security"},
	{Name: "Sign PDF", Description: "Create or apply your electronic signature to a PDF.", Category: "PDF Security"},
	{Name: "Redact PDF", Description: "Permanently black out sensitive information.", Category: "PDF Security"},

	// Image Tools
	{Name: "Image Converter", Description: "Convert images between PNG, JPG, WebP.", Category: "Image Tools", Accept: "image/png,image/jpeg,image/webp,image/gif,image/bmp"},
	{Name: "Image Compressor", Description: "Reduce image file sizes.", Category: "Image Tools"},
	{Name: "Image Resizer", Description: "Crop and resize your images.", Category: "Image Tools"},
	{Name: "Photo Editor", Description: "Make basic adjustments to your photos.", Category: "Image Tools"},
	{Name: "Background Remover", Description: "Automatically remove the background.", Category: "Image Tools", IsNew: true},
	{Name: "Color Palette Generator", Description: "Extract a color scheme from an image.", Category: "Image Tools"},

	// Video Tools
	{Name: "Video Compressor", Description: "Reduce video file sizes without losing quality.", Category: "Video Tools"},
	{Name: "Trim Video", Description: "Cut out a portion from the beginning or end.", Category: "Video Tools"},
	{Name: "Video to GIF", Description: "Convert a video clip into an animated GIF.", Category: "Video Tools"},
	{Name: "Video Converter", Description: "Convert videos between formats like MP4, WebM.", Category: "Video Tools"},
	{Name: "Merge Videos", Description: "Combine multiple video clips into one.", Category: "Video Tools"},
	{Name: "Extract Audio from Video", Description: "Rip the audio track from a video file.", Category: "Video Tools"},

	// Audio Tools
	{Name: "Audio Compressor", Description: "Reduce the file size of audio files.", Category: "Audio Tools"},
	{Name: "Audio Converter", Description: "Convert audio between MP3, WAV, M4A, etc.", Category: "Audio Tools"},
	{Name: "Trim Audio", Description: "Cut a section from an audio file.", Category: "Audio Tools"},
	{Name: "Merge Audio", Description: "Join multiple audio tracks into one.", Category: "Audio Tools"},
	{Name: "Voice Recorder", Description: "Record audio directly from your microphone.", Category: "Audio Tools", Standalone: true, IsNew: true},

	// Utility Tools
	{Name: "Password Generator", Description: "Create strong, secure passwords.", Category: "Utility Tools", Standalone: true},
	{Name: "QR Code Generator", Description: "Create your own QR codes.", Category: "Utility Tools"},
	{Name: "QR Code Scanner", Description: "Scan QR codes using your camera.", Category: "Utility Tools"},
	{Name: "Text Case Converter", Description: "Change text to uppercase, lowercase, title case.", Category: "Utility Tools", Accept: "text/*"},
	{Name: "Character & Word Counter", Description: "Count characters, words, sentences.", Category: "Utility Tools", Accept: "text/*"},
	{Name: "Regex Tester", Description: "Test your regular expressions in real-time.", Category: "Utility Tools"},
	{Name: "Unit Converter", Description: "Convert between various units of measurement.", Category: "Utility Tools"},
	{Name: "Lorem Ipsum Generator", Description: "Generate placeholder text for your designs.", Category: "Utility Tools"},
	{Name: "Stopwatch & Timer", Description: "Measure time or set a timer.", Category: "Utility Tools", Standalone: true},
	{Name: "JSON Formatter & Validator", Description: "Beautify and validate your JSON data.", Category: "Utility Tools"},
	{Name: "Text Compare", Description: "Find the differences between two text files.", Category: "Utility Tools"},
	{Name: "Base64 Encoder/Decoder", Description: "Encode to or decode from Base64.", Category: "Utility Tools"},
	{Name: "URL Encoder/Decoder", Description: "Encode or decode URLs for safe transmission.", Category: "Utility Tools"},
	{Name: "Notepad", Description: "A simple online notepad for quick notes.", Category: "Utility Tools", Standalone: true, IsNew: true},

	// Converters
	{Name: "Markdown <-> HTML", Description: "Convert between Markdown and HTML.", Category: "Converters"},
	{Name: "CSV <-> JSON", Description: "Convert between CSV and JSON formats.", Category: "Converters"},
	{Name: "YAML <-> JSON", Description: "Convert between YAML and JSON formats.", Category: "Converters"},

	// Archive Tools
	{Name: "Zip File Extractor", Description: "Unzip files from a compressed archive.", Category: "Archive Tools"},
	{Name: "Create Zip File", Description: "Compress multiple files into a single ZIP archive.", Category: "Archive Tools"},
	{Name: "PDF/ZIP Split by Size", Description: "Split large archives into smaller chunks.", Category: "Archive Tools"},
}
