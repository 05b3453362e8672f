package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/urfave/cli/v2"

	"github.com/porticus-lab/filekit/internal/pdf"
	"github.com/porticus-lab/filekit/internal/raster"
)

func extractCommand() *cli.Command {
	return &cli.Command{
		Name:      "extract",
		Usage:     "extract plain text from a PDF",
		ArgsUsage: "<file.pdf>",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "out", Aliases: []string{"o"}, Usage: "write output to file (default: stdout)"},
			&cli.StringFlag{Name: "pages", Aliases: []string{"p"}, Usage: `page range, e.g. "1", "1-5", "1,3,5"`},
			&cli.StringFlag{Name: "format", Aliases: []string{"f"}, Value: "text", Usage: "output format: text, json, markdown"},
			&cli.StringFlag{Name: "engine", Value: "native", Usage: "text engine: native, mupdf"},
		},
		Action: runExtract,
	}
}

type pageText struct {
	Page int    `json:"page"`
	Text string `json:"text"`
}

// pageSource yields the text of one 0-based page.
type pageSource interface {
	NumPages() int
	Page(i int) (string, error)
}

type mupdfSource struct{ doc *raster.Document }

func (m mupdfSource) NumPages() int              { return m.doc.NumPages() }
func (m mupdfSource) Page(i int) (string, error) { return m.doc.Text(i) }

func openSource(path, engine string) (pageSource, func(), error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, err
	}
	switch engine {
	case "mupdf":
		doc, err := raster.Open(data, raster.DefaultDPI)
		if err != nil {
			return nil, nil, err
		}
		return mupdfSource{doc}, func() { doc.Close() }, nil
	case "native", "":
		doc, err := pdf.Load(data)
		if err != nil {
			return nil, nil, err
		}
		ext, err := pdf.NewExtractor(doc)
		if err != nil {
			return nil, nil, err
		}
		return ext, func() {}, nil
	}
	return nil, nil, fmt.Errorf("unknown engine %q", engine)
}

func runExtract(c *cli.Context) error {
	input := c.Args().First()
	if input == "" {
		return cli.Exit("no input file specified", 2)
	}
	src, closeSrc, err := openSource(input, c.String("engine"))
	if err != nil {
		return fmt.Errorf("opening %s: %w", input, err)
	}
	defer closeSrc()

	indices, err := parsePageRange(c.String("pages"), src.NumPages())
	if err != nil {
		return cli.Exit(fmt.Sprintf("invalid page range %q: %v", c.String("pages"), err), 2)
	}

	var results []pageText
	for _, i := range indices {
		if err := c.Context.Err(); err != nil {
			return err
		}
		text, err := src.Page(i)
		if err != nil {
			fmt.Fprintf(os.Stderr, "warning: page %d: %v\n", i+1, err)
			continue
		}
		results = append(results, pageText{Page: i + 1, Text: text})
	}

	var out io.Writer = os.Stdout
	if path := c.String("out"); path != "" {
		f, err := os.Create(path)
		if err != nil {
			return fmt.Errorf("creating output file: %w", err)
		}
		defer f.Close()
		out = f
	}
	return writePages(out, results, c.String("format"))
}

func writePages(out io.Writer, pages []pageText, format string) error {
	switch format {
	case "json":
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(pages)
	case "markdown":
		for _, p := range pages {
			fmt.Fprintf(out, "## Page %d\n\n%s\n\n", p.Page, p.Text)
		}
	case "text", "":
		for i, p := range pages {
			if i > 0 {
				fmt.Fprintln(out, "\f")
			}
			fmt.Fprintln(out, p.Text)
		}
	default:
		return cli.Exit(fmt.Sprintf("unknown format %q", format), 2)
	}
	return nil
}

func infoCommand() *cli.Command {
	return &cli.Command{
		Name:      "info",
		Usage:     "show PDF metadata and page dimensions",
		ArgsUsage: "<file.pdf>",
		Action:    runInfo,
	}
}

func runInfo(c *cli.Context) error {
	input := c.Args().First()
	if input == "" {
		return cli.Exit("no input file specified", 2)
	}
	doc, err := pdf.Open(input)
	if err != nil {
		return fmt.Errorf("opening %s: %w", input, err)
	}
	pages, err := doc.Pages()
	if err != nil {
		return fmt.Errorf("reading pages: %w", err)
	}

	fmt.Printf("File:    %s\n", input)
	fmt.Printf("Version: PDF-%s\n", doc.Version())
	fmt.Printf("Pages:   %d\n", len(pages))
	for _, key := range []string{"Title", "Author", "Subject", "Creator", "Producer"} {
		if v := doc.Metadata()[key]; v != "" {
			fmt.Printf("%-8s %s\n", key+":", v)
		}
	}
	if len(pages) == 0 {
		return nil
	}
	fmt.Println()
	fmt.Println("Page dimensions:")
	for i, page := range pages {
		info := doc.Info(page)
		fmt.Printf("  Page %d: %.0f x %.0f pt", i+1, info.Width, info.Height)
		if info.Rotation != 0 {
			fmt.Printf(" (rotated %d°)", info.Rotation)
		}
		fmt.Println()
	}
	return nil
}

// parsePageRange converts a page range to 0-based page indices in the
// order given, without duplicates. "" selects every page.
func parsePageRange(expr string, total int) ([]int, error) {
	if strings.TrimSpace(expr) == "" {
		indices := make([]int, total)
		for i := range indices {
			indices[i] = i
		}
		return indices, nil
	}

	var indices []int
	seen := map[int]bool{}
	add := func(p int) {
		if !seen[p] {
			seen[p] = true
			indices = append(indices, p-1)
		}
	}
	for _, part := range strings.Split(expr, ",") {
		part = strings.TrimSpace(part)
		if lo, hi, ok := strings.Cut(part, "-"); ok {
			start, err := strconv.Atoi(strings.TrimSpace(lo))
			if err != nil {
				return nil, fmt.Errorf("invalid page number: %s", lo)
			}
			end, err := strconv.Atoi(strings.TrimSpace(hi))
			if err != nil {
				return nil, fmt.Errorf("invalid page number: %s", hi)
			}
			if start < 1 || end > total || start > end {
				return nil, fmt.Errorf("page range %d-%d out of bounds (1-%d)", start, end, total)
			}
			for p := start; p <= end; p++ {
				add(p)
			}
			continue
		}
		p, err := strconv.Atoi(part)
		if err != nil {
			return nil, fmt.Errorf("invalid page number: %s", part)
		}
		if p < 1 || p > total {
			return nil, fmt.Errorf("page %d out of bounds (1-%d)", p, total)
		}
		add(p)
	}
	return indices, nil
}
