package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/urfave/cli/v2"

	"github.com/porticus-lab/filekit"
)

func toolsCommand() *cli.Command {
	return &cli.Command{
		Name:  "tools",
		Usage: "list the tool catalog",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "category", Usage: "only list tools in this category"},
			&cli.BoolFlag{Name: "implemented", Usage: "only list tools that can process files"},
		},
		Action: runTools,
	}
}

func runTools(c *cli.Context) error {
	catalog := filekit.DefaultCatalog()
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "SLUG\tCATEGORY\tACCEPTS\tSTATUS")
	for _, t := range catalog.Tools() {
		if cat := c.String("category"); cat != "" && t.Category != cat {
			continue
		}
		implemented := filekit.Implemented(t)
		if c.Bool("implemented") && !implemented {
			continue
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", t.Slug(), t.Category, accepts(t), toolStatus(t, implemented))
	}
	return w.Flush()
}

func accepts(t filekit.ToolDescriptor) string {
	if t.Standalone {
		return "-"
	}
	return string(t.AcceptPattern())
}

func toolStatus(t filekit.ToolDescriptor, implemented bool) string {
	var s string
	switch {
	case t.Standalone:
		s = "standalone"
	case implemented:
		s = "ready"
	default:
		s = "not implemented"
	}
	if t.IsNew {
		s += " (new)"
	}
	return s
}
