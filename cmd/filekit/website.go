package main

import (
	"fmt"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/porticus-lab/filekit"
	"github.com/porticus-lab/filekit/internal/password"
)

func websiteCommand() *cli.Command {
	return &cli.Command{
		Name:      "website",
		Usage:     "print a web page to PDF",
		ArgsUsage: "<url>",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "out", Aliases: []string{"o"}, Value: ".", Usage: "directory to save the PDF in"},
		},
		Action: runWebsite,
	}
}

func runWebsite(c *cli.Context) error {
	target := c.Args().First()
	if target == "" {
		return cli.Exit("no URL specified", 2)
	}
	e := getEnv(c)
	kit, err := e.toolkit(toolkitOptions{renderer: true})
	if err != nil {
		return err
	}
	art, err := kit.WebsiteToPDF(c.Context, target)
	if err != nil {
		return cli.Exit(fmt.Sprintf("%s: %v", filekit.KindOf(err), err), 1)
	}
	saver := &filekit.DirSaver{Dir: c.String("out"), Log: e.log}
	for _, p := range art.Parts {
		saver.Save(p.Name, p.MediaType, p.Data)
	}
	if err := saver.Err(); err != nil {
		return err
	}
	for _, path := range saver.Saved() {
		fmt.Println(path)
	}
	return nil
}

func passwordCommand() *cli.Command {
	return &cli.Command{
		Name:  "password",
		Usage: "generate a password",
		Flags: []cli.Flag{
			&cli.IntFlag{Name: "length", Aliases: []string{"l"}, Value: password.DefaultLength, Usage: fmt.Sprintf("length between %d and %d", password.MinLength, password.MaxLength)},
			&cli.IntFlag{Name: "count", Aliases: []string{"n"}, Value: 1, Usage: "number of passwords"},
			&cli.BoolFlag{Name: "no-uppercase", Usage: "leave out uppercase letters"},
			&cli.BoolFlag{Name: "no-numbers", Usage: "leave out digits"},
			&cli.BoolFlag{Name: "no-symbols", Usage: "leave out symbols"},
			&cli.BoolFlag{Name: "exclude-ambiguous", Usage: "leave out look-alike characters such as l, 1 and O"},
		},
		Action: runPassword,
	}
}

func runPassword(c *cli.Context) error {
	opts := password.Options{
		Length:           c.Int("length"),
		Uppercase:        !c.Bool("no-uppercase"),
		Numbers:          !c.Bool("no-numbers"),
		Symbols:          !c.Bool("no-symbols"),
		ExcludeAmbiguous: c.Bool("exclude-ambiguous"),
	}
	for range max(1, c.Int("count")) {
		pw, err := password.Generate(opts)
		if err != nil {
			return cli.Exit(err.Error(), 2)
		}
		fmt.Fprintln(os.Stdout, pw)
	}
	return nil
}
