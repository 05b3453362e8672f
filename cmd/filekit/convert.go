package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sync/atomic"

	"github.com/urfave/cli/v2"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/porticus-lab/filekit"
)

// paramFlags are the tool settings shared by convert and batch.
func paramFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{Name: "out", Aliases: []string{"o"}, Value: ".", Usage: "directory to save results in"},
		&cli.StringFlag{Name: "format", Aliases: []string{"f"}, Usage: "output image format (png, jpeg)"},
		&cli.Float64Flag{Name: "quality", Aliases: []string{"q"}, Usage: "output quality between 0 and 1"},
		&cli.IntFlag{Name: "width", Usage: "target width in pixels"},
		&cli.IntFlag{Name: "height", Usage: "target height in pixels"},
		&cli.BoolFlag{Name: "keep-aspect", Value: true, Usage: "keep the aspect ratio when resizing"},
		&cli.StringFlag{Name: "case", Usage: "text case (upper, lower, title, sentence, camel, pascal, snake, kebab)"},
	}
}

func paramsFrom(c *cli.Context) filekit.Params {
	return filekit.Params{
		Format:     c.String("format"),
		Quality:    c.Float64("quality"),
		Width:      c.Int("width"),
		Height:     c.Int("height"),
		KeepAspect: c.Bool("keep-aspect"),
		Case:       c.String("case"),
	}
}

func convertCommand() *cli.Command {
	return &cli.Command{
		Name:      "convert",
		Usage:     "run one tool over a file",
		ArgsUsage: "<tool> <file> [more files]",
		Flags: append(paramFlags(),
			&cli.BoolFlag{Name: "link", Usage: "print a file:// link instead of saving"},
			&cli.BoolFlag{Name: "share", Usage: "upload the result and print a shareable link"},
			&cli.BoolFlag{Name: "quiet", Usage: "hide the progress bar"},
		),
		Action: runConvert,
	}
}

// stdoutCopier prints what would be copied to the clipboard.
type stdoutCopier struct{}

func (stdoutCopier) Copy(text string) error {
	_, err := fmt.Fprintln(os.Stdout, text)
	return err
}

func runConvert(c *cli.Context) error {
	if c.NArg() < 2 {
		return cli.Exit("usage: filekit convert <tool> <file> [more files]", 2)
	}
	e := getEnv(c)
	slug := c.Args().First()
	kit, err := e.toolkit(toolkitOptions{remote: true, renderer: slug == filekit.HTMLToPDF{}.Tool()})
	if err != nil {
		return err
	}

	sess, err := kit.NewSession(slug)
	if err != nil {
		return cli.Exit(err.Error(), 2)
	}
	t, err := kit.Resolve(slug, paramsFrom(c))
	if err != nil {
		return cli.Exit(err.Error(), 2)
	}

	var files []filekit.FileCandidate
	for _, path := range c.Args().Tail() {
		f, err := filekit.IntakePath(path)
		if err != nil {
			return err
		}
		files = append(files, f)
	}
	p, err := sess.Offer(files)
	for _, v := range p.Rejected {
		fmt.Fprintln(os.Stderr, v.Message)
	}
	if err != nil {
		return cli.Exit(err.Error(), 1)
	}

	stop := func() {}
	if !c.Bool("quiet") {
		stop = watch(sess, p.Accepted[0].Name)
	}
	out, err := sess.Run(c.Context, t)
	stop()
	if out.Notice != "" {
		fmt.Fprintln(os.Stderr, out.Notice)
	}
	if err != nil {
		return cli.Exit(fmt.Sprintf("%s: %v", filekit.KindOf(err), err), 1)
	}
	// A printed file:// link points into the spool, so the session is only
	// reset when the result was saved or uploaded.
	if c.Bool("link") {
		return out.Artifact.Copy(stdoutCopier{})
	}
	defer sess.Reset()

	if c.Bool("share") {
		sharer, err := e.sharer(c.Context)
		if err != nil {
			return err
		}
		if sharer == nil {
			return cli.Exit("sharing needs share.s3 in the config", 2)
		}
		loc, err := out.Artifact.Share(c.Context, sharer, nil)
		if err != nil {
			return err
		}
		fmt.Println(loc)
		return nil
	}
	return save(out.Artifact, c.String("out"), e.log)
}

func save(h *filekit.Handle, dir string, log *zap.Logger) error {
	saver := &filekit.DirSaver{Dir: dir, Log: log}
	if err := h.Download(saver); err != nil {
		return err
	}
	if err := saver.Err(); err != nil {
		return err
	}
	for _, path := range saver.Saved() {
		fmt.Println(path)
	}
	return nil
}

func batchCommand() *cli.Command {
	return &cli.Command{
		Name:      "batch",
		Usage:     "run one tool over many files concurrently",
		ArgsUsage: "<tool> <file>...",
		Flags: append(paramFlags(),
			&cli.IntFlag{Name: "jobs", Aliases: []string{"j"}, Value: runtime.NumCPU(), Usage: "files processed at once"},
			&cli.BoolFlag{Name: "keep-going", Usage: "continue after a file fails"},
		),
		Action: runBatch,
	}
}

func runBatch(c *cli.Context) error {
	if c.NArg() < 2 {
		return cli.Exit("usage: filekit batch <tool> <file>...", 2)
	}
	e := getEnv(c)
	slug := c.Args().First()
	kit, err := e.toolkit(toolkitOptions{remote: true, renderer: slug == filekit.HTMLToPDF{}.Tool()})
	if err != nil {
		return err
	}
	t, err := kit.Resolve(slug, paramsFrom(c))
	if err != nil {
		return cli.Exit(err.Error(), 2)
	}
	if _, err := kit.NewSession(slug); err != nil {
		return cli.Exit(err.Error(), 2)
	}

	paths := c.Args().Tail()
	bar := newBar(int64(len(paths)), slug)
	var failed atomic.Int32

	g, ctx := errgroup.WithContext(c.Context)
	g.SetLimit(max(1, c.Int("jobs")))
	for _, path := range paths {
		g.Go(func() error {
			defer bar.Add(1)
			err := batchOne(ctx, kit, slug, t, path, c.String("out"), e.log)
			if err == nil {
				return nil
			}
			failed.Add(1)
			e.log.Warn("batch item failed", zap.String("file", path), zap.Error(err))
			if c.Bool("keep-going") {
				return nil
			}
			return fmt.Errorf("%s: %w", path, err)
		})
	}
	if err := g.Wait(); err != nil {
		return cli.Exit(err.Error(), 1)
	}
	if n := failed.Load(); n > 0 {
		return cli.Exit(fmt.Sprintf("%d of %d file(s) failed", n, len(paths)), 1)
	}
	return nil
}

// batchOne runs t over one file in its own session.
func batchOne(ctx context.Context, kit *filekit.Toolkit, slug string, t filekit.Transformation, path, dir string, log *zap.Logger) error {
	f, err := filekit.IntakePath(path)
	if err != nil {
		return err
	}
	sess, err := kit.NewSession(slug)
	if err != nil {
		return err
	}
	defer sess.Reset()

	p, err := sess.Offer([]filekit.FileCandidate{f})
	if err != nil {
		if len(p.Rejected) > 0 {
			return errors.New(p.Rejected[0].Message)
		}
		return err
	}
	out, err := sess.Run(ctx, t)
	if err != nil {
		return err
	}
	return save(out.Artifact, filepath.Clean(dir), log.With(zap.String("file", path)))
}
