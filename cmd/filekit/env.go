package main

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v2"
	"go.uber.org/zap"

	"github.com/porticus-lab/filekit"
	"github.com/porticus-lab/filekit/internal/config"
	"github.com/porticus-lab/filekit/internal/logging"
	"github.com/porticus-lab/filekit/internal/remote"
	"github.com/porticus-lab/filekit/internal/share"
	"github.com/porticus-lab/filekit/internal/webpdf"
)

const envKey = "filekit.env"

// env is the state shared by commands.
type env struct {
	cfg     *config.Config
	log     *zap.Logger
	closers []func() error
}

func setup(c *cli.Context) error {
	if err := config.LoadDotEnv(c.StringSlice("env-file")...); err != nil {
		return cli.Exit(err.Error(), 2)
	}
	cfg, err := config.Load(c.String("config"))
	if err != nil {
		return cli.Exit(err.Error(), 2)
	}
	if lvl := c.String("log-level"); lvl != "" {
		cfg.Log.Level = lvl
	}
	log, err := logging.New(logging.Config{Level: cfg.Log.Level, Format: cfg.Log.Format})
	if err != nil {
		return cli.Exit(err.Error(), 2)
	}
	c.App.Metadata[envKey] = &env{cfg: cfg, log: log}
	return nil
}

func teardown(c *cli.Context) error {
	e, ok := c.App.Metadata[envKey].(*env)
	if !ok {
		return nil
	}
	for i := len(e.closers) - 1; i >= 0; i-- {
		if err := e.closers[i](); err != nil {
			e.log.Warn("closing", zap.Error(err))
		}
	}
	_ = e.log.Sync()
	return nil
}

func getEnv(c *cli.Context) *env {
	return c.App.Metadata[envKey].(*env)
}

// toolkitOptions selects optional collaborators.
type toolkitOptions struct {
	renderer bool
	remote   bool
}

// toolkit builds a Toolkit from the config. Collaborators are closed in
// teardown.
func (e *env) toolkit(o toolkitOptions) (*filekit.Toolkit, error) {
	opts := append(e.cfg.Options(), filekit.WithLogger(e.log))

	if o.remote && e.cfg.Remote.BaseURL != "" {
		rc := remote.Config{
			BaseURL: e.cfg.Remote.BaseURL,
			Headers: e.cfg.Remote.Headers,
			Timeout: e.cfg.Remote.Timeout.Duration,
			Retries: remote.DefaultRetries,
		}
		if e.cfg.Remote.Retries != nil {
			rc.Retries = *e.cfg.Remote.Retries
		}
		client, err := remote.New(rc, e.log)
		if err != nil {
			return nil, err
		}
		e.closers = append(e.closers, client.Close)
		opts = append(opts, filekit.WithDocumentService(client))
	}

	if o.renderer {
		conv, err := webpdf.NewConverter(e.browserOptions()...)
		if err != nil {
			return nil, err
		}
		opts = append(opts, filekit.WithPageRenderer(conv))
	}

	kit := filekit.New(opts...)
	e.closers = append(e.closers, kit.Close)
	return kit, nil
}

func (e *env) browserOptions() []webpdf.Option {
	b := e.cfg.Browser
	var opts []webpdf.Option
	if b.ChromePath != "" {
		opts = append(opts, webpdf.WithChromePath(b.ChromePath))
	}
	if b.NoSandbox {
		opts = append(opts, webpdf.WithNoSandbox())
	}
	if b.AutoDownload {
		opts = append(opts, webpdf.WithAutoDownload())
	}
	if b.Timeout.Duration > 0 {
		opts = append(opts, webpdf.WithTimeout(b.Timeout.Duration))
	}
	if b.BlockResources {
		opts = append(opts, webpdf.WithBlockedResources(webpdf.LightweightResources...))
	}
	return opts
}

// sharer returns the configured S3 sharer, or nil.
func (e *env) sharer(ctx context.Context) (filekit.Sharer, error) {
	s := e.cfg.Share.S3
	if s == nil {
		return nil, nil
	}
	sh, err := share.NewS3Sharer(ctx, share.S3Config{
		Bucket:       s.Bucket,
		Prefix:       s.Prefix,
		Region:       s.Region,
		Endpoint:     s.Endpoint,
		UsePathStyle: s.UsePathStyle,
		Expiry:       s.Expiry.Duration,
	}, e.log)
	if err != nil {
		return nil, fmt.Errorf("share: %w", err)
	}
	return sh, nil
}
