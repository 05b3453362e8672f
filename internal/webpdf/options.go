package webpdf

import "time"

// converterConfig holds internal configuration for a Converter.
type converterConfig struct {
	chromePath   string
	timeout      time.Duration
	noSandbox    bool
	headless     string
	autoDownload bool
	blocked      []string
}

func defaultConfig() converterConfig {
	return converterConfig{
		timeout:  30 * time.Second,
		headless: "new",
	}
}

// Option configures a [Converter].
type Option func(*converterConfig)

// WithChromePath sets the Chrome or Chromium executable. By default
// standard locations are searched.
func WithChromePath(path string) Option {
	return func(c *converterConfig) {
		c.chromePath = path
	}
}

// WithTimeout bounds a single conversion. Defaults to 30 seconds; zero or
// less disables the timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *converterConfig) {
		c.timeout = d
	}
}

// WithNoSandbox disables the Chrome sandbox, which is required when
// running as root inside containers.
func WithNoSandbox() Option {
	return func(c *converterConfig) {
		c.noSandbox = true
	}
}

// WithAutoDownload fetches a compatible Chromium into the rod cache when
// no executable path is set.
func WithAutoDownload() Option {
	return func(c *converterConfig) {
		c.autoDownload = true
	}
}

// WithBlockedResources fails requests for the given resource types
// ("Image", "Media", "Font", "Stylesheet", ...) while loading a page.
func WithBlockedResources(types ...string) Option {
	return func(c *converterConfig) {
		c.blocked = append(c.blocked, types...)
	}
}

// LightweightResources are the resource types blocked by the website to
// PDF tool to keep captures fast.
var LightweightResources = []string{"Image", "Media", "Font", "Stylesheet"}
