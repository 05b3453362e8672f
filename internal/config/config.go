// Package config loads the YAML configuration of the filekit command.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/porticus-lab/filekit"
)

// Config is the top-level configuration file.
type Config struct {
	Log      LogConfig      `yaml:"log"`
	Limits   LimitsConfig   `yaml:"limits"`
	Progress ProgressConfig `yaml:"progress"`
	Engines  EnginesConfig  `yaml:"engines"`
	SpoolDir string         `yaml:"spool_dir,omitempty"`
	Remote   RemoteConfig   `yaml:"remote"`
	Browser  BrowserConfig  `yaml:"browser"`
	Share    ShareConfig    `yaml:"share"`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// LimitsConfig mirrors filekit.Limits with human-readable sizes.
type LimitsConfig struct {
	Ceilings        map[string]ByteSize `yaml:"ceilings,omitempty"`
	DefaultCeiling  ByteSize            `yaml:"default_ceiling,omitempty"`
	Capacity        ByteSize            `yaml:"capacity,omitempty"`
	CapacityFactors map[string]float64  `yaml:"capacity_factors,omitempty"`
}

type ProgressConfig struct {
	Interval Duration `yaml:"interval,omitempty"`
	Step     int      `yaml:"step,omitempty"`
	Ceiling  int      `yaml:"ceiling,omitempty"`
}

type EnginesConfig struct {
	// Text is native or mupdf.
	Text      string  `yaml:"text"`
	RasterDPI float64 `yaml:"raster_dpi,omitempty"`
}

// RemoteConfig points at the document conversion service. An empty
// BaseURL keeps PDF to Word local.
type RemoteConfig struct {
	BaseURL string            `yaml:"base_url,omitempty"`
	Headers map[string]string `yaml:"headers,omitempty"`
	Timeout Duration          `yaml:"timeout,omitempty"`
	Retries *int              `yaml:"retries,omitempty"`
}

type BrowserConfig struct {
	ChromePath     string   `yaml:"chrome_path,omitempty"`
	NoSandbox      bool     `yaml:"no_sandbox"`
	AutoDownload   bool     `yaml:"auto_download"`
	Timeout        Duration `yaml:"timeout,omitempty"`
	BlockResources bool     `yaml:"block_resources"`
}

type ShareConfig struct {
	S3 *S3Config `yaml:"s3,omitempty"`
}

type S3Config struct {
	Bucket       string   `yaml:"bucket"`
	Prefix       string   `yaml:"prefix,omitempty"`
	Region       string   `yaml:"region,omitempty"`
	Endpoint     string   `yaml:"endpoint,omitempty"`
	UsePathStyle bool     `yaml:"use_path_style,omitempty"`
	Expiry       Duration `yaml:"expiry,omitempty"`
}

// Duration wraps time.Duration for YAML string parsing (e.g. "10s", "5m").
type Duration struct {
	time.Duration
}

// UnmarshalYAML parses a duration string like "200ms" or "1m30s".
func (d *Duration) UnmarshalYAML(unmarshal func(any) error) error {
	var s string
	if err := unmarshal(&s); err != nil {
		return err
	}
	if s == "" {
		return nil
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", s, err)
	}
	d.Duration = parsed
	return nil
}

// ByteSize is a size in bytes written as a plain number or with a binary
// unit suffix ("512KB", "25 MB", "1GB").
type ByteSize int64

var units = []struct {
	suffix string
	mult   int64
}{
	{"GB", 1 << 30},
	{"MB", 1 << 20},
	{"KB", 1 << 10},
	{"B", 1},
}

// ParseByteSize parses a size string.
func ParseByteSize(s string) (ByteSize, error) {
	t := strings.ToUpper(strings.TrimSpace(s))
	mult := int64(1)
	for _, u := range units {
		if strings.HasSuffix(t, u.suffix) {
			t = strings.TrimSpace(strings.TrimSuffix(t, u.suffix))
			mult = u.mult
			break
		}
	}
	n, err := strconv.ParseFloat(t, 64)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("invalid size %q", s)
	}
	return ByteSize(n * float64(mult)), nil
}

// UnmarshalYAML accepts integers and suffixed strings.
func (b *ByteSize) UnmarshalYAML(value *yaml.Node) error {
	if value.Tag == "!!int" {
		var n int64
		if err := value.Decode(&n); err != nil {
			return err
		}
		*b = ByteSize(n)
		return nil
	}
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}
	parsed, err := ParseByteSize(s)
	if err != nil {
		return err
	}
	*b = parsed
	return nil
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	lim := filekit.DefaultLimits()
	ceilings := make(map[string]ByteSize, len(lim.Ceilings))
	for k, v := range lim.Ceilings {
		ceilings[k] = ByteSize(v)
	}
	factors := make(map[string]float64, len(lim.CapacityFactors))
	for k, v := range lim.CapacityFactors {
		factors[k] = v
	}
	p := filekit.DefaultProgress()
	return &Config{
		Log: LogConfig{Level: "info", Format: "json"},
		Limits: LimitsConfig{
			Ceilings:        ceilings,
			DefaultCeiling:  ByteSize(lim.DefaultCeiling),
			Capacity:        ByteSize(lim.Capacity),
			CapacityFactors: factors,
		},
		Progress: ProgressConfig{Interval: Duration{p.Interval}, Step: p.Step, Ceiling: p.Ceiling},
		Engines:  EnginesConfig{Text: string(filekit.EngineNative)},
		Browser:  BrowserConfig{BlockResources: true},
	}
}

// Load reads path over the defaults. ${VAR} and ${VAR:-default}
// references are expanded before parsing. An empty path returns Default.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("config file not found: %s", path)
		}
		return nil, fmt.Errorf("cannot read config file %q: %w", path, err)
	}
	if err := yaml.Unmarshal([]byte(ExpandEnv(string(data))), cfg); err != nil {
		return nil, fmt.Errorf("invalid YAML in %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// LoadDotEnv loads environment files, .env by default. Missing files are
// skipped; variables already set are kept.
func LoadDotEnv(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	for _, p := range paths {
		if err := godotenv.Load(p); err != nil && !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("loading %s: %w", p, err)
		}
	}
	return nil
}

// Validate checks values the library would otherwise silently replace.
func (c *Config) Validate() error {
	switch filekit.TextEngine(c.Engines.Text) {
	case "", filekit.EngineNative, filekit.EngineMuPDF:
	default:
		return fmt.Errorf("engines.text: unknown engine %q", c.Engines.Text)
	}
	if c.Progress.Ceiling < 0 || c.Progress.Ceiling >= 100 {
		return fmt.Errorf("progress.ceiling must be below 100, got %d", c.Progress.Ceiling)
	}
	if c.Remote.Retries != nil && *c.Remote.Retries < 0 {
		return fmt.Errorf("remote.retries must be >= 0, got %d", *c.Remote.Retries)
	}
	for k, v := range c.Limits.CapacityFactors {
		if v < 0 {
			return fmt.Errorf("limits.capacity_factors.%s must be >= 0", k)
		}
	}
	if c.Share.S3 != nil && c.Share.S3.Bucket == "" {
		return errors.New("share.s3.bucket is required")
	}
	return nil
}

// LimitsValue converts the limits section.
func (c *Config) LimitsValue() filekit.Limits {
	lim := filekit.Limits{
		Ceilings:        make(map[string]int64, len(c.Limits.Ceilings)),
		DefaultCeiling:  int64(c.Limits.DefaultCeiling),
		Capacity:        int64(c.Limits.Capacity),
		CapacityFactors: c.Limits.CapacityFactors,
	}
	for k, v := range c.Limits.Ceilings {
		lim.Ceilings[k] = int64(v)
	}
	return lim
}

// Options converts the library sections into filekit options.
func (c *Config) Options() []filekit.Option {
	opts := []filekit.Option{
		filekit.WithLimits(c.LimitsValue()),
		filekit.WithProgress(filekit.Progress{
			Interval: c.Progress.Interval.Duration,
			Step:     c.Progress.Step,
			Ceiling:  c.Progress.Ceiling,
		}),
	}
	if c.Engines.Text != "" {
		opts = append(opts, filekit.WithTextEngine(filekit.TextEngine(c.Engines.Text)))
	}
	if c.Engines.RasterDPI > 0 {
		opts = append(opts, filekit.WithRasterDPI(c.Engines.RasterDPI))
	}
	if c.SpoolDir != "" {
		opts = append(opts, filekit.WithSpoolDir(c.SpoolDir))
	}
	return opts
}
