package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/porticus-lab/filekit"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadOverridesDefaults(t *testing.T) {
	t.Setenv("FILEKIT_TEST_BUCKET", "artifacts")
	path := writeFile(t, "filekit.yaml", `
log:
  level: debug
limits:
  ceilings:
    Image Tools: 5MB
  capacity: 1GB
  capacity_factors:
    pdf-to-jpg: 4
progress:
  interval: 50ms
engines:
  text: mupdf
  raster_dpi: 150
remote:
  base_url: ${FILEKIT_TEST_REMOTE:-http://localhost:8000}
  timeout: 5s
share:
  s3:
    bucket: ${FILEKIT_TEST_BUCKET}
    expiry: 1h
`)
	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
	assert.Equal(t, ByteSize(5<<20), cfg.Limits.Ceilings["Image Tools"])
	assert.Equal(t, ByteSize(1<<30), cfg.Limits.Capacity)
	assert.Equal(t, 50*time.Millisecond, cfg.Progress.Interval.Duration)
	assert.Equal(t, 5, cfg.Progress.Step)
	assert.Equal(t, "http://localhost:8000", cfg.Remote.BaseURL)
	assert.Equal(t, 5*time.Second, cfg.Remote.Timeout.Duration)
	require.NotNil(t, cfg.Share.S3)
	assert.Equal(t, "artifacts", cfg.Share.S3.Bucket)
	assert.Equal(t, time.Hour, cfg.Share.S3.Expiry.Duration)

	lim := cfg.LimitsValue()
	assert.Equal(t, 5*filekit.MB, lim.CeilingFor("Image Tools"))
	assert.Equal(t, 100*filekit.MB, lim.CeilingFor("Convert PDF"))
	assert.Equal(t, 4.0, lim.CapacityFactors["pdf-to-jpg"])
}

func TestLoadEmptyPathIsDefault(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
	assert.Equal(t, filekit.DefaultLimits(), cfg.LimitsValue())
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.ErrorContains(t, err, "config file not found")
}

func TestLoadRejectsInvalid(t *testing.T) {
	tests := map[string]string{
		"engine":   "engines:\n  text: ocr\n",
		"ceiling":  "progress:\n  ceiling: 100\n",
		"duration": "progress:\n  interval: soon\n",
		"size":     "limits:\n  capacity: lots\n",
		"bucket":   "share:\n  s3:\n    region: eu-west-1\n",
	}
	for name, body := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := Load(writeFile(t, "c.yaml", body))
			assert.Error(t, err)
		})
	}
}

func TestParseByteSize(t *testing.T) {
	tests := []struct {
		in   string
		want ByteSize
	}{
		{"1024", 1024},
		{"512KB", 512 << 10},
		{"25 MB", 25 << 20},
		{"1.5gb", 3 << 29},
		{"10B", 10},
	}
	for _, tt := range tests {
		got, err := ParseByteSize(tt.in)
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}
	_, err := ParseByteSize("-1MB")
	assert.Error(t, err)
}

func TestExpandEnv(t *testing.T) {
	t.Setenv("FILEKIT_SET", "value")
	t.Setenv("FILEKIT_EMPTY", "")
	assert.Equal(t, "value", ExpandEnv("${FILEKIT_SET}"))
	assert.Equal(t, "fallback", ExpandEnv("${FILEKIT_EMPTY:-fallback}"))
	assert.Equal(t, "", ExpandEnv("${FILEKIT_UNSET_VAR_XYZ}"))
	assert.Equal(t, "a-value-b", ExpandEnv("a-${FILEKIT_SET}-b"))
}

func TestLoadDotEnv(t *testing.T) {
	path := writeFile(t, ".env", "FILEKIT_DOTENV_TEST=loaded\n")
	t.Cleanup(func() { os.Unsetenv("FILEKIT_DOTENV_TEST") })

	require.NoError(t, LoadDotEnv(path, filepath.Join(t.TempDir(), "absent.env")))
	assert.Equal(t, "loaded", os.Getenv("FILEKIT_DOTENV_TEST"))
}

func TestOptionsBuildToolkit(t *testing.T) {
	cfg := Default()
	cfg.Engines.Text = string(filekit.EngineMuPDF)
	kit := filekit.New(cfg.Options()...)
	defer kit.Close()
	assert.Equal(t, cfg.LimitsValue(), kit.Limits())
}
