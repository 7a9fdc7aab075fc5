package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"EXHIBIT_ROOT", "VIBEPROXY_URL", "EXTRACTION_BASE_URL", "EXTRACTION_MODEL",
		"EXTRACTION_PROVIDER", "EXTRACTION_API_KEY", "EXTRACTION_TIMEOUT",
		"EXTRACTION_MAX_RETRIES", "LOG_LEVEL", "LOG_FORMAT",
	} {
		t.Setenv(key, "")
	}
}

func TestDefaultConfig_Valid(t *testing.T) {
	cfg := DefaultConfig()
	require.NoError(t, cfg.Validate())

	assert.Equal(t, ProviderGemini, cfg.Extraction.Provider)
	assert.Equal(t, 3, cfg.Extraction.MaxRetries)
	assert.Equal(t, int64(25*1024*1024), cfg.Catalog.MaxPDFSize)
	assert.Equal(t, 300, cfg.Pages.DPI)
	assert.Len(t, cfg.Catalog.ModelTiers, 2)
	assert.True(t, cfg.Catalog.InfoTier.Flatten)
	assert.Contains(t, cfg.Extraction.PagePrompt, "{previous_summary}")
}

func TestLoad_YAMLAndEnvOverrides(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	path := filepath.Join(dir, "exhibit.yaml")
	yamlContent := `
root: site
extraction:
  provider: openai
  timeout: 15s
  model: from-yaml
pages:
  dpi: 150
`
	require.NoError(t, os.WriteFile(path, []byte(yamlContent), 0o644))

	t.Setenv("EXTRACTION_MODEL", "from-env")
	t.Setenv("EXTRACTION_BASE_URL", "http://127.0.0.1:9000/")
	t.Setenv("EXTRACTION_MAX_RETRIES", "5")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(dir, "site"), cfg.Root)
	assert.Equal(t, ProviderOpenAI, cfg.Extraction.Provider)
	assert.Equal(t, 15*time.Second, cfg.Extraction.Timeout)
	assert.Equal(t, "from-env", cfg.Extraction.Model)
	assert.Equal(t, "http://127.0.0.1:9000", cfg.Extraction.BaseURL)
	assert.Equal(t, 5, cfg.Extraction.MaxRetries)
	assert.Equal(t, 150, cfg.Pages.DPI)
	// untouched sections keep their defaults
	assert.True(t, cfg.Extraction.Fallback)
	assert.Equal(t, "artifact-%03d", cfg.Catalog.IDFormat)
}

func TestLoad_MissingFile(t *testing.T) {
	clearEnv(t)
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"unknown provider", func(c *Config) { c.Extraction.Provider = "claude" }},
		{"bad base url", func(c *Config) { c.Extraction.BaseURL = "localhost" }},
		{"zero retries", func(c *Config) { c.Extraction.MaxRetries = 0 }},
		{"empty section marker", func(c *Config) { c.Catalog.Index.SectionStart = "" }},
		{"bad tier quality", func(c *Config) { c.Catalog.ModelTiers[0].Quality = 120 }},
		{"bad info tier size", func(c *Config) { c.Catalog.InfoTier.Size = 0 }},
		{"zero dpi", func(c *Config) { c.Pages.DPI = 0 }},
		{"dpi below render range", func(c *Config) { c.Pages.DPI = 20 }},
		{"dpi above render range", func(c *Config) { c.Pages.DPI = 2400 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestConfig_Path(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Root = "/srv/exhibit"

	assert.Equal(t, "/srv/exhibit/app/src/data/artifacts.json", cfg.Path(cfg.Catalog.Output))
	assert.Equal(t, "/abs/file", cfg.Path("/abs/file"))
	assert.Equal(t, "", cfg.Path(""))
}
