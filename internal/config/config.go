// Package config provides unified configuration loading for exhibit-kit.
// Supports YAML files, .env files, environment variables and programmatic overrides.
package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Provider names accepted by ExtractionConfig.Provider.
const (
	ProviderGemini = "gemini"
	ProviderOpenAI = "openai"
	ProviderAuto   = "auto"
)

// Render resolution bounds for PDF pages.
const (
	MinDPI = 36
	MaxDPI = 1200
)

// Config holds all configuration for exhibit-kit. It is built once at startup and treated as read-only.
type Config struct {
	Root          string              `yaml:"root"`
	Catalog       CatalogConfig       `yaml:"catalog"`
	Extraction    ExtractionConfig    `yaml:"extraction"`
	Preprocess    PreprocessConfig    `yaml:"preprocess"`
	Pages         PagesConfig         `yaml:"pages"`
	Observability ObservabilityConfig `yaml:"observability"`
}

// CatalogConfig holds the catalog builder settings. Relative paths resolve against Config.Root.
type CatalogConfig struct {
	ModelDir      string `yaml:"model_dir"`
	InfoImageDir  string `yaml:"info_image_dir"`
	InfoTextDir   string `yaml:"info_text_dir"`
	PageTextDir   string `yaml:"page_text_dir"`
	IndexFile     string `yaml:"index_file"`
	PDFFile       string `yaml:"pdf_file"`
	Output        string `yaml:"output"`
	ModelCacheDir string `yaml:"model_cache_dir"`
	InfoCacheDir  string `yaml:"info_cache_dir"`

	// URL path segments, joined and percent-encoded under a leading "/".
	PDFPublicPath  []string `yaml:"pdf_public_path"`
	ModelURLPrefix []string `yaml:"model_url_prefix"`
	InfoURLPrefix  []string `yaml:"info_url_prefix"`

	MaxPDFSize   int64  `yaml:"max_pdf_size"`
	ModelExt     string `yaml:"model_ext"`
	InfoImageExt string `yaml:"info_image_ext"`
	TextExt      string `yaml:"text_ext"`
	IDFormat     string `yaml:"id_format"`

	Index          IndexConfig    `yaml:"index"`
	PageFiles      PageFileConfig `yaml:"page_files"`
	SeriesRules    []SeriesRule   `yaml:"series_rules"`
	FallbackSeries string         `yaml:"fallback_series"`
	ModelTiers     []VariantTier  `yaml:"model_tiers"`
	InfoTier       VariantTier    `yaml:"info_tier"`
}

// IndexConfig holds the markers recognised in the markdown index.
type IndexConfig struct {
	SectionStart  string `yaml:"section_start"`
	SectionEnd    string `yaml:"section_end"`
	SeriesHeading string `yaml:"series_heading"`
	DefaultSeries string `yaml:"default_series"`
	NoPagesMarker string `yaml:"no_pages_marker"`
	EmptyTopic    string `yaml:"empty_topic"`
}

// PageFileConfig describes the per-page transcription files.
type PageFileConfig struct {
	Glob         string `yaml:"glob"`
	NumberRegexp string `yaml:"number_regexp"`
	TitleRegexp  string `yaml:"title_regexp"`
}

// SeriesRule maps name prefixes or suffixes to a series. Rules are evaluated in order.
type SeriesRule struct {
	Series   string   `yaml:"series"`
	Prefixes []string `yaml:"prefixes"`
	Suffixes []string `yaml:"suffixes"`
}

// VariantTier is one output size of the image variant generator.
type VariantTier struct {
	Name    string `yaml:"name"`
	Size    int    `yaml:"size"`
	Quality int    `yaml:"quality"`
	Flatten bool   `yaml:"flatten"` // drop alpha onto white
}

// ExtractionConfig holds the text extraction API settings.
type ExtractionConfig struct {
	Provider          string        `yaml:"provider"`
	BaseURL           string        `yaml:"base_url"`
	Model             string        `yaml:"model"`
	APIKey            string        `yaml:"api_key"`
	Timeout           time.Duration `yaml:"timeout"`
	PingTimeout       time.Duration `yaml:"ping_timeout"`
	MaxRetries        int           `yaml:"max_retries"`
	InitialBackoff    time.Duration `yaml:"initial_backoff"`
	MaxBackoff        time.Duration `yaml:"max_backoff"`
	NetworkRetryDelay time.Duration `yaml:"network_retry_delay"`
	Temperature       float64       `yaml:"temperature"`
	MaxOutputTokens   int           `yaml:"max_output_tokens"`
	Fallback          bool          `yaml:"fallback"`
	LegacyOpenAIPort  string        `yaml:"legacy_openai_port"`
	Prompt            string        `yaml:"prompt"`
	PagePrompt        string        `yaml:"page_prompt"`
	PingPrompt        string        `yaml:"ping_prompt"`
}

// PreprocessConfig holds image preprocessing settings for extraction.
type PreprocessConfig struct {
	Enabled             bool     `yaml:"enabled"`
	Enhance             bool     `yaml:"enhance"`
	MaxWidth            int      `yaml:"max_width"`
	MaxHeight           int      `yaml:"max_height"`
	JPEGQuality         int      `yaml:"jpeg_quality"`
	Contrast            float64  `yaml:"contrast"` // percent, imaging.AdjustContrast
	Sharpen             float64  `yaml:"sharpen"`  // gaussian sigma
	SupportedExtensions []string `yaml:"supported_extensions"`
	OutputDirName       string   `yaml:"output_dir_name"`
}

// PagesConfig holds PDF page extraction settings.
type PagesConfig struct {
	DPI             int    `yaml:"dpi"`
	SummaryMaxRunes int    `yaml:"summary_max_runes"`
	FileFormat      string `yaml:"file_format"`
	OutputDirName   string `yaml:"output_dir_name"`
}

// ObservabilityConfig holds logging settings.
type ObservabilityConfig struct {
	LogLevel  string `yaml:"log_level"`
	LogFormat string `yaml:"log_format"`
}

// Load reads configuration from a YAML file and applies .env and environment overrides.
func Load(path string) (*Config, error) {
	// .env is optional
	_ = godotenv.Load()

	cfg := DefaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config file: %w", err)
		}

		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config file: %w", err)
		}

		if cfg.Root != "" && !filepath.IsAbs(cfg.Root) {
			cfg.Root = ResolveRelativePath(path, cfg.Root)
		}
	}

	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return cfg, nil
}

// DefaultConfig returns the configuration matching the exhibit project's directory layout.
func DefaultConfig() *Config {
	const (
		materials = "相关材料"
		museum    = materials + "/来自武氏墓群石刻博物馆"
		book      = materials + "/来自《鲁迅藏汉画珍赏》"
	)

	return &Config{
		Root: ".",
		Catalog: CatalogConfig{
			ModelDir:       museum + "/展品图片",
			InfoImageDir:   museum + "/展品信息图片",
			InfoTextDir:    museum + "/展品信息图片/提取文字",
			PageTextDir:    book + "/章节（一）武氏祠汉画-逐页介绍",
			IndexFile:      materials + "/PDF与展品信息双向索引.md",
			PDFFile:        book + "/章节（一）武氏祠汉画.pdf",
			Output:         "app/src/data/artifacts.json",
			ModelCacheDir:  "app/public/generated/models",
			InfoCacheDir:   "app/public/generated/info",
			PDFPublicPath:  []string{"materials", "raw", "来自《鲁迅藏汉画珍赏》", "章节（一）武氏祠汉画.pdf"},
			ModelURLPrefix: []string{"generated", "models"},
			InfoURLPrefix:  []string{"generated", "info"},
			MaxPDFSize:     25 * 1024 * 1024,
			ModelExt:       ".png",
			InfoImageExt:   ".jpg",
			TextExt:        ".txt",
			IDFormat:       "artifact-%03d",
			Index: IndexConfig{
				SectionStart:  "## 一、",
				SectionEnd:    "## 二、",
				SeriesHeading: "### ",
				DefaultSeries: "其他石刻系列",
				NoPagesMarker: "无直接对应",
				EmptyTopic:    "-",
			},
			PageFiles: PageFileConfig{
				Glob:         "第*页.txt",
				NumberRegexp: `第(\d+)页`,
				TitleRegexp:  `(?m)^###\s+(.+)$`,
			},
			SeriesRules: []SeriesRule{
				{Series: "武梁祠系列", Prefixes: []string{"武梁祠", "祥瑞图"}},
				{Series: "前石室系列", Prefixes: []string{"前石室", "另一个前石室", "孔门弟子"}},
				{Series: "后石室系列", Prefixes: []string{"后石室", "另一个后石室"}},
				{Series: "左石室系列", Prefixes: []string{"左石室"}},
				{Series: "展厅介绍", Suffixes: []string{"介绍牌", "简介"}},
			},
			FallbackSeries: "其他石刻系列",
			ModelTiers: []VariantTier{
				{Name: "thumb", Size: 320, Quality: 82},
				{Name: "large", Size: 720, Quality: 84},
			},
			InfoTier: VariantTier{Name: "info", Size: 1280, Quality: 86, Flatten: true},
		},
		Extraction: ExtractionConfig{
			Provider:          ProviderGemini,
			BaseURL:           "http://localhost:8317",
			Model:             "gemini-3-flash",
			Timeout:           60 * time.Second,
			PingTimeout:       10 * time.Second,
			MaxRetries:        3,
			InitialBackoff:    1 * time.Second,
			MaxBackoff:        30 * time.Second,
			NetworkRetryDelay: 1 * time.Second,
			Temperature:       0.1,
			MaxOutputTokens:   2048,
			Fallback:          true,
			LegacyOpenAIPort:  ":8318",
			Prompt:            DefaultExtractionPrompt,
			PagePrompt:        DefaultPagePrompt,
			PingPrompt:        "你好",
		},
		Preprocess: PreprocessConfig{
			Enabled:             true,
			Enhance:             false,
			MaxWidth:            2048,
			MaxHeight:           2048,
			JPEGQuality:         95,
			Contrast:            30,
			Sharpen:             0.6,
			SupportedExtensions: []string{".jpg", ".jpeg", ".png", ".bmp", ".tif", ".tiff", ".webp"},
			OutputDirName:       "extracted_texts",
		},
		Pages: PagesConfig{
			DPI:             300,
			SummaryMaxRunes: 200,
			FileFormat:      "第%d页.txt",
			OutputDirName:   "page_texts",
		},
		Observability: ObservabilityConfig{
			LogLevel:  "info",
			LogFormat: "console",
		},
	}
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	switch c.Extraction.Provider {
	case ProviderGemini, ProviderOpenAI, ProviderAuto:
	default:
		return fmt.Errorf("invalid extraction provider: %q", c.Extraction.Provider)
	}

	u, err := url.Parse(c.Extraction.BaseURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("invalid extraction base_url: %q", c.Extraction.BaseURL)
	}

	if c.Extraction.MaxRetries < 1 {
		return fmt.Errorf("max_retries must be at least 1, got %d", c.Extraction.MaxRetries)
	}

	if c.Extraction.Timeout <= 0 {
		return fmt.Errorf("extraction timeout must be positive")
	}

	if c.Catalog.Index.SectionStart == "" || c.Catalog.Index.SectionEnd == "" {
		return fmt.Errorf("index section markers are required")
	}

	if len(c.Catalog.ModelTiers) == 0 {
		return fmt.Errorf("at least one model tier is required")
	}
	for _, tier := range append(append([]VariantTier{}, c.Catalog.ModelTiers...), c.Catalog.InfoTier) {
		if tier.Size <= 0 {
			return fmt.Errorf("tier %q: size must be positive", tier.Name)
		}
		if tier.Quality < 0 || tier.Quality > 100 {
			return fmt.Errorf("tier %q: quality must be between 0 and 100", tier.Name)
		}
	}

	if c.Preprocess.JPEGQuality < 1 || c.Preprocess.JPEGQuality > 100 {
		return fmt.Errorf("jpeg_quality must be between 1 and 100")
	}

	if c.Pages.DPI < MinDPI || c.Pages.DPI > MaxDPI {
		return fmt.Errorf("dpi must be between %d and %d, got %d", MinDPI, MaxDPI, c.Pages.DPI)
	}

	return nil
}

// Path resolves a configured path against Root.
func (c *Config) Path(p string) string {
	if p == "" || filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(c.Root, p)
}

// applyEnvOverrides applies environment variable overrides to config.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("EXHIBIT_ROOT"); v != "" {
		cfg.Root = v
	}

	// VIBEPROXY_URL is the name older setups export.
	if v := os.Getenv("VIBEPROXY_URL"); v != "" {
		cfg.Extraction.BaseURL = v
	}
	if v := os.Getenv("EXTRACTION_BASE_URL"); v != "" {
		cfg.Extraction.BaseURL = v
	}
	cfg.Extraction.BaseURL = strings.TrimSuffix(cfg.Extraction.BaseURL, "/")

	if v := os.Getenv("EXTRACTION_MODEL"); v != "" {
		cfg.Extraction.Model = v
	}

	if v := os.Getenv("EXTRACTION_PROVIDER"); v != "" {
		cfg.Extraction.Provider = strings.ToLower(v)
	}

	if v := os.Getenv("EXTRACTION_API_KEY"); v != "" {
		cfg.Extraction.APIKey = v
	}

	if v := os.Getenv("EXTRACTION_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Extraction.Timeout = d
		}
	}

	if v := os.Getenv("EXTRACTION_MAX_RETRIES"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Extraction.MaxRetries = n
		}
	}

	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Observability.LogLevel = v
	}

	if v := os.Getenv("LOG_FORMAT"); v != "" {
		cfg.Observability.LogFormat = v
	}
}

// ResolveRelativePath resolves a path relative to the config file location.
func ResolveRelativePath(configPath, targetPath string) string {
	if filepath.IsAbs(targetPath) {
		return targetPath
	}
	configDir := filepath.Dir(configPath)
	return filepath.Join(configDir, targetPath)
}
