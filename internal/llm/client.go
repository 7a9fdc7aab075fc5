// Package llm talks to the multimodal text extraction service.
package llm

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/wushici/exhibit-kit/internal/config"
	"github.com/wushici/exhibit-kit/internal/domain"
	"github.com/wushici/exhibit-kit/internal/observability"
)

// requestShape is one wire protocol of the extraction service.
type requestShape interface {
	Name() string
	URL(baseURL, model string) string
	ImageRequest(model, prompt string, img encodedImage, gen generationSettings) any
	PingRequest(model, prompt string) any
	ParseText(body []byte) (string, error)
}

type encodedImage struct {
	MimeType string
	Data     string // base64
}

// DataURL renders the image as a data: URL.
func (i encodedImage) DataURL() string {
	return "data:" + i.MimeType + ";base64," + i.Data
}

type generationSettings struct {
	Temperature float64
	MaxTokens   int
}

// Client sends images to the extraction service.
type Client struct {
	baseURL    string
	model      string
	apiKey     string
	shapes     []requestShape // primary first
	gen        generationSettings
	pingPrompt string
	pingTTL    time.Duration
	httpClient *http.Client
	retry      *RetryConfig
	logger     *observability.Logger
}

var _ domain.TextExtractor = (*Client)(nil)

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithRetryConfig replaces the retry policy.
func WithRetryConfig(rc *RetryConfig) Option {
	return func(c *Client) { c.retry = rc }
}

// WithLogger sets the logger.
func WithLogger(l *observability.Logger) Option {
	return func(c *Client) { c.logger = l.WithComponent("llm") }
}

// NewClient creates a new extraction client from configuration.
func NewClient(cfg config.ExtractionConfig, opts ...Option) *Client {
	primary := resolveProvider(cfg.Provider, cfg.BaseURL, cfg.LegacyOpenAIPort)

	shapes := []requestShape{shapeFor(primary)}
	if cfg.Fallback {
		shapes = append(shapes, shapeFor(other(primary)))
	}

	c := &Client{
		baseURL:    strings.TrimSuffix(cfg.BaseURL, "/"),
		model:      cfg.Model,
		apiKey:     cfg.APIKey,
		shapes:     shapes,
		gen:        generationSettings{Temperature: cfg.Temperature, MaxTokens: cfg.MaxOutputTokens},
		pingPrompt: cfg.PingPrompt,
		pingTTL:    cfg.PingTimeout,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		retry: &RetryConfig{
			MaxAttempts:       cfg.MaxRetries,
			InitialBackoff:    cfg.InitialBackoff,
			MaxBackoff:        cfg.MaxBackoff,
			NetworkRetryDelay: cfg.NetworkRetryDelay,
		},
		logger: observability.Nop(),
	}

	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Provider returns the name of the primary request shape.
func (c *Client) Provider() string {
	return c.shapes[0].Name()
}

// ExtractText sends the image and prompt and returns the model's text. When the
// primary shape yields nothing and fallback is enabled, the other shape is tried.
func (c *Client) ExtractText(ctx context.Context, imagePath, prompt string) (string, error) {
	img, err := encodeImage(imagePath)
	if err != nil {
		return "", err
	}

	var firstErr error
	for i, shape := range c.shapes {
		text, err := c.send(ctx, shape, shape.ImageRequest(c.model, prompt, img, c.gen))
		if err == nil {
			if i > 0 {
				c.logger.Info().Str("provider", shape.Name()).Str("image", filepath.Base(imagePath)).Msg("fallback shape succeeded")
			}
			return text, nil
		}

		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return "", err
		}

		c.logger.Warn().
			Str("provider", shape.Name()).
			Str("image", filepath.Base(imagePath)).
			Err(err).
			Msg("extraction attempt failed")

		if firstErr == nil {
			firstErr = err
		}
	}

	return "", firstErr
}

// Ping sends a short text-only request with the primary shape.
func (c *Client) Ping(ctx context.Context) error {
	if c.pingTTL > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.pingTTL)
		defer cancel()
	}

	shape := c.shapes[0]
	body, err := json.Marshal(shape.PingRequest(c.model, c.pingPrompt))
	if err != nil {
		return domain.APIError("Failed to marshal ping request", err)
	}

	endpoint := shape.URL(c.baseURL, c.model)
	req, err := c.newRequest(ctx, endpoint, body)
	if err != nil {
		return domain.APIError("Failed to build ping request", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return domain.NetworkError(fmt.Sprintf("cannot reach %s", c.baseURL), err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return domain.APIError(fmt.Sprintf("ping returned status %d", resp.StatusCode), nil)
	}
	return nil
}

// send posts one request body with retries and parses the text out of the response.
func (c *Client) send(ctx context.Context, shape requestShape, payload any) (string, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return "", domain.APIError("Failed to marshal request", err)
	}

	endpoint := shape.URL(c.baseURL, c.model)
	respBody, err := c.retryWithBackoff(ctx, endpoint, func() (*http.Response, error) {
		// fresh reader per attempt
		req, err := c.newRequest(ctx, endpoint, body)
		if err != nil {
			return nil, err
		}
		return c.httpClient.Do(req)
	})
	if err != nil {
		return "", err
	}

	text, err := shape.ParseText(respBody)
	if err != nil {
		return "", domain.APIError("Failed to parse response", err)
	}
	if strings.TrimSpace(text) == "" {
		return "", domain.EmptyResultError(fmt.Sprintf("%s returned no text", shape.Name()), nil)
	}
	return text, nil
}

func (c *Client) newRequest(ctx context.Context, endpoint string, body []byte) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}
	return req, nil
}

func encodeImage(path string) (encodedImage, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return encodedImage{}, domain.ValidationError(fmt.Sprintf("failed to read image %s", path), err)
	}
	return encodedImage{
		MimeType: MimeType(path),
		Data:     base64.StdEncoding.EncodeToString(data),
	}, nil
}

// resolveProvider maps the configured provider to a concrete shape name.
func resolveProvider(provider, baseURL, legacyPort string) string {
	switch provider {
	case config.ProviderOpenAI:
		return config.ProviderOpenAI
	case config.ProviderAuto:
		if legacyPort != "" && strings.Contains(baseURL, legacyPort) {
			return config.ProviderOpenAI
		}
		return config.ProviderGemini
	default:
		return config.ProviderGemini
	}
}

func other(provider string) string {
	if provider == config.ProviderOpenAI {
		return config.ProviderGemini
	}
	return config.ProviderOpenAI
}

func shapeFor(provider string) requestShape {
	if provider == config.ProviderOpenAI {
		return openAIShape{}
	}
	return geminiShape{}
}
