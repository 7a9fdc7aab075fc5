package llm

import (
	"context"
	"fmt"
	"io"
	"math"
	"net/http"
	"time"

	"github.com/wushici/exhibit-kit/internal/domain"
)

// maxErrorBody caps how much of a failed response body ends up in an error message.
const maxErrorBody = 2048

// RetryConfig holds retry configuration
type RetryConfig struct {
	MaxAttempts       int
	InitialBackoff    time.Duration
	MaxBackoff        time.Duration
	NetworkRetryDelay time.Duration
}

// calculateBackoff calculates exponential backoff duration
func calculateBackoff(attempt int, config *RetryConfig) time.Duration {
	// Exponential backoff: initialBackoff * 2^attempt
	backoff := float64(config.InitialBackoff) * math.Pow(2, float64(attempt))

	// Cap at maxBackoff
	if config.MaxBackoff > 0 && backoff > float64(config.MaxBackoff) {
		backoff = float64(config.MaxBackoff)
	}

	return time.Duration(backoff)
}

// retryWithBackoff runs reqFunc until it returns 200 and hands back the response body.
// 429 waits with exponential backoff, transport errors wait a flat delay, and any
// other status fails immediately.
func (c *Client) retryWithBackoff(ctx context.Context, endpoint string, reqFunc func() (*http.Response, error)) ([]byte, error) {
	config := c.retry
	attempts := config.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}

	for attempt := 0; attempt < attempts; attempt++ {
		// Check context cancellation
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		last := attempt == attempts-1

		resp, err := reqFunc()
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			if last {
				return nil, domain.NetworkError(fmt.Sprintf("request to %s failed after %d attempts", endpoint, attempts), err)
			}
			c.logger.Warn().
				Str("endpoint", endpoint).
				Int("attempt", attempt+1).
				Int("max_attempts", attempts).
				Err(err).
				Msg("request failed, retrying")
			if err := sleep(ctx, config.NetworkRetryDelay); err != nil {
				return nil, err
			}
			continue
		}

		body, readErr := io.ReadAll(resp.Body)
		resp.Body.Close()

		switch {
		case resp.StatusCode == http.StatusOK:
			if readErr != nil {
				return nil, domain.NetworkError("read response body", readErr)
			}
			return body, nil

		case resp.StatusCode == http.StatusTooManyRequests:
			if last {
				return nil, domain.RateLimitError(fmt.Sprintf("rate limited by %s after %d attempts", endpoint, attempts), nil)
			}
			backoff := calculateBackoff(attempt, config)
			c.logger.Warn().
				Str("endpoint", endpoint).
				Int("attempt", attempt+1).
				Int("max_attempts", attempts).
				Dur("backoff", backoff).
				Msg("rate limited, backing off")
			if err := sleep(ctx, backoff); err != nil {
				return nil, err
			}

		default:
			if len(body) > maxErrorBody {
				body = body[:maxErrorBody]
			}
			return nil, domain.APIError(fmt.Sprintf("API returned status %d: %s", resp.StatusCode, string(body)), nil)
		}
	}

	return nil, domain.APIError("no attempts made", nil)
}

// sleep waits for d or until ctx is done.
func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
