// Package platform holds the shared request/retry/error-mapping core every
// API-driven scraper connector (SerpAPI, TikTok, Meta Graph) embeds.
// Browser-driven connectors (Google, Meta Ad Library) live in their own
// subpackages and drive chromedp directly instead of going through here.
package platform

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/brandwatch/collector/internal/domain/entity"
	"github.com/brandwatch/collector/pkg/errors"
	"github.com/brandwatch/collector/pkg/httpclient"
	"github.com/brandwatch/collector/pkg/ratelimit"
)

// BaseConnector provides common request/retry/error-mapping functionality
// for every API-driven platform connector.
type BaseConnector struct {
	platform    entity.Platform
	httpClient  *httpclient.Client
	rateLimiter *ratelimit.Limiter
	config      *ConnectorConfig
}

// ConnectorConfig holds configuration for a platform connector.
type ConnectorConfig struct {
	BaseURL         string
	APIVersion      string
	RateLimitCalls  int
	RateLimitWindow time.Duration
	Timeout         time.Duration
	MaxRetries      int
}

// NewBaseConnector creates a new base connector.
func NewBaseConnector(platform entity.Platform, config *ConnectorConfig) *BaseConnector {
	httpConfig := httpclient.DefaultConfig()
	httpConfig.Timeout = config.Timeout
	httpConfig.MaxRetries = config.MaxRetries
	httpConfig.RateLimitCalls = config.RateLimitCalls
	httpConfig.RateLimitWindow = config.RateLimitWindow

	return &BaseConnector{
		platform:    platform,
		httpClient:  httpclient.NewClient(httpConfig),
		rateLimiter: ratelimit.NewLimiter(config.RateLimitCalls, config.RateLimitWindow),
		config:      config,
	}
}

// Platform returns the platform type.
func (b *BaseConnector) Platform() entity.Platform {
	return b.platform
}

// DoRequest performs an HTTP request with rate limiting and error handling.
func (b *BaseConnector) DoRequest(ctx context.Context, req *httpclient.Request) (*httpclient.Response, error) {
	if err := b.rateLimiter.Wait(ctx); err != nil {
		return nil, errors.NewRateLimitError(b.platform.String(), b.config.RateLimitWindow)
	}

	resp, err := b.httpClient.Do(ctx, req)
	if err != nil {
		return nil, b.wrapError(err)
	}

	if resp.StatusCode >= 400 {
		return resp, b.parseErrorResponse(resp)
	}

	return resp, nil
}

// DoGet performs a GET request.
func (b *BaseConnector) DoGet(ctx context.Context, url string, headers map[string]string, params map[string]string) (*httpclient.Response, error) {
	return b.DoRequest(ctx, &httpclient.Request{
		Method:      http.MethodGet,
		URL:         url,
		Headers:     headers,
		QueryParams: params,
	})
}

// DoPost performs a POST request.
func (b *BaseConnector) DoPost(ctx context.Context, url string, headers map[string]string, body interface{}) (*httpclient.Response, error) {
	return b.DoRequest(ctx, &httpclient.Request{
		Method:  http.MethodPost,
		URL:     url,
		Headers: headers,
		Body:    body,
	})
}

// parseErrorResponse classifies a non-2xx response into the shared error
// taxonomy. A rate-limit status becomes a RetryableError; everything else
// becomes a platform API error the orchestrator treats per spec.md §7.
func (b *BaseConnector) parseErrorResponse(resp *httpclient.Response) error {
	var errResp struct {
		Error struct {
			Message string `json:"message"`
			Code    string `json:"code"`
			Type    string `json:"type"`
		} `json:"error"`
	}

	if err := json.Unmarshal(resp.Body, &errResp); err == nil && errResp.Error.Message != "" {
		platformErr := errors.NewPlatformAPIError(
			b.platform.String(),
			resp.StatusCode,
			errResp.Error.Code,
			errResp.Error.Message,
		)
		platformErr.WithRawResponse(resp.Body)
		return platformErr
	}

	if resp.StatusCode == http.StatusTooManyRequests {
		retryAfter := b.parseRetryAfter(resp.Headers)
		return errors.NewRateLimitError(b.platform.String(), retryAfter)
	}

	return errors.NewPlatformAPIError(
		b.platform.String(),
		resp.StatusCode,
		"UNKNOWN",
		fmt.Sprintf("API request failed with status %d", resp.StatusCode),
	).WithRawResponse(resp.Body)
}

// parseRetryAfter parses the Retry-After header.
func (b *BaseConnector) parseRetryAfter(headers http.Header) time.Duration {
	retryAfter := headers.Get("Retry-After")
	if retryAfter == "" {
		return 60 * time.Second
	}

	var seconds int
	if _, err := fmt.Sscanf(retryAfter, "%d", &seconds); err == nil {
		return time.Duration(seconds) * time.Second
	}

	if t, err := time.Parse(time.RFC1123, retryAfter); err == nil {
		return time.Until(t)
	}

	return 60 * time.Second
}

// wrapError wraps a non-AppError with platform context.
func (b *BaseConnector) wrapError(err error) error {
	if errors.IsAppError(err) {
		return err
	}
	return errors.Wrap(err, errors.ErrCodePlatformAPI, fmt.Sprintf("%s API error", b.platform), http.StatusBadGateway)
}

// ParseJSON parses a JSON response body into v.
func (b *BaseConnector) ParseJSON(body []byte, v interface{}) error {
	if err := json.Unmarshal(body, v); err != nil {
		return errors.Wrap(err, errors.ErrCodeInternal, "Failed to parse response", http.StatusInternalServerError)
	}
	return nil
}

// BuildAuthHeader builds an Authorization header carrying a bearer token.
func (b *BaseConnector) BuildAuthHeader(accessToken string) map[string]string {
	return map[string]string{
		"Authorization": "Bearer " + accessToken,
	}
}

// RetryWithBackoff executes fn with exponential backoff, honoring
// Retry-After on rate-limit errors (spec.md §6 "Rate-limit handling").
func RetryWithBackoff(ctx context.Context, maxRetries int, fn func() error) error {
	var lastErr error
	for i := 0; i <= maxRetries; i++ {
		if i > 0 {
			waitTime := time.Duration(1<<uint(i-1)) * time.Second
			if waitTime > 30*time.Second {
				waitTime = 30 * time.Second
			}
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(waitTime):
			}
		}

		lastErr = fn()
		if lastErr == nil {
			return nil
		}

		if !errors.IsRetryable(lastErr) {
			return lastErr
		}

		if errors.IsRateLimit(lastErr) {
			retryAfter := errors.GetRetryAfter(lastErr)
			if retryAfter > 0 {
				select {
				case <-ctx.Done():
					return ctx.Err()
				case <-time.After(retryAfter):
				}
			}
		}
	}
	return lastErr
}

// PagingInfo holds cursor-based pagination information, shared by the
// Meta Graph and TikTok Commercial Content connectors.
type PagingInfo struct {
	Cursors struct {
		Before string `json:"before"`
		After  string `json:"after"`
	} `json:"cursors"`
	Next     string `json:"next"`
	Previous string `json:"previous"`
}

// FetchAllPages fetches every page of a cursor-paginated endpoint.
func FetchAllPages[T any](ctx context.Context, fetcher func(cursor string) ([]T, string, error)) ([]T, error) {
	var allItems []T
	cursor := ""

	for {
		items, nextCursor, err := fetcher(cursor)
		if err != nil {
			return allItems, err
		}

		allItems = append(allItems, items...)

		if nextCursor == "" {
			break
		}
		cursor = nextCursor

		select {
		case <-ctx.Done():
			return allItems, ctx.Err()
		default:
		}
	}

	return allItems, nil
}
