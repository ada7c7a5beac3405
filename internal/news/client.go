package news

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"news-trade-lab/internal/domain"
)

// Default configuration values.
const (
	DefaultEndpoint   = "https://news.treeofalpha.com/api"
	DefaultTimeout    = 30 * time.Second
	DefaultMaxRetries = 3
	DefaultRetryDelay = 1 * time.Second
	DefaultMaxDelay   = 10 * time.Second
)

// Client fetches headline events from the news API over HTTP.
type Client struct {
	endpoint   string
	client     *http.Client
	maxRetries int
	retryDelay time.Duration
	maxDelay   time.Duration
}

// ClientOption configures Client.
type ClientOption func(*Client)

// WithEndpoint overrides the API base URL.
func WithEndpoint(url string) ClientOption {
	return func(c *Client) {
		c.endpoint = url
	}
}

// WithTimeout sets HTTP client timeout.
func WithTimeout(d time.Duration) ClientOption {
	return func(c *Client) {
		c.client.Timeout = d
	}
}

// WithMaxRetries sets maximum retry attempts.
func WithMaxRetries(n int) ClientOption {
	return func(c *Client) {
		c.maxRetries = n
	}
}

// WithHTTPClient sets custom http.Client.
func WithHTTPClient(client *http.Client) ClientOption {
	return func(c *Client) {
		c.client = client
	}
}

// NewClient creates a news API client.
func NewClient(opts ...ClientOption) *Client {
	c := &Client{
		endpoint:   DefaultEndpoint,
		client:     &http.Client{Timeout: DefaultTimeout},
		maxRetries: DefaultMaxRetries,
		retryDelay: DefaultRetryDelay,
		maxDelay:   DefaultMaxDelay,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// AllNews downloads the full event history from the allNews endpoint.
// The feed returns every event it knows about in one response; callers
// filter by time and symbol afterwards.
func (c *Client) AllNews(ctx context.Context) ([]domain.NewsEvent, error) {
	url := c.endpoint + "/allNews"

	delay := c.retryDelay
	var lastErr error

	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(delay):
			}
			delay *= 2
			if delay > c.maxDelay {
				delay = c.maxDelay
			}
		}

		events, err := c.fetch(ctx, url)
		if err == nil {
			return events, nil
		}
		lastErr = err

		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
	}

	return nil, fmt.Errorf("fetch allNews after %d attempts: %w", c.maxRetries+1, lastErr)
}

func (c *Client) fetch(ctx context.Context, url string) ([]domain.NewsEvent, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("http request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("http status %d: %s", resp.StatusCode, string(body))
	}

	var events []domain.NewsEvent
	if err := json.NewDecoder(resp.Body).Decode(&events); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	return events, nil
}
