package kraken

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"kraken-tools/internal/observability"
)

// Default configuration values.
const (
	DefaultBaseURL     = "https://api.kraken.com"
	DefaultTimeout     = 15 * time.Second
	DefaultMaxRetries  = 0
	DefaultRetryDelay  = 1 * time.Second
	DefaultMaxDelay    = 10 * time.Second
	DefaultBackoffMult = 2.0
)

// Endpoint names, also used as metric labels.
const (
	EndpointAssetPairs = "AssetPairs"
	EndpointTicker     = "Ticker"
)

// HTTPClient implements RESTClient over the public Kraken REST API.
type HTTPClient struct {
	baseURL     string
	client      *http.Client
	maxRetries  int
	retryDelay  time.Duration
	maxDelay    time.Duration
	backoffMult float64
}

// ClientOption configures HTTPClient.
type ClientOption func(*HTTPClient)

// WithTimeout sets HTTP client timeout.
func WithTimeout(d time.Duration) ClientOption {
	return func(c *HTTPClient) {
		c.client.Timeout = d
	}
}

// WithMaxRetries sets maximum retry attempts. Zero disables retries.
func WithMaxRetries(n int) ClientOption {
	return func(c *HTTPClient) {
		c.maxRetries = n
	}
}

// WithRetryDelay sets initial retry delay.
func WithRetryDelay(d time.Duration) ClientOption {
	return func(c *HTTPClient) {
		c.retryDelay = d
	}
}

// WithMaxDelay sets maximum retry delay.
func WithMaxDelay(d time.Duration) ClientOption {
	return func(c *HTTPClient) {
		c.maxDelay = d
	}
}

// WithHTTPClient sets custom http.Client.
func WithHTTPClient(client *http.Client) ClientOption {
	return func(c *HTTPClient) {
		c.client = client
	}
}

// NewHTTPClient creates a new Kraken REST client.
func NewHTTPClient(baseURL string, opts ...ClientOption) *HTTPClient {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	c := &HTTPClient{
		baseURL:     strings.TrimRight(baseURL, "/"),
		client:      &http.Client{Timeout: DefaultTimeout},
		maxRetries:  DefaultMaxRetries,
		retryDelay:  DefaultRetryDelay,
		maxDelay:    DefaultMaxDelay,
		backoffMult: DefaultBackoffMult,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// envelope is the common Kraken response wrapper.
type envelope struct {
	Error  []string        `json:"error"`
	Result json.RawMessage `json:"result"`
}

// get performs a GET on a public endpoint and decodes its result.
// Every failure is returned as *FetchError.
func (c *HTTPClient) get(ctx context.Context, endpoint string, query url.Values, result interface{}) error {
	start := time.Now()
	err := c.doGet(ctx, endpoint, query, result)
	observability.RecordRESTCall(endpoint, time.Since(start).Seconds(), err)
	if err != nil {
		return &FetchError{Endpoint: endpoint, Err: err}
	}
	return nil
}

func (c *HTTPClient) doGet(ctx context.Context, endpoint string, query url.Values, result interface{}) error {
	target := c.baseURL + "/0/public/" + endpoint
	if len(query) > 0 {
		target += "?" + query.Encode()
	}

	delay := c.retryDelay
	var lastErr error

	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
			}
			// Exponential backoff
			delay = time.Duration(float64(delay) * c.backoffMult)
			if delay > c.maxDelay {
				delay = c.maxDelay
			}
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
		if err != nil {
			return fmt.Errorf("create request: %w", err)
		}
		req.Header.Set("Accept", "application/json")

		resp, err := c.client.Do(req)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			lastErr = fmt.Errorf("http request: %w", err)
			continue
		}

		body, err := io.ReadAll(resp.Body)
		resp.Body.Close()
		if err != nil {
			lastErr = fmt.Errorf("read response: %w", err)
			continue
		}

		if resp.StatusCode == http.StatusTooManyRequests {
			lastErr = ErrRateLimited
			continue
		}

		if resp.StatusCode != http.StatusOK {
			lastErr = fmt.Errorf("unexpected status %d: %s", resp.StatusCode, string(body))
			continue
		}

		var env envelope
		if err := json.Unmarshal(body, &env); err != nil {
			lastErr = fmt.Errorf("unmarshal response: %w", err)
			continue
		}

		if len(env.Error) > 0 {
			// Upstream error lists are not retried
			return &APIError{Messages: env.Error}
		}

		if result != nil && len(env.Result) > 0 {
			if err := json.Unmarshal(env.Result, result); err != nil {
				return fmt.Errorf("unmarshal result: %w", err)
			}
		}

		return nil
	}

	if c.maxRetries > 0 {
		return fmt.Errorf("max retries exceeded: %w", lastErr)
	}
	return lastErr
}

// AssetPairs retrieves metadata for every tradeable pair.
func (c *HTTPClient) AssetPairs(ctx context.Context) (map[string]AssetPair, error) {
	var result map[string]AssetPair
	if err := c.get(ctx, EndpointAssetPairs, nil, &result); err != nil {
		return nil, err
	}
	if result == nil {
		result = make(map[string]AssetPair)
	}
	return result, nil
}

// Ticker retrieves ticker information for a batch of pair IDs.
func (c *HTTPClient) Ticker(ctx context.Context, pairIDs []string) (map[string]TickerInfo, error) {
	query := url.Values{}
	query.Set("pair", strings.Join(pairIDs, ","))

	var result map[string]TickerInfo
	if err := c.get(ctx, EndpointTicker, query, &result); err != nil {
		return nil, err
	}
	if result == nil {
		result = make(map[string]TickerInfo)
	}
	return result, nil
}
