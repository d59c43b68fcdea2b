package inference

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"framewise/internal/config"
	"framewise/internal/services"
)

const (
	defaultBaseURL        = "https://api.visionquery.dev/v1"
	defaultHTTPTimeout    = 60 * time.Second
	defaultRetryAttempts  = 3
	defaultRetryBaseDelay = 500 * time.Millisecond
	defaultRetryMaxDelay  = 10 * time.Second
)

// Client wraps the asynchronous visual-query API: register a detector once,
// submit frames for prediction, and poll queries until they settle.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client

	retryMaxAttempts int
	retryBaseDelay   time.Duration
	retryMaxDelay    time.Duration
	sleeper          func(time.Duration)
}

// Option customizes the client.
type Option func(*Client)

// WithBaseURL overrides the default API endpoint.
func WithBaseURL(u string) Option {
	return func(c *Client) {
		c.baseURL = strings.TrimRight(strings.TrimSpace(u), "/")
	}
}

// WithHTTPClient replaces the default http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

// WithRetryMaxAttempts overrides the retry count for 429/5xx responses.
func WithRetryMaxAttempts(attempts int) Option {
	return func(c *Client) {
		c.retryMaxAttempts = attempts
	}
}

// WithRetryBackoff overrides the retry backoff delays.
func WithRetryBackoff(baseDelay, maxDelay time.Duration) Option {
	return func(c *Client) {
		c.retryBaseDelay = baseDelay
		c.retryMaxDelay = maxDelay
	}
}

// WithSleeper overrides how retry sleeps are performed (useful for tests).
func WithSleeper(sleeper func(time.Duration)) Option {
	return func(c *Client) {
		c.sleeper = sleeper
	}
}

// New creates a Client. Falls back to the FRAMEWISE_API_KEY environment
// variable when apiKey is empty.
func New(apiKey string, opts ...Option) *Client {
	if strings.TrimSpace(apiKey) == "" {
		apiKey = os.Getenv("FRAMEWISE_API_KEY")
	}
	client := &Client{
		baseURL:          defaultBaseURL,
		apiKey:           strings.TrimSpace(apiKey),
		httpClient:       &http.Client{Timeout: defaultHTTPTimeout},
		retryMaxAttempts: defaultRetryAttempts,
		retryBaseDelay:   defaultRetryBaseDelay,
		retryMaxDelay:    defaultRetryMaxDelay,
		sleeper:          time.Sleep,
	}
	for _, opt := range opts {
		opt(client)
	}
	return client
}

// NewFromConfig constructs a client from application configuration.
func NewFromConfig(cfg *config.Config, opts ...Option) *Client {
	base := []Option{WithBaseURL(cfg.Inference.BaseURL)}
	if cfg.Inference.TimeoutSeconds > 0 {
		base = append(base, WithHTTPClient(&http.Client{
			Timeout: time.Duration(cfg.Inference.TimeoutSeconds) * time.Second,
		}))
	}
	return New(cfg.Inference.APIKey, append(base, opts...)...)
}

// GetOrCreateDetector returns the detector registered under name, creating it
// with the supplied question and threshold when it does not exist yet.
func (c *Client) GetOrCreateDetector(ctx context.Context, name, query string, threshold float64) (*Detector, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, errors.New("inference: detector name required")
	}

	var detector Detector
	err := c.doJSON(ctx, http.MethodGet, "/detectors/lookup?name="+url.QueryEscape(name), nil, "", &detector)
	if err == nil {
		return &detector, nil
	}
	if !IsNotFound(err) {
		return nil, err
	}

	if strings.TrimSpace(query) == "" {
		return nil, fmt.Errorf("inference: detector %q does not exist and no query was provided", name)
	}
	body, err := json.Marshal(detectorRequest{Name: name, Query: query, ConfidenceThreshold: threshold})
	if err != nil {
		return nil, fmt.Errorf("inference: marshal detector: %w", err)
	}
	if err := c.doJSON(ctx, http.MethodPost, "/detectors", body, "application/json", &detector); err != nil {
		return nil, err
	}
	return &detector, nil
}

// SubmitImage submits a frame image for asynchronous prediction and returns
// the created image query. The result may still be pending.
func (c *Client) SubmitImage(ctx context.Context, detectorID, imagePath string) (*ImageQuery, error) {
	if strings.TrimSpace(detectorID) == "" {
		return nil, errors.New("inference: detector id required")
	}
	data, err := os.ReadFile(imagePath)
	if err != nil {
		return nil, fmt.Errorf("inference: read image: %w", err)
	}

	var query ImageQuery
	path := "/image-queries?detector_id=" + url.QueryEscape(detectorID)
	if err := c.doJSON(ctx, http.MethodPost, path, data, "image/jpeg", &query); err != nil {
		return nil, err
	}
	return &query, nil
}

// GetImageQuery fetches the current state of a previously submitted query.
func (c *Client) GetImageQuery(ctx context.Context, id string) (*ImageQuery, error) {
	if strings.TrimSpace(id) == "" {
		return nil, errors.New("inference: image query id required")
	}
	var query ImageQuery
	if err := c.doJSON(ctx, http.MethodGet, "/image-queries/"+url.PathEscape(id), nil, "", &query); err != nil {
		return nil, err
	}
	return &query, nil
}

// HealthCheck verifies the API key is usable.
func (c *Client) HealthCheck(ctx context.Context) error {
	var out struct {
		OK bool `json:"ok"`
	}
	if err := c.doJSON(ctx, http.MethodGet, "/me", nil, "", &out); err != nil {
		return err
	}
	return nil
}

func (c *Client) doJSON(ctx context.Context, method, path string, body []byte, contentType string, out any) error {
	if c.apiKey == "" {
		return errors.New("inference: api key required")
	}

	requestID, ok := services.RequestIDFromContext(ctx)
	if !ok {
		requestID = uuid.NewString()
	}
	var lastErr error
	for attempt := 0; attempt <= c.retryMaxAttempts; attempt++ {
		var reader io.Reader
		if body != nil {
			reader = bytes.NewReader(body)
		}
		req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
		if err != nil {
			return fmt.Errorf("inference: create request: %w", err)
		}
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
		req.Header.Set("X-Request-ID", requestID)
		if contentType != "" {
			req.Header.Set("Content-Type", contentType)
		}

		resp, err := c.httpClient.Do(req)
		if err != nil {
			if ctx.Err() != nil {
				return fmt.Errorf("inference: request cancelled: %w", ctx.Err())
			}
			lastErr = err
			if attempt < c.retryMaxAttempts {
				c.sleeper(c.backoff(attempt))
			}
			continue
		}

		respBody, readErr := io.ReadAll(resp.Body)
		resp.Body.Close()
		if readErr != nil {
			lastErr = fmt.Errorf("read response: %w", readErr)
			if attempt < c.retryMaxAttempts {
				c.sleeper(c.backoff(attempt))
			}
			continue
		}

		if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
			lastErr = newAPIError(resp.StatusCode, respBody)
			if attempt < c.retryMaxAttempts {
				delay := c.backoff(attempt)
				if ra, ok := retryAfter(resp); ok {
					delay = ra
				}
				c.sleeper(delay)
			}
			continue
		}

		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			return newAPIError(resp.StatusCode, respBody)
		}

		if out == nil {
			return nil
		}
		if err := json.Unmarshal(respBody, out); err != nil {
			return fmt.Errorf("inference: unmarshal response: %w", err)
		}
		return nil
	}

	if lastErr != nil {
		return fmt.Errorf("inference: request failed after retries: %w", lastErr)
	}
	return errors.New("inference: request failed")
}

func (c *Client) backoff(attempt int) time.Duration {
	delay := c.retryBaseDelay << attempt
	if delay > c.retryMaxDelay || delay <= 0 {
		delay = c.retryMaxDelay
	}
	return delay
}

func retryAfter(resp *http.Response) (time.Duration, bool) {
	value := strings.TrimSpace(resp.Header.Get("Retry-After"))
	if value == "" {
		return 0, false
	}
	secs, err := strconv.ParseFloat(value, 64)
	if err != nil || secs <= 0 {
		return 0, false
	}
	return time.Duration(secs * float64(time.Second)), true
}

func newAPIError(statusCode int, body []byte) *APIError {
	apiErr := &APIError{StatusCode: statusCode}
	var parsed struct {
		Error   string `json:"error"`
		Message string `json:"message"`
	}
	if json.Unmarshal(body, &parsed) == nil {
		if parsed.Error != "" {
			apiErr.Message = parsed.Error
		} else if parsed.Message != "" {
			apiErr.Message = parsed.Message
		}
	}
	if apiErr.Message == "" {
		apiErr.Message = strings.TrimSpace(string(body))
	}
	return apiErr
}
