// Package openrouter implements the Provider interface against an
// OpenAI-compatible chat completions API. OpenRouter is the default vendor;
// any endpoint speaking the same protocol works via HEDDLE_BASE_URL.
package openrouter

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"heddle/internal/provider"
	"heddle/pkg/logger"
)

// DefaultBaseURL is the OpenRouter API root.
const DefaultBaseURL = "https://openrouter.ai/api/v1"

const completionsPath = "/chat/completions"

// Compile-time interface check.
var _ provider.Provider = (*Client)(nil)

// Config holds client configuration.
type Config struct {
	APIKey        string
	Model         string
	BaseURL       string
	RequestParams map[string]any
	Retry         *provider.RetryConfig

	// HTTPClient overrides the default transport. Used by tests.
	HTTPClient *http.Client
}

// Client implements provider.Provider.
type Client struct {
	apiKey        string
	model         string
	baseURL       string
	vendor        string
	requestParams map[string]any
	retry         provider.RetryConfig

	httpClient   *http.Client
	streamClient *http.Client
}

// New creates a new client. The base URL resolves in order: cfg.BaseURL,
// HEDDLE_BASE_URL, DefaultBaseURL.
func New(cfg Config) *Client {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = os.Getenv("HEDDLE_BASE_URL")
	}
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")

	retry := provider.DefaultRetry()
	if cfg.Retry != nil {
		retry = *cfg.Retry
	}

	httpClient := cfg.HTTPClient
	streamClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 5 * time.Minute}
		// The stream client has no overall timeout: http.Client.Timeout
		// includes body read time, which kills long-lived SSE streams.
		streamClient = &http.Client{
			Transport: &http.Transport{
				DialContext: (&net.Dialer{
					Timeout:   30 * time.Second,
					KeepAlive: 30 * time.Second,
				}).DialContext,
				TLSHandshakeTimeout:   15 * time.Second,
				ResponseHeaderTimeout: 5 * time.Minute,
				IdleConnTimeout:       90 * time.Second,
			},
		}
	}

	return &Client{
		apiKey:        cfg.APIKey,
		model:         cfg.Model,
		baseURL:       baseURL,
		vendor:        vendorName(baseURL),
		requestParams: cloneParams(cfg.RequestParams),
		retry:         retry,
		httpClient:    httpClient,
		streamClient:  streamClient,
	}
}

// Name returns the vendor identifier derived from the base URL.
func (c *Client) Name() string { return c.vendor }

// Model returns the default model.
func (c *Client) Model() string { return c.model }

// With returns a new client whose sticky request parameters are the
// receiver's merged with overrides (overrides win).
func (c *Client) With(overrides map[string]any) provider.Provider {
	clone := *c
	merged := cloneParams(c.requestParams)
	if merged == nil {
		merged = make(map[string]any)
	}
	for k, v := range overrides {
		merged[k] = v
	}
	clone.requestParams = merged
	return &clone
}

// Send performs one non-streaming completion.
func (c *Client) Send(ctx context.Context, conversation []provider.Message, tools []provider.Tool, overrides map[string]any) (*provider.Response, error) {
	body := c.buildBody(conversation, tools, false, overrides)

	resp, err := c.do(ctx, c.httpClient, body)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &provider.HTTPError{Provider: c.vendor, Status: resp.StatusCode, Body: string(raw)}
	}

	var parsed provider.Response
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return nil, fmt.Errorf("parse response: %w", err)
	}
	return &parsed, nil
}

// Stream performs one streaming completion.
func (c *Client) Stream(ctx context.Context, conversation []provider.Message, tools []provider.Tool, overrides map[string]any) (<-chan provider.StreamItem, error) {
	body := c.buildBody(conversation, tools, true, overrides)

	resp, err := c.do(ctx, c.streamClient, body)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		raw, _ := io.ReadAll(resp.Body)
		resp.Body.Close()
		return nil, &provider.HTTPError{Provider: c.vendor, Status: resp.StatusCode, Body: string(raw)}
	}

	return ProcessStream(resp.Body), nil
}

// buildBody assembles the request body as a shallow merge, later wins:
// base fields, then sticky requestParams, then validated per-call overrides.
func (c *Client) buildBody(conversation []provider.Message, tools []provider.Tool, stream bool, overrides map[string]any) map[string]any {
	body := map[string]any{
		"model":    c.model,
		"messages": conversation,
		"stream":   stream,
	}
	for k, v := range c.requestParams {
		body[k] = v
	}
	for k, v := range ValidateOverrides(overrides) {
		body[k] = v
	}
	if len(tools) > 0 {
		body["tools"] = tools
	}
	return body
}

// do sends the request, retrying on HTTP 429 per the retry policy.
func (c *Client) do(ctx context.Context, client *http.Client, body map[string]any) (*http.Response, error) {
	data, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	for attempt := 0; ; attempt++ {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+completionsPath, bytes.NewReader(data))
		if err != nil {
			return nil, fmt.Errorf("create request: %w", err)
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
		req.Header.Set("HTTP-Referer", "https://github.com/heddle-dev/heddle")
		req.Header.Set("X-Title", "heddle")

		resp, err := client.Do(req)
		if err != nil {
			return nil, fmt.Errorf("%s request: %w", strings.ToLower(c.vendor), err)
		}

		if resp.StatusCode != http.StatusTooManyRequests || attempt >= c.retry.MaxRetries {
			return resp, nil
		}

		delay, ok := retryAfterDelay(resp.Header.Get("Retry-After"), time.Now())
		if !ok {
			delay = c.retry.BaseDelay << attempt
		}
		io.Copy(io.Discard, resp.Body) //nolint:errcheck
		resp.Body.Close()

		logger.Debug("provider").
			Int("attempt", attempt).
			Dur("delay", delay).
			Msg("rate limited, retrying")

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		case <-timer.C:
		}
	}
}

// retryAfterDelay parses a Retry-After header as either an integer number of
// seconds or an HTTP-date. For dates the delay is clamped at zero.
func retryAfterDelay(header string, now time.Time) (time.Duration, bool) {
	header = strings.TrimSpace(header)
	if header == "" {
		return 0, false
	}
	if secs, err := strconv.Atoi(header); err == nil {
		if secs < 0 {
			secs = 0
		}
		return time.Duration(secs) * time.Second, true
	}
	if t, err := http.ParseTime(header); err == nil {
		d := t.Sub(now)
		if d < 0 {
			d = 0
		}
		return d, true
	}
	return 0, false
}

// vendorName derives a display identifier from the API base URL.
func vendorName(baseURL string) string {
	u, err := url.Parse(baseURL)
	if err != nil || u.Host == "" {
		return "Provider"
	}
	host := strings.TrimPrefix(u.Hostname(), "www.")
	if strings.Contains(host, "openrouter") {
		return "OpenRouter"
	}
	label, _, _ := strings.Cut(host, ".")
	if label == "" {
		return "Provider"
	}
	return strings.ToUpper(label[:1]) + label[1:]
}

func cloneParams(params map[string]any) map[string]any {
	if params == nil {
		return nil
	}
	clone := make(map[string]any, len(params))
	for k, v := range params {
		clone[k] = v
	}
	return clone
}
