// Package provider defines the chat-completion provider interface and the
// wire types shared by its implementations.
package provider

import (
	"context"
	"time"
)

// Default retry policy values.
const (
	DefaultMaxRetries = 3
	DefaultBaseDelay  = 1000 * time.Millisecond
)

// RetryConfig controls retry behavior for rate-limited requests.
// Only HTTP 429 responses are retried.
type RetryConfig struct {
	MaxRetries int
	BaseDelay  time.Duration
}

// DefaultRetry returns the default retry policy.
func DefaultRetry() RetryConfig {
	return RetryConfig{MaxRetries: DefaultMaxRetries, BaseDelay: DefaultBaseDelay}
}

// Provider defines the interface for chat-completion providers.
type Provider interface {
	// Name returns the vendor identifier, e.g. "OpenRouter".
	Name() string

	// Model returns the default model for this provider value.
	Model() string

	// Send performs one non-streaming completion.
	Send(ctx context.Context, conversation []Message, tools []Tool, overrides map[string]any) (*Response, error)

	// Stream performs one streaming completion. The returned channel is
	// single-consumer and closes when the stream ends; a mid-stream failure
	// is delivered as the final item's Err.
	Stream(ctx context.Context, conversation []Message, tools []Tool, overrides map[string]any) (<-chan StreamItem, error)

	// With returns a new provider whose sticky request parameters are the
	// receiver's merged with overrides (overrides win). The receiver is
	// left unchanged.
	With(overrides map[string]any) Provider
}
