package openrouter

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"heddle/internal/provider"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return New(Config{
		APIKey:  "test-key",
		Model:   "test-model",
		BaseURL: server.URL,
		Retry:   &provider.RetryConfig{MaxRetries: 2, BaseDelay: time.Millisecond},
	})
}

func TestSend(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		var gotBody map[string]any
		var gotAuth string
		c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			gotAuth = r.Header.Get("Authorization")
			json.NewDecoder(r.Body).Decode(&gotBody)
			fmt.Fprint(w, `{"choices":[{"message":{"role":"assistant","content":"hello"}}],"usage":{"prompt_tokens":3,"completion_tokens":2,"total_tokens":5}}`)
		})

		tools := []provider.Tool{{
			Type:     "function",
			Function: provider.ToolFunction{Name: "echo"},
		}}
		resp, err := c.Send(context.Background(), []provider.Message{provider.UserMessage("hi")}, tools, map[string]any{"temperature": 0.5})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if gotAuth != "Bearer test-key" {
			t.Errorf("unexpected auth header %q", gotAuth)
		}
		if gotBody["model"] != "test-model" {
			t.Errorf("expected model test-model, got %v", gotBody["model"])
		}
		if gotBody["stream"] != false {
			t.Errorf("expected stream false, got %v", gotBody["stream"])
		}
		if gotBody["temperature"] != 0.5 {
			t.Errorf("expected override applied, got %v", gotBody["temperature"])
		}
		if _, ok := gotBody["tools"]; !ok {
			t.Error("expected tools in request body")
		}

		if len(resp.Choices) != 1 || resp.Choices[0].Message.Text() != "hello" {
			t.Errorf("unexpected response: %+v", resp)
		}
		if resp.Usage == nil || resp.Usage.TotalTokens != 5 {
			t.Errorf("unexpected usage: %+v", resp.Usage)
		}
	})

	t.Run("non-2xx becomes HTTPError", func(t *testing.T) {
		c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
			fmt.Fprint(w, `{"error":{"message":"Model error"}}`)
		})

		_, err := c.Send(context.Background(), []provider.Message{provider.UserMessage("hi")}, nil, nil)
		he, ok := provider.AsHTTPError(err)
		if !ok {
			t.Fatalf("expected HTTPError, got %v", err)
		}
		if he.Status != 500 {
			t.Errorf("expected status 500, got %d", he.Status)
		}
		if he.Body != `{"error":{"message":"Model error"}}` {
			t.Errorf("unexpected body %q", he.Body)
		}
	})

	t.Run("retries on 429 then succeeds", func(t *testing.T) {
		attempts := 0
		c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			attempts++
			if attempts <= 2 {
				w.Header().Set("Retry-After", "0")
				w.WriteHeader(http.StatusTooManyRequests)
				return
			}
			fmt.Fprint(w, `{"choices":[{"message":{"role":"assistant","content":"ok"}}]}`)
		})

		resp, err := c.Send(context.Background(), []provider.Message{provider.UserMessage("hi")}, nil, nil)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if attempts != 3 {
			t.Errorf("expected 3 attempts, got %d", attempts)
		}
		if resp.Choices[0].Message.Text() != "ok" {
			t.Errorf("unexpected response: %+v", resp)
		}
	})

	t.Run("gives up after max retries", func(t *testing.T) {
		attempts := 0
		c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			attempts++
			w.Header().Set("Retry-After", "0")
			w.WriteHeader(http.StatusTooManyRequests)
		})

		_, err := c.Send(context.Background(), []provider.Message{provider.UserMessage("hi")}, nil, nil)
		he, ok := provider.AsHTTPError(err)
		if !ok || he.Status != 429 {
			t.Fatalf("expected 429 HTTPError, got %v", err)
		}
		// initial attempt + MaxRetries
		if attempts != 3 {
			t.Errorf("expected 3 attempts, got %d", attempts)
		}
	})
}

func TestStreamHTTP(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		json.NewDecoder(r.Body).Decode(&body)
		if body["stream"] != true {
			t.Errorf("expected stream true, got %v", body["stream"])
		}
		w.Header().Set("Content-Type", "text/event-stream")
		fmt.Fprint(w, "data: {\"choices\":[{\"delta\":{\"content\":\"Hel\"}}]}\n\n")
		fmt.Fprint(w, ": keepalive comment\n\n")
		fmt.Fprint(w, "data: {\"choices\":[{\"delta\":{\"content\":\"lo\"}}]}\n\n")
		fmt.Fprint(w, "data: [DONE]\n\n")
	})

	items, err := c.Stream(context.Background(), []provider.Message{provider.UserMessage("hi")}, nil, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var content string
	for item := range items {
		if item.Err != nil {
			t.Fatalf("unexpected stream error: %v", item.Err)
		}
		for _, choice := range item.Chunk.Choices {
			content += choice.Delta.Content
		}
	}
	if content != "Hello" {
		t.Errorf("expected %q, got %q", "Hello", content)
	}
}

func TestRetryAfterDelay(t *testing.T) {
	now := time.Date(2026, 1, 2, 15, 0, 0, 0, time.UTC)

	t.Run("integer seconds", func(t *testing.T) {
		d, ok := retryAfterDelay("7", now)
		if !ok || d != 7*time.Second {
			t.Errorf("expected 7s, got %v %v", d, ok)
		}
	})

	t.Run("negative seconds clamp to zero", func(t *testing.T) {
		d, ok := retryAfterDelay("-3", now)
		if !ok || d != 0 {
			t.Errorf("expected 0, got %v %v", d, ok)
		}
	})

	t.Run("HTTP date", func(t *testing.T) {
		d, ok := retryAfterDelay(now.Add(30*time.Second).Format(http.TimeFormat), now)
		if !ok || d != 30*time.Second {
			t.Errorf("expected 30s, got %v %v", d, ok)
		}
	})

	t.Run("past HTTP date clamps to zero", func(t *testing.T) {
		d, ok := retryAfterDelay(now.Add(-time.Minute).Format(http.TimeFormat), now)
		if !ok || d != 0 {
			t.Errorf("expected 0, got %v %v", d, ok)
		}
	})

	t.Run("garbage is not honored", func(t *testing.T) {
		if _, ok := retryAfterDelay("soon", now); ok {
			t.Error("expected garbage header to be rejected")
		}
		if _, ok := retryAfterDelay("", now); ok {
			t.Error("expected empty header to be rejected")
		}
	})
}

func TestWith(t *testing.T) {
	c := New(Config{
		APIKey:        "k",
		Model:         "m",
		BaseURL:       "https://openrouter.ai/api/v1",
		RequestParams: map[string]any{"temperature": 0.3, "top_p": 0.9},
	})

	derived := c.With(map[string]any{"temperature": 0.8}).(*Client)
	if derived.requestParams["temperature"] != 0.8 {
		t.Errorf("expected override to win, got %v", derived.requestParams["temperature"])
	}
	if derived.requestParams["top_p"] != 0.9 {
		t.Errorf("expected inherited param, got %v", derived.requestParams["top_p"])
	}
	if c.requestParams["temperature"] != 0.3 {
		t.Errorf("receiver was mutated: %v", c.requestParams["temperature"])
	}
}

func TestVendorName(t *testing.T) {
	cases := []struct {
		url  string
		want string
	}{
		{"https://openrouter.ai/api/v1", "OpenRouter"},
		{"https://www.openrouter.ai/api/v1", "OpenRouter"},
		{"https://api.groq.com/openai/v1", "Api"},
		{"https://example.com/v1", "Example"},
		{"not a url", "Provider"},
	}
	for _, tc := range cases {
		if got := vendorName(tc.url); got != tc.want {
			t.Errorf("vendorName(%q) = %q, want %q", tc.url, got, tc.want)
		}
	}
}

func TestSendContextCancelDuringRetry(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Retry-After", "30")
		w.WriteHeader(http.StatusTooManyRequests)
	})

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := c.Send(ctx, []provider.Message{provider.UserMessage("hi")}, nil, nil)
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected context deadline, got %v", err)
	}
}
