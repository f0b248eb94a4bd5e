package headless

import (
	"context"
	"encoding/json"
	"errors"
	"regexp"
	"strconv"
	"strings"

	"heddle/internal/provider"
)

// apiErrorPattern matches the raw form of a provider HTTP failure,
// "<Provider> API error (<status>): <body>".
var apiErrorPattern = regexp.MustCompile(`(?s)^(.+?)\s+API error\s+\((\d+)\):\s*(.*)$`)

// NormalizedError is the controller-facing shape of a failure that
// escaped the agent loop.
type NormalizedError struct {
	Error    string
	Code     string
	Provider string
	Status   int
	Details  any
}

// workerEvent renders the normalized error as an error worker event.
func (n NormalizedError) workerEvent() map[string]any {
	ev := map[string]any{
		"event": "error",
		"error": n.Error,
	}
	if n.Code != "" {
		ev["code"] = n.Code
	}
	if n.Provider != "" {
		ev["provider"] = n.Provider
	}
	if n.Details != nil {
		ev["details"] = n.Details
	}
	return ev
}

func codeLabel(code string) string {
	switch code {
	case "provider_error":
		return "Provider error"
	case "tool_error":
		return "Tool error"
	case "protocol_error":
		return "Protocol error"
	case "loop_detected":
		return "Doom loop detected"
	case "timeout":
		return "Timeout"
	}
	return "Error"
}

// Normalize converts a loop failure into its controller-facing form.
// Provider HTTP failures are unpacked into provider, status and the
// most specific message the error body offers; everything else keeps
// its raw message.
func Normalize(err error) NormalizedError {
	raw := err.Error()
	code := classify(err)

	if m := apiErrorPattern.FindStringSubmatch(raw); m != nil {
		status, _ := strconv.Atoi(m[2])
		n := NormalizedError{
			Code:     code,
			Provider: strings.ToLower(m[1]),
			Status:   status,
		}
		n.Details, n.Error = detailsAndMessage(m[3], code)
		return n
	}

	if strings.Contains(raw, "API error") {
		return NormalizedError{Error: codeLabel(code), Code: code, Details: raw}
	}
	return NormalizedError{Error: raw, Code: code}
}

func classify(err error) string {
	var parseErr *provider.StreamParseError
	switch {
	case errors.As(err, &parseErr):
		return "protocol_error"
	case errors.Is(err, context.DeadlineExceeded):
		return "timeout"
	}
	return "provider_error"
}

// detailsAndMessage parses the raw body of an API error. The message is
// taken from .error.message, then a string .error, then the body itself
// trimmed, then the code's label.
func detailsAndMessage(rawDetails, code string) (any, string) {
	var parsed any
	if err := json.Unmarshal([]byte(rawDetails), &parsed); err != nil {
		if s := strings.TrimSpace(rawDetails); s != "" {
			return rawDetails, s
		}
		return rawDetails, codeLabel(code)
	}

	if obj, ok := parsed.(map[string]any); ok {
		switch inner := obj["error"].(type) {
		case map[string]any:
			if msg, ok := inner["message"].(string); ok && msg != "" {
				return parsed, msg
			}
		case string:
			if inner != "" {
				return parsed, inner
			}
		}
	}
	if s, ok := parsed.(string); ok {
		if trimmed := strings.TrimSpace(s); trimmed != "" {
			return parsed, trimmed
		}
	}
	return parsed, codeLabel(code)
}
