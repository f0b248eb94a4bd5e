package openrouter

import (
	"encoding/json"
	"math"

	"heddle/pkg/logger"
)

// Valid enum values for validated override fields.
var (
	validRoutes = map[string]bool{"fallback": true, "sort": true}

	validEfforts = map[string]bool{
		"xhigh": true, "high": true, "medium": true,
		"low": true, "minimal": true, "none": true,
	}

	validSummaries = map[string]bool{"auto": true, "concise": true, "detailed": true}
)

const maxSessionIDLen = 128

// ValidateOverrides filters per-call request overrides. Known fields with
// invalid values are dropped, never coerced; unknown fields are dropped with
// a debug note. The input map is not modified.
func ValidateOverrides(overrides map[string]any) map[string]any {
	if len(overrides) == 0 {
		return nil
	}

	out := make(map[string]any, len(overrides))
	for key, value := range overrides {
		switch key {
		case "model":
			if s, ok := value.(string); ok && s != "" {
				out[key] = s
			}
		case "temperature":
			if n, ok := asNumber(value); ok && n >= 0 && n <= 2 {
				out[key] = n
			}
		case "max_tokens":
			if n, ok := asPositiveInt(value); ok {
				out[key] = n
			}
		case "top_p", "seed", "frequency_penalty", "presence_penalty":
			if n, ok := asNumber(value); ok {
				out[key] = n
			}
		case "stop":
			if v, ok := asStringOrStrings(value); ok {
				out[key] = v
			}
		case "route":
			if s, ok := value.(string); ok && validRoutes[s] {
				out[key] = s
			}
		case "models":
			if v, ok := asStrings(value); ok {
				out[key] = v
			}
		case "reasoning":
			if m, ok := asObject(value); ok {
				if r := validateReasoning(m); len(r) > 0 {
					out[key] = r
				}
			}
		case "session_id":
			if s, ok := value.(string); ok && len(s) <= maxSessionIDLen {
				out[key] = s
			}
		case "response_format", "provider", "debug":
			if m, ok := asObject(value); ok {
				out[key] = m
			}
		case "tool_choice":
			switch v := value.(type) {
			case string:
				out[key] = v
			default:
				if m, ok := asObject(value); ok {
					out[key] = m
				}
			}
		case "plugins":
			if a, ok := value.([]any); ok {
				out[key] = a
			}
		default:
			logger.Debug("provider").Str("field", key).Msg("dropping unknown override field")
		}
	}
	return out
}

// validateReasoning filters the reasoning sub-object field by field.
func validateReasoning(m map[string]any) map[string]any {
	out := make(map[string]any, len(m))
	if s, ok := m["effort"].(string); ok && validEfforts[s] {
		out["effort"] = s
	}
	if n, ok := asPositiveInt(m["max_tokens"]); ok {
		out["max_tokens"] = n
	}
	if b, ok := m["excluded"].(bool); ok {
		out["excluded"] = b
	}
	if s, ok := m["summary"].(string); ok && validSummaries[s] {
		out["summary"] = s
	}
	return out
}

// asNumber accepts the numeric shapes a value can arrive in, whether decoded
// from JSON or passed as a Go literal.
func asNumber(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	default:
		return 0, false
	}
}

func asPositiveInt(v any) (int, bool) {
	n, ok := asNumber(v)
	if !ok || n <= 0 || n != math.Trunc(n) {
		return 0, false
	}
	return int(n), true
}

func asStrings(v any) ([]string, bool) {
	switch list := v.(type) {
	case []string:
		return list, true
	case []any:
		out := make([]string, 0, len(list))
		for _, item := range list {
			s, ok := item.(string)
			if !ok {
				return nil, false
			}
			out = append(out, s)
		}
		return out, true
	default:
		return nil, false
	}
}

func asStringOrStrings(v any) (any, bool) {
	if s, ok := v.(string); ok {
		return s, true
	}
	if list, ok := asStrings(v); ok {
		return list, true
	}
	return nil, false
}

func asObject(v any) (map[string]any, bool) {
	m, ok := v.(map[string]any)
	return m, ok
}
