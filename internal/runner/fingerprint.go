package runner

import (
	"encoding/json"
	"strings"

	"heddle/internal/provider"
)

// iterationFingerprint summarizes one iteration's tool calls as
// "<name>:<args>" joined by "|". Arguments that parse as JSON are
// re-serialized first so the fingerprint is stable across whitespace
// variation; unparseable arguments are used raw.
func iterationFingerprint(calls []provider.ToolCall) string {
	parts := make([]string, len(calls))
	for i, call := range calls {
		parts[i] = call.Function.Name + ":" + normalizeArgs(call.Function.Arguments)
	}
	return strings.Join(parts, "|")
}

func normalizeArgs(args string) string {
	var parsed any
	if err := json.Unmarshal([]byte(args), &parsed); err != nil {
		return args
	}
	normalized, err := json.Marshal(parsed)
	if err != nil {
		return args
	}
	return string(normalized)
}

// hashWindow is the bounded FIFO of recent iteration fingerprints.
type hashWindow struct {
	entries []string
	size    int
}

func newHashWindow(size int) *hashWindow {
	return &hashWindow{size: size}
}

// push appends a fingerprint, evicting the oldest when full, and reports
// whether the window is full with all entries equal.
func (w *hashWindow) push(fp string) bool {
	w.entries = append(w.entries, fp)
	if len(w.entries) > w.size {
		w.entries = w.entries[1:]
	}
	if len(w.entries) < w.size {
		return false
	}
	for _, e := range w.entries {
		if e != w.entries[0] {
			return false
		}
	}
	return true
}
