package session

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"heddle/internal/provider"
)

func TestJournalRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "session.jsonl")

	j, err := OpenJournal(path)
	if err != nil {
		t.Fatalf("open journal: %v", err)
	}

	meta := NewMeta("abc-123", "/tmp/project", "test-model")
	meta["controller"] = "test"
	if err := j.WriteSessionMeta(meta); err != nil {
		t.Fatalf("write meta: %v", err)
	}

	msgs := []provider.Message{
		provider.SystemMessage("be helpful"),
		provider.UserMessage("echo ping"),
		{
			Role: provider.RoleAssistant,
			ToolCalls: []provider.ToolCall{{
				ID:   "call_0",
				Type: "function",
				Function: provider.ToolCallFunction{Name: "echo", Arguments: `{"text":"ping"}`},
			}},
		},
		provider.ToolMessage("call_0", "ping"),
		provider.SystemMessage("done"),
	}
	for _, m := range msgs {
		if err := j.AppendMessage(m); err != nil {
			t.Fatalf("append: %v", err)
		}
	}
	if err := j.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	loaded, err := LoadSession(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(loaded) != len(msgs) {
		t.Fatalf("expected %d messages, got %d", len(msgs), len(loaded))
	}
	for i, want := range msgs {
		got := loaded[i]
		if got.Role != want.Role || got.Text() != want.Text() || got.ToolCallID != want.ToolCallID {
			t.Errorf("message %d mismatch: got %+v want %+v", i, got, want)
		}
	}

	// The tool-call-only assistant message keeps its explicit null content.
	if loaded[2].Content != nil {
		t.Errorf("expected nil content, got %q", *loaded[2].Content)
	}
	if len(loaded[2].ToolCalls) != 1 || loaded[2].ToolCalls[0].Function.Arguments != `{"text":"ping"}` {
		t.Errorf("tool calls did not survive the round trip: %+v", loaded[2].ToolCalls)
	}
}

func TestJournalNullContentOnDisk(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.jsonl")
	j, err := OpenJournal(path)
	if err != nil {
		t.Fatalf("open journal: %v", err)
	}
	msg := provider.Message{
		Role: provider.RoleAssistant,
		ToolCalls: []provider.ToolCall{{
			ID:       "call_0",
			Type:     "function",
			Function: provider.ToolCallFunction{Name: "echo", Arguments: "{}"},
		}},
	}
	if err := j.AppendMessage(msg); err != nil {
		t.Fatalf("append: %v", err)
	}
	j.Close()

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if !strings.Contains(string(data), `"content":null`) {
		t.Errorf("expected explicit null content on disk, got %s", data)
	}
	if !strings.Contains(string(data), `"timestamp":`) {
		t.Errorf("expected a timestamp field, got %s", data)
	}
}

func TestLoadSessionMissingFile(t *testing.T) {
	msgs, err := LoadSession(filepath.Join(t.TempDir(), "absent.jsonl"))
	if err != nil {
		t.Fatalf("expected nil error for missing file, got %v", err)
	}
	if msgs != nil {
		t.Errorf("expected no messages, got %v", msgs)
	}
}

func TestLoadSessionMeta(t *testing.T) {
	t.Run("returns the header with extras", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "session.jsonl")
		j, err := OpenJournal(path)
		if err != nil {
			t.Fatalf("open journal: %v", err)
		}
		meta := NewMeta("id-1", "/work", "test-model")
		meta["extra"] = "kept"
		if err := j.WriteSessionMeta(meta); err != nil {
			t.Fatalf("write meta: %v", err)
		}
		j.Close()

		got := LoadSessionMeta(path)
		if got == nil {
			t.Fatal("expected meta, got nil")
		}
		if got["id"] != "id-1" || got["model"] != "test-model" || got["extra"] != "kept" {
			t.Errorf("unexpected meta: %v", got)
		}
	})

	t.Run("nil when the first line is not a header", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "session.jsonl")
		j, err := OpenJournal(path)
		if err != nil {
			t.Fatalf("open journal: %v", err)
		}
		j.AppendMessage(provider.UserMessage("hello"))
		j.Close()

		if got := LoadSessionMeta(path); got != nil {
			t.Errorf("expected nil, got %v", got)
		}
	})

	t.Run("nil for a missing file", func(t *testing.T) {
		if got := LoadSessionMeta(filepath.Join(t.TempDir(), "absent.jsonl")); got != nil {
			t.Errorf("expected nil, got %v", got)
		}
	})
}

func TestSessionFilePath(t *testing.T) {
	path := SessionFile("/home/u/.heddle", "/work/my project", "uuid-1")
	want := filepath.Join("/home/u/.heddle", "projects", "-work-my-project", "sessions", "uuid-1.jsonl")
	if path != want {
		t.Errorf("expected %q, got %q", want, path)
	}
}
