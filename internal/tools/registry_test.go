package tools

import (
	"context"
	"errors"
	"testing"
)

// mockTool is a configurable test double.
type mockTool struct {
	name        string
	description string
	params      map[string]any
	execFn      func(ctx context.Context, args map[string]any) (string, error)
}

func (m *mockTool) Name() string               { return m.name }
func (m *mockTool) Description() string        { return m.description }
func (m *mockTool) Parameters() map[string]any { return m.params }

func (m *mockTool) Execute(ctx context.Context, args map[string]any) (string, error) {
	if m.execFn != nil {
		return m.execFn(ctx, args)
	}
	return "", nil
}

func TestRegistry(t *testing.T) {
	t.Run("NewRegistry", func(t *testing.T) {
		r := NewRegistry()
		if r.Len() != 0 {
			t.Errorf("expected empty registry, got %d tools", r.Len())
		}
	})

	t.Run("Register and Get", func(t *testing.T) {
		r := NewRegistry()
		if err := r.Register(&mockTool{name: "test", description: "A test tool"}); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		got, ok := r.Get("test")
		if !ok {
			t.Fatal("expected tool to be found")
		}
		if got.Name() != "test" {
			t.Errorf("expected name 'test', got %q", got.Name())
		}

		if _, ok := r.Get("nonexistent"); ok {
			t.Error("expected nonexistent tool to not be found")
		}
	})

	t.Run("Register duplicate", func(t *testing.T) {
		r := NewRegistry()
		if err := r.Register(&mockTool{name: "dup"}); err != nil {
			t.Fatalf("first register failed: %v", err)
		}
		err := r.Register(&mockTool{name: "dup"})
		if !errors.Is(err, ErrToolAlreadyExists) {
			t.Errorf("expected ErrToolAlreadyExists, got %v", err)
		}
	})

	t.Run("Names preserves registration order", func(t *testing.T) {
		r := NewRegistry()
		for _, name := range []string{"c", "a", "b"} {
			if err := r.Register(&mockTool{name: name}); err != nil {
				t.Fatalf("register %s: %v", name, err)
			}
		}
		names := r.Names()
		want := []string{"c", "a", "b"}
		for i := range want {
			if names[i] != want[i] {
				t.Errorf("position %d: expected %q, got %q", i, want[i], names[i])
			}
		}
	})

	t.Run("Definitions preserves registration order", func(t *testing.T) {
		r := NewRegistry()
		for _, name := range []string{"z", "m"} {
			if err := r.Register(&mockTool{
				name:   name,
				params: map[string]any{"type": "object"},
			}); err != nil {
				t.Fatalf("register %s: %v", name, err)
			}
		}
		defs := r.Definitions()
		if len(defs) != 2 {
			t.Fatalf("expected 2 definitions, got %d", len(defs))
		}
		if defs[0].Function.Name != "z" || defs[1].Function.Name != "m" {
			t.Errorf("unexpected order: %q, %q", defs[0].Function.Name, defs[1].Function.Name)
		}
		if defs[0].Type != "function" {
			t.Errorf("expected type function, got %q", defs[0].Type)
		}
	})

	t.Run("Filter", func(t *testing.T) {
		r := NewRegistry()
		for _, name := range []string{"read", "write", "bash"} {
			if err := r.Register(&mockTool{name: name}); err != nil {
				t.Fatalf("register %s: %v", name, err)
			}
		}

		filtered := r.Filter([]string{"bash", "read", "unknown"})
		if filtered.Len() != 2 {
			t.Errorf("expected 2 tools after filter, got %d", filtered.Len())
		}
		names := filtered.Names()
		if names[0] != "read" || names[1] != "bash" {
			t.Errorf("expected registration order preserved, got %v", names)
		}

		if r.Filter(nil) != r {
			t.Error("empty filter should return the receiver")
		}
	})
}

func TestRegistryExecute(t *testing.T) {
	newEchoRegistry := func(t *testing.T) *Registry {
		t.Helper()
		r := NewRegistry()
		err := r.Register(&mockTool{
			name: "echo",
			execFn: func(ctx context.Context, args map[string]any) (string, error) {
				text, _ := args["text"].(string)
				return text, nil
			},
		})
		if err != nil {
			t.Fatalf("register echo: %v", err)
		}
		return r
	}

	t.Run("success", func(t *testing.T) {
		r := newEchoRegistry(t)
		out, err := r.Execute(context.Background(), "echo", `{"text":"hi"}`)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if out != "hi" {
			t.Errorf("expected %q, got %q", "hi", out)
		}
	})

	t.Run("unknown tool is a hard failure", func(t *testing.T) {
		r := newEchoRegistry(t)
		_, err := r.Execute(context.Background(), "missing", "{}")
		if !errors.Is(err, ErrToolNotFound) {
			t.Fatalf("expected ErrToolNotFound, got %v", err)
		}
	})

	t.Run("invalid JSON arguments are recovered", func(t *testing.T) {
		r := newEchoRegistry(t)
		out, err := r.Execute(context.Background(), "echo", `{"broken`)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		want := `Error: Invalid JSON arguments: {"broken`
		if out != want {
			t.Errorf("expected %q, got %q", want, out)
		}
	})

	t.Run("tool errors are recovered", func(t *testing.T) {
		r := NewRegistry()
		err := r.Register(&mockTool{
			name: "fail",
			execFn: func(ctx context.Context, args map[string]any) (string, error) {
				return "", errors.New("disk full")
			},
		})
		if err != nil {
			t.Fatalf("register fail: %v", err)
		}

		out, err := r.Execute(context.Background(), "fail", "{}")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if out != "Error: disk full" {
			t.Errorf("expected recovered error string, got %q", out)
		}
	})
}
