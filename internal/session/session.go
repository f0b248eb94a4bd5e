// Package session owns the persistent conversation: its journal on disk
// and the setup that binds a provider and tool registry to it.
package session

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"heddle/internal/config"
	"heddle/internal/provider"
	"heddle/internal/provider/openrouter"
	"heddle/internal/tools"
	"heddle/internal/tools/builtin"
	"heddle/pkg/logger"
)

// DefaultSystemPrompt is used when neither the controller nor config names
// one.
const DefaultSystemPrompt = "You are heddle, a coding agent running in a terminal session. " +
	"Use the available tools to inspect and modify the project. " +
	"Prefer small, verifiable steps and report what you did."

// Session is one live conversation bound to a provider and tool registry.
type Session struct {
	ID           string
	File         string
	CreatedAt    time.Time
	Model        string
	Cwd          string
	Conversation *Conversation
	Provider     provider.Provider
	Registry     *tools.Registry
	Journal      *Journal

	MaxIterations int
}

// SetupOptions selects what the controller may override at init time.
type SetupOptions struct {
	Model         string
	SystemPrompt  string
	Tools         []string
	Cwd           string
	MaxIterations int
}

// Create builds a session: working directory, layered config, provider,
// tool registry, journal with meta header, and the initial system message.
func Create(opts SetupOptions) (*Session, error) {
	if opts.Cwd != "" {
		if _, err := os.Stat(opts.Cwd); err != nil {
			return nil, fmt.Errorf("working directory %s does not exist", opts.Cwd)
		}
		if err := os.Chdir(opts.Cwd); err != nil {
			return nil, fmt.Errorf("chdir %s: %w", opts.Cwd, err)
		}
	}

	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("no API key configured: set OPENROUTER_API_KEY or api_key in %s", config.GlobalConfigPath())
	}

	model := firstNonEmpty(opts.Model, cfg.Model, config.DefaultModel)

	var retry *provider.RetryConfig
	if cfg.Retry.MaxRetries > 0 || cfg.Retry.BaseDelayMs > 0 {
		retry = &provider.RetryConfig{
			MaxRetries: cfg.Retry.MaxRetries,
			BaseDelay:  time.Duration(cfg.Retry.BaseDelayMs) * time.Millisecond,
		}
	}
	prov := openrouter.New(openrouter.Config{
		APIKey:        cfg.APIKey,
		Model:         model,
		BaseURL:       cfg.BaseURL,
		RequestParams: cfg.RequestParams,
		Retry:         retry,
	})

	registry := tools.NewRegistry()
	builtin.RegisterDefaults(registry)
	filter := opts.Tools
	if len(filter) == 0 {
		filter = cfg.Tools
	}
	registry = registry.Filter(filter)

	cwd, err := os.Getwd()
	if err != nil {
		return nil, fmt.Errorf("get working directory: %w", err)
	}

	id := uuid.NewString()
	journal, err := OpenJournal(SessionFile(config.Home(), cwd, id))
	if err != nil {
		return nil, err
	}
	if err := journal.WriteSessionMeta(NewMeta(id, cwd, model)); err != nil {
		journal.Close()
		return nil, err
	}

	maxIterations := opts.MaxIterations
	if maxIterations <= 0 {
		maxIterations = cfg.MaxIterations
	}

	sess := &Session{
		ID:            id,
		File:          journal.Path(),
		CreatedAt:     time.Now(),
		Model:         model,
		Cwd:           cwd,
		Conversation:  NewConversation(),
		Provider:      prov,
		Registry:      registry,
		Journal:       journal,
		MaxIterations: maxIterations,
	}

	prompt := firstNonEmpty(opts.SystemPrompt, cfg.SystemPrompt, DefaultSystemPrompt)
	if agents := loadAgentsContext(cwd); agents != "" {
		prompt = agents + "\n\n" + prompt
	}
	sys := provider.SystemMessage(prompt)
	sess.Conversation.Append(sys)
	if err := journal.AppendMessage(sys); err != nil {
		journal.Close()
		return nil, err
	}

	logger.Debug("session").
		Str("id", id).
		Str("model", model).
		Str("file", sess.File).
		Msg("session created")
	return sess, nil
}

// Close releases the session's file handle.
func (s *Session) Close() error {
	if s.Journal != nil {
		return s.Journal.Close()
	}
	return nil
}

// loadAgentsContext reads the project's AGENTS.md, if present. Discovery of
// richer context layouts is left to outer tooling.
func loadAgentsContext(cwd string) string {
	data, err := os.ReadFile(filepath.Join(cwd, "AGENTS.md"))
	if err != nil {
		return ""
	}
	return string(data)
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
