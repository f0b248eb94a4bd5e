// Package config loads layered heddle configuration: built-in defaults,
// then the global file under HEDDLE_HOME, then the per-project file, then
// the environment. Later layers win.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// DefaultModel is used when neither config nor the controller names one.
const DefaultModel = "anthropic/claude-sonnet-4.5"

// Config is the application configuration root.
type Config struct {
	Model         string         `mapstructure:"model" yaml:"model"`
	BaseURL       string         `mapstructure:"base_url" yaml:"base_url,omitempty"`
	APIKey        string         `mapstructure:"api_key" yaml:"api_key,omitempty"`
	SystemPrompt  string         `mapstructure:"system_prompt" yaml:"system_prompt,omitempty"`
	Tools         []string       `mapstructure:"tools" yaml:"tools,omitempty"`
	MaxIterations int            `mapstructure:"max_iterations" yaml:"max_iterations,omitempty"`
	RequestParams map[string]any `mapstructure:"request_params" yaml:"request_params,omitempty"`
	Retry         RetryConfig    `mapstructure:"retry" yaml:"retry,omitempty"`
}

// RetryConfig mirrors the provider retry policy in config form.
type RetryConfig struct {
	MaxRetries  int `mapstructure:"max_retries" yaml:"max_retries,omitempty"`
	BaseDelayMs int `mapstructure:"base_delay_ms" yaml:"base_delay_ms,omitempty"`
}

// Load reads the layered configuration. A missing config file is not an
// error; a malformed one is.
func Load() (*Config, error) {
	// Best-effort .env for local development.
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigType("yaml")

	v.SetDefault("model", DefaultModel)
	v.SetDefault("max_iterations", 20)
	v.SetDefault("retry.max_retries", 3)
	v.SetDefault("retry.base_delay_ms", 1000)

	for _, path := range []string{GlobalConfigPath(), LocalConfigPath()} {
		if _, err := os.Stat(path); err != nil {
			continue
		}
		v.SetConfigFile(path)
		if err := v.MergeInConfig(); err != nil {
			return nil, fmt.Errorf("load config %s: %w", path, err)
		}
	}

	// Environment bindings, highest precedence.
	bindEnv(v, "api_key", "OPENROUTER_API_KEY")
	bindEnv(v, "base_url", "HEDDLE_BASE_URL")
	bindEnv(v, "model", "HEDDLE_MODEL")
	bindEnv(v, "system_prompt", "HEDDLE_SYSTEM_PROMPT")

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	return &cfg, nil
}

func bindEnv(v *viper.Viper, key, env string) {
	if val := os.Getenv(env); val != "" {
		v.Set(key, val)
	}
}

// WriteDefault writes a starter global config file if none exists yet.
func WriteDefault() error {
	path := GlobalConfigPath()
	if _, err := os.Stat(path); err == nil {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}
	data, err := yaml.Marshal(Config{
		Model:         DefaultModel,
		MaxIterations: 20,
		Retry:         RetryConfig{MaxRetries: 3, BaseDelayMs: 1000},
	})
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0600)
}
