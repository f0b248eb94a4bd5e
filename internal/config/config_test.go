package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// chdir changes the working directory for the duration of the test,
// restoring it on cleanup (t.Chdir requires Go 1.24).
func chdir(t *testing.T, dir string) {
	t.Helper()
	old, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(old) })
}

func TestLoadDefaults(t *testing.T) {
	t.Setenv("HEDDLE_HOME", t.TempDir())
	t.Setenv("OPENROUTER_API_KEY", "")
	t.Setenv("HEDDLE_BASE_URL", "")
	t.Setenv("HEDDLE_MODEL", "")
	t.Setenv("HEDDLE_SYSTEM_PROMPT", "")
	chdir(t, t.TempDir())

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, DefaultModel, cfg.Model)
	assert.Equal(t, 20, cfg.MaxIterations)
	assert.Equal(t, 3, cfg.Retry.MaxRetries)
	assert.Equal(t, 1000, cfg.Retry.BaseDelayMs)
	assert.Empty(t, cfg.APIKey)
}

func TestLoadLayering(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HEDDLE_HOME", home)
	t.Setenv("OPENROUTER_API_KEY", "")
	t.Setenv("HEDDLE_BASE_URL", "")
	t.Setenv("HEDDLE_MODEL", "")
	t.Setenv("HEDDLE_SYSTEM_PROMPT", "")

	global := "model: global-model\nsystem_prompt: from global\nmax_iterations: 7\n"
	require.NoError(t, os.WriteFile(filepath.Join(home, "config.yaml"), []byte(global), 0600))

	cwd := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(cwd, ".heddle"), 0755))
	local := "model: local-model\ntools: [read, bash]\n"
	require.NoError(t, os.WriteFile(filepath.Join(cwd, ".heddle", "config.yaml"), []byte(local), 0600))
	chdir(t, cwd)

	cfg, err := Load()
	require.NoError(t, err)

	// Local file overrides global; untouched global values survive.
	assert.Equal(t, "local-model", cfg.Model)
	assert.Equal(t, "from global", cfg.SystemPrompt)
	assert.Equal(t, 7, cfg.MaxIterations)
	assert.Equal(t, []string{"read", "bash"}, cfg.Tools)
}

func TestLoadEnvWins(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HEDDLE_HOME", home)
	require.NoError(t, os.WriteFile(filepath.Join(home, "config.yaml"), []byte("model: file-model\n"), 0600))
	chdir(t, t.TempDir())

	t.Setenv("HEDDLE_MODEL", "env-model")
	t.Setenv("OPENROUTER_API_KEY", "env-key")
	t.Setenv("HEDDLE_BASE_URL", "https://example.com/v1")
	t.Setenv("HEDDLE_SYSTEM_PROMPT", "")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "env-model", cfg.Model)
	assert.Equal(t, "env-key", cfg.APIKey)
	assert.Equal(t, "https://example.com/v1", cfg.BaseURL)
}

func TestLoadMalformedFile(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HEDDLE_HOME", home)
	require.NoError(t, os.WriteFile(filepath.Join(home, "config.yaml"), []byte("model: [unclosed\n"), 0600))
	chdir(t, t.TempDir())

	_, err := Load()
	require.Error(t, err)
}

func TestWriteDefault(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HEDDLE_HOME", home)

	require.NoError(t, WriteDefault())
	data, err := os.ReadFile(filepath.Join(home, "config.yaml"))
	require.NoError(t, err)
	assert.Contains(t, string(data), "model: "+DefaultModel)

	// A second call must not clobber an edited file.
	require.NoError(t, os.WriteFile(filepath.Join(home, "config.yaml"), []byte("model: mine\n"), 0600))
	require.NoError(t, WriteDefault())
	data, err = os.ReadFile(filepath.Join(home, "config.yaml"))
	require.NoError(t, err)
	assert.Equal(t, "model: mine\n", string(data))
}

func TestHome(t *testing.T) {
	t.Run("HEDDLE_HOME absolute", func(t *testing.T) {
		dir := t.TempDir()
		t.Setenv("HEDDLE_HOME", dir)
		assert.Equal(t, dir, Home())
	})

	t.Run("HEDDLE_HOME relative resolves from cwd", func(t *testing.T) {
		cwd := t.TempDir()
		chdir(t, cwd)
		t.Setenv("HEDDLE_HOME", "state")
		got, err := filepath.EvalSymlinks(filepath.Dir(Home()))
		require.NoError(t, err)
		want, err := filepath.EvalSymlinks(cwd)
		require.NoError(t, err)
		assert.Equal(t, want, got)
		assert.Equal(t, "state", filepath.Base(Home()))
	})

	t.Run("default under the user home", func(t *testing.T) {
		t.Setenv("HEDDLE_HOME", "")
		assert.Equal(t, ".heddle", filepath.Base(Home()))
	})
}
