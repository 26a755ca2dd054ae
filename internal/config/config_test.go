package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

// isolateHome points the home directory at a temp dir so a developer's
// real config never leaks into tests.
func isolateHome(t *testing.T) string {
	t.Helper()
	home := t.TempDir()
	t.Setenv("HOME", home)
	return home
}

func TestLoad_DefaultsWithoutConfigFile(t *testing.T) {
	home := isolateHome(t)

	cfg, err := Load(viper.New(), "")
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(home, ".insession", "insession.db"), cfg.DBPath)
	assert.False(t, cfg.LogTransitions)
	assert.Equal(t, time.Second, cfg.TickInterval)
	assert.Equal(t, 200*time.Millisecond, cfg.WatchDebounce)
	assert.True(t, cfg.AutoRefresh)
}

func TestLoad_ReadsYAMLFile(t *testing.T) {
	isolateHome(t)
	path := writeConfig(t, `
db_path: /tmp/focus.db
log_transitions: true
tick_interval: 500ms
auto_refresh: false
`)

	cfg, err := Load(viper.New(), path)
	require.NoError(t, err)

	assert.Equal(t, "/tmp/focus.db", cfg.DBPath)
	assert.True(t, cfg.LogTransitions)
	assert.Equal(t, 500*time.Millisecond, cfg.TickInterval)
	assert.False(t, cfg.AutoRefresh)
}

func TestLoad_ReadsDefaultConfigDir(t *testing.T) {
	home := isolateHome(t)
	dir := filepath.Join(home, ".config", "insession")
	require.NoError(t, os.MkdirAll(dir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte("log_transitions: true\n"), 0o644))

	cfg, err := Load(viper.New(), "")
	require.NoError(t, err)
	assert.True(t, cfg.LogTransitions)
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	isolateHome(t)
	path := writeConfig(t, "db_path: /tmp/from-file.db\n")
	t.Setenv("INSESSION_DB_PATH", "/tmp/from-env.db")
	t.Setenv("INSESSION_TICK_INTERVAL", "2s")

	cfg, err := Load(viper.New(), path)
	require.NoError(t, err)

	assert.Equal(t, "/tmp/from-env.db", cfg.DBPath)
	assert.Equal(t, 2*time.Second, cfg.TickInterval)
}

func TestLoad_ExplicitMissingFileIsAnError(t *testing.T) {
	isolateHome(t)
	_, err := Load(viper.New(), filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "reading config")
}

func TestLoad_InvalidValuesFallBackToDefaults(t *testing.T) {
	home := isolateHome(t)
	path := writeConfig(t, `
db_path: "~/focus/insession.db"
tick_interval: -1s
watch_debounce: 0s
`)

	cfg, err := Load(viper.New(), path)
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(home, "focus", "insession.db"), cfg.DBPath)
	assert.Equal(t, time.Second, cfg.TickInterval)
	assert.Equal(t, 200*time.Millisecond, cfg.WatchDebounce)
}
