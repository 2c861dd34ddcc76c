package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, err := Load(New(), "")
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.Server.Addr)
	assert.Equal(t, 200*time.Millisecond, cfg.Runner.Interval)
	assert.True(t, cfg.Runner.ClearOnSwitch)
	assert.Equal(t, 128, cfg.Schema.CacheSize)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Empty(t, cfg.Store.Path)
}

func TestLoad_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "taskbench.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
server:
  addr: 127.0.0.1:9000
runner:
  interval: 50ms
  clear_on_switch: false
store:
  path: /tmp/verdicts.db
`), 0o644))

	cfg, err := Load(New(), path)
	require.NoError(t, err)
	assert.Equal(t, "127.0.0.1:9000", cfg.Server.Addr)
	assert.Equal(t, 50*time.Millisecond, cfg.Runner.Interval)
	assert.False(t, cfg.Runner.ClearOnSwitch)
	assert.Equal(t, "/tmp/verdicts.db", cfg.Store.Path)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("TASKBENCH_SERVER_ADDR", ":7070")
	t.Setenv("TASKBENCH_RUNNER_INTERVAL", "1s")
	t.Setenv("TASKBENCH_RUNNER_CLEAR_ON_SWITCH", "false")

	cfg, err := Load(New(), "")
	require.NoError(t, err)
	assert.Equal(t, ":7070", cfg.Server.Addr)
	assert.Equal(t, time.Second, cfg.Runner.Interval)
	assert.False(t, cfg.Runner.ClearOnSwitch)
}

func TestLoad_LogLevelEnv(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("LOG_LEVEL", "debug")

	cfg, err := Load(New(), "")
	require.NoError(t, err)
	assert.Equal(t, "debug", cfg.Log.Level)

	t.Setenv("TASKBENCH_LOG_LEVEL", "error")
	cfg, err = Load(New(), "")
	require.NoError(t, err)
	assert.Equal(t, "error", cfg.Log.Level)
}

func TestLoad_Invalid(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("TASKBENCH_RUNNER_INTERVAL", "0s")

	_, err := Load(New(), "")
	assert.ErrorContains(t, err, "runner.interval")
}

func TestLoad_MissingExplicitFile(t *testing.T) {
	_, err := Load(New(), filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	base := Config{
		Server: ServerConfig{Addr: ":1"},
		Runner: RunnerConfig{Interval: time.Second},
		Schema: SchemaConfig{CacheSize: 1},
		Log:    LogConfig{Format: "text"},
	}
	require.NoError(t, base.Validate())

	bad := base
	bad.Log.Format = "xml"
	assert.ErrorContains(t, bad.Validate(), "log.format")

	bad = base
	bad.Schema.CacheSize = 0
	assert.ErrorContains(t, bad.Validate(), "schema.cache_size")
}

func TestLoadDotEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(path, []byte("TASKBENCH_TEST_DOTENV=from-file\n"), 0o644))
	t.Setenv("TASKBENCH_TEST_DOTENV", "")
	os.Unsetenv("TASKBENCH_TEST_DOTENV")

	require.NoError(t, LoadDotEnv(path))
	assert.Equal(t, "from-file", os.Getenv("TASKBENCH_TEST_DOTENV"))

	assert.NoError(t, LoadDotEnv(filepath.Join(dir, "missing.env")))
}
