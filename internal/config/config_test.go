package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/mitchellh/go-homedir"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{"CRAWL_BACKEND", "CRAWL_PATH", "CRAWL_DSN", "CRAWL_DEBOUNCE", "CRAWL_REFRESH_INTERVAL",
		"CRAWL_LOG_CALLS", "CRAWL_LOG_LEVEL", "CRAWL_WRITE_CONCURRENCY"} {
		t.Setenv(k, "")
		os.Unsetenv(k)
	}
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)
	cfg, err := load(viper.New(), t.TempDir())
	require.NoError(t, err)

	home, err := homedir.Dir()
	require.NoError(t, err)
	assert.Equal(t, BackendSQLite, cfg.Backend)
	assert.Equal(t, filepath.Join(home, ".crawl", "crawl.db"), cfg.Path)
	assert.Equal(t, 1500*time.Millisecond, cfg.Debounce)
	assert.Equal(t, time.Minute, cfg.RefreshInterval)
	assert.Equal(t, slog.LevelWarn, cfg.LogLevel)
	assert.Equal(t, 8, cfg.WriteConcurrency)
	assert.False(t, cfg.LogCalls)
}

func TestLoad_FileThenEnv(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".crawl.yaml"), []byte(`
backend: diskv
debounce: 250ms
log_level: debug
write_concurrency: 2
`), 0o644))
	t.Setenv("CRAWL_WRITE_CONCURRENCY", "4")
	t.Setenv("CRAWL_LOG_CALLS", "true")

	cfg, err := load(viper.New(), dir)
	require.NoError(t, err)

	home, _ := homedir.Dir()
	assert.Equal(t, BackendDiskv, cfg.Backend)
	assert.Equal(t, filepath.Join(home, ".crawl", "nodes"), cfg.Path)
	assert.Equal(t, 250*time.Millisecond, cfg.Debounce)
	assert.Equal(t, slog.LevelDebug, cfg.LogLevel)
	assert.Equal(t, 4, cfg.WriteConcurrency, "env wins over file")
	assert.True(t, cfg.LogCalls)
	assert.Equal(t, filepath.Join(dir, ".crawl.yaml"), cfg.File)
}

func TestLoad_ExpandsHome(t *testing.T) {
	clearEnv(t)
	t.Setenv("CRAWL_PATH", "~/elsewhere/catalog.db")

	cfg, err := load(viper.New(), t.TempDir())
	require.NoError(t, err)
	home, _ := homedir.Dir()
	assert.Equal(t, filepath.Join(home, "elsewhere", "catalog.db"), cfg.Path)
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{"unknown backend", map[string]string{"CRAWL_BACKEND": "mongo"}},
		{"postgres without dsn", map[string]string{"CRAWL_BACKEND": "postgres"}},
		{"bad level", map[string]string{"CRAWL_LOG_LEVEL": "loud"}},
		{"zero concurrency", map[string]string{"CRAWL_WRITE_CONCURRENCY": "0"}},
		{"negative debounce", map[string]string{"CRAWL_DEBOUNCE": "-1s"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := load(viper.New(), t.TempDir())
			assert.Error(t, err)
		})
	}
}

func TestLoad_MalformedFile(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".crawl.yaml"), []byte("backend: [unterminated"), 0o644))

	_, err := load(viper.New(), dir)
	assert.Error(t, err)
}
