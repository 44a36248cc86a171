package config

import (
	"bytes"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(t.TempDir())
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoadFile(t *testing.T) {
	dir := t.TempDir()
	body := "server:\n  port: 8080\n  cors_origins: [\"http://localhost:5173\"]\nlog:\n  level: debug\nlayers:\n  dir: data\n  concurrency: 4\ncache:\n  size: 16\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(body), 0o644))

	cfg, err := Load(dir)
	require.NoError(t, err)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, []string{"http://localhost:5173"}, cfg.Server.CORSOrigins)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "data", cfg.Layers.Dir)
	assert.Equal(t, 4, cfg.Layers.Concurrency)
	assert.Equal(t, 16, cfg.Cache.Size)
	assert.Equal(t, "grammar.yaml", cfg.Grammar.File, "unset keys keep defaults")
}

func TestLoadEnv(t *testing.T) {
	t.Setenv("CURIO_SERVER_PORT", "9090")
	t.Setenv("CURIO_GRAMMAR_FILE", "city.yaml")

	cfg, err := Load(t.TempDir())
	require.NoError(t, err)
	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "city.yaml", cfg.Grammar.File)
}

func TestLoadInvalid(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"port", "server:\n  port: 70000\n"},
		{"cache", "cache:\n  size: 0\n"},
		{"level", "log:\n  level: loud\n"},
		{"syntax", "server: [\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(tt.body), 0o644))
			_, err := Load(dir)
			assert.Error(t, err)
		})
	}
}

func TestNewLogger(t *testing.T) {
	var buf bytes.Buffer
	cfg := Default()
	cfg.Log.Level = "warn"
	logger := cfg.NewLogger(&buf)

	logger.Info("hidden")
	logger.Warn("shown")
	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), "shown")
}

func TestParseLevel(t *testing.T) {
	l, err := ParseLevel("DEBUG")
	require.NoError(t, err)
	assert.Equal(t, slog.LevelDebug, l)
}

func TestProjectOptions(t *testing.T) {
	cfg := Default()
	opts := cfg.ProjectOptions(nil)
	assert.Equal(t, "grammar.yaml", opts.GrammarFile)
	assert.Equal(t, "layers", opts.LayersDir)
}
