package runner

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dd0wney/cluso-stockflow/pkg/logging"
)

func writeConfig(t *testing.T, text string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "run.yaml")
	require.NoError(t, os.WriteFile(path, []byte(text), 0o600))
	return path
}

func TestLoadConfig_Defaults(t *testing.T) {
	t.Setenv("STOCKFLOW_ROUNDS", "")
	t.Setenv("LOG_LEVEL", "")

	cfg, err := LoadConfig("")
	require.NoError(t, err)
	assert.Equal(t, DefaultRounds, cfg.Rounds)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
	assert.Equal(t, "csv", cfg.Output.Format)
	assert.Zero(t, cfg.Timeout)
}

func TestLoadConfig_File(t *testing.T) {
	t.Setenv("STOCKFLOW_ROUNDS", "")
	t.Setenv("LOG_LEVEL", "")

	path := writeConfig(t, `rounds: 250
timeout: 30s
log:
  level: debug
  format: text
output:
  path: out.csv.sz
  compress: true
`)
	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, 250, cfg.Rounds)
	assert.Equal(t, 30*time.Second, cfg.Timeout)
	assert.Equal(t, logging.DebugLevel, cfg.LogLevel())
	assert.Equal(t, "text", cfg.Log.Format)
	assert.Equal(t, "csv", cfg.Output.Format, "unset keys keep their default")
	assert.True(t, cfg.Output.Compress)
}

func TestLoadConfig_EnvOverrides(t *testing.T) {
	t.Setenv("STOCKFLOW_ROUNDS", "42")
	t.Setenv("LOG_LEVEL", "WARN")

	cfg, err := LoadConfig(writeConfig(t, "rounds: 5\n"))
	require.NoError(t, err)
	assert.Equal(t, 42, cfg.Rounds)
	assert.Equal(t, "warn", cfg.Log.Level)

	t.Setenv("STOCKFLOW_ROUNDS", "many")
	_, err = LoadConfig("")
	assert.ErrorContains(t, err, "STOCKFLOW_ROUNDS")
}

func TestLoadConfig_ZeroRoundsUseDefault(t *testing.T) {
	t.Setenv("STOCKFLOW_ROUNDS", "")
	t.Setenv("LOG_LEVEL", "")

	cfg, err := LoadConfig(writeConfig(t, "rounds: 0\nlog:\n  level: \"\"\n"))
	require.NoError(t, err)
	assert.Equal(t, DefaultRounds, cfg.Rounds)
	assert.Equal(t, DefaultLogLevel, cfg.Log.Level)
}

func TestLoadConfig_Errors(t *testing.T) {
	t.Setenv("STOCKFLOW_ROUNDS", "")
	t.Setenv("LOG_LEVEL", "")

	_, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.ErrorContains(t, err, "failed to read config")

	_, err = LoadConfig(writeConfig(t, "rounds: [1, 2]\n"))
	assert.ErrorContains(t, err, "failed to parse config")
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"defaults", func(*Config) {}, ""},
		{"zero rounds", func(c *Config) { c.Rounds = 0 }, "rounds: must be at least 1"},
		{"too many rounds", func(c *Config) { c.Rounds = 10_000_001 }, "rounds: must not exceed"},
		{"negative timeout", func(c *Config) { c.Timeout = -time.Second }, "timeout"},
		{"huge timeout", func(c *Config) { c.Timeout = 48 * time.Hour }, "Config.Timeout"},
		{"bad level", func(c *Config) { c.Log.Level = "loud" }, "log.level: must be one of"},
		{"bad format", func(c *Config) { c.Log.Format = "xml" }, "log.format"},
		{"bad output", func(c *Config) { c.Output.Format = "parquet" }, "output.format"},
		{"compress without path", func(c *Config) { c.Output.Compress = true }, "Config.Output.Path"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			assert.ErrorContains(t, err, tt.wantErr)
		})
	}
}

func TestConfig_NewLogger(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Log.Level = "error"
	logger, err := cfg.NewLogger()
	require.NoError(t, err)
	assert.Equal(t, logging.ErrorLevel, logger.GetLevel())
}

func TestNew_RejectsInvalidConfig(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Rounds = -1
	_, err := New(cfg)
	assert.Error(t, err)
}
