package runner

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/dd0wney/cluso-stockflow/pkg/logging"
	"github.com/dd0wney/cluso-stockflow/pkg/validation"
)

// Config describes a simulation run
type Config struct {
	// Rounds is how many rounds to compute after the initial state
	Rounds int `yaml:"rounds" validate:"min=1,max=10000000"`

	// Timeout bounds the whole run; zero means no limit
	Timeout time.Duration `yaml:"timeout" validate:"gte=0"`

	Log         LogConfig    `yaml:"log"`
	Output      OutputConfig `yaml:"output"`
	MetricsFile string       `yaml:"metricsFile,omitempty"`
}

// LogConfig selects the logger
type LogConfig struct {
	Level  string `yaml:"level" validate:"oneof=debug info warn warning error"`
	Format string `yaml:"format" validate:"oneof=json text"`
}

// OutputConfig selects where trajectories are written
type OutputConfig struct {
	// Path of the trajectory file; empty disables export
	Path     string `yaml:"path,omitempty"`
	Format   string `yaml:"format" validate:"oneof=csv"`
	Compress bool   `yaml:"compress,omitempty"`
}

// Default configuration values
const (
	DefaultRounds       = 10
	DefaultLogLevel     = "info"
	DefaultLogFormat    = "json"
	DefaultOutputFormat = "csv"
	MaxTimeout          = 24 * time.Hour
)

// DefaultConfig returns the configuration used when no file is given
func DefaultConfig() *Config {
	return &Config{
		Rounds: DefaultRounds,
		Log: LogConfig{
			Level:  DefaultLogLevel,
			Format: DefaultLogFormat,
		},
		Output: OutputConfig{
			Format: DefaultOutputFormat,
		},
	}
}

// LoadConfig reads a YAML run configuration. Missing keys keep their
// defaults; STOCKFLOW_ROUNDS and LOG_LEVEL override the file.
func LoadConfig(path string) (*Config, error) {
	cfg := DefaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	cfg.fillDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() error {
	if v := os.Getenv("STOCKFLOW_ROUNDS"); v != "" {
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return fmt.Errorf("invalid STOCKFLOW_ROUNDS %q: %w", v, err)
		}
		c.Rounds = n
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		c.Log.Level = strings.ToLower(strings.TrimSpace(v))
	}
	return nil
}

func (c *Config) fillDefaults() {
	c.Rounds = validation.DefaultOrInt(c.Rounds, DefaultRounds)
	c.Log.Level = validation.DefaultOr(c.Log.Level, DefaultLogLevel)
	c.Log.Format = validation.DefaultOr(c.Log.Format, DefaultLogFormat)
	c.Output.Format = validation.DefaultOr(c.Output.Format, DefaultOutputFormat)
}

// Validate checks the configuration and reports every problem found
func (c *Config) Validate() error {
	if err := validation.Struct(c); err != nil {
		return fmt.Errorf("invalid run config: %w", err)
	}

	return validation.NewConfigValidator("Config").
		Custom("Rounds", func() error { return validation.ValidateRounds(c.Rounds) }).
		MaxDuration("Timeout", c.Timeout, MaxTimeout).
		When(c.Output.Compress, func(cv *validation.ConfigValidator) {
			cv.Required("Output.Path", c.Output.Path)
		}).
		Validate()
}

// LogLevel returns the configured level
func (c *Config) LogLevel() logging.Level {
	return logging.ParseLevel(c.Log.Level)
}

// NewLogger builds the logger the configuration asks for
func (c *Config) NewLogger() (logging.Logger, error) {
	format, err := logging.ParseFormat(c.Log.Format)
	if err != nil {
		return nil, err
	}
	return logging.New(format, os.Stderr, c.LogLevel()), nil
}
