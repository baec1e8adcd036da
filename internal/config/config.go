package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/liamcoop/scid/internal/logger"
	"github.com/liamcoop/scid/sandcontrol"
)

// Config holds all scid configuration
type Config struct {
	Logging LoggingConfig `yaml:"logging"`
	Engine  EngineConfig  `yaml:"engine"`
	Server  ServerConfig  `yaml:"server"`
}

// LoggingConfig configures internal/logger
type LoggingConfig struct {
	Level      string `yaml:"level"`
	Format     string `yaml:"format"` // json, text
	SampleRate int    `yaml:"sample_rate"`
}

// EngineConfig selects the decision procedure
type EngineConfig struct {
	Variant                 string `yaml:"variant"` // A, B
	EnvironmentalFromImpact bool   `yaml:"environmental_from_impact"`

	// RulesPath points at a YAML rule file. When set, verdicts come from
	// the CEL rule engine instead of the built-in thresholds.
	RulesPath string `yaml:"rules_path"`
}

// ServerConfig configures `scid serve`
type ServerConfig struct {
	Addr            string `yaml:"addr"`
	ReadTimeout     string `yaml:"read_timeout"`
	WriteTimeout    string `yaml:"write_timeout"`
	IdleTimeout     string `yaml:"idle_timeout"`
	ShutdownTimeout string `yaml:"shutdown_timeout"`
}

// DefaultConfig returns the built-in configuration
func DefaultConfig() *Config {
	return &Config{
		Logging: LoggingConfig{
			Level:      "info",
			Format:     logger.FormatJSON,
			SampleRate: 1,
		},
		Engine: EngineConfig{
			Variant: string(sandcontrol.VariantA),
		},
		Server: ServerConfig{
			Addr:            ":8080",
			ReadTimeout:     "15s",
			WriteTimeout:    "15s",
			IdleTimeout:     "60s",
			ShutdownTimeout: "30s",
		},
	}
}

// Load reads configuration from a YAML file, falling back to defaults when
// the file does not exist, then applies environment overrides
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case os.IsNotExist(err):
		case err != nil:
			return nil, fmt.Errorf("failed to read config: %w", err)
		default:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("failed to parse config: %w", err)
			}
		}
	}

	cfg.applyEnvOverrides()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Save writes the configuration as YAML
func (c *Config) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

func (c *Config) applyEnvOverrides() {
	if v := os.Getenv("SCID_LOG_LEVEL"); v != "" {
		c.Logging.Level = v
	}
	if v := os.Getenv("SCID_LOG_FORMAT"); v != "" {
		c.Logging.Format = v
	}
	if v := os.Getenv("SCID_ERROR_SAMPLE_RATE"); v != "" {
		if rate, err := strconv.Atoi(v); err == nil && rate > 0 {
			c.Logging.SampleRate = rate
		}
	}
	if v := os.Getenv("SCID_VARIANT"); v != "" {
		c.Engine.Variant = v
	}
	if v := os.Getenv("SCID_RULES_PATH"); v != "" {
		c.Engine.RulesPath = v
	}
	if v := os.Getenv("PORT"); v != "" {
		c.Server.Addr = ":" + strings.TrimPrefix(v, ":")
	}
}

// Validate checks enum fields and durations
func (c *Config) Validate() error {
	if _, err := logger.ParseLevel(c.Logging.Level); err != nil {
		return fmt.Errorf("logging.level: %w", err)
	}
	switch c.Logging.Format {
	case "", logger.FormatJSON, logger.FormatText:
	default:
		return fmt.Errorf("logging.format: unknown format %q (must be json or text)", c.Logging.Format)
	}
	if _, err := sandcontrol.ParseVariant(c.Engine.Variant); err != nil {
		return fmt.Errorf("engine.variant: %w", err)
	}

	durations := map[string]string{
		"server.read_timeout":     c.Server.ReadTimeout,
		"server.write_timeout":    c.Server.WriteTimeout,
		"server.idle_timeout":     c.Server.IdleTimeout,
		"server.shutdown_timeout": c.Server.ShutdownTimeout,
	}
	for name, value := range durations {
		if value == "" {
			continue
		}
		if _, err := time.ParseDuration(value); err != nil {
			return fmt.Errorf("%s: %w", name, err)
		}
	}
	return nil
}

// Policy returns the engine policy. Call after Validate.
func (c *Config) Policy() sandcontrol.Policy {
	variant, err := sandcontrol.ParseVariant(c.Engine.Variant)
	if err != nil {
		variant = sandcontrol.VariantA
	}
	return sandcontrol.Policy{
		Variant:                 variant,
		EnvironmentalFromImpact: c.Engine.EnvironmentalFromImpact,
	}
}

// ApplyLogging configures internal/logger from the logging section
func (c *Config) ApplyLogging() error {
	level, err := logger.ParseLevel(c.Logging.Level)
	if err != nil {
		return err
	}
	if err := logger.Configure(os.Stderr, c.Logging.Format); err != nil {
		return err
	}
	logger.SetLevel(level)
	logger.SetErrorSampleRate(c.Logging.SampleRate)
	return nil
}

func parseDuration(s string, def time.Duration) time.Duration {
	if s == "" {
		return def
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return def
	}
	return d
}

func (s ServerConfig) GetReadTimeout() time.Duration { return parseDuration(s.ReadTimeout, 15*time.Second) }
func (s ServerConfig) GetWriteTimeout() time.Duration { return parseDuration(s.WriteTimeout, 15*time.Second) }
func (s ServerConfig) GetIdleTimeout() time.Duration { return parseDuration(s.IdleTimeout, 60*time.Second) }

func (s ServerConfig) GetShutdownTimeout() time.Duration {
	return parseDuration(s.ShutdownTimeout, 30*time.Second)
}
