// Package config provides the configuration surface for the colgrid
// CLI. A single Config structure covers the column-type table, backend
// selection and logging; it loads from a YAML file via viper with
// environment overrides.
package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// Backend names accepted by Config.Backend.
const (
	BackendNative = "native"
	BackendArrow  = "arrow"
)

// Config is the unified CLI configuration.
type Config struct {
	// ColumnTypes maps column names to logical type tags, as produced
	// by schema inference.
	ColumnTypes map[string]string `yaml:"column_types" mapstructure:"column_types"`

	// Backend selects the table implementation: "native" or "arrow".
	Backend string `yaml:"backend" mapstructure:"backend"`

	// Partitioned routes processing through the partitioned table and
	// its deferred apply (native backend only).
	Partitioned bool `yaml:"partitioned" mapstructure:"partitioned"`

	// RepoPath locates the project repository; advisory under
	// platform activation.
	RepoPath string `yaml:"repo_path" mapstructure:"repo_path"`

	// Logging controls the structured logger.
	Logging LoggingConfig `yaml:"logging" mapstructure:"logging"`
}

// LoggingConfig controls the zap logger setup.
type LoggingConfig struct {
	Level       string `yaml:"level" mapstructure:"level"`
	Encoding    string `yaml:"encoding" mapstructure:"encoding"`
	Development bool   `yaml:"development" mapstructure:"development"`
}

// Default returns a Config with working defaults.
func Default() *Config {
	return &Config{
		ColumnTypes: map[string]string{},
		Backend:     BackendNative,
		Logging: LoggingConfig{
			Level:    "info",
			Encoding: "json",
		},
	}
}

// Load reads a YAML config file, layering it over the defaults.
// Environment variables prefixed with COLGRID_ override file values.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetEnvPrefix("COLGRID")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config %s: %w", path, err)
	}

	cfg := Default()
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the configuration for internal consistency.
func (c *Config) Validate() error {
	switch c.Backend {
	case BackendNative, BackendArrow:
	default:
		return fmt.Errorf("unknown backend %q (want %q or %q)", c.Backend, BackendNative, BackendArrow)
	}

	if c.Partitioned && c.Backend != BackendNative {
		return fmt.Errorf("partitioned processing requires the %q backend", BackendNative)
	}

	if c.Logging.Level == "" {
		return fmt.Errorf("logging level must not be empty")
	}
	return nil
}
