// Package config holds the configuration of a txledger run. Values can be
// set programmatically or loaded from YAML files, either at the top level
// or under an "extensions.txledger" or "txledger" key.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"go.uber.org/zap/zapcore"
	"gopkg.in/yaml.v3"

	"github.com/xraph/txledger"
	"github.com/xraph/txledger/plugin"
)

// Log formats.
const (
	FormatJSON    = "json"
	FormatConsole = "console"
)

// Config holds the engine and runtime configuration.
type Config struct {
	// LockPolicy is "funding" (locked accounts reject deposits and
	// withdrawals) or "all" (locked accounts reject everything).
	LockPolicy string `json:"lock_policy" mapstructure:"lock_policy" yaml:"lock_policy"`

	// LogLevel is one of debug, info, warn, error (default: info).
	LogLevel string `json:"log_level" mapstructure:"log_level" yaml:"log_level"`

	// LogFormat is "json" or "console" (default: console).
	LogFormat string `json:"log_format" mapstructure:"log_format" yaml:"log_format"`

	// HookTimeout bounds each plugin hook call (default: 5s).
	HookTimeout time.Duration `json:"hook_timeout" mapstructure:"hook_timeout" yaml:"hook_timeout"`

	// PipelineBuffer is the number of decoded operations the ingest
	// pipeline may queue ahead of the engine (default: 256).
	PipelineBuffer int `json:"pipeline_buffer" mapstructure:"pipeline_buffer" yaml:"pipeline_buffer"`

	// Metrics enables the OpenTelemetry metrics extension.
	Metrics bool `json:"metrics" mapstructure:"metrics" yaml:"metrics"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		LockPolicy:     txledger.LockFundingOnly.String(),
		LogLevel:       "info",
		LogFormat:      FormatConsole,
		HookTimeout:    plugin.DefaultTimeout,
		PipelineBuffer: 256,
	}
}

// Load reads a YAML config file. Missing fields are left zero; call
// MergeWithDefaults or Merge to fill them.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("config: read %s: %w", path, err)
	}

	cfg, err := Parse(data)
	if err != nil {
		return Config{}, fmt.Errorf("config: %s: %w", path, err)
	}
	return cfg, nil
}

// Parse decodes YAML config. A namespaced "extensions.txledger" section
// wins over a "txledger" section, which wins over top-level keys.
func Parse(data []byte) (Config, error) {
	var doc struct {
		Extensions struct {
			TxLedger *Config `yaml:"txledger"`
		} `yaml:"extensions"`
		TxLedger *Config `yaml:"txledger"`
	}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return Config{}, fmt.Errorf("parse yaml: %w", err)
	}

	switch {
	case doc.Extensions.TxLedger != nil:
		return *doc.Extensions.TxLedger, nil
	case doc.TxLedger != nil:
		return *doc.TxLedger, nil
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("parse yaml: %w", err)
	}
	return cfg, nil
}

// MergeWithDefaults fills zero-valued fields with defaults.
func MergeWithDefaults(cfg Config) Config {
	defaults := DefaultConfig()
	if cfg.LockPolicy == "" {
		cfg.LockPolicy = defaults.LockPolicy
	}
	if cfg.LogLevel == "" {
		cfg.LogLevel = defaults.LogLevel
	}
	if cfg.LogFormat == "" {
		cfg.LogFormat = defaults.LogFormat
	}
	if cfg.HookTimeout == 0 {
		cfg.HookTimeout = defaults.HookTimeout
	}
	if cfg.PipelineBuffer == 0 {
		cfg.PipelineBuffer = defaults.PipelineBuffer
	}
	return cfg
}

// Merge overlays override on base: every non-zero field of override wins.
// The result is filled with defaults.
func Merge(base, override Config) Config {
	if override.LockPolicy != "" {
		base.LockPolicy = override.LockPolicy
	}
	if override.LogLevel != "" {
		base.LogLevel = override.LogLevel
	}
	if override.LogFormat != "" {
		base.LogFormat = override.LogFormat
	}
	if override.HookTimeout != 0 {
		base.HookTimeout = override.HookTimeout
	}
	if override.PipelineBuffer != 0 {
		base.PipelineBuffer = override.PipelineBuffer
	}
	if override.Metrics {
		base.Metrics = true
	}
	return MergeWithDefaults(base)
}

// Validate checks every field and reports all problems at once.
func (c Config) Validate() error {
	var errs txledger.MultiError

	if _, err := txledger.ParseLockPolicy(c.LockPolicy); err != nil {
		errs.Add(txledger.ValidationError{Field: "lock_policy", Message: fmt.Sprintf("must be funding or all, got %q", c.LockPolicy)})
	}
	if _, err := c.Level(); err != nil {
		errs.Add(txledger.ValidationError{Field: "log_level", Message: err.Error()})
	}
	switch strings.ToLower(c.LogFormat) {
	case FormatJSON, FormatConsole:
	default:
		errs.Add(txledger.ValidationError{Field: "log_format", Message: fmt.Sprintf("must be json or console, got %q", c.LogFormat)})
	}
	if c.HookTimeout < 0 {
		errs.Add(txledger.ValidationError{Field: "hook_timeout", Message: "must not be negative"})
	}
	if c.PipelineBuffer < 0 {
		errs.Add(txledger.ValidationError{Field: "pipeline_buffer", Message: "must not be negative"})
	}

	return errs.ErrorOrNil()
}

// Level parses LogLevel.
func (c Config) Level() (zapcore.Level, error) {
	lvl, err := zapcore.ParseLevel(c.LogLevel)
	if err != nil {
		return zapcore.InfoLevel, fmt.Errorf("unknown level %q", c.LogLevel)
	}
	return lvl, nil
}

// Options turns the engine-related fields into txledger options.
// It assumes Validate has passed.
func (c Config) Options() []txledger.Option {
	opts := make([]txledger.Option, 0, 2)

	policy, err := txledger.ParseLockPolicy(c.LockPolicy)
	if err == nil {
		opts = append(opts, txledger.WithLockPolicy(policy))
	}
	if c.HookTimeout > 0 {
		opts = append(opts, txledger.WithHookTimeout(c.HookTimeout))
	}
	return opts
}

// IsValidationError reports whether err carries a config ValidationError.
func IsValidationError(err error) bool {
	var ve txledger.ValidationError
	return errors.As(err, &ve)
}
