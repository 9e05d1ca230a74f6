package config

import (
	"os"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	yamlv3 "gopkg.in/yaml.v3"
)

// EnvPrefix marks environment overrides, e.g. ROUTESCORE__SCORING__WORKERS=8
const EnvPrefix = "ROUTESCORE__"

// Scoring modes
const (
	ModeClamped = "clamped"
	ModeLegacy  = "legacy"
)

// Config represents the complete tool configuration
type Config struct {
	Scoring ScoringConfig `yaml:"scoring"`
	Logging LoggingConfig `yaml:"logging"`
}

// ScoringConfig holds route comparison settings. Thresholds are in the
// same planar units as the input coordinates (degrees for lat/lng input).
type ScoringConfig struct {
	Mode            string        `yaml:"mode"`
	MatchThreshold  float64       `yaml:"match_threshold"`
	NearThreshold   float64       `yaml:"near_threshold"`
	Workers         int           `yaml:"workers"`
	CacheTTL        time.Duration `yaml:"cache_ttl"`
	CleanupInterval time.Duration `yaml:"cleanup_interval"`
}

// LoggingConfig holds logger settings
type LoggingConfig struct {
	Development bool `yaml:"development"`
}

// DefaultConfig returns a default configuration
func DefaultConfig() *Config {
	return &Config{
		Scoring: ScoringConfig{
			Mode:            ModeClamped,
			MatchThreshold:  0.0005, // roughly 50m at mid latitudes
			NearThreshold:   0.005,
			Workers:         4,
			CacheTTL:        10 * time.Minute,
			CleanupInterval: time.Minute,
		},
		Logging: LoggingConfig{},
	}
}

// Load reads configuration from an optional YAML file, then applies
// ROUTESCORE__ environment overrides. Missing keys keep their defaults.
func Load(path string) (*Config, error) {
	k := koanf.New(".")

	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, errors.Wrapf(err, "failed to load config file %s", path)
		}
	}

	err := k.Load(env.Provider(EnvPrefix, ".", func(s string) string {
		return strings.ReplaceAll(strings.ToLower(strings.TrimPrefix(s, EnvPrefix)), "__", ".")
	}), nil)
	if err != nil {
		return nil, errors.Wrap(err, "failed to load environment overrides")
	}

	cfg := DefaultConfig()
	if err := k.UnmarshalWithConf("", cfg, koanf.UnmarshalConf{Tag: "yaml"}); err != nil {
		return nil, errors.Wrap(err, "failed to decode config")
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks that the configuration is usable
func (c *Config) Validate() error {
	s := c.Scoring
	switch s.Mode {
	case ModeClamped, ModeLegacy:
	default:
		return errors.WithHintf(
			errors.Newf("unknown scoring mode %q", s.Mode),
			"use %q or %q", ModeClamped, ModeLegacy,
		)
	}

	if s.MatchThreshold < 0 || s.NearThreshold < 0 {
		return errors.New("scoring thresholds must not be negative")
	}
	if s.NearThreshold < s.MatchThreshold {
		return errors.Newf("near_threshold (%g) must be >= match_threshold (%g)", s.NearThreshold, s.MatchThreshold)
	}
	if s.Workers < 1 {
		return errors.Newf("scoring workers must be at least 1, got %d", s.Workers)
	}
	if s.CacheTTL < 0 || s.CleanupInterval < 0 {
		return errors.New("cache durations must not be negative")
	}
	return nil
}

// YAML renders the configuration in the file format Load accepts
func (c *Config) YAML() ([]byte, error) {
	return yamlv3.Marshal(c)
}

// WriteFile writes the configuration to path as YAML
func (c *Config) WriteFile(path string) error {
	data, err := c.YAML()
	if err != nil {
		return errors.Wrap(err, "failed to marshal config")
	}
	return os.WriteFile(path, data, 0o644)
}
