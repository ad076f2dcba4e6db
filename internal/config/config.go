// Package config loads ripple's YAML configuration.
//
// Values are layered: built-in defaults, then the YAML file (if any), then
// RIPPLE_* environment overrides. The merged result is validated before it is
// returned.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the full ripple configuration.
type Config struct {
	Engine  EngineConfig  `json:"engine" yaml:"engine"`
	Budgets BudgetConfig  `json:"budgets" yaml:"budgets"`
	Index   IndexConfig   `json:"index" yaml:"index"`
	Logging LoggingConfig `json:"logging" yaml:"logging"`
}

// EngineConfig controls the in-memory engine.
type EngineConfig struct {
	// MaxConcurrency bounds in-flight work in batch queries.
	MaxConcurrency int `json:"max_concurrency" yaml:"max_concurrency"`
	// StrictNames rejects ambiguous entity names instead of taking the
	// first candidate.
	StrictNames bool `json:"strict_names" yaml:"strict_names"`
}

// BudgetConfig holds the latency contract for each query class. A zero
// budget disables the check for that class.
type BudgetConfig struct {
	DirectQuery  time.Duration `json:"direct_query" yaml:"direct_query"`
	BlastRadius  time.Duration `json:"blast_radius" yaml:"blast_radius"`
	WhereDefined time.Duration `json:"where_defined" yaml:"where_defined"`
	ImpactReport time.Duration `json:"impact_report" yaml:"impact_report"`
	Listing      time.Duration `json:"listing" yaml:"listing"`
}

// IndexConfig controls the `ripple index` command.
type IndexConfig struct {
	// Languages restricts extraction. Empty means every supported language.
	Languages []string `json:"languages,omitempty" yaml:"languages,omitempty"`
	// Exclude lists directory names skipped while walking the tree.
	Exclude []string `json:"exclude" yaml:"exclude"`
}

// LoggingConfig controls the CLI's log output.
type LoggingConfig struct {
	Level string `json:"level" yaml:"level"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Engine: EngineConfig{
			MaxConcurrency: 8,
		},
		Budgets: BudgetConfig{
			DirectQuery:  500 * time.Microsecond,
			BlastRadius:  500 * time.Microsecond,
			WhereDefined: 100 * time.Microsecond,
			ImpactReport: time.Millisecond,
			Listing:      50 * time.Millisecond,
		},
		Index: IndexConfig{
			Exclude: []string{".git", ".ripple", "node_modules", "target", "vendor"},
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// Load returns the merged configuration. An empty path or a missing file
// yields the defaults (plus environment overrides).
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		if err := loadFile(path, &cfg); err != nil {
			return cfg, fmt.Errorf("load config file: %w", err)
		}
	}

	loadEnv(&cfg)

	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

func loadFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return err
	}
	return yaml.Unmarshal(data, cfg)
}

func loadEnv(cfg *Config) {
	if v := os.Getenv("RIPPLE_MAX_CONCURRENCY"); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			cfg.Engine.MaxConcurrency = i
		}
	}
	if v := os.Getenv("RIPPLE_STRICT_NAMES"); v != "" {
		cfg.Engine.StrictNames = v == "true" || v == "1"
	}
	if v := os.Getenv("RIPPLE_LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
}

// Validate checks that the configuration is usable.
func (c Config) Validate() error {
	if c.Engine.MaxConcurrency < 1 {
		return fmt.Errorf("engine.max_concurrency must be >= 1")
	}
	budgets := map[string]time.Duration{
		"direct_query":  c.Budgets.DirectQuery,
		"blast_radius":  c.Budgets.BlastRadius,
		"where_defined": c.Budgets.WhereDefined,
		"impact_report": c.Budgets.ImpactReport,
		"listing":       c.Budgets.Listing,
	}
	for name, d := range budgets {
		if d < 0 {
			return fmt.Errorf("budgets.%s must not be negative", name)
		}
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level must be one of debug, info, warn, error (got %q)", c.Logging.Level)
	}
	return nil
}

// Marshal renders cfg as YAML, e.g. for `ripple config` style dumps.
func Marshal(cfg Config) ([]byte, error) {
	return yaml.Marshal(cfg)
}
