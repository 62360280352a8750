// Package config provides configuration loading for lessonbank.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/rawbytes"
	"github.com/knadh/koanf/v2"
)

// envPrefix namespaces the environment variables that override file config.
const envPrefix = "LESSONBANK_"

// Config is the full lessonbank configuration.
type Config struct {
	Paths     PathsConfig     `koanf:"paths"`
	Preflight PreflightConfig `koanf:"preflight"`
	Logging   LoggingConfig   `koanf:"logging"`
}

// PathsConfig locates the corpus and its derived artifacts.
type PathsConfig struct {
	// CorpusRoot is the folder holding cases/, patterns/ and principles/.
	CorpusRoot string `koanf:"corpus_root"`

	// Index is where the index artifact is written and read.
	Index string `koanf:"index"`

	// LegacyLessons is the flat heading-list markdown file used as the last
	// preflight fallback tier.
	LegacyLessons string `koanf:"legacy_lessons"`

	// ArtifactDir receives timestamped preflight selection artifacts.
	ArtifactDir string `koanf:"artifact_dir"`
}

// PreflightConfig holds the default selection limits. Flags override these
// per invocation.
type PreflightConfig struct {
	Top           int `koanf:"top"`
	PrinciplesMax int `koanf:"principles_max"`
	PatternsMax   int `koanf:"patterns_max"`
	CasesMax      int `koanf:"cases_max"`
}

// LoggingConfig controls log output.
type LoggingConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
}

// Load reads configuration from a YAML file, then overrides with
// environment variables.
//
// Precedence (highest to lowest):
//  1. Environment variables (LESSONBANK_PREFLIGHT_TOP, LESSONBANK_PATHS_INDEX, ...)
//  2. YAML config file
//  3. Hardcoded defaults
//
// A missing config file is not an error; defaults apply. Environment
// variables map as LESSONBANK_<SECTION>_<FIELD_NAME> -> section.field_name.
func Load(configPath string) (*Config, error) {
	k := koanf.New(".")

	if configPath != "" {
		content, err := os.ReadFile(configPath)
		if err != nil {
			if !os.IsNotExist(err) {
				return nil, fmt.Errorf("reading config file %s: %w", configPath, err)
			}
		} else if err := k.Load(rawbytes.Provider(content), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("parsing config file %s: %w", configPath, err)
		}
	}

	// Split on the first underscore only: section, then field_name.
	if err := k.Load(env.Provider(envPrefix, ".", func(s string) string {
		lower := strings.ToLower(strings.TrimPrefix(s, envPrefix))
		parts := strings.SplitN(lower, "_", 2)
		if len(parts) == 1 {
			return lower
		}
		return parts[0] + "." + parts[1]
	}), nil); err != nil {
		return nil, fmt.Errorf("loading environment variables: %w", err)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	applyDefaults(&cfg)
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return &cfg, nil
}

// applyDefaults sets default values for missing configuration fields.
func applyDefaults(cfg *Config) {
	if cfg.Paths.CorpusRoot == "" {
		cfg.Paths.CorpusRoot = "lessons"
	}
	if cfg.Paths.Index == "" {
		cfg.Paths.Index = filepath.Join(cfg.Paths.CorpusRoot, "index.json")
	}
	if cfg.Paths.LegacyLessons == "" {
		cfg.Paths.LegacyLessons = "LESSONS.md"
	}
	if cfg.Paths.ArtifactDir == "" {
		cfg.Paths.ArtifactDir = filepath.Join("logs", "agent", "preflight")
	}

	if cfg.Preflight.Top == 0 {
		cfg.Preflight.Top = 5
	}
	if cfg.Preflight.PrinciplesMax == 0 {
		cfg.Preflight.PrinciplesMax = 2
	}
	if cfg.Preflight.PatternsMax == 0 {
		cfg.Preflight.PatternsMax = 3
	}
	if cfg.Preflight.CasesMax == 0 {
		cfg.Preflight.CasesMax = 3
	}

	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "console"
	}
}

// Validate checks the configuration for invalid values.
func (c *Config) Validate() error {
	if c.Preflight.Top < 1 {
		return fmt.Errorf("preflight.top must be >= 1, got %d", c.Preflight.Top)
	}
	if c.Preflight.PrinciplesMax < 0 || c.Preflight.PatternsMax < 0 || c.Preflight.CasesMax < 0 {
		return fmt.Errorf("preflight quotas must be >= 0")
	}
	switch c.Logging.Format {
	case "json", "console":
	default:
		return fmt.Errorf("logging.format must be json or console, got %q", c.Logging.Format)
	}
	return nil
}
