// Package config handles TOML configuration loading with environment
// variable substitution.
package config

import (
	"fmt"
	"os"
	"regexp"

	"github.com/BurntSushi/toml"
)

// Config is the root configuration structure.
type Config struct {
	Database  DatabaseConfig  `toml:"database"`
	Libraries LibrariesConfig `toml:"libraries"`
	Providers ProvidersConfig `toml:"providers"`
	Scanner   ScannerConfig   `toml:"scanner"`
	Log       LogConfig       `toml:"log"`
}

type DatabaseConfig struct {
	Path string `toml:"path"`
}

type LibrariesConfig struct {
	Movies LibraryConfig `toml:"movies"`
	Series LibraryConfig `toml:"series"`
}

type LibraryConfig struct {
	Root string `toml:"root"`
}

// ProvidersConfig seeds the per-series merge policy for newly added
// content and configures the metadata sources.
type ProvidersConfig struct {
	Canonical string                  `toml:"canonical"`
	Fallback  string                  `toml:"fallback"`
	Sources   map[string]SourceConfig `toml:"sources"`
}

// SourceConfig points a named provider at its document directory.
type SourceConfig struct {
	Root string `toml:"root"`
}

type ScannerConfig struct {
	Workers int `toml:"workers"`
}

type LogConfig struct {
	Level string `toml:"level"`
}

// Load reads and parses the configuration file, substituting ${VAR}
// references from the environment and filling defaults.
func Load(path string) (*Config, error) {
	cfg, _, err := load(path)
	return cfg, err
}

// LoadValidated loads the configuration and aggregates unresolved
// environment variables and validation failures into a *ConfigError.
func LoadValidated(path string) (*Config, error) {
	cfg, missing, err := load(path)
	if err != nil {
		return nil, err
	}

	cerr := &ConfigError{Path: path, Missing: missing, Errors: cfg.Validate()}
	if cerr.HasErrors() {
		return cfg, cerr
	}
	return cfg, nil
}

func load(path string) (*Config, []string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, fmt.Errorf("reading config: %w", err)
	}

	content := substituteEnvVars(string(data))

	var cfg Config
	if _, err := toml.Decode(content, &cfg); err != nil {
		return nil, nil, fmt.Errorf("parsing config: %w", err)
	}
	cfg.applyDefaults()
	return &cfg, unresolvedVars(content), nil
}

func (c *Config) applyDefaults() {
	if c.Database.Path == "" {
		c.Database.Path = "./data/catarr.db"
	}
	if c.Providers.Canonical == "" {
		c.Providers.Canonical = "tvdb"
	}
	if c.Providers.Fallback == "" {
		c.Providers.Fallback = "tmdb"
	}
	if c.Scanner.Workers == 0 {
		c.Scanner.Workers = 4
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
}

// substituteEnvVars replaces ${VAR_NAME} with environment variable
// values, leaving unresolved references untouched.
var envVarPattern = regexp.MustCompile(`\$\{([^}]+)\}`)

func substituteEnvVars(content string) string {
	return envVarPattern.ReplaceAllStringFunc(content, func(match string) string {
		varName := match[2 : len(match)-1]
		if value, ok := os.LookupEnv(varName); ok {
			return value
		}
		return match
	})
}

// unresolvedVars lists ${VAR} references that survived substitution.
func unresolvedVars(content string) []string {
	var missing []string
	seen := make(map[string]bool)
	for _, m := range envVarPattern.FindAllStringSubmatch(content, -1) {
		if !seen[m[1]] {
			seen[m[1]] = true
			missing = append(missing, m[1])
		}
	}
	return missing
}
