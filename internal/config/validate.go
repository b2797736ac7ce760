package config

import (
	"fmt"
	"os"
)

var validLogLevels = map[string]bool{
	"debug": true, "info": true, "warn": true, "error": true, "": true,
}

// Validate checks the configuration for errors.
// Returns a slice of error messages (empty if valid).
func (c *Config) Validate() []string {
	var errs []string

	if c.Libraries.Movies.Root == "" && c.Libraries.Series.Root == "" {
		errs = append(errs, "libraries: at least one library (movies or series) must be configured")
	}

	if !validLogLevels[c.Log.Level] {
		errs = append(errs, fmt.Sprintf("log.level: must be one of debug, info, warn, error; got %q", c.Log.Level))
	}

	if c.Scanner.Workers < 1 || c.Scanner.Workers > 64 {
		errs = append(errs, fmt.Sprintf("scanner.workers: must be between 1 and 64, got %d", c.Scanner.Workers))
	}

	if c.Providers.Canonical != "" && c.Providers.Canonical == c.Providers.Fallback {
		errs = append(errs, "providers: canonical and fallback must differ")
	}
	for name, source := range c.Providers.Sources {
		if source.Root == "" {
			errs = append(errs, fmt.Sprintf("providers.sources.%s.root: required", name))
		}
	}

	// Library path warnings (non-fatal)
	if c.Libraries.Movies.Root != "" {
		if _, err := os.Stat(c.Libraries.Movies.Root); os.IsNotExist(err) {
			errs = append(errs, fmt.Sprintf("libraries.movies.root: warning: directory %q does not exist", c.Libraries.Movies.Root))
		}
	}
	if c.Libraries.Series.Root != "" {
		if _, err := os.Stat(c.Libraries.Series.Root); os.IsNotExist(err) {
			errs = append(errs, fmt.Sprintf("libraries.series.root: warning: directory %q does not exist", c.Libraries.Series.Root))
		}
	}

	return errs
}
