package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// DefaultPath returns the XDG-compliant default config path.
func DefaultPath() string {
	configHome := os.Getenv("XDG_CONFIG_HOME")
	if configHome == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "./catarr.toml"
		}
		configHome = filepath.Join(home, ".config")
	}
	return filepath.Join(configHome, "catarr", "catarr.toml")
}

// Discover finds the config file using the standard search order:
//  1. CATARR_CONFIG environment variable
//  2. ./catarr.toml (current directory)
//  3. $XDG_CONFIG_HOME/catarr/catarr.toml
//  4. /etc/catarr/catarr.toml
func Discover() (string, error) {
	if envPath := os.Getenv("CATARR_CONFIG"); envPath != "" {
		if _, err := os.Stat(envPath); err != nil {
			return "", fmt.Errorf("CATARR_CONFIG=%s: %w", envPath, err)
		}
		return envPath, nil
	}

	paths := []string{
		"./catarr.toml",
		DefaultPath(),
		"/etc/catarr/catarr.toml",
	}
	for _, p := range paths {
		if _, err := os.Stat(p); err == nil {
			return p, nil
		}
	}

	return "", fmt.Errorf("config not found, checked: %s", strings.Join(paths, ", "))
}
