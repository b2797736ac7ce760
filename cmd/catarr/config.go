package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/catarr/catarr/internal/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Configuration management",
}

var configTestCmd = &cobra.Command{
	Use:   "test [path]",
	Short: "Validate configuration file",
	Long:  "Validates catarr.toml syntax, required fields, and environment variable substitution.",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runConfigTest,
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configTestCmd)
}

func runConfigTest(cmd *cobra.Command, args []string) error {
	path := configPath
	if len(args) > 0 {
		path = args[0]
	}
	if path == "" {
		discovered, err := config.Discover()
		if err != nil {
			return err
		}
		path = discovered
	}

	fmt.Printf("Validating %s...\n\n", path)

	cfg, err := config.LoadValidated(path)
	if err != nil {
		var cerr *config.ConfigError
		if errors.As(err, &cerr) {
			printConfigErrors(cerr)
			return fmt.Errorf("configuration invalid")
		}
		return fmt.Errorf("failed to load config: %w", err)
	}

	printConfigSummary(cfg)
	fmt.Println("\nConfiguration valid!")
	return nil
}

func printConfigErrors(e *config.ConfigError) {
	if len(e.Missing) > 0 {
		fmt.Println("Missing environment variables:")
		for _, m := range e.Missing {
			fmt.Printf("  - %s\n", m)
		}
		fmt.Println()
	}

	if len(e.Errors) > 0 {
		fmt.Println("Validation errors:")
		for _, err := range e.Errors {
			fmt.Printf("  - %s\n", err)
		}
		fmt.Println()
	}
}

func printConfigSummary(cfg *config.Config) {
	fmt.Println("Configuration Summary:")
	fmt.Printf("  Database:   %s\n", cfg.Database.Path)
	fmt.Printf("  Log level:  %s\n", cfg.Log.Level)

	libs := []string{}
	if cfg.Libraries.Movies.Root != "" {
		libs = append(libs, "movies")
	}
	if cfg.Libraries.Series.Root != "" {
		libs = append(libs, "series")
	}
	fmt.Printf("  Libraries:  %s\n", strings.Join(libs, ", "))

	fmt.Printf("  Providers:  canonical=%s fallback=%s\n", cfg.Providers.Canonical, cfg.Providers.Fallback)
	sourceNames := make([]string, 0, len(cfg.Providers.Sources))
	for name := range cfg.Providers.Sources {
		sourceNames = append(sourceNames, name)
	}
	if len(sourceNames) > 0 {
		fmt.Printf("  Sources:    %s\n", strings.Join(sourceNames, ", "))
	}
	fmt.Printf("  Scanner:    %d workers\n", cfg.Scanner.Workers)
}
