package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/catarr/catarr/internal/mapping"
	"github.com/catarr/catarr/internal/resolve"
	"github.com/catarr/catarr/internal/scanner"
)

var scanNoProbe bool

var scanCmd = &cobra.Command{
	Use:   "scan",
	Short: "Scan configured library roots and identify files",
	Args:  cobra.NoArgs,
	RunE:  runScan,
}

func init() {
	scanCmd.Flags().BoolVar(&scanNoProbe, "no-probe", false, "Skip ffprobe metadata extraction")
	rootCmd.AddCommand(scanCmd)
}

func runScan(cmd *cobra.Command, args []string) error {
	a, err := openApp()
	if err != nil {
		return err
	}
	defer a.Close()

	var probe scanner.Prober
	if !scanNoProbe {
		probe = scanner.FFProbe{}
	}
	s := scanner.New(
		a.store,
		resolve.New(a.store, a.log),
		mapping.New(a.store, a.bus, a.log),
		a.bus,
		probe,
		scanner.Options{
			Workers:   a.cfg.Scanner.Workers,
			Canonical: a.cfg.Providers.Canonical,
			Fallback:  a.cfg.Providers.Fallback,
		},
		a.log,
	)

	ctx := cmd.Context()
	if root := a.cfg.Libraries.Series.Root; root != "" {
		sum, err := s.ScanSeries(ctx, root)
		if err != nil {
			return fmt.Errorf("scan series: %w", err)
		}
		printSummary("series", sum)
	}
	if root := a.cfg.Libraries.Movies.Root; root != "" {
		sum, err := s.ScanFiles(ctx, root)
		if err != nil {
			return fmt.Errorf("scan movies: %w", err)
		}
		printSummary("movies", sum)
	}
	return nil
}

func printSummary(label string, sum scanner.Summary) {
	fmt.Printf("%s: %d files, %d identified, %d unmapped", label, sum.Files, sum.Identified, sum.Unmapped)
	if sum.NewContent > 0 {
		fmt.Printf(", %d new", sum.NewContent)
	}
	fmt.Println()
}
