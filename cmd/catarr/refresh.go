package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/catarr/catarr/internal/canon"
	"github.com/catarr/catarr/internal/provider"
)

var refreshCmd = &cobra.Command{
	Use:   "refresh <content-id>",
	Short: "Refresh the canonical episode list for a series",
	Args:  cobra.ExactArgs(1),
	RunE:  runRefresh,
}

func init() {
	rootCmd.AddCommand(refreshCmd)
}

func runRefresh(cmd *cobra.Command, args []string) error {
	id, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		return fmt.Errorf("content id must be numeric: %s", args[0])
	}

	a, err := openApp()
	if err != nil {
		return err
	}
	defer a.Close()

	sources := make([]provider.Source, 0, len(a.cfg.Providers.Sources))
	for name, src := range a.cfg.Providers.Sources {
		sources = append(sources, provider.NewFileSource(name, src.Root))
	}
	if len(sources) == 0 {
		return fmt.Errorf("no provider sources configured")
	}

	refresher := canon.NewRefresher(a.store, canon.New(a.store, a.bus, a.log), sources, a.log)
	result, err := refresher.RefreshSeries(cmd.Context(), id)
	if err != nil {
		return err
	}

	fmt.Printf("refreshed from %s: %d episodes", result.Provider, result.Episodes)
	if result.Removed > 0 {
		fmt.Printf(", %d removed", result.Removed)
	}
	if len(result.Orphaned) > 0 {
		fmt.Printf(", %d orphaned mappings", len(result.Orphaned))
	}
	fmt.Println()
	if result.Mismatch {
		fmt.Println("providers disagree on numbering; see the attention queue")
	}
	return nil
}
