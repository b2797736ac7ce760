package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/catarr/catarr/internal/catalog"
	"github.com/catarr/catarr/internal/completeness"
)

var (
	statusHideMissing bool
	statusHideFuture  bool
	statusHideEmpty   bool
)

var statusCmd = &cobra.Command{
	Use:   "status <content-id>",
	Short: "Show collection completeness for a series",
	Args:  cobra.ExactArgs(1),
	RunE:  runStatus,
}

func init() {
	statusCmd.Flags().BoolVar(&statusHideMissing, "hide-missing", false, "Hide missing episodes")
	statusCmd.Flags().BoolVar(&statusHideFuture, "hide-future", false, "Hide unaired episodes")
	statusCmd.Flags().BoolVar(&statusHideEmpty, "hide-empty", false, "Hide seasons with nothing present")
	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, args []string) error {
	id, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		return fmt.Errorf("content id must be numeric: %s", args[0])
	}

	a, err := openApp()
	if err != nil {
		return err
	}
	defer a.Close()

	content, err := a.store.GetContent(id)
	if err != nil {
		return err
	}
	expected, _, err := a.store.ListExpected(catalog.ExpectedFilter{ContentID: &id})
	if err != nil {
		return err
	}
	mapped, err := a.store.PresentKeys(id)
	if err != nil {
		return err
	}

	report := completeness.Compute(expected, mapped, time.Now())
	report = completeness.Filter(report, completeness.DisplayPolicy{
		HideMissing: statusHideMissing,
		HideFuture:  statusHideFuture,
		HideEmpty:   statusHideEmpty,
	})

	if jsonOutput {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(report)
	}

	title := content.Title
	if content.Year > 0 {
		title = fmt.Sprintf("%s (%d)", content.Title, content.Year)
	}
	present, missing, future := report.Totals()
	fmt.Printf("%s: %d present, %d missing, %d future\n", title, present, missing, future)
	for _, season := range report.Seasons {
		fmt.Printf("\nSeason %d\n", season.Season)
		for _, ep := range season.Episodes {
			marker := " "
			switch ep.Status {
			case completeness.Present:
				marker = "x"
			case completeness.Future:
				marker = "~"
			}
			line := fmt.Sprintf("  [%s] E%02d", marker, ep.Episode)
			if ep.Title != "" {
				line += " " + ep.Title
			}
			if ep.AirDate != nil {
				line += fmt.Sprintf(" (%s)", ep.AirDate.Format("2006-01-02"))
			}
			fmt.Println(line)
		}
	}
	return nil
}
