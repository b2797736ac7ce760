package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/catarr/catarr/pkg/naming"
)

var parseDateOrdered bool

var parseCmd = &cobra.Command{
	Use:   "parse <name>",
	Short: "Parse an episode file name (local, no database needed)",
	Args:  cobra.ExactArgs(1),
	RunE:  runParse,
}

func init() {
	parseCmd.Flags().BoolVar(&parseDateOrdered, "date-ordered", false, "Treat the name as belonging to a date-ordered series")
	rootCmd.AddCommand(parseCmd)
}

// parsedJSON is the JSON-friendly view of a parse result.
type parsedJSON struct {
	Season     int     `json:"season"`
	Episodes   []int   `json:"episodes,omitempty"`
	Date       string  `json:"date,omitempty"`
	Part       int     `json:"part,omitempty"`
	Provider   string  `json:"provider,omitempty"`
	ProviderID string  `json:"provider_id,omitempty"`
	Rule       string  `json:"rule"`
	Confidence float64 `json:"confidence"`
}

func runParse(cmd *cobra.Command, args []string) error {
	name := args[0]
	ctx := naming.Context{DateOrdered: parseDateOrdered}

	parsed, ok := naming.ParsePath(name, ctx)
	if !ok {
		if jsonOutput {
			fmt.Println("{}")
			return nil
		}
		fmt.Fprintf(os.Stderr, "no rule matched: %s\n", name)
		return fmt.Errorf("unparseable name")
	}

	if jsonOutput {
		out := parsedJSON{
			Season:     parsed.Season,
			Episodes:   parsed.Episodes,
			Date:       parsed.Date,
			Part:       parsed.Part,
			Rule:       parsed.Rule,
			Confidence: parsed.Confidence,
		}
		if parsed.Tag != nil {
			out.Provider = parsed.Tag.Provider
			out.ProviderID = parsed.Tag.Value
		}
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(out)
	}

	fmt.Printf("Rule:       %s (confidence %.2f)\n", parsed.Rule, parsed.Confidence)
	if parsed.Date != "" {
		fmt.Printf("Air date:   %s\n", parsed.Date)
	} else if len(parsed.Episodes) > 0 {
		fmt.Printf("Episode:    S%02d%s\n", parsed.Season, formatEpisodes(parsed.Episodes))
	}
	if parsed.Part > 0 {
		fmt.Printf("Part:       %d\n", parsed.Part)
	}
	if parsed.Tag != nil {
		fmt.Printf("Identifier: %s:%s\n", parsed.Tag.Provider, parsed.Tag.Value)
	}
	return nil
}

func formatEpisodes(eps []int) string {
	parts := make([]string, len(eps))
	for i, e := range eps {
		parts[i] = fmt.Sprintf("E%02d", e)
	}
	return strings.Join(parts, "-")
}
