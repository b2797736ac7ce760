package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/catarr/catarr/internal/catalog"
)

var attentionResolved bool

var attentionCmd = &cobra.Command{
	Use:   "attention",
	Short: "Needs-attention queue",
}

var attentionListCmd = &cobra.Command{
	Use:   "list",
	Short: "List open attention entries",
	Args:  cobra.NoArgs,
	RunE:  runAttentionList,
}

var attentionResolveCmd = &cobra.Command{
	Use:   "resolve <id>",
	Short: "Mark an attention entry as handled",
	Args:  cobra.ExactArgs(1),
	RunE:  runAttentionResolve,
}

func init() {
	attentionListCmd.Flags().BoolVar(&attentionResolved, "all", false, "Include resolved entries")
	attentionCmd.AddCommand(attentionListCmd)
	attentionCmd.AddCommand(attentionResolveCmd)
	rootCmd.AddCommand(attentionCmd)
}

func runAttentionList(cmd *cobra.Command, args []string) error {
	a, err := openApp()
	if err != nil {
		return err
	}
	defer a.Close()

	items, total, err := a.store.ListAttention(catalog.AttentionFilter{Resolved: attentionResolved})
	if err != nil {
		return err
	}

	if jsonOutput {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(items)
	}

	if total == 0 {
		fmt.Println("nothing needs attention")
		return nil
	}
	for _, item := range items {
		state := "open"
		if item.ResolvedAt != nil {
			state = "resolved"
		}
		fmt.Printf("#%-5d %-18s %-9s %s\n", item.ID, item.Kind, state, item.Detail)
	}
	return nil
}

func runAttentionResolve(cmd *cobra.Command, args []string) error {
	id, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		return fmt.Errorf("attention id must be numeric: %s", args[0])
	}

	a, err := openApp()
	if err != nil {
		return err
	}
	defer a.Close()

	if err := a.store.ResolveAttention(id); err != nil {
		return err
	}
	fmt.Printf("resolved #%d\n", id)
	return nil
}
