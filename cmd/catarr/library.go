package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/catarr/catarr/internal/catalog"
	"github.com/catarr/catarr/internal/specials"
)

var (
	placeBefore       string
	placeAfter        string
	placeSpecialsOnly bool
)

var libraryCmd = &cobra.Command{
	Use:   "library",
	Short: "Catalog contents",
}

var libraryListCmd = &cobra.Command{
	Use:   "list",
	Short: "List cataloged series and movies",
	Args:  cobra.NoArgs,
	RunE:  runLibraryList,
}

var libraryOrderCmd = &cobra.Command{
	Use:   "order <content-id>",
	Short: "Show the main viewing order, specials interleaved",
	Args:  cobra.ExactArgs(1),
	RunE:  runLibraryOrder,
}

var libraryPlaceCmd = &cobra.Command{
	Use:   "place <content-id> <special-episode>",
	Short: "Set where a special appears in the main order",
	Args:  cobra.ExactArgs(2),
	RunE:  runLibraryPlace,
}

func init() {
	libraryPlaceCmd.Flags().StringVar(&placeBefore, "before", "", "Anchor episode (SxxEyy) the special precedes")
	libraryPlaceCmd.Flags().StringVar(&placeAfter, "after", "", "Anchor episode (SxxEyy) the special follows")
	libraryPlaceCmd.Flags().BoolVar(&placeSpecialsOnly, "specials-only", false, "Keep the special out of the main order")

	libraryCmd.AddCommand(libraryListCmd)
	libraryCmd.AddCommand(libraryOrderCmd)
	libraryCmd.AddCommand(libraryPlaceCmd)
	rootCmd.AddCommand(libraryCmd)
}

func runLibraryList(cmd *cobra.Command, args []string) error {
	a, err := openApp()
	if err != nil {
		return err
	}
	defer a.Close()

	items, total, err := a.store.ListContent(catalog.ContentFilter{})
	if err != nil {
		return err
	}

	if jsonOutput {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(items)
	}

	if total == 0 {
		fmt.Println("catalog is empty")
		return nil
	}
	for _, c := range items {
		year := ""
		if c.Year > 0 {
			year = fmt.Sprintf(" (%d)", c.Year)
		}
		fmt.Printf("#%-5d %-6s %s%s [%s]\n", c.ID, c.Type, c.Title, year, c.Ordering)
	}
	return nil
}

func runLibraryOrder(cmd *cobra.Command, args []string) error {
	id, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		return fmt.Errorf("content id must be numeric: %s", args[0])
	}

	a, err := openApp()
	if err != nil {
		return err
	}
	defer a.Close()

	expected, _, err := a.store.ListExpected(catalog.ExpectedFilter{ContentID: &id})
	if err != nil {
		return err
	}
	rules, err := a.store.ListPlacements(id)
	if err != nil {
		return err
	}

	for _, entry := range specials.MainOrder(expected, rules) {
		marker := ""
		if entry.Special {
			marker = " *"
		}
		fmt.Printf("S%02dE%02d%s %s\n", entry.Key.Season, entry.Key.Episode, marker, entry.Title)
	}
	return nil
}

func runLibraryPlace(cmd *cobra.Command, args []string) error {
	id, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		return fmt.Errorf("content id must be numeric: %s", args[0])
	}
	special, err := strconv.Atoi(args[1])
	if err != nil {
		return fmt.Errorf("special episode must be numeric: %s", args[1])
	}

	a, err := openApp()
	if err != nil {
		return err
	}
	defer a.Close()

	p := catalog.SpecialPlacement{ContentID: id, SpecialEpisode: special}
	switch {
	case placeSpecialsOnly:
		p.Mode = catalog.PlacementSpecialsOnly
	case placeBefore != "":
		p.Mode = catalog.PlacementBefore
		if p.AnchorSeason, p.AnchorEpisode, err = parseEpisodeKey(placeBefore); err != nil {
			return err
		}
	case placeAfter != "":
		p.Mode = catalog.PlacementAfter
		if p.AnchorSeason, p.AnchorEpisode, err = parseEpisodeKey(placeAfter); err != nil {
			return err
		}
	default:
		return fmt.Errorf("one of --before, --after, --specials-only is required")
	}

	if err := a.store.SetPlacement(p); err != nil {
		return err
	}
	fmt.Printf("placed S00E%02d (%s)\n", special, p.Mode)
	return nil
}

// parseEpisodeKey reads an SxxEyy address.
func parseEpisodeKey(s string) (season, episode int, err error) {
	_, err = fmt.Sscanf(strings.ToUpper(s), "S%dE%d", &season, &episode)
	if err != nil {
		return 0, 0, fmt.Errorf("anchor must look like S01E02, got %q", s)
	}
	return season, episode, nil
}
