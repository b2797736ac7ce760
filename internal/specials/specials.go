// Package specials folds season-0 bonus content into a series' main
// viewing order according to stored placement rules.
package specials

import (
	"sort"

	"github.com/catarr/catarr/internal/catalog"
)

// Entry is one position in the main viewing order.
type Entry struct {
	Key     catalog.EpisodeKey
	Title   string
	Special bool
}

// MainOrder builds the main viewing order: every non-special episode in
// aired order, with specials interleaved where their rule anchors them.
// Specials without a rule, with a specials-season-only rule, or whose
// anchor episode does not exist stay out of the main order entirely.
// Two specials anchored to the same episode and side keep a stable
// order by their own episode number, lower first.
func MainOrder(expected []*catalog.ExpectedEpisode, rules map[int]catalog.SpecialPlacement) []Entry {
	var regular []*catalog.ExpectedEpisode
	specialByNumber := make(map[int]*catalog.ExpectedEpisode)
	for _, row := range expected {
		if row.Season == 0 {
			specialByNumber[row.Episode] = row
		} else {
			regular = append(regular, row)
		}
	}
	sort.Slice(regular, func(i, j int) bool {
		if regular[i].Season != regular[j].Season {
			return regular[i].Season < regular[j].Season
		}
		return regular[i].Episode < regular[j].Episode
	})

	before := make(map[catalog.EpisodeKey][]*catalog.ExpectedEpisode)
	after := make(map[catalog.EpisodeKey][]*catalog.ExpectedEpisode)
	for number, rule := range rules {
		special, ok := specialByNumber[number]
		if !ok {
			continue
		}
		anchor := catalog.EpisodeKey{Season: rule.AnchorSeason, Episode: rule.AnchorEpisode}
		switch rule.Mode {
		case catalog.PlacementBefore:
			before[anchor] = append(before[anchor], special)
		case catalog.PlacementAfter:
			after[anchor] = append(after[anchor], special)
		}
	}
	for _, group := range before {
		sortSpecials(group)
	}
	for _, group := range after {
		sortSpecials(group)
	}

	order := make([]Entry, 0, len(regular)+len(specialByNumber))
	for _, ep := range regular {
		key := ep.Key()
		for _, special := range before[key] {
			order = append(order, specialEntry(special))
		}
		order = append(order, Entry{Key: key, Title: ep.Title})
		for _, special := range after[key] {
			order = append(order, specialEntry(special))
		}
	}
	return order
}

func sortSpecials(group []*catalog.ExpectedEpisode) {
	sort.Slice(group, func(i, j int) bool { return group[i].Episode < group[j].Episode })
}

func specialEntry(row *catalog.ExpectedEpisode) Entry {
	return Entry{Key: row.Key(), Title: row.Title, Special: true}
}
