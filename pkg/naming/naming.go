// Package naming parses media file and directory names into season,
// episode, and date identifiers using an ordered rule cascade.
package naming

// Parsed is the result of running the rule cascade over a single name.
// A zero Episodes slice with a non-nil Tag means the name pinned a series
// identity without carrying episode information (typical for directories).
type Parsed struct {
	Season     int
	Episodes   []int  // one entry for a single episode, several for a span
	Date       string // YYYY-MM-DD, only for date-ordered series
	Tag        *Tag   // external identifier embedded in the name, if any
	Part       int    // 1-based part index, 0 when absent
	Confidence float64
	Rule       string
}

// Multi reports whether the parse covers more than one episode.
func (p Parsed) Multi() bool { return len(p.Episodes) > 1 }

// Episode returns the primary (first) episode number, or 0 when none.
func (p Parsed) Episode() int {
	if len(p.Episodes) == 0 {
		return 0
	}
	return p.Episodes[0]
}

// Tag is an external provider identifier embedded in a name,
// e.g. "Show (2003) [tvdbid-73255]".
type Tag struct {
	Provider string // "tvdb", "tmdb", "imdb"
	Value    string
}

// Context carries per-series knowledge that some rules require.
// The zero Context is valid and simply disables the gated rules.
type Context struct {
	// Seasons maps known season numbers to their episode counts.
	// A count of 0 means the season exists but its length is unknown.
	// The bare-numeric rule only fires when this map resolves the
	// candidate split unambiguously.
	Seasons map[int]int

	// DateOrdered enables the date rule and disables the bare-numeric
	// rule, since date tokens contain digit runs that would satisfy it.
	DateOrdered bool
}

// maxSeason returns the highest known season number, 0 when unknown.
func (c Context) maxSeason() int {
	max := 0
	for s := range c.Seasons {
		if s > max {
			max = s
		}
	}
	return max
}
