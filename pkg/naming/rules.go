package naming

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

// A rule is one independently testable step of the cascade. Try returns
// the season/episode fields only; Parse fills in confidence and rule name.
type rule struct {
	name       string
	confidence float64
	try        func(name string, ctx Context) (Parsed, bool)
}

// cascade is evaluated in order; the first rule that matches wins.
// Order encodes precedence, so reordering changes behavior.
var cascade = []rule{
	{"sxxeyy", 0.95, trySxxEyy},
	{"NxM", 0.90, tryNxM},
	{"worded", 0.85, tryWorded},
	{"bare-numeric", 0.60, tryBareNumeric},
	{"date", 0.90, tryDate},
}

var (
	sxxeyyRe    = regexp.MustCompile(`(?i)\bs\s?(\d{1,2})\s?e\s?(\d{1,3})((?:-?\s?e?\s?\d{1,3})*)`)
	spanTokenRe = regexp.MustCompile(`(?i)^(-?)\s?(e?)\s?(\d{1,3})`)
	nxmRe       = regexp.MustCompile(`(?i)\b(\d{1,2})\s?x\s?(\d{2,3})(?:-(\d{2,3}))?\b`)
	wordedRe    = regexp.MustCompile(`(?i)\bseason[\s._-]*(\d{1,2})\b.*?\bep(?:isode)?[\s._-]*(\d{1,3})\b`)
	bareRe      = regexp.MustCompile(`(?:^|[\s._([-])(\d{3,4})(?:[\s._)\]-]|$)`)
	dateRe      = regexp.MustCompile(`\b(\d{4})-(\d{2})-(\d{2})\b`)
)

// maxSpan bounds episode-range expansion; anything wider is treated as
// noise (resolutions, bitrates) rather than a real span.
const maxSpan = 30

func trySxxEyy(name string, _ Context) (Parsed, bool) {
	m := sxxeyyRe.FindStringSubmatch(name)
	if m == nil {
		return Parsed{}, false
	}
	season, _ := strconv.Atoi(m[1])
	first, _ := strconv.Atoi(m[2])
	if first == 0 && season == 0 {
		return Parsed{}, false
	}
	episodes := expandSpan(first, m[3])
	return Parsed{Season: season, Episodes: episodes}, true
}

// expandSpan turns the tail after SxxEyy ("E02E03", "-E03", "-03") into an
// episode list. A token must carry a dash (range) or an E marker (list);
// bare trailing numbers are release noise. Malformed tails fall back to
// the single first episode.
func expandSpan(first int, tail string) []int {
	episodes := []int{first}
	for tail != "" {
		m := spanTokenRe.FindStringSubmatch(tail)
		if m == nil {
			return []int{first}
		}
		n, _ := strconv.Atoi(m[3])
		switch {
		case m[1] == "-" && len(episodes) == 1 && n > first:
			// Range form: S01E01-E03 means 1 through 3 inclusive.
			if n-first > maxSpan {
				return []int{first}
			}
			for e := first + 1; e <= n; e++ {
				episodes = append(episodes, e)
			}
		case m[2] != "" && n > episodes[len(episodes)-1]:
			episodes = append(episodes, n)
		default:
			return []int{first}
		}
		tail = tail[len(m[0]):]
	}
	return episodes
}

func tryNxM(name string, _ Context) (Parsed, bool) {
	m := nxmRe.FindStringSubmatch(name)
	if m == nil {
		return Parsed{}, false
	}
	season, _ := strconv.Atoi(m[1])
	first, _ := strconv.Atoi(m[2])
	if season == 0 || first == 0 {
		return Parsed{}, false
	}
	episodes := []int{first}
	if m[3] != "" {
		last, _ := strconv.Atoi(m[3])
		if last > first && last-first <= maxSpan {
			for e := first + 1; e <= last; e++ {
				episodes = append(episodes, e)
			}
		}
	}
	return Parsed{Season: season, Episodes: episodes}, true
}

func tryWorded(name string, _ Context) (Parsed, bool) {
	m := wordedRe.FindStringSubmatch(name)
	if m == nil {
		return Parsed{}, false
	}
	season, _ := strconv.Atoi(m[1])
	episode, _ := strconv.Atoi(m[2])
	if episode == 0 {
		return Parsed{}, false
	}
	return Parsed{Season: season, Episodes: []int{episode}}, true
}

// tryBareNumeric splits a bare digit block like "301" into season 3
// episode 1. It only fires when the caller supplied season knowledge that
// makes the split unambiguous; with no context it never guesses.
func tryBareNumeric(name string, ctx Context) (Parsed, bool) {
	if ctx.DateOrdered || ctx.maxSeason() == 0 {
		return Parsed{}, false
	}
	for _, m := range bareRe.FindAllStringSubmatch(name, -1) {
		n, _ := strconv.Atoi(m[1])
		if n >= 1900 && n <= 2100 {
			continue // almost certainly a year
		}
		season, episode := n/100, n%100
		if season < 1 || episode < 1 || season > ctx.maxSeason() {
			continue
		}
		if count, known := ctx.Seasons[season]; !known || (count > 0 && episode > count) {
			continue
		}
		return Parsed{Season: season, Episodes: []int{episode}}, true
	}
	return Parsed{}, false
}

func tryDate(name string, ctx Context) (Parsed, bool) {
	if !ctx.DateOrdered {
		return Parsed{}, false
	}
	m := dateRe.FindStringSubmatch(name)
	if m == nil {
		return Parsed{}, false
	}
	date := m[1] + "-" + m[2] + "-" + m[3]
	if _, err := time.Parse("2006-01-02", date); err != nil {
		return Parsed{}, false
	}
	return Parsed{Date: date}, true
}

var (
	tagRe  = regexp.MustCompile(`(?i)[\[{](tvdb|tmdb|imdb)(?:id)?[-=]\s?([a-z0-9]+)[\]}]`)
	partRe = regexp.MustCompile(`(?i)[\s._-](?:part|pt)[\s._-]?(\d{1,2})\b`)
)

// ExtractTag finds an external provider identifier in any of the given
// names, checked in order. Returns nil when none is present.
func ExtractTag(names ...string) *Tag {
	for _, name := range names {
		if m := tagRe.FindStringSubmatch(name); m != nil {
			return &Tag{Provider: strings.ToLower(m[1]), Value: strings.ToLower(m[2])}
		}
	}
	return nil
}

// StripTag removes an embedded identifier tag so its digits cannot
// confuse the numeric rules or title extraction.
func StripTag(name string) string {
	return tagRe.ReplaceAllString(name, " ")
}

// extractPart returns the 1-based part index from markers like
// "-part-1" or ".pt2", or 0 when the name has none.
func extractPart(name string) int {
	m := partRe.FindStringSubmatch(name)
	if m == nil {
		return 0
	}
	n, _ := strconv.Atoi(m[1])
	return n
}
