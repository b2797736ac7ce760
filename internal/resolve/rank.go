package resolve

import (
	"regexp"
	"sort"

	edlib "github.com/hbollon/go-edlib"

	"github.com/catarr/catarr/internal/catalog"
)

// Score thresholds. Jaro-Winkler favors shared prefixes, which suits
// media titles; only near-certain scores may resolve automatically.
const (
	scoreHigh   = 0.95
	scoreMedium = 0.85
)

var numberRe = regexp.MustCompile(`\b(\d+)\b`)

// Match pairs a catalog entry with its similarity to a query title.
type Match struct {
	Content *catalog.Content
	Score   float64
}

// rankCandidates scores every candidate against a normalized title and
// returns them best first. Sequence numbers get special treatment: a
// query naming "show 2" must not drift onto "show" or "show 3".
func rankCandidates(clean string, candidates []*catalog.Content) []Match {
	queryNumbers := numberRe.FindAllString(clean, -1)

	matches := make([]Match, 0, len(candidates))
	for _, c := range candidates {
		score := float64(edlib.JaroWinklerSimilarity(clean, c.CleanTitle))
		score = adjustForNumbers(score, queryNumbers, numberRe.FindAllString(c.CleanTitle, -1))
		if score < scoreMedium {
			continue
		}
		matches = append(matches, Match{Content: c, Score: score})
	}

	sort.SliceStable(matches, func(i, j int) bool { return matches[i].Score > matches[j].Score })
	return matches
}

// adjustForNumbers nudges the similarity score by sequence-number
// agreement: shared numbers earn a small bonus, absent or mismatched
// numbers a penalty.
func adjustForNumbers(score float64, query, candidate []string) float64 {
	if len(query) == 0 {
		return score
	}
	if len(candidate) == 0 {
		return score * 0.85
	}

	candidateSet := make(map[string]bool, len(candidate))
	for _, n := range candidate {
		candidateSet[n] = true
	}
	for _, n := range query {
		if candidateSet[n] {
			return min(score*1.05, 1.0)
		}
	}
	return score * 0.90
}
