package naming

import (
	"regexp"
	"strconv"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// romanRe matches Roman numerals II-IX when preceded by a space.
// Standalone "I" and "X" are excluded; they collide with real titles
// ("I Robot", "American History X"), as do numerals at position zero.
var romanRe = regexp.MustCompile(`(?i) (ii|iii|iv|v|vi|vii|viii|ix)\b`)

var romanValues = map[string]string{
	"ii": "2", "iii": "3", "iv": "4", "v": "5",
	"vi": "6", "vii": "7", "viii": "8", "ix": "9",
}

// CleanTitle normalizes a title for identity comparison: lowercase,
// accents folded, Roman numerals II-IX converted, leading articles and
// punctuation dropped, whitespace collapsed. Two directory names that
// clean to the same string are the same title for resolution purposes.
func CleanTitle(title string) string {
	s := strings.ToLower(title)

	s = romanRe.ReplaceAllStringFunc(s, func(match string) string {
		return " " + romanValues[strings.TrimSpace(match)]
	})
	s = foldAccents(s)

	s = strings.ReplaceAll(s, "&", " and ")
	s = strings.ReplaceAll(s, "'", "")
	for _, sep := range []string{"-", ".", "_"} {
		s = strings.ReplaceAll(s, sep, " ")
	}

	// Subtitles after a colon get their own article stripping, so
	// "Léon: The Professional" and "Leon The Professional" converge.
	parts := strings.Split(s, ":")
	for i, part := range parts {
		parts[i] = stripArticle(strings.TrimSpace(part))
	}
	s = strings.Join(parts, " ")

	var b strings.Builder
	for _, r := range s {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || unicode.IsSpace(r) {
			b.WriteRune(r)
		}
	}
	return strings.Join(strings.Fields(b.String()), " ")
}

func foldAccents(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, _ := transform.String(t, s)
	return folded
}

func stripArticle(s string) string {
	for _, article := range []string{"the ", "a ", "an "} {
		if strings.HasPrefix(s, article) {
			return strings.TrimPrefix(s, article)
		}
	}
	return s
}

// yearRe captures a parenthesized or trailing production year,
// e.g. "Show (2003)" or "Show.2003".
var yearRe = regexp.MustCompile(`[\s.(_-]((?:19|20)\d{2})\)?\s*$`)

// SplitTitleYear separates a directory name into its title and a
// production year. Year 0 means the name carried none. Identifier tags
// are removed before splitting so their digits are not mistaken for a
// year.
func SplitTitleYear(name string) (string, int) {
	name = strings.TrimSpace(StripTag(name))
	m := yearRe.FindStringSubmatchIndex(name)
	if m == nil {
		return name, 0
	}
	year, _ := strconv.Atoi(name[m[2]:m[3]])
	title := strings.TrimRight(strings.TrimSpace(name[:m[0]]), "(")
	return strings.TrimSpace(title), year
}
