package naming

import (
	"path/filepath"
	"strings"
)

// Parse runs the rule cascade over a single name. The boolean result is
// false when no rule matched; that is an expected outcome for names that
// simply carry no episode information, not an error.
//
// An embedded external-identifier tag is authoritative: when present the
// parse is reported under the "external-id" rule with confidence 1.0,
// with season/episode fields still filled from the rest of the cascade
// when they can be. The parser never rejects low-confidence matches
// itself; acceptance thresholds belong to the caller.
func Parse(name string, ctx Context) (Parsed, bool) {
	name = trimExtension(name)
	tag := ExtractTag(name)
	if tag != nil {
		name = StripTag(name)
	}

	var parsed Parsed
	matched := false
	for _, r := range cascade {
		if p, ok := r.try(name, ctx); ok {
			parsed = p
			parsed.Confidence = r.confidence
			parsed.Rule = r.name
			matched = true
			break
		}
	}

	if tag != nil {
		parsed.Tag = tag
		parsed.Confidence = 1.0
		parsed.Rule = "external-id"
		matched = true
	}
	if !matched {
		return Parsed{}, false
	}
	parsed.Part = extractPart(name)
	return parsed, true
}

// ParsePath parses a file path, consulting up to two ancestor directory
// names for context the filename alone does not carry: an identifier tag
// pinned on the series folder, or a worded season folder above an
// episode-only filename.
func ParsePath(path string, ctx Context) (Parsed, bool) {
	dir, base := filepath.Split(filepath.Clean(path))
	parent := filepath.Base(filepath.Clean(dir))
	grandparent := filepath.Base(filepath.Dir(filepath.Clean(dir)))

	parsed, ok := Parse(base, ctx)
	if !ok {
		// The filename said nothing; try the parent directory, which
		// handles layouts like "Show/S01E03/video.mkv".
		parsed, ok = Parse(parent, ctx)
	}

	if parsed.Tag == nil {
		if tag := ExtractTag(parent, grandparent); tag != nil {
			parsed.Tag = tag
			parsed.Confidence = 1.0
			parsed.Rule = "external-id"
			ok = true
		}
	}
	if !ok {
		return Parsed{}, false
	}
	return parsed, true
}

// videoExtensions covers the containers the scanner feeds through the
// parser. Unknown extensions are left in place so directory names parse
// unchanged.
var videoExtensions = map[string]bool{
	".mkv": true, ".mp4": true, ".avi": true, ".m4v": true,
	".mov": true, ".wmv": true, ".ts": true, ".webm": true,
}

// IsVideo reports whether the filename carries a known video container
// extension.
func IsVideo(name string) bool {
	return videoExtensions[strings.ToLower(filepath.Ext(name))]
}

func trimExtension(name string) string {
	ext := strings.ToLower(filepath.Ext(name))
	if videoExtensions[ext] {
		return strings.TrimSuffix(name, filepath.Ext(name))
	}
	return name
}
