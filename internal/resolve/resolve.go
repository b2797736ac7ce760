// Package resolve turns parsed names and directory hints into catalog
// identities. It never merges existing entries and never guesses: an
// unresolvable name comes back NoMatch or Ambiguous for an operator.
package resolve

import (
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/catarr/catarr/internal/catalog"
	"github.com/catarr/catarr/pkg/naming"
)

// View is the read access the resolver needs on the catalog.
// *catalog.Store satisfies it.
type View interface {
	GetByExternalID(provider, value string) (*catalog.Content, error)
	GetByTitleYear(cleanTitle string, year int) (*catalog.Content, error)
	ListContent(f catalog.ContentFilter) ([]*catalog.Content, int, error)
}

// Kind discriminates resolution outcomes.
type Kind int

const (
	NoMatch Kind = iota
	ResolvedExisting
	ResolvedNew
	Ambiguous
)

func (k Kind) String() string {
	switch k {
	case ResolvedExisting:
		return "existing"
	case ResolvedNew:
		return "new"
	case Ambiguous:
		return "ambiguous"
	default:
		return "no-match"
	}
}

// Candidate carries the fields a ResolvedNew outcome would create
// content from.
type Candidate struct {
	Title      string
	CleanTitle string
	Year       int
	Tag        *naming.Tag
}

// Resolution is the outcome of one resolve call. Content is set for
// ResolvedExisting, New for ResolvedNew, Candidates for Ambiguous.
type Resolution struct {
	Kind       Kind
	Content    *catalog.Content
	New        Candidate
	Candidates []*catalog.Content
}

// Resolver resolves directory paths to series/movie identities.
type Resolver struct {
	view View
	log  *slog.Logger
}

// New creates a resolver over a catalog view.
func New(view View, logger *slog.Logger) *Resolver {
	if logger == nil {
		logger = slog.Default()
	}
	return &Resolver{view: view, log: logger.With("component", "resolve")}
}

// Resolve maps a series directory to an identity. parsed may be nil
// when no filename-level parse exists; dir alone can still resolve.
//
// Order: an external-ID tag anywhere in the path is authoritative, then
// normalized title plus year, then an exact-title match when it is
// unique. Anything else is Ambiguous or NoMatch. Errors are reserved
// for store failures.
func (r *Resolver) Resolve(dir string, parsed *naming.Parsed) (Resolution, error) {
	tag := pathTag(dir, parsed)

	title, year := dirIdentity(dir)
	clean := naming.CleanTitle(title)

	if tag != nil {
		existing, err := r.view.GetByExternalID(tag.Provider, tag.Value)
		if err == nil {
			return Resolution{Kind: ResolvedExisting, Content: existing}, nil
		}
		if !errors.Is(err, catalog.ErrNotFound) {
			return Resolution{}, fmt.Errorf("resolve by %s tag: %w", tag.Provider, err)
		}
		if clean == "" {
			return Resolution{Kind: NoMatch}, nil
		}
		// Unseen tag: new identity carrying it.
		return Resolution{Kind: ResolvedNew, New: Candidate{
			Title: title, CleanTitle: clean, Year: year, Tag: tag,
		}}, nil
	}

	if clean == "" {
		return Resolution{Kind: NoMatch}, nil
	}

	if year > 0 {
		existing, err := r.view.GetByTitleYear(clean, year)
		if err == nil {
			return Resolution{Kind: ResolvedExisting, Content: existing}, nil
		}
		if !errors.Is(err, catalog.ErrNotFound) {
			return Resolution{}, fmt.Errorf("resolve by title/year: %w", err)
		}
		return r.resolveFuzzy(title, clean, year)
	}

	// No year. An exact-title match is only trusted when unique.
	matches, _, err := r.view.ListContent(catalog.ContentFilter{CleanTitle: &clean})
	if err != nil {
		return Resolution{}, fmt.Errorf("resolve by title: %w", err)
	}
	switch len(matches) {
	case 0:
		return r.resolveFuzzy(title, clean, 0)
	case 1:
		return Resolution{Kind: ResolvedExisting, Content: matches[0]}, nil
	default:
		r.log.Debug("ambiguous title", "title", clean, "candidates", len(matches))
		return Resolution{Kind: Ambiguous, Candidates: matches}, nil
	}
}

// resolveFuzzy handles the no-exact-match tail. A near-certain fuzzy
// match with a compatible year resolves to the existing entry (catches
// punctuation drift the normalizer misses); anything weaker creates a
// new identity rather than risking a wrong merge.
func (r *Resolver) resolveFuzzy(title, clean string, year int) (Resolution, error) {
	all, _, err := r.view.ListContent(catalog.ContentFilter{})
	if err != nil {
		return Resolution{}, fmt.Errorf("list candidates: %w", err)
	}

	ranked := rankCandidates(clean, all)
	if len(ranked) > 0 && ranked[0].Score >= scoreHigh {
		best := ranked[0].Content
		if year == 0 || best.Year == 0 || best.Year == year {
			r.log.Debug("fuzzy resolve", "title", clean, "matched", best.CleanTitle, "score", ranked[0].Score)
			return Resolution{Kind: ResolvedExisting, Content: best}, nil
		}
	}

	return Resolution{Kind: ResolvedNew, New: Candidate{
		Title: title, CleanTitle: clean, Year: year,
	}}, nil
}

// pathTag finds an external-ID tag in the parse result or any path
// segment, deepest first.
func pathTag(dir string, parsed *naming.Parsed) *naming.Tag {
	if parsed != nil && parsed.Tag != nil {
		return parsed.Tag
	}
	rest := filepath.Clean(dir)
	for rest != "" {
		var segment string
		rest, segment = filepath.Dir(rest), filepath.Base(rest)
		if segment == string(filepath.Separator) || segment == "." {
			break
		}
		if tag := naming.ExtractTag(segment); tag != nil {
			return tag
		}
		if rest == string(filepath.Separator) || rest == "." {
			break
		}
	}
	return nil
}

// dirIdentity extracts the title and optional year from the deepest
// path segment. SplitTitleYear already discards identifier tags.
func dirIdentity(dir string) (string, int) {
	return naming.SplitTitleYear(filepath.Base(filepath.Clean(dir)))
}
