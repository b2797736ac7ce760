// Package provider defines the boundary to external metadata providers.
// The identification core only ever sees the types here; transport and
// provider quirks stay behind the Source interface.
package provider

import (
	"context"
	"errors"
	"time"
)

// Sentinel errors for provider lookups.
var (
	ErrNotFound    = errors.New("series not found")
	ErrUnavailable = errors.New("provider unavailable")
)

// Numbering is one (season, episode) address in a provider ordering.
type Numbering struct {
	Season  int `json:"season"`
	Episode int `json:"episode"`
}

// FetchedEpisode is one episode as asserted by a provider. Aired is
// always present; DVD and Absolute exist only when the provider carries
// those orderings.
type FetchedEpisode struct {
	ProviderEpisodeID string
	Title             string
	AirDate           *time.Time
	Aired             Numbering
	DVD               *Numbering
	Absolute          int // 0 when the provider has no absolute order
}

// FetchedSeries is a provider's view of one series, episodes included.
type FetchedSeries struct {
	Provider  string
	ID        string
	Title     string
	Year      int
	ImageBase string
	Episodes  []FetchedEpisode
}

// SearchResult is one candidate from a provider title search.
type SearchResult struct {
	Provider string
	ID       string
	Title    string
	Year     int
}

// Source is a metadata provider. Implementations must be safe for
// concurrent use.
type Source interface {
	// Name returns the provider key ("tvdb", "tmdb", ...) used in
	// external IDs and merge policies.
	Name() string

	// FetchSeries returns the full episode list for a provider-side
	// series ID. Returns ErrNotFound for unknown IDs.
	FetchSeries(ctx context.Context, id string) (*FetchedSeries, error)

	// Search returns candidate series for a title. A zero year means
	// no year constraint.
	Search(ctx context.Context, title string, year int) ([]SearchResult, error)
}
