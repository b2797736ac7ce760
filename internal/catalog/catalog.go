// Package catalog manages the canonical media catalog: series and movies,
// their expected episodes, physical files, and the mappings between them.
package catalog

import "time"

// ContentType distinguishes movies from series.
type ContentType string

const (
	ContentTypeMovie  ContentType = "movie"
	ContentTypeSeries ContentType = "series"
)

// Ordering selects which provider-supplied numbering scheme a series uses.
type Ordering string

const (
	OrderingAired    Ordering = "aired"
	OrderingDVD      Ordering = "dvd"
	OrderingAbsolute Ordering = "absolute"
)

// Content is a movie or series. ID is the database key; UUID is the
// stable opaque identifier handed to external consumers, assigned at
// creation and never changed.
type Content struct {
	ID                int64
	UUID              string
	Type              ContentType
	Title             string
	CleanTitle        string // normalized title used for identity matching
	Year              int    // 0 when unknown
	Ordering          Ordering
	DateOrdered       bool
	CanonicalProvider string
	FallbackProvider  string
	ImageBase         string // provider image base path, stored opaquely
	AddedAt           time.Time
	UpdatedAt         time.Time
}

// Policy is the per-series merge policy handed to the episode list
// manager on every refresh. It is materialized from the content row so
// no component depends on ambient configuration.
type Policy struct {
	Canonical string
	Fallback  string
	Ordering  Ordering
}

// Policy returns the merge policy stored on the content row.
func (c *Content) Policy() Policy {
	return Policy{
		Canonical: c.CanonicalProvider,
		Fallback:  c.FallbackProvider,
		Ordering:  c.Ordering,
	}
}

// ExternalID attaches one provider-side identifier to a content row.
// A locked row is never overwritten by automated merges.
type ExternalID struct {
	ContentID int64
	Provider  string
	Value     string
	Locked    bool
}

// ExpectedEpisode is the provider's assertion that an episode exists,
// keyed by (content, season, episode). The scanner never creates these.
type ExpectedEpisode struct {
	ID                int64
	ContentID         int64
	Season            int
	Episode           int
	Title             string
	AirDate           *time.Time
	Provider          string
	ProviderEpisodeID string
}

// Key returns the (season, episode) address of the row.
func (e *ExpectedEpisode) Key() EpisodeKey {
	return EpisodeKey{Season: e.Season, Episode: e.Episode}
}

// EpisodeKey addresses an episode within one series.
type EpisodeKey struct {
	Season  int
	Episode int
}

// MediaFile is a physical file record. Identification logic never
// mutates these rows; only the scan pass does.
type MediaFile struct {
	ID         int64
	Path       string
	SizeBytes  int64
	ModTime    time.Time
	Container  string
	DurationMS int64
	Streams    string // stream descriptors as supplied by the probe, opaque JSON
	QuickHash  string
	FirstSeen  time.Time
	LastSeen   time.Time
}

// MappingShape is the tagged variant discriminator for file mappings.
type MappingShape string

const (
	ShapeSingle       MappingShape = "single"       // 1 file, 1 episode
	ShapeMultiPart    MappingShape = "multipart"    // N files, 1 episode
	ShapeMultiEpisode MappingShape = "multiepisode" // 1 file, N episodes
)

// FileMapping relates files to episode keys within one series.
// Files are ordered by Part for the multipart shape.
type FileMapping struct {
	ID        int64
	ContentID int64
	Shape     MappingShape
	Files     []MappingFile
	Episodes  []EpisodeKey
	CreatedAt time.Time
}

// MappingFile is one file's membership in a mapping.
type MappingFile struct {
	FileID int64
	Part   int // 1-based for multipart, 0 otherwise
}

// PlacementMode chooses where a special appears in the main viewing order.
type PlacementMode string

const (
	PlacementSpecialsOnly PlacementMode = "specials-only"
	PlacementBefore       PlacementMode = "before"
	PlacementAfter        PlacementMode = "after"
)

// SpecialPlacement is a per-special rule, stored independently of the
// expected episode rows so provider refreshes do not erase user intent.
type SpecialPlacement struct {
	ContentID      int64
	SpecialEpisode int
	Mode           PlacementMode
	AnchorSeason   int
	AnchorEpisode  int
}

// AttentionKind classifies needs-attention queue entries.
type AttentionKind string

const (
	AttentionAmbiguous        AttentionKind = "ambiguous"
	AttentionProviderMismatch AttentionKind = "provider_mismatch"
	AttentionOrphanedMapping  AttentionKind = "orphaned_mapping"
	AttentionUnmappedFile     AttentionKind = "unmapped_file"
)

// Attention is one entry in the needs-attention queue. Entries are
// resolved by an operator, never auto-resolved.
type Attention struct {
	ID         int64
	ContentID  int64 // 0 when the item is not tied to a content row
	Kind       AttentionKind
	Detail     string
	CreatedAt  time.Time
	ResolvedAt *time.Time
}
