package events

// Entity types
const (
	EntityContent = "content"
	EntityFile    = "file"
	EntityMapping = "mapping"
)

// Event type constants
const (
	EventContentAdded    = "content.added"
	EventSeriesRefreshed = "series.refreshed"
	EventFileObserved    = "file.observed"
	EventFileIdentified  = "file.identified"
	EventFileUnmapped    = "file.unmapped"
	EventAttentionRaised = "attention.raised"
	EventScanStarted     = "scan.started"
	EventScanCompleted   = "scan.completed"
	EventRefreshConflict = "refresh.conflict"
)

// ContentAdded is emitted when a movie or series enters the catalog.
type ContentAdded struct {
	BaseEvent
	ContentID   int64  `json:"content_id"`
	ContentType string `json:"content_type"`
	Title       string `json:"title"`
	Year        int    `json:"year"`
}

// SeriesRefreshed is emitted once per completed canonical-list refresh,
// after the whole merge committed.
type SeriesRefreshed struct {
	BaseEvent
	ContentID int64  `json:"content_id"`
	Provider  string `json:"provider"`
	Episodes  int    `json:"episodes"`
	Orphaned  int    `json:"orphaned"`
}

// FileObserved is emitted when the scanner records a new or changed file.
type FileObserved struct {
	BaseEvent
	FileID int64  `json:"file_id"`
	Path   string `json:"path"`
}

// FileIdentified is emitted once per completed identification unit: the
// file has a mapping, written atomically.
type FileIdentified struct {
	BaseEvent
	FileID     int64   `json:"file_id"`
	ContentID  int64   `json:"content_id"`
	MappingID  int64   `json:"mapping_id"`
	Shape      string  `json:"shape"`
	Rule       string  `json:"rule"`
	Confidence float64 `json:"confidence"`
}

// FileUnmapped is emitted when a file could not be identified and stays
// in the unmapped state.
type FileUnmapped struct {
	BaseEvent
	FileID int64  `json:"file_id"`
	Path   string `json:"path"`
	Reason string `json:"reason"`
}

// AttentionRaised is emitted when a new needs-attention entry is filed.
type AttentionRaised struct {
	BaseEvent
	AttentionID int64  `json:"attention_id"`
	ContentID   int64  `json:"content_id"`
	Kind        string `json:"kind"`
	Detail      string `json:"detail"`
}

// RefreshConflict is emitted when a canonical refresh detects episodes
// that the fallback provider numbers differently.
type RefreshConflict struct {
	BaseEvent
	ContentID int64  `json:"content_id"`
	Detail    string `json:"detail"`
}

// ScanStarted is emitted when a library scan pass begins.
type ScanStarted struct {
	BaseEvent
	Root string `json:"root"`
}

// ScanCompleted is emitted when a library scan pass finishes.
type ScanCompleted struct {
	BaseEvent
	Root       string `json:"root"`
	Files      int    `json:"files"`
	Identified int    `json:"identified"`
	Unmapped   int    `json:"unmapped"`
}
