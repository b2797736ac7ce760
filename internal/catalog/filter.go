package catalog

// ContentFilter specifies criteria for listing content.
type ContentFilter struct {
	Type       *ContentType
	CleanTitle *string
	Year       *int
	Limit      int // 0 = no limit
	Offset     int
}

// ExpectedFilter specifies criteria for listing expected episodes.
type ExpectedFilter struct {
	ContentID *int64
	Season    *int
	Limit     int
	Offset    int
}

// FileFilter specifies criteria for listing media files.
type FileFilter struct {
	PathPrefix *string
	Unmapped   bool // only files with no mapping
	Limit      int
	Offset     int
}

// AttentionFilter specifies criteria for listing attention entries.
type AttentionFilter struct {
	ContentID *int64
	Kind      *AttentionKind
	Resolved  bool // include resolved entries
	Limit     int
	Offset    int
}
