package catalog

import (
	"database/sql"
	"testing"

	"github.com/catarr/catarr/internal/migrations"
	_ "modernc.org/sqlite"
)

func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite", ":memory:?_pragma=foreign_keys(1)")
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	if err := migrations.Apply(db); err != nil {
		t.Fatalf("apply schema: %v", err)
	}
	return db
}

// addTestSeries inserts a series row and returns it.
func addTestSeries(t *testing.T, store *Store, title string, year int) *Content {
	t.Helper()
	c := &Content{
		Type:       ContentTypeSeries,
		Title:      title,
		CleanTitle: title,
		Year:       year,
	}
	if err := store.AddContent(c); err != nil {
		t.Fatalf("AddContent: %v", err)
	}
	return c
}

// addTestFile inserts a media file row and returns it.
func addTestFile(t *testing.T, store *Store, path string) *MediaFile {
	t.Helper()
	f := &MediaFile{Path: path, SizeBytes: 1 << 20}
	if err := store.UpsertFile(f); err != nil {
		t.Fatalf("UpsertFile: %v", err)
	}
	return f
}

// ptr is a helper to create pointer to value
func ptr[T any](v T) *T {
	return &v
}
