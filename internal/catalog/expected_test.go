package catalog

import (
	"errors"
	"testing"
	"time"
)

func TestStore_UpsertExpected_Idempotent(t *testing.T) {
	db := setupTestDB(t)
	store := NewStore(db)
	c := addTestSeries(t, store, "show", 2003)

	ep := &ExpectedEpisode{
		ContentID: c.ID,
		Season:    1,
		Episode:   1,
		Title:     "Pilot",
	}
	if err := store.UpsertExpected(ep); err != nil {
		t.Fatalf("UpsertExpected: %v", err)
	}
	firstID := ep.ID

	// Second pass with updated metadata must update in place, not duplicate.
	aired := time.Date(2003, 9, 22, 0, 0, 0, 0, time.UTC)
	ep2 := &ExpectedEpisode{
		ContentID: c.ID,
		Season:    1,
		Episode:   1,
		Title:     "Pilot (revised)",
		AirDate:   &aired,
	}
	if err := store.UpsertExpected(ep2); err != nil {
		t.Fatalf("UpsertExpected second: %v", err)
	}

	list, total, err := store.ListExpected(ExpectedFilter{ContentID: ptr(c.ID)})
	if err != nil {
		t.Fatalf("ListExpected: %v", err)
	}
	if total != 1 || len(list) != 1 {
		t.Fatalf("expected 1 episode, got total %d, len %d", total, len(list))
	}
	if list[0].ID != firstID {
		t.Errorf("row ID changed on upsert: %d -> %d", firstID, list[0].ID)
	}
	if list[0].Title != "Pilot (revised)" {
		t.Errorf("Title = %q, want updated title", list[0].Title)
	}
	if list[0].AirDate == nil || !list[0].AirDate.Equal(aired) {
		t.Errorf("AirDate = %v, want %v", list[0].AirDate, aired)
	}
}

func TestStore_ListExpected_Ordered(t *testing.T) {
	db := setupTestDB(t)
	store := NewStore(db)
	c := addTestSeries(t, store, "show", 2003)

	for _, key := range []EpisodeKey{{2, 1}, {1, 2}, {1, 1}, {0, 1}} {
		ep := &ExpectedEpisode{ContentID: c.ID, Season: key.Season, Episode: key.Episode}
		if err := store.UpsertExpected(ep); err != nil {
			t.Fatalf("UpsertExpected %v: %v", key, err)
		}
	}

	list, _, err := store.ListExpected(ExpectedFilter{ContentID: ptr(c.ID)})
	if err != nil {
		t.Fatalf("ListExpected: %v", err)
	}
	want := []EpisodeKey{{0, 1}, {1, 1}, {1, 2}, {2, 1}}
	if len(list) != len(want) {
		t.Fatalf("got %d episodes, want %d", len(list), len(want))
	}
	for i, ep := range list {
		if ep.Key() != want[i] {
			t.Errorf("position %d: got %v, want %v", i, ep.Key(), want[i])
		}
	}
}

func TestStore_SeasonCounts(t *testing.T) {
	db := setupTestDB(t)
	store := NewStore(db)
	c := addTestSeries(t, store, "show", 2003)

	keys := []EpisodeKey{{1, 1}, {1, 2}, {1, 3}, {2, 1}, {2, 2}, {0, 1}}
	for _, key := range keys {
		ep := &ExpectedEpisode{ContentID: c.ID, Season: key.Season, Episode: key.Episode}
		if err := store.UpsertExpected(ep); err != nil {
			t.Fatalf("UpsertExpected %v: %v", key, err)
		}
	}

	counts, err := store.SeasonCounts(c.ID)
	if err != nil {
		t.Fatalf("SeasonCounts: %v", err)
	}
	if counts[1] != 3 || counts[2] != 2 || counts[0] != 1 {
		t.Errorf("counts = %v, want map[0:1 1:3 2:2]", counts)
	}
}

func TestStore_DeleteExpected(t *testing.T) {
	db := setupTestDB(t)
	store := NewStore(db)
	c := addTestSeries(t, store, "show", 2003)

	ep := &ExpectedEpisode{ContentID: c.ID, Season: 1, Episode: 1}
	if err := store.UpsertExpected(ep); err != nil {
		t.Fatalf("UpsertExpected: %v", err)
	}
	if err := store.DeleteExpected(c.ID, EpisodeKey{1, 1}); err != nil {
		t.Fatalf("DeleteExpected: %v", err)
	}

	list, _, err := store.ListExpected(ExpectedFilter{ContentID: ptr(c.ID)})
	if err != nil {
		t.Fatalf("ListExpected: %v", err)
	}
	if len(list) != 0 {
		t.Errorf("expected empty list after delete, got %d rows", len(list))
	}
}

func TestStore_FieldLocks(t *testing.T) {
	db := setupTestDB(t)
	store := NewStore(db)
	c := addTestSeries(t, store, "show", 2003)

	if err := store.LockField(c.ID, EpisodeKey{1, 5}, "title"); err != nil {
		t.Fatalf("LockField: %v", err)
	}
	// Locking twice is a no-op.
	if err := store.LockField(c.ID, EpisodeKey{1, 5}, "title"); err != nil {
		t.Fatalf("LockField repeat: %v", err)
	}
	if err := store.LockField(c.ID, SeriesField, "canonical_provider"); err != nil {
		t.Fatalf("LockField series-level: %v", err)
	}

	locks, err := store.LockedFields(c.ID)
	if err != nil {
		t.Fatalf("LockedFields: %v", err)
	}
	if !locks[EpisodeKey{1, 5}]["title"] {
		t.Error("episode title lock missing")
	}
	if !locks[SeriesField]["canonical_provider"] {
		t.Error("series-level lock missing")
	}

	if err := store.UnlockField(c.ID, EpisodeKey{1, 5}, "title"); err != nil {
		t.Fatalf("UnlockField: %v", err)
	}
	locks, err = store.LockedFields(c.ID)
	if err != nil {
		t.Fatalf("LockedFields after unlock: %v", err)
	}
	if locks[EpisodeKey{1, 5}]["title"] {
		t.Error("lock should be gone after unlock")
	}
	if !locks[SeriesField]["canonical_provider"] {
		t.Error("unrelated lock should survive")
	}
}

func TestStore_ExpectedForeignKey(t *testing.T) {
	db := setupTestDB(t)
	store := NewStore(db)

	ep := &ExpectedEpisode{ContentID: 9999, Season: 1, Episode: 1}
	err := store.UpsertExpected(ep)
	if !errors.Is(err, ErrConstraint) {
		t.Errorf("orphan episode error = %v, want ErrConstraint", err)
	}
}
