package catalog

import "testing"

func TestStore_AddAttention_Dedupe(t *testing.T) {
	db := setupTestDB(t)
	store := NewStore(db)
	c := addTestSeries(t, store, "show", 2003)

	a := &Attention{ContentID: c.ID, Kind: AttentionAmbiguous, Detail: "two candidates for year 2003"}
	if err := store.AddAttention(a); err != nil {
		t.Fatalf("AddAttention: %v", err)
	}

	// Re-flagging the same open condition returns the existing entry.
	dup := &Attention{ContentID: c.ID, Kind: AttentionAmbiguous, Detail: "two candidates for year 2003"}
	if err := store.AddAttention(dup); err != nil {
		t.Fatalf("AddAttention duplicate: %v", err)
	}
	if dup.ID != a.ID {
		t.Errorf("duplicate got new ID %d, want existing %d", dup.ID, a.ID)
	}

	list, total, err := store.ListAttention(AttentionFilter{})
	if err != nil {
		t.Fatalf("ListAttention: %v", err)
	}
	if total != 1 || len(list) != 1 {
		t.Errorf("total = %d, len = %d, want 1, 1", total, len(list))
	}
}

func TestStore_ResolveAttention(t *testing.T) {
	db := setupTestDB(t)
	store := NewStore(db)
	c := addTestSeries(t, store, "show", 2003)

	a := &Attention{ContentID: c.ID, Kind: AttentionOrphanedMapping, Detail: "S01E09 no longer expected"}
	if err := store.AddAttention(a); err != nil {
		t.Fatalf("AddAttention: %v", err)
	}
	if err := store.ResolveAttention(a.ID); err != nil {
		t.Fatalf("ResolveAttention: %v", err)
	}
	// Resolving twice is fine.
	if err := store.ResolveAttention(a.ID); err != nil {
		t.Fatalf("ResolveAttention repeat: %v", err)
	}

	open, _, err := store.ListAttention(AttentionFilter{})
	if err != nil {
		t.Fatalf("ListAttention: %v", err)
	}
	if len(open) != 0 {
		t.Errorf("open entries = %d, want 0", len(open))
	}

	// After resolution the same condition may be flagged again.
	again := &Attention{ContentID: c.ID, Kind: AttentionOrphanedMapping, Detail: "S01E09 no longer expected"}
	if err := store.AddAttention(again); err != nil {
		t.Fatalf("AddAttention after resolve: %v", err)
	}
	if again.ID == a.ID {
		t.Error("re-flag after resolve should create a fresh entry")
	}
}

func TestStore_ListAttention_Filters(t *testing.T) {
	db := setupTestDB(t)
	store := NewStore(db)
	c1 := addTestSeries(t, store, "show", 2003)
	c2 := addTestSeries(t, store, "other", 2010)

	entries := []*Attention{
		{ContentID: c1.ID, Kind: AttentionAmbiguous, Detail: "a"},
		{ContentID: c1.ID, Kind: AttentionProviderMismatch, Detail: "b"},
		{ContentID: c2.ID, Kind: AttentionUnmappedFile, Detail: "c"},
	}
	for _, a := range entries {
		if err := store.AddAttention(a); err != nil {
			t.Fatalf("AddAttention: %v", err)
		}
	}

	byContent, _, err := store.ListAttention(AttentionFilter{ContentID: ptr(c1.ID)})
	if err != nil {
		t.Fatalf("ListAttention by content: %v", err)
	}
	if len(byContent) != 2 {
		t.Errorf("entries for content = %d, want 2", len(byContent))
	}

	byKind, _, err := store.ListAttention(AttentionFilter{Kind: ptr(AttentionUnmappedFile)})
	if err != nil {
		t.Fatalf("ListAttention by kind: %v", err)
	}
	if len(byKind) != 1 || byKind[0].Detail != "c" {
		t.Errorf("entries for kind = %+v, want the unmapped-file one", byKind)
	}
}

func TestStore_Placements(t *testing.T) {
	db := setupTestDB(t)
	store := NewStore(db)
	c := addTestSeries(t, store, "show", 2003)

	if err := store.SetPlacement(SpecialPlacement{ContentID: c.ID, SpecialEpisode: 1}); err != nil {
		t.Fatalf("SetPlacement default: %v", err)
	}
	if err := store.SetPlacement(SpecialPlacement{
		ContentID:      c.ID,
		SpecialEpisode: 2,
		Mode:           PlacementAfter,
		AnchorSeason:   1,
		AnchorEpisode:  7,
	}); err != nil {
		t.Fatalf("SetPlacement anchored: %v", err)
	}

	placements, err := store.ListPlacements(c.ID)
	if err != nil {
		t.Fatalf("ListPlacements: %v", err)
	}
	if placements[1].Mode != PlacementSpecialsOnly {
		t.Errorf("special 1 mode = %q, want default specials-only", placements[1].Mode)
	}
	if p := placements[2]; p.Mode != PlacementAfter || p.AnchorSeason != 1 || p.AnchorEpisode != 7 {
		t.Errorf("special 2 placement = %+v", p)
	}

	// Re-anchoring overwrites in place.
	if err := store.SetPlacement(SpecialPlacement{
		ContentID:      c.ID,
		SpecialEpisode: 2,
		Mode:           PlacementBefore,
		AnchorSeason:   2,
		AnchorEpisode:  1,
	}); err != nil {
		t.Fatalf("SetPlacement re-anchor: %v", err)
	}
	placements, err = store.ListPlacements(c.ID)
	if err != nil {
		t.Fatalf("ListPlacements after re-anchor: %v", err)
	}
	if len(placements) != 2 {
		t.Fatalf("placements = %d, want 2", len(placements))
	}
	if p := placements[2]; p.Mode != PlacementBefore || p.AnchorSeason != 2 {
		t.Errorf("re-anchored placement = %+v", p)
	}

	if err := store.DeletePlacement(c.ID, 2); err != nil {
		t.Fatalf("DeletePlacement: %v", err)
	}
	placements, err = store.ListPlacements(c.ID)
	if err != nil {
		t.Fatalf("ListPlacements after delete: %v", err)
	}
	if _, ok := placements[2]; ok {
		t.Error("placement 2 should be gone")
	}
}
