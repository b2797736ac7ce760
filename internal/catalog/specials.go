package catalog

import "fmt"

// SetPlacement upserts the placement rule for one special episode.
// Idempotent: re-applying the same rule is a no-op.
func (s *Store) SetPlacement(p SpecialPlacement) error {
	if p.Mode == "" {
		p.Mode = PlacementSpecialsOnly
	}
	_, err := s.db.Exec(`
		INSERT INTO special_placements (content_id, special_episode, mode, anchor_season, anchor_episode)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (content_id, special_episode) DO UPDATE SET
			mode = excluded.mode,
			anchor_season = excluded.anchor_season,
			anchor_episode = excluded.anchor_episode`,
		p.ContentID, p.SpecialEpisode, p.Mode, p.AnchorSeason, p.AnchorEpisode,
	)
	if err != nil {
		return fmt.Errorf("set placement for special %d: %w", p.SpecialEpisode, mapSQLiteError(err))
	}
	return nil
}

// DeletePlacement removes the rule for one special episode, reverting it
// to the specials-season-only default. Idempotent.
func (s *Store) DeletePlacement(contentID int64, specialEpisode int) error {
	_, err := s.db.Exec(`
		DELETE FROM special_placements WHERE content_id = ? AND special_episode = ?`,
		contentID, specialEpisode,
	)
	if err != nil {
		return fmt.Errorf("delete placement for special %d: %w", specialEpisode, mapSQLiteError(err))
	}
	return nil
}

// ListPlacements returns all placement rules for a series, keyed by
// special episode number.
func (s *Store) ListPlacements(contentID int64) (map[int]SpecialPlacement, error) {
	rows, err := s.db.Query(`
		SELECT content_id, special_episode, mode, anchor_season, anchor_episode
		FROM special_placements WHERE content_id = ?`, contentID)
	if err != nil {
		return nil, fmt.Errorf("list placements: %w", err)
	}
	defer func() { _ = rows.Close() }()

	placements := make(map[int]SpecialPlacement)
	for rows.Next() {
		var p SpecialPlacement
		if err := rows.Scan(&p.ContentID, &p.SpecialEpisode, &p.Mode, &p.AnchorSeason, &p.AnchorEpisode); err != nil {
			return nil, fmt.Errorf("scan placement: %w", err)
		}
		placements[p.SpecialEpisode] = p
	}
	return placements, rows.Err()
}
