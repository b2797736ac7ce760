package catalog

import (
	"fmt"
	"strings"
)

func upsertExpected(q querier, e *ExpectedEpisode) error {
	result, err := q.Exec(`
		INSERT INTO expected_episodes (content_id, season, episode, title, air_date, provider, provider_episode_id)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (content_id, season, episode) DO UPDATE SET
			title = excluded.title,
			air_date = excluded.air_date,
			provider = excluded.provider,
			provider_episode_id = excluded.provider_episode_id`,
		e.ContentID, e.Season, e.Episode, e.Title, e.AirDate, e.Provider, e.ProviderEpisodeID,
	)
	if err != nil {
		return fmt.Errorf("upsert expected S%02dE%02d: %w", e.Season, e.Episode, mapSQLiteError(err))
	}
	if id, err := result.LastInsertId(); err == nil && e.ID == 0 {
		e.ID = id
	}
	return nil
}

// UpsertExpected inserts or refreshes one expected-episode row. The
// upsert is idempotent: re-applying identical data is a no-op.
func (s *Store) UpsertExpected(e *ExpectedEpisode) error { return upsertExpected(s.db, e) }

// UpsertExpected inserts or refreshes one expected-episode row within a
// transaction.
func (t *Tx) UpsertExpected(e *ExpectedEpisode) error { return upsertExpected(t.tx, e) }

func listExpected(q querier, f ExpectedFilter) ([]*ExpectedEpisode, int, error) {
	var conditions []string
	var args []any

	if f.ContentID != nil {
		conditions = append(conditions, "content_id = ?")
		args = append(args, *f.ContentID)
	}
	if f.Season != nil {
		conditions = append(conditions, "season = ?")
		args = append(args, *f.Season)
	}

	whereClause := ""
	if len(conditions) > 0 {
		whereClause = "WHERE " + strings.Join(conditions, " AND ")
	}

	var total int
	if err := q.QueryRow("SELECT COUNT(*) FROM expected_episodes "+whereClause, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count expected episodes: %w", err)
	}

	query := `SELECT id, content_id, season, episode, title, air_date, provider, provider_episode_id
		FROM expected_episodes ` + whereClause + " ORDER BY season, episode"
	if f.Limit > 0 {
		query += fmt.Sprintf(" LIMIT %d OFFSET %d", f.Limit, f.Offset)
	}

	rows, err := q.Query(query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list expected episodes: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var results []*ExpectedEpisode
	for rows.Next() {
		e := &ExpectedEpisode{}
		if err := rows.Scan(&e.ID, &e.ContentID, &e.Season, &e.Episode, &e.Title,
			&e.AirDate, &e.Provider, &e.ProviderEpisodeID); err != nil {
			return nil, 0, fmt.Errorf("scan expected episode: %w", err)
		}
		results = append(results, e)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate expected episodes: %w", err)
	}

	return results, total, nil
}

// ListExpected returns expected episodes matching the filter,
// ordered by (season, episode). Returns (results, totalCount, error).
func (s *Store) ListExpected(f ExpectedFilter) ([]*ExpectedEpisode, int, error) {
	return listExpected(s.db, f)
}

// ListExpected returns expected episodes within a transaction.
func (t *Tx) ListExpected(f ExpectedFilter) ([]*ExpectedEpisode, int, error) {
	return listExpected(t.tx, f)
}

func deleteExpected(q querier, contentID int64, key EpisodeKey) error {
	_, err := q.Exec(`
		DELETE FROM expected_episodes WHERE content_id = ? AND season = ? AND episode = ?`,
		contentID, key.Season, key.Episode,
	)
	if err != nil {
		return fmt.Errorf("delete expected S%02dE%02d: %w", key.Season, key.Episode, mapSQLiteError(err))
	}
	return nil
}

// DeleteExpected removes one expected-episode row. Idempotent.
func (s *Store) DeleteExpected(contentID int64, key EpisodeKey) error {
	return deleteExpected(s.db, contentID, key)
}

// DeleteExpected removes one expected-episode row within a transaction.
func (t *Tx) DeleteExpected(contentID int64, key EpisodeKey) error {
	return deleteExpected(t.tx, contentID, key)
}

// SeasonCounts returns, per season of a series, the number of expected
// episodes. This is the season knowledge the bare-numeric parser rule
// requires.
func (s *Store) SeasonCounts(contentID int64) (map[int]int, error) {
	rows, err := s.db.Query(`
		SELECT season, COUNT(*) FROM expected_episodes
		WHERE content_id = ? GROUP BY season`, contentID)
	if err != nil {
		return nil, fmt.Errorf("season counts: %w", err)
	}
	defer func() { _ = rows.Close() }()

	counts := make(map[int]int)
	for rows.Next() {
		var season, count int
		if err := rows.Scan(&season, &count); err != nil {
			return nil, fmt.Errorf("scan season count: %w", err)
		}
		counts[season] = count
	}
	return counts, rows.Err()
}

func lockField(q querier, contentID int64, key EpisodeKey, field string) error {
	_, err := q.Exec(`
		INSERT OR IGNORE INTO field_locks (content_id, season, episode, field)
		VALUES (?, ?, ?, ?)`,
		contentID, key.Season, key.Episode, field,
	)
	if err != nil {
		return fmt.Errorf("lock field %s: %w", field, mapSQLiteError(err))
	}
	return nil
}

// SeriesField is the EpisodeKey denoting a series-level field lock.
var SeriesField = EpisodeKey{Season: -1, Episode: -1}

// LockField records a user lock on one field of an episode (or of the
// series itself via SeriesField). Idempotent.
func (s *Store) LockField(contentID int64, key EpisodeKey, field string) error {
	return lockField(s.db, contentID, key, field)
}

// UnlockField removes a user lock. Idempotent.
func (s *Store) UnlockField(contentID int64, key EpisodeKey, field string) error {
	_, err := s.db.Exec(`
		DELETE FROM field_locks WHERE content_id = ? AND season = ? AND episode = ? AND field = ?`,
		contentID, key.Season, key.Episode, field,
	)
	if err != nil {
		return fmt.Errorf("unlock field %s: %w", field, mapSQLiteError(err))
	}
	return nil
}

// LockedFields returns the set of locked field names per episode key for
// a series, including the SeriesField entry when present.
func (s *Store) LockedFields(contentID int64) (map[EpisodeKey]map[string]bool, error) {
	rows, err := s.db.Query(`
		SELECT season, episode, field FROM field_locks WHERE content_id = ?`, contentID)
	if err != nil {
		return nil, fmt.Errorf("list field locks: %w", err)
	}
	defer func() { _ = rows.Close() }()

	locks := make(map[EpisodeKey]map[string]bool)
	for rows.Next() {
		var key EpisodeKey
		var field string
		if err := rows.Scan(&key.Season, &key.Episode, &field); err != nil {
			return nil, fmt.Errorf("scan field lock: %w", err)
		}
		if locks[key] == nil {
			locks[key] = make(map[string]bool)
		}
		locks[key][field] = true
	}
	return locks, rows.Err()
}
