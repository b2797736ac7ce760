package catalog

import (
	"database/sql"
	"errors"
	"fmt"
	"time"
)

func addMapping(q querier, m *FileMapping) error {
	if len(m.Files) == 0 || len(m.Episodes) == 0 {
		return fmt.Errorf("add mapping: %w: needs at least one file and one episode", ErrConstraint)
	}
	now := time.Now()
	result, err := q.Exec(`
		INSERT INTO mappings (content_id, shape, created_at) VALUES (?, ?, ?)`,
		m.ContentID, m.Shape, now,
	)
	if err != nil {
		return fmt.Errorf("insert mapping: %w", mapSQLiteError(err))
	}
	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("get last insert id: %w", err)
	}
	for _, mf := range m.Files {
		if _, err := q.Exec(`
			INSERT INTO mapping_files (mapping_id, file_id, part) VALUES (?, ?, ?)`,
			id, mf.FileID, mf.Part,
		); err != nil {
			return fmt.Errorf("insert mapping file %d: %w", mf.FileID, mapSQLiteError(err))
		}
	}
	for _, key := range m.Episodes {
		if _, err := q.Exec(`
			INSERT INTO mapping_episodes (mapping_id, season, episode) VALUES (?, ?, ?)`,
			id, key.Season, key.Episode,
		); err != nil {
			return fmt.Errorf("insert mapping episode S%02dE%02d: %w", key.Season, key.Episode, mapSQLiteError(err))
		}
	}
	m.ID = id
	m.CreatedAt = now
	return nil
}

// AddMapping inserts a mapping with its file and episode memberships.
// The schema rejects a file that already belongs to another mapping;
// use ReplaceMappingForFile for the re-identification path.
func (s *Store) AddMapping(m *FileMapping) error { return addMapping(s.db, m) }

// AddMapping inserts a mapping within a transaction.
func (t *Tx) AddMapping(m *FileMapping) error { return addMapping(t.tx, m) }

func loadMapping(q querier, id int64) (*FileMapping, error) {
	m := &FileMapping{}
	err := q.QueryRow(`
		SELECT id, content_id, shape, created_at FROM mappings WHERE id = ?`, id,
	).Scan(&m.ID, &m.ContentID, &m.Shape, &m.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("get mapping %d: %w", id, mapSQLiteError(err))
	}

	fileRows, err := q.Query(`
		SELECT file_id, part FROM mapping_files WHERE mapping_id = ? ORDER BY part, file_id`, id)
	if err != nil {
		return nil, fmt.Errorf("list mapping files: %w", err)
	}
	defer func() { _ = fileRows.Close() }()
	for fileRows.Next() {
		var mf MappingFile
		if err := fileRows.Scan(&mf.FileID, &mf.Part); err != nil {
			return nil, fmt.Errorf("scan mapping file: %w", err)
		}
		m.Files = append(m.Files, mf)
	}
	if err := fileRows.Err(); err != nil {
		return nil, fmt.Errorf("iterate mapping files: %w", err)
	}

	epRows, err := q.Query(`
		SELECT season, episode FROM mapping_episodes WHERE mapping_id = ? ORDER BY season, episode`, id)
	if err != nil {
		return nil, fmt.Errorf("list mapping episodes: %w", err)
	}
	defer func() { _ = epRows.Close() }()
	for epRows.Next() {
		var key EpisodeKey
		if err := epRows.Scan(&key.Season, &key.Episode); err != nil {
			return nil, fmt.Errorf("scan mapping episode: %w", err)
		}
		m.Episodes = append(m.Episodes, key)
	}
	if err := epRows.Err(); err != nil {
		return nil, fmt.Errorf("iterate mapping episodes: %w", err)
	}

	return m, nil
}

// GetMapping retrieves a mapping with its memberships.
// Returns ErrNotFound if the mapping does not exist.
func (s *Store) GetMapping(id int64) (*FileMapping, error) { return loadMapping(s.db, id) }

// GetMapping retrieves a mapping within a transaction.
func (t *Tx) GetMapping(id int64) (*FileMapping, error) { return loadMapping(t.tx, id) }

func mappingIDForFile(q querier, fileID int64) (int64, error) {
	var id int64
	err := q.QueryRow("SELECT mapping_id FROM mapping_files WHERE file_id = ?", fileID).Scan(&id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, fmt.Errorf("mapping for file %d: %w", fileID, ErrNotFound)
		}
		return 0, fmt.Errorf("mapping for file %d: %w", fileID, err)
	}
	return id, nil
}

// GetMappingForFile returns the single mapping a file belongs to.
// Returns ErrNotFound for unmapped files.
func (s *Store) GetMappingForFile(fileID int64) (*FileMapping, error) {
	id, err := mappingIDForFile(s.db, fileID)
	if err != nil {
		return nil, err
	}
	return loadMapping(s.db, id)
}

// GetMappingForFile returns the mapping a file belongs to, within a
// transaction.
func (t *Tx) GetMappingForFile(fileID int64) (*FileMapping, error) {
	id, err := mappingIDForFile(t.tx, fileID)
	if err != nil {
		return nil, err
	}
	return loadMapping(t.tx, id)
}

// FindMappingByEpisode returns the mapping covering one episode key of a
// series, if any. The multipart append path uses this to locate the
// mapping a new part should join. Returns ErrNotFound when the episode
// has no mapping.
func (t *Tx) FindMappingByEpisode(contentID int64, key EpisodeKey) (*FileMapping, error) {
	var id int64
	err := t.tx.QueryRow(`
		SELECT m.id FROM mappings m
		JOIN mapping_episodes me ON me.mapping_id = m.id
		WHERE m.content_id = ? AND me.season = ? AND me.episode = ?
		LIMIT 1`,
		contentID, key.Season, key.Episode,
	).Scan(&id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("mapping for S%02dE%02d: %w", key.Season, key.Episode, ErrNotFound)
		}
		return nil, fmt.Errorf("mapping for S%02dE%02d: %w", key.Season, key.Episode, err)
	}
	return loadMapping(t.tx, id)
}

// AddMappingFile attaches one more file to an existing mapping, used
// when an additional part of a multi-part episode shows up.
func (t *Tx) AddMappingFile(mappingID int64, mf MappingFile) error {
	_, err := t.tx.Exec(`
		INSERT INTO mapping_files (mapping_id, file_id, part) VALUES (?, ?, ?)`,
		mappingID, mf.FileID, mf.Part,
	)
	if err != nil {
		return fmt.Errorf("attach file %d to mapping %d: %w", mf.FileID, mappingID, mapSQLiteError(err))
	}
	return nil
}

func deleteMapping(q querier, id int64) error {
	_, err := q.Exec("DELETE FROM mappings WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("delete mapping %d: %w", id, mapSQLiteError(err))
	}
	return nil
}

// DeleteMapping removes a mapping and its membership rows. Idempotent.
func (s *Store) DeleteMapping(id int64) error { return deleteMapping(s.db, id) }

// DeleteMapping removes a mapping within a transaction.
func (t *Tx) DeleteMapping(id int64) error { return deleteMapping(t.tx, id) }

// RemoveMappingForFile detaches the file from whatever mapping it is in,
// deleting the mapping when the file was its last member. Other members
// of a multipart mapping survive. Idempotent for unmapped files.
func (t *Tx) RemoveMappingForFile(fileID int64) error {
	id, err := mappingIDForFile(t.tx, fileID)
	if errors.Is(err, ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	if _, err := t.tx.Exec("DELETE FROM mapping_files WHERE file_id = ?", fileID); err != nil {
		return fmt.Errorf("detach file %d: %w", fileID, mapSQLiteError(err))
	}
	var remaining int
	if err := t.tx.QueryRow("SELECT COUNT(*) FROM mapping_files WHERE mapping_id = ?", id).Scan(&remaining); err != nil {
		return fmt.Errorf("count mapping members: %w", err)
	}
	if remaining == 0 {
		return deleteMapping(t.tx, id)
	}
	return nil
}

// ListMappings returns all mappings for a series, memberships included.
func (s *Store) ListMappings(contentID int64) ([]*FileMapping, error) {
	rows, err := s.db.Query("SELECT id FROM mappings WHERE content_id = ? ORDER BY id", contentID)
	if err != nil {
		return nil, fmt.Errorf("list mappings: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan mapping id: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate mappings: %w", err)
	}

	results := make([]*FileMapping, 0, len(ids))
	for _, id := range ids {
		m, err := loadMapping(s.db, id)
		if err != nil {
			return nil, err
		}
		results = append(results, m)
	}
	return results, nil
}

// PresentKeys returns the set of episode keys of a series that any
// mapping references, through any of the three shapes.
func (s *Store) PresentKeys(contentID int64) (map[EpisodeKey]bool, error) {
	rows, err := s.db.Query(`
		SELECT DISTINCT me.season, me.episode
		FROM mapping_episodes me
		JOIN mappings m ON m.id = me.mapping_id
		WHERE m.content_id = ?`, contentID)
	if err != nil {
		return nil, fmt.Errorf("present keys: %w", err)
	}
	defer func() { _ = rows.Close() }()

	keys := make(map[EpisodeKey]bool)
	for rows.Next() {
		var key EpisodeKey
		if err := rows.Scan(&key.Season, &key.Episode); err != nil {
			return nil, fmt.Errorf("scan present key: %w", err)
		}
		keys[key] = true
	}
	return keys, rows.Err()
}
