package catalog

import (
	"fmt"
	"strings"
	"time"
)

const fileColumns = "id, path, size_bytes, mod_time, container, duration_ms, streams, quick_hash, first_seen, last_seen"

func scanFile(row interface{ Scan(...any) error }) (*MediaFile, error) {
	f := &MediaFile{}
	err := row.Scan(&f.ID, &f.Path, &f.SizeBytes, &f.ModTime, &f.Container,
		&f.DurationMS, &f.Streams, &f.QuickHash, &f.FirstSeen, &f.LastSeen)
	if err != nil {
		return nil, err
	}
	return f, nil
}

func upsertFile(q querier, f *MediaFile) error {
	now := time.Now()
	_, err := q.Exec(`
		INSERT INTO media_files (path, size_bytes, mod_time, container, duration_ms, streams, quick_hash, first_seen, last_seen)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (path) DO UPDATE SET
			size_bytes = excluded.size_bytes,
			mod_time = excluded.mod_time,
			container = excluded.container,
			duration_ms = excluded.duration_ms,
			streams = excluded.streams,
			quick_hash = excluded.quick_hash,
			last_seen = excluded.last_seen`,
		f.Path, f.SizeBytes, f.ModTime, f.Container, f.DurationMS, f.Streams, f.QuickHash, now, now,
	)
	if err != nil {
		return fmt.Errorf("upsert file %s: %w", f.Path, mapSQLiteError(err))
	}

	stored, err := scanFile(q.QueryRow("SELECT "+fileColumns+" FROM media_files WHERE path = ?", f.Path))
	if err != nil {
		return fmt.Errorf("read back file %s: %w", f.Path, mapSQLiteError(err))
	}
	*f = *stored
	return nil
}

// UpsertFile records a physical file, keyed by path. A re-observed path
// refreshes size/mtime/probe fields and last_seen but keeps its ID and
// first_seen, so mappings referencing the file survive re-scans.
func (s *Store) UpsertFile(f *MediaFile) error { return upsertFile(s.db, f) }

// UpsertFile records a physical file within a transaction.
func (t *Tx) UpsertFile(f *MediaFile) error { return upsertFile(t.tx, f) }

func getFileByPath(q querier, path string) (*MediaFile, error) {
	f, err := scanFile(q.QueryRow("SELECT "+fileColumns+" FROM media_files WHERE path = ?", path))
	if err != nil {
		return nil, fmt.Errorf("get file %s: %w", path, mapSQLiteError(err))
	}
	return f, nil
}

// GetFileByPath retrieves a file record by its unique path.
// Returns ErrNotFound if the path has never been observed.
func (s *Store) GetFileByPath(path string) (*MediaFile, error) { return getFileByPath(s.db, path) }

// GetFileByPath retrieves a file record within a transaction.
func (t *Tx) GetFileByPath(path string) (*MediaFile, error) { return getFileByPath(t.tx, path) }

// ListFiles returns files matching the filter, ordered by path.
// Returns (results, totalCount, error).
func (s *Store) ListFiles(f FileFilter) ([]*MediaFile, int, error) {
	var conditions []string
	var args []any

	if f.PathPrefix != nil {
		conditions = append(conditions, "path LIKE ? ESCAPE '\\'")
		args = append(args, likePrefix(*f.PathPrefix))
	}
	if f.Unmapped {
		conditions = append(conditions, "id NOT IN (SELECT file_id FROM mapping_files)")
	}

	whereClause := ""
	if len(conditions) > 0 {
		whereClause = "WHERE " + strings.Join(conditions, " AND ")
	}

	var total int
	if err := s.db.QueryRow("SELECT COUNT(*) FROM media_files "+whereClause, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count files: %w", err)
	}

	query := "SELECT " + fileColumns + " FROM media_files " + whereClause + " ORDER BY path"
	if f.Limit > 0 {
		query += fmt.Sprintf(" LIMIT %d OFFSET %d", f.Limit, f.Offset)
	}

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list files: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var results []*MediaFile
	for rows.Next() {
		file, err := scanFile(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan file: %w", err)
		}
		results = append(results, file)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate files: %w", err)
	}

	return results, total, nil
}

// DeleteFile removes a file record by ID. Mapping membership rows go
// with it via cascade. Idempotent.
func (s *Store) DeleteFile(id int64) error {
	_, err := s.db.Exec("DELETE FROM media_files WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("delete file %d: %w", id, mapSQLiteError(err))
	}
	return nil
}

func likePrefix(prefix string) string {
	escaped := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(prefix)
	return escaped + "%"
}
