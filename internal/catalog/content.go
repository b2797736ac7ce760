package catalog

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

const contentColumns = `id, uuid, type, title, clean_title, year, ordering, date_ordered,
	canonical_provider, fallback_provider, image_base, added_at, updated_at`

func scanContent(row interface{ Scan(...any) error }) (*Content, error) {
	c := &Content{}
	err := row.Scan(&c.ID, &c.UUID, &c.Type, &c.Title, &c.CleanTitle, &c.Year,
		&c.Ordering, &c.DateOrdered, &c.CanonicalProvider, &c.FallbackProvider,
		&c.ImageBase, &c.AddedAt, &c.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return c, nil
}

func addContent(q querier, c *Content) error {
	now := time.Now()
	if c.UUID == "" {
		c.UUID = uuid.NewString()
	}
	if c.Ordering == "" {
		c.Ordering = OrderingAired
	}
	result, err := q.Exec(`
		INSERT INTO content (uuid, type, title, clean_title, year, ordering, date_ordered,
			canonical_provider, fallback_provider, image_base, added_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		c.UUID, c.Type, c.Title, c.CleanTitle, c.Year, c.Ordering, c.DateOrdered,
		c.CanonicalProvider, c.FallbackProvider, c.ImageBase, now, now,
	)
	if err != nil {
		return fmt.Errorf("insert content: %w", mapSQLiteError(err))
	}
	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("get last insert id: %w", err)
	}
	c.ID = id
	c.AddedAt = now
	c.UpdatedAt = now
	return nil
}

// AddContent inserts a new content item. Assigns the stable UUID when
// the caller did not, and sets ID, AddedAt, and UpdatedAt on the struct.
func (s *Store) AddContent(c *Content) error { return addContent(s.db, c) }

// AddContent inserts a new content item within a transaction.
func (t *Tx) AddContent(c *Content) error { return addContent(t.tx, c) }

func getContent(q querier, id int64) (*Content, error) {
	c, err := scanContent(q.QueryRow(
		"SELECT "+contentColumns+" FROM content WHERE id = ?", id))
	if err != nil {
		return nil, fmt.Errorf("get content %d: %w", id, mapSQLiteError(err))
	}
	return c, nil
}

// GetContent retrieves a content item by ID.
// Returns ErrNotFound if the content does not exist.
func (s *Store) GetContent(id int64) (*Content, error) { return getContent(s.db, id) }

// GetContent retrieves a content item by ID within a transaction.
func (t *Tx) GetContent(id int64) (*Content, error) { return getContent(t.tx, id) }

func updateContent(q querier, c *Content) error {
	now := time.Now()
	result, err := q.Exec(`
		UPDATE content SET title = ?, clean_title = ?, year = ?, ordering = ?,
			date_ordered = ?, canonical_provider = ?, fallback_provider = ?,
			image_base = ?, updated_at = ?
		WHERE id = ?`,
		c.Title, c.CleanTitle, c.Year, c.Ordering, c.DateOrdered,
		c.CanonicalProvider, c.FallbackProvider, c.ImageBase, now, c.ID,
	)
	if err != nil {
		return fmt.Errorf("update content %d: %w", c.ID, mapSQLiteError(err))
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("update content %d: %w", c.ID, ErrNotFound)
	}
	c.UpdatedAt = now
	return nil
}

// UpdateContent updates an existing content item. The UUID and type are
// immutable and never written. Returns ErrNotFound if the row is gone.
func (s *Store) UpdateContent(c *Content) error { return updateContent(s.db, c) }

// UpdateContent updates an existing content item within a transaction.
func (t *Tx) UpdateContent(c *Content) error { return updateContent(t.tx, c) }

func listContent(q querier, f ContentFilter) ([]*Content, int, error) {
	var conditions []string
	var args []any

	if f.Type != nil {
		conditions = append(conditions, "type = ?")
		args = append(args, *f.Type)
	}
	if f.CleanTitle != nil {
		conditions = append(conditions, "clean_title = ?")
		args = append(args, *f.CleanTitle)
	}
	if f.Year != nil {
		conditions = append(conditions, "year = ?")
		args = append(args, *f.Year)
	}

	whereClause := ""
	if len(conditions) > 0 {
		whereClause = "WHERE " + strings.Join(conditions, " AND ")
	}

	var total int
	if err := q.QueryRow("SELECT COUNT(*) FROM content "+whereClause, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count content: %w", err)
	}

	query := "SELECT " + contentColumns + " FROM content " + whereClause + " ORDER BY clean_title, year"
	if f.Limit > 0 {
		query += fmt.Sprintf(" LIMIT %d OFFSET %d", f.Limit, f.Offset)
	}

	rows, err := q.Query(query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list content: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var results []*Content
	for rows.Next() {
		c, err := scanContent(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan content: %w", err)
		}
		results = append(results, c)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate content: %w", err)
	}

	return results, total, nil
}

// ListContent returns content matching the filter with pagination.
// Returns (results, totalCount, error).
func (s *Store) ListContent(f ContentFilter) ([]*Content, int, error) { return listContent(s.db, f) }

// ListContent returns content matching the filter within a transaction.
func (t *Tx) ListContent(f ContentFilter) ([]*Content, int, error) { return listContent(t.tx, f) }

// GetByExternalID finds the content row carrying the given provider
// identifier. Returns ErrNotFound when no row carries it.
func (s *Store) GetByExternalID(provider, value string) (*Content, error) {
	c, err := scanContent(s.db.QueryRow(`
		SELECT `+contentColumns+` FROM content
		WHERE id = (SELECT content_id FROM external_ids WHERE provider = ? AND value = ?)`,
		provider, value))
	if err != nil {
		return nil, fmt.Errorf("get content by %s:%s: %w", provider, value, mapSQLiteError(err))
	}
	return c, nil
}

// GetByTitleYear finds content by normalized title and year.
// Returns ErrNotFound when no such identity exists.
func (s *Store) GetByTitleYear(cleanTitle string, year int) (*Content, error) {
	results, _, err := s.ListContent(ContentFilter{CleanTitle: &cleanTitle, Year: &year, Limit: 1})
	if err != nil {
		return nil, err
	}
	if len(results) == 0 {
		return nil, fmt.Errorf("get content %q (%d): %w", cleanTitle, year, ErrNotFound)
	}
	return results[0], nil
}

func setExternalID(q querier, e ExternalID) error {
	var locked bool
	err := q.QueryRow(`
		SELECT locked FROM external_ids WHERE content_id = ? AND provider = ?`,
		e.ContentID, e.Provider,
	).Scan(&locked)
	if err == nil && locked && !e.Locked {
		return fmt.Errorf("set external id %s for content %d: %w", e.Provider, e.ContentID, ErrLocked)
	}

	_, err = q.Exec(`
		INSERT INTO external_ids (content_id, provider, value, locked)
		VALUES (?, ?, ?, ?)
		ON CONFLICT (content_id, provider) DO UPDATE SET value = excluded.value, locked = excluded.locked`,
		e.ContentID, e.Provider, e.Value, e.Locked,
	)
	if err != nil {
		return fmt.Errorf("set external id: %w", mapSQLiteError(err))
	}
	return nil
}

// SetExternalID upserts one provider identifier for a content row.
// An existing locked row is only written when the caller also passes
// Locked (the user-edit path); automated merges get ErrLocked.
func (s *Store) SetExternalID(e ExternalID) error { return setExternalID(s.db, e) }

// SetExternalID upserts one provider identifier within a transaction.
func (t *Tx) SetExternalID(e ExternalID) error { return setExternalID(t.tx, e) }

// ListExternalIDs returns all provider identifiers for a content row.
func (s *Store) ListExternalIDs(contentID int64) ([]ExternalID, error) {
	rows, err := s.db.Query(`
		SELECT content_id, provider, value, locked FROM external_ids
		WHERE content_id = ? ORDER BY provider`, contentID)
	if err != nil {
		return nil, fmt.Errorf("list external ids: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var results []ExternalID
	for rows.Next() {
		var e ExternalID
		if err := rows.Scan(&e.ContentID, &e.Provider, &e.Value, &e.Locked); err != nil {
			return nil, fmt.Errorf("scan external id: %w", err)
		}
		results = append(results, e)
	}
	return results, rows.Err()
}
