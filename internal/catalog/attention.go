package catalog

import (
	"fmt"
	"strings"
	"time"
)

func addAttention(q querier, a *Attention) error {
	// One open entry per (content, kind, detail); re-flagging the same
	// condition on every scan pass must not pile up duplicates.
	var existing int64
	err := q.QueryRow(`
		SELECT id FROM attention
		WHERE content_id = ? AND kind = ? AND detail = ? AND resolved_at IS NULL`,
		a.ContentID, a.Kind, a.Detail,
	).Scan(&existing)
	if err == nil {
		a.ID = existing
		return nil
	}

	now := time.Now()
	result, err := q.Exec(`
		INSERT INTO attention (content_id, kind, detail, created_at) VALUES (?, ?, ?, ?)`,
		a.ContentID, a.Kind, a.Detail, now,
	)
	if err != nil {
		return fmt.Errorf("insert attention: %w", mapSQLiteError(err))
	}
	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("get last insert id: %w", err)
	}
	a.ID = id
	a.CreatedAt = now
	return nil
}

// AddAttention files an entry in the needs-attention queue. Re-filing an
// identical open entry is a no-op that returns the existing ID.
func (s *Store) AddAttention(a *Attention) error { return addAttention(s.db, a) }

// AddAttention files an entry within a transaction.
func (t *Tx) AddAttention(a *Attention) error { return addAttention(t.tx, a) }

// ResolveAttention marks an entry handled by an operator. Idempotent.
func (s *Store) ResolveAttention(id int64) error {
	_, err := s.db.Exec(`
		UPDATE attention SET resolved_at = ? WHERE id = ? AND resolved_at IS NULL`,
		time.Now(), id,
	)
	if err != nil {
		return fmt.Errorf("resolve attention %d: %w", id, mapSQLiteError(err))
	}
	return nil
}

// ListAttention returns queue entries matching the filter, oldest first.
// Returns (results, totalCount, error).
func (s *Store) ListAttention(f AttentionFilter) ([]*Attention, int, error) {
	conditions := []string{}
	var args []any

	if !f.Resolved {
		conditions = append(conditions, "resolved_at IS NULL")
	}
	if f.ContentID != nil {
		conditions = append(conditions, "content_id = ?")
		args = append(args, *f.ContentID)
	}
	if f.Kind != nil {
		conditions = append(conditions, "kind = ?")
		args = append(args, *f.Kind)
	}

	whereClause := ""
	if len(conditions) > 0 {
		whereClause = "WHERE " + strings.Join(conditions, " AND ")
	}

	var total int
	if err := s.db.QueryRow("SELECT COUNT(*) FROM attention "+whereClause, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count attention: %w", err)
	}

	query := `SELECT id, content_id, kind, detail, created_at, resolved_at
		FROM attention ` + whereClause + " ORDER BY id"
	if f.Limit > 0 {
		query += fmt.Sprintf(" LIMIT %d OFFSET %d", f.Limit, f.Offset)
	}

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list attention: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var results []*Attention
	for rows.Next() {
		a := &Attention{}
		if err := rows.Scan(&a.ID, &a.ContentID, &a.Kind, &a.Detail, &a.CreatedAt, &a.ResolvedAt); err != nil {
			return nil, 0, fmt.Errorf("scan attention: %w", err)
		}
		results = append(results, a)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate attention: %w", err)
	}

	return results, total, nil
}
