package events

import (
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"

	"github.com/catarr/catarr/internal/migrations"
)

func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	require.NoError(t, migrations.Apply(db))
	return db
}

func TestEventLog_Append(t *testing.T) {
	db := setupTestDB(t)
	log := NewEventLog(db)

	e := &FileIdentified{
		BaseEvent:  NewBaseEvent(EventFileIdentified, EntityFile, 7),
		FileID:     7,
		ContentID:  3,
		MappingID:  11,
		Shape:      "single",
		Rule:       "sxxeyy",
		Confidence: 0.95,
	}

	id, err := log.Append(e)
	require.NoError(t, err)
	assert.Positive(t, id)

	stored, err := log.ForEntity(EntityFile, 7)
	require.NoError(t, err)
	require.Len(t, stored, 1)
	assert.Equal(t, EventFileIdentified, stored[0].EventType)
	assert.Contains(t, stored[0].Payload, `"rule":"sxxeyy"`)
}

func TestEventLog_Since(t *testing.T) {
	db := setupTestDB(t)
	log := NewEventLog(db)

	old := &ScanStarted{BaseEvent: BaseEvent{
		Type: EventScanStarted, Entity: EntityFile, ID: 0,
		Timestamp: time.Now().Add(-2 * time.Hour),
	}}
	recent := &ScanCompleted{BaseEvent: NewBaseEvent(EventScanCompleted, EntityFile, 0), Files: 12}

	_, err := log.Append(old)
	require.NoError(t, err)
	_, err = log.Append(recent)
	require.NoError(t, err)

	since, err := log.Since(time.Now().Add(-time.Hour))
	require.NoError(t, err)
	require.Len(t, since, 1)
	assert.Equal(t, EventScanCompleted, since[0].EventType)
}

func TestEventLog_Prune(t *testing.T) {
	db := setupTestDB(t)
	log := NewEventLog(db)

	old := &ScanStarted{BaseEvent: BaseEvent{
		Type: EventScanStarted, Entity: EntityFile, ID: 0,
		Timestamp: time.Now().Add(-48 * time.Hour),
	}}
	_, err := log.Append(old)
	require.NoError(t, err)
	_, err = log.Append(&ScanCompleted{BaseEvent: NewBaseEvent(EventScanCompleted, EntityFile, 0)})
	require.NoError(t, err)

	pruned, err := log.Prune(24 * time.Hour)
	require.NoError(t, err)
	assert.Equal(t, int64(1), pruned)

	remaining, err := log.Since(time.Time{})
	require.NoError(t, err)
	assert.Len(t, remaining, 1)
}
