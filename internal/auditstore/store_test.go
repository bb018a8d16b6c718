package auditstore

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/southpawriter02/sidekick-sub001/internal/security"
)

func testEvent(id string, eventType security.EventType, blocked bool) security.Event {
	return security.Event{
		ID:          id,
		Type:        eventType,
		Severity:    security.SeverityCritical,
		Description: "description of " + id,
		Blocked:     blocked,
		Timestamp:   time.Now(),
	}
}

func openTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(filepath.Join(t.TempDir(), "audit", "events.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func TestSaveAndLoadRecent(t *testing.T) {
	store := openTestStore(t)

	require.NoError(t, store.Save(
		testEvent("evt-1", security.EventCommandBlocked, true),
		testEvent("evt-2", security.EventFileAccessBlocked, true),
		testEvent("evt-3", security.EventConfigUpdated, false),
	))

	count, err := store.Count()
	require.NoError(t, err)
	assert.Equal(t, 3, count)

	recent, err := store.LoadRecent(2)
	require.NoError(t, err)
	require.Len(t, recent, 2)
	assert.Equal(t, "evt-3", recent[0].ID)
	assert.Equal(t, "evt-2", recent[1].ID)

	assert.Equal(t, security.EventFileAccessBlocked, recent[1].Type)
	assert.Equal(t, security.SeverityCritical, recent[1].Severity)
	assert.True(t, recent[1].Blocked)
}

func TestSaveIsIdempotent(t *testing.T) {
	store := openTestStore(t)

	original := testEvent("evt-1", security.EventCommandBlocked, true)
	require.NoError(t, store.Save(original))

	replay := original
	replay.Description = "tampered replay"
	require.NoError(t, store.Save(replay))

	count, err := store.Count()
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	events, err := store.LoadRecent(10)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, original.Description, events[0].Description)
}

func TestTimestampRoundTrip(t *testing.T) {
	store := openTestStore(t)

	event := testEvent("evt-1", security.EventCommandBlocked, true)
	require.NoError(t, store.Save(event))

	events, err := store.LoadRecent(1)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.True(t, event.Timestamp.Equal(events[0].Timestamp),
		"expected %v, got %v", event.Timestamp, events[0].Timestamp)
}

func TestArchiveDrainsLog(t *testing.T) {
	store := openTestStore(t)

	log := security.NewEventLog()
	log.Append(testEvent("evt-1", security.EventCommandBlocked, true))
	log.Append(testEvent("evt-2", security.EventInjectionSuspected, false))

	require.NoError(t, store.Archive(log))

	count, err := store.Count()
	require.NoError(t, err)
	assert.Equal(t, 2, count)
	assert.Zero(t, log.Len(), "archiving should drain the in-memory log")

	// Archiving an empty log is a no-op.
	require.NoError(t, store.Archive(log))
}

func TestReopenPersists(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "events.db")

	store, err := Open(dbPath)
	require.NoError(t, err)
	require.NoError(t, store.Save(testEvent("evt-1", security.EventCommandBlocked, true)))
	require.NoError(t, store.Close())

	reopened, err := Open(dbPath)
	require.NoError(t, err)
	defer reopened.Close()

	count, err := reopened.Count()
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestLoadRecentLimits(t *testing.T) {
	store := openTestStore(t)

	events, err := store.LoadRecent(5)
	require.NoError(t, err)
	assert.Empty(t, events)

	events, err = store.LoadRecent(0)
	require.NoError(t, err)
	assert.Nil(t, events)
}
