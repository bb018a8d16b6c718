package security

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEventLogAppendAndOrder(t *testing.T) {
	log := NewEventLog()
	log.Append(newEvent(EventCommandBlocked, SeverityCritical, "first", true))
	log.Append(newEvent(EventFileAccessBlocked, SeverityHigh, "second", true))
	log.Append(newEvent(EventInjectionSuspected, SeverityWarning, "third", false))

	all := log.All()
	require.Len(t, all, 3)
	assert.Equal(t, "first", all[0].Description)
	assert.Equal(t, "third", all[2].Description)

	recent := log.Recent(2)
	require.Len(t, recent, 2)
	assert.Equal(t, "third", recent[0].Description)
	assert.Equal(t, "second", recent[1].Description)

	assert.Nil(t, log.Recent(0))
	assert.Nil(t, log.Recent(-1))
	assert.Len(t, log.Recent(100), 3)
}

func TestEventLogReturnsCopies(t *testing.T) {
	log := NewEventLog()
	log.Append(newEvent(EventCommandBlocked, SeverityHigh, "original", true))

	all := log.All()
	all[0].Description = "tampered"

	assert.Equal(t, "original", log.All()[0].Description)
}

func TestEventIDsUnique(t *testing.T) {
	log := NewEventLog()
	for i := 0; i < 50; i++ {
		log.Append(newEvent(EventCommandBlocked, SeverityHigh, "cmd", true))
	}

	seen := map[string]bool{}
	for _, event := range log.All() {
		require.NotEmpty(t, event.ID)
		require.False(t, seen[event.ID], "duplicate event id %s", event.ID)
		seen[event.ID] = true
	}
}

func TestEventLogCounts(t *testing.T) {
	log := NewEventLog()
	log.Append(newEvent(EventCommandBlocked, SeverityCritical, "a", true))
	log.Append(newEvent(EventCommandBlocked, SeverityHigh, "b", true))
	log.Append(newEvent(EventConfigUpdated, SeverityInfo, "c", false))

	counts := log.CountsByType()
	assert.Equal(t, 2, counts[EventCommandBlocked])
	assert.Equal(t, 1, counts[EventConfigUpdated])
	assert.Equal(t, 2, log.BlockedCount())
	assert.Equal(t, 3, log.Len())
}

func TestEventLogClearAndDrain(t *testing.T) {
	log := NewEventLog()
	log.Append(newEvent(EventCommandBlocked, SeverityHigh, "a", true))
	log.Append(newEvent(EventCommandBlocked, SeverityHigh, "b", true))

	drained := log.Drain()
	assert.Len(t, drained, 2)
	assert.Zero(t, log.Len())
	assert.Nil(t, log.Drain())

	log.Append(newEvent(EventCommandBlocked, SeverityHigh, "c", true))
	log.Clear()
	assert.Zero(t, log.Len())
	assert.Empty(t, log.All())
}

func TestEventLogConcurrentAppend(t *testing.T) {
	log := NewEventLog()

	var wg sync.WaitGroup
	for g := 0; g < 10; g++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 100; i++ {
				log.Append(newEvent(EventCommandBlocked, SeverityHigh, "hammer", true))
				_ = log.Recent(5)
				_ = log.Len()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1000, log.Len())
	assert.Equal(t, 1000, log.BlockedCount())
}
