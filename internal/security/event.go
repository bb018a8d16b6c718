package security

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// EventType classifies audit log entries.
type EventType string

const (
	EventCommandBlocked     EventType = "COMMAND_BLOCKED"
	EventFileAccessBlocked  EventType = "FILE_ACCESS_BLOCKED"
	EventInjectionSuspected EventType = "INJECTION_SUSPECTED"
	EventConfigUpdated      EventType = "CONFIG_UPDATED"
)

// Event is one append-only audit record. IDs are globally unique.
type Event struct {
	ID          string    `json:"id"`
	Type        EventType `json:"type"`
	Severity    Severity  `json:"severity"`
	Description string    `json:"description"`
	Blocked     bool      `json:"blocked"`
	Timestamp   time.Time `json:"timestamp"`
}

func newEvent(eventType EventType, severity Severity, description string, blocked bool) Event {
	return Event{
		ID:          uuid.New().String(),
		Type:        eventType,
		Severity:    severity,
		Description: description,
		Blocked:     blocked,
		Timestamp:   time.Now(),
	}
}

// EventLog is a thread-safe, append-only, in-memory audit log. One instance
// is injected per sandbox; persistence is the caller's concern (see Drain).
type EventLog struct {
	mu     sync.RWMutex
	events []Event
}

// NewEventLog creates an empty event log.
func NewEventLog() *EventLog {
	return &EventLog{}
}

// Append adds an event to the log.
func (l *EventLog) Append(event Event) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.events = append(l.events, event)
}

// All returns a copy of every event, oldest first.
func (l *EventLog) All() []Event {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make([]Event, len(l.events))
	copy(out, l.events)
	return out
}

// Recent returns up to n events, newest first.
func (l *EventLog) Recent(n int) []Event {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if n <= 0 {
		return nil
	}
	if n > len(l.events) {
		n = len(l.events)
	}
	out := make([]Event, 0, n)
	for i := len(l.events) - 1; i >= len(l.events)-n; i-- {
		out = append(out, l.events[i])
	}
	return out
}

// Clear discards all events.
func (l *EventLog) Clear() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.events = nil
}

// Drain atomically returns all events, oldest first, and clears the log.
// Intended for handing batches to an export sink.
func (l *EventLog) Drain() []Event {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := l.events
	l.events = nil
	return out
}

// Len returns the number of stored events.
func (l *EventLog) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.events)
}

// CountsByType returns the number of stored events per type.
func (l *EventLog) CountsByType() map[EventType]int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	counts := make(map[EventType]int, len(l.events))
	for _, event := range l.events {
		counts[event.Type]++
	}
	return counts
}

// BlockedCount returns how many stored events recorded a blocked operation.
func (l *EventLog) BlockedCount() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	blocked := 0
	for _, event := range l.events {
		if event.Blocked {
			blocked++
		}
	}
	return blocked
}
