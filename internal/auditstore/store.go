// Package auditstore persists security events to SQLite so a host can
// review refusals after the process that recorded them is gone.
package auditstore

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/southpawriter02/sidekick-sub001/internal/security"
)

// Store is a SQLite-backed archive of security events.
type Store struct {
	db     *sql.DB
	dbPath string
}

// Open opens or creates the event archive at dbPath.
func Open(dbPath string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if _, err := db.Exec("PRAGMA journal_mode = WAL"); err != nil {
		return nil, fmt.Errorf("failed to set journal mode: %w", err)
	}

	store := &Store{db: db, dbPath: dbPath}
	if err := store.migrate(); err != nil {
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	return store, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS security_events (
		id TEXT PRIMARY KEY,
		type TEXT NOT NULL,
		severity TEXT NOT NULL,
		description TEXT NOT NULL,
		blocked BOOLEAN NOT NULL,
		timestamp TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_security_events_timestamp
		ON security_events(timestamp);
	`
	_, err := s.db.Exec(schema)
	return err
}

// Save writes events to the archive. Event IDs are primary keys and saving
// is idempotent: an event that is already stored is left untouched, so
// re-archiving an overlapping batch cannot duplicate history.
func (s *Store) Save(events ...security.Event) error {
	if len(events) == 0 {
		return nil
	}

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(`
		INSERT OR IGNORE INTO security_events
			(id, type, severity, description, blocked, timestamp)
		VALUES (?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer stmt.Close()

	for _, event := range events {
		_, err := stmt.Exec(
			event.ID,
			string(event.Type),
			event.Severity.String(),
			event.Description,
			event.Blocked,
			event.Timestamp.UTC().Format(time.RFC3339Nano),
		)
		if err != nil {
			return fmt.Errorf("failed to insert event %s: %w", event.ID, err)
		}
	}
	return tx.Commit()
}

// Archive drains the in-memory log into the store in one batch.
func (s *Store) Archive(log *security.EventLog) error {
	return s.Save(log.Drain()...)
}

// LoadRecent returns up to limit events, newest first.
func (s *Store) LoadRecent(limit int) ([]security.Event, error) {
	if limit <= 0 {
		return nil, nil
	}

	rows, err := s.db.Query(`
		SELECT id, type, severity, description, blocked, timestamp
		FROM security_events
		ORDER BY rowid DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query events: %w", err)
	}
	defer rows.Close()

	var events []security.Event
	for rows.Next() {
		var (
			event             security.Event
			typ, severity, ts string
		)
		if err := rows.Scan(&event.ID, &typ, &severity, &event.Description, &event.Blocked, &ts); err != nil {
			return nil, fmt.Errorf("failed to scan event: %w", err)
		}
		event.Type = security.EventType(typ)
		event.Severity = security.ParseSeverity(severity)
		if event.Timestamp, err = time.Parse(time.RFC3339Nano, ts); err != nil {
			return nil, fmt.Errorf("failed to parse timestamp %q: %w", ts, err)
		}
		events = append(events, event)
	}
	return events, rows.Err()
}

// Count returns the number of archived events.
func (s *Store) Count() (int, error) {
	var count int
	err := s.db.QueryRow("SELECT COUNT(*) FROM security_events").Scan(&count)
	return count, err
}
