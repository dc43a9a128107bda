// Package audit persists the route-table change trail in SQLite.
package audit

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "modernc.org/sqlite"

	"grimm.is/directroute/internal/clock"
)

// DefaultRetentionDays applies when no retention is configured.
const DefaultRetentionDays = 90

// Event is one route-table change.
type Event struct {
	ID          int64          `json:"id"`
	Timestamp   time.Time      `json:"timestamp"`
	Action      string         `json:"action"`
	Destination string         `json:"destination"`
	Details     map[string]any `json:"details,omitempty"`
	Result      string         `json:"result"`
}

// Filter narrows Query. Zero fields match everything.
type Filter struct {
	Since       time.Time
	Until       time.Time
	Action      string
	Destination string
	Limit       int
}

// Store provides persistent storage for audit events.
type Store struct {
	mu            sync.RWMutex
	db            *sql.DB
	retentionDays int
}

// NewStore opens or creates the audit database at dbPath.
func NewStore(dbPath string, retentionDays int) (*Store, error) {
	if dbPath != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(dbPath), 0o750); err != nil {
			return nil, fmt.Errorf("create audit dir: %w", err)
		}
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open audit db: %w", err)
	}
	// One connection keeps ":memory:" databases shared.
	db.SetMaxOpenConns(1)

	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS route_events (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			timestamp DATETIME NOT NULL,
			action TEXT NOT NULL,
			destination TEXT NOT NULL,
			details TEXT,
			result TEXT NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_route_events_timestamp ON route_events(timestamp);
		CREATE INDEX IF NOT EXISTS idx_route_events_destination ON route_events(destination);
	`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("create audit table: %w", err)
	}

	if retentionDays <= 0 {
		retentionDays = DefaultRetentionDays
	}
	return &Store{db: db, retentionDays: retentionDays}, nil
}

// Record persists an event. A zero timestamp is set to now.
func (s *Store) Record(ctx context.Context, evt Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if evt.Timestamp.IsZero() {
		evt.Timestamp = clock.Now()
	}

	var detailsJSON []byte
	if evt.Details != nil {
		var err error
		detailsJSON, err = json.Marshal(evt.Details)
		if err != nil {
			detailsJSON = []byte("{}")
		}
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO route_events (timestamp, action, destination, details, result)
		VALUES (?, ?, ?, ?, ?)
	`, evt.Timestamp.UTC(), evt.Action, evt.Destination, string(detailsJSON), evt.Result)
	if err != nil {
		return fmt.Errorf("insert audit event: %w", err)
	}
	return nil
}

// Query returns matching events, newest first.
func (s *Store) Query(ctx context.Context, f Filter) ([]Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	query := `SELECT id, timestamp, action, destination, details, result FROM route_events WHERE 1=1`
	var args []any

	if !f.Since.IsZero() {
		query += " AND timestamp >= ?"
		args = append(args, f.Since.UTC())
	}
	if !f.Until.IsZero() {
		query += " AND timestamp <= ?"
		args = append(args, f.Until.UTC())
	}
	if f.Action != "" {
		query += " AND action = ?"
		args = append(args, f.Action)
	}
	if f.Destination != "" {
		query += " AND destination = ?"
		args = append(args, f.Destination)
	}

	query += " ORDER BY timestamp DESC, id DESC"
	if f.Limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", f.Limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query audit events: %w", err)
	}
	defer rows.Close()

	var events []Event
	for rows.Next() {
		var evt Event
		var detailsJSON sql.NullString

		if err := rows.Scan(&evt.ID, &evt.Timestamp, &evt.Action, &evt.Destination, &detailsJSON, &evt.Result); err != nil {
			return nil, fmt.Errorf("scan audit event: %w", err)
		}
		if detailsJSON.Valid && detailsJSON.String != "" {
			_ = json.Unmarshal([]byte(detailsJSON.String), &evt.Details)
		}
		events = append(events, evt)
	}
	return events, rows.Err()
}

// Prune removes events older than the retention period.
func (s *Store) Prune(ctx context.Context) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cutoff := clock.Now().AddDate(0, 0, -s.retentionDays).UTC()
	result, err := s.db.ExecContext(ctx, "DELETE FROM route_events WHERE timestamp < ?", cutoff)
	if err != nil {
		return 0, fmt.Errorf("prune audit events: %w", err)
	}
	return result.RowsAffected()
}

// Count returns the total number of events in the store.
func (s *Store) Count(ctx context.Context) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var count int64
	err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM route_events").Scan(&count)
	return count, err
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}
