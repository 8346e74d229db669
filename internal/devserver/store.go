// Package devserver implements a development backend providing the HTTP and
// websocket contracts the dashboard consumes. It stores pre-computed
// validation results; it performs no validation of its own.
package devserver

import (
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	"github.com/hookview/dashboard/internal/models"
)

// LogStore persists ingested events in sqlite.
type LogStore struct {
	db *sql.DB
}

const schema = `
CREATE TABLE IF NOT EXISTS logs (
	id                 TEXT PRIMARY KEY,
	app_id             INTEGER NOT NULL,
	event_name         TEXT NOT NULL,
	created_at         TEXT NOT NULL,
	payload            TEXT,
	validation_results TEXT,
	validation_message TEXT,
	is_valid           INTEGER NOT NULL DEFAULT 0
);
CREATE INDEX IF NOT EXISTS idx_logs_app_created ON logs(app_id, created_at DESC);
`

// NewLogStore opens (or creates) the database at path. Use ":memory:" for
// tests.
func NewLogStore(path string) (*LogStore, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("opening database %s: %w", path, err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}
	return &LogStore{db: db}, nil
}

// Close releases the database handle.
func (s *LogStore) Close() error {
	return s.db.Close()
}

// Insert stores one event for an app.
func (s *LogStore) Insert(appID int, e models.LogEvent) error {
	payload, err := json.Marshal(e.Payload)
	if err != nil {
		return fmt.Errorf("encoding payload: %w", err)
	}
	results, err := json.Marshal(e.ValidationResults)
	if err != nil {
		return fmt.Errorf("encoding validation results: %w", err)
	}

	createdAt := e.CreatedAt
	if createdAt == "" {
		createdAt = e.Timestamp
	}

	_, err = s.db.Exec(
		`INSERT INTO logs (id, app_id, event_name, created_at, payload, validation_results, validation_message, is_valid)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		uuid.New().String(), appID, e.EventName, createdAt,
		string(payload), string(results), e.ValidationMessage, boolToInt(isFullyValid(e)),
	)
	if err != nil {
		return fmt.Errorf("inserting log: %w", err)
	}
	return nil
}

// isFullyValid reports whether an event has validation results and every one
// of them is Valid.
func isFullyValid(e models.LogEvent) bool {
	if len(e.ValidationResults) == 0 {
		return false
	}
	for _, r := range e.ValidationResults {
		if r.ValidationStatus != models.StatusValid {
			return false
		}
	}
	return true
}

// Page returns one newest-first page of events plus the total count.
func (s *LogStore) Page(appID, page, limit int) (*models.LogsPage, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 50
	}

	var total int
	if err := s.db.QueryRow(`SELECT COUNT(*) FROM logs WHERE app_id = ?`, appID).Scan(&total); err != nil {
		return nil, fmt.Errorf("counting logs: %w", err)
	}

	rows, err := s.db.Query(
		`SELECT event_name, created_at, payload, validation_results, validation_message
		 FROM logs WHERE app_id = ?
		 ORDER BY created_at DESC
		 LIMIT ? OFFSET ?`,
		appID, limit, (page-1)*limit,
	)
	if err != nil {
		return nil, fmt.Errorf("querying logs: %w", err)
	}
	defer rows.Close()

	out := &models.LogsPage{Total: total, Logs: make([]models.LogEvent, 0, limit)}
	for rows.Next() {
		var e models.LogEvent
		var payload, results string
		if err := rows.Scan(&e.EventName, &e.CreatedAt, &payload, &results, &e.ValidationMessage); err != nil {
			return nil, fmt.Errorf("scanning log row: %w", err)
		}
		if payload != "" && payload != "null" {
			_ = json.Unmarshal([]byte(payload), &e.Payload)
		}
		if results != "" && results != "null" {
			_ = json.Unmarshal([]byte(results), &e.ValidationResults)
		}
		out.Logs = append(out.Logs, e)
	}
	return out, rows.Err()
}

// Stats returns the aggregate event counters for an app.
func (s *LogStore) Stats(appID int) (*models.Stats, error) {
	var stats models.Stats
	err := s.db.QueryRow(
		`SELECT COUNT(*), COALESCE(SUM(is_valid), 0) FROM logs WHERE app_id = ?`,
		appID,
	).Scan(&stats.Total, &stats.Valid)
	if err != nil {
		return nil, fmt.Errorf("querying stats: %w", err)
	}
	stats.Invalid = stats.Total - stats.Valid
	return &stats, nil
}

// ObservedEventNames returns the distinct event names seen for an app.
func (s *LogStore) ObservedEventNames(appID int) ([]string, error) {
	rows, err := s.db.Query(
		`SELECT DISTINCT event_name FROM logs WHERE app_id = ? ORDER BY event_name`,
		appID,
	)
	if err != nil {
		return nil, fmt.Errorf("querying event names: %w", err)
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var n string
		if err := rows.Scan(&n); err != nil {
			return nil, fmt.Errorf("scanning event name: %w", err)
		}
		names = append(names, n)
	}
	return names, rows.Err()
}

// DeleteAll removes every log for an app and returns how many were deleted.
func (s *LogStore) DeleteAll(appID int) (int, error) {
	res, err := s.db.Exec(`DELETE FROM logs WHERE app_id = ?`, appID)
	if err != nil {
		return 0, fmt.Errorf("deleting logs: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("reading delete count: %w", err)
	}
	return int(n), nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
