package audit

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/ziadkadry99/sprouts/internal/db"
)

// Store provides CRUD operations for audit events.
type Store struct {
	db *db.DB
}

// NewStore creates a Store backed by the given database.
func NewStore(database *db.DB) *Store {
	return &Store{db: database}
}

// Log inserts a new audit event. If event.ID is empty a UUID is generated;
// a zero Timestamp is replaced by the current time.
func (s *Store) Log(ctx context.Context, event Event) error {
	if event.ID == "" {
		event.ID = uuid.New().String()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	if event.Reasons == nil {
		event.Reasons = []string{}
	}

	reasons, err := json.Marshal(event.Reasons)
	if err != nil {
		return fmt.Errorf("marshalling reasons: %w", err)
	}

	var errText sql.NullString
	if event.Error != "" {
		errText = sql.NullString{String: event.Error, Valid: true}
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO safety_events (
			id, timestamp, endpoint, action, intent, must_block,
			category, severity, reasons, pii_masked, status_code, error
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		event.ID,
		event.Timestamp.UTC().Format(time.DateTime),
		event.Endpoint,
		event.Action,
		event.Intent,
		event.MustBlock,
		event.Category,
		event.Severity,
		string(reasons),
		event.PIIMasked,
		event.StatusCode,
		errText,
	)
	if err != nil {
		return fmt.Errorf("inserting audit event: %w", err)
	}
	return nil
}

// GetByID retrieves a single audit event.
func (s *Store) GetByID(ctx context.Context, id string) (*Event, error) {
	row := s.db.QueryRowContext(ctx, "SELECT "+columns+" FROM safety_events WHERE id = ?", id)
	return scanEvent(row)
}

// QueryFilter controls which audit events are returned by Query.
type QueryFilter struct {
	Action   string
	Category string
	Endpoint string
	Since    *time.Time
	Until    *time.Time
	Limit    int
	Offset   int
}

const columns = "id, timestamp, endpoint, action, intent, must_block, category, severity, reasons, pii_masked, status_code, error"

// Query returns audit events matching the filter, newest first.
func (s *Store) Query(ctx context.Context, filter QueryFilter) ([]Event, error) {
	var (
		clauses []string
		args    []any
	)

	if filter.Action != "" {
		clauses = append(clauses, "action = ?")
		args = append(args, filter.Action)
	}
	if filter.Category != "" {
		clauses = append(clauses, "category = ?")
		args = append(args, filter.Category)
	}
	if filter.Endpoint != "" {
		clauses = append(clauses, "endpoint = ?")
		args = append(args, filter.Endpoint)
	}
	if filter.Since != nil {
		clauses = append(clauses, "timestamp >= ?")
		args = append(args, filter.Since.UTC().Format(time.DateTime))
	}
	if filter.Until != nil {
		clauses = append(clauses, "timestamp <= ?")
		args = append(args, filter.Until.UTC().Format(time.DateTime))
	}

	query := "SELECT " + columns + " FROM safety_events"
	if len(clauses) > 0 {
		query += " WHERE " + strings.Join(clauses, " AND ")
	}
	query += " ORDER BY timestamp DESC, id"

	// SQLite needs a LIMIT before an OFFSET.
	if filter.Limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", filter.Limit)
	} else if filter.Offset > 0 {
		query += " LIMIT -1"
	}
	if filter.Offset > 0 {
		query += fmt.Sprintf(" OFFSET %d", filter.Offset)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying audit events: %w", err)
	}
	defer rows.Close()

	events := []Event{}
	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			return nil, err
		}
		events = append(events, *e)
	}
	return events, rows.Err()
}

// DeleteBefore removes all audit events older than the given time.
// Returns the number of deleted rows.
func (s *Store) DeleteBefore(ctx context.Context, before time.Time) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		"DELETE FROM safety_events WHERE timestamp < ?",
		before.UTC().Format(time.DateTime),
	)
	if err != nil {
		return 0, fmt.Errorf("deleting old audit events: %w", err)
	}
	return res.RowsAffected()
}

// Prune deletes events older than retention. A zero retention keeps
// everything.
func (s *Store) Prune(ctx context.Context, retention time.Duration) (int64, error) {
	if retention <= 0 {
		return 0, nil
	}
	return s.DeleteBefore(ctx, time.Now().Add(-retention))
}

// scanner is implemented by both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanEvent(sc scanner) (*Event, error) {
	var (
		e           Event
		ts          string
		reasonsJSON string
		errText     sql.NullString
	)

	err := sc.Scan(
		&e.ID, &ts, &e.Endpoint, &e.Action, &e.Intent, &e.MustBlock,
		&e.Category, &e.Severity, &reasonsJSON, &e.PIIMasked, &e.StatusCode, &errText,
	)
	if err != nil {
		return nil, err
	}

	e.Timestamp = parseTimestamp(ts)
	if errText.Valid {
		e.Error = errText.String
	}
	if err := json.Unmarshal([]byte(reasonsJSON), &e.Reasons); err != nil || e.Reasons == nil {
		e.Reasons = []string{}
	}

	return &e, nil
}

// parseTimestamp accepts the layout Log writes as well as the RFC 3339 form
// the driver returns for DATETIME columns.
func parseTimestamp(ts string) time.Time {
	for _, layout := range []string{time.DateTime, time.RFC3339Nano} {
		if t, err := time.Parse(layout, ts); err == nil {
			return t.UTC()
		}
	}
	return time.Time{}
}
