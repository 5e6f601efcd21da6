package persistence

import (
	"encoding/json"
	"fmt"
	"time"

	"jobpilot/pkg/resilience/deadletter"
)

// SaveDeadLetter implements deadletter.Archive, persisting one record.
func (s *Store) SaveDeadLetter(rec deadletter.Record) error {
	payload, err := json.Marshal(rec.Payload)
	if err != nil {
		return fmt.Errorf("failed to marshal dead letter payload: %w", err)
	}

	_, err = s.db.Exec(
		`INSERT INTO dead_letters (id, operation, payload, error, priority, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		rec.ID, rec.Operation, string(payload), rec.Error, string(rec.Priority), rec.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert dead letter %s: %w", rec.ID, err)
	}
	return nil
}

// ListDeadLetters returns persisted records, newest first, for operator
// inspection and manual replay.
func (s *Store) ListDeadLetters(limit int) ([]deadletter.Record, error) {
	if limit <= 0 {
		limit = 100
	}

	rows, err := s.db.Query(
		`SELECT id, operation, payload, error, priority, created_at
		 FROM dead_letters ORDER BY created_at DESC LIMIT ?`, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query dead letters: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var recs []deadletter.Record
	for rows.Next() {
		var rec deadletter.Record
		var payload, priority string
		var createdAt time.Time
		if err := rows.Scan(&rec.ID, &rec.Operation, &payload, &rec.Error, &priority, &createdAt); err != nil {
			return nil, fmt.Errorf("failed to scan dead letter: %w", err)
		}
		if err := json.Unmarshal([]byte(payload), &rec.Payload); err != nil {
			return nil, fmt.Errorf("failed to unmarshal dead letter payload: %w", err)
		}
		rec.Priority = deadletter.Priority(priority)
		rec.CreatedAt = createdAt
		recs = append(recs, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate dead letters: %w", err)
	}
	return recs, nil
}
