package persistence

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// SessionRecord is the stored form of an agent session. Memory and Metrics
// are kept as JSON so the session package can evolve its shapes without
// schema migrations.
type SessionRecord struct {
	ID        string          `json:"id"`
	Status    string          `json:"status"`
	Memory    json.RawMessage `json:"memory"`
	Metrics   json.RawMessage `json:"metrics"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// SaveSession upserts a session row.
func (s *Store) SaveSession(rec SessionRecord) error {
	memory := rec.Memory
	if len(memory) == 0 {
		memory = json.RawMessage("[]")
	}
	metrics := rec.Metrics
	if len(metrics) == 0 {
		metrics = json.RawMessage("{}")
	}

	now := time.Now().UTC()
	createdAt := rec.CreatedAt
	if createdAt.IsZero() {
		createdAt = now
	}

	_, err := s.db.Exec(
		`INSERT INTO sessions (id, status, memory, metrics, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET
			status = excluded.status,
			memory = excluded.memory,
			metrics = excluded.metrics,
			updated_at = excluded.updated_at`,
		rec.ID, rec.Status, string(memory), string(metrics), createdAt, now,
	)
	if err != nil {
		return fmt.Errorf("failed to save session %s: %w", rec.ID, err)
	}
	return nil
}

// SaveSessionSnapshot is the write-through entry point used by the session
// store. Memory and metrics arrive pre-marshaled.
func (s *Store) SaveSessionSnapshot(id string, status string, memory, metrics []byte) error {
	return s.SaveSession(SessionRecord{
		ID:      id,
		Status:  status,
		Memory:  json.RawMessage(memory),
		Metrics: json.RawMessage(metrics),
	})
}

// LoadSession returns the stored session or ErrNotFound.
func (s *Store) LoadSession(id string) (SessionRecord, error) {
	var (
		rec     SessionRecord
		memory  string
		metrics string
	)
	err := s.db.QueryRow(
		`SELECT id, status, memory, metrics, created_at, updated_at FROM sessions WHERE id = ?`, id,
	).Scan(&rec.ID, &rec.Status, &memory, &metrics, &rec.CreatedAt, &rec.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return SessionRecord{}, fmt.Errorf("session %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return SessionRecord{}, fmt.Errorf("failed to load session %s: %w", id, err)
	}
	rec.Memory = json.RawMessage(memory)
	rec.Metrics = json.RawMessage(metrics)
	return rec, nil
}

// ListSessions returns session rows newest-first, up to limit.
func (s *Store) ListSessions(limit int) ([]SessionRecord, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := s.db.Query(
		`SELECT id, status, memory, metrics, created_at, updated_at
		 FROM sessions ORDER BY updated_at DESC LIMIT ?`, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list sessions: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []SessionRecord
	for rows.Next() {
		var (
			rec     SessionRecord
			memory  string
			metrics string
		)
		if err := rows.Scan(&rec.ID, &rec.Status, &memory, &metrics, &rec.CreatedAt, &rec.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan session row: %w", err)
		}
		rec.Memory = json.RawMessage(memory)
		rec.Metrics = json.RawMessage(metrics)
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate sessions: %w", err)
	}
	return out, nil
}
