package persistence

import (
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// ErrNotFound indicates the requested row does not exist.
var ErrNotFound = errors.New("not found")

// SavePlannerSnapshot upserts the serialized planner state for a job.
// The snapshot is opaque to the store: the planner owns its wire format.
func (s *Store) SavePlannerSnapshot(jobID string, snapshot []byte) error {
	_, err := s.db.Exec(
		`INSERT INTO planner_snapshots (job_id, snapshot, updated_at) VALUES (?, ?, ?)
		 ON CONFLICT(job_id) DO UPDATE SET snapshot = excluded.snapshot, updated_at = excluded.updated_at`,
		jobID, string(snapshot), time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("failed to save planner snapshot for %s: %w", jobID, err)
	}
	return nil
}

// LoadPlannerSnapshot returns the serialized planner state for a job.
func (s *Store) LoadPlannerSnapshot(jobID string) ([]byte, error) {
	var snapshot string
	err := s.db.QueryRow(
		`SELECT snapshot FROM planner_snapshots WHERE job_id = ?`, jobID,
	).Scan(&snapshot)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("planner snapshot for %s: %w", jobID, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load planner snapshot for %s: %w", jobID, err)
	}
	return []byte(snapshot), nil
}

// DeletePlannerSnapshot removes the snapshot once a job reaches its terminal
// state.
func (s *Store) DeletePlannerSnapshot(jobID string) error {
	if _, err := s.db.Exec(`DELETE FROM planner_snapshots WHERE job_id = ?`, jobID); err != nil {
		return fmt.Errorf("failed to delete planner snapshot for %s: %w", jobID, err)
	}
	return nil
}
