// Package session holds conversation state for agent runs: an ordered memory
// log of prior turns plus running usage counters. Sessions are created on
// first use and live for the process lifetime; durability is delegated to an
// optional archive.
package session

import (
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"jobpilot/pkg/logx"
)

// Status tracks the lifecycle of a session.
type Status string

const (
	StatusActive    Status = "active"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
	StatusCancelled Status = "cancelled"
)

// Metrics accumulates per-session usage counters.
type Metrics struct {
	TokensUsed int `json:"tokens_used"`
	ToolCalls  int `json:"tool_calls"`
	Iterations int `json:"iterations"`
}

// Session is one user-facing workflow instance. Memory is an ordered log of
// prior turns, replayed into the model context on each iteration.
type Session struct {
	ID        string    `json:"id"`
	Status    Status    `json:"status"`
	Memory    []string  `json:"memory"`
	Metrics   Metrics   `json:"metrics"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Archive persists session snapshots. Implemented by persistence.Store; a nil
// archive keeps sessions memory-only.
type Archive interface {
	SaveSessionSnapshot(id string, status string, memory, metrics []byte) error
}

// Store is an in-memory session registry safe for concurrent use. Each
// mutation writes through to the archive when one is configured; archive
// failures are logged and tolerated so the agent loop never stalls on
// storage.
type Store struct {
	mu       sync.RWMutex
	sessions map[string]*Session
	archive  Archive
	logger   *logx.Logger
}

// NewStore creates an empty session store. archive may be nil.
func NewStore(archive Archive) *Store {
	return &Store{
		sessions: make(map[string]*Session),
		archive:  archive,
		logger:   logx.NewLogger("session"),
	}
}

// GetSession returns the session with the given ID, creating it if needed.
// An empty id gets a fresh UUID. The returned value is a snapshot copy;
// mutate through the store methods.
func (s *Store) GetSession(id string) Session {
	s.mu.Lock()
	defer s.mu.Unlock()

	if id == "" {
		id = uuid.New().String()
	}

	sess, ok := s.sessions[id]
	if !ok {
		now := time.Now().UTC()
		sess = &Session{
			ID:        id,
			Status:    StatusActive,
			CreatedAt: now,
			UpdatedAt: now,
		}
		s.sessions[id] = sess
		s.logger.Debug("created session %s", id)
	}
	return snapshot(sess)
}

// UpdateStatus sets the session's lifecycle status.
func (s *Store) UpdateStatus(id string, status Status) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[id]
	if !ok {
		return fmt.Errorf("session %s not found", id)
	}
	sess.Status = status
	sess.UpdatedAt = time.Now().UTC()
	s.persistLocked(sess)
	return nil
}

// AddMemory appends one line to the session's memory log.
func (s *Store) AddMemory(id, line string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[id]
	if !ok {
		return fmt.Errorf("session %s not found", id)
	}
	sess.Memory = append(sess.Memory, line)
	sess.UpdatedAt = time.Now().UTC()
	s.persistLocked(sess)
	return nil
}

// UpdateMetrics adds the patch values onto the session's counters.
func (s *Store) UpdateMetrics(id string, patch Metrics) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[id]
	if !ok {
		return fmt.Errorf("session %s not found", id)
	}
	sess.Metrics.TokensUsed += patch.TokensUsed
	sess.Metrics.ToolCalls += patch.ToolCalls
	sess.Metrics.Iterations += patch.Iterations
	sess.UpdatedAt = time.Now().UTC()
	s.persistLocked(sess)
	return nil
}

// List returns snapshots of all sessions in no particular order.
func (s *Store) List() []Session {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Session, 0, len(s.sessions))
	for _, sess := range s.sessions {
		out = append(out, snapshot(sess))
	}
	return out
}

func (s *Store) persistLocked(sess *Session) {
	if s.archive == nil {
		return
	}
	memory, err := json.Marshal(sess.Memory)
	if err != nil {
		s.logger.Warn("failed to marshal session memory for %s: %v", sess.ID, err)
		return
	}
	metrics, err := json.Marshal(sess.Metrics)
	if err != nil {
		s.logger.Warn("failed to marshal session metrics for %s: %v", sess.ID, err)
		return
	}
	if err := s.archive.SaveSessionSnapshot(sess.ID, string(sess.Status), memory, metrics); err != nil {
		s.logger.Warn("failed to persist session %s: %v", sess.ID, err)
	}
}

func snapshot(sess *Session) Session {
	cp := *sess
	cp.Memory = append([]string(nil), sess.Memory...)
	return cp
}
