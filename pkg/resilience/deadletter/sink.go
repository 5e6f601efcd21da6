// Package deadletter provides an append-only record of operations that
// exhausted all retries, kept for manual inspection and replay by operator
// tooling. Nothing here retries automatically.
package deadletter

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"jobpilot/pkg/logx"
)

// Priority classifies how urgently an operator should look at a record.
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
)

// Record is one permanently failed operation. Records are immutable once added.
type Record struct {
	ID        string         `json:"id"`
	Operation string         `json:"operation"`
	Payload   map[string]any `json:"payload"`
	Error     string         `json:"error"`
	Priority  Priority       `json:"priority"`
	CreatedAt time.Time      `json:"created_at"`
}

// Archive receives every record for durable storage. Implemented by the
// persistence layer; a nil archive keeps records in memory only.
type Archive interface {
	SaveDeadLetter(rec Record) error
}

// Sink accumulates dead letters from all sessions. Safe for concurrent use.
// Unbounded growth is accepted: operators are expected to page and export
// periodically.
type Sink struct {
	mu      sync.Mutex
	records []Record
	archive Archive
	logger  *logx.Logger
}

// NewSink creates an in-memory sink. archive may be nil.
func NewSink(archive Archive) *Sink {
	return &Sink{
		archive: archive,
		logger:  logx.NewLogger("deadletter"),
	}
}

// Add appends a record for a permanently failed operation.
func (s *Sink) Add(operation string, payload map[string]any, opErr error, priority Priority) Record {
	errMsg := ""
	if opErr != nil {
		errMsg = opErr.Error()
	}
	if priority == "" {
		priority = PriorityMedium
	}

	rec := Record{
		ID:        uuid.New().String(),
		Operation: operation,
		Payload:   copyPayload(payload),
		Error:     errMsg,
		Priority:  priority,
		CreatedAt: time.Now().UTC(),
	}

	s.mu.Lock()
	s.records = append(s.records, rec)
	s.mu.Unlock()

	s.logger.Warn("☠️  dead letter [%s] %s: %s", priority, operation, errMsg)

	if s.archive != nil {
		if err := s.archive.SaveDeadLetter(rec); err != nil {
			// The in-memory record is already kept; losing the archive copy
			// must not fail the caller.
			s.logger.Error("failed to archive dead letter %s: %v", rec.ID, err)
		}
	}

	return rec
}

// List returns a copy of all records in insertion order.
func (s *Sink) List() []Record {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]Record, len(s.records))
	copy(out, s.records)
	return out
}

// ListByPriority returns records matching the given priority, in insertion order.
func (s *Sink) ListByPriority(priority Priority) []Record {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []Record
	for i := range s.records {
		if s.records[i].Priority == priority {
			out = append(out, s.records[i])
		}
	}
	return out
}

// Len returns the number of accumulated records.
func (s *Sink) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.records)
}

func copyPayload(payload map[string]any) map[string]any {
	if payload == nil {
		return nil
	}
	out := make(map[string]any, len(payload))
	for k, v := range payload {
		out[k] = v
	}
	return out
}
