package persistence

import (
	"encoding/json"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"jobpilot/pkg/resilience/deadletter"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(filepath.Join(t.TempDir(), "jobpilot.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestOpenIsIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "jobpilot.db")

	store, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, store.Close())

	// Re-opening an existing database must not fail or re-run migrations.
	store, err = Open(path)
	require.NoError(t, err)
	require.NoError(t, store.Close())
}

func TestDeadLetterRoundTrip(t *testing.T) {
	store := openTestStore(t)

	rec := deadletter.Record{
		ID:        "dl-1",
		Operation: "portal_autofill",
		Payload:   map[string]any{"portal": "greenhouse", "attempt": float64(3)},
		Error:     "connection refused",
		Priority:  deadletter.PriorityHigh,
		CreatedAt: time.Now().UTC().Truncate(time.Second),
	}
	require.NoError(t, store.SaveDeadLetter(rec))

	recs, err := store.ListDeadLetters(10)
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, rec.ID, recs[0].ID)
	assert.Equal(t, rec.Operation, recs[0].Operation)
	assert.Equal(t, rec.Payload, recs[0].Payload)
	assert.Equal(t, rec.Error, recs[0].Error)
	assert.Equal(t, deadletter.PriorityHigh, recs[0].Priority)
}

func TestListDeadLettersNewestFirst(t *testing.T) {
	store := openTestStore(t)

	base := time.Now().UTC().Add(-time.Hour)
	for i, id := range []string{"dl-old", "dl-mid", "dl-new"} {
		rec := deadletter.Record{
			ID:        id,
			Operation: "compile_pdf",
			Error:     "latex error",
			Priority:  deadletter.PriorityMedium,
			CreatedAt: base.Add(time.Duration(i) * time.Minute),
		}
		require.NoError(t, store.SaveDeadLetter(rec))
	}

	recs, err := store.ListDeadLetters(2)
	require.NoError(t, err)
	require.Len(t, recs, 2)
	assert.Equal(t, "dl-new", recs[0].ID)
	assert.Equal(t, "dl-mid", recs[1].ID)
}

func TestSessionRoundTrip(t *testing.T) {
	store := openTestStore(t)

	memory, _ := json.Marshal([]string{"analyzed JD", "tailored resume"})
	metrics, _ := json.Marshal(map[string]int{"tool_calls": 4})

	rec := SessionRecord{
		ID:      "sess-1",
		Status:  "active",
		Memory:  memory,
		Metrics: metrics,
	}
	require.NoError(t, store.SaveSession(rec))

	loaded, err := store.LoadSession("sess-1")
	require.NoError(t, err)
	assert.Equal(t, "sess-1", loaded.ID)
	assert.Equal(t, "active", loaded.Status)
	assert.JSONEq(t, string(memory), string(loaded.Memory))
	assert.JSONEq(t, string(metrics), string(loaded.Metrics))
	assert.False(t, loaded.CreatedAt.IsZero())
}

func TestSaveSessionUpserts(t *testing.T) {
	store := openTestStore(t)

	require.NoError(t, store.SaveSession(SessionRecord{ID: "sess-1", Status: "active"}))
	require.NoError(t, store.SaveSession(SessionRecord{ID: "sess-1", Status: "completed"}))

	loaded, err := store.LoadSession("sess-1")
	require.NoError(t, err)
	assert.Equal(t, "completed", loaded.Status)

	sessions, err := store.ListSessions(10)
	require.NoError(t, err)
	assert.Len(t, sessions, 1)
}

func TestSessionDefaults(t *testing.T) {
	store := openTestStore(t)

	require.NoError(t, store.SaveSession(SessionRecord{ID: "sess-empty", Status: "active"}))

	loaded, err := store.LoadSession("sess-empty")
	require.NoError(t, err)
	assert.JSONEq(t, "[]", string(loaded.Memory))
	assert.JSONEq(t, "{}", string(loaded.Metrics))
}

func TestLoadSessionNotFound(t *testing.T) {
	store := openTestStore(t)

	_, err := store.LoadSession("missing")
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestPlannerSnapshotRoundTrip(t *testing.T) {
	store := openTestStore(t)

	snapshot := []byte(`{"state":"tailoring","retries":{"tailoring":1}}`)
	require.NoError(t, store.SavePlannerSnapshot("job-1", snapshot))

	loaded, err := store.LoadPlannerSnapshot("job-1")
	require.NoError(t, err)
	assert.Equal(t, snapshot, loaded)

	// Upsert replaces the previous snapshot.
	updated := []byte(`{"state":"compiling","retries":{}}`)
	require.NoError(t, store.SavePlannerSnapshot("job-1", updated))

	loaded, err = store.LoadPlannerSnapshot("job-1")
	require.NoError(t, err)
	assert.Equal(t, updated, loaded)
}

func TestPlannerSnapshotDelete(t *testing.T) {
	store := openTestStore(t)

	require.NoError(t, store.SavePlannerSnapshot("job-1", []byte(`{}`)))
	require.NoError(t, store.DeletePlannerSnapshot("job-1"))

	_, err := store.LoadPlannerSnapshot("job-1")
	assert.True(t, errors.Is(err, ErrNotFound))

	// Deleting a missing snapshot is not an error.
	require.NoError(t, store.DeletePlannerSnapshot("job-1"))
}
