package deadletter

import (
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type captureArchive struct {
	mu   sync.Mutex
	recs []Record
	err  error
}

func (a *captureArchive) SaveDeadLetter(rec Record) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.err != nil {
		return a.err
	}
	a.recs = append(a.recs, rec)
	return nil
}

func TestSink_AddAndList(t *testing.T) {
	sink := NewSink(nil)

	rec := sink.Add("portal_autofill", map[string]any{"job_id": "J1"}, errors.New("portal 500"), PriorityHigh)

	assert.NotEmpty(t, rec.ID)
	assert.Equal(t, "portal_autofill", rec.Operation)
	assert.Equal(t, "portal 500", rec.Error)
	assert.Equal(t, PriorityHigh, rec.Priority)
	assert.False(t, rec.CreatedAt.IsZero())

	recs := sink.List()
	require.Len(t, recs, 1)
	assert.Equal(t, rec.ID, recs[0].ID)
}

func TestSink_DefaultsPriority(t *testing.T) {
	sink := NewSink(nil)
	rec := sink.Add("compile_pdf", nil, errors.New("latex missing"), "")
	assert.Equal(t, PriorityMedium, rec.Priority)
}

func TestSink_PayloadIsCopied(t *testing.T) {
	sink := NewSink(nil)
	payload := map[string]any{"job_id": "J1"}
	sink.Add("tailor_resume", payload, errors.New("x"), PriorityLow)

	// Mutating the caller's map must not change the stored record.
	payload["job_id"] = "mutated"
	assert.Equal(t, "J1", sink.List()[0].Payload["job_id"])
}

func TestSink_ListByPriority(t *testing.T) {
	sink := NewSink(nil)
	sink.Add("a", nil, errors.New("1"), PriorityLow)
	sink.Add("b", nil, errors.New("2"), PriorityHigh)
	sink.Add("c", nil, errors.New("3"), PriorityHigh)

	high := sink.ListByPriority(PriorityHigh)
	require.Len(t, high, 2)
	assert.Equal(t, "b", high[0].Operation)
	assert.Equal(t, "c", high[1].Operation)
}

func TestSink_ArchivesRecords(t *testing.T) {
	archive := &captureArchive{}
	sink := NewSink(archive)

	sink.Add("portal_autofill", nil, errors.New("boom"), PriorityHigh)

	archive.mu.Lock()
	defer archive.mu.Unlock()
	require.Len(t, archive.recs, 1)
	assert.Equal(t, "portal_autofill", archive.recs[0].Operation)
}

func TestSink_ArchiveFailureDoesNotLoseRecord(t *testing.T) {
	archive := &captureArchive{err: errors.New("db closed")}
	sink := NewSink(archive)

	sink.Add("portal_autofill", nil, errors.New("boom"), PriorityHigh)
	assert.Equal(t, 1, sink.Len(), "in-memory record kept despite archive failure")
}

func TestSink_ConcurrentAdds(t *testing.T) {
	sink := NewSink(nil)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(worker int) {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				sink.Add(fmt.Sprintf("op-%d", worker), nil, errors.New("e"), PriorityLow)
			}
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 400, sink.Len())
}
