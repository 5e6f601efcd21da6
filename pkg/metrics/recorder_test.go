package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPrometheusRecorder_CountsLLMRequests(t *testing.T) {
	reg := prometheus.NewRegistry()
	rec := NewPrometheusRecorder(reg)

	rec.ObserveLLMRequest("claude-sonnet", "s1", 100, 50, true, 2*time.Second)
	rec.ObserveLLMRequest("claude-sonnet", "s1", 80, 0, false, time.Second)

	assert.Equal(t, float64(1), testutil.ToFloat64(rec.llmRequestsTotal.WithLabelValues("claude-sonnet", "s1", "success")))
	assert.Equal(t, float64(1), testutil.ToFloat64(rec.llmRequestsTotal.WithLabelValues("claude-sonnet", "s1", "error")))
	assert.Equal(t, float64(180), testutil.ToFloat64(rec.llmTokensTotal.WithLabelValues("claude-sonnet", "s1", "prompt")))
	assert.Equal(t, float64(50), testutil.ToFloat64(rec.llmTokensTotal.WithLabelValues("claude-sonnet", "s1", "completion")))
}

func TestPrometheusRecorder_CountsToolAndCircuit(t *testing.T) {
	reg := prometheus.NewRegistry()
	rec := NewPrometheusRecorder(reg)

	rec.ObserveToolExecution("compile_pdf", "success", 100*time.Millisecond)
	rec.ObserveToolExecution("compile_pdf", "error", 50*time.Millisecond)
	rec.IncCircuitTransition("compile_pdf", "closed", "open")
	rec.IncDeadLetter("portal_autofill", "high")
	rec.IncApproval("portal_autofill", "denied")

	assert.Equal(t, float64(1), testutil.ToFloat64(rec.toolExecutions.WithLabelValues("compile_pdf", "success")))
	assert.Equal(t, float64(1), testutil.ToFloat64(rec.circuitTransitions.WithLabelValues("compile_pdf", "closed", "open")))
	assert.Equal(t, float64(1), testutil.ToFloat64(rec.deadLettersTotal.WithLabelValues("portal_autofill", "high")))
	assert.Equal(t, float64(1), testutil.ToFloat64(rec.approvalsTotal.WithLabelValues("portal_autofill", "denied")))
}

func TestPrometheusRecorder_IsolatedRegistries(t *testing.T) {
	// Two recorders on separate registries must not collide.
	a := NewPrometheusRecorder(prometheus.NewRegistry())
	b := NewPrometheusRecorder(prometheus.NewRegistry())
	require.NotNil(t, a)
	require.NotNil(t, b)
}

func TestNopRecorder(t *testing.T) {
	rec := Nop()
	rec.ObserveLLMRequest("m", "s", 1, 1, true, time.Second)
	rec.ObserveToolExecution("t", "success", time.Second)
	rec.IncCircuitTransition("op", "closed", "open")
	rec.IncDeadLetter("op", "high")
	rec.IncApproval("t", "approved")
}
