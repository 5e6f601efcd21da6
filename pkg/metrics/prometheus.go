// Package metrics provides Prometheus-based metrics recording for the engine.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	statusSuccess = "success"
	statusError   = "error"
)

// PrometheusRecorder implements the Recorder interface using Prometheus metrics.
// Metrics are registered on the provided registerer, so tests and embedders
// control their own registries; there is no hidden global registration.
type PrometheusRecorder struct {
	llmRequestsTotal   *prometheus.CounterVec
	llmTokensTotal     *prometheus.CounterVec
	llmDuration        *prometheus.HistogramVec
	toolExecutions     *prometheus.CounterVec
	toolDuration       *prometheus.HistogramVec
	circuitTransitions *prometheus.CounterVec
	deadLettersTotal   *prometheus.CounterVec
	approvalsTotal     *prometheus.CounterVec
}

// NewPrometheusRecorder creates a recorder registered on reg. Passing
// prometheus.DefaultRegisterer reproduces the usual process-global behavior.
func NewPrometheusRecorder(reg prometheus.Registerer) *PrometheusRecorder {
	factory := promauto.With(reg)

	return &PrometheusRecorder{
		llmRequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "llm_requests_total",
				Help: "Total number of model requests by model, session, and status",
			},
			[]string{"model", "session_id", "status"},
		),
		llmTokensTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "llm_tokens_total",
				Help: "Total number of tokens used in model requests",
			},
			[]string{"model", "session_id", "type"},
		),
		llmDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "llm_request_duration_seconds",
				Help:    "Duration of model requests in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"model"},
		),
		toolExecutions: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tool_executions_total",
				Help: "Total number of tool executions by tool and status",
			},
			[]string{"tool", "status"},
		),
		toolDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "tool_execution_duration_seconds",
				Help:    "Duration of tool executions in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"tool"},
		),
		circuitTransitions: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "circuit_transitions_total",
				Help: "Total number of circuit breaker state transitions",
			},
			[]string{"operation", "from_state", "to_state"},
		),
		deadLettersTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "dead_letters_total",
				Help: "Total number of permanently failed operations",
			},
			[]string{"operation", "priority"},
		),
		approvalsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tool_approvals_total",
				Help: "Total number of approval gate outcomes",
			},
			[]string{"tool", "outcome"},
		),
	}
}

func (r *PrometheusRecorder) ObserveLLMRequest(model, sessionID string, promptTokens, completionTokens int, success bool, duration time.Duration) {
	status := statusSuccess
	if !success {
		status = statusError
	}
	r.llmRequestsTotal.WithLabelValues(model, sessionID, status).Inc()
	r.llmTokensTotal.WithLabelValues(model, sessionID, "prompt").Add(float64(promptTokens))
	r.llmTokensTotal.WithLabelValues(model, sessionID, "completion").Add(float64(completionTokens))
	r.llmDuration.WithLabelValues(model).Observe(duration.Seconds())
}

func (r *PrometheusRecorder) ObserveToolExecution(tool, status string, duration time.Duration) {
	r.toolExecutions.WithLabelValues(tool, status).Inc()
	r.toolDuration.WithLabelValues(tool).Observe(duration.Seconds())
}

func (r *PrometheusRecorder) IncCircuitTransition(operation, fromState, toState string) {
	r.circuitTransitions.WithLabelValues(operation, fromState, toState).Inc()
}

func (r *PrometheusRecorder) IncDeadLetter(operation, priority string) {
	r.deadLettersTotal.WithLabelValues(operation, priority).Inc()
}

func (r *PrometheusRecorder) IncApproval(tool, outcome string) {
	r.approvalsTotal.WithLabelValues(tool, outcome).Inc()
}
