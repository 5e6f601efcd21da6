// Package retry provides bounded re-execution with exponential backoff and
// jitter, plus a registry of named policy profiles.
package retry

import (
	"context"
	"errors"
	"math"
	"math/rand"
	"strings"
	"time"

	"jobpilot/pkg/resilience/circuit"
)

// Config defines retry behavior for one policy profile.
type Config struct {
	MaxAttempts    int           `yaml:"max_attempts" json:"max_attempts"`       // Total attempts, including the first
	InitialDelay   time.Duration `yaml:"initial_delay" json:"initial_delay"`     // Delay before the first retry
	MaxDelay       time.Duration `yaml:"max_delay" json:"max_delay"`             // Cap on the backoff delay
	BackoffFactor  float64       `yaml:"backoff_factor" json:"backoff_factor"`   // Exponential multiplier
	JitterFraction float64       `yaml:"jitter_fraction" json:"jitter_fraction"` // Random jitter bound as a fraction of the delay
}

// DefaultConfig provides reasonable defaults for retry behavior.
//
//nolint:gochecknoglobals // Sensible default config pattern
var DefaultConfig = Config{
	MaxAttempts:    3,
	InitialDelay:   100 * time.Millisecond,
	MaxDelay:       10 * time.Second,
	BackoffFactor:  2.0,
	JitterFraction: 0.1,
}

// Classifier determines whether an error is worth retrying.
type Classifier func(error) bool

// ShouldRetry is the default classifier.
func ShouldRetry(err error) bool {
	if err == nil {
		return false
	}

	// Never retry cancellation.
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}

	// Never retry circuit-open rejections: the circuit is the protection
	// mechanism and retrying would just hammer it.
	var openErr *circuit.OpenError
	if errors.As(err, &openErr) {
		return false
	}

	errStr := err.Error()

	// Network and timeout faults are transient.
	if strings.Contains(errStr, "timeout") ||
		strings.Contains(errStr, "connection") ||
		strings.Contains(errStr, "network") ||
		strings.Contains(errStr, "temporary") ||
		strings.Contains(errStr, "overloaded") {
		return true
	}

	// Rate limiting.
	if strings.Contains(errStr, "rate") || strings.Contains(errStr, "429") {
		return true
	}

	// Server errors.
	if strings.Contains(errStr, "500") ||
		strings.Contains(errStr, "502") ||
		strings.Contains(errStr, "503") ||
		strings.Contains(errStr, "504") {
		return true
	}

	// Client errors are deterministic; retrying won't change the answer.
	if strings.Contains(errStr, "400") ||
		strings.Contains(errStr, "401") ||
		strings.Contains(errStr, "403") ||
		strings.Contains(errStr, "404") {
		return false
	}

	return false
}

// Operation is one attemptable unit of work.
type Operation func() (any, error)

// Result reports the outcome of a retried execution.
type Result struct {
	Success  bool
	Result   any
	Error    error
	Attempts int
}

// Policy couples a retry configuration with an error classifier. A Policy is
// stateless: no per-call state survives between Execute invocations, so one
// instance may be shared freely.
type Policy struct {
	Config     Config
	Classifier Classifier
}

// NewPolicy creates a retry policy. A nil classifier uses ShouldRetry.
func NewPolicy(config Config, classifier Classifier) *Policy {
	if config.MaxAttempts <= 0 {
		config.MaxAttempts = DefaultConfig.MaxAttempts
	}
	if config.BackoffFactor <= 0 {
		config.BackoffFactor = DefaultConfig.BackoffFactor
	}
	if classifier == nil {
		classifier = ShouldRetry
	}
	return &Policy{Config: config, Classifier: classifier}
}

// CalculateDelay computes the backoff delay before the given attempt
// (attempt 1 is the initial call and has no delay).
func (p *Policy) CalculateDelay(attempt int) time.Duration {
	if attempt <= 1 {
		return 0
	}

	delay := time.Duration(float64(p.Config.InitialDelay) * math.Pow(p.Config.BackoffFactor, float64(attempt-2)))
	if p.Config.MaxDelay > 0 && delay > p.Config.MaxDelay {
		delay = p.Config.MaxDelay
	}

	if p.Config.JitterFraction > 0 && delay > 0 {
		bound := float64(delay) * p.Config.JitterFraction
		jitter := time.Duration((rand.Float64()*2 - 1) * bound) //nolint:gosec // Jitter needs no crypto randomness
		delay += jitter
		if delay < 0 {
			delay = p.Config.InitialDelay
		}
	}

	return delay
}

// Execute invokes op up to MaxAttempts times, sleeping the backoff delay
// between attempts. It stops early when the classifier marks the error
// non-retryable or the context is cancelled. On exhaustion the last error is
// returned in the result; escalation (e.g. dead-lettering) is the caller's
// decision.
func (p *Policy) Execute(ctx context.Context, op Operation) Result {
	var lastErr error

	for attempt := 1; attempt <= p.Config.MaxAttempts; attempt++ {
		if attempt > 1 {
			delay := p.CalculateDelay(attempt)
			if delay > 0 {
				select {
				case <-ctx.Done():
					return Result{Success: false, Error: ctx.Err(), Attempts: attempt - 1}
				case <-time.After(delay):
				}
			}
		}

		result, err := op()
		if err == nil {
			return Result{Success: true, Result: result, Attempts: attempt}
		}
		lastErr = err

		if !p.Classifier(err) {
			return Result{Success: false, Error: err, Attempts: attempt}
		}
	}

	return Result{Success: false, Error: lastErr, Attempts: p.Config.MaxAttempts}
}
