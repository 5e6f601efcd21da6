// Package circuit provides per-operation circuit breakers that stop calling a
// persistently failing dependency until it shows signs of recovery.
package circuit

import (
	"fmt"
	"sync"
	"time"
)

// State represents the current state of a circuit breaker.
type State string

// Circuit breaker states.
const (
	Closed     State = "closed"      // Normal operation
	Open       State = "open"        // Failing, reject calls
	HalfOpen   State = "half_open"   // Probing whether the dependency recovered
	ForcedOpen State = "forced_open" // Operator override, blocks until explicitly closed
)

func (s State) String() string {
	return string(s)
}

// Config defines thresholds and timing for a circuit breaker.
type Config struct {
	FailureThreshold int           `yaml:"failure_threshold" json:"failure_threshold"` // Consecutive failures before opening
	SuccessThreshold int           `yaml:"success_threshold" json:"success_threshold"` // Consecutive half-open successes to close
	OpenTimeout      time.Duration `yaml:"open_timeout" json:"open_timeout"`           // Time before a half-open probe is admitted
}

// DefaultConfig provides reasonable defaults for circuit breaker behavior.
//
//nolint:gochecknoglobals // Sensible default config pattern
var DefaultConfig = Config{
	FailureThreshold: 5,
	SuccessThreshold: 2,
	OpenTimeout:      30 * time.Second,
}

// OpenError is returned when a call is rejected because the circuit is not
// admitting traffic. It is distinct from an operation fault: the protected
// operation was never invoked.
type OpenError struct {
	Name  string
	State State
}

func (e *OpenError) Error() string {
	return fmt.Sprintf("circuit %q is %s", e.Name, e.State)
}

// StateChange describes a breaker state transition, for observability.
type StateChange struct {
	Name      string    `json:"name"`
	FromState State     `json:"from_state"`
	ToState   State     `json:"to_state"`
	Timestamp time.Time `json:"timestamp"`
	Reason    string    `json:"reason"`
}

// Operation is one unit of work protected by the breaker.
type Operation func() (any, error)

// Breaker guards a single named operation. All counter updates are atomic with
// respect to concurrent callers sharing the breaker.
type Breaker struct {
	name   string
	config Config

	mu                 sync.Mutex
	state              State
	failureCount       int
	successCount       int
	tripCount          int
	lastFailureTime    time.Time
	lastSuccessTime    time.Time
	halfOpenInProgress bool
	resetTimer         *time.Timer

	onStateChange func(StateChange)
}

// New creates a closed breaker for the named operation.
func New(name string, config Config) *Breaker {
	if config.FailureThreshold <= 0 {
		config.FailureThreshold = DefaultConfig.FailureThreshold
	}
	if config.SuccessThreshold <= 0 {
		config.SuccessThreshold = DefaultConfig.SuccessThreshold
	}
	if config.OpenTimeout <= 0 {
		config.OpenTimeout = DefaultConfig.OpenTimeout
	}
	return &Breaker{
		name:   name,
		config: config,
		state:  Closed,
	}
}

// OnStateChange installs an observer for state transitions. Must be set before
// the breaker is shared across goroutines.
func (b *Breaker) OnStateChange(fn func(StateChange)) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.onStateChange = fn
}

// Name returns the operation name this breaker guards.
func (b *Breaker) Name() string {
	return b.name
}

// GetState returns the current breaker state.
func (b *Breaker) GetState() State {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}

// TripCount returns how many times the breaker has opened.
func (b *Breaker) TripCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.tripCount
}

// Execute runs op if the circuit admits it, recording the outcome. When the
// circuit is open (or a half-open probe is already in flight) it fails fast
// with an *OpenError and op is never invoked.
func (b *Breaker) Execute(op Operation) (any, error) {
	if err := b.admit(); err != nil {
		return nil, err
	}

	result, err := op()
	b.record(err == nil)
	return result, err
}

// admit decides whether a call may proceed, handling the open → half_open
// probe admission on the caller path.
func (b *Breaker) admit() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch b.state {
	case Closed:
		return nil

	case Open:
		// Caller probe: converges with the scheduled timer path.
		if time.Since(b.lastFailureTime) >= b.config.OpenTimeout {
			b.transitionLocked(HalfOpen, "open timeout elapsed, admitting probe")
			b.halfOpenInProgress = true
			return nil
		}
		return &OpenError{Name: b.name, State: b.state}

	case HalfOpen:
		// Exactly one in-flight test call at a time.
		if b.halfOpenInProgress {
			return &OpenError{Name: b.name, State: b.state}
		}
		b.halfOpenInProgress = true
		return nil

	case ForcedOpen:
		return &OpenError{Name: b.name, State: b.state}

	default:
		return &OpenError{Name: b.name, State: b.state}
	}
}

// record applies the outcome of an admitted call.
func (b *Breaker) record(success bool) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.state == HalfOpen {
		b.halfOpenInProgress = false
	}

	if success {
		b.onSuccessLocked()
	} else {
		b.onFailureLocked()
	}
}

func (b *Breaker) onSuccessLocked() {
	b.lastSuccessTime = time.Now()

	switch b.state {
	case Closed:
		// Consecutive-failure semantics: any success resets the count.
		b.failureCount = 0

	case HalfOpen:
		b.successCount++
		if b.successCount >= b.config.SuccessThreshold {
			b.transitionLocked(Closed, "success threshold reached")
		}

	case Open, ForcedOpen:
		// No admitted calls in these states; nothing to count.
	}
}

func (b *Breaker) onFailureLocked() {
	b.failureCount++
	b.lastFailureTime = time.Now()

	switch b.state {
	case Closed:
		if b.failureCount >= b.config.FailureThreshold {
			b.tripLocked("failure threshold reached")
		}

	case HalfOpen:
		// Any probe failure re-opens immediately.
		b.tripLocked("probe failed")

	case Open, ForcedOpen:
	}
}

// tripLocked moves the breaker to Open and schedules the automatic half-open
// transition. Caller must hold the mutex.
func (b *Breaker) tripLocked(reason string) {
	b.tripCount++
	b.transitionLocked(Open, reason)

	if b.resetTimer != nil {
		b.resetTimer.Stop()
	}
	b.resetTimer = time.AfterFunc(b.config.OpenTimeout, func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		if b.state == Open {
			b.transitionLocked(HalfOpen, "open timeout elapsed")
		}
	})
}

// transitionLocked performs the state change bookkeeping and emits the change
// event. Caller must hold the mutex.
func (b *Breaker) transitionLocked(to State, reason string) {
	from := b.state
	if from == to {
		return
	}
	b.state = to

	switch to {
	case Closed:
		// Invariant: failure counter is zero on entry to closed.
		b.failureCount = 0
		b.successCount = 0
		b.halfOpenInProgress = false
		if b.resetTimer != nil {
			b.resetTimer.Stop()
			b.resetTimer = nil
		}
	case HalfOpen:
		b.successCount = 0
		b.halfOpenInProgress = false
	case Open, ForcedOpen:
		b.successCount = 0
		b.halfOpenInProgress = false
	}

	if b.onStateChange != nil {
		b.onStateChange(StateChange{
			Name:      b.name,
			FromState: from,
			ToState:   to,
			Timestamp: time.Now().UTC(),
			Reason:    reason,
		})
	}
}

// ForceOpen blocks all calls until Reset is called. Operator-only override,
// independent of the failure and success counters.
func (b *Breaker) ForceOpen(reason string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if reason == "" {
		reason = "operator override"
	}
	b.transitionLocked(ForcedOpen, reason)
}

// Reset returns the breaker to closed regardless of its current state.
func (b *Breaker) Reset() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.transitionLocked(Closed, "manual reset")
}
