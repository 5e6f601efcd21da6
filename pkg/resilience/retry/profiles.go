package retry

import (
	"sync"
	"time"
)

// Well-known profile names. Profiles differ only in attempt counts and backoff
// parameters, never in algorithm.
const (
	ProfileLLM     = "llm"
	ProfileNetwork = "network"
	ProfilePortal  = "portal"
	ProfilePDF     = "pdf"
)

// Profiles maps profile names to retry policies. Construct one per process
// (or per test) and inject it; there is no global instance.
type Profiles struct {
	mu       sync.RWMutex
	policies map[string]*Policy
	fallback *Policy
}

// NewProfiles creates a profile registry pre-populated with the standard
// profiles. The fallback policy (used for unknown names) is DefaultConfig.
func NewProfiles() *Profiles {
	p := &Profiles{
		policies: make(map[string]*Policy),
		fallback: NewPolicy(DefaultConfig, nil),
	}

	// Model calls are slow and rate-limited: few attempts, long waits.
	p.Set(ProfileLLM, NewPolicy(Config{
		MaxAttempts:    3,
		InitialDelay:   2 * time.Second,
		MaxDelay:       30 * time.Second,
		BackoffFactor:  2.0,
		JitterFraction: 0.2,
	}, nil))

	// Generic network fetches recover quickly.
	p.Set(ProfileNetwork, NewPolicy(Config{
		MaxAttempts:    4,
		InitialDelay:   250 * time.Millisecond,
		MaxDelay:       5 * time.Second,
		BackoffFactor:  2.0,
		JitterFraction: 0.1,
	}, nil))

	// Portal submissions are high-value and flaky: more patience.
	p.Set(ProfilePortal, NewPolicy(Config{
		MaxAttempts:    5,
		InitialDelay:   time.Second,
		MaxDelay:       60 * time.Second,
		BackoffFactor:  2.5,
		JitterFraction: 0.2,
	}, nil))

	// PDF compilation fails deterministically more often than not;
	// one retry covers transient toolchain hiccups.
	p.Set(ProfilePDF, NewPolicy(Config{
		MaxAttempts:    2,
		InitialDelay:   500 * time.Millisecond,
		MaxDelay:       5 * time.Second,
		BackoffFactor:  2.0,
		JitterFraction: 0.1,
	}, nil))

	return p
}

// Set registers or replaces a named policy.
func (p *Profiles) Set(name string, policy *Policy) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.policies[name] = policy
}

// Get returns the named policy, or the fallback for unknown names.
func (p *Profiles) Get(name string) *Policy {
	p.mu.RLock()
	defer p.mu.RUnlock()

	if policy, ok := p.policies[name]; ok {
		return policy
	}
	return p.fallback
}

// Names returns the registered profile names.
func (p *Profiles) Names() []string {
	p.mu.RLock()
	defer p.mu.RUnlock()

	names := make([]string, 0, len(p.policies))
	for name := range p.policies {
		names = append(names, name)
	}
	return names
}
