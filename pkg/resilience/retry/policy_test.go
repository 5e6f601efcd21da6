package retry

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"jobpilot/pkg/resilience/circuit"
)

// =============================================================================
// ShouldRetry classifier tests
// =============================================================================

func TestShouldRetry_NilError(t *testing.T) {
	if ShouldRetry(nil) {
		t.Error("Expected false for nil error")
	}
}

func TestShouldRetry_ContextCanceled(t *testing.T) {
	if ShouldRetry(context.Canceled) {
		t.Error("Expected false for context.Canceled")
	}
	if ShouldRetry(fmt.Errorf("call failed: %w", context.Canceled)) {
		t.Error("Expected false for wrapped context.Canceled")
	}
}

func TestShouldRetry_CircuitOpen(t *testing.T) {
	err := &circuit.OpenError{Name: "portal_autofill", State: circuit.Open}
	if ShouldRetry(err) {
		t.Error("Expected false for circuit-open rejection")
	}
	if ShouldRetry(fmt.Errorf("tool call: %w", err)) {
		t.Error("Expected false for wrapped circuit-open rejection")
	}
}

func TestShouldRetry_TransientErrors(t *testing.T) {
	for _, msg := range []string{
		"connection refused",
		"request timeout",
		"network unreachable",
		"429 too many requests",
		"503 service unavailable",
		"model overloaded",
	} {
		if !ShouldRetry(errors.New(msg)) {
			t.Errorf("Expected true for %q", msg)
		}
	}
}

func TestShouldRetry_ClientErrors(t *testing.T) {
	for _, msg := range []string{
		"401 unauthorized",
		"404 not found",
		"400 bad request",
		"some unknown failure",
	} {
		if ShouldRetry(errors.New(msg)) {
			t.Errorf("Expected false for %q", msg)
		}
	}
}

// =============================================================================
// Policy tests
// =============================================================================

func TestPolicy_ExactlyMaxAttemptsOnPersistentFailure(t *testing.T) {
	policy := NewPolicy(Config{
		MaxAttempts:   4,
		InitialDelay:  time.Millisecond,
		MaxDelay:      5 * time.Millisecond,
		BackoffFactor: 2.0,
	}, func(error) bool { return true })

	calls := 0
	result := policy.Execute(context.Background(), func() (any, error) {
		calls++
		return nil, errors.New("always fails")
	})

	if result.Success {
		t.Error("Expected failure result")
	}
	if calls != 4 {
		t.Errorf("Expected exactly 4 invocations, got %d", calls)
	}
	if result.Attempts != 4 {
		t.Errorf("Expected 4 attempts reported, got %d", result.Attempts)
	}
	if result.Error == nil || result.Error.Error() != "always fails" {
		t.Errorf("Expected last error surfaced, got %v", result.Error)
	}
}

func TestPolicy_SucceedsAfterTransientFailures(t *testing.T) {
	policy := NewPolicy(Config{
		MaxAttempts:   5,
		InitialDelay:  time.Millisecond,
		BackoffFactor: 2.0,
	}, func(error) bool { return true })

	calls := 0
	result := policy.Execute(context.Background(), func() (any, error) {
		calls++
		if calls < 3 {
			return nil, errors.New("transient")
		}
		return "payload", nil
	})

	if !result.Success {
		t.Fatalf("Expected success, got error: %v", result.Error)
	}
	if result.Result != "payload" {
		t.Errorf("Expected payload result, got %v", result.Result)
	}
	if result.Attempts != 3 {
		t.Errorf("Expected 3 attempts, got %d", result.Attempts)
	}
}

func TestPolicy_StopsOnNonRetryableError(t *testing.T) {
	policy := NewPolicy(Config{MaxAttempts: 5, InitialDelay: time.Millisecond}, nil)

	calls := 0
	result := policy.Execute(context.Background(), func() (any, error) {
		calls++
		return nil, errors.New("401 unauthorized")
	})

	if calls != 1 {
		t.Errorf("Expected single invocation for non-retryable error, got %d", calls)
	}
	if result.Success {
		t.Error("Expected failure result")
	}
}

func TestPolicy_ContextCancellationDuringBackoff(t *testing.T) {
	policy := NewPolicy(Config{
		MaxAttempts:   3,
		InitialDelay:  time.Hour, // Would block forever without cancellation
		BackoffFactor: 2.0,
	}, func(error) bool { return true })

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(10 * time.Millisecond)
		cancel()
	}()

	start := time.Now()
	result := policy.Execute(ctx, func() (any, error) {
		return nil, errors.New("transient")
	})

	if result.Success {
		t.Error("Expected failure after cancellation")
	}
	if !errors.Is(result.Error, context.Canceled) {
		t.Errorf("Expected context.Canceled, got %v", result.Error)
	}
	if time.Since(start) > time.Second {
		t.Error("Cancellation did not interrupt the backoff sleep")
	}
}

func TestPolicy_CalculateDelay(t *testing.T) {
	policy := NewPolicy(Config{
		MaxAttempts:   5,
		InitialDelay:  100 * time.Millisecond,
		MaxDelay:      300 * time.Millisecond,
		BackoffFactor: 2.0,
	}, nil)

	if d := policy.CalculateDelay(1); d != 0 {
		t.Errorf("Attempt 1 delay should be 0, got %v", d)
	}
	if d := policy.CalculateDelay(2); d != 100*time.Millisecond {
		t.Errorf("Attempt 2 delay should be 100ms, got %v", d)
	}
	if d := policy.CalculateDelay(3); d != 200*time.Millisecond {
		t.Errorf("Attempt 3 delay should be 200ms, got %v", d)
	}
	// Capped at MaxDelay.
	if d := policy.CalculateDelay(5); d != 300*time.Millisecond {
		t.Errorf("Attempt 5 delay should cap at 300ms, got %v", d)
	}
}

func TestPolicy_JitterStaysBounded(t *testing.T) {
	policy := NewPolicy(Config{
		MaxAttempts:    3,
		InitialDelay:   100 * time.Millisecond,
		MaxDelay:       time.Second,
		BackoffFactor:  2.0,
		JitterFraction: 0.1,
	}, nil)

	for i := 0; i < 100; i++ {
		d := policy.CalculateDelay(2)
		if d < 90*time.Millisecond || d > 110*time.Millisecond {
			t.Fatalf("Jittered delay %v outside ±10%% of 100ms", d)
		}
	}
}

// =============================================================================
// Profiles registry tests
// =============================================================================

func TestProfiles_StandardProfilesRegistered(t *testing.T) {
	profiles := NewProfiles()

	for _, name := range []string{ProfileLLM, ProfileNetwork, ProfilePortal, ProfilePDF} {
		policy := profiles.Get(name)
		if policy == nil {
			t.Fatalf("Profile %q missing", name)
		}
		if policy.Config.MaxAttempts <= 0 {
			t.Errorf("Profile %q has no attempt bound", name)
		}
	}
}

func TestProfiles_UnknownNameFallsBack(t *testing.T) {
	profiles := NewProfiles()

	policy := profiles.Get("no-such-profile")
	if policy == nil {
		t.Fatal("Expected fallback policy for unknown name")
	}
	if policy.Config.MaxAttempts != DefaultConfig.MaxAttempts {
		t.Errorf("Fallback should use defaults, got %+v", policy.Config)
	}
}

func TestProfiles_SetOverrides(t *testing.T) {
	profiles := NewProfiles()
	custom := NewPolicy(Config{MaxAttempts: 9}, nil)
	profiles.Set(ProfilePDF, custom)

	if got := profiles.Get(ProfilePDF); got != custom {
		t.Error("Set should replace the registered policy")
	}
}
