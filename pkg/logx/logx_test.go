package logx

import (
	"testing"
)

func TestIsDebugEnabled_Disabled(t *testing.T) {
	SetDebug(false)
	if IsDebugEnabled("agent") {
		t.Error("Expected debug disabled by default")
	}
}

func TestIsDebugEnabled_AllDomains(t *testing.T) {
	SetDebug(true)
	defer SetDebug(false)

	if !IsDebugEnabled("agent") {
		t.Error("Expected debug enabled for all domains")
	}
	if !IsDebugEnabled("planner") {
		t.Error("Expected debug enabled for all domains")
	}
}

func TestIsDebugEnabled_DomainFilter(t *testing.T) {
	SetDebug(true, "planner", "circuit")
	defer SetDebug(false)

	if !IsDebugEnabled("planner") {
		t.Error("Expected debug enabled for planner domain")
	}
	if IsDebugEnabled("agent") {
		t.Error("Expected debug disabled for unlisted domain")
	}
}

func TestNewLogger(t *testing.T) {
	logger := NewLogger("test-component")
	if logger == nil {
		t.Fatal("Expected non-nil logger")
	}

	// Smoke test that log calls do not panic.
	logger.Info("info %s", "message")
	logger.Warn("warn")
	logger.Error("error %d", 42)
	logger.Debug("suppressed debug")
}
