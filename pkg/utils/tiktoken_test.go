package utils

import (
	"strings"
	"testing"
)

func TestCountTokens(t *testing.T) {
	counter, err := NewTokenCounter()
	if err != nil {
		t.Fatalf("failed to create counter: %v", err)
	}

	if got := counter.CountTokens(""); got != 0 {
		t.Errorf("expected 0 tokens for empty string, got %d", got)
	}

	short := counter.CountTokens("hello world")
	if short < 1 || short > 5 {
		t.Errorf("unexpected token count for short text: %d", short)
	}

	long := counter.CountTokens(strings.Repeat("hello world ", 100))
	if long <= short {
		t.Errorf("expected longer text to have more tokens: %d vs %d", long, short)
	}
}

func TestCountTokensFallback(t *testing.T) {
	tc := &TokenCounter{}
	if got := tc.CountTokens("12345678"); got != 2 {
		t.Errorf("expected character-based fallback of 2, got %d", got)
	}
}

func TestCountTokensSimple(t *testing.T) {
	if got := CountTokensSimple("hello world"); got < 1 {
		t.Errorf("expected at least one token, got %d", got)
	}
}
