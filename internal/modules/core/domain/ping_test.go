package domain

import (
	"strings"
	"testing"
	"time"
)

func TestNewPingResult(t *testing.T) {
	result := NewPingResult(time.Now().Add(-150*time.Millisecond), 40*time.Millisecond)

	if !strings.HasPrefix(result.Message, "Pong!") {
		t.Errorf("expected message to start with %q, got %q", "Pong!", result.Message)
	}
	if result.Roundtrip < 150*time.Millisecond {
		t.Errorf("expected roundtrip of at least 150ms, got %s", result.Roundtrip)
	}
	if !strings.Contains(result.Message, "gateway 40ms") {
		t.Errorf("expected gateway latency in message, got %q", result.Message)
	}
	if result.Timestamp.IsZero() {
		t.Error("expected timestamp to be set")
	}
}

func TestNewPingResult_UnknownCreation(t *testing.T) {
	result := NewPingResult(time.Time{}, 0)

	if result.Roundtrip != 0 {
		t.Errorf("expected zero roundtrip, got %s", result.Roundtrip)
	}
}
