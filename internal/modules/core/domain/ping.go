package domain

import (
	"fmt"
	"time"
)

// PingResult represents the result of a ping operation.
type PingResult struct {
	Message   string
	Roundtrip time.Duration
	Gateway   time.Duration
	Timestamp time.Time
}

// NewPingResult creates a PingResult for an invocation created at createdAt.
// A zero createdAt leaves the roundtrip unknown.
func NewPingResult(createdAt time.Time, gateway time.Duration) *PingResult {
	now := time.Now()

	var roundtrip time.Duration
	if !createdAt.IsZero() && createdAt.Before(now) {
		roundtrip = now.Sub(createdAt)
	}

	return &PingResult{
		Message:   fmt.Sprintf("Pong! Roundtrip %dms, gateway %dms.", roundtrip.Milliseconds(), gateway.Milliseconds()),
		Roundtrip: roundtrip,
		Gateway:   gateway,
		Timestamp: now,
	}
}
