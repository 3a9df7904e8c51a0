package application

import (
	"time"

	"github.com/sglre6355/vaneta/internal/modules/core/domain"
)

// PingInteractor handles the ping use case.
type PingInteractor struct{}

// NewPingInteractor creates a new PingInteractor.
func NewPingInteractor() *PingInteractor {
	return &PingInteractor{}
}

// Execute measures the latency of an invocation created at createdAt.
func (p *PingInteractor) Execute(createdAt time.Time, gateway time.Duration) *domain.PingResult {
	return domain.NewPingResult(createdAt, gateway)
}
