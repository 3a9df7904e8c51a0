package application

import (
	"runtime"
	"time"

	"github.com/sglre6355/vaneta/internal/modules/core/domain"
)

// StatsInteractor reports runtime statistics.
type StatsInteractor struct {
	started time.Time
}

// NewStatsInteractor creates a StatsInteractor measuring uptime from started.
func NewStatsInteractor(started time.Time) *StatsInteractor {
	return &StatsInteractor{started: started}
}

// Execute returns a snapshot of the given counts and the process state.
func (s *StatsInteractor) Execute(commands, contexts, cooldownEntries int) *domain.Stats {
	return &domain.Stats{
		Commands:        commands,
		Contexts:        contexts,
		CooldownEntries: cooldownEntries,
		Goroutines:      runtime.NumGoroutine(),
		Uptime:          time.Since(s.started),
	}
}
