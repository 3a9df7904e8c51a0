package domain

import (
	"fmt"
	"strings"
	"time"
)

// Stats is a snapshot of the running bot.
type Stats struct {
	Commands        int
	Contexts        int
	CooldownEntries int
	Goroutines      int
	Uptime          time.Duration
}

// Summary renders the stats as short markdown lines.
func (s *Stats) Summary() string {
	return strings.Join([]string{
		fmt.Sprintf("**Uptime:** %s", s.Uptime.Truncate(time.Second)),
		fmt.Sprintf("**Commands:** %d", s.Commands),
		fmt.Sprintf("**Context actions:** %d", s.Contexts),
		fmt.Sprintf("**Cooldown entries:** %d", s.CooldownEntries),
		fmt.Sprintf("**Goroutines:** %d", s.Goroutines),
	}, "\n")
}
