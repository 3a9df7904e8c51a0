package domain

import (
	"fmt"
	"strings"
	"time"
)

// Profile summarizes a user as the bot knows them.
type Profile struct {
	UserID      string
	Username    string
	DisplayName string
	Locale      string
	AvatarURL   string
	// Registered is when the Discord account was created.
	Registered time.Time
	// FirstSeen is when the bot first stored the user. Zero without persistence.
	FirstSeen time.Time
}

// Name returns the display name, falling back to the username.
func (p *Profile) Name() string {
	if p.DisplayName != "" {
		return p.DisplayName
	}
	return p.Username
}

// Summary renders the profile as short markdown lines.
func (p *Profile) Summary() string {
	lines := []string{
		fmt.Sprintf("**User:** %s (`%s`)", p.Username, p.UserID),
	}
	if !p.Registered.IsZero() {
		lines = append(lines, fmt.Sprintf("**Registered:** <t:%d:D>", p.Registered.Unix()))
	}
	if p.Locale != "" {
		lines = append(lines, "**Locale:** "+p.Locale)
	}
	if !p.FirstSeen.IsZero() {
		lines = append(lines, fmt.Sprintf("**First seen:** <t:%d:R>", p.FirstSeen.Unix()))
	}
	return strings.Join(lines, "\n")
}
