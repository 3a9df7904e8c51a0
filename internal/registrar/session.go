package registrar

import (
	"context"
	"errors"

	"github.com/bwmarrin/discordgo"
)

// SessionPublisher publishes through a discordgo session using the bot's own
// application id.
type SessionPublisher struct {
	session *discordgo.Session
}

// NewSessionPublisher creates a SessionPublisher.
func NewSessionPublisher(s *discordgo.Session) *SessionPublisher {
	return &SessionPublisher{session: s}
}

// BulkOverwrite replaces every command of the scope.
func (p *SessionPublisher) BulkOverwrite(
	ctx context.Context,
	guildID string,
	cmds []*discordgo.ApplicationCommand,
) ([]*discordgo.ApplicationCommand, error) {
	if p.session.State == nil || p.session.State.User == nil {
		return nil, errors.New("session is not ready")
	}
	return p.session.ApplicationCommandBulkOverwrite(
		p.session.State.User.ID,
		guildID,
		cmds,
		discordgo.WithContext(ctx),
	)
}

// StateGuildResolver resolves the guild from the session state cache.
func StateGuildResolver(s *discordgo.Session) GuildResolver {
	return func(guildID string) error {
		_, err := s.State.Guild(guildID)
		return err
	}
}

var _ Publisher = (*SessionPublisher)(nil)
