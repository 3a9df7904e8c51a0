// Package permission computes which required permissions an actor or the bot is
// missing for an invocation.
package permission

import (
	"errors"
	"fmt"

	"github.com/bwmarrin/discordgo"
)

// Source looks up effective permissions and voice membership.
type Source interface {
	// ChannelPermissions returns the effective permission bits of userID in channelID.
	ChannelPermissions(userID, channelID string) (int64, error)

	// VoiceChannel returns the voice channel userID is connected to in guildID,
	// or "" if the user is not in voice.
	VoiceChannel(guildID, userID string) (string, error)
}

// Scope identifies where an invocation happens.
type Scope struct {
	GuildID   string
	ChannelID string
	// ActorID is the invoking user; voice-class permissions use their voice channel.
	ActorID string
}

// Resolver computes missing permissions against a Source.
type Resolver struct {
	source Source
}

// NewResolver creates a new Resolver.
func NewResolver(source Source) *Resolver {
	return &Resolver{source: source}
}

// Missing returns the labels of the required permissions subjectID lacks, in
// declaration order and without duplicates. Voice-class permissions are checked
// in the actor's voice channel and skipped when the actor is not in voice.
func (r *Resolver) Missing(required []int64, subjectID string, scope Scope) ([]string, error) {
	if len(required) == 0 {
		return nil, nil
	}

	var (
		missing []string
		seen    = make(map[int64]bool, len(required))

		channelPerms, voicePerms   int64
		channelLoaded, voiceLoaded bool
		voiceChannel               string
	)

	for _, bit := range required {
		if seen[bit] {
			continue
		}
		seen[bit] = true

		var granted int64
		if IsVoice(bit) {
			if !voiceLoaded {
				vc, err := r.source.VoiceChannel(scope.GuildID, scope.ActorID)
				if err != nil {
					return nil, fmt.Errorf("failed to resolve voice channel: %w", err)
				}
				voiceChannel = vc
				if vc != "" {
					voicePerms, err = r.source.ChannelPermissions(subjectID, vc)
					if err != nil {
						return nil, fmt.Errorf("failed to resolve voice permissions: %w", err)
					}
				}
				voiceLoaded = true
			}
			if voiceChannel == "" {
				continue
			}
			granted = voicePerms
		} else {
			if !channelLoaded {
				perms, err := r.source.ChannelPermissions(subjectID, scope.ChannelID)
				if err != nil {
					return nil, fmt.Errorf("failed to resolve channel permissions: %w", err)
				}
				channelPerms = perms
				channelLoaded = true
			}
			granted = channelPerms
		}

		if granted&bit != bit {
			missing = append(missing, Label(bit))
		}
	}

	return missing, nil
}

// SessionSource implements Source using the discordgo state cache, falling back
// to the REST API where discordgo does.
type SessionSource struct {
	session *discordgo.Session
}

// NewSessionSource creates a new SessionSource.
func NewSessionSource(session *discordgo.Session) *SessionSource {
	return &SessionSource{session: session}
}

// ChannelPermissions returns the effective permissions of userID in channelID.
func (s *SessionSource) ChannelPermissions(userID, channelID string) (int64, error) {
	return s.session.UserChannelPermissions(userID, channelID)
}

// VoiceChannel returns the cached voice channel of userID, or "" if none.
func (s *SessionSource) VoiceChannel(guildID, userID string) (string, error) {
	vs, err := s.session.State.VoiceState(guildID, userID)
	if errors.Is(err, discordgo.ErrStateNotFound) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return vs.ChannelID, nil
}

// Ensure SessionSource implements Source.
var _ Source = (*SessionSource)(nil)
