package presentation

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/bwmarrin/discordgo"

	"github.com/sglre6355/vaneta/internal/invocation"
	"github.com/sglre6355/vaneta/internal/modules/core/application"
	"github.com/sglre6355/vaneta/internal/plugin"
)

// Embed colors for responses.
const colorBlurple = 0x5865F2

// ErrUnexpectedEvent is returned when an event handler receives the wrong event type.
var ErrUnexpectedEvent = errors.New("unexpected event type")

// ErrNoTarget is returned when a context action cannot resolve its target.
var ErrNoTarget = errors.New("context target not resolved")

// PingHandler handles the ping command.
type PingHandler struct {
	interactor *application.PingInteractor
}

// NewPingHandler creates a new PingHandler.
func NewPingHandler() *PingHandler {
	return &PingHandler{
		interactor: application.NewPingInteractor(),
	}
}

// Handle replies with the measured latency.
func (h *PingHandler) Handle(_ context.Context, rt plugin.Runtime, ic *invocation.Context, _ []string) error {
	result := h.interactor.Execute(ic.CreatedAt, gatewayLatency(rt))

	_, err := ic.Reply(invocation.Reply{Content: result.Message})
	return err
}

func gatewayLatency(rt plugin.Runtime) time.Duration {
	if s := rt.Session(); s != nil {
		return s.HeartbeatLatency()
	}
	return 0
}

// ProfileHandler handles the profile command.
type ProfileHandler struct {
	interactor *application.ProfileInteractor
}

// NewProfileHandler creates a new ProfileHandler.
func NewProfileHandler(interactor *application.ProfileInteractor) *ProfileHandler {
	return &ProfileHandler{interactor: interactor}
}

// Handle replies with the profile of the mentioned user, or of the actor.
func (h *ProfileHandler) Handle(ctx context.Context, _ plugin.Runtime, ic *invocation.Context, args []string) error {
	user := targetUser(ic, args)
	if user == nil {
		return errors.New("profile target not resolved")
	}

	locale := ""
	if i := ic.Interaction(); i != nil && user.ID == ic.ActorID {
		locale = string(i.Locale)
	}

	profile, err := h.interactor.Execute(ctx, user, locale)
	if err != nil {
		return err
	}

	_, err = ic.Reply(invocation.Reply{
		Embeds: []*discordgo.MessageEmbed{
			{
				Title:       profile.Name(),
				Description: profile.Summary(),
				Color:       colorBlurple,
				Thumbnail:   &discordgo.MessageEmbedThumbnail{URL: profile.AvatarURL},
			},
		},
	})
	return err
}

// targetUser resolves the user a command refers to: the "user" option of a
// slash invocation, the first mention of a prefix invocation, else the actor.
func targetUser(ic *invocation.Context, args []string) *discordgo.User {
	if opt := ic.Option("user"); opt != nil {
		if u := resolvedUser(ic.Interaction(), fmt.Sprint(opt.Value)); u != nil {
			return u
		}
	}

	if msg := ic.Message(); msg != nil && len(args) > 0 {
		id := strings.Trim(args[0], "<@!>")
		for _, u := range msg.Mentions {
			if u.ID == id {
				return u
			}
		}
	}

	return ic.Author
}

func resolvedUser(i *discordgo.Interaction, id string) *discordgo.User {
	data := i.ApplicationCommandData()
	if data.Resolved == nil {
		return nil
	}
	return data.Resolved.Users[id]
}

// StatsHandler handles the developer-only stats command.
type StatsHandler struct {
	interactor *application.StatsInteractor
}

// NewStatsHandler creates a new StatsHandler.
func NewStatsHandler(interactor *application.StatsInteractor) *StatsHandler {
	return &StatsHandler{interactor: interactor}
}

// Handle replies with runtime statistics.
func (h *StatsHandler) Handle(_ context.Context, rt plugin.Runtime, ic *invocation.Context, _ []string) error {
	stats := h.interactor.Execute(len(rt.Commands()), len(rt.Contexts()), rt.CooldownEntries())

	_, err := ic.Reply(invocation.Reply{
		Embeds: []*discordgo.MessageEmbed{
			{
				Title:       "Stats",
				Description: stats.Summary(),
				Color:       colorBlurple,
			},
		},
	})
	return err
}

// AvatarHandler handles the avatar user context action.
type AvatarHandler struct{}

// NewAvatarHandler creates a new AvatarHandler.
func NewAvatarHandler() *AvatarHandler {
	return &AvatarHandler{}
}

// Handle replies with the target user's avatar.
func (h *AvatarHandler) Handle(_ context.Context, _ plugin.Runtime, ic *invocation.Context) error {
	i := ic.Interaction()
	if i == nil {
		return ErrNoTarget
	}

	user := resolvedUser(i, ic.TargetID())
	if user == nil {
		return ErrNoTarget
	}

	_, err := ic.Reply(invocation.Reply{
		Embeds: []*discordgo.MessageEmbed{
			{
				Title: user.Username,
				Color: colorBlurple,
				Image: &discordgo.MessageEmbedImage{URL: user.AvatarURL("1024")},
			},
		},
	})
	return err
}
