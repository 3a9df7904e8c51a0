// Package invocation normalizes prefix messages and application command
// interactions into a single Context with one reply surface.
package invocation

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/disgoorg/snowflake/v2"
)

// ErrNothingToEdit is returned by EditReply when a prefix invocation has not replied yet.
var ErrNothingToEdit = errors.New("no reply to edit")

// Origin tags which kind of request produced an invocation.
type Origin int

// Invocation origins.
const (
	OriginPrefix Origin = iota
	OriginSlash
	OriginContextAction
)

// String returns the origin name used in logs and metrics.
func (o Origin) String() string {
	switch o {
	case OriginPrefix:
		return "prefix"
	case OriginSlash:
		return "slash"
	case OriginContextAction:
		return "context"
	default:
		return "unknown"
	}
}

// Source is the raw platform request an invocation originates from. Exactly one
// of Interaction and Message is set.
type Source struct {
	Origin      Origin
	Interaction *discordgo.Interaction
	Message     *discordgo.Message
}

// FromMessage wraps a prefix message.
func FromMessage(m *discordgo.Message) Source {
	return Source{Origin: OriginPrefix, Message: m}
}

// FromInteraction wraps an application command interaction. User and message
// commands are tagged as context actions.
func FromInteraction(i *discordgo.Interaction) Source {
	origin := OriginSlash
	if i.Type == discordgo.InteractionApplicationCommand {
		switch i.ApplicationCommandData().CommandType {
		case discordgo.UserApplicationCommand, discordgo.MessageApplicationCommand:
			origin = OriginContextAction
		}
	}
	return Source{Origin: origin, Interaction: i}
}

// IsInteraction reports whether the source is an interaction.
func (s Source) IsInteraction() bool {
	return s.Interaction != nil
}

// ID returns the id of the underlying message or interaction.
func (s Source) ID() string {
	if s.Interaction != nil {
		return s.Interaction.ID
	}
	return s.Message.ID
}

// User returns the invoking user.
func (s Source) User() *discordgo.User {
	if s.Interaction != nil {
		if s.Interaction.Member != nil && s.Interaction.Member.User != nil {
			return s.Interaction.Member.User
		}
		return s.Interaction.User
	}
	return s.Message.Author
}

// ActorID returns the invoking user's id, or "" if unknown.
func (s Source) ActorID() string {
	if u := s.User(); u != nil {
		return u.ID
	}
	return ""
}

// GuildID returns the guild id, or "" for direct messages.
func (s Source) GuildID() string {
	if s.Interaction != nil {
		return s.Interaction.GuildID
	}
	return s.Message.GuildID
}

// ChannelID returns the channel the invocation happened in.
func (s Source) ChannelID() string {
	if s.Interaction != nil {
		return s.Interaction.ChannelID
	}
	return s.Message.ChannelID
}

// Reply is the content of a response. Ephemeral is honored for interactions only.
type Reply struct {
	Content    string
	Embeds     []*discordgo.MessageEmbed
	Components []discordgo.MessageComponent
	Ephemeral  bool
}

// Context is the normalized view of one invocation. It is created per
// invocation and must not be retained after the handler returns.
type Context struct {
	ID        string
	ActorID   string
	GuildID   string
	ChannelID string
	Args      []string
	CreatedAt time.Time
	Author    *discordgo.User
	Member    *discordgo.Member

	source  Source
	replier replier
}

// New normalizes src into a Context that replies through t.
func New(t Transport, src Source, args []string) *Context {
	ic := &Context{
		ID:        src.ID(),
		ActorID:   src.ActorID(),
		GuildID:   src.GuildID(),
		ChannelID: src.ChannelID(),
		Args:      args,
		Author:    src.User(),
		source:    src,
	}

	if id, err := snowflake.Parse(ic.ID); err == nil {
		ic.CreatedAt = id.Time()
	}

	if src.Interaction != nil {
		ic.Member = src.Interaction.Member
		ic.replier = &interactionReplier{transport: t, interaction: src.Interaction}
	} else {
		ic.Member = src.Message.Member
		ic.replier = &messageReplier{transport: t, message: src.Message}
	}

	return ic
}

// Origin returns the kind of request that produced the invocation.
func (c *Context) Origin() Origin {
	return c.source.Origin
}

// IsInteraction reports whether the invocation came from an interaction.
func (c *Context) IsInteraction() bool {
	return c.source.IsInteraction()
}

// Interaction returns the raw interaction, or nil for prefix invocations.
func (c *Context) Interaction() *discordgo.Interaction {
	return c.source.Interaction
}

// Message returns the triggering message, or nil for interactions.
func (c *Context) Message() *discordgo.Message {
	return c.source.Message
}

// TargetID returns the user or message a context action was invoked on.
func (c *Context) TargetID() string {
	if c.source.Origin != OriginContextAction {
		return ""
	}
	return c.source.Interaction.ApplicationCommandData().TargetID
}

// Option returns the named top-level or subcommand option of a slash invocation.
func (c *Context) Option(name string) *discordgo.ApplicationCommandInteractionDataOption {
	if c.source.Origin != OriginSlash {
		return nil
	}
	return findOption(c.source.Interaction.ApplicationCommandData().Options, name)
}

// SubCommand returns the first option name of a slash invocation, which is the
// subcommand when one was used.
func (c *Context) SubCommand() string {
	if c.source.Origin != OriginSlash {
		return ""
	}
	options := c.source.Interaction.ApplicationCommandData().Options
	if len(options) == 0 {
		return ""
	}
	return options[0].Name
}

// Deferred reports whether a deferred or initial response has been sent.
func (c *Context) Deferred() bool {
	return c.replier.deferred()
}

// Reply sends the initial response. For a deferred interaction it fills in the
// deferred response.
func (c *Context) Reply(r Reply) (*discordgo.Message, error) {
	return c.replier.reply(r)
}

// DeferReply acknowledges the invocation so the handler can respond later.
// Prefix invocations show a typing indicator instead.
func (c *Context) DeferReply(ephemeral bool) error {
	return c.replier.deferReply(ephemeral)
}

// EditReply replaces the content of the initial response.
func (c *Context) EditReply(r Reply) (*discordgo.Message, error) {
	return c.replier.editReply(r)
}

// FollowUp sends an additional message after the initial response.
func (c *Context) FollowUp(r Reply) (*discordgo.Message, error) {
	return c.replier.followUp(r)
}

// ArgsFromOptions flattens slash command options into positional args:
// subcommand names followed by option values in declaration order.
func ArgsFromOptions(options []*discordgo.ApplicationCommandInteractionDataOption) []string {
	var args []string
	for _, opt := range options {
		switch opt.Type {
		case discordgo.ApplicationCommandOptionSubCommand, discordgo.ApplicationCommandOptionSubCommandGroup:
			args = append(args, opt.Name)
			args = append(args, ArgsFromOptions(opt.Options)...)
		default:
			args = append(args, fmt.Sprint(opt.Value))
		}
	}
	return args
}

// ParsePrefix splits content into a command token and args if it starts with one
// of prefixes. Matching is case-insensitive and the token is lower-cased.
func ParsePrefix(content string, prefixes []string) (token string, args []string, ok bool) {
	lower := strings.ToLower(content)
	for _, prefix := range prefixes {
		if prefix == "" || !strings.HasPrefix(lower, strings.ToLower(prefix)) {
			continue
		}
		fields := strings.Fields(content[len(prefix):])
		if len(fields) == 0 {
			return "", nil, false
		}
		return strings.ToLower(fields[0]), fields[1:], true
	}
	return "", nil, false
}

func findOption(
	options []*discordgo.ApplicationCommandInteractionDataOption,
	name string,
) *discordgo.ApplicationCommandInteractionDataOption {
	for _, opt := range options {
		if opt.Name == name {
			return opt
		}
		if opt.Type == discordgo.ApplicationCommandOptionSubCommand ||
			opt.Type == discordgo.ApplicationCommandOptionSubCommandGroup {
			if found := findOption(opt.Options, name); found != nil {
				return found
			}
		}
	}
	return nil
}
