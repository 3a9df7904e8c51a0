// Package plugin defines the typed contracts plugins are loaded into: commands,
// context actions and event bindings, plus the catalog of compiled-in handlers
// that descriptors refer to.
package plugin

import (
	"context"
	"log/slog"
	"maps"

	"github.com/bwmarrin/discordgo"
	"github.com/sglre6355/vaneta/internal/invocation"
	"github.com/sglre6355/vaneta/internal/store"
)

// Runtime is the live bot handle passed to every plugin execute function.
type Runtime interface {
	// Session returns the gateway session. It is nil before the bot connects.
	Session() *discordgo.Session

	// Store returns the persistence collaborator, or nil when persistence is disabled.
	Store() store.Store

	// Logger returns the logger plugins should write to.
	Logger() *slog.Logger

	// Commands returns a snapshot of the loaded commands.
	Commands() []*Command

	// Contexts returns a snapshot of the loaded context actions.
	Contexts() []*ContextAction

	// CooldownEntries returns the number of tracked rate-limit entries.
	CooldownEntries() int

	// PublishInteractions declares the loaded slash commands and context
	// actions with Discord.
	PublishInteractions(ctx context.Context) error
}

// CommandFunc executes a command with the normalized invocation and its positional args.
type CommandFunc func(ctx context.Context, rt Runtime, ic *invocation.Context, args []string) error

// ContextFunc executes a context action. The raw interaction is available via ic.Interaction().
type ContextFunc func(ctx context.Context, rt Runtime, ic *invocation.Context) error

// EventFunc handles a gateway event. event is the discordgo event pointer,
// e.g. *discordgo.GuildCreate.
type EventFunc func(ctx context.Context, rt Runtime, event any) error

// RootCategory is the category restricted to the developer account.
const RootCategory = "root"

// Command is a loaded text/slash command. It is immutable once registered.
type Command struct {
	Name        string
	Description string
	Usage       string
	Category    string
	Cooldown    int
	Aliases     []string
	MemberPerms []int64
	ClientPerms []int64
	Slash       bool
	Maintenance bool
	Options     []*discordgo.ApplicationCommandOption
	Execute     CommandFunc
}

// Matches reports whether token names the command or one of its aliases.
// token must already be lower-cased.
func (c *Command) Matches(token string) bool {
	if c.Name == token {
		return true
	}
	for _, alias := range c.Aliases {
		if alias == token {
			return true
		}
	}
	return false
}

// ApplicationCommand builds the chat-input declaration for the command.
func (c *Command) ApplicationCommand() *discordgo.ApplicationCommand {
	return &discordgo.ApplicationCommand{
		Name:        c.Name,
		Description: c.Description,
		Type:        discordgo.ChatApplicationCommand,
		Options:     c.Options,
	}
}

// TargetKind is what a context action is attached to.
type TargetKind string

// Context action targets.
const (
	TargetUser    TargetKind = "user"
	TargetMessage TargetKind = "message"
)

// ContextAction is a loaded user or message context menu action.
type ContextAction struct {
	Name        string
	Description string
	Target      TargetKind
	Cooldown    int
	Enabled     bool
	Ephemeral   bool
	Maintenance bool
	Execute     ContextFunc
}

// ApplicationCommand builds the context menu declaration for the action.
func (c *ContextAction) ApplicationCommand() *discordgo.ApplicationCommand {
	typ := discordgo.UserApplicationCommand
	if c.Target == TargetMessage {
		typ = discordgo.MessageApplicationCommand
	}
	return &discordgo.ApplicationCommand{
		Name: c.Name,
		Type: typ,
	}
}

// EventKind enumerates the gateway events plugins may bind to.
type EventKind string

// Supported event kinds.
const (
	EventReady             EventKind = "ready"
	EventGuildCreate       EventKind = "guildCreate"
	EventGuildDelete       EventKind = "guildDelete"
	EventGuildMemberAdd    EventKind = "guildMemberAdd"
	EventGuildMemberRemove EventKind = "guildMemberRemove"
	EventMessageCreate     EventKind = "messageCreate"
	EventInteractionCreate EventKind = "interactionCreate"
	EventVoiceStateUpdate  EventKind = "voiceStateUpdate"
)

var eventKinds = map[EventKind]struct{}{
	EventReady:             {},
	EventGuildCreate:       {},
	EventGuildDelete:       {},
	EventGuildMemberAdd:    {},
	EventGuildMemberRemove: {},
	EventMessageCreate:     {},
	EventInteractionCreate: {},
	EventVoiceStateUpdate:  {},
}

// Valid reports whether k is one of the supported event kinds.
func (k EventKind) Valid() bool {
	_, ok := eventKinds[k]
	return ok
}

// EventBinding binds a handler to a gateway event.
type EventBinding struct {
	Name    string
	Kind    EventKind
	Once    bool
	Execute EventFunc
}

// Handlers is the catalog of compiled-in handler functions that descriptors
// reference by name.
type Handlers struct {
	Commands map[string]CommandFunc
	Contexts map[string]ContextFunc
	Events   map[string]EventFunc
}

// NewHandlers creates an empty catalog.
func NewHandlers() Handlers {
	return Handlers{
		Commands: make(map[string]CommandFunc),
		Contexts: make(map[string]ContextFunc),
		Events:   make(map[string]EventFunc),
	}
}

// Merge copies every handler of other into h. Later merges win.
func (h Handlers) Merge(other Handlers) {
	maps.Copy(h.Commands, other.Commands)
	maps.Copy(h.Contexts, other.Contexts)
	maps.Copy(h.Events, other.Events)
}
