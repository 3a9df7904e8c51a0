package bot

import (
	"context"
	"fmt"

	"github.com/bwmarrin/discordgo"

	"github.com/sglre6355/vaneta/internal/plugin"
)

var eventKinds = []plugin.EventKind{
	plugin.EventReady,
	plugin.EventGuildCreate,
	plugin.EventGuildDelete,
	plugin.EventGuildMemberAdd,
	plugin.EventGuildMemberRemove,
	plugin.EventMessageCreate,
	plugin.EventInteractionCreate,
	plugin.EventVoiceStateUpdate,
}

// registerEventHandlers attaches every loaded event binding to the session.
func (b *Bot) registerEventHandlers() {
	for _, kind := range eventKinds {
		for _, binding := range b.registry.Events(kind) {
			handler := b.eventHandler(binding)
			if handler == nil {
				b.logger.Warn("found no session handler for event", "event", kind)
				continue
			}
			if binding.Once {
				b.session.AddHandlerOnce(handler)
			} else {
				b.session.AddHandler(handler)
			}
			b.logger.Debug("registered event binding", "event", kind, "binding", binding.Name, "once", binding.Once)
		}
	}
}

// eventHandler adapts binding to the typed handler signature discordgo
// dispatches on.
func (b *Bot) eventHandler(binding *plugin.EventBinding) any {
	run := func(event any) { b.runEvent(binding, event) }

	switch binding.Kind {
	case plugin.EventReady:
		return func(_ *discordgo.Session, e *discordgo.Ready) { run(e) }
	case plugin.EventGuildCreate:
		return func(_ *discordgo.Session, e *discordgo.GuildCreate) { run(e) }
	case plugin.EventGuildDelete:
		return func(_ *discordgo.Session, e *discordgo.GuildDelete) { run(e) }
	case plugin.EventGuildMemberAdd:
		return func(_ *discordgo.Session, e *discordgo.GuildMemberAdd) { run(e) }
	case plugin.EventGuildMemberRemove:
		return func(_ *discordgo.Session, e *discordgo.GuildMemberRemove) { run(e) }
	case plugin.EventMessageCreate:
		return func(_ *discordgo.Session, e *discordgo.MessageCreate) { run(e) }
	case plugin.EventInteractionCreate:
		return func(_ *discordgo.Session, e *discordgo.InteractionCreate) { run(e) }
	case plugin.EventVoiceStateUpdate:
		return func(_ *discordgo.Session, e *discordgo.VoiceStateUpdate) { run(e) }
	default:
		return nil
	}
}

// runEvent executes an event binding under the execute timeout. Errors and
// panics are logged and never reach the session.
func (b *Bot) runEvent(binding *plugin.EventBinding, event any) {
	ctx, cancel := context.WithTimeout(b.ctx, b.config.ExecuteTimeout)
	defer cancel()

	defer func() {
		if r := recover(); r != nil {
			b.logger.Error("event handler panicked",
				"event", binding.Kind,
				"binding", binding.Name,
				"error", fmt.Sprint(r),
			)
		}
	}()

	if err := binding.Execute(ctx, b, event); err != nil {
		b.logger.Error("failed to handle event",
			"event", binding.Kind,
			"binding", binding.Name,
			"error", err,
		)
	}
}
