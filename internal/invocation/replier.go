package invocation

import (
	"log/slog"
	"sync"
	"time"

	"github.com/bwmarrin/discordgo"
)

type replier interface {
	reply(r Reply) (*discordgo.Message, error)
	deferReply(ephemeral bool) error
	editReply(r Reply) (*discordgo.Message, error)
	followUp(r Reply) (*discordgo.Message, error)
	deferred() bool
}

// interactionReplier answers through the interaction webhook.
type interactionReplier struct {
	transport   Transport
	interaction *discordgo.Interaction

	mu        sync.Mutex
	responded bool
}

func (r *interactionReplier) reply(rep Reply) (*discordgo.Message, error) {
	r.mu.Lock()
	if r.responded {
		r.mu.Unlock()
		return r.editReply(rep)
	}

	err := r.transport.InteractionRespond(r.interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Content:    rep.Content,
			Embeds:     rep.Embeds,
			Components: rep.Components,
			Flags:      flags(rep.Ephemeral),
		},
	})
	if err == nil {
		r.responded = true
	}
	r.mu.Unlock()

	if err != nil {
		return nil, err
	}
	return r.transport.InteractionResponse(r.interaction)
}

func (r *interactionReplier) deferReply(ephemeral bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.responded {
		return nil
	}

	err := r.transport.InteractionRespond(r.interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseDeferredChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{Flags: flags(ephemeral)},
	})
	if err != nil {
		return err
	}
	r.responded = true
	return nil
}

func (r *interactionReplier) editReply(rep Reply) (*discordgo.Message, error) {
	edit := &discordgo.WebhookEdit{Content: &rep.Content}
	if rep.Embeds != nil {
		edit.Embeds = &rep.Embeds
	}
	if rep.Components != nil {
		edit.Components = &rep.Components
	}
	return r.transport.InteractionResponseEdit(r.interaction, edit)
}

func (r *interactionReplier) followUp(rep Reply) (*discordgo.Message, error) {
	return r.transport.FollowupMessageCreate(r.interaction, &discordgo.WebhookParams{
		Content:    rep.Content,
		Embeds:     rep.Embeds,
		Components: rep.Components,
		Flags:      flags(rep.Ephemeral),
	})
}

func (r *interactionReplier) deferred() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.responded
}

// messageReplier answers a prefix message in its channel and remembers the last
// message it sent so it can be edited.
type messageReplier struct {
	transport Transport
	message   *discordgo.Message

	mu     sync.Mutex
	sent   *discordgo.Message
	typing bool
}

func (r *messageReplier) reply(rep Reply) (*discordgo.Message, error) {
	return r.send(rep, r.message.Reference())
}

func (r *messageReplier) deferReply(bool) error {
	if err := r.transport.ChannelTyping(r.message.ChannelID); err != nil {
		return err
	}
	r.mu.Lock()
	r.typing = true
	r.mu.Unlock()
	return nil
}

func (r *messageReplier) editReply(rep Reply) (*discordgo.Message, error) {
	r.mu.Lock()
	sent, typing := r.sent, r.typing
	r.mu.Unlock()

	if sent == nil {
		// A deferred prefix invocation has nothing on screen yet; the edit
		// becomes the first reply.
		if typing {
			return r.reply(rep)
		}
		return nil, ErrNothingToEdit
	}

	edit := discordgo.NewMessageEdit(sent.ChannelID, sent.ID).SetContent(rep.Content)
	if rep.Embeds != nil {
		edit.Embeds = &rep.Embeds
	}
	if rep.Components != nil {
		edit.Components = &rep.Components
	}

	msg, err := r.transport.ChannelMessageEditComplex(edit)
	if err != nil {
		return nil, err
	}
	r.mu.Lock()
	r.sent = msg
	r.mu.Unlock()
	return msg, nil
}

func (r *messageReplier) followUp(rep Reply) (*discordgo.Message, error) {
	return r.send(rep, nil)
}

func (r *messageReplier) deferred() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.typing || r.sent != nil
}

func (r *messageReplier) send(rep Reply, ref *discordgo.MessageReference) (*discordgo.Message, error) {
	msg, err := r.transport.ChannelMessageSendComplex(r.message.ChannelID, &discordgo.MessageSend{
		Content:    rep.Content,
		Embeds:     rep.Embeds,
		Components: rep.Components,
		Reference:  ref,
	})
	if err != nil {
		return nil, err
	}
	r.mu.Lock()
	r.sent = msg
	r.mu.Unlock()
	return msg, nil
}

// Notice replies to src with content and deletes the reply after ttl. Interaction
// notices are ephemeral. A ttl of zero keeps the notice.
func Notice(t Transport, src Source, content string, ttl time.Duration) error {
	if src.Interaction != nil {
		err := t.InteractionRespond(src.Interaction, &discordgo.InteractionResponse{
			Type: discordgo.InteractionResponseChannelMessageWithSource,
			Data: &discordgo.InteractionResponseData{
				Content: content,
				Flags:   discordgo.MessageFlagsEphemeral,
			},
		})
		if err != nil {
			return err
		}
		if ttl > 0 {
			time.AfterFunc(ttl, func() {
				if err := t.InteractionResponseDelete(src.Interaction); err != nil {
					slog.Debug("failed to delete notice", "interaction", src.Interaction.ID, "error", err)
				}
			})
		}
		return nil
	}

	msg, err := t.ChannelMessageSendComplex(src.Message.ChannelID, &discordgo.MessageSend{
		Content:   content,
		Reference: src.Message.Reference(),
	})
	if err != nil {
		return err
	}
	if ttl > 0 {
		time.AfterFunc(ttl, func() {
			if err := t.ChannelMessageDelete(msg.ChannelID, msg.ID); err != nil {
				slog.Debug("failed to delete notice", "message", msg.ID, "error", err)
			}
		})
	}
	return nil
}

func flags(ephemeral bool) discordgo.MessageFlags {
	if ephemeral {
		return discordgo.MessageFlagsEphemeral
	}
	return 0
}
