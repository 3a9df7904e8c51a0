package invocation

import (
	"sync"
	"testing"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func slashInteraction(options ...*discordgo.ApplicationCommandInteractionDataOption) *discordgo.Interaction {
	return &discordgo.Interaction{
		ID:        "1133462215227117608",
		Type:      discordgo.InteractionApplicationCommand,
		GuildID:   "guild",
		ChannelID: "channel",
		Member:    &discordgo.Member{User: &discordgo.User{ID: "actor"}},
		Data: discordgo.ApplicationCommandInteractionData{
			Name:        "ping",
			CommandType: discordgo.ChatApplicationCommand,
			Options:     options,
		},
	}
}

func userContextInteraction() *discordgo.Interaction {
	return &discordgo.Interaction{
		ID:        "ctx",
		Type:      discordgo.InteractionApplicationCommand,
		ChannelID: "channel",
		User:      &discordgo.User{ID: "dm-actor"},
		Data: discordgo.ApplicationCommandInteractionData{
			Name:        "avatar",
			CommandType: discordgo.UserApplicationCommand,
			TargetID:    "target",
		},
	}
}

func prefixMessage() *discordgo.Message {
	return &discordgo.Message{
		ID:        "msg",
		GuildID:   "guild",
		ChannelID: "channel",
		Content:   "!ping now",
		Author:    &discordgo.User{ID: "actor"},
	}
}

func TestFromInteraction_TagsOrigin(t *testing.T) {
	assert.Equal(t, OriginSlash, FromInteraction(slashInteraction()).Origin)
	assert.Equal(t, OriginContextAction, FromInteraction(userContextInteraction()).Origin)
	assert.Equal(t, OriginPrefix, FromMessage(prefixMessage()).Origin)
}

func TestSource_ActorResolution(t *testing.T) {
	assert.Equal(t, "actor", FromInteraction(slashInteraction()).ActorID())
	assert.Equal(t, "dm-actor", FromInteraction(userContextInteraction()).ActorID())
	assert.Equal(t, "actor", FromMessage(prefixMessage()).ActorID())
}

func TestNew_NormalizesSlash(t *testing.T) {
	transport := &MockTransport{}
	ic := New(transport, FromInteraction(slashInteraction()), []string{"a"})

	assert.Equal(t, "actor", ic.ActorID)
	assert.Equal(t, "guild", ic.GuildID)
	assert.Equal(t, "channel", ic.ChannelID)
	assert.True(t, ic.IsInteraction())
	assert.Nil(t, ic.Message())
	assert.False(t, ic.CreatedAt.IsZero())
	assert.Equal(t, 2023, ic.CreatedAt.Year())
}

func TestContext_TargetID(t *testing.T) {
	ic := New(&MockTransport{}, FromInteraction(userContextInteraction()), nil)
	assert.Equal(t, "target", ic.TargetID())

	ic = New(&MockTransport{}, FromMessage(prefixMessage()), nil)
	assert.Equal(t, "", ic.TargetID())
}

func TestInteraction_DeferThenReplyEditsResponse(t *testing.T) {
	transport := &MockTransport{}
	ic := New(transport, FromInteraction(slashInteraction()), nil)

	require.NoError(t, ic.DeferReply(true))
	assert.True(t, ic.Deferred())

	_, err := ic.Reply(Reply{Content: "done"})
	require.NoError(t, err)

	calls := transport.Calls()
	require.Len(t, calls, 2)
	assert.Equal(t, discordgo.InteractionResponseDeferredChannelMessageWithSource, calls[0].Type)
	assert.Equal(t, discordgo.MessageFlagsEphemeral, calls[0].Flags)
	assert.Equal(t, "InteractionResponseEdit", calls[1].Method)
	assert.Equal(t, "done", calls[1].Content)
}

func TestInteraction_ReplyFetchesResponse(t *testing.T) {
	transport := &MockTransport{}
	ic := New(transport, FromInteraction(slashInteraction()), nil)

	msg, err := ic.Reply(Reply{Content: "pong", Ephemeral: true})

	require.NoError(t, err)
	require.NotNil(t, msg)
	assert.Equal(t, []string{"InteractionRespond", "InteractionResponse"}, transport.Methods())
	assert.Equal(t, discordgo.MessageFlagsEphemeral, transport.Calls()[0].Flags)
}

func TestInteraction_ConcurrentRepliesRespondOnce(t *testing.T) {
	transport := &MockTransport{}
	ic := New(transport, FromInteraction(slashInteraction()), nil)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := ic.Reply(Reply{Content: "pong"})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	responds := 0
	for _, method := range transport.Methods() {
		if method == "InteractionRespond" {
			responds++
		}
	}
	assert.Equal(t, 1, responds)
	assert.Contains(t, transport.Methods(), "InteractionResponseEdit")
}

func TestPrefix_ReplyThenEdit(t *testing.T) {
	transport := &MockTransport{}
	ic := New(transport, FromMessage(prefixMessage()), nil)

	_, err := ic.Reply(Reply{Content: "first", Ephemeral: true})
	require.NoError(t, err)
	_, err = ic.EditReply(Reply{Content: "second"})
	require.NoError(t, err)

	calls := transport.Calls()
	require.Len(t, calls, 2)
	assert.Equal(t, "ChannelMessageSendComplex", calls[0].Method)
	assert.Equal(t, "ChannelMessageEditComplex", calls[1].Method)
	assert.Equal(t, "second", calls[1].Content)
}

func TestPrefix_EditWithoutReply(t *testing.T) {
	ic := New(&MockTransport{}, FromMessage(prefixMessage()), nil)

	_, err := ic.EditReply(Reply{Content: "x"})

	assert.ErrorIs(t, err, ErrNothingToEdit)
}

func TestPrefix_DeferShowsTyping(t *testing.T) {
	transport := &MockTransport{}
	ic := New(transport, FromMessage(prefixMessage()), nil)

	require.NoError(t, ic.DeferReply(true))
	_, err := ic.EditReply(Reply{Content: "late"})
	require.NoError(t, err)

	assert.Equal(t, []string{"ChannelTyping", "ChannelMessageSendComplex"}, transport.Methods())
}

func TestNotice_DeletesAfterTTL(t *testing.T) {
	transport := &MockTransport{}

	err := Notice(transport, FromMessage(prefixMessage()), "slow down", 10*time.Millisecond)
	require.NoError(t, err)

	assert.Eventually(t, func() bool {
		methods := transport.Methods()
		return len(methods) == 2 && methods[1] == "ChannelMessageDelete"
	}, time.Second, 5*time.Millisecond)
}

func TestNotice_InteractionIsEphemeral(t *testing.T) {
	transport := &MockTransport{}

	err := Notice(transport, FromInteraction(slashInteraction()), "denied", 0)
	require.NoError(t, err)

	calls := transport.Calls()
	require.Len(t, calls, 1)
	assert.Equal(t, discordgo.MessageFlagsEphemeral, calls[0].Flags)
}

func TestArgsFromOptions(t *testing.T) {
	options := []*discordgo.ApplicationCommandInteractionDataOption{
		{
			Name: "set",
			Type: discordgo.ApplicationCommandOptionSubCommand,
			Options: []*discordgo.ApplicationCommandInteractionDataOption{
				{Name: "count", Type: discordgo.ApplicationCommandOptionInteger, Value: float64(3)},
				{Name: "loud", Type: discordgo.ApplicationCommandOptionBoolean, Value: true},
			},
		},
	}

	assert.Equal(t, []string{"set", "3", "true"}, ArgsFromOptions(options))
}

func TestParsePrefix(t *testing.T) {
	prefixes := []string{"!", "?", "."}

	token, args, ok := ParsePrefix("!PING a b", prefixes)
	assert.True(t, ok)
	assert.Equal(t, "ping", token)
	assert.Equal(t, []string{"a", "b"}, args)

	_, _, ok = ParsePrefix("hello", prefixes)
	assert.False(t, ok)

	_, _, ok = ParsePrefix("!   ", prefixes)
	assert.False(t, ok)
}
