package dispatch

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sglre6355/vaneta/internal/cooldown"
	"github.com/sglre6355/vaneta/internal/invocation"
	"github.com/sglre6355/vaneta/internal/permission"
	"github.com/sglre6355/vaneta/internal/plugin"
	"github.com/sglre6355/vaneta/internal/registry"
)

const (
	developerID = "dev"
	actorID     = "actor"
	botID       = "bot"
)

type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) count(substr string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return strings.Count(b.buf.String(), substr)
}

type stubSource struct {
	perms map[string]int64
}

func (s *stubSource) ChannelPermissions(userID, _ string) (int64, error) {
	return s.perms[userID], nil
}

func (s *stubSource) VoiceChannel(string, string) (string, error) {
	return "", nil
}

type harness struct {
	dispatcher *Dispatcher
	transport  *invocation.MockTransport
	registry   *registry.Registry
	tracker    *cooldown.Tracker
	logs       *syncBuffer
	perms      *stubSource
}

func newHarness(t *testing.T, cfg Config) *harness {
	t.Helper()

	logs := &syncBuffer{}
	h := &harness{
		transport: &invocation.MockTransport{},
		registry:  registry.New(slog.New(slog.NewJSONHandler(&bytes.Buffer{}, nil))),
		tracker:   cooldown.NewTracker(),
		logs:      logs,
		perms: &stubSource{perms: map[string]int64{
			botID:   discordgo.PermissionSendMessages | discordgo.PermissionEmbedLinks,
			actorID: discordgo.PermissionSendMessages,
		}},
	}

	if cfg.DeveloperID == "" {
		cfg.DeveloperID = developerID
	}
	if cfg.Prefixes == nil {
		cfg.Prefixes = []string{"!"}
	}
	if cfg.MaxAttempts == 0 {
		cfg.MaxAttempts = 100
	}

	h.dispatcher = New(cfg, Dependencies{
		Catalog:   h.registry,
		Tracker:   h.tracker,
		Resolver:  permission.NewResolver(h.perms),
		Transport: h.transport,
		Logger:    slog.New(slog.NewJSONHandler(logs, &slog.HandlerOptions{Level: slog.LevelDebug})),
		SelfID:    func() string { return botID },
	})
	return h
}

func message(author, content string) *discordgo.Message {
	return &discordgo.Message{
		ID:        "1133462215227117608",
		GuildID:   "guild",
		ChannelID: "channel",
		Content:   content,
		Author:    &discordgo.User{ID: author},
	}
}

func slash(name string) *discordgo.Interaction {
	return &discordgo.Interaction{
		ID:        "1133462215227117609",
		Type:      discordgo.InteractionApplicationCommand,
		GuildID:   "guild",
		ChannelID: "channel",
		Member:    &discordgo.Member{User: &discordgo.User{ID: actorID}},
		Data: discordgo.ApplicationCommandInteractionData{
			Name:        name,
			CommandType: discordgo.ChatApplicationCommand,
		},
	}
}

func userAction(name string) *discordgo.Interaction {
	i := slash(name)
	data := i.Data.(discordgo.ApplicationCommandInteractionData)
	data.CommandType = discordgo.UserApplicationCommand
	data.TargetID = "target"
	i.Data = data
	return i
}

func recordingCommand(name string, calls *[][]string) *plugin.Command {
	return &plugin.Command{
		Name:  name,
		Slash: true,
		Execute: func(_ context.Context, _ plugin.Runtime, _ *invocation.Context, args []string) error {
			*calls = append(*calls, args)
			return nil
		},
	}
}

func TestHandleMessage_ExecutesWithArgs(t *testing.T) {
	h := newHarness(t, Config{})
	var calls [][]string
	h.registry.AddCommand(recordingCommand("echo", &calls))

	err := h.dispatcher.HandleMessage(context.Background(), message(actorID, "!ECHO a b"))

	require.NoError(t, err)
	require.Len(t, calls, 1)
	assert.Equal(t, []string{"a", "b"}, calls[0])
}

func TestHandleMessage_UnknownPrefixCommandIsSilent(t *testing.T) {
	h := newHarness(t, Config{})

	err := h.dispatcher.HandleMessage(context.Background(), message(actorID, "!ping"))

	assert.NoError(t, err)
	assert.Empty(t, h.transport.Calls())
	assert.Equal(t, 0, h.tracker.Len(), "no gate ran")
}

func TestHandleMessage_IgnoresBotsAndDirectMessages(t *testing.T) {
	h := newHarness(t, Config{})
	var calls [][]string
	h.registry.AddCommand(recordingCommand("ping", &calls))

	fromBot := message("other-bot", "!ping")
	fromBot.Author.Bot = true
	direct := message(actorID, "!ping")
	direct.GuildID = ""

	require.NoError(t, h.dispatcher.HandleMessage(context.Background(), fromBot))
	require.NoError(t, h.dispatcher.HandleMessage(context.Background(), direct))

	assert.Empty(t, calls)
	assert.Empty(t, h.transport.Calls())
}

func TestDispatch_ThrottleGatePrecedesAuthorization(t *testing.T) {
	h := newHarness(t, Config{MaxAttempts: 1, Window: time.Minute})
	h.registry.AddCommand(&plugin.Command{
		Name:     "eval",
		Category: plugin.RootCategory,
		Execute: func(context.Context, plugin.Runtime, *invocation.Context, []string) error {
			t.Fatal("root command must not run")
			return nil
		},
	})
	h.tracker.CheckLimit(actorID, cooldown.KindCommand, 1, time.Minute)

	err := h.dispatcher.HandleMessage(context.Background(), message(actorID, "!eval"))

	var throttle *ThrottleError
	require.ErrorAs(t, err, &throttle)
	calls := h.transport.Calls()
	require.Len(t, calls, 1)
	assert.Contains(t, calls[0].Content, "too often")
	assert.NotContains(t, calls[0].Content, "developer")
}

func TestDispatch_RootCategoryRequiresDeveloper(t *testing.T) {
	h := newHarness(t, Config{})
	var calls [][]string
	cmd := recordingCommand("eval", &calls)
	cmd.Category = plugin.RootCategory
	h.registry.AddCommand(cmd)

	err := h.dispatcher.HandleMessage(context.Background(), message(actorID, "!eval"))

	var auth *AuthorizationError
	require.ErrorAs(t, err, &auth)
	assert.True(t, auth.DeveloperOnly)
	assert.Empty(t, calls)
	require.Len(t, h.transport.Calls(), 1)
	assert.Equal(t, developerOnlyMessage, h.transport.Calls()[0].Content)

	require.NoError(t, h.dispatcher.HandleMessage(context.Background(), message(developerID, "!eval")))
	assert.Len(t, calls, 1)
}

func TestDispatch_PerCommandCooldownIsHonored(t *testing.T) {
	h := newHarness(t, Config{})
	var calls [][]string
	cmd := recordingCommand("ping", &calls)
	cmd.Cooldown = 60
	h.registry.AddCommand(cmd)

	require.NoError(t, h.dispatcher.HandleMessage(context.Background(), message(actorID, "!ping")))
	err := h.dispatcher.HandleMessage(context.Background(), message(actorID, "!ping"))

	var throttle *ThrottleError
	require.ErrorAs(t, err, &throttle)
	assert.Equal(t, cooldown.CommandKind("ping"), throttle.Kind)
	assert.Len(t, calls, 1)
}

func TestDispatch_MissingPermissionsStopsBeforeExecute(t *testing.T) {
	h := newHarness(t, Config{})
	var calls [][]string
	cmd := recordingCommand("purge", &calls)
	cmd.MemberPerms = []int64{discordgo.PermissionManageMessages}
	cmd.ClientPerms = []int64{permission.Connect, discordgo.PermissionManageMessages}
	h.registry.AddCommand(cmd)

	err := h.dispatcher.HandleMessage(context.Background(), message(actorID, "!purge"))

	var auth *AuthorizationError
	require.ErrorAs(t, err, &auth)
	assert.Equal(t, []string{"Manage Messages"}, auth.MissingClient)
	assert.Equal(t, []string{"Manage Messages"}, auth.MissingMember)
	assert.Empty(t, calls)
	require.Len(t, h.transport.Calls(), 1)
	assert.Contains(t, h.transport.Calls()[0].Content, "**Manage Messages**")
}

func TestDispatch_FailingPluginIsContained(t *testing.T) {
	h := newHarness(t, Config{})
	h.registry.AddCommand(&plugin.Command{
		Name: "boom",
		Execute: func(context.Context, plugin.Runtime, *invocation.Context, []string) error {
			return errors.New("kaboom")
		},
	})

	for n := 1; n <= 2; n++ {
		err := h.dispatcher.HandleMessage(context.Background(), message(actorID, "!boom"))

		var execErr *ExecutionError
		require.ErrorAs(t, err, &execErr)
		assert.Equal(t, "boom", execErr.Command)

		calls := h.transport.Calls()
		require.Len(t, calls, n, "one failure notice per invocation")
		assert.Equal(t, failureMessage, calls[n-1].Content)
		assert.Equal(t, n, h.logs.count(`"level":"ERROR"`), "one logged error per invocation")
	}
}

func TestDispatch_PanicIsRecovered(t *testing.T) {
	h := newHarness(t, Config{})
	h.registry.AddCommand(&plugin.Command{
		Name: "panic",
		Execute: func(context.Context, plugin.Runtime, *invocation.Context, []string) error {
			panic("unexpected")
		},
	})

	err := h.dispatcher.HandleMessage(context.Background(), message(actorID, "!panic"))

	assert.ErrorIs(t, err, ErrPanic)
}

func TestDispatch_ExecuteTimeout(t *testing.T) {
	h := newHarness(t, Config{ExecuteTimeout: 20 * time.Millisecond})
	block := make(chan struct{})
	defer close(block)
	h.registry.AddCommand(&plugin.Command{
		Name: "hang",
		Execute: func(context.Context, plugin.Runtime, *invocation.Context, []string) error {
			<-block
			return nil
		},
	})

	err := h.dispatcher.HandleMessage(context.Background(), message(actorID, "!hang"))

	var execErr *ExecutionError
	require.ErrorAs(t, err, &execErr)
	assert.ErrorIs(t, err, ErrTimeout)
}

func TestHandleInteraction_SlashDefersThenFollowsUpOnFailure(t *testing.T) {
	h := newHarness(t, Config{})
	h.registry.AddCommand(&plugin.Command{
		Name:  "boom",
		Slash: true,
		Execute: func(context.Context, plugin.Runtime, *invocation.Context, []string) error {
			return errors.New("kaboom")
		},
	})

	err := h.dispatcher.HandleInteraction(context.Background(), slash("boom"))

	require.Error(t, err)
	calls := h.transport.Calls()
	require.Len(t, calls, 2)
	assert.Equal(t, discordgo.InteractionResponseDeferredChannelMessageWithSource, calls[0].Type)
	assert.Equal(t, discordgo.MessageFlags(0), calls[0].Flags)
	assert.Equal(t, "FollowupMessageCreate", calls[1].Method)
	assert.Equal(t, failureMessage, calls[1].Content)
}

func TestHandleInteraction_ContextActionDefersEphemeral(t *testing.T) {
	h := newHarness(t, Config{})
	var target string
	h.registry.AddContext(&plugin.ContextAction{
		Name:      "avatar",
		Enabled:   true,
		Ephemeral: true,
		Execute: func(_ context.Context, _ plugin.Runtime, ic *invocation.Context) error {
			target = ic.TargetID()
			return nil
		},
	})

	err := h.dispatcher.HandleInteraction(context.Background(), userAction("avatar"))

	require.NoError(t, err)
	assert.Equal(t, "target", target)
	calls := h.transport.Calls()
	require.Len(t, calls, 1)
	assert.Equal(t, discordgo.MessageFlagsEphemeral, calls[0].Flags)
}

func TestHandleInteraction_UnknownEntries(t *testing.T) {
	h := newHarness(t, Config{})

	err := h.dispatcher.HandleInteraction(context.Background(), slash("missing"))
	assert.ErrorIs(t, err, ErrUnknownCommand)

	err = h.dispatcher.HandleInteraction(context.Background(), userAction("missing"))
	assert.ErrorIs(t, err, ErrUnknownCommand)

	calls := h.transport.Calls()
	require.Len(t, calls, 2)
	assert.Equal(t, "", calls[0].Content, "unknown command answers with an embed")
	assert.Equal(t, unknownActionMessage, calls[1].Content)
	assert.Equal(t, discordgo.MessageFlagsEphemeral, calls[1].Flags)
}

func TestHandleInteraction_IgnoresComponents(t *testing.T) {
	h := newHarness(t, Config{})
	i := slash("ping")
	i.Type = discordgo.InteractionMessageComponent
	i.Data = discordgo.MessageComponentInteractionData{CustomID: "button"}

	assert.NoError(t, h.dispatcher.HandleInteraction(context.Background(), i))
	assert.Empty(t, h.transport.Calls())
}
