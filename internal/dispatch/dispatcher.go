// Package dispatch runs slash commands, context actions and prefix commands
// through the cooldown, authorization and permission gates before executing
// the plugin. It is the error boundary for plugin code.
package dispatch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/google/uuid"

	"github.com/sglre6355/vaneta/internal/cooldown"
	"github.com/sglre6355/vaneta/internal/invocation"
	"github.com/sglre6355/vaneta/internal/metrics"
	"github.com/sglre6355/vaneta/internal/permission"
	"github.com/sglre6355/vaneta/internal/plugin"
)

// Default settings.
const (
	DefaultMaxAttempts    = 5
	DefaultWindow         = 10 * time.Second
	DefaultExecuteTimeout = 30 * time.Second

	// NoticeTTL is how long denial notices stay visible.
	NoticeTTL = 5 * time.Second
)

// User-visible messages.
const (
	failureMessage       = "An error has occurred while running this command."
	unknownActionMessage = "An error has occurred"
	developerOnlyMessage = "This command is restricted to the bot developer."
)

// Embed colors for responses.
const (
	colorYellow = 0xFFFF00
)

// Catalog looks up loaded plugin entries.
type Catalog interface {
	Command(name string) (*plugin.Command, bool)
	FindCommand(token string) (*plugin.Command, bool)
	Context(name string) (*plugin.ContextAction, bool)
}

// Config holds the dispatcher settings.
type Config struct {
	// DeveloperID is the only actor allowed to run root commands.
	DeveloperID    string
	Prefixes       []string
	MaxAttempts    int
	Window         time.Duration
	ExecuteTimeout time.Duration
}

// Dependencies are the collaborators of a Dispatcher.
type Dependencies struct {
	Catalog   Catalog
	Tracker   *cooldown.Tracker
	Resolver  *permission.Resolver
	Transport invocation.Transport
	Runtime   plugin.Runtime
	Metrics   *metrics.Metrics
	Logger    *slog.Logger

	// SelfID returns the bot's user id, used for client permission checks.
	SelfID func() string
}

// Dispatcher sequences the invocation pipeline. It is safe for concurrent use.
type Dispatcher struct {
	cfg     Config
	deps    Dependencies
	notices *noticeLimiter
	logger  *slog.Logger
}

// New creates a Dispatcher. Zero config values take the defaults.
func New(cfg Config, deps Dependencies) *Dispatcher {
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = DefaultMaxAttempts
	}
	if cfg.Window <= 0 {
		cfg.Window = DefaultWindow
	}
	if cfg.ExecuteTimeout <= 0 {
		cfg.ExecuteTimeout = DefaultExecuteTimeout
	}
	if deps.Tracker == nil {
		deps.Tracker = cooldown.NewTracker()
	}
	if deps.SelfID == nil {
		deps.SelfID = func() string { return "" }
	}

	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Dispatcher{
		cfg:     cfg,
		deps:    deps,
		notices: newNoticeLimiter(),
		logger:  logger,
	}
}

// target is what the pipeline runs, independent of the entry kind.
type target struct {
	name        string
	kind        cooldown.Kind
	category    string
	cooldown    time.Duration
	memberPerms []int64
	clientPerms []int64
	ephemeral   bool
	run         func(ctx context.Context, ic *invocation.Context, args []string) error
}

func (d *Dispatcher) commandTarget(cmd *plugin.Command) target {
	return target{
		name:        cmd.Name,
		kind:        cooldown.CommandKind(cmd.Name),
		category:    cmd.Category,
		cooldown:    time.Duration(cmd.Cooldown) * time.Second,
		memberPerms: cmd.MemberPerms,
		clientPerms: cmd.ClientPerms,
		run: func(ctx context.Context, ic *invocation.Context, args []string) error {
			return cmd.Execute(ctx, d.deps.Runtime, ic, args)
		},
	}
}

func (d *Dispatcher) contextTarget(action *plugin.ContextAction) target {
	return target{
		name:      action.Name,
		kind:      cooldown.ContextKind(action.Name),
		cooldown:  time.Duration(action.Cooldown) * time.Second,
		ephemeral: action.Ephemeral,
		run: func(ctx context.Context, ic *invocation.Context, _ []string) error {
			return action.Execute(ctx, d.deps.Runtime, ic)
		},
	}
}

// HandleInteraction dispatches an application command interaction. Other
// interaction types are ignored.
func (d *Dispatcher) HandleInteraction(ctx context.Context, i *discordgo.Interaction) error {
	if i.Type != discordgo.InteractionApplicationCommand {
		return nil
	}

	src := invocation.FromInteraction(i)
	data := i.ApplicationCommandData()

	if src.Origin == invocation.OriginContextAction {
		action, ok := d.deps.Catalog.Context(data.Name)
		if !ok || !action.Enabled {
			d.logger.Warn("found no handler for context action", "context", data.Name)
			d.deps.Metrics.Invocation(src.Origin.String(), metrics.OutcomeUnknown)
			if err := invocation.Notice(d.deps.Transport, src, unknownActionMessage, 0); err != nil {
				d.logger.Error("failed to send notice", "error", err)
			}
			return ErrUnknownCommand
		}
		return d.dispatch(ctx, src, d.contextTarget(action), nil)
	}

	cmd, ok := d.deps.Catalog.Command(data.Name)
	if !ok || !cmd.Slash {
		d.logger.Warn("found no handler for command", "command", data.Name)
		d.deps.Metrics.Invocation(src.Origin.String(), metrics.OutcomeUnknown)
		d.respondWithEmbed(i, "Unknown Command", "This command is not recognized.", colorYellow)
		return ErrUnknownCommand
	}
	return d.dispatch(ctx, src, d.commandTarget(cmd), invocation.ArgsFromOptions(data.Options))
}

// HandleMessage dispatches a prefix command. Messages from bots, outside
// guilds, without a prefix or naming no command are ignored without a response.
func (d *Dispatcher) HandleMessage(ctx context.Context, m *discordgo.Message) error {
	if m.Author == nil || m.Author.Bot || m.GuildID == "" {
		return nil
	}

	token, args, ok := invocation.ParsePrefix(m.Content, d.cfg.Prefixes)
	if !ok {
		return nil
	}

	cmd, ok := d.deps.Catalog.FindCommand(token)
	if !ok {
		return nil
	}

	return d.dispatch(ctx, invocation.FromMessage(m), d.commandTarget(cmd), args)
}

func (d *Dispatcher) dispatch(ctx context.Context, src invocation.Source, t target, args []string) error {
	origin := src.Origin.String()
	logger := d.logger.With(
		"invocation_id", uuid.NewString(),
		"command", t.name,
		"origin", origin,
		"actor_id", src.ActorID(),
	)

	err := d.run(ctx, src, t, args, logger)
	d.deps.Metrics.Invocation(origin, outcome(err))
	return err
}

func (d *Dispatcher) run(ctx context.Context, src invocation.Source, t target, args []string, logger *slog.Logger) error {
	actorID := src.ActorID()

	if err := d.checkCooldown(actorID, t); err != nil {
		logger.Debug("throttled invocation", "kind", err.Kind, "retry_at", err.RetryAt)
		d.notice(src, throttleMessage(err.RetryAt), time.Until(err.RetryAt), logger)
		return err
	}

	if t.category == plugin.RootCategory && (d.cfg.DeveloperID == "" || actorID != d.cfg.DeveloperID) {
		logger.Debug("denied developer-only invocation")
		d.notice(src, developerOnlyMessage, NoticeTTL, logger)
		return &AuthorizationError{DeveloperOnly: true}
	}

	if guildID := src.GuildID(); guildID != "" {
		denied, err := d.checkPermissions(src, t)
		if err != nil {
			logger.Error("failed to resolve permissions", "error", err)
			return &ExecutionError{Command: t.name, Err: err}
		}
		if denied != nil {
			logger.Debug("denied invocation for missing permissions",
				"missing_client", denied.MissingClient,
				"missing_member", denied.MissingMember,
			)
			d.notice(src, permissionMessage(denied), NoticeTTL, logger)
			return denied
		}
	}

	ic := invocation.New(d.deps.Transport, src, args)
	if ic.IsInteraction() {
		if err := ic.DeferReply(t.ephemeral); err != nil {
			logger.Error("failed to defer reply", "error", err)
			return &ExecutionError{Command: t.name, Err: fmt.Errorf("defer reply: %w", err)}
		}
	}

	start := time.Now()
	err := d.execute(ctx, t, ic, args)
	d.deps.Metrics.ObserveExecute(src.Origin.String(), time.Since(start))

	if err != nil {
		logger.Error("failed to execute command", "error", err)
		d.sendFailure(ic, logger)
		return &ExecutionError{Command: t.name, Err: err}
	}

	logger.Debug("executed command", "duration", time.Since(start))
	return nil
}

// checkCooldown applies the coarse command throttle, then the entry's own
// cooldown if it declares one.
func (d *Dispatcher) checkCooldown(actorID string, t target) *ThrottleError {
	result := d.deps.Tracker.CheckLimit(actorID, cooldown.KindCommand, d.cfg.MaxAttempts, d.cfg.Window)
	if result.Limited {
		return &ThrottleError{Kind: cooldown.KindCommand, RetryAt: result.RetryAt}
	}

	if t.cooldown > 0 {
		result = d.deps.Tracker.CheckLimit(actorID, t.kind, 1, t.cooldown)
		if result.Limited {
			return &ThrottleError{Kind: t.kind, RetryAt: result.RetryAt}
		}
	}
	return nil
}

func (d *Dispatcher) checkPermissions(src invocation.Source, t target) (*AuthorizationError, error) {
	if len(t.clientPerms) == 0 && len(t.memberPerms) == 0 {
		return nil, nil
	}
	if d.deps.Resolver == nil {
		return nil, errors.New("permission resolver is not configured")
	}

	scope := permission.Scope{
		GuildID:   src.GuildID(),
		ChannelID: src.ChannelID(),
		ActorID:   src.ActorID(),
	}

	missingClient, err := d.deps.Resolver.Missing(t.clientPerms, d.deps.SelfID(), scope)
	if err != nil {
		return nil, fmt.Errorf("client permissions: %w", err)
	}
	missingMember, err := d.deps.Resolver.Missing(t.memberPerms, scope.ActorID, scope)
	if err != nil {
		return nil, fmt.Errorf("member permissions: %w", err)
	}

	if len(missingClient) == 0 && len(missingMember) == 0 {
		return nil, nil
	}
	return &AuthorizationError{MissingClient: missingClient, MissingMember: missingMember}, nil
}

// execute runs the plugin under the execute timeout and converts panics into errors.
func (d *Dispatcher) execute(ctx context.Context, t target, ic *invocation.Context, args []string) error {
	ctx, cancel := context.WithTimeout(ctx, d.cfg.ExecuteTimeout)
	defer cancel()

	done := make(chan error, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- fmt.Errorf("%w: %v", ErrPanic, r)
			}
		}()
		done <- t.run(ctx, ic, args)
	}()

	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return fmt.Errorf("%w after %s", ErrTimeout, d.cfg.ExecuteTimeout)
		}
		return ctx.Err()
	}
}

func (d *Dispatcher) sendFailure(ic *invocation.Context, logger *slog.Logger) {
	reply := invocation.Reply{Content: failureMessage, Ephemeral: true}

	var err error
	if ic.IsInteraction() {
		_, err = ic.FollowUp(reply)
	} else {
		_, err = ic.Reply(reply)
	}
	if err != nil {
		logger.Warn("failed to send failure notice", "error", err)
	}
}

// notice sends a self-expiring gate notice, dropping it when the actor is
// being sent notices faster than the limiter allows.
func (d *Dispatcher) notice(src invocation.Source, content string, ttl time.Duration, logger *slog.Logger) {
	if !d.notices.Allow(src.ActorID()) {
		logger.Debug("dropped notice", "content", content)
		return
	}
	if err := invocation.Notice(d.deps.Transport, src, content, ttl); err != nil {
		logger.Warn("failed to send notice", "error", err)
	}
}

func (d *Dispatcher) respondWithEmbed(i *discordgo.Interaction, title, description string, color int) {
	err := d.deps.Transport.InteractionRespond(i, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Embeds: []*discordgo.MessageEmbed{
				{
					Title:       title,
					Description: description,
					Color:       color,
				},
			},
		},
	})
	if err != nil {
		d.logger.Error("failed to send embed response", "error", err)
	}
}

func throttleMessage(retryAt time.Time) string {
	return fmt.Sprintf("You're doing that too often. Try again <t:%d:R>.", retryAt.Unix())
}

func permissionMessage(err *AuthorizationError) string {
	var lines []string
	if len(err.MissingClient) > 0 {
		lines = append(lines, "I need the following permissions: "+boldList(err.MissingClient))
	}
	if len(err.MissingMember) > 0 {
		lines = append(lines, "You need the following permissions: "+boldList(err.MissingMember))
	}
	return strings.Join(lines, "\n")
}

func boldList(names []string) string {
	quoted := make([]string, len(names))
	for i, n := range names {
		quoted[i] = "**" + n + "**"
	}
	return strings.Join(quoted, ", ")
}

func outcome(err error) string {
	var (
		throttle *ThrottleError
		auth     *AuthorizationError
	)
	switch {
	case err == nil:
		return metrics.OutcomeOK
	case errors.As(err, &throttle):
		return metrics.OutcomeThrottled
	case errors.As(err, &auth):
		if auth.DeveloperOnly {
			return metrics.OutcomeUnauthorized
		}
		return metrics.OutcomeForbidden
	default:
		return metrics.OutcomeFailed
	}
}
