package bot

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/bwmarrin/discordgo"

	"github.com/sglre6355/vaneta/internal/cooldown"
	"github.com/sglre6355/vaneta/internal/dispatch"
	"github.com/sglre6355/vaneta/internal/invocation"
	"github.com/sglre6355/vaneta/internal/metrics"
	"github.com/sglre6355/vaneta/internal/permission"
	"github.com/sglre6355/vaneta/internal/plugin"
	"github.com/sglre6355/vaneta/internal/registrar"
	"github.com/sglre6355/vaneta/internal/registry"
	"github.com/sglre6355/vaneta/internal/store"
)

// Bot manages the Discord bot lifecycle and module coordination.
type Bot struct {
	config     *Config
	session    *discordgo.Session
	store      store.Store
	logger     *slog.Logger
	modules    []Module
	handlers   plugin.Handlers
	registry   *registry.Registry
	tracker    *cooldown.Tracker
	metrics    *metrics.Metrics
	dispatcher *dispatch.Dispatcher

	ctx    context.Context
	cancel context.CancelFunc
}

// Option configures a Bot.
type Option func(*Bot)

// WithStore sets the persistence collaborator handed to modules and plugins.
func WithStore(s store.Store) Option {
	return func(b *Bot) {
		b.store = s
	}
}

// WithLogger sets the logger. It defaults to slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(b *Bot) {
		b.logger = logger
	}
}

// NewBot creates a new Bot instance with the given configuration.
func NewBot(cfg *Config, opts ...Option) *Bot {
	b := &Bot{
		config:   cfg,
		modules:  make([]Module, 0),
		handlers: plugin.NewHandlers(),
		tracker:  cooldown.NewTracker(),
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(b)
	}
	b.registry = registry.New(b.logger)
	b.metrics = metrics.New(b.tracker.Len)
	b.ctx, b.cancel = context.WithCancel(context.Background())
	return b
}

// LoadModules loads modules from the global registry.
func (b *Bot) LoadModules() {
	b.modules = Modules()
}

// LoadPlugins initializes the modules, then loads every plugin directory.
// It returns only after all descriptors have been processed, so the registry
// is complete before Start accepts events.
func (b *Bot) LoadPlugins(ctx context.Context) (registry.Report, error) {
	if err := b.initModules(); err != nil {
		return registry.Report{}, &StartupError{Stage: StageModules, Err: err}
	}

	b.buildHandlers()

	report, err := b.registry.LoadAll(ctx, b.config.PluginDirs, registry.LoadOptions{
		Handlers:    b.handlers,
		Concurrency: b.config.LoadConcurrency,
		Metrics:     b.metrics,
	})
	if err != nil {
		return report, &StartupError{Stage: StagePlugins, Err: err}
	}
	return report, nil
}

// Start creates the session, wires the dispatcher and event bindings and
// connects to Discord. LoadPlugins must have returned before Start is called.
func (b *Bot) Start() error {
	// Create Discord session
	session, err := discordgo.New("Bot " + b.config.DiscordToken)
	if err != nil {
		return &StartupError{Stage: StageSession, Err: fmt.Errorf("failed to create Discord session: %w", err)}
	}
	b.session = session
	b.session.Identify.Intents = b.intents()

	b.dispatcher = dispatch.New(dispatch.Config{
		DeveloperID:    b.config.DeveloperUserID,
		Prefixes:       b.config.CommandPrefixes,
		MaxAttempts:    b.config.CooldownMaxAttempts,
		Window:         b.config.CooldownWindow,
		ExecuteTimeout: b.config.ExecuteTimeout,
	}, dispatch.Dependencies{
		Catalog:   b.registry,
		Tracker:   b.tracker,
		Resolver:  permission.NewResolver(permission.NewSessionSource(session)),
		Transport: invocation.NewSessionTransport(session),
		Runtime:   b,
		Metrics:   b.metrics,
		Logger:    b.logger,
		SelfID:    b.selfID,
	})

	b.session.AddHandler(b.handleInteraction)
	b.session.AddHandler(b.handleMessage)
	b.registerEventHandlers()

	go b.tracker.Run(b.ctx, cooldown.DefaultSweepInterval)

	if b.config.MetricsAddr != "" {
		go func() {
			if err := b.metrics.Serve(b.ctx, b.config.MetricsAddr); err != nil {
				b.logger.Error("failed to serve metrics", "error", err)
			}
		}()
	}

	// Open connection
	if err := b.session.Open(); err != nil {
		b.cancel()
		return &StartupError{Stage: StageGateway, Err: fmt.Errorf("failed to open Discord connection: %w", err)}
	}

	b.logger.Info("started bot",
		"user_id", b.session.State.User.ID,
		"username", b.session.State.User.Username,
	)

	return nil
}

// Stop gracefully shuts down the bot.
func (b *Bot) Stop() error {
	// Stop the sweep and the metrics server
	b.cancel()

	// Shutdown modules
	for _, mod := range b.modules {
		if err := mod.Shutdown(); err != nil {
			b.logger.Warn("failed to shutdown module", "module", mod.Name(), "error", err)
		}
	}

	// Close Discord session
	if b.session != nil {
		return b.session.Close()
	}

	return nil
}

// initModules initializes all loaded modules.
func (b *Bot) initModules() error {
	deps := ModuleDependencies{
		Store:  b.store,
		Logger: b.logger,
	}

	for _, mod := range b.modules {
		if cm, ok := mod.(ConfigurableModule); ok {
			if err := cm.LoadConfig(); err != nil {
				return fmt.Errorf("failed to load %s module config: %w", mod.Name(), err)
			}
		}
		if err := mod.Init(deps); err != nil {
			return fmt.Errorf("failed to initialize %s module: %w", mod.Name(), err)
		}
		b.logger.Debug("initialized module", "module", mod.Name())
	}

	moduleNames := make([]string, len(b.modules))
	for i, mod := range b.modules {
		moduleNames[i] = mod.Name()
	}
	b.logger.Info("initialized modules", "modules", moduleNames)

	return nil
}

// buildHandlers merges every module's handlers into the catalog descriptors bind to.
func (b *Bot) buildHandlers() {
	b.handlers = MergeHandlers(b.modules)
}

func (b *Bot) intents() discordgo.Intent {
	intents := discordgo.IntentsGuilds |
		discordgo.IntentsGuildMessages |
		discordgo.IntentsMessageContent |
		discordgo.IntentsGuildVoiceStates
	if len(b.registry.Events(plugin.EventGuildMemberAdd)) > 0 ||
		len(b.registry.Events(plugin.EventGuildMemberRemove)) > 0 {
		intents |= discordgo.IntentsGuildMembers
	}
	return intents
}

func (b *Bot) selfID() string {
	if b.session == nil || b.session.State == nil || b.session.State.User == nil {
		return ""
	}
	return b.session.State.User.ID
}

func (b *Bot) handleInteraction(_ *discordgo.Session, i *discordgo.InteractionCreate) {
	// Errors are logged and answered by the dispatcher.
	_ = b.dispatcher.HandleInteraction(b.ctx, i.Interaction)
}

func (b *Bot) handleMessage(_ *discordgo.Session, m *discordgo.MessageCreate) {
	_ = b.dispatcher.HandleMessage(b.ctx, m.Message)
}

// PublishInteractions declares the loaded interactions, maintenance entries
// in the developer guild and the rest globally.
func (b *Bot) PublishInteractions(ctx context.Context) error {
	if b.session == nil {
		return errors.New("session is not started")
	}

	reg := registrar.New(
		registrar.NewSessionPublisher(b.session),
		b.config.DeveloperGuildID,
		registrar.StateGuildResolver(b.session),
		b.logger,
	)
	result := reg.Publish(ctx, b.registry.Commands(), b.registry.Contexts())
	return errors.Join(result.AdminErr, result.GlobalErr)
}

// Session returns the gateway session.
func (b *Bot) Session() *discordgo.Session {
	return b.session
}

// Store returns the persistence collaborator, or nil.
func (b *Bot) Store() store.Store {
	return b.store
}

// Logger returns the bot's logger.
func (b *Bot) Logger() *slog.Logger {
	return b.logger
}

// Commands returns the loaded commands.
func (b *Bot) Commands() []*plugin.Command {
	return b.registry.Commands()
}

// Contexts returns the loaded context actions.
func (b *Bot) Contexts() []*plugin.ContextAction {
	return b.registry.Contexts()
}

// CooldownEntries returns the number of tracked rate-limit entries.
func (b *Bot) CooldownEntries() int {
	return b.tracker.Len()
}

// Ensure Bot implements plugin.Runtime.
var _ plugin.Runtime = (*Bot)(nil)
