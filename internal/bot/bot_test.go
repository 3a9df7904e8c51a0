package bot

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/bwmarrin/discordgo"

	"github.com/sglre6355/vaneta/internal/plugin"
	"github.com/sglre6355/vaneta/internal/store"
)

func testConfig(t *testing.T) *Config {
	t.Helper()
	return &Config{
		DiscordToken:        "test-token",
		PluginDirs:          []string{t.TempDir()},
		LoadConcurrency:     2,
		CooldownMaxAttempts: 5,
		CooldownWindow:      10 * time.Second,
		ExecuteTimeout:      time.Second,
	}
}

func TestNewBot(t *testing.T) {
	cfg := &Config{
		DiscordToken: "test-token",
	}
	mem := store.NewMemory()

	b := NewBot(cfg, WithStore(mem))

	if b == nil {
		t.Fatal("expected bot to be created, got nil")
	}
	if b.config != cfg {
		t.Error("expected config to be stored")
	}
	if b.Store() != mem {
		t.Error("expected store to be injected")
	}
	if b.Session() != nil {
		t.Error("expected no session before Start")
	}
}

func TestBot_InitModules_PassesDependencies(t *testing.T) {
	mem := store.NewMemory()
	b := NewBot(testConfig(t), WithStore(mem))

	mod := &stubModule{name: "tracking"}
	b.modules = []Module{mod}

	if err := b.initModules(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !mod.initCalled {
		t.Error("expected Init to be called")
	}
	if mod.deps.Store != mem {
		t.Error("expected store in module dependencies")
	}
}

func TestBot_LoadPlugins_ReturnsInitError(t *testing.T) {
	b := NewBot(testConfig(t))

	expectedErr := errors.New("init failed")
	b.modules = []Module{&stubModule{name: "failing", initErr: expectedErr}}

	_, err := b.LoadPlugins(context.Background())
	if err == nil {
		t.Fatal("expected error, got nil")
	}
	if !errors.Is(err, expectedErr) {
		t.Errorf("expected error %v, got %v", expectedErr, err)
	}

	var startupErr *StartupError
	if !errors.As(err, &startupErr) || startupErr.Stage != StageModules {
		t.Errorf("expected startup error at %q, got %v", StageModules, err)
	}
}

func TestBot_LoadPlugins_BindsModuleHandlers(t *testing.T) {
	cfg := testConfig(t)
	dir := cfg.PluginDirs[0]
	if err := os.WriteFile(filepath.Join(dir, "ping.yaml"), []byte("kind: command\nname: ping\nslash: true\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "ghost.yaml"), []byte("kind: command\nname: ghost\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	b := NewBot(cfg)
	b.modules = []Module{&stubModule{name: "core", handlers: commandHandlers("ping")}}

	report, err := b.LoadPlugins(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if report.Commands != 1 {
		t.Errorf("expected 1 command, got %d", report.Commands)
	}
	if len(report.Errors) != 1 {
		t.Errorf("expected 1 load error, got %d", len(report.Errors))
	}
	if len(b.Commands()) != 1 || b.Commands()[0].Name != "ping" {
		t.Errorf("expected ping command to be loaded, got %v", b.Commands())
	}
}

func TestBot_EventHandlerMatchesEveryKind(t *testing.T) {
	b := NewBot(testConfig(t))

	for _, kind := range eventKinds {
		handler := b.eventHandler(&plugin.EventBinding{Kind: kind})
		if handler == nil {
			t.Errorf("expected handler for %q", kind)
		}
	}
}

func TestBot_RunEventContainsFailures(t *testing.T) {
	var logs bytes.Buffer
	b := NewBot(testConfig(t), WithLogger(slog.New(slog.NewJSONHandler(&logs, nil))))

	var received any
	handler := b.eventHandler(&plugin.EventBinding{
		Name: "joined",
		Kind: plugin.EventGuildCreate,
		Execute: func(_ context.Context, rt plugin.Runtime, event any) error {
			received = event
			if rt != plugin.Runtime(b) {
				t.Error("expected the bot as runtime")
			}
			return errors.New("store down")
		},
	}).(func(*discordgo.Session, *discordgo.GuildCreate))

	event := &discordgo.GuildCreate{Guild: &discordgo.Guild{ID: "1"}}
	handler(nil, event)

	if received != event {
		t.Error("expected the event to be passed through")
	}
	if !strings.Contains(logs.String(), "failed to handle event") {
		t.Errorf("expected failure to be logged, got %s", logs.String())
	}

	panicking := b.eventHandler(&plugin.EventBinding{
		Kind:    plugin.EventReady,
		Execute: func(context.Context, plugin.Runtime, any) error { panic("boom") },
	}).(func(*discordgo.Session, *discordgo.Ready))
	panicking(nil, &discordgo.Ready{})

	if !strings.Contains(logs.String(), "event handler panicked") {
		t.Errorf("expected panic to be logged, got %s", logs.String())
	}
}

func TestBot_PublishInteractionsRequiresSession(t *testing.T) {
	b := NewBot(testConfig(t))

	if err := b.PublishInteractions(context.Background()); err == nil {
		t.Error("expected error before Start, got nil")
	}
}

func TestBot_StopWithoutStart(t *testing.T) {
	b := NewBot(testConfig(t))
	b.modules = []Module{&stubModule{name: "a", shutErr: errors.New("ignored")}}

	if err := b.Stop(); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}
