// Package registrar declares slash commands and context menu actions with
// Discord, splitting maintenance entries into the developer guild.
package registrar

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/bwmarrin/discordgo"

	"github.com/sglre6355/vaneta/internal/plugin"
)

// ErrGuildUnresolved is returned when the administrative guild is not available.
var ErrGuildUnresolved = errors.New("administrative guild unresolved")

// Publisher replaces the full set of declared application commands of a
// scope. guildID "" is the global scope.
type Publisher interface {
	BulkOverwrite(ctx context.Context, guildID string, cmds []*discordgo.ApplicationCommand) ([]*discordgo.ApplicationCommand, error)
}

// GuildResolver reports whether the administrative guild can be published to.
type GuildResolver func(guildID string) error

// Result reports what a Publish call declared. A count is -1 when its branch
// failed.
type Result struct {
	Admin     int
	Global    int
	AdminErr  error
	GlobalErr error
}

// Registrar publishes application command declarations.
type Registrar struct {
	publisher    Publisher
	adminGuildID string
	resolve      GuildResolver
	logger       *slog.Logger
}

// New creates a Registrar. resolve may be nil, in which case only an empty
// guild id counts as unresolved.
func New(publisher Publisher, adminGuildID string, resolve GuildResolver, logger *slog.Logger) *Registrar {
	if logger == nil {
		logger = slog.Default()
	}
	return &Registrar{
		publisher:    publisher,
		adminGuildID: adminGuildID,
		resolve:      resolve,
		logger:       logger,
	}
}

// Publish declares every slash command and enabled context action.
// Maintenance entries go to the administrative guild, the rest globally.
// Each scope is overwritten as a whole and an empty scope is left untouched.
// The branches are independent: a failing admin branch does not stop the
// global one.
func (r *Registrar) Publish(ctx context.Context, commands []*plugin.Command, contexts []*plugin.ContextAction) Result {
	var admin, global []*discordgo.ApplicationCommand

	for _, cmd := range commands {
		if !cmd.Slash {
			continue
		}
		if cmd.Maintenance {
			admin = append(admin, cmd.ApplicationCommand())
		} else {
			global = append(global, cmd.ApplicationCommand())
		}
	}
	for _, action := range contexts {
		if !action.Enabled {
			continue
		}
		if action.Maintenance {
			admin = append(admin, action.ApplicationCommand())
		} else {
			global = append(global, action.ApplicationCommand())
		}
	}

	var result Result
	result.Admin, result.AdminErr = r.publishAdmin(ctx, admin)
	result.Global, result.GlobalErr = r.publish(ctx, "", global)
	return result
}

func (r *Registrar) publishAdmin(ctx context.Context, cmds []*discordgo.ApplicationCommand) (int, error) {
	if len(cmds) == 0 {
		return 0, nil
	}

	if err := r.resolveAdmin(); err != nil {
		r.logger.Error("skipping maintenance interactions", "guild_id", r.adminGuildID, "error", err)
		return -1, err
	}

	return r.publish(ctx, r.adminGuildID, cmds)
}

func (r *Registrar) resolveAdmin() error {
	if r.adminGuildID == "" {
		return ErrGuildUnresolved
	}
	if r.resolve == nil {
		return nil
	}
	if err := r.resolve(r.adminGuildID); err != nil {
		return fmt.Errorf("%w: %w", ErrGuildUnresolved, err)
	}
	return nil
}

func (r *Registrar) publish(ctx context.Context, guildID string, cmds []*discordgo.ApplicationCommand) (int, error) {
	if len(cmds) == 0 {
		return 0, nil
	}

	scope := "global"
	if guildID != "" {
		scope = "guild"
	}

	published, err := r.publisher.BulkOverwrite(ctx, guildID, cmds)
	if err != nil {
		r.logger.Error("failed to publish interactions", "scope", scope, "guild_id", guildID, "error", err)
		return -1, err
	}

	r.logger.Info("published interactions", "scope", scope, "guild_id", guildID, "count", len(published))
	return len(published), nil
}
