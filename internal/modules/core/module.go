// Package core provides the built-in handlers: ping, profile and stats
// commands, the avatar context action and the ready and guild events.
package core

import (
	"time"

	"github.com/sglre6355/vaneta/internal/bot"
	"github.com/sglre6355/vaneta/internal/modules/core/application"
	"github.com/sglre6355/vaneta/internal/modules/core/presentation"
	"github.com/sglre6355/vaneta/internal/plugin"
)

func init() {
	bot.Register(&CoreModule{})
}

// CoreModule provides the handlers the bundled plugin descriptors bind to.
type CoreModule struct {
	pingHandler    *presentation.PingHandler
	profileHandler *presentation.ProfileHandler
	statsHandler   *presentation.StatsHandler
	avatarHandler  *presentation.AvatarHandler
	readyHandler   *presentation.ReadyHandler
	guildHandler   *presentation.GuildHandler
}

// Name returns the module name.
func (m *CoreModule) Name() string {
	return "core"
}

// Handlers returns the handler catalog for this module.
func (m *CoreModule) Handlers() plugin.Handlers {
	h := plugin.NewHandlers()

	h.Commands["ping"] = m.pingHandler.Handle
	h.Commands["profile"] = m.profileHandler.Handle
	h.Commands["stats"] = m.statsHandler.Handle

	h.Contexts["avatar"] = m.avatarHandler.Handle

	h.Events["ready"] = m.readyHandler.Handle
	h.Events["guild-create"] = m.guildHandler.HandleCreate
	h.Events["guild-delete"] = m.guildHandler.HandleDelete

	return h
}

// Init initializes the module.
func (m *CoreModule) Init(deps bot.ModuleDependencies) error {
	var (
		users   application.UserStore
		servers application.ServerStore
	)
	if deps.Store != nil {
		users = deps.Store
		servers = deps.Store
	}

	m.pingHandler = presentation.NewPingHandler()
	m.profileHandler = presentation.NewProfileHandler(application.NewProfileInteractor(users))
	m.statsHandler = presentation.NewStatsHandler(application.NewStatsInteractor(time.Now()))
	m.avatarHandler = presentation.NewAvatarHandler()
	m.readyHandler = presentation.NewReadyHandler()
	m.guildHandler = presentation.NewGuildHandler(application.NewGuildInteractor(servers))
	return nil
}

// Shutdown cleans up module resources.
func (m *CoreModule) Shutdown() error {
	return nil
}
