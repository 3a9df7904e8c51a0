package presentation

import (
	"context"
	"fmt"

	"github.com/bwmarrin/discordgo"

	"github.com/sglre6355/vaneta/internal/modules/core/application"
	"github.com/sglre6355/vaneta/internal/plugin"
)

// ReadyHandler logs the login and publishes the loaded interactions.
type ReadyHandler struct{}

// NewReadyHandler creates a new ReadyHandler.
func NewReadyHandler() *ReadyHandler {
	return &ReadyHandler{}
}

// Handle processes the ready event.
func (h *ReadyHandler) Handle(ctx context.Context, rt plugin.Runtime, event any) error {
	ready, ok := event.(*discordgo.Ready)
	if !ok {
		return fmt.Errorf("%w: %T", ErrUnexpectedEvent, event)
	}

	rt.Logger().Info("logged in",
		"user_id", ready.User.ID,
		"username", ready.User.Username,
		"guilds", len(ready.Guilds),
	)

	return rt.PublishInteractions(ctx)
}

// GuildHandler mirrors guild membership into the store.
type GuildHandler struct {
	interactor *application.GuildInteractor
}

// NewGuildHandler creates a new GuildHandler.
func NewGuildHandler(interactor *application.GuildInteractor) *GuildHandler {
	return &GuildHandler{interactor: interactor}
}

// HandleCreate stores the guild the bot joined or became available in.
func (h *GuildHandler) HandleCreate(ctx context.Context, rt plugin.Runtime, event any) error {
	e, ok := event.(*discordgo.GuildCreate)
	if !ok {
		return fmt.Errorf("%w: %T", ErrUnexpectedEvent, event)
	}

	server, err := h.interactor.Join(ctx, e.Guild)
	if err != nil {
		return err
	}
	if server != nil {
		rt.Logger().Debug("stored server", "guild_id", server.ID, "name", server.Name)
	}
	return nil
}

// HandleDelete removes the guild the bot left.
func (h *GuildHandler) HandleDelete(ctx context.Context, rt plugin.Runtime, event any) error {
	e, ok := event.(*discordgo.GuildDelete)
	if !ok {
		return fmt.Errorf("%w: %T", ErrUnexpectedEvent, event)
	}

	deleted, err := h.interactor.Leave(ctx, e.Guild)
	if err != nil {
		return err
	}
	if deleted {
		rt.Logger().Info("removed server", "guild_id", e.ID)
	}
	return nil
}
