package application

import (
	"context"
	"fmt"

	"github.com/bwmarrin/discordgo"

	"github.com/sglre6355/vaneta/internal/store"
)

// ServerStore is the subset of store.Store the guild use case needs.
type ServerStore interface {
	SaveServer(ctx context.Context, in store.ServerInput) (*store.Server, error)
	DeleteServer(ctx context.Context, id string) (bool, error)
}

// GuildInteractor mirrors the guilds the bot is in into the store.
type GuildInteractor struct {
	servers ServerStore
}

// NewGuildInteractor creates a new GuildInteractor. servers may be nil when
// persistence is disabled, in which case every call is a no-op.
func NewGuildInteractor(servers ServerStore) *GuildInteractor {
	return &GuildInteractor{servers: servers}
}

// Join stores the profile of a guild the bot is in.
func (g *GuildInteractor) Join(ctx context.Context, guild *discordgo.Guild) (*store.Server, error) {
	if g.servers == nil || guild == nil {
		return nil, nil
	}

	server, err := g.servers.SaveServer(ctx, store.ServerInput{
		ID:        guild.ID,
		Name:      guild.Name,
		IconURL:   store.String(guild.IconURL("256")),
		BannerURL: store.String(guild.BannerURL("1024")),
		Locale:    store.String(guild.PreferredLocale),
	})
	if err != nil {
		return nil, fmt.Errorf("save server %s: %w", guild.ID, err)
	}
	return server, nil
}

// Leave removes a guild the bot was removed from. Guilds that only became
// unavailable are kept.
func (g *GuildInteractor) Leave(ctx context.Context, guild *discordgo.Guild) (bool, error) {
	if g.servers == nil || guild == nil || guild.Unavailable {
		return false, nil
	}

	deleted, err := g.servers.DeleteServer(ctx, guild.ID)
	if err != nil {
		return false, fmt.Errorf("delete server %s: %w", guild.ID, err)
	}
	return deleted, nil
}
