package application

import (
	"context"
	"fmt"

	"github.com/bwmarrin/discordgo"
	"github.com/disgoorg/snowflake/v2"

	"github.com/sglre6355/vaneta/internal/modules/core/domain"
	"github.com/sglre6355/vaneta/internal/store"
)

// UserStore is the subset of store.Store the profile use case needs.
type UserStore interface {
	GetUser(ctx context.Context, id string) (*store.User, error)
	SaveUser(ctx context.Context, in store.UserInput) (*store.User, error)
}

// ProfileInteractor builds user profiles and keeps the stored record current.
type ProfileInteractor struct {
	users UserStore
}

// NewProfileInteractor creates a new ProfileInteractor. users may be nil when
// persistence is disabled.
func NewProfileInteractor(users UserStore) *ProfileInteractor {
	return &ProfileInteractor{users: users}
}

// Execute returns the profile of user, storing or refreshing the user record.
func (p *ProfileInteractor) Execute(ctx context.Context, user *discordgo.User, locale string) (*domain.Profile, error) {
	profile := &domain.Profile{
		UserID:      user.ID,
		Username:    user.Username,
		DisplayName: user.GlobalName,
		Locale:      locale,
		AvatarURL:   user.AvatarURL("256"),
	}
	if id, err := snowflake.Parse(user.ID); err == nil {
		profile.Registered = id.Time()
	}

	if p.users == nil {
		return profile, nil
	}

	existing, err := p.users.GetUser(ctx, user.ID)
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}

	in := store.UserInput{
		ID:          user.ID,
		Username:    user.Username,
		DisplayName: store.String(user.GlobalName),
		Avatar:      store.String(user.Avatar),
		Locale:      store.String(locale),
	}
	if existing != nil && existing.Locale != nil && in.Locale == nil {
		in.Locale = existing.Locale
	}

	saved, err := p.users.SaveUser(ctx, in)
	if err != nil {
		return nil, fmt.Errorf("save user: %w", err)
	}

	profile.FirstSeen = saved.CreatedAt
	if saved.Locale != nil {
		profile.Locale = *saved.Locale
	}
	return profile, nil
}
