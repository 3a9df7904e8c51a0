package application

import (
	"context"
	"testing"

	"github.com/bwmarrin/discordgo"

	"github.com/sglre6355/vaneta/internal/store"
)

func TestGuildInteractor_JoinAndLeave(t *testing.T) {
	ctx := context.Background()
	mem := store.NewMemory()
	interactor := NewGuildInteractor(mem)
	guild := &discordgo.Guild{ID: "g1", Name: "Guild", PreferredLocale: "en-US"}

	server, err := interactor.Join(ctx, guild)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if server.Name != "Guild" || server.Locale == nil || *server.Locale != "en-US" {
		t.Errorf("unexpected server record: %+v", server)
	}

	deleted, err := interactor.Leave(ctx, &discordgo.Guild{ID: "g1", Unavailable: true})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if deleted {
		t.Error("expected unavailable guild to be kept")
	}

	deleted, err = interactor.Leave(ctx, &discordgo.Guild{ID: "g1"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !deleted {
		t.Error("expected guild to be deleted")
	}
}

func TestGuildInteractor_WithoutStore(t *testing.T) {
	interactor := NewGuildInteractor(nil)

	server, err := interactor.Join(context.Background(), &discordgo.Guild{ID: "g1"})
	if err != nil || server != nil {
		t.Errorf("expected no-op, got %+v, %v", server, err)
	}
}
