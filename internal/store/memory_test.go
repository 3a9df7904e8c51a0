package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemory_UserLifecycle(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	saved, err := m.SaveUser(ctx, UserInput{ID: "1", Username: "alice", Locale: String("en-US")})
	require.NoError(t, err)
	assert.Equal(t, "alice", saved.Username)
	assert.False(t, saved.CreatedAt.IsZero())

	name := "bob"
	updated, err := m.UpdateUser(ctx, "1", UserUpdate{Username: &name, Locale: String("")})
	require.NoError(t, err)
	require.NotNil(t, updated)
	assert.Equal(t, "bob", updated.Username)
	assert.Equal(t, "en-US", *updated.Locale, "a nil pointer leaves the field untouched")

	blank := ""
	updated, err = m.UpdateUser(ctx, "1", UserUpdate{Locale: &blank})
	require.NoError(t, err)
	assert.Nil(t, updated.Locale)

	got, err := m.GetUser(ctx, "1")
	require.NoError(t, err)
	assert.Equal(t, "bob", got.Username)

	deleted, err := m.DeleteUser(ctx, "1")
	require.NoError(t, err)
	assert.True(t, deleted)

	deleted, err = m.DeleteUser(ctx, "1")
	require.NoError(t, err)
	assert.False(t, deleted)
}

func TestMemory_MissingRecordsAreNil(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	user, err := m.GetUser(ctx, "nope")
	require.NoError(t, err)
	assert.Nil(t, user)

	name := "x"
	server, err := m.UpdateServer(ctx, "nope", ServerUpdate{Name: &name})
	require.NoError(t, err)
	assert.Nil(t, server)
}

func TestMemory_EmptyUpdateReturnsNil(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	_, err := m.SaveUser(ctx, UserInput{ID: "1", Username: "alice"})
	require.NoError(t, err)

	updated, err := m.UpdateUser(ctx, "1", UserUpdate{})

	require.NoError(t, err)
	assert.Nil(t, updated)
}

func TestMemory_SaveRequiresID(t *testing.T) {
	_, err := NewMemory().SaveServer(context.Background(), ServerInput{Name: "guild"})
	assert.ErrorIs(t, err, ErrMissingID)
}

func TestMemory_DeleteServerCascadesLogs(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	_, err := m.SaveServer(ctx, ServerInput{ID: "g1", Name: "guild"})
	require.NoError(t, err)
	_, err = m.SaveLog(ctx, LogInput{ID: "l2", ServerID: "g1", Join: String("c1")})
	require.NoError(t, err)
	_, err = m.SaveLog(ctx, LogInput{ID: "l1", ServerID: "g1"})
	require.NoError(t, err)
	_, err = m.SaveLog(ctx, LogInput{ID: "l3", ServerID: "g2"})
	require.NoError(t, err)

	logs, err := m.LogsByServer(ctx, "g1")
	require.NoError(t, err)
	require.Len(t, logs, 2)
	assert.Equal(t, "l1", logs[0].ID)
	assert.Equal(t, "l2", logs[1].ID)

	deleted, err := m.DeleteServer(ctx, "g1")
	require.NoError(t, err)
	assert.True(t, deleted)

	logs, err = m.LogsByServer(ctx, "g1")
	require.NoError(t, err)
	assert.Empty(t, logs)

	other, err := m.GetLog(ctx, "l3")
	require.NoError(t, err)
	assert.NotNil(t, other)
}
