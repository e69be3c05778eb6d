package authclient

import (
	"context"
	"testing"

	"github.com/MrEthical07/authclient/backendtest"
	"github.com/MrEthical07/authclient/credstore"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoginStoresSession(t *testing.T) {
	h := newHarness(t, backendtest.Options{})
	ctx := context.Background()

	assert.False(t, h.client.Authenticated(ctx))

	id, err := h.client.Login(ctx, "alice", "correct-horse")
	require.NoError(t, err)
	require.NotNil(t, id)
	assert.Equal(t, "u-1", id.ID)
	assert.Equal(t, "alice@example.com", id.Email)
	assert.True(t, id.HasRole("admin"))

	assert.True(t, h.client.Authenticated(ctx))
	stored, ok := h.client.Identity(ctx)
	require.True(t, ok)
	assert.Equal(t, *id, *stored)

	require.NoError(t, h.client.Get(ctx, "/api/profile", nil))
	assert.EqualValues(t, 0, h.server.RefreshCalls())
	assert.EqualValues(t, 1, h.client.MetricsSnapshot().Counters[MetricLoginSuccess])
}

func TestLoginWrappedShape(t *testing.T) {
	h := newHarness(t, backendtest.Options{WrapData: true})

	id, err := h.client.Login(context.Background(), "alice", "correct-horse")
	require.NoError(t, err)
	require.NotNil(t, id)
	assert.Equal(t, "Alice", id.Name)
	assert.NotEmpty(t, h.stored(credstore.KeyRefreshToken))
}

func TestLoginRejected(t *testing.T) {
	h := newHarness(t, backendtest.Options{})

	_, err := h.client.Login(context.Background(), "alice", "wrong-password")
	require.ErrorIs(t, err, ErrLoginRejected)
	assert.False(t, h.client.Authenticated(context.Background()))

	// Login failures are reported to the caller, not to the notification surface.
	assert.Empty(t, h.notes.All())
	assert.Zero(t, h.nav.Count())
	assert.EqualValues(t, 0, h.server.RefreshCalls())
}

func TestLoginBackendDown(t *testing.T) {
	h := newHarness(t, backendtest.Options{})
	h.server.Close()

	_, err := h.client.Login(context.Background(), "alice", "correct-horse")
	require.ErrorIs(t, err, ErrLoginFailed)
	assert.ErrorIs(t, err, ErrNetwork)
}

func TestLogoutRevokesAndClears(t *testing.T) {
	h := newHarness(t, backendtest.Options{})
	ctx := context.Background()

	_, err := h.client.Login(ctx, "alice", "correct-horse")
	require.NoError(t, err)
	refresh := h.stored(credstore.KeyRefreshToken)
	require.True(t, h.server.RefreshTokenValid(refresh))

	require.NoError(t, h.client.Logout(ctx))
	assert.EqualValues(t, 1, h.server.LogoutCalls())
	assert.False(t, h.server.RefreshTokenValid(refresh))
	assert.False(t, h.client.Authenticated(ctx))
	_, ok := h.client.Identity(ctx)
	assert.False(t, ok)
	assert.Zero(t, h.nav.Count())
}

func TestLogoutClearsEvenWhenBackendIsDown(t *testing.T) {
	h := newHarness(t, backendtest.Options{})
	h.seedSession(t)
	h.server.Close()

	require.NoError(t, h.client.Logout(context.Background()))
	assert.Empty(t, h.stored(credstore.KeyAccessToken))
	assert.Empty(t, h.stored(credstore.KeyRefreshToken))
}
