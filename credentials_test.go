package authclient

import (
	"context"
	"errors"
	"io"
	"testing"

	"github.com/MrEthical07/authclient/backendtest"
	"github.com/MrEthical07/authclient/credstore"
	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()

	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis.Run failed: %v", err)
	}
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return mr, client
}

func quietLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

type failingStore struct {
	credstore.Store
}

func (failingStore) Get(context.Context, string) (string, error) {
	return "", errors.New("backend down")
}

func TestCredentialsReadFailureIsAbsent(t *testing.T) {
	c := &credentials{store: failingStore{Store: credstore.NewMemory()}, log: quietLogger()}

	_, ok := c.AccessToken(context.Background())
	assert.False(t, ok)
	_, ok = c.Identity(context.Background())
	assert.False(t, ok)
}

func TestCredentialsSessionRoundTrip(t *testing.T) {
	ctx := context.Background()
	c := &credentials{store: credstore.NewMemory(), log: quietLogger()}

	require.NoError(t, c.SaveSession(ctx, TokenPair{AccessToken: "a", RefreshToken: "r"}, `{"id":"7","name":"Bob","roles":["viewer"]}`))

	access, ok := c.AccessToken(ctx)
	require.True(t, ok)
	assert.Equal(t, "a", access)

	id, ok := c.Identity(ctx)
	require.True(t, ok)
	assert.Equal(t, "Bob", id.Name)
	assert.True(t, id.HasRole("viewer"))
	assert.False(t, id.HasRole("admin"))

	require.NoError(t, c.SavePair(ctx, TokenPair{AccessToken: "a2", RefreshToken: "r2"}))
	refresh, _ := c.RefreshToken(ctx)
	assert.Equal(t, "r2", refresh)
	_, ok = c.Identity(ctx)
	assert.True(t, ok, "SavePair must not drop the identity")

	require.NoError(t, c.ClearAll(ctx))
	_, ok = c.RefreshToken(ctx)
	assert.False(t, ok)
}

func TestCredentialsCorruptIdentityIsAbsent(t *testing.T) {
	ctx := context.Background()
	store := credstore.NewMemory()
	require.NoError(t, store.Set(ctx, credstore.KeyUser, "{not json"))

	c := &credentials{store: store, log: quietLogger()}
	_, ok := c.Identity(ctx)
	assert.False(t, ok)
}

func TestClientWithRedisStoreRefreshes(t *testing.T) {
	mr, rdb := newTestRedis(t)

	srv, err := backendtest.NewServer(backendtest.Options{Users: testUsers()})
	require.NoError(t, err)
	t.Cleanup(srv.Close)

	cfg := DefaultConfig()
	cfg.Backend.BaseURL = srv.URL()
	cfg.Store.RedisPrefix = "app"

	c, err := New().WithConfig(cfg).WithRedis(rdb).WithLogger(quietLogger()).Build()
	require.NoError(t, err)
	t.Cleanup(c.Close)

	ctx := context.Background()
	_, err = c.Login(ctx, "alice", "correct-horse")
	require.NoError(t, err)

	loginRefresh, err := mr.Get("app:" + credstore.KeyRefreshToken)
	require.NoError(t, err)
	require.NotEmpty(t, loginRefresh)

	srv.ExpireAccessTokens()
	require.NoError(t, c.Get(ctx, "/api/profile", nil))
	assert.EqualValues(t, 1, srv.RefreshCalls())

	rotated, err := mr.Get("app:" + credstore.KeyRefreshToken)
	require.NoError(t, err)
	assert.NotEqual(t, loginRefresh, rotated)
	assert.True(t, srv.RefreshTokenValid(rotated))

	require.NoError(t, c.Logout(ctx))
	assert.False(t, mr.Exists("app:"+credstore.KeyAccessToken))
	assert.False(t, mr.Exists("app:"+credstore.KeyUser))
}

func TestRedisOutageTreatsCredentialsAsAbsent(t *testing.T) {
	mr, rdb := newTestRedis(t)

	srv, err := backendtest.NewServer(backendtest.Options{Users: testUsers()})
	require.NoError(t, err)
	t.Cleanup(srv.Close)

	cfg := DefaultConfig()
	cfg.Backend.BaseURL = srv.URL()
	nav := &countingNavigator{}

	c, err := New().WithConfig(cfg).WithRedis(rdb).WithNavigator(nav).WithLogger(quietLogger()).Build()
	require.NoError(t, err)
	t.Cleanup(c.Close)

	mr.Close()

	assert.False(t, c.Authenticated(context.Background()))
	_, err = c.Do(context.Background(), &Request{Path: "/api/profile"})
	assert.ErrorIs(t, err, ErrSessionExpired)
	assert.EqualValues(t, 0, srv.RefreshCalls())
	assert.EqualValues(t, 1, nav.Count())
}
