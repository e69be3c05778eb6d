package authclient

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/MrEthical07/authclient/credstore"
	"github.com/sirupsen/logrus"
)

// credentials is the typed view over a credstore.Store.
//
// Read failures are logged and reported as absent; callers never see store errors on
// the read path.
type credentials struct {
	store credstore.Store
	log   logrus.FieldLogger
}

func (c *credentials) get(ctx context.Context, key string) (string, bool) {
	v, err := c.store.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, credstore.ErrNotFound) {
			c.log.WithError(err).WithField("key", key).Warn("credential read failed")
		}
		return "", false
	}
	return v, v != ""
}

func (c *credentials) AccessToken(ctx context.Context) (string, bool) {
	return c.get(ctx, credstore.KeyAccessToken)
}

func (c *credentials) RefreshToken(ctx context.Context) (string, bool) {
	return c.get(ctx, credstore.KeyRefreshToken)
}

// Identity decodes the stored user record. A record that no longer decodes is treated
// as absent.
func (c *credentials) Identity(ctx context.Context) (*Identity, bool) {
	raw, ok := c.get(ctx, credstore.KeyUser)
	if !ok {
		return nil, false
	}
	var id Identity
	if err := json.Unmarshal([]byte(raw), &id); err != nil {
		c.log.WithError(err).Warn("stored identity is not valid JSON")
		return nil, false
	}
	return &id, true
}

// SavePair writes both tokens in one store operation.
func (c *credentials) SavePair(ctx context.Context, pair TokenPair) error {
	return c.store.SetMany(ctx, map[string]string{
		credstore.KeyAccessToken:  pair.AccessToken,
		credstore.KeyRefreshToken: pair.RefreshToken,
	})
}

// SaveSession writes the pair and, when present, the raw identity JSON.
func (c *credentials) SaveSession(ctx context.Context, pair TokenPair, user string) error {
	values := map[string]string{
		credstore.KeyAccessToken:  pair.AccessToken,
		credstore.KeyRefreshToken: pair.RefreshToken,
	}
	if user != "" {
		values[credstore.KeyUser] = user
	}
	return c.store.SetMany(ctx, values)
}

func (c *credentials) ClearAll(ctx context.Context) error {
	return c.store.Clear(ctx, credstore.AllKeys...)
}
