package authclient

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/MrEthical07/authclient/backendtest"
	"github.com/MrEthical07/authclient/credstore"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewLoggerFormats(t *testing.T) {
	var buf bytes.Buffer
	l := newLogger(LoggingConfig{Level: "debug", Format: "json"}, &buf)
	assert.Equal(t, logrus.DebugLevel, l.GetLevel())

	l.WithField("cycle", 3).Info("hello")
	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "hello", line["msg"])
	assert.EqualValues(t, 3, line["cycle"])

	text := newLogger(LoggingConfig{}, &buf)
	assert.Equal(t, logrus.InfoLevel, text.GetLevel())
	_, ok := text.Formatter.(*logrus.TextFormatter)
	assert.True(t, ok)
}

func TestFailedCallIsLoggedWithCallFields(t *testing.T) {
	srv, err := backendtest.NewServer(backendtest.Options{Users: testUsers()})
	require.NoError(t, err)
	t.Cleanup(srv.Close)

	pair, err := srv.SeedSession("alice")
	require.NoError(t, err)

	store := credstore.NewMemory()
	require.NoError(t, store.SetMany(context.Background(), map[string]string{
		credstore.KeyAccessToken:  pair.AccessToken,
		credstore.KeyRefreshToken: pair.RefreshToken,
	}))

	cfg := DefaultConfig()
	cfg.Backend.BaseURL = srv.URL()
	cfg.Logging.Format = "json"

	var buf bytes.Buffer
	c, err := New().WithConfig(cfg).WithStore(store).WithLogOutput(&buf).Build()
	require.NoError(t, err)
	t.Cleanup(c.Close)

	_, err = c.Do(context.Background(), &Request{Path: "/api/status/403", ID: "req-1"})
	require.ErrorIs(t, err, ErrForbidden)

	var found bool
	for _, raw := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		var line map[string]any
		if json.Unmarshal([]byte(raw), &line) != nil {
			continue
		}
		if line["request_id"] == "req-1" {
			found = true
			assert.Equal(t, "forbidden", line["category"])
			assert.Equal(t, "/api/status/403", line["path"])
		}
	}
	assert.True(t, found, "no log line for the failed call in %q", buf.String())
}
