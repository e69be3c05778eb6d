package authclient

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/url"

	"github.com/MrEthical07/authclient/credstore"
	"github.com/MrEthical07/authclient/internal/coordinator"
	"github.com/MrEthical07/authclient/internal/flows"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"
)

// Builder assembles a [Client]. Configure it during initialization, call Build once,
// then discard it.
type Builder struct {
	config Config

	store      credstore.Store
	redis      redis.UniversalClient
	notifier   Notifier
	navigator  Navigator
	httpClient *http.Client
	logger     logrus.FieldLogger
	logOutput  io.Writer

	built bool
}

// New returns a builder seeded with [DefaultConfig].
func New() *Builder {
	return &Builder{
		config: defaultConfig(),
	}
}

// WithConfig replaces the whole configuration.
func (b *Builder) WithConfig(cfg Config) *Builder {
	b.config = cfg
	return b
}

// WithBaseURL sets Config.Backend.BaseURL.
func (b *Builder) WithBaseURL(baseURL string) *Builder {
	b.config.Backend.BaseURL = baseURL
	return b
}

// WithStore sets the credential store. It takes precedence over WithRedis.
func (b *Builder) WithStore(store credstore.Store) *Builder {
	b.store = store
	return b
}

// WithRedis stores credentials in Redis under Config.Store.RedisPrefix.
func (b *Builder) WithRedis(client redis.UniversalClient) *Builder {
	b.redis = client
	return b
}

func (b *Builder) WithNotifier(n Notifier) *Builder {
	b.notifier = n
	return b
}

func (b *Builder) WithNavigator(n Navigator) *Builder {
	b.navigator = n
	return b
}

// WithHTTPClient overrides the transport. Its Timeout is left as given; the per-call
// Backend.Timeout still applies through the request context.
func (b *Builder) WithHTTPClient(hc *http.Client) *Builder {
	b.httpClient = hc
	return b
}

// WithLogger replaces the logger built from Config.Logging.
func (b *Builder) WithLogger(l logrus.FieldLogger) *Builder {
	b.logger = l
	return b
}

// WithLogOutput redirects the default logger.
func (b *Builder) WithLogOutput(w io.Writer) *Builder {
	b.logOutput = w
	return b
}

func (b *Builder) WithMetricsEnabled(enabled bool) *Builder {
	b.config.Metrics.Enabled = enabled
	return b
}

func (b *Builder) WithLatencyHistograms(enabled bool) *Builder {
	b.config.Metrics.EnableLatencyHistograms = enabled
	return b
}

// Build validates the configuration and wires the client. Without a store or Redis
// client credentials are kept in memory.
func (b *Builder) Build() (*Client, error) {
	if b.built {
		return nil, errors.New("builder already used")
	}

	cfg := b.config
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	base, err := url.Parse(cfg.Backend.BaseURL)
	if err != nil {
		return nil, err
	}

	// -------- LOGGER --------
	logger := b.logger
	if logger == nil {
		logger = newLogger(cfg.Logging, b.logOutput)
	}
	for _, w := range cfg.Lint() {
		logger.WithField("code", w.Code).Warn(w.Message)
	}

	// -------- CREDENTIAL STORE --------
	store := b.store
	if store == nil && b.redis != nil {
		store = credstore.NewRedis(b.redis, cfg.Store.RedisPrefix, cfg.Store.TTL)
	}
	if store == nil {
		store = credstore.NewMemory()
	}
	creds := &credentials{store: store, log: logger}

	// -------- TRANSPORT --------
	hc := b.httpClient
	if hc == nil {
		hc = &http.Client{Timeout: cfg.Backend.Timeout}
	}
	var limiter *rate.Limiter
	if cfg.RateLimit.Enabled {
		limiter = rate.NewLimiter(rate.Limit(cfg.RateLimit.RequestsPerSecond), cfg.RateLimit.Burst)
	}

	// -------- NOTIFY / NAVIGATE --------
	navigator := b.navigator
	if navigator == nil {
		navigator = NoOpNavigator{}
	}
	notify := newNotifyDispatcher(cfg.Notify, b.notifier)
	metrics := NewMetrics(cfg.Metrics)

	c := &Client{
		cfg:     cfg,
		base:    base,
		http:    hc,
		creds:   creds,
		notify:  notify,
		metrics: metrics,
		limiter: limiter,
		log:     logger,
	}

	c.terminator = &sessionTerminator{
		creds:     creds,
		notify:    notify,
		navigator: navigator,
		metrics:   metrics,
		log:       logger,
	}

	// -------- FLOWS --------
	c.flows = flows.New(flows.Deps{
		Refresh: flows.RefreshDeps{
			Path:             cfg.Backend.RefreshPath,
			ReadRefreshToken: creds.RefreshToken,
			Exchange:         c.exchange,
			SaveTokens: func(ctx context.Context, accessToken, refreshToken string) error {
				return creds.SavePair(ctx, TokenPair{AccessToken: accessToken, RefreshToken: refreshToken})
			},
		},
		Login: flows.LoginDeps{
			Path:     cfg.Backend.LoginPath,
			Exchange: c.exchange,
			SaveSession: func(ctx context.Context, accessToken, refreshToken, user string) error {
				return creds.SaveSession(ctx, TokenPair{AccessToken: accessToken, RefreshToken: refreshToken}, user)
			},
		},
		Logout: flows.LogoutDeps{
			Path:             cfg.Backend.LogoutPath,
			ReadRefreshToken: creds.RefreshToken,
			Exchange:         c.exchange,
			ClearSession:     creds.ClearAll,
		},
	})

	// -------- REFRESH COORDINATOR --------
	c.coord = coordinator.New(coordinator.Config{
		Refresh: c.refreshAccessToken,
		OnFailure: func(ctx context.Context, cycle uint64, err error) {
			c.terminator.Terminate(ctx, cycle, err)
		},
		Timeout: cfg.Refresh.Timeout,
	})

	b.built = true
	return c, nil
}
