package authclient

import (
	"errors"
	"net/url"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
)

// Config controls a [Client]. Build one with [DefaultConfig] and override fields.
type Config struct {
	Backend   BackendConfig
	Refresh   RefreshConfig
	Store     StoreConfig
	Notify    NotifyConfig
	Metrics   MetricsConfig
	Logging   LoggingConfig
	RateLimit RateLimitConfig
}

/*
====================================
BACKEND CONFIG
====================================
*/

// BackendConfig describes the REST backend.
type BackendConfig struct {
	BaseURL string
	// Timeout bounds every outbound call, including the refresh call.
	Timeout     time.Duration
	RefreshPath string
	LoginPath   string
	// LogoutPath may be empty to skip remote revocation on logout.
	LogoutPath string
	UserAgent  string
	// MaxResponseBytes caps how much of a response body is read.
	MaxResponseBytes int64
}

// RefreshConfig tunes the single-flight refresh cycle.
type RefreshConfig struct {
	// Timeout bounds one refresh cycle independently of the triggering caller's context.
	Timeout time.Duration
}

/*
====================================
STORE CONFIG
====================================
*/

// StoreConfig applies when the client builds its own Redis credential store.
type StoreConfig struct {
	RedisPrefix string
	// TTL expires stored credentials; zero keeps them until cleared.
	TTL time.Duration
}

// NotifyConfig controls delivery to the UI notification surface.
type NotifyConfig struct {
	Async      bool
	BufferSize int
	DropIfFull bool
}

// MetricsConfig toggles in-process metrics.
type MetricsConfig struct {
	Enabled                 bool
	EnableLatencyHistograms bool
}

// LoggingConfig builds the default logrus logger.
type LoggingConfig struct {
	Level  string
	Format string // "text" (default) or "json"
}

// RateLimitConfig throttles outbound calls client-side.
type RateLimitConfig struct {
	Enabled           bool
	RequestsPerSecond float64
	Burst             int
}

// DefaultConfig returns a config with every default applied. BaseURL must still be set.
func DefaultConfig() Config {
	return defaultConfig()
}

func defaultConfig() Config {
	return Config{
		Backend: BackendConfig{
			Timeout:          30 * time.Second,
			RefreshPath:      "/auth/refresh",
			LoginPath:        "/auth/login",
			LogoutPath:       "/auth/logout",
			UserAgent:        "authclient",
			MaxResponseBytes: 10 << 20,
		},
		Refresh: RefreshConfig{
			Timeout: 15 * time.Second,
		},
		Store: StoreConfig{
			RedisPrefix: "ac",
		},
		Notify: NotifyConfig{
			Async:      false,
			BufferSize: 64,
			DropIfFull: true,
		},
		Metrics: MetricsConfig{
			Enabled:                 false,
			EnableLatencyHistograms: false,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
		RateLimit: RateLimitConfig{
			Enabled:           false,
			RequestsPerSecond: 50,
			Burst:             10,
		},
	}
}

// Validate reports the first invalid setting.
func (c *Config) Validate() error {
	// Backend
	if strings.TrimSpace(c.Backend.BaseURL) == "" {
		return errors.New("Backend BaseURL is required")
	}
	u, err := url.Parse(c.Backend.BaseURL)
	if err != nil {
		return errors.New("Backend BaseURL is not a valid URL")
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return errors.New("Backend BaseURL must use http or https")
	}
	if u.Host == "" {
		return errors.New("Backend BaseURL must include a host")
	}
	if c.Backend.Timeout <= 0 {
		return errors.New("Backend Timeout must be > 0")
	}
	if !strings.HasPrefix(c.Backend.RefreshPath, "/") {
		return errors.New("Backend RefreshPath must start with '/'")
	}
	if !strings.HasPrefix(c.Backend.LoginPath, "/") {
		return errors.New("Backend LoginPath must start with '/'")
	}
	if c.Backend.LogoutPath != "" && !strings.HasPrefix(c.Backend.LogoutPath, "/") {
		return errors.New("Backend LogoutPath must start with '/' when set")
	}
	if c.Backend.MaxResponseBytes <= 0 {
		return errors.New("Backend MaxResponseBytes must be > 0")
	}

	// Refresh
	if c.Refresh.Timeout < 0 {
		return errors.New("Refresh Timeout must be >= 0")
	}

	// Store
	if c.Store.TTL < 0 {
		return errors.New("Store TTL must be >= 0")
	}

	// Notify
	if c.Notify.Async && c.Notify.BufferSize <= 0 {
		return errors.New("Notify BufferSize must be > 0 when Async is true")
	}

	// Logging
	if c.Logging.Level != "" {
		if _, err := logrus.ParseLevel(c.Logging.Level); err != nil {
			return errors.New("Logging Level is not a valid logrus level")
		}
	}
	if c.Logging.Format != "" && c.Logging.Format != "text" && c.Logging.Format != "json" {
		return errors.New("Logging Format must be 'text' or 'json'")
	}

	// RateLimit
	if c.RateLimit.Enabled {
		if c.RateLimit.RequestsPerSecond <= 0 {
			return errors.New("RateLimit RequestsPerSecond must be > 0 when enabled")
		}
		if c.RateLimit.Burst < 1 {
			return errors.New("RateLimit Burst must be >= 1 when enabled")
		}
	}

	return nil
}

// LintWarning is a non-fatal configuration smell.
type LintWarning struct {
	Code    string
	Message string
}

// LintWarnings is the result of [Config.Lint].
type LintWarnings []LintWarning

// Codes returns the warning codes in order.
func (ws LintWarnings) Codes() []string {
	out := make([]string, 0, len(ws))
	for _, w := range ws {
		out = append(out, w.Code)
	}
	return out
}

// Lint reports settings that are valid but likely unintended.
func (c *Config) Lint() LintWarnings {
	var ws LintWarnings

	if u, err := url.Parse(c.Backend.BaseURL); err == nil && u.Scheme == "http" &&
		u.Hostname() != "localhost" && u.Hostname() != "127.0.0.1" {
		ws = append(ws, LintWarning{
			Code:    "plaintext_backend",
			Message: "bearer tokens are sent over plain http to a non-local host",
		})
	}
	if c.Refresh.Timeout == 0 {
		ws = append(ws, LintWarning{
			Code:    "refresh_unbounded",
			Message: "refresh cycles are bounded only by Backend Timeout",
		})
	}
	if c.Refresh.Timeout > 0 && c.Refresh.Timeout > c.Backend.Timeout {
		ws = append(ws, LintWarning{
			Code:    "refresh_timeout_exceeds_backend",
			Message: "Refresh Timeout is longer than Backend Timeout and never takes effect",
		})
	}
	if c.Notify.Async && c.Notify.DropIfFull && c.Notify.BufferSize < 8 {
		ws = append(ws, LintWarning{
			Code:    "notify_buffer_small",
			Message: "small async buffer with DropIfFull may drop session-expiry notifications",
		})
	}
	if c.Logging.Level == "debug" || c.Logging.Level == "trace" {
		ws = append(ws, LintWarning{
			Code:    "verbose_logging",
			Message: "debug logging records every outbound call",
		})
	}

	return ws
}
