package authclient

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Environment variables read by [LoadConfigFromEnv].
const (
	EnvBaseURL          = "AUTHCLIENT_BASE_URL"
	EnvTimeout          = "AUTHCLIENT_TIMEOUT"
	EnvRefreshPath      = "AUTHCLIENT_REFRESH_PATH"
	EnvLoginPath        = "AUTHCLIENT_LOGIN_PATH"
	EnvLogoutPath       = "AUTHCLIENT_LOGOUT_PATH"
	EnvRefreshTimeout   = "AUTHCLIENT_REFRESH_TIMEOUT"
	EnvRedisPrefix      = "AUTHCLIENT_REDIS_PREFIX"
	EnvStoreTTL         = "AUTHCLIENT_STORE_TTL"
	EnvLogLevel         = "AUTHCLIENT_LOG_LEVEL"
	EnvLogFormat        = "AUTHCLIENT_LOG_FORMAT"
	EnvMetricsEnabled   = "AUTHCLIENT_METRICS_ENABLED"
	EnvRateLimitRPS     = "AUTHCLIENT_RATE_LIMIT_RPS"
	EnvRateLimitBurst   = "AUTHCLIENT_RATE_LIMIT_BURST"
	EnvNotifyAsync      = "AUTHCLIENT_NOTIFY_ASYNC"
	EnvNotifyBufferSize = "AUTHCLIENT_NOTIFY_BUFFER_SIZE"
)

// LoadConfigFromEnv starts from [DefaultConfig], loads the given .env files (missing
// files are skipped; variables already set in the process win) and overlays every
// AUTHCLIENT_* variable. The result is validated.
func LoadConfigFromEnv(files ...string) (Config, error) {
	for _, f := range files {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return Config{}, fmt.Errorf("load %s: %w", f, err)
		}
	}

	cfg := defaultConfig()
	var err error

	setString(&cfg.Backend.BaseURL, EnvBaseURL)
	setString(&cfg.Backend.RefreshPath, EnvRefreshPath)
	setString(&cfg.Backend.LoginPath, EnvLoginPath)
	if v, ok := os.LookupEnv(EnvLogoutPath); ok {
		cfg.Backend.LogoutPath = v
	}
	setString(&cfg.Store.RedisPrefix, EnvRedisPrefix)
	setString(&cfg.Logging.Level, EnvLogLevel)
	setString(&cfg.Logging.Format, EnvLogFormat)

	if err = setDuration(&cfg.Backend.Timeout, EnvTimeout); err != nil {
		return Config{}, err
	}
	if err = setDuration(&cfg.Refresh.Timeout, EnvRefreshTimeout); err != nil {
		return Config{}, err
	}
	if err = setDuration(&cfg.Store.TTL, EnvStoreTTL); err != nil {
		return Config{}, err
	}
	if err = setBool(&cfg.Metrics.Enabled, EnvMetricsEnabled); err != nil {
		return Config{}, err
	}
	cfg.Metrics.EnableLatencyHistograms = cfg.Metrics.Enabled
	if err = setBool(&cfg.Notify.Async, EnvNotifyAsync); err != nil {
		return Config{}, err
	}
	if err = setInt(&cfg.Notify.BufferSize, EnvNotifyBufferSize); err != nil {
		return Config{}, err
	}

	if v := os.Getenv(EnvRateLimitRPS); v != "" {
		rps, perr := strconv.ParseFloat(v, 64)
		if perr != nil {
			return Config{}, fmt.Errorf("%s: %w", EnvRateLimitRPS, perr)
		}
		cfg.RateLimit.Enabled = rps > 0
		cfg.RateLimit.RequestsPerSecond = rps
	}
	if err = setInt(&cfg.RateLimit.Burst, EnvRateLimitBurst); err != nil {
		return Config{}, err
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setDuration(dst *time.Duration, key string) error {
	v := os.Getenv(key)
	if v == "" {
		return nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fmt.Errorf("%s: %w", key, err)
	}
	*dst = d
	return nil
}

func setBool(dst *bool, key string) error {
	v := os.Getenv(key)
	if v == "" {
		return nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return fmt.Errorf("%s: %w", key, err)
	}
	*dst = b
	return nil
}

func setInt(dst *int, key string) error {
	v := os.Getenv(key)
	if v == "" {
		return nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fmt.Errorf("%s: %w", key, err)
	}
	*dst = n
	return nil
}
