package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// envReader overrides config fields from OPSYNC_* variables. Parse failures
// are collected so every bad variable is reported at once.
type envReader struct {
	errs []error
}

func applyEnv(cfg *Config) error {
	r := &envReader{}

	r.str("LOG_LEVEL", &cfg.LogLevel)

	r.str("SERVER_ADDR", &cfg.Server.Addr)
	r.str("SERVER_DB", &cfg.Server.DBPath)
	r.integer("RATE_LIMIT", &cfg.Server.RateLimit)
	r.duration("RATE_WINDOW", &cfg.Server.RateWindow)

	r.str("SERVER_URL", &cfg.Client.ServerURL)
	r.str("CLIENT_DB", &cfg.Client.DBPath)
	r.list("ENTITY_TYPES", &cfg.Client.EntityTypes)
	r.duration("SYNC_INTERVAL", &cfg.Client.SyncInterval)
	r.integer("QUEUE_CAPACITY", &cfg.Client.QueueCapacity)
	r.duration("DRAIN_DELAY", &cfg.Client.DrainDelay)
	r.str("PROBE_ADDR", &cfg.Client.ProbeAddr)
	r.duration("PROBE_INTERVAL", &cfg.Client.ProbeInterval)

	rc := &cfg.Reconnect
	r.boolean("RECONNECT_ENABLED", &rc.Enabled)
	r.duration("RECONNECT_INITIAL_DELAY", &rc.InitialDelay)
	r.duration("RECONNECT_MAX_DELAY", &rc.MaxDelay)
	r.float("RECONNECT_MULTIPLIER", &rc.Multiplier)
	r.integer("RECONNECT_MAX_ATTEMPTS", &rc.MaxAttempts)
	r.boolean("RECONNECT_EXPONENTIAL", &rc.Exponential)
	r.boolean("RECONNECT_JITTER", &rc.Jitter)
	r.boolean("RECONNECT_RESET_ON_SUCCESS", &rc.ResetOnSuccess)
	r.boolean("RECONNECT_ON_NETWORK_RESTORE", &rc.ReconnectOnNetworkRestore)
	r.boolean("RECONNECT_ON_VISIBILITY_CHANGE", &rc.ReconnectOnVisibilityChange)
	r.duration("RECONNECT_INACTIVITY_TIMEOUT", &rc.InactivityTimeout)
	r.duration("RECONNECT_HEALTH_CHECK_INTERVAL", &rc.HealthCheckInterval)
	r.duration("RECONNECT_HEALTH_CHECK_TIMEOUT", &rc.HealthCheckTimeout)
	r.duration("RECONNECT_CONNECT_TIMEOUT", &rc.ConnectTimeout)

	if len(r.errs) > 0 {
		return fmt.Errorf("invalid environment: %w", errors.Join(r.errs...))
	}
	return nil
}

func (r *envReader) lookup(key string) (string, bool) {
	value, ok := os.LookupEnv(EnvPrefix + key)
	if !ok || value == "" {
		return "", false
	}
	return value, true
}

func (r *envReader) fail(key, value string, err error) {
	r.errs = append(r.errs, fmt.Errorf("%s%s=%q: %w", EnvPrefix, key, value, err))
}

func (r *envReader) str(key string, dst *string) {
	if value, ok := r.lookup(key); ok {
		*dst = value
	}
}

func (r *envReader) list(key string, dst *[]string) {
	value, ok := r.lookup(key)
	if !ok {
		return
	}
	var out []string
	for _, item := range strings.Split(value, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	*dst = out
}

func (r *envReader) integer(key string, dst *int) {
	value, ok := r.lookup(key)
	if !ok {
		return
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		r.fail(key, value, err)
		return
	}
	*dst = parsed
}

func (r *envReader) float(key string, dst *float64) {
	value, ok := r.lookup(key)
	if !ok {
		return
	}
	parsed, err := strconv.ParseFloat(value, 64)
	if err != nil {
		r.fail(key, value, err)
		return
	}
	*dst = parsed
}

func (r *envReader) duration(key string, dst *time.Duration) {
	value, ok := r.lookup(key)
	if !ok {
		return
	}
	parsed, err := time.ParseDuration(value)
	if err != nil {
		r.fail(key, value, err)
		return
	}
	*dst = parsed
}

func (r *envReader) boolean(key string, dst *bool) {
	value, ok := r.lookup(key)
	if !ok {
		return
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		r.fail(key, value, err)
		return
	}
	*dst = parsed
}
