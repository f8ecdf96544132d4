// Package config loads opsync settings from an optional YAML file and
// OPSYNC_* environment variables. Environment values win over the file.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/iudanet/opsync/internal/client/reconnect"
	"github.com/iudanet/opsync/internal/client/sync"
)

// EnvPrefix is prepended to every environment variable name.
const EnvPrefix = "OPSYNC_"

// Config is the complete configuration of the client and the server.
type Config struct {
	LogLevel  string           `yaml:"log_level"`
	Server    ServerConfig     `yaml:"server"`
	Client    ClientConfig     `yaml:"client"`
	Reconnect reconnect.Config `yaml:"reconnect"`
}

// ServerConfig настройки reference-сервера
type ServerConfig struct {
	Addr   string `yaml:"addr"`
	DBPath string `yaml:"db_path"`
	// RateLimit число WebSocket upgrade с одного IP за RateWindow; 0 отключает лимит
	RateLimit  int           `yaml:"rate_limit"`
	RateWindow time.Duration `yaml:"rate_window"`
}

// ClientConfig настройки клиента
type ClientConfig struct {
	ServerURL     string        `yaml:"server_url"`
	DBPath        string        `yaml:"db_path"`
	ProbeAddr     string        `yaml:"probe_addr"` // пусто: сеть считается всегда доступной
	EntityTypes   []string      `yaml:"entity_types"`
	SyncInterval  time.Duration `yaml:"sync_interval"`
	DrainDelay    time.Duration `yaml:"drain_delay"`
	ProbeInterval time.Duration `yaml:"probe_interval"`
	QueueCapacity int           `yaml:"queue_capacity"`
}

// Default returns the configuration used when nothing overrides it.
func Default() Config {
	return Config{
		LogLevel: "info",
		Server: ServerConfig{
			Addr:       ":8080",
			DBPath:     "opsync-server.db",
			RateLimit:  60,
			RateWindow: time.Minute,
		},
		Client: ClientConfig{
			ServerURL:     "ws://localhost:8080/ws",
			DBPath:        "opsync-client.db",
			EntityTypes:   []string{"cases"},
			SyncInterval:  30 * time.Second,
			QueueCapacity: sync.DefaultQueueCapacity,
			DrainDelay:    sync.DefaultDrainDelay,
			ProbeInterval: 5 * time.Second,
		},
		Reconnect: reconnect.DefaultConfig(),
	}
}

// Load reads path (if not empty) over the defaults, then applies the
// environment and validates the result.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(raw, &cfg); err != nil {
			return Config{}, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
	}

	if err := applyEnv(&cfg); err != nil {
		return Config{}, err
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

// Validate reports every invalid value at once.
func (c Config) Validate() error {
	var errs []error

	if _, err := ParseLevel(c.LogLevel); err != nil {
		errs = append(errs, err)
	}
	if c.Server.RateLimit < 0 {
		errs = append(errs, errors.New("server.rate_limit must not be negative"))
	}
	if c.Server.RateLimit > 0 && c.Server.RateWindow <= 0 {
		errs = append(errs, errors.New("server.rate_window must be positive"))
	}
	if c.Client.QueueCapacity <= 0 {
		errs = append(errs, errors.New("client.queue_capacity must be positive"))
	}
	if c.Client.DrainDelay < 0 {
		errs = append(errs, errors.New("client.drain_delay must not be negative"))
	}
	if c.Client.ProbeAddr != "" && c.Client.ProbeInterval <= 0 {
		errs = append(errs, errors.New("client.probe_interval must be positive"))
	}
	if err := c.Reconnect.Validate(); err != nil {
		errs = append(errs, err)
	}

	if len(errs) > 0 {
		return fmt.Errorf("invalid configuration: %w", errors.Join(errs...))
	}
	return nil
}

// ParseLevel maps debug/info/warn/error to a slog level.
func ParseLevel(level string) (slog.Level, error) {
	var l slog.Level
	if err := l.UnmarshalText([]byte(strings.TrimSpace(level))); err != nil {
		return slog.LevelInfo, fmt.Errorf("unknown log level %q", level)
	}
	return l, nil
}
