package reconnect

import (
	"errors"
	"fmt"
	"time"
)

// Config is the reconnection policy.
//
// InactivityTimeout and HealthCheckInterval of zero or less disable the
// corresponding monitor.
type Config struct {
	// InitialDelay задержка перед первой попыткой и база экспоненты
	InitialDelay time.Duration `yaml:"initial_delay"`
	// MaxDelay верхняя граница задержки без учёта jitter
	MaxDelay time.Duration `yaml:"max_delay"`
	// InactivityTimeout после этого простоя пользователя соединение закрывается
	InactivityTimeout time.Duration `yaml:"inactivity_timeout"`
	// HealthCheckInterval период отправки ping
	HealthCheckInterval time.Duration `yaml:"health_check_interval"`
	// HealthCheckTimeout сколько ждать pong; 0 означает HealthCheckInterval
	HealthCheckTimeout time.Duration `yaml:"health_check_timeout"`
	// ConnectTimeout ограничивает одну попытку подключения
	ConnectTimeout time.Duration `yaml:"connect_timeout"`
	// CountdownTick шаг обратного отсчёта NextRetryIn, только для отображения
	CountdownTick time.Duration `yaml:"countdown_tick"`
	Multiplier    float64       `yaml:"multiplier"`
	MaxAttempts   int           `yaml:"max_attempts"`

	Enabled                     bool `yaml:"enabled"`
	Exponential                 bool `yaml:"exponential"`
	Jitter                      bool `yaml:"jitter"`
	ResetOnSuccess              bool `yaml:"reset_on_success"`
	ReconnectOnNetworkRestore   bool `yaml:"reconnect_on_network_restore"`
	ReconnectOnVisibilityChange bool `yaml:"reconnect_on_visibility_change"`
}

// DefaultConfig returns the default policy: 1s initial delay doubling up to
// 30s, 10 attempts, jitter on, inactivity and health checks disabled.
func DefaultConfig() Config {
	return Config{
		Enabled:                     true,
		InitialDelay:                time.Second,
		Multiplier:                  2,
		MaxDelay:                    30 * time.Second,
		MaxAttempts:                 10,
		Exponential:                 true,
		Jitter:                      true,
		ResetOnSuccess:              true,
		ReconnectOnNetworkRestore:   true,
		ReconnectOnVisibilityChange: true,
		ConnectTimeout:              10 * time.Second,
		CountdownTick:               time.Second,
	}
}

var ErrInvalidConfig = errors.New("invalid reconnect config")

// Validate checks the policy for values the controller cannot work with.
func (c Config) Validate() error {
	switch {
	case c.InitialDelay <= 0:
		return fmt.Errorf("%w: initial delay must be positive", ErrInvalidConfig)
	case c.MaxDelay < c.InitialDelay:
		return fmt.Errorf("%w: max delay %s is less than initial delay %s", ErrInvalidConfig, c.MaxDelay, c.InitialDelay)
	case c.Exponential && c.Multiplier < 1:
		return fmt.Errorf("%w: multiplier must be at least 1", ErrInvalidConfig)
	case c.MaxAttempts <= 0:
		return fmt.Errorf("%w: max attempts must be positive", ErrInvalidConfig)
	case c.CountdownTick <= 0:
		return fmt.Errorf("%w: countdown tick must be positive", ErrInvalidConfig)
	}
	return nil
}

func (c Config) pongTimeout() time.Duration {
	if c.HealthCheckTimeout > 0 {
		return c.HealthCheckTimeout
	}
	return c.HealthCheckInterval
}
