package config

import (
	"bytes"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iudanet/opsync/internal/client/reconnect"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "opsync.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, Default(), cfg)
	assert.Equal(t, reconnect.DefaultConfig(), cfg.Reconnect)
	assert.Equal(t, 1000, cfg.Client.QueueCapacity)
	assert.Equal(t, 50*time.Millisecond, cfg.Client.DrainDelay)
}

func TestLoad_File(t *testing.T) {
	path := writeConfig(t, `
log_level: debug
server:
  addr: ":9090"
  rate_limit: 5
  rate_window: 10s
client:
  server_url: ws://example.test/ws
  entity_types: [cases, units]
  sync_interval: 1m
reconnect:
  initial_delay: 500ms
  max_delay: 10s
  max_attempts: 3
  jitter: false
  health_check_interval: 15s
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, ":9090", cfg.Server.Addr)
	assert.Equal(t, 5, cfg.Server.RateLimit)
	assert.Equal(t, 10*time.Second, cfg.Server.RateWindow)
	assert.Equal(t, "ws://example.test/ws", cfg.Client.ServerURL)
	assert.Equal(t, []string{"cases", "units"}, cfg.Client.EntityTypes)
	assert.Equal(t, time.Minute, cfg.Client.SyncInterval)
	assert.Equal(t, 500*time.Millisecond, cfg.Reconnect.InitialDelay)
	assert.Equal(t, 10*time.Second, cfg.Reconnect.MaxDelay)
	assert.Equal(t, 3, cfg.Reconnect.MaxAttempts)
	assert.False(t, cfg.Reconnect.Jitter)
	assert.Equal(t, 15*time.Second, cfg.Reconnect.HealthCheckInterval)

	// не указанные в файле поля сохраняют значения по умолчанию
	assert.Equal(t, "opsync-server.db", cfg.Server.DBPath)
	assert.Equal(t, 2.0, cfg.Reconnect.Multiplier)
	assert.True(t, cfg.Reconnect.Exponential)
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	path := writeConfig(t, `
server:
  addr: ":9090"
reconnect:
  max_attempts: 3
`)
	t.Setenv("OPSYNC_SERVER_ADDR", ":7070")
	t.Setenv("OPSYNC_ENTITY_TYPES", " cases , units,,")
	t.Setenv("OPSYNC_RECONNECT_MAX_ATTEMPTS", "7")
	t.Setenv("OPSYNC_RECONNECT_MULTIPLIER", "1.5")
	t.Setenv("OPSYNC_RECONNECT_JITTER", "false")
	t.Setenv("OPSYNC_RECONNECT_INACTIVITY_TIMEOUT", "5m")
	t.Setenv("OPSYNC_PROBE_ADDR", "example.test:443")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, ":7070", cfg.Server.Addr)
	assert.Equal(t, []string{"cases", "units"}, cfg.Client.EntityTypes)
	assert.Equal(t, 7, cfg.Reconnect.MaxAttempts)
	assert.Equal(t, 1.5, cfg.Reconnect.Multiplier)
	assert.False(t, cfg.Reconnect.Jitter)
	assert.Equal(t, 5*time.Minute, cfg.Reconnect.InactivityTimeout)
	assert.Equal(t, "example.test:443", cfg.Client.ProbeAddr)
}

func TestLoad_InvalidEnv(t *testing.T) {
	t.Setenv("OPSYNC_RATE_LIMIT", "many")
	t.Setenv("OPSYNC_RECONNECT_JITTER", "sometimes")
	t.Setenv("OPSYNC_SYNC_INTERVAL", "soon")

	_, err := Load("")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "OPSYNC_RATE_LIMIT")
	assert.Contains(t, err.Error(), "OPSYNC_RECONNECT_JITTER")
	assert.Contains(t, err.Error(), "OPSYNC_SYNC_INTERVAL")
}

func TestLoad_Errors(t *testing.T) {
	tests := []struct {
		name    string
		content string
		errMsg  string
	}{
		{
			name:    "malformed yaml",
			content: "server: [",
			errMsg:  "failed to parse config file",
		},
		{
			name:    "bad duration",
			content: "client:\n  sync_interval: often\n",
			errMsg:  "failed to parse config file",
		},
		{
			name:    "invalid reconnect policy",
			content: "reconnect:\n  initial_delay: 10s\n  max_delay: 1s\n",
			errMsg:  "invalid reconnect config",
		},
		{
			name:    "unknown log level",
			content: "log_level: loud\n",
			errMsg:  "unknown log level",
		},
		{
			name:    "non-positive queue capacity",
			content: "client:\n  queue_capacity: 0\n",
			errMsg:  "client.queue_capacity",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.content))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errMsg)
		})
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.ErrorIs(t, err, os.ErrNotExist)
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input   string
		want    slog.Level
		wantErr bool
	}{
		{input: "debug", want: slog.LevelDebug},
		{input: "INFO", want: slog.LevelInfo},
		{input: "warn", want: slog.LevelWarn},
		{input: " error ", want: slog.LevelError},
		{input: "verbose", want: slog.LevelInfo, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseLevel(tt.input)
			if tt.wantErr {
				require.Error(t, err)
			} else {
				require.NoError(t, err)
			}
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestConfig_NewLogger(t *testing.T) {
	var buf bytes.Buffer
	cfg := Default()
	cfg.LogLevel = "warn"
	logger := cfg.NewLogger(&buf)

	logger.Info("hidden")
	logger.Warn("shown", "entity_type", "cases")

	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), "shown")
	assert.Contains(t, buf.String(), "entity_type=cases")
}
