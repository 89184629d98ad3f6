package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadAPIConfig(t *testing.T) {
	tests := []struct {
		name        string
		configFile  string
		expectError bool
		validate    func(*testing.T, *APIConfig)
	}{
		{
			name: "valid config file",
			configFile: `
debug: true
sentry_dsn: "https://sentry.example.com"
server:
  host: "127.0.0.1"
  port: 9090
  read_timeout: 20
  write_timeout: 20
  idle_timeout: 180
  allowed_origins:
    - "https://app.example.com"
  rate_limit:
    requests_per_second: 0.5
    burst: 3
database:
  host: localhost
  port: 5432
  user: testuser
  password: testpass
  dbname: testdb
  max_open_conns: 15
  conn_max_lifetime: "1h"
nats:
  url: "nats://localhost:4222"
  stream_name: "TEST_STREAM"
  subject_prefix: "test"
  reconnect_wait: "5s"
auth:
  jwt_public_key: "test-public-key"
worker:
  pool_size: 8
  queue_size: 256
clock:
  mode: wall
genesis_path: "/etc/tier-pass/genesis.json"
`,
			expectError: false,
			validate: func(t *testing.T, cfg *APIConfig) {
				assert.True(t, cfg.Debug)
				assert.Equal(t, "https://sentry.example.com", cfg.SentryDSN)
				assert.Equal(t, "127.0.0.1", cfg.Server.Host)
				assert.Equal(t, 9090, cfg.Server.Port)
				assert.Equal(t, 20, cfg.Server.ReadTimeout)
				assert.Equal(t, 180, cfg.Server.IdleTimeout)
				assert.Equal(t, []string{"https://app.example.com"}, cfg.Server.AllowedOrigins)
				assert.Equal(t, 0.5, cfg.Server.RateLimit.RequestsPerSecond)
				assert.Equal(t, 3, cfg.Server.RateLimit.Burst)
				assert.Equal(t, "localhost", cfg.Database.Host)
				assert.False(t, cfg.Database.InMemory())
				assert.Equal(t, 15, cfg.Database.MaxOpenConns)
				assert.Equal(t, time.Hour, cfg.Database.ConnMaxLifetime)
				assert.Equal(t, "nats://localhost:4222", cfg.NATS.URL)
				assert.Equal(t, "TEST_STREAM", cfg.NATS.StreamName)
				assert.Equal(t, "test", cfg.NATS.SubjectPrefix)
				assert.Equal(t, 5*time.Second, cfg.NATS.ReconnectWait)
				assert.Equal(t, "test-public-key", cfg.Auth.JWTPublicKey)
				assert.Equal(t, 8, cfg.Worker.WorkerPoolSize)
				assert.Equal(t, 256, cfg.Worker.WorkerQueueSize)
				assert.Equal(t, "wall", cfg.Clock.Mode)
				assert.Equal(t, "/etc/tier-pass/genesis.json", cfg.GenesisPath)
			},
		},
		{
			name:        "missing config file - should work with env vars",
			configFile:  "",
			expectError: false,
			validate: func(t *testing.T, cfg *APIConfig) {
				assert.NotNil(t, cfg)
				assert.False(t, cfg.Debug)                  // default
				assert.Equal(t, "0.0.0.0", cfg.Server.Host) // default
				assert.Equal(t, 8080, cfg.Server.Port)      // default
				assert.Equal(t, "logical", cfg.Clock.Mode)  // default
			},
		},
		{
			name: "config with defaults",
			configFile: `
auth:
  jwt_public_key: "test-public-key"
`,
			expectError: false,
			validate: func(t *testing.T, cfg *APIConfig) {
				assert.Equal(t, 10, cfg.Server.ReadTimeout)  // default
				assert.Equal(t, 10, cfg.Server.WriteTimeout) // default
				assert.Equal(t, 120, cfg.Server.IdleTimeout) // default
				assert.Equal(t, float64(5), cfg.Server.RateLimit.RequestsPerSecond)
				assert.Equal(t, 10, cfg.Server.RateLimit.Burst)
				assert.True(t, cfg.Database.InMemory())
				assert.Equal(t, 5432, cfg.Database.Port)
				assert.Equal(t, "disable", cfg.Database.SSLMode)
				assert.Equal(t, 30*time.Second, cfg.Database.ConnectTimeout)
				assert.Empty(t, cfg.NATS.URL)
				assert.Equal(t, "TIER_PASS_EVENTS", cfg.NATS.StreamName)
				assert.Equal(t, "tierpass", cfg.NATS.SubjectPrefix)
				assert.Equal(t, 10, cfg.NATS.MaxReconnects)
				assert.Equal(t, 2*time.Second, cfg.NATS.ReconnectWait)
				assert.Equal(t, 4, cfg.Worker.WorkerPoolSize)
				assert.Equal(t, 1024, cfg.Worker.WorkerQueueSize)
				assert.Equal(t, "logical", cfg.Clock.Mode)
				assert.Equal(t, "config/genesis.json", cfg.GenesisPath)
			},
		},
		{
			name: "invalid yaml",
			configFile: `
				server:
				  port: invalid
			`,
			expectError: true,
			validate:    nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var configFile string

			if tt.configFile != "" {
				tmpDir := t.TempDir()
				configFile = filepath.Join(tmpDir, "config.yaml")
				err := os.WriteFile(configFile, []byte(tt.configFile), 0600)
				require.NoError(t, err)
			}

			cfg, err := LoadAPIConfig(configFile, t.TempDir())

			if tt.expectError {
				assert.Error(t, err)
				assert.Nil(t, cfg)
			} else {
				if tt.validate != nil {
					require.NoError(t, err)
					require.NotNil(t, cfg)
					tt.validate(t, cfg)
				}
			}
		})
	}
}

func TestDatabaseConfig_DSN(t *testing.T) {
	tests := []struct {
		name     string
		config   DatabaseConfig
		expected string
	}{
		{
			name: "complete config",
			config: DatabaseConfig{
				Host:     "localhost",
				Port:     5432,
				User:     "testuser",
				Password: "testpass",
				DBName:   "testdb",
				SSLMode:  "require",
			},
			expected: "host=localhost port=5432 user=testuser password=testpass dbname=testdb sslmode=require",
		},
		{
			name: "with special characters in password",
			config: DatabaseConfig{
				Host:     "localhost",
				Port:     5432,
				User:     "testuser",
				Password: "p@ssw0rd!",
				DBName:   "testdb",
				SSLMode:  "disable",
			},
			expected: "host=localhost port=5432 user=testuser password=p@ssw0rd! dbname=testdb sslmode=disable",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.config.DSN())
		})
	}
}

func TestConfigWithEnvironmentVariables(t *testing.T) {
	tmpDir := t.TempDir()

	envDir := filepath.Join(tmpDir, "env")
	err := os.MkdirAll(envDir, 0750)
	require.NoError(t, err)

	// Viper uses TIER_PASS_ prefix, so env vars need the prefix
	envFile := filepath.Join(envDir, ".env")
	envContent := `TIER_PASS_DEBUG=true
TIER_PASS_DATABASE_HOST=env-host
TIER_PASS_DATABASE_PORT=3306
TIER_PASS_NATS_URL=nats://env-nats:4222
TIER_PASS_CLOCK_MODE=wall
TIER_PASS_GENESIS_PATH=/env/genesis.json
`
	err = os.WriteFile(envFile, []byte(envContent), 0600)
	require.NoError(t, err)

	// .env.api.local overrides the shared file
	err = os.WriteFile(filepath.Join(envDir, ".env.api.local"), []byte("TIER_PASS_DATABASE_PORT=6543\n"), 0600)
	require.NoError(t, err)

	configPath := filepath.Join(tmpDir, "config.yaml")
	configFile := `
debug: false
database:
  host: file-host
  port: 5432
clock:
  mode: logical
`
	err = os.WriteFile(configPath, []byte(configFile), 0600)
	require.NoError(t, err)

	t.Cleanup(func() {
		for _, key := range []string{
			"TIER_PASS_DEBUG",
			"TIER_PASS_DATABASE_HOST",
			"TIER_PASS_DATABASE_PORT",
			"TIER_PASS_NATS_URL",
			"TIER_PASS_CLOCK_MODE",
			"TIER_PASS_GENESIS_PATH",
		} {
			_ = os.Unsetenv(key)
		}
	})

	cfg, err := LoadAPIConfig(configPath, envDir)
	require.NoError(t, err)
	require.NotNil(t, cfg)

	// The .env files are loaded via godotenv.Overload, which sets actual environment variables
	assert.True(t, cfg.Debug)
	assert.Equal(t, "env-host", cfg.Database.Host)
	assert.Equal(t, 6543, cfg.Database.Port)
	assert.Equal(t, "nats://env-nats:4222", cfg.NATS.URL)
	assert.Equal(t, "wall", cfg.Clock.Mode)
	assert.Equal(t, "/env/genesis.json", cfg.GenesisPath)
}
