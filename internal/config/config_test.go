package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.NotNil(t, cfg)
	assert.Equal(t, 3000, cfg.Server.Port)
	assert.Empty(t, cfg.Server.Host)
	assert.Equal(t, DialectSQLite, cfg.Database.Dialect)
	assert.Equal(t, "file:relay.db?cache=shared&mode=rwc", cfg.Database.DSN)
	assert.Equal(t, 7*24*time.Hour, cfg.JWT.SessionExpiry)
	assert.Equal(t, "https://api.monday.com/v2", cfg.Monday.APIURL)
	assert.Equal(t, "https://api.whatsable.app", cfg.WhatsAble.APIURL)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, "relay.log", cfg.Logging.Path)
	assert.Empty(t, cfg.JWT.SigningSecret)

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "signing secret is required")
}

func TestLoadRequiresSigningSecret(t *testing.T) {
	t.Setenv("MONDAY_SIGNING_SECRET", "")
	require.NoError(t, os.Unsetenv("MONDAY_SIGNING_SECRET"))

	cfg, err := Load("")
	require.Error(t, err)
	assert.Nil(t, cfg)
	assert.Contains(t, err.Error(), "signing secret is required")

	t.Setenv("MONDAY_SIGNING_SECRET", "deployment-secret")
	cfg, err = Load("")
	require.NoError(t, err)
	assert.Equal(t, "deployment-secret", cfg.JWT.SigningSecret)
}

func TestLoadConfig(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.json")

	configData := `{
		"server": {"port": 9090, "host": "127.0.0.1"},
		"database": {"dialect": "postgres", "dsn": "postgres://relay@localhost/relay?sslmode=disable"},
		"jwt": {"signing_secret": "test-signing-secret"},
		"whatsable": {"api_url": "http://whatsable.test"},
		"logging": {"level": "debug", "path": "test.log"}
	}`
	require.NoError(t, os.WriteFile(configPath, []byte(configData), 0644))

	cfg, err := LoadConfig(configPath)
	require.NoError(t, err)
	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "127.0.0.1", cfg.Server.Host)
	assert.Equal(t, DialectPostgres, cfg.Database.Dialect)
	assert.Equal(t, "test-signing-secret", cfg.JWT.SigningSecret)
	assert.Equal(t, "http://whatsable.test", cfg.WhatsAble.APIURL)
	assert.Equal(t, "debug", cfg.Logging.Level)

	// untouched sections keep their defaults
	assert.Equal(t, "https://api.monday.com/v2", cfg.Monday.APIURL)
	assert.Equal(t, 7*24*time.Hour, cfg.JWT.SessionExpiry)

	cfg, err = LoadConfig("non-existent.json")
	assert.Error(t, err)
	assert.Nil(t, cfg)

	invalidPath := filepath.Join(tmpDir, "invalid.json")
	require.NoError(t, os.WriteFile(invalidPath, []byte("invalid json"), 0644))
	cfg, err = LoadConfig(invalidPath)
	assert.Error(t, err)
	assert.Nil(t, cfg)

	cfg, err = LoadConfig(tmpDir)
	assert.Error(t, err)
	assert.Nil(t, cfg)
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("PORT", "8181")
	t.Setenv("DATABASE_URL", "postgres://env@db/relay")
	t.Setenv("DB_DIALECT", "postgres")
	t.Setenv("MONDAY_SIGNING_SECRET", "env-secret")
	t.Setenv("WHATSABLE_API_KEY", "wa-env-key")
	t.Setenv("CORS_ORIGINS", "https://a.example,https://b.example")

	cfg := DefaultConfig()
	require.NoError(t, LoadFromEnv(cfg, filepath.Join(t.TempDir(), "missing.env")))

	assert.Equal(t, 8181, cfg.Server.Port)
	assert.Equal(t, "postgres://env@db/relay", cfg.Database.DSN)
	assert.Equal(t, DialectPostgres, cfg.Database.Dialect)
	assert.Equal(t, "env-secret", cfg.JWT.SigningSecret)
	assert.Equal(t, "wa-env-key", cfg.WhatsAble.APIKey)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.Security.CORSOrigins)
	// unset variables leave defaults alone
	assert.Equal(t, "https://api.whatsable.app", cfg.WhatsAble.APIURL)
}

func TestLoadFromEnvFile(t *testing.T) {
	envPath := filepath.Join(t.TempDir(), "test.env")
	require.NoError(t, os.WriteFile(envPath, []byte("MONDAY_CLIENT_ID=client-from-file\n"), 0644))
	t.Cleanup(func() { os.Unsetenv("MONDAY_CLIENT_ID") })

	cfg := DefaultConfig()
	require.NoError(t, LoadFromEnv(cfg, envPath))
	assert.Equal(t, "client-from-file", cfg.Monday.ClientID)
}

func TestLoadFromEnvNilConfig(t *testing.T) {
	assert.Error(t, LoadFromEnv(nil))
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr string
	}{
		{name: "defaults", mutate: func(c *Config) {}},
		{name: "bad port", mutate: func(c *Config) { c.Server.Port = 0 }, wantErr: "invalid server port"},
		{name: "bad dialect", mutate: func(c *Config) { c.Database.Dialect = "mysql" }, wantErr: "unsupported database dialect"},
		{name: "missing dsn", mutate: func(c *Config) { c.Database.DSN = "" }, wantErr: "DSN is required"},
		{name: "missing secret", mutate: func(c *Config) { c.JWT.SigningSecret = "" }, wantErr: "signing secret is required"},
		{name: "zero expiry", mutate: func(c *Config) { c.JWT.SessionExpiry = 0 }, wantErr: "session expiry"},
		{name: "short encryption key", mutate: func(c *Config) { c.Security.EncryptionKey = "short" }, wantErr: "invalid encryption key"},
		{name: "valid encryption key", mutate: func(c *Config) { c.Security.EncryptionKey = "12345678901234567890123456789012" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			cfg.JWT.SigningSecret = "test-secret"
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
