package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"whatsable-relay/pkg/logger"
	"whatsable-relay/pkg/utils"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

const (
	DialectSQLite   = "sqlite3"
	DialectPostgres = "postgres"
)

// Config holds all configuration settings
type Config struct {
	Server struct {
		Port int    `json:"port" env:"PORT"`
		Host string `json:"host" env:"HOST"`
	} `json:"server"`
	Database struct {
		Dialect string `json:"dialect" env:"DB_DIALECT"`
		DSN     string `json:"dsn" env:"DATABASE_URL"`
	} `json:"database"`
	JWT struct {
		// SigningSecret verifies tokens issued by Monday and signs our own session tokens
		SigningSecret string        `json:"signing_secret" env:"MONDAY_SIGNING_SECRET"`
		SessionExpiry time.Duration `json:"session_expiry" env:"SESSION_EXPIRY"`
	} `json:"jwt"`
	Monday struct {
		ClientID     string `json:"client_id" env:"MONDAY_CLIENT_ID"`
		ClientSecret string `json:"client_secret" env:"MONDAY_CLIENT_SECRET"`
		APIURL       string `json:"api_url" env:"MONDAY_API_URL"`
		OAuthURL     string `json:"oauth_url" env:"MONDAY_OAUTH_URL"`
	} `json:"monday"`
	WhatsAble struct {
		APIURL string `json:"api_url" env:"WHATSABLE_API_URL"`
		// APIKey is the fallback key for users who have not saved their own
		APIKey string `json:"api_key" env:"WHATSABLE_API_KEY"`
	} `json:"whatsable"`
	Security struct {
		EncryptionKey string   `json:"encryption_key" env:"ENCRYPTION_KEY"`
		CORSOrigins   []string `json:"cors_origins" env:"CORS_ORIGINS" envSeparator:","`
		MaxBodyBytes  int64    `json:"max_body_bytes" env:"MAX_BODY_BYTES"`
		// ForceHTTPS redirects plain HTTP requests; honours X-Forwarded-Proto behind a proxy
		ForceHTTPS bool `json:"force_https" env:"FORCE_HTTPS"`
	} `json:"security"`
	Logging struct {
		Level string `json:"level" env:"LOG_LEVEL"`
		Path  string `json:"path" env:"LOG_PATH"`
	} `json:"logging"`
}

// LoadConfig loads configuration from a JSON file on top of the defaults
func LoadConfig(path string) (*Config, error) {
	cleanPath := filepath.Clean(path)
	if !filepath.IsAbs(cleanPath) {
		return nil, fmt.Errorf("config path must be absolute")
	}

	fileInfo, err := os.Stat(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("config file error: %w", err)
	}
	if !fileInfo.Mode().IsRegular() {
		return nil, fmt.Errorf("config path is not a regular file")
	}

	file, err := os.Open(cleanPath)
	if err != nil {
		return nil, err
	}
	defer func() {
		if closeErr := file.Close(); closeErr != nil {
			logger.Warn("Failed to close config file", zap.Error(closeErr))
		}
	}()

	config := DefaultConfig()
	if err := json.NewDecoder(file).Decode(config); err != nil {
		return nil, err
	}

	return config, nil
}

// LoadFromEnv overlays environment variables (and any .env files) onto cfg.
// Variables that are not set leave the current value untouched.
func LoadFromEnv(cfg *Config, envFiles ...string) error {
	if cfg == nil {
		return errors.New("config is required")
	}
	if len(envFiles) == 0 {
		envFiles = []string{".env"}
	}
	for _, f := range envFiles {
		// a missing .env is normal outside development
		_ = godotenv.Load(f)
	}
	if err := env.Parse(cfg); err != nil {
		return fmt.Errorf("failed to parse environment: %w", err)
	}
	return nil
}

// Load builds the runtime configuration: defaults, then the optional JSON file, then env
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()
	if path != "" {
		fileCfg, err := LoadConfig(path)
		if err != nil {
			return nil, err
		}
		cfg = fileCfg
	}

	if err := LoadFromEnv(cfg); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects configurations the server cannot run with
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}
	switch c.Database.Dialect {
	case DialectSQLite, DialectPostgres:
	default:
		return fmt.Errorf("unsupported database dialect %q", c.Database.Dialect)
	}
	if c.Database.DSN == "" {
		return errors.New("database DSN is required")
	}
	if c.JWT.SigningSecret == "" {
		return errors.New("signing secret is required")
	}
	if c.JWT.SessionExpiry <= 0 {
		return errors.New("session expiry must be positive")
	}
	if c.Security.EncryptionKey != "" {
		if err := utils.ValidateKey(c.Security.EncryptionKey); err != nil {
			return fmt.Errorf("invalid encryption key: %w", err)
		}
	}
	return nil
}

// DefaultConfig returns a default configuration
func DefaultConfig() *Config {
	config := &Config{}
	config.Server.Port = 3000
	// empty host listens on every interface
	config.Server.Host = ""
	config.Database.Dialect = DialectSQLite
	config.Database.DSN = "file:relay.db?cache=shared&mode=rwc"
	// no default secret: MONDAY_SIGNING_SECRET must be provided
	config.JWT.SigningSecret = ""
	config.JWT.SessionExpiry = 7 * 24 * time.Hour
	config.Monday.APIURL = "https://api.monday.com/v2"
	config.Monday.OAuthURL = "https://auth.monday.com/oauth2/token"
	config.WhatsAble.APIURL = "https://api.whatsable.app"
	config.Security.CORSOrigins = []string{"*"}
	config.Security.MaxBodyBytes = 1 << 20
	config.Logging.Level = "info"
	config.Logging.Path = "relay.log"
	return config
}
