package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/ilyakaznacheev/cleanenv"
	"github.com/rs/zerolog/log"
)

// Config holds all application configuration. Values come from environment
// variables, optionally layered over a YAML file named by OKRS_CONFIG_PATH.
type Config struct {
	Database   DatabaseConfig `yaml:"database"`
	Redis      RedisConfig    `yaml:"redis"`
	JWT        JWTConfig      `yaml:"jwt"`
	Server     ServerConfig   `yaml:"server"`
	OAuth      OAuthConfig    `yaml:"oauth"`
	Log        LogConfig      `yaml:"log"`
	OKR        OKRConfig      `yaml:"okr"`
	VaultKey   string         `yaml:"vault_key" env:"OKRS_VAULT_KEY"` //nolint:gosec // G117: key material config
	SelfHosted bool           `yaml:"self_hosted" env:"OKRS_SELF_HOSTED" env-default:"false"`
}

// DatabaseConfig holds PostgreSQL connection settings.
type DatabaseConfig struct {
	Host     string `yaml:"host" env:"OKRS_DB_HOST" env-default:"localhost"`
	Port     int    `yaml:"port" env:"OKRS_DB_PORT" env-default:"5432"`
	User     string `yaml:"user" env:"OKRS_DB_USER" env-default:"okrs"`
	Password string `yaml:"password" env:"OKRS_DB_PASSWORD"` //nolint:gosec // G117: DB connection config
	DBName   string `yaml:"name" env:"OKRS_DB_NAME" env-default:"okrs_dev"`
	SSLMode  string `yaml:"sslmode" env:"OKRS_DB_SSLMODE" env-default:"disable"`
	MaxConns int    `yaml:"max_conns" env:"OKRS_DB_MAX_CONNS" env-default:"25"`
	Migrate  bool   `yaml:"migrate" env:"OKRS_DB_MIGRATE" env-default:"true"`
}

// RedisConfig holds Redis connection settings.
type RedisConfig struct {
	Addr     string `yaml:"addr" env:"OKRS_REDIS_ADDR" env-default:"localhost:6379"`
	Password string `yaml:"password" env:"OKRS_REDIS_PASSWORD"` //nolint:gosec // G117: Redis connection config
	DB       int    `yaml:"db" env:"OKRS_REDIS_DB" env-default:"0"`
}

// JWTConfig holds JWT authentication settings.
type JWTConfig struct {
	Secret     string        `yaml:"secret" env:"OKRS_JWT_SECRET"` //nolint:gosec // G117: JWT signing secret config
	AccessTTL  time.Duration `yaml:"access_ttl" env:"OKRS_JWT_ACCESS_TTL" env-default:"15m"`
	RefreshTTL time.Duration `yaml:"refresh_ttl" env:"OKRS_JWT_REFRESH_TTL" env-default:"168h"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Addr           string        `yaml:"addr" env:"OKRS_SERVER_ADDR" env-default:":8080"`
	ReadTimeout    time.Duration `yaml:"read_timeout" env:"OKRS_SERVER_READ_TIMEOUT" env-default:"10s"`
	WriteTimeout   time.Duration `yaml:"write_timeout" env:"OKRS_SERVER_WRITE_TIMEOUT" env-default:"30s"`
	CORSOrigins    []string      `yaml:"cors_origins" env:"OKRS_CORS_ORIGINS" env-default:"http://localhost:5173" env-separator:","`
	RateLimitRPS   float64       `yaml:"rate_limit_rps" env:"OKRS_RATE_LIMIT_RPS" env-default:"20"`
	RateLimitBurst int           `yaml:"rate_limit_burst" env:"OKRS_RATE_LIMIT_BURST" env-default:"40"`
}

// OAuthProviderConfig holds one identity provider's client registration.
// The provider is disabled while ClientID is empty.
type OAuthProviderConfig struct {
	ClientID     string `yaml:"client_id"`
	ClientSecret string `yaml:"client_secret"` //nolint:gosec // G117: OAuth client config
	RedirectURL  string `yaml:"redirect_url"`
}

// Enabled reports whether the provider has a client registration.
func (p OAuthProviderConfig) Enabled() bool {
	return p.ClientID != ""
}

// OAuthConfig holds identity provider settings.
type OAuthConfig struct {
	Google struct {
		ClientID     string `yaml:"client_id" env:"OKRS_GOOGLE_CLIENT_ID"`
		ClientSecret string `yaml:"client_secret" env:"OKRS_GOOGLE_CLIENT_SECRET"` //nolint:gosec // G117: OAuth client config
		RedirectURL  string `yaml:"redirect_url" env:"OKRS_GOOGLE_REDIRECT_URL"`
	} `yaml:"google"`
	GitHub struct {
		ClientID     string `yaml:"client_id" env:"OKRS_GITHUB_CLIENT_ID"`
		ClientSecret string `yaml:"client_secret" env:"OKRS_GITHUB_CLIENT_SECRET"` //nolint:gosec // G117: OAuth client config
		RedirectURL  string `yaml:"redirect_url" env:"OKRS_GITHUB_REDIRECT_URL"`
	} `yaml:"github"`
}

// GoogleProvider returns the Google client registration.
func (c *OAuthConfig) GoogleProvider() OAuthProviderConfig {
	return OAuthProviderConfig(c.Google)
}

// GitHubProvider returns the GitHub client registration.
func (c *OAuthConfig) GitHubProvider() OAuthProviderConfig {
	return OAuthProviderConfig(c.GitHub)
}

// LogConfig controls the global zerolog logger.
type LogConfig struct {
	Level  string `yaml:"level" env:"OKRS_LOG_LEVEL" env-default:"info"`
	Format string `yaml:"format" env:"OKRS_LOG_FORMAT" env-default:"json"`
}

// OKRConfig holds objective service settings.
type OKRConfig struct {
	DefaultRole string `yaml:"default_role" env:"OKRS_DEFAULT_ROLE" env-default:"member"`
	// OrganizationID pins the organization new objectives attach to. Empty
	// means the earliest-created organization.
	OrganizationID string `yaml:"organization_id" env:"OKRS_ORGANIZATION_ID"`
}

// Organization returns the pinned organization id, uuid.Nil when unset.
// validate has already rejected malformed values.
func (c *OKRConfig) Organization() uuid.UUID {
	if c.OrganizationID == "" {
		return uuid.Nil
	}
	return uuid.MustParse(c.OrganizationID)
}

// Load reads configuration from OKRS_CONFIG_PATH (when set) and the
// environment, then validates it. Environment values win over the file.
// Defaults are safe for local development only. In production,
// sensitive values (JWT secret, DB password) must be set explicitly.
func Load() (*Config, error) {
	var cfg Config

	if path := os.Getenv("OKRS_CONFIG_PATH"); path != "" {
		if err := cleanenv.ReadConfig(path, &cfg); err != nil {
			return nil, fmt.Errorf("config.Load: read %s: %w", path, err)
		}
	} else if err := cleanenv.ReadEnv(&cfg); err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}

	return &cfg, nil
}

// validate checks required fields and value bounds.
func (c *Config) validate() error {
	// JWT secret is required (no insecure default).
	if c.JWT.Secret == "" {
		return errors.New("OKRS_JWT_SECRET is required")
	}
	if len(c.JWT.Secret) < 32 {
		return errors.New("OKRS_JWT_SECRET must be at least 32 characters")
	}

	// DB SSL mode warning for non-self-hosted deployments.
	if c.Database.SSLMode == "disable" && !c.SelfHosted {
		log.Warn().Msg("OKRS_DB_SSLMODE=disable is insecure for production; set to 'require' or 'verify-full'")
	}

	// Bounds checks.
	if c.Database.Port < 1 || c.Database.Port > 65535 {
		return fmt.Errorf("OKRS_DB_PORT must be 1-65535, got %d", c.Database.Port)
	}
	if c.Database.MaxConns < 1 {
		return fmt.Errorf("OKRS_DB_MAX_CONNS must be >= 1, got %d", c.Database.MaxConns)
	}
	if c.JWT.AccessTTL <= 0 {
		return fmt.Errorf("OKRS_JWT_ACCESS_TTL must be positive, got %s", c.JWT.AccessTTL)
	}
	if c.JWT.RefreshTTL <= 0 {
		return fmt.Errorf("OKRS_JWT_REFRESH_TTL must be positive, got %s", c.JWT.RefreshTTL)
	}
	if c.Server.ReadTimeout <= 0 {
		return fmt.Errorf("OKRS_SERVER_READ_TIMEOUT must be positive, got %s", c.Server.ReadTimeout)
	}
	if c.Server.WriteTimeout <= 0 {
		return fmt.Errorf("OKRS_SERVER_WRITE_TIMEOUT must be positive, got %s", c.Server.WriteTimeout)
	}
	if c.Server.RateLimitRPS <= 0 {
		return fmt.Errorf("OKRS_RATE_LIMIT_RPS must be positive, got %g", c.Server.RateLimitRPS)
	}
	if c.Server.RateLimitBurst < 1 {
		return fmt.Errorf("OKRS_RATE_LIMIT_BURST must be >= 1, got %d", c.Server.RateLimitBurst)
	}

	switch c.OKR.DefaultRole {
	case "admin", "dept-manager", "team-manager", "member":
	default:
		return fmt.Errorf("OKRS_DEFAULT_ROLE must be admin, dept-manager, team-manager or member, got %q", c.OKR.DefaultRole)
	}
	if c.OKR.OrganizationID != "" {
		if _, err := uuid.Parse(c.OKR.OrganizationID); err != nil {
			return fmt.Errorf("OKRS_ORGANIZATION_ID must be a UUID, got %q", c.OKR.OrganizationID)
		}
	}

	switch c.Log.Format {
	case "json", "text":
	default:
		return fmt.Errorf("OKRS_LOG_FORMAT must be json or text, got %q", c.Log.Format)
	}

	if c.OAuth.Google.ClientID != "" && c.OAuth.Google.RedirectURL == "" {
		return errors.New("OKRS_GOOGLE_REDIRECT_URL is required when OKRS_GOOGLE_CLIENT_ID is set")
	}
	if c.OAuth.GitHub.ClientID != "" && c.OAuth.GitHub.RedirectURL == "" {
		return errors.New("OKRS_GITHUB_REDIRECT_URL is required when OKRS_GITHUB_CLIENT_ID is set")
	}

	return nil
}

// DSN returns the PostgreSQL connection string.
func (c *DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.DBName, c.SSLMode,
	)
}
