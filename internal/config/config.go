package config

import (
	"fmt"
	"log"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Provider is the read-only view of the configuration that the rest of the
// application depends on. Tests substitute their own implementation.
type Provider interface {
	GetAppAddr() string
	GetAppBaseURL() string
	GetSessionSecret() string
	GetSessionTTL() time.Duration
	GetSessionStore() string
	GetRedisAddr() string
	GetIdentityProvider() string
	GetLocalDBDSN() string
	GetTokenSecret() string
	GetSurrealURL() string
	GetSurrealNs() string
	GetSurrealDb() string
	GetSurrealUser() string
	GetSurrealPass() string
	GetEmailProvider() string
	GetEmailAPIKey() string
	GetEmailSender() string
	GetUsersFile() string
	GetAuthAwaitTimeout() time.Duration
}

// Config holds all configuration for the application.
type Config struct {
	AppAddr    string `env:"APP_ADDR" envDefault:":8080"`
	AppBaseURL string `env:"APP_BASE_URL" envDefault:"http://localhost:8080"`

	SessionSecret string        `env:"SESSION_SECRET,required,notEmpty"`
	SessionTTL    time.Duration `env:"SESSION_TTL" envDefault:"1h"`
	SessionStore  string        `env:"SESSION_STORE" envDefault:"memory"`
	RedisAddr     string        `env:"REDIS_ADDR" envDefault:"localhost:6379"`

	IdentityProvider string `env:"IDENTITY_PROVIDER" envDefault:"local"`
	LocalDBDSN       string `env:"LOCAL_DB_DSN" envDefault:"file:gatehouse.db?_pragma=busy_timeout(5000)"`
	TokenSecret      string `env:"TOKEN_SECRET"`

	SurrealURL  string `env:"SURREAL_URL"`
	SurrealNs   string `env:"SURREAL_NS"`
	SurrealDb   string `env:"SURREAL_DB"`
	SurrealUser string `env:"SURREAL_USER"`
	SurrealPass string `env:"SURREAL_PASS"`

	EmailProvider string `env:"EMAIL_PROVIDER" envDefault:"log"`
	EmailAPIKey   string `env:"EMAIL_API_KEY"`
	EmailSender   string `env:"EMAIL_SENDER"`

	UsersFile        string        `env:"USERS_FILE"`
	AuthAwaitTimeout time.Duration `env:"AUTH_AWAIT_TIMEOUT" envDefault:"2s"`
}

// New loads configuration from the environment, reading a .env file first
// when one exists. It exits the process when the configuration is invalid.
func New() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, relying on environment variables")
	}

	cfg, err := Load()
	if err != nil {
		log.Fatal(err)
	}
	return cfg
}

// Load parses and validates the current environment without touching .env
// files or exiting.
func Load() (*Config, error) {
	cfg, err := env.ParseAs[Config]()
	if err != nil {
		return nil, fmt.Errorf("failed to parse configuration: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	switch c.SessionStore {
	case "memory", "redis":
	default:
		return fmt.Errorf("unknown SESSION_STORE %q", c.SessionStore)
	}

	switch c.IdentityProvider {
	case "local":
		if c.TokenSecret == "" {
			return fmt.Errorf("IDENTITY_PROVIDER is 'local' but TOKEN_SECRET is not set")
		}
	case "surreal":
		if c.SurrealURL == "" || c.SurrealNs == "" || c.SurrealDb == "" {
			return fmt.Errorf("required environment variables SURREAL_URL, SURREAL_NS, or SURREAL_DB are not set")
		}
	default:
		return fmt.Errorf("unknown IDENTITY_PROVIDER %q", c.IdentityProvider)
	}

	if c.SessionTTL <= 0 {
		return fmt.Errorf("SESSION_TTL must be a positive duration")
	}
	if c.AuthAwaitTimeout <= 0 {
		return fmt.Errorf("AUTH_AWAIT_TIMEOUT must be a positive duration")
	}
	return nil
}

func (c *Config) GetAppAddr() string                 { return c.AppAddr }
func (c *Config) GetAppBaseURL() string              { return c.AppBaseURL }
func (c *Config) GetSessionSecret() string           { return c.SessionSecret }
func (c *Config) GetSessionTTL() time.Duration       { return c.SessionTTL }
func (c *Config) GetSessionStore() string            { return c.SessionStore }
func (c *Config) GetRedisAddr() string               { return c.RedisAddr }
func (c *Config) GetIdentityProvider() string        { return c.IdentityProvider }
func (c *Config) GetLocalDBDSN() string              { return c.LocalDBDSN }
func (c *Config) GetTokenSecret() string             { return c.TokenSecret }
func (c *Config) GetSurrealURL() string              { return c.SurrealURL }
func (c *Config) GetSurrealNs() string               { return c.SurrealNs }
func (c *Config) GetSurrealDb() string               { return c.SurrealDb }
func (c *Config) GetSurrealUser() string             { return c.SurrealUser }
func (c *Config) GetSurrealPass() string             { return c.SurrealPass }
func (c *Config) GetEmailProvider() string           { return c.EmailProvider }
func (c *Config) GetEmailAPIKey() string             { return c.EmailAPIKey }
func (c *Config) GetEmailSender() string             { return c.EmailSender }
func (c *Config) GetUsersFile() string               { return c.UsersFile }
func (c *Config) GetAuthAwaitTimeout() time.Duration { return c.AuthAwaitTimeout }
