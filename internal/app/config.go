package app

import (
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/kelseyhightower/envconfig"
)

// Storage drivers accepted by STORAGE_DRIVER.
const (
	StorageRedis  = "redis"
	StorageMemory = "memory"
)

// Config holds runtime configuration for the application.
type Config struct {
	AppEnv            string        `envconfig:"APP_ENV" default:"development"`
	AppAddr           string        `envconfig:"APP_ADDR" default:":8080"`
	AppReadTimeout    time.Duration `envconfig:"APP_READ_TIMEOUT" default:"15s"`
	AppWriteTimeout   time.Duration `envconfig:"APP_WRITE_TIMEOUT" default:"15s"`
	AppRequestTimeout time.Duration `envconfig:"APP_REQUEST_TIMEOUT" default:"30s"`
	ShutdownTimeout   time.Duration `envconfig:"APP_SHUTDOWN_TIMEOUT" default:"10s"`

	LogFormat string `envconfig:"LOG_FORMAT" default:"pretty" validate:"oneof=pretty json"`
	LogLevel  string `envconfig:"LOG_LEVEL" default:"info"`

	StorageDriver string `envconfig:"STORAGE_DRIVER" default:"redis" validate:"oneof=redis memory"`
	RedisAddr     string `envconfig:"REDIS_ADDR" default:"127.0.0.1:6379"`
	RedisPassword string `envconfig:"REDIS_PASSWORD"`
	RedisDB       int    `envconfig:"REDIS_DB" default:"0" validate:"gte=0"`

	SessionSecret        string        `envconfig:"SESSION_SECRET" required:"true"`
	SessionCookie        string        `envconfig:"SESSION_COOKIE" default:"hostelhub_session"`
	SessionTTL           time.Duration `envconfig:"SESSION_TTL" default:"720h" validate:"gt=0"`
	SessionIdleTimeout   time.Duration `envconfig:"SESSION_IDLE_TIMEOUT" default:"30m" validate:"gt=0"`
	SessionSweepInterval time.Duration `envconfig:"SESSION_SWEEP_INTERVAL" default:"1m" validate:"gt=0"`
	SessionEnforceExpiry bool          `envconfig:"SESSION_ENFORCE_EXPIRY" default:"false"`

	CSRFSecret string `envconfig:"CSRF_SECRET" required:"true"`

	AuthLatency    time.Duration `envconfig:"AUTH_LATENCY" default:"1s" validate:"gte=0"`
	LoginRateLimit int           `envconfig:"LOGIN_RATE_LIMIT" default:"10" validate:"gte=0"`
	RateLimit      int           `envconfig:"RATE_LIMIT" default:"120" validate:"gte=0"`
}

// LoadConfig reads configuration from environment variables.
func LoadConfig() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks value ranges that envconfig cannot express.
func (c *Config) Validate() error {
	if c.SessionSecret == "" {
		return errors.New("session secret must be provided")
	}
	if c.CSRFSecret == "" {
		return errors.New("csrf secret must be provided")
	}
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("app: invalid config: %w", err)
	}
	return nil
}

// IsProduction returns true when the application runs in production.
func (c *Config) IsProduction() bool {
	return c != nil && c.AppEnv == "production"
}
