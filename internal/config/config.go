// Package config loads runtime settings from the environment.
package config

import (
	"time"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"
)

type Config struct {
	// Env is "local", "dev" or "prod". In dev mode external services are
	// replaced with in-memory fakes.
	Env     string `env:"APP_ENV" env-default:"local"`
	DevMode bool   `env:"DEV_MODE" env-default:"false"`

	HTTPAddress string `env:"HTTP_ADDRESS" env-default:":8080"`
	DatabaseDSN string `env:"DATABASE_DSN" env-default:""`

	// Calendar provider.
	CalendarID    string `env:"CALENDAR_ID" env-default:"primary"`
	CalendarOwner string `env:"CALENDAR_OWNER" env-default:""`
	// CredentialsFile overrides the resolved service-account key locally.
	CredentialsFile string `env:"CREDENTIALS_FILE" env-default:""`

	// WebhookURL is the public callback address registered with the
	// provider's watch API.
	WebhookURL string `env:"WEBHOOK_URL" env-default:""`

	// Recording fetch gating, in seconds.
	RecordingsFetchWindow int64 `env:"RECORDINGS_FETCH_WINDOW" env-default:"604800"`
	RecordingsCacheWindow int64 `env:"RECORDINGS_CACHE_WINDOW" env-default:"7200"`

	NATSURL           string `env:"NATS_URL" env-default:""`
	NATSSubjectPrefix string `env:"NATS_SUBJECT_PREFIX" env-default:"meetsync"`

	LockTableName string `env:"LOCK_TABLE_NAME" env-default:"meetsync-locks"`
	KMSKeyID      string `env:"KMS_KEY_ID" env-default:"alias/meetsync-credentials-key"`

	// SecretPrefix is the SSM path the service's secrets live under
	// (calendar-credentials, jwt-signing-key).
	SecretPrefix string `env:"SECRET_PARAM_PREFIX" env-default:"/meetsync"`

	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" env-default:"10s"`
}

// Load reads .env if present, then the process environment.
func Load() (*Config, error) {
	_ = godotenv.Load()

	var cfg Config
	if err := cleanenv.ReadEnv(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// MustLoad is Load that panics, for use in main.
func MustLoad() *Config {
	cfg, err := Load()
	if err != nil {
		panic("cannot read config: " + err.Error())
	}
	return cfg
}
