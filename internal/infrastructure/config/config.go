package config

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Config is the process-wide configuration, read from the environment.
// A .env file loaded at startup can provide the values in development.
type Config struct {
	HTTPAddr    string `envconfig:"HTTP_ADDR" default:":5000"`
	DatabaseURL string `envconfig:"DB_URL" required:"true"`
	RedisURL    string `envconfig:"REDIS_URL" required:"true"`
	JWTSecret   string `envconfig:"JWT_SECRET" required:"true"`
	LogLevel    string `envconfig:"LOG_LEVEL" default:"info"`

	// AttachmentLimitBytes bounds uploaded attachment size; oversized uploads
	// are rejected before any asset or message write.
	AttachmentLimitBytes int64 `envconfig:"ATTACHMENT_LIMIT_BYTES" default:"5242880"`

	// TypingDebounce is how long a typing indicator stays lit without a
	// refreshing signal before the gateway auto-resolves it to stopped.
	TypingDebounce time.Duration `envconfig:"TYPING_DEBOUNCE" default:"3s"`

	// ChatListTTL bounds staleness of the cached per-user chat list preview.
	ChatListTTL time.Duration `envconfig:"CHAT_LIST_TTL" default:"30s"`

	WorkerConcurrency int `envconfig:"WORKER_CONCURRENCY" default:"10"`

	AssetsEndpoint  string `envconfig:"ASSETS_ENDPOINT" default:"localhost:9000"`
	AssetsAccessKey string `envconfig:"ASSETS_ACCESS_KEY" required:"true"`
	AssetsSecretKey string `envconfig:"ASSETS_SECRET_KEY" required:"true"`
	AssetsBucket    string `envconfig:"ASSETS_BUCKET" default:"ichat-uploads"`
	AssetsUseSSL    bool   `envconfig:"ASSETS_USE_SSL" default:"false"`
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	return &cfg, nil
}
