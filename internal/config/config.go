// Package config provides configuration management for the application
package config

import (
	"time"

	"github.com/kelseyhightower/envconfig"
	"github.com/pkg/errors"
)

// ServerConfig holds HTTP server settings
type ServerConfig struct {
	Port            string        `envconfig:"PORT" default:"8080"`
	ReadTimeout     time.Duration `envconfig:"SERVER_READ_TIMEOUT" default:"15s"`
	IdleTimeout     time.Duration `envconfig:"SERVER_IDLE_TIMEOUT" default:"60s"`
	ShutdownTimeout time.Duration `envconfig:"SERVER_SHUTDOWN_TIMEOUT" default:"10s"`
	// EvictionInterval controls how often idle meetings (no attendees,
	// no active recording) are swept from the store; 0 disables sweeping
	EvictionInterval time.Duration `envconfig:"MEETING_EVICTION_INTERVAL" default:"0"`
}

// ProviderConfig holds settings for the external media/signaling provider
type ProviderConfig struct {
	BaseURL            string        `envconfig:"PROVIDER_BASE_URL" default:"https://media.provider.local/v1"`
	APIKey             string        `envconfig:"PROVIDER_API_KEY"`
	MediaRegion        string        `envconfig:"PROVIDER_MEDIA_REGION" default:"eu-central-1"`
	RequestTimeout     time.Duration `envconfig:"PROVIDER_REQUEST_TIMEOUT" default:"15s"`
	WebhookSecretToken string        `envconfig:"PROVIDER_WEBHOOK_SECRET_TOKEN"`
}

// RecordingConfig holds the static external-sink binding for recordings.
// The sink is one fixed object-storage bucket, not per-meeting configurable.
type RecordingConfig struct {
	SinkBucket string `envconfig:"RECORDING_SINK_BUCKET" default:"consultrooms-recordings"`
}

// RedisConfig holds Redis/Valkey configuration for the optional
// redis-backed session store
type RedisConfig struct {
	Enabled bool `envconfig:"REDIS_ENABLED" default:"false"`
	// URI is prioritized if provided, otherwise individual connection
	// parameters are used
	URI       string `envconfig:"REDIS_URI"`
	Host      string `envconfig:"REDIS_HOST" default:"localhost"`
	Port      string `envconfig:"REDIS_PORT" default:"6379"`
	Username  string `envconfig:"REDIS_USERNAME"`
	Password  string `envconfig:"REDIS_PASSWORD"`
	DB        int    `envconfig:"REDIS_DB" default:"0"`
	KeyPrefix string `envconfig:"REDIS_KEY_PREFIX" default:"consultrooms:"`
	// MeetingTTL of 0 means no expiration
	MeetingTTL time.Duration `envconfig:"REDIS_MEETING_TTL" default:"168h"`
}

// NotifyConfig holds notification fan-out settings
type NotifyConfig struct {
	// ToastTTL is how long a join/leave notification stays active
	// before it self-expires
	ToastTTL time.Duration `envconfig:"NOTIFY_TOAST_TTL" default:"3s"`
	// QueueSize bounds the per-subscription presence event channel
	QueueSize int `envconfig:"NOTIFY_QUEUE_SIZE" default:"64"`
}

// Config is the top-level application configuration
type Config struct {
	Server    ServerConfig
	Provider  ProviderConfig
	Recording RecordingConfig
	Redis     RedisConfig
	Notify    NotifyConfig
}

// Load populates the configuration from environment variables
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, errors.Wrap(err, "processing environment config")
	}
	return &cfg, nil
}
