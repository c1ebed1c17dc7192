package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v10"
)

// Config holds the environment driven configuration for the video service.
type Config struct {
	// Service Configuration
	ServiceName     string        `env:"SERVICE_NAME" envDefault:"clipvault"`
	Environment     string        `env:"ENVIRONMENT" envDefault:"development"`
	HTTPPort        int           `env:"CLIPVAULT_PORT" envDefault:"8290"`
	LogLevel        string        `env:"CLIPVAULT_LOG_LEVEL" envDefault:"info"`
	EnableTracing   bool          `env:"ENABLE_TRACING" envDefault:"false"`
	OTLPEndpoint    string        `env:"OTEL_EXPORTER_OTLP_ENDPOINT" envDefault:""`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"10s"`

	// Database (required, no default)
	DatabaseDSN string `env:"DB_POSTGRESQL_DSN,notEmpty"`

	// Database Connection Pool
	DBMaxIdleConns int           `env:"DB_MAX_IDLE_CONNS" envDefault:"5"`
	DBMaxOpenConns int           `env:"DB_MAX_OPEN_CONNS" envDefault:"15"`
	DBConnLifetime time.Duration `env:"DB_CONN_MAX_LIFETIME" envDefault:"30m"`

	// Storage Backend Selection
	StorageBackend string `env:"VIDEO_STORAGE_BACKEND" envDefault:"s3"` // Options: "s3" or "local"

	// Local Storage Configuration
	LocalStoragePath    string `env:"VIDEO_LOCAL_STORAGE_PATH"`
	LocalStorageBaseURL string `env:"VIDEO_LOCAL_STORAGE_BASE_URL"`
	LocalSigningSecret  string `env:"VIDEO_LOCAL_SIGNING_SECRET"`

	// S3 Storage Configuration
	S3Endpoint     string `env:"VIDEO_S3_ENDPOINT"`
	S3Region       string `env:"VIDEO_S3_REGION" envDefault:"us-west-2"`
	S3Bucket       string `env:"VIDEO_S3_BUCKET"`
	S3AccessKeyID  string `env:"VIDEO_S3_ACCESS_KEY_ID"`
	S3SecretKey    string `env:"VIDEO_S3_SECRET_ACCESS_KEY"`
	S3UsePathStyle bool   `env:"VIDEO_S3_USE_PATH_STYLE" envDefault:"true"`

	// Access URLs are valid for this long from issuance.
	SignedURLTTL time.Duration `env:"VIDEO_SIGNED_URL_TTL" envDefault:"1h"`

	// Upload Configuration
	MaxVideoBytes int64  `env:"VIDEO_MAX_BYTES" envDefault:"524288000"`
	StageDir      string `env:"VIDEO_STAGE_DIR" envDefault:""` // empty means os.TempDir()

	// Transcoding Configuration
	FFmpegPath       string        `env:"VIDEO_FFMPEG_PATH" envDefault:"ffmpeg"`
	TranscodeTimeout time.Duration `env:"VIDEO_TRANSCODE_TIMEOUT" envDefault:"10m"`

	// Authentication
	AuthEnabled bool   `env:"AUTH_ENABLED" envDefault:"false"`
	AuthIssuer  string `env:"AUTH_ISSUER"`
	AuthJWKSURL string `env:"AUTH_JWKS_URL"`
}

// Load parses environment variables into Config.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env config: %w", err)
	}

	cfg.S3Bucket = strings.TrimSpace(cfg.S3Bucket)
	cfg.S3AccessKeyID = strings.TrimSpace(cfg.S3AccessKeyID)
	cfg.S3SecretKey = strings.TrimSpace(cfg.S3SecretKey)
	cfg.S3Endpoint = strings.TrimSpace(cfg.S3Endpoint)
	if cfg.MaxVideoBytes <= 0 {
		cfg.MaxVideoBytes = 500 * 1024 * 1024
	}
	if cfg.SignedURLTTL <= 0 {
		cfg.SignedURLTTL = time.Hour
	}
	if cfg.AuthEnabled {
		if strings.TrimSpace(cfg.AuthIssuer) == "" {
			return nil, fmt.Errorf("AUTH_ISSUER is required when AUTH_ENABLED is true")
		}
		if strings.TrimSpace(cfg.AuthJWKSURL) == "" {
			return nil, fmt.Errorf("AUTH_JWKS_URL is required when AUTH_ENABLED is true")
		}
	}
	return cfg, nil
}

// Addr returns the HTTP listen address.
func (c *Config) Addr() string {
	return fmt.Sprintf(":%d", c.HTTPPort)
}

// IsLocalStorage returns true if local storage backend is configured.
func (c *Config) IsLocalStorage() bool {
	return strings.ToLower(strings.TrimSpace(c.StorageBackend)) == "local"
}

// IsS3Storage returns true if S3 storage backend is configured.
func (c *Config) IsS3Storage() bool {
	backend := strings.ToLower(strings.TrimSpace(c.StorageBackend))
	return backend == "" || backend == "s3"
}
