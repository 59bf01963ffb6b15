package config

import (
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator"
	_ "github.com/joho/godotenv/autoload"
	"github.com/knadh/koanf"
	"github.com/knadh/koanf/providers/env"
)

type Config struct {
	Primary   Primary         `koanf:"primary"`
	Server    ServerConfig    `koanf:"server"`
	Database  DatabaseConfig  `koanf:"database"`
	Provider  ProviderConfig  `koanf:"provider"`
	Retry     RetryConfig     `koanf:"retry"`
	RateLimit RateLimitConfig `koanf:"rate_limit"`
	Kafka     KafkaConfig     `koanf:"kafka"`
	Blob      BlobConfig      `koanf:"blob"`
	Worker    WorkerConfig    `koanf:"worker"`
	Logger    LoggerConfig    `koanf:"logger"`
}

type Primary struct {
	Env string `koanf:"env" validate:"required"`
}

type ServerConfig struct {
	Port         string        `koanf:"port" validate:"required"`
	ReadTimeout  time.Duration `koanf:"read_timeout" validate:"required"`
	WriteTimeout time.Duration `koanf:"write_timeout" validate:"required"`
	IdleTimeout  time.Duration `koanf:"idle_timeout" validate:"required"`
}

type DatabaseConfig struct {
	Host            string        `koanf:"host" validate:"required"`
	Port            int           `koanf:"port" validate:"required"`
	User            string        `koanf:"user" validate:"required"`
	Password        string        `koanf:"password" validate:"required"`
	Name            string        `koanf:"name" validate:"required"`
	SSLMode         string        `koanf:"ssl_mode" validate:"required"`
	MaxOpenConns    int           `koanf:"max_open_conns" validate:"required"`
	MaxIdleConns    int           `koanf:"max_idle_conns" validate:"required"`
	ConnMaxLifetime time.Duration `koanf:"conn_max_lifetime" validate:"required"`
	ConnMaxIdleTime time.Duration `koanf:"conn_max_idle_time" validate:"required"`
}

// ProviderConfig holds the payment processor credentials and endpoints.
// Every field is required at startup: a missing value is a fatal error,
// never a silent fallback to another environment's endpoint.
type ProviderConfig struct {
	APIBaseURL     string        `koanf:"api_base_url" validate:"required"`
	QueryBaseURL   string        `koanf:"query_base_url" validate:"required"`
	MerchantID     string        `koanf:"merchant_id" validate:"required"`
	MerchantKey    string        `koanf:"merchant_key" validate:"required"`
	RequestTimeout time.Duration `koanf:"request_timeout" validate:"required"`
}

type RetryConfig struct {
	MaxAttempts int           `koanf:"max_attempts" validate:"required"`
	BaseDelay   time.Duration `koanf:"base_delay" validate:"required"`
	MaxDelay    time.Duration `koanf:"max_delay" validate:"required"`
}

type RateLimitConfig struct {
	Ceiling int           `koanf:"ceiling" validate:"required"`
	Window  time.Duration `koanf:"window" validate:"required"`
}

type KafkaConfig struct {
	Brokers []string `koanf:"brokers" validate:"required"`
	Topic   string   `koanf:"topic" validate:"required"`
}

type BlobConfig struct {
	Bucket    string `koanf:"bucket" validate:"required"`
	Region    string `koanf:"region" validate:"required"`
	Endpoint  string `koanf:"endpoint"`
	PublicURL string `koanf:"public_url"`
	AccessKey string `koanf:"access_key"`
	SecretKey string `koanf:"secret_key"`
}

type WorkerConfig struct {
	Interval  time.Duration `koanf:"interval" validate:"required"`
	BatchSize int           `koanf:"batch_size" validate:"required"`
}

type LoggerConfig struct {
	Level string `koanf:"level"`
}

// NewLogger builds the process logger at the configured level.
func (c LoggerConfig) NewLogger() *slog.Logger {
	var level slog.Level
	switch strings.ToLower(c.Level) {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: level,
	}))
}

func LoadConfig() (*Config, error) {
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelError,
	}))
	k := koanf.New(".")

	err := k.Load(env.Provider("VETPAY_", ".", func(s string) string {
		return strings.ReplaceAll(
			strings.ToLower(strings.TrimPrefix(s, "VETPAY_")),
			"__",
			".",
		)
	}), nil)
	if err != nil {
		logger.Error("failed to load environment variables", "error", err)
		return nil, err
	}

	mainConfig := &Config{}

	err = k.Unmarshal("", mainConfig)
	if err != nil {
		logger.Error("could not unmarshal main config", "error", err)
		return nil, err
	}

	validate := validator.New()

	err = validate.Struct(mainConfig)
	if err != nil {
		logger.Error("config validation failed", "error", err)
		return nil, err
	}

	return mainConfig, nil
}
