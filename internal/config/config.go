package config

import (
	"fmt"
	"os"
	"time"

	"github.com/caarlos0/env/v6"
	"github.com/joho/godotenv"
)

// Драйверы хранилища пользователей
const (
	StoreDriverSQLX   = "sqlx"
	StoreDriverGorm   = "gorm"
	StoreDriverMemory = "memory"
)

// Config хранит все конфигурационные параметры приложения.
type Config struct {
	DatabaseURL    string        `env:"DATABASE_URL"`
	ServerPort     string        `env:"SERVER_PORT"`
	StoreDriver    string        `env:"STORE_DRIVER" envDefault:"sqlx"`
	LogLevel       string        `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat      string        `env:"LOG_FORMAT" envDefault:"json"`
	RequestTimeout time.Duration `env:"REQUEST_TIMEOUT" envDefault:"15s"`

	// Сколько раз генерировать новый токен при коллизии уникального индекса
	TokenMaxAttempts int `env:"TOKEN_MAX_ATTEMPTS" envDefault:"3"`

	// Настройки для MinIO (архив событий пользователей)
	MinioEndpoint        string `env:"MINIO_ENDPOINT"`
	MinioAccessKeyID     string `env:"MINIO_ACCESS_KEY_ID"`
	MinioSecretAccessKey string `env:"MINIO_SECRET_ACCESS_KEY"`
	MinioUseSSL          bool   `env:"MINIO_USE_SSL"`
	MinioBucketName      string `env:"MINIO_BUCKET_NAME" envDefault:"user-events"`
	MinioRegion          string `env:"MINIO_REGION" envDefault:"us-east-1"`

	RabbitMQ struct {
		RabbitMQURL       string `env:"RABBITMQ_URL"`
		RabbitMQQueueName string `env:"RABBITMQ_QUEUE_NAME" envDefault:"user_events_queue"`
	}
}

// LoadConfig загружает конфигурацию из переменных окружения.
// В режиме разработки пытается загрузить .env файл.
func LoadConfig() (*Config, error) {
	if _, err := os.Stat(".env"); !os.IsNotExist(err) {
		if err := godotenv.Load(); err != nil {
			return nil, fmt.Errorf("ошибка загрузки .env файла: %w", err)
		}
	}

	cfg := Config{}
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("ошибка парсинга конфигурации из окружения: %w", err)
	}

	if cfg.ServerPort == "" {
		cfg.ServerPort = "8080"
	}
	if cfg.TokenMaxAttempts <= 0 {
		cfg.TokenMaxAttempts = 1
	}

	return &cfg, nil
}

// EventsEnabled сообщает, настроена ли публикация событий в RabbitMQ
func (c *Config) EventsEnabled() bool {
	return c.RabbitMQ.RabbitMQURL != ""
}

// Validate проверяет, что для выбранного режима заданы обязательные параметры
func (c *Config) Validate(mode string) error {
	switch c.StoreDriver {
	case StoreDriverSQLX, StoreDriverGorm:
		if c.DatabaseURL == "" {
			return fmt.Errorf("DATABASE_URL must be set for store driver %q", c.StoreDriver)
		}
	case StoreDriverMemory:
	default:
		return fmt.Errorf("unknown STORE_DRIVER %q (use sqlx, gorm or memory)", c.StoreDriver)
	}

	if mode == "worker" {
		if !c.EventsEnabled() {
			return fmt.Errorf("RABBITMQ_URL must be set in worker mode")
		}
		if c.MinioEndpoint == "" || c.MinioAccessKeyID == "" || c.MinioSecretAccessKey == "" {
			return fmt.Errorf("MINIO_ENDPOINT, MINIO_ACCESS_KEY_ID and MINIO_SECRET_ACCESS_KEY must be set in worker mode")
		}
	}
	return nil
}
