package di

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/GoArmGo/IdentityApp/internal/adapter/storage/minio"
	"github.com/GoArmGo/IdentityApp/internal/app"
	"github.com/GoArmGo/IdentityApp/internal/config"
	"github.com/GoArmGo/IdentityApp/internal/core/ports"
	"github.com/GoArmGo/IdentityApp/internal/database/client"
	"github.com/GoArmGo/IdentityApp/internal/database/memory"
	"github.com/GoArmGo/IdentityApp/internal/database/postgres"
	"github.com/GoArmGo/IdentityApp/internal/database/storage"
	"github.com/GoArmGo/IdentityApp/internal/logger"
	"github.com/GoArmGo/IdentityApp/internal/rabbitmq"
	"github.com/GoArmGo/IdentityApp/internal/usecase"
	"github.com/jmoiron/sqlx"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// BuildApp инициализирует все зависимости и возвращает готовый объект App.
func BuildApp(ctx context.Context, mode string) (*app.App, error) {
	// 1. Загрузка конфигурации
	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(mode); err != nil {
		return nil, err
	}

	slogger := logger.NewSlog(logger.SlogConfig{
		Level:  cfg.LogLevel,
		Format: cfg.LogFormat,
	})
	slogger.Info("logger initialized", "level", cfg.LogLevel, "format", cfg.LogFormat)

	var closers []func() error
	fail := func(err error) (*app.App, error) {
		for i := len(closers) - 1; i >= 0; i-- {
			_ = closers[i]()
		}
		return nil, err
	}

	// 2. Хранилище пользователей
	userStorage, closeStore, err := buildUserStorage(cfg, slogger)
	if err != nil {
		return fail(err)
	}
	if closeStore != nil {
		closers = append(closers, closeStore)
	}

	// 3. RabbitMQ (необязателен в режиме server)
	var rabbitMQClient *rabbitmq.Client
	if cfg.EventsEnabled() {
		rabbitMQClient, err = rabbitmq.NewClient(cfg, slogger)
		if err != nil {
			return fail(err)
		}
		closers = append(closers, func() error { rabbitMQClient.Close(); return nil })
	} else {
		slogger.Warn("RABBITMQ_URL is not set, user events are disabled")
	}

	// 4. Бизнес-логика
	var userUseCase usecase.UserUseCase = usecase.NewUserUseCase(userStorage, usecase.NewUUIDToken, cfg.TokenMaxAttempts, slogger)
	if rabbitMQClient != nil {
		userUseCase = usecase.WithEvents(userUseCase, rabbitMQClient, slogger)
	}

	deps := app.Deps{
		UserUseCase: userUseCase,
		Registry:    newRegistry(),
	}

	// 5. Воркер: потребитель событий и MinIO
	if mode == app.ModeWorker {
		fileStorage, err := minio.NewMinioClient(ctx, cfg, slogger)
		if err != nil {
			return fail(err)
		}
		deps.FileStorage = fileStorage
		deps.EventConsumer = rabbitMQClient
	}

	deps.Closers = closers
	slogger.Info("all dependencies initialized", "store_driver", cfg.StoreDriver, "events", cfg.EventsEnabled())
	return app.NewApp(cfg, slogger, deps), nil
}

// buildUserStorage выбирает реализацию ports.UserStorage по STORE_DRIVER
func buildUserStorage(cfg *config.Config, logger *slog.Logger) (ports.UserStorage, func() error, error) {
	switch cfg.StoreDriver {
	case config.StoreDriverSQLX:
		dbClient, err := client.NewClient(cfg, logger)
		if err != nil {
			return nil, nil, err
		}
		return storage.NewUserStorage(dbClient.DB, logger), dbClient.Close, nil

	case config.StoreDriverGorm:
		gormDB, err := postgres.NewGormDB(cfg, logger)
		if err != nil {
			return nil, nil, err
		}
		sqlDB, err := gormDB.DB()
		if err != nil {
			return nil, nil, fmt.Errorf("ошибка получения *sql.DB из GORM: %w", err)
		}
		if err := client.ApplyMigrations(sqlx.NewDb(sqlDB, "pgx"), logger); err != nil {
			_ = sqlDB.Close()
			return nil, nil, err
		}
		return postgres.NewGormUserStorage(gormDB, logger), sqlDB.Close, nil

	case config.StoreDriverMemory:
		logger.Warn("using in-memory user storage, data is lost on restart")
		return memory.NewUserStorage(), nil, nil

	default:
		return nil, nil, fmt.Errorf("unknown store driver %q", cfg.StoreDriver)
	}
}

func newRegistry() *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return reg
}
