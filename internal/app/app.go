package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os/signal"
	"syscall"

	"github.com/GoArmGo/IdentityApp/internal/config"
	"github.com/GoArmGo/IdentityApp/internal/core/ports"
	"github.com/GoArmGo/IdentityApp/internal/usecase"
	"github.com/prometheus/client_golang/prometheus"
)

// Режимы запуска
const (
	ModeServer = "server"
	ModeWorker = "worker"
)

type App struct {
	Config        *config.Config
	logger        *slog.Logger
	userUseCase   usecase.UserUseCase
	eventConsumer ports.UserEventConsumer
	fileStorage   ports.FileStorage
	registry      *prometheus.Registry
	closers       []func() error
}

// Deps зависимости приложения, собранные в di.BuildApp
type Deps struct {
	UserUseCase   usecase.UserUseCase
	EventConsumer ports.UserEventConsumer
	FileStorage   ports.FileStorage
	Registry      *prometheus.Registry
	// Closers вызываются при завершении в обратном порядке
	Closers []func() error
}

func NewApp(cfg *config.Config, logger *slog.Logger, deps Deps) *App {
	return &App{
		Config:        cfg,
		logger:        logger,
		userUseCase:   deps.UserUseCase,
		eventConsumer: deps.EventConsumer,
		fileStorage:   deps.FileStorage,
		registry:      deps.Registry,
		closers:       deps.Closers,
	}
}

// LoggerIns возвращает основной логгер приложения
func (a *App) LoggerIns() *slog.Logger {
	return a.logger
}

func (a *App) Run(ctx context.Context, mode string) error {
	// канал для graceful shutdown
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a.logger.Info("starting", "mode", mode)

	var err error
	switch mode {
	case ModeServer:
		err = runServer(ctx, a.Config, a.logger, a.userUseCase, a.registry)
	case ModeWorker:
		err = runWorker(ctx, a.logger, a.eventConsumer, a.fileStorage)
	default:
		err = fmt.Errorf("неизвестный режим: %s (используйте 'server' или 'worker')", mode)
	}

	// аккуратно закрываем ресурсы
	if closeErr := a.Shutdown(); closeErr != nil {
		a.logger.Error("shutdown failed", "error", closeErr)
	}
	return err
}

// Shutdown закрывает все ресурсы приложения
func (a *App) Shutdown() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}
