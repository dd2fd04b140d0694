package app

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/GoArmGo/IdentityApp/internal/core/ports"
	"github.com/GoArmGo/IdentityApp/internal/messaging/payloads"
)

// archiveKey ключ объекта для события: user-events/{user_id}/{время}-{тип}.json
func archiveKey(event payloads.UserEventPayload) string {
	return fmt.Sprintf("user-events/%d/%s-%s.json",
		event.UserID,
		event.OccurredAt.UTC().Format("20060102T150405.000000000Z"),
		event.Type,
	)
}

// archiveEvents возвращает обработчик, сохраняющий каждое событие в файловое хранилище
func archiveEvents(fileStorage ports.FileStorage, logger *slog.Logger) func(context.Context, payloads.UserEventPayload) error {
	return func(ctx context.Context, event payloads.UserEventPayload) error {
		body, err := json.Marshal(event)
		if err != nil {
			return fmt.Errorf("failed to marshal event: %w", err)
		}

		key := archiveKey(event)
		url, err := fileStorage.UploadFile(ctx, key, body, "application/json")
		if err != nil {
			return fmt.Errorf("ошибка архивации события %s пользователя %d: %w", event.Type, event.UserID, err)
		}

		logger.Info("user event archived", "type", event.Type, "user_id", event.UserID, "url", url)
		return nil
	}
}

// runWorker запускает потребителя RabbitMQ и блокируется до отмены ctx
func runWorker(
	ctx context.Context,
	logger *slog.Logger,
	consumer ports.UserEventConsumer,
	fileStorage ports.FileStorage,
) error {
	if consumer == nil || fileStorage == nil {
		return fmt.Errorf("worker mode requires RabbitMQ consumer and file storage")
	}

	if err := consumer.StartConsumingUserEvents(ctx, archiveEvents(fileStorage, logger)); err != nil {
		return fmt.Errorf("ошибка при запуске потребителя RabbitMQ: %w", err)
	}

	logger.Info("worker started, waiting for user events")
	<-ctx.Done()
	logger.Info("worker stopped")
	return nil
}
