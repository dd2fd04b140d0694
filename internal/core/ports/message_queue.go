package ports

import (
	"context"

	"github.com/GoArmGo/IdentityApp/internal/messaging/payloads"
)

// UserEventPublisher публикует события жизненного цикла пользователя.
// Используется декоратором usecase после успешной операции.
type UserEventPublisher interface {
	PublishUserEvent(ctx context.Context, event payloads.UserEventPayload) error
}

// UserEventConsumer определяет методы для потребления событий пользователя.
// Используется воркером для архивации событий.
type UserEventConsumer interface {
	// StartConsumingUserEvents начинает прослушивание очереди,
	// handler вызывается для каждого полученного сообщения
	StartConsumingUserEvents(ctx context.Context, handler func(context.Context, payloads.UserEventPayload) error) error
}

// FileStorage порт для хранения бинарных данных (AWS S3, MinIO)
type FileStorage interface {
	// UploadFile загружает объект и возвращает его URL
	UploadFile(ctx context.Context, key string, body []byte, contentType string) (string, error)
}
