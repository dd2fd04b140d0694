package usecase

import (
	"context"
	"log/slog"
	"time"

	"github.com/GoArmGo/IdentityApp/internal/core/ports"
	"github.com/GoArmGo/IdentityApp/internal/domain"
	"github.com/GoArmGo/IdentityApp/internal/messaging/payloads"
)

// eventingUserUseCase публикует событие после каждой успешной операции, меняющей пользователя.
// Ошибка публикации не отменяет уже сохраненное изменение и только логируется.
type eventingUserUseCase struct {
	UserUseCase
	publisher ports.UserEventPublisher
	logger    *slog.Logger
	now       func() time.Time
}

// WithEvents оборачивает UserUseCase публикацией событий в publisher
func WithEvents(next UserUseCase, publisher ports.UserEventPublisher, logger *slog.Logger) UserUseCase {
	if publisher == nil {
		return next
	}
	return &eventingUserUseCase{
		UserUseCase: next,
		publisher:   publisher,
		logger:      logger,
		now:         func() time.Time { return time.Now().UTC() },
	}
}

func (uc *eventingUserUseCase) CreateUser(ctx context.Context, candidate Candidate) (*domain.User, error) {
	user, err := uc.UserUseCase.CreateUser(ctx, candidate)
	if err == nil {
		uc.publish(ctx, payloads.UserCreated, user)
	}
	return user, err
}

func (uc *eventingUserUseCase) LoginUser(ctx context.Context, credentials Credentials) (*domain.User, error) {
	user, err := uc.UserUseCase.LoginUser(ctx, credentials)
	if err == nil {
		uc.publish(ctx, payloads.UserLoggedIn, user)
	}
	return user, err
}

func (uc *eventingUserUseCase) LogOutUser(ctx context.Context, session Session) (*domain.User, error) {
	user, err := uc.UserUseCase.LogOutUser(ctx, session)
	if err == nil {
		uc.publish(ctx, payloads.UserLoggedOut, user)
	}
	return user, err
}

func (uc *eventingUserUseCase) UpdateUser(ctx context.Context, patch UserPatch, targetID string) (*domain.User, error) {
	user, err := uc.UserUseCase.UpdateUser(ctx, patch, targetID)
	if err == nil {
		uc.publish(ctx, payloads.UserUpdated, user)
	}
	return user, err
}

func (uc *eventingUserUseCase) publish(ctx context.Context, eventType string, user *domain.User) {
	if user == nil {
		return
	}
	event := payloads.UserEventPayload{
		Type:       eventType,
		UserID:     user.ID,
		Username:   user.Username,
		Status:     string(user.Status),
		OccurredAt: uc.now(),
	}
	if err := uc.publisher.PublishUserEvent(ctx, event); err != nil {
		uc.logger.Error("failed to publish user event", "type", eventType, "user_id", user.ID, "error", err)
	}
}
