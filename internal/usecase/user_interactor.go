package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/GoArmGo/IdentityApp/internal/core/ports"
	"github.com/GoArmGo/IdentityApp/internal/domain"
)

// Сообщения об ошибках, которые получает клиент
const (
	msgEmptyCredentials      = "Username and/or password can't consist of an empty string!"
	msgUsernameNotUnique     = "The username provided is not unique. Therefore, the user could not be created!"
	msgNoSuchUsername        = "No user with this username exists."
	msgIncorrectPassword     = "Incorrect password."
	msgNoUserWithToken       = "No user with same token as your session exists."
	msgNoUserWithID          = "No user with this id exists, that can be fetched."
	msgNoUserWithSpecifiedID = "No user with specified ID exists."
	msgTokensDoNotMatch      = "You are not authorized to change this user, since tokens do not match."
	msgUsernameAlreadyInUse  = "Username is already in use!"
)

// userUseCase implements UserUseCase
type userUseCase struct {
	userStorage ports.UserStorage
	newToken    TokenGenerator
	maxAttempts int
	logger      *slog.Logger
}

// NewUserUseCase создает новый экземпляр UserUseCase.
// maxAttempts ограничивает число попыток сгенерировать уникальный токен.
func NewUserUseCase(
	userStorage ports.UserStorage,
	newToken TokenGenerator,
	maxAttempts int,
	logger *slog.Logger,
) UserUseCase {
	if newToken == nil {
		newToken = NewUUIDToken
	}
	if maxAttempts <= 0 {
		maxAttempts = 1
	}
	return &userUseCase{
		userStorage: userStorage,
		newToken:    newToken,
		maxAttempts: maxAttempts,
		logger:      logger,
	}
}

func (uc *userUseCase) CreateUser(ctx context.Context, candidate Candidate) (*domain.User, error) {
	if err := candidate.Validate(); err != nil {
		return nil, domain.NewUserError(domain.ErrKindIllegalRegistrationInput, msgEmptyCredentials)
	}

	existing, err := uc.userStorage.FindByUsername(ctx, candidate.Username)
	if err != nil {
		return nil, fmt.Errorf("usecase: ошибка при проверке имени пользователя: %w", err)
	}
	if existing != nil {
		return nil, domain.NewUserError(domain.ErrKindUsernameAlreadyExists, msgUsernameNotUnique)
	}

	for attempt := 1; attempt <= uc.maxAttempts; attempt++ {
		user := &domain.User{
			Username: candidate.Username,
			Password: candidate.Password,
			Token:    uc.newToken(),
			Status:   domain.StatusOffline,
		}

		saved, err := uc.userStorage.Save(ctx, user)
		if err == nil {
			uc.logger.Info("user created", "user_id", saved.ID, "username", saved.Username)
			return saved, nil
		}

		field, isConflict := ports.ConflictField(err)
		switch {
		case !isConflict:
			return nil, fmt.Errorf("usecase: ошибка при сохранении пользователя: %w", err)
		case field == ports.FieldUsername:
			return nil, domain.NewUserError(domain.ErrKindUsernameAlreadyExists, msgUsernameNotUnique)
		default:
			uc.logger.Warn("token collision, regenerating", "attempt", attempt)
		}
	}

	return nil, fmt.Errorf("usecase: не удалось выдать уникальный токен за %d попыток", uc.maxAttempts)
}

func (uc *userUseCase) LoginUser(ctx context.Context, credentials Credentials) (*domain.User, error) {
	user, err := uc.userStorage.FindByUsername(ctx, credentials.Username)
	if err != nil {
		return nil, fmt.Errorf("usecase: ошибка при поиске пользователя по имени: %w", err)
	}
	if user == nil {
		return nil, domain.NewUserError(domain.ErrKindUserCredentialsWrong, msgNoSuchUsername)
	}
	if user.Password != credentials.Password {
		return nil, domain.NewUserError(domain.ErrKindUserCredentialsWrong, msgIncorrectPassword)
	}

	next, err := user.Status.Login()
	if err != nil {
		return nil, err
	}

	changed, err := uc.userStorage.TransitionStatus(ctx, user.ID, user.Status, next)
	if err != nil {
		return nil, fmt.Errorf("usecase: ошибка при входе пользователя %d: %w", user.ID, err)
	}
	if !changed {
		// другой запрос успел выполнить вход раньше
		return nil, domain.NewUserError(domain.ErrKindUserAlreadyLoggedIn, "")
	}

	user.Status = next
	uc.logger.Info("user logged in", "user_id", user.ID)
	return user, nil
}

func (uc *userUseCase) LogOutUser(ctx context.Context, session Session) (*domain.User, error) {
	user, err := uc.userStorage.FindByToken(ctx, session.Token)
	if err != nil {
		return nil, fmt.Errorf("usecase: ошибка при поиске пользователя по токену: %w", err)
	}
	if user == nil {
		return nil, domain.NewUserError(domain.ErrKindUserNotAvailable, msgNoUserWithToken)
	}

	next, err := user.Status.Logout()
	if err != nil {
		return nil, err
	}

	changed, err := uc.userStorage.TransitionStatus(ctx, user.ID, user.Status, next)
	if err != nil {
		return nil, fmt.Errorf("usecase: ошибка при выходе пользователя %d: %w", user.ID, err)
	}
	if !changed {
		return nil, domain.NewUserError(domain.ErrKindUserAlreadyLoggedOut, "")
	}

	user.Status = next
	uc.logger.Info("user logged out", "user_id", user.ID)
	return user, nil
}

func (uc *userUseCase) GetUser(ctx context.Context, ref UserRef) (*domain.User, error) {
	user, err := uc.userStorage.FindByID(ctx, ref.ID)
	if err != nil {
		return nil, fmt.Errorf("usecase: ошибка при получении пользователя %d: %w", ref.ID, err)
	}
	if user == nil {
		return nil, domain.NewUserError(domain.ErrKindUserNotAvailable, msgNoUserWithID)
	}
	return user, nil
}

func (uc *userUseCase) UpdateUser(ctx context.Context, patch UserPatch, targetID string) (*domain.User, error) {
	id, err := strconv.ParseInt(targetID, 10, 64)
	if err != nil {
		return nil, domain.NewUserError(domain.ErrKindUserNotAvailable, msgNoUserWithSpecifiedID)
	}

	user, err := uc.userStorage.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("usecase: ошибка при получении пользователя %d: %w", id, err)
	}
	if user == nil {
		return nil, domain.NewUserError(domain.ErrKindUserNotAvailable, msgNoUserWithSpecifiedID)
	}
	if user.Token != patch.Token {
		return nil, domain.NewUserError(domain.ErrKindUserCredentialsWrong, msgTokensDoNotMatch)
	}

	// пустое имя считается отсутствующим
	if patch.Username != nil && *patch.Username != "" && *patch.Username != user.Username {
		owner, err := uc.userStorage.FindByUsername(ctx, *patch.Username)
		if err != nil {
			return nil, fmt.Errorf("usecase: ошибка при проверке имени пользователя: %w", err)
		}
		if owner != nil && owner.ID != user.ID {
			return nil, domain.NewUserError(domain.ErrKindUsernameAlreadyExists, msgUsernameAlreadyInUse)
		}
		user.Username = *patch.Username
	}
	if patch.Birthday != nil {
		birthday := *patch.Birthday
		user.Birthday = &birthday
	}

	saved, err := uc.userStorage.Save(ctx, user)
	if err != nil {
		if field, ok := ports.ConflictField(err); ok && field == ports.FieldUsername {
			return nil, domain.NewUserError(domain.ErrKindUsernameAlreadyExists, msgUsernameAlreadyInUse)
		}
		if errors.Is(err, ports.ErrNotFound) {
			return nil, domain.NewUserError(domain.ErrKindUserNotAvailable, msgNoUserWithSpecifiedID)
		}
		return nil, fmt.Errorf("usecase: ошибка при обновлении пользователя %d: %w", id, err)
	}

	uc.logger.Info("user updated", "user_id", saved.ID)
	return saved, nil
}

func (uc *userUseCase) ListUsers(ctx context.Context) ([]domain.User, error) {
	users, err := uc.userStorage.ListUsers(ctx)
	if err != nil {
		return nil, fmt.Errorf("usecase: ошибка при получении списка пользователей: %w", err)
	}
	return users, nil
}
