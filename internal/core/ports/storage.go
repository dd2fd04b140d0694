package ports

import (
	"context"
	"errors"
	"fmt"

	"github.com/GoArmGo/IdentityApp/internal/domain"
)

var (
	// ErrConflict нарушение уникального индекса хранилища
	ErrConflict = errors.New("unique constraint violation")
	// ErrNotFound обновление записи, которой нет в хранилище
	ErrNotFound = errors.New("user not found")
)

// Поля с уникальными индексами
const (
	FieldUsername = "username"
	FieldToken    = "token"
)

// ConflictError сообщает, какой уникальный индекс нарушен при записи
type ConflictError struct {
	Field string
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("%v: %s", ErrConflict, e.Field)
}

func (e *ConflictError) Unwrap() error { return ErrConflict }

// ConflictField возвращает поле нарушенного индекса, если err является ConflictError
func ConflictField(err error) (string, bool) {
	var ce *ConflictError
	if errors.As(err, &ce) {
		return ce.Field, true
	}
	return "", false
}

// UserStorage определяет методы для взаимодействия с хранилищем пользователей.
// Методы поиска возвращают (nil, nil), если пользователь не найден.
type UserStorage interface {
	FindByUsername(ctx context.Context, username string) (*domain.User, error)
	FindByID(ctx context.Context, id int64) (*domain.User, error)
	FindByToken(ctx context.Context, token string) (*domain.User, error)

	// Save вставляет пользователя (ID == 0) или обновляет существующего.
	// Нарушение уникальности возвращается как *ConflictError.
	Save(ctx context.Context, user *domain.User) (*domain.User, error)

	// TransitionStatus атомарно меняет статус from -> to.
	// Возвращает false, если пользователь уже не в статусе from.
	TransitionStatus(ctx context.Context, id int64, from, to domain.UserStatus) (bool, error)

	ListUsers(ctx context.Context) ([]domain.User, error)
	DeleteAll(ctx context.Context) error
}
