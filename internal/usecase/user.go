package usecase

import (
	"context"
	"time"

	"github.com/GoArmGo/IdentityApp/internal/domain"
	validation "github.com/go-ozzo/ozzo-validation"
)

// Candidate данные для регистрации нового пользователя
type Candidate struct {
	Username string
	Password string
}

// Validate проверяет, что имя и пароль не пустые
func (c Candidate) Validate() error {
	return validation.ValidateStruct(&c,
		validation.Field(&c.Username, validation.Required),
		validation.Field(&c.Password, validation.Required),
	)
}

// Credentials данные для входа
type Credentials struct {
	Username string
	Password string
}

// Session токен активной сессии. ID передается клиентом, но не используется для поиска.
type Session struct {
	Token string
	ID    *int64
}

// UserRef ссылка на пользователя по ID
type UserRef struct {
	ID int64
}

// UserPatch изменения профиля. nil означает "не менять".
type UserPatch struct {
	Token    string
	Username *string
	Birthday *time.Time
}

// UserUseCase определяет интерфейс бизнес-логики регистрации и сессий пользователей
type UserUseCase interface {
	// CreateUser регистрирует пользователя со статусом OFFLINE и новым токеном
	CreateUser(ctx context.Context, candidate Candidate) (*domain.User, error)

	// LoginUser проверяет имя и пароль и переводит пользователя в ONLINE
	LoginUser(ctx context.Context, credentials Credentials) (*domain.User, error)

	// LogOutUser находит пользователя по токену и переводит его в OFFLINE
	LogOutUser(ctx context.Context, session Session) (*domain.User, error)

	// GetUser возвращает пользователя по ID
	GetUser(ctx context.Context, ref UserRef) (*domain.User, error)

	// UpdateUser меняет имя и/или дату рождения, если токен принадлежит целевому пользователю.
	// targetID приходит строкой из пути запроса.
	UpdateUser(ctx context.Context, patch UserPatch, targetID string) (*domain.User, error)

	// ListUsers возвращает всех пользователей по возрастанию ID
	ListUsers(ctx context.Context) ([]domain.User, error)
}
