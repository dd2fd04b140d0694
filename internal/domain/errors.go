package domain

import (
	"errors"
	"fmt"
)

// ErrorKind стабильный дискриминант ошибки сервиса пользователей.
// По нему транспортный слой выбирает код ответа.
type ErrorKind string

const (
	ErrKindIllegalRegistrationInput ErrorKind = "IllegalRegistrationInput"
	ErrKindUsernameAlreadyExists    ErrorKind = "UsernameAlreadyExists"
	ErrKindUserCredentialsWrong     ErrorKind = "UserCredentialsWrong"
	ErrKindUserNotAvailable         ErrorKind = "UserNotAvailable"
	ErrKindUserAlreadyLoggedIn      ErrorKind = "UserAlreadyLoggedIn"
	ErrKindUserAlreadyLoggedOut     ErrorKind = "UserAlreadyLoggedOut"
)

// UserError ошибка бизнес-логики с видом и сообщением для клиента.
// Msg может быть пустым для "мягких" исходов (already logged in/out).
type UserError struct {
	Kind ErrorKind
	Msg  string
}

func (e *UserError) Error() string {
	if e.Msg == "" {
		return string(e.Kind)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Msg)
}

// Is позволяет сравнивать ошибки по виду: errors.Is(err, &UserError{Kind: ...})
func (e *UserError) Is(target error) bool {
	t, ok := target.(*UserError)
	if !ok {
		return false
	}
	return t.Kind == e.Kind
}

// NewUserError создает ошибку указанного вида
func NewUserError(kind ErrorKind, msg string) *UserError {
	return &UserError{Kind: kind, Msg: msg}
}

// KindOf возвращает вид ошибки сервиса, если она есть в цепочке err
func KindOf(err error) (ErrorKind, bool) {
	var ue *UserError
	if errors.As(err, &ue) {
		return ue.Kind, true
	}
	return "", false
}

// MessageOf возвращает сообщение ошибки сервиса (пустая строка, если это не UserError)
func MessageOf(err error) string {
	var ue *UserError
	if errors.As(err, &ue) {
		return ue.Msg
	}
	return ""
}

// IsSoft сообщает, что ошибка означает повторный вход/выход, а не отказ
func (k ErrorKind) IsSoft() bool {
	return k == ErrKindUserAlreadyLoggedIn || k == ErrKindUserAlreadyLoggedOut
}
