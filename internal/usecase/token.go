package usecase

import "github.com/google/uuid"

// TokenGenerator выдает новый непрозрачный токен сессии
type TokenGenerator func() string

// NewUUIDToken генерирует токен на основе UUIDv4 (crypto/rand)
func NewUUIDToken() string {
	return uuid.NewString()
}
