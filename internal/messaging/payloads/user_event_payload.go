package payloads

import "time"

// Типы событий пользователя
const (
	UserCreated   = "user.created"
	UserLoggedIn  = "user.logged_in"
	UserLoggedOut = "user.logged_out"
	UserUpdated   = "user.updated"
)

// UserEventPayload событие об изменении пользователя, передаваемое через RabbitMQ.
// Токен и пароль в событие не попадают.
type UserEventPayload struct {
	Type       string    `json:"type"`
	UserID     int64     `json:"user_id"`
	Username   string    `json:"username"`
	Status     string    `json:"status"`
	OccurredAt time.Time `json:"occurred_at"`
}
