// internal/domain/user.go
package domain

import (
	"time"
)

// UserStatus статус сессии пользователя
type UserStatus string

const (
	StatusOffline UserStatus = "OFFLINE"
	StatusOnline  UserStatus = "ONLINE"
)

// Valid сообщает, является ли статус одним из допустимых значений
func (s UserStatus) Valid() bool {
	return s == StatusOffline || s == StatusOnline
}

// User представляет модель пользователя в системе.
// Соответствует таблице 'users' в базе данных.
type User struct {
	ID                  int64      `json:"id" db:"id" gorm:"primaryKey;autoIncrement"`
	Username            string     `json:"username" db:"username" gorm:"uniqueIndex;not null"`
	Password            string     `json:"-" db:"password" gorm:"not null"`
	Token               string     `json:"token" db:"token" gorm:"uniqueIndex;not null"`
	Status              UserStatus `json:"status" db:"status" gorm:"type:text;not null"`
	AccountCreationDate time.Time  `json:"accountCreationDate" db:"account_creation_date" gorm:"not null"`
	Birthday            *time.Time `json:"birthday" db:"birthday" gorm:"type:date"`
}

func (User) TableName() string {
	return "users"
}

// IsOnline сообщает, активна ли сессия пользователя
func (u *User) IsOnline() bool {
	return u.Status == StatusOnline
}
