package handler

import (
	"fmt"
	"time"

	"github.com/GoArmGo/IdentityApp/internal/domain"
)

const (
	birthdayLayout = "2006-01-02"
	maxBodyBytes   = 1 << 20
)

type credentialsRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type logoutRequest struct {
	Token string `json:"token"`
	ID    *int64 `json:"id,omitempty"`
}

type updateUserRequest struct {
	Token    string  `json:"token"`
	Username *string `json:"username,omitempty"`
	Birthday *string `json:"birthday,omitempty"`
}

type createUserResponse struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
	Token    string `json:"token"`
	Status   string `json:"status"`
}

type loginResponse struct {
	ID    int64  `json:"id"`
	Token string `json:"token"`
}

type userListItem struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
	Status   string `json:"status"`
}

type userResponse struct {
	ID                  int64   `json:"id"`
	Username            string  `json:"username"`
	Status              string  `json:"status"`
	AccountCreationDate string  `json:"accountCreationDate"`
	Birthday            *string `json:"birthday"`
}

func toUserResponse(u *domain.User) userResponse {
	resp := userResponse{
		ID:                  u.ID,
		Username:            u.Username,
		Status:              string(u.Status),
		AccountCreationDate: u.AccountCreationDate.UTC().Format(time.RFC3339),
	}
	if u.Birthday != nil {
		b := u.Birthday.Format(birthdayLayout)
		resp.Birthday = &b
	}
	return resp
}

// parseBirthday принимает YYYY-MM-DD или RFC 3339
func parseBirthday(s string) (time.Time, error) {
	if t, err := time.Parse(birthdayLayout, s); err == nil {
		return t, nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid birthday %q: expected YYYY-MM-DD", s)
	}
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC), nil
}
