package domain

// Login возвращает статус после входа. Переход возможен только из OFFLINE.
func (s UserStatus) Login() (UserStatus, error) {
	if s == StatusOnline {
		return s, NewUserError(ErrKindUserAlreadyLoggedIn, "")
	}
	return StatusOnline, nil
}

// Logout возвращает статус после выхода. Переход возможен только из ONLINE.
func (s UserStatus) Logout() (UserStatus, error) {
	if s != StatusOnline {
		return s, NewUserError(ErrKindUserAlreadyLoggedOut, "")
	}
	return StatusOffline, nil
}
