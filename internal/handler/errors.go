package handler

import (
	"log/slog"
	"net/http"

	"github.com/GoArmGo/IdentityApp/internal/domain"
)

// statusForKind переводит вид ошибки сервиса в HTTP-статус
func statusForKind(kind domain.ErrorKind) int {
	switch kind {
	case domain.ErrKindIllegalRegistrationInput:
		return http.StatusUnprocessableEntity
	case domain.ErrKindUsernameAlreadyExists:
		return http.StatusConflict
	case domain.ErrKindUserCredentialsWrong:
		return http.StatusUnauthorized
	case domain.ErrKindUserNotAvailable:
		return http.StatusNotFound
	case domain.ErrKindUserAlreadyLoggedIn, domain.ErrKindUserAlreadyLoggedOut:
		return http.StatusNoContent
	default:
		return http.StatusInternalServerError
	}
}

// respondWithUserError отвечает на ошибку сервиса.
// overrides подменяет сообщение для отдельных видов ошибок конкретного маршрута.
func respondWithUserError(w http.ResponseWriter, err error, overrides map[domain.ErrorKind]string, logger *slog.Logger) {
	kind, ok := domain.KindOf(err)
	if !ok {
		logger.Error("unexpected error", "error", err)
		respondWithError(w, http.StatusInternalServerError, "Internal server error", logger)
		return
	}

	status := statusForKind(kind)
	if kind.IsSoft() {
		w.WriteHeader(status)
		return
	}

	msg := domain.MessageOf(err)
	if override, ok := overrides[kind]; ok {
		msg = override
	}
	respondWithError(w, status, msg, logger)
}
