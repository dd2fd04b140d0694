package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/GoArmGo/IdentityApp/internal/domain"
	"github.com/GoArmGo/IdentityApp/internal/metrics"
	"github.com/GoArmGo/IdentityApp/internal/usecase"
	"github.com/go-chi/chi/v5"
)

// Сообщения маршрутов, заменяющие сообщения сервиса
var (
	logoutOverrides = map[domain.ErrorKind]string{
		domain.ErrKindUserNotAvailable: "No user with same token as yours exists.",
	}
	getUserOverrides = map[domain.ErrorKind]string{
		domain.ErrKindUserNotAvailable: "No User with this id available!",
	}
	updateUserOverrides = map[domain.ErrorKind]string{
		domain.ErrKindUserNotAvailable:      "No user with this userId exists.",
		domain.ErrKindUserCredentialsWrong:  "You are not authorized to change profile attributes with your token!",
		domain.ErrKindUsernameAlreadyExists: "Username is not unique!",
	}
)

// UserHandler обработчик HTTP-запросов для работы с пользователями.
type UserHandler struct {
	userUseCase usecase.UserUseCase
	metrics     *metrics.Metrics
	logger      *slog.Logger
}

// NewUserHandler создаёт новый экземпляр UserHandler.
func NewUserHandler(uc usecase.UserUseCase, m *metrics.Metrics, logger *slog.Logger) *UserHandler {
	return &UserHandler{
		userUseCase: uc,
		metrics:     m,
		logger:      logger,
	}
}

// Routes регистрирует маршруты пользователей.
func (h *UserHandler) Routes(r chi.Router) {
	r.Get("/users", h.ListUsers)
	r.Post("/users", h.CreateUser)
	r.Get("/users/{id}", h.GetUser)
	r.Put("/users/{id}", h.UpdateUser)
	r.Put("/login", h.LoginUser)
	r.Put("/logout", h.LogOutUser)
}

// respondWithJSON отправляет JSON-ответ клиенту.
func respondWithJSON(w http.ResponseWriter, code int, payload interface{}, logger *slog.Logger) {
	response, err := json.Marshal(payload)
	if err != nil {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		logger.Error("failed to marshal JSON response", "error", err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if _, err = w.Write(response); err != nil {
		logger.Error("failed to write HTTP response", "error", err)
	}
}

// respondWithError отправляет JSON-ответ с ошибкой.
func respondWithError(w http.ResponseWriter, code int, message string, logger *slog.Logger) {
	respondWithJSON(w, code, map[string]string{"error": message}, logger)
}

// decodeJSON читает тело запроса в dst. При ошибке уже отправлен ответ 400.
func (h *UserHandler) decodeJSON(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		h.logger.Warn("malformed request body", "path", r.URL.Path, "error", err)
		respondWithError(w, http.StatusBadRequest, "Malformed request body", h.logger)
		return false
	}
	return true
}

// ListUsers GET /users
func (h *UserHandler) ListUsers(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	users, err := h.userUseCase.ListUsers(r.Context())
	h.metrics.Observe("list", start, err)
	if err != nil {
		respondWithUserError(w, err, nil, h.logger)
		return
	}

	items := make([]userListItem, 0, len(users))
	for _, u := range users {
		items = append(items, userListItem{ID: u.ID, Username: u.Username, Status: string(u.Status)})
	}
	respondWithJSON(w, http.StatusOK, items, h.logger)
}

// CreateUser POST /users
func (h *UserHandler) CreateUser(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	var req credentialsRequest
	if !h.decodeJSON(w, r, &req) {
		h.metrics.ObserveOutcome("create", start, metrics.OutcomeInvalid)
		return
	}

	user, err := h.userUseCase.CreateUser(r.Context(), usecase.Candidate{Username: req.Username, Password: req.Password})
	h.metrics.Observe("create", start, err)
	if err != nil {
		respondWithUserError(w, err, nil, h.logger)
		return
	}

	respondWithJSON(w, http.StatusCreated, createUserResponse{
		ID:       user.ID,
		Username: user.Username,
		Token:    user.Token,
		Status:   string(user.Status),
	}, h.logger)
}

// LoginUser PUT /login
func (h *UserHandler) LoginUser(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	var req credentialsRequest
	if !h.decodeJSON(w, r, &req) {
		h.metrics.ObserveOutcome("login", start, metrics.OutcomeInvalid)
		return
	}

	user, err := h.userUseCase.LoginUser(r.Context(), usecase.Credentials{Username: req.Username, Password: req.Password})
	h.metrics.Observe("login", start, err)
	if err != nil {
		respondWithUserError(w, err, nil, h.logger)
		return
	}

	respondWithJSON(w, http.StatusOK, loginResponse{ID: user.ID, Token: user.Token}, h.logger)
}

// LogOutUser PUT /logout
func (h *UserHandler) LogOutUser(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	var req logoutRequest
	if !h.decodeJSON(w, r, &req) {
		h.metrics.ObserveOutcome("logout", start, metrics.OutcomeInvalid)
		return
	}

	_, err := h.userUseCase.LogOutUser(r.Context(), usecase.Session{Token: req.Token, ID: req.ID})
	h.metrics.Observe("logout", start, err)
	if err != nil {
		respondWithUserError(w, err, logoutOverrides, h.logger)
		return
	}

	w.WriteHeader(http.StatusOK)
}

// GetUser GET /users/{id}
func (h *UserHandler) GetUser(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	idStr := chi.URLParam(r, "id")
	id, err := strconv.ParseInt(idStr, 10, 64)
	if err != nil {
		h.metrics.ObserveOutcome("get", start, metrics.OutcomeInvalid)
		h.logger.Warn("invalid user id parameter", "id", idStr, "error", err)
		respondWithError(w, http.StatusBadRequest, "User id must be a number.", h.logger)
		return
	}

	user, err := h.userUseCase.GetUser(r.Context(), usecase.UserRef{ID: id})
	h.metrics.Observe("get", start, err)
	if err != nil {
		respondWithUserError(w, err, getUserOverrides, h.logger)
		return
	}

	respondWithJSON(w, http.StatusOK, toUserResponse(user), h.logger)
}

// UpdateUser PUT /users/{id}
func (h *UserHandler) UpdateUser(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	var req updateUserRequest
	if !h.decodeJSON(w, r, &req) {
		h.metrics.ObserveOutcome("update", start, metrics.OutcomeInvalid)
		return
	}

	patch := usecase.UserPatch{Token: req.Token, Username: req.Username}
	if req.Birthday != nil && *req.Birthday != "" {
		birthday, err := parseBirthday(*req.Birthday)
		if err != nil {
			h.metrics.ObserveOutcome("update", start, metrics.OutcomeInvalid)
			respondWithError(w, http.StatusBadRequest, "Birthday must be formatted as YYYY-MM-DD.", h.logger)
			return
		}
		patch.Birthday = &birthday
	}

	_, err := h.userUseCase.UpdateUser(r.Context(), patch, chi.URLParam(r, "id"))
	h.metrics.Observe("update", start, err)
	if err != nil {
		respondWithUserError(w, err, updateUserOverrides, h.logger)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
