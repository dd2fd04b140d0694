package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/GoArmGo/IdentityApp/internal/core/ports"
	"github.com/GoArmGo/IdentityApp/internal/domain"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

const (
	userColumns = `id, username, password, token, status, account_creation_date, birthday`

	// код ошибки PostgreSQL unique_violation
	uniqueViolation = "23505"
)

// UserStorage реализует интерфейс ports.UserStorage поверх sqlx
type UserStorage struct {
	db     *sqlx.DB
	logger *slog.Logger
}

// NewUserStorage создает новый экземпляр UserStorage
func NewUserStorage(db *sqlx.DB, logger *slog.Logger) *UserStorage {
	return &UserStorage{db: db, logger: logger}
}

// FindByUsername получает пользователя по имени
func (s *UserStorage) FindByUsername(ctx context.Context, username string) (*domain.User, error) {
	return s.findOne(ctx, "username", `SELECT `+userColumns+` FROM users WHERE username = $1 LIMIT 1`, username)
}

// FindByID получает пользователя по ID
func (s *UserStorage) FindByID(ctx context.Context, id int64) (*domain.User, error) {
	return s.findOne(ctx, "id", `SELECT `+userColumns+` FROM users WHERE id = $1 LIMIT 1`, id)
}

// FindByToken получает пользователя по токену сессии
func (s *UserStorage) FindByToken(ctx context.Context, token string) (*domain.User, error) {
	return s.findOne(ctx, "token", `SELECT `+userColumns+` FROM users WHERE token = $1 LIMIT 1`, token)
}

func (s *UserStorage) findOne(ctx context.Context, by, query string, arg any) (*domain.User, error) {
	start := time.Now()

	var user domain.User
	err := s.db.GetContext(ctx, &user, query, arg)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			s.logger.Debug("user not found", "by", by)
			return nil, nil
		}
		s.logger.Error("failed to get user", "by", by, "error", err)
		return nil, fmt.Errorf("ошибка при получении пользователя по %s: %w", by, err)
	}

	s.logger.Debug("user retrieved",
		"by", by,
		"user_id", user.ID,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return &user, nil
}

// Save вставляет нового пользователя или обновляет существующего
func (s *UserStorage) Save(ctx context.Context, user *domain.User) (*domain.User, error) {
	if user.ID == 0 {
		return s.insert(ctx, user)
	}
	return s.update(ctx, user)
}

func (s *UserStorage) insert(ctx context.Context, user *domain.User) (*domain.User, error) {
	start := time.Now()

	saved := *user
	if saved.AccountCreationDate.IsZero() {
		saved.AccountCreationDate = time.Now().UTC()
	}

	query := `
	INSERT INTO users (username, password, token, status, account_creation_date, birthday)
	VALUES ($1, $2, $3, $4, $5, $6)
	RETURNING id
	`

	err := s.db.QueryRowxContext(ctx, query,
		saved.Username, saved.Password, saved.Token, saved.Status, saved.AccountCreationDate, saved.Birthday,
	).Scan(&saved.ID)
	if err != nil {
		if conflict := asConflict(err); conflict != nil {
			s.logger.Warn("user insert rejected by unique index", "field", conflict.Field)
			return nil, conflict
		}
		s.logger.Error("failed to insert user", "username", saved.Username, "error", err)
		return nil, fmt.Errorf("insert user: %w", err)
	}

	s.logger.Info("user inserted",
		"user_id", saved.ID,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return &saved, nil
}

// update меняет профиль пользователя. Статус меняется только через TransitionStatus.
func (s *UserStorage) update(ctx context.Context, user *domain.User) (*domain.User, error) {
	start := time.Now()

	query := `
	UPDATE users
	SET username = $1, password = $2, token = $3, birthday = $4
	WHERE id = $5
	RETURNING status, account_creation_date
	`

	saved := *user
	err := s.db.QueryRowxContext(ctx, query,
		user.Username, user.Password, user.Token, user.Birthday, user.ID,
	).Scan(&saved.Status, &saved.AccountCreationDate)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ports.ErrNotFound
		}
		if conflict := asConflict(err); conflict != nil {
			s.logger.Warn("user update rejected by unique index", "user_id", user.ID, "field", conflict.Field)
			return nil, conflict
		}
		s.logger.Error("failed to update user", "user_id", user.ID, "error", err)
		return nil, fmt.Errorf("update user: %w", err)
	}

	s.logger.Info("user updated",
		"user_id", user.ID,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return &saved, nil
}

// TransitionStatus меняет статус только если текущий статус равен from
func (s *UserStorage) TransitionStatus(ctx context.Context, id int64, from, to domain.UserStatus) (bool, error) {
	res, err := s.db.ExecContext(ctx,
		`UPDATE users SET status = $1 WHERE id = $2 AND status = $3`, to, id, from)
	if err != nil {
		s.logger.Error("failed to change user status", "user_id", id, "from", from, "to", to, "error", err)
		return false, fmt.Errorf("update user status: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("update user status: %w", err)
	}
	return n == 1, nil
}

// ListUsers получает всех пользователей в порядке создания
func (s *UserStorage) ListUsers(ctx context.Context) ([]domain.User, error) {
	start := time.Now()

	var users []domain.User
	if err := s.db.SelectContext(ctx, &users, `SELECT `+userColumns+` FROM users ORDER BY id`); err != nil {
		s.logger.Error("failed to list users", "error", err)
		return nil, fmt.Errorf("ошибка при получении списка пользователей: %w", err)
	}

	s.logger.Debug("listed users",
		"count", len(users),
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return users, nil
}

// DeleteAll удаляет всех пользователей
func (s *UserStorage) DeleteAll(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM users`); err != nil {
		return fmt.Errorf("delete users: %w", err)
	}
	s.logger.Warn("all users deleted")
	return nil
}

// asConflict переводит unique_violation драйвера pq в ports.ConflictError
func asConflict(err error) *ports.ConflictError {
	var pqErr *pq.Error
	if !errors.As(err, &pqErr) || pqErr.Code != uniqueViolation {
		return nil
	}
	return &ports.ConflictError{Field: FieldFromConstraint(pqErr.Constraint)}
}

// FieldFromConstraint определяет поле по имени уникального ограничения
func FieldFromConstraint(constraint string) string {
	if strings.Contains(strings.ToLower(constraint), ports.FieldToken) {
		return ports.FieldToken
	}
	return ports.FieldUsername
}
