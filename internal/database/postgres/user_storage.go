package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/GoArmGo/IdentityApp/internal/core/ports"
	"github.com/GoArmGo/IdentityApp/internal/database/storage"
	"github.com/GoArmGo/IdentityApp/internal/domain"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

// GormUserStorage реализует интерфейс ports.UserStorage с использованием GORM
type GormUserStorage struct {
	db     *gorm.DB
	logger *slog.Logger
}

// NewGormUserStorage создает новый экземпляр GormUserStorage
func NewGormUserStorage(db *gorm.DB, logger *slog.Logger) *GormUserStorage {
	return &GormUserStorage{db: db, logger: logger}
}

func (s *GormUserStorage) FindByUsername(ctx context.Context, username string) (*domain.User, error) {
	return s.first(ctx, "username = ?", username)
}

func (s *GormUserStorage) FindByID(ctx context.Context, id int64) (*domain.User, error) {
	return s.first(ctx, "id = ?", id)
}

func (s *GormUserStorage) FindByToken(ctx context.Context, token string) (*domain.User, error) {
	return s.first(ctx, "token = ?", token)
}

func (s *GormUserStorage) first(ctx context.Context, cond string, arg any) (*domain.User, error) {
	var user domain.User
	result := s.db.WithContext(ctx).Where(cond, arg).First(&user)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("ошибка при получении пользователя с помощью GORM (%s): %w", cond, result.Error)
	}
	return &user, nil
}

// Save создает пользователя или обновляет изменяемые поля существующего
func (s *GormUserStorage) Save(ctx context.Context, user *domain.User) (*domain.User, error) {
	saved := *user

	if saved.ID == 0 {
		if saved.AccountCreationDate.IsZero() {
			saved.AccountCreationDate = time.Now().UTC()
		}
		if err := s.db.WithContext(ctx).Create(&saved).Error; err != nil {
			if conflict := asConflict(err); conflict != nil {
				return nil, conflict
			}
			return nil, fmt.Errorf("ошибка при создании пользователя с GORM: %w", err)
		}
		s.logger.Info("user inserted (GORM)", "user_id", saved.ID)
		return &saved, nil
	}

	// статус меняется только через TransitionStatus
	result := s.db.WithContext(ctx).
		Model(&domain.User{}).
		Where("id = ?", saved.ID).
		Updates(map[string]any{
			"username": saved.Username,
			"password": saved.Password,
			"token":    saved.Token,
			"birthday": saved.Birthday,
		})
	if result.Error != nil {
		if conflict := asConflict(result.Error); conflict != nil {
			return nil, conflict
		}
		return nil, fmt.Errorf("ошибка при обновлении пользователя с GORM: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return nil, ports.ErrNotFound
	}

	fresh, err := s.FindByID(ctx, saved.ID)
	if err != nil {
		return nil, err
	}
	if fresh == nil {
		return nil, ports.ErrNotFound
	}

	s.logger.Info("user updated (GORM)", "user_id", fresh.ID)
	return fresh, nil
}

func (s *GormUserStorage) TransitionStatus(ctx context.Context, id int64, from, to domain.UserStatus) (bool, error) {
	result := s.db.WithContext(ctx).
		Model(&domain.User{}).
		Where("id = ? AND status = ?", id, from).
		Update("status", to)
	if result.Error != nil {
		return false, fmt.Errorf("ошибка при смене статуса пользователя с GORM: %w", result.Error)
	}
	return result.RowsAffected == 1, nil
}

func (s *GormUserStorage) ListUsers(ctx context.Context) ([]domain.User, error) {
	var users []domain.User
	if err := s.db.WithContext(ctx).Order("id").Find(&users).Error; err != nil {
		return nil, fmt.Errorf("ошибка при получении списка пользователей с GORM: %w", err)
	}
	return users, nil
}

func (s *GormUserStorage) DeleteAll(ctx context.Context) error {
	if err := s.db.WithContext(ctx).Where("1 = 1").Delete(&domain.User{}).Error; err != nil {
		return fmt.Errorf("ошибка при удалении пользователей с GORM: %w", err)
	}
	return nil
}

// asConflict переводит unique_violation драйвера pgx в ports.ConflictError
func asConflict(err error) *ports.ConflictError {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) || pgErr.Code != "23505" {
		return nil
	}
	return &ports.ConflictError{Field: storage.FieldFromConstraint(pgErr.ConstraintName)}
}
