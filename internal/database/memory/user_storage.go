package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/GoArmGo/IdentityApp/internal/core/ports"
	"github.com/GoArmGo/IdentityApp/internal/domain"
)

// UserStorage хранит пользователей в памяти процесса.
// Уникальность username и token проверяется под той же блокировкой, что и запись.
type UserStorage struct {
	mu         sync.RWMutex
	nextID     int64
	byID       map[int64]domain.User
	byUsername map[string]int64
	byToken    map[string]int64
	now        func() time.Time
}

// NewUserStorage создает пустое хранилище
func NewUserStorage() *UserStorage {
	return &UserStorage{
		byID:       make(map[int64]domain.User),
		byUsername: make(map[string]int64),
		byToken:    make(map[string]int64),
		now:        time.Now,
	}
}

func (s *UserStorage) FindByUsername(ctx context.Context, username string) (*domain.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.byUsername[username]
	if !ok {
		return nil, nil
	}
	return s.copyOf(id), nil
}

func (s *UserStorage) FindByID(ctx context.Context, id int64) (*domain.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if _, ok := s.byID[id]; !ok {
		return nil, nil
	}
	return s.copyOf(id), nil
}

func (s *UserStorage) FindByToken(ctx context.Context, token string) (*domain.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.byToken[token]
	if !ok {
		return nil, nil
	}
	return s.copyOf(id), nil
}

// Save вставляет или обновляет пользователя
func (s *UserStorage) Save(ctx context.Context, user *domain.User) (*domain.User, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if owner, ok := s.byUsername[user.Username]; ok && owner != user.ID {
		return nil, &ports.ConflictError{Field: ports.FieldUsername}
	}
	if owner, ok := s.byToken[user.Token]; ok && owner != user.ID {
		return nil, &ports.ConflictError{Field: ports.FieldToken}
	}

	stored := *user
	if stored.ID == 0 {
		s.nextID++
		stored.ID = s.nextID
		if stored.AccountCreationDate.IsZero() {
			stored.AccountCreationDate = s.now().UTC()
		}
	} else {
		prev, ok := s.byID[stored.ID]
		if !ok {
			return nil, ports.ErrNotFound
		}
		delete(s.byUsername, prev.Username)
		delete(s.byToken, prev.Token)
		// дата создания не меняется после вставки, статус меняет только TransitionStatus
		stored.AccountCreationDate = prev.AccountCreationDate
		stored.Status = prev.Status
	}

	s.byID[stored.ID] = stored
	s.byUsername[stored.Username] = stored.ID
	s.byToken[stored.Token] = stored.ID

	return s.copyOf(stored.ID), nil
}

func (s *UserStorage) TransitionStatus(ctx context.Context, id int64, from, to domain.UserStatus) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.byID[id]
	if !ok || u.Status != from {
		return false, nil
	}
	u.Status = to
	s.byID[id] = u
	return true, nil
}

func (s *UserStorage) ListUsers(ctx context.Context) ([]domain.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	users := make([]domain.User, 0, len(s.byID))
	for id := range s.byID {
		users = append(users, *s.copyOf(id))
	}
	sort.Slice(users, func(i, j int) bool { return users[i].ID < users[j].ID })
	return users, nil
}

func (s *UserStorage) DeleteAll(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.byID = make(map[int64]domain.User)
	s.byUsername = make(map[string]int64)
	s.byToken = make(map[string]int64)
	return nil
}

// copyOf возвращает копию записи, чтобы вызывающий не менял хранилище напрямую
func (s *UserStorage) copyOf(id int64) *domain.User {
	u := s.byID[id]
	if u.Birthday != nil {
		b := *u.Birthday
		u.Birthday = &b
	}
	return &u
}
