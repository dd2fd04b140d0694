package memory

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GoArmGo/IdentityApp/internal/core/ports"
	"github.com/GoArmGo/IdentityApp/internal/domain"
)

func newUser(username, token string) *domain.User {
	return &domain.User{Username: username, Password: "pw", Token: token, Status: domain.StatusOffline}
}

func TestSave_InsertAssignsIDAndDate(t *testing.T) {
	s := NewUserStorage()
	fixed := time.Date(2020, 3, 1, 10, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return fixed }

	got, err := s.Save(context.Background(), newUser("alice", "t-1"))
	require.NoError(t, err)
	assert.Equal(t, int64(1), got.ID)
	assert.Equal(t, fixed, got.AccountCreationDate)

	second, err := s.Save(context.Background(), newUser("bob", "t-2"))
	require.NoError(t, err)
	assert.Equal(t, int64(2), second.ID)
}

func TestSave_UniqueIndexes(t *testing.T) {
	s := NewUserStorage()
	ctx := context.Background()
	_, err := s.Save(ctx, newUser("alice", "t-1"))
	require.NoError(t, err)

	_, err = s.Save(ctx, newUser("alice", "t-2"))
	field, ok := ports.ConflictField(err)
	require.True(t, ok)
	assert.Equal(t, ports.FieldUsername, field)
	assert.True(t, errors.Is(err, ports.ErrConflict))

	_, err = s.Save(ctx, newUser("bob", "t-1"))
	field, ok = ports.ConflictField(err)
	require.True(t, ok)
	assert.Equal(t, ports.FieldToken, field)
}

func TestSave_UpdateKeepsCreationDateAndReindexes(t *testing.T) {
	s := NewUserStorage()
	ctx := context.Background()
	created, err := s.Save(ctx, newUser("alice", "t-1"))
	require.NoError(t, err)

	created.Username = "alicia"
	created.AccountCreationDate = time.Time{}
	updated, err := s.Save(ctx, created)
	require.NoError(t, err)
	assert.Equal(t, "alicia", updated.Username)
	assert.False(t, updated.AccountCreationDate.IsZero())

	old, err := s.FindByUsername(ctx, "alice")
	require.NoError(t, err)
	assert.Nil(t, old)

	// старое имя освобождено
	_, err = s.Save(ctx, newUser("alice", "t-9"))
	assert.NoError(t, err)
}

func TestSave_UpdateMissing(t *testing.T) {
	s := NewUserStorage()
	u := newUser("ghost", "t")
	u.ID = 42
	_, err := s.Save(context.Background(), u)
	assert.ErrorIs(t, err, ports.ErrNotFound)
}

func TestFind_ReturnsNilWhenAbsent(t *testing.T) {
	s := NewUserStorage()
	ctx := context.Background()

	u, err := s.FindByID(ctx, 1)
	assert.NoError(t, err)
	assert.Nil(t, u)
	u, err = s.FindByToken(ctx, "nope")
	assert.NoError(t, err)
	assert.Nil(t, u)
	u, err = s.FindByUsername(ctx, "nope")
	assert.NoError(t, err)
	assert.Nil(t, u)
}

func TestFind_ReturnsCopies(t *testing.T) {
	s := NewUserStorage()
	ctx := context.Background()
	b := time.Date(1990, 1, 2, 0, 0, 0, 0, time.UTC)
	u := newUser("alice", "t-1")
	u.Birthday = &b
	created, err := s.Save(ctx, u)
	require.NoError(t, err)

	created.Username = "mutated"
	*created.Birthday = created.Birthday.AddDate(1, 0, 0)

	again, err := s.FindByToken(ctx, "t-1")
	require.NoError(t, err)
	assert.Equal(t, "alice", again.Username)
	assert.Equal(t, 1990, again.Birthday.Year())
}

func TestTransitionStatus(t *testing.T) {
	s := NewUserStorage()
	ctx := context.Background()
	u, err := s.Save(ctx, newUser("alice", "t-1"))
	require.NoError(t, err)

	ok, err := s.TransitionStatus(ctx, u.ID, domain.StatusOffline, domain.StatusOnline)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = s.TransitionStatus(ctx, u.ID, domain.StatusOffline, domain.StatusOnline)
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = s.TransitionStatus(ctx, 999, domain.StatusOffline, domain.StatusOnline)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestTransitionStatus_ConcurrentOnlyOneWins(t *testing.T) {
	s := NewUserStorage()
	ctx := context.Background()
	u, err := s.Save(ctx, newUser("alice", "t-1"))
	require.NoError(t, err)

	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		wins int
	)
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ok, _ := s.TransitionStatus(ctx, u.ID, domain.StatusOffline, domain.StatusOnline)
			if ok {
				mu.Lock()
				wins++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, 1, wins)
}

func TestListUsersAndDeleteAll(t *testing.T) {
	s := NewUserStorage()
	ctx := context.Background()
	for _, name := range []string{"c", "a", "b"} {
		_, err := s.Save(ctx, newUser(name, "tok-"+name))
		require.NoError(t, err)
	}

	users, err := s.ListUsers(ctx)
	require.NoError(t, err)
	require.Len(t, users, 3)
	assert.Equal(t, "c", users[0].Username)
	assert.Equal(t, "b", users[2].Username)

	require.NoError(t, s.DeleteAll(ctx))
	users, err = s.ListUsers(ctx)
	require.NoError(t, err)
	assert.Empty(t, users)
}

func TestSave_UpdateKeepsStatus(t *testing.T) {
	s := NewUserStorage()
	ctx := context.Background()

	u, err := s.Save(ctx, newUser("alice", "t-1"))
	require.NoError(t, err)
	stale := *u

	ok, err := s.TransitionStatus(ctx, u.ID, domain.StatusOffline, domain.StatusOnline)
	require.NoError(t, err)
	require.True(t, ok)

	stale.Username = "alicia"
	updated, err := s.Save(ctx, &stale)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusOnline, updated.Status)
}
