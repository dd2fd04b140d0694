package usecase

import (
	"context"
	"errors"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GoArmGo/IdentityApp/internal/core/ports"
	"github.com/GoArmGo/IdentityApp/internal/database/memory"
	"github.com/GoArmGo/IdentityApp/internal/domain"
	"github.com/GoArmGo/IdentityApp/internal/logger"
)

func newTestUseCase(t *testing.T) (UserUseCase, *memory.UserStorage) {
	t.Helper()
	store := memory.NewUserStorage()
	return NewUserUseCase(store, NewUUIDToken, 3, logger.Discard()), store
}

func requireKind(t *testing.T, err error, kind domain.ErrorKind, msg string) {
	t.Helper()
	require.Error(t, err)
	got, ok := domain.KindOf(err)
	require.True(t, ok, "expected UserError, got %v", err)
	assert.Equal(t, kind, got)
	assert.Equal(t, msg, domain.MessageOf(err))
}

func strPtr(s string) *string { return &s }

func TestCreateUser(t *testing.T) {
	uc, store := newTestUseCase(t)
	ctx := context.Background()

	user, err := uc.CreateUser(ctx, Candidate{Username: "alice", Password: "pw"})
	require.NoError(t, err)
	assert.NotZero(t, user.ID)
	assert.Equal(t, "alice", user.Username)
	assert.NotEmpty(t, user.Token)
	assert.Equal(t, domain.StatusOffline, user.Status)
	assert.False(t, user.AccountCreationDate.IsZero())

	stored, err := store.FindByToken(ctx, user.Token)
	require.NoError(t, err)
	require.NotNil(t, stored)
	assert.Equal(t, user.ID, stored.ID)
}

func TestCreateUser_TokensAreDistinct(t *testing.T) {
	uc, _ := newTestUseCase(t)
	ctx := context.Background()

	a, err := uc.CreateUser(ctx, Candidate{Username: "a", Password: "pw"})
	require.NoError(t, err)
	b, err := uc.CreateUser(ctx, Candidate{Username: "b", Password: "pw"})
	require.NoError(t, err)
	assert.NotEqual(t, a.Token, b.Token)
	assert.NotEqual(t, a.ID, b.ID)
}

func TestCreateUser_EmptyInput(t *testing.T) {
	uc, store := newTestUseCase(t)
	ctx := context.Background()

	for _, c := range []Candidate{
		{Username: "", Password: "pw"},
		{Username: "alice", Password: ""},
		{},
	} {
		_, err := uc.CreateUser(ctx, c)
		requireKind(t, err, domain.ErrKindIllegalRegistrationInput, "Username and/or password can't consist of an empty string!")
	}

	users, err := store.ListUsers(ctx)
	require.NoError(t, err)
	assert.Empty(t, users)
}

func TestCreateUser_DuplicateUsername(t *testing.T) {
	uc, store := newTestUseCase(t)
	ctx := context.Background()

	_, err := uc.CreateUser(ctx, Candidate{Username: "alice", Password: "pw"})
	require.NoError(t, err)

	_, err = uc.CreateUser(ctx, Candidate{Username: "alice", Password: "other"})
	requireKind(t, err, domain.ErrKindUsernameAlreadyExists, "The username provided is not unique. Therefore, the user could not be created!")

	users, err := store.ListUsers(ctx)
	require.NoError(t, err)
	assert.Len(t, users, 1)
}

func TestCreateUser_ConcurrentSameUsername(t *testing.T) {
	uc, store := newTestUseCase(t)
	ctx := context.Background()

	const n = 16
	var wg sync.WaitGroup
	errs := make([]error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = uc.CreateUser(ctx, Candidate{Username: "racer", Password: "pw"})
		}(i)
	}
	wg.Wait()

	succeeded := 0
	for _, err := range errs {
		if err == nil {
			succeeded++
			continue
		}
		kind, ok := domain.KindOf(err)
		require.True(t, ok)
		assert.Equal(t, domain.ErrKindUsernameAlreadyExists, kind)
	}
	assert.Equal(t, 1, succeeded)

	users, err := store.ListUsers(ctx)
	require.NoError(t, err)
	assert.Len(t, users, 1)
}

func TestCreateUser_TokenCollisionRetried(t *testing.T) {
	store := memory.NewUserStorage()
	tokens := []string{"tok-a", "tok-a", "tok-b"}
	next := 0
	gen := func() string {
		tok := tokens[next]
		next++
		return tok
	}
	uc := NewUserUseCase(store, gen, 3, logger.Discard())
	ctx := context.Background()

	_, err := uc.CreateUser(ctx, Candidate{Username: "a", Password: "pw"})
	require.NoError(t, err)

	b, err := uc.CreateUser(ctx, Candidate{Username: "b", Password: "pw"})
	require.NoError(t, err)
	assert.Equal(t, "tok-b", b.Token)
}

func TestCreateUser_TokenCollisionExhausted(t *testing.T) {
	store := memory.NewUserStorage()
	uc := NewUserUseCase(store, func() string { return "same" }, 2, logger.Discard())
	ctx := context.Background()

	_, err := uc.CreateUser(ctx, Candidate{Username: "a", Password: "pw"})
	require.NoError(t, err)

	_, err = uc.CreateUser(ctx, Candidate{Username: "b", Password: "pw"})
	require.Error(t, err)
	_, isKind := domain.KindOf(err)
	assert.False(t, isKind)

	users, err := store.ListUsers(ctx)
	require.NoError(t, err)
	assert.Len(t, users, 1)
}

func TestLoginUser(t *testing.T) {
	uc, store := newTestUseCase(t)
	ctx := context.Background()

	created, err := uc.CreateUser(ctx, Candidate{Username: "alice", Password: "pw"})
	require.NoError(t, err)

	user, err := uc.LoginUser(ctx, Credentials{Username: "alice", Password: "pw"})
	require.NoError(t, err)
	assert.Equal(t, created.ID, user.ID)
	assert.Equal(t, created.Token, user.Token)
	assert.Equal(t, domain.StatusOnline, user.Status)

	stored, err := store.FindByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusOnline, stored.Status)
}

func TestLoginUser_Failures(t *testing.T) {
	uc, store := newTestUseCase(t)
	ctx := context.Background()

	created, err := uc.CreateUser(ctx, Candidate{Username: "alice", Password: "pw"})
	require.NoError(t, err)

	_, err = uc.LoginUser(ctx, Credentials{Username: "bob", Password: "pw"})
	requireKind(t, err, domain.ErrKindUserCredentialsWrong, "No user with this username exists.")

	_, err = uc.LoginUser(ctx, Credentials{Username: "alice", Password: "wrong"})
	requireKind(t, err, domain.ErrKindUserCredentialsWrong, "Incorrect password.")

	stored, err := store.FindByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusOffline, stored.Status)
}

func TestLoginUser_AlreadyLoggedIn(t *testing.T) {
	uc, _ := newTestUseCase(t)
	ctx := context.Background()

	_, err := uc.CreateUser(ctx, Candidate{Username: "alice", Password: "pw"})
	require.NoError(t, err)
	_, err = uc.LoginUser(ctx, Credentials{Username: "alice", Password: "pw"})
	require.NoError(t, err)

	_, err = uc.LoginUser(ctx, Credentials{Username: "alice", Password: "pw"})
	requireKind(t, err, domain.ErrKindUserAlreadyLoggedIn, "")
}

func TestLoginUser_ConcurrentSingleWinner(t *testing.T) {
	uc, _ := newTestUseCase(t)
	ctx := context.Background()

	_, err := uc.CreateUser(ctx, Candidate{Username: "alice", Password: "pw"})
	require.NoError(t, err)

	const n = 16
	var wg sync.WaitGroup
	errs := make([]error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = uc.LoginUser(ctx, Credentials{Username: "alice", Password: "pw"})
		}(i)
	}
	wg.Wait()

	succeeded := 0
	for _, err := range errs {
		if err == nil {
			succeeded++
			continue
		}
		kind, _ := domain.KindOf(err)
		assert.Equal(t, domain.ErrKindUserAlreadyLoggedIn, kind)
	}
	assert.Equal(t, 1, succeeded)
}

func TestLogOutUser(t *testing.T) {
	uc, store := newTestUseCase(t)
	ctx := context.Background()

	created, err := uc.CreateUser(ctx, Candidate{Username: "alice", Password: "pw"})
	require.NoError(t, err)

	_, err = uc.LogOutUser(ctx, Session{Token: created.Token})
	requireKind(t, err, domain.ErrKindUserAlreadyLoggedOut, "")

	_, err = uc.LoginUser(ctx, Credentials{Username: "alice", Password: "pw"})
	require.NoError(t, err)

	user, err := uc.LogOutUser(ctx, Session{Token: created.Token, ID: &created.ID})
	require.NoError(t, err)
	assert.Equal(t, domain.StatusOffline, user.Status)

	stored, err := store.FindByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusOffline, stored.Status)
	assert.Equal(t, created.Token, stored.Token, "token is not rotated")

	_, err = uc.LogOutUser(ctx, Session{Token: created.Token})
	requireKind(t, err, domain.ErrKindUserAlreadyLoggedOut, "")
}

func TestLogOutUser_UnknownToken(t *testing.T) {
	uc, _ := newTestUseCase(t)

	_, err := uc.LogOutUser(context.Background(), Session{Token: "missing"})
	requireKind(t, err, domain.ErrKindUserNotAvailable, "No user with same token as your session exists.")
}

func TestLoginLogoutCycle(t *testing.T) {
	uc, _ := newTestUseCase(t)
	ctx := context.Background()

	created, err := uc.CreateUser(ctx, Candidate{Username: "alice", Password: "pw"})
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		in, err := uc.LoginUser(ctx, Credentials{Username: "alice", Password: "pw"})
		require.NoError(t, err)
		assert.Equal(t, created.Token, in.Token)

		_, err = uc.LogOutUser(ctx, Session{Token: in.Token})
		require.NoError(t, err)
	}
}

func TestGetUser(t *testing.T) {
	uc, _ := newTestUseCase(t)
	ctx := context.Background()

	created, err := uc.CreateUser(ctx, Candidate{Username: "alice", Password: "pw"})
	require.NoError(t, err)

	user, err := uc.GetUser(ctx, UserRef{ID: created.ID})
	require.NoError(t, err)
	assert.Equal(t, "alice", user.Username)

	_, err = uc.GetUser(ctx, UserRef{ID: created.ID + 100})
	requireKind(t, err, domain.ErrKindUserNotAvailable, "No user with this id exists, that can be fetched.")
}

func TestUpdateUser(t *testing.T) {
	uc, store := newTestUseCase(t)
	ctx := context.Background()

	created, err := uc.CreateUser(ctx, Candidate{Username: "alice", Password: "pw"})
	require.NoError(t, err)
	birthday := time.Date(1990, 4, 12, 0, 0, 0, 0, time.UTC)

	_, err = uc.UpdateUser(ctx, UserPatch{Token: created.Token, Username: strPtr("alicia"), Birthday: &birthday}, strconv.FormatInt(created.ID, 10))
	require.NoError(t, err)

	stored, err := store.FindByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "alicia", stored.Username)
	require.NotNil(t, stored.Birthday)
	assert.True(t, stored.Birthday.Equal(birthday))
	assert.Equal(t, created.Token, stored.Token)
	assert.Equal(t, "pw", stored.Password)

	// новое имя работает для входа, старое нет
	_, err = uc.LoginUser(ctx, Credentials{Username: "alicia", Password: "pw"})
	require.NoError(t, err)
	_, err = uc.LoginUser(ctx, Credentials{Username: "alice", Password: "pw"})
	requireKind(t, err, domain.ErrKindUserCredentialsWrong, "No user with this username exists.")
}

func TestUpdateUser_PartialPatch(t *testing.T) {
	uc, store := newTestUseCase(t)
	ctx := context.Background()

	created, err := uc.CreateUser(ctx, Candidate{Username: "alice", Password: "pw"})
	require.NoError(t, err)
	id := strconv.FormatInt(created.ID, 10)

	// только дата рождения; пустое имя считается отсутствующим
	birthday := time.Date(2000, 1, 2, 0, 0, 0, 0, time.UTC)
	_, err = uc.UpdateUser(ctx, UserPatch{Token: created.Token, Username: strPtr(""), Birthday: &birthday}, id)
	require.NoError(t, err)

	stored, err := store.FindByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "alice", stored.Username)
	require.NotNil(t, stored.Birthday)

	// то же имя, без даты: ничего не меняется
	_, err = uc.UpdateUser(ctx, UserPatch{Token: created.Token, Username: strPtr("alice")}, id)
	require.NoError(t, err)

	stored, err = store.FindByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "alice", stored.Username)
	require.NotNil(t, stored.Birthday)
	assert.True(t, stored.Birthday.Equal(birthday))
}

func TestUpdateUser_Failures(t *testing.T) {
	uc, store := newTestUseCase(t)
	ctx := context.Background()

	alice, err := uc.CreateUser(ctx, Candidate{Username: "alice", Password: "pw"})
	require.NoError(t, err)
	bob, err := uc.CreateUser(ctx, Candidate{Username: "bob", Password: "pw"})
	require.NoError(t, err)
	aliceID := strconv.FormatInt(alice.ID, 10)

	tests := []struct {
		name     string
		patch    UserPatch
		targetID string
		kind     domain.ErrorKind
		msg      string
	}{
		{"non numeric id", UserPatch{Token: alice.Token}, "abc", domain.ErrKindUserNotAvailable, "No user with specified ID exists."},
		{"unknown id", UserPatch{Token: alice.Token}, "9999", domain.ErrKindUserNotAvailable, "No user with specified ID exists."},
		{"foreign token", UserPatch{Token: bob.Token, Username: strPtr("mallory")}, aliceID, domain.ErrKindUserCredentialsWrong, "You are not authorized to change this user, since tokens do not match."},
		{"taken username", UserPatch{Token: alice.Token, Username: strPtr("bob")}, aliceID, domain.ErrKindUsernameAlreadyExists, "Username is already in use!"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := uc.UpdateUser(ctx, tt.patch, tt.targetID)
			requireKind(t, err, tt.kind, tt.msg)
		})
	}

	stored, err := store.FindByID(ctx, alice.ID)
	require.NoError(t, err)
	assert.Equal(t, "alice", stored.Username)
	assert.Nil(t, stored.Birthday)
}

func TestListUsers(t *testing.T) {
	uc, _ := newTestUseCase(t)
	ctx := context.Background()

	users, err := uc.ListUsers(ctx)
	require.NoError(t, err)
	assert.Empty(t, users)

	for _, name := range []string{"a", "b", "c"} {
		_, err := uc.CreateUser(ctx, Candidate{Username: name, Password: "pw"})
		require.NoError(t, err)
	}

	users, err = uc.ListUsers(ctx)
	require.NoError(t, err)
	require.Len(t, users, 3)
	assert.Equal(t, "a", users[0].Username)
	assert.Equal(t, "c", users[2].Username)
}

type failingStorage struct {
	ports.UserStorage
	err error
}

func (f failingStorage) FindByUsername(context.Context, string) (*domain.User, error) {
	return nil, f.err
}

func TestCreateUser_StoreErrorIsNotAKind(t *testing.T) {
	boom := errors.New("connection refused")
	uc := NewUserUseCase(failingStorage{err: boom}, NewUUIDToken, 3, logger.Discard())

	_, err := uc.CreateUser(context.Background(), Candidate{Username: "alice", Password: "pw"})
	require.ErrorIs(t, err, boom)
	_, isKind := domain.KindOf(err)
	assert.False(t, isKind)
}
