package directory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/esb/quicklist/internal/kv/memkv"
	"github.com/esb/quicklist/internal/models"
	"github.com/esb/quicklist/internal/session"
	"github.com/esb/quicklist/internal/store"
)

func newTestDirectory(t *testing.T) *Directory {
	backend, err := memkv.New()
	require.NoError(t, err)
	return New(store.New(backend))
}

func TestRegister(t *testing.T) {
	theDirectory := newTestDirectory(t)

	err := theDirectory.Register(context.Background(), "first@example.com", "Secret#1", "")
	require.NoError(t, err)

	t.Run("the second registration of the same email is a conflict", func(t *testing.T) {
		err := theDirectory.Register(context.Background(), "first@example.com", "Other#22", "")
		assert.ErrorIs(t, err, models.ErrConflict)
	})

	t.Run("email matching is case-sensitive", func(t *testing.T) {
		err := theDirectory.Register(context.Background(), "First@example.com", "Other#22", "")
		assert.NoError(t, err)
	})

	t.Run("empty email or password is rejected", func(t *testing.T) {
		assert.ErrorIs(t, theDirectory.Register(context.Background(), "", "Secret#1", ""), models.ErrValidation)
		assert.ErrorIs(t, theDirectory.Register(context.Background(), "second@example.com", "", ""), models.ErrValidation)
	})

	t.Run("an empty role defaults to USER", func(t *testing.T) {
		usr, found, err := theDirectory.UserByEmail(context.Background(), "first@example.com")
		require.NoError(t, err)
		require.True(t, found)
		assert.Equal(t, models.RoleUser, usr.Role)
		assert.Empty(t, usr.CreatedListCodes)
		assert.Empty(t, usr.JoinedListCodes)
	})
}

func TestAuthenticate(t *testing.T) {
	theDirectory := newTestDirectory(t)
	require.NoError(t, theDirectory.Register(context.Background(), "first@example.com", "Secret#1", ""))

	sess, err := theDirectory.Authenticate(context.Background(), "first@example.com", "Secret#1")
	require.NoError(t, err)
	assert.Equal(t, "first@example.com", sess.Email)

	t.Run("wrong password", func(t *testing.T) {
		_, err := theDirectory.Authenticate(context.Background(), "first@example.com", "wrong")
		assert.ErrorIs(t, err, models.ErrInvalidCredentials)
	})

	t.Run("unknown email", func(t *testing.T) {
		_, err := theDirectory.Authenticate(context.Background(), "nobody@example.com", "Secret#1")
		assert.ErrorIs(t, err, models.ErrInvalidCredentials)
	})
}

func TestResumeSessionAndLogout(t *testing.T) {
	theDirectory := newTestDirectory(t)
	require.NoError(t, theDirectory.Register(context.Background(), "first@example.com", "Secret#1", ""))

	_, err := theDirectory.ResumeSession(context.Background())
	assert.ErrorIs(t, err, models.ErrNoSession, "nothing is remembered before a login")

	sess, err := theDirectory.Authenticate(context.Background(), "first@example.com", "Secret#1")
	require.NoError(t, err)

	resumed, err := theDirectory.ResumeSession(context.Background())
	require.NoError(t, err)
	assert.Equal(t, sess.Email, resumed.Email)

	require.NoError(t, theDirectory.Logout(context.Background(), sess))

	_, err = theDirectory.ResumeSession(context.Background())
	assert.ErrorIs(t, err, models.ErrNoSession)

	assert.ErrorIs(t, theDirectory.Logout(context.Background(), nil), models.ErrNoSession)
}

func TestUserRecord(t *testing.T) {
	theDirectory := newTestDirectory(t)
	require.NoError(t, theDirectory.Register(context.Background(), "first@example.com", "Secret#1", ""))

	usr, err := theDirectory.UserRecord(context.Background(), session.New("first@example.com"))
	require.NoError(t, err)
	assert.Equal(t, "first@example.com", usr.Email)

	_, err = theDirectory.UserRecord(context.Background(), session.New("ghost@example.com"))
	assert.ErrorIs(t, err, models.ErrNotFound)

	_, err = theDirectory.UserRecord(context.Background(), nil)
	assert.ErrorIs(t, err, models.ErrNoSession)
}

func TestIsAdmin(t *testing.T) {
	theDirectory := newTestDirectory(t)
	require.NoError(t, theDirectory.Register(context.Background(), "admin@example.com", "Secret#1", models.RoleAdmin))
	require.NoError(t, theDirectory.Register(context.Background(), "first@example.com", "Secret#1", ""))

	isAdmin, err := theDirectory.IsAdmin(context.Background(), session.New("admin@example.com"))
	require.NoError(t, err)
	assert.True(t, isAdmin)

	isAdmin, err = theDirectory.IsAdmin(context.Background(), session.New("first@example.com"))
	require.NoError(t, err)
	assert.False(t, isAdmin)
}

func TestUserCount(t *testing.T) {
	theDirectory := newTestDirectory(t)

	count, err := theDirectory.UserCount(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, count)

	require.NoError(t, theDirectory.Register(context.Background(), "first@example.com", "Secret#1", ""))
	require.NoError(t, theDirectory.Register(context.Background(), "second@example.com", "Secret#1", ""))

	count, err = theDirectory.UserCount(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, count)
}
