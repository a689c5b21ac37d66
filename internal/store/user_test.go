package store_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tazkiyahapp/tazkiyah-server/internal/domain"
	"github.com/tazkiyahapp/tazkiyah-server/internal/store"
)

func setupTestUserStore(t *testing.T) (*store.Store, func()) {
	t.Helper()
	tmpDir, err := os.MkdirTemp("", "user-store-test-*")
	require.NoError(t, err)

	dbPath := filepath.Join(tmpDir, "test.db")
	s, err := store.New(dbPath, nil)
	require.NoError(t, err)

	cleanup := func() {
		s.Close()
		os.RemoveAll(tmpDir)
	}
	return s, cleanup
}

func newTestUser(id, email string) *domain.User {
	user := &domain.User{
		Email:       email,
		Role:        domain.RoleStudent,
		DisplayName: "Test User",
		Gender:      domain.GenderFemale,
		Level:       domain.LevelBeginner,
	}
	user.ID = id
	user.InitTimestamps()
	return user
}

func TestCreateUser(t *testing.T) {
	s, cleanup := setupTestUserStore(t)
	defer cleanup()

	ctx := context.Background()
	user := newTestUser("usr-1", "aisha@example.com")

	require.NoError(t, s.CreateUser(ctx, user))

	retrieved, err := s.GetUser(ctx, "usr-1")
	require.NoError(t, err)
	assert.Equal(t, "aisha@example.com", retrieved.Email)
	assert.Equal(t, domain.RoleStudent, retrieved.Role)
}

func TestCreateUser_DuplicateEmail(t *testing.T) {
	s, cleanup := setupTestUserStore(t)
	defer cleanup()

	ctx := context.Background()
	require.NoError(t, s.CreateUser(ctx, newTestUser("usr-1", "aisha@example.com")))

	// Same email, different case.
	err := s.CreateUser(ctx, newTestUser("usr-2", "AISHA@Example.com"))
	assert.ErrorIs(t, err, store.ErrEmailExists)
}

func TestGetUserByEmail_CaseInsensitive(t *testing.T) {
	s, cleanup := setupTestUserStore(t)
	defer cleanup()

	ctx := context.Background()
	require.NoError(t, s.CreateUser(ctx, newTestUser("usr-1", "Yusuf@Example.com")))

	retrieved, err := s.GetUserByEmail(ctx, "yusuf@example.com")
	require.NoError(t, err)
	assert.Equal(t, "usr-1", retrieved.ID)
}

func TestGetUser_NotFound(t *testing.T) {
	s, cleanup := setupTestUserStore(t)
	defer cleanup()

	_, err := s.GetUser(context.Background(), "usr-missing")
	assert.ErrorIs(t, err, store.ErrUserNotFound)
}

func TestGetUser_SoftDeleted(t *testing.T) {
	s, cleanup := setupTestUserStore(t)
	defer cleanup()

	ctx := context.Background()
	user := newTestUser("usr-1", "aisha@example.com")
	require.NoError(t, s.CreateUser(ctx, user))

	user.MarkDeleted()
	require.NoError(t, s.UpdateUser(ctx, user))

	_, err := s.GetUser(ctx, "usr-1")
	assert.ErrorIs(t, err, store.ErrUserNotFound)
}

func TestUpdateUser_EmailChange(t *testing.T) {
	s, cleanup := setupTestUserStore(t)
	defer cleanup()

	ctx := context.Background()
	user := newTestUser("usr-1", "old@example.com")
	require.NoError(t, s.CreateUser(ctx, user))

	user.Email = "new@example.com"
	require.NoError(t, s.UpdateUser(ctx, user))

	// New email resolves, old does not.
	retrieved, err := s.GetUserByEmail(ctx, "new@example.com")
	require.NoError(t, err)
	assert.Equal(t, "usr-1", retrieved.ID)

	_, err = s.GetUserByEmail(ctx, "old@example.com")
	assert.ErrorIs(t, err, store.ErrUserNotFound)
}

func TestListUsers_SkipsDeleted(t *testing.T) {
	s, cleanup := setupTestUserStore(t)
	defer cleanup()

	ctx := context.Background()
	require.NoError(t, s.CreateUser(ctx, newTestUser("usr-1", "a@example.com")))

	deleted := newTestUser("usr-2", "b@example.com")
	require.NoError(t, s.CreateUser(ctx, deleted))
	deleted.MarkDeleted()
	require.NoError(t, s.UpdateUser(ctx, deleted))

	users, err := s.ListUsers(ctx)
	require.NoError(t, err)
	require.Len(t, users, 1)
	assert.Equal(t, "usr-1", users[0].ID)
}
