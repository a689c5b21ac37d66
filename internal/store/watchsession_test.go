package store_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tazkiyahapp/tazkiyah-server/internal/domain"
	"github.com/tazkiyahapp/tazkiyah-server/internal/store"
)

func setupTestWatchStore(t *testing.T) (*store.Store, func()) {
	t.Helper()
	tmpDir, err := os.MkdirTemp("", "watch-store-test-*")
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

func TestCreateWatchSession_RoundTrip(t *testing.T) {
	s, cleanup := setupTestWatchStore(t)
	defer cleanup()

	ctx := context.Background()
	session := domain.NewLessonWatchSession("ws-1", "usr-1", "lsn-1", time.Now())

	require.NoError(t, s.CreateWatchSession(ctx, session))

	retrieved, err := s.GetWatchSession(ctx, "ws-1")
	require.NoError(t, err)
	assert.Equal(t, "usr-1", retrieved.UserID)
	assert.True(t, retrieved.IsActive())
}

func TestGetWatchSession_NotFound(t *testing.T) {
	s, cleanup := setupTestWatchStore(t)
	defer cleanup()

	_, err := s.GetWatchSession(context.Background(), "ws-missing")
	assert.ErrorIs(t, err, store.ErrSessionNotFound)
}

func TestGetActiveWatchSession(t *testing.T) {
	s, cleanup := setupTestWatchStore(t)
	defer cleanup()

	ctx := context.Background()
	now := time.Now()

	// An ended session plus an open one for the same user+lesson.
	ended := domain.NewLessonWatchSession("ws-1", "usr-1", "lsn-1", now.Add(-time.Hour))
	ended.End(now.Add(-50 * time.Minute))
	require.NoError(t, s.CreateWatchSession(ctx, ended))

	open := domain.NewLessonWatchSession("ws-2", "usr-1", "lsn-1", now)
	require.NoError(t, s.CreateWatchSession(ctx, open))

	// A session for a different lesson should not match.
	other := domain.NewLessonWatchSession("ws-3", "usr-1", "lsn-2", now)
	require.NoError(t, s.CreateWatchSession(ctx, other))

	active, err := s.GetActiveWatchSession(ctx, "usr-1", "lsn-1")
	require.NoError(t, err)
	require.NotNil(t, active)
	assert.Equal(t, "ws-2", active.ID)
}

func TestGetActiveWatchSession_NoneOpen(t *testing.T) {
	s, cleanup := setupTestWatchStore(t)
	defer cleanup()

	ctx := context.Background()
	now := time.Now()

	ended := domain.NewLessonWatchSession("ws-1", "usr-1", "lsn-1", now.Add(-time.Hour))
	ended.End(now)
	require.NoError(t, s.CreateWatchSession(ctx, ended))

	active, err := s.GetActiveWatchSession(ctx, "usr-1", "lsn-1")
	require.NoError(t, err)
	assert.Nil(t, active)
}

func TestUpdateWatchSession(t *testing.T) {
	s, cleanup := setupTestWatchStore(t)
	defer cleanup()

	ctx := context.Background()
	now := time.Now()
	session := domain.NewLessonWatchSession("ws-1", "usr-1", "lsn-1", now)
	require.NoError(t, s.CreateWatchSession(ctx, session))

	session.ApplyWatchDelta(15, 15.0, now.Add(15*time.Second))
	session.End(now.Add(time.Minute))
	require.NoError(t, s.UpdateWatchSession(ctx, session))

	retrieved, err := s.GetWatchSession(ctx, "ws-1")
	require.NoError(t, err)
	assert.Equal(t, 15, retrieved.WatchedSeconds)
	assert.False(t, retrieved.IsActive())

	missing := domain.NewLessonWatchSession("ws-missing", "usr-1", "lsn-1", now)
	assert.ErrorIs(t, s.UpdateWatchSession(ctx, missing), store.ErrSessionNotFound)
}

func TestGetUserWatchSessions_SortedAndLimited(t *testing.T) {
	s, cleanup := setupTestWatchStore(t)
	defer cleanup()

	ctx := context.Background()
	base := time.Now()

	for i, id := range []string{"ws-oldest", "ws-middle", "ws-newest"} {
		session := domain.NewLessonWatchSession(id, "usr-1", "lsn-1", base.Add(time.Duration(i)*time.Hour))
		require.NoError(t, s.CreateWatchSession(ctx, session))
	}

	sessions, err := s.GetUserWatchSessions(ctx, "usr-1", 2)
	require.NoError(t, err)
	require.Len(t, sessions, 2)
	assert.Equal(t, "ws-newest", sessions[0].ID)
	assert.Equal(t, "ws-middle", sessions[1].ID)
}
