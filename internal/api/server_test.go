package api

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/danielgtaylor/huma/v2/humatest"
	"github.com/stretchr/testify/require"

	"github.com/tazkiyahapp/tazkiyah-server/internal/auth"
	"github.com/tazkiyahapp/tazkiyah-server/internal/config"
	"github.com/tazkiyahapp/tazkiyah-server/internal/domain"
	"github.com/tazkiyahapp/tazkiyah-server/internal/id"
	"github.com/tazkiyahapp/tazkiyah-server/internal/service"
	"github.com/tazkiyahapp/tazkiyah-server/internal/store"
)

// testServer wraps the API server with a humatest client for handler tests.
type testServer struct {
	*Server
	api          humatest.TestAPI
	tokenService *auth.TokenService
	cleanup      func()
}

func setupTestServer(t *testing.T) *testServer {
	t.Helper()

	tmpDir, err := os.MkdirTemp("", "tazkiyah-api-test-*")
	require.NoError(t, err)

	st, err := store.New(filepath.Join(tmpDir, "test.db"), nil)
	require.NoError(t, err)

	keyHex, err := auth.LoadOrGenerateKey(tmpDir)
	require.NoError(t, err)

	tokenService, err := auth.NewTokenService(keyHex, 15*time.Minute)
	require.NoError(t, err)

	logger := slog.New(slog.DiscardHandler)

	gating := config.GatingConfig{
		SequentialLessons: true,
		OneLessonAtATime:  true,
	}
	watchCfg := config.WatchConfig{
		HeartbeatIntervalSeconds: 15,
		HeartbeatGraceSeconds:    5,
		MaxForwardJumpSeconds:    30,
		MaxPlaybackRate:          2.0,
		MinPlaybackRate:          0.5,
		MinWatchRatio:            0.9,
		MinWatchSeconds:          60,
	}

	eligibility := service.NewEligibilityService(st, logger)
	release := service.NewReleaseService(st, logger)

	services := &Services{
		Auth:        service.NewAuthService(st, tokenService, logger),
		Eligibility: eligibility,
		Release:     release,
		Progression: service.NewProgressionService(st, eligibility, release, gating, logger),
		Watch:       service.NewWatchService(st, watchCfg, logger),
		Journey:     service.NewJourneyService(st, logger),
	}

	s := NewServer(st, services, logger)
	testAPI := humatest.Wrap(t, s.api)

	cleanup := func() {
		_ = st.Close()
		_ = os.RemoveAll(tmpDir)
	}

	return &testServer{
		Server:       s,
		api:          testAPI,
		tokenService: tokenService,
		cleanup:      cleanup,
	}
}

// createUser creates a user directly in the store and returns it with an
// access token for authenticated requests.
func (ts *testServer) createUser(t *testing.T, mutate ...func(*domain.User)) (*domain.User, string) {
	t.Helper()

	now := time.Now()
	user := &domain.User{
		Email:       id.MustGenerate("mail") + "@test.com",
		Role:        domain.RoleStudent,
		DisplayName: "Test Student",
		Level:       domain.LevelBeginner,
	}
	user.ID = id.MustGenerate("usr")
	user.CreatedAt = now
	user.UpdatedAt = now

	for _, fn := range mutate {
		fn(user)
	}

	require.NoError(t, ts.store.CreateUser(context.Background(), user))

	token, err := ts.tokenService.GenerateAccessToken(user)
	require.NoError(t, err)

	return user, token
}

// createAdmin creates an admin user with a bearer token.
func (ts *testServer) createAdmin(t *testing.T) (*domain.User, string) {
	t.Helper()
	return ts.createUser(t, func(u *domain.User) {
		u.Role = domain.RoleAdmin
		u.DisplayName = "Test Admin"
	})
}

// createCourse seeds a published course with one module and the given number
// of lessons. Lessons are a minute long and carry sequential sort orders.
func (ts *testServer) createCourse(t *testing.T, lessonCount int) (*domain.Course, *domain.CourseModule, []*domain.Lesson) {
	t.Helper()
	ctx := context.Background()
	now := time.Now()

	course := &domain.Course{
		Title:       "Purification of the Heart",
		Slug:        "purification",
		IsPublished: true,
	}
	course.ID = id.MustGenerate("crs")
	course.CreatedAt = now
	course.UpdatedAt = now
	require.NoError(t, ts.store.CreateCourse(ctx, course))

	module := &domain.CourseModule{
		CourseID:  course.ID,
		Title:     "Foundations",
		SortOrder: 1,
	}
	module.ID = id.MustGenerate("mod")
	module.CreatedAt = now
	module.UpdatedAt = now
	require.NoError(t, ts.store.CreateModule(ctx, module))

	lessons := make([]*domain.Lesson, 0, lessonCount)
	for i := 1; i <= lessonCount; i++ {
		lesson := &domain.Lesson{
			ModuleID:        module.ID,
			CourseID:        course.ID,
			Title:           "Lesson",
			Slug:            "lesson",
			SortOrder:       i,
			DurationSeconds: 60,
		}
		lesson.ID = id.MustGenerate("les")
		lesson.CreatedAt = now
		lesson.UpdatedAt = now
		require.NoError(t, ts.store.CreateLesson(ctx, lesson))
		lessons = append(lessons, lesson)
	}

	return course, module, lessons
}
