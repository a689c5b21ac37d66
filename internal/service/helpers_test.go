package service

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/tazkiyahapp/tazkiyah-server/internal/domain"
	"github.com/tazkiyahapp/tazkiyah-server/internal/id"
	"github.com/tazkiyahapp/tazkiyah-server/internal/store"
)

// newTestStore opens a throwaway badger store cleaned up with the test.
func newTestStore(t *testing.T) *store.Store {
	t.Helper()

	tmpDir, err := os.MkdirTemp("", "service-test-*")
	require.NoError(t, err)

	testStore, err := store.New(filepath.Join(tmpDir, "db"), nil)
	require.NoError(t, err)

	t.Cleanup(func() {
		testStore.Close()
		os.RemoveAll(tmpDir)
	})
	return testStore
}

func testLogger() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

func createTestUser(t *testing.T, s *store.Store, mutate func(*domain.User)) *domain.User {
	t.Helper()

	user := &domain.User{
		Email:       id.MustGenerate("u") + "@test.com",
		Role:        domain.RoleStudent,
		DisplayName: "Test Student",
		Level:       domain.LevelBeginner,
	}
	user.ID = id.MustGenerate("usr")
	user.InitTimestamps()
	if mutate != nil {
		mutate(user)
	}
	require.NoError(t, s.CreateUser(context.Background(), user))
	return user
}

func createTestCourse(t *testing.T, s *store.Store, title string) *domain.Course {
	t.Helper()

	course := &domain.Course{
		Title:       title,
		Slug:        id.MustGenerate("slug"),
		IsPublished: true,
	}
	course.ID = id.MustGenerate("crs")
	course.InitTimestamps()
	require.NoError(t, s.CreateCourse(context.Background(), course))
	return course
}

func createTestModule(t *testing.T, s *store.Store, courseID string, sortOrder int) *domain.CourseModule {
	t.Helper()

	module := &domain.CourseModule{
		CourseID:  courseID,
		Title:     "Module",
		SortOrder: sortOrder,
	}
	module.ID = id.MustGenerate("mod")
	module.InitTimestamps()
	require.NoError(t, s.CreateModule(context.Background(), module))
	return module
}

func createTestLesson(t *testing.T, s *store.Store, module *domain.CourseModule, sortOrder int, mutate func(*domain.Lesson)) *domain.Lesson {
	t.Helper()

	lesson := &domain.Lesson{
		ModuleID:        module.ID,
		CourseID:        module.CourseID,
		Title:           "Lesson",
		Slug:            id.MustGenerate("slug"),
		SortOrder:       sortOrder,
		DurationSeconds: 600,
	}
	lesson.ID = id.MustGenerate("lsn")
	lesson.InitTimestamps()
	if mutate != nil {
		mutate(lesson)
	}
	require.NoError(t, s.CreateLesson(context.Background(), lesson))
	return lesson
}

func attachRule(t *testing.T, s *store.Store, node domain.NodeRef, mutate func(*domain.ContentRule)) *domain.ContentRule {
	t.Helper()

	rule := &domain.ContentRule{Node: node}
	rule.ID = id.MustGenerate("rule")
	rule.InitTimestamps()
	if mutate != nil {
		mutate(rule)
	}
	require.NoError(t, s.UpsertContentRule(context.Background(), rule))
	return rule
}

// completeLesson marks a lesson finished for the user.
func completeLesson(t *testing.T, s *store.Store, userID string, lesson *domain.Lesson) {
	t.Helper()

	progress := domain.NewLessonProgress(userID, lesson)
	now := time.Now()
	progress.Status = domain.StatusCompleted
	progress.CompletedAt = &now
	require.NoError(t, s.UpsertProgress(context.Background(), progress))
}

func submitTestReflection(t *testing.T, s *store.Store, userID, lessonID string) *domain.LessonReflection {
	t.Helper()

	reflection := domain.NewLessonReflection(userID, lessonID, "reflection body", time.Now())
	require.NoError(t, s.UpsertReflection(context.Background(), reflection))
	return reflection
}

func levelPtr(l domain.Level) *domain.Level    { return &l }
func genderPtr(g domain.Gender) *domain.Gender { return &g }
func intPtr(i int) *int                        { return &i }
func floatPtr(f float64) *float64              { return &f }
func timePtr(t time.Time) *time.Time           { return &t }
