package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tazkiyahapp/tazkiyah-server/internal/domain"
)

func TestComputeRelease_AbsoluteWinsOverRelative(t *testing.T) {
	past := time.Now().Add(-time.Hour)
	lesson := &domain.Lesson{
		ReleaseAt:        &past,
		ReleaseDayOffset: intPtr(30), // Would imply a far-future date
	}
	enrollment := domain.NewEnrollment("enr-1", "usr-1", "crs-1", time.Now())

	info := ComputeRelease(lesson, enrollment)

	require.NotNil(t, info.ReleaseAt)
	assert.Equal(t, past, *info.ReleaseAt)
	assert.True(t, info.IsReleased(time.Now()))
}

func TestComputeRelease_RelativeOffsetBoundary(t *testing.T) {
	enrolledAt := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	lesson := &domain.Lesson{ReleaseDayOffset: intPtr(3)}
	enrollment := domain.NewEnrollment("enr-1", "usr-1", "crs-1", enrolledAt)

	info := ComputeRelease(lesson, enrollment)

	require.NotNil(t, info.ReleaseAt)
	assert.Equal(t, enrolledAt.AddDate(0, 0, 3), *info.ReleaseAt)
	assert.False(t, info.IsReleased(enrolledAt.AddDate(0, 0, 2)))
	assert.True(t, info.IsReleased(enrolledAt.AddDate(0, 0, 3)))
}

func TestComputeRelease_UndeterminedWithoutAnchor(t *testing.T) {
	lesson := &domain.Lesson{ReleaseDayOffset: intPtr(3)}

	t.Run("no enrollment", func(t *testing.T) {
		info := ComputeRelease(lesson, nil)
		assert.True(t, info.Undetermined)
		assert.False(t, info.IsReleased(time.Now()))
	})

	t.Run("enrollment never started", func(t *testing.T) {
		enrollment := &domain.Enrollment{UserID: "usr-1", CourseID: "crs-1"}
		info := ComputeRelease(lesson, enrollment)
		assert.True(t, info.Undetermined)
		assert.False(t, info.IsReleased(time.Now()))
	})
}

func TestComputeRelease_NoDripFields(t *testing.T) {
	info := ComputeRelease(&domain.Lesson{}, nil)

	assert.Nil(t, info.ReleaseAt)
	assert.False(t, info.Undetermined)
	assert.True(t, info.IsReleased(time.Now()))
}

func TestReleaseService_Resolve_LooksUpEnrollment(t *testing.T) {
	testStore := newTestStore(t)
	svc := NewReleaseService(testStore, testLogger())
	ctx := context.Background()

	course := createTestCourse(t, testStore, "Dripped Course")
	module := createTestModule(t, testStore, course.ID, 1)
	lesson := createTestLesson(t, testStore, module, 1, func(l *domain.Lesson) {
		l.ReleaseDayOffset = intPtr(2)
	})
	user := createTestUser(t, testStore, nil)

	// Not enrolled: undetermined, treated as not released.
	info, err := svc.Resolve(ctx, user, lesson)
	require.NoError(t, err)
	assert.True(t, info.Undetermined)
	assert.False(t, info.IsReleased(time.Now()))

	// Enrolled three days ago: a two day offset has passed.
	enrolledAt := time.Now().AddDate(0, 0, -3)
	enrollment := domain.NewEnrollment(domain.EnrollmentID(user.ID, course.ID), user.ID, course.ID, enrolledAt)
	require.NoError(t, testStore.UpsertEnrollment(ctx, enrollment))

	info, err = svc.Resolve(ctx, user, lesson)
	require.NoError(t, err)
	assert.False(t, info.Undetermined)
	assert.True(t, info.IsReleased(time.Now()))
}

func TestReleasePhrase(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name string
		info ReleaseInfo
		want string
	}{
		{"released", ReleaseInfo{}, "available now"},
		{"undetermined", ReleaseInfo{Undetermined: true}, "not yet scheduled"},
		{"within hour", ReleaseInfo{ReleaseAt: timePtr(now.Add(30 * time.Minute))}, "unlocks within the hour"},
		{"same day", ReleaseInfo{ReleaseAt: timePtr(now.Add(10 * time.Hour))}, "unlocks later today"},
		{"within week", ReleaseInfo{ReleaseAt: timePtr(now.AddDate(0, 0, 4))}, "unlocks this week"},
		{"far future", ReleaseInfo{ReleaseAt: timePtr(now.AddDate(0, 1, 0))}, "unlocks on April 1, 2026"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ReleasePhrase(tt.info, now))
		})
	}
}
