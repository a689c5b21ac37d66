package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/tazkiyahapp/tazkiyah-server/internal/domain"
	"github.com/tazkiyahapp/tazkiyah-server/internal/store"
)

// ReleaseInfo describes when a lesson opens for a particular user.
// Undetermined means a relative offset could not be anchored (no enrollment,
// or an enrollment that never started); an undetermined lesson is treated as
// not released so content is never unlocked silently.
type ReleaseInfo struct {
	ReleaseAt    *time.Time `json:"release_at,omitempty"`
	Undetermined bool       `json:"undetermined,omitempty"`
}

// IsReleased reports whether the lesson is open at the given instant.
func (r ReleaseInfo) IsReleased(now time.Time) bool {
	if r.Undetermined {
		return false
	}
	if r.ReleaseAt == nil {
		return true
	}
	return !now.Before(*r.ReleaseAt)
}

// ReleaseService computes per-user lesson release instants for drip schedules.
type ReleaseService struct {
	store  *store.Store
	logger *slog.Logger
}

// NewReleaseService creates a new release service.
func NewReleaseService(store *store.Store, logger *slog.Logger) *ReleaseService {
	return &ReleaseService{
		store:  store,
		logger: logger,
	}
}

// Resolve computes the lesson's release info for the user, looking up the
// user's enrollment in the lesson's course when a relative offset needs an
// anchor. A missing enrollment is not an error; it makes a relative release
// undetermined.
func (s *ReleaseService) Resolve(ctx context.Context, user *domain.User, lesson *domain.Lesson) (ReleaseInfo, error) {
	var enrollment *domain.Enrollment
	if lesson.ReleaseAt == nil && lesson.ReleaseDayOffset != nil {
		e, err := s.store.GetEnrollment(ctx, user.ID, lesson.CourseID)
		if err != nil && !store.IsNotFound(err) {
			return ReleaseInfo{}, fmt.Errorf("get enrollment: %w", err)
		}
		enrollment = e
	}
	return ComputeRelease(lesson, enrollment), nil
}

// ComputeRelease derives a lesson's release info from its fields and the
// user's enrollment. Pure function. Precedence: an absolute ReleaseAt applies
// to every user and wins over a relative offset; a relative offset counts
// days from the enrollment's start; neither means no drip restriction.
func ComputeRelease(lesson *domain.Lesson, enrollment *domain.Enrollment) ReleaseInfo {
	if lesson.ReleaseAt != nil {
		at := *lesson.ReleaseAt
		return ReleaseInfo{ReleaseAt: &at}
	}
	if lesson.ReleaseDayOffset != nil {
		if !enrollment.HasAnchor() {
			return ReleaseInfo{Undetermined: true}
		}
		at := enrollment.StartedAt.AddDate(0, 0, *lesson.ReleaseDayOffset)
		return ReleaseInfo{ReleaseAt: &at}
	}
	return ReleaseInfo{}
}

// ReleasePhrase buckets the time until release into a human phrase for lock
// messages. Presentation only; gating decisions come from IsReleased.
func ReleasePhrase(info ReleaseInfo, now time.Time) string {
	if info.Undetermined {
		return "not yet scheduled"
	}
	if info.IsReleased(now) {
		return "available now"
	}
	remaining := info.ReleaseAt.Sub(now)
	switch {
	case remaining <= time.Hour:
		return "unlocks within the hour"
	case remaining <= 24*time.Hour:
		return "unlocks later today"
	case remaining <= 7*24*time.Hour:
		return "unlocks this week"
	default:
		return "unlocks on " + info.ReleaseAt.Format("January 2, 2006")
	}
}
