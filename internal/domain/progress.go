package domain

import (
	"math"
	"time"
)

// LessonStatus is the denormalized per-lesson display status.
type LessonStatus string

const (
	// StatusLocked means the lesson cannot be started yet.
	StatusLocked LessonStatus = "locked"
	// StatusAvailable means the lesson can be started.
	StatusAvailable LessonStatus = "available"
	// StatusInProgress means the lesson has been started but not completed.
	StatusInProgress LessonStatus = "in_progress"
	// StatusCompleted means the lesson is done.
	StatusCompleted LessonStatus = "completed"
)

// LessonProgress is the durable, aggregate watch record for a user+lesson.
// One row per pair, created lazily on first access or first heartbeat, never
// deleted. The watch tracker accumulates metrics into it; the journey
// materializer recomputes Status.
type LessonProgress struct {
	Syncable
	UserID   string `json:"user_id"`
	LessonID string `json:"lesson_id"`
	CourseID string `json:"course_id"`

	Status      LessonStatus `json:"status"`
	CompletedAt *time.Time   `json:"completed_at,omitempty"`

	WatchedSeconds      int     `json:"watched_seconds"`
	LastPositionSeconds float64 `json:"last_position_seconds"`
	MaxPlaybackRate     float64 `json:"max_playback_rate"`
	SeekAttempts        int     `json:"seek_attempts"`

	// Violations is an append-only log of anti-cheat events.
	Violations []Violation `json:"violations,omitempty"`

	AvailableAt     *time.Time `json:"available_at,omitempty"`
	UnlockedAt      *time.Time `json:"unlocked_at,omitempty"`
	StartedAt       *time.Time `json:"started_at,omitempty"`
	LastHeartbeatAt *time.Time `json:"last_heartbeat_at,omitempty"`
}

// ProgressID generates the composite key "userID:lessonID".
func ProgressID(userID, lessonID string) string {
	return userID + ":" + lessonID
}

// NewLessonProgress creates a locked progress record for a user+lesson.
func NewLessonProgress(userID string, lesson *Lesson) *LessonProgress {
	p := &LessonProgress{
		UserID:          userID,
		LessonID:        lesson.ID,
		CourseID:        lesson.CourseID,
		Status:          StatusLocked,
		MaxPlaybackRate: 1.0,
	}
	p.ID = ProgressID(userID, lesson.ID)
	p.InitTimestamps()
	return p
}

// IsCompleted reports whether the lesson has been completed.
func (p *LessonProgress) IsCompleted() bool {
	return p.CompletedAt != nil
}

// ApplyWatchDelta credits watched seconds and advances the stored position.
// Position only moves forward; the aggregate floor-truncates positions so a
// rewound player never regresses the durable record.
func (p *LessonProgress) ApplyWatchDelta(deltaSeconds int, positionSeconds float64, now time.Time) {
	p.WatchedSeconds += deltaSeconds
	p.LastPositionSeconds = math.Max(p.LastPositionSeconds, math.Floor(positionSeconds))
	p.LastHeartbeatAt = &now
	if p.StartedAt == nil {
		p.StartedAt = &now
	}
	if p.Status == StatusAvailable || p.Status == StatusLocked {
		p.Status = StatusInProgress
	}
	p.UpdatedAt = now
}

// ObservePlaybackRate updates the running maximum playback rate.
func (p *LessonProgress) ObservePlaybackRate(rate float64) {
	if rate > p.MaxPlaybackRate {
		p.MaxPlaybackRate = rate
	}
}

// RecordViolation appends an anti-cheat event to the aggregate log.
func (p *LessonProgress) RecordViolation(v Violation) {
	p.Violations = append(p.Violations, v)
	if v.Type == ViolationSeekForward {
		p.SeekAttempts++
	}
}

// MarkAvailable transitions a locked lesson to available and stamps UnlockedAt
// the first time the transition happens. In-progress and completed lessons are
// left untouched.
func (p *LessonProgress) MarkAvailable(now time.Time) {
	if p.Status == StatusInProgress || p.Status == StatusCompleted {
		return
	}
	p.Status = StatusAvailable
	if p.UnlockedAt == nil {
		p.UnlockedAt = &now
	}
	p.UpdatedAt = now
}

// MarkLocked transitions the lesson back to locked. Completed lessons stay
// completed.
func (p *LessonProgress) MarkLocked(now time.Time) {
	if p.Status == StatusCompleted {
		return
	}
	p.Status = StatusLocked
	p.UpdatedAt = now
}
