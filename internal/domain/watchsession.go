package domain

import (
	"math"
	"time"
)

// SessionReuseWindow is how recently an active session must have started to be
// reused by an idempotent start. Starting again inside the window returns the
// existing session instead of creating a duplicate.
const SessionReuseWindow = 5 * time.Minute

// LessonWatchSession is a single watch attempt for a user+lesson. Its tracking
// fields mirror LessonProgress but are scoped to this session; the tracker
// updates both in lockstep.
type LessonWatchSession struct {
	Syncable
	UserID   string `json:"user_id"`
	LessonID string `json:"lesson_id"`

	StartedAt time.Time  `json:"started_at"`
	EndedAt   *time.Time `json:"ended_at,omitempty"` // Nil = active

	WatchedSeconds      int         `json:"watched_seconds"`
	LastPositionSeconds float64     `json:"last_position_seconds"`
	SeekAttempts        int         `json:"seek_attempts"`
	MaxPlaybackRate     float64     `json:"max_playback_rate"`
	Violations          []Violation `json:"violations,omitempty"`
}

// NewLessonWatchSession creates an active session starting now.
func NewLessonWatchSession(id, userID, lessonID string, now time.Time) *LessonWatchSession {
	s := &LessonWatchSession{
		UserID:          userID,
		LessonID:        lessonID,
		StartedAt:       now,
		MaxPlaybackRate: 1.0,
	}
	s.ID = id
	s.CreatedAt = now
	s.UpdatedAt = now
	return s
}

// IsActive returns true if the session has not ended.
func (s *LessonWatchSession) IsActive() bool {
	return s.EndedAt == nil
}

// IsReusable reports whether an idempotent start should return this session:
// still active and started within the reuse window.
func (s *LessonWatchSession) IsReusable(now time.Time) bool {
	return s.IsActive() && now.Sub(s.StartedAt) <= SessionReuseWindow
}

// End marks the session ended. Idempotent: an already-ended session keeps its
// original end time.
func (s *LessonWatchSession) End(now time.Time) {
	if s.EndedAt != nil {
		return
	}
	s.EndedAt = &now
	s.UpdatedAt = now
}

// ApplyWatchDelta credits watched seconds and records the reported position.
// Unlike the aggregate record, the session tracks the raw position so rewinds
// are visible in its history.
func (s *LessonWatchSession) ApplyWatchDelta(deltaSeconds int, positionSeconds float64, now time.Time) {
	s.WatchedSeconds += deltaSeconds
	s.LastPositionSeconds = positionSeconds
	s.UpdatedAt = now
}

// ObservePlaybackRate updates the running maximum playback rate.
func (s *LessonWatchSession) ObservePlaybackRate(rate float64) {
	if rate > s.MaxPlaybackRate {
		s.MaxPlaybackRate = rate
	}
}

// RecordViolation appends an anti-cheat event to the session log.
func (s *LessonWatchSession) RecordViolation(v Violation) {
	s.Violations = append(s.Violations, v)
	if v.Type == ViolationSeekForward {
		s.SeekAttempts++
	}
}

// RoundDelta converts a fractional credited delta to whole seconds.
func RoundDelta(delta float64) int {
	return int(math.Round(delta))
}
