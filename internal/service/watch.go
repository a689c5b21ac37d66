package service

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/tazkiyahapp/tazkiyah-server/internal/config"
	"github.com/tazkiyahapp/tazkiyah-server/internal/domain"
	"github.com/tazkiyahapp/tazkiyah-server/internal/errors"
	"github.com/tazkiyahapp/tazkiyah-server/internal/id"
	"github.com/tazkiyahapp/tazkiyah-server/internal/store"
)

// VisibilityHidden is the heartbeat visibility value reported when the
// player's tab is not in the foreground.
const VisibilityHidden = "hidden"

// HeartbeatInput is the client's periodic playback report. Everything in it
// is untrusted; deltas are clamped and jumps flagged before anything counts.
type HeartbeatInput struct {
	SessionID          string   `json:"session_id"`
	PositionSeconds    float64  `json:"position_seconds"`
	PlaybackRate       float64  `json:"playback_rate"`
	PlayedDeltaSeconds *float64 `json:"played_delta_seconds,omitempty"`
	Visibility         string   `json:"visibility,omitempty"`
	IsSeeking          bool     `json:"is_seeking,omitempty"`
}

// HeartbeatResult reports the session's running totals after a heartbeat.
// Ignored is set for heartbeats against an already-ended session so clients
// can stop polling without treating it as a failure.
type HeartbeatResult struct {
	Ignored        bool `json:"ignored,omitempty"`
	WatchedSeconds int  `json:"watched_seconds"`
	SeekAttempts   int  `json:"seek_attempts"`
}

// WatchService manages watch sessions and folds heartbeat telemetry into the
// durable per-lesson progress record. Violations are logged, never blocking;
// the completion verifier reads them later.
type WatchService struct {
	store  *store.Store
	cfg    config.WatchConfig
	logger *slog.Logger
}

// NewWatchService creates a new watch service with the given anti-cheat
// thresholds.
func NewWatchService(store *store.Store, cfg config.WatchConfig, logger *slog.Logger) *WatchService {
	return &WatchService{
		store:  store,
		cfg:    cfg,
		logger: logger,
	}
}

// StartSession returns the user's active session for the lesson, creating one
// if needed. Idempotent within the reuse window: a retry or page reload
// shortly after starting gets the same session back. An active session older
// than the window is closed and replaced.
func (s *WatchService) StartSession(ctx context.Context, userID, lessonID string) (*domain.LessonWatchSession, error) {
	if _, err := s.store.GetLesson(ctx, lessonID); err != nil {
		return nil, err
	}

	now := time.Now()
	existing, err := s.store.GetActiveWatchSession(ctx, userID, lessonID)
	if err != nil {
		return nil, fmt.Errorf("get active watch session: %w", err)
	}
	if existing != nil {
		if existing.IsReusable(now) {
			return existing, nil
		}
		// Stale active session, close it so only one stays open.
		existing.End(now)
		if err := s.store.UpdateWatchSession(ctx, existing); err != nil {
			return nil, fmt.Errorf("end stale watch session: %w", err)
		}
		s.logger.Info("closed stale watch session",
			"session_id", existing.ID,
			"user_id", userID,
			"lesson_id", lessonID)
	}

	sessionID, err := id.Generate("ws")
	if err != nil {
		return nil, fmt.Errorf("generate session id: %w", err)
	}
	session := domain.NewLessonWatchSession(sessionID, userID, lessonID, now)
	if err := s.store.CreateWatchSession(ctx, session); err != nil {
		return nil, fmt.Errorf("create watch session: %w", err)
	}

	s.logger.Info("watch session started",
		"session_id", session.ID,
		"user_id", userID,
		"lesson_id", lessonID)
	return session, nil
}

// RecordHeartbeat applies one playback report to the session and the
// aggregate progress record. Heartbeats for a session that is missing or
// belongs to a different user or lesson are rejected; heartbeats for an ended
// session return an ignored result without mutating anything.
func (s *WatchService) RecordHeartbeat(ctx context.Context, userID, lessonID string, in HeartbeatInput) (*HeartbeatResult, error) {
	session, err := s.resolveSession(ctx, userID, lessonID, in.SessionID)
	if err != nil {
		return nil, err
	}
	if !session.IsActive() {
		return &HeartbeatResult{Ignored: true}, nil
	}

	progress, err := s.store.GetProgress(ctx, userID, lessonID)
	if err != nil {
		if !store.IsNotFound(err) {
			return nil, fmt.Errorf("get lesson progress: %w", err)
		}
		lesson, err := s.store.GetLesson(ctx, lessonID)
		if err != nil {
			return nil, err
		}
		progress = domain.NewLessonProgress(userID, lesson)
	}

	now := time.Now()
	lastPosition := session.LastPositionSeconds

	rate := math.Max(in.PlaybackRate, s.cfg.MinPlaybackRate)
	session.ObservePlaybackRate(rate)
	progress.ObservePlaybackRate(rate)

	delta := s.clampDelta(in, lastPosition)

	jump := in.PositionSeconds - lastPosition
	if in.IsSeeking || jump > s.cfg.MaxForwardJumpSeconds {
		violation := domain.NewSeekViolation(now, lastPosition, in.PositionSeconds)
		session.RecordViolation(violation)
		progress.RecordViolation(violation)
		s.logger.Warn("seek detected",
			"session_id", session.ID,
			"user_id", userID,
			"jump", jump)
	}

	if rate > s.cfg.MaxPlaybackRate {
		violation := domain.NewRateViolation(now, rate, s.cfg.MaxPlaybackRate)
		session.RecordViolation(violation)
		progress.RecordViolation(violation)
	}

	if in.Visibility == VisibilityHidden {
		session.RecordViolation(domain.NewTabHiddenViolation(now))
	}

	credited := domain.RoundDelta(delta)
	session.ApplyWatchDelta(credited, in.PositionSeconds, now)
	progress.ApplyWatchDelta(credited, in.PositionSeconds, now)

	if err := s.store.UpdateWatchSession(ctx, session); err != nil {
		return nil, fmt.Errorf("update watch session: %w", err)
	}
	if err := s.store.UpsertProgress(ctx, progress); err != nil {
		return nil, fmt.Errorf("upsert lesson progress: %w", err)
	}

	return &HeartbeatResult{
		WatchedSeconds: session.WatchedSeconds,
		SeekAttempts:   session.SeekAttempts,
	}, nil
}

// EndSession closes the session. Idempotent: ending an already-ended session
// keeps its original end time.
func (s *WatchService) EndSession(ctx context.Context, userID, lessonID, sessionID string) error {
	session, err := s.resolveSession(ctx, userID, lessonID, sessionID)
	if err != nil {
		return err
	}
	if !session.IsActive() {
		return nil
	}
	session.End(time.Now())
	if err := s.store.UpdateWatchSession(ctx, session); err != nil {
		return fmt.Errorf("update watch session: %w", err)
	}
	s.logger.Info("watch session ended",
		"session_id", session.ID,
		"user_id", userID,
		"watched_seconds", session.WatchedSeconds)
	return nil
}

// resolveSession loads the session and verifies ownership. A session that
// belongs to another user or lesson is reported as missing, not forbidden, so
// session ids cannot be probed.
func (s *WatchService) resolveSession(ctx context.Context, userID, lessonID, sessionID string) (*domain.LessonWatchSession, error) {
	session, err := s.store.GetWatchSession(ctx, sessionID)
	if err != nil {
		if store.IsNotFound(err) {
			return nil, errors.NotFound("watch session not found")
		}
		return nil, fmt.Errorf("get watch session: %w", err)
	}
	if session.UserID != userID || session.LessonID != lessonID {
		return nil, errors.NotFound("watch session not found")
	}
	return session, nil
}

// clampDelta bounds how much watch time a single heartbeat can credit. A
// client-reported delta is capped at one heartbeat interval plus grace; a
// position-derived delta at twice the interval. Either way a lying client
// cannot credit more than a few seconds per report.
func (s *WatchService) clampDelta(in HeartbeatInput, lastPosition float64) float64 {
	interval := float64(s.cfg.HeartbeatIntervalSeconds)
	if in.PlayedDeltaSeconds != nil {
		return clamp(*in.PlayedDeltaSeconds, 0, interval+float64(s.cfg.HeartbeatGraceSeconds))
	}
	return clamp(in.PositionSeconds-lastPosition, 0, interval*2)
}

func clamp(v, lo, hi float64) float64 {
	return math.Min(math.Max(v, lo), hi)
}
