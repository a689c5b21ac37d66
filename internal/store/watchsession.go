package store

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"github.com/tazkiyahapp/tazkiyah-server/internal/domain"
)

// ErrSessionNotFound is returned when a watch session cannot be found by ID.
var ErrSessionNotFound = ErrNotFound.WithMessage("watch session not found")

// GetWatchSession retrieves a watch session by ID.
func (s *Store) GetWatchSession(ctx context.Context, id string) (*domain.LessonWatchSession, error) {
	session, err := s.WatchSessions.Get(ctx, id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrSessionNotFound
		}
		return nil, fmt.Errorf("getting watch session %s: %w", id, err)
	}
	return session, nil
}

// CreateWatchSession creates a new watch session.
func (s *Store) CreateWatchSession(ctx context.Context, session *domain.LessonWatchSession) error {
	if err := s.WatchSessions.Create(ctx, session.ID, session); err != nil {
		return fmt.Errorf("creating watch session %s: %w", session.ID, err)
	}
	return nil
}

// UpdateWatchSession updates an existing watch session.
func (s *Store) UpdateWatchSession(ctx context.Context, session *domain.LessonWatchSession) error {
	if err := s.WatchSessions.Update(ctx, session.ID, session); err != nil {
		if errors.Is(err, ErrNotFound) {
			return ErrSessionNotFound
		}
		return fmt.Errorf("updating watch session %s: %w", session.ID, err)
	}
	return nil
}

// GetActiveWatchSession returns the open (un-ended) session for a user+lesson.
// Returns nil if no open session exists. If data corruption left multiple
// open sessions, the most recently updated one wins.
func (s *Store) GetActiveWatchSession(ctx context.Context, userID, lessonID string) (*domain.LessonWatchSession, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	sessions, err := s.WatchSessions.getByIndexPrefix(ctx, "user_lesson", userID+":"+lessonID+":")
	if err != nil {
		return nil, fmt.Errorf("finding sessions for user %s lesson %s: %w", userID, lessonID, err)
	}

	var active []*domain.LessonWatchSession
	for _, session := range sessions {
		if session.IsActive() {
			active = append(active, session)
		}
	}

	if len(active) == 0 {
		return nil, nil
	}

	if len(active) > 1 {
		if s.logger != nil {
			s.logger.Warn("multiple open watch sessions found for user+lesson",
				"user_id", userID,
				"lesson_id", lessonID,
				"count", len(active))
		}

		mostRecent := active[0]
		for _, session := range active[1:] {
			if session.UpdatedAt.After(mostRecent.UpdatedAt) {
				mostRecent = session
			}
		}
		return mostRecent, nil
	}

	return active[0], nil
}

// GetWatchSessionsForUserLesson returns all sessions for a user+lesson combination.
func (s *Store) GetWatchSessionsForUserLesson(ctx context.Context, userID, lessonID string) ([]*domain.LessonWatchSession, error) {
	sessions, err := s.WatchSessions.getByIndexPrefix(ctx, "user_lesson", userID+":"+lessonID+":")
	if err != nil {
		return nil, fmt.Errorf("finding sessions for user %s lesson %s: %w", userID, lessonID, err)
	}
	return sessions, nil
}

// GetUserWatchSessions returns a user's watch sessions sorted by StartedAt
// descending. Limit controls how many to return (0 = all).
func (s *Store) GetUserWatchSessions(ctx context.Context, userID string, limit int) ([]*domain.LessonWatchSession, error) {
	sessions, err := s.WatchSessions.getByIndexPrefix(ctx, "user", userID+":")
	if err != nil {
		return nil, fmt.Errorf("finding sessions for user %s: %w", userID, err)
	}

	slices.SortFunc(sessions, func(a, b *domain.LessonWatchSession) int {
		return b.StartedAt.Compare(a.StartedAt)
	})

	if limit > 0 && len(sessions) > limit {
		sessions = sessions[:limit]
	}

	return sessions, nil
}
