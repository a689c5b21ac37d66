package store

import (
	"context"
	"encoding/json/v2"
	"fmt"

	"github.com/dgraph-io/badger/v4"

	"github.com/tazkiyahapp/tazkiyah-server/internal/domain"
)

const (
	progressPrefix     = "progress:"
	reflectionPrefix   = "reflection:"
	taskProgressPrefix = "taskprog:"
)

// Sentinel errors for progress operations.
var (
	ErrProgressNotFound     = ErrNotFound.WithMessage("lesson progress not found")
	ErrReflectionNotFound   = ErrNotFound.WithMessage("reflection not found")
	ErrTaskProgressNotFound = ErrNotFound.WithMessage("task progress not found")
)

// GetProgress retrieves lesson progress for a user+lesson.
func (s *Store) GetProgress(ctx context.Context, userID, lessonID string) (*domain.LessonProgress, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	key := []byte(progressPrefix + domain.ProgressID(userID, lessonID))
	var progress domain.LessonProgress
	if err := s.get(key, &progress); err != nil {
		if isBadgerNotFound(err) {
			return nil, ErrProgressNotFound
		}
		return nil, fmt.Errorf("getting progress: %w", err)
	}
	return &progress, nil
}

// UpsertProgress creates or updates lesson progress.
// One record exists per user+lesson, keyed by the composite ID.
func (s *Store) UpsertProgress(ctx context.Context, progress *domain.LessonProgress) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	key := []byte(progressPrefix + domain.ProgressID(progress.UserID, progress.LessonID))
	if err := s.set(key, progress); err != nil {
		return fmt.Errorf("upserting progress: %w", err)
	}
	return nil
}

// GetProgressForUser returns all lesson progress records for a user.
func (s *Store) GetProgressForUser(ctx context.Context, userID string) ([]*domain.LessonProgress, error) {
	return s.scanProgress(ctx, progressPrefix+userID+":")
}

// GetProgressForUserCourse returns a user's progress records within one course.
// Filters the user scan by the denormalized CourseID.
func (s *Store) GetProgressForUserCourse(ctx context.Context, userID, courseID string) ([]*domain.LessonProgress, error) {
	all, err := s.GetProgressForUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	var filtered []*domain.LessonProgress
	for _, p := range all {
		if p.CourseID == courseID {
			filtered = append(filtered, p)
		}
	}
	return filtered, nil
}

// scanProgress retrieves progress records matching a key prefix.
func (s *Store) scanProgress(ctx context.Context, prefix string) ([]*domain.LessonProgress, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var results []*domain.LessonProgress

	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(prefix)
		opts.PrefetchValues = true

		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Seek([]byte(prefix)); it.ValidForPrefix([]byte(prefix)); it.Next() {
			var progress domain.LessonProgress
			err := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, &progress)
			})
			if err != nil {
				return err
			}
			p := progress
			results = append(results, &p)
		}
		return nil
	})

	if err != nil {
		return nil, err
	}
	return results, nil
}

// GetReflection retrieves a user's reflection for a lesson.
func (s *Store) GetReflection(ctx context.Context, userID, lessonID string) (*domain.LessonReflection, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	key := []byte(reflectionPrefix + domain.ReflectionID(userID, lessonID))
	var reflection domain.LessonReflection
	if err := s.get(key, &reflection); err != nil {
		if isBadgerNotFound(err) {
			return nil, ErrReflectionNotFound
		}
		return nil, fmt.Errorf("getting reflection: %w", err)
	}
	return &reflection, nil
}

// UpsertReflection creates or updates a lesson reflection.
// Resubmission replaces the previous body and resets review state upstream.
func (s *Store) UpsertReflection(ctx context.Context, reflection *domain.LessonReflection) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	key := []byte(reflectionPrefix + domain.ReflectionID(reflection.UserID, reflection.LessonID))
	if err := s.set(key, reflection); err != nil {
		return fmt.Errorf("upserting reflection: %w", err)
	}
	return nil
}

// GetTaskProgress retrieves a user's progress on a task.
func (s *Store) GetTaskProgress(ctx context.Context, userID, taskID string) (*domain.TaskProgress, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	key := []byte(taskProgressPrefix + domain.TaskProgressID(userID, taskID))
	var tp domain.TaskProgress
	if err := s.get(key, &tp); err != nil {
		if isBadgerNotFound(err) {
			return nil, ErrTaskProgressNotFound
		}
		return nil, fmt.Errorf("getting task progress: %w", err)
	}
	return &tp, nil
}

// UpsertTaskProgress creates or updates task progress.
func (s *Store) UpsertTaskProgress(ctx context.Context, tp *domain.TaskProgress) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	key := []byte(taskProgressPrefix + domain.TaskProgressID(tp.UserID, tp.TaskID))
	if err := s.set(key, tp); err != nil {
		return fmt.Errorf("upserting task progress: %w", err)
	}
	return nil
}
