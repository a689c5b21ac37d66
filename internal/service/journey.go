package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/tazkiyahapp/tazkiyah-server/internal/domain"
	"github.com/tazkiyahapp/tazkiyah-server/internal/store"
)

// LessonJourneyEntry is one lesson's materialized state for display.
type LessonJourneyEntry struct {
	LessonID    string              `json:"lesson_id"`
	Title       string              `json:"title"`
	SortOrder   int                 `json:"sort_order"`
	Status      domain.LessonStatus `json:"status"`
	AvailableAt *time.Time          `json:"available_at,omitempty"`
	CompletedAt *time.Time          `json:"completed_at,omitempty"`
}

// ModuleJourney groups a module's materialized lessons.
type ModuleJourney struct {
	ModuleID  string               `json:"module_id"`
	Title     string               `json:"title"`
	SortOrder int                  `json:"sort_order"`
	Lessons   []LessonJourneyEntry `json:"lessons"`
}

// CourseJourney is the materialized view of a whole course for one user.
type CourseJourney struct {
	CourseID string          `json:"course_id"`
	Modules  []ModuleJourney `json:"modules"`
	Summary  JourneySummary  `json:"summary"`
}

// JourneySummary counts lessons by status for the course home view.
type JourneySummary struct {
	Completed  int `json:"completed"`
	InProgress int `json:"in_progress"`
	Available  int `json:"available"`
	Locked     int `json:"locked"`
}

// JourneyService recomputes and persists the denormalized per-lesson status
// for a user's course view. It also owns the write paths the statuses depend
// on: reflection submission and task check-ins.
type JourneyService struct {
	store  *store.Store
	logger *slog.Logger
}

// NewJourneyService creates a new journey service.
func NewJourneyService(store *store.Store, logger *slog.Logger) *JourneyService {
	return &JourneyService{
		store:  store,
		logger: logger,
	}
}

// MaterializeCourse recomputes every lesson status for the user's course and
// returns the resulting view. Idempotent; safe to call on every course read
// or after any completion event.
//
// Each module is walked in sort order carrying a satisfied flag: completed
// lessons keep it true, the first unsatisfied lesson becomes available (or
// stays in progress) and flips it, and everything after is locked. Unlike the
// on-demand access gate, the carried flag consults the previous lesson's
// RequiresReflection setting, and demands an approved reflection when the
// lesson asks for approval.
func (s *JourneyService) MaterializeCourse(ctx context.Context, user *domain.User, courseID string) (*CourseJourney, error) {
	modules, err := s.store.GetModulesForCourse(ctx, courseID)
	if err != nil {
		return nil, fmt.Errorf("get course modules: %w", err)
	}

	progressByLesson, err := s.progressMap(ctx, user.ID, courseID)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	journey := &CourseJourney{CourseID: courseID}

	for _, module := range modules {
		lessons, err := s.store.GetLessonsForModule(ctx, module.ID)
		if err != nil {
			return nil, fmt.Errorf("get module lessons: %w", err)
		}

		if err := s.ensureProgressRecords(ctx, user.ID, lessons, progressByLesson, now); err != nil {
			return nil, err
		}

		moduleView := ModuleJourney{
			ModuleID:  module.ID,
			Title:     module.Title,
			SortOrder: module.SortOrder,
		}

		previousSatisfied := true
		var previous *domain.Lesson
		for _, lesson := range lessons {
			progress := progressByLesson[lesson.ID]

			switch {
			case progress.IsCompleted():
				progress.Status = domain.StatusCompleted
				progress.UpdatedAt = now
			case previousSatisfied:
				satisfied, err := s.reflectionSatisfied(ctx, user.ID, previous)
				if err != nil {
					return nil, err
				}
				if satisfied {
					progress.MarkAvailable(now)
				} else {
					progress.MarkLocked(now)
				}
				previousSatisfied = false
			default:
				progress.MarkLocked(now)
			}

			if err := s.store.UpsertProgress(ctx, progress); err != nil {
				return nil, fmt.Errorf("upsert lesson progress: %w", err)
			}

			moduleView.Lessons = append(moduleView.Lessons, LessonJourneyEntry{
				LessonID:    lesson.ID,
				Title:       lesson.Title,
				SortOrder:   lesson.SortOrder,
				Status:      progress.Status,
				AvailableAt: progress.AvailableAt,
				CompletedAt: progress.CompletedAt,
			})
			journey.Summary.count(progress.Status)
			previous = lesson
		}

		journey.Modules = append(journey.Modules, moduleView)
	}

	return journey, nil
}

// ensureProgressRecords creates missing progress rows for the lessons, each
// with a bootstrap drip timestamp one day per sort order position from now.
// Existing rows are left alone, so the drip anchors at the first
// materialization and stays fixed after that.
func (s *JourneyService) ensureProgressRecords(ctx context.Context, userID string, lessons []*domain.Lesson, progressByLesson map[string]*domain.LessonProgress, now time.Time) error {
	for _, lesson := range lessons {
		if _, ok := progressByLesson[lesson.ID]; ok {
			continue
		}
		progress := domain.NewLessonProgress(userID, lesson)
		offsetDays := lesson.SortOrder - 1
		if offsetDays < 0 {
			offsetDays = 0
		}
		availableAt := now.AddDate(0, 0, offsetDays)
		progress.AvailableAt = &availableAt
		if err := s.store.UpsertProgress(ctx, progress); err != nil {
			return fmt.Errorf("create lesson progress: %w", err)
		}
		progressByLesson[lesson.ID] = progress
	}
	return nil
}

// reflectionSatisfied reports whether the previous lesson's reflection
// requirement is met. No previous lesson or no requirement passes; a
// requirement with approval demands an approved submission.
func (s *JourneyService) reflectionSatisfied(ctx context.Context, userID string, previous *domain.Lesson) (bool, error) {
	if previous == nil || !previous.RequiresReflection {
		return true, nil
	}
	reflection, err := s.store.GetReflection(ctx, userID, previous.ID)
	if err != nil {
		if store.IsNotFound(err) {
			return false, nil
		}
		return false, fmt.Errorf("get reflection: %w", err)
	}
	return reflection.Satisfies(previous.ReflectionRequireApproval), nil
}

// progressMap loads the user's existing progress rows for the course keyed by
// lesson id.
func (s *JourneyService) progressMap(ctx context.Context, userID, courseID string) (map[string]*domain.LessonProgress, error) {
	records, err := s.store.GetProgressForUserCourse(ctx, userID, courseID)
	if err != nil {
		return nil, fmt.Errorf("get course progress: %w", err)
	}
	byLesson := make(map[string]*domain.LessonProgress, len(records))
	for _, record := range records {
		byLesson[record.LessonID] = record
	}
	return byLesson, nil
}

func (s *JourneySummary) count(status domain.LessonStatus) {
	switch status {
	case domain.StatusCompleted:
		s.Completed++
	case domain.StatusInProgress:
		s.InProgress++
	case domain.StatusAvailable:
		s.Available++
	default:
		s.Locked++
	}
}

// SubmitReflection records the user's reflection for a lesson. Resubmitting
// replaces the body and resets the review to pending.
func (s *JourneyService) SubmitReflection(ctx context.Context, user *domain.User, lessonID, body string) (*domain.LessonReflection, error) {
	if _, err := s.store.GetLesson(ctx, lessonID); err != nil {
		return nil, err
	}
	reflection := domain.NewLessonReflection(user.ID, lessonID, body, time.Now())
	if err := s.store.UpsertReflection(ctx, reflection); err != nil {
		return nil, fmt.Errorf("upsert reflection: %w", err)
	}
	s.logger.Info("reflection submitted",
		"user_id", user.ID,
		"lesson_id", lessonID)
	return reflection, nil
}

// ReviewReflection sets the review status of a submitted reflection.
func (s *JourneyService) ReviewReflection(ctx context.Context, userID, lessonID string, status domain.ReviewStatus) (*domain.LessonReflection, error) {
	reflection, err := s.store.GetReflection(ctx, userID, lessonID)
	if err != nil {
		return nil, err
	}
	reflection.ReviewStatus = status
	reflection.Touch()
	if err := s.store.UpsertReflection(ctx, reflection); err != nil {
		return nil, fmt.Errorf("upsert reflection: %w", err)
	}
	return reflection, nil
}

// CheckInTask records a daily check-in against a task, creating the progress
// record on first check-in. Repeat check-ins on the same calendar day are
// no-ops. Once the required days are reached the task completes, which in
// turn satisfies any progression gate waiting on it.
func (s *JourneyService) CheckInTask(ctx context.Context, user *domain.User, taskID string) (*domain.TaskProgress, error) {
	task, err := s.store.GetTask(ctx, taskID)
	if err != nil {
		return nil, err
	}

	progress, err := s.store.GetTaskProgress(ctx, user.ID, taskID)
	if err != nil {
		if !store.IsNotFound(err) {
			return nil, fmt.Errorf("get task progress: %w", err)
		}
		progress = domain.NewTaskProgress(user.ID, taskID)
	}

	if progress.CheckIn(time.Now(), task.RequiredDays) && progress.IsCompleted() {
		s.logger.Info("task completed",
			"user_id", user.ID,
			"task_id", taskID,
			"days", len(progress.CheckinDays))
	}

	if err := s.store.UpsertTaskProgress(ctx, progress); err != nil {
		return nil, fmt.Errorf("upsert task progress: %w", err)
	}
	return progress, nil
}
