package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/tazkiyahapp/tazkiyah-server/internal/config"
	"github.com/tazkiyahapp/tazkiyah-server/internal/domain"
	"github.com/tazkiyahapp/tazkiyah-server/internal/store"
)

const (
	// ReasonPreviousLessonIncomplete denies until the prior lesson is completed.
	ReasonPreviousLessonIncomplete Reason = "previous_lesson_incomplete"
	// ReasonReflectionRequired denies until a reflection for the prior lesson
	// has been submitted.
	ReasonReflectionRequired Reason = "reflection_required"
	// ReasonTaskIncomplete denies until the prior lesson's unlocking task is done.
	ReasonTaskIncomplete Reason = "task_incomplete"
	// ReasonNotNextLesson denies lessons ahead of the user's current position.
	ReasonNotNextLesson Reason = "not_next_lesson"
	// ReasonNotReleasedYet denies lessons whose drip release is still pending.
	ReasonNotReleasedYet Reason = "not_released_yet"
)

// AccessVerdict is the final answer to "can this user watch this lesson now".
// Denial is a normal structured result, never an error.
type AccessVerdict struct {
	Allowed bool     `json:"allowed"`
	Reasons []Reason `json:"reasons,omitempty"`

	// Eligibility carries the rule evaluation detail for message formatting.
	Eligibility *EligibilityVerdict `json:"eligibility,omitempty"`
	// ReleaseAt is set when the denial is a pending drip release.
	ReleaseAt *time.Time `json:"release_at,omitempty"`
}

func deny(reasons ...Reason) *AccessVerdict {
	return &AccessVerdict{Allowed: false, Reasons: reasons}
}

// ProgressionService composes eligibility, sequential completion, strict
// ordering, and drip release into the single lesson access decision. Checks
// run in that order and the first failure's reasons are returned; later
// checks are not evaluated.
type ProgressionService struct {
	store       *store.Store
	eligibility *EligibilityService
	release     *ReleaseService
	gating      config.GatingConfig
	logger      *slog.Logger
}

// NewProgressionService creates a new progression service. The gating config
// is injected explicitly so the decision logic stays testable with any
// combination of switches.
func NewProgressionService(
	store *store.Store,
	eligibility *EligibilityService,
	release *ReleaseService,
	gating config.GatingConfig,
	logger *slog.Logger,
) *ProgressionService {
	return &ProgressionService{
		store:       store,
		eligibility: eligibility,
		release:     release,
		gating:      gating,
		logger:      logger,
	}
}

// CanAccessLesson decides whether the user may start watching the lesson
// right now. Read-only: no entity is mutated. Always returns a verdict for
// ordinary denial; errors are reserved for broken lookups.
func (s *ProgressionService) CanAccessLesson(ctx context.Context, user *domain.User, lesson *domain.Lesson) (*AccessVerdict, error) {
	eligibility, err := s.eligibility.Evaluate(ctx, user, lesson.Node())
	if err != nil {
		return nil, fmt.Errorf("evaluate eligibility: %w", err)
	}
	if !eligibility.Allowed {
		verdict := deny(eligibility.Reasons...)
		verdict.Eligibility = eligibility
		return verdict, nil
	}

	siblings, err := s.store.GetLessonsForModule(ctx, lesson.ModuleID)
	if err != nil {
		return nil, fmt.Errorf("get module lessons: %w", err)
	}

	if s.gating.SequentialLessons {
		verdict, err := s.checkSequential(ctx, user, lesson, siblings)
		if err != nil {
			return nil, err
		}
		if verdict != nil {
			return verdict, nil
		}
	}

	if s.gating.OneLessonAtATime {
		verdict, err := s.checkOrdering(ctx, user, lesson, siblings)
		if err != nil {
			return nil, err
		}
		if verdict != nil {
			return verdict, nil
		}
	}

	release, err := s.release.Resolve(ctx, user, lesson)
	if err != nil {
		return nil, fmt.Errorf("resolve release: %w", err)
	}
	if !release.IsReleased(time.Now()) {
		verdict := deny(ReasonNotReleasedYet)
		verdict.ReleaseAt = release.ReleaseAt
		return verdict, nil
	}

	return &AccessVerdict{Allowed: true, Eligibility: eligibility}, nil
}

// checkSequential enforces completion of the lesson immediately before this
// one in the module: its progress must be completed, a reflection for it must
// have been submitted, and any task it carries with UnlockNextLesson must be
// done. The reflection check applies to every previous lesson whether or not
// it requires one; the journey materializer consults the flag instead, a
// known divergence kept as-is. Returns nil when the gate passes.
func (s *ProgressionService) checkSequential(ctx context.Context, user *domain.User, lesson *domain.Lesson, siblings []*domain.Lesson) (*AccessVerdict, error) {
	previous := previousLesson(lesson, siblings)
	if previous == nil {
		return nil, nil
	}

	progress, err := s.store.GetProgress(ctx, user.ID, previous.ID)
	if err != nil && !store.IsNotFound(err) {
		return nil, fmt.Errorf("get previous lesson progress: %w", err)
	}
	if progress == nil || !progress.IsCompleted() {
		return deny(ReasonPreviousLessonIncomplete), nil
	}

	if _, err := s.store.GetReflection(ctx, user.ID, previous.ID); err != nil {
		if store.IsNotFound(err) {
			return deny(ReasonReflectionRequired), nil
		}
		return nil, fmt.Errorf("get previous lesson reflection: %w", err)
	}

	tasks, err := s.store.GetTasksForNode(ctx, previous.Node())
	if err != nil {
		return nil, fmt.Errorf("get previous lesson tasks: %w", err)
	}
	for _, task := range tasks {
		if !task.UnlockNextLesson {
			continue
		}
		taskProgress, err := s.store.GetTaskProgress(ctx, user.ID, task.ID)
		if err != nil && !store.IsNotFound(err) {
			return nil, fmt.Errorf("get task progress: %w", err)
		}
		if taskProgress == nil || !taskProgress.IsCompleted() {
			return deny(ReasonTaskIncomplete), nil
		}
	}

	return nil, nil
}

// checkOrdering enforces one lesson at a time: the requested lesson must be
// the first not-yet-completed lesson of its module. Returns nil when the gate
// passes.
func (s *ProgressionService) checkOrdering(ctx context.Context, user *domain.User, lesson *domain.Lesson, siblings []*domain.Lesson) (*AccessVerdict, error) {
	for _, sibling := range siblings {
		progress, err := s.store.GetProgress(ctx, user.ID, sibling.ID)
		if err != nil && !store.IsNotFound(err) {
			return nil, fmt.Errorf("get lesson progress: %w", err)
		}
		if progress != nil && progress.IsCompleted() {
			continue
		}
		// First incomplete lesson in sort order.
		if sibling.ID != lesson.ID {
			return deny(ReasonNotNextLesson), nil
		}
		return nil, nil
	}
	// Every lesson in the module is completed; nothing left to order.
	return nil, nil
}

// previousLesson returns the lesson immediately before the given one by sort
// order, or nil for the first lesson of the module. Siblings are expected in
// sort order, as the store returns them.
func previousLesson(lesson *domain.Lesson, siblings []*domain.Lesson) *domain.Lesson {
	var previous *domain.Lesson
	for _, sibling := range siblings {
		if sibling.ID == lesson.ID {
			return previous
		}
		previous = sibling
	}
	return nil
}
