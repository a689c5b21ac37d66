package store

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"github.com/tazkiyahapp/tazkiyah-server/internal/domain"
)

const rulePrefix = "rule:"

// Sentinel errors for content operations.
var (
	ErrCourseNotFound = ErrNotFound.WithMessage("course not found")
	ErrModuleNotFound = ErrNotFound.WithMessage("module not found")
	ErrLessonNotFound = ErrNotFound.WithMessage("lesson not found")
	ErrRuleNotFound   = ErrNotFound.WithMessage("content rule not found")
)

// CreateCourse creates a new course.
// Returns ErrAlreadyExists if the ID or slug is taken.
func (s *Store) CreateCourse(ctx context.Context, course *domain.Course) error {
	if err := s.Courses.Create(ctx, course.ID, course); err != nil {
		return fmt.Errorf("creating course %s: %w", course.ID, err)
	}
	return nil
}

// GetCourse retrieves a course by ID.
func (s *Store) GetCourse(ctx context.Context, id string) (*domain.Course, error) {
	course, err := s.Courses.Get(ctx, id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrCourseNotFound
		}
		return nil, fmt.Errorf("getting course %s: %w", id, err)
	}
	return course, nil
}

// GetCourseBySlug retrieves a course by its slug.
func (s *Store) GetCourseBySlug(ctx context.Context, slug string) (*domain.Course, error) {
	course, err := s.Courses.GetByIndex(ctx, "slug", slug)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrCourseNotFound
		}
		return nil, fmt.Errorf("getting course by slug %s: %w", slug, err)
	}
	return course, nil
}

// UpdateCourse updates an existing course.
func (s *Store) UpdateCourse(ctx context.Context, course *domain.Course) error {
	if err := s.Courses.Update(ctx, course.ID, course); err != nil {
		return fmt.Errorf("updating course %s: %w", course.ID, err)
	}
	return nil
}

// ListCourses returns all courses.
func (s *Store) ListCourses(ctx context.Context) ([]*domain.Course, error) {
	var courses []*domain.Course
	for course, err := range s.Courses.List(ctx) {
		if err != nil {
			return nil, err
		}
		courses = append(courses, course)
	}
	return courses, nil
}

// CreateModule creates a new course module.
func (s *Store) CreateModule(ctx context.Context, module *domain.CourseModule) error {
	if err := s.Modules.Create(ctx, module.ID, module); err != nil {
		return fmt.Errorf("creating module %s: %w", module.ID, err)
	}
	return nil
}

// GetModule retrieves a module by ID.
func (s *Store) GetModule(ctx context.Context, id string) (*domain.CourseModule, error) {
	module, err := s.Modules.Get(ctx, id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrModuleNotFound
		}
		return nil, fmt.Errorf("getting module %s: %w", id, err)
	}
	return module, nil
}

// GetModulesForCourse returns a course's modules sorted by SortOrder.
func (s *Store) GetModulesForCourse(ctx context.Context, courseID string) ([]*domain.CourseModule, error) {
	modules, err := s.Modules.getByIndexPrefix(ctx, "course", courseID+":")
	if err != nil {
		return nil, fmt.Errorf("finding modules for course %s: %w", courseID, err)
	}

	slices.SortFunc(modules, func(a, b *domain.CourseModule) int {
		return a.SortOrder - b.SortOrder
	})
	return modules, nil
}

// CreateLesson creates a new lesson.
func (s *Store) CreateLesson(ctx context.Context, lesson *domain.Lesson) error {
	if err := s.Lessons.Create(ctx, lesson.ID, lesson); err != nil {
		return fmt.Errorf("creating lesson %s: %w", lesson.ID, err)
	}
	return nil
}

// GetLesson retrieves a lesson by ID.
func (s *Store) GetLesson(ctx context.Context, id string) (*domain.Lesson, error) {
	lesson, err := s.Lessons.Get(ctx, id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrLessonNotFound
		}
		return nil, fmt.Errorf("getting lesson %s: %w", id, err)
	}
	return lesson, nil
}

// UpdateLesson updates an existing lesson.
func (s *Store) UpdateLesson(ctx context.Context, lesson *domain.Lesson) error {
	if err := s.Lessons.Update(ctx, lesson.ID, lesson); err != nil {
		return fmt.Errorf("updating lesson %s: %w", lesson.ID, err)
	}
	return nil
}

// GetLessonsForModule returns a module's lessons sorted by SortOrder.
func (s *Store) GetLessonsForModule(ctx context.Context, moduleID string) ([]*domain.Lesson, error) {
	lessons, err := s.Lessons.getByIndexPrefix(ctx, "module", moduleID+":")
	if err != nil {
		return nil, fmt.Errorf("finding lessons for module %s: %w", moduleID, err)
	}

	slices.SortFunc(lessons, func(a, b *domain.Lesson) int {
		return a.SortOrder - b.SortOrder
	})
	return lessons, nil
}

// GetLessonsForCourse returns all lessons in a course, sorted by module
// SortOrder then lesson SortOrder.
func (s *Store) GetLessonsForCourse(ctx context.Context, courseID string) ([]*domain.Lesson, error) {
	lessons, err := s.Lessons.getByIndexPrefix(ctx, "course", courseID+":")
	if err != nil {
		return nil, fmt.Errorf("finding lessons for course %s: %w", courseID, err)
	}

	modules, err := s.GetModulesForCourse(ctx, courseID)
	if err != nil {
		return nil, err
	}
	moduleOrder := make(map[string]int, len(modules))
	for _, m := range modules {
		moduleOrder[m.ID] = m.SortOrder
	}

	slices.SortFunc(lessons, func(a, b *domain.Lesson) int {
		if d := moduleOrder[a.ModuleID] - moduleOrder[b.ModuleID]; d != 0 {
			return d
		}
		return a.SortOrder - b.SortOrder
	})
	return lessons, nil
}

// UpsertContentRule creates or replaces the rule for a content node.
// At most one rule exists per node, keyed by the node's composite key.
func (s *Store) UpsertContentRule(ctx context.Context, rule *domain.ContentRule) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	key := []byte(rulePrefix + rule.Node.Key())
	if err := s.set(key, rule); err != nil {
		return fmt.Errorf("upserting rule for node %s: %w", rule.Node.Key(), err)
	}
	return nil
}

// GetContentRule retrieves the rule attached to a content node.
// Returns ErrRuleNotFound when the node carries no rule.
func (s *Store) GetContentRule(ctx context.Context, node domain.NodeRef) (*domain.ContentRule, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	key := []byte(rulePrefix + node.Key())
	var rule domain.ContentRule
	if err := s.get(key, &rule); err != nil {
		if isBadgerNotFound(err) {
			return nil, ErrRuleNotFound
		}
		return nil, fmt.Errorf("getting rule for node %s: %w", node.Key(), err)
	}
	return &rule, nil
}

// DeleteContentRule removes the rule attached to a content node.
// Idempotent: deleting a missing rule is not an error.
func (s *Store) DeleteContentRule(ctx context.Context, node domain.NodeRef) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.delete([]byte(rulePrefix + node.Key()))
}

// ErrTaskNotFound is returned when a task does not exist.
var ErrTaskNotFound = ErrNotFound.WithMessage("task not found")

// CreateTask stores a new task.
func (s *Store) CreateTask(ctx context.Context, task *domain.Task) error {
	return s.Tasks.Create(ctx, task.ID, task)
}

// GetTask retrieves a task by ID.
func (s *Store) GetTask(ctx context.Context, id string) (*domain.Task, error) {
	task, err := s.Tasks.Get(ctx, id)
	if err != nil {
		if IsNotFound(err) {
			return nil, ErrTaskNotFound
		}
		return nil, err
	}
	return task, nil
}

// GetTasksForNode returns tasks attached to a content node.
func (s *Store) GetTasksForNode(ctx context.Context, node domain.NodeRef) ([]*domain.Task, error) {
	tasks, err := s.Tasks.getByIndexPrefix(ctx, "node", node.Key()+":")
	if err != nil {
		return nil, fmt.Errorf("finding tasks for node %s: %w", node.Key(), err)
	}
	return tasks, nil
}
