package api

import (
	"context"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"

	"github.com/tazkiyahapp/tazkiyah-server/internal/domain"
)

func (s *Server) registerCatalogRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "listCourses",
		Method:      http.MethodGet,
		Path:        "/api/v1/courses",
		Summary:     "List courses",
		Description: "Returns published courses. Admins also see unpublished ones.",
		Tags:        []string{"Catalog"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleListCourses)

	huma.Register(s.api, huma.Operation{
		OperationID: "getCourse",
		Method:      http.MethodGet,
		Path:        "/api/v1/courses/{id}",
		Summary:     "Get course",
		Description: "Returns a course with its modules and lesson summaries",
		Tags:        []string{"Catalog"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleGetCourse)
}

// === DTOs ===

// CourseSummary describes a course in list responses.
type CourseSummary struct {
	ID          string `json:"id" doc:"Course ID"`
	Title       string `json:"title" doc:"Course title"`
	Slug        string `json:"slug" doc:"URL slug"`
	Description string `json:"description,omitempty" doc:"Course description"`
	IsPublished bool   `json:"is_published" doc:"Whether the course is visible to students"`
}

// CourseListOutput wraps the course list for Huma.
type CourseListOutput struct {
	Body struct {
		Courses []CourseSummary `json:"courses" doc:"Available courses"`
	}
}

// LessonSummary describes a lesson inside a course detail response.
// Access is not evaluated here; clients call the access endpoint per lesson.
type LessonSummary struct {
	ID                 string     `json:"id" doc:"Lesson ID"`
	Title              string     `json:"title" doc:"Lesson title"`
	Slug               string     `json:"slug" doc:"URL slug"`
	SortOrder          int        `json:"sort_order" doc:"Position within the module"`
	DurationSeconds    int        `json:"duration_seconds" doc:"Video length in seconds"`
	RequiresReflection bool       `json:"requires_reflection" doc:"Whether a reflection is required"`
	ReleaseAt          *time.Time `json:"release_at,omitempty" doc:"Absolute release instant, if scheduled"`
}

// ModuleDetail groups a module's lessons in a course detail response.
type ModuleDetail struct {
	ID        string          `json:"id" doc:"Module ID"`
	Title     string          `json:"title" doc:"Module title"`
	SortOrder int             `json:"sort_order" doc:"Position within the course"`
	Lessons   []LessonSummary `json:"lessons" doc:"Lessons in module order"`
}

// CourseDetailResponse is a full course with modules and lessons.
type CourseDetailResponse struct {
	CourseSummary
	Modules []ModuleDetail `json:"modules" doc:"Modules in course order"`
}

// CourseDetailInput identifies the course to fetch.
type CourseDetailInput struct {
	ID string `path:"id" doc:"Course ID"`
}

// CourseDetailOutput wraps the course detail for Huma.
type CourseDetailOutput struct {
	Body CourseDetailResponse
}

// === Handlers ===

func (s *Server) handleListCourses(ctx context.Context, _ *struct{}) (*CourseListOutput, error) {
	user, err := s.RequireUser(ctx)
	if err != nil {
		return nil, err
	}

	courses, err := s.store.ListCourses(ctx)
	if err != nil {
		return nil, err
	}

	out := &CourseListOutput{}
	out.Body.Courses = make([]CourseSummary, 0, len(courses))
	for _, course := range courses {
		if !course.IsPublished && !user.IsAdmin() {
			continue
		}
		out.Body.Courses = append(out.Body.Courses, mapCourseSummary(course))
	}

	return out, nil
}

func (s *Server) handleGetCourse(ctx context.Context, input *CourseDetailInput) (*CourseDetailOutput, error) {
	user, err := s.RequireUser(ctx)
	if err != nil {
		return nil, err
	}

	course, err := s.store.GetCourse(ctx, input.ID)
	if err != nil {
		return nil, err
	}
	if !course.IsPublished && !user.IsAdmin() {
		return nil, huma.Error404NotFound("course not found")
	}

	modules, err := s.store.GetModulesForCourse(ctx, course.ID)
	if err != nil {
		return nil, err
	}

	detail := CourseDetailResponse{
		CourseSummary: mapCourseSummary(course),
		Modules:       make([]ModuleDetail, 0, len(modules)),
	}

	for _, module := range modules {
		lessons, err := s.store.GetLessonsForModule(ctx, module.ID)
		if err != nil {
			return nil, err
		}

		md := ModuleDetail{
			ID:        module.ID,
			Title:     module.Title,
			SortOrder: module.SortOrder,
			Lessons:   make([]LessonSummary, 0, len(lessons)),
		}
		for _, lesson := range lessons {
			md.Lessons = append(md.Lessons, LessonSummary{
				ID:                 lesson.ID,
				Title:              lesson.Title,
				Slug:               lesson.Slug,
				SortOrder:          lesson.SortOrder,
				DurationSeconds:    lesson.DurationSeconds,
				RequiresReflection: lesson.RequiresReflection,
				ReleaseAt:          lesson.ReleaseAt,
			})
		}
		detail.Modules = append(detail.Modules, md)
	}

	out := &CourseDetailOutput{Body: detail}
	return out, nil
}

func mapCourseSummary(course *domain.Course) CourseSummary {
	return CourseSummary{
		ID:          course.ID,
		Title:       course.Title,
		Slug:        course.Slug,
		Description: course.Description,
		IsPublished: course.IsPublished,
	}
}
