package api

import (
	"context"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"

	"github.com/tazkiyahapp/tazkiyah-server/internal/domain"
	"github.com/tazkiyahapp/tazkiyah-server/internal/service"
)

func (s *Server) registerLessonRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "getLessonAccess",
		Method:      http.MethodGet,
		Path:        "/api/v1/lessons/{id}/access",
		Summary:     "Lesson access verdict",
		Description: "Evaluates whether the authenticated user may start the lesson right now",
		Tags:        []string{"Lessons"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleGetLessonAccess)
}

// === DTOs ===

// LessonAccessInput identifies the lesson to evaluate.
type LessonAccessInput struct {
	ID string `path:"id" doc:"Lesson ID"`
}

// EligibilityDetail carries the effective rule requirements for lock messages.
type EligibilityDetail struct {
	RequiredLevel  *domain.Level  `json:"required_level,omitempty" doc:"Minimum study level required"`
	RequiredGender *domain.Gender `json:"required_gender,omitempty" doc:"Gender the content is restricted to"`
	RequiresBayah  bool           `json:"requires_bayah" doc:"Whether bay'ah is required"`
}

// LessonAccessResponse is the gate verdict for one lesson.
type LessonAccessResponse struct {
	Allowed     bool               `json:"allowed" doc:"Whether the user may start the lesson"`
	Reasons     []string           `json:"reasons,omitempty" doc:"Denial reasons, in check order"`
	Message     string             `json:"message,omitempty" doc:"Human-readable release hint for drip denials"`
	ReleaseAt   *time.Time         `json:"release_at,omitempty" doc:"When the lesson unlocks, if scheduled"`
	Eligibility *EligibilityDetail `json:"eligibility,omitempty" doc:"Effective rule requirements"`
}

// LessonAccessOutput wraps the access response for Huma.
type LessonAccessOutput struct {
	Body LessonAccessResponse
}

// === Handlers ===

func (s *Server) handleGetLessonAccess(ctx context.Context, input *LessonAccessInput) (*LessonAccessOutput, error) {
	user, err := s.RequireUser(ctx)
	if err != nil {
		return nil, err
	}

	lesson, err := s.store.GetLesson(ctx, input.ID)
	if err != nil {
		return nil, err
	}

	verdict, err := s.services.Progression.CanAccessLesson(ctx, user, lesson)
	if err != nil {
		return nil, err
	}

	return &LessonAccessOutput{Body: mapAccessResponse(verdict)}, nil
}

// === Helpers ===

func mapAccessResponse(verdict *service.AccessVerdict) LessonAccessResponse {
	resp := LessonAccessResponse{
		Allowed:   verdict.Allowed,
		ReleaseAt: verdict.ReleaseAt,
	}

	for _, reason := range verdict.Reasons {
		resp.Reasons = append(resp.Reasons, string(reason))

		if reason == service.ReasonNotReleasedYet {
			info := service.ReleaseInfo{
				ReleaseAt:    verdict.ReleaseAt,
				Undetermined: verdict.ReleaseAt == nil,
			}
			resp.Message = service.ReleasePhrase(info, time.Now())
		}
	}

	if verdict.Eligibility != nil {
		resp.Eligibility = &EligibilityDetail{
			RequiredLevel:  verdict.Eligibility.RequiredLevel,
			RequiredGender: verdict.Eligibility.RequiredGender,
			RequiresBayah:  verdict.Eligibility.RequiresBayah,
		}
	}

	return resp
}
