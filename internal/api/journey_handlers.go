package api

import (
	"context"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"

	"github.com/tazkiyahapp/tazkiyah-server/internal/domain"
	domainerrors "github.com/tazkiyahapp/tazkiyah-server/internal/errors"
	"github.com/tazkiyahapp/tazkiyah-server/internal/service"
)

func (s *Server) registerJourneyRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "getCourseJourney",
		Method:      http.MethodGet,
		Path:        "/api/v1/courses/{id}/journey",
		Summary:     "Course journey",
		Description: "Recomputes and returns the per-lesson statuses for the authenticated user",
		Tags:        []string{"Journey"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleGetCourseJourney)

	huma.Register(s.api, huma.Operation{
		OperationID: "submitReflection",
		Method:      http.MethodPost,
		Path:        "/api/v1/lessons/{id}/reflection",
		Summary:     "Submit reflection",
		Description: "Submits (or resubmits) the user's written reflection for a lesson",
		Tags:        []string{"Journey"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleSubmitReflection)

	huma.Register(s.api, huma.Operation{
		OperationID: "reviewReflection",
		Method:      http.MethodPost,
		Path:        "/api/v1/lessons/{id}/reflection/review",
		Summary:     "Review reflection",
		Description: "Approves or rejects a student's reflection. Admin only.",
		Tags:        []string{"Journey"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleReviewReflection)
}

// === DTOs ===

// JourneyInput identifies the course to materialize.
type JourneyInput struct {
	ID string `path:"id" doc:"Course ID"`
}

// JourneyOutput wraps the materialized course journey for Huma.
type JourneyOutput struct {
	Body service.CourseJourney
}

// ReflectionRequest is the request body for a reflection submission.
type ReflectionRequest struct {
	Body string `json:"body" validate:"required,min=1,max=10000" doc:"Reflection text"`
}

// ReflectionInput wraps the reflection request for Huma.
type ReflectionInput struct {
	ID   string `path:"id" doc:"Lesson ID"`
	Body ReflectionRequest
}

// ReflectionResponse describes a stored reflection.
type ReflectionResponse struct {
	LessonID     string    `json:"lesson_id" doc:"Lesson ID"`
	SubmittedAt  time.Time `json:"submitted_at" doc:"Submission time"`
	ReviewStatus string    `json:"review_status" doc:"Review status: pending, approved, or rejected"`
}

// ReflectionOutput wraps the reflection response for Huma.
type ReflectionOutput struct {
	Body ReflectionResponse
}

// ReviewRequest is the request body for a reflection review.
type ReviewRequest struct {
	UserID string `json:"user_id" validate:"required" doc:"Student whose reflection is reviewed"`
	Status string `json:"status" validate:"required,oneof=approved rejected" doc:"Review outcome"`
}

// ReviewInput wraps the review request for Huma.
type ReviewInput struct {
	ID   string `path:"id" doc:"Lesson ID"`
	Body ReviewRequest
}

// === Handlers ===

func (s *Server) handleGetCourseJourney(ctx context.Context, input *JourneyInput) (*JourneyOutput, error) {
	user, err := s.RequireUser(ctx)
	if err != nil {
		return nil, err
	}

	journey, err := s.services.Journey.MaterializeCourse(ctx, user, input.ID)
	if err != nil {
		return nil, err
	}

	return &JourneyOutput{Body: *journey}, nil
}

func (s *Server) handleSubmitReflection(ctx context.Context, input *ReflectionInput) (*ReflectionOutput, error) {
	user, err := s.RequireUser(ctx)
	if err != nil {
		return nil, err
	}

	if input.Body.Body == "" {
		return nil, domainerrors.Validation("reflection body is required")
	}

	reflection, err := s.services.Journey.SubmitReflection(ctx, user, input.ID, input.Body.Body)
	if err != nil {
		return nil, err
	}

	return &ReflectionOutput{Body: mapReflection(reflection)}, nil
}

func (s *Server) handleReviewReflection(ctx context.Context, input *ReviewInput) (*ReflectionOutput, error) {
	if _, err := s.RequireAdmin(ctx); err != nil {
		return nil, err
	}

	status := domain.ReviewStatus(input.Body.Status)
	if status != domain.ReviewApproved && status != domain.ReviewRejected {
		return nil, domainerrors.Validation("status must be approved or rejected")
	}

	reflection, err := s.services.Journey.ReviewReflection(ctx, input.Body.UserID, input.ID, status)
	if err != nil {
		return nil, err
	}

	return &ReflectionOutput{Body: mapReflection(reflection)}, nil
}

func mapReflection(reflection *domain.LessonReflection) ReflectionResponse {
	return ReflectionResponse{
		LessonID:     reflection.LessonID,
		SubmittedAt:  reflection.SubmittedAt,
		ReviewStatus: string(reflection.ReviewStatus),
	}
}
