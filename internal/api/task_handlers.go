package api

import (
	"context"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"
)

func (s *Server) registerTaskRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "checkInTask",
		Method:      http.MethodPost,
		Path:        "/api/v1/tasks/{id}/checkin",
		Summary:     "Task check-in",
		Description: "Records a daily check-in for the task. Same-day repeats are ignored.",
		Tags:        []string{"Tasks"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleCheckInTask)
}

// === DTOs ===

// TaskCheckInInput identifies the task to check in against.
type TaskCheckInInput struct {
	ID string `path:"id" doc:"Task ID"`
}

// TaskProgressResponse describes the user's progress on a task.
type TaskProgressResponse struct {
	TaskID       string     `json:"task_id" doc:"Task ID"`
	Status       string     `json:"status" doc:"Progress status: in_progress or completed"`
	CheckedDays  int        `json:"checked_days" doc:"Distinct days checked in so far"`
	RequiredDays int        `json:"required_days" doc:"Distinct days required for completion"`
	CompletedAt  *time.Time `json:"completed_at,omitempty" doc:"Completion time, once reached"`
}

// TaskProgressOutput wraps the task progress response for Huma.
type TaskProgressOutput struct {
	Body TaskProgressResponse
}

// === Handlers ===

func (s *Server) handleCheckInTask(ctx context.Context, input *TaskCheckInInput) (*TaskProgressOutput, error) {
	user, err := s.RequireUser(ctx)
	if err != nil {
		return nil, err
	}

	task, err := s.store.GetTask(ctx, input.ID)
	if err != nil {
		return nil, err
	}

	progress, err := s.services.Journey.CheckInTask(ctx, user, task.ID)
	if err != nil {
		return nil, err
	}

	return &TaskProgressOutput{
		Body: TaskProgressResponse{
			TaskID:       progress.TaskID,
			Status:       string(progress.Status),
			CheckedDays:  len(progress.CheckinDays),
			RequiredDays: task.RequiredDays,
			CompletedAt:  progress.CompletedAt,
		},
	}, nil
}
