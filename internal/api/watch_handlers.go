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

func (s *Server) registerWatchRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "startWatchSession",
		Method:      http.MethodPost,
		Path:        "/api/v1/lessons/{id}/watch/start",
		Summary:     "Start watch session",
		Description: "Starts (or resumes) a watch session for the lesson. Idempotent within the reuse window.",
		Tags:        []string{"Watch"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleStartWatchSession)

	huma.Register(s.api, huma.Operation{
		OperationID: "recordHeartbeat",
		Method:      http.MethodPost,
		Path:        "/api/v1/lessons/{id}/watch/heartbeat",
		Summary:     "Record playback heartbeat",
		Description: "Folds a periodic playback report into the session and lesson progress. Rate limited per session.",
		Tags:        []string{"Watch"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleRecordHeartbeat)

	huma.Register(s.api, huma.Operation{
		OperationID: "endWatchSession",
		Method:      http.MethodPost,
		Path:        "/api/v1/lessons/{id}/watch/end",
		Summary:     "End watch session",
		Description: "Marks the session ended. Idempotent.",
		Tags:        []string{"Watch"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleEndWatchSession)
}

// === DTOs ===

// WatchStartInput identifies the lesson to start watching.
type WatchStartInput struct {
	ID string `path:"id" doc:"Lesson ID"`
}

// WatchSessionResponse describes a watch session's current state.
type WatchSessionResponse struct {
	SessionID           string     `json:"session_id" doc:"Watch session ID"`
	StartedAt           time.Time  `json:"started_at" doc:"Session start time"`
	EndedAt             *time.Time `json:"ended_at,omitempty" doc:"Session end time, nil while active"`
	WatchedSeconds      int        `json:"watched_seconds" doc:"Credited watch time this session"`
	LastPositionSeconds float64    `json:"last_position_seconds" doc:"Last reported playback position"`
	SeekAttempts        int        `json:"seek_attempts" doc:"Flagged forward seeks this session"`
}

// WatchSessionOutput wraps the session response for Huma.
type WatchSessionOutput struct {
	Body WatchSessionResponse
}

// HeartbeatRequest is the client's periodic playback report.
type HeartbeatRequest struct {
	SessionID          string   `json:"session_id" validate:"required" doc:"Watch session ID"`
	PositionSeconds    float64  `json:"position_seconds" validate:"min=0" doc:"Current playback position"`
	PlaybackRate       float64  `json:"playback_rate" validate:"min=0" doc:"Current playback rate"`
	PlayedDeltaSeconds *float64 `json:"played_delta_seconds,omitempty" doc:"Seconds played since the last heartbeat, as measured by the client"`
	Visibility         string   `json:"visibility,omitempty" doc:"Tab visibility: visible or hidden"`
	IsSeeking          bool     `json:"is_seeking,omitempty" doc:"Whether the client reports an in-progress seek"`
}

// HeartbeatInput wraps the heartbeat request for Huma.
type HeartbeatInput struct {
	ID   string `path:"id" doc:"Lesson ID"`
	Body HeartbeatRequest
}

// HeartbeatResponse reports session totals after a heartbeat.
type HeartbeatResponse struct {
	Ignored        bool `json:"ignored,omitempty" doc:"True when the session has already ended"`
	WatchedSeconds int  `json:"watched_seconds" doc:"Credited watch time this session"`
	SeekAttempts   int  `json:"seek_attempts" doc:"Flagged forward seeks this session"`
}

// HeartbeatOutput wraps the heartbeat response for Huma.
type HeartbeatOutput struct {
	Body HeartbeatResponse
}

// WatchEndRequest identifies the session to end.
type WatchEndRequest struct {
	SessionID string `json:"session_id" validate:"required" doc:"Watch session ID"`
}

// WatchEndInput wraps the end request for Huma.
type WatchEndInput struct {
	ID   string `path:"id" doc:"Lesson ID"`
	Body WatchEndRequest
}

// MessageResponse contains a simple message.
type MessageResponse struct {
	Message string `json:"message" doc:"Success message"`
}

// MessageOutput wraps the message response for Huma.
type MessageOutput struct {
	Body MessageResponse
}

// === Handlers ===

func (s *Server) handleStartWatchSession(ctx context.Context, input *WatchStartInput) (*WatchSessionOutput, error) {
	user, err := s.RequireUser(ctx)
	if err != nil {
		return nil, err
	}

	lesson, err := s.store.GetLesson(ctx, input.ID)
	if err != nil {
		return nil, err
	}

	// The gate guards playback start; heartbeats for an already-open session
	// are not re-gated.
	verdict, err := s.services.Progression.CanAccessLesson(ctx, user, lesson)
	if err != nil {
		return nil, err
	}
	if !verdict.Allowed {
		return nil, domainerrors.Forbidden("lesson is locked").WithDetails(mapAccessResponse(verdict))
	}

	session, err := s.services.Watch.StartSession(ctx, user.ID, lesson.ID)
	if err != nil {
		return nil, err
	}

	return &WatchSessionOutput{Body: mapWatchSession(session)}, nil
}

func (s *Server) handleRecordHeartbeat(ctx context.Context, input *HeartbeatInput) (*HeartbeatOutput, error) {
	user, err := s.RequireUser(ctx)
	if err != nil {
		return nil, err
	}

	if input.Body.SessionID == "" {
		return nil, domainerrors.Validation("session_id is required")
	}
	if err := s.checkRateLimit(s.heartbeatRateLimiter, input.Body.SessionID, "heartbeat"); err != nil {
		return nil, err
	}

	result, err := s.services.Watch.RecordHeartbeat(ctx, user.ID, input.ID, service.HeartbeatInput{
		SessionID:          input.Body.SessionID,
		PositionSeconds:    input.Body.PositionSeconds,
		PlaybackRate:       input.Body.PlaybackRate,
		PlayedDeltaSeconds: input.Body.PlayedDeltaSeconds,
		Visibility:         input.Body.Visibility,
		IsSeeking:          input.Body.IsSeeking,
	})
	if err != nil {
		return nil, err
	}

	return &HeartbeatOutput{
		Body: HeartbeatResponse{
			Ignored:        result.Ignored,
			WatchedSeconds: result.WatchedSeconds,
			SeekAttempts:   result.SeekAttempts,
		},
	}, nil
}

func (s *Server) handleEndWatchSession(ctx context.Context, input *WatchEndInput) (*MessageOutput, error) {
	user, err := s.RequireUser(ctx)
	if err != nil {
		return nil, err
	}

	if err := s.services.Watch.EndSession(ctx, user.ID, input.ID, input.Body.SessionID); err != nil {
		return nil, err
	}

	return &MessageOutput{Body: MessageResponse{Message: "Session ended"}}, nil
}

// === Helpers ===

func mapWatchSession(session *domain.LessonWatchSession) WatchSessionResponse {
	return WatchSessionResponse{
		SessionID:           session.ID,
		StartedAt:           session.StartedAt,
		EndedAt:             session.EndedAt,
		WatchedSeconds:      session.WatchedSeconds,
		LastPositionSeconds: session.LastPositionSeconds,
		SeekAttempts:        session.SeekAttempts,
	}
}
