package api

import "github.com/tazkiyahapp/tazkiyah-server/internal/service"

// Services holds all service dependencies for the API server.
// This reduces the parameter count for NewServer and improves testability.
type Services struct {
	Auth        *service.AuthService
	Eligibility *service.EligibilityService
	Release     *service.ReleaseService
	Progression *service.ProgressionService
	Watch       *service.WatchService
	Journey     *service.JourneyService
}
