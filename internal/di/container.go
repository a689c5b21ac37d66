// Package di provides dependency injection configuration for the Tazkiyah server.
package di

import (
	"github.com/samber/do/v2"

	"github.com/tazkiyahapp/tazkiyah-server/internal/auth"
	"github.com/tazkiyahapp/tazkiyah-server/internal/config"
	"github.com/tazkiyahapp/tazkiyah-server/internal/di/providers"
	"github.com/tazkiyahapp/tazkiyah-server/internal/logger"
	"github.com/tazkiyahapp/tazkiyah-server/internal/service"
)

// NewContainer creates and configures the DI container with all providers.
func NewContainer() *do.RootScope {
	injector := do.New()

	// Core infrastructure
	do.Provide(injector, providers.ProvideConfig)
	do.Provide(injector, providers.ProvideLogger)
	do.Provide(injector, providers.ProvideAuthKey)

	// Database layer
	do.Provide(injector, providers.ProvideStore)

	// Auth layer
	do.Provide(injector, providers.ProvideTokenService)

	// Business services
	do.Provide(injector, providers.ProvideAuthService)
	do.Provide(injector, providers.ProvideEligibilityService)
	do.Provide(injector, providers.ProvideReleaseService)
	do.Provide(injector, providers.ProvideProgressionService)
	do.Provide(injector, providers.ProvideWatchService)
	do.Provide(injector, providers.ProvideJourneyService)

	// Server
	do.Provide(injector, providers.ProvideHTTPServer)

	return injector
}

// Bootstrap initializes all services and returns handles for lifecycle management.
// This triggers lazy initialization of all core services.
func Bootstrap(injector *do.RootScope) error {
	_ = do.MustInvoke[*config.Config](injector)
	_ = do.MustInvoke[*logger.Logger](injector)
	_ = do.MustInvoke[providers.AuthKey](injector)
	_ = do.MustInvoke[*providers.StoreHandle](injector)
	_ = do.MustInvoke[*auth.TokenService](injector)

	// Business services
	_ = do.MustInvoke[*service.AuthService](injector)
	_ = do.MustInvoke[*service.EligibilityService](injector)
	_ = do.MustInvoke[*service.ReleaseService](injector)
	_ = do.MustInvoke[*service.ProgressionService](injector)
	_ = do.MustInvoke[*service.WatchService](injector)
	_ = do.MustInvoke[*service.JourneyService](injector)

	// Server last so every dependency is up before it accepts traffic
	_ = do.MustInvoke[*providers.HTTPServerHandle](injector)

	return nil
}
