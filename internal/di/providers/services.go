package providers

import (
	"github.com/samber/do/v2"

	"github.com/tazkiyahapp/tazkiyah-server/internal/auth"
	"github.com/tazkiyahapp/tazkiyah-server/internal/config"
	"github.com/tazkiyahapp/tazkiyah-server/internal/logger"
	"github.com/tazkiyahapp/tazkiyah-server/internal/service"
)

// ProvideAuthService provides the authentication service.
func ProvideAuthService(i do.Injector) (*service.AuthService, error) {
	storeHandle := do.MustInvoke[*StoreHandle](i)
	tokenService := do.MustInvoke[*auth.TokenService](i)
	log := do.MustInvoke[*logger.Logger](i)

	return service.NewAuthService(storeHandle.Store, tokenService, log.Logger), nil
}

// ProvideEligibilityService provides the content rule evaluator.
func ProvideEligibilityService(i do.Injector) (*service.EligibilityService, error) {
	storeHandle := do.MustInvoke[*StoreHandle](i)
	log := do.MustInvoke[*logger.Logger](i)

	return service.NewEligibilityService(storeHandle.Store, log.Logger), nil
}

// ProvideReleaseService provides the drip release scheduler.
func ProvideReleaseService(i do.Injector) (*service.ReleaseService, error) {
	storeHandle := do.MustInvoke[*StoreHandle](i)
	log := do.MustInvoke[*logger.Logger](i)

	return service.NewReleaseService(storeHandle.Store, log.Logger), nil
}

// ProvideProgressionService provides the lesson access gate.
func ProvideProgressionService(i do.Injector) (*service.ProgressionService, error) {
	cfg := do.MustInvoke[*config.Config](i)
	storeHandle := do.MustInvoke[*StoreHandle](i)
	eligibility := do.MustInvoke[*service.EligibilityService](i)
	release := do.MustInvoke[*service.ReleaseService](i)
	log := do.MustInvoke[*logger.Logger](i)

	return service.NewProgressionService(storeHandle.Store, eligibility, release, cfg.Gating, log.Logger), nil
}

// ProvideWatchService provides the watch session tracker.
func ProvideWatchService(i do.Injector) (*service.WatchService, error) {
	cfg := do.MustInvoke[*config.Config](i)
	storeHandle := do.MustInvoke[*StoreHandle](i)
	log := do.MustInvoke[*logger.Logger](i)

	return service.NewWatchService(storeHandle.Store, cfg.Watch, log.Logger), nil
}

// ProvideJourneyService provides the journey status materializer.
func ProvideJourneyService(i do.Injector) (*service.JourneyService, error) {
	storeHandle := do.MustInvoke[*StoreHandle](i)
	log := do.MustInvoke[*logger.Logger](i)

	return service.NewJourneyService(storeHandle.Store, log.Logger), nil
}
