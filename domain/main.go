package domain

import (
	"github.com/akashwadhwani35/inbox-party-waitlist/config"
	"github.com/akashwadhwani35/inbox-party-waitlist/domain/monitoring"
	"github.com/akashwadhwani35/inbox-party-waitlist/domain/waitlist"
)

// SetupCoreDomain mounts every domain controller on the shared router.
func SetupCoreDomain(appConfig *config.ApplicationConfig) {
	signupLimitRequests := 0
	if appConfig.Config != nil {
		signupLimitRequests = appConfig.Config.SignupRateLimitRequests
	}

	monitoringFactory := monitoring.NewMonitoringControllerFactory(appConfig.DB, appConfig.Logger, appConfig.Cache)
	appConfig.RouterService.MountController(monitoringFactory.CreateController())

	waitlistFactory := waitlist.NewWaitlistServiceFactory(appConfig.DB, appConfig.Logger, signupLimitRequests)
	appConfig.RouterService.MountController(waitlistFactory.CreateController())
}
