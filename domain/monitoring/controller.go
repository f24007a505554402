package monitoring

import (
	"context"
	"net/http"
	"time"

	"github.com/akashwadhwani35/inbox-party-waitlist/config/router"
	"github.com/akashwadhwani35/inbox-party-waitlist/internal/log"
	"github.com/akashwadhwani35/inbox-party-waitlist/pkg/ratelimit"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type Cache interface {
	Ping(ctx context.Context) error
}

// ReadinessStatus is the /readyz body. Database gates readiness; the cache
// is optional infrastructure, so its state is reported but never fails the
// check.
type ReadinessStatus struct {
	Status   string `json:"status"`
	Database int    `json:"database"` // 1 = reachable, 0 = unreachable
	Cache    int    `json:"cache"`    // 1 = reachable, 0 = unreachable/not configured
	Uptime   int    `json:"uptime"`   // seconds since process start
}

type MonitoringController struct {
	db        *gorm.DB
	logger    *log.Logger
	cache     Cache
	startTime time.Time
}

func NewMonitoringController(db *gorm.DB, logger *log.Logger, cache Cache) *router.RESTController {
	ctrl := &MonitoringController{
		db:        db,
		logger:    logger,
		cache:     cache,
		startTime: time.Now(),
	}

	return router.NewRESTController(
		"MonitoringController",
		"/",
		func(routerService *router.RouterService, controller *router.RESTController) {

			// Liveness stays unthrottled beyond the global limit so probe
			// traffic never flaps the instance.
			routerService.AddGetHandler(controller, nil, "health", func(c *router.RequestContext) *router.ServiceResult {
				return ctrl.liveness(c)
			})

			routerService.AddGetHandler(controller, nil, "healthz", func(c *router.RequestContext) *router.ServiceResult {
				return ctrl.liveness(c)
			})

			readinessRateLimiter := createReadinessRateLimiter()

			routerService.AddGetHandler(controller, readinessRateLimiter, "readyz", func(c *router.RequestContext) *router.ServiceResult {
				return ctrl.readiness(c)
			})
		},
	)
}

func createReadinessRateLimiter() ratelimit.RateLimiter {

	const readinessRequestsPerMinute = 10 // More restrictive than default 100

	config := &ratelimit.RateLimitConfig{
		Requests: readinessRequestsPerMinute,
		Window:   time.Minute, // 1 minute window
		Redis:    nil,         // For now, use in-memory (could be enhanced to use Redis)
		Logger:   nil,         // Logger not needed for in-memory limiter
	}

	return ratelimit.NewRateLimiter(config)
}

func (ctrl *MonitoringController) liveness(c *router.RequestContext) *router.ServiceResult {
	return router.OKResult(gin.H{"status": "ok"})
}

func (ctrl *MonitoringController) readiness(c *router.RequestContext) *router.ServiceResult {
	logger := router.GetLogger(c)

	status := ctrl.performReadinessChecks(c.Request.Context(), logger)

	if status.Database == 0 {
		return &router.ServiceResult{
			StatusCode: http.StatusServiceUnavailable,
			Body:       status,
		}
	}

	return router.OKResult(status)
}

func (ctrl *MonitoringController) performReadinessChecks(ctx context.Context, logger *log.Logger) ReadinessStatus {
	status := ReadinessStatus{
		Status: "ok",
		Uptime: int(time.Since(ctrl.startTime).Seconds()),
	}

	checkDatabaseConnectivity(ctx, ctrl, &status, logger)

	checkCacheConnectivity(ctx, ctrl, &status, logger)

	return status
}

func checkDatabaseConnectivity(ctx context.Context, ctrl *MonitoringController, status *ReadinessStatus, logger *log.Logger) {
	if ctrl.checkDatabase(ctx) {
		status.Database = 1
		return
	}

	status.Database = 0
	status.Status = "unavailable"
	logger.Error("Database readiness check failed")
}

func checkCacheConnectivity(ctx context.Context, ctrl *MonitoringController, status *ReadinessStatus, logger *log.Logger) {
	if ctrl.cache == nil {
		status.Cache = 0 // Cache not configured
		return
	}

	if ctrl.checkCache(ctx) {
		status.Cache = 1
		return
	}

	status.Cache = 0
	logger.Error("Cache readiness check failed")
}

func (ctrl *MonitoringController) checkDatabase(ctx context.Context) bool {
	sqlDB, err := ctrl.db.DB()
	if err != nil {
		return false
	}

	// Ping the database
	return sqlDB.PingContext(ctx) == nil
}

func (ctrl *MonitoringController) checkCache(ctx context.Context) bool {
	// Ping the cache
	return ctrl.cache.Ping(ctx) == nil
}
