package config

import (
	"context"
	"os"
	"strconv"
	"time"

	"github.com/akashwadhwani35/inbox-party-waitlist/config/router"
	"github.com/akashwadhwani35/inbox-party-waitlist/internal/log"
	"github.com/akashwadhwani35/inbox-party-waitlist/internal/models"
	"github.com/akashwadhwani35/inbox-party-waitlist/pkg/constants"
	"github.com/akashwadhwani35/inbox-party-waitlist/pkg/utils"
	"gorm.io/gorm"
)

type ApplicationConfig struct {
	DB              *gorm.DB
	RouterService   *router.RouterService
	Logger          *log.Logger
	Cache           Cache
	Config          *AppConfig
	TracingShutdown func(context.Context) error
}

type AppConfig struct {
	RateLimitRequests int
	RateLimitWindow   time.Duration
	RequestTimeout    time.Duration

	// Tighter per-IP budget for the signup endpoint; the global limit above
	// still applies to everything else.
	SignupRateLimitRequests int
}

func NewAppConfig() *AppConfig {
	config := &AppConfig{
		RateLimitRequests:       constants.DefaultRateLimitRequests,
		RateLimitWindow:         constants.DefaultRateLimitWindow(),
		RequestTimeout:          30 * time.Second, // Default request timeout
		SignupRateLimitRequests: constants.DefaultSignupRateLimitRequests,
	}

	// Override from environment variables
	if reqStr := os.Getenv("RATE_LIMIT_REQUESTS"); reqStr != "" {
		if parsed, err := strconv.Atoi(reqStr); err == nil && parsed > 0 {
			config.RateLimitRequests = parsed
		}
	}

	if winStr := os.Getenv("RATE_LIMIT_WINDOW"); winStr != "" {
		if parsed, err := time.ParseDuration(winStr); err == nil && parsed > 0 {
			config.RateLimitWindow = parsed
		}
	}

	if timeoutStr := os.Getenv("REQUEST_TIMEOUT"); timeoutStr != "" {
		if parsed, err := time.ParseDuration(timeoutStr); err == nil && parsed > 0 {
			config.RequestTimeout = parsed
		}
	}

	if parsed := utils.GetEnvIntOrDefault("SIGNUP_RATE_LIMIT_REQUESTS", 0); parsed > 0 {
		config.SignupRateLimitRequests = parsed
	}

	return config
}

func (ac *ApplicationConfig) Cleanup() {
	if ac.TracingShutdown != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := ac.TracingShutdown(ctx); err != nil {
			ac.Logger.Error("Failed to shutdown tracer provider", "error", err)
		}
	}

	if ac.DB != nil {
		CloseDatabase(ac.DB, ac.Logger)
	}

	if ac.RouterService != nil {
		ac.RouterService.Cleanup()
	}

	if ac.Cache != nil {
		CloseCache(ac.Cache, ac.Logger)
	}

	ac.Logger.Info("Application cleanup completed")
}

func LoadApplicationConfiguration(logger *log.Logger) (*ApplicationConfig, error) {
	InitializeEnvFile(logger)

	tracingShutdown, err := SetupTracing(logger)
	if err != nil {
		return nil, err
	}

	db, err := NewDatabase(logger, nil)
	if err != nil {
		return nil, err
	}

	// Schema ensure runs on every boot. AutoMigrate is idempotent, so an
	// existing table (including one created by the SQL migrations) is left
	// alone and a fresh database comes up ready to serve.
	if err := AutoMigrate(logger, db, models.ModelRegistry...); err != nil {
		return nil, err
	}

	appConfig := NewAppConfig()
	cache := NewCacheConfig().NewCacheOrNil(logger)

	routerService := router.CreateRouterService(logger, cache, &router.RouterConfig{
		RateLimitRequests: appConfig.RateLimitRequests,
		RateLimitWindow:   appConfig.RateLimitWindow,
		RequestTimeout:    appConfig.RequestTimeout,
	})

	logger.Info("Application configuration loaded successfully")

	return &ApplicationConfig{
		DB:              db,
		RouterService:   routerService,
		Logger:          logger,
		Cache:           cache,
		Config:          appConfig,
		TracingShutdown: tracingShutdown,
	}, nil
}
