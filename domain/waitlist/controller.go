package waitlist

import (
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/akashwadhwani35/inbox-party-waitlist/config/router"
	"github.com/akashwadhwani35/inbox-party-waitlist/internal/log"
	"github.com/akashwadhwani35/inbox-party-waitlist/pkg/constants"
	"github.com/akashwadhwani35/inbox-party-waitlist/pkg/csvutil"
	apperrors "github.com/akashwadhwani35/inbox-party-waitlist/pkg/errors"
	"github.com/akashwadhwani35/inbox-party-waitlist/pkg/ratelimit"
	"github.com/go-playground/validator/v10"
	"gorm.io/gorm"
)

func NewWaitlistController(
	db *gorm.DB,
	logger *log.Logger,
	signupLimitRequests int,
) *router.RESTController {

	return router.NewRESTController(
		"WaitlistController",
		"/api/waitlist",
		func(rs *router.RouterService, c *router.RESTController) {
			repository := NewWaitlistRepository(db)
			service := NewWaitlistService(logger, repository)

			signupLimiter := createSignupRateLimiter(signupLimitRequests)

			rs.AddPostHandler(c, signupLimiter, "", joinWaitlistHandler(service))
			rs.AddGetHandler(c, nil, "", waitlistCountHandler(service))
			rs.AddGetHandler(c, nil, "entries", waitlistEntriesHandler(service))
		},
	)
}

func createSignupRateLimiter(requestsPerMinute int) ratelimit.RateLimiter {
	if requestsPerMinute <= 0 {
		requestsPerMinute = constants.DefaultSignupRateLimitRequests
	}

	config := &ratelimit.RateLimitConfig{
		Requests: requestsPerMinute,
		Window:   time.Minute,
		Redis:    nil, // Per-instance budget; a shared budget would need the Redis strategy
		Logger:   nil, // Logger not needed for in-memory limiter
	}

	return ratelimit.NewRateLimiter(config)
}

func joinWaitlistHandler(service WaitlistService) router.HandlerFunction {
	return func(ctx *router.RequestContext) *router.ServiceResult {
		logger := router.GetLogger(ctx)

		// Requests that never declared a length are refused before any read.
		// Chunked uploads land here too since net/http strips their header.
		if ctx.GetHeader("Content-Length") == "" {
			return router.LengthRequiredResult("Missing Content-Length")
		}

		var req JoinWaitlistRequest

		if err := ctx.ShouldBindJSON(&req); err != nil {
			var validationErrors validator.ValidationErrors
			if !errors.As(err, &validationErrors) {
				logger.Error("Failed to decode signup payload", "error", err)
				return router.BadRequestResult("Invalid JSON payload")
			}

			// Missing fields still decode, so fall through: the sanitizers in
			// the service own the user-facing copy for incomplete signups.
			logger.Info("Signup payload failed field validation",
				"validation", apperrors.FormatValidationErrors(err, &req))
		}

		result, err := service.JoinWaitlist(ctx.Request.Context(), &req)
		if err != nil {
			return router.ErrorResult(
				apperrors.HTTPStatusCode(err),
				apperrors.GetHumanReadableMessage(err),
			)
		}

		if result.AlreadyJoined {
			return router.ConflictResult(DuplicateSignupResponse{
				Message: MessageAlreadyJoined,
				Count:   result.Count,
			})
		}

		return router.CreatedResult(SignupAcceptedResponse{
			Message: MessageSignupAccepted,
			Email:   result.Email,
			Count:   result.Count,
		})
	}
}

func waitlistCountHandler(service WaitlistService) router.HandlerFunction {
	return func(ctx *router.RequestContext) *router.ServiceResult {
		count, err := service.Count(ctx.Request.Context())
		if err != nil {
			return router.ErrorResult(
				apperrors.HTTPStatusCode(err),
				apperrors.GetHumanReadableMessage(err),
			)
		}

		return router.OKResult(WaitlistCountResponse{Count: count})
	}
}

func waitlistEntriesHandler(service WaitlistService) router.HandlerFunction {
	return func(ctx *router.RequestContext) *router.ServiceResult {
		requestCtx := ctx.Request.Context()

		limit := parseEntriesLimit(ctx.Query("limit"))

		limitArg := 0
		if limit != nil {
			limitArg = *limit
		}

		entries, err := service.Entries(requestCtx, limitArg)
		if err != nil {
			return router.ErrorResult(
				apperrors.HTTPStatusCode(err),
				apperrors.GetHumanReadableMessage(err),
			)
		}

		if strings.EqualFold(ctx.Query("format"), "csv") {
			return router.AttachmentResult(
				"text/csv; charset=utf-8",
				constants.WaitlistExportFilename,
				renderEntriesCSV(entries),
			)
		}

		count, err := service.Count(requestCtx)
		if err != nil {
			return router.ErrorResult(
				apperrors.HTTPStatusCode(err),
				apperrors.GetHumanReadableMessage(err),
			)
		}

		return router.OKResult(WaitlistEntriesResponse{
			Entries: entries,
			Count:   count,
			Limit:   limit,
		})
	}
}

// parseEntriesLimit returns nil for anything that is not a positive integer,
// which the caller treats as "no cap". Bad input is never an error here.
func parseEntriesLimit(raw string) *int {
	value, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || value <= 0 {
		return nil
	}
	return &value
}

func renderEntriesCSV(entries []WaitlistEntryResponse) []byte {
	rows := make([][]string, 0, len(entries))
	for _, entry := range entries {
		rows = append(rows, []string{entry.Name, entry.Email, entry.CreatedAt})
	}
	return []byte(csvutil.Render([]string{"name", "email", "created_at"}, rows))
}
