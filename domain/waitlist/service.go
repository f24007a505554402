package waitlist

import (
	"context"

	"github.com/akashwadhwani35/inbox-party-waitlist/internal/log"
	"github.com/akashwadhwani35/inbox-party-waitlist/internal/models"
	"github.com/akashwadhwani35/inbox-party-waitlist/internal/sanitize"
	apperrors "github.com/akashwadhwani35/inbox-party-waitlist/pkg/errors"
)

// User-facing copy for the signup flow. These strings are part of the API
// contract with the landing page, so change them together with the frontend.
const (
	MessageNameRequired   = "Please share your name so we can personalize the rollout."
	MessageEmailRequired  = "A valid email is required to join the waitlist."
	MessageAlreadyJoined  = "This email is already on the waitlist."
	MessageSignupAccepted = "You're on the waitlist! We'll reach out as invites roll out."
	MessageSaveFailed     = "We hit a snag saving your request."
)

// JoinWaitlistResult reports the outcome of a signup attempt. AlreadyJoined
// distinguishes the duplicate case, which is a conflict to the client but
// not an error inside the service.
type JoinWaitlistResult struct {
	AlreadyJoined bool
	Email         string
	Count         int64
}

type WaitlistService interface {
	// JoinWaitlist sanitizes and persists a signup, returning the waitlist
	// size after the attempt.
	JoinWaitlist(ctx context.Context, req *JoinWaitlistRequest) (*JoinWaitlistResult, error)

	// Count returns the number of signups.
	Count(ctx context.Context) (int64, error)

	// Entries returns signups newest first. limit <= 0 returns everything.
	Entries(ctx context.Context, limit int) ([]WaitlistEntryResponse, error)
}

type waitlistService struct {
	logger     *log.Logger
	repository WaitlistRepository
}

func NewWaitlistService(logger *log.Logger, repository WaitlistRepository) WaitlistService {
	return &waitlistService{logger: logger, repository: repository}
}

func (s *waitlistService) JoinWaitlist(ctx context.Context, req *JoinWaitlistRequest) (*JoinWaitlistResult, error) {
	logger := log.GetLoggerInstanceFromContext(ctx, s.logger)

	if req == nil {
		logger.Error("JoinWaitlist received empty request")
		return nil, apperrors.NewInvalidRequestError("request cannot be nil", nil)
	}

	name, ok := sanitize.Name(req.Name)
	if !ok {
		return nil, apperrors.NewInvalidRequestError(MessageNameRequired, nil)
	}

	email, ok := sanitize.Email(req.Email)
	if !ok {
		return nil, apperrors.NewInvalidRequestError(MessageEmailRequired, nil)
	}

	entry := &models.WaitlistEntry{Name: name, Email: email}

	if _, err := s.repository.CreateEntry(ctx, entry); err != nil {
		if apperrors.GetErrorType(err) != apperrors.ErrorTypeConflict {
			logger.Error("Failed to create waitlist entry", "error", err)
			return nil, apperrors.NewDatabaseError(MessageSaveFailed, err)
		}

		count, countErr := s.waitlistSize(ctx, logger)
		if countErr != nil {
			return nil, countErr
		}

		logger.Info("Duplicate signup attempt", "email", email)
		return &JoinWaitlistResult{AlreadyJoined: true, Email: email, Count: count}, nil
	}

	count, countErr := s.waitlistSize(ctx, logger)
	if countErr != nil {
		return nil, countErr
	}

	logger.Info("Waitlist signup accepted", "email", email, "count", count)
	return &JoinWaitlistResult{Email: email, Count: count}, nil
}

// waitlistSize re-queries the table so the response carries the size after
// the insert attempt, not a stale pre-insert value.
func (s *waitlistService) waitlistSize(ctx context.Context, logger *log.Logger) (int64, error) {
	count, err := s.repository.CountEntries(ctx)
	if err != nil {
		logger.Error("Failed to count waitlist entries after signup attempt", "error", err)
		return 0, apperrors.NewDatabaseError(MessageSaveFailed, err)
	}
	return count, nil
}

func (s *waitlistService) Count(ctx context.Context) (int64, error) {
	logger := log.GetLoggerInstanceFromContext(ctx, s.logger)

	count, err := s.repository.CountEntries(ctx)
	if err != nil {
		logger.Error("Failed to count waitlist entries", "error", err)
		return 0, err
	}

	return count, nil
}

func (s *waitlistService) Entries(ctx context.Context, limit int) ([]WaitlistEntryResponse, error) {
	logger := log.GetLoggerInstanceFromContext(ctx, s.logger)

	entries, err := s.repository.ListEntries(ctx, limit)
	if err != nil {
		logger.Error("Failed to list waitlist entries", "error", err)
		return nil, err
	}

	responses := make([]WaitlistEntryResponse, 0, len(entries))
	for _, entry := range entries {
		responses = append(responses, ToWaitlistEntryResponse(entry))
	}

	return responses, nil
}
