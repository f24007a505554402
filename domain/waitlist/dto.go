package waitlist

import (
	"github.com/akashwadhwani35/inbox-party-waitlist/internal/models"
	"github.com/akashwadhwani35/inbox-party-waitlist/pkg/constants"
)

type JoinWaitlistRequest struct {
	Name  string `json:"name" binding:"required"`
	Email string `json:"email" binding:"required"`
}

// SignupAcceptedResponse is the 201 body for a new signup. Email echoes the
// normalized address, Count the waitlist size including this entry.
type SignupAcceptedResponse struct {
	Message string `json:"message"`
	Email   string `json:"email"`
	Count   int64  `json:"count"`
}

// DuplicateSignupResponse is the 409 body when the email is already present.
type DuplicateSignupResponse struct {
	Message string `json:"message"`
	Count   int64  `json:"count"`
}

type WaitlistCountResponse struct {
	Count int64 `json:"count"`
}

type WaitlistEntryResponse struct {
	Name      string `json:"name"`
	Email     string `json:"email"`
	CreatedAt string `json:"created_at"`
}

// WaitlistEntriesResponse lists signups newest first. Limit echoes the
// applied cap and is null when no usable limit was requested; Count always
// reflects the full table.
type WaitlistEntriesResponse struct {
	Entries []WaitlistEntryResponse `json:"entries"`
	Count   int64                   `json:"count"`
	Limit   *int                    `json:"limit"`
}

// ========================================
// Mappers
// ========================================

func ToWaitlistEntryResponse(entry *models.WaitlistEntry) WaitlistEntryResponse {
	if entry == nil {
		return WaitlistEntryResponse{}
	}
	return WaitlistEntryResponse{
		Name:      entry.Name,
		Email:     entry.Email,
		CreatedAt: entry.CreatedAt.Format(constants.RFC3339DateTimeFormat),
	}
}
