package waitlist

import (
	"context"
	"errors"

	"github.com/akashwadhwani35/inbox-party-waitlist/internal/models"
	apperrors "github.com/akashwadhwani35/inbox-party-waitlist/pkg/errors"
	"gorm.io/gorm"
)

type WaitlistRepository interface {
	// CreateEntry persists a new signup. A unique-index violation on the
	// email column comes back as a conflict error.
	CreateEntry(ctx context.Context, entry *models.WaitlistEntry) (*models.WaitlistEntry, error)
	// CountEntries returns the total number of signups.
	CountEntries(ctx context.Context) (int64, error)
	// ListEntries returns signups newest first. limit <= 0 disables the cap.
	ListEntries(ctx context.Context, limit int) ([]*models.WaitlistEntry, error)
}

type waitlistRepository struct {
	db *gorm.DB
}

func NewWaitlistRepository(db *gorm.DB) WaitlistRepository {
	return &waitlistRepository{db: db}
}

func (wr *waitlistRepository) CreateEntry(ctx context.Context, entry *models.WaitlistEntry) (*models.WaitlistEntry, error) {
	if err := wr.db.WithContext(ctx).Create(entry).Error; err != nil {
		if isDuplicateKey(err) {
			return nil, apperrors.NewConflictError("waitlist entry with this email already exists", err)
		}
		return nil, apperrors.NewDatabaseError("unable to create waitlist entry", err)
	}

	return entry, nil
}

func (wr *waitlistRepository) CountEntries(ctx context.Context) (int64, error) {
	var count int64

	if err := wr.db.WithContext(ctx).Model(&models.WaitlistEntry{}).Count(&count).Error; err != nil {
		return 0, apperrors.NewDatabaseError("unable to count waitlist entries", err)
	}

	return count, nil
}

func (wr *waitlistRepository) ListEntries(ctx context.Context, limit int) ([]*models.WaitlistEntry, error) {
	var entries []*models.WaitlistEntry

	// The id tiebreak keeps ordering stable when two signups land in the
	// same timestamp tick.
	query := wr.db.WithContext(ctx).Order("created_at DESC, id DESC")
	if limit > 0 {
		query = query.Limit(limit)
	}

	if err := query.Find(&entries).Error; err != nil {
		return nil, apperrors.NewDatabaseError("unable to fetch waitlist entries", err)
	}

	return entries, nil
}

// isDuplicateKey prefers gorm's translated sentinel and keeps the message
// sniff as a fallback for drivers that miss translation.
func isDuplicateKey(err error) bool {
	return errors.Is(err, gorm.ErrDuplicatedKey) || apperrors.IsDuplicateKeyError(err)
}
