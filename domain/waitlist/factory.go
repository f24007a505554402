package waitlist

import (
	"github.com/akashwadhwani35/inbox-party-waitlist/config/router"
	"github.com/akashwadhwani35/inbox-party-waitlist/internal/log"
	"gorm.io/gorm"
)

type WaitlistServiceFactory interface {
	CreateService() WaitlistService
	CreateController() *router.RESTController
}

type DefaultWaitlistServiceFactory struct {
	db                  *gorm.DB
	logger              *log.Logger
	signupLimitRequests int
}

// NewWaitlistServiceFactory wires the waitlist domain. signupLimitRequests is
// the per-IP signup budget per minute; zero or negative falls back to the
// default inside the controller.
func NewWaitlistServiceFactory(db *gorm.DB, logger *log.Logger, signupLimitRequests int) WaitlistServiceFactory {
	return &DefaultWaitlistServiceFactory{
		db:                  db,
		logger:              logger,
		signupLimitRequests: signupLimitRequests,
	}
}

func (f *DefaultWaitlistServiceFactory) CreateService() WaitlistService {
	repository := NewWaitlistRepository(f.db)
	return NewWaitlistService(f.logger, repository)
}

func (f *DefaultWaitlistServiceFactory) CreateController() *router.RESTController {
	return NewWaitlistController(f.db, f.logger, f.signupLimitRequests)
}
