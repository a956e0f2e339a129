package admin

import (
	"github.com/sahilchouksey/learnpath/services/cron"
	"github.com/sahilchouksey/learnpath/utils/auth"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// AdminHandler serves operator views: audit trail, users, statistics and jobs
type AdminHandler struct {
	db        *gorm.DB
	blacklist *auth.Blacklist
	cron      *cron.CronManager
	log       *zap.Logger
}

// NewAdminHandler creates a new admin handler. cronManager may be nil when
// background jobs are disabled.
func NewAdminHandler(db *gorm.DB, blacklist *auth.Blacklist, cronManager *cron.CronManager, log *zap.Logger) *AdminHandler {
	return &AdminHandler{
		db:        db,
		blacklist: blacklist,
		cron:      cronManager,
		log:       log,
	}
}
