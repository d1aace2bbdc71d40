package worker

import (
	"go.uber.org/zap"

	"github.com/fgtintas/referral-service/internal/cache"
	"github.com/fgtintas/referral-service/internal/events"
	"github.com/fgtintas/referral-service/internal/service"
)

// StartEventSubscribers registers the in-process event consumers: the audit
// log and directory cache invalidation.
func StartEventSubscribers(dispatcher events.Dispatcher, audit *service.AuditService, directoryCache cache.DirectoryCache, logger *zap.Logger) {
	if dispatcher == nil {
		return
	}
	if audit != nil {
		audit.RegisterHandlers()
	}
	cache.RegisterInvalidation(dispatcher, directoryCache, logger)
}
