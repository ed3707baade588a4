package app

import (
	"github.com/yungbote/platebook-backend/internal/handlers"
	"github.com/yungbote/platebook-backend/internal/platform/logger"
)

type Handlers struct {
	Session *handlers.SessionHandler
	Catalog *handlers.CatalogHandler
}

func wireHandlers(log *logger.Logger, s Services) Handlers {
	log.Info("Wiring handlers...")
	return Handlers{
		Session: handlers.NewSessionHandler(s.Flows, s.Image),
		Catalog: handlers.NewCatalogHandler(s.Catalog),
	}
}
