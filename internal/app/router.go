package app

import (
	"github.com/gin-gonic/gin"

	"github.com/yungbote/platebook-backend/internal/middleware"
	"github.com/yungbote/platebook-backend/internal/platform/logger"
	"github.com/yungbote/platebook-backend/internal/server"
)

func wireRouter(log *logger.Logger, h Handlers, m Middleware) *gin.Engine {
	log.Info("Wiring router...")
	return server.NewRouter(server.RouterConfig{
		AuthMiddleware: m.Auth,
		RequestLog:     middleware.RequestLog(log),
		SessionHandler: h.Session,
		CatalogHandler: h.Catalog,
	})
}
