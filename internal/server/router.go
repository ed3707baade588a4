package server

import (
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/yungbote/platebook-backend/internal/handlers"
	"github.com/yungbote/platebook-backend/internal/middleware"
)

type RouterConfig struct {
	AuthMiddleware *middleware.AuthMiddleware
	RequestLog     gin.HandlerFunc
	SessionHandler *handlers.SessionHandler
	CatalogHandler *handlers.CatalogHandler
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestContext())
	if cfg.RequestLog != nil {
		router.Use(cfg.RequestLog)
	}

	router.Use(cors.New(cors.Config{
		AllowOrigins: []string{
			"http://localhost:80",
			"http://localhost:3000",
			"http://localhost:5174",
		},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "PATCH", "OPTIONS"},
		AllowHeaders:     []string{"Authorization", "Content-Type", "X-Requested-With"},
		AllowCredentials: true,
	}))

	router.GET("/healthcheck", handlers.HealthCheck)

	api := router.Group("/api")
	api.Use(cfg.AuthMiddleware.RequireAuth())

	// Catalog
	api.GET("/catalog/search", cfg.CatalogHandler.Search)
	api.POST("/catalog/entries", cfg.CatalogHandler.CreateEntry)

	// Guided submission session
	session := api.Group("/session")
	session.POST("/open", cfg.SessionHandler.Open)
	session.POST("/:id/resume", cfg.SessionHandler.Resume)
	session.GET("/:id", cfg.SessionHandler.View)
	session.POST("/:id/step", cfg.SessionHandler.PatchStep)
	session.POST("/:id/next", cfg.SessionHandler.Next)
	session.POST("/:id/back", cfg.SessionHandler.Back)
	session.POST("/:id/skip", cfg.SessionHandler.Skip)
	session.POST("/:id/goto", cfg.SessionHandler.Goto)
	session.POST("/:id/save", cfg.SessionHandler.Save)
	session.POST("/:id/dishes", cfg.SessionHandler.AddDish)
	session.PATCH("/:id/dishes/:localId", cfg.SessionHandler.UpdateDish)
	session.DELETE("/:id/dishes/:localId", cfg.SessionHandler.RemoveDish)
	session.POST("/:id/dishes/:localId/move", cfg.SessionHandler.MoveDish)
	session.PUT("/:id/dishes/:localId/link", cfg.SessionHandler.LinkDish)
	session.POST("/:id/dishes/:localId/image", cfg.SessionHandler.UploadDishImage)
	session.POST("/:id/submit", cfg.SessionHandler.Submit)
	session.POST("/:id/close", cfg.SessionHandler.Close)

	return router
}
