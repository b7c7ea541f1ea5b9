package server

import (
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/yungbote/replyloop-backend/internal/handlers"
)

type RouterConfig struct {
	ServiceName       string
	BatchHandler      *handlers.BatchHandler
	SuggestionHandler *handlers.SuggestionHandler
	QuotaHandler      *handlers.QuotaHandler
	UserHandler       *handlers.UserHandler
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	router := gin.Default()

	// Cors
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

	serviceName := cfg.ServiceName
	if serviceName == "" {
		serviceName = "replyloop"
	}
	router.Use(otelgin.Middleware(serviceName))

	// ===============
	// || Public    ||
	// ===============
	router.GET("/healthcheck", handlers.HealthCheck)

	api := router.Group("/api")
	{
		api.POST("/users", cfg.UserHandler.Register)
		api.GET("/users/:id", cfg.UserHandler.Get)
		api.GET("/users/:id/suggestions", cfg.SuggestionHandler.ListForUser)
		api.PATCH("/suggestions/:id", cfg.SuggestionHandler.Review)
		api.GET("/users/:id/quota", cfg.QuotaHandler.ForUser)
	}

	// ===============
	// || Internal  ||
	// ===============
	internal := router.Group("/internal")
	{
		internal.POST("/batch/run", cfg.BatchHandler.Run)
		internal.GET("/batch/status", cfg.BatchHandler.Status)
		internal.GET("/batch/history", cfg.BatchHandler.History)
		internal.GET("/quota", cfg.QuotaHandler.System)
	}

	return router
}
