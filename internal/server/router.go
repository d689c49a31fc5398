package server

import (
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/LOGQS/coursegen-backend/internal/handlers"
)

type RouterConfig struct {
	GenerationHandler *handlers.GenerationHandler
	CourseHandler     *handlers.CourseHandler
	SpeechHandler     *handlers.SpeechHandler
	SSEHandler        *handlers.SSEHandler
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	router := gin.Default()

	router.Use(cors.New(cors.Config{
		AllowOrigins: []string{
			"http://localhost:3000",
			"http://localhost:5173",
		},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "PATCH", "OPTIONS"},
		AllowHeaders:     []string{"Authorization", "Content-Type", "X-Requested-With"},
		AllowCredentials: true,
	}))

	router.GET("/healthcheck", handlers.HealthCheck)

	api := router.Group("/api")
	{
		// Generation
		api.POST("/generate", cfg.GenerationHandler.Generate)
		api.GET("/sessions", cfg.GenerationHandler.ListSessions)
		api.GET("/session/:id/status", cfg.GenerationHandler.SessionStatus)
		api.GET("/progress/:id", cfg.GenerationHandler.Progress)
		api.GET("/progress/:id/statistics", cfg.GenerationHandler.Statistics)
		api.GET("/progress/:id/stages", cfg.GenerationHandler.Stages)

		// Stored courses
		api.GET("/courses", cfg.CourseHandler.List)
		api.GET("/courses/:id", cfg.CourseHandler.Get)
		api.GET("/courses/:id/download", cfg.CourseHandler.Download)
		api.DELETE("/courses/:id", cfg.CourseHandler.Delete)

		// Speech
		api.POST("/transcribe", cfg.SpeechHandler.Transcribe)
		api.GET("/voices", cfg.SpeechHandler.Voices)

		// SSE
		api.GET("/events/:session_id", cfg.SSEHandler.Stream)
	}

	return router
}
