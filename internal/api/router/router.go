package router

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/scribehub/scribe-be/internal/api/handler"
)

// SetupRouter configures and returns the Gin router with all routes
func SetupRouter(deps *handler.Dependencies) *gin.Engine {
	r := gin.New()

	// Middleware
	r.Use(gin.Recovery())
	r.Use(LoggerMiddleware(deps.Logger))
	r.Use(CORSMiddleware())

	// Health check endpoint
	r.GET("/health", func(c *gin.Context) {
		if err := deps.DBClient.HealthCheck(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status":  "unhealthy",
				"service": "scribe-service",
			})
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"status":  "healthy",
			"service": "scribe-service",
		})
	})

	sessionHandler := handler.NewSessionHandler(deps)
	eventHandler := handler.NewEventHandler(deps)
	jobHandler := handler.NewJobHandler(deps)

	// API v1 routes
	v1 := r.Group("/api/v1")
	{
		sessions := v1.Group("/sessions")
		{
			// POST /api/v1/sessions/start-edit - Create an edit session
			sessions.POST("/start-edit", sessionHandler.StartEdit)

			// POST /api/v1/sessions/start-transcribe - Create a transcribe session
			sessions.POST("/start-transcribe", sessionHandler.StartTranscribe)

			// GET /api/v1/sessions - List sessions
			sessions.GET("", sessionHandler.ListSessions)
		}

		events := v1.Group("/events")
		{
			// GET /api/v1/events/:session_id - SSE stream of job progress
			events.GET("/:session_id", eventHandler.Stream)

			// GET /api/v1/events/:session_id/find-all - JSON replay of the log
			events.GET("/:session_id/find-all", eventHandler.FindAll)
		}

		jobs := v1.Group("/jobs")
		{
			// DELETE /api/v1/jobs/:job_id - Delete a job and its events
			jobs.DELETE("/:job_id", jobHandler.DeleteJob)
		}
	}

	return r
}
