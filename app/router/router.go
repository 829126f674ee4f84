package router

import (
	"tripops/app/handler"
	"tripops/app/middleware"

	"github.com/gin-gonic/gin"
)

// Router Router
type Router struct {
	operationsHandler *handler.OperationsHandler
	jobHandler        *handler.JobHandler
}

// NewRouter creates a new Router
func NewRouter(operationsHandler *handler.OperationsHandler, jobHandler *handler.JobHandler) *Router {
	return &Router{
		operationsHandler: operationsHandler,
		jobHandler:        jobHandler,
	}
}

// Setup sets up routes
func (r *Router) Setup(engine *gin.Engine) {
	engine.Use(middleware.Recovery())
	engine.Use(middleware.Logger())

	// Admin API - back-office interface
	api := engine.Group("/api")
	api.Use(middleware.AuthMiddleware())
	{
		operations := api.Group("/operations")
		{
			operations.GET("/dashboard", r.operationsHandler.GetDashboard)
			operations.GET("/dashboard/stream", r.operationsHandler.StreamDashboard)
			operations.POST("/circuit-breakers/:service/reset", r.operationsHandler.ResetBreaker)
			operations.POST("/jobs/:type/run", r.jobHandler.TriggerJob)
		}
	}

	// Health check
	engine.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})
}
