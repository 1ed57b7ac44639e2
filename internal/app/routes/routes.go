package routes

import (
	"github.com/coursetable/ferry/internal/app/controllers"
	"github.com/coursetable/ferry/internal/app/models/dto"
	"github.com/coursetable/ferry/internal/middleware"
	"github.com/coursetable/ferry/internal/pkg/websocket"
	"github.com/gin-gonic/gin"
)

// SetupRouter configures the operations API routes
func SetupRouter(
	router *gin.Engine,
	runController *controllers.RunController,
	eventsHandler *websocket.Handler,
	authMiddleware *middleware.AuthMiddleware,
) {
	v1 := router.Group("/api/v1")

	// every run endpoint needs an operator token
	runs := v1.Group("/runs")
	runs.Use(authMiddleware.OperatorAuth())
	{
		runs.POST("", middleware.ValidateRequest[dto.TriggerRunRequest](), runController.TriggerRun)
		runs.GET("", runController.ListRuns)
		runs.GET("/latest", runController.GetLatestRun)
		runs.GET("/events", eventsHandler.HandleConnection)
		runs.GET("/:id", runController.GetRun)
	}
}
