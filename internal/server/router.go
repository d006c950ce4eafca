package server

import (
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/neuralplan/neuralplan-backend/internal/handlers"
	"github.com/neuralplan/neuralplan-backend/internal/middleware"
)

type RouterConfig struct {
	ScheduleHandler *handlers.ScheduleHandler
	InsightsHandler *handlers.InsightsHandler
	PlanHandler     *handlers.PlanHandler
	RequestLog      *middleware.RequestLogMiddleware
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(cfg.RequestLog.Handler())

	// Cors
	router.Use(cors.New(cors.Config{
		AllowOrigins: []string{
			"http://localhost:80",
			"http://localhost:3000",
			"http://localhost:5173",
		},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "PATCH", "OPTIONS"},
		AllowHeaders:     []string{"Authorization", "Content-Type", "X-Requested-With", middleware.RequestIDHeader},
		AllowCredentials: true,
	}))

	router.GET("/healthcheck", handlers.HealthCheck)

	api := router.Group("/api")
	{
		// Schedule
		api.GET("/schedule", cfg.ScheduleHandler.GetSchedule)
		api.GET("/schedule/metrics", cfg.ScheduleHandler.GetMetrics)
		api.PATCH("/schedule/rows/:id", cfg.ScheduleHandler.UpdateRow)
		api.POST("/schedule/save", cfg.ScheduleHandler.SaveDaily)
		api.POST("/schedule/master", cfg.ScheduleHandler.UploadMaster)
		api.POST("/schedule/extract", cfg.ScheduleHandler.ExtractTimetable)
		api.POST("/schedule/sample", cfg.ScheduleHandler.RestoreSample)
		// History
		api.GET("/history", cfg.InsightsHandler.GetHistory)
		api.GET("/history/summary", cfg.InsightsHandler.GetSummary)
		api.GET("/history/export", cfg.InsightsHandler.ExportHistory)
		// Planning
		api.POST("/plan", cfg.PlanHandler.GeneratePlan)
		api.GET("/plan/moods", cfg.PlanHandler.ListMoods)
	}

	return router
}
