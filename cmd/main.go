package main

import (
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"

	"github.com/neuralplan/neuralplan-backend/internal/handlers"
	"github.com/neuralplan/neuralplan-backend/internal/logger"
	"github.com/neuralplan/neuralplan-backend/internal/middleware"
	"github.com/neuralplan/neuralplan-backend/internal/repos"
	"github.com/neuralplan/neuralplan-backend/internal/server"
	"github.com/neuralplan/neuralplan-backend/internal/services"
	"github.com/neuralplan/neuralplan-backend/internal/store"
	"github.com/neuralplan/neuralplan-backend/internal/utils"
)

func main() {
	// A missing .env is fine, the process env wins either way.
	_ = godotenv.Load()

	// Logger
	logMode := os.Getenv("LOG_MODE")
	if logMode == "" {
		logMode = "development"
	}
	log, err := logger.New(logMode)
	if err != nil {
		fmt.Printf("Failed to init logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	// Env
	log.Info("Loading environment variables from main...")
	port := utils.GetEnv("PORT", "8000", log)
	dataDir := utils.GetEnv("DATA_DIR", "data", log)
	geminiKeys := utils.GetEnvAsList("GEMINI_API_KEYS", log)
	geminiModel := utils.GetEnv("GEMINI_MODEL", "gemini-1.5-flash", log)
	geminiTimeout := utils.GetEnvAsInt("GEMINI_TIMEOUT_SECONDS", 60, log)
	if len(geminiKeys) == 0 {
		log.Warn("No Gemini API keys configured, AI planning disabled")
	}

	// Storage
	log.Info("Setting up storage from main...", "data_dir", dataDir)
	csvStore, err := store.NewCSVStore(dataDir, log)
	if err != nil {
		log.Fatal("Storage init failed", "error", err)
	}

	// Repos
	scheduleRepo := repos.NewScheduleRepo(csvStore, log)
	historyRepo := repos.NewHistoryRepo(csvStore, log)

	// The bundled default schedule is the fallback when no timetable was
	// ever uploaded; refusing to start beats serving an empty app.
	if _, err := scheduleRepo.LoadDefault(); err != nil {
		log.Fatal("Default schedule missing or unreadable", "data_dir", dataDir, "error", err)
	}

	// Services
	log.Info("Setting up services from main...")
	sessionService := services.NewSessionService(log, scheduleRepo)
	scheduleService := services.NewScheduleService(log, sessionService, scheduleRepo, historyRepo)
	insightsService := services.NewInsightsService(log, historyRepo)
	geminiClient := services.NewGeminiClient(log, geminiKeys, geminiModel)
	planService := services.NewPlanService(log, geminiClient, time.Duration(geminiTimeout)*time.Second)

	// Handlers
	scheduleHandler := handlers.NewScheduleHandler(log, scheduleService, planService)
	insightsHandler := handlers.NewInsightsHandler(log, insightsService)
	planHandler := handlers.NewPlanHandler(log, planService)
	requestLog := middleware.NewRequestLogMiddleware(log)

	// Router
	router := server.NewRouter(server.RouterConfig{
		ScheduleHandler: scheduleHandler,
		InsightsHandler: insightsHandler,
		PlanHandler:     planHandler,
		RequestLog:      requestLog,
	})

	log.Info("Starting server...", "port", port)
	if err := router.Run(":" + port); err != nil {
		log.Fatal("Server stopped", "error", err)
	}
}
