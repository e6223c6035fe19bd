package main

import (
	"incubation-service/internal/handler"
	"incubation-service/internal/keylock"
	"incubation-service/internal/middleware"
	"incubation-service/internal/service"
	"incubation-service/internal/store"
	"incubation-service/internal/ws"
	"incubation-service/pkg/config"
	"incubation-service/pkg/database"
	"incubation-service/pkg/jwtutil"
	"incubation-service/pkg/logger"
	"incubation-service/prometheus"

	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"
)

func main() {
	// Load configuration from .env file and environment variables
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	// Initialize logger with config
	logger.InitLogger(cfg)
	log := logger.GetLogger()
	log.Info("Starting incubation service...", zap.String("environment", cfg.Server.Env))

	// Initialize database
	if err := database.Initialize(cfg); err != nil {
		log.Fatal("Failed to initialize database", zap.Error(err))
	}
	log.Info("Database connection established")

	// Initialize JWT utility
	jwtutil.Initialize(&cfg.JWT)
	log.Info("JWT utility initialized")

	// Data access layer
	st := store.New(database.GetDB())

	// Per-key write locks guarding assignment capacity checks
	locks := keylock.New(cfg.Chat.LockTimeout)

	// Websocket hub fans domain events out to live connections
	hub := ws.NewHub(st, cfg.Chat.TypingTTL, log)
	go hub.Run()

	// Domain services
	notifications := service.NewNotificationService(st, log)
	transitions := service.NewTransitionService(st, st, notifications, log)
	assignments := service.NewAssignmentService(st, st, st, locks, notifications, log)
	records := service.NewPreIncubationService(st, st, notifications, log)
	conversations := service.NewConversationService(st, st, hub, notifications, log)

	// HTTP handlers
	ideaHandler := handler.NewIdeaHandler(transitions)
	assignmentHandler := handler.NewAssignmentHandler(assignments)
	preIncubationHandler := handler.NewPreIncubationHandler(records)
	chatHandler := handler.NewChatHandler(conversations, cfg.Chat.PageSize)
	notificationHandler := handler.NewNotificationHandler(notifications)
	wsHandler := handler.NewWSHandler(hub)

	// Initialize Echo framework
	e := echo.New()

	// Apply global middleware - order matters
	e.Use(echomiddleware.Recover()) // Add recovery middleware
	e.Use(echomiddleware.CORS())    // Add CORS middleware
	e.Use(middleware.RequestIDMiddleware)
	e.Use(logger.Middleware())
	e.Use(prometheus.MetricsMiddleware())

	// Public routes - no authentication required
	e.GET("/health", handler.HealthCheck)
	e.GET("/metrics", handler.MetricsHandler)

	// Websocket endpoint - authenticates from the query string or header
	e.GET("/ws", wsHandler.Connect)

	// API routes - all require authentication
	api := e.Group("/api")
	api.Use(middleware.AuthMiddleware)

	// Idea lifecycle
	ideas := api.Group("/ideas")
	ideas.POST("/:id/status", ideaHandler.Transition)

	// Mentor assignments
	mentorAssignments := api.Group("/mentor-assignments")
	mentorAssignments.POST("/assign", assignmentHandler.Assign)
	mentorAssignments.DELETE("/:id", assignmentHandler.Unassign)

	// Pre-incubatee records
	preIncubatees := api.Group("/pre-incubatees")
	preIncubatees.PUT("/:id/student-update", preIncubationHandler.StudentUpdate)
	preIncubatees.POST("/:id/advance-phase", preIncubationHandler.AdvancePhase)
	preIncubatees.POST("/:id/finalize", preIncubationHandler.Finalize)

	// Mentor chats
	chats := api.Group("/mentor-chats")
	chats.POST("", chatHandler.Ensure)
	chats.POST("/:id/messages", chatHandler.PostMessage)
	chats.GET("/:id/messages", chatHandler.ListMessages)
	chats.POST("/:id/read", chatHandler.MarkRead)
	chats.PUT("/messages/:id", chatHandler.EditMessage)
	chats.DELETE("/messages/:id", chatHandler.DeleteMessage)

	// Notifications
	notificationRoutes := api.Group("/notifications")
	notificationRoutes.GET("", notificationHandler.List)
	notificationRoutes.POST("/:id/read", notificationHandler.MarkRead)

	// Get server port from configuration
	port := cfg.Server.Port

	// Start server
	log.Info("Starting server", zap.String("port", port))
	if err := e.Start(":" + port); err != nil {
		log.Fatal("Failed to start server", zap.Error(err))
	}
}
