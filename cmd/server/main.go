package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"time"

	"field-backend/internal/auth"
	"field-backend/internal/cache"
	"field-backend/internal/config"
	"field-backend/internal/database"
	"field-backend/internal/db"
	"field-backend/internal/handlers"
	"field-backend/internal/health"
	h "field-backend/internal/http"
	"field-backend/internal/middleware"
	"field-backend/internal/monitoring"
	"field-backend/internal/notify"
	"field-backend/internal/repositories"
	"field-backend/internal/services"
)

func main() {
	port := flag.Int("port", 0, "Server port (overrides config)")
	flag.Parse()

	cfg := config.Load()
	if *port != 0 {
		cfg.Server.Port = *port
	}

	pool := db.Connect(cfg)
	defer pool.Close()

	// Initialize Redis cache (optional - graceful fallback if unavailable)
	if err := cache.Init(); err != nil {
		log.Printf("[Redis] Cache unavailable: %v (dashboards will hit the database)", err)
	} else {
		log.Println("[Redis] Cache connected successfully")
	}

	// Run database migrations on startup
	migrator := database.NewMigrator(pool)
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := migrator.RunMigrations(ctx); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	healthChecker := health.NewHealthChecker(pool)
	jwtManager := auth.NewJWTManager(cfg)

	// Repositories
	userRepo := repositories.NewUserRepository(pool)
	assignmentRepo := repositories.NewAssignmentRepository(pool)
	currentStatusRepo := repositories.NewCurrentStatusRepository(pool)
	historyRepo := repositories.NewStatusHistoryRepository(pool)
	clockEventRepo := repositories.NewClockEventRepository(pool)
	adminActionLogRepo := repositories.NewAdminActionLogRepository(pool)

	// Notifier fans status changes out to peers and the monitoring dashboard
	var notifier notify.Notifier = notify.NopNotifier{}
	var redisNotifier *notify.RedisNotifier
	if client := cache.GetClient(); client != nil {
		redisNotifier = notify.NewRedisNotifier(client)
		notifier = redisNotifier
	}

	// Services
	userService := services.NewUserService(userRepo, jwtManager)
	assignmentService := services.NewAssignmentService(assignmentRepo)
	clockLedger := services.NewClockLedger(clockEventRepo, assignmentRepo)
	coordinator := services.NewTransitionCoordinator(clockEventRepo)
	statusManager := services.NewStatusManager(currentStatusRepo, assignmentRepo, clockLedger, coordinator, notifier)
	historyLedger := services.NewStatusHistoryLedger(historyRepo, currentStatusRepo, assignmentRepo, adminActionLogRepo)
	queryService := services.NewStatusQueryService(currentStatusRepo, historyRepo, clockEventRepo, assignmentRepo, userRepo)

	// Handlers
	authHandler := handlers.NewAuthHandler(userService)
	statusHandler := handlers.NewStatusHandler(statusManager)
	historyHandler := handlers.NewHistoryHandler(historyLedger)
	clockHandler := handlers.NewClockHandler(clockLedger)
	queryHandler := handlers.NewQueryHandler(queryService)
	assignmentHandler := handlers.NewAssignmentHandler(assignmentService)
	adminLogHandler := handlers.NewAdminLogHandler(adminActionLogRepo)
	healthHandler := handlers.NewHealthHandler(healthChecker)

	authMiddleware := middleware.NewAuthMiddleware(jwtManager, userRepo)
	corsMiddleware := middleware.NewCORS(cfg)

	// Monitoring dashboard on its own port
	if cfg.Monitoring.Enabled {
		go monitoring.NewMonitoringServer(pool, cfg.Monitoring.Port, redisNotifier).Start()
	}

	router := h.NewRouter(
		authHandler,
		statusHandler,
		historyHandler,
		clockHandler,
		queryHandler,
		assignmentHandler,
		adminLogHandler,
		healthHandler,
		authMiddleware,
	)
	handler := h.Handler(router, corsMiddleware)

	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	log.Printf("Server running on %s", addr)
	if err := http.ListenAndServe(addr, handler); err != nil {
		log.Fatalf("Server failed: %v", err)
	}
}
