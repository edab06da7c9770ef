package http

import (
	"net/http"

	"field-backend/internal/handlers"
	"field-backend/internal/middleware"
	"field-backend/internal/models"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func NewRouter(
	authHandler *handlers.AuthHandler,
	statusHandler *handlers.StatusHandler,
	historyHandler *handlers.HistoryHandler,
	clockHandler *handlers.ClockHandler,
	queryHandler *handlers.QueryHandler,
	assignmentHandler *handlers.AssignmentHandler,
	adminLogHandler *handlers.AdminLogHandler,
	healthHandler *handlers.HealthHandler,
	authMiddleware *middleware.AuthMiddleware,
) *mux.Router {
	r := mux.NewRouter()

	// Public routes
	r.HandleFunc("/auth/signup", authHandler.Signup).Methods("POST")
	r.HandleFunc("/auth/login", authHandler.Login).Methods("POST")

	r.HandleFunc("/health", healthHandler.BasicHealth).Methods("GET")
	r.HandleFunc("/health/ready", healthHandler.ReadinessHealth).Methods("GET")
	r.Handle("/metrics", promhttp.Handler()).Methods("GET")

	// Protected API routes - per-assignment status and clock
	jobsAPI := r.PathPrefix("/api/jobs").Subrouter()
	jobsAPI.Use(authMiddleware.Authenticate)
	jobsAPI.HandleFunc("/{job_id}/technicians/{tech_id}/status", statusHandler.Transition).Methods("POST")
	jobsAPI.HandleFunc("/{job_id}/technicians/{tech_id}/status", statusHandler.Current).Methods("GET")
	jobsAPI.HandleFunc("/{job_id}/technicians/{tech_id}/history", historyHandler.List).Methods("GET")
	jobsAPI.HandleFunc("/{job_id}/technicians/{tech_id}/clock", clockHandler.Events).Methods("GET")
	jobsAPI.HandleFunc("/{job_id}/technicians/{tech_id}/dashboard", queryHandler.Dashboard).Methods("GET")
	jobsAPI.HandleFunc("/{job_id}/clock", clockHandler.Record).Methods("POST")
	jobsAPI.HandleFunc("/{job_id}/clock/phase", clockHandler.Phase).Methods("GET")
	jobsAPI.HandleFunc("/{job_id}/time-summary", queryHandler.TimeSummary).Methods("GET")
	jobsAPI.HandleFunc("/{job_id}/assignments", assignmentHandler.ListForJob).Methods("GET")

	// Protected API routes - assignments (admin only for creation)
	assignmentsAPI := r.PathPrefix("/api/assignments").Subrouter()
	assignmentsAPI.Use(authMiddleware.RequireRole(models.RoleAdmin))
	assignmentsAPI.HandleFunc("", assignmentHandler.Create).Methods("POST")

	// Protected API routes - admin corrections and review queue
	adminAPI := r.PathPrefix("/api/admin").Subrouter()
	adminAPI.Use(authMiddleware.RequireAdmin)
	adminAPI.HandleFunc("/history", historyHandler.Add).Methods("POST")
	adminAPI.HandleFunc("/history/{id}", historyHandler.Update).Methods("PUT")
	adminAPI.HandleFunc("/history/{id}", historyHandler.Delete).Methods("DELETE")
	adminAPI.HandleFunc("/pending-review", queryHandler.PendingReview).Methods("GET")
	adminAPI.HandleFunc("/action-logs", adminLogHandler.List).Methods("GET")

	return r
}

// Handler wraps the router with the standard middleware chain.
func Handler(router *mux.Router, corsMiddleware func(http.Handler) http.Handler) http.Handler {
	return middleware.PanicRecovery(middleware.MetricsMiddleware(corsMiddleware(router)))
}
