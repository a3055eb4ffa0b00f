package routes

import (
	"net/http"

	"github.com/medbook/backend/internal/api/handlers"
	"github.com/medbook/backend/internal/api/middleware"
	"github.com/medbook/backend/internal/infrastructure/observability"
)

// Router holds all route handlers
type Router struct {
	mux *http.ServeMux

	searchHandler *handlers.SearchHandler
	healthHandler *handlers.HealthHandler

	allowedOrigins []string
	metrics        *observability.Metrics
}

// NewRouter creates a new router
func NewRouter(
	searchHandler *handlers.SearchHandler,
	healthHandler *handlers.HealthHandler,
	allowedOrigins []string,
	metrics *observability.Metrics,
) *Router {
	return &Router{
		mux:            http.NewServeMux(),
		searchHandler:  searchHandler,
		healthHandler:  healthHandler,
		allowedOrigins: allowedOrigins,
		metrics:        metrics,
	}
}

// SetupRoutes registers the endpoints and wraps them in middleware.
func (r *Router) SetupRoutes() http.Handler {
	r.mux.HandleFunc("GET /health", r.healthHandler.Health)

	// Search endpoints
	r.mux.HandleFunc("GET /api/search/treatments", r.searchHandler.SearchTreatments)
	r.mux.HandleFunc("GET /api/search/doctors", r.searchHandler.SearchDoctors)
	r.mux.HandleFunc("GET /api/search/clinics", r.searchHandler.SearchClinics)
	r.mux.HandleFunc("GET /api/search/devices", r.searchHandler.SearchDevices)
	r.mux.HandleFunc("POST /api/search/score", r.searchHandler.ScoreCandidates)

	// Analytics endpoints
	r.mux.HandleFunc("GET /api/analytics/zero-result-queries", r.searchHandler.ZeroResultQueries)

	// Last wrap runs first: CORS, then logging (request id), then tracing.
	var handler http.Handler = r.mux
	handler = middleware.Compression(handler)
	handler = middleware.ObservabilityMiddleware(r.metrics)(handler)
	handler = middleware.LoggingMiddleware(handler)
	handler = middleware.CORSMiddleware(r.allowedOrigins)(handler)

	return handler
}
