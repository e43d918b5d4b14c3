package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/weststar/helimx/internal/alerts"
	"github.com/weststar/helimx/internal/config"
	"github.com/weststar/helimx/internal/directives"
	"github.com/weststar/helimx/internal/fleet"
	"github.com/weststar/helimx/internal/generation"
	"github.com/weststar/helimx/internal/websocket"
	"github.com/weststar/helimx/internal/workcards"
	"github.com/weststar/helimx/pkg/logger"
)

// Router is the API router
type Router struct {
	handler    *Handler
	middleware *Middleware
	config     *config.Config
	logger     *logger.Logger
}

// NewRouter creates a new API router
func NewRouter(
	fleetService *fleet.Service,
	directiveStore *directives.Store,
	workCardStore *workcards.Store,
	generationService *generation.Service,
	alertTrigger *alerts.Trigger,
	wsServer *websocket.Server,
	cfg *config.Config,
	log *logger.Logger,
) *Router {
	return &Router{
		handler:    NewHandler(fleetService, directiveStore, workCardStore, generationService, alertTrigger, wsServer, cfg, log),
		middleware: NewMiddleware(log),
		config:     cfg,
		logger:     log.Named("api-router"),
	}
}

// Routes returns the API routes
func (r *Router) Routes() http.Handler {
	router := chi.NewRouter()

	// Middleware
	router.Use(r.middleware.RequestID)
	router.Use(r.middleware.Logger)
	router.Use(r.middleware.Recoverer)
	router.Use(r.middleware.CORS(r.config.Server.CORSAllowedOrigins))

	// API routes
	router.Route("/api/v1", func(router chi.Router) {
		// Aircraft reference data
		router.Get("/aircraft", r.handler.GetAllAircraft)
		router.Get("/aircraft/{tail}", r.handler.GetAircraftByTail)

		// Compliance directives
		router.Get("/directives", r.handler.GetAllDirectives)
		router.Post("/directives", r.handler.CreateDirective)
		router.Put("/directives/{reference}/status", r.handler.UpdateDirectiveStatus)

		// Work cards
		router.Get("/workcards", r.handler.GetWorkCards)
		router.Post("/workcards", r.handler.GenerateWorkCard)
		router.Delete("/workcards/{id}", r.handler.DeleteWorkCard)
		router.Post("/workcards/{id}/schedule", r.handler.ScheduleWorkCard)
		router.Post("/workcards/{id}/complete", r.handler.CompleteWorkCard)

		// Maintenance advisor chat
		router.Post("/advisor", r.handler.Advise)

		// Compliance alert banner state
		router.Get("/alerts", r.handler.GetAlert)

		// WebSocket event stream
		router.Get("/ws", r.handler.HandleWebSocket)

		// Health check
		router.Get("/health", r.handler.GetHealth)

		// Configuration
		router.Get("/config", r.handler.GetConfig)
	})

	// Serve static files from the configured directory
	staticHandler := NewStaticFileHandler(r.config.Server.StaticFilesDir, r.logger)
	router.Handle("/*", staticHandler)

	return router
}
