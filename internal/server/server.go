package server

import (
	"database/sql"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/dukerupert/kerigma/internal/config"
	"github.com/dukerupert/kerigma/internal/handler"
	"github.com/dukerupert/kerigma/internal/insight"
	"github.com/dukerupert/kerigma/internal/middleware"
	"github.com/dukerupert/kerigma/internal/store"
	ws "github.com/dukerupert/kerigma/internal/websocket"
)

type Server struct {
	db             *sql.DB
	hub            *ws.Hub
	familyStore    *store.FamilyStore
	familyH        *handler.FamilyHandler
	reportH        *handler.ReportHandler
	insightH       *handler.InsightHandler
	rateLimiter    *middleware.RateLimiter
	allowedOrigins []string
	logger         *slog.Logger
}

func New(db *sql.DB, cfg *config.Config, logger *slog.Logger) *Server {
	loc := cfg.Location
	if loc == nil {
		loc = time.Local
	}
	now := func() time.Time { return time.Now().In(loc) }

	hub := ws.NewHub(logger.With("component", "websocket"))
	familyStore := store.NewFamilyStore(db)
	insightClient := insight.NewClient(cfg.Insight, logger.With("component", "insight"))

	return &Server{
		db:             db,
		hub:            hub,
		familyStore:    familyStore,
		familyH:        handler.NewFamilyHandler(familyStore, hub, cfg.DefaultAuthor, now, logger.With("component", "family")),
		reportH:        handler.NewReportHandler(familyStore, now, logger.With("component", "report")),
		insightH:       handler.NewInsightHandler(familyStore, insightClient, logger.With("component", "insight_handler")),
		rateLimiter:    middleware.NewRateLimiter(cfg.InsightRateLimit, time.Minute),
		allowedOrigins: cfg.AllowedOrigins,
		logger:         logger,
	}
}

// FamilyStore returns the record store, used to load seed data.
func (s *Server) FamilyStore() *store.FamilyStore {
	return s.familyStore
}

// RateLimiter returns the insight rate limiter for cleanup tasks.
func (s *Server) RateLimiter() *middleware.RateLimiter {
	return s.rateLimiter
}

func (s *Server) Router() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", s.healthHandler)
	mux.HandleFunc("GET /ws", ws.HandleWebSocket(s.hub, s.allowedOrigins, s.logger.With("component", "websocket")))

	// Families
	mux.HandleFunc("GET /api/families", s.familyH.List)
	mux.HandleFunc("GET /api/families/in-progress", s.familyH.InProgress)
	mux.HandleFunc("POST /api/families", s.familyH.Create)
	mux.HandleFunc("GET /api/families/{id}", s.familyH.Get)
	mux.HandleFunc("PATCH /api/families/{id}", s.familyH.Update)
	mux.HandleFunc("DELETE /api/families/{id}", s.familyH.Delete)
	mux.HandleFunc("PUT /api/families/{id}/stage", s.familyH.SetStage)
	mux.HandleFunc("POST /api/families/{id}/stage/next", s.familyH.NextStage)
	mux.HandleFunc("POST /api/families/{id}/interactions", s.familyH.AddInteraction)
	mux.HandleFunc("DELETE /api/families/{id}/interactions/{interaction_id}", s.familyH.DeleteInteraction)
	mux.Handle("GET /api/families/{id}/insights", s.rateLimited(s.insightH.Get))

	// Reports
	mux.HandleFunc("GET /api/dashboard", s.reportH.Dashboard)
	mux.HandleFunc("GET /api/reports/monthly", s.reportH.Monthly)
	mux.HandleFunc("GET /api/reports/monthly/export", s.reportH.Export)

	return middleware.RequestLogger(s.logger.With("component", "http"))(mux)
}

func (s *Server) rateLimited(h http.HandlerFunc) http.Handler {
	return middleware.RateLimit(s.rateLimiter, middleware.RealIP)(h)
}

func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	status, code := "ok", http.StatusOK
	if err := s.db.PingContext(r.Context()); err != nil {
		s.logger.Error("health check", "error", err)
		status, code = "unavailable", http.StatusServiceUnavailable
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(map[string]string{"status": status})
}
