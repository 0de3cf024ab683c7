package handlers

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"renovationcost/config"
	"renovationcost/services"
)

// Server is the HTTP API of the estimator.
type Server struct {
	router   chi.Router
	sessions *SessionStore
	log      *slog.Logger
	cfg      config.Config
}

// NewServer creates and configures the HTTP server. catalog, when not nil,
// is the price list every new session starts with.
func NewServer(cfg config.Config, catalog *services.Catalog, log *slog.Logger) *Server {
	s := &Server{
		sessions: NewSessionStore(catalog, cfg.Budget(), cfg.SessionIdleTimeout),
		log:      log,
		cfg:      cfg,
	}
	s.setupRoutes()
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) setupRoutes() {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(RequestLogger(s.log))

	r.Get("/healthz", s.handleHealth)

	r.Group(func(r chi.Router) {
		r.Use(SessionMiddleware(s.sessions, s.log))

		r.Post("/survey", s.handleSurveyUpload)
		r.Get("/rooms", s.handleRooms)
		r.Post("/price-list", s.handlePriceListUpload)
		r.Get("/activities", s.handleActivities)

		r.Put("/rooms/{room}", s.handleSelectRoom)
		r.Put("/rooms/{room}/activities/{activity}", s.handleSaveActivity)
		r.Delete("/rooms/{room}/activities/{activity}", s.handleDisableActivity)
		r.Put("/budget", s.handleBudget)

		r.Get("/totals", s.handleTotals)
		r.Get("/report.xlsx", s.handleReportXLSX)
		r.Post("/report", s.handleReportSave)
		r.Get("/report.pdf", s.handleReportPDF)
	})

	s.router = r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(`{"status":"ok"}`))
}
