package api

import (
	"log/slog"
	"net/http"

	"github.com/dgallion1/budgetdesk/internal/blobstore"
	"github.com/dgallion1/budgetdesk/internal/budget"
	"github.com/dgallion1/budgetdesk/internal/config"
	"github.com/dgallion1/budgetdesk/internal/pipeline"
	"github.com/dgallion1/budgetdesk/internal/suggest"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// Server is the HTTP API server for budgetdesk.
type Server struct {
	router       chi.Router
	budget       *budget.Service
	blobs        *blobstore.Store
	orchestrator *pipeline.Orchestrator
	claude       *suggest.ClaudeClient
	log          *slog.Logger
	cfg          config.Config
}

// NewServer creates and configures the HTTP server.
func NewServer(svc *budget.Service, blobs *blobstore.Store, orch *pipeline.Orchestrator, claude *suggest.ClaudeClient, log *slog.Logger, cfg config.Config) *Server {
	s := &Server{
		budget:       svc,
		blobs:        blobs,
		orchestrator: orch,
		claude:       claude,
		log:          log,
		cfg:          cfg,
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

	// Public endpoints.
	r.Get("/health", s.handleHealth)

	r.Route("/api", func(r chi.Router) {
		if s.cfg.APIKey != "" {
			r.Use(AuthMiddleware(s.cfg.APIKey, s.log))
		}

		r.Route("/operating", func(r chi.Router) {
			r.Get("/", s.handleListOperating)
			r.Post("/", s.handleCreateOperating)
			r.Get("/export.csv", s.handleExportOperating)
			r.Get("/{id}", s.handleGetOperating)
			r.Put("/{id}", s.handleUpdateOperating)
			r.Delete("/{id}", s.handleDeleteOperating)
		})

		r.Route("/positions", func(r chi.Router) {
			r.Get("/", s.handleListPositions)
			r.Post("/", s.handleCreatePosition)
			r.Get("/export.csv", s.handleExportPositions)
			r.Get("/{id}", s.handleGetPosition)
			r.Put("/{id}", s.handleUpdatePosition)
			r.Delete("/{id}", s.handleDeletePosition)
		})

		r.Get("/envelopes", s.handleListEnvelopes)
		r.Put("/envelopes", s.handleSaveEnvelope)
		r.Get("/envelopes/{department}/{year}", s.handleGetEnvelope)
		r.Delete("/envelopes/{department}/{year}", s.handleDeleteEnvelope)

		r.Get("/summary/{department}/{year}", s.handleSummary)

		r.Get("/narrative", s.handleGetNarrative)
		r.Put("/narrative", s.handlePutNarrative)
		r.Get("/narrative/source", s.handleNarrativeSource)
		r.Post("/narrative/upload", s.handleUploadNarrative)
		r.Get("/narrative/upload/{jobID}", s.handleUploadStatus)

		r.Post("/suggest", s.handleSuggest)
		r.Get("/stats/llm", s.handleLLMStats)
	})

	s.router = r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":        "ok",
		"store_backend": s.cfg.StoreBackend,
		"queue_depth":   s.orchestrator.QueueDepth(),
		"suggestions":   s.claude.Enabled(),
	})
}
