package api

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/validator/v10"

	"studyassist/internal/assistant"
	"studyassist/internal/config"
)

// Server is the HTTP API server for studyassist.
type Server struct {
	router   chi.Router
	svc      *assistant.Service
	log      *slog.Logger
	cfg      config.Config
	validate *validator.Validate
}

// NewServer creates and configures the HTTP server.
func NewServer(svc *assistant.Service, log *slog.Logger, cfg config.Config) *Server {
	s := &Server{
		svc:      svc,
		log:      log,
		cfg:      cfg,
		validate: validator.New(),
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

	// Authenticated endpoints.
	r.Group(func(r chi.Router) {
		r.Use(AuthMiddleware(s.cfg.APIKey, s.log))

		r.Post("/api/documents", s.handleIngest)
		r.Get("/api/documents", s.handleListDocuments)
		r.Get("/api/documents/{docID}", s.handleGetDocument)

		r.Post("/api/documents/{docID}/questions", s.handleGenerateQuestions)
		r.Get("/api/documents/{docID}/questions", s.handleListQuestions)
		r.Post("/api/documents/{docID}/answer", s.handleAnswer)
		r.Post("/api/documents/{docID}/chat", s.handleChat)
		r.Post("/api/documents/{docID}/summary", s.handleSummary)
	})

	s.router = r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(`{"status":"ok"}`))
}
