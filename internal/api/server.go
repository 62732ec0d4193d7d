package api

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-playground/validator/v10"

	"github.com/mnohosten/mailbridge/internal/config"
	"github.com/mnohosten/mailbridge/internal/logging"
	"github.com/mnohosten/mailbridge/internal/service"
	"github.com/mnohosten/mailbridge/internal/version"
)

// Server is the HTTP API server.
type Server struct {
	cfg      *config.Config
	logger   *slog.Logger
	svc      *service.Service
	auth     *Auth
	validate *validator.Validate
	http     *http.Server
}

// NewServer creates the API server around a running service.
func NewServer(cfg *config.Config, logger *slog.Logger, svc *service.Service) *Server {
	s := &Server{
		cfg:      cfg,
		logger:   logging.WithComponent(logger, "api"),
		svc:      svc,
		auth:     NewAuth(cfg.API.JWTSecret, cfg.API.JWTExpiry, cfg.API.APIKey),
		validate: validator.New(),
	}

	s.http = &http.Server{
		Addr:         cfg.API.ListenAddr,
		Handler:      s.routes(),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	return s
}

// routes builds the router.
func (s *Server) routes() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))
	r.Use(s.logRequests)

	if s.cfg.API.EnableCORS {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins:   s.cfg.API.CORSOrigins,
			AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
			AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-API-Key"},
			AllowCredentials: true,
			MaxAge:           300,
		}))
	}

	r.Get("/health", s.handleHealth)
	r.Post("/auth/token", s.handleToken)

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(s.auth.Middleware)

		r.Route("/emails", func(r chi.Router) {
			r.Post("/", s.handleSendEmail)
			r.Post("/bulk", s.handleBulkSend)
			r.Get("/recent", s.handleRecentEmails)
			r.Post("/search", s.handleSearchEmails)
			r.Get("/statistics", s.handleStatistics)
			r.Post("/drafts", s.handleCreateDraft)

			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", s.handleGetEmail)
				r.Delete("/", s.handleDeleteEmail)
				r.Put("/read", s.handleMarkRead)
				r.Post("/forward", s.handleForwardEmail)
				r.Post("/reply", s.handleReplyEmail)
			})
		})

		r.Route("/scheduled", func(r chi.Router) {
			r.Post("/", s.handleScheduleEmail)
			r.Get("/", s.handleListScheduled)
			r.Post("/dispatch", s.handleDispatchScheduled)
			r.Delete("/{id}", s.handleCancelScheduled)
		})

		r.Route("/contacts", func(r chi.Router) {
			r.Post("/", s.handleCreateContact)
			r.Get("/", s.handleListContacts)
			r.Get("/search", s.handleSearchContacts)
			r.Get("/group/{group}", s.handleContactsByGroup)
			r.Put("/{id}", s.handleUpdateContact)
			r.Delete("/{id}", s.handleDeleteContact)
		})
	})

	return r
}

// logRequests logs each request with its outcome and puts a
// request-scoped logger into the context for downstream handlers.
func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		reqLogger := logging.WithRequestID(s.logger, middleware.GetReqID(r.Context()))
		r = r.WithContext(logging.WithContext(r.Context(), reqLogger))

		next.ServeHTTP(ww, r)

		reqLogger.Info("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"duration_ms", time.Since(start).Milliseconds(),
		)
	})
}

// Start begins serving. Blocks until the server stops.
func (s *Server) Start() error {
	s.logger.Info("starting API server", "addr", s.cfg.API.ListenAddr, "auth", s.auth.Enabled())
	if err := s.http.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down API server")
	return s.http.Shutdown(ctx)
}

// handleHealth reports liveness.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{
		"status":  "ok",
		"version": version.Version,
	})
}

// handleToken exchanges the configured API key for a JWT.
func (s *Server) handleToken(w http.ResponseWriter, r *http.Request) {
	var req TokenRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_REQUEST", "invalid request body")
		return
	}
	if err := s.validate.Struct(&req); err != nil {
		respondValidationError(w, err)
		return
	}

	if s.cfg.API.APIKey == "" || req.APIKey != s.cfg.API.APIKey {
		respondError(w, http.StatusUnauthorized, "UNAUTHORIZED", "invalid API key")
		return
	}

	token, expiresAt, err := s.auth.GenerateToken()
	if err != nil {
		respondError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "failed to generate token")
		return
	}

	respondJSON(w, http.StatusOK, TokenResponse{Token: token, ExpiresAt: expiresAt})
}
