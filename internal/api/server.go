// Package api provides the HTTP API server and handlers for the board icon service.
package api

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/boardicon/boardicon-server/internal/sse"
	"github.com/boardicon/boardicon-server/internal/validation"
)

// Pinger reports whether the database is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Options holds the HTTP-facing settings of the server.
type Options struct {
	IconDir          string   // served at /icon/board/
	StylesheetPath   string   // served at /style/boardIcon.less
	AllowedOrigins   []string // CORS; empty disables cross-origin access
	UploadsPerMinute int      // per client IP, 0 disables the limit
	MaxUploadSize    int64    // request body cap for uploads, 0 uses MaxUploadSize
}

// Server holds dependencies for HTTP handlers.
type Server struct {
	services      *Services
	db            Pinger
	sseManager    *sse.Manager
	sseHandler    *sse.Handler
	router        *chi.Mux
	api           huma.API
	uploadLimiter *RateLimiter
	validator     *validation.Validator
	logger        *slog.Logger
	opts          Options
}

// NewServer creates a new HTTP server with all routes configured.
func NewServer(services *Services, db Pinger, sseManager *sse.Manager, opts Options, logger *slog.Logger) *Server {
	if opts.MaxUploadSize <= 0 {
		opts.MaxUploadSize = MaxUploadSize
	}

	router := chi.NewRouter()
	s := &Server{
		services:   services,
		db:         db,
		sseManager: sseManager,
		sseHandler: sse.NewHandler(sseManager, logger),
		router:     router,
		validator:  validation.New(),
		logger:     logger,
		opts:       opts,
	}
	if opts.UploadsPerMinute > 0 {
		s.uploadLimiter = NewRateLimiter(opts.UploadsPerMinute, time.Minute, opts.UploadsPerMinute)
	}

	// Middleware must be in place before the first route is added.
	s.setupMiddleware()

	s.api = humachi.New(router, huma.DefaultConfig("Board Icon API", "1.0.0"))
	RegisterErrorHandler()

	s.setupRoutes()

	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// Close releases background resources held by the server.
func (s *Server) Close() {
	if s.uploadLimiter != nil {
		s.uploadLimiter.Stop()
	}
}

// setupMiddleware configures middleware stack.
func (s *Server) setupMiddleware() {
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(middleware.Logger)
	s.router.Use(middleware.Recoverer)

	if len(s.opts.AllowedOrigins) > 0 {
		s.router.Use(cors.Handler(cors.Options{
			AllowedOrigins: s.opts.AllowedOrigins,
			AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete, http.MethodOptions},
			AllowedHeaders: []string{"Accept", "Content-Type", "X-Request-ID"},
			ExposedHeaders: []string{"X-Request-ID"},
			MaxAge:         300,
		}))
	}
}

// setupRoutes configures all HTTP routes.
func (s *Server) setupRoutes() {
	s.registerHealthRoutes()
	s.registerIconRoutes()
	s.registerUploadRoutes()
	s.registerBoardRoutes()
	s.registerDefaultRoutes()
	s.registerStylesheetRoutes()
	s.registerStaticRoutes()

	s.router.Get("/api/v1/events", s.sseHandler.ServeHTTP)
}
