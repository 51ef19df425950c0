// Package server wires the chi router and runs the HTTP server
package server

import (
	"context"
	"net"
	"net/http"

	"github.com/alchemorsel/recipegen/internal/infrastructure/config"
	"github.com/alchemorsel/recipegen/internal/infrastructure/http/handlers"
	"github.com/alchemorsel/recipegen/internal/infrastructure/http/middleware"
	"github.com/alchemorsel/recipegen/internal/infrastructure/monitoring"
	"github.com/alchemorsel/recipegen/internal/ports/inbound"
	"github.com/alchemorsel/recipegen/pkg/healthcheck"
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
	"golang.org/x/net/http2"
)

// SessionAuth logs users in and checks the session cookie of every
// protected request
type SessionAuth interface {
	handlers.Authenticator
	middleware.SessionValidator
}

// Dependencies are the collaborators the routes are served from. Metrics,
// Tracing and RateLimiter are optional.
type Dependencies struct {
	RecipeService inbound.RecipeService
	Auth          SessionAuth
	Health        *healthcheck.HealthCheck
	Metrics       *monitoring.MetricsCollector
	Tracing       *monitoring.TracingProvider
	RateLimiter   *middleware.RateLimiter
}

// Server represents the HTTP server
type Server struct {
	config *config.Config
	logger *zap.Logger
	deps   Dependencies
	router *chi.Mux
	server *http.Server
}

// NewServer creates a new HTTP server instance
func NewServer(cfg *config.Config, logger *zap.Logger, deps Dependencies) *Server {
	s := &Server{
		config: cfg,
		logger: logger.Named("http-server"),
		deps:   deps,
	}

	s.router = s.setupRouter()

	s.server = &http.Server{
		Addr:              cfg.Address(),
		Handler:           s.router,
		ReadTimeout:       cfg.Server.ReadTimeout,
		WriteTimeout:      cfg.Server.WriteTimeout,
		IdleTimeout:       cfg.Server.IdleTimeout,
		ReadHeaderTimeout: cfg.Server.ReadTimeout,
		MaxHeaderBytes:    cfg.Server.MaxHeaderBytes,
	}

	return s
}

// Handler returns the root handler
func (s *Server) Handler() http.Handler {
	return s.router
}

// Addr returns the configured listen address
func (s *Server) Addr() string {
	return s.server.Addr
}

func (s *Server) setupRouter() *chi.Mux {
	r := chi.NewRouter()
	monitoringCfg := s.config.Monitoring

	r.Use(middleware.RequestID())
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.Logger(s.logger, monitoringCfg.HealthCheckPath, monitoringCfg.MetricsPath))
	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.Security())
	if s.deps.Tracing != nil {
		r.Use(middleware.Tracing(s.deps.Tracing))
	}
	if s.deps.Metrics != nil {
		r.Use(middleware.Metrics(s.deps.Metrics))
	}

	// Public routes
	authHandlers := handlers.NewAuthHandlers(s.deps.Auth, s.logger)
	r.Get(middleware.LoginPath, authHandlers.LoginPage)
	r.Post(middleware.LoginPath, authHandlers.Login)

	if s.deps.Health != nil {
		r.Get(monitoringCfg.HealthCheckPath, s.deps.Health.Handler())
		r.Get(monitoringCfg.HealthCheckPath+"/live", s.deps.Health.LivenessHandler())
	}
	if monitoringCfg.EnableMetrics && s.deps.Metrics != nil {
		r.Handle(monitoringCfg.MetricsPath, s.deps.Metrics.Handler())
	}

	// Session protected routes
	recipeHandlers := handlers.NewRecipeHandlers(s.deps.RecipeService, s.config.Server.MaxBodyBytes, s.logger)
	frontendHandlers := handlers.NewFrontendHandlers(s.config.Server.IndexTemplate, s.logger)

	r.Group(func(r chi.Router) {
		r.Use(middleware.RequireSession(s.deps.Auth, s.logger))

		r.Get("/", frontendHandlers.Home)
		r.Get("/logout", authHandlers.Logout)

		r.Group(func(r chi.Router) {
			if s.deps.RateLimiter != nil {
				r.Use(s.deps.RateLimiter.Middleware())
			}
			r.Post("/generate_recipe", recipeHandlers.GenerateRecipe)
		})

		r.Get("/categories", recipeHandlers.Categories)
		r.Get("/recipes", recipeHandlers.ListRecipes)
		r.Get("/recipes/{category}", recipeHandlers.ListRecipesByCategory)
		r.Get("/recipes/{category}/{subcategory}", recipeHandlers.ListRecipesBySubcategory)
		r.Get("/generate_pdf", recipeHandlers.ExportPDF)
	})

	return r
}

// Start listens on the configured address and serves until Shutdown
func (s *Server) Start() error {
	ln, err := net.Listen("tcp", s.server.Addr)
	if err != nil {
		return err
	}
	return s.Serve(ln)
}

// Serve serves on ln until Shutdown
func (s *Server) Serve(ln net.Listener) error {
	s.logger.Info("Starting HTTP server",
		zap.String("address", ln.Addr().String()),
		zap.String("environment", s.config.App.Environment),
		zap.Bool("http2", s.config.Server.EnableHTTP2),
	)

	if s.config.Server.EnableHTTP2 {
		if err := http2.ConfigureServer(s.server, nil); err != nil {
			s.logger.Error("Failed to configure HTTP/2", zap.Error(err))
		}
	}

	return s.server.Serve(ln)
}

// Shutdown gracefully shuts down the HTTP server
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("Shutting down HTTP server")
	return s.server.Shutdown(ctx)
}
