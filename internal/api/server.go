// Package api provides the HTTP API server for the site builder.
package api

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/narvanalabs/sitebuilder/internal/api/handlers"
	"github.com/narvanalabs/sitebuilder/internal/api/health"
	"github.com/narvanalabs/sitebuilder/internal/api/middleware"
	"github.com/narvanalabs/sitebuilder/internal/auth"
	"github.com/narvanalabs/sitebuilder/internal/deploy"
	"github.com/narvanalabs/sitebuilder/internal/domains"
	"github.com/narvanalabs/sitebuilder/internal/events"
	"github.com/narvanalabs/sitebuilder/internal/onboarding"
	"github.com/narvanalabs/sitebuilder/internal/store"
	"github.com/narvanalabs/sitebuilder/internal/templates"
	"github.com/narvanalabs/sitebuilder/pkg/config"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Version is the current version of the API server.
// This should be set at build time using ldflags.
var Version = "dev"

// Dependencies are the engine components the server exposes.
type Dependencies struct {
	Store      store.Store
	Controller *deploy.Controller
	Domains    *domains.Manager
	Broker     *events.Broker
	Auth       *auth.Service
	// Registry defaults to the embedded template catalog.
	Registry *templates.Registry
	// Health defaults to a checker without components.
	Health *health.Checker
}

// Server represents the HTTP API server.
type Server struct {
	router     chi.Router
	mu         sync.Mutex
	httpServer *http.Server
	deps       Dependencies
	config     *config.Config
	logger     *slog.Logger
	menus      *handlers.MenuCatalog
}

// NewServer creates a new API server with the given dependencies.
func NewServer(cfg *config.Config, deps Dependencies, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	if deps.Registry == nil {
		deps.Registry = templates.Default()
	}
	if deps.Health == nil {
		deps.Health = health.NewChecker(Version)
	}

	s := &Server{
		deps:   deps,
		config: cfg,
		logger: logger,
		menus:  handlers.NewMenuCatalog(),
	}
	s.setupRouter()
	return s
}

// setupRouter configures the router with middleware and routes.
func (s *Server) setupRouter() {
	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.RequestLogger(s.logger))
	r.Use(middleware.Recovery(s.logger))

	source := &handlers.ConfigSource{
		Configs:     s.deps.Store.SiteConfigs(),
		Restaurants: s.deps.Store.Restaurants(),
		Registry:    s.deps.Registry,
	}
	configHandler := handlers.NewConfigHandler(source, s.logger)
	previewHandler := handlers.NewPreviewHandler(source, s.menus, s.logger)
	menuHandler := handlers.NewMenuHandler(s.menus, s.logger)
	deploymentHandler := handlers.NewDeploymentHandler(source, s.deps.Controller, s.logger)
	streamHandler := handlers.NewStreamHandler(s.deps.Broker, s.deps.Controller, s.logger)
	domainHandler := handlers.NewDomainHandler(s.deps.Domains, s.logger)
	onboardingHandler := handlers.NewOnboardingHandler(
		onboarding.NewRestaurantCreator(s.deps.Store.Restaurants()), source, s.deps.Auth, s.logger)

	docsHandler := handlers.NewDocsHandler(s.logger)

	authMiddleware := middleware.NewAuthMiddleware(s.deps.Auth, s.logger)
	requireSite := middleware.RequireSite(s.logger)

	// Health and metrics (no auth required)
	r.Get("/health", s.deps.Health.Handler())
	r.Handle("/metrics", promhttp.Handler())

	r.Get("/api/docs", docsHandler.ServeSwaggerUI)
	r.Get("/api/docs/openapi.yaml", docsHandler.ServeOpenAPISpec)

	r.Route("/v1", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			r.Use(chimiddleware.Timeout(60 * time.Second))

			r.Get("/templates", configHandler.Templates)
			r.Post("/restaurants", onboardingHandler.CreateRestaurant)
			r.With(middleware.RequireHookSecret(s.config.Deploy.HookSecret, s.config.IsDev())).
				Post("/hooks/ssl", domainHandler.SSLCallback)
		})

		r.Route("/sites/{siteID}", func(r chi.Router) {
			r.Use(authMiddleware.Authenticate)
			r.Use(requireSite)

			// Websocket streams outlive the request timeout.
			r.Get("/deployments/stream", streamHandler.Stream)

			r.Group(func(r chi.Router) {
				r.Use(chimiddleware.Timeout(60 * time.Second))

				r.Get("/config", configHandler.Get)
				r.Patch("/config", configHandler.Update)
				r.Post("/config/template", configHandler.ApplyTemplate)
				r.Get("/config/validate", configHandler.Validate)

				r.Post("/preview", previewHandler.Render)

				r.Get("/menu-items", menuHandler.List)
				r.Post("/menu-items", menuHandler.Create)
				r.Put("/menu-items", menuHandler.Replace)
				r.Patch("/menu-items/{name}", menuHandler.Update)
				r.Delete("/menu-items/{name}", menuHandler.Delete)

				r.Get("/deployments", deploymentHandler.Status)
				r.Post("/deployments", deploymentHandler.Submit)
				r.Post("/deployments/redeploy", deploymentHandler.Redeploy)
				r.Post("/deployments/retry", deploymentHandler.Retry)
				r.Get("/deployments/history", deploymentHandler.History)

				r.Get("/domain", domainHandler.Get)
				r.Put("/domain", domainHandler.Bind)
				r.Delete("/domain", domainHandler.Unbind)
			})
		})
	})

	s.router = r
}

// Start starts the HTTP server and blocks until ctx is done or the server
// fails.
func (s *Server) Start(ctx context.Context) error {
	addr := s.config.Addr()
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       15 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
	s.mu.Lock()
	s.httpServer = srv
	s.mu.Unlock()

	s.logger.Info("starting API server", "addr", addr)

	errCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err, ok := <-errCh:
		if !ok {
			return nil
		}
		return fmt.Errorf("server error: %w", err)
	case <-ctx.Done():
		return nil
	}
}

// Name identifies the server during shutdown.
func (s *Server) Name() string {
	return "http-server"
}

// Shutdown gracefully shuts down the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	srv := s.httpServer
	s.mu.Unlock()
	if srv == nil {
		return nil
	}
	s.logger.Info("shutting down API server")
	return srv.Shutdown(ctx)
}

// Router returns the chi router for testing purposes.
func (s *Server) Router() chi.Router {
	return s.router
}
