// Package server assembles the facet HTTP server: routes, middleware and the
// per-connection session factory.
package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	apihttp "github.com/facetlabs/facet/internal/api/http"
	"github.com/facetlabs/facet/internal/api/middleware"
	"github.com/facetlabs/facet/internal/api/ws"
	"github.com/facetlabs/facet/internal/appdef"
	"github.com/facetlabs/facet/internal/domain/data"
	"github.com/facetlabs/facet/internal/domain/filter"
	"github.com/facetlabs/facet/internal/domain/lifecycle"
	"github.com/facetlabs/facet/internal/domain/registry"
	"github.com/facetlabs/facet/internal/domain/session"
	"github.com/facetlabs/facet/internal/infrastructure/config"
	"github.com/facetlabs/facet/internal/infrastructure/logging"
	"github.com/facetlabs/facet/internal/infrastructure/monitoring"
	"github.com/facetlabs/facet/internal/modules"
)

// Server wraps the HTTP server and its dependencies.
type Server struct {
	router     *gin.Engine
	httpServer *http.Server
	manager    *session.Manager
	logger     *logging.Logger
	config     *config.Config
	metrics    *monitoring.Metrics
}

// New creates a server instance from configuration. The application
// definition is loaded and validated once at startup; each WebSocket
// connection then gets its own session built from it.
func New(cfg *config.Config) (*Server, error) {
	logger, err := logging.New(cfg.Logging.Level, cfg.Logging.Development)
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}

	logger.Info("Initializing facet server",
		zap.String("port", cfg.Server.Port),
		zap.String("app_definition", cfg.App.Definition),
	)

	metrics := monitoring.NewMetrics()

	def, err := appdef.Load(cfg.App.Definition)
	if err != nil {
		return nil, err
	}
	// Validate the layout against the catalog up front so a bad definition
	// fails at startup, not on the first connection.
	catalog := modules.DefaultCatalog()
	if _, err := def.BuildTree(catalog); err != nil {
		return nil, err
	}
	logger.Info("Application definition loaded",
		zap.String("title", def.Title),
		zap.Int("sources", len(def.Data.Sources)),
	)

	manager := session.NewManager().WithMetrics(metrics)
	factory := sessionFactory(def, catalog, cfg.App.ID)

	if !cfg.Logging.Development {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.CORS(middleware.DefaultCORSConfig()))
	if cfg.RateLimit.Enabled {
		logger.Info("Rate limiting enabled",
			zap.Int("rps", cfg.RateLimit.RequestsPerSecond),
			zap.Int("burst", cfg.RateLimit.Burst),
		)
		router.Use(middleware.RateLimit(middleware.RateLimitConfig{
			RequestsPerSecond: cfg.RateLimit.RequestsPerSecond,
			Burst:             cfg.RateLimit.Burst,
		}))
	}

	handlers := apihttp.NewHandlers(manager).WithMetrics(metrics)
	handlers.Register(router)

	wsHandler := ws.NewHandler(factory, manager, logger).WithMetrics(metrics)
	router.GET("/stream", wsHandler.HandleConnection)

	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	logger.Info("Server initialized")

	return &Server{
		router:  router,
		manager: manager,
		logger:  logger,
		config:  cfg,
		metrics: metrics,
	}, nil
}

// sessionFactory builds one session per connection. Each session gets a
// fresh module tree (modules hold per-session state) and a fresh resolver.
func sessionFactory(def *appdef.Definition, catalog appdef.Catalog, appID string) ws.SessionFactory {
	return func(p lifecycle.Presenter, sink registry.Sink, bookmark any) (*session.Session, error) {
		tree, err := def.BuildTree(catalog)
		if err != nil {
			return nil, err
		}

		var resolver data.Resolver
		if len(def.Data.Sources) > 0 {
			resolver = data.NewRemoteResolver(def.Data.Sources)
		} else {
			resolver = data.PendingResolver{}
		}

		return session.New(session.Options{
			Title:         def.Title,
			Header:        def.Header,
			Footer:        def.Footer,
			Tree:          tree,
			DefaultFilter: filter.NewState(appID),
			Bookmark:      bookmark,
			Resolver:      resolver,
			Presenter:     p,
			Sink:          sink,
		})
	}
}

// Run starts the HTTP server and blocks until it stops.
func (s *Server) Run() error {
	addr := s.config.Server.Host + ":" + s.config.Server.Port
	s.logger.Info("Starting HTTP server", zap.String("addr", addr))

	s.httpServer = &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Close gracefully shuts down the server.
func (s *Server) Close() error {
	s.logger.Info("Shutting down server...")

	if s.httpServer != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := s.httpServer.Shutdown(ctx); err != nil {
			s.logger.Error("Graceful shutdown failed", zap.Error(err))
			return err
		}
	}

	s.logger.Sync()
	return nil
}
