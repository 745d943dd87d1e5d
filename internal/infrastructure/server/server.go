package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"

	apihttp "github.com/GriffinCanCode/AgentOS/deskshell/internal/api/http"
	"github.com/GriffinCanCode/AgentOS/deskshell/internal/api/middleware"
	"github.com/GriffinCanCode/AgentOS/deskshell/internal/api/ws"
	"github.com/GriffinCanCode/AgentOS/deskshell/internal/domain/editor"
	"github.com/GriffinCanCode/AgentOS/deskshell/internal/domain/registry"
	"github.com/GriffinCanCode/AgentOS/deskshell/internal/domain/session"
	"github.com/GriffinCanCode/AgentOS/deskshell/internal/domain/workspace"
	"github.com/GriffinCanCode/AgentOS/deskshell/internal/infrastructure/config"
	"github.com/GriffinCanCode/AgentOS/deskshell/internal/infrastructure/logging"
	"github.com/GriffinCanCode/AgentOS/deskshell/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/AgentOS/deskshell/internal/providers/deploy"
)

const shutdownTimeout = 10 * time.Second

// Server wraps the HTTP server and dependencies
type Server struct {
	router     *gin.Engine
	controller *session.Controller
	bridge     *ws.Bridge
	surface    *editor.Surface
	store      *workspace.FileStore
	catalog    *registry.Catalog
	logger     *logging.Logger
	config     *config.Config
	metrics    *monitoring.Metrics
}

// NewServer creates a new server instance
func NewServer(cfg *config.Config) (*Server, error) {
	logger, err := logging.New(logging.Config{
		Level:       cfg.Logging.Level,
		Development: cfg.Logging.Development,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create logger: %w", err)
	}

	logger.Info("Initializing deskshell",
		zap.String("addr", cfg.Server.Addr()),
		zap.Bool("development", cfg.Logging.Development),
	)

	// Metrics first, every component records into them
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	metrics := monitoring.NewMetrics(reg)

	catalog, err := registry.Default()
	if err != nil {
		return nil, fmt.Errorf("failed to load built-in providers: %w", err)
	}
	seeder := registry.NewSeeder(catalog, cfg.Providers.Dir, logger.Component("registry"))
	if loaded, failed, err := seeder.Seed(); err != nil {
		logger.Warn("Failed to seed providers", zap.String("dir", cfg.Providers.Dir), zap.Error(err))
	} else if loaded > 0 || failed > 0 {
		logger.Info("Seeded providers", zap.Int("loaded", loaded), zap.Int("failed", failed))
	}

	path, err := cfg.Workspace.ResolvePath()
	if err != nil {
		return nil, err
	}
	store := workspace.NewFileStore(path, logger.Component("workspace"))
	logger.Info("Workspace store ready", zap.String("path", path))

	surface := editor.NewSurface(catalog, logger.Component("editor"))
	bridge := ws.NewBridge(cfg.Bridge, logger.Component("bridge"), metrics)

	controller := session.New(session.Options{
		Host:      bridge,
		Editor:    surface,
		Store:     store,
		Providers: catalog,
		Logger:    logger.Component("session"),
		Metrics:   metrics,
	})
	surface.SetListener(controller)

	deployer := deploy.NewDeployer(deploy.NewClient(cfg.Deploy), logger.Component("deploy"), metrics)

	if !cfg.Logging.Development {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()

	router.Use(gin.Recovery())
	router.Use(monitoring.Middleware(metrics))
	router.Use(middleware.RequestLogger(logger.Component("http")))
	router.Use(middleware.CORS(middleware.DefaultCORSConfig()))
	if cfg.RateLimit.Enabled {
		logger.Info("Rate limiting enabled",
			zap.Int("rps", cfg.RateLimit.RequestsPerSecond),
			zap.Int("burst", cfg.RateLimit.Burst),
		)
		router.Use(middleware.RateLimit(cfg.RateLimit))
	}

	handlers := apihttp.NewHandlers(controller, store, surface, catalog, deployer, logger.Component("api"))
	handlers.Register(router)

	router.GET("/ws", bridge.HandleConnection)
	router.GET("/metrics", gin.WrapH(metrics.Handler()))

	logger.Info("Server initialized successfully", zap.Int("providers", catalog.Len()))

	return &Server{
		router:     router,
		controller: controller,
		bridge:     bridge,
		surface:    surface,
		store:      store,
		catalog:    catalog,
		logger:     logger,
		config:     cfg,
		metrics:    metrics,
	}, nil
}

// Handler returns the HTTP handler serving the API and the host bridge
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start activates the session controller and restores the workspace.
// Frames for the host are queued until it connects.
func (s *Server) Start(ctx context.Context) {
	s.controller.Activate(ctx)
	s.controller.HandleReady(ctx)
}

// Run serves on the configured address until ctx is canceled
func (s *Server) Run(ctx context.Context) error {
	addr := s.config.Server.Addr()
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", addr, err)
	}
	return s.Serve(ctx, ln)
}

// Serve serves on ln until ctx is canceled
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("Starting HTTP server", zap.String("addr", ln.Addr().String()))
		errCh <- srv.Serve(ln)
	}()

	s.Start(ctx)

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	// Close the bridge first, hijacked websocket connections are not
	// tracked by Shutdown
	closeErr := s.Close()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("failed to shut down http server: %w", err)
	}
	return closeErr
}

// Close releases the host subscriptions, flushes pending saves and closes
// the host bridge
func (s *Server) Close() error {
	s.logger.Info("Shutting down server...")

	s.controller.Deactivate()

	if err := s.bridge.Close(); err != nil {
		s.logger.Error("Failed to close host bridge", zap.Error(err))
		return fmt.Errorf("failed to close host bridge: %w", err)
	}

	// Sync logger before exit
	_ = s.logger.Sync()

	return nil
}
