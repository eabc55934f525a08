package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"

	"github.com/snapshelf/snapshelf/internal/api/handlers"
	apimw "github.com/snapshelf/snapshelf/internal/api/middleware"
	"github.com/snapshelf/snapshelf/internal/api/ratelimit"
	"github.com/snapshelf/snapshelf/internal/api/validation"
	"github.com/snapshelf/snapshelf/internal/catalog"
	"github.com/snapshelf/snapshelf/internal/config"
	"github.com/snapshelf/snapshelf/internal/database"
	"github.com/snapshelf/snapshelf/internal/health"
	"github.com/snapshelf/snapshelf/internal/matchcache"
	"github.com/snapshelf/snapshelf/internal/metadata"
	"github.com/snapshelf/snapshelf/internal/moviematch"
	"github.com/snapshelf/snapshelf/internal/scheduler"
	"github.com/snapshelf/snapshelf/internal/scheduler/tasks"
	"github.com/snapshelf/snapshelf/internal/startup"
	"github.com/snapshelf/snapshelf/internal/vision"
)

// rateLimitCleanupTaskID identifies the idle rate limit bucket cleanup.
const rateLimitCleanupTaskID = "ratelimit-cleanup"

// Server handles HTTP requests for the SnapShelf API.
type Server struct {
	echo    *echo.Echo
	db      *database.DB
	cfg     *config.Config
	logger  zerolog.Logger
	clock   clockwork.Clock
	logFile string
	started time.Time

	// Services
	catalogStore     *catalog.Store
	matchCache       *matchcache.Store
	healthService    *health.Service
	storageChecker   *health.StorageChecker
	metadataService  *metadata.Service
	matchService     *moviematch.Service
	visionService    *vision.Service
	scheduler        *scheduler.Scheduler
	rateLimiter      *ratelimit.IPLimiter
	schedulerStarted bool
}

// Option customizes a Server.
type Option func(*Server)

// WithClock replaces the wall clock, typically with a fake clock in tests.
func WithClock(clock clockwork.Clock) Option {
	return func(s *Server) { s.clock = clock }
}

// WithLogFile sets the log file served by the download endpoint.
func WithLogFile(path string) Option {
	return func(s *Server) { s.logFile = path }
}

// WithMetadataService replaces the gateway built from the configuration.
func WithMetadataService(svc *metadata.Service) Option {
	return func(s *Server) { s.metadataService = svc }
}

// NewServer creates a new API server instance.
func NewServer(db *database.DB, cfg *config.Config, logger zerolog.Logger, opts ...Option) (*Server, error) {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = validation.NewValidator()

	s := &Server{
		echo:   e,
		db:     db,
		cfg:    cfg,
		logger: logger.With().Str("component", "api").Logger(),
		clock:  clockwork.NewRealClock(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.started = s.clock.Now()

	// Initialize stores
	conn := db.Conn()
	s.catalogStore = catalog.NewStore(conn, s.clock)
	s.matchCache = matchcache.NewStore(conn, s.clock)

	// Initialize health tracking
	s.healthService = health.NewService(logger, s.clock)
	s.storageChecker = health.NewStorageChecker(s.healthService, map[string]health.Pinger{
		"database": conn,
	}, logger)

	// Initialize metadata gateway
	if s.metadataService == nil {
		s.metadataService = metadata.NewService(cfg, logger, s.clock)
	}
	s.metadataService.SetHealthService(s.healthService)
	s.metadataService.RegisterProviders()

	// Initialize title resolution
	s.matchService = moviematch.NewService(s.catalogStore, s.matchCache, s.metadataService, cfg.Matching, logger, s.clock)
	s.visionService = vision.NewService(s.metadataService, s.matchService, "anthropic", logger)

	s.rateLimiter = ratelimit.NewIPLimiter(ratelimit.DefaultConfig(), s.clock, logger)

	sched, err := scheduler.New(logger, s.clock)
	if err != nil {
		return nil, fmt.Errorf("failed to create scheduler: %w", err)
	}
	s.scheduler = sched
	if err := s.registerTasks(); err != nil {
		return nil, err
	}

	s.setupMiddleware()
	s.setupRoutes()

	return s, nil
}

// registerTasks registers the maintenance tasks with the scheduler.
func (s *Server) registerTasks() error {
	if err := tasks.RegisterMatchCacheSweepTask(s.scheduler, s.matchService, s.cfg.Matching, s.logger); err != nil {
		return fmt.Errorf("failed to register match cache sweep task: %w", err)
	}
	if err := tasks.RegisterGatewayCachePurgeTask(s.scheduler, s.metadataService, s.cfg.Health, s.logger); err != nil {
		return fmt.Errorf("failed to register metadata cache purge task: %w", err)
	}
	if err := tasks.RegisterProviderHealthTask(s.scheduler, s.metadataService, s.cfg.Health, s.logger); err != nil {
		return fmt.Errorf("failed to register provider health task: %w", err)
	}
	if err := tasks.RegisterStorageHealthTask(s.scheduler, s.storageChecker, s.cfg.Health, s.logger); err != nil {
		return fmt.Errorf("failed to register storage health task: %w", err)
	}

	err := s.scheduler.RegisterTask(scheduler.TaskConfig{
		ID:          rateLimitCleanupTaskID,
		Name:        "Rate Limit Cleanup",
		Description: "Forgets clients that have been idle for a while",
		Cron:        fmt.Sprintf("@every %s", ratelimit.DefaultIdleTTL),
		Func: func(ctx context.Context) error {
			s.logger.Debug().Int("removed", s.rateLimiter.Cleanup()).Msg("Cleaned up rate limit buckets")
			return nil
		},
	})
	if err != nil {
		return fmt.Errorf("failed to register rate limit cleanup task: %w", err)
	}
	return nil
}

// setupMiddleware configures Echo middleware.
func (s *Server) setupMiddleware() {
	// Recovery middleware
	s.echo.Use(middleware.Recover())

	// Request ID
	s.echo.Use(middleware.RequestID())

	// CORS
	s.echo.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: []string{"*"},
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodDelete, http.MethodOptions},
		AllowHeaders: []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept},
	}))

	s.echo.Use(apimw.SecurityHeaders())

	// Request logging
	s.echo.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogURI:       true,
		LogStatus:    true,
		LogLatency:   true,
		LogMethod:    true,
		LogError:     true,
		LogRequestID: true,
		HandleError:  true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			if v.Error != nil {
				s.logger.Error().
					Str("method", v.Method).
					Str("uri", v.URI).
					Str("requestId", v.RequestID).
					Int("status", v.Status).
					Dur("latency", v.Latency).
					Err(v.Error).
					Msg("request error")
			} else {
				s.logger.Info().
					Str("method", v.Method).
					Str("uri", v.URI).
					Str("requestId", v.RequestID).
					Int("status", v.Status).
					Dur("latency", v.Latency).
					Msg("request")
			}
			return nil
		},
	}))

	// Gzip compression
	s.echo.Use(middleware.GzipWithConfig(middleware.GzipConfig{
		Level: 5,
		Skipper: func(c echo.Context) bool {
			return c.Request().URL.Path == "/api/v1/logs/download"
		},
	}))
}

// setupRoutes configures API routes.
func (s *Server) setupRoutes() {
	// Health check
	s.echo.GET("/health", s.healthCheck)

	// API v1 group
	api := s.echo.Group("/api/v1")

	// System routes
	api.GET("/status", s.getStatus)

	// Title resolution routes
	limited := s.rateLimiter.Middleware()
	moviematch.NewHandlers(s.matchService, s.metadataService).
		RegisterRoutes(api.Group("/movies", limited))

	vision.NewHandlers(s.visionService).RegisterRoutes(api.Group("/vision", limited))

	metadata.NewHandlers(s.metadataService).RegisterRoutes(api.Group("/metadata"))

	// Health routes with manual probes
	health.NewHandlers(s.healthService, map[health.HealthCategory]health.TestFunc{
		health.CategoryMetadata: s.metadataService.TestProvider,
		health.CategoryVision:   s.metadataService.TestProvider,
		health.CategoryStorage: func(ctx context.Context, _ string) error {
			return s.storageChecker.CheckAllStorage(ctx)
		},
	}).RegisterRoutes(api.Group("/health"))

	handlers.NewSchedulerHandler(s.scheduler).RegisterRoutes(api.Group("/scheduler"))

	NewLogsHandlers(s.logFile).RegisterRoutes(api.Group("/logs"))
}

// Echo returns the underlying router, mainly for tests.
func (s *Server) Echo() *echo.Echo {
	return s.echo
}

// MatchService returns the title resolution service.
func (s *Server) MatchService() *moviematch.Service {
	return s.matchService
}

// InitializeNetworkServices probes the metadata providers with retry so
// their health is known before the first request. It never fails.
func (s *Server) InitializeNetworkServices(ctx context.Context) {
	if !s.metadataService.HasConfiguredProvider() {
		s.logger.Warn().Msg("No metadata providers configured; only the local catalog will be searched")
		return
	}
	startup.ProbeProviders(ctx, s.metadataService, startup.DefaultRetryConfig(), s.logger)
}

// Start starts the scheduler and the HTTP server. It blocks until the
// server stops.
func (s *Server) Start(address string) error {
	s.scheduler.Start()
	s.schedulerStarted = true
	s.logger.Info().Str("address", address).Msg("Starting HTTP server")
	return s.echo.Start(address)
}

// Shutdown gracefully shuts down the server and its scheduler.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.schedulerStarted {
		if err := s.scheduler.Stop(); err != nil {
			s.logger.Warn().Err(err).Msg("Failed to stop scheduler")
		}
	}
	return s.echo.Shutdown(ctx)
}
