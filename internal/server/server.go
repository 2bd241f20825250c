// Package server
//
// @title ProCharity Admin Sandbox API
// @version 1.0
// @description Local stand-in of the ProCharity admin API
// @host localhost:8080
// @BasePath /
package server

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/glebarez/sqlite"
	"github.com/hibiken/asynq"
	"github.com/hibiken/asynqmon"
	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/procharity/pcadmin/internal/auth"
	"github.com/procharity/pcadmin/internal/config"
	"github.com/procharity/pcadmin/internal/models"
	"github.com/procharity/pcadmin/internal/tasks"
	"github.com/procharity/pcadmin/internal/workers"
)

// Dispatcher hands a stored broadcast over for delivery
type Dispatcher interface {
	DispatchBroadcast(ctx context.Context, broadcastID string) error
}

// Server represents the HTTP server
type Server struct {
	router      *gin.Engine
	db          *gorm.DB
	config      *config.Config
	logger      zerolog.Logger
	issuer      *auth.Issuer
	dispatcher  Dispatcher
	asynqClient *asynq.Client
	sweeper     *cron.Cron
	now         func() time.Time
	version     string
}

// Option customizes a Server
type Option func(*Server)

// WithDispatcher replaces the broadcast dispatcher chosen from the config
func WithDispatcher(d Dispatcher) Option {
	return func(s *Server) {
		s.dispatcher = d
	}
}

// New creates a new server instance
func New(cfg *config.Config, zlog zerolog.Logger, version string, opts ...Option) (*Server, error) {
	// Initialize database with production settings
	db, err := OpenDatabase(cfg, zlog)
	if err != nil {
		return nil, err
	}

	server := &Server{
		db:      db,
		config:  cfg,
		logger:  zlog,
		now:     utcNow,
		version: version,
	}
	for _, opt := range opts {
		opt(server)
	}

	secret, err := ensureSettings(db, zlog)
	if err != nil {
		return nil, err
	}
	server.issuer, err = auth.NewIssuer(secret, cfg.Auth.AccessTokenTTL, cfg.Auth.RefreshTokenTTL)
	if err != nil {
		return nil, err
	}

	if err := server.bootstrap(); err != nil {
		return nil, err
	}

	if server.dispatcher == nil {
		if cfg.Redis.Enabled() {
			// Initialize Asynq client for enqueueing tasks
			server.asynqClient = asynq.NewClient(asynq.RedisClientOpt{
				Addr: cfg.Redis.Address,
			})
			server.dispatcher = tasks.NewQueue(server.asynqClient)
		} else {
			zlog.Info().Msg("No Redis configured - broadcasts are delivered in-process")
			server.dispatcher = workers.NewBroadcastDeliverer(db, workers.LogSender{Logger: zlog}, zlog)
		}
	}

	registerValidators()

	// Setup router
	server.setupRouter()

	return server, nil
}

// Timestamps compared in queries are kept in UTC so their text form sorts
func utcNow() time.Time {
	return time.Now().UTC()
}

// OpenDatabase opens the SQLite database, applies pragmas and migrates
// the schema. The worker uses it to share the server's database.
func OpenDatabase(cfg *config.Config, zlog zerolog.Logger) (*gorm.DB, error) {
	const (
		maxOpenConns    = 8    // Reduced for SQLite efficiency
		maxIdleConns    = 4    // Reduced proportionally
		connMaxLifetime = 300  // 5 minutes
		busyTimeout     = 5000 // 5 seconds
	)

	// Open database connection
	db, err := gorm.Open(sqlite.Open(cfg.Database.URL), &gorm.Config{
		Logger: logger.New(
			log.New(os.Stdout, "\r\n", log.LstdFlags),
			logger.Config{
				LogLevel:                  logger.Error,
				IgnoreRecordNotFoundError: true,
				SlowThreshold:             200 * time.Millisecond,
			},
		),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Get underlying sql.DB to configure connection pool
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}

	sqlDB.SetMaxOpenConns(maxOpenConns)
	sqlDB.SetMaxIdleConns(maxIdleConns)
	sqlDB.SetConnMaxLifetime(time.Duration(connMaxLifetime) * time.Second)

	if err := sqlDB.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	// WAL mode must be set first for optimal concurrency
	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
		fmt.Sprintf("PRAGMA busy_timeout=%d", busyTimeout),
		"PRAGMA foreign_keys=1",
	}

	for _, pragma := range pragmas {
		if err := db.Exec(pragma).Error; err != nil {
			zlog.Warn().Str("pragma", pragma).Err(err).Msg("Failed to apply pragma")
		}
	}

	// Run database migrations
	if err := models.AutoMigrate(db); err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return db, nil
}

// setupRouter configures the Gin router with routes and middleware
func (s *Server) setupRouter() {
	gin.SetMode(gin.ReleaseMode)

	s.router = gin.New()

	// Add middleware
	s.router.Use(gin.Recovery())
	s.router.Use(s.loggingMiddleware())

	// CORS middleware for the web dashboard
	s.router.Use(cors.New(cors.Config{
		AllowOrigins:     s.config.HTTP.CORSOrigins,
		AllowMethods:     []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Length", "Content-Type", "Authorization"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	// Health check endpoint (no auth required)
	s.router.GET("/health", s.healthCheck)

	// Public auth endpoints (no auth required)
	s.router.POST("/auth/login/", s.login)
	s.router.POST("/auth/token_refresh/", s.refreshToken)
	s.router.POST("/auth/register/", s.register)
	s.router.POST("/auth/password_reset/", s.passwordReset)

	// Authenticated API routes (access token required)
	api := s.router.Group("/")
	api.Use(JWTAuthMiddleware(s.issuer, s.db, s.logger))
	{
		api.GET("/analytics/", s.analytics)
		api.GET("/users/", s.listUsers)
		api.POST("/auth/invitation/", s.invite)
		api.POST("/send_telegram_notification/", s.sendNotification)
	}

	// Task queue dashboard
	if s.config.Redis.Enabled() {
		monitor := asynqmon.New(asynqmon.Options{
			RootPath:     "/asynqmon",
			RedisConnOpt: asynq.RedisClientOpt{Addr: s.config.Redis.Address},
		})
		s.router.Any("/asynqmon/*path", gin.WrapH(monitor))
	}
}

// loggingMiddleware creates a custom logging middleware using zerolog
func (s *Server) loggingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		duration := time.Since(start)

		s.logger.Info().
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Int("status", c.Writer.Status()).
			Dur("duration", duration).
			Str("client_ip", c.ClientIP()).
			Msg("HTTP request")
	}
}

// @Router /health [get]
// @Success 200 {object} map[string]interface{}
func (s *Server) healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "online",
		"timestamp": s.now().UTC(),
		"service":   "pcadmin-sandbox",
		"version":   s.version,
	})
}

// Handler returns the HTTP handler serving the API
func (s *Server) Handler() http.Handler {
	return s.router
}

// GetDB returns the database connection for use by workers
func (s *Server) GetDB() *gorm.DB {
	return s.db
}

// Start starts the HTTP server and blocks until SIGINT or SIGTERM
func (s *Server) Start() error {
	addr := s.config.HTTP.Addr

	// Setup signal handling for graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	// Without a worker process the sandbox sweeps on its own
	if !s.config.Redis.Enabled() {
		sweeper, err := workers.StartSweeper(s.config.Maintenance.SweepSchedule, s.db, s.logger)
		if err != nil {
			return err
		}
		s.sweeper = sweeper
	}

	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	errChan := make(chan error, 1)
	go func() {
		s.logger.Info().Str("addr", addr).Msg("Starting HTTP server")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errChan <- err
		}
	}()

	// Wait for shutdown signal
	select {
	case <-sigChan:
		s.logger.Info().Msg("Received shutdown signal, shutting down gracefully...")
	case err := <-errChan:
		s.logger.Error().Err(err).Msg("HTTP server error")
		s.close()
		return err
	}

	// Shutdown HTTP server with timeout
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	s.logger.Info().Msg("Shutting down HTTP server...")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		s.logger.Error().Err(err).Msg("Error shutting down HTTP server")
		return err
	}

	s.close()
	s.logger.Info().Msg("Server shutdown complete")
	return nil
}

// close releases the sweeper, the Asynq client and the database
func (s *Server) close() {
	if s.sweeper != nil {
		<-s.sweeper.Stop().Done()
	}

	if s.asynqClient != nil {
		if err := s.asynqClient.Close(); err != nil {
			s.logger.Warn().Err(err).Msg("Error closing Asynq client")
		}
	}

	// Close database connection to flush WAL writes
	if sqlDB, err := s.db.DB(); err == nil {
		if err := sqlDB.Close(); err != nil {
			s.logger.Error().Err(err).Msg("Error closing database")
		}
	}
}

// Close releases resources held by a server that was never started
func (s *Server) Close() {
	s.close()
}
