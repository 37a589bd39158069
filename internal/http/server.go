// Package http serves the browser chat: an embedded single-page UI, a
// Server-Sent Events chat endpoint, session history, status and metrics.
package http

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/ragchat/internal/chat"
	"github.com/fyrsmithlabs/ragchat/internal/config"
	"github.com/fyrsmithlabs/ragchat/internal/logging"
	"github.com/fyrsmithlabs/ragchat/internal/vectorstore"
)

// Agent is what the web chat needs from the agent.
type Agent interface {
	chat.Agent
	Name() string
	ModelID() string
}

// Server provides the web chat endpoints.
type Server struct {
	echo     *echo.Echo
	agent    Agent
	store    vectorstore.Store
	sessions *chat.SessionStore
	limiter  *sessionLimiter
	logger   *zap.Logger
	config   *Config
}

// Config holds HTTP server configuration.
type Config struct {
	Host string
	Port int
	// Stream selects streaming agent runs for /api/v1/chat.
	Stream bool
	// RateLimit is chat requests per second per session; zero disables limiting.
	RateLimit float64
	RateBurst int
	// SessionTTL evicts idle sessions; zero keeps them for the process lifetime.
	SessionTTL      time.Duration
	ShutdownTimeout time.Duration
}

// FromAppConfig maps the server section onto a Config.
func FromAppConfig(sc config.ServerConfig) *Config {
	return &Config{
		Host:            sc.Host,
		Port:            sc.Port,
		Stream:          true,
		RateLimit:       sc.RateLimit,
		RateBurst:       sc.RateBurst,
		SessionTTL:      time.Hour,
		ShutdownTimeout: sc.ShutdownTimeout.Duration(),
	}
}

// NewServer creates a new HTTP server.
func NewServer(a Agent, store vectorstore.Store, logger *zap.Logger, cfg *Config) (*Server, error) {
	if a == nil {
		return nil, fmt.Errorf("agent cannot be nil")
	}
	if store == nil {
		return nil, fmt.Errorf("store cannot be nil")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger is required for request tracking and debugging")
	}
	if cfg == nil {
		cfg = &Config{Host: "127.0.0.1", Port: 8501, Stream: true}
	}
	if cfg.ShutdownTimeout <= 0 {
		cfg.ShutdownTimeout = 10 * time.Second
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(middleware.Recover())
	e.Use(middleware.RequestID())
	e.Use(func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			rid := c.Response().Header().Get(echo.HeaderXRequestID)
			c.SetRequest(c.Request().WithContext(logging.WithRequestID(c.Request().Context(), rid)))

			start := time.Now()
			err := next(c)
			logger.Info("http request",
				zap.String("method", c.Request().Method),
				zap.String("uri", c.Request().RequestURI),
				zap.Int("status", c.Response().Status),
				zap.Duration("duration", time.Since(start)),
				zap.String("request_id", rid),
			)
			return err
		}
	})
	e.Use(NewHTTPMetrics(logger).MetricsMiddleware())

	s := &Server{
		echo:     e,
		agent:    a,
		store:    store,
		sessions: chat.NewSessionStore(cfg.SessionTTL),
		limiter:  newSessionLimiter(cfg.RateLimit, cfg.RateBurst),
		logger:   logger,
		config:   cfg,
	}
	s.registerRoutes()
	return s, nil
}

func (s *Server) registerRoutes() {
	s.echo.GET("/", s.handleIndex)
	s.echo.GET("/health", s.handleHealth)
	s.echo.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	v1 := s.echo.Group("/api/v1")
	v1.POST("/chat", s.handleChat)
	v1.POST("/chat/clear", s.handleClear)
	v1.DELETE("/session", s.handleEndSession)
	v1.GET("/history", s.handleHistory)
	v1.GET("/status", s.handleStatus)
}

// Handler exposes the router, mainly for tests and embedding.
func (s *Server) Handler() http.Handler {
	return s.echo
}

// Addr is the listen address.
func (s *Server) Addr() string {
	return fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)
}

// Start starts the HTTP server.
func (s *Server) Start() error {
	s.logger.Info("starting http server", zap.String("addr", s.Addr()))
	return s.echo.Start(s.Addr())
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down http server")
	return s.echo.Shutdown(ctx)
}

// Run serves until ctx is cancelled, then shuts down within the configured
// timeout.
func (s *Server) Run(ctx context.Context) error {
	errc := make(chan error, 1)
	go func() { errc <- s.Start() }()

	select {
	case err := <-errc:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.config.ShutdownTimeout)
	defer cancel()
	if err := s.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutting down: %w", err)
	}
	if err := <-errc; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
