package server

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"

	"github.com/zsiec/termvid/internal/config"
	"github.com/zsiec/termvid/internal/errors"
	"github.com/zsiec/termvid/internal/health"
	"github.com/zsiec/termvid/internal/logger"
	"github.com/zsiec/termvid/internal/playback"
)

// PlaybackStatus reports the state of the running driver.
type PlaybackStatus interface {
	Status() playback.Status
}

// Server is the optional debug HTTP server exposing metrics, health and
// playback status while a video plays.
type Server struct {
	config        *config.MetricsConfig
	router        *mux.Router
	httpServer    *http.Server
	listener      net.Listener
	logger        *logrus.Logger
	healthMgr     *health.Manager
	healthHandler *health.Handler
	errorHandler  *errors.ErrorHandler
	playback      PlaybackStatus
}

// New creates a server and registers its routes.
func New(cfg *config.MetricsConfig, log *logrus.Logger, healthMgr *health.Manager, sessionID string, pb PlaybackStatus) *Server {
	s := &Server{
		config:        cfg,
		router:        mux.NewRouter(),
		logger:        log,
		healthMgr:     healthMgr,
		healthHandler: health.NewHandler(healthMgr, sessionID),
		errorHandler:  errors.NewErrorHandler(log),
		playback:      pb,
	}
	s.setupRoutes()
	return s
}

// Start listens on the configured address and serves in the background
// until ctx is done. Listen errors are returned immediately.
func (s *Server) Start(ctx context.Context) error {
	addr := net.JoinHostPort(s.config.ListenAddr, fmt.Sprintf("%d", s.config.Port))
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("debug server listen on %s: %w", addr, err)
	}
	s.listener = ln

	s.httpServer = &http.Server{
		Handler:           s.router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	s.logger.WithField("addr", ln.Addr().String()).Info("Starting debug server")

	go func() {
		if err := s.httpServer.Serve(ln); err != nil && err != http.ErrServerClosed {
			s.logger.WithError(err).Error("Debug server error")
		}
	}()
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := s.Shutdown(shutdownCtx); err != nil {
			s.logger.WithError(err).Warn("Debug server shutdown")
		}
	}()
	return nil
}

// Addr returns the bound address once Start succeeded.
func (s *Server) Addr() string {
	if s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

// Shutdown stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.httpServer == nil {
		return nil
	}
	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("failed to shutdown debug server: %w", err)
	}
	s.logger.Debug("Debug server stopped")
	return nil
}

func (s *Server) setupRoutes() {
	s.router.Use(logger.RequestLoggerMiddleware(s.logger))
	s.router.Use(s.errorHandler.Middleware)
	s.router.Use(s.metricsMiddleware)

	path := s.config.Path
	if path == "" {
		path = "/metrics"
	}
	s.router.Handle(path, promhttp.Handler()).Methods("GET")

	s.router.HandleFunc("/health", s.healthHandler.HandleHealth).Methods("GET")
	s.router.HandleFunc("/ready", s.healthHandler.HandleReady).Methods("GET")
	s.router.HandleFunc("/live", s.healthHandler.HandleLive).Methods("GET")

	s.router.HandleFunc("/version", s.handleVersion).Methods("GET")

	api := s.router.PathPrefix("/api/v1").Subrouter()
	api.HandleFunc("/playback", s.handlePlayback).Methods("GET")

	s.router.NotFoundHandler = http.HandlerFunc(s.errorHandler.HandleNotFound)
	s.router.MethodNotAllowedHandler = http.HandlerFunc(s.errorHandler.HandleMethodNotAllowed)
}

// Router returns the router for testing.
func (s *Server) Router() *mux.Router {
	return s.router
}
