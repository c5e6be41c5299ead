// Package api exposes the analysis pipeline over HTTP with gin.
//
// Routes:
//
//	GET  /                            service information
//	GET  /health                      liveness and backend status
//	GET  /docs                        route listing and error catalogue
//	GET  /metrics                     Prometheus exposition
//	POST /v1/summaries                analyze one submission
//	POST /v1/summaries/batch          analyze up to 20 submissions
//	POST /v1/analyze/pr               analyze a raw pull request payload
//	POST /v1/analyze/ticket           analyze a raw ticket payload
//	GET  /v1/summaries/:fingerprint   fetch a summary by fingerprint
//	GET  /v1/summaries                latest by ?identifier=, or most recent
package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/mrz1836/compliance-copilot/internal/analyzer"
	"github.com/mrz1836/compliance-copilot/internal/config"
	appErrors "github.com/mrz1836/compliance-copilot/internal/errors"
	"github.com/mrz1836/compliance-copilot/internal/logging"
	"github.com/mrz1836/compliance-copilot/internal/metrics"
	"github.com/mrz1836/compliance-copilot/internal/source"
)

// ShutdownTimeout bounds how long Run waits for in-flight requests on shutdown.
const ShutdownTimeout = 15 * time.Second

// Options are the collaborators of a Server. Metrics is optional.
type Options struct {
	Settings *config.Settings
	Service  *analyzer.Service
	Metrics  *metrics.Collectors
	Logger   *logrus.Entry
}

// Server is the HTTP front of the analyzer.
type Server struct {
	engine   *gin.Engine
	settings *config.Settings
	service  *analyzer.Service
	metrics  *metrics.Collectors
	logger   *logrus.Entry
}

// NewServer builds the router. It does not start listening.
func NewServer(opts Options) (*Server, error) {
	if opts.Settings == nil || opts.Service == nil {
		return nil, appErrors.ConfigError("api", "settings and service are required")
	}
	logger := opts.Logger
	if logger == nil {
		logger = logging.Discard()
	}

	s := &Server{
		engine:   gin.New(),
		settings: opts.Settings,
		service:  opts.Service,
		metrics:  opts.Metrics,
		logger:   logger.WithField(logging.StandardFields.Component, logging.ComponentNames.API),
	}
	s.routes()
	return s, nil
}

func (s *Server) routes() {
	r := s.engine
	r.HandleMethodNotAllowed = true
	r.NoRoute(func(c *gin.Context) {
		writeError(c, s.logger, appErrors.NotFoundError("route", c.Request.URL.Path))
	})

	r.Use(requestID(), accessLog(s.logger, s.metrics), recovery(s.logger), bodyLimit(maxBodyBytes))
	if s.settings.EnableCORS {
		r.Use(cors())
	}

	r.GET("/", s.handleRoot)
	r.GET("/health", s.handleHealth)
	r.GET("/docs", s.handleDocs)
	if s.metrics != nil {
		r.GET("/metrics", gin.WrapH(s.metrics.Handler()))
	}

	v1 := r.Group("/v1", versionCheck(s.logger))
	if s.settings.EnableRateLimiting {
		v1.Use(newRateLimiter(s.settings.RateLimitPerMinute).middleware(s.logger))
	}
	{
		v1.POST("/summaries", s.handleCreateSummary)
		v1.POST("/summaries/batch", s.handleBatch)
		v1.POST("/analyze/pr", s.handleAnalyze(source.KindPR))
		v1.POST("/analyze/ticket", s.handleAnalyze(source.KindTicket))
		v1.GET("/summaries/:fingerprint", s.handleGetSummary)
		v1.GET("/summaries", s.handleListSummaries)
	}
}

// bodyLimit caps request bodies at limit bytes.
func bodyLimit(limit int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.Body != nil {
			c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, limit)
		}
		c.Next()
	}
}

// Handler returns the router as an http.Handler.
func (s *Server) Handler() http.Handler {
	return s.engine
}

// Run serves on the configured address until ctx is canceled, then drains
// in-flight requests for up to ShutdownTimeout.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.settings.Addr(),
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       s.settings.RequestTimeout,
		IdleTimeout:       2 * time.Minute,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.WithField("addr", srv.Addr).Info("HTTP server listening")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	s.logger.Info("Shutting down HTTP server")
	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
