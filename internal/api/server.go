// Package api serves waste records, statistics and analysis over HTTP.
package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/blackwell-systems/wastewatch/internal/analyzer"
	"github.com/blackwell-systems/wastewatch/internal/ingest"
	"github.com/blackwell-systems/wastewatch/internal/logging"
	"github.com/blackwell-systems/wastewatch/internal/stats"
	"github.com/blackwell-systems/wastewatch/internal/store"
)

// ShutdownTimeout bounds how long Run waits for in-flight requests.
const ShutdownTimeout = 5 * time.Second

// Server holds the components the handlers read from and write to.
type Server struct {
	store    *store.Store
	agg      *stats.Aggregator
	analyzer *analyzer.Analyzer
	ingester *ingest.Ingester
	factors  analyzer.ImpactFactors
	log      *zap.SugaredLogger
}

// Option configures a Server.
type Option func(*Server)

// WithImpactFactors sets the conversion rates used by /impact.
func WithImpactFactors(f analyzer.ImpactFactors) Option {
	return func(s *Server) { s.factors = f }
}

// WithLogger sets the request and error logger.
func WithLogger(l *zap.SugaredLogger) Option {
	return func(s *Server) { s.log = l }
}

// New creates a Server.
func New(st *store.Store, agg *stats.Aggregator, an *analyzer.Analyzer, in *ingest.Ingester, opts ...Option) *Server {
	s := &Server{
		store:    st,
		agg:      agg,
		analyzer: an,
		ingester: in,
		factors:  analyzer.DefaultImpactFactors(),
		log:      logging.Nop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Router builds the gin engine with every route under /api/v1.
func (s *Server) Router() *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery(), requestLogger(s.log))

	v1 := router.Group("/api/v1")
	{
		v1.GET("/health", s.health)

		v1.GET("/records", s.listRecords)
		v1.POST("/records", s.addRecord)
		v1.POST("/detections", s.addDetections)

		v1.GET("/stats", s.getStats)
		v1.GET("/patterns", s.getPatterns)

		trends := v1.Group("/trends")
		trends.GET("/daily", s.dailyTrend)
		trends.GET("/food/:food", s.foodTrend)
		trends.GET("/meal/:meal", s.mealTrend)

		v1.GET("/predict", s.predict)
		v1.GET("/insights", s.insights)
		v1.GET("/recommendations", s.recommendations)
		v1.GET("/correlations", s.correlations)
		v1.GET("/impact", s.impact)
	}

	return router
}

// Run serves on addr until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.Infow("http server listening", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("http server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	s.log.Infow("shutting down http server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("http server shutdown: %w", err)
	}
	return nil
}

func requestLogger(log *zap.SugaredLogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		log.Debugw("http request",
			"method", c.Request.Method,
			"path", c.FullPath(),
			"status", c.Writer.Status(),
			"duration", time.Since(start),
		)
	}
}
