// Package server exposes the simulator over HTTP.
package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/cors"
	"go.uber.org/zap"

	"github.com/rustyeddy/gridsim/backtest"
	"github.com/rustyeddy/gridsim/journal"
	"github.com/rustyeddy/gridsim/metrics"
)

// RunStore answers queries about journaled runs.
type RunStore interface {
	ListRuns(ctx context.Context) ([]journal.RunRecord, error)
	GetRun(ctx context.Context, runID string) (journal.RunRecord, error)
}

// DefaultMaxPrices caps the price series accepted in one request.
const DefaultMaxPrices = 1_000_000

// Server wires the API handlers. Everything but Addr is optional.
type Server struct {
	Addr        string
	CORSOrigins []string // empty allows any origin
	Params      backtest.Params
	MaxPrices   int
	MaxSweep    int // candidates per sweep request; 0 means 500

	Logger   *zap.Logger
	Metrics  *metrics.Metrics
	Gatherer prometheus.Gatherer // served on /metrics
	Journal  journal.Journal
	Runs     RunStore
}

func (s *Server) log() *zap.Logger {
	if s.Logger == nil {
		return zap.NewNop()
	}
	return s.Logger
}

// Router builds the gin engine without CORS.
func (s *Server) Router() *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(recovery(s.log()))
	router.Use(requestLogger(s.log()))

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	if s.Gatherer != nil {
		router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(s.Gatherer, promhttp.HandlerOpts{})))
	}

	api := router.Group("/api/v1")
	{
		api.GET("/grid", s.getGrid)
		api.POST("/simulate", s.simulate)
		api.POST("/sweep", s.sweep)
		if s.Runs != nil {
			api.GET("/runs", s.listRuns)
			api.GET("/runs/:id", s.getRun)
		}
	}

	router.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, ErrorResponse{Error: ErrorDetail{Code: "NOT_FOUND", Message: "Not found"}})
	})
	return router
}

// Handler is the router wrapped in CORS.
func (s *Server) Handler() http.Handler {
	c := cors.New(cors.Options{
		AllowedOrigins: s.CORSOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Content-Type"},
	})
	return c.Handler(s.Router())
}

// ListenAndServe serves until ctx is done, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.Addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.log().Info("http server listening", zap.String("addr", s.Addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutCtx); err != nil {
			return err
		}
		if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	}
}
