// Package server exposes the status of a running pipeline: prometheus metrics, session pool
// readiness and the build version.
package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/rs/zerolog/log"

	"github.com/basejump-ai/basejump-demo/internal/common/httpx"
	"github.com/basejump-ai/basejump-demo/internal/common/middleware"
	"github.com/basejump-ai/basejump-demo/internal/demo/config"
	"github.com/basejump-ai/basejump-demo/internal/demo/metrics"
)

// PoolStats reports how many sessions were opened and closed.
type PoolStats interface {
	Stats() (requests, returns uint64)
}

type StatusServer struct {
	Router  *chi.Mux
	cfg     config.ServerConfig
	metrics *metrics.Metrics
	pool    PoolStats
	version string
}

func New(cfg config.ServerConfig, m *metrics.Metrics, pool PoolStats, version string) *StatusServer {
	s := &StatusServer{
		Router:  chi.NewRouter(),
		cfg:     cfg,
		metrics: m,
		pool:    pool,
		version: version,
	}
	s.mountHandlers()
	return s
}

func (s *StatusServer) mountHandlers() {
	s.Router.Use(middleware.RequestLogger)
	s.Router.Use(middleware.PanicHandler)
	if s.cfg.HandleCORS {
		s.Router.Use(s.handleCORS)
	}
	if s.metrics != nil {
		s.Router.Method(http.MethodGet, "/metrics", s.metrics.Handler())
	}
	s.Router.Get("/ready", s.getReadiness)
	s.Router.Get("/version", s.getVersion)
}

type GetVersionRsp struct {
	ServerVersion string `json:"serverVersion"`
}

func (s *StatusServer) getVersion(w http.ResponseWriter, r *http.Request) {
	httpx.SendJsonRsp(r.Context(), w, http.StatusOK, &GetVersionRsp{ServerVersion: s.version})
}

type ReadinessRsp struct {
	Status       string `json:"status"`
	OpenSessions uint64 `json:"openSessions"`
}

func (s *StatusServer) getReadiness(w http.ResponseWriter, r *http.Request) {
	if s.pool == nil {
		httpx.ErrUnavailable("metadata store is not open").Send(w)
		return
	}
	requests, returns := s.pool.Stats()
	open := uint64(0)
	if requests > returns {
		open = requests - returns
	}
	httpx.SendJsonRsp(r.Context(), w, http.StatusOK, &ReadinessRsp{Status: "ready", OpenSessions: open})
}

func (s *StatusServer) handleCORS(next http.Handler) http.Handler {
	origins := s.cfg.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	return cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{"GET", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		ExposedHeaders: []string{middleware.RequestIDHeader},
		MaxAge:         300,
	})(next)
}

// Serve listens on addr until ctx is done, then shuts down gracefully.
func (s *StatusServer) Serve(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Router,
		ReadHeaderTimeout: 5 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		log.Ctx(ctx).Info().Str("addr", addr).Msg("status server listening")
		errCh <- srv.ListenAndServe()
	}()
	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}
