// Package server wires the HTTP layer together: router, middleware, the
// dependency chain behind each handler, and the graceful shutdown loop.
//
// This is the composition root. Everything the request path needs is
// assembled in New, in one place, so the chain is readable top to bottom:
//
//	runner (injected) → governor → service → handler → route
//
// main.go stays minimal: load config, build the runner for the configured
// backend, hand both to New, call Start.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/sakif/vizbox/internal/adapter"
	"github.com/sakif/vizbox/internal/config"
	"github.com/sakif/vizbox/internal/governor"
	"github.com/sakif/vizbox/internal/handler"
	"github.com/sakif/vizbox/internal/metrics"
	"github.com/sakif/vizbox/internal/middleware"
	"github.com/sakif/vizbox/internal/service"
	"github.com/sakif/vizbox/internal/worker"
)

// Server owns the router and the configuration it was built from. The
// runner is injected by main because its lifecycle (docker client, image
// pull) belongs to the process, not to the HTTP layer.
type Server struct {
	router *chi.Mux
	cfg    *config.Config
	logger *slog.Logger
}

// New assembles the full dependency chain and the route table.
func New(cfg *config.Config, logger *slog.Logger, runner worker.Runner) *Server {
	s := &Server{
		router: chi.NewRouter(),
		cfg:    cfg,
		logger: logger,
	}
	s.setupRoutes(runner)
	return s
}

// Router exposes the handler tree, mainly for tests that drive the server
// through httptest without binding a port.
func (s *Server) Router() http.Handler {
	return s.router
}

func (s *Server) setupRoutes(runner worker.Runner) {
	// === Global middleware ===
	// Order matters: RequestID first so every later stage (including the
	// logger) sees the ID; Recoverer before handlers so a panic becomes a
	// 500 instead of a dead connection.
	s.router.Use(chimiddleware.RequestID)
	s.router.Use(chimiddleware.RealIP)
	s.router.Use(chimiddleware.Recoverer)
	s.router.Use(middleware.Logger(s.logger))

	// The editor client is a browser app served from a different origin.
	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins: s.cfg.Server.CORSOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))

	// === Dependency chain ===
	// A private registry instead of prometheus.DefaultRegisterer keeps
	// collector registration idempotent across test servers.
	reg := prometheus.NewRegistry()
	m := metrics.New(reg)

	adapters := adapter.NewRegistry(
		adapter.NewPython(s.cfg.Languages.PythonBin),
		adapter.NewR(s.cfg.Languages.RscriptBin),
	)

	gov := governor.New(
		s.cfg.Executor.MaxWorkers,
		governor.Policy(s.cfg.Executor.AdmissionPolicy),
		s.cfg.QueueWait(),
		s.logger,
	)
	metrics.RegisterLiveWorkers(reg, func() float64 { return float64(gov.Live()) })

	svc := service.NewVisualizationService(s.cfg, adapters, gov, runner, m, s.logger)

	vizHandler := handler.NewVisualizationHandler(svc, s.cfg.MaxBodyBytes(), s.logger)
	healthHandler := handler.NewHealthHandler(s.cfg.Executor.Backend, gov.Live)
	examplesHandler := handler.NewExamplesHandler()

	// === Routes ===
	s.router.Get("/", healthHandler.HandleRoot)
	s.router.Get("/healthz", healthHandler.HandleHealth)
	s.router.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))

	// The path (not /api/generate-visualization) is part of the wire
	// contract with the editor client.
	s.router.Post("/generate-visualization", vizHandler.HandleGenerate)

	s.router.Route("/api", func(r chi.Router) {
		r.Get("/examples", examplesHandler.HandleList)
	})
}

// Start runs the server until a SIGINT/SIGTERM arrives or ListenAndServe
// fails, then drains in-flight requests before returning.
func (s *Server) Start() error {
	srv := &http.Server{
		Addr:        fmt.Sprintf(":%d", s.cfg.Server.Port),
		Handler:     s.router,
		ReadTimeout: 15 * time.Second,
		// The write timeout must outlive the whole request budget, or the
		// connection dies under a response that is still being generated.
		WriteTimeout: s.cfg.RequestTimeout() + 15*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	serverErrors := make(chan error, 1)

	go func() {
		s.logger.Info("server starting",
			slog.Int("port", s.cfg.Server.Port),
			slog.String("backend", s.cfg.Executor.Backend),
			slog.Int("max_workers", s.cfg.Executor.MaxWorkers),
		)
		serverErrors <- srv.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		if err != http.ErrServerClosed {
			return fmt.Errorf("server error: %w", err)
		}

	case sig := <-quit:
		s.logger.Info("shutdown signal received", slog.String("signal", sig.String()))

		// In-flight executions may legitimately need the full request
		// budget; give them that plus a little margin to finish writing.
		ctx, cancel := context.WithTimeout(context.Background(), s.cfg.RequestTimeout()+5*time.Second)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
		s.logger.Info("server stopped gracefully")
	}

	return nil
}
