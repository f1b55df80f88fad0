// Package main is the entry point for the visualization service.
//
// Its job is deliberately small: load configuration, build the logger and
// the execution backend, hand everything to internal/server, and block in
// Start until shutdown. All actual behavior lives in the internal packages.
package main

import (
	"log/slog"
	"os"

	"github.com/sakif/vizbox/internal/config"
	"github.com/sakif/vizbox/internal/server"
	"github.com/sakif/vizbox/internal/worker"
	"github.com/sakif/vizbox/internal/worker/docker"
	"github.com/sakif/vizbox/internal/worker/process"
)

func main() {
	// === 1. CONFIGURATION ===
	// Defaults, then an optional config.yaml, then VIZBOX_* env vars.
	// The logger isn't built yet, so config failures go through a plain
	// default logger.
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// === 2. LOGGING ===
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel(cfg.Server.LogLevel),
	}))

	// === 3. EXECUTION BACKEND ===
	// The process backend needs python3/Rscript with the plotting
	// libraries installed on the host; the docker backend needs a daemon
	// and pulls the runtime image before serving.
	var runner worker.Runner
	switch cfg.Executor.Backend {
	case "docker":
		dockerRunner, err := docker.New(docker.Config{
			Image:   cfg.Docker.Image,
			Workdir: cfg.Docker.Workdir,
		}, logger)
		if err != nil {
			logger.Error("failed to initialize docker backend", slog.String("error", err.Error()))
			os.Exit(1)
		}
		defer dockerRunner.Close()
		runner = dockerRunner
	default:
		runner = process.New(logger)
	}

	// === 4. SERVE ===
	srv := server.New(cfg, logger, runner)
	if err := srv.Start(); err != nil {
		logger.Error("server error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

func logLevel(s string) slog.Level {
	switch s {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
