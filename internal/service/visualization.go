// Package service contains the business logic layer of the application.
//
// The handler parses HTTP and writes responses; this layer owns everything
// in between: validation, admission, execution and normalization. It knows
// nothing about HTTP, so the same Generate call could back a CLI or a queue
// consumer without changes.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/rs/xid"

	"github.com/sakif/vizbox/internal/adapter"
	"github.com/sakif/vizbox/internal/apperror"
	"github.com/sakif/vizbox/internal/artifact"
	"github.com/sakif/vizbox/internal/config"
	"github.com/sakif/vizbox/internal/governor"
	"github.com/sakif/vizbox/internal/metrics"
	"github.com/sakif/vizbox/internal/model"
	"github.com/sakif/vizbox/internal/worker"
)

// VisualizationService turns a wire request into a normalized artifact.
//
// The dependency chain mirrors the request path: the adapter registry wraps
// the code into a runnable unit, the governor admits it into a bounded
// worker slot, the runner executes it, and the artifact normalizer decides
// what the run actually produced.
type VisualizationService struct {
	cfg      *config.Config
	adapters *adapter.Registry
	gov      *governor.Governor
	runner   worker.Runner
	metrics  *metrics.Metrics
	logger   *slog.Logger
}

func NewVisualizationService(
	cfg *config.Config,
	adapters *adapter.Registry,
	gov *governor.Governor,
	runner worker.Runner,
	m *metrics.Metrics,
	logger *slog.Logger,
) *VisualizationService {
	return &VisualizationService{
		cfg:      cfg,
		adapters: adapters,
		gov:      gov,
		runner:   runner,
		metrics:  m,
		logger:   logger,
	}
}

// invalidLabel replaces unparsable request values in metric labels so
// arbitrary client input never becomes a label value.
const invalidLabel = "invalid"

// Generate runs one visualization request end to end. Validation failures
// return before any worker slot is claimed; a rejected request costs the
// server nothing but the parse.
func (s *VisualizationService) Generate(ctx context.Context, req model.VizRequest) (*model.VizResponse, error) {
	// === VALIDATION ===
	lang, ok := model.ParseLanguage(req.Language)
	if !ok {
		s.metrics.ObserveRequest(invalidLabel, invalidLabel, "validation_error")
		return nil, apperror.ValidationFailed("language", "Unsupported language")
	}
	vizType, ok := model.ParseVizType(req.VizType)
	if !ok {
		s.metrics.ObserveRequest(string(lang), invalidLabel, "validation_error")
		return nil, apperror.ValidationFailed("viz_type", "Unsupported visualization type")
	}
	if strings.TrimSpace(req.Code) == "" {
		s.metrics.ObserveRequest(string(lang), string(vizType), "validation_error")
		return nil, apperror.ValidationFailed("code", "Code cannot be empty")
	}
	if len(req.Code) > s.cfg.Executor.MaxCodeBytes {
		s.metrics.ObserveRequest(string(lang), string(vizType), "validation_error")
		return nil, apperror.ValidationFailed("code",
			fmt.Sprintf("Code must be %d bytes or less", s.cfg.Executor.MaxCodeBytes))
	}

	resp, err := s.generate(ctx, lang, vizType, req.Code)

	outcome := apperror.Kind(err)
	if err == nil {
		outcome = resp.Type
	}
	s.metrics.ObserveRequest(string(lang), string(vizType), outcome)

	return resp, err
}

func (s *VisualizationService) generate(ctx context.Context, lang model.Language, vizType model.VizType, code string) (*model.VizResponse, error) {
	adp, ok := s.adapters.ForLanguage(lang)
	if !ok {
		// Every parseable language has a registered adapter; reaching this
		// means the server was wired wrong.
		s.logger.Error("no adapter registered", slog.String("language", string(lang)))
		return nil, apperror.Internal("An internal error occurred")
	}

	logger := s.logger.With(
		slog.String("execution_id", xid.New().String()),
		slog.String("language", string(lang)),
		slog.String("viz_type", string(vizType)),
	)

	// The request deadline covers queueing and execution together, so a
	// request cannot sit in the admission queue forever.
	ctx, cancel := context.WithTimeout(ctx, s.cfg.RequestTimeout())
	defer cancel()

	// === ADMISSION ===
	slot, err := s.gov.Admit(ctx)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
			logger.Warn("request expired while queued for a worker slot")
			return nil, apperror.Timeout(s.cfg.RequestTimeout())
		}
		logger.Warn("admission rejected", slog.Int64("live_workers", s.gov.Live()))
		return nil, err
	}
	defer slot.Release()

	// === EXECUTION ===
	unit := adp.BuildUnit(code, vizType)
	limits := worker.Limits{
		WallClock:        s.cfg.Timeout(),
		MemoryBytes:      s.cfg.MemoryBytes(),
		MaxArtifactBytes: s.cfg.MaxArtifactBytes(),
	}

	logger.Info("executing visualization code", slog.Int("code_bytes", len(code)))

	raw, err := s.runner.Run(ctx, unit, limits)
	if err != nil {
		// The docker backend surfaces an expired request deadline as a
		// wrapped context error from whichever API call it interrupted;
		// that is the caller's deadline, not an infrastructure fault.
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
			logger.Warn("request expired during execution", slog.String("error", err.Error()))
			return nil, apperror.Timeout(s.cfg.RequestTimeout())
		}
		// Worker infrastructure failed before or outside the user's code:
		// staging, spawn, container lifecycle. Never the user's fault.
		logger.Error("worker execution failed", slog.String("error", err.Error()))
		return nil, apperror.Internal("An internal error occurred")
	}

	s.metrics.ObserveExecution(string(lang), raw.Duration)

	// === NORMALIZATION ===
	resp, err := artifact.Normalize(raw, limits)
	if err != nil {
		logger.Info("execution failed",
			slog.String("kind", apperror.Kind(err)),
			slog.Int("exit_code", raw.ExitCode),
			slog.Duration("duration", raw.Duration),
		)
		return nil, err
	}

	logger.Info("visualization generated",
		slog.String("type", resp.Type),
		slog.Int("content_bytes", len(resp.Content)),
		slog.Duration("duration", raw.Duration),
	)

	return resp, nil
}
