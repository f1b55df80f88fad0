package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/sakif/vizbox/internal/apperror"
	"github.com/sakif/vizbox/internal/model"
)

// VisualizationGenerator is the slice of the service this handler needs.
// Declaring the interface on the consumer side keeps the handler testable
// with a stub and free of the service package's dependency tree.
type VisualizationGenerator interface {
	Generate(ctx context.Context, req model.VizRequest) (*model.VizResponse, error)
}

// VisualizationHandler handles visualization generation requests.
type VisualizationHandler struct {
	svc     VisualizationGenerator
	maxBody int64
	logger  *slog.Logger
}

// NewVisualizationHandler builds the handler. maxBody caps how many request
// body bytes are read before decoding; a payload past the cap fails with 413
// without ever being buffered whole.
func NewVisualizationHandler(svc VisualizationGenerator, maxBody int64, logger *slog.Logger) *VisualizationHandler {
	return &VisualizationHandler{
		svc:     svc,
		maxBody: maxBody,
		logger:  logger,
	}
}

// HandleGenerate processes POST /generate-visualization. The handler only
// parses JSON and translates errors; everything about languages, limits and
// execution lives in the service.
func (h *VisualizationHandler) HandleGenerate(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxBody)

	var req model.VizRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeJSON(w, http.StatusRequestEntityTooLarge, DetailResponse{
				Detail: fmt.Sprintf("Request body must be %d bytes or less", tooLarge.Limit),
			})
			return
		}
		h.logger.Warn("invalid request body", slog.String("error", err.Error()))
		writeError(w, apperror.ValidationFailed("body", "Invalid request body"))
		return
	}

	resp, err := h.svc.Generate(r.Context(), req)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, resp)
}
