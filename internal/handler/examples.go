package handler

import (
	"net/http"

	"github.com/sakif/vizbox/internal/apperror"
	"github.com/sakif/vizbox/internal/model"
)

// ExamplesHandler serves the bundled sample snippets the editor offers as
// starting points.
type ExamplesHandler struct{}

func NewExamplesHandler() *ExamplesHandler {
	return &ExamplesHandler{}
}

// ExamplesResponse wraps the sample list so the body stays extensible.
type ExamplesResponse struct {
	Examples []model.Sample `json:"examples"`
}

// HandleList processes GET /api/examples. An optional ?language= query
// filters the catalog to one language.
func (h *ExamplesHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	raw := r.URL.Query().Get("language")
	if raw == "" {
		writeJSON(w, http.StatusOK, ExamplesResponse{Examples: model.Samples()})
		return
	}

	lang, ok := model.ParseLanguage(raw)
	if !ok {
		writeError(w, apperror.ValidationFailed("language", "Unsupported language"))
		return
	}

	writeJSON(w, http.StatusOK, ExamplesResponse{Examples: model.SamplesFor(lang)})
}
