package handler_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/sakif/vizbox/internal/handler"
	"github.com/sakif/vizbox/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHealthHandler_HandleRoot(t *testing.T) {
	h := handler.NewHealthHandler("process", func() int64 { return 0 })

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rr := httptest.NewRecorder()
	h.HandleRoot(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)

	var body map[string]string
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&body))
	assert.Equal(t, "Visualization API is running", body["message"])
}

func TestHealthHandler_HandleHealth(t *testing.T) {
	h := handler.NewHealthHandler("docker", func() int64 { return 3 })

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rr := httptest.NewRecorder()
	h.HandleHealth(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)

	var body handler.HealthResponse
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&body))
	assert.Equal(t, "ok", body.Status)
	assert.Equal(t, "docker", body.Backend)
	assert.Equal(t, int64(3), body.LiveWorkers)
}

func TestExamplesHandler_HandleList(t *testing.T) {
	h := handler.NewExamplesHandler()

	t.Run("full catalog", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/examples", nil)
		rr := httptest.NewRecorder()
		h.HandleList(rr, req)

		assert.Equal(t, http.StatusOK, rr.Code)

		var body handler.ExamplesResponse
		require.NoError(t, json.NewDecoder(rr.Body).Decode(&body))
		assert.Len(t, body.Examples, len(model.Samples()))
	})

	t.Run("filtered by language", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/examples?language=r", nil)
		rr := httptest.NewRecorder()
		h.HandleList(rr, req)

		assert.Equal(t, http.StatusOK, rr.Code)

		var body handler.ExamplesResponse
		require.NoError(t, json.NewDecoder(rr.Body).Decode(&body))
		require.NotEmpty(t, body.Examples)
		for _, s := range body.Examples {
			assert.Equal(t, model.LanguageR, s.Language)
		}
	})

	t.Run("unsupported language", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/examples?language=java", nil)
		rr := httptest.NewRecorder()
		h.HandleList(rr, req)

		assert.Equal(t, http.StatusBadRequest, rr.Code)

		var body map[string]string
		require.NoError(t, json.NewDecoder(rr.Body).Decode(&body))
		assert.Equal(t, "Unsupported language", body["detail"])
	})
}
