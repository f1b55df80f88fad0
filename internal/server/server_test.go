package server_test

import (
	"bytes"
	"context"
	"encoding/json"
	"image"
	"image/png"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/sakif/vizbox/internal/adapter"
	"github.com/sakif/vizbox/internal/config"
	"github.com/sakif/vizbox/internal/server"
	"github.com/sakif/vizbox/internal/worker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubRunner returns a canned result so the full route table can be
// exercised without any interpreter or docker daemon.
type stubRunner struct {
	result *worker.RawResult
}

func (s *stubRunner) Run(_ context.Context, _ adapter.Unit, _ worker.Limits) (*worker.RawResult, error) {
	return s.result, nil
}

func testConfig() *config.Config {
	return &config.Config{
		Server: config.ServerConfig{
			Port:        8000,
			LogLevel:    "error",
			CORSOrigins: []string{"http://editor.example.com"},
		},
		Executor: config.ExecutorConfig{
			Backend:               "process",
			TimeoutSeconds:        5,
			MemoryLimitMB:         64,
			MaxWorkers:            2,
			AdmissionPolicy:       "reject",
			QueueWaitSeconds:      1,
			RequestTimeoutSeconds: 10,
			MaxArtifactMB:         1,
			MaxCodeBytes:          1000,
		},
		Languages: config.LanguagesConfig{PythonBin: "python3", RscriptBin: "Rscript"},
	}
}

func newTestServer(t *testing.T) *server.Server {
	t.Helper()

	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, 1, 1))))
	data := buf.Bytes()

	runner := &stubRunner{result: &worker.RawResult{
		ExitCode: 0,
		Artifact: &worker.ArtifactFile{Name: worker.ArtifactPNG, Size: int64(len(data)), Data: data},
	}}

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return server.New(testConfig(), logger, runner)
}

func TestServerRoutes(t *testing.T) {
	srv := newTestServer(t)

	t.Run("generate visualization", func(t *testing.T) {
		body := `{"code":"plt.plot([1,2,3])","language":"python","viz_type":"static"}`
		req := httptest.NewRequest(http.MethodPost, "/generate-visualization", strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		rr := httptest.NewRecorder()

		srv.Router().ServeHTTP(rr, req)

		require.Equal(t, http.StatusOK, rr.Code, "body: %s", rr.Body.String())

		var resp map[string]string
		require.NoError(t, json.NewDecoder(rr.Body).Decode(&resp))
		assert.Equal(t, "image", resp["type"])
		assert.NotEmpty(t, resp["content"])
	})

	t.Run("unsupported language", func(t *testing.T) {
		body := `{"code":"System.out.println(1);","language":"java","viz_type":"static"}`
		req := httptest.NewRequest(http.MethodPost, "/generate-visualization", strings.NewReader(body))
		rr := httptest.NewRecorder()

		srv.Router().ServeHTTP(rr, req)

		assert.Equal(t, http.StatusBadRequest, rr.Code)

		var resp map[string]string
		require.NoError(t, json.NewDecoder(rr.Body).Decode(&resp))
		assert.Equal(t, "Unsupported language", resp["detail"])
	})

	t.Run("oversized request body", func(t *testing.T) {
		// Well past MaxBodyBytes for the 1000-byte code cap above.
		body := `{"code":"` + strings.Repeat("x", 10000) + `","language":"python","viz_type":"static"}`
		req := httptest.NewRequest(http.MethodPost, "/generate-visualization", strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		rr := httptest.NewRecorder()

		srv.Router().ServeHTTP(rr, req)

		assert.Equal(t, http.StatusRequestEntityTooLarge, rr.Code)
	})

	t.Run("root banner", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		rr := httptest.NewRecorder()

		srv.Router().ServeHTTP(rr, req)

		assert.Equal(t, http.StatusOK, rr.Code)
		assert.Contains(t, rr.Body.String(), "Visualization API is running")
	})

	t.Run("health", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
		rr := httptest.NewRecorder()

		srv.Router().ServeHTTP(rr, req)

		assert.Equal(t, http.StatusOK, rr.Code)

		var resp map[string]interface{}
		require.NoError(t, json.NewDecoder(rr.Body).Decode(&resp))
		assert.Equal(t, "ok", resp["status"])
		assert.Equal(t, "process", resp["backend"])
	})

	t.Run("examples", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/examples", nil)
		rr := httptest.NewRecorder()

		srv.Router().ServeHTTP(rr, req)

		assert.Equal(t, http.StatusOK, rr.Code)

		var resp struct {
			Examples []struct {
				Name     string `json:"name"`
				Language string `json:"language"`
				Code     string `json:"code"`
			} `json:"examples"`
		}
		require.NoError(t, json.NewDecoder(rr.Body).Decode(&resp))
		assert.NotEmpty(t, resp.Examples)
	})

	t.Run("metrics", func(t *testing.T) {
		// The earlier subtests already pushed requests through the
		// service, so the counters exist with concrete label values.
		req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
		rr := httptest.NewRecorder()

		srv.Router().ServeHTTP(rr, req)

		assert.Equal(t, http.StatusOK, rr.Code)
		assert.Contains(t, rr.Body.String(), "vizbox_requests_total")
		assert.Contains(t, rr.Body.String(), "vizbox_live_workers")
	})

	t.Run("cors preflight", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodOptions, "/generate-visualization", nil)
		req.Header.Set("Origin", "http://editor.example.com")
		req.Header.Set("Access-Control-Request-Method", http.MethodPost)
		rr := httptest.NewRecorder()

		srv.Router().ServeHTTP(rr, req)

		assert.Equal(t, "http://editor.example.com", rr.Header().Get("Access-Control-Allow-Origin"))
	})
}
