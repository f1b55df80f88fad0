package config_test

import (
	"testing"
	"time"

	"github.com/sakif/vizbox/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := config.Load()
	require.NoError(t, err)

	assert.Equal(t, 8000, cfg.Server.Port)
	assert.Equal(t, "info", cfg.Server.LogLevel)
	assert.Equal(t, []string{"http://localhost:3000"}, cfg.Server.CORSOrigins)

	assert.Equal(t, "process", cfg.Executor.Backend)
	assert.Equal(t, "reject", cfg.Executor.AdmissionPolicy)
	assert.Equal(t, 4, cfg.Executor.MaxWorkers)

	assert.Equal(t, "python3", cfg.Languages.PythonBin)
	assert.Equal(t, "Rscript", cfg.Languages.RscriptBin)
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("VIZBOX_SERVER_PORT", "9001")
	t.Setenv("VIZBOX_EXECUTOR_BACKEND", "docker")
	t.Setenv("VIZBOX_EXECUTOR_MAX_WORKERS", "2")
	t.Setenv("VIZBOX_DOCKER_IMAGE", "vizbox-runtime:dev")

	cfg, err := config.Load()
	require.NoError(t, err)

	assert.Equal(t, 9001, cfg.Server.Port)
	assert.Equal(t, "docker", cfg.Executor.Backend)
	assert.Equal(t, 2, cfg.Executor.MaxWorkers)
	assert.Equal(t, "vizbox-runtime:dev", cfg.Docker.Image)
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	t.Run("unknown backend", func(t *testing.T) {
		t.Setenv("VIZBOX_EXECUTOR_BACKEND", "qemu")
		_, err := config.Load()
		assert.Error(t, err)
	})

	t.Run("unknown admission policy", func(t *testing.T) {
		t.Setenv("VIZBOX_EXECUTOR_ADMISSION_POLICY", "drop")
		_, err := config.Load()
		assert.Error(t, err)
	})

	t.Run("unknown log level", func(t *testing.T) {
		t.Setenv("VIZBOX_SERVER_LOG_LEVEL", "loud")
		_, err := config.Load()
		assert.Error(t, err)
	})

	t.Run("zero workers", func(t *testing.T) {
		t.Setenv("VIZBOX_EXECUTOR_MAX_WORKERS", "0")
		_, err := config.Load()
		assert.Error(t, err)
	})

	t.Run("wait policy with no queue wait", func(t *testing.T) {
		t.Setenv("VIZBOX_EXECUTOR_ADMISSION_POLICY", "wait")
		t.Setenv("VIZBOX_EXECUTOR_QUEUE_WAIT_SECONDS", "0")
		_, err := config.Load()
		assert.Error(t, err)
	})

	t.Run("zero queue wait is fine under reject", func(t *testing.T) {
		// The reject policy never arms the queue timer, so the value is
		// inert there.
		t.Setenv("VIZBOX_EXECUTOR_ADMISSION_POLICY", "reject")
		t.Setenv("VIZBOX_EXECUTOR_QUEUE_WAIT_SECONDS", "0")
		_, err := config.Load()
		assert.NoError(t, err)
	})

	t.Run("request timeout shorter than worker timeout", func(t *testing.T) {
		t.Setenv("VIZBOX_EXECUTOR_TIMEOUT_SECONDS", "30")
		t.Setenv("VIZBOX_EXECUTOR_REQUEST_TIMEOUT_SECONDS", "10")
		_, err := config.Load()
		assert.Error(t, err)
	})
}

func TestDerivedValues(t *testing.T) {
	t.Setenv("VIZBOX_EXECUTOR_TIMEOUT_SECONDS", "15")
	t.Setenv("VIZBOX_EXECUTOR_MEMORY_LIMIT_MB", "256")
	t.Setenv("VIZBOX_EXECUTOR_MAX_ARTIFACT_MB", "5")

	cfg, err := config.Load()
	require.NoError(t, err)

	assert.Equal(t, 15*time.Second, cfg.Timeout())
	assert.Equal(t, int64(256*1024*1024), cfg.MemoryBytes())
	assert.Equal(t, int64(5*1024*1024), cfg.MaxArtifactBytes())
	assert.Equal(t, 60*time.Second, cfg.RequestTimeout())
	assert.Equal(t, 10*time.Second, cfg.QueueWait())

	// Default max_code_bytes is 100000; the body cap doubles it for escape
	// sequences and adds envelope slack.
	assert.Equal(t, int64(204096), cfg.MaxBodyBytes())
}
