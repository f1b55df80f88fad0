// Package config loads server configuration from defaults, an optional YAML
// file, and VIZBOX_* environment variables, in increasing precedence.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config is the full configuration tree. Field values are plain scalars so
// the file/env mapping stays obvious; duration and byte-size helpers derive
// the typed values the rest of the code consumes.
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Executor  ExecutorConfig  `mapstructure:"executor"`
	Languages LanguagesConfig `mapstructure:"languages"`
	Docker    DockerConfig    `mapstructure:"docker"`
}

type ServerConfig struct {
	Port        int      `mapstructure:"port"`
	LogLevel    string   `mapstructure:"log_level"`
	CORSOrigins []string `mapstructure:"cors_origins"`
}

type ExecutorConfig struct {
	// Backend selects the worker implementation: "process" runs the
	// interpreter directly in a child process, "docker" runs it in a
	// one-shot container.
	Backend string `mapstructure:"backend"`
	// TimeoutSeconds is the per-worker wall-clock ceiling.
	TimeoutSeconds int `mapstructure:"timeout_seconds"`
	// MemoryLimitMB is the per-worker memory ceiling.
	MemoryLimitMB int `mapstructure:"memory_limit_mb"`
	// MaxWorkers bounds how many workers may run concurrently.
	MaxWorkers int `mapstructure:"max_workers"`
	// AdmissionPolicy is "reject" (fail fast at capacity) or "wait"
	// (queue up to QueueWaitSeconds for a free slot).
	AdmissionPolicy  string `mapstructure:"admission_policy"`
	QueueWaitSeconds int    `mapstructure:"queue_wait_seconds"`
	// RequestTimeoutSeconds caps the whole request: adapter build,
	// queueing, execution, and normalization together.
	RequestTimeoutSeconds int `mapstructure:"request_timeout_seconds"`
	// MaxArtifactMB bounds the size of a returned artifact.
	MaxArtifactMB int `mapstructure:"max_artifact_mb"`
	// MaxCodeBytes bounds the size of submitted source code.
	MaxCodeBytes int `mapstructure:"max_code_bytes"`
}

type LanguagesConfig struct {
	PythonBin  string `mapstructure:"python_bin"`
	RscriptBin string `mapstructure:"rscript_bin"`
}

type DockerConfig struct {
	// Image must contain both interpreter runtimes and their plotting
	// libraries (matplotlib, plotly, ggplot2, htmlwidgets).
	Image string `mapstructure:"image"`
	// Workdir is where the per-request scratch directory is mounted
	// inside the container.
	Workdir string `mapstructure:"workdir"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8000)
	v.SetDefault("server.log_level", "info")
	v.SetDefault("server.cors_origins", []string{"http://localhost:3000"})

	v.SetDefault("executor.backend", "process")
	v.SetDefault("executor.timeout_seconds", 30)
	v.SetDefault("executor.memory_limit_mb", 512)
	v.SetDefault("executor.max_workers", 4)
	v.SetDefault("executor.admission_policy", "reject")
	v.SetDefault("executor.queue_wait_seconds", 10)
	v.SetDefault("executor.request_timeout_seconds", 60)
	v.SetDefault("executor.max_artifact_mb", 10)
	v.SetDefault("executor.max_code_bytes", 100000)

	v.SetDefault("languages.python_bin", "python3")
	v.SetDefault("languages.rscript_bin", "Rscript")

	v.SetDefault("docker.image", "ghcr.io/sakif/vizbox-runtime:latest")
	v.SetDefault("docker.workdir", "/workspace")
}

// Load reads configuration. A missing config file is fine, since defaults
// plus environment variables are a complete configuration. A malformed file
// or invalid values are not.
func Load() (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("/etc/vizbox")

	v.SetEnvPrefix("VIZBOX")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func (c *Config) validate() error {
	switch c.Executor.Backend {
	case "process", "docker":
	default:
		return fmt.Errorf("invalid executor backend %q (must be process or docker)", c.Executor.Backend)
	}

	switch c.Executor.AdmissionPolicy {
	case "reject", "wait":
	default:
		return fmt.Errorf("invalid admission policy %q (must be reject or wait)", c.Executor.AdmissionPolicy)
	}

	switch c.Server.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("invalid log level %q", c.Server.LogLevel)
	}

	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port %d", c.Server.Port)
	}
	if c.Executor.TimeoutSeconds < 1 {
		return fmt.Errorf("executor.timeout_seconds must be positive, got %d", c.Executor.TimeoutSeconds)
	}
	if c.Executor.MemoryLimitMB < 1 {
		return fmt.Errorf("executor.memory_limit_mb must be positive, got %d", c.Executor.MemoryLimitMB)
	}
	if c.Executor.MaxWorkers < 1 {
		return fmt.Errorf("executor.max_workers must be positive, got %d", c.Executor.MaxWorkers)
	}
	if c.Executor.AdmissionPolicy == "wait" && c.Executor.QueueWaitSeconds < 1 {
		return fmt.Errorf("executor.queue_wait_seconds must be positive under the wait policy, got %d", c.Executor.QueueWaitSeconds)
	}
	if c.Executor.MaxArtifactMB < 1 {
		return fmt.Errorf("executor.max_artifact_mb must be positive, got %d", c.Executor.MaxArtifactMB)
	}
	if c.Executor.MaxCodeBytes < 1 {
		return fmt.Errorf("executor.max_code_bytes must be positive, got %d", c.Executor.MaxCodeBytes)
	}
	if c.Executor.RequestTimeoutSeconds < c.Executor.TimeoutSeconds {
		return fmt.Errorf("executor.request_timeout_seconds (%d) must cover executor.timeout_seconds (%d)",
			c.Executor.RequestTimeoutSeconds, c.Executor.TimeoutSeconds)
	}

	return nil
}

// Timeout returns the per-worker wall-clock ceiling.
func (c *Config) Timeout() time.Duration {
	return time.Duration(c.Executor.TimeoutSeconds) * time.Second
}

// RequestTimeout returns the overall per-request deadline.
func (c *Config) RequestTimeout() time.Duration {
	return time.Duration(c.Executor.RequestTimeoutSeconds) * time.Second
}

// QueueWait returns how long an admission may queue under the wait policy.
func (c *Config) QueueWait() time.Duration {
	return time.Duration(c.Executor.QueueWaitSeconds) * time.Second
}

// MemoryBytes returns the per-worker memory ceiling in bytes.
func (c *Config) MemoryBytes() int64 {
	return int64(c.Executor.MemoryLimitMB) * 1024 * 1024
}

// MaxArtifactBytes returns the artifact size bound in bytes.
func (c *Config) MaxArtifactBytes() int64 {
	return int64(c.Executor.MaxArtifactMB) * 1024 * 1024
}

// MaxBodyBytes returns the request-body cap for the generate endpoint: the
// code bound with headroom for JSON escape sequences plus envelope slack for
// the other fields.
func (c *Config) MaxBodyBytes() int64 {
	return int64(c.Executor.MaxCodeBytes)*2 + 4096
}
