// Package docker runs units in one-shot containers. Each request gets a
// fresh container that shares nothing with the host beyond a bind-mounted
// scratch directory: no network, dropped capabilities, read-only rootfs,
// unprivileged user.
package docker

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/docker/docker/api/types/container"
	"github.com/docker/docker/api/types/image"
	"github.com/docker/docker/api/types/mount"
	"github.com/docker/docker/api/types/strslice"
	"github.com/docker/docker/client"
	"github.com/docker/docker/pkg/stdcopy"

	"github.com/sakif/vizbox/internal/adapter"
	"github.com/sakif/vizbox/internal/worker"
)

const captureCap = 64 * 1024

// Runner implements worker.Runner using the Docker API.
type Runner struct {
	cli    *client.Client
	config Config
	logger *slog.Logger
}

// New creates a new Runner and makes sure the runtime image is pulled.
func New(cfg Config, logger *slog.Logger) (*Runner, error) {
	cli, err := client.NewClientWithOpts(client.FromEnv, client.WithAPIVersionNegotiation())
	if err != nil {
		return nil, fmt.Errorf("failed to create docker client: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	logger.Info("ensuring runtime image is available", slog.String("image", cfg.Image))
	reader, err := cli.ImagePull(ctx, cfg.Image, image.PullOptions{})
	if err != nil {
		return nil, fmt.Errorf("failed to pull image: %w", err)
	}
	defer reader.Close()
	// Read everything to block until the pull is complete
	io.Copy(io.Discard, reader)
	logger.Info("runtime image is ready")

	return &Runner{
		cli:    cli,
		config: cfg,
		logger: logger,
	}, nil
}

// Close releases the docker client.
func (r *Runner) Close() error {
	return r.cli.Close()
}

// Run executes the unit in a fresh container and force-removes it on every
// path out of this function.
func (r *Runner) Run(ctx context.Context, unit adapter.Unit, limits worker.Limits) (*worker.RawResult, error) {
	if len(unit.Argv) == 0 {
		return nil, errors.New("unit has no command")
	}

	dir, cleanup, err := worker.Stage(unit)
	if err != nil {
		return nil, err
	}
	defer cleanup()

	// The container runs as nobody; the bind-mounted scratch dir must
	// stay writable for it.
	if err := os.Chmod(dir, 0o777); err != nil {
		return nil, fmt.Errorf("preparing scratch dir: %w", err)
	}

	createCtx, createCancel := context.WithTimeout(ctx, 30*time.Second)
	defer createCancel()

	resp, err := r.cli.ContainerCreate(createCtx, &container.Config{
		Image:      r.config.Image,
		Cmd:        strslice.StrSlice(unit.Argv),
		WorkingDir: r.config.Workdir,
		Env:        containerEnv(r.config.Workdir),
		User:       "nobody",
		Tty:        false,
	}, &container.HostConfig{
		NetworkMode: "none",
		Mounts: []mount.Mount{{
			Type:   mount.TypeBind,
			Source: dir,
			Target: r.config.Workdir,
		}},
		Resources: container.Resources{
			Memory: limits.MemoryBytes,
			// Swap total equals the memory limit: no swap headroom.
			MemorySwap: limits.MemoryBytes,
		},
		ReadonlyRootfs: true,
		CapDrop:        strslice.StrSlice{"ALL"},
		SecurityOpt:    []string{"no-new-privileges"},
		AutoRemove:     false,
	}, nil, nil, "")
	if err != nil {
		return nil, fmt.Errorf("ContainerCreate failed: %w", err)
	}
	containerID := resp.ID

	// Always ensure we clean up the container we created
	defer func() {
		cleanupCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		err := r.cli.ContainerRemove(cleanupCtx, containerID, container.RemoveOptions{
			Force: true,
		})
		if err != nil {
			r.logger.Error("failed to remove container", slog.String("id", containerID), slog.String("error", err.Error()))
		}
	}()

	start := time.Now()
	if err := r.cli.ContainerStart(ctx, containerID, container.StartOptions{}); err != nil {
		return nil, fmt.Errorf("ContainerStart failed: %w", err)
	}

	runCtx := ctx
	if limits.WallClock > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, limits.WallClock)
		defer cancel()
	}

	timedOut := false
	var exitCode int

	waitCh, errCh := r.cli.ContainerWait(runCtx, containerID, container.WaitConditionNotRunning)
	select {
	case status := <-waitCh:
		exitCode = int(status.StatusCode)
	case err := <-errCh:
		if runCtx.Err() == nil {
			return nil, fmt.Errorf("waiting for container: %w", err)
		}
		// Wall clock (or the request deadline) fired: kill hard.
		timedOut = true
		killCtx, killCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer killCancel()
		_ = r.cli.ContainerKill(killCtx, containerID, "KILL")
		exitCode = 137
	}
	duration := time.Since(start)

	stdout, stderr := r.collectLogs(containerID)

	oomKilled := false
	inspectCtx, inspectCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer inspectCancel()
	if inspect, err := r.cli.ContainerInspect(inspectCtx, containerID); err == nil && inspect.State != nil {
		oomKilled = inspect.State.OOMKilled
	}

	res := &worker.RawResult{
		ExitCode:  exitCode,
		Stdout:    stdout,
		Stderr:    stderr,
		Duration:  duration,
		TimedOut:  timedOut,
		OOMKilled: oomKilled,
	}

	// Killed workers never yield an artifact.
	if !timedOut && !oomKilled {
		art, err := worker.CollectArtifact(dir, limits.MaxArtifactBytes)
		if err != nil {
			return nil, err
		}
		res.Artifact = art
	}

	r.logger.Debug("worker container finished",
		slog.String("language", string(unit.Language)),
		slog.Int("exit_code", exitCode),
		slog.Bool("timed_out", timedOut),
		slog.Bool("oom_killed", oomKilled),
		slog.Duration("duration", duration),
	)

	return res, nil
}

// collectLogs fetches the container's demultiplexed output after it has
// stopped. Failures here degrade to empty diagnostics rather than failing
// the whole run.
func (r *Runner) collectLogs(containerID string) (string, string) {
	logsCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	rc, err := r.cli.ContainerLogs(logsCtx, containerID, container.LogsOptions{
		ShowStdout: true,
		ShowStderr: true,
	})
	if err != nil {
		r.logger.Error("failed to read container logs", slog.String("id", containerID), slog.String("error", err.Error()))
		return "", ""
	}
	defer rc.Close()

	stdout := worker.NewCappedBuffer(captureCap)
	stderr := worker.NewCappedBuffer(captureCap)
	// Use stdcopy to demultiplex stdout from stderr
	_, _ = stdcopy.StdCopy(stdout, stderr, rc)
	return stdout.String(), stderr.String()
}

// containerEnv mirrors the process backend's scrubbed environment, with all
// paths inside the mounted workdir. PATH stays whatever the image defines.
func containerEnv(workdir string) []string {
	cache := workdir + "/.cache"
	return []string{
		"HOME=" + workdir,
		"TMPDIR=" + workdir,
		"LANG=C.UTF-8",
		"LC_ALL=C.UTF-8",
		"XDG_CACHE_HOME=" + cache,
		"MPLCONFIGDIR=" + cache + "/matplotlib",
		"PYTHONDONTWRITEBYTECODE=1",
	}
}
