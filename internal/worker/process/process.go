// Package process runs units as direct child processes of the server,
// mirroring how the service originally shelled out to python/Rscript.
//
// Isolation comes from a throwaway working directory, a scrubbed
// environment, a dedicated process group and an address-space rlimit. It
// does not isolate the network namespace; deployments that need that use
// the docker backend.
package process

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"time"

	"github.com/sakif/vizbox/internal/adapter"
	"github.com/sakif/vizbox/internal/worker"
)

// captureCap bounds how much of each diagnostic stream is kept.
const captureCap = 64 * 1024

// pipeGrace bounds how long Wait may block on the output pipes once the
// worker itself is gone. A child that re-sessions out of the process group
// survives the group kill and keeps the inherited pipes open; without the
// bound it would hold Run, and the admission slot behind it, for as long
// as it lives.
const pipeGrace = 3 * time.Second

// Runner implements worker.Runner by spawning the language interpreter
// directly. The interpreters and their plotting libraries must be installed
// on the host.
type Runner struct {
	logger *slog.Logger
}

func New(logger *slog.Logger) *Runner {
	return &Runner{logger: logger}
}

// Run executes the unit to completion or forced termination. The scratch
// directory and the process (including any children it forked) are
// reclaimed on every path out of this function.
func (r *Runner) Run(ctx context.Context, unit adapter.Unit, limits worker.Limits) (*worker.RawResult, error) {
	if len(unit.Argv) == 0 {
		return nil, errors.New("unit has no command")
	}

	dir, cleanup, err := worker.Stage(unit)
	if err != nil {
		return nil, err
	}
	defer cleanup()

	runCtx := ctx
	if limits.WallClock > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, limits.WallClock)
		defer cancel()
	}

	stdout := worker.NewCappedBuffer(captureCap)
	stderr := worker.NewCappedBuffer(captureCap)

	cmd := exec.Command(unit.Argv[0], unit.Argv[1:]...)
	cmd.Dir = dir
	cmd.Env = scrubbedEnv(dir)
	cmd.Stdout = stdout
	cmd.Stderr = stderr
	cmd.WaitDelay = pipeGrace
	setProcAttributes(cmd)

	start := time.Now()
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("starting worker process: %w", err)
	}
	pid := cmd.Process.Pid

	// The rlimit lands just after Start; allocations made in between are
	// not counted. Breaches surface inside the interpreter as failed
	// allocations (MemoryError, "cannot allocate"), not as an OS kill.
	if limits.MemoryBytes > 0 {
		if err := applyMemoryLimit(pid, limits.MemoryBytes); err != nil {
			killProcessGroup(pid)
			_ = cmd.Wait()
			return nil, fmt.Errorf("applying memory limit: %w", err)
		}
	}

	waitCh := make(chan error, 1)
	go func() { waitCh <- cmd.Wait() }()

	timedOut := false
	select {
	case <-runCtx.Done():
		timedOut = true
		killProcessGroup(pid)
		// Reap the process; this also waits for the output copiers, so
		// the buffers are safe to read afterwards. WaitDelay keeps the
		// drain bounded when an escaped child still holds the pipes.
		<-waitCh
	case err := <-waitCh:
		// ErrWaitDelay means the worker exited cleanly but something it
		// spawned kept the pipes open past the grace; the exit status is
		// recorded and the straggler's remaining output is forfeit.
		if err != nil && !errors.Is(err, exec.ErrWaitDelay) {
			var exitErr *exec.ExitError
			if !errors.As(err, &exitErr) {
				return nil, fmt.Errorf("waiting for worker process: %w", err)
			}
		}
	}
	duration := time.Since(start)

	res := &worker.RawResult{
		ExitCode: cmd.ProcessState.ExitCode(),
		Stdout:   stdout.String(),
		Stderr:   stderr.String(),
		Duration: duration,
		TimedOut: timedOut,
	}

	// A killed worker never yields an artifact; whatever it managed to
	// write is dropped with the scratch dir.
	if !timedOut {
		art, err := worker.CollectArtifact(dir, limits.MaxArtifactBytes)
		if err != nil {
			return nil, err
		}
		res.Artifact = art
	}

	r.logger.Debug("worker process finished",
		slog.String("language", string(unit.Language)),
		slog.Int("exit_code", res.ExitCode),
		slog.Bool("timed_out", timedOut),
		slog.Duration("duration", duration),
	)

	return res, nil
}

// scrubbedEnv builds the worker environment from scratch: no inherited
// secrets, HOME and all cache/temp paths pointed inside the scratch dir so
// every file the run creates dies with it.
func scrubbedEnv(scratch string) []string {
	cache := filepath.Join(scratch, ".cache")
	return []string{
		"PATH=" + os.Getenv("PATH"),
		"HOME=" + scratch,
		"TMPDIR=" + scratch,
		"LANG=C.UTF-8",
		"LC_ALL=C.UTF-8",
		"XDG_CACHE_HOME=" + cache,
		"MPLCONFIGDIR=" + filepath.Join(cache, "matplotlib"),
		"PYTHONDONTWRITEBYTECODE=1",
	}
}
