// Package worker runs adapted units in isolated, single-use processes.
//
// A Runner executes exactly one unit per call: fresh process, private
// scratch directory, bounded resources. It reports what happened without
// interpreting it; classification into the failure taxonomy happens in the
// artifact normalizer.
package worker

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/sakif/vizbox/internal/adapter"
)

// Artifact channel files the adapter epilogues write into the scratch
// directory. At most one exists after a run.
const (
	ArtifactPNG  = "output.png"
	ArtifactHTML = "output.html"
	ArtifactNone = "output.none"
)

// Limits is the per-worker resource envelope.
type Limits struct {
	// WallClock is the execution ceiling; the process is killed past it.
	WallClock time.Duration
	// MemoryBytes caps the worker's memory use.
	MemoryBytes int64
	// MaxArtifactBytes caps how much artifact data is read back from the
	// scratch directory. Larger artifacts are reported by size only.
	MaxArtifactBytes int64
}

// ArtifactFile is one captured artifact channel file.
type ArtifactFile struct {
	Name string // ArtifactPNG, ArtifactHTML or ArtifactNone
	Size int64
	// Data is nil when Size exceeds the collection cap.
	Data []byte
}

// RawResult reports one worker run, uninterpreted.
type RawResult struct {
	ExitCode int
	Stdout   string
	Stderr   string
	Duration time.Duration
	// TimedOut is set when the worker was killed for exceeding its wall
	// clock (or an upstream deadline). A timed-out run never carries an
	// artifact, even a partially written one.
	TimedOut bool
	// OOMKilled is set when the runtime reports a memory-ceiling kill.
	// Only the docker backend can detect this directly.
	OOMKilled bool
	Artifact  *ArtifactFile
}

// Runner executes one unit per call in a fresh isolated process.
type Runner interface {
	Run(ctx context.Context, unit adapter.Unit, limits Limits) (*RawResult, error)
}

// Stage creates a private scratch directory holding the unit's script file.
// The cleanup function removes the whole directory; callers must always
// invoke it, on every exit path.
func Stage(unit adapter.Unit) (dir string, cleanup func(), err error) {
	dir, err = os.MkdirTemp("", "vizbox-*")
	if err != nil {
		return "", nil, fmt.Errorf("creating scratch dir: %w", err)
	}
	cleanup = func() { os.RemoveAll(dir) }

	if err := os.WriteFile(filepath.Join(dir, unit.FileName), []byte(unit.Source), 0o644); err != nil {
		cleanup()
		return "", nil, fmt.Errorf("writing unit script: %w", err)
	}
	return dir, cleanup, nil
}

// CollectArtifact looks for the artifact channel files in dir, in fixed
// priority order. It returns nil when no channel file exists at all (the
// epilogue never ran). Data beyond readCap is not loaded; the normalizer
// turns a nil-Data artifact into an oversize failure.
func CollectArtifact(dir string, readCap int64) (*ArtifactFile, error) {
	for _, name := range []string{ArtifactPNG, ArtifactHTML, ArtifactNone} {
		path := filepath.Join(dir, name)
		info, err := os.Stat(path)
		if err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return nil, fmt.Errorf("stat artifact %s: %w", name, err)
		}

		art := &ArtifactFile{Name: name, Size: info.Size()}
		if name == ArtifactNone {
			// Sentinel: its content is irrelevant.
			return art, nil
		}
		if readCap > 0 && info.Size() > readCap {
			return art, nil
		}

		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading artifact %s: %w", name, err)
		}
		art.Data = data
		return art, nil
	}
	return nil, nil
}

// CappedBuffer keeps at most max bytes of what is written to it and drops
// the rest, noting the truncation. It bounds diagnostic capture from
// untrusted code. Not safe for concurrent writers; both backends write from
// a single goroutine and read only after the process is reaped.
type CappedBuffer struct {
	buf       bytes.Buffer
	max       int
	truncated bool
}

func NewCappedBuffer(max int) *CappedBuffer {
	return &CappedBuffer{max: max}
}

// Write always reports the full length as consumed so the producing pipe
// never sees a short-write error.
func (b *CappedBuffer) Write(p []byte) (int, error) {
	if room := b.max - b.buf.Len(); room > 0 {
		if len(p) > room {
			b.buf.Write(p[:room])
			b.truncated = true
		} else {
			b.buf.Write(p)
		}
	} else if len(p) > 0 {
		b.truncated = true
	}
	return len(p), nil
}

func (b *CappedBuffer) String() string {
	if b.truncated {
		return b.buf.String() + "\n... [output truncated]"
	}
	return b.buf.String()
}
