// Package artifact turns raw worker results into wire responses.
//
// Classification looks at the termination state first (timeout, OOM kill,
// exit status) and only then at the artifact channel, so a killed or
// crashed worker never produces a success even if it managed to write an
// output file before dying.
package artifact

import (
	"encoding/base64"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/gabriel-vasile/mimetype"

	"github.com/sakif/vizbox/internal/apperror"
	"github.com/sakif/vizbox/internal/model"
	"github.com/sakif/vizbox/internal/worker"
)

// diagnosticCap bounds the stderr excerpt attached to runtime errors. The
// tail is kept because both Python tracebacks and R errors put the message
// at the end.
const diagnosticCap = 4096

// memoryPatterns mark interpreter-level allocation failures. The process
// backend enforces memory with an address-space rlimit, which surfaces as
// a failed allocation inside the interpreter rather than an OS kill.
var memoryPatterns = []string{
	"memoryerror",
	"cannot allocate",
	"std::bad_alloc",
}

// tracePatterns distinguish a crash that still exited zero (Rscript does
// this for some halted scripts) from code that simply never plotted.
var tracePatterns = []string{
	"traceback (most recent call last)",
	"execution halted",
	"error in",
	"error:",
}

// Normalize converts a completed run into a response the handler can
// serialize, or an error from the classification taxonomy.
func Normalize(raw *worker.RawResult, limits worker.Limits) (*model.VizResponse, error) {
	if raw.TimedOut {
		return nil, apperror.Timeout(limits.WallClock)
	}
	if raw.OOMKilled {
		return nil, apperror.MemoryExceeded()
	}

	stderr := strings.ToLower(raw.Stderr)

	if raw.ExitCode != 0 {
		for _, p := range memoryPatterns {
			if strings.Contains(stderr, p) {
				return nil, apperror.MemoryExceeded()
			}
		}
		diag := boundedTail(raw.Stderr, diagnosticCap)
		if diag == "" {
			diag = fmt.Sprintf("Process exited with status %d", raw.ExitCode)
		}
		return nil, apperror.Runtime(diag)
	}

	art := raw.Artifact
	if art == nil || art.Name == worker.ArtifactNone {
		// Rscript can exit zero after halting; surface the error text
		// instead of pretending nothing was plotted.
		for _, p := range tracePatterns {
			if strings.Contains(stderr, p) {
				return nil, apperror.Runtime(boundedTail(raw.Stderr, diagnosticCap))
			}
		}
		return nil, apperror.NoOutput()
	}

	if art.Size == 0 {
		return nil, apperror.NoOutput()
	}
	if art.Data == nil {
		return nil, apperror.OutputTooLarge(art.Size, limits.MaxArtifactBytes)
	}

	switch art.Name {
	case worker.ArtifactPNG:
		if mtype := mimetype.Detect(art.Data); !mtype.Is("image/png") {
			return nil, apperror.Internal(fmt.Sprintf("artifact %s is not a PNG (detected %s)", art.Name, mtype))
		}
		return &model.VizResponse{
			Type:    model.ArtifactImage,
			Content: base64.StdEncoding.EncodeToString(art.Data),
		}, nil
	case worker.ArtifactHTML:
		return &model.VizResponse{
			Type:    model.ArtifactHTML,
			Content: string(art.Data),
		}, nil
	default:
		return nil, apperror.Internal(fmt.Sprintf("unexpected artifact %s", art.Name))
	}
}

func boundedTail(s string, n int) string {
	s = strings.TrimSpace(s)
	if len(s) <= n {
		return s
	}
	// Never cut inside a multi-byte rune; JSON encoding would mangle the
	// stray continuation bytes into U+FFFD.
	cut := len(s) - n
	for cut < len(s) && !utf8.RuneStart(s[cut]) {
		cut++
	}
	return "... " + s[cut:]
}
