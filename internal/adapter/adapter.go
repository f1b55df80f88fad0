// Package adapter wraps raw user code into runnable units.
//
// Each supported language gets one Adapter implementation. The adapter
// injects a preamble ahead of the user's code (forcing a non-interactive
// rendering backend and importing the plotting libraries) and an epilogue
// after it (inspecting the library's active figure state and serializing it
// to a fixed output channel in the working directory). The user never writes
// capture or export boilerplate; the epilogue owns that contract:
//
//	output.png   raster artifact (PNG bytes)
//	output.html  self-contained interactive document
//	output.none  sentinel: the code ran but produced nothing renderable
//
// Adding a language means adding one Adapter, not branching on language
// strings elsewhere.
package adapter

import (
	"github.com/sakif/vizbox/internal/model"
)

// Unit is a fully-wrapped, runnable program derived from one request.
// It is a pure data value: built by an Adapter, consumed by exactly one
// worker, discarded after execution.
type Unit struct {
	Language model.Language
	VizType  model.VizType
	// FileName is the script file the worker writes into its scratch
	// directory, e.g. "script.py".
	FileName string
	// Source is preamble + user code + capture epilogue.
	Source string
	// Argv is the command line to run, relative to the scratch directory.
	Argv []string
}

// Adapter builds Units for one language.
type Adapter interface {
	Language() model.Language
	BuildUnit(code string, vizType model.VizType) Unit
}

// Registry maps languages to their adapters.
type Registry struct {
	adapters map[model.Language]Adapter
}

func NewRegistry(adapters ...Adapter) *Registry {
	m := make(map[model.Language]Adapter, len(adapters))
	for _, a := range adapters {
		m[a.Language()] = a
	}
	return &Registry{adapters: m}
}

// ForLanguage returns the adapter registered for lang.
func (r *Registry) ForLanguage(lang model.Language) (Adapter, bool) {
	a, ok := r.adapters[lang]
	return a, ok
}

// preferredKind decides which capture path the epilogue tries first.
// Static plots render to a raster image; interactive and 3d plots render to
// an HTML document. The epilogue falls back to the other path if the
// preferred library holds no figure.
func preferredKind(vizType model.VizType) string {
	if vizType == model.VizStatic {
		return model.ArtifactImage
	}
	return model.ArtifactHTML
}
