package adapter

import (
	_ "embed"
	"fmt"
	"strings"

	"github.com/sakif/vizbox/internal/model"
)

// The preamble forces the Agg backend before pyplot is imported (so figures
// render off-screen) and imports the plotting stack under its conventional
// aliases. The epilogue saves the current matplotlib figure to output.png,
// or a plotly figure bound to `fig` to output.html, whichever the requested
// viz type prefers.

//go:embed assets/preamble.py
var pythonPreamble string

//go:embed assets/epilogue.py
var pythonEpilogue string

// Python adapts Python snippets built on matplotlib or plotly.
type Python struct {
	bin string
}

// NewPython returns a Python adapter running scripts with the given
// interpreter binary (typically "python3").
func NewPython(bin string) *Python {
	return &Python{bin: bin}
}

func (a *Python) Language() model.Language {
	return model.LanguagePython
}

func (a *Python) BuildUnit(code string, vizType model.VizType) Unit {
	var b strings.Builder
	b.WriteString(pythonPreamble)
	b.WriteString("\n")
	b.WriteString(code)
	// The preference marker sits between user code and epilogue so user
	// code cannot shadow it.
	fmt.Fprintf(&b, "\n\n_VIZBOX_PREFER = %q\n\n", preferredKind(vizType))
	b.WriteString(pythonEpilogue)

	return Unit{
		Language: model.LanguagePython,
		VizType:  vizType,
		FileName: "script.py",
		Source:   b.String(),
		Argv:     []string{a.bin, "script.py"},
	}
}
