package adapter

import (
	_ "embed"
	"fmt"
	"strings"

	"github.com/sakif/vizbox/internal/model"
)

// The preamble suppresses the default PDF device (so no Rplots.pdf litters
// the scratch dir) and attaches ggplot2/plotly/htmlwidgets. The epilogue
// looks for a plot under the conventional name `p`, falling back to
// ggplot2::last_plot() or any htmlwidget in the global environment, and
// saves it with ggsave or saveWidget(selfcontained = TRUE).

//go:embed assets/preamble.R
var rPreamble string

//go:embed assets/epilogue.R
var rEpilogue string

// R adapts R snippets built on ggplot2 or plotly/htmlwidgets.
type R struct {
	bin string
}

// NewR returns an R adapter running scripts with the given Rscript binary.
func NewR(bin string) *R {
	return &R{bin: bin}
}

func (a *R) Language() model.Language {
	return model.LanguageR
}

func (a *R) BuildUnit(code string, vizType model.VizType) Unit {
	var b strings.Builder
	b.WriteString(rPreamble)
	b.WriteString("\n")
	b.WriteString(code)
	fmt.Fprintf(&b, "\n\n.vizbox_prefer <- %q\n\n", preferredKind(vizType))
	b.WriteString(rEpilogue)

	return Unit{
		Language: model.LanguageR,
		VizType:  vizType,
		FileName: "script.R",
		Source:   b.String(),
		// --vanilla keeps site/user profiles and saved workspaces out of
		// the sandbox.
		Argv: []string{a.bin, "--vanilla", "script.R"},
	}
}
