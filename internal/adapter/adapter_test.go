package adapter_test

import (
	"strings"
	"testing"

	"github.com/sakif/vizbox/internal/adapter"
	"github.com/sakif/vizbox/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistry(t *testing.T) {
	reg := adapter.NewRegistry(adapter.NewPython("python3"), adapter.NewR("Rscript"))

	py, ok := reg.ForLanguage(model.LanguagePython)
	require.True(t, ok)
	assert.Equal(t, model.LanguagePython, py.Language())

	r, ok := reg.ForLanguage(model.LanguageR)
	require.True(t, ok)
	assert.Equal(t, model.LanguageR, r.Language())

	_, ok = reg.ForLanguage(model.Language("java"))
	assert.False(t, ok)
}

func TestPythonBuildUnit(t *testing.T) {
	a := adapter.NewPython("python3")
	userCode := "plt.plot([1, 2, 3])"

	t.Run("wraps user code between preamble and epilogue", func(t *testing.T) {
		unit := a.BuildUnit(userCode, model.VizStatic)

		assert.Equal(t, "script.py", unit.FileName)
		assert.Equal(t, []string{"python3", "script.py"}, unit.Argv)

		// The backend must be forced before user code runs, and the
		// capture epilogue must run after it.
		backendIdx := strings.Index(unit.Source, `matplotlib.use("Agg"`)
		codeIdx := strings.Index(unit.Source, userCode)
		epilogueIdx := strings.Index(unit.Source, "output.none")
		require.GreaterOrEqual(t, backendIdx, 0)
		require.Greater(t, codeIdx, backendIdx)
		require.Greater(t, epilogueIdx, codeIdx)
	})

	t.Run("static prefers the image channel", func(t *testing.T) {
		unit := a.BuildUnit(userCode, model.VizStatic)
		assert.Contains(t, unit.Source, `_VIZBOX_PREFER = "image"`)
	})

	t.Run("interactive and 3d prefer the html channel", func(t *testing.T) {
		for _, viz := range []model.VizType{model.VizInteractive, model.Viz3D} {
			unit := a.BuildUnit(userCode, viz)
			assert.Contains(t, unit.Source, `_VIZBOX_PREFER = "html"`, "viz type %s", viz)
		}
	})

	t.Run("preference marker follows user code", func(t *testing.T) {
		// A snippet that assigns _VIZBOX_PREFER itself must not override
		// the adapter's choice.
		unit := a.BuildUnit(`_VIZBOX_PREFER = "html"`, model.VizStatic)
		last := strings.LastIndex(unit.Source, `_VIZBOX_PREFER = "image"`)
		user := strings.Index(unit.Source, `_VIZBOX_PREFER = "html"`)
		assert.Greater(t, last, user)
	})
}

func TestRBuildUnit(t *testing.T) {
	a := adapter.NewR("Rscript")
	userCode := "p <- ggplot(df, aes(x, y)) + geom_point()"

	unit := a.BuildUnit(userCode, model.VizInteractive)

	assert.Equal(t, "script.R", unit.FileName)
	assert.Equal(t, []string{"Rscript", "--vanilla", "script.R"}, unit.Argv)
	assert.Equal(t, model.LanguageR, unit.Language)

	// Device suppression before user code, capture after it.
	deviceIdx := strings.Index(unit.Source, "pdf(NULL)")
	codeIdx := strings.Index(unit.Source, userCode)
	saveIdx := strings.Index(unit.Source, "saveWidget")
	require.GreaterOrEqual(t, deviceIdx, 0)
	require.Greater(t, codeIdx, deviceIdx)
	require.Greater(t, saveIdx, codeIdx)

	assert.Contains(t, unit.Source, `.vizbox_prefer <- "html"`)

	static := a.BuildUnit(userCode, model.VizStatic)
	assert.Contains(t, static.Source, `.vizbox_prefer <- "image"`)
	assert.Contains(t, static.Source, "ggsave")
}

func TestUnitsCarryRequestMetadata(t *testing.T) {
	reg := adapter.NewRegistry(adapter.NewPython("python3"), adapter.NewR("Rscript"))

	for _, lang := range []model.Language{model.LanguagePython, model.LanguageR} {
		a, ok := reg.ForLanguage(lang)
		require.True(t, ok)
		unit := a.BuildUnit("x <- 1", model.Viz3D)
		assert.Equal(t, lang, unit.Language)
		assert.Equal(t, model.Viz3D, unit.VizType)
		assert.NotEmpty(t, unit.Source)
	}
}
