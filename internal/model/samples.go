package model

// Sample is a ready-to-run snippet served by GET /api/examples so the editor
// can offer working starting points. Samples rely on the adapter's capture
// epilogue: they build a plot but never export it themselves.
type Sample struct {
	Name     string   `json:"name"`
	Language Language `json:"language"`
	VizType  VizType  `json:"viz_type"`
	Code     string   `json:"code"`
}

var samples = []Sample{
	{
		Name:     "Static sine wave",
		Language: LanguagePython,
		VizType:  VizStatic,
		Code: `import matplotlib.pyplot as plt
import numpy as np

x = np.linspace(0, 10, 100)
y = np.sin(x)

plt.figure(figsize=(10, 6))
plt.plot(x, y, 'b-', label='sin(x)')
plt.title('Static Sine Wave')
plt.xlabel('x')
plt.ylabel('sin(x)')
plt.grid(True)
plt.legend()`,
	},
	{
		Name:     "Interactive sine wave",
		Language: LanguagePython,
		VizType:  VizInteractive,
		Code: `import plotly.graph_objects as go
import numpy as np

x = np.linspace(0, 10, 100)
y = np.sin(x)

fig = go.Figure()
fig.add_trace(go.Scatter(
    x=x,
    y=y,
    mode='lines',
    name='sin(x)',
    line=dict(color='blue', width=2)
))

fig.update_layout(
    title='Interactive Sine Wave',
    xaxis_title='x',
    yaxis_title='sin(x)',
    template='plotly_white'
)`,
	},
	{
		Name:     "3D surface",
		Language: LanguagePython,
		VizType:  Viz3D,
		Code: `import plotly.graph_objects as go
import numpy as np

x = np.linspace(-5, 5, 50)
y = np.linspace(-5, 5, 50)
X, Y = np.meshgrid(x, y)
Z = np.sin(np.sqrt(X**2 + Y**2))

fig = go.Figure(data=[go.Surface(x=X, y=Y, z=Z)])

fig.update_layout(
    title='3D Surface Plot',
    scene=dict(
        xaxis_title='X',
        yaxis_title='Y',
        zaxis_title='Z'
    ),
    width=800,
    height=800
)`,
	},
	{
		Name:     "Static scatter with trend",
		Language: LanguageR,
		VizType:  VizStatic,
		Code: `library(ggplot2)

set.seed(42)
df <- data.frame(x = 1:100, y = cumsum(rnorm(100)))

p <- ggplot(df, aes(x = x, y = y)) +
  geom_point(color = "steelblue", alpha = 0.6) +
  geom_smooth(method = "loess", color = "darkred") +
  labs(title = "Random Walk", x = "Step", y = "Value") +
  theme_minimal()`,
	},
	{
		Name:     "Interactive line-scatter",
		Language: LanguageR,
		VizType:  VizInteractive,
		Code: `library(plotly)

x <- seq(0, 10, length.out = 100)
y <- sin(x)

p <- plot_ly(x = x, y = y, type = "scatter", mode = "lines+markers",
             line = list(color = "blue", width = 2)) %>%
  layout(title = "Interactive Sine Wave",
         xaxis = list(title = "x"),
         yaxis = list(title = "sin(x)"))`,
	},
	{
		Name:     "3D surface",
		Language: LanguageR,
		VizType:  Viz3D,
		Code: `library(plotly)

x <- seq(-5, 5, length.out = 50)
y <- seq(-5, 5, length.out = 50)
z <- outer(x, y, function(a, b) sin(sqrt(a^2 + b^2)))

p <- plot_ly(x = x, y = y, z = z, type = "surface") %>%
  layout(title = "3D Surface Plot")`,
	},
}

// Samples returns the full sample catalog.
func Samples() []Sample {
	out := make([]Sample, len(samples))
	copy(out, samples)
	return out
}

// SamplesFor returns the samples for one language.
func SamplesFor(lang Language) []Sample {
	var out []Sample
	for _, s := range samples {
		if s.Language == lang {
			out = append(out, s)
		}
	}
	return out
}
