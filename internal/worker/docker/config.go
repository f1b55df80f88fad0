package docker

// Config holds the configuration for the Docker worker backend.
type Config struct {
	// Image is the runtime image. It must carry both interpreters and
	// their plotting libraries (matplotlib, plotly, ggplot2, htmlwidgets,
	// plus pandoc for self-contained widget export).
	Image string
	// Workdir is where the per-request scratch directory is mounted
	// inside the container.
	Workdir string
}

// DefaultConfig provides defaults matching config.example.yaml.
func DefaultConfig() Config {
	return Config{
		Image:   "ghcr.io/sakif/vizbox-runtime:latest",
		Workdir: "/workspace",
	}
}
