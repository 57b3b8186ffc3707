package pipeline

import (
	"io/fs"
	"os"

	"github.com/Faultbox/terrain-viewer/internal/config"
	"github.com/Faultbox/terrain-viewer/internal/engine/terrain"
)

// OptionsFromConfig maps the application configuration onto viewer options.
// A configured shader directory replaces the embedded sources.
func OptionsFromConfig(cfg *config.Config) Options {
	var sources fs.FS
	if cfg.Shaders.Dir != "" {
		sources = os.DirFS(cfg.Shaders.Dir)
	}
	return Options{
		GridSize:   cfg.Terrain.GridSize,
		AlbedoPath: cfg.Terrain.Albedo,
		Source:     HeightSource(cfg.Noise.Source),
		Noise: terrain.NoiseParams{
			Seed:        cfg.Noise.Seed,
			Octaves:     cfg.Noise.Octaves,
			Frequency:   cfg.Noise.Frequency,
			Persistence: cfg.Noise.Persistence,
			Amplitude:   cfg.Noise.Amplitude,
		},
		TimeStep: cfg.Noise.TimeStep,
		Interval: cfg.Timer.Interval,
		Animate:  cfg.Timer.Running,
		Shaders:  sources,

		ScreenshotDir:    cfg.Capture.Dir,
		ScreenshotPrefix: cfg.Capture.Prefix,
	}
}
