package config

import "flag"

var (
	flagConfig     = flag.String("config", "", "Path to config file")
	flagDumpConfig = flag.String("dump-config", "", "Write the effective config to this path and exit")
	flagDebug      = flag.Bool("debug", false, "Enable debug logging")
	flagWindowed   = flag.Bool("windowed", false, "Run in windowed mode")
	flagFullscreen = flag.Bool("fullscreen", false, "Run in fullscreen mode")
	flagWidth      = flag.Int("width", 0, "Window width")
	flagHeight     = flag.Int("height", 0, "Window height")
	flagGrid       = flag.Int("grid", 0, "Terrain grid size")
	flagSeed       = flag.Int64("seed", 0, "Noise seed")
	flagNoise      = flag.String("noise", "", "Noise source: gpu, cpu or flat")
	flagShaders    = flag.String("shaders", "", "Load shaders from this directory and watch it")
)

// ParseFlags parses command-line flags. Call this early in main().
func ParseFlags() {
	flag.Parse()
}

// ConfigPath returns the explicit config path if provided via --config flag.
func ConfigPath() string {
	return *flagConfig
}

// DumpPath returns the --dump-config target, if any.
func DumpPath() string {
	return *flagDumpConfig
}

// applyFlags applies CLI flag overrides to the config.
func applyFlags(cfg *Config) {
	if *flagDebug {
		cfg.Logging.Level = "debug"
	}
	if *flagWindowed {
		cfg.Graphics.Fullscreen = false
	}
	if *flagFullscreen {
		cfg.Graphics.Fullscreen = true
	}
	if *flagWidth > 0 {
		cfg.Graphics.Width = *flagWidth
	}
	if *flagHeight > 0 {
		cfg.Graphics.Height = *flagHeight
	}
	if *flagGrid > 0 {
		cfg.Terrain.GridSize = *flagGrid
	}
	if *flagSeed != 0 {
		cfg.Noise.Seed = *flagSeed
	}
	if *flagNoise != "" {
		cfg.Noise.Source = *flagNoise
	}
	if *flagShaders != "" {
		cfg.Shaders.Dir = *flagShaders
		cfg.Shaders.Watch = true
	}
}
