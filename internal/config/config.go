// Package config handles viewer configuration loading and management.
package config

import "time"

// Noise sources accepted by NoiseConfig.Source.
const (
	NoiseSourceGPU  = "gpu"
	NoiseSourceCPU  = "cpu"
	NoiseSourceFlat = "flat"
)

// Config holds all viewer settings.
type Config struct {
	Graphics GraphicsConfig `yaml:"graphics"`
	Terrain  TerrainConfig  `yaml:"terrain"`
	Noise    NoiseConfig    `yaml:"noise"`
	Shaders  ShaderConfig   `yaml:"shaders"`
	Timer    TimerConfig    `yaml:"timer"`
	Capture  CaptureConfig  `yaml:"capture"`
	Logging  LoggingConfig  `yaml:"logging"`
}

// GraphicsConfig holds display settings.
type GraphicsConfig struct {
	Width      int  `yaml:"width"`
	Height     int  `yaml:"height"`
	Fullscreen bool `yaml:"fullscreen"`
	VSync      bool `yaml:"vsync"`
}

// TerrainConfig holds the grid resolution and the albedo image.
type TerrainConfig struct {
	GridSize int    `yaml:"grid_size"` // vertices per grid side, also the computed map resolution
	Albedo   string `yaml:"albedo"`    // image file; empty or missing falls back to a generated texture
}

// NoiseConfig holds height field generation parameters.
type NoiseConfig struct {
	Source      string  `yaml:"source"` // gpu, cpu or flat
	Seed        int64   `yaml:"seed"`
	Octaves     int     `yaml:"octaves"`
	Frequency   float32 `yaml:"frequency"`
	Persistence float32 `yaml:"persistence"`
	Amplitude   float32 `yaml:"amplitude"`
	TimeStep    float32 `yaml:"time_step"` // added to the noise time on every timer tick
}

// ShaderConfig controls where GLSL sources come from.
type ShaderConfig struct {
	Dir   string `yaml:"dir"`   // empty uses the embedded sources
	Watch bool   `yaml:"watch"` // reload programs when files in Dir change
}

// TimerConfig controls the periodic redraw timer.
type TimerConfig struct {
	Interval time.Duration `yaml:"interval"`
	Running  bool          `yaml:"running"`
}

// CaptureConfig controls screenshot output.
type CaptureConfig struct {
	Dir    string `yaml:"dir"`
	Prefix string `yaml:"prefix"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level   string `yaml:"level"`
	LogFile string `yaml:"log_file"`
}

// Default returns a Config with sensible default values.
func Default() *Config {
	return &Config{
		Graphics: GraphicsConfig{
			Width:  800,
			Height: 600,
			VSync:  true,
		},
		Terrain: TerrainConfig{
			GridSize: 512,
			Albedo:   "textures/texture-mountain.jpg",
		},
		Noise: NoiseConfig{
			Source:      NoiseSourceGPU,
			Seed:        1,
			Octaves:     6,
			Frequency:   4.0,
			Persistence: 0.5,
			Amplitude:   1.0,
		},
		Timer: TimerConfig{
			Interval: 10 * time.Millisecond,
			Running:  true,
		},
		Capture: CaptureConfig{
			Dir:    "screenshots",
			Prefix: "terrain",
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}
