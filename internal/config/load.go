package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"gopkg.in/yaml.v3"
)

// Load loads configuration with priority: defaults < file < flags.
func Load() (*Config, error) {
	cfg := Default()

	configPath := ConfigPath()
	if configPath == "" {
		configPath = findConfigFile()
	}

	if configPath != "" {
		if err := loadFromFile(cfg, configPath); err != nil {
			return nil, fmt.Errorf("loading config from %s: %w", configPath, err)
		}
	}

	applyFlags(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects settings the renderer cannot work with.
func (c *Config) Validate() error {
	if c.Graphics.Width <= 0 || c.Graphics.Height <= 0 {
		return fmt.Errorf("invalid window size %dx%d", c.Graphics.Width, c.Graphics.Height)
	}
	if c.Terrain.GridSize < 2 {
		return fmt.Errorf("terrain grid size must be at least 2, got %d", c.Terrain.GridSize)
	}
	switch c.Noise.Source {
	case NoiseSourceGPU, NoiseSourceCPU, NoiseSourceFlat:
	default:
		return fmt.Errorf("unknown noise source %q", c.Noise.Source)
	}
	if c.Noise.Octaves < 1 {
		return fmt.Errorf("noise octaves must be positive, got %d", c.Noise.Octaves)
	}
	if c.Timer.Interval <= 0 {
		return fmt.Errorf("timer interval must be positive, got %v", c.Timer.Interval)
	}
	if c.Shaders.Watch && c.Shaders.Dir == "" {
		return fmt.Errorf("shader watching requires shaders.dir")
	}
	return nil
}

// findConfigFile looks for config in standard locations.
func findConfigFile() string {
	candidates := []string{
		"./terrain.yaml",
		filepath.Join(ConfigDir(), "terrain.yaml"),
	}

	for _, path := range candidates {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}

// ConfigDir returns the OS-appropriate config directory.
func ConfigDir() string {
	switch runtime.GOOS {
	case "darwin":
		home, _ := os.UserHomeDir()
		return filepath.Join(home, "Library", "Application Support", "TerrainViewer")
	case "windows":
		return filepath.Join(os.Getenv("APPDATA"), "TerrainViewer")
	default:
		if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
			return filepath.Join(xdg, "terrain-viewer")
		}
		home, _ := os.UserHomeDir()
		return filepath.Join(home, ".config", "terrain-viewer")
	}
}

// loadFromFile loads config from a YAML file, merging with existing values.
func loadFromFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return yaml.Unmarshal(data, cfg)
}
