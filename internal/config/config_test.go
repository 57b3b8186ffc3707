package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	if cfg.Graphics.Width != 800 || cfg.Graphics.Height != 600 {
		t.Errorf("expected 800x600, got %dx%d", cfg.Graphics.Width, cfg.Graphics.Height)
	}
	if cfg.Terrain.GridSize != 512 {
		t.Errorf("expected grid size 512, got %d", cfg.Terrain.GridSize)
	}
	if cfg.Noise.Source != NoiseSourceGPU {
		t.Errorf("expected gpu noise source, got %s", cfg.Noise.Source)
	}
	if cfg.Timer.Interval != 10*time.Millisecond {
		t.Errorf("expected 10ms timer, got %v", cfg.Timer.Interval)
	}
	if !cfg.Timer.Running {
		t.Error("expected timer to run by default")
	}
	if cfg.Shaders.Dir != "" || cfg.Shaders.Watch {
		t.Error("expected embedded shaders by default")
	}
	if cfg.Logging.Level != "info" {
		t.Errorf("expected log level 'info', got %s", cfg.Logging.Level)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config should validate: %v", err)
	}
}

func TestLoadFromFile(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "terrain.yaml")

	yamlContent := `
graphics:
  width: 1024
  height: 768
terrain:
  grid_size: 256
  albedo: "rock.png"
noise:
  source: cpu
  seed: 42
  octaves: 3
  time_step: 0.01
shaders:
  dir: ./shaders
  watch: true
timer:
  interval: 16ms
  running: false
logging:
  level: debug
  log_file: terrain.log
`
	if err := os.WriteFile(configPath, []byte(yamlContent), 0644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	cfg := Default()
	if err := loadFromFile(cfg, configPath); err != nil {
		t.Fatalf("failed to load config: %v", err)
	}

	if cfg.Graphics.Width != 1024 || cfg.Graphics.Height != 768 {
		t.Errorf("expected 1024x768, got %dx%d", cfg.Graphics.Width, cfg.Graphics.Height)
	}
	if cfg.Terrain.GridSize != 256 || cfg.Terrain.Albedo != "rock.png" {
		t.Errorf("unexpected terrain config %+v", cfg.Terrain)
	}
	if cfg.Noise.Source != NoiseSourceCPU || cfg.Noise.Seed != 42 || cfg.Noise.Octaves != 3 {
		t.Errorf("unexpected noise config %+v", cfg.Noise)
	}
	// Unset fields keep their defaults.
	if cfg.Noise.Frequency != 4.0 {
		t.Errorf("expected default frequency to survive, got %f", cfg.Noise.Frequency)
	}
	if cfg.Timer.Interval != 16*time.Millisecond || cfg.Timer.Running {
		t.Errorf("unexpected timer config %+v", cfg.Timer)
	}
	if cfg.Shaders.Dir != "./shaders" || !cfg.Shaders.Watch {
		t.Errorf("unexpected shader config %+v", cfg.Shaders)
	}
	if cfg.Logging.LogFile != "terrain.log" {
		t.Errorf("expected log file 'terrain.log', got %s", cfg.Logging.LogFile)
	}
}

func TestLoadFromFileInvalid(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "invalid.yaml")
	invalidYAML := `
graphics:
  width: not a number
  invalid syntax here
`
	if err := os.WriteFile(configPath, []byte(invalidYAML), 0644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	if err := loadFromFile(Default(), configPath); err == nil {
		t.Error("expected error loading invalid YAML, got nil")
	}
}

func TestLoadFromFileMissing(t *testing.T) {
	if err := loadFromFile(Default(), "/nonexistent/path/terrain.yaml"); err == nil {
		t.Error("expected error loading missing file, got nil")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"zero width", func(c *Config) { c.Graphics.Width = 0 }},
		{"tiny grid", func(c *Config) { c.Terrain.GridSize = 1 }},
		{"unknown noise", func(c *Config) { c.Noise.Source = "simplex" }},
		{"no octaves", func(c *Config) { c.Noise.Octaves = 0 }},
		{"no interval", func(c *Config) { c.Timer.Interval = 0 }},
		{"watch without dir", func(c *Config) { c.Shaders.Watch = true }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			if err := cfg.Validate(); err == nil {
				t.Error("expected validation error")
			}
		})
	}
}

func TestApplyFlags(t *testing.T) {
	tests := []struct {
		name     string
		setup    func()
		verify   func(*testing.T, *Config)
		teardown func()
	}{
		{
			name:  "debug flag",
			setup: func() { *flagDebug = true },
			verify: func(t *testing.T, cfg *Config) {
				if cfg.Logging.Level != "debug" {
					t.Errorf("expected log level 'debug', got %s", cfg.Logging.Level)
				}
			},
			teardown: func() { *flagDebug = false },
		},
		{
			name:  "fullscreen flag",
			setup: func() { *flagFullscreen = true },
			verify: func(t *testing.T, cfg *Config) {
				if !cfg.Graphics.Fullscreen {
					t.Error("expected fullscreen to be true with fullscreen flag")
				}
			},
			teardown: func() { *flagFullscreen = false },
		},
		{
			name: "grid and seed flags",
			setup: func() {
				*flagGrid = 128
				*flagSeed = 99
			},
			verify: func(t *testing.T, cfg *Config) {
				if cfg.Terrain.GridSize != 128 {
					t.Errorf("expected grid 128, got %d", cfg.Terrain.GridSize)
				}
				if cfg.Noise.Seed != 99 {
					t.Errorf("expected seed 99, got %d", cfg.Noise.Seed)
				}
			},
			teardown: func() {
				*flagGrid = 0
				*flagSeed = 0
			},
		},
		{
			name:  "noise flag",
			setup: func() { *flagNoise = NoiseSourceFlat },
			verify: func(t *testing.T, cfg *Config) {
				if cfg.Noise.Source != NoiseSourceFlat {
					t.Errorf("expected flat noise, got %s", cfg.Noise.Source)
				}
			},
			teardown: func() { *flagNoise = "" },
		},
		{
			name:  "shaders flag enables watching",
			setup: func() { *flagShaders = "/tmp/shaders" },
			verify: func(t *testing.T, cfg *Config) {
				if cfg.Shaders.Dir != "/tmp/shaders" || !cfg.Shaders.Watch {
					t.Errorf("unexpected shader config %+v", cfg.Shaders)
				}
			},
			teardown: func() { *flagShaders = "" },
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.setup()
			defer tt.teardown()

			cfg := Default()
			applyFlags(cfg)
			tt.verify(t, cfg)
		})
	}
}

func TestLoadPriority(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "terrain.yaml")
	yamlContent := `
graphics:
  width: 1600
  height: 900
`
	if err := os.WriteFile(configPath, []byte(yamlContent), 0644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	*flagConfig = configPath
	*flagWidth = 1920
	defer func() {
		*flagConfig = ""
		*flagWidth = 0
	}()

	cfg, err := Load()
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}
	if cfg.Graphics.Width != 1920 {
		t.Errorf("expected width 1920 from flag, got %d", cfg.Graphics.Width)
	}
	if cfg.Graphics.Height != 900 {
		t.Errorf("expected height 900 from file, got %d", cfg.Graphics.Height)
	}
}

func TestSaveToRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "terrain.yaml")

	cfg := Default()
	cfg.Noise.Seed = 7
	cfg.Timer.Interval = 25 * time.Millisecond
	if err := cfg.SaveTo(path); err != nil {
		t.Fatalf("SaveTo: %v", err)
	}

	loaded := Default()
	if err := loadFromFile(loaded, path); err != nil {
		t.Fatalf("loading saved config: %v", err)
	}
	if loaded.Noise.Seed != 7 || loaded.Timer.Interval != 25*time.Millisecond {
		t.Errorf("saved values not restored: %+v %+v", loaded.Noise, loaded.Timer)
	}
}
