// Package app wires the SDL window, the OpenGL device and the terrain viewer
// into the main loop.
package app

import (
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/Faultbox/terrain-viewer/internal/config"
	"github.com/Faultbox/terrain-viewer/internal/engine/gpu/opengl"
	"github.com/Faultbox/terrain-viewer/internal/engine/pipeline"
	"github.com/Faultbox/terrain-viewer/internal/engine/shader"
	"github.com/Faultbox/terrain-viewer/internal/engine/window"
	"github.com/Faultbox/terrain-viewer/internal/logger"
)

const title = "Terrain viewer"

// idleWait is how long the loop sleeps when no frame was due.
const idleWait = time.Millisecond

// App is the running viewer.
type App struct {
	cfg     *config.Config
	window  *window.Window
	viewer  *pipeline.Viewer
	watcher *shader.Watcher
}

// New opens the window, initializes OpenGL and prepares the viewer.
func New(cfg *config.Config) (*App, error) {
	a := &App{cfg: cfg}

	var err error
	a.window, err = window.New(window.Config{
		Title:      title,
		Width:      cfg.Graphics.Width,
		Height:     cfg.Graphics.Height,
		Fullscreen: cfg.Graphics.Fullscreen,
		VSync:      cfg.Graphics.VSync,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create window: %w", err)
	}

	// The device needs the context created by the window.
	dev, err := opengl.New()
	if err != nil {
		a.window.Close()
		return nil, fmt.Errorf("failed to initialize OpenGL: %w", err)
	}

	a.viewer = pipeline.NewViewer(dev, pipeline.OptionsFromConfig(cfg))

	if cfg.Shaders.Dir != "" && cfg.Shaders.Watch {
		a.watcher, err = shader.Watch(cfg.Shaders.Dir)
		if err != nil {
			logger.Named("app").Warn("shader hot reload disabled",
				zap.String("dir", cfg.Shaders.Dir), zap.Error(err))
		}
	}

	return a, nil
}

// Run drives the viewer until a quit is requested.
func (a *App) Run() error {
	log := logger.Named("app")

	w, h := a.window.DrawableSize()
	if err := a.viewer.OnReady(w, h); err != nil {
		return fmt.Errorf("failed to set up the viewer: %w", err)
	}
	defer a.viewer.OnTeardown()

	frames := 0
	fpsTimer := time.Now()

	log.Info("starting main loop")
	for !a.viewer.QuitRequested() {
		for _, ev := range a.window.PollEvents() {
			a.viewer.OnInput(ev)
		}
		if a.viewer.QuitRequested() {
			break
		}

		a.reloadChangedShaders()

		if a.viewer.Pump(time.Now()) {
			a.window.SwapBuffers()
			frames++
		} else {
			time.Sleep(idleWait)
		}

		if time.Since(fpsTimer) >= time.Second {
			a.window.SetTitle(fmt.Sprintf("%s - %d fps", title, frames))
			log.Debug("fps", zap.Int("count", frames))
			frames = 0
			fpsTimer = time.Now()
		}
	}
	return nil
}

func (a *App) reloadChangedShaders() {
	if a.watcher == nil {
		return
	}
	for {
		select {
		case name := <-a.watcher.Changes():
			if err := a.viewer.ReloadShaderFile(name); err != nil {
				logger.Named("app").Error("shader reload failed", zap.String("file", name), zap.Error(err))
			} else {
				logger.Named("app").Info("shader reloaded", zap.String("file", name))
			}
		default:
			return
		}
	}
}

// Close stops the watcher and destroys the window.
func (a *App) Close() {
	logger.Named("app").Info("closing")
	if a.watcher != nil {
		if err := a.watcher.Close(); err != nil {
			logger.Named("app").Warn("closing shader watcher", zap.Error(err))
		}
	}
	if a.window != nil {
		a.window.Close()
	}
}
