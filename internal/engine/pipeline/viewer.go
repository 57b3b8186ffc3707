package pipeline

import (
	"fmt"
	"io/fs"
	"time"

	"github.com/go-gl/mathgl/mgl32"
	"go.uber.org/zap"

	"github.com/Faultbox/terrain-viewer/internal/engine/camera"
	"github.com/Faultbox/terrain-viewer/internal/engine/debug"
	"github.com/Faultbox/terrain-viewer/internal/engine/gpu"
	"github.com/Faultbox/terrain-viewer/internal/engine/input"
	"github.com/Faultbox/terrain-viewer/internal/engine/pipeline/shaders"
	"github.com/Faultbox/terrain-viewer/internal/engine/shader"
	"github.com/Faultbox/terrain-viewer/internal/engine/terrain"
	"github.com/Faultbox/terrain-viewer/internal/logger"
)

// RenderSurface is what a window host drives: surface lifecycle callbacks
// and input delivery, all on the thread owning the GPU context.
type RenderSurface interface {
	OnReady(width, height int) error
	OnResize(width, height int)
	OnTeardown()
	OnInput(ev input.Event)
}

// HeightSource selects how the height map is produced.
type HeightSource string

const (
	HeightGPU  HeightSource = "gpu"
	HeightCPU  HeightSource = "cpu"
	HeightFlat HeightSource = "flat"
)

// Options configures a Viewer.
type Options struct {
	GridSize   int
	AlbedoPath string

	Source   HeightSource
	Noise    terrain.NoiseParams
	TimeStep float32

	Interval time.Duration
	Animate  bool

	// Shaders holds the GLSL sources; nil uses the embedded set.
	Shaders fs.FS

	ScreenshotDir    string
	ScreenshotPrefix string
}

// Viewer is the terrain renderer behind a RenderSurface.
type Viewer struct {
	dev  gpu.Device
	opts Options

	state  *RenderState
	camera *camera.Trackball
	res    *Resources
	loader *shader.Loader
	orch   *Orchestrator
	shots  *debug.Screenshots

	ready      bool
	quit       bool
	screenshot bool
}

var _ RenderSurface = (*Viewer)(nil)

// NewViewer returns a viewer issuing GPU commands to dev. Nothing touches
// the GPU before OnReady.
func NewViewer(dev gpu.Device, opts Options) *Viewer {
	if opts.Shaders == nil {
		opts.Shaders = shaders.FS
	}
	if opts.Source == "" {
		opts.Source = HeightGPU
	}
	if opts.ScreenshotPrefix == "" {
		opts.ScreenshotPrefix = "terrain"
	}
	return &Viewer{
		dev:    dev,
		opts:   opts,
		state:  NewRenderState(1, 1),
		camera: camera.NewTrackball(1, 1),
		res:    NewResources(dev, opts.GridSize, opts.AlbedoPath),
		shots:  debug.NewScreenshots(opts.ScreenshotDir, opts.ScreenshotPrefix),
	}
}

// OnReady creates every GPU object, compiles the programs and starts the
// animation timer.
func (v *Viewer) OnReady(width, height int) error {
	if v.ready {
		return nil
	}
	v.state.Width, v.state.Height = width, height
	v.camera.Initialize(width, height, true)

	v.loader = shader.NewLoader(v.dev, v.opts.Shaders)
	stages := v.buildStages()

	graph, err := NewGraph(stages...)
	if err != nil {
		v.loader.Close()
		return fmt.Errorf("pipeline: %w", err)
	}

	v.res.Setup(width, height)

	frame := Frame{Dev: v.dev, Res: v.res, State: v.state, Camera: v.camera}
	v.orch = NewOrchestrator(graph, frame, v.opts.Interval, v.opts.TimeStep)
	if v.opts.Animate {
		v.orch.Timer().Start()
	}
	v.ready = true
	v.orch.RequestRedraw()

	logger.Named("viewer").Info("viewer ready",
		zap.String("source", string(v.opts.Source)),
		zap.Strings("stages", graph.Names()))
	v.LogHelp()
	return nil
}

func (v *Viewer) buildStages() []Stage {
	l := v.loader
	var height Stage
	switch v.opts.Source {
	case HeightCPU:
		height = &heightUploadStage{params: v.opts.Noise}
	case HeightFlat:
		height = &heightUploadStage{params: v.opts.Noise, flat: true}
	default:
		height = &noiseStage{prog: l.Load("noise", shaders.NoiseVert, shaders.NoiseFrag), params: v.opts.Noise}
	}

	return []Stage{
		height,
		&normalStage{prog: l.Load("normal", shaders.NormalVert, shaders.NormalFrag)},
		&sceneStage{prog: l.Load("grid", shaders.GridVert, shaders.GridFrag)},
		&postProcessStage{prog: l.Load("postprocess", shaders.PostProcessVert, shaders.PostProcessFrag)},
		newNoiseDebug(l.Load("debugNoise", shaders.DebugNoiseVert, shaders.DebugNoiseFrag)),
		newNormalDebug(l.Load("debugNormal", shaders.DebugNormalVert, shaders.DebugNormalFrag)),
	}
}

// OnResize follows a surface size change and requests a redraw.
func (v *Viewer) OnResize(width, height int) {
	v.state.Width, v.state.Height = width, height
	v.camera.Initialize(width, height, false)
	v.res.Resize(width, height)
	if v.orch != nil {
		v.orch.RequestRedraw()
	}
}

// OnTeardown releases every GPU object in reverse creation order. Safe to
// call more than once.
func (v *Viewer) OnTeardown() {
	if !v.ready {
		return
	}
	v.res.Teardown()
	v.loader.Close()
	v.orch.Timer().Stop()
	v.ready = false
	logger.Named("viewer").Info("viewer torn down", zap.Uint64("frames", v.orch.Stats().Frames))
}

// OnInput applies a pointer or key event.
func (v *Viewer) OnInput(ev input.Event) {
	switch ev.Type {
	case input.EventQuit:
		v.quit = true
	case input.EventResize:
		v.OnResize(ev.Width, ev.Height)
	case input.EventPointerPress:
		v.pointerPress(ev)
	case input.EventPointerMove:
		v.pointerMove(ev)
	case input.EventPointerRelease:
		v.state.Dragging = false
		v.camera.Release()
	case input.EventKeyDown:
		v.keyDown(ev.Key)
	}
}

// pointer converts a host position to the camera's bottom-left origin.
func (v *Viewer) pointer(ev input.Event) mgl32.Vec2 {
	return mgl32.Vec2{float32(ev.X), float32(v.state.Height - ev.Y)}
}

func (v *Viewer) pointerPress(ev input.Event) {
	switch ev.Button {
	case input.ButtonLeft:
		v.camera.InitRotation(v.pointer(ev))
		v.state.Drag = DragCamera
	case input.ButtonMiddle:
		v.camera.InitMoveZ(v.pointer(ev))
		v.state.Drag = DragCamera
	case input.ButtonRight:
		v.state.SetLightFromPointer(ev.X, ev.Y)
		v.state.Drag = DragLight
	default:
		return
	}
	v.state.Dragging = true
	v.requestRedraw()
}

func (v *Viewer) pointerMove(ev input.Event) {
	if !v.state.Dragging {
		return
	}
	if v.state.Drag == DragLight {
		v.state.SetLightFromPointer(ev.X, ev.Y)
	} else {
		v.camera.Move(v.pointer(ev))
	}
	v.requestRedraw()
}

func (v *Viewer) keyDown(k input.Key) {
	log := logger.Named("viewer")
	switch k {
	case input.KeyToggleAnimation:
		if v.orch != nil {
			log.Info("animation", zap.Bool("running", v.orch.Timer().Toggle()))
		}
	case input.KeyReloadShaders:
		if err := v.ReloadShaders(); err != nil {
			log.Error("shader reload failed", zap.Error(err))
		}
	case input.KeyNoiseDebug:
		v.state.NoiseDebug = !v.state.NoiseDebug
	case input.KeyNormalDebug:
		v.state.NormalDebug = !v.state.NormalDebug
	case input.KeyResetCamera:
		v.camera.Initialize(v.state.Width, v.state.Height, true)
	case input.KeyHelp:
		v.LogHelp()
	case input.KeyScreenshot:
		v.screenshot = true
	case input.KeyQuit:
		v.quit = true
		return
	default:
		return
	}
	v.requestRedraw()
}

func (v *Viewer) requestRedraw() {
	if v.orch != nil {
		v.orch.RequestRedraw()
	}
}

// ReloadShaders recompiles every program in place. Programs that fail keep
// their previous version.
func (v *Viewer) ReloadShaders() error {
	if v.loader == nil {
		return nil
	}
	err := v.loader.ReloadAll()
	v.requestRedraw()
	if err == nil {
		logger.Named("viewer").Info("shaders reloaded", zap.Int("programs", len(v.loader.Programs())))
	}
	return err
}

// ReloadShaderFile recompiles the programs built from the named source file.
func (v *Viewer) ReloadShaderFile(name string) error {
	if v.loader == nil {
		return nil
	}
	err := v.loader.ReloadFile(name)
	v.requestRedraw()
	return err
}

// Pump advances the animation and renders a frame if one is due. It
// reports whether a frame was rendered.
func (v *Viewer) Pump(now time.Time) bool {
	if v.orch == nil {
		return false
	}
	if !v.orch.Pump(now) {
		return false
	}
	if v.screenshot {
		v.screenshot = false
		v.saveScreenshot()
	}
	return true
}

// saveScreenshot reads the presented frame back from the default
// framebuffer. It must run before the buffers are swapped.
func (v *Viewer) saveScreenshot() {
	log := logger.Named("viewer")
	w, h := v.state.Width, v.state.Height
	v.dev.BindFramebuffer(gpu.DefaultFramebuffer)
	pixels := v.dev.ReadPixels(0, 0, int32(w), int32(h))
	name, err := v.shots.Save(pixels, w, h)
	if err != nil {
		log.Error("screenshot failed", zap.Error(err))
		return
	}
	log.Info("screenshot saved", zap.String("file", name))
}

// LogHelp prints the key and pointer bindings.
func (v *Viewer) LogHelp() {
	log := logger.Named("viewer")
	for _, s := range input.Shortcuts {
		log.Info("key", zap.Stringer("key", s.Key), zap.String("action", s.Description))
	}
	for _, b := range input.PointerBindings {
		log.Info("pointer", zap.Stringer("button", b.Button), zap.String("action", b.Description))
	}
}

// QuitRequested reports whether a quit key or event was received.
func (v *Viewer) QuitRequested() bool { return v.quit }

// Ready reports whether OnReady completed and OnTeardown has not run since.
func (v *Viewer) Ready() bool { return v.ready }

// State returns the shared render state.
func (v *Viewer) State() *RenderState { return v.state }

// Camera returns the trackball.
func (v *Viewer) Camera() *camera.Trackball { return v.camera }

// Resources returns the GPU resource set.
func (v *Viewer) Resources() *Resources { return v.res }

// Orchestrator returns the frame orchestrator, nil before OnReady.
func (v *Viewer) Orchestrator() *Orchestrator { return v.orch }
