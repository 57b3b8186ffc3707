package pipeline

import (
	"github.com/Faultbox/terrain-viewer/internal/engine/gpu"
	"github.com/Faultbox/terrain-viewer/internal/engine/shader"
)

// debugStage draws one computed map straight to the screen at grid
// resolution, replacing the composite while its toggle is on.
type debugStage struct {
	name    string
	prog    *shader.Program
	slot    Slot
	attach  string
	sampler string
	enabled func(*RenderState) bool
}

func newNoiseDebug(prog *shader.Program) *debugStage {
	return &debugStage{
		name:    "debug-noise",
		prog:    prog,
		slot:    SlotHeight,
		attach:  AttachHeight,
		sampler: "noiseMap",
		enabled: func(s *RenderState) bool { return s.NoiseDebug },
	}
}

func newNormalDebug(prog *shader.Program) *debugStage {
	return &debugStage{
		name:    "debug-normal",
		prog:    prog,
		slot:    SlotNormal,
		attach:  AttachNormal,
		sampler: "normalMap",
		enabled: func(s *RenderState) bool { return s.NormalDebug },
	}
}

func (s *debugStage) Name() string { return s.name }
func (s *debugStage) Reads() []Slot { return []Slot{s.slot} }
func (s *debugStage) Writes() []Slot { return []Slot{SlotScreen} }
func (s *debugStage) Pass() PassState { return PassState{Viewport: ViewportGrid} }
func (s *debugStage) Enabled(st *RenderState) bool { return s.enabled(st) }

func (s *debugStage) Run(f *Frame) {
	f.Dev.BindFramebuffer(gpu.DefaultFramebuffer)
	f.Dev.UseProgram(s.prog.ID())
	f.Dev.Clear(gpu.ClearColor | gpu.ClearDepth)

	f.Res.Computing.Texture(s.attach).Bind(0)
	setInt(f.Dev, s.prog, s.sampler, 0)

	f.Res.Quad.Draw()
}
