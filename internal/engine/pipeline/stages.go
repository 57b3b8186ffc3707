package pipeline

import (
	"github.com/go-gl/mathgl/mgl32"

	"github.com/Faultbox/terrain-viewer/internal/engine/gpu"
	"github.com/Faultbox/terrain-viewer/internal/engine/shader"
	"github.com/Faultbox/terrain-viewer/internal/engine/terrain"
)

// Camera supplies the scene matrices.
type Camera interface {
	MdvMatrix() mgl32.Mat4
	ProjMatrix() mgl32.Mat4
	NormalMatrix() mgl32.Mat3
}

// Frame is what a stage sees while it runs.
type Frame struct {
	Dev    gpu.Device
	Res    *Resources
	State  *RenderState
	Camera Camera
}

// Texture units used by the passes.
const (
	unitHeight uint32 = 0
	unitNormal uint32 = 1
	unitAlbedo uint32 = 2
)

func setInt(dev gpu.Device, p *shader.Program, name string, v int32) {
	if loc := p.Uniform(name); loc >= 0 {
		dev.Uniform1i(loc, v)
	}
}

func setFloat(dev gpu.Device, p *shader.Program, name string, v float32) {
	if loc := p.Uniform(name); loc >= 0 {
		dev.Uniform1f(loc, v)
	}
}

func setVec3(dev gpu.Device, p *shader.Program, name string, v mgl32.Vec3) {
	if loc := p.Uniform(name); loc >= 0 {
		dev.Uniform3f(loc, [3]float32(v))
	}
}

func setMat3(dev gpu.Device, p *shader.Program, name string, m mgl32.Mat3) {
	if loc := p.Uniform(name); loc >= 0 {
		dev.UniformMatrix3(loc, [9]float32(m))
	}
}

func setMat4(dev gpu.Device, p *shader.Program, name string, m mgl32.Mat4) {
	if loc := p.Uniform(name); loc >= 0 {
		dev.UniformMatrix4(loc, [16]float32(m))
	}
}

var computePass = PassState{Viewport: ViewportGrid}

// noiseStage renders fractal Perlin noise into the height map.
type noiseStage struct {
	prog   *shader.Program
	params terrain.NoiseParams
}

func (s *noiseStage) Name() string { return "noise" }
func (s *noiseStage) Reads() []Slot { return nil }
func (s *noiseStage) Writes() []Slot { return []Slot{SlotHeight} }
func (s *noiseStage) Pass() PassState { return computePass }
func (s *noiseStage) Enabled(*RenderState) bool { return true }

func (s *noiseStage) Run(f *Frame) {
	c := f.Res.Computing
	c.Bind()
	f.Dev.UseProgram(s.prog.ID())
	c.Select(AttachHeight)
	f.Dev.Clear(gpu.ClearColor)

	setInt(f.Dev, s.prog, "uSeed", int32(s.params.Seed))
	setFloat(f.Dev, s.prog, "uTime", f.State.Time)
	setInt(f.Dev, s.prog, "uOctaves", int32(s.params.Octaves))
	setFloat(f.Dev, s.prog, "uFrequency", s.params.Frequency)
	setFloat(f.Dev, s.prog, "uPersistence", s.params.Persistence)
	setFloat(f.Dev, s.prog, "uAmplitude", s.params.Amplitude)

	f.Res.Quad.Draw()
	c.Unbind()
}

// heightUploadStage fills the height map from a CPU height field instead of
// the noise pass. With flat set the field is all zeros.
type heightUploadStage struct {
	params terrain.NoiseParams
	flat   bool

	pixels   []float32
	size     int
	lastTime float32
}

func (s *heightUploadStage) Name() string { return "height-upload" }
func (s *heightUploadStage) Reads() []Slot { return nil }
func (s *heightUploadStage) Writes() []Slot { return []Slot{SlotHeight} }
func (s *heightUploadStage) Pass() PassState { return computePass }
func (s *heightUploadStage) Enabled(*RenderState) bool { return true }

func (s *heightUploadStage) Run(f *Frame) {
	n := f.Res.GridSize()
	stale := s.pixels == nil || s.size != n || (!s.flat && s.lastTime != f.State.Time)
	if stale {
		var field *terrain.HeightField
		if s.flat {
			field = terrain.Flat(n)
		} else {
			field = terrain.PerlinField(n, s.params, f.State.Time)
		}
		s.pixels = field.RGBA()
		s.size = n
		s.lastTime = f.State.Time
	}
	f.Res.Computing.Texture(AttachHeight).Fill(s.pixels)
}

// normalStage derives the normal map from the height map.
type normalStage struct {
	prog *shader.Program
}

func (s *normalStage) Name() string { return "normals" }
func (s *normalStage) Reads() []Slot { return []Slot{SlotHeight} }
func (s *normalStage) Writes() []Slot { return []Slot{SlotNormal} }
func (s *normalStage) Pass() PassState { return computePass }
func (s *normalStage) Enabled(*RenderState) bool { return true }

func (s *normalStage) Run(f *Frame) {
	c := f.Res.Computing
	c.Bind()
	f.Dev.UseProgram(s.prog.ID())
	c.Select(AttachNormal)
	f.Dev.Clear(gpu.ClearColor | gpu.ClearDepth)

	c.Texture(AttachHeight).Bind(unitHeight)
	setInt(f.Dev, s.prog, "heightmap", int32(unitHeight))

	f.Res.Quad.Draw()
	c.Unbind()
}

// sceneStage shades the terrain into the PostProcess target.
type sceneStage struct {
	prog *shader.Program
}

func (s *sceneStage) Name() string { return "scene" }
func (s *sceneStage) Reads() []Slot { return []Slot{SlotHeight, SlotNormal} }
func (s *sceneStage) Writes() []Slot { return []Slot{SlotColor} }
func (s *sceneStage) Enabled(*RenderState) bool { return true }

func (s *sceneStage) Pass() PassState {
	return PassState{Viewport: ViewportSurface, DepthTest: true}
}

func (s *sceneStage) Run(f *Frame) {
	target := f.Res.PostProcess
	target.Bind()
	f.Dev.UseProgram(s.prog.ID())
	target.Select(AttachColor)
	f.Dev.Clear(gpu.ClearColor | gpu.ClearDepth)

	setMat4(f.Dev, s.prog, "mdvMat", f.Camera.MdvMatrix())
	setMat4(f.Dev, s.prog, "projMat", f.Camera.ProjMatrix())
	setMat3(f.Dev, s.prog, "normalMatrix", f.Camera.NormalMatrix())
	setVec3(f.Dev, s.prog, "lightVector", f.State.Light)

	f.Res.Computing.Texture(AttachHeight).Bind(unitHeight)
	setInt(f.Dev, s.prog, "heightmap", int32(unitHeight))
	f.Res.Computing.Texture(AttachNormal).Bind(unitNormal)
	setInt(f.Dev, s.prog, "normalMap", int32(unitNormal))
	f.Res.Albedo.Bind(unitAlbedo)
	setInt(f.Dev, s.prog, "mountainText", int32(unitAlbedo))

	f.Res.Terrain.Draw()
	target.Unbind()
}

// postProcessStage composites the scene color onto the visible surface.
type postProcessStage struct {
	prog *shader.Program
}

func (s *postProcessStage) Name() string { return "postprocess" }
func (s *postProcessStage) Reads() []Slot { return []Slot{SlotColor} }
func (s *postProcessStage) Writes() []Slot { return []Slot{SlotScreen} }
func (s *postProcessStage) Enabled(*RenderState) bool { return true }

func (s *postProcessStage) Pass() PassState {
	return PassState{Viewport: ViewportSurface}
}

func (s *postProcessStage) Run(f *Frame) {
	f.Dev.BindFramebuffer(gpu.DefaultFramebuffer)
	f.Dev.UseProgram(s.prog.ID())
	f.Dev.Clear(gpu.ClearColor | gpu.ClearDepth)

	f.Res.PostProcess.Texture(AttachColor).Bind(0)
	setInt(f.Dev, s.prog, "renderedMap", 0)

	f.Res.Quad.Draw()
}
