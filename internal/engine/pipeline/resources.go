package pipeline

import (
	"image/color"

	"go.uber.org/zap"

	"github.com/Faultbox/terrain-viewer/internal/engine/framebuffer"
	"github.com/Faultbox/terrain-viewer/internal/engine/gpu"
	"github.com/Faultbox/terrain-viewer/internal/engine/mesh"
	"github.com/Faultbox/terrain-viewer/internal/engine/terrain"
	"github.com/Faultbox/terrain-viewer/internal/engine/texture"
	"github.com/Faultbox/terrain-viewer/internal/logger"
)

// Attachment names of the offscreen targets.
const (
	AttachHeight = "height"
	AttachNormal = "normal"
	AttachColor  = "color"
	AttachDepth  = "depth"
)

// Target names, as they appear in logs.
const (
	TargetComputing   = "computing"
	TargetPostProcess = "postprocess"
)

// Resources owns every GPU object of the pipeline: the quad and terrain
// meshes, the albedo texture, and the Computing and PostProcess targets.
//
// Each group has a Create step that allocates identifiers and, for targets,
// an Init step that (re)defines storage. Delete releases what Create acquired.
type Resources struct {
	dev        gpu.Device
	gridSize   int
	albedoPath string

	Quad    *mesh.Buffer
	Terrain *mesh.Buffer
	Albedo  *texture.Texture

	Computing   *framebuffer.Target
	PostProcess *framebuffer.Target

	width, height int32
	ready         bool
}

// NewResources prepares a resource set. Nothing is allocated until Setup.
func NewResources(dev gpu.Device, gridSize int, albedoPath string) *Resources {
	return &Resources{
		dev:        dev,
		gridSize:   max(gridSize, 2),
		albedoPath: albedoPath,
	}
}

// GridSize returns the fixed resolution of the computed maps.
func (r *Resources) GridSize() int { return r.gridSize }

// SurfaceSize returns the size the PostProcess target is defined for.
func (r *Resources) SurfaceSize() (width, height int32) { return r.width, r.height }

// Ready reports whether Setup completed and Teardown has not run since.
func (r *Resources) Ready() bool { return r.ready }

// Setup creates and initializes every group for a width x height surface.
func (r *Resources) Setup(width, height int) {
	if r.ready {
		return
	}
	r.width, r.height = clampSize(width), clampSize(height)

	r.CreateMeshes()
	r.CreateTextures()
	r.CreateComputing()
	r.InitComputing()
	r.CreatePostProcess()
	r.InitPostProcess(r.width, r.height)

	r.ready = true
	logger.Named("pipeline").Info("resources ready",
		zap.Int("grid", r.gridSize),
		zap.Int32("width", r.width),
		zap.Int32("height", r.height))
}

// Resize redefines the PostProcess target for a new surface size. The
// Computing target has a fixed resolution and is left alone. A resize before
// Setup only records the size; an unchanged size is a no-op.
func (r *Resources) Resize(width, height int) {
	w, h := clampSize(width), clampSize(height)
	if !r.ready {
		r.width, r.height = w, h
		return
	}
	if w == r.width && h == r.height {
		return
	}
	r.width, r.height = w, h
	r.InitPostProcess(w, h)
	logger.Named("pipeline").Debug("resized", zap.Int32("width", w), zap.Int32("height", h))
}

// Teardown deletes every group in reverse creation order. Safe to call more
// than once.
func (r *Resources) Teardown() {
	r.DeletePostProcess()
	r.DeleteComputing()
	r.DeleteTextures()
	r.DeleteMeshes()
	if r.ready {
		logger.Named("pipeline").Info("resources released")
	}
	r.ready = false
}

// CreateMeshes uploads the full-screen quad and the terrain grid.
func (r *Resources) CreateMeshes() {
	r.Quad = mesh.New(r.dev, terrain.Quad())
	r.Terrain = mesh.New(r.dev, terrain.Grid(r.gridSize, -1, 1))
}

// DeleteMeshes releases both meshes.
func (r *Resources) DeleteMeshes() {
	if r.Quad != nil {
		r.Quad.Destroy()
		r.Quad = nil
	}
	if r.Terrain != nil {
		r.Terrain.Destroy()
		r.Terrain = nil
	}
}

// CreateTextures loads the albedo. A missing or unreadable file falls back
// to a procedural checker so the terrain still renders.
func (r *Resources) CreateTextures() {
	r.Albedo = texture.New(r.dev)

	img, err := texture.LoadImageFile(r.albedoPath)
	if err != nil {
		logger.Named("pipeline").Warn("albedo unavailable, using checker",
			zap.String("path", r.albedoPath), zap.Error(err))
		img = texture.Checker(256, 8,
			color.RGBA{R: 120, G: 110, B: 95, A: 255},
			color.RGBA{R: 90, G: 84, B: 72, A: 255})
	}
	pixels, w, h := texture.ToRGBA(img)
	r.Albedo.Upload(int32(w), int32(h), pixels, gpu.SamplerLinearMipmapMirrored)
}

// DeleteTextures releases the albedo.
func (r *Resources) DeleteTextures() {
	if r.Albedo != nil {
		r.Albedo.Destroy()
		r.Albedo = nil
	}
}

// CreateComputing allocates the target holding the height and normal maps.
func (r *Resources) CreateComputing() {
	r.Computing = framebuffer.New(r.dev, TargetComputing,
		framebuffer.Spec{Name: AttachHeight, Point: gpu.AttachColor0, Format: gpu.FormatRGBA32F, Sampler: gpu.SamplerNearestClamp},
		framebuffer.Spec{Name: AttachNormal, Point: gpu.AttachColor1, Format: gpu.FormatRGBA32F, Sampler: gpu.SamplerNearestClamp},
	)
}

// InitComputing defines the computed maps at grid resolution.
func (r *Resources) InitComputing() {
	if r.Computing == nil {
		return
	}
	n := int32(r.gridSize)
	if err := r.Computing.Init(n, n); err != nil {
		logger.Named("pipeline").Warn("framebuffer incomplete", zap.Error(err))
	}
}

// DeleteComputing releases the Computing target and its maps.
func (r *Resources) DeleteComputing() {
	if r.Computing != nil {
		r.Computing.Destroy()
		r.Computing = nil
	}
}

// CreatePostProcess allocates the offscreen scene target.
func (r *Resources) CreatePostProcess() {
	r.PostProcess = framebuffer.New(r.dev, TargetPostProcess,
		framebuffer.Spec{Name: AttachColor, Point: gpu.AttachColor0, Format: gpu.FormatRGBA32F, Sampler: gpu.SamplerNearestClamp},
		framebuffer.Spec{Name: AttachDepth, Point: gpu.AttachDepth, Format: gpu.FormatDepth24, Sampler: gpu.SamplerNearestClamp},
	)
}

// InitPostProcess defines the scene target at the surface size.
func (r *Resources) InitPostProcess(width, height int32) {
	if r.PostProcess == nil {
		return
	}
	if err := r.PostProcess.Init(width, height); err != nil {
		logger.Named("pipeline").Warn("framebuffer incomplete", zap.Error(err))
	}
}

// DeletePostProcess releases the PostProcess target.
func (r *Resources) DeletePostProcess() {
	if r.PostProcess != nil {
		r.PostProcess.Destroy()
		r.PostProcess = nil
	}
}

func clampSize(v int) int32 {
	if v < 1 {
		return 1
	}
	return int32(v)
}
