// Package texture provides owning handles for GPU textures and albedo
// image loading.
package texture

import (
	"github.com/Faultbox/terrain-viewer/internal/engine/gpu"
)

// Texture owns one GPU texture identifier. New allocates the identifier,
// Init defines its storage and Destroy releases it.
type Texture struct {
	dev     gpu.Device
	id      uint32
	width   int32
	height  int32
	format  gpu.Format
	sampler gpu.Sampler
	ready   bool
}

// New allocates a texture identifier without storage.
func New(dev gpu.Device) *Texture {
	return &Texture{dev: dev, id: dev.GenTexture()}
}

// Init (re)defines storage for the texture. It keeps the identifier, so
// framebuffer attachments referring to it stay valid after re-attaching.
func (t *Texture) Init(width, height int32, format gpu.Format, sampler gpu.Sampler) {
	if width < 1 {
		width = 1
	}
	if height < 1 {
		height = 1
	}
	t.width, t.height = width, height
	t.format, t.sampler = format, sampler
	t.dev.TexImage2D(t.id, width, height, format, nil)
	t.dev.TexSampler(t.id, sampler)
	t.ready = true
}

// Upload defines storage from RGBA8 pixels and generates mipmaps when the
// sampler filters across levels.
func (t *Texture) Upload(width, height int32, pixels []byte, sampler gpu.Sampler) {
	t.width, t.height = width, height
	t.format, t.sampler = gpu.FormatRGBA8, sampler
	t.dev.TexImage2D(t.id, width, height, gpu.FormatRGBA8, pixels)
	t.dev.TexSampler(t.id, sampler)
	if sampler == gpu.SamplerLinearMipmapMirrored {
		t.dev.GenerateMipmap(t.id)
	}
	t.ready = true
}

// Fill replaces the contents of an RGBA32F texture. pixels must hold
// width*height*4 floats matching the initialized size.
func (t *Texture) Fill(pixels []float32) {
	t.dev.TexSubImageFloat(t.id, t.width, t.height, pixels)
}

// Bind binds the texture to a texture unit.
func (t *Texture) Bind(unit uint32) {
	t.dev.BindTexture(unit, t.id)
}

// ID returns the GPU identifier, 0 after Destroy.
func (t *Texture) ID() uint32 { return t.id }

// Size returns the storage dimensions set by the last Init or Upload.
func (t *Texture) Size() (width, height int32) { return t.width, t.height }

// Format returns the storage format.
func (t *Texture) Format() gpu.Format { return t.format }

// Ready reports whether storage has been defined.
func (t *Texture) Ready() bool { return t.ready && t.id != 0 }

// Destroy releases the identifier. Safe to call more than once.
func (t *Texture) Destroy() {
	if t.id != 0 {
		t.dev.DeleteTexture(t.id)
		t.id = 0
	}
	t.ready = false
}
