// Package framebuffer provides offscreen render targets built from named
// texture attachments.
package framebuffer

import (
	"fmt"

	"github.com/Faultbox/terrain-viewer/internal/engine/gpu"
	"github.com/Faultbox/terrain-viewer/internal/engine/texture"
)

// Spec describes one attachment of a Target.
type Spec struct {
	Name    string
	Point   gpu.Attachment
	Format  gpu.Format
	Sampler gpu.Sampler
}

// Target manages a framebuffer object and the textures attached to it.
// New allocates identifiers only; Init defines storage and attachments.
type Target struct {
	dev      gpu.Device
	name     string
	fbo      uint32
	specs    []Spec
	textures []*texture.Texture
	width    int32
	height   int32
	inited   bool
}

// New allocates the framebuffer and one texture per spec.
func New(dev gpu.Device, name string, specs ...Spec) *Target {
	t := &Target{
		dev:   dev,
		name:  name,
		fbo:   dev.GenFramebuffer(),
		specs: specs,
	}
	for range specs {
		t.textures = append(t.textures, texture.New(dev))
	}
	return t
}

// Init (re)defines every attachment's storage at width x height and binds
// the textures to their attachment points. It can be called repeatedly
// without reallocating identifiers. The default framebuffer is bound on return.
func (t *Target) Init(width, height int32) error {
	if t.fbo == 0 {
		return fmt.Errorf("%s: init after destroy", t.name)
	}
	if width < 1 {
		width = 1
	}
	if height < 1 {
		height = 1
	}
	t.width, t.height = width, height

	for i, spec := range t.specs {
		t.textures[i].Init(width, height, spec.Format, spec.Sampler)
	}

	t.dev.BindFramebuffer(t.fbo)
	for i, spec := range t.specs {
		t.dev.FramebufferTexture(spec.Point, t.textures[i].ID())
	}
	err := t.dev.CheckFramebuffer()
	t.dev.BindFramebuffer(gpu.DefaultFramebuffer)

	t.inited = true
	if err != nil {
		return fmt.Errorf("%s: %w", t.name, err)
	}
	return nil
}

// Bind makes this target the current render destination.
func (t *Target) Bind() {
	t.dev.BindFramebuffer(t.fbo)
}

// Unbind restores the default framebuffer.
func (t *Target) Unbind() {
	t.dev.BindFramebuffer(gpu.DefaultFramebuffer)
}

// Select restricts writes of subsequent draws to the named attachments.
func (t *Target) Select(names ...string) {
	points := make([]gpu.Attachment, 0, len(names))
	for _, n := range names {
		for _, spec := range t.specs {
			if spec.Name == n {
				points = append(points, spec.Point)
			}
		}
	}
	t.dev.DrawBuffers(points...)
}

// Texture returns the attachment texture with the given name, or nil.
func (t *Target) Texture(name string) *texture.Texture {
	for i, spec := range t.specs {
		if spec.Name == name {
			return t.textures[i]
		}
	}
	return nil
}

// Name returns the target's name.
func (t *Target) Name() string { return t.name }

// FBO returns the underlying framebuffer object ID.
func (t *Target) FBO() uint32 { return t.fbo }

// Size returns the dimensions of the last Init.
func (t *Target) Size() (width, height int32) { return t.width, t.height }

// Initialized reports whether Init has run since New.
func (t *Target) Initialized() bool { return t.inited && t.fbo != 0 }

// ReadPixels reads the first color attachment as RGBA8 rows, bottom row first.
func (t *Target) ReadPixels() []byte {
	t.dev.BindFramebuffer(t.fbo)
	pixels := t.dev.ReadPixels(0, 0, t.width, t.height)
	t.dev.BindFramebuffer(gpu.DefaultFramebuffer)
	return pixels
}

// Destroy releases the framebuffer and every attachment texture.
func (t *Target) Destroy() {
	if t.fbo != 0 {
		t.dev.DeleteFramebuffer(t.fbo)
		t.fbo = 0
	}
	for _, tex := range t.textures {
		tex.Destroy()
	}
	t.inited = false
}
