// Package gpu defines the narrow set of GPU operations the terrain pipeline
// issues, so that stages and resource owners can run against OpenGL or
// against a recording fake in tests.
package gpu

// Format is a texture storage format.
type Format int

const (
	FormatRGBA8   Format = iota // 8-bit normalized RGBA (albedo)
	FormatRGBA32F               // 4x32-bit float (computed maps, scene color)
	FormatDepth24               // 24-bit depth
)

// String returns a short name used in logs.
func (f Format) String() string {
	switch f {
	case FormatRGBA8:
		return "rgba8"
	case FormatRGBA32F:
		return "rgba32f"
	case FormatDepth24:
		return "depth24"
	default:
		return "unknown"
	}
}

// Sampler is a filtering and wrapping configuration.
type Sampler int

const (
	// SamplerNearestClamp samples texels exactly; used for computed maps.
	SamplerNearestClamp Sampler = iota
	// SamplerLinearMipmapMirrored is trilinear filtering with mirrored repeat.
	SamplerLinearMipmapMirrored
)

// Attachment is a framebuffer attachment point.
type Attachment int

const (
	AttachColor0 Attachment = iota
	AttachColor1
	AttachColor2
	AttachColor3
	AttachDepth
)

// ColorAttachment returns the color attachment for slot i.
func ColorAttachment(i int) Attachment {
	return AttachColor0 + Attachment(i)
}

// ClearMask selects buffers for Clear.
type ClearMask uint8

const (
	ClearColor ClearMask = 1 << iota
	ClearDepth
)

// DefaultFramebuffer is the visible surface.
const DefaultFramebuffer uint32 = 0

// Device is the GPU command surface used by the pipeline. All calls must
// happen on the thread that owns the context.
type Device interface {
	GenTexture() uint32
	DeleteTexture(tex uint32)
	// TexImage2D defines storage for tex. pixels may be nil to allocate only.
	TexImage2D(tex uint32, width, height int32, format Format, pixels []byte)
	// TexSubImageFloat replaces the full contents of an RGBA32F texture.
	TexSubImageFloat(tex uint32, width, height int32, pixels []float32)
	TexSampler(tex uint32, s Sampler)
	GenerateMipmap(tex uint32)
	// BindTexture binds tex to the given texture unit.
	BindTexture(unit uint32, tex uint32)

	GenFramebuffer() uint32
	DeleteFramebuffer(fb uint32)
	BindFramebuffer(fb uint32)
	// FramebufferTexture attaches tex to the currently bound framebuffer.
	FramebufferTexture(at Attachment, tex uint32)
	// CheckFramebuffer reports whether the bound framebuffer is complete.
	CheckFramebuffer() error
	DrawBuffers(ats ...Attachment)

	GenBuffer() uint32
	DeleteBuffer(buf uint32)
	GenVertexArray() uint32
	DeleteVertexArray(vao uint32)
	BindVertexArray(vao uint32)
	// ArrayBuffer uploads static vertex data into buf.
	ArrayBuffer(buf uint32, data []float32)
	// ElementBuffer uploads static index data into buf; the binding is
	// recorded by the bound vertex array.
	ElementBuffer(buf uint32, data []uint32)
	// VertexAttrib describes a tightly packed float attribute read from
	// the last ArrayBuffer upload.
	VertexAttrib(index uint32, size int32)

	CompileProgram(vertexSrc, fragmentSrc string) (uint32, error)
	DeleteProgram(program uint32)
	UseProgram(program uint32)
	UniformLocation(program uint32, name string) int32
	Uniform1i(loc int32, v int32)
	Uniform1f(loc int32, v float32)
	Uniform3f(loc int32, v [3]float32)
	UniformMatrix3(loc int32, m [9]float32)
	UniformMatrix4(loc int32, m [16]float32)

	Viewport(x, y, width, height int32)
	ClearColor(r, g, b, a float32)
	Clear(mask ClearMask)
	SetDepthTest(enabled bool)
	DepthMask(enabled bool)

	DrawArrays(first, count int32)
	DrawElements(count int32)

	// ReadPixels reads RGBA8 pixels from the bound framebuffer's first
	// color attachment, bottom row first.
	ReadPixels(x, y, width, height int32) []byte
}
