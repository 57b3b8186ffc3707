// Package opengl implements gpu.Device on OpenGL 4.1 core.
package opengl

import (
	"fmt"
	"unsafe"

	"github.com/go-gl/gl/v4.1-core/gl"
	"go.uber.org/zap"

	"github.com/Faultbox/terrain-viewer/internal/engine/gpu"
	"github.com/Faultbox/terrain-viewer/internal/logger"
)

// Device is the OpenGL implementation of gpu.Device.
// IMPORTANT: New must be called AFTER the OpenGL context is current.
type Device struct{}

var _ gpu.Device = (*Device)(nil)

// New loads the OpenGL function pointers and sets the baseline state.
func New() (*Device, error) {
	if err := gl.Init(); err != nil {
		return nil, fmt.Errorf("failed to initialize OpenGL: %w", err)
	}

	logger.Named("gpu").Info("OpenGL initialized",
		zap.String("version", gl.GoStr(gl.GetString(gl.VERSION))),
		zap.String("renderer", gl.GoStr(gl.GetString(gl.RENDERER))),
	)

	gl.ClearColor(0, 0, 0, 1)
	gl.Enable(gl.DEPTH_TEST)
	gl.PolygonMode(gl.FRONT_AND_BACK, gl.FILL)

	return &Device{}, nil
}

// GenTexture creates a texture name with no storage.
func (*Device) GenTexture() uint32 {
	var id uint32
	gl.GenTextures(1, &id)
	return id
}

// DeleteTexture releases tex.
func (*Device) DeleteTexture(tex uint32) {
	gl.DeleteTextures(1, &tex)
}

// TexImage2D (re)defines the storage of tex. Nil pixels allocate only.
func (*Device) TexImage2D(tex uint32, width, height int32, format gpu.Format, pixels []byte) {
	var ptr unsafe.Pointer
	if len(pixels) > 0 {
		ptr = gl.Ptr(pixels)
	}

	gl.BindTexture(gl.TEXTURE_2D, tex)
	switch format {
	case gpu.FormatRGBA8:
		gl.TexImage2D(gl.TEXTURE_2D, 0, gl.RGBA8, width, height, 0, gl.RGBA, gl.UNSIGNED_BYTE, ptr)
	case gpu.FormatRGBA32F:
		gl.TexImage2D(gl.TEXTURE_2D, 0, gl.RGBA32F, width, height, 0, gl.RGBA, gl.FLOAT, ptr)
	case gpu.FormatDepth24:
		gl.TexImage2D(gl.TEXTURE_2D, 0, gl.DEPTH_COMPONENT24, width, height, 0, gl.DEPTH_COMPONENT, gl.FLOAT, ptr)
	}
}

// TexSubImageFloat replaces the whole RGBA32F image of tex.
func (*Device) TexSubImageFloat(tex uint32, width, height int32, pixels []float32) {
	gl.BindTexture(gl.TEXTURE_2D, tex)
	gl.TexSubImage2D(gl.TEXTURE_2D, 0, 0, 0, width, height, gl.RGBA, gl.FLOAT, gl.Ptr(pixels))
}

// TexSampler sets the filtering and wrapping of tex.
func (*Device) TexSampler(tex uint32, s gpu.Sampler) {
	gl.BindTexture(gl.TEXTURE_2D, tex)
	switch s {
	case gpu.SamplerNearestClamp:
		gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MAG_FILTER, gl.NEAREST)
		gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MIN_FILTER, gl.NEAREST)
		gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_S, gl.CLAMP_TO_EDGE)
		gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_T, gl.CLAMP_TO_EDGE)
	case gpu.SamplerLinearMipmapMirrored:
		gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MIN_FILTER, gl.LINEAR_MIPMAP_LINEAR)
		gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MAG_FILTER, gl.LINEAR)
		gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_S, gl.MIRRORED_REPEAT)
		gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_T, gl.MIRRORED_REPEAT)
	}
}

// GenerateMipmap builds the mip chain of tex.
func (*Device) GenerateMipmap(tex uint32) {
	gl.BindTexture(gl.TEXTURE_2D, tex)
	gl.GenerateMipmap(gl.TEXTURE_2D)
}

// BindTexture binds tex to texture unit unit.
func (*Device) BindTexture(unit uint32, tex uint32) {
	gl.ActiveTexture(gl.TEXTURE0 + unit)
	gl.BindTexture(gl.TEXTURE_2D, tex)
}

// GenFramebuffer creates a framebuffer name.
func (*Device) GenFramebuffer() uint32 {
	var id uint32
	gl.GenFramebuffers(1, &id)
	return id
}

// DeleteFramebuffer releases fb.
func (*Device) DeleteFramebuffer(fb uint32) {
	gl.DeleteFramebuffers(1, &fb)
}

// BindFramebuffer makes fb the draw and read target; 0 is the window.
func (*Device) BindFramebuffer(fb uint32) {
	gl.BindFramebuffer(gl.FRAMEBUFFER, fb)
}

// FramebufferTexture attaches tex to the bound framebuffer at at.
func (*Device) FramebufferTexture(at gpu.Attachment, tex uint32) {
	gl.FramebufferTexture2D(gl.FRAMEBUFFER, glAttachment(at), gl.TEXTURE_2D, tex, 0)
}

// CheckFramebuffer reports an incomplete bound framebuffer as an error.
func (*Device) CheckFramebuffer() error {
	if status := gl.CheckFramebufferStatus(gl.FRAMEBUFFER); status != gl.FRAMEBUFFER_COMPLETE {
		return fmt.Errorf("framebuffer incomplete: 0x%x", status)
	}
	return nil
}

// DrawBuffers selects the color outputs of the bound framebuffer.
func (*Device) DrawBuffers(ats ...gpu.Attachment) {
	bufs := make([]uint32, len(ats))
	for i, at := range ats {
		bufs[i] = glAttachment(at)
	}
	if len(bufs) == 0 {
		gl.DrawBuffer(gl.NONE)
		return
	}
	gl.DrawBuffers(int32(len(bufs)), &bufs[0])
}

// GenBuffer creates a buffer object name.
func (*Device) GenBuffer() uint32 {
	var id uint32
	gl.GenBuffers(1, &id)
	return id
}

// DeleteBuffer releases buf.
func (*Device) DeleteBuffer(buf uint32) {
	gl.DeleteBuffers(1, &buf)
}

// GenVertexArray creates a vertex array object.
func (*Device) GenVertexArray() uint32 {
	var id uint32
	gl.GenVertexArrays(1, &id)
	return id
}

// DeleteVertexArray releases vao.
func (*Device) DeleteVertexArray(vao uint32) {
	gl.DeleteVertexArrays(1, &vao)
}

// BindVertexArray binds vao; 0 unbinds.
func (*Device) BindVertexArray(vao uint32) {
	gl.BindVertexArray(vao)
}

// ArrayBuffer uploads static vertex data to buf.
func (*Device) ArrayBuffer(buf uint32, data []float32) {
	gl.BindBuffer(gl.ARRAY_BUFFER, buf)
	if len(data) > 0 {
		gl.BufferData(gl.ARRAY_BUFFER, len(data)*4, gl.Ptr(data), gl.STATIC_DRAW)
	}
}

// ElementBuffer uploads static indices to buf for the bound vertex array.
func (*Device) ElementBuffer(buf uint32, data []uint32) {
	gl.BindBuffer(gl.ELEMENT_ARRAY_BUFFER, buf)
	if len(data) > 0 {
		gl.BufferData(gl.ELEMENT_ARRAY_BUFFER, len(data)*4, gl.Ptr(data), gl.STATIC_DRAW)
	}
}

// VertexAttrib enables a tightly packed float attribute at index.
func (*Device) VertexAttrib(index uint32, size int32) {
	gl.VertexAttribPointer(index, size, gl.FLOAT, false, 0, nil)
	gl.EnableVertexAttribArray(index)
}

// DeleteProgram releases a linked program.
func (*Device) DeleteProgram(program uint32) {
	gl.DeleteProgram(program)
}

// UseProgram makes program current; 0 unbinds.
func (*Device) UseProgram(program uint32) {
	gl.UseProgram(program)
}

// UniformLocation returns -1 for inactive or unknown uniforms.
func (*Device) UniformLocation(program uint32, name string) int32 {
	return gl.GetUniformLocation(program, gl.Str(name+"\x00"))
}

// Uniform1i sets an int or sampler uniform of the current program.
func (*Device) Uniform1i(loc int32, v int32) {
	gl.Uniform1i(loc, v)
}

// Uniform1f sets a float uniform of the current program.
func (*Device) Uniform1f(loc int32, v float32) {
	gl.Uniform1f(loc, v)
}

// Uniform3f sets a vec3 uniform of the current program.
func (*Device) Uniform3f(loc int32, v [3]float32) {
	gl.Uniform3fv(loc, 1, &v[0])
}

// UniformMatrix3 sets a column-major mat3 uniform.
func (*Device) UniformMatrix3(loc int32, m [9]float32) {
	gl.UniformMatrix3fv(loc, 1, false, &m[0])
}

// UniformMatrix4 sets a column-major mat4 uniform.
func (*Device) UniformMatrix4(loc int32, m [16]float32) {
	gl.UniformMatrix4fv(loc, 1, false, &m[0])
}

// Viewport sets the drawing rectangle in pixels.
func (*Device) Viewport(x, y, width, height int32) {
	gl.Viewport(x, y, width, height)
}

// ClearColor sets the color used by Clear.
func (*Device) ClearColor(r, g, b, a float32) {
	gl.ClearColor(r, g, b, a)
}

// Clear clears the selected buffers of the bound framebuffer.
func (*Device) Clear(mask gpu.ClearMask) {
	var bits uint32
	if mask&gpu.ClearColor != 0 {
		bits |= gl.COLOR_BUFFER_BIT
	}
	if mask&gpu.ClearDepth != 0 {
		bits |= gl.DEPTH_BUFFER_BIT
	}
	gl.Clear(bits)
}

// SetDepthTest toggles depth testing.
func (*Device) SetDepthTest(enabled bool) {
	if enabled {
		gl.Enable(gl.DEPTH_TEST)
	} else {
		gl.Disable(gl.DEPTH_TEST)
	}
}

// DepthMask toggles depth writes.
func (*Device) DepthMask(enabled bool) {
	gl.DepthMask(enabled)
}

// DrawArrays draws unindexed triangles from the bound vertex array.
func (*Device) DrawArrays(first, count int32) {
	gl.DrawArrays(gl.TRIANGLES, first, count)
}

// DrawElements draws indexed triangles from the bound vertex array.
func (*Device) DrawElements(count int32) {
	gl.DrawElements(gl.TRIANGLES, count, gl.UNSIGNED_INT, nil)
}

// ReadPixels reads RGBA8 pixels from the bound framebuffer, bottom row first.
func (*Device) ReadPixels(x, y, width, height int32) []byte {
	pixels := make([]byte, width*height*4)
	gl.ReadPixels(x, y, width, height, gl.RGBA, gl.UNSIGNED_BYTE, gl.Ptr(pixels))
	return pixels
}

func glAttachment(at gpu.Attachment) uint32 {
	if at == gpu.AttachDepth {
		return gl.DEPTH_ATTACHMENT
	}
	return gl.COLOR_ATTACHMENT0 + uint32(at-gpu.AttachColor0)
}
