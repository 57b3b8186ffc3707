// Package mesh owns vertex/index buffers and their vertex array layout.
package mesh

import (
	"github.com/Faultbox/terrain-viewer/internal/engine/gpu"
	"github.com/Faultbox/terrain-viewer/internal/engine/terrain"
)

// Buffer is an immutable vertex buffer, optional index buffer and the
// vertex array describing them. Positions are bound at attribute 0.
type Buffer struct {
	dev     gpu.Device
	vao     uint32
	vbo     uint32
	ebo     uint32
	count   int32
	indexed bool
}

// New uploads geometry. Geometry without faces is drawn as a plain triangle list.
func New(dev gpu.Device, g *terrain.Geometry) *Buffer {
	b := &Buffer{
		dev: dev,
		vao: dev.GenVertexArray(),
		vbo: dev.GenBuffer(),
	}

	dev.BindVertexArray(b.vao)
	dev.ArrayBuffer(b.vbo, g.Vertices)
	dev.VertexAttrib(0, 3)

	if len(g.Faces) > 0 {
		b.ebo = dev.GenBuffer()
		dev.ElementBuffer(b.ebo, g.Faces)
		b.indexed = true
		b.count = int32(len(g.Faces))
	} else {
		b.count = int32(g.NumVertices())
	}
	dev.BindVertexArray(0)

	return b
}

// Draw binds the vertex array, issues one draw over the whole mesh and unbinds.
func (b *Buffer) Draw() {
	b.dev.BindVertexArray(b.vao)
	if b.indexed {
		b.dev.DrawElements(b.count)
	} else {
		b.dev.DrawArrays(0, b.count)
	}
	b.dev.BindVertexArray(0)
}

// Count returns the number of vertices (or indices) one Draw consumes.
func (b *Buffer) Count() int32 { return b.count }

// Indexed reports whether the mesh has an index buffer.
func (b *Buffer) Indexed() bool { return b.indexed }

// VAO returns the vertex array identifier.
func (b *Buffer) VAO() uint32 { return b.vao }

// Destroy releases the vertex array and buffers. Safe to call more than once.
func (b *Buffer) Destroy() {
	if b.vao != 0 {
		b.dev.DeleteVertexArray(b.vao)
		b.vao = 0
	}
	if b.vbo != 0 {
		b.dev.DeleteBuffer(b.vbo)
		b.vbo = 0
	}
	if b.ebo != 0 {
		b.dev.DeleteBuffer(b.ebo)
		b.ebo = 0
	}
}
