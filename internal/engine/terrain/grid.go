// Package terrain provides the terrain grid geometry and CPU height fields.
package terrain

// Geometry is a triangle mesh as consumed by the GPU buffer set.
type Geometry struct {
	Vertices []float32 // x, y, z per vertex
	Faces    []uint32  // three vertex indices per triangle
}

// NumVertices returns the vertex count.
func (g *Geometry) NumVertices() int { return len(g.Vertices) / 3 }

// NumFaces returns the triangle count.
func (g *Geometry) NumFaces() int { return len(g.Faces) / 3 }

// Grid builds a size x size vertex grid on the z=0 plane spanning
// [min, max] on both axes. Heights are applied later on the GPU.
func Grid(size int, min, max float32) *Geometry {
	if size < 2 {
		size = 2
	}
	g := &Geometry{
		Vertices: make([]float32, 0, size*size*3),
		Faces:    make([]uint32, 0, (size-1)*(size-1)*6),
	}

	step := (max - min) / float32(size-1)
	for j := 0; j < size; j++ {
		for i := 0; i < size; i++ {
			g.Vertices = append(g.Vertices, min+float32(i)*step, min+float32(j)*step, 0)
		}
	}

	for j := 0; j < size-1; j++ {
		for i := 0; i < size-1; i++ {
			v0 := uint32(j*size + i)
			v1 := v0 + 1
			v2 := v0 + uint32(size)
			v3 := v2 + 1
			g.Faces = append(g.Faces, v0, v1, v3, v0, v3, v2)
		}
	}
	return g
}

// Quad returns the two-triangle full-screen quad in clip space.
func Quad() *Geometry {
	return &Geometry{
		Vertices: []float32{
			-1, -1, 0, 1, -1, 0, -1, 1, 0,
			-1, 1, 0, 1, -1, 0, 1, 1, 0,
		},
	}
}
