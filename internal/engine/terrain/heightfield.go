package terrain

import (
	"math"

	"github.com/aquilax/go-perlin"
)

// NoiseParams configures fractal Perlin noise.
type NoiseParams struct {
	Seed        int64
	Octaves     int
	Frequency   float32
	Persistence float32
	Amplitude   float32
}

// HeightField is a square grid of heights stored row by row, bottom row first.
type HeightField struct {
	Size    int
	Heights []float32
}

// Flat returns an all-zero height field.
func Flat(size int) *HeightField {
	return &HeightField{Size: size, Heights: make([]float32, size*size)}
}

// PerlinField samples fractal Perlin noise over the unit square at time t.
func PerlinField(size int, p NoiseParams, t float32) *HeightField {
	alpha := 2.0
	if p.Persistence > 0 {
		alpha = 1 / float64(p.Persistence)
	}
	octaves := int32(p.Octaves)
	if octaves < 1 {
		octaves = 1
	}
	gen := perlin.NewPerlin(alpha, 2, octaves, p.Seed)

	hf := Flat(size)
	inv := 1.0
	if size > 1 {
		inv = 1 / float64(size-1)
	}
	for j := 0; j < size; j++ {
		for i := 0; i < size; i++ {
			x := float64(i) * inv * float64(p.Frequency)
			y := float64(j) * inv * float64(p.Frequency)
			hf.Heights[j*size+i] = float32(gen.Noise3D(x, y, float64(t))) * p.Amplitude
		}
	}
	return hf
}

// At returns the height at (i, j), clamping to the edge like the
// computed-map sampler does.
func (h *HeightField) At(i, j int) float32 {
	i = clamp(i, 0, h.Size-1)
	j = clamp(j, 0, h.Size-1)
	return h.Heights[j*h.Size+i]
}

// RGBA expands the field into the RGBA32F layout of the height texture:
// the height in rgb and 1 in alpha.
func (h *HeightField) RGBA() []float32 {
	out := make([]float32, len(h.Heights)*4)
	for k, v := range h.Heights {
		out[k*4+0] = v
		out[k*4+1] = v
		out[k*4+2] = v
		out[k*4+3] = 1
	}
	return out
}

// Normal estimates the unit surface normal at (i, j) with central
// differences, matching the normal pass. Grid spacing is 2/(Size-1) since
// the terrain spans [-1, 1].
func (h *HeightField) Normal(i, j int) [3]float32 {
	step := float32(2)
	if h.Size > 1 {
		step = 2 / float32(h.Size-1)
	}
	dx := (h.At(i+1, j) - h.At(i-1, j)) / (2 * step)
	dy := (h.At(i, j+1) - h.At(i, j-1)) / (2 * step)
	return normalize([3]float32{-dx, -dy, 1})
}

// Diffuse returns the Lambert term max(n.l, 0) at (i, j) for a unit light vector.
func (h *HeightField) Diffuse(i, j int, light [3]float32) float32 {
	n := h.Normal(i, j)
	d := n[0]*light[0] + n[1]*light[1] + n[2]*light[2]
	if d < 0 {
		return 0
	}
	return d
}

func normalize(v [3]float32) [3]float32 {
	l := float32(math.Sqrt(float64(v[0]*v[0] + v[1]*v[1] + v[2]*v[2])))
	if l == 0 {
		return v
	}
	return [3]float32{v[0] / l, v[1] / l, v[2] / l}
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
