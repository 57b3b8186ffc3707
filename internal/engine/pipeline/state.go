package pipeline

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

// DragMode selects what a pointer drag manipulates.
type DragMode int

const (
	DragCamera DragMode = iota
	DragLight
)

func (m DragMode) String() string {
	if m == DragLight {
		return "light"
	}
	return "camera"
}

// DefaultLight points straight at the viewer.
var DefaultLight = mgl32.Vec3{0, 0, 1}

// RenderState is the mutable state shared by input handling and the render
// stages. Input handlers write it; stages only read it.
type RenderState struct {
	// Light is the unit light direction in view space.
	Light mgl32.Vec3

	NoiseDebug  bool
	NormalDebug bool

	// Drag is set on pointer press and consumed by pointer moves while
	// Dragging is true.
	Drag     DragMode
	Dragging bool

	// Time feeds the noise pass; the animation timer advances it.
	Time float32

	Width, Height int
}

// NewRenderState returns the initial state for a width x height surface.
func NewRenderState(width, height int) *RenderState {
	return &RenderState{
		Light:  DefaultLight,
		Width:  width,
		Height: height,
	}
}

// SetLightFromPointer points the light at a window position given with a
// top-left origin.
func (s *RenderState) SetLightFromPointer(x, y int) {
	s.Light = LightFromPointer(x, y, s.Width, s.Height)
}

// LightFromPointer maps a window position to a light direction: the surface
// center gives (0, 0, 1) and the edges tilt the light down to the horizon.
func LightFromPointer(x, y, width, height int) mgl32.Vec3 {
	hw := float32(max(width, 2)) / 2
	hh := float32(max(height, 2)) / 2
	px := float32(x)
	py := float32(height - y)

	lx := (px - hw) / hw
	ly := (py - hh) / hh
	lz := 1 - float32(math.Max(math.Abs(float64(lx)), math.Abs(float64(ly))))

	v := mgl32.Vec3{lx, ly, lz}
	if v.Len() == 0 {
		return DefaultLight
	}
	return v.Normalize()
}
