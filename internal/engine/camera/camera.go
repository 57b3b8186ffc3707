// Package camera provides the trackball camera used to inspect the terrain.
package camera

import (
	gomath "math"

	"github.com/go-gl/mathgl/mgl32"
)

// Default view parameters.
const (
	DefaultDistance = float32(3.0)
	DefaultFovY     = float32(45.0) // degrees
	NearPlane       = float32(0.1)
	FarPlane        = float32(100.0)

	MinDistance = float32(0.5)
	MaxDistance = float32(20.0)

	// ZoomSensitivity is the distance change per pixel of vertical drag.
	ZoomSensitivity = float32(0.01)
)

type mode int

const (
	modeNone mode = iota
	modeRotate
	modeMoveZ
)

// Trackball rotates the scene around the origin with a virtual sphere and
// moves the eye along the view axis. Points are in window pixels with the
// origin at the bottom-left corner.
type Trackball struct {
	width, height int

	rotation mgl32.Quat
	distance float32
	fovY     float32

	mode       mode
	start      mgl32.Vec2
	startRot   mgl32.Quat
	startDist  float32
	startPoint mgl32.Vec3
}

// NewTrackball returns a camera at its default position for a w x h surface.
func NewTrackball(w, h int) *Trackball {
	c := &Trackball{}
	c.Initialize(w, h, true)
	return c
}

// Initialize sets the surface size. With replace it also resets the view to
// its default position and orientation.
func (c *Trackball) Initialize(w, h int, replace bool) {
	c.width = max(w, 1)
	c.height = max(h, 1)
	if replace {
		c.rotation = mgl32.QuatIdent()
		c.distance = DefaultDistance
		c.fovY = DefaultFovY
		c.mode = modeNone
	}
}

// Reset restores the default view for the current surface size.
func (c *Trackball) Reset() {
	c.Initialize(c.width, c.height, true)
}

// Size returns the surface size the projection is built for.
func (c *Trackball) Size() (int, int) {
	return c.width, c.height
}

// Distance returns the eye distance from the origin.
func (c *Trackball) Distance() float32 {
	return c.distance
}

// Rotation returns the current scene orientation.
func (c *Trackball) Rotation() mgl32.Quat {
	return c.rotation
}

// InitRotation starts a rotation drag at p.
func (c *Trackball) InitRotation(p mgl32.Vec2) {
	c.mode = modeRotate
	c.start = p
	c.startRot = c.rotation
	c.startPoint = c.sphere(p)
}

// InitMoveZ starts a dolly drag at p.
func (c *Trackball) InitMoveZ(p mgl32.Vec2) {
	c.mode = modeMoveZ
	c.start = p
	c.startDist = c.distance
}

// Move applies the active drag for the pointer now at p.
func (c *Trackball) Move(p mgl32.Vec2) {
	switch c.mode {
	case modeRotate:
		to := c.sphere(p)
		if to.ApproxEqual(c.startPoint) {
			c.rotation = c.startRot
			return
		}
		delta := mgl32.QuatBetweenVectors(c.startPoint, to)
		c.rotation = delta.Mul(c.startRot).Normalize()
	case modeMoveZ:
		d := c.startDist - (p.Y()-c.start.Y())*ZoomSensitivity
		c.distance = mgl32.Clamp(d, MinDistance, MaxDistance)
	}
}

// Release ends the active drag.
func (c *Trackball) Release() {
	c.mode = modeNone
}

// sphere projects a window point onto the unit trackball sphere, falling
// back to a hyperbolic sheet outside it.
func (c *Trackball) sphere(p mgl32.Vec2) mgl32.Vec3 {
	r := float32(min(c.width, c.height)) / 2
	x := (p.X() - float32(c.width)/2) / r
	y := (p.Y() - float32(c.height)/2) / r

	d2 := x*x + y*y
	var z float32
	if d2 <= 0.5 {
		z = float32(gomath.Sqrt(float64(1 - d2)))
	} else {
		z = 0.5 / float32(gomath.Sqrt(float64(d2)))
	}
	return mgl32.Vec3{x, y, z}.Normalize()
}

// MdvMatrix returns the model-view matrix.
func (c *Trackball) MdvMatrix() mgl32.Mat4 {
	return mgl32.Translate3D(0, 0, -c.distance).Mul4(c.rotation.Mat4())
}

// ProjMatrix returns the perspective projection.
func (c *Trackball) ProjMatrix() mgl32.Mat4 {
	aspect := float32(c.width) / float32(c.height)
	return mgl32.Perspective(mgl32.DegToRad(c.fovY), aspect, NearPlane, FarPlane)
}

// NormalMatrix returns the inverse transpose of the model-view's upper 3x3.
func (c *Trackball) NormalMatrix() mgl32.Mat3 {
	return c.MdvMatrix().Mat3().Inv().Transpose()
}
