// Package input defines host-neutral input events consumed by the viewer.
// Window hosts translate their native events into these.
package input

import "math"

// EventType identifies the kind of event.
type EventType int

const (
	EventNone EventType = iota
	EventQuit
	EventResize
	EventKeyDown
	EventPointerPress
	EventPointerRelease
	EventPointerMove
)

// Button is a pointer button.
type Button uint8

const (
	ButtonNone Button = iota
	ButtonLeft
	ButtonMiddle
	ButtonRight
)

// Key is a viewer command key.
type Key int

const (
	KeyUnknown Key = iota
	KeyToggleAnimation
	KeyReloadShaders
	KeyNoiseDebug
	KeyNormalDebug
	KeyResetCamera
	KeyHelp
	KeyScreenshot
	KeyQuit
)

// String returns the key label shown in the shortcut help.
func (k Key) String() string {
	switch k {
	case KeyToggleAnimation:
		return "A"
	case KeyReloadShaders:
		return "R"
	case KeyNoiseDebug:
		return "P"
	case KeyNormalDebug:
		return "N"
	case KeyResetCamera:
		return "I"
	case KeyHelp:
		return "H"
	case KeyScreenshot:
		return "F12"
	case KeyQuit:
		return "Esc"
	default:
		return "?"
	}
}

// Event is a processed input event. Pointer coordinates are window pixels
// with the origin at the top-left corner, as hosts report them.
type Event struct {
	Type   EventType
	Key    Key
	Button Button
	X, Y   int

	// Width and Height are set for EventResize.
	Width, Height int
}

// Shortcut describes one key binding.
type Shortcut struct {
	Key         Key
	Description string
}

// Shortcuts lists the key bindings in help order.
var Shortcuts = []Shortcut{
	{KeyToggleAnimation, "play/stop the animation"},
	{KeyReloadShaders, "reload shaders"},
	{KeyNoiseDebug, "show/hide the height map"},
	{KeyNormalDebug, "show/hide the normal map"},
	{KeyResetCamera, "reset the camera"},
	{KeyHelp, "print this help"},
	{KeyScreenshot, "save a screenshot"},
	{KeyQuit, "quit"},
}

// Pointer bindings, for the help output.
var PointerBindings = []struct {
	Button      Button
	Description string
}{
	{ButtonLeft, "rotate the camera"},
	{ButtonMiddle, "move the camera along its view axis"},
	{ButtonRight, "set the light direction"},
}

// String returns the button name.
func (b Button) String() string {
	switch b {
	case ButtonLeft:
		return "left"
	case ButtonMiddle:
		return "middle"
	case ButtonRight:
		return "right"
	default:
		return "none"
	}
}

// PixelScale returns drawable pixels per screen point. Hosts report sizes
// in points while the GPU surface is sized in pixels; they differ on HiDPI
// displays. Unknown sizes give 1.
func PixelScale(pixels, points int) float64 {
	if points <= 0 || pixels <= 0 {
		return 1
	}
	return float64(pixels) / float64(points)
}

// ToPixels converts a pointer coordinate in points to pixels.
func ToPixels(v int, scale float64) int {
	return int(math.Round(float64(v) * scale))
}
