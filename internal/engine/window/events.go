package window

import (
	"github.com/veandco/go-sdl2/sdl"

	"github.com/Faultbox/terrain-viewer/internal/engine/input"
)

var keys = map[sdl.Scancode]input.Key{
	sdl.SCANCODE_A:      input.KeyToggleAnimation,
	sdl.SCANCODE_R:      input.KeyReloadShaders,
	sdl.SCANCODE_P:      input.KeyNoiseDebug,
	sdl.SCANCODE_N:      input.KeyNormalDebug,
	sdl.SCANCODE_I:      input.KeyResetCamera,
	sdl.SCANCODE_H:      input.KeyHelp,
	sdl.SCANCODE_F12:    input.KeyScreenshot,
	sdl.SCANCODE_ESCAPE: input.KeyQuit,
}

// PollEvents drains the SDL queue and returns the events the viewer
// understands, in arrival order. Sizes and pointer positions are in
// drawable pixels, so they match the GL viewport on HiDPI displays.
func (w *Window) PollEvents() []input.Event {
	var events []input.Event
	for event := sdl.PollEvent(); event != nil; event = sdl.PollEvent() {
		if ev, ok := w.translate(event); ok {
			events = append(events, ev)
		}
	}
	return events
}

func (w *Window) translate(event sdl.Event) (input.Event, bool) {
	switch e := event.(type) {
	case *sdl.QuitEvent:
		return input.Event{Type: input.EventQuit}, true

	case *sdl.WindowEvent:
		if e.Event == sdl.WINDOWEVENT_SIZE_CHANGED {
			// Data1/Data2 are in points; the viewer sizes its targets in pixels.
			dw, dh := w.DrawableSize()
			return input.Event{
				Type:   input.EventResize,
				Width:  dw,
				Height: dh,
			}, true
		}

	case *sdl.KeyboardEvent:
		if e.Type != sdl.KEYDOWN || e.Repeat != 0 {
			return input.Event{}, false
		}
		k, ok := keys[e.Keysym.Scancode]
		if !ok {
			return input.Event{}, false
		}
		return input.Event{Type: input.EventKeyDown, Key: k}, true

	case *sdl.MouseMotionEvent:
		x, y := w.toPixels(e.X, e.Y)
		return input.Event{
			Type: input.EventPointerMove,
			X:    x,
			Y:    y,
		}, true

	case *sdl.MouseButtonEvent:
		typ := input.EventPointerRelease
		if e.Type == sdl.MOUSEBUTTONDOWN {
			typ = input.EventPointerPress
		}
		x, y := w.toPixels(e.X, e.Y)
		return input.Event{
			Type:   typ,
			Button: button(e.Button),
			X:      x,
			Y:      y,
		}, true
	}
	return input.Event{}, false
}

// toPixels converts a pointer position from screen points to drawable pixels.
func (w *Window) toPixels(x, y int32) (int, int) {
	sx, sy := w.Scale()
	return input.ToPixels(int(x), sx), input.ToPixels(int(y), sy)
}

func button(b uint8) input.Button {
	switch b {
	case sdl.BUTTON_LEFT:
		return input.ButtonLeft
	case sdl.BUTTON_MIDDLE:
		return input.ButtonMiddle
	case sdl.BUTTON_RIGHT:
		return input.ButtonRight
	default:
		return input.ButtonNone
	}
}
