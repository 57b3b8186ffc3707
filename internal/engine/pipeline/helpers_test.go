package pipeline

import (
	"slices"
	"testing"
	"time"

	"github.com/Faultbox/terrain-viewer/internal/engine/gpu/gputest"
	"github.com/Faultbox/terrain-viewer/internal/engine/terrain"
)

const testGrid = 16

var t0 = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

func testOptions(source HeightSource) Options {
	return Options{
		GridSize: testGrid,
		Source:   source,
		Noise: terrain.NoiseParams{
			Seed:        1,
			Octaves:     2,
			Frequency:   4,
			Persistence: 0.5,
			Amplitude:   1,
		},
		Interval: 10 * time.Millisecond,
	}
}

func readyViewer(t *testing.T, opts Options) (*Viewer, *gputest.Recorder) {
	t.Helper()
	dev := gputest.New()
	v := NewViewer(dev, opts)
	if err := v.OnReady(800, 600); err != nil {
		t.Fatalf("OnReady: %v", err)
	}
	if !v.Pump(t0) {
		t.Fatal("first frame was not rendered")
	}
	return v, dev
}

// renderFrame renders one frame with a fresh call log and returns the log.
func renderFrame(t *testing.T, v *Viewer, dev *gputest.Recorder) []string {
	t.Helper()
	dev.ResetLog()
	v.Orchestrator().RequestRedraw()
	if !v.Pump(t0) {
		t.Fatal("frame was not rendered")
	}
	return slices.Clone(dev.Calls)
}

// drawOf returns the single draw issued with the program whose fragment
// source contains marker.
func drawOf(t *testing.T, dev *gputest.Recorder, marker string) gputest.Draw {
	t.Helper()
	id := dev.ProgramBySource(marker)
	if id == 0 {
		t.Fatalf("no program for %q", marker)
	}
	draws := dev.DrawsWith(id)
	if len(draws) != 1 {
		t.Fatalf("expected one %q draw, got %d", marker, len(draws))
	}
	return draws[0]
}

const (
	markNoise       = "height pass"
	markNormal      = "normal pass"
	markScene       = "scene pass"
	markPost        = "postprocess pass"
	markDebugNoise  = "debug view: height"
	markDebugNormal = "debug view: normal"
)

// fakeStage declares slots only; it is used to exercise graph ordering.
type fakeStage struct {
	name   string
	reads  []Slot
	writes []Slot
}

func (s *fakeStage) Name() string { return s.name }
func (s *fakeStage) Reads() []Slot { return s.reads }
func (s *fakeStage) Writes() []Slot { return s.writes }
func (s *fakeStage) Pass() PassState { return PassState{} }
func (s *fakeStage) Enabled(*RenderState) bool { return true }
func (s *fakeStage) Run(*Frame) {}
