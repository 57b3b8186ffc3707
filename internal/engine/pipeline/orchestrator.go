package pipeline

import (
	"time"

	"go.uber.org/zap"

	"github.com/Faultbox/terrain-viewer/internal/engine/gpu"
	"github.com/Faultbox/terrain-viewer/internal/logger"
)

// FrameState is the orchestrator's render state.
type FrameState int

const (
	Idle FrameState = iota
	Rendering
)

func (s FrameState) String() string {
	if s == Rendering {
		return "rendering"
	}
	return "idle"
}

// Timer is the periodic animation clock. Each elapsed interval is one tick.
type Timer struct {
	Interval time.Duration

	running bool
	primed  bool
	last    time.Time
}

// Start resumes ticking. The first Advance after Start only sets the origin.
func (t *Timer) Start() {
	t.running = true
	t.primed = false
}

// Stop pauses ticking.
func (t *Timer) Stop() {
	t.running = false
}

// Toggle starts a stopped timer or stops a running one and reports whether
// it is now running.
func (t *Timer) Toggle() bool {
	if t.running {
		t.Stop()
	} else {
		t.Start()
	}
	return t.running
}

// Running reports whether the timer ticks.
func (t *Timer) Running() bool { return t.running }

// Advance returns the number of whole intervals elapsed since the last tick.
func (t *Timer) Advance(now time.Time) int {
	if !t.running || t.Interval <= 0 {
		return 0
	}
	if !t.primed {
		t.primed = true
		t.last = now
		return 0
	}
	elapsed := now.Sub(t.last)
	if elapsed < t.Interval {
		return 0
	}
	n := elapsed / t.Interval
	t.last = t.last.Add(n * t.Interval)
	return int(n)
}

// Stats counts orchestrator activity.
type Stats struct {
	Frames   uint64
	Skipped  uint64
	Requests uint64
	Ticks    uint64
	Stages   map[string]uint64
}

// Orchestrator runs the stage graph once per coalesced redraw request.
type Orchestrator struct {
	graph    *Graph
	frame    Frame
	timer    Timer
	timeStep float32

	pending bool
	state   FrameState
	stats   Stats
}

// NewOrchestrator returns an idle orchestrator over graph. Each timer tick
// advances State.Time by timeStep and requests a redraw.
func NewOrchestrator(graph *Graph, frame Frame, interval time.Duration, timeStep float32) *Orchestrator {
	return &Orchestrator{
		graph:    graph,
		frame:    frame,
		timer:    Timer{Interval: interval},
		timeStep: timeStep,
		stats:    Stats{Stages: make(map[string]uint64)},
	}
}

// Timer returns the animation timer.
func (o *Orchestrator) Timer() *Timer { return &o.timer }

// Graph returns the stage graph.
func (o *Orchestrator) Graph() *Graph { return o.graph }

// State returns Idle or Rendering.
func (o *Orchestrator) State() FrameState { return o.state }

// Pending reports whether a redraw is scheduled.
func (o *Orchestrator) Pending() bool { return o.pending }

// RequestRedraw schedules a frame. Requests made before the next Pump
// collapse into one frame.
func (o *Orchestrator) RequestRedraw() {
	o.pending = true
	o.stats.Requests++
}

// Pump advances the animation timer to now and renders one frame if a
// redraw is pending. It reports whether a frame was rendered.
func (o *Orchestrator) Pump(now time.Time) bool {
	if ticks := o.timer.Advance(now); ticks > 0 {
		o.stats.Ticks += uint64(ticks)
		o.frame.State.Time += o.timeStep * float32(ticks)
		o.RequestRedraw()
	}
	if !o.pending {
		return false
	}
	o.pending = false
	return o.Render()
}

// Render runs every enabled stage in graph order. The frame is skipped when
// the resources are not set up.
func (o *Orchestrator) Render() bool {
	if o.frame.Res == nil || !o.frame.Res.Ready() {
		o.stats.Skipped++
		logger.Named("pipeline").Debug("frame skipped, surface not ready")
		return false
	}

	o.state = Rendering
	dev := o.frame.Dev
	var applied *PassState
	for _, s := range o.graph.Order() {
		if !s.Enabled(o.frame.State) {
			continue
		}
		pass := s.Pass()
		if applied == nil || applied.Viewport != pass.Viewport {
			o.applyViewport(pass.Viewport)
		}
		if applied == nil || applied.DepthTest != pass.DepthTest {
			dev.SetDepthTest(pass.DepthTest)
			dev.DepthMask(pass.DepthTest)
		}
		applied = &pass

		s.Run(&o.frame)
		o.stats.Stages[s.Name()]++
	}
	dev.UseProgram(0)
	dev.BindVertexArray(0)
	dev.BindFramebuffer(gpu.DefaultFramebuffer)

	o.stats.Frames++
	o.state = Idle
	if o.stats.Frames == 1 {
		logger.Named("pipeline").Info("first frame rendered", zap.Strings("stages", o.graph.Names()))
	}
	return true
}

func (o *Orchestrator) applyViewport(v Viewport) {
	if v == ViewportGrid {
		n := int32(o.frame.Res.GridSize())
		o.frame.Dev.Viewport(0, 0, n, n)
		return
	}
	w, h := o.frame.Res.SurfaceSize()
	o.frame.Dev.Viewport(0, 0, w, h)
}

// Stats returns a snapshot of the counters.
func (o *Orchestrator) Stats() Stats {
	s := o.stats
	s.Stages = make(map[string]uint64, len(o.stats.Stages))
	for k, v := range o.stats.Stages {
		s.Stages[k] = v
	}
	return s
}
