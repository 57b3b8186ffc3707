package pipeline

import (
	"fmt"
	"strings"
)

// Slot names a texture (or the screen) passed between stages.
type Slot string

const (
	SlotHeight Slot = "height"
	SlotNormal Slot = "normal"
	SlotColor  Slot = "color"
	SlotScreen Slot = "screen"
)

// Viewport selects the drawing area of a stage.
type Viewport int

const (
	// ViewportGrid covers the computed-map resolution.
	ViewportGrid Viewport = iota
	// ViewportSurface covers the whole surface.
	ViewportSurface
)

// PassState is the fixed-function state a stage runs under. The
// orchestrator applies it before Run.
type PassState struct {
	Viewport  Viewport
	DepthTest bool
}

// Stage is one render pass. Reads and Writes declare the slots it consumes
// and produces; the graph orders stages from them.
type Stage interface {
	Name() string
	Reads() []Slot
	Writes() []Slot
	Pass() PassState
	Enabled(s *RenderState) bool
	Run(f *Frame)
}

// Graph is a validated, topologically ordered set of stages.
type Graph struct {
	order []Stage
	deps  map[string][]string
}

// NewGraph orders stages so that every writer of a slot runs before its
// readers. Stages writing the same slot run in registration order, so a
// later writer overwrites an earlier one. Stage names must be unique, every
// read slot needs a writer, and cycles are rejected. Among independent
// stages registration order is kept.
func NewGraph(stages ...Stage) (*Graph, error) {
	index := make(map[string]int, len(stages))
	writers := make(map[Slot][]int)
	for i, s := range stages {
		if _, dup := index[s.Name()]; dup {
			return nil, fmt.Errorf("duplicate stage %q", s.Name())
		}
		index[s.Name()] = i
		for _, slot := range s.Writes() {
			writers[slot] = append(writers[slot], i)
		}
	}

	edges := make([][]int, len(stages))
	indeg := make([]int, len(stages))
	seen := make(map[[2]int]bool)
	addEdge := func(from, to int) {
		if from == to || seen[[2]int{from, to}] {
			return
		}
		seen[[2]int{from, to}] = true
		edges[from] = append(edges[from], to)
		indeg[to]++
	}

	for _, ws := range writers {
		for k := 1; k < len(ws); k++ {
			addEdge(ws[k-1], ws[k])
		}
	}
	for i, s := range stages {
		for _, slot := range s.Reads() {
			ws, ok := writers[slot]
			if !ok {
				return nil, fmt.Errorf("stage %q reads %q, which no stage writes", s.Name(), slot)
			}
			for _, w := range ws {
				addEdge(w, i)
			}
		}
	}

	g := &Graph{deps: make(map[string][]string, len(stages))}
	for from, tos := range edges {
		for _, to := range tos {
			name := stages[to].Name()
			g.deps[name] = append(g.deps[name], stages[from].Name())
		}
	}

	done := make([]bool, len(stages))
	for len(g.order) < len(stages) {
		next := -1
		for i := range stages {
			if !done[i] && indeg[i] == 0 {
				next = i
				break
			}
		}
		if next < 0 {
			var stuck []string
			for i, s := range stages {
				if !done[i] {
					stuck = append(stuck, s.Name())
				}
			}
			return nil, fmt.Errorf("stage graph has a cycle among %s", strings.Join(stuck, ", "))
		}
		done[next] = true
		g.order = append(g.order, stages[next])
		for _, to := range edges[next] {
			indeg[to]--
		}
	}
	return g, nil
}

// Order returns the stages in execution order.
func (g *Graph) Order() []Stage {
	return g.order
}

// Names returns the stage names in execution order.
func (g *Graph) Names() []string {
	names := make([]string, len(g.order))
	for i, s := range g.order {
		names[i] = s.Name()
	}
	return names
}

// DependsOn returns the stages that must run before the named stage.
func (g *Graph) DependsOn(name string) []string {
	return g.deps[name]
}
