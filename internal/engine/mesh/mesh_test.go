package mesh

import (
	"testing"

	"github.com/Faultbox/terrain-viewer/internal/engine/gpu/gputest"
	"github.com/Faultbox/terrain-viewer/internal/engine/terrain"
)

func TestQuadIsUnindexed(t *testing.T) {
	dev := gputest.New()
	quad := New(dev, terrain.Quad())

	if quad.Indexed() || quad.Count() != 6 {
		t.Fatalf("expected 6 unindexed vertices, got indexed=%t count=%d", quad.Indexed(), quad.Count())
	}
	if dev.Allocs[gputest.ClassBuffer] != 1 || dev.Allocs[gputest.ClassVertexArray] != 1 {
		t.Errorf("unexpected allocations %v", dev.Allocs)
	}

	quad.Draw()
	d := dev.Draws[0]
	if d.Indexed || d.Count != 6 || d.VertexArray != quad.VAO() {
		t.Errorf("unexpected draw %+v", d)
	}
}

func TestGridDrawsAllIndices(t *testing.T) {
	dev := gputest.New()
	g := terrain.Grid(8, -1, 1)
	grid := New(dev, g)

	grid.Draw()

	d := dev.Draws[0]
	if !d.Indexed || d.Count != int32(3*g.NumFaces()) {
		t.Errorf("expected indexed draw of %d indices, got %+v", 3*g.NumFaces(), d)
	}
	if dev.Allocs[gputest.ClassBuffer] != 2 {
		t.Errorf("expected vertex and index buffers, got %d", dev.Allocs[gputest.ClassBuffer])
	}
}

func TestDestroyBalanced(t *testing.T) {
	dev := gputest.New()
	quad := New(dev, terrain.Quad())
	grid := New(dev, terrain.Grid(4, -1, 1))

	grid.Destroy()
	quad.Destroy()
	quad.Destroy()

	if err := dev.Balanced(); err != nil {
		t.Error(err)
	}
}
