package pipeline

import (
	"errors"
	"slices"
	"strings"
	"testing"

	"github.com/Faultbox/terrain-viewer/internal/engine/camera"
	"github.com/Faultbox/terrain-viewer/internal/engine/gpu"
	"github.com/Faultbox/terrain-viewer/internal/engine/gpu/gputest"
	"github.com/Faultbox/terrain-viewer/internal/engine/input"
	"github.com/Faultbox/terrain-viewer/internal/engine/terrain"
)

func TestFramesAreDeterministic(t *testing.T) {
	for _, source := range []HeightSource{HeightGPU, HeightCPU, HeightFlat} {
		t.Run(string(source), func(t *testing.T) {
			v, dev := readyViewer(t, testOptions(source))

			first := renderFrame(t, v, dev)
			for i := 0; i < 3; i++ {
				if next := renderFrame(t, v, dev); !slices.Equal(first, next) {
					t.Fatalf("frame %d differs from the first", i+2)
				}
			}
			if len(dev.Errors) > 0 {
				t.Errorf("device errors: %v", dev.Errors)
			}
		})
	}
}

func TestStageOrderingWithinFrame(t *testing.T) {
	v, dev := readyViewer(t, testOptions(HeightGPU))
	renderFrame(t, v, dev)
	res := v.Resources()

	noise := drawOf(t, dev, markNoise)
	normals := drawOf(t, dev, markNormal)
	scene := drawOf(t, dev, markScene)
	post := drawOf(t, dev, markPost)

	if !(noise.Seq < normals.Seq && normals.Seq < scene.Seq && scene.Seq < post.Seq) {
		t.Fatalf("draw order %d %d %d %d", noise.Seq, normals.Seq, scene.Seq, post.Seq)
	}

	height := res.Computing.Texture(AttachHeight).ID()
	normal := res.Computing.Texture(AttachNormal).ID()

	if !slices.Equal(noise.Written, []uint32{height}) {
		t.Errorf("noise pass wrote %v, want height map %d", noise.Written, height)
	}
	if !slices.Equal(normals.Written, []uint32{normal}) {
		t.Errorf("normal pass wrote %v, want normal map %d", normals.Written, normal)
	}

	// Each reader sees the contents written earlier in the same frame.
	checks := []struct {
		name    string
		draw    gputest.Draw
		sampler string
		tex     uint32
		gen     uint64
	}{
		{"normals", normals, "heightmap", height, noise.Seq},
		{"scene", scene, "heightmap", height, noise.Seq},
		{"scene", scene, "normalMap", normal, normals.Seq},
		{"postprocess", post, "renderedMap", res.PostProcess.Texture(AttachColor).ID(), scene.Seq},
	}
	for _, c := range checks {
		s, ok := c.draw.Sampled[c.sampler]
		if !ok {
			t.Errorf("%s did not sample %s", c.name, c.sampler)
			continue
		}
		if s.Texture != c.tex || s.Gen != c.gen {
			t.Errorf("%s sampled %s as texture %d gen %d, want texture %d gen %d",
				c.name, c.sampler, s.Texture, s.Gen, c.tex, c.gen)
		}
	}
}

func TestPassState(t *testing.T) {
	v, dev := readyViewer(t, testOptions(HeightGPU))
	renderFrame(t, v, dev)
	res := v.Resources()

	grid := [4]int32{0, 0, testGrid, testGrid}
	surface := [4]int32{0, 0, 800, 600}

	noise := drawOf(t, dev, markNoise)
	if noise.Viewport != grid || noise.DepthTest || noise.Framebuffer != res.Computing.FBO() {
		t.Errorf("noise pass: viewport %v depth %t fbo %d", noise.Viewport, noise.DepthTest, noise.Framebuffer)
	}
	if !slices.Equal(noise.DrawBuffers, []gpu.Attachment{gpu.AttachColor0}) {
		t.Errorf("noise pass draw buffers %v", noise.DrawBuffers)
	}

	normals := drawOf(t, dev, markNormal)
	if !slices.Equal(normals.DrawBuffers, []gpu.Attachment{gpu.AttachColor1}) {
		t.Errorf("normal pass draw buffers %v", normals.DrawBuffers)
	}

	scene := drawOf(t, dev, markScene)
	if scene.Viewport != surface || !scene.DepthTest || !scene.DepthMask {
		t.Errorf("scene pass: viewport %v depth %t mask %t", scene.Viewport, scene.DepthTest, scene.DepthMask)
	}
	if scene.Framebuffer != res.PostProcess.FBO() || !slices.Equal(scene.DrawBuffers, []gpu.Attachment{gpu.AttachColor0}) {
		t.Errorf("scene pass target %d buffers %v", scene.Framebuffer, scene.DrawBuffers)
	}
	faces := (testGrid - 1) * (testGrid - 1) * 2
	if !scene.Indexed || scene.Count != int32(3*faces) || scene.VertexArray != res.Terrain.VAO() {
		t.Errorf("scene draw indexed %t count %d vao %d", scene.Indexed, scene.Count, scene.VertexArray)
	}
	if s := scene.Sampled["mountainText"]; s.Texture != res.Albedo.ID() {
		t.Errorf("albedo sampled from texture %d", s.Texture)
	}
	if !slices.Contains(scene.Written, res.PostProcess.Texture(AttachDepth).ID()) {
		t.Error("scene pass did not write depth")
	}

	post := drawOf(t, dev, markPost)
	if post.Framebuffer != gpu.DefaultFramebuffer || post.Viewport != surface || post.DepthTest {
		t.Errorf("postprocess: fbo %d viewport %v depth %t", post.Framebuffer, post.Viewport, post.DepthTest)
	}

	// Every pass clears its target before drawing.
	var cleared []uint32
	for _, c := range dev.Clears {
		cleared = append(cleared, c.Framebuffer)
	}
	want := []uint32{res.Computing.FBO(), res.Computing.FBO(), res.PostProcess.FBO(), gpu.DefaultFramebuffer}
	if !slices.Equal(cleared, want) {
		t.Errorf("clears on %v, want %v", cleared, want)
	}
	if dev.Clears[1].Mask != gpu.ClearColor|gpu.ClearDepth || dev.Clears[0].Mask != gpu.ClearColor {
		t.Errorf("clear masks %v %v", dev.Clears[0].Mask, dev.Clears[1].Mask)
	}
}

func TestResizeMovesSceneViewport(t *testing.T) {
	v, dev := readyViewer(t, testOptions(HeightGPU))

	v.OnResize(1024, 768)
	v.OnResize(1024, 768)
	renderFrame(t, v, dev)

	if got := drawOf(t, dev, markScene).Viewport; got != [4]int32{0, 0, 1024, 768} {
		t.Errorf("scene viewport %v", got)
	}
	if got := drawOf(t, dev, markNoise).Viewport; got != [4]int32{0, 0, testGrid, testGrid} {
		t.Errorf("noise viewport %v", got)
	}
	if w, h := v.Resources().Computing.Size(); w != testGrid || h != testGrid {
		t.Errorf("computed maps are %dx%d", w, h)
	}
}

func TestDebugToggles(t *testing.T) {
	v, dev := readyViewer(t, testOptions(HeightGPU))
	baseline := renderFrame(t, v, dev)
	press := func(k input.Key) { v.OnInput(input.Event{Type: input.EventKeyDown, Key: k}) }

	press(input.KeyNoiseDebug)
	press(input.KeyNoiseDebug)
	if v.State().NoiseDebug {
		t.Fatal("two presses should restore the flag")
	}
	if got := renderFrame(t, v, dev); !slices.Equal(got, baseline) {
		t.Error("frame changed after toggling debug twice")
	}

	press(input.KeyNoiseDebug)
	renderFrame(t, v, dev)
	debug := drawOf(t, dev, markDebugNoise)
	post := drawOf(t, dev, markPost)
	if debug.Seq < post.Seq {
		t.Error("debug view drawn before the composite")
	}
	if debug.Viewport != [4]int32{0, 0, testGrid, testGrid} || debug.Framebuffer != gpu.DefaultFramebuffer {
		t.Errorf("debug view viewport %v fbo %d", debug.Viewport, debug.Framebuffer)
	}
	if s := debug.Sampled["noiseMap"]; s.Texture != v.Resources().Computing.Texture(AttachHeight).ID() {
		t.Errorf("debug view sampled texture %d", s.Texture)
	}

	press(input.KeyNormalDebug)
	renderFrame(t, v, dev)
	last := dev.Draws[len(dev.Draws)-1]
	if last.Program != dev.ProgramBySource(markDebugNormal) {
		t.Error("normal debug view should be drawn last")
	}
	if s := last.Sampled["normalMap"]; s.Texture != v.Resources().Computing.Texture(AttachNormal).ID() {
		t.Errorf("normal debug view sampled texture %d", s.Texture)
	}
}

func TestFlatTerrainBaseline(t *testing.T) {
	v, dev := readyViewer(t, testOptions(HeightFlat))
	renderFrame(t, v, dev)
	res := v.Resources()

	if id := dev.ProgramBySource(markNoise); id != 0 {
		t.Error("noise program compiled for the flat source")
	}

	height := dev.Textures[res.Computing.Texture(AttachHeight).ID()]
	if len(height.Floats) != testGrid*testGrid*4 {
		t.Fatalf("height map holds %d floats", len(height.Floats))
	}
	for i := 0; i < len(height.Floats); i += 4 {
		if height.Floats[i] != 0 || height.Floats[i+1] != 0 || height.Floats[i+2] != 0 || height.Floats[i+3] != 1 {
			t.Fatalf("texel %d = %v", i/4, height.Floats[i:i+4])
		}
	}

	normals := drawOf(t, dev, markNormal)
	if s := normals.Sampled["heightmap"]; s.Gen != height.Gen {
		t.Errorf("normal pass sampled height gen %d, upload is gen %d", s.Gen, height.Gen)
	}

	scene := drawOf(t, dev, markScene)
	cam := camera.NewTrackball(800, 600)
	if scene.Uniforms["lightVector"] != [3]float32{0, 0, 1} {
		t.Errorf("light = %v", scene.Uniforms["lightVector"])
	}
	if scene.Uniforms["mdvMat"] != [16]float32(cam.MdvMatrix()) {
		t.Errorf("model-view = %v", scene.Uniforms["mdvMat"])
	}
	if scene.Uniforms["projMat"] != [16]float32(cam.ProjMatrix()) {
		t.Errorf("projection = %v", scene.Uniforms["projMat"])
	}
	if scene.Uniforms["normalMatrix"] != [9]float32{1, 0, 0, 0, 1, 0, 0, 0, 1} {
		t.Errorf("normal matrix = %v", scene.Uniforms["normalMatrix"])
	}
	if scene.Viewport != [4]int32{0, 0, 800, 600} {
		t.Errorf("viewport = %v", scene.Viewport)
	}

	// A flat field lit head-on shades every texel the same. This runs on the
	// CPU normals, which mirror the central differences in shaders/normal.frag.
	field := terrain.Flat(testGrid)
	light := [3]float32(DefaultLight)
	for j := 0; j < testGrid; j++ {
		for i := 0; i < testGrid; i++ {
			if d := field.Diffuse(i, j, light); d != 1 {
				t.Fatalf("diffuse at (%d,%d) = %v", i, j, d)
			}
		}
	}
}

func TestResourceSymmetry(t *testing.T) {
	v, dev := readyViewer(t, testOptions(HeightGPU))

	renderFrame(t, v, dev)
	v.OnResize(1024, 768)
	v.OnResize(640, 480)
	v.OnInput(input.Event{Type: input.EventKeyDown, Key: input.KeyNormalDebug})
	v.OnInput(input.Event{Type: input.EventKeyDown, Key: input.KeyReloadShaders})
	renderFrame(t, v, dev)

	v.OnTeardown()

	if err := dev.Balanced(); err != nil {
		t.Error(err)
	}
	v.OnTeardown()
	if err := dev.Balanced(); err != nil {
		t.Errorf("second teardown: %v", err)
	}
}

func TestShaderFailureDoesNotAbortFrame(t *testing.T) {
	dev := gputest.New()
	dev.CompileError = func(_, fs string) error {
		if strings.Contains(fs, markScene) {
			return errors.New("0:12: 'texture' : no matching overloaded function")
		}
		return nil
	}
	v := NewViewer(dev, testOptions(HeightGPU))
	if err := v.OnReady(800, 600); err != nil {
		t.Fatalf("OnReady: %v", err)
	}
	if !v.Pump(t0) {
		t.Fatal("frame not rendered")
	}

	if s := v.Orchestrator().Stats(); s.Stages["scene"] != 1 || s.Stages["postprocess"] != 1 {
		t.Errorf("stages = %v", s.Stages)
	}
	var sceneDraws int
	for _, d := range dev.Draws {
		if d.Program == 0 {
			sceneDraws++
		}
	}
	if sceneDraws != 1 {
		t.Errorf("expected the scene to draw with no program, got %d such draws", sceneDraws)
	}

	dev.CompileError = nil
	if err := v.ReloadShaders(); err != nil {
		t.Fatalf("reload: %v", err)
	}
	renderFrame(t, v, dev)
	if id := dev.ProgramBySource(markScene); id == 0 || len(dev.DrawsWith(id)) != 1 {
		t.Error("reloaded scene program not used")
	}
}

func TestReloadKeepsStagesWired(t *testing.T) {
	v, dev := readyViewer(t, testOptions(HeightGPU))
	old := dev.ProgramBySource(markScene)

	v.OnInput(input.Event{Type: input.EventKeyDown, Key: input.KeyReloadShaders})
	renderFrame(t, v, dev)

	id := dev.ProgramBySource(markScene)
	if id == old {
		t.Fatal("scene program was not rebuilt")
	}
	if _, live := dev.Programs[old]; live {
		t.Error("old scene program still alive")
	}
	if d := drawOf(t, dev, markScene); d.Uniforms["mountainText"] != int32(unitAlbedo) {
		t.Errorf("uniforms not set on the rebuilt program: %v", d.Uniforms)
	}
}
