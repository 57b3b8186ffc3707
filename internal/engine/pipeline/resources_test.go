package pipeline

import (
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"

	"github.com/Faultbox/terrain-viewer/internal/engine/gpu"
	"github.com/Faultbox/terrain-viewer/internal/engine/gpu/gputest"
)

func setupResources(t *testing.T, grid int) (*Resources, *gputest.Recorder) {
	t.Helper()
	dev := gputest.New()
	r := NewResources(dev, grid, "")
	r.Setup(800, 600)
	if !r.Ready() {
		t.Fatal("resources not ready after Setup")
	}
	return r, dev
}

func size(tex interface{ Size() (int32, int32) }) [2]int32 {
	w, h := tex.Size()
	return [2]int32{w, h}
}

func TestSetupDefinesTargets(t *testing.T) {
	r, dev := setupResources(t, 512)

	if got := size(r.Computing.Texture(AttachHeight)); got != [2]int32{512, 512} {
		t.Errorf("height map size = %v", got)
	}
	if got := size(r.Computing.Texture(AttachNormal)); got != [2]int32{512, 512} {
		t.Errorf("normal map size = %v", got)
	}
	if got := size(r.PostProcess.Texture(AttachColor)); got != [2]int32{800, 600} {
		t.Errorf("scene color size = %v", got)
	}
	if got := size(r.PostProcess.Texture(AttachDepth)); got != [2]int32{800, 600} {
		t.Errorf("scene depth size = %v", got)
	}

	computing := dev.Framebuffers[r.Computing.FBO()]
	if computing.Attachments[gpu.AttachColor0] != r.Computing.Texture(AttachHeight).ID() {
		t.Error("height map is not on color 0")
	}
	if computing.Attachments[gpu.AttachColor1] != r.Computing.Texture(AttachNormal).ID() {
		t.Error("normal map is not on color 1")
	}
	post := dev.Framebuffers[r.PostProcess.FBO()]
	if post.Attachments[gpu.AttachDepth] != r.PostProcess.Texture(AttachDepth).ID() {
		t.Error("depth texture is not attached")
	}

	height := dev.Textures[r.Computing.Texture(AttachHeight).ID()]
	if height.Format != gpu.FormatRGBA32F || height.Sampler != gpu.SamplerNearestClamp {
		t.Errorf("height map format %s sampler %d", height.Format, height.Sampler)
	}

	if r.Terrain.Count() != int32(511*511*6) || !r.Terrain.Indexed() {
		t.Errorf("terrain draws %d indices (indexed %t)", r.Terrain.Count(), r.Terrain.Indexed())
	}
	if r.Quad.Count() != 6 || r.Quad.Indexed() {
		t.Errorf("quad draws %d vertices (indexed %t)", r.Quad.Count(), r.Quad.Indexed())
	}
	if len(dev.Errors) > 0 {
		t.Errorf("device errors: %v", dev.Errors)
	}
}

func TestResizeIsIdempotent(t *testing.T) {
	r, dev := setupResources(t, 512)
	allocs := dev.Allocs[gputest.ClassTexture]

	r.Resize(1024, 768)
	dev.ResetLog()
	r.Resize(1024, 768)

	if len(dev.Calls) != 0 {
		t.Errorf("second resize issued calls: %v", dev.Calls)
	}
	if got := size(r.PostProcess.Texture(AttachColor)); got != [2]int32{1024, 768} {
		t.Errorf("scene color size = %v", got)
	}
	if got := size(r.PostProcess.Texture(AttachDepth)); got != [2]int32{1024, 768} {
		t.Errorf("scene depth size = %v", got)
	}
	if got := size(r.Computing.Texture(AttachHeight)); got != [2]int32{512, 512} {
		t.Errorf("computed maps resized to %v", got)
	}
	if dev.Allocs[gputest.ClassTexture] != allocs {
		t.Error("resize allocated new textures")
	}
}

func TestResizeBeforeSetup(t *testing.T) {
	dev := gputest.New()
	r := NewResources(dev, testGrid, "")

	r.Resize(640, 480)

	if len(dev.Calls) != 0 {
		t.Errorf("resize before setup issued calls: %v", dev.Calls)
	}
	if w, h := r.SurfaceSize(); w != 640 || h != 480 {
		t.Errorf("recorded size %dx%d", w, h)
	}
	if r.Ready() {
		t.Error("resources ready without Setup")
	}
}

func TestTeardownReleasesInReverseOrder(t *testing.T) {
	r, dev := setupResources(t, testGrid)
	dev.ResetLog()

	r.Teardown()

	var deletes []string
	for _, c := range dev.Calls {
		if strings.HasPrefix(c, "Delete") {
			deletes = append(deletes, c)
		}
	}
	want := []string{
		"DeleteFramebuffer 2", "DeleteTexture 4", "DeleteTexture 5",
		"DeleteFramebuffer 1", "DeleteTexture 2", "DeleteTexture 3",
		"DeleteTexture 1",
		"DeleteVertexArray 1", "DeleteBuffer 1",
		"DeleteVertexArray 2", "DeleteBuffer 2", "DeleteBuffer 3",
	}
	if !slices.Equal(deletes, want) {
		t.Errorf("deletes = %v\nwant %v", deletes, want)
	}
	if err := dev.Balanced(); err != nil {
		t.Error(err)
	}

	r.Teardown()
	if err := dev.Balanced(); err != nil {
		t.Errorf("second teardown: %v", err)
	}
	if r.Ready() {
		t.Error("resources ready after teardown")
	}
}

func TestSetupAfterTeardown(t *testing.T) {
	r, dev := setupResources(t, testGrid)
	r.Teardown()
	r.Setup(320, 200)

	if !r.Ready() {
		t.Fatal("not ready after second Setup")
	}
	if got := size(r.PostProcess.Texture(AttachColor)); got != [2]int32{320, 200} {
		t.Errorf("scene color size = %v", got)
	}
	r.Teardown()
	if err := dev.Balanced(); err != nil {
		t.Error(err)
	}
}

func TestAlbedoFallback(t *testing.T) {
	r, dev := setupResources(t, testGrid)

	albedo := dev.Textures[r.Albedo.ID()]
	if albedo.Width != 256 || albedo.Height != 256 {
		t.Errorf("checker albedo is %dx%d", albedo.Width, albedo.Height)
	}
	if albedo.Sampler != gpu.SamplerLinearMipmapMirrored || !albedo.Mipmaps {
		t.Error("albedo should be mipmapped with mirrored repeat")
	}
}

func TestAlbedoFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "mountain.png")
	img := image.NewRGBA(image.Rect(0, 0, 4, 2))
	img.SetRGBA(0, 0, color.RGBA{R: 255, A: 255})
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	if err := png.Encode(f, img); err != nil {
		t.Fatal(err)
	}
	f.Close()

	dev := gputest.New()
	r := NewResources(dev, testGrid, path)
	r.Setup(800, 600)

	albedo := dev.Textures[r.Albedo.ID()]
	if albedo.Width != 4 || albedo.Height != 2 || albedo.Format != gpu.FormatRGBA8 {
		t.Errorf("albedo is %dx%d %s", albedo.Width, albedo.Height, albedo.Format)
	}
	// Top-left pixel ends up in the last row.
	if albedo.Pixels[4*4] != 255 {
		t.Error("albedo rows not flipped for upload")
	}
}
