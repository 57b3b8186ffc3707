// Package gputest provides a recording gpu.Device for tests. It keeps enough
// state to check object lifetimes, framebuffer attachments, draw-buffer
// selection and which texture contents each draw call sampled.
package gputest

import (
	"fmt"
	"sort"
	"strings"

	"github.com/Faultbox/terrain-viewer/internal/engine/gpu"
)

// Class identifies a kind of GPU object.
type Class string

const (
	ClassTexture     Class = "texture"
	ClassFramebuffer Class = "framebuffer"
	ClassBuffer      Class = "buffer"
	ClassVertexArray Class = "vertex-array"
	ClassProgram     Class = "program"
)

// Texture is the recorded state of a texture object.
type Texture struct {
	Width, Height int32
	Format        gpu.Format
	Sampler       gpu.Sampler
	Mipmaps       bool
	Pixels        []byte
	Floats        []float32
	// Gen is the sequence number of the last write (draw or upload).
	Gen uint64
}

// Framebuffer is the recorded state of a framebuffer object.
type Framebuffer struct {
	Attachments map[gpu.Attachment]uint32
	DrawBuffers []gpu.Attachment
}

// Program is a linked program and the uniform values last set on it.
type Program struct {
	Vertex, Fragment string
	Uniforms         map[string]any
}

// Sample is a texture read by a draw call through a sampler uniform.
type Sample struct {
	Texture uint32
	Gen     uint64
}

// Draw is one recorded draw call.
type Draw struct {
	Seq         uint64
	Program     uint32
	Framebuffer uint32
	DrawBuffers []gpu.Attachment
	Viewport    [4]int32
	DepthTest   bool
	DepthMask   bool
	VertexArray uint32
	Indexed     bool
	Count       int32
	// Written lists textures that received this draw's output.
	Written []uint32
	// Sampled maps sampler uniform names to the texture bound on their unit.
	Sampled map[string]Sample
	// Uniforms is a snapshot of the program's uniform values.
	Uniforms map[string]any
}

// Clear is one recorded clear.
type Clear struct {
	Framebuffer uint32
	DrawBuffers []gpu.Attachment
	Viewport    [4]int32
	Mask        gpu.ClearMask
}

type location struct {
	program uint32
	name    string
}

// Recorder implements gpu.Device in memory.
type Recorder struct {
	// Calls is a readable log of every call, e.g. "BindFramebuffer 2".
	Calls []string
	// Errors collects misuse: double deletes, binds of dead objects.
	Errors []string

	Allocs   map[Class]int
	Releases map[Class]int

	Textures     map[uint32]*Texture
	Framebuffers map[uint32]*Framebuffer
	Programs     map[uint32]*Program
	Buffers      map[uint32]int // element count of the last upload
	VertexArrays map[uint32]bool

	Draws  []Draw
	Clears []Clear

	// CompileError, when set, is consulted by CompileProgram; a non-nil
	// result fails the compile.
	CompileError func(vertexSrc, fragmentSrc string) error

	next      map[Class]uint32
	seq       uint64
	bound     uint32
	defaultDB []gpu.Attachment
	units     map[uint32]uint32
	program   uint32
	vao       uint32
	viewport  [4]int32
	depthTest bool
	depthMask bool
	locations []location
}

var _ gpu.Device = (*Recorder)(nil)

// New returns an empty recorder.
func New() *Recorder {
	return &Recorder{
		Allocs:       make(map[Class]int),
		Releases:     make(map[Class]int),
		Textures:     make(map[uint32]*Texture),
		Framebuffers: make(map[uint32]*Framebuffer),
		Programs:     make(map[uint32]*Program),
		Buffers:      make(map[uint32]int),
		VertexArrays: make(map[uint32]bool),
		next:         make(map[Class]uint32),
		units:        make(map[uint32]uint32),
		depthTest:    true,
		depthMask:    true,
	}
}

func (r *Recorder) log(format string, args ...any) {
	r.Calls = append(r.Calls, fmt.Sprintf(format, args...))
}

func (r *Recorder) fail(format string, args ...any) {
	r.Errors = append(r.Errors, fmt.Sprintf(format, args...))
}

func (r *Recorder) alloc(c Class) uint32 {
	r.next[c]++
	r.Allocs[c]++
	return r.next[c]
}

func (r *Recorder) release(c Class, id uint32, live bool) {
	if id == 0 {
		return
	}
	if !live {
		r.fail("delete of dead %s %d", c, id)
		return
	}
	r.Releases[c]++
}

// Live returns the number of allocated, unreleased objects of class c.
func (r *Recorder) Live(c Class) int {
	return r.Allocs[c] - r.Releases[c]
}

// Balanced returns an error describing leaks or misuse, or nil.
func (r *Recorder) Balanced() error {
	var problems []string
	classes := []Class{ClassTexture, ClassFramebuffer, ClassBuffer, ClassVertexArray, ClassProgram}
	for _, c := range classes {
		if n := r.Live(c); n != 0 {
			problems = append(problems, fmt.Sprintf("%d live %s objects (%d allocated, %d released)",
				n, c, r.Allocs[c], r.Releases[c]))
		}
	}
	problems = append(problems, r.Errors...)
	if len(problems) > 0 {
		return fmt.Errorf("%s", strings.Join(problems, "; "))
	}
	return nil
}

// ResetLog drops recorded calls, draws and clears but keeps object state.
func (r *Recorder) ResetLog() {
	r.Calls = nil
	r.Draws = nil
	r.Clears = nil
}

// BoundFramebuffer returns the currently bound framebuffer.
func (r *Recorder) BoundFramebuffer() uint32 { return r.bound }

// CurrentViewport returns the last viewport set.
func (r *Recorder) CurrentViewport() [4]int32 { return r.viewport }

// ProgramBySource returns the id of the live program whose fragment source
// contains marker, or 0.
func (r *Recorder) ProgramBySource(marker string) uint32 {
	ids := make([]uint32, 0, len(r.Programs))
	for id := range r.Programs {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	for _, id := range ids {
		if strings.Contains(r.Programs[id].Fragment, marker) {
			return id
		}
	}
	return 0
}

// DrawsWith returns the recorded draws issued with program.
func (r *Recorder) DrawsWith(program uint32) []Draw {
	var out []Draw
	for _, d := range r.Draws {
		if d.Program == program {
			out = append(out, d)
		}
	}
	return out
}

func (r *Recorder) GenTexture() uint32 {
	id := r.alloc(ClassTexture)
	r.Textures[id] = &Texture{}
	r.log("GenTexture %d", id)
	return id
}

func (r *Recorder) DeleteTexture(tex uint32) {
	_, live := r.Textures[tex]
	r.release(ClassTexture, tex, live)
	delete(r.Textures, tex)
	for unit, bound := range r.units {
		if bound == tex {
			delete(r.units, unit)
		}
	}
	r.log("DeleteTexture %d", tex)
}

func (r *Recorder) texture(tex uint32, op string) *Texture {
	t, ok := r.Textures[tex]
	if !ok {
		r.fail("%s on dead texture %d", op, tex)
		return &Texture{}
	}
	return t
}

func (r *Recorder) TexImage2D(tex uint32, width, height int32, format gpu.Format, pixels []byte) {
	t := r.texture(tex, "TexImage2D")
	t.Width, t.Height, t.Format = width, height, format
	t.Pixels = append([]byte(nil), pixels...)
	t.Floats = nil
	t.Mipmaps = false
	r.seq++
	t.Gen = r.seq
	r.log("TexImage2D %d %dx%d %s", tex, width, height, format)
}

func (r *Recorder) TexSubImageFloat(tex uint32, width, height int32, pixels []float32) {
	t := r.texture(tex, "TexSubImageFloat")
	if t.Width != width || t.Height != height || t.Format != gpu.FormatRGBA32F {
		r.fail("TexSubImageFloat %d: %dx%d upload into %dx%d %s", tex, width, height, t.Width, t.Height, t.Format)
	}
	if len(pixels) != int(width*height*4) {
		r.fail("TexSubImageFloat %d: %d floats for %dx%d", tex, len(pixels), width, height)
	}
	t.Floats = append(t.Floats[:0], pixels...)
	r.seq++
	t.Gen = r.seq
	r.log("TexSubImageFloat %d %dx%d", tex, width, height)
}

func (r *Recorder) TexSampler(tex uint32, s gpu.Sampler) {
	r.texture(tex, "TexSampler").Sampler = s
	r.log("TexSampler %d %d", tex, s)
}

func (r *Recorder) GenerateMipmap(tex uint32) {
	r.texture(tex, "GenerateMipmap").Mipmaps = true
	r.log("GenerateMipmap %d", tex)
}

func (r *Recorder) BindTexture(unit uint32, tex uint32) {
	if tex != 0 {
		r.texture(tex, "BindTexture")
	}
	r.units[unit] = tex
	r.log("BindTexture unit%d %d", unit, tex)
}

func (r *Recorder) GenFramebuffer() uint32 {
	id := r.alloc(ClassFramebuffer)
	r.Framebuffers[id] = &Framebuffer{
		Attachments: make(map[gpu.Attachment]uint32),
		DrawBuffers: []gpu.Attachment{gpu.AttachColor0},
	}
	r.log("GenFramebuffer %d", id)
	return id
}

func (r *Recorder) DeleteFramebuffer(fb uint32) {
	_, live := r.Framebuffers[fb]
	r.release(ClassFramebuffer, fb, live)
	delete(r.Framebuffers, fb)
	if r.bound == fb {
		r.bound = gpu.DefaultFramebuffer
	}
	r.log("DeleteFramebuffer %d", fb)
}

func (r *Recorder) BindFramebuffer(fb uint32) {
	if fb != gpu.DefaultFramebuffer {
		if _, ok := r.Framebuffers[fb]; !ok {
			r.fail("bind of dead framebuffer %d", fb)
		}
	}
	r.bound = fb
	r.log("BindFramebuffer %d", fb)
}

func (r *Recorder) FramebufferTexture(at gpu.Attachment, tex uint32) {
	fb, ok := r.Framebuffers[r.bound]
	if !ok {
		r.fail("FramebufferTexture with framebuffer %d bound", r.bound)
		return
	}
	r.texture(tex, "FramebufferTexture")
	fb.Attachments[at] = tex
	r.log("FramebufferTexture %d %s %d", r.bound, attachmentName(at), tex)
}

func (r *Recorder) CheckFramebuffer() error {
	fb, ok := r.Framebuffers[r.bound]
	if !ok {
		return nil
	}
	var w, h int32 = -1, -1
	for at, tex := range fb.Attachments {
		t, ok := r.Textures[tex]
		if !ok {
			return fmt.Errorf("attachment %s references dead texture %d", attachmentName(at), tex)
		}
		if w < 0 {
			w, h = t.Width, t.Height
		}
		if t.Width != w || t.Height != h {
			return fmt.Errorf("attachment sizes differ")
		}
	}
	return nil
}

func (r *Recorder) DrawBuffers(ats ...gpu.Attachment) {
	sel := append([]gpu.Attachment(nil), ats...)
	if fb, ok := r.Framebuffers[r.bound]; ok {
		fb.DrawBuffers = sel
	} else {
		r.defaultDB = sel
	}
	names := make([]string, len(ats))
	for i, at := range ats {
		names[i] = attachmentName(at)
	}
	r.log("DrawBuffers [%s]", strings.Join(names, " "))
}

func (r *Recorder) GenBuffer() uint32 {
	id := r.alloc(ClassBuffer)
	r.Buffers[id] = 0
	r.log("GenBuffer %d", id)
	return id
}

func (r *Recorder) DeleteBuffer(buf uint32) {
	_, live := r.Buffers[buf]
	r.release(ClassBuffer, buf, live)
	delete(r.Buffers, buf)
	r.log("DeleteBuffer %d", buf)
}

func (r *Recorder) GenVertexArray() uint32 {
	id := r.alloc(ClassVertexArray)
	r.VertexArrays[id] = true
	r.log("GenVertexArray %d", id)
	return id
}

func (r *Recorder) DeleteVertexArray(vao uint32) {
	_, live := r.VertexArrays[vao]
	r.release(ClassVertexArray, vao, live)
	delete(r.VertexArrays, vao)
	if r.vao == vao {
		r.vao = 0
	}
	r.log("DeleteVertexArray %d", vao)
}

func (r *Recorder) BindVertexArray(vao uint32) {
	if vao != 0 && !r.VertexArrays[vao] {
		r.fail("bind of dead vertex array %d", vao)
	}
	r.vao = vao
	r.log("BindVertexArray %d", vao)
}

func (r *Recorder) ArrayBuffer(buf uint32, data []float32) {
	if _, ok := r.Buffers[buf]; !ok {
		r.fail("ArrayBuffer on dead buffer %d", buf)
	}
	r.Buffers[buf] = len(data)
	r.log("ArrayBuffer %d %d", buf, len(data))
}

func (r *Recorder) ElementBuffer(buf uint32, data []uint32) {
	if _, ok := r.Buffers[buf]; !ok {
		r.fail("ElementBuffer on dead buffer %d", buf)
	}
	r.Buffers[buf] = len(data)
	r.log("ElementBuffer %d %d", buf, len(data))
}

func (r *Recorder) VertexAttrib(index uint32, size int32) {
	r.log("VertexAttrib %d %d", index, size)
}

func (r *Recorder) CompileProgram(vertexSrc, fragmentSrc string) (uint32, error) {
	if r.CompileError != nil {
		if err := r.CompileError(vertexSrc, fragmentSrc); err != nil {
			r.log("CompileProgram failed")
			return 0, err
		}
	}
	id := r.alloc(ClassProgram)
	r.Programs[id] = &Program{Vertex: vertexSrc, Fragment: fragmentSrc, Uniforms: make(map[string]any)}
	r.log("CompileProgram %d", id)
	return id, nil
}

func (r *Recorder) DeleteProgram(program uint32) {
	_, live := r.Programs[program]
	r.release(ClassProgram, program, live)
	delete(r.Programs, program)
	if r.program == program {
		r.program = 0
	}
	r.log("DeleteProgram %d", program)
}

func (r *Recorder) UseProgram(program uint32) {
	if program != 0 {
		if _, ok := r.Programs[program]; !ok {
			r.fail("use of dead program %d", program)
		}
	}
	r.program = program
	r.log("UseProgram %d", program)
}

func (r *Recorder) UniformLocation(program uint32, name string) int32 {
	if _, ok := r.Programs[program]; !ok {
		return -1
	}
	for i, l := range r.locations {
		if l.program == program && l.name == name {
			return int32(i)
		}
	}
	r.locations = append(r.locations, location{program: program, name: name})
	return int32(len(r.locations) - 1)
}

func (r *Recorder) setUniform(loc int32, v any) {
	if loc < 0 || int(loc) >= len(r.locations) {
		return
	}
	l := r.locations[loc]
	if l.program != r.program {
		r.fail("uniform %q set for program %d while %d is in use", l.name, l.program, r.program)
		return
	}
	if p, ok := r.Programs[l.program]; ok {
		p.Uniforms[l.name] = v
	}
	r.log("Uniform %s", l.name)
}

func (r *Recorder) Uniform1i(loc int32, v int32) { r.setUniform(loc, v) }
func (r *Recorder) Uniform1f(loc int32, v float32) { r.setUniform(loc, v) }
func (r *Recorder) Uniform3f(loc int32, v [3]float32) { r.setUniform(loc, v) }
func (r *Recorder) UniformMatrix3(loc int32, m [9]float32) { r.setUniform(loc, m) }
func (r *Recorder) UniformMatrix4(loc int32, m [16]float32) { r.setUniform(loc, m) }

func (r *Recorder) Viewport(x, y, width, height int32) {
	r.viewport = [4]int32{x, y, width, height}
	r.log("Viewport %d %d %d %d", x, y, width, height)
}

func (r *Recorder) ClearColor(cr, cg, cb, ca float32) {
	r.log("ClearColor %g %g %g %g", cr, cg, cb, ca)
}

func (r *Recorder) drawBuffers() []gpu.Attachment {
	if fb, ok := r.Framebuffers[r.bound]; ok {
		return append([]gpu.Attachment(nil), fb.DrawBuffers...)
	}
	return append([]gpu.Attachment(nil), r.defaultDB...)
}

func (r *Recorder) Clear(mask gpu.ClearMask) {
	r.Clears = append(r.Clears, Clear{
		Framebuffer: r.bound,
		DrawBuffers: r.drawBuffers(),
		Viewport:    r.viewport,
		Mask:        mask,
	})
	r.log("Clear %s", maskName(mask))
}

func (r *Recorder) SetDepthTest(enabled bool) {
	r.depthTest = enabled
	r.log("SetDepthTest %t", enabled)
}

func (r *Recorder) DepthMask(enabled bool) {
	r.depthMask = enabled
	r.log("DepthMask %t", enabled)
}

func (r *Recorder) draw(indexed bool, count int32) {
	r.seq++
	d := Draw{
		Seq:         r.seq,
		Program:     r.program,
		Framebuffer: r.bound,
		DrawBuffers: r.drawBuffers(),
		Viewport:    r.viewport,
		DepthTest:   r.depthTest,
		DepthMask:   r.depthMask,
		VertexArray: r.vao,
		Indexed:     indexed,
		Count:       count,
		Sampled:     make(map[string]Sample),
		Uniforms:    make(map[string]any),
	}
	if r.vao == 0 {
		r.fail("draw without a vertex array")
	}

	if p, ok := r.Programs[r.program]; ok {
		for name, v := range p.Uniforms {
			d.Uniforms[name] = v
			unit, isInt := v.(int32)
			if !isInt {
				continue
			}
			if tex, bound := r.units[uint32(unit)]; bound {
				gen := uint64(0)
				if t, ok := r.Textures[tex]; ok {
					gen = t.Gen
				}
				d.Sampled[name] = Sample{Texture: tex, Gen: gen}
			}
		}
	}

	if fb, ok := r.Framebuffers[r.bound]; ok {
		for _, at := range d.DrawBuffers {
			if tex, ok := fb.Attachments[at]; ok {
				if t, live := r.Textures[tex]; live {
					t.Gen = r.seq
				}
				d.Written = append(d.Written, tex)
			}
		}
		if r.depthTest && r.depthMask {
			if tex, ok := fb.Attachments[gpu.AttachDepth]; ok {
				if t, live := r.Textures[tex]; live {
					t.Gen = r.seq
				}
				d.Written = append(d.Written, tex)
			}
		}
	}

	r.Draws = append(r.Draws, d)
}

func (r *Recorder) DrawArrays(first, count int32) {
	r.draw(false, count)
	r.log("DrawArrays %d %d", first, count)
}

func (r *Recorder) DrawElements(count int32) {
	r.draw(true, count)
	r.log("DrawElements %d", count)
}

// ReadPixels returns a zeroed buffer of the requested size; the recorder
// does not rasterize.
func (r *Recorder) ReadPixels(x, y, width, height int32) []byte {
	r.log("ReadPixels %d %d %d %d", x, y, width, height)
	return make([]byte, width*height*4)
}

func attachmentName(at gpu.Attachment) string {
	if at == gpu.AttachDepth {
		return "depth"
	}
	return fmt.Sprintf("color%d", int(at-gpu.AttachColor0))
}

func maskName(mask gpu.ClearMask) string {
	var parts []string
	if mask&gpu.ClearColor != 0 {
		parts = append(parts, "color")
	}
	if mask&gpu.ClearDepth != 0 {
		parts = append(parts, "depth")
	}
	return strings.Join(parts, "|")
}
