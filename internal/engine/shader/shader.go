// Package shader loads GLSL programs from a file system and reloads them in
// place, keeping the *Program handle stable across reloads.
package shader

import (
	"fmt"
	"io/fs"

	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/Faultbox/terrain-viewer/internal/logger"
)

// Compiler builds and releases GPU programs. gpu.Device satisfies it.
type Compiler interface {
	CompileProgram(vertexSrc, fragmentSrc string) (uint32, error)
	DeleteProgram(program uint32)
	UniformLocation(program uint32, name string) int32
}

// Program is a handle to a linked program. Its identity survives Reload;
// only the underlying GPU id changes.
type Program struct {
	Name         string
	VertexPath   string
	FragmentPath string

	compiler Compiler
	id       uint32
	locs     map[string]int32
	err      error
}

// ID returns the current GPU program, 0 if it never compiled.
func (p *Program) ID() uint32 { return p.id }

// Err returns the error of the last compile attempt, if any.
func (p *Program) Err() error { return p.err }

// Uniform returns the location of a uniform, -1 if inactive or missing.
func (p *Program) Uniform(name string) int32 {
	if p.id == 0 {
		return -1
	}
	if loc, ok := p.locs[name]; ok {
		return loc
	}
	loc := p.compiler.UniformLocation(p.id, name)
	p.locs[name] = loc
	return loc
}

// Loader compiles programs from sources in fsys and tracks them for reload.
type Loader struct {
	compiler Compiler
	fsys     fs.FS
	programs []*Program
}

// NewLoader returns a loader reading sources from fsys.
func NewLoader(c Compiler, fsys fs.FS) *Loader {
	return &Loader{compiler: c, fsys: fsys}
}

// Load compiles a program. A failure is logged and leaves the program with
// id 0; the returned handle is always usable and can be reloaded later.
func (l *Loader) Load(name, vertexPath, fragmentPath string) *Program {
	p := &Program{
		Name:         name,
		VertexPath:   vertexPath,
		FragmentPath: fragmentPath,
		compiler:     l.compiler,
		locs:         make(map[string]int32),
	}
	l.programs = append(l.programs, p)
	if err := l.Reload(p); err != nil {
		logger.Named("shader").Error("program failed to build", zap.String("program", name), zap.Error(err))
	}
	return p
}

// Reload recompiles p from its source files. On failure the previous GPU
// program stays in use.
func (l *Loader) Reload(p *Program) error {
	id, err := l.build(p)
	p.err = err
	if err != nil {
		return fmt.Errorf("%s: %w", p.Name, err)
	}

	if p.id != 0 {
		l.compiler.DeleteProgram(p.id)
	}
	p.id = id
	clear(p.locs)
	logger.Named("shader").Debug("program built", zap.String("program", p.Name), zap.Uint32("id", id))
	return nil
}

func (l *Loader) build(p *Program) (uint32, error) {
	vs, err := fs.ReadFile(l.fsys, p.VertexPath)
	if err != nil {
		return 0, err
	}
	frag, err := fs.ReadFile(l.fsys, p.FragmentPath)
	if err != nil {
		return 0, err
	}
	return l.compiler.CompileProgram(string(vs), string(frag))
}

// ReloadAll recompiles every program and returns the combined failures.
func (l *Loader) ReloadAll() error {
	var errs error
	for _, p := range l.programs {
		errs = multierr.Append(errs, l.Reload(p))
	}
	return errs
}

// ReloadFile recompiles programs that use the named source file.
func (l *Loader) ReloadFile(path string) error {
	var errs error
	for _, p := range l.programs {
		if p.VertexPath == path || p.FragmentPath == path {
			errs = multierr.Append(errs, l.Reload(p))
		}
	}
	return errs
}

// Programs returns the loaded programs in load order.
func (l *Loader) Programs() []*Program {
	return l.programs
}

// Close deletes every program. Handles keep their names but have id 0.
func (l *Loader) Close() {
	for _, p := range l.programs {
		if p.id != 0 {
			l.compiler.DeleteProgram(p.id)
			p.id = 0
		}
	}
	l.programs = nil
}
