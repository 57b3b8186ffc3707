package shader

import (
	"path/filepath"
	"slices"
	"strings"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"github.com/Faultbox/terrain-viewer/internal/logger"
)

// Watcher reports edited shader files in a directory. It never touches the
// GPU; the render thread drains Changes and calls Loader.ReloadFile.
type Watcher struct {
	fsw     *fsnotify.Watcher
	changes chan string
	done    chan struct{}
}

// Watch starts watching dir for .vert and .frag writes.
func Watch(dir string) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := fsw.Add(dir); err != nil {
		fsw.Close()
		return nil, err
	}

	w := &Watcher{
		fsw:     fsw,
		changes: make(chan string),
		done:    make(chan struct{}),
	}
	go w.loop()
	return w, nil
}

func (w *Watcher) loop() {
	defer close(w.done)
	var queue pending
	for {
		// Sending is only enabled while something is queued.
		var out chan string
		if len(queue) > 0 {
			out = w.changes
		}
		select {
		case out <- queue.peek():
			queue.pop()
		case ev, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) {
				continue
			}
			if name := filepath.Base(ev.Name); IsSource(name) {
				queue.push(name)
			}
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			logger.Named("shader").Warn("watch error", zap.Error(err))
		}
	}
}

// pending holds changed files not yet delivered, oldest first. A file
// appears at most once however often it is written.
type pending []string

func (p *pending) push(name string) {
	if !slices.Contains(*p, name) {
		*p = append(*p, name)
	}
}

func (p pending) peek() string {
	if len(p) == 0 {
		return ""
	}
	return p[0]
}

func (p *pending) pop() {
	*p = (*p)[1:]
}

// Changes delivers base names of modified shader sources. Edits made while
// nobody receives are kept, one entry per file.
func (w *Watcher) Changes() <-chan string {
	return w.changes
}

// Close stops watching and waits for the event loop to exit.
func (w *Watcher) Close() error {
	err := w.fsw.Close()
	<-w.done
	return err
}

// IsSource reports whether name is a GLSL stage file.
func IsSource(name string) bool {
	return strings.HasSuffix(name, ".vert") || strings.HasSuffix(name, ".frag")
}
