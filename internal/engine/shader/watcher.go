package shader

import (
	"path/filepath"
	"strings"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"github.com/Faultbox/sceneview/internal/logger"
)

// Watcher reports program names whose source files changed in a directory.
// Notifications for the same program coalesce until the channel is drained.
type Watcher struct {
	fs      *fsnotify.Watcher
	changes chan string
	done    chan struct{}
	log     *zap.Logger
}

// Watch starts watching dir.
func Watch(dir string) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := fw.Add(dir); err != nil {
		fw.Close()
		return nil, err
	}

	w := &Watcher{
		fs:      fw,
		changes: make(chan string, len(Names)),
		done:    make(chan struct{}),
		log:     logger.Named("shader"),
	}
	go w.run()
	return w, nil
}

// Changes delivers the name of each program whose source changed.
func (w *Watcher) Changes() <-chan string {
	return w.changes
}

// Pending drains every queued change without blocking.
func (w *Watcher) Pending() []string {
	var names []string
	seen := make(map[string]bool)
	for {
		select {
		case name := <-w.changes:
			if !seen[name] {
				seen[name] = true
				names = append(names, name)
			}
		default:
			return names
		}
	}
}

func (w *Watcher) run() {
	for {
		select {
		case <-w.done:
			return
		case event, ok := <-w.fs.Events:
			if !ok {
				return
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
				continue
			}
			name, ok := programName(event.Name)
			if !ok {
				continue
			}
			select {
			case w.changes <- name:
			default:
			}
		case err, ok := <-w.fs.Errors:
			if !ok {
				return
			}
			w.log.Warn("shader watcher error", zap.Error(err))
		}
	}
}

// programName maps a changed file to a known program.
func programName(path string) (string, bool) {
	ext := filepath.Ext(path)
	if ext != ".vert" && ext != ".frag" {
		return "", false
	}
	name := strings.TrimSuffix(filepath.Base(path), ext)
	for _, n := range Names {
		if n == name {
			return name, true
		}
	}
	return "", false
}

// Close stops the watcher.
func (w *Watcher) Close() error {
	close(w.done)
	return w.fs.Close()
}
