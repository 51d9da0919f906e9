package prefab

import (
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog/log"
)

// Kind classifies a changed file so consumers know whether to respawn the
// entity (spec) or just recompile and reattach its hook (script).
type Kind int

const (
	KindSpec Kind = iota
	KindScript
)

func (k Kind) String() string {
	if k == KindScript {
		return "script"
	}
	return "spec"
}

// Event is one debounced file change under a watched directory.
type Event struct {
	Path string
	Kind Kind
}

const debounceWindow = 100 * time.Millisecond

// Watcher reports changed spec and script files so callers can respawn
// affected entities. Bursts of writes to one path collapse into a single
// event per debounce window; files of other types are ignored. The Events
// channel closes once the watcher shuts down.
type Watcher struct {
	watcher *fsnotify.Watcher
	Events  chan Event
	closeCh chan struct{}
	once    sync.Once
}

// NewWatcher watches the given directories for spec and script changes.
func NewWatcher(dirs ...string) (*Watcher, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	for _, dir := range dirs {
		if err := w.Add(dir); err != nil {
			_ = w.Close()
			return nil, err
		}
	}

	watcher := &Watcher{
		watcher: w,
		Events:  make(chan Event, 16),
		closeCh: make(chan struct{}),
	}
	go watcher.run()
	return watcher, nil
}

// Close stops the watcher. The Events channel is closed by the run loop,
// so a consumer ranging over it terminates cleanly.
func (w *Watcher) Close() error {
	var err error
	w.once.Do(func() {
		close(w.closeCh)
		err = w.watcher.Close()
	})
	return err
}

func (w *Watcher) run() {
	defer close(w.Events)
	seen := make(map[string]time.Time)
	for {
		select {
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename|fsnotify.Remove) == 0 {
				continue
			}
			kind, watched := classify(event.Name)
			if !watched {
				continue
			}
			now := time.Now()
			if t, ok := seen[event.Name]; ok && now.Sub(t) < debounceWindow {
				continue
			}
			pruneSeen(seen, now)
			seen[event.Name] = now
			select {
			case w.Events <- Event{Path: event.Name, Kind: kind}:
			case <-w.closeCh:
				return
			}
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			log.Warn().Err(err).Msg("prefab watcher error")
		case <-w.closeCh:
			return
		}
	}
}

// pruneSeen drops expired debounce entries so the map stays bounded as
// watched files come and go.
func pruneSeen(seen map[string]time.Time, now time.Time) {
	for path, t := range seen {
		if now.Sub(t) >= debounceWindow {
			delete(seen, path)
		}
	}
}

func classify(path string) (Kind, bool) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return KindSpec, true
	case ".tengo":
		return KindScript, true
	default:
		return KindSpec, false
	}
}
