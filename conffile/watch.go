// FILE: lixenwraith/getopt/conffile/watch.go
package conffile

import (
	"context"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/fsnotify/fsnotify"
	"gitlab.com/tozd/go/errors"

	"github.com/lixenwraith/getopt/logsink"
)

const DefaultMaxSubscribers = 100 // Prevent resource exhaustion

// WatchOptions configures file watching behavior
type WatchOptions struct {
	// Debounce duration to avoid rapid reloads
	Debounce time.Duration

	// MaxSubscribers limits concurrent change channels
	MaxSubscribers int
}

// DefaultWatchOptions returns sensible defaults for file watching
func DefaultWatchOptions() WatchOptions {
	return WatchOptions{
		Debounce:       DefaultDebounce,
		MaxSubscribers: DefaultMaxSubscribers,
	}
}

// Watcher reloads files on the OS filesystem when they change on disk.
// Subscribers receive the canonical name of every reloaded file.
type Watcher struct {
	mu           sync.RWMutex
	ctx          context.Context
	cancel       context.CancelFunc
	opts         WatchOptions
	fsw          *fsnotify.Watcher
	sink         logsink.Sink
	files        map[string]*File
	dirs         map[string]struct{}
	timers       map[string]*time.Timer
	subscribers  map[int64]chan string
	subscriberID atomic.Int64
	watching     atomic.Bool
}

// NewWatcher starts watching files
func NewWatcher(opts WatchOptions, files ...*File) (*Watcher, error) {
	if opts.Debounce < MinDebounce {
		opts.Debounce = MinDebounce
	}
	if opts.MaxSubscribers <= 0 {
		opts.MaxSubscribers = DefaultMaxSubscribers
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, errors.Errorf("creating file watcher: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	w := &Watcher{
		ctx:         ctx,
		cancel:      cancel,
		opts:        opts,
		fsw:         fsw,
		sink:        logsink.Default(),
		files:       make(map[string]*File),
		dirs:        make(map[string]struct{}),
		timers:      make(map[string]*time.Timer),
		subscribers: make(map[int64]chan string),
	}

	if len(files) > 0 {
		w.sink = files[0].sink
	}
	for _, f := range files {
		if err := w.Add(f); err != nil {
			_ = w.Close()
			return nil, err
		}
	}

	w.watching.Store(true)
	go w.watchLoop()

	return w, nil
}

// Add watches one more file. The directory is watched so that atomic
// replacements are seen.
func (w *Watcher) Add(f *File) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	name := f.Filename()
	w.files[name] = f

	dir := filepath.Dir(name)
	if _, ok := w.dirs[dir]; ok {
		return nil
	}
	if err := w.fsw.Add(dir); err != nil {
		return errors.Errorf("watching directory '%s': %w", dir, err)
	}
	w.dirs[dir] = struct{}{}
	return nil
}

// Changes returns a channel receiving reloaded filenames. The channel is
// closed when the watcher stops.
func (w *Watcher) Changes() <-chan string {
	w.mu.Lock()
	defer w.mu.Unlock()

	if len(w.subscribers) >= w.opts.MaxSubscribers || w.ctx.Err() != nil {
		ch := make(chan string)
		close(ch)
		return ch
	}

	ch := make(chan string, subscriberBuffer)
	id := w.subscriberID.Add(1)
	w.subscribers[id] = ch

	go func() {
		<-w.ctx.Done()
		w.mu.Lock()
		delete(w.subscribers, id)
		close(ch)
		w.mu.Unlock()
	}()

	return ch
}

// SubscriberCount returns the number of active change channels
func (w *Watcher) SubscriberCount() int {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return len(w.subscribers)
}

// IsWatching reports whether the event loop is running
func (w *Watcher) IsWatching() bool { return w.watching.Load() }

// Close stops the watcher and closes every change channel
func (w *Watcher) Close() error {
	w.cancel()

	w.mu.Lock()
	for name, t := range w.timers {
		t.Stop()
		delete(w.timers, name)
	}
	w.mu.Unlock()

	err := w.fsw.Close()

	for i := 0; w.watching.Load() && i < int(shutdownPollCycles); i++ {
		time.Sleep(SpinWaitInterval)
	}
	return err
}

func (w *Watcher) watchLoop() {
	defer w.watching.Store(false)

	for {
		select {
		case <-w.ctx.Done():
			return
		case ev, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			w.handle(ev)
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			w.sink.Emit(logsink.SeverityError, "file watcher: "+err.Error())
		}
	}
}

func (w *Watcher) handle(ev fsnotify.Event) {
	if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Rename) && !ev.Has(fsnotify.Remove) {
		return
	}

	name := filepath.Clean(ev.Name)

	w.mu.Lock()
	defer w.mu.Unlock()

	f, ok := w.files[name]
	if !ok {
		return
	}
	if t, ok := w.timers[name]; ok {
		t.Stop()
	}
	w.timers[name] = time.AfterFunc(w.opts.Debounce, func() {
		w.reload(f)
	})
}

func (w *Watcher) reload(f *File) {
	if w.ctx.Err() != nil {
		return
	}
	if err := f.Reload(); err != nil {
		f.sink.Emit(logsink.SeverityError, err.Error())
		return
	}
	w.notifySubscribers(f.Filename())
}

// notifySubscribers sends name to every subscriber without blocking
func (w *Watcher) notifySubscribers(name string) {
	w.mu.RLock()
	defer w.mu.RUnlock()

	for _, ch := range w.subscribers {
		select {
		case ch <- name:
		default:
		}
	}
}
