package watch

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

const DefaultDebounce = 150 * time.Millisecond

// Change reports that a watched document was rewritten on disk.
type Change struct {
	Name string
	Path string
	Time time.Time
}

type Options struct {
	Debounce   time.Duration
	BufferSize int
	Logger     *slog.Logger
}

// Watcher reports changes to a fixed set of files in one directory. The
// directory is watched rather than the files so atomic rename-into-place
// writes are seen. Bursts of events for a file collapse into one Change.
type Watcher struct {
	dir      string
	names    map[string]bool
	watcher  *fsnotify.Watcher
	debounce time.Duration
	logger   *slog.Logger

	events   chan Change
	out      chan Change
	done     chan struct{}
	stopOnce sync.Once

	mu      sync.Mutex
	started bool
}

func New(dir string, names []string, opts Options) (*Watcher, error) {
	if opts.Debounce <= 0 {
		opts.Debounce = DefaultDebounce
	}
	if opts.BufferSize <= 0 {
		opts.BufferSize = 16
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("watch: create watcher: %w", err)
	}
	set := make(map[string]bool, len(names))
	for _, n := range names {
		set[n] = true
	}
	return &Watcher{
		dir:      dir,
		names:    set,
		watcher:  fw,
		debounce: opts.Debounce,
		logger:   opts.Logger,
		events:   make(chan Change, opts.BufferSize),
		out:      make(chan Change, opts.BufferSize),
		done:     make(chan struct{}),
	}, nil
}

// C delivers debounced changes.
func (w *Watcher) C() <-chan Change {
	return w.out
}

func (w *Watcher) Start(ctx context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.started {
		return nil
	}
	if err := w.watcher.Add(w.dir); err != nil {
		return fmt.Errorf("watch: add %s: %w", w.dir, err)
	}
	w.started = true
	go w.processEvents(ctx)
	go w.debounceLoop(ctx)
	return nil
}

func (w *Watcher) Stop() {
	w.stopOnce.Do(func() {
		close(w.done)
		_ = w.watcher.Close()
	})
}

func (w *Watcher) processEvents(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-w.done:
			return
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
				continue
			}
			name := filepath.Base(event.Name)
			if !w.names[name] {
				continue
			}
			select {
			case w.events <- Change{Name: name, Path: event.Name, Time: time.Now()}:
			case <-w.done:
				return
			case <-ctx.Done():
				return
			}
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Warn("file watch error", "error", err)
		}
	}
}

// debounceLoop never blocks on a slow consumer: settled changes wait in a
// queue that holds at most one entry per name, while new events keep being
// read from the watcher.
func (w *Watcher) debounceLoop(ctx context.Context) {
	pending := make(map[string]Change)
	var ready []Change
	var timer *time.Timer
	var timerC <-chan time.Time

	for {
		var outC chan Change
		var next Change
		if len(ready) > 0 {
			outC = w.out
			next = ready[0]
		}
		select {
		case <-ctx.Done():
			return
		case <-w.done:
			return
		case change := <-w.events:
			pending[change.Name] = change
			if timer == nil {
				timer = time.NewTimer(w.debounce)
			} else {
				if !timer.Stop() {
					select {
					case <-timer.C:
					default:
					}
				}
				timer.Reset(w.debounce)
			}
			timerC = timer.C
		case <-timerC:
			timerC = nil
			names := make([]string, 0, len(pending))
			for n := range pending {
				names = append(names, n)
			}
			sort.Strings(names)
			for _, n := range names {
				ready = enqueue(ready, pending[n])
				delete(pending, n)
			}
		case outC <- next:
			ready = ready[1:]
		}
	}
}

// enqueue appends c unless a change for the same name is already waiting,
// in which case that entry is updated in place.
func enqueue(queue []Change, c Change) []Change {
	for i := range queue {
		if queue[i].Name == c.Name {
			queue[i] = c
			return queue
		}
	}
	return append(queue, c)
}
