package tui

import (
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/fsnotify/fsnotify"

	"github.com/theirongolddev/glm-statusline/internal/model"
)

const debounceInterval = 100 * time.Millisecond

// CacheChangedMsg is sent when another process rewrites a cache file,
// typically the status line refreshing a stale metric.
type CacheChangedMsg struct {
	Metric model.Metric
}

// Watcher reports writes to the cache directory as Bubble Tea messages.
type Watcher struct {
	fs     *fsnotify.Watcher
	events chan tea.Msg
	stop   chan struct{}

	mu    sync.Mutex
	timer *time.Timer
	once  sync.Once
}

// NewWatcher watches dir, creating it first so a cold cache can be watched.
func NewWatcher(dir string) (*Watcher, error) {
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, err
	}
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := fw.Add(dir); err != nil {
		_ = fw.Close()
		return nil, err
	}

	w := &Watcher{
		fs:     fw,
		events: make(chan tea.Msg, 1),
		stop:   make(chan struct{}),
	}
	go w.loop()
	return w, nil
}

// Wait returns a command that blocks until the next cache change.
// It yields nil once the watcher is closed.
func (w *Watcher) Wait() tea.Cmd {
	return func() tea.Msg {
		select {
		case msg := <-w.events:
			return msg
		case <-w.stop:
			return nil
		}
	}
}

// Close stops the watcher. It is safe to call more than once.
func (w *Watcher) Close() error {
	var err error
	w.once.Do(func() {
		close(w.stop)
		w.mu.Lock()
		if w.timer != nil {
			w.timer.Stop()
		}
		w.mu.Unlock()
		err = w.fs.Close()
	})
	return err
}

func (w *Watcher) loop() {
	for {
		select {
		case event, ok := <-w.fs.Events:
			if !ok {
				return
			}
			metric, ok := metricOf(event.Name)
			if !ok || event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			w.debounce(metric)

		case _, ok := <-w.fs.Errors:
			if !ok {
				return
			}

		case <-w.stop:
			return
		}
	}
}

// debounce collapses bursts of writes (truncate then write) into one message.
func (w *Watcher) debounce(metric model.Metric) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.timer != nil {
		w.timer.Stop()
	}
	w.timer = time.AfterFunc(debounceInterval, func() {
		w.send(CacheChangedMsg{Metric: metric})
	})
}

// send delivers msg without blocking, replacing an unread one.
func (w *Watcher) send(msg tea.Msg) {
	select {
	case w.events <- msg:
	default:
		select {
		case <-w.events:
		default:
		}
		select {
		case w.events <- msg:
		default:
		}
	}
}

// metricOf maps "<dir>/<metric>.json" to its metric.
func metricOf(path string) (model.Metric, bool) {
	base := filepath.Base(path)
	if filepath.Ext(base) != ".json" {
		return "", false
	}
	name := model.Metric(strings.TrimSuffix(base, ".json"))
	for _, m := range model.Metrics {
		if m == name {
			return m, true
		}
	}
	return "", false
}
