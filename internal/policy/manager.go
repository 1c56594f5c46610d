package policy

import (
	"context"
	"log/slog"
	"path/filepath"
	"sync/atomic"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Static serves a fixed document.
type Static struct{ Doc *Document }

func (s Static) Current() (*Document, bool) {
	if s.Doc == nil {
		return nil, false
	}
	return s.Doc, true
}

// Manager keeps the last valid policy file in memory and reloads it when the
// file changes or on a fixed interval.
type Manager struct {
	filePath string
	dirPath  string
	baseName string

	log      *slog.Logger
	debounce time.Duration
	interval time.Duration

	current atomic.Pointer[Document]
}

type Options struct {
	Logger   *slog.Logger
	Debounce time.Duration
	Interval time.Duration
}

func NewManager(filePath string, opt Options) *Manager {
	if opt.Logger == nil {
		opt.Logger = slog.Default()
	}
	if opt.Debounce <= 0 {
		opt.Debounce = 200 * time.Millisecond
	}
	if opt.Interval <= 0 {
		opt.Interval = 30 * time.Second
	}

	return &Manager{
		filePath: filePath,
		dirPath:  filepath.Dir(filePath),
		baseName: filepath.Base(filePath),
		log:      opt.Logger,
		debounce: opt.Debounce,
		interval: opt.Interval,
	}
}

func (m *Manager) Current() (*Document, bool) {
	d := m.current.Load()
	return d, d != nil
}

// Start loads the file once and then watches it until ctx is done. The
// initial load must succeed; later failures keep the last known good policy.
func (m *Manager) Start(ctx context.Context) error {
	if err := m.reload(); err != nil {
		return err
	}

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}

	// watch the directory so configmap style symlink swaps are seen
	if err := w.Add(m.dirPath); err != nil {
		_ = w.Close()
		return err
	}

	go func() {
		defer w.Close()

		var timer *time.Timer
		trigger := func() {
			if timer != nil {
				timer.Stop()
			}
			timer = time.AfterFunc(m.debounce, func() {
				if err := m.reload(); err != nil {
					m.log.Error("route policy reload failed, keeping last known good", "path", m.filePath, "err", err)
					return
				}
				m.log.Info("route policy reloaded", "path", m.filePath)
			})
		}

		ticker := time.NewTicker(m.interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				if timer != nil {
					timer.Stop()
				}
				return
			case <-ticker.C:
				if err := m.reload(); err != nil {
					m.log.Error("route policy periodic reload failed, keeping last known good", "path", m.filePath, "err", err)
				}
			case ev, ok := <-w.Events:
				if !ok {
					return
				}
				name := filepath.Base(ev.Name)
				if name == m.baseName || name == "..data" {
					trigger()
				}
			case err, ok := <-w.Errors:
				if !ok {
					return
				}
				m.log.Error("route policy watcher error", "err", err)
			}
		}
	}()

	return nil
}

func (m *Manager) reload() error {
	doc, err := LoadFromFile(m.filePath)
	if err != nil {
		return err
	}
	m.current.Store(doc)
	return nil
}
