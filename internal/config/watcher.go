package config

import (
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// Watcher hot-reloads the config file and fans changes out to registered
// callbacks (the lifecycle scheduler re-arms its cron, the HTTP config
// store takes the new values; provider handles are built once at boot and
// are not replaced on reload) — the same shape as the teacher's ConfigWatcher, with
// no dev-only restriction since Cortex runs as a standalone sidecar in any
// environment.
type Watcher struct {
	mu        sync.RWMutex
	path      string
	current   *Config
	callbacks []func(*Config)
	logger    *zap.Logger
	fsWatcher *fsnotify.Watcher
	stopCh    chan struct{}
}

// NewWatcher starts watching path's directory for writes to path. Callers
// must call Close when done.
func NewWatcher(path string, initial *Config, logger *zap.Logger) (*Watcher, error) {
	w := &Watcher{
		path:    path,
		current: initial,
		logger:  logger,
		stopCh:  make(chan struct{}),
	}

	if path == "" {
		return w, nil
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := fsw.Add(filepath.Dir(path)); err != nil {
		fsw.Close()
		return nil, err
	}
	w.fsWatcher = fsw

	go w.loop()
	return w, nil
}

// OnChange registers a callback invoked with the newly loaded config after
// each successful reload. Callbacks are invoked holding no lock; they must
// not call back into the Watcher synchronously.
func (w *Watcher) OnChange(fn func(*Config)) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.callbacks = append(w.callbacks, fn)
}

// Current returns the most recently loaded config.
func (w *Watcher) Current() *Config {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.current
}

func (w *Watcher) loop() {
	for {
		select {
		case <-w.stopCh:
			return
		case event, ok := <-w.fsWatcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != filepath.Clean(w.path) {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			w.reload()
		case err, ok := <-w.fsWatcher.Errors:
			if !ok {
				return
			}
			w.logger.Warn("config watcher error", zap.Error(err))
		}
	}
}

func (w *Watcher) reload() {
	cfg, err := Load(w.path)
	if err != nil {
		w.logger.Warn("config reload failed, keeping previous config", zap.Error(err))
		return
	}

	w.mu.Lock()
	w.current = cfg
	callbacks := append([]func(*Config){}, w.callbacks...)
	w.mu.Unlock()

	w.logger.Info("configuration reloaded", zap.String("path", w.path))
	for _, cb := range callbacks {
		cb(cfg)
	}
}

// Close stops the watcher goroutine and releases the underlying fsnotify
// watch.
func (w *Watcher) Close() error {
	close(w.stopCh)
	if w.fsWatcher != nil {
		return w.fsWatcher.Close()
	}
	return nil
}
