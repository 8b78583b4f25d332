package config

import (
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/fsnotify/fsnotify"
)

// watchDebounce coalesces editor save bursts (truncate, write, chmod,
// or an atomic rename) into a single reload
const watchDebounce = 150 * time.Millisecond

// Watcher reloads the config file when it changes on disk. Every
// successfully parsed and normalized result is handed to the onChange
// callback on the watcher goroutine; unparseable edits are logged and
// skipped, keeping the last good config in effect.
type Watcher struct {
	path     string
	logger   *log.Logger
	onChange func(*Config)

	fw        *fsnotify.Watcher
	wg        sync.WaitGroup
	closeOnce sync.Once
}

// Watch begins watching the directory containing path. Watching the
// directory rather than the file itself survives editors that replace
// the file by rename on save.
func Watch(path string, logger *log.Logger, onChange func(*Config)) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create watcher: %w", err)
	}
	if err := fw.Add(filepath.Dir(path)); err != nil {
		fw.Close()
		return nil, fmt.Errorf("watch %s: %w", filepath.Dir(path), err)
	}

	w := &Watcher{
		path:     filepath.Clean(path),
		logger:   logger,
		onChange: onChange,
		fw:       fw,
	}
	w.wg.Add(1)
	go w.loop()
	return w, nil
}

// Close stops the watcher and waits for its goroutine to exit.
// Safe to call more than once.
func (w *Watcher) Close() error {
	var err error
	w.closeOnce.Do(func() {
		err = w.fw.Close()
		w.wg.Wait()
	})
	return err
}

func (w *Watcher) loop() {
	defer w.wg.Done()

	var pending *time.Timer
	var fire <-chan time.Time

	for {
		select {
		case ev, ok := <-w.fw.Events:
			if !ok {
				return
			}
			if filepath.Clean(ev.Name) != w.path {
				continue
			}
			if !ev.Op.Has(fsnotify.Write | fsnotify.Create | fsnotify.Rename) {
				continue
			}
			if pending == nil {
				pending = time.NewTimer(watchDebounce)
				fire = pending.C
			} else {
				if !pending.Stop() {
					select {
					case <-fire:
					default:
					}
				}
				pending.Reset(watchDebounce)
			}

		case <-fire:
			pending = nil
			fire = nil
			w.reload()

		case err, ok := <-w.fw.Errors:
			if !ok {
				return
			}
			w.logger.Warn("config watch error", "error", err)
		}
	}
}

func (w *Watcher) reload() {
	cfg, err := Load(w.path)
	if err != nil {
		w.logger.Warn("config reload failed", "error", err)
		return
	}
	for _, fix := range cfg.Normalize() {
		w.logger.Warn("config corrected", "detail", fix)
	}
	w.logger.Info("config reloaded", "path", w.path)
	w.onChange(cfg)
}
