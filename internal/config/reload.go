// SPDX-License-Identifier: MIT

package config

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/ManuGH/chouftv/internal/log"
	"github.com/ManuGH/chouftv/internal/metrics"
	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"
)

// DefaultDebounce coalesces bursts of file events from editors.
const DefaultDebounce = 500 * time.Millisecond

// ErrNoLoader is returned by Reload on a holder built without a loader.
var ErrNoLoader = errors.New("config holder has no loader")

// Snapshot is one immutable configuration generation. Handlers read a
// snapshot once at entry and use it for the whole request.
type Snapshot struct {
	Epoch  uint64
	Config AppConfig
}

// Holder owns the current snapshot and swaps it on reload.
type Holder struct {
	mu       sync.RWMutex
	current  Snapshot
	loader   *Loader
	logger   zerolog.Logger
	debounce time.Duration

	listenMu  sync.RWMutex
	listeners []chan<- Snapshot
}

// NewHolder wraps an already loaded configuration as epoch 1.
func NewHolder(initial AppConfig, loader *Loader) *Holder {
	return &Holder{
		current:  Snapshot{Epoch: 1, Config: initial},
		loader:   loader,
		logger:   log.WithComponent("config"),
		debounce: DefaultDebounce,
	}
}

// SetDebounce overrides the file event debounce window.
func (h *Holder) SetDebounce(d time.Duration) {
	h.debounce = d
}

// Get returns the current configuration.
func (h *Holder) Get() AppConfig {
	return h.Snapshot().Config
}

// Snapshot returns the current generation.
func (h *Holder) Snapshot() Snapshot {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.current
}

// Reload re-reads the configuration. On any failure the previous snapshot
// stays active and the error is returned.
func (h *Holder) Reload(_ context.Context) error {
	if h.loader == nil {
		return ErrNoLoader
	}
	h.logger.Info().Str(log.FieldEvent, "config.reload_start").Msg("reloading configuration")

	cfg, err := h.loader.Load()
	if err != nil {
		metrics.RecordConfigReload(false)
		h.logger.Error().
			Err(err).
			Str(log.FieldEvent, "config.reload_failed").
			Msg("keeping previous configuration")
		return fmt.Errorf("reload config: %w", err)
	}

	h.mu.Lock()
	old := h.current
	h.current = Snapshot{Epoch: old.Epoch + 1, Config: cfg}
	next := h.current
	h.mu.Unlock()

	metrics.RecordConfigReload(true)
	h.logChanges(old.Config, cfg)
	h.notify(next)

	h.logger.Info().
		Str(log.FieldEvent, "config.reload_success").
		Uint64("epoch", next.Epoch).
		Msg("configuration reloaded")
	return nil
}

// Watch reloads on changes to the loader's file until ctx is done. The
// parent directory is watched so editors that replace the file by rename
// are still seen. Without a file path Watch is a no-op.
func (h *Holder) Watch(ctx context.Context) error {
	if h.loader == nil || h.loader.Path() == "" {
		h.logger.Info().
			Str(log.FieldEvent, "config.watcher_disabled").
			Msg("config watcher disabled (environment-only configuration)")
		return nil
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	path := h.loader.Path()
	if err := watcher.Add(filepath.Dir(path)); err != nil {
		_ = watcher.Close()
		return fmt.Errorf("watch config dir: %w", err)
	}

	h.logger.Info().
		Str(log.FieldEvent, "config.watcher_started").
		Str("path", path).
		Msg("watching config file for changes")

	go h.watchLoop(ctx, watcher, filepath.Clean(path))
	return nil
}

func (h *Holder) watchLoop(ctx context.Context, watcher *fsnotify.Watcher, path string) {
	var timer *time.Timer
	defer func() {
		if timer != nil {
			timer.Stop()
		}
		_ = watcher.Close()
	}()

	for {
		select {
		case <-ctx.Done():
			h.logger.Info().Str(log.FieldEvent, "config.watcher_stopped").Msg("config watcher stopped")
			return

		case ev, ok := <-watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(ev.Name) != path {
				continue
			}
			if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Rename) {
				continue
			}
			h.logger.Debug().
				Str(log.FieldEvent, "config.file_changed").
				Str("op", ev.Op.String()).
				Msg("config file changed")
			if timer != nil {
				timer.Stop()
			}
			timer = time.AfterFunc(h.debounce, func() {
				if ctx.Err() != nil {
					return
				}
				_ = h.Reload(ctx)
			})

		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			h.logger.Error().Err(err).Str(log.FieldEvent, "config.watcher_error").Msg("config watcher error")
		}
	}
}

// Subscribe registers ch for successful reloads. Sends never block; a full
// channel misses the update.
func (h *Holder) Subscribe(ch chan<- Snapshot) {
	h.listenMu.Lock()
	defer h.listenMu.Unlock()
	h.listeners = append(h.listeners, ch)
}

func (h *Holder) notify(s Snapshot) {
	h.listenMu.RLock()
	defer h.listenMu.RUnlock()
	for _, ch := range h.listeners {
		select {
		case ch <- s:
		default:
			h.logger.Warn().Str(log.FieldEvent, "config.listener_skip").Msg("listener channel full")
		}
	}
}

func (h *Holder) logChanges(old, next AppConfig) {
	if old.LogLevel != next.LogLevel {
		h.logger.Info().Str("old", old.LogLevel).Str("new", next.LogLevel).Msg("config changed: log_level")
	}
	if old.Xtream.ServerURL != next.Xtream.ServerURL {
		h.logger.Info().Msg("config changed: xtream.server_url")
	}
	if o, n := old.Catalog().Len(), next.Catalog().Len(); o != n {
		h.logger.Info().Int("old", o).Int("new", n).Msg("config changed: playlist sources")
	}
	if o, n := len(old.SportsM3U.Sources), len(next.SportsM3U.Sources); o != n {
		h.logger.Info().Int("old", o).Int("new", n).Msg("config changed: sports sources")
	}
	if old.App.APKVersion != next.App.APKVersion {
		h.logger.Info().Str("old", old.App.APKVersion).Str("new", next.App.APKVersion).Msg("config changed: apk_version")
	}
}
