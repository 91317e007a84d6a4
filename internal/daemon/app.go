// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package daemon owns the process lifecycle: the API listener, config
// watching and graceful shutdown.
package daemon

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/ManuGH/chouftv/internal/config"
	"github.com/ManuGH/chouftv/internal/log"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

// App wires config reloads to the running process and delegates server
// management to Manager.
type App struct {
	logger       zerolog.Logger
	manager      Manager
	holder       *config.Holder
	onReload     func(config.Snapshot)
	reloadSignal os.Signal
}

// NewApp creates a new App orchestrator. onReload, when set, runs for every
// new configuration snapshot.
func NewApp(logger zerolog.Logger, manager Manager, holder *config.Holder, onReload func(config.Snapshot)) *App {
	return &App{
		logger:       logger,
		manager:      manager,
		holder:       holder,
		onReload:     onReload,
		reloadSignal: syscall.SIGHUP,
	}
}

// Run blocks until ctx is cancelled or the server fails.
func (a *App) Run(ctx context.Context) error {
	if a.manager == nil {
		return ErrMissingManager
	}

	g, ctx := errgroup.WithContext(ctx)

	if a.holder != nil {
		// Watching is best-effort; a missing file keeps the daemon up.
		if err := a.holder.Watch(ctx); err != nil {
			a.logger.Warn().Err(err).Str(log.FieldEvent, "config.watcher_start_failed").Msg("failed to start config watcher")
		}

		if a.onReload != nil {
			snaps := make(chan config.Snapshot, 1)
			a.holder.Subscribe(snaps)
			g.Go(func() error {
				for {
					select {
					case <-ctx.Done():
						return nil
					case s := <-snaps:
						a.onReload(s)
					}
				}
			})
		}

		if a.reloadSignal != nil {
			g.Go(func() error {
				hup := make(chan os.Signal, 1)
				signal.Notify(hup, a.reloadSignal)
				defer signal.Stop(hup)
				for {
					select {
					case <-ctx.Done():
						return nil
					case <-hup:
						a.logger.Info().
							Str(log.FieldEvent, "config.reload_signal").
							Str("signal", a.reloadSignal.String()).
							Msg("received reload signal")
						// Reload logs its own failure and keeps the old snapshot.
						_ = a.holder.Reload(ctx)
					}
				}
			})
		}
	}

	g.Go(func() error {
		return a.manager.Start(ctx)
	})

	return g.Wait()
}
