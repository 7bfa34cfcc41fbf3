// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package daemon

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ManuGH/acmplay/internal/config"
	"github.com/ManuGH/acmplay/internal/log"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

const applyTimeout = 5 * time.Second

// App owns the long-lived runtime lifecycle (watchers, reload wiring) and
// delegates server management to Manager.
type App struct {
	logger       zerolog.Logger
	manager      Manager
	cfgHolder    *config.ConfigHolder
	player       Player
	reloadSignal os.Signal
}

// NewApp creates a new App orchestrator. cfgHolder may be nil to disable
// reloads.
func NewApp(logger zerolog.Logger, manager Manager, cfgHolder *config.ConfigHolder, player Player) *App {
	return &App{
		logger:       logger,
		manager:      manager,
		cfgHolder:    cfgHolder,
		player:       player,
		reloadSignal: syscall.SIGHUP,
	}
}

// Run starts all owned background subsystems and blocks until ctx is
// cancelled or a fatal error occurs.
func (a *App) Run(ctx context.Context) error {
	if a.manager == nil {
		return ErrMissingManager
	}

	g, ctx := errgroup.WithContext(ctx)

	if a.cfgHolder != nil {
		// Best effort: a missing watcher only disables file-triggered reloads.
		if err := a.cfgHolder.StartWatcher(ctx); err != nil {
			a.logger.Warn().Err(err).Str(log.FieldEvent, "config.watcher_start_failed").Msg("failed to start config watcher")
		}

		applyCh := make(chan config.Config, 1)
		a.cfgHolder.RegisterListener(applyCh)
		g.Go(func() error {
			for {
				select {
				case <-ctx.Done():
					return nil
				case cfg := <-applyCh:
					a.apply(ctx, cfg)
				}
			}
		})

		if a.reloadSignal != nil {
			hupChan := make(chan os.Signal, 1)
			signal.Notify(hupChan, a.reloadSignal)
			g.Go(func() error {
				defer signal.Stop(hupChan)
				a.reloadOn(ctx, hupChan)
				return nil
			})
		}
	}

	g.Go(func() error {
		return a.manager.Start(ctx)
	})

	return g.Wait()
}

// reloadOn reloads the config for every signal until ctx ends.
func (a *App) reloadOn(ctx context.Context, signals <-chan os.Signal) {
	for {
		select {
		case <-ctx.Done():
			return
		case sig := <-signals:
			a.logger.Info().
				Str(log.FieldEvent, "config.reload_signal").
				Str("signal", sig.String()).
				Msg("received reload signal, reloading config")
			if err := a.cfgHolder.Reload(ctx); err != nil {
				a.logger.Warn().Err(err).Str(log.FieldEvent, "config.reload_failed").Msg("config reload failed")
			}
		}
	}
}

// apply pushes the reloadable parts of cfg into the running process. Listen
// addresses, telemetry and the sink need a restart.
func (a *App) apply(ctx context.Context, cfg config.Config) {
	if level, err := zerolog.ParseLevel(cfg.LogLevel); err == nil {
		zerolog.SetGlobalLevel(level)
	}
	if a.player == nil {
		return
	}
	applyCtx, cancel := context.WithTimeout(ctx, applyTimeout)
	defer cancel()
	if err := a.player.SetProfile(applyCtx, cfg.Profile()); err != nil {
		a.logger.Warn().Err(err).Str(log.FieldEvent, "config.apply_failed").Msg("failed to apply playback profile")
		return
	}
	a.logger.Info().Str(log.FieldEvent, "config.applied").Msg("reloaded config applied")
}
