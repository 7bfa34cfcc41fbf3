// SPDX-License-Identifier: MIT

// Package daemon provides the core daemon bootstrapping and lifecycle management.
package daemon

import (
	"context"
	"fmt"
	"io"
	"math"
	"os"
	"os/signal"
	"syscall"

	"github.com/ManuGH/acmplay/internal/api"
	"github.com/ManuGH/acmplay/internal/api/middleware"
	"github.com/ManuGH/acmplay/internal/bus"
	"github.com/ManuGH/acmplay/internal/config"
	"github.com/ManuGH/acmplay/internal/domain/player/ports"
	"github.com/ManuGH/acmplay/internal/domain/player/session"
	"github.com/ManuGH/acmplay/internal/engine/hls"
	"github.com/ManuGH/acmplay/internal/health"
	"github.com/ManuGH/acmplay/internal/log"
	"github.com/ManuGH/acmplay/internal/sink/mpv"
	"github.com/ManuGH/acmplay/internal/sink/stub"
	"github.com/ManuGH/acmplay/internal/telemetry"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const defaultService = "acmplay"

// Options carries process inputs that are not part of the config file.
type Options struct {
	Version string
	// Holder enables hot reload. Optional.
	Holder *config.ConfigHolder
	// Sink overrides the sink built from cfg.Sink.
	Sink ports.Sink
}

// Build configures logging and tracing, then wires the sink, the engine
// factory, the playback controller and the servers into an App.
func Build(ctx context.Context, cfg config.Config, opts Options) (*App, error) {
	service := cfg.LogService
	if service == "" {
		service = defaultService
	}
	logCfg := log.Config{Level: cfg.LogLevel, Service: service, Version: opts.Version}
	if cfg.Log.File != "" {
		logCfg.File = &log.FileConfig{
			Path:       cfg.Log.File,
			MaxSizeMB:  cfg.Log.MaxSizeMB,
			MaxBackups: cfg.Log.MaxBackups,
			MaxAgeDays: cfg.Log.MaxAgeDays,
			Compress:   cfg.Log.Compress,
		}
	}
	log.Configure(logCfg)
	logger := log.WithComponent("daemon")

	logger.Info().
		Str(log.FieldEvent, "daemon.bootstrap").
		Str("version", opts.Version).
		Str("listen", cfg.API.ListenAddr).
		Str("sink", cfg.Sink.Kind).
		Bool("engine", cfg.Engine.Enabled).
		Msg("starting acmplay daemon")

	provider, err := telemetry.NewProvider(ctx, telemetry.Config{
		Enabled:        cfg.Telemetry.Enabled,
		ServiceName:    service,
		ServiceVersion: opts.Version,
		ExporterType:   cfg.Telemetry.Exporter,
		Endpoint:       cfg.Telemetry.Endpoint,
		SamplingRate:   cfg.Telemetry.SamplingRate,
	})
	if err != nil {
		logger.Warn().Err(err).Msg("telemetry initialization failed, continuing without tracing")
		provider = nil
	} else if cfg.Telemetry.Enabled {
		logger.Info().
			Str("endpoint", cfg.Telemetry.Endpoint).
			Float64("sampling_rate", cfg.Telemetry.SamplingRate).
			Msg("telemetry initialized")
	}

	sink := opts.Sink
	if sink == nil {
		sink, err = buildSink(ctx, cfg.Sink)
		if err != nil {
			_ = provider.Shutdown(context.WithoutCancel(ctx))
			return nil, err
		}
	}

	var engines ports.EngineFactory
	if cfg.Engine.Enabled {
		engines = hls.NewFactory(hls.Config{
			ManifestRetries: uint(cfg.Engine.ManifestRetries),
			RequestTimeout:  cfg.Engine.RequestTimeout,
			UserAgent:       cfg.Engine.UserAgent,
			StallSegments:   cfg.Engine.MaxLiveStallSegments,
		})
	}

	events := bus.NewMemoryBus()
	player := session.New(session.Options{
		Sink:          sink,
		Engines:       engines,
		Bus:           events,
		Profile:       cfg.Profile(),
		InitialVolume: cfg.Playback.InitialVolume,
		StartMuted:    cfg.Playback.StartMuted,
	})

	hm := health.NewManager(opts.Version)
	hm.RegisterChecker(health.NewPlayerChecker(player))

	apiCfg := api.Config{
		ListenAddr: cfg.API.ListenAddr,
		Health:     hm,
		Stack: middleware.StackConfig{
			AllowedOrigins:        cfg.API.AllowedOrigins,
			EnableSecurityHeaders: true,
			EnableMetrics:         cfg.Metrics.Enabled,
			EnableLogging:         true,
			RateLimit:             cfg.API.RateLimit,
		},
	}
	if cfg.Telemetry.Enabled {
		apiCfg.ServiceName = service
	}

	deps := Deps{
		Logger: logger,
		Player: player,
		API:    api.New(apiCfg, player, events),
	}
	if cfg.Metrics.Enabled {
		deps.MetricsAddr = cfg.Metrics.ListenAddr
		deps.MetricsHandler = promhttp.Handler()
	}

	mgr, err := NewManager(deps)
	if err != nil {
		return nil, err
	}
	// LIFO: the sink closes first and the log file last.
	mgr.RegisterShutdownHook("log", func(context.Context) error { return log.Close() })
	if provider != nil {
		mgr.RegisterShutdownHook("telemetry", provider.Shutdown)
	}
	if closer, ok := sink.(io.Closer); ok {
		mgr.RegisterShutdownHook("sink", func(context.Context) error { return closer.Close() })
	}

	return NewApp(logger, mgr, opts.Holder, player), nil
}

func buildSink(ctx context.Context, cfg config.SinkConfig) (ports.Sink, error) {
	switch cfg.Kind {
	case config.SinkMPV:
		s, err := mpv.Dial(ctx, mpv.Config{
			Binary:      cfg.MPV.Binary,
			Socket:      cfg.MPV.Socket,
			Spawn:       cfg.MPV.Spawn,
			Args:        cfg.MPV.Args,
			NativeHLS:   cfg.NativeHLS,
			NativeTypes: cfg.NativeTypes,
		})
		if err != nil {
			return nil, fmt.Errorf("connect mpv sink: %w", err)
		}
		return s, nil
	case config.SinkNull:
		// The null sink accepts every command and behaves like an endless stream.
		opts := []stub.Option{stub.WithAutoEvents(math.Inf(1))}
		if len(cfg.NativeTypes) > 0 {
			opts = append(opts, stub.WithNativeTypes(cfg.NativeTypes...))
		}
		if cfg.NativeHLS {
			opts = append(opts, stub.WithNativeHLS())
		}
		return stub.New(opts...), nil
	default:
		return nil, fmt.Errorf("unsupported sink kind %q", cfg.Kind)
	}
}

// SignalContext returns a context canceled on interrupt or termination.
func SignalContext(parent context.Context) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
}
