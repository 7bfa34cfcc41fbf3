// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package config

import (
	"fmt"

	"github.com/ManuGH/acmplay/internal/validate"
)

// Validate checks a merged configuration. It returns a
// validate.ValidationError listing every problem found.
func Validate(cfg Config) error {
	v := validate.New()

	v.LogLevel("logLevel", cfg.LogLevel)
	if cfg.Log.File != "" {
		v.Positive("log.maxSizeMB", cfg.Log.MaxSizeMB)
		v.NonNegative("log.maxBackups", cfg.Log.MaxBackups)
		v.NonNegative("log.maxAgeDays", cfg.Log.MaxAgeDays)
	}

	v.ListenAddr("api.listenAddr", cfg.API.ListenAddr)
	v.NonNegative("api.rateLimit", cfg.API.RateLimit)
	for i, origin := range cfg.API.AllowedOrigins {
		v.Origin(fmt.Sprintf("api.allowedOrigins[%d]", i), origin)
	}

	if cfg.Metrics.Enabled {
		v.ListenAddr("metrics.listenAddr", cfg.Metrics.ListenAddr)
		if cfg.Metrics.ListenAddr == cfg.API.ListenAddr {
			v.AddError("metrics.listenAddr", "must differ from api.listenAddr", cfg.Metrics.ListenAddr)
		}
	}

	if cfg.Telemetry.Enabled {
		v.OneOf("telemetry.exporter", cfg.Telemetry.Exporter, []string{ExporterGRPC, ExporterHTTP})
		v.NotEmpty("telemetry.endpoint", cfg.Telemetry.Endpoint)
	}
	v.FloatRange("telemetry.samplingRate", cfg.Telemetry.SamplingRate, 0, 1)

	v.OneOf("sink.kind", cfg.Sink.Kind, []string{SinkMPV, SinkNull})
	if cfg.Sink.Kind == SinkMPV {
		v.NotEmpty("sink.mpv.socket", cfg.Sink.MPV.Socket)
		if cfg.Sink.MPV.Spawn {
			v.NotEmpty("sink.mpv.binary", cfg.Sink.MPV.Binary)
		}
	}

	validateEngine(v, cfg.Engine)

	v.FloatRange("playback.initialVolume", cfg.Playback.InitialVolume, 0, 1)

	return v.Err()
}

func validateEngine(v *validate.Validator, e EngineConfig) {
	if !e.Enabled {
		return
	}
	v.Range("engine.manifestRetries", e.ManifestRetries, 1, 20)
	if e.RequestTimeout <= 0 {
		v.AddError("engine.requestTimeout", "must be positive", e.RequestTimeout.String())
	}
	v.Positive("engine.maxLiveStallSegments", e.MaxLiveStallSegments)

	t := e.Tuning
	v.NonNegativeFloat("engine.tuning.maxBufferLength", t.MaxBufferLength)
	v.NonNegativeFloat("engine.tuning.maxMaxBufferLength", t.MaxMaxBufferLength)
	v.NonNegativeFloat("engine.tuning.backBufferLength", t.BackBufferLength)
	if t.MaxMaxBufferLength > 0 && t.MaxMaxBufferLength < t.MaxBufferLength {
		v.AddError("engine.tuning.maxMaxBufferLength", "must not be below maxBufferLength", t.MaxMaxBufferLength)
	}
	v.NonNegative("engine.tuning.startBitrateCap", t.StartBitrateCap)
}
