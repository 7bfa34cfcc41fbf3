// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package config

import (
	"time"

	"github.com/ManuGH/acmplay/internal/domain/player/model"
)

// Default returns the stock configuration: an mpv sink on a private socket,
// the HLS engine with low-latency tuning and the API on :8088.
func Default() Config {
	t := model.DefaultTuning()
	return Config{
		LogLevel: "info",
		Log: LogConfig{
			MaxSizeMB:  50,
			MaxBackups: 3,
			MaxAgeDays: 14,
		},
		API: APIConfig{
			ListenAddr: ":8088",
			RateLimit:  600,
		},
		Metrics: MetricsConfig{
			ListenAddr: ":9091",
		},
		Telemetry: TelemetryConfig{
			Exporter:     ExporterGRPC,
			SamplingRate: 1.0,
		},
		Sink: SinkConfig{
			Kind: SinkMPV,
			MPV: MPVConfig{
				Binary: "mpv",
				Socket: "/tmp/acmplay-mpv.sock",
				Spawn:  true,
			},
		},
		Engine: EngineConfig{
			Enabled:              true,
			ManifestRetries:      3,
			RequestTimeout:       10 * time.Second,
			UserAgent:            "acmplay",
			MaxLiveStallSegments: 3,
			Tuning: TuningConfig{
				MaxBufferLength:    t.MaxBufferLength,
				MaxMaxBufferLength: t.MaxMaxBufferLength,
				BackBufferLength:   t.BackBufferLength,
				LowLatencyMode:     t.LowLatencyMode,
				WorkerOffload:      t.WorkerOffload,
				StartBitrateCap:    t.StartBitrateCap,
			},
		},
		Playback: PlaybackConfig{
			AutoplayPermitted: true,
			InitialVolume:     1.0,
		},
	}
}

// Tuning converts the engine tuning section.
func (c Config) Tuning() model.Tuning {
	t := c.Engine.Tuning
	return model.Tuning{
		MaxBufferLength:    t.MaxBufferLength,
		MaxMaxBufferLength: t.MaxMaxBufferLength,
		BackBufferLength:   t.BackBufferLength,
		LowLatencyMode:     t.LowLatencyMode,
		WorkerOffload:      t.WorkerOffload,
		StartBitrateCap:    t.StartBitrateCap,
	}
}

// Profile is the controller profile derived from the engine and playback sections.
func (c Config) Profile() model.Profile {
	return model.Profile{
		Tuning:             c.Tuning(),
		AutoplayOnManifest: c.Engine.AutoplayOnManifest,
		AutoplayPermitted:  c.Playback.AutoplayPermitted,
	}
}
