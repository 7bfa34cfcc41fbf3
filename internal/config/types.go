// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package config

import "time"

// Sink kinds.
const (
	SinkMPV  = "mpv"
	SinkNull = "null"
)

// Telemetry exporters.
const (
	ExporterGRPC = "grpc"
	ExporterHTTP = "http"
)

// Config is the daemon configuration after defaults, file and environment
// have been merged.
type Config struct {
	LogLevel   string          `yaml:"logLevel"`
	LogService string          `yaml:"logService,omitempty"`
	Log        LogConfig       `yaml:"log"`
	API        APIConfig       `yaml:"api"`
	Metrics    MetricsConfig   `yaml:"metrics"`
	Telemetry  TelemetryConfig `yaml:"telemetry"`
	Sink       SinkConfig      `yaml:"sink"`
	Engine     EngineConfig    `yaml:"engine"`
	Playback   PlaybackConfig  `yaml:"playback"`
}

// LogConfig enables rotating file output. An empty File keeps stdout only.
type LogConfig struct {
	File       string `yaml:"file,omitempty"`
	MaxSizeMB  int    `yaml:"maxSizeMB"`
	MaxBackups int    `yaml:"maxBackups"`
	MaxAgeDays int    `yaml:"maxAgeDays"`
	Compress   bool   `yaml:"compress"`
}

type APIConfig struct {
	ListenAddr string `yaml:"listenAddr"`
	// RateLimit is requests per minute per client IP. 0 disables limiting.
	RateLimit      int      `yaml:"rateLimit"`
	AllowedOrigins []string `yaml:"allowedOrigins,omitempty"`
}

type MetricsConfig struct {
	Enabled    bool   `yaml:"enabled"`
	ListenAddr string `yaml:"listenAddr"`
}

type TelemetryConfig struct {
	Enabled      bool    `yaml:"enabled"`
	Exporter     string  `yaml:"exporter"`
	Endpoint     string  `yaml:"endpoint,omitempty"`
	SamplingRate float64 `yaml:"samplingRate"`
}

type SinkConfig struct {
	Kind        string    `yaml:"kind"`
	MPV         MPVConfig `yaml:"mpv"`
	NativeHLS   bool      `yaml:"nativeHLS"`
	NativeTypes []string  `yaml:"nativeTypes,omitempty"`
}

type MPVConfig struct {
	Binary string   `yaml:"binary"`
	Socket string   `yaml:"socket"`
	Spawn  bool     `yaml:"spawn"`
	Args   []string `yaml:"args,omitempty"`
}

// EngineConfig configures the adaptive HLS engine and its tuning profile.
type EngineConfig struct {
	Enabled            bool          `yaml:"enabled"`
	AutoplayOnManifest bool          `yaml:"autoplayOnManifest"`
	ManifestRetries    int           `yaml:"manifestRetries"`
	RequestTimeout     time.Duration `yaml:"requestTimeout"`
	UserAgent          string        `yaml:"userAgent"`
	// MaxLiveStallSegments is the stall window in target durations used
	// when the tuning has no MaxBufferLength.
	MaxLiveStallSegments int          `yaml:"maxLiveStallSegments"`
	Tuning               TuningConfig `yaml:"tuning"`
}

// TuningConfig mirrors model.Tuning with YAML keys.
type TuningConfig struct {
	MaxBufferLength    float64 `yaml:"maxBufferLength"`
	MaxMaxBufferLength float64 `yaml:"maxMaxBufferLength"`
	BackBufferLength   float64 `yaml:"backBufferLength"`
	LowLatencyMode     bool    `yaml:"lowLatencyMode"`
	WorkerOffload      bool    `yaml:"workerOffload"`
	StartBitrateCap    int     `yaml:"startBitrateCap"`
}

type PlaybackConfig struct {
	// AutoplayPermitted false makes every new session wait for a gesture.
	AutoplayPermitted bool    `yaml:"autoplayPermitted"`
	InitialVolume     float64 `yaml:"initialVolume"`
	StartMuted        bool    `yaml:"startMuted"`
}
