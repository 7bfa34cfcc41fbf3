// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/afero"
	"gopkg.in/yaml.v3"
)

// Loader handles configuration loading with precedence
type Loader struct {
	fs              afero.Fs
	configPath      string
	ConsumedEnvKeys map[string]struct{} // every env key consulted by the last Load
}

// NewLoader creates a loader reading configPath from the OS filesystem.
// An empty path loads defaults and environment only.
func NewLoader(configPath string) *Loader {
	return NewLoaderFs(afero.NewOsFs(), configPath)
}

// NewLoaderFs creates a loader on an arbitrary filesystem.
func NewLoaderFs(fsys afero.Fs, configPath string) *Loader {
	return &Loader{
		fs:              fsys,
		configPath:      configPath,
		ConsumedEnvKeys: make(map[string]struct{}),
	}
}

// Path returns the config file path, or "" for environment-only setups.
func (l *Loader) Path() string {
	return l.configPath
}

func (l *Loader) envString(key, defaultVal string) string {
	l.ConsumedEnvKeys[key] = struct{}{}
	return ParseString(key, defaultVal)
}

func (l *Loader) envStrings(key string, defaultVal []string) []string {
	l.ConsumedEnvKeys[key] = struct{}{}
	return ParseStringSlice(key, defaultVal)
}

func (l *Loader) envBool(key string, defaultVal bool) bool {
	l.ConsumedEnvKeys[key] = struct{}{}
	return ParseBool(key, defaultVal)
}

func (l *Loader) envInt(key string, defaultVal int) int {
	l.ConsumedEnvKeys[key] = struct{}{}
	return ParseInt(key, defaultVal)
}

func (l *Loader) envDuration(key string, defaultVal time.Duration) time.Duration {
	l.ConsumedEnvKeys[key] = struct{}{}
	return ParseDuration(key, defaultVal)
}

func (l *Loader) envFloat(key string, defaultVal float64) float64 {
	l.ConsumedEnvKeys[key] = struct{}{}
	return ParseFloat(key, defaultVal)
}

// Load loads configuration with precedence: ENV > File > Defaults, then
// validates the merged result.
func (l *Loader) Load() (Config, error) {
	cfg := Default()

	if l.configPath != "" {
		if err := l.loadFile(l.configPath, &cfg); err != nil {
			return Config{}, fmt.Errorf("load config file %s: %w", l.configPath, err)
		}
	}

	l.mergeEnv(&cfg)

	if err := Validate(cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// loadFile decodes path over cfg with strict parsing. Keys missing from the
// file keep their current values.
func (l *Loader) loadFile(path string, cfg *Config) error {
	path = filepath.Clean(path)

	ext := strings.ToLower(filepath.Ext(path))
	if ext != ".yaml" && ext != ".yml" {
		return fmt.Errorf("%w: %s", ErrUnsupportedFormat, ext)
	}

	data, err := afero.ReadFile(l.fs, path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("%w: %s", ErrNotFound, path)
		}
		return fmt.Errorf("read file: %w", err)
	}
	return decodeStrict(data, cfg)
}

// Parse decodes a YAML document over the defaults and validates it without
// consulting the environment.
func Parse(data []byte) (Config, error) {
	cfg := Default()
	if err := decodeStrict(data, &cfg); err != nil {
		return Config{}, err
	}
	if err := Validate(cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func decodeStrict(data []byte, cfg *Config) error {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	if err := dec.Decode(cfg); err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		if strings.Contains(err.Error(), "not found in type") {
			return fmt.Errorf("%w: %v", ErrUnknownField, err)
		}
		return fmt.Errorf("strict config parse error: %w", err)
	}

	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return ErrMultipleDocuments
	}
	return nil
}

func (l *Loader) mergeEnv(cfg *Config) {
	cfg.LogLevel = l.envString(EnvPrefix+"LOG_LEVEL", cfg.LogLevel)
	cfg.LogService = l.envString(EnvPrefix+"LOG_SERVICE", cfg.LogService)
	cfg.Log.File = l.envString(EnvPrefix+"LOG_FILE", cfg.Log.File)

	cfg.API.ListenAddr = l.envString(EnvPrefix+"API_LISTEN_ADDR", cfg.API.ListenAddr)
	cfg.API.RateLimit = l.envInt(EnvPrefix+"API_RATE_LIMIT", cfg.API.RateLimit)
	cfg.API.AllowedOrigins = l.envStrings(EnvPrefix+"API_ALLOWED_ORIGINS", cfg.API.AllowedOrigins)

	cfg.Metrics.Enabled = l.envBool(EnvPrefix+"METRICS_ENABLED", cfg.Metrics.Enabled)
	cfg.Metrics.ListenAddr = l.envString(EnvPrefix+"METRICS_LISTEN_ADDR", cfg.Metrics.ListenAddr)

	cfg.Telemetry.Enabled = l.envBool(EnvPrefix+"TELEMETRY_ENABLED", cfg.Telemetry.Enabled)
	cfg.Telemetry.Exporter = l.envString(EnvPrefix+"TELEMETRY_EXPORTER", cfg.Telemetry.Exporter)
	cfg.Telemetry.Endpoint = l.envString(EnvPrefix+"TELEMETRY_ENDPOINT", cfg.Telemetry.Endpoint)
	cfg.Telemetry.SamplingRate = l.envFloat(EnvPrefix+"TELEMETRY_SAMPLING_RATE", cfg.Telemetry.SamplingRate)

	cfg.Sink.Kind = l.envString(EnvPrefix+"SINK_KIND", cfg.Sink.Kind)
	cfg.Sink.NativeHLS = l.envBool(EnvPrefix+"SINK_NATIVE_HLS", cfg.Sink.NativeHLS)
	cfg.Sink.NativeTypes = l.envStrings(EnvPrefix+"SINK_NATIVE_TYPES", cfg.Sink.NativeTypes)
	cfg.Sink.MPV.Binary = l.envString(EnvPrefix+"MPV_BINARY", cfg.Sink.MPV.Binary)
	cfg.Sink.MPV.Socket = l.envString(EnvPrefix+"MPV_SOCKET", cfg.Sink.MPV.Socket)
	cfg.Sink.MPV.Spawn = l.envBool(EnvPrefix+"MPV_SPAWN", cfg.Sink.MPV.Spawn)

	cfg.Engine.Enabled = l.envBool(EnvPrefix+"ENGINE_ENABLED", cfg.Engine.Enabled)
	cfg.Engine.AutoplayOnManifest = l.envBool(EnvPrefix+"ENGINE_AUTOPLAY_ON_MANIFEST", cfg.Engine.AutoplayOnManifest)
	cfg.Engine.ManifestRetries = l.envInt(EnvPrefix+"ENGINE_MANIFEST_RETRIES", cfg.Engine.ManifestRetries)
	cfg.Engine.RequestTimeout = l.envDuration(EnvPrefix+"ENGINE_REQUEST_TIMEOUT", cfg.Engine.RequestTimeout)
	cfg.Engine.UserAgent = l.envString(EnvPrefix+"ENGINE_USER_AGENT", cfg.Engine.UserAgent)
	cfg.Engine.MaxLiveStallSegments = l.envInt(EnvPrefix+"ENGINE_MAX_LIVE_STALL_SEGMENTS", cfg.Engine.MaxLiveStallSegments)
	cfg.Engine.Tuning.MaxBufferLength = l.envFloat(EnvPrefix+"ENGINE_MAX_BUFFER_LENGTH", cfg.Engine.Tuning.MaxBufferLength)
	cfg.Engine.Tuning.LowLatencyMode = l.envBool(EnvPrefix+"ENGINE_LOW_LATENCY", cfg.Engine.Tuning.LowLatencyMode)
	cfg.Engine.Tuning.StartBitrateCap = l.envInt(EnvPrefix+"ENGINE_START_BITRATE_CAP", cfg.Engine.Tuning.StartBitrateCap)

	cfg.Playback.AutoplayPermitted = l.envBool(EnvPrefix+"PLAYBACK_AUTOPLAY_PERMITTED", cfg.Playback.AutoplayPermitted)
	cfg.Playback.InitialVolume = l.envFloat(EnvPrefix+"PLAYBACK_INITIAL_VOLUME", cfg.Playback.InitialVolume)
	cfg.Playback.StartMuted = l.envBool(EnvPrefix+"PLAYBACK_START_MUTED", cfg.Playback.StartMuted)
}
