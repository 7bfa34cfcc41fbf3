// SPDX-License-Identifier: MIT

package telemetry

import (
	"go.opentelemetry.io/otel/attribute"
)

// Common attribute keys for consistent tracing across the application.
const (
	// HTTP attributes
	HTTPMethodKey     = "http.method"
	HTTPStatusCodeKey = "http.status_code"
	HTTPRouteKey      = "http.route"

	// Player attributes
	PlayerSessionIDKey = "player.session_id"
	PlayerStrategyKey  = "player.strategy"
	PlayerSourceKey    = "player.source"
	PlayerOutcomeKey   = "player.outcome"
	PlayerStateKey     = "player.state"

	// Engine attributes
	EngineLevelsKey      = "engine.levels"
	EngineAudioTracksKey = "engine.audio_tracks"
	EngineLiveKey        = "engine.live"

	// Error attributes
	ErrorKey     = "error"
	ErrorTypeKey = "error.type"
)

// HTTPAttributes creates common HTTP span attributes.
func HTTPAttributes(method, route string, statusCode int) []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.String(HTTPMethodKey, method),
		attribute.String(HTTPRouteKey, route),
		attribute.Int(HTTPStatusCodeKey, statusCode),
	}
}

// SessionAttributes creates attributes for a player.session span. Empty
// values are omitted.
func SessionAttributes(sessionID, strategy, source string) []attribute.KeyValue {
	attrs := make([]attribute.KeyValue, 0, 3)
	if sessionID != "" {
		attrs = append(attrs, attribute.String(PlayerSessionIDKey, sessionID))
	}
	if strategy != "" {
		attrs = append(attrs, attribute.String(PlayerStrategyKey, strategy))
	}
	if source != "" {
		attrs = append(attrs, attribute.String(PlayerSourceKey, source))
	}
	return attrs
}

// ManifestAttributes describes a parsed manifest.
func ManifestAttributes(levels, audioTracks int, live bool) []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.Int(EngineLevelsKey, levels),
		attribute.Int(EngineAudioTracksKey, audioTracks),
		attribute.Bool(EngineLiveKey, live),
	}
}

// ErrorAttributes creates error attributes. A nil error yields none.
func ErrorAttributes(err error, errorType string) []attribute.KeyValue {
	if err == nil {
		return nil
	}
	attrs := []attribute.KeyValue{attribute.Bool(ErrorKey, true)}
	if errorType != "" {
		attrs = append(attrs, attribute.String(ErrorTypeKey, errorType))
	}
	return attrs
}
