// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

// Package classify decides how a source URL is attached to a sink.
package classify

import (
	"net/url"
	"path"
	"strings"

	"github.com/ManuGH/acmplay/internal/domain/player/model"
	"github.com/ManuGH/acmplay/internal/domain/player/ports"
)

// Reason explains a Decision.
type Reason string

const (
	ReasonProgressive    Reason = "progressive"
	ReasonNativeManifest Reason = "native_manifest"
	ReasonEngineManifest Reason = "engine_manifest"
	ReasonNoEngine       Reason = "no_engine"
)

// Capabilities are the sink and engine facts the decision depends on.
type Capabilities struct {
	NativeHLS       bool
	EngineAvailable bool
}

// Decision is a strategy plus the rule that produced it.
type Decision struct {
	Strategy model.Strategy
	Reason   Reason
}

// Classify maps a URL and capabilities to an attachment strategy.
func Classify(rawURL string, caps Capabilities) model.Strategy {
	return Decide(rawURL, caps).Strategy
}

// Decide is Classify with the reason attached. It is total and has no side effects.
func Decide(rawURL string, caps Capabilities) Decision {
	if !IsManifestURL(rawURL) {
		return Decision{Strategy: model.StrategyNativeDirect, Reason: ReasonProgressive}
	}
	if caps.NativeHLS {
		return Decision{Strategy: model.StrategyNativeDirect, Reason: ReasonNativeManifest}
	}
	if caps.EngineAvailable {
		return Decision{Strategy: model.StrategyAdaptiveEngine, Reason: ReasonEngineManifest}
	}
	return Decision{Strategy: model.StrategyUnsupported, Reason: ReasonNoEngine}
}

// IsManifestURL reports whether the last path segment names an m3u8 manifest.
// Query and fragment are ignored.
func IsManifestURL(rawURL string) bool {
	s := strings.TrimSpace(rawURL)
	if s == "" {
		return false
	}
	p := s
	if u, err := url.Parse(s); err == nil {
		p = u.Path
		if p == "" {
			p = u.Opaque
		}
	} else if i := strings.IndexAny(s, "?#"); i >= 0 {
		p = s[:i]
	}
	seg := strings.ToLower(path.Base(p))
	i := strings.Index(seg, ".")
	if i < 0 {
		return false
	}
	return strings.Contains(seg[i:], ".m3u8")
}

// ProbeCapabilities asks the sink and the engine factory what they support.
// A nil factory means no engine is available.
func ProbeCapabilities(sink ports.Sink, engines ports.EngineFactory) Capabilities {
	var caps Capabilities
	if sink != nil {
		caps.NativeHLS = sink.CanPlayNatively(ports.HLSMimeType)
	}
	if engines != nil {
		caps.EngineAvailable = engines.IsSupported()
	}
	return caps
}
