// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package ports

import "context"

//go:generate mockgen -destination=mocks/mock_sink.go -package=mocks github.com/ManuGH/acmplay/internal/domain/player/ports Sink

// HLSMimeType is the capability hint for segmented manifests.
const HLSMimeType = "application/vnd.apple.mpegurl"

// MediaEventKind enumerates the events a Sink reports.
type MediaEventKind string

const (
	MediaPlay           MediaEventKind = "play"
	MediaPause          MediaEventKind = "pause"
	MediaTimeUpdate     MediaEventKind = "timeupdate"
	MediaLoadedMetadata MediaEventKind = "loadedmetadata"
	MediaWaiting        MediaEventKind = "waiting"
	MediaPlaying        MediaEventKind = "playing"
	MediaEnded          MediaEventKind = "ended"
	MediaError          MediaEventKind = "error"
)

// MediaEvent is a single notification from the sink. Position and Duration
// are the sink's values at emission time; Message is set for MediaError.
type MediaEvent struct {
	Kind     MediaEventKind
	Position float64
	Duration float64
	Message  string
}

// MediaHandler receives sink events. It may be called from any goroutine.
type MediaHandler func(MediaEvent)

// Sink is the media rendering target. Implementations must be safe for
// concurrent use.
type Sink interface {
	SetSource(url string) error
	Load() error
	// Play resolves once the sink has accepted or rejected playback.
	Play(ctx context.Context) error
	Pause() error
	SetVolume(v float64) error
	SetMuted(muted bool) error
	SetPlaybackRate(rate float64) error
	SetCurrentTime(seconds float64) error
	CurrentTime() float64
	Duration() float64
	Paused() bool
	CanPlayNatively(mimeHint string) bool
	Subscribe(h MediaHandler) (unsubscribe func())
}

// NativeAudioTrack is an audio track exposed by the sink itself.
type NativeAudioTrack struct {
	ID       int
	Label    string
	Language string
	Enabled  bool
}

// NativeAudioTracks is implemented by sinks that expose their own audio tracks.
type NativeAudioTracks interface {
	AudioTracks() []NativeAudioTrack
	EnableAudioTrack(id int) error
}

// AudioSourceSetter is implemented by sinks that can mix in an external audio
// rendition alongside the video source.
type AudioSourceSetter interface {
	SetAudioSource(url string) error
}

// Reloader is implemented by sinks whose Load always starts paused. Reload
// loads the current source again from position and keeps the pause state.
type Reloader interface {
	Reload(position float64) error
}
