// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package ports

import "github.com/ManuGH/acmplay/internal/domain/player/model"

// Tuning is the engine buffer configuration.
type Tuning = model.Tuning

// EngineEventKind enumerates adaptive engine events.
type EngineEventKind string

const (
	EngineManifestParsed     EngineEventKind = "manifest-parsed"
	EngineLevelSwitched      EngineEventKind = "level-switched"
	EngineAudioTrackSwitched EngineEventKind = "audio-track-switched"
	EngineAudioTracksUpdated EngineEventKind = "audio-tracks-updated"
	EngineBufferStalled      EngineEventKind = "buffer-stalled"
	EngineBufferAppended     EngineEventKind = "buffer-appended"
	EngineError              EngineEventKind = "error"
)

// Engine error types.
const (
	ErrorTypeNetwork = "networkError"
	ErrorTypeMedia   = "mediaError"
	ErrorTypeParsing = "parsingError"
	ErrorTypeOther   = "otherError"
)

// EngineLevel is one rendition as the engine reports it.
type EngineLevel struct {
	Index   int
	Name    string
	Width   int
	Height  int
	Bitrate int
	URI     string
}

// EngineAudioTrack is one audio rendition as the engine reports it.
type EngineAudioTrack struct {
	Index    int
	Name     string
	Language string
	Default  bool
	URI      string
}

// EngineEvent is a single engine notification. Only the fields relevant to
// Kind are populated.
type EngineEvent struct {
	Kind        EngineEventKind
	Levels      []EngineLevel
	AudioTracks []EngineAudioTrack
	Level       int
	AudioTrack  int
	Fatal       bool
	ErrorType   string
	Details     string

	// Live is set on manifest-parsed when the playlist has no end marker.
	Live bool
}

// EngineHandler receives engine events.
type EngineHandler func(EngineEvent)

// Engine is one adaptive streaming engine instance bound to at most one sink.
type Engine interface {
	LoadSource(url string) error
	AttachMedia(sink Sink) error
	// Destroy releases all resources. No event is delivered after it returns.
	// It may be called from inside an event handler.
	Destroy()
	SetCurrentLevel(index int)
	// CurrentLevel returns model.QualityAuto while automatic selection is active.
	CurrentLevel() int
	SetAudioTrack(index int)
	AudioTrack() int
	Subscribe(h EngineHandler) (unsubscribe func())
}

// EngineFactory builds engines and reports whether the platform supports them.
type EngineFactory interface {
	IsSupported() bool
	New(t Tuning) (Engine, error)
}
