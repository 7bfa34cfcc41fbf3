// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package adapter

import "github.com/ManuGH/acmplay/internal/domain/player/model"

// EventKind is the session-level vocabulary the adapter emits.
type EventKind string

const (
	EvManifestReady  EventKind = "manifest-ready"
	EvTracksUpdated  EventKind = "tracks-updated"
	EvQualityChanged EventKind = "quality-changed"
	EvAudioChanged   EventKind = "audio-changed"
	EvBufferStalled  EventKind = "buffer-stalled"
	EvBufferResumed  EventKind = "buffer-resumed"
	EvError          EventKind = "error"
)

// Event is one upward notification, stamped with the emitting handle.
type Event struct {
	HandleID uint64
	Kind     EventKind

	AudioTracks   []model.AudioTrack
	QualityLevels []model.QualityLevel
	// Live is set on manifest-ready for playlists without an end marker.
	Live bool
	// ID is the committed level or track for quality-changed and audio-changed.
	ID int

	ErrorKind model.ErrorKind
	Fatal     bool
	Message   string
}

// Emitter receives adapter events. It must not block.
type Emitter func(Event)
