// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package mpv

import (
	"encoding/json"
	"math"

	"github.com/ManuGH/acmplay/internal/domain/player/ports"
	"github.com/ManuGH/acmplay/internal/log"
)

// handleEvent updates the cached state and translates mpv events into
// media events. It runs on the read loop.
func (s *Sink) handleEvent(msg message) {
	switch msg.Event {
	case "property-change":
		s.onProperty(msg)
	case "file-loaded":
		s.mu.Lock()
		s.loaded = true
		d := s.duration
		s.mu.Unlock()
		s.enqueue(ports.MediaEvent{Kind: ports.MediaLoadedMetadata, Duration: d})
	case "end-file":
		s.mu.Lock()
		s.loaded = false
		s.mu.Unlock()
		switch msg.Reason {
		case "eof":
			s.enqueue(ports.MediaEvent{Kind: ports.MediaEnded})
		case "error":
			text := msg.FileError
			if text == "" {
				text = "mpv failed to play the file"
			}
			s.enqueue(ports.MediaEvent{Kind: ports.MediaError, Message: text})
		}
	default:
		s.logger.Trace().Str(log.FieldEvent, "mpv.event").Str("name", msg.Event).Msg("unhandled mpv event")
	}
}

func (s *Sink) onProperty(msg message) {
	switch msg.ID {
	case obsTimePos:
		var pos float64
		if !decode(msg.Data, &pos) {
			return
		}
		s.mu.Lock()
		s.position = pos
		d := s.duration
		s.mu.Unlock()
		s.enqueue(ports.MediaEvent{Kind: ports.MediaTimeUpdate, Position: pos, Duration: d})
	case obsDuration:
		d := math.NaN()
		if !decode(msg.Data, &d) {
			d = math.NaN()
		}
		s.mu.Lock()
		s.duration = d
		loaded := s.loaded
		s.mu.Unlock()
		if loaded && !math.IsNaN(d) {
			s.enqueue(ports.MediaEvent{Kind: ports.MediaLoadedMetadata, Duration: d})
		}
	case obsPause:
		var paused bool
		if !decode(msg.Data, &paused) {
			return
		}
		s.mu.Lock()
		changed := s.paused != paused
		s.paused = paused
		pos := s.position
		s.mu.Unlock()
		if !changed {
			return
		}
		if paused {
			s.enqueue(ports.MediaEvent{Kind: ports.MediaPause, Position: pos})
			return
		}
		s.enqueue(ports.MediaEvent{Kind: ports.MediaPlay, Position: pos})
		s.enqueue(ports.MediaEvent{Kind: ports.MediaPlaying, Position: pos})
	case obsPausedForCache:
		var waiting bool
		if !decode(msg.Data, &waiting) {
			return
		}
		if waiting {
			s.enqueue(ports.MediaEvent{Kind: ports.MediaWaiting})
			return
		}
		if !s.Paused() {
			s.enqueue(ports.MediaEvent{Kind: ports.MediaPlaying})
		}
	case obsEOFReached:
		var eof bool
		if decode(msg.Data, &eof) && eof {
			s.enqueue(ports.MediaEvent{Kind: ports.MediaEnded})
		}
	case obsTrackList:
		var tracks []track
		if !decode(msg.Data, &tracks) {
			return
		}
		s.mu.Lock()
		s.tracks = tracks
		s.mu.Unlock()
	}
}

// decode reports false for missing or null data, which mpv sends while a
// property is unavailable.
func decode(data json.RawMessage, v any) bool {
	if len(data) == 0 || string(data) == "null" {
		return false
	}
	return json.Unmarshal(data, v) == nil
}
