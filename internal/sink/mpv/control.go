// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package mpv

import (
	"context"
	"fmt"
	"math"
	"slices"
	"strconv"
	"sync"

	"github.com/ManuGH/acmplay/internal/domain/player/ports"
)

var (
	_ ports.Sink              = (*Sink)(nil)
	_ ports.NativeAudioTracks = (*Sink)(nil)
	_ ports.AudioSourceSetter = (*Sink)(nil)
	_ ports.Reloader          = (*Sink)(nil)
)

// SetSource records url for the next Load. An empty url stops playback.
func (s *Sink) SetSource(url string) error {
	s.mu.Lock()
	s.source = url
	s.position = 0
	s.mu.Unlock()
	if url == "" {
		return s.do("stop")
	}
	return nil
}

// Load starts loading the current source paused from the beginning.
func (s *Sink) Load() error {
	src := s.unload()
	if src == "" {
		return nil
	}
	if err := s.do("set_property", "pause", true); err != nil {
		return err
	}
	if err := s.do("set_property", "start", "none"); err != nil {
		return err
	}
	return s.do("loadfile", src, "replace")
}

// Reload replaces the playing file with the current source without touching
// the pause property. mpv drops seeks until file-loaded, so the position is
// passed through the start option.
func (s *Sink) Reload(position float64) error {
	src := s.unload()
	if src == "" {
		return nil
	}
	start := "none"
	if position > 0 {
		start = strconv.FormatFloat(position, 'f', 3, 64)
	}
	if err := s.do("set_property", "start", start); err != nil {
		return err
	}
	if err := s.do("loadfile", src, "replace"); err != nil {
		return err
	}
	s.mu.Lock()
	s.position = position
	s.mu.Unlock()
	return nil
}

func (s *Sink) unload() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.loaded = false
	return s.source
}

// Play unpauses mpv. It resolves when mpv acknowledges the property change.
func (s *Sink) Play(ctx context.Context) error {
	if _, err := s.command(ctx, "set_property", "pause", false); err != nil {
		return fmt.Errorf("mpv play: %w", err)
	}
	return nil
}

func (s *Sink) Pause() error {
	return s.do("set_property", "pause", true)
}

// SetVolume maps [0,1] onto mpv's percent scale.
func (s *Sink) SetVolume(v float64) error {
	return s.do("set_property", "volume", math.Round(v*10000)/100)
}

func (s *Sink) SetMuted(muted bool) error {
	return s.do("set_property", "mute", muted)
}

func (s *Sink) SetPlaybackRate(rate float64) error {
	return s.do("set_property", "speed", rate)
}

func (s *Sink) SetCurrentTime(seconds float64) error {
	s.mu.Lock()
	loaded := s.loaded
	s.mu.Unlock()
	if !loaded {
		return nil
	}
	return s.do("set_property", "time-pos", seconds)
}

func (s *Sink) CurrentTime() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.position
}

func (s *Sink) Duration() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.duration
}

func (s *Sink) Paused() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.paused
}

// CanPlayNatively answers from configuration; mpv itself demuxes nearly
// everything, so the operator decides which formats bypass the engine.
func (s *Sink) CanPlayNatively(mimeHint string) bool {
	if mimeHint == ports.HLSMimeType {
		return s.cfg.NativeHLS
	}
	return slices.Contains(s.cfg.NativeTypes, mimeHint)
}

func (s *Sink) Subscribe(h ports.MediaHandler) func() {
	s.mu.Lock()
	s.nextSub++
	id := s.nextSub
	s.handlers[id] = h
	s.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			delete(s.handlers, id)
			s.mu.Unlock()
		})
	}
}

// AudioTracks lists the audio entries of mpv's track-list.
func (s *Sink) AudioTracks() []ports.NativeAudioTrack {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []ports.NativeAudioTrack
	for _, t := range s.tracks {
		if t.Type != "audio" {
			continue
		}
		out = append(out, ports.NativeAudioTrack{ID: t.ID, Label: t.Title, Language: t.Lang, Enabled: t.Selected})
	}
	return out
}

// EnableAudioTrack selects an audio track by mpv track id.
func (s *Sink) EnableAudioTrack(id int) error {
	return s.do("set_property", "aid", id)
}

// SetAudioSource adds and selects an external audio rendition.
func (s *Sink) SetAudioSource(url string) error {
	return s.do("audio-add", url, "select")
}
