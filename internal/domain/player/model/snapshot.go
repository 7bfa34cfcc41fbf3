// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package model

import (
	"math"
	"slices"
)

// Snapshot is the immutable view of the player published after every change.
type Snapshot struct {
	SessionID string        `json:"sessionId,omitempty"`
	Seq       uint64        `json:"seq"`
	SourceURL string        `json:"sourceUrl,omitempty"`
	Strategy  Strategy      `json:"strategy,omitempty"`
	State     PlaybackState `json:"state"`
	Buffering bool          `json:"buffering"`

	Position      float64 `json:"position"`
	Duration      float64 `json:"duration"`
	DurationKnown bool    `json:"durationKnown"`
	Live          bool    `json:"live"`

	Volume       float64 `json:"volume"`
	Muted        bool    `json:"muted"`
	PlaybackRate float64 `json:"playbackRate"`

	AudioTracks        []AudioTrack   `json:"audioTracks"`
	SelectedAudioTrack int            `json:"selectedAudioTrack"`
	QualityLevels      []QualityLevel `json:"qualityLevels"`
	SelectedQuality    int            `json:"selectedQuality"`

	LastError       *PlaybackError `json:"lastError,omitempty"`
	LastWarning     *PlaybackError `json:"lastWarning,omitempty"`
	GestureRequired bool           `json:"gestureRequired"`
}

// IdleSnapshot is the state before any source is submitted.
func IdleSnapshot(volume float64, muted bool) Snapshot {
	return Snapshot{
		State:              StateIdle,
		Volume:             volume,
		Muted:              muted,
		PlaybackRate:       1.0,
		SelectedAudioTrack: AudioDefault,
		SelectedQuality:    QualityAuto,
	}
}

// Clone returns a deep copy safe to publish.
func (s Snapshot) Clone() Snapshot {
	out := s
	out.AudioTracks = slices.Clone(s.AudioTracks)
	out.QualityLevels = slices.Clone(s.QualityLevels)
	if s.LastError != nil {
		e := *s.LastError
		out.LastError = &e
	}
	if s.LastWarning != nil {
		w := *s.LastWarning
		out.LastWarning = &w
	}
	return out
}

// ClampPosition bounds p to [0, duration], or only below when the source is
// live or the duration unknown.
func (s Snapshot) ClampPosition(p float64) float64 {
	if math.IsNaN(p) || p < 0 {
		p = 0
	}
	if s.DurationKnown && !s.Live && p > s.Duration {
		p = s.Duration
	}
	return p
}

// Seekable reports whether a seek intent can be honored.
func (s Snapshot) Seekable() bool {
	return s.DurationKnown || s.Live
}

// NormalizeDuration interprets a sink-reported duration. +Inf marks a live
// source; NaN, zero and negative values are unknown.
func NormalizeDuration(d float64) (value float64, known, live bool) {
	switch {
	case math.IsInf(d, 1):
		return 0, false, true
	case math.IsNaN(d) || d <= 0 || math.IsInf(d, -1):
		return 0, false, false
	default:
		return d, true, false
	}
}
