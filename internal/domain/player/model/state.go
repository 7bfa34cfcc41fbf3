// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package model

// PlaybackState is the coarse, presentation-facing playback lifecycle.
type PlaybackState string

const (
	StateIdle    PlaybackState = "idle"
	StateLoading PlaybackState = "loading"
	StateReady   PlaybackState = "ready"
	StatePlaying PlaybackState = "playing"
	StatePaused  PlaybackState = "paused"
	StateEnded   PlaybackState = "ended"
	StateErrored PlaybackState = "errored"
)

// AllStates lists every playback state in lifecycle order.
var AllStates = []PlaybackState{
	StateIdle,
	StateLoading,
	StateReady,
	StatePlaying,
	StatePaused,
	StateEnded,
	StateErrored,
}

// IsTerminal reports whether the state only leaves on a new source or close.
func (s PlaybackState) IsTerminal() bool {
	return s == StateErrored
}

// HasSession reports whether a session is attached in this state.
func (s PlaybackState) HasSession() bool {
	return s != StateIdle && s != ""
}

// CanPlay reports whether a play intent is meaningful in this state.
func (s PlaybackState) CanPlay() bool {
	switch s {
	case StateReady, StatePaused, StateEnded:
		return true
	}
	return false
}

// Strategy is the attachment decision taken once per source.
type Strategy string

const (
	StrategyNone           Strategy = ""
	StrategyNativeDirect   Strategy = "native-direct"
	StrategyAdaptiveEngine Strategy = "adaptive-engine"
	StrategyUnsupported    Strategy = "unsupported"
)

func (s Strategy) String() string {
	if s == StrategyNone {
		return "none"
	}
	return string(s)
}
