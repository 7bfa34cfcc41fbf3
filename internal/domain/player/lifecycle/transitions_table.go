// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package lifecycle

import "github.com/ManuGH/acmplay/internal/domain/player/model"

// Transition is a single allowed edge in the playback state machine.
type Transition struct {
	From  model.PlaybackState
	To    model.PlaybackState
	Event EventKind
}

var transitionsTable = []Transition{
	// Source submission restarts from any state
	{From: model.StateIdle, To: model.StateLoading, Event: EvSourceSubmitted},
	{From: model.StateLoading, To: model.StateLoading, Event: EvSourceSubmitted},
	{From: model.StateReady, To: model.StateLoading, Event: EvSourceSubmitted},
	{From: model.StatePlaying, To: model.StateLoading, Event: EvSourceSubmitted},
	{From: model.StatePaused, To: model.StateLoading, Event: EvSourceSubmitted},
	{From: model.StateEnded, To: model.StateLoading, Event: EvSourceSubmitted},
	{From: model.StateErrored, To: model.StateLoading, Event: EvSourceSubmitted},

	{From: model.StateLoading, To: model.StateReady, Event: EvMetadataLoaded},

	// Play path
	{From: model.StateReady, To: model.StatePlaying, Event: EvPlayAccepted},
	{From: model.StatePaused, To: model.StatePlaying, Event: EvPlayAccepted},
	{From: model.StateEnded, To: model.StatePlaying, Event: EvPlayAccepted},
	{From: model.StatePlaying, To: model.StatePaused, Event: EvPaused},

	{From: model.StatePlaying, To: model.StateEnded, Event: EvEnded},
	{From: model.StatePaused, To: model.StateEnded, Event: EvEnded},

	// Fatal errors
	{From: model.StateLoading, To: model.StateErrored, Event: EvFatalError},
	{From: model.StateReady, To: model.StateErrored, Event: EvFatalError},
	{From: model.StatePlaying, To: model.StateErrored, Event: EvFatalError},
	{From: model.StatePaused, To: model.StateErrored, Event: EvFatalError},
	{From: model.StateEnded, To: model.StateErrored, Event: EvFatalError},

	// Teardown
	{From: model.StateLoading, To: model.StateIdle, Event: EvClosed},
	{From: model.StateReady, To: model.StateIdle, Event: EvClosed},
	{From: model.StatePlaying, To: model.StateIdle, Event: EvClosed},
	{From: model.StatePaused, To: model.StateIdle, Event: EvClosed},
	{From: model.StateEnded, To: model.StateIdle, Event: EvClosed},
	{From: model.StateErrored, To: model.StateIdle, Event: EvClosed},
}

// TransitionFor returns the allowed transition for a given state+event.
func TransitionFor(from model.PlaybackState, ev EventKind) (Transition, bool) {
	for _, tr := range transitionsTable {
		if tr.From == from && tr.Event == ev {
			return tr, true
		}
	}
	return Transition{}, false
}
