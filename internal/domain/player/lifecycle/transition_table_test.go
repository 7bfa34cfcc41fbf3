// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package lifecycle

import (
	"errors"
	"testing"

	"github.com/ManuGH/acmplay/internal/domain/player/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTransitionTable_Coverage(t *testing.T) {
	allowedEdges := map[model.PlaybackState]map[EventKind]struct{}{}
	for _, tr := range transitionsTable {
		if _, ok := allowedEdges[tr.From]; !ok {
			allowedEdges[tr.From] = map[EventKind]struct{}{}
		}
		if _, exists := allowedEdges[tr.From][tr.Event]; exists {
			t.Fatalf("duplicate transition: %s + %v", tr.From, tr.Event)
		}
		allowedEdges[tr.From][tr.Event] = struct{}{}
	}

	for _, state := range model.AllStates {
		for _, ev := range AllEvents {
			decision, ok := DecisionFor(state, ev)
			require.True(t, ok, "missing decision for %s + %v", state, ev)
			if _, ok := allowedEdges[state][ev]; ok {
				require.True(t, decision.Allowed, "allowed transition must be marked allowed for %s + %v", state, ev)
				continue
			}
			require.False(t, decision.Allowed, "forbidden transition must be marked forbidden for %s + %v", state, ev)
			require.NotEmpty(t, decision.Reason, "forbidden transition must have reason for %s + %v", state, ev)
		}
	}
}

func TestDispatch(t *testing.T) {
	tests := []struct {
		name    string
		from    model.PlaybackState
		ev      EventKind
		want    model.PlaybackState
		wantErr error
	}{
		{name: "submit from idle", from: model.StateIdle, ev: EvSourceSubmitted, want: model.StateLoading},
		{name: "resubmit while playing", from: model.StatePlaying, ev: EvSourceSubmitted, want: model.StateLoading},
		{name: "metadata", from: model.StateLoading, ev: EvMetadataLoaded, want: model.StateReady},
		{name: "play from ready", from: model.StateReady, ev: EvPlayAccepted, want: model.StatePlaying},
		{name: "replay after end", from: model.StateEnded, ev: EvPlayAccepted, want: model.StatePlaying},
		{name: "pause", from: model.StatePlaying, ev: EvPaused, want: model.StatePaused},
		{name: "end while paused", from: model.StatePaused, ev: EvEnded, want: model.StateEnded},
		{name: "fatal", from: model.StatePlaying, ev: EvFatalError, want: model.StateErrored},
		{name: "close errored", from: model.StateErrored, ev: EvClosed, want: model.StateIdle},
		{name: "same state play", from: model.StatePlaying, ev: EvPlayAccepted, want: model.StatePlaying, wantErr: ErrAlreadyInState},
		{name: "double close", from: model.StateIdle, ev: EvClosed, want: model.StateIdle, wantErr: ErrAlreadyInState},
		{name: "errored absorbs play", from: model.StateErrored, ev: EvPlayAccepted, want: model.StateErrored, wantErr: ErrForbidden},
		{name: "play before metadata", from: model.StateLoading, ev: EvPlayAccepted, want: model.StateLoading, wantErr: ErrForbidden},
		{name: "no session", from: model.StateIdle, ev: EvFatalError, want: model.StateIdle, wantErr: ErrForbidden},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tr, err := Dispatch(tt.from, tt.ev)
			if tt.wantErr != nil {
				require.Error(t, err)
				assert.True(t, errors.Is(err, tt.wantErr), "got %v", err)
			} else {
				require.NoError(t, err)
			}
			assert.Equal(t, tt.want, tr.To)
		})
	}
}

func TestErroredIsAbsorbingExceptForRestart(t *testing.T) {
	for _, ev := range AllEvents {
		_, err := Dispatch(model.StateErrored, ev)
		switch ev {
		case EvSourceSubmitted, EvClosed:
			assert.NoError(t, err, ev.String())
		default:
			assert.Error(t, err, ev.String())
		}
	}
	assert.Equal(t, ForbiddenTerminalAbsorbing, ForbiddenTransitionReason(model.StateErrored, EvMetadataLoaded))
}
