// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package lifecycle

import "github.com/ManuGH/acmplay/internal/domain/player/model"

const (
	ForbiddenTerminalAbsorbing = "terminal_absorbing"
	ForbiddenOutOfOrder        = "out_of_order"
	ForbiddenAlreadyInState    = "already_in_state"
	ForbiddenRequiresSession   = "requires_session"
	ForbiddenRequiresReady     = "requires_ready"
	ForbiddenRequiresPlayback  = "requires_playback"
)

// Decision records whether a transition is allowed and why it is forbidden.
type Decision struct {
	Allowed bool
	Reason  string
}

func allowed() Decision        { return Decision{Allowed: true} }
func forbid(r string) Decision { return Decision{Allowed: false, Reason: r} }

// decisionTable defines an explicit decision for every State×Event combination.
var decisionTable = map[model.PlaybackState]map[EventKind]Decision{
	model.StateIdle: {
		EvSourceSubmitted: allowed(),
		EvMetadataLoaded:  forbid(ForbiddenRequiresSession),
		EvPlayAccepted:    forbid(ForbiddenRequiresSession),
		EvPaused:          forbid(ForbiddenRequiresSession),
		EvEnded:           forbid(ForbiddenRequiresSession),
		EvFatalError:      forbid(ForbiddenRequiresSession),
		EvClosed:          forbid(ForbiddenAlreadyInState),
	},
	model.StateLoading: {
		EvSourceSubmitted: allowed(),
		EvMetadataLoaded:  allowed(),
		EvPlayAccepted:    forbid(ForbiddenRequiresReady),
		EvPaused:          forbid(ForbiddenRequiresPlayback),
		EvEnded:           forbid(ForbiddenRequiresPlayback),
		EvFatalError:      allowed(),
		EvClosed:          allowed(),
	},
	model.StateReady: {
		EvSourceSubmitted: allowed(),
		EvMetadataLoaded:  forbid(ForbiddenAlreadyInState),
		EvPlayAccepted:    allowed(),
		EvPaused:          forbid(ForbiddenRequiresPlayback),
		EvEnded:           forbid(ForbiddenRequiresPlayback),
		EvFatalError:      allowed(),
		EvClosed:          allowed(),
	},
	model.StatePlaying: {
		EvSourceSubmitted: allowed(),
		EvMetadataLoaded:  forbid(ForbiddenOutOfOrder),
		EvPlayAccepted:    forbid(ForbiddenAlreadyInState),
		EvPaused:          allowed(),
		EvEnded:           allowed(),
		EvFatalError:      allowed(),
		EvClosed:          allowed(),
	},
	model.StatePaused: {
		EvSourceSubmitted: allowed(),
		EvMetadataLoaded:  forbid(ForbiddenOutOfOrder),
		EvPlayAccepted:    allowed(),
		EvPaused:          forbid(ForbiddenAlreadyInState),
		EvEnded:           allowed(),
		EvFatalError:      allowed(),
		EvClosed:          allowed(),
	},
	model.StateEnded: {
		EvSourceSubmitted: allowed(),
		EvMetadataLoaded:  forbid(ForbiddenOutOfOrder),
		EvPlayAccepted:    allowed(),
		EvPaused:          forbid(ForbiddenRequiresPlayback),
		EvEnded:           forbid(ForbiddenAlreadyInState),
		EvFatalError:      allowed(),
		EvClosed:          allowed(),
	},
	model.StateErrored: {
		EvSourceSubmitted: allowed(),
		EvMetadataLoaded:  forbid(ForbiddenTerminalAbsorbing),
		EvPlayAccepted:    forbid(ForbiddenTerminalAbsorbing),
		EvPaused:          forbid(ForbiddenTerminalAbsorbing),
		EvEnded:           forbid(ForbiddenTerminalAbsorbing),
		EvFatalError:      forbid(ForbiddenAlreadyInState),
		EvClosed:          allowed(),
	},
}

// DecisionFor returns the explicit decision for state×event.
func DecisionFor(from model.PlaybackState, ev EventKind) (Decision, bool) {
	m, ok := decisionTable[from]
	if !ok {
		return Decision{}, false
	}
	d, ok := m[ev]
	return d, ok
}

// ForbiddenTransitionReason documents why a transition is disallowed.
func ForbiddenTransitionReason(from model.PlaybackState, ev EventKind) string {
	decision, ok := DecisionFor(from, ev)
	if !ok || decision.Allowed {
		return ""
	}
	return decision.Reason
}
