// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package lifecycle

import (
	"errors"
	"fmt"

	"github.com/ManuGH/acmplay/internal/domain/player/model"
)

var (
	// ErrAlreadyInState marks a same-state event. Callers treat it as a no-op.
	ErrAlreadyInState = errors.New("already in state")
	// ErrForbidden marks a transition the decision table rejects.
	ErrForbidden = errors.New("forbidden transition")
)

// Dispatch resolves the next state for ev. It never mutates anything; the
// caller applies Transition.To when err is nil.
func Dispatch(from model.PlaybackState, ev EventKind) (Transition, error) {
	decision, ok := DecisionFor(from, ev)
	if !ok {
		return Transition{From: from, To: from, Event: ev}, fmt.Errorf("%w: %s + %s: undefined", ErrForbidden, from, ev)
	}
	if !decision.Allowed {
		tr := Transition{From: from, To: from, Event: ev}
		if decision.Reason == ForbiddenAlreadyInState {
			return tr, ErrAlreadyInState
		}
		return tr, fmt.Errorf("%w: %s + %s: %s", ErrForbidden, from, ev, decision.Reason)
	}
	tr, ok := TransitionFor(from, ev)
	if !ok {
		return Transition{From: from, To: from, Event: ev}, fmt.Errorf("%w: %s + %s: no edge", ErrForbidden, from, ev)
	}
	return tr, nil
}
