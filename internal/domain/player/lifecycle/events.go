// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package lifecycle

// EventKind is a domain event in the playback lifecycle.
type EventKind int

const (
	EvUnknown EventKind = iota
	EvSourceSubmitted
	EvMetadataLoaded
	EvPlayAccepted
	EvPaused
	EvEnded
	EvFatalError
	EvClosed
)

var eventNames = map[EventKind]string{
	EvUnknown:         "unknown",
	EvSourceSubmitted: "source_submitted",
	EvMetadataLoaded:  "metadata_loaded",
	EvPlayAccepted:    "play_accepted",
	EvPaused:          "paused",
	EvEnded:           "ended",
	EvFatalError:      "fatal_error",
	EvClosed:          "closed",
}

func (e EventKind) String() string {
	if n, ok := eventNames[e]; ok {
		return n
	}
	return "unknown"
}

// AllEvents lists every dispatchable event.
var AllEvents = []EventKind{
	EvSourceSubmitted,
	EvMetadataLoaded,
	EvPlayAccepted,
	EvPaused,
	EvEnded,
	EvFatalError,
	EvClosed,
}
