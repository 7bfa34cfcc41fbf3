// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package mpv

import (
	"encoding/json"
	"errors"
	"fmt"
)

// ErrCommandFailed wraps an mpv reply whose error field is not "success".
var ErrCommandFailed = errors.New("mpv command failed")

type request struct {
	Command   []any `json:"command"`
	RequestID int64 `json:"request_id"`
}

// message is either a command reply or an asynchronous event.
type message struct {
	RequestID *int64          `json:"request_id,omitempty"`
	Error     string          `json:"error,omitempty"`
	Data      json.RawMessage `json:"data,omitempty"`

	Event     string `json:"event,omitempty"`
	ID        int    `json:"id,omitempty"`
	Name      string `json:"name,omitempty"`
	Reason    string `json:"reason,omitempty"`
	FileError string `json:"file_error,omitempty"`
}

type reply struct {
	data json.RawMessage
	err  error
}

func (m message) isReply() bool {
	return m.Event == "" && m.RequestID != nil
}

func (m message) result() reply {
	if m.Error != "" && m.Error != "success" {
		return reply{err: fmt.Errorf("%w: %s", ErrCommandFailed, m.Error)}
	}
	return reply{data: m.Data}
}

// Observed property ids.
const (
	obsTimePos = iota + 1
	obsDuration
	obsPause
	obsPausedForCache
	obsEOFReached
	obsTrackList
)

var observed = []struct {
	id   int
	name string
}{
	{obsTimePos, "time-pos"},
	{obsDuration, "duration"},
	{obsPause, "pause"},
	{obsPausedForCache, "paused-for-cache"},
	{obsEOFReached, "eof-reached"},
	{obsTrackList, "track-list"},
}

type track struct {
	ID       int    `json:"id"`
	Type     string `json:"type"`
	Title    string `json:"title"`
	Lang     string `json:"lang"`
	Selected bool   `json:"selected"`
}
