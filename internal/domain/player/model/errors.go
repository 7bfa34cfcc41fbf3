// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package model

import (
	"errors"
	"fmt"
)

// ErrorKind classifies playback failures and warnings.
type ErrorKind string

const (
	ErrUnsupportedFormat ErrorKind = "unsupported-format"
	ErrEngineFatal       ErrorKind = "engine-fatal"
	ErrEngineWarning     ErrorKind = "engine-warning"
	ErrPlayRejected      ErrorKind = "play-rejected"
	ErrAttachFailed      ErrorKind = "attach-failed"
	ErrMediaError        ErrorKind = "media-error"
)

// IsFatal reports whether the kind moves the session to errored.
func (k ErrorKind) IsFatal() bool {
	switch k {
	case ErrUnsupportedFormat, ErrEngineFatal, ErrAttachFailed, ErrMediaError:
		return true
	}
	return false
}

// PlaybackError is the error value stored on a session.
type PlaybackError struct {
	Kind    ErrorKind `json:"kind"`
	Message string    `json:"message"`
}

func (e *PlaybackError) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.Message == "" {
		return string(e.Kind)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// NewError builds a PlaybackError.
func NewError(kind ErrorKind, format string, args ...any) *PlaybackError {
	return &PlaybackError{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// ErrorKindOf extracts the kind from err, or "" if err carries none.
func ErrorKindOf(err error) ErrorKind {
	var pe *PlaybackError
	if errors.As(err, &pe) && pe != nil {
		return pe.Kind
	}
	return ""
}
