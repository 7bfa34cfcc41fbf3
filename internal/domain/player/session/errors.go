// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package session

import "errors"

var (
	ErrNoSession       = errors.New("no active session")
	ErrNotReady        = errors.New("session not ready")
	ErrSessionErrored  = errors.New("session errored")
	ErrInvalidArgument = errors.New("invalid argument")
	ErrNoSink          = errors.New("no sink mounted")
	ErrStopped         = errors.New("controller stopped")
	ErrAlreadyRunning  = errors.New("controller already running")
)
