// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/ManuGH/acmplay/internal/domain/player/session"
)

const (
	codeNoSession        = "NO_SESSION"
	codeNotReady         = "NOT_READY"
	codeSessionErrored   = "SESSION_ERRORED"
	codeNoSink           = "NO_SINK"
	codeInvalidArgument  = "INVALID_ARGUMENT"
	codeBadRequest       = "BAD_REQUEST"
	codeUnavailable      = "UNAVAILABLE"
	codeTimeout          = "TIMEOUT"
	codeInternal         = "INTERNAL"
	codeNotFound         = "NOT_FOUND"
	codeMethodNotAllowed = "METHOD_NOT_ALLOWED"
)

// errorBody is the JSON error envelope of every non-2xx response.
type errorBody struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeProblem(w http.ResponseWriter, status int, code, msg string) {
	writeJSON(w, status, errorBody{Error: msg, Code: code})
}

// statusFor maps controller errors to HTTP status and error code.
func statusFor(err error) (int, string) {
	switch {
	case errors.Is(err, session.ErrNoSession):
		return http.StatusConflict, codeNoSession
	case errors.Is(err, session.ErrNotReady):
		return http.StatusConflict, codeNotReady
	case errors.Is(err, session.ErrSessionErrored):
		return http.StatusConflict, codeSessionErrored
	case errors.Is(err, session.ErrNoSink):
		return http.StatusConflict, codeNoSink
	case errors.Is(err, session.ErrInvalidArgument):
		return http.StatusBadRequest, codeInvalidArgument
	case errors.Is(err, session.ErrStopped):
		return http.StatusServiceUnavailable, codeUnavailable
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout, codeTimeout
	case errors.Is(err, context.Canceled):
		return http.StatusServiceUnavailable, codeUnavailable
	default:
		return http.StatusInternalServerError, codeInternal
	}
}
