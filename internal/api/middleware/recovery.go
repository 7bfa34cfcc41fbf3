// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package middleware

import (
	"net/http"
	"runtime"
	"strings"

	"github.com/ManuGH/acmplay/internal/log"
)

// Recoverer turns a panic in a downstream handler into a logged 500 JSON
// response.
func Recoverer(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			rec := recover()
			if rec == nil {
				return
			}
			if rec == http.ErrAbortHandler {
				panic(rec)
			}

			buf := make([]byte, 8192)
			buf = buf[:runtime.Stack(buf, false)]
			logger := log.WithComponentFromContext(r.Context(), "api")
			logger.Error().
				Str(log.FieldEvent, "http.panic").
				Str("method", r.Method).
				Str(log.FieldPath, strings.ToValidUTF8(r.URL.Path, "")).
				Interface("panic", rec).
				Bytes("stack", buf).
				Msg("handler panicked")
			writeError(w, r, http.StatusInternalServerError, "INTERNAL", "internal server error")
		}()

		next.ServeHTTP(w, r)
	})
}
