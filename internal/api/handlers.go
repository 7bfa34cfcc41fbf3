// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/ManuGH/acmplay/internal/log"
)

type sourceRequest struct {
	URL string `json:"url"`
}

// positionRequest carries either an absolute value or a relative delta.
type positionRequest struct {
	Position *float64 `json:"position,omitempty"`
	Delta    *float64 `json:"delta,omitempty"`
}

type volumeRequest struct {
	Volume *float64 `json:"volume,omitempty"`
	Delta  *float64 `json:"delta,omitempty"`
}

type idRequest struct {
	ID *int `json:"id"`
}

type rateRequest struct {
	Rate *float64 `json:"rate"`
}

var errBadBody = errors.New("bad request body")

// decodeBody reads one JSON object, rejecting unknown fields and trailing data.
func decodeBody(r *http.Request, v any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("%w: %v", errBadBody, err)
	}
	if dec.More() {
		return fmt.Errorf("%w: trailing data", errBadBody)
	}
	return nil
}

// run executes an intent and answers 202 with the resulting snapshot.
func (s *Server) run(w http.ResponseWriter, r *http.Request, name string, fn func(ctx context.Context) error) {
	ctx, cancel := context.WithTimeout(r.Context(), s.cfg.IntentTimeout)
	defer cancel()

	if err := fn(ctx); err != nil {
		status, code := statusFor(err)
		logger := log.WithComponentFromContext(r.Context(), "api")
		evt := logger.Debug()
		if status >= http.StatusInternalServerError {
			evt = logger.Error()
		}
		evt.Err(err).
			Str(log.FieldEvent, "api.intent_rejected").
			Str("intent", name).
			Int("status", status).
			Msg("intent rejected")
		writeProblem(w, status, code, err.Error())
		return
	}
	writeJSON(w, http.StatusAccepted, s.player.Snapshot())
}

func (s *Server) intent(fn func(ctx context.Context) error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		name := r.URL.Path[strings.LastIndex(r.URL.Path, "/")+1:]
		s.run(w, r, name, fn)
	}
}

func (s *Server) badRequest(w http.ResponseWriter, err error) {
	writeProblem(w, http.StatusBadRequest, codeBadRequest, err.Error())
}

func (s *Server) handleSnapshot(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.player.Snapshot())
}

func (s *Server) handleSubmitSource(w http.ResponseWriter, r *http.Request) {
	var req sourceRequest
	if err := decodeBody(r, &req); err != nil {
		s.badRequest(w, err)
		return
	}
	if strings.TrimSpace(req.URL) == "" {
		s.badRequest(w, errors.New("url is required; use DELETE to clear the source"))
		return
	}
	s.run(w, r, "source", func(ctx context.Context) error {
		return s.player.SubmitSource(ctx, req.URL)
	})
}

func (s *Server) handleClose(w http.ResponseWriter, r *http.Request) {
	s.run(w, r, "close", s.player.Close)
}

func (s *Server) handleSeek(w http.ResponseWriter, r *http.Request) {
	var req positionRequest
	if err := decodeBody(r, &req); err != nil {
		s.badRequest(w, err)
		return
	}
	switch {
	case req.Position != nil && req.Delta == nil:
		s.run(w, r, "seek", func(ctx context.Context) error { return s.player.Seek(ctx, *req.Position) })
	case req.Delta != nil && req.Position == nil:
		s.run(w, r, "seek", func(ctx context.Context) error { return s.player.SeekBy(ctx, *req.Delta) })
	default:
		s.badRequest(w, errors.New("exactly one of position or delta is required"))
	}
}

func (s *Server) handleVolume(w http.ResponseWriter, r *http.Request) {
	var req volumeRequest
	if err := decodeBody(r, &req); err != nil {
		s.badRequest(w, err)
		return
	}
	switch {
	case req.Volume != nil && req.Delta == nil:
		s.run(w, r, "volume", func(ctx context.Context) error { return s.player.SetVolume(ctx, *req.Volume) })
	case req.Delta != nil && req.Volume == nil:
		s.run(w, r, "volume", func(ctx context.Context) error { return s.player.NudgeVolume(ctx, *req.Delta) })
	default:
		s.badRequest(w, errors.New("exactly one of volume or delta is required"))
	}
}

func (s *Server) handleAudio(w http.ResponseWriter, r *http.Request) {
	var req idRequest
	if err := decodeBody(r, &req); err != nil {
		s.badRequest(w, err)
		return
	}
	if req.ID == nil {
		s.badRequest(w, errors.New("id is required"))
		return
	}
	s.run(w, r, "audio", func(ctx context.Context) error { return s.player.SelectAudioTrack(ctx, *req.ID) })
}

func (s *Server) handleQuality(w http.ResponseWriter, r *http.Request) {
	var req idRequest
	if err := decodeBody(r, &req); err != nil {
		s.badRequest(w, err)
		return
	}
	if req.ID == nil {
		s.badRequest(w, errors.New("id is required"))
		return
	}
	s.run(w, r, "quality", func(ctx context.Context) error { return s.player.SelectQuality(ctx, *req.ID) })
}

func (s *Server) handleRate(w http.ResponseWriter, r *http.Request) {
	var req rateRequest
	if err := decodeBody(r, &req); err != nil {
		s.badRequest(w, err)
		return
	}
	if req.Rate == nil {
		s.badRequest(w, errors.New("rate is required"))
		return
	}
	s.run(w, r, "rate", func(ctx context.Context) error { return s.player.SetPlaybackRate(ctx, *req.Rate) })
}
