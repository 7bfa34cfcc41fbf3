// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package api

import (
	"context"
	"net/http"
	"time"

	"github.com/ManuGH/acmplay/internal/bus"
	"github.com/ManuGH/acmplay/internal/domain/player/model"
	"github.com/ManuGH/acmplay/internal/domain/player/ports"
	"github.com/ManuGH/acmplay/internal/log"
	"github.com/gorilla/websocket"
)

// Envelope types on the event stream.
const (
	EventState   = "state"
	EventGesture = "gesture"
)

const (
	writeWait      = 10 * time.Second
	maxClientFrame = 512
)

// Envelope is one message on the event stream.
type Envelope struct {
	Type string `json:"type"`
	Data any    `json:"data"`
}

// handleEvents upgrades to a WebSocket and streams the current snapshot,
// then every newer snapshot and gesture request. Clients only send control
// frames.
func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	if s.events == nil {
		writeProblem(w, http.StatusServiceUnavailable, codeUnavailable, "event stream not available")
		return
	}

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	// Subscribe before reading the snapshot so nothing published in
	// between is lost.
	states, err := s.events.Subscribe(ctx, ports.TopicState)
	if err != nil {
		writeProblem(w, http.StatusServiceUnavailable, codeUnavailable, err.Error())
		return
	}
	defer func() { _ = states.Close() }()
	gestures, err := s.events.Subscribe(ctx, ports.TopicGesture)
	if err != nil {
		writeProblem(w, http.StatusServiceUnavailable, codeUnavailable, err.Error())
		return
	}
	defer func() { _ = gestures.Close() }()

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade already replied with an HTTP error.
		s.logger.Debug().Err(err).Str(log.FieldEvent, "api.ws_upgrade_failed").Msg("websocket upgrade failed")
		return
	}
	defer func() { _ = conn.Close() }()

	logger := log.WithComponentFromContext(r.Context(), "api")
	logger.Info().Str(log.FieldEvent, "api.ws_connected").Str("remote_addr", r.RemoteAddr).Msg("event stream connected")

	readDone := make(chan struct{})
	go s.readPump(conn, readDone)

	reason := s.writePump(ctx, conn, states, gestures, readDone)
	logger.Info().Str(log.FieldEvent, "api.ws_disconnected").Str("reason", reason).Msg("event stream disconnected")
}

// readPump drains client frames so pongs and close frames are processed.
func (s *Server) readPump(conn *websocket.Conn, done chan<- struct{}) {
	defer close(done)
	pongWait := s.cfg.PingInterval * 2
	conn.SetReadLimit(maxClientFrame)
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (s *Server) writePump(ctx context.Context, conn *websocket.Conn, states, gestures bus.Subscriber, readDone <-chan struct{}) string {
	ticker := time.NewTicker(s.cfg.PingInterval)
	defer ticker.Stop()

	current := s.player.Snapshot()
	lastSeq := current.Seq
	if err := writeEnvelope(conn, Envelope{Type: EventState, Data: current}); err != nil {
		return "write_failed"
	}

	for {
		select {
		case <-ctx.Done():
			_ = conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down"),
				time.Now().Add(writeWait))
			return "server_shutdown"

		case <-readDone:
			return "client_closed"

		case msg, ok := <-states.C():
			if !ok {
				return "subscription_closed"
			}
			snap, isSnap := msg.(model.Snapshot)
			if !isSnap || snap.Seq <= lastSeq {
				continue
			}
			lastSeq = snap.Seq
			if err := writeEnvelope(conn, Envelope{Type: EventState, Data: snap}); err != nil {
				return "write_failed"
			}

		case msg, ok := <-gestures.C():
			if !ok {
				return "subscription_closed"
			}
			req, isReq := msg.(model.GestureRequest)
			if !isReq {
				continue
			}
			if err := writeEnvelope(conn, Envelope{Type: EventGesture, Data: req}); err != nil {
				return "write_failed"
			}

		case <-ticker.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				return "ping_failed"
			}
		}
	}
}

func writeEnvelope(conn *websocket.Conn, env Envelope) error {
	_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
	return conn.WriteJSON(env)
}
