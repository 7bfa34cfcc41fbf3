// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

// Package api exposes the playback controller over HTTP: JSON intents under
// /api/v1/player and a WebSocket stream of snapshots.
package api

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/ManuGH/acmplay/internal/api/middleware"
	"github.com/ManuGH/acmplay/internal/bus"
	"github.com/ManuGH/acmplay/internal/domain/player/model"
	"github.com/ManuGH/acmplay/internal/health"
	"github.com/ManuGH/acmplay/internal/log"
	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
)

// Player is the controller surface driven by the API.
type Player interface {
	Snapshot() model.Snapshot
	SubmitSource(ctx context.Context, url string) error
	Close(ctx context.Context) error
	Play(ctx context.Context) error
	Pause(ctx context.Context) error
	TogglePlay(ctx context.Context) error
	Seek(ctx context.Context, t float64) error
	SeekBy(ctx context.Context, delta float64) error
	SetVolume(ctx context.Context, v float64) error
	NudgeVolume(ctx context.Context, delta float64) error
	ToggleMute(ctx context.Context) error
	SelectAudioTrack(ctx context.Context, id int) error
	SelectQuality(ctx context.Context, id int) error
	SetPlaybackRate(ctx context.Context, r float64) error
}

// Config configures the HTTP server.
type Config struct {
	ListenAddr string
	Stack      middleware.StackConfig
	// ServiceName enables OpenTelemetry server spans when non-empty.
	ServiceName string

	// Health serves /healthz and /readyz. Nil means a manager without checks.
	Health *health.Manager

	IntentTimeout   time.Duration
	PingInterval    time.Duration
	ShutdownTimeout time.Duration
}

const (
	defaultIntentTimeout   = 5 * time.Second
	defaultPingInterval    = 30 * time.Second
	defaultShutdownTimeout = 5 * time.Second
	maxBodyBytes           = 64 << 10
)

// Server serves the control API.
type Server struct {
	cfg      Config
	player   Player
	events   bus.Bus
	logger   zerolog.Logger
	upgrader websocket.Upgrader
	handler  http.Handler
}

// New builds the server and its routes. events may be nil, which disables
// the event stream.
func New(cfg Config, player Player, events bus.Bus) *Server {
	if cfg.IntentTimeout <= 0 {
		cfg.IntentTimeout = defaultIntentTimeout
	}
	if cfg.PingInterval <= 0 {
		cfg.PingInterval = defaultPingInterval
	}
	if cfg.ShutdownTimeout <= 0 {
		cfg.ShutdownTimeout = defaultShutdownTimeout
	}
	if cfg.Health == nil {
		cfg.Health = health.NewManager("")
	}
	if cfg.Stack.TracingService == "" {
		cfg.Stack.TracingService = cfg.ServiceName
	}

	policy := middleware.NewOriginPolicy(cfg.Stack.AllowedOrigins)
	s := &Server{
		cfg:    cfg,
		player: player,
		events: events,
		logger: log.WithComponent("api"),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 4096,
			CheckOrigin:     policy.Allowed,
		},
	}
	s.handler = s.routes()
	return s
}

// Handler returns the root handler including all middleware.
func (s *Server) Handler() http.Handler {
	return s.handler
}

func (s *Server) routes() http.Handler {
	r := chi.NewRouter()
	r.Get("/healthz", s.cfg.Health.ServeHealth)
	r.Get("/readyz", s.cfg.Health.ServeReady)

	r.Group(func(r chi.Router) {
		middleware.ApplyStack(r, s.cfg.Stack)

		r.Route("/api/v1/player", func(r chi.Router) {
			r.Get("/", s.handleSnapshot)
			r.Put("/source", s.handleSubmitSource)
			r.Delete("/source", s.handleClose)
			r.Post("/play", s.intent(s.player.Play))
			r.Post("/pause", s.intent(s.player.Pause))
			r.Post("/toggle", s.intent(s.player.TogglePlay))
			r.Post("/seek", s.handleSeek)
			r.Put("/volume", s.handleVolume)
			r.Post("/mute", s.intent(s.player.ToggleMute))
			r.Put("/audio", s.handleAudio)
			r.Put("/quality", s.handleQuality)
			r.Put("/rate", s.handleRate)
			r.Get("/events", s.handleEvents)
		})
	})

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		writeProblem(w, http.StatusNotFound, codeNotFound, "not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		writeProblem(w, http.StatusMethodNotAllowed, codeMethodNotAllowed, "method not allowed")
	})

	if s.cfg.ServiceName != "" {
		return middleware.OTelHTTP(s.cfg.ServiceName)(r)
	}
	return r
}

// ListenAndServe serves until ctx ends, then shuts down gracefully. Event
// streams observe ctx through their request context.
func (s *Server) ListenAndServe(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.cfg.ListenAddr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", s.cfg.ListenAddr, err)
	}
	return s.Serve(ctx, ln)
}

// Serve is ListenAndServe on an existing listener.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:           s.handler,
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       120 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info().
			Str(log.FieldEvent, "api.listening").
			Str("addr", ln.Addr().String()).
			Msg("control API listening")
		errCh <- srv.Serve(ln)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("serve: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		_ = srv.Close()
		return fmt.Errorf("shutdown: %w", err)
	}
	<-errCh
	s.logger.Info().Str(log.FieldEvent, "api.stopped").Msg("control API stopped")
	return nil
}
