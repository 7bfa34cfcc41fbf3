// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

// Package adapter owns one adaptive engine instance per session and
// translates its events into the session vocabulary.
package adapter

import (
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/ManuGH/acmplay/internal/domain/player/model"
	"github.com/ManuGH/acmplay/internal/domain/player/ports"
	"github.com/ManuGH/acmplay/internal/log"
	"github.com/ManuGH/acmplay/internal/metrics"
	"github.com/rs/zerolog"
)

// ErrNoEngine is returned by Attach when no factory is configured.
var ErrNoEngine = errors.New("no adaptive engine available")

var handleSeq atomic.Uint64

// Adapter builds handles from an engine factory.
type Adapter struct {
	factory ports.EngineFactory
}

// New returns an adapter over factory. A nil factory makes every Attach fail.
func New(factory ports.EngineFactory) *Adapter {
	return &Adapter{factory: factory}
}

// Handle is the adapter's reference to one engine bound to one sink.
type Handle struct {
	id     uint64
	engine ports.Engine
	emit   Emitter
	logger zerolog.Logger

	unsubscribe func()
	detached    atomic.Bool
	stalled     atomic.Bool
	detachOnce  sync.Once
}

// Attach constructs an engine with the profile tuning, subscribes to it, loads
// url and binds sink. It never starts playback. On failure the engine is
// released and the error carries model.ErrAttachFailed.
func (a *Adapter) Attach(url string, sink ports.Sink, profile model.Profile, emit Emitter) (*Handle, error) {
	if a == nil || a.factory == nil {
		return nil, &model.PlaybackError{Kind: model.ErrAttachFailed, Message: ErrNoEngine.Error()}
	}
	if emit == nil {
		emit = func(Event) {}
	}
	engine, err := a.factory.New(profile.Tuning)
	if err != nil {
		return nil, fmt.Errorf("create engine: %w", model.NewError(model.ErrAttachFailed, "%v", err))
	}

	h := &Handle{
		id:     handleSeq.Add(1),
		engine: engine,
		emit:   emit,
	}
	h.logger = log.WithComponent("adapter").With().Uint64(log.FieldHandleID, h.id).Logger()
	h.unsubscribe = engine.Subscribe(h.onEngineEvent)

	if err := engine.LoadSource(url); err != nil {
		h.release()
		return nil, fmt.Errorf("load source: %w", model.NewError(model.ErrAttachFailed, "%v", err))
	}
	if err := engine.AttachMedia(sink); err != nil {
		h.release()
		return nil, fmt.Errorf("attach media: %w", model.NewError(model.ErrAttachFailed, "%v", err))
	}

	h.logger.Debug().
		Str(log.FieldEvent, "adapter.attached").
		Str(log.FieldSourceURL, log.RedactURL(url)).
		Bool("low_latency", profile.Tuning.LowLatencyMode).
		Msg("engine attached")
	return h, nil
}

// ID identifies the handle in emitted events.
func (h *Handle) ID() uint64 {
	if h == nil {
		return 0
	}
	return h.id
}

// Detached reports whether Detach has run.
func (h *Handle) Detached() bool {
	return h == nil || h.detached.Load()
}

// Detach releases the engine and its listener. It is safe to call more than
// once and on a nil handle.
func (h *Handle) Detach() {
	if h == nil {
		return
	}
	if h.release() {
		h.logger.Debug().Str(log.FieldEvent, "adapter.detached").Msg("engine released")
	}
}

func (h *Handle) release() bool {
	released := false
	h.detachOnce.Do(func() {
		h.detached.Store(true)
		if h.unsubscribe != nil {
			h.unsubscribe()
		}
		h.engine.Destroy()
		metrics.IncEngineDetach()
		released = true
	})
	return released
}

// SelectAudioTrack forwards the selection and reports the engine's committed track.
func (h *Handle) SelectAudioTrack(id int) {
	if h.Detached() {
		return
	}
	h.engine.SetAudioTrack(id)
	h.send(Event{Kind: EvAudioChanged, ID: h.engine.AudioTrack()})
}

// SelectQuality forwards the selection and reports the engine's committed level.
func (h *Handle) SelectQuality(id int) {
	if h.Detached() {
		return
	}
	h.engine.SetCurrentLevel(id)
	h.send(Event{Kind: EvQualityChanged, ID: h.engine.CurrentLevel()})
}

func (h *Handle) send(ev Event) {
	if h.detached.Load() {
		return
	}
	ev.HandleID = h.id
	h.emit(ev)
}

func (h *Handle) onEngineEvent(ev ports.EngineEvent) {
	if h.detached.Load() {
		return
	}
	metrics.IncEngineEvent(string(ev.Kind))

	switch ev.Kind {
	case ports.EngineManifestParsed:
		h.send(Event{
			Kind:          EvManifestReady,
			AudioTracks:   MapAudioTracks(ev.AudioTracks),
			QualityLevels: MapLevels(ev.Levels),
			Live:          ev.Live,
		})
	case ports.EngineAudioTracksUpdated:
		h.send(Event{Kind: EvTracksUpdated, AudioTracks: MapAudioTracks(ev.AudioTracks)})
	case ports.EngineLevelSwitched:
		h.send(Event{Kind: EvQualityChanged, ID: h.engine.CurrentLevel()})
	case ports.EngineAudioTrackSwitched:
		h.send(Event{Kind: EvAudioChanged, ID: h.engine.AudioTrack()})
	case ports.EngineBufferStalled:
		if h.stalled.CompareAndSwap(false, true) {
			h.send(Event{Kind: EvBufferStalled})
		}
	case ports.EngineBufferAppended:
		if h.stalled.CompareAndSwap(true, false) {
			h.send(Event{Kind: EvBufferResumed})
		}
	case ports.EngineError:
		h.onEngineError(ev)
	default:
		h.logger.Debug().Str(log.FieldEvent, "adapter.event_ignored").Str("type", string(ev.Kind)).Msg("unhandled engine event")
	}
}

func (h *Handle) onEngineError(ev ports.EngineEvent) {
	msg := ev.ErrorType
	if ev.Details != "" {
		msg = fmt.Sprintf("%s: %s", ev.ErrorType, ev.Details)
	}
	if !ev.Fatal {
		h.logger.Warn().
			Str(log.FieldEvent, "adapter.engine_warning").
			Str(log.FieldErrorKind, string(model.ErrEngineWarning)).
			Str("error_type", ev.ErrorType).
			Str("details", ev.Details).
			Msg("non-fatal engine error")
		h.send(Event{Kind: EvError, ErrorKind: model.ErrEngineWarning, Fatal: false, Message: msg})
		return
	}

	h.logger.Error().
		Str(log.FieldEvent, "adapter.engine_fatal").
		Str(log.FieldErrorKind, string(model.ErrEngineFatal)).
		Str("error_type", ev.ErrorType).
		Str("details", ev.Details).
		Msg("fatal engine error, releasing engine")
	// Detach first so nothing else escapes this handle, then report.
	h.release()
	h.emit(Event{HandleID: h.id, Kind: EvError, ErrorKind: model.ErrEngineFatal, Fatal: true, Message: msg})
}
