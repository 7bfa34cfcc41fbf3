// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package session

import (
	"context"
	"errors"
	"strings"

	"github.com/ManuGH/acmplay/internal/domain/player/adapter"
	"github.com/ManuGH/acmplay/internal/domain/player/classify"
	"github.com/ManuGH/acmplay/internal/domain/player/lifecycle"
	"github.com/ManuGH/acmplay/internal/domain/player/model"
	"github.com/ManuGH/acmplay/internal/domain/player/ports"
	"github.com/ManuGH/acmplay/internal/log"
	"github.com/ManuGH/acmplay/internal/metrics"
	"github.com/ManuGH/acmplay/internal/telemetry"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

// submit tears down the current session and attaches raw as a new one.
func (c *Controller) submit(ctx context.Context, raw string) error {
	url := strings.TrimSpace(raw)
	if url == "" {
		return c.closeSession("source_cleared")
	}

	c.teardown("replaced")

	prev := c.cur.State
	tr, err := lifecycle.Dispatch(prev, lifecycle.EvSourceSubmitted)
	if err != nil {
		return err
	}

	id := uuid.NewString()
	c.sessionProfile = c.profile
	c.cur = model.Snapshot{
		SessionID:          id,
		Seq:                c.cur.Seq,
		SourceURL:          url,
		State:              tr.To,
		Volume:             c.cur.Volume,
		Muted:              c.cur.Muted,
		PlaybackRate:       1,
		SelectedAudioTrack: model.AudioDefault,
		SelectedQuality:    model.QualityAuto,
	}
	c.sessLog = c.logger.With().Str(log.FieldSessionID, id).Logger()
	c.recordTransition(prev, tr.To, lifecycle.EvSourceSubmitted)

	spanCtx, span := telemetry.StartSessionSpan(context.WithoutCancel(ctx), id, "", log.RedactURL(url))
	c.span = span

	if c.sink == nil {
		c.sessLog.Warn().
			Str(log.FieldEvent, "session.submitted").
			Str(log.FieldSourceURL, log.RedactURL(url)).
			Msg("source submitted without a mounted sink")
		c.fail(model.NewError(model.ErrAttachFailed, "no sink mounted"))
		return nil
	}

	decision := classify.DecideObserved(spanCtx, url, classify.ProbeCapabilities(c.sink, c.engines))
	c.cur.Strategy = decision.Strategy
	span.SetAttributes(attribute.String(telemetry.PlayerStrategyKey, decision.Strategy.String()))
	metrics.IncSessionStarted(decision.Strategy.String())
	metrics.SetSessionActive(true)

	c.sessLog.Info().
		Str(log.FieldEvent, "session.submitted").
		Str(log.FieldSourceURL, log.RedactURL(url)).
		Str(log.FieldStrategy, decision.Strategy.String()).
		Str("reason", string(decision.Reason)).
		Msg("source submitted")

	if decision.Strategy == model.StrategyUnsupported {
		c.fail(model.NewError(model.ErrUnsupportedFormat, "manifest source needs an adaptive engine and none is available"))
		return nil
	}

	gen := c.gen
	c.sinkUnsub = c.sink.Subscribe(func(ev ports.MediaEvent) {
		c.mbox.push(sinkEvent{gen: gen, ev: ev})
	})
	c.pushAudioSettings()
	if err := c.sink.SetPlaybackRate(1); err != nil {
		c.sessLog.Debug().Err(err).Str(log.FieldEvent, "session.sink_call_failed").Msg("reset playback rate")
	}

	if err := c.attach(url, decision.Strategy); err != nil {
		var perr *model.PlaybackError
		if !errors.As(err, &perr) {
			perr = model.NewError(model.ErrAttachFailed, "%v", err)
		}
		c.fail(perr)
		return nil
	}

	if !c.sessionProfile.AutoplayPermitted {
		c.requestGesture("autoplay-blocked")
	}
	return nil
}

func (c *Controller) attach(url string, strategy model.Strategy) error {
	switch strategy {
	case model.StrategyNativeDirect:
		if err := c.sink.SetSource(url); err != nil {
			return model.NewError(model.ErrAttachFailed, "set source: %v", err)
		}
		if err := c.sink.Load(); err != nil {
			return model.NewError(model.ErrAttachFailed, "load: %v", err)
		}
		return nil
	case model.StrategyAdaptiveEngine:
		h, err := c.adapter.Attach(url, c.sink, c.sessionProfile, func(ev adapter.Event) {
			c.mbox.push(ev)
		})
		if err != nil {
			return err
		}
		c.handle = h
		return nil
	default:
		return model.NewError(model.ErrAttachFailed, "no attachment for strategy %s", strategy)
	}
}

// teardown releases the engine, the sink listener and the sink source, and
// invalidates every in-flight event of the current session.
func (c *Controller) teardown(reason string) {
	hadSession := c.handle != nil || c.sinkUnsub != nil
	if c.handle != nil {
		c.handle.Detach()
		c.handle = nil
	}
	if c.sinkUnsub != nil {
		c.sinkUnsub()
		c.sinkUnsub = nil
		if c.sink != nil {
			if err := c.sink.Pause(); err != nil {
				c.sessLog.Debug().Err(err).Str(log.FieldEvent, "session.sink_call_failed").Msg("pause on teardown")
			}
			if err := c.sink.SetSource(""); err != nil {
				c.sessLog.Debug().Err(err).Str(log.FieldEvent, "session.sink_call_failed").Msg("unload on teardown")
			}
		}
	}
	c.gen++
	c.pendingPlay = 0
	if c.span != nil {
		c.span.SetAttributes(attribute.String(telemetry.PlayerOutcomeKey, reason))
		c.span.End()
		c.span = nil
	}
	if hadSession {
		c.sessLog.Debug().Str(log.FieldEvent, "session.torn_down").Str("reason", reason).Msg("session resources released")
	}
}

// closeSession forces idle. Volume and mute survive.
func (c *Controller) closeSession(reason string) error {
	if !c.cur.State.HasSession() {
		return nil
	}
	c.teardown(reason)
	prev := c.cur.State
	if !c.apply(lifecycle.EvClosed) {
		return nil
	}
	c.sessLog.Info().Str(log.FieldEvent, "session.closed").Str("reason", reason).Str(log.FieldOldState, string(prev)).Msg("session closed")

	next := model.IdleSnapshot(c.cur.Volume, c.cur.Muted)
	next.Seq = c.cur.Seq
	c.cur = next
	c.sessLog = c.logger
	metrics.SetSessionActive(false)
	return nil
}

// fail moves the session to errored and releases its resources.
func (c *Controller) fail(perr *model.PlaybackError) {
	if !c.apply(lifecycle.EvFatalError) {
		return
	}
	c.cur.LastError = perr
	c.cur.Buffering = false
	metrics.IncSessionError(string(perr.Kind))
	c.sessLog.Error().
		Str(log.FieldEvent, "session.errored").
		Str(log.FieldErrorKind, string(perr.Kind)).
		Str("message", perr.Message).
		Msg("session failed")
	if c.span != nil {
		c.span.RecordError(perr)
		c.span.SetStatus(codes.Error, string(perr.Kind))
	}
	c.teardown("errored")
}

// warn records a non-fatal diagnostic.
func (c *Controller) warn(kind model.ErrorKind, msg string) {
	c.cur.LastWarning = &model.PlaybackError{Kind: kind, Message: msg}
	metrics.IncSessionWarning(string(kind))
	c.sessLog.Warn().
		Str(log.FieldEvent, "session.warning").
		Str(log.FieldErrorKind, string(kind)).
		Str("message", msg).
		Msg("playback warning")
}

func (c *Controller) pushAudioSettings() {
	if c.sink == nil {
		return
	}
	if err := c.sink.SetVolume(c.cur.Volume); err != nil {
		c.sessLog.Debug().Err(err).Str(log.FieldEvent, "session.sink_call_failed").Msg("apply volume")
	}
	if err := c.sink.SetMuted(c.cur.Muted); err != nil {
		c.sessLog.Debug().Err(err).Str(log.FieldEvent, "session.sink_call_failed").Msg("apply mute")
	}
}
