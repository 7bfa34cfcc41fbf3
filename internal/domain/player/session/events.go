// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package session

import (
	"github.com/ManuGH/acmplay/internal/domain/player/adapter"
	"github.com/ManuGH/acmplay/internal/domain/player/lifecycle"
	"github.com/ManuGH/acmplay/internal/domain/player/model"
	"github.com/ManuGH/acmplay/internal/domain/player/ports"
	"github.com/ManuGH/acmplay/internal/log"
	"github.com/ManuGH/acmplay/internal/telemetry"
)

func (c *Controller) onSinkEvent(ev ports.MediaEvent) {
	if c.cur.State == model.StateErrored {
		return
	}
	switch ev.Kind {
	case ports.MediaLoadedMetadata:
		c.updateDuration(ev.Duration)
		c.loadNativeAudioTracks()
		if c.cur.State == model.StateLoading {
			c.apply(lifecycle.EvMetadataLoaded)
		}
	case ports.MediaTimeUpdate:
		if ev.Duration != 0 {
			c.updateDuration(ev.Duration)
		}
		c.cur.Position = c.cur.ClampPosition(ev.Position)
	case ports.MediaWaiting:
		c.cur.Buffering = true
	case ports.MediaPlaying:
		c.cur.Buffering = false
		c.acceptPlay()
	case ports.MediaPlay:
		c.acceptPlay()
	case ports.MediaPause:
		if c.cur.State == model.StatePlaying {
			c.apply(lifecycle.EvPaused)
		}
	case ports.MediaEnded:
		if c.cur.Live {
			return
		}
		c.cur.Buffering = false
		if c.cur.DurationKnown {
			c.cur.Position = c.cur.Duration
		}
		c.apply(lifecycle.EvEnded)
	case ports.MediaError:
		msg := ev.Message
		if msg == "" {
			msg = "sink reported a media error"
		}
		c.fail(&model.PlaybackError{Kind: model.ErrMediaError, Message: msg})
	}
}

// acceptPlay handles play and playing from the sink. Sinks may start on
// their own, so this does not require a pending Play.
func (c *Controller) acceptPlay() {
	if !c.cur.State.CanPlay() {
		return
	}
	c.cur.GestureRequired = false
	c.apply(lifecycle.EvPlayAccepted)
}

func (c *Controller) updateDuration(d float64) {
	value, known, live := model.NormalizeDuration(d)
	switch {
	case live:
		c.cur.Live = true
		c.cur.DurationKnown = false
		c.cur.Duration = 0
	case known:
		c.cur.Duration = value
		c.cur.DurationKnown = true
		c.cur.Position = c.cur.ClampPosition(c.cur.Position)
	}
}

func (c *Controller) loadNativeAudioTracks() {
	if c.cur.Strategy != model.StrategyNativeDirect {
		return
	}
	native, ok := c.sink.(ports.NativeAudioTracks)
	if !ok {
		return
	}
	list := native.AudioTracks()
	tracks := make([]model.AudioTrack, 0, len(list))
	selected := model.AudioDefault
	for i, t := range list {
		tracks = append(tracks, model.AudioTrack{
			ID:       t.ID,
			Label:    adapter.TrackLabel(ports.EngineAudioTrack{Index: t.ID, Name: t.Label, Language: t.Language}, i),
			Language: t.Language,
		})
		if t.Enabled && selected == model.AudioDefault {
			selected = t.ID
		}
	}
	if len(tracks) == 0 {
		tracks = nil
	}
	c.cur.AudioTracks = tracks
	c.cur.SelectedAudioTrack = selected
}

func (c *Controller) onAdapterEvent(ev adapter.Event) {
	if c.cur.State == model.StateErrored {
		return
	}
	switch ev.Kind {
	case adapter.EvManifestReady:
		c.cur.AudioTracks = ev.AudioTracks
		c.cur.QualityLevels = model.WithAuto(ev.QualityLevels)
		c.cur.SelectedAudioTrack = model.AudioDefault
		c.cur.SelectedQuality = model.QualityAuto
		if ev.Live {
			c.cur.Live = true
		}
		if c.span != nil {
			c.span.SetAttributes(telemetry.ManifestAttributes(len(ev.QualityLevels), len(ev.AudioTracks), ev.Live)...)
		}
		c.sessLog.Info().
			Str(log.FieldEvent, "session.manifest_ready").
			Int("levels", len(ev.QualityLevels)).
			Int("audio_tracks", len(ev.AudioTracks)).
			Bool("live", ev.Live).
			Msg("manifest ready")
		if c.cur.State == model.StateLoading && c.apply(lifecycle.EvMetadataLoaded) {
			if c.sessionProfile.AutoplayOnManifest && c.sessionProfile.AutoplayPermitted {
				c.startPlay()
			}
		}
	case adapter.EvTracksUpdated:
		c.cur.AudioTracks = ev.AudioTracks
		if !model.HasAudioTrack(c.cur.AudioTracks, c.cur.SelectedAudioTrack) {
			c.cur.SelectedAudioTrack = model.AudioDefault
		}
	case adapter.EvQualityChanged:
		if model.HasQualityLevel(c.cur.QualityLevels, ev.ID) {
			c.cur.SelectedQuality = ev.ID
		} else {
			c.cur.SelectedQuality = model.QualityAuto
		}
	case adapter.EvAudioChanged:
		if model.HasAudioTrack(c.cur.AudioTracks, ev.ID) {
			c.cur.SelectedAudioTrack = ev.ID
		} else {
			c.cur.SelectedAudioTrack = model.AudioDefault
		}
	case adapter.EvBufferStalled:
		c.cur.Buffering = true
	case adapter.EvBufferResumed:
		c.cur.Buffering = false
	case adapter.EvError:
		if ev.Fatal {
			kind := ev.ErrorKind
			if kind == "" {
				kind = model.ErrEngineFatal
			}
			c.fail(&model.PlaybackError{Kind: kind, Message: ev.Message})
			return
		}
		c.warn(model.ErrEngineWarning, ev.Message)
	}
}
