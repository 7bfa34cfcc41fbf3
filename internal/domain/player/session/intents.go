// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package session

import (
	"context"
	"fmt"
	"math"

	"github.com/ManuGH/acmplay/internal/domain/player/lifecycle"
	"github.com/ManuGH/acmplay/internal/domain/player/model"
	"github.com/ManuGH/acmplay/internal/domain/player/ports"
	"github.com/ManuGH/acmplay/internal/log"
)

// SubmitSource replaces the current session with one for url. A blank url
// clears the source like Close. Resubmitting the same url restarts it.
func (c *Controller) SubmitSource(ctx context.Context, url string) error {
	return c.do(ctx, "submit", func() error { return c.submit(ctx, url) })
}

// Close tears down the session and returns to idle.
func (c *Controller) Close(ctx context.Context) error {
	return c.do(ctx, "close", func() error { return c.closeSession("closed") })
}

// Play asks the sink to start playback. The result arrives asynchronously;
// a rejection is recorded as a warning and leaves the state unchanged.
func (c *Controller) Play(ctx context.Context) error {
	return c.do(ctx, "play", c.play)
}

// Pause pauses the sink.
func (c *Controller) Pause(ctx context.Context) error {
	return c.do(ctx, "pause", c.pause)
}

// TogglePlay pauses when playing and plays otherwise.
func (c *Controller) TogglePlay(ctx context.Context) error {
	return c.do(ctx, "toggle_play", func() error {
		if c.cur.State == model.StatePlaying {
			return c.pause()
		}
		return c.play()
	})
}

// Seek moves to t seconds, clamped to the seekable range.
func (c *Controller) Seek(ctx context.Context, t float64) error {
	return c.do(ctx, "seek", func() error { return c.seek(t, false) })
}

// SeekBy moves relative to the current position.
func (c *Controller) SeekBy(ctx context.Context, delta float64) error {
	return c.do(ctx, "seek_by", func() error { return c.seek(delta, true) })
}

// SetVolume sets the volume, clamped to [0,1]. Zero mutes; a positive value
// never unmutes.
func (c *Controller) SetVolume(ctx context.Context, v float64) error {
	return c.do(ctx, "set_volume", func() error { return c.setVolume(v) })
}

// NudgeVolume changes the volume by delta under the SetVolume rules.
func (c *Controller) NudgeVolume(ctx context.Context, delta float64) error {
	return c.do(ctx, "nudge_volume", func() error {
		if math.IsNaN(delta) || math.IsInf(delta, 0) {
			return fmt.Errorf("volume delta %v: %w", delta, ErrInvalidArgument)
		}
		return c.setVolume(c.cur.Volume + delta)
	})
}

// ToggleMute flips the mute flag. Unmuting at volume zero restores the last
// non-zero volume.
func (c *Controller) ToggleMute(ctx context.Context) error {
	return c.do(ctx, "toggle_mute", func() error {
		if c.cur.Muted {
			c.cur.Muted = false
			if c.cur.Volume == 0 {
				c.cur.Volume = c.lastVolume
			}
		} else {
			c.cur.Muted = true
		}
		c.pushAudioSettings()
		return nil
	})
}

// SelectAudioTrack selects id or AudioDefault.
func (c *Controller) SelectAudioTrack(ctx context.Context, id int) error {
	return c.do(ctx, "select_audio", func() error { return c.selectAudio(id) })
}

// SelectQuality selects level id or QualityAuto.
func (c *Controller) SelectQuality(ctx context.Context, id int) error {
	return c.do(ctx, "select_quality", func() error { return c.selectQuality(id) })
}

// SetPlaybackRate forwards a positive finite rate to the sink.
func (c *Controller) SetPlaybackRate(ctx context.Context, r float64) error {
	return c.do(ctx, "set_rate", func() error {
		if err := c.requireSession(); err != nil {
			return err
		}
		if r <= 0 || math.IsNaN(r) || math.IsInf(r, 0) {
			return fmt.Errorf("playback rate %v: %w", r, ErrInvalidArgument)
		}
		if err := c.sink.SetPlaybackRate(r); err != nil {
			return fmt.Errorf("set playback rate: %w", err)
		}
		c.cur.PlaybackRate = r
		return nil
	})
}

// SetProfile replaces the profile applied to the next session.
func (c *Controller) SetProfile(ctx context.Context, p model.Profile) error {
	return c.do(ctx, "set_profile", func() error {
		c.profile = p
		c.logger.Info().
			Str(log.FieldEvent, "player.profile_updated").
			Float64("max_buffer_length", p.Tuning.MaxBufferLength).
			Bool("low_latency", p.Tuning.LowLatencyMode).
			Bool("autoplay_on_manifest", p.AutoplayOnManifest).
			Msg("profile updated for next session")
		return nil
	})
}

// MountSink replaces the sink. The current session is closed first.
func (c *Controller) MountSink(ctx context.Context, s ports.Sink) error {
	if s == nil {
		return fmt.Errorf("mount nil sink: %w", ErrInvalidArgument)
	}
	return c.do(ctx, "mount_sink", func() error {
		_ = c.closeSession("sink_changed")
		c.sink = s
		c.pushAudioSettings()
		return nil
	})
}

// UnmountSink closes the session and drops the sink.
func (c *Controller) UnmountSink(ctx context.Context) error {
	return c.do(ctx, "unmount_sink", func() error {
		_ = c.closeSession("sink_unmounted")
		c.sink = nil
		return nil
	})
}

func (c *Controller) requireSession() error {
	switch {
	case !c.cur.State.HasSession():
		return ErrNoSession
	case c.cur.State == model.StateErrored:
		return ErrSessionErrored
	case c.sink == nil:
		return ErrNoSink
	}
	return nil
}

func (c *Controller) play() error {
	if err := c.requireSession(); err != nil {
		return err
	}
	switch {
	case c.cur.State == model.StatePlaying:
		return nil
	case !c.cur.State.CanPlay():
		return fmt.Errorf("play in state %s: %w", c.cur.State, ErrNotReady)
	}
	if c.cur.State == model.StateEnded {
		if err := c.rewind(); err != nil {
			return err
		}
	}
	c.startPlay()
	return nil
}

// rewind reloads the source from the start. Some sinks unload the file
// when it ends.
func (c *Controller) rewind() error {
	if err := c.sink.Load(); err != nil {
		return fmt.Errorf("reload ended source: %w", err)
	}
	if err := c.sink.SetCurrentTime(0); err != nil {
		c.sessLog.Debug().Err(err).Str(log.FieldEvent, "session.sink_call_failed").Msg("rewind to start")
	}
	c.cur.Position = 0
	return nil
}

// startPlay runs sink.Play on a tracked worker. Only the latest request
// of the current session may change state.
func (c *Controller) startPlay() {
	c.playID++
	id, gen := c.playID, c.gen
	c.pendingPlay = id
	sink := c.sink
	timeout := c.opts.PlayTimeout
	parent := c.workCtx

	ok := c.workers.spawn(func() {
		ctx, cancel := context.WithTimeout(parent, timeout)
		defer cancel()
		err := playOnce(func() error { return sink.Play(ctx) })
		c.mbox.push(playResult{gen: gen, id: id, err: err})
	})
	if !ok {
		c.pendingPlay = 0
	}
}

func (c *Controller) onPlayResult(r playResult) {
	if r.gen != c.gen || r.id != c.pendingPlay {
		return
	}
	c.pendingPlay = 0
	if r.err != nil {
		c.warn(model.ErrPlayRejected, r.err.Error())
		c.requestGesture("play-rejected")
		return
	}
	c.cur.GestureRequired = false
	c.apply(lifecycle.EvPlayAccepted)
}

func (c *Controller) pause() error {
	if err := c.requireSession(); err != nil {
		return err
	}
	c.pendingPlay = 0
	if err := c.sink.Pause(); err != nil {
		return fmt.Errorf("pause sink: %w", err)
	}
	if c.cur.State == model.StatePlaying {
		c.apply(lifecycle.EvPaused)
	}
	return nil
}

func (c *Controller) seek(t float64, relative bool) error {
	if err := c.requireSession(); err != nil {
		return err
	}
	if math.IsNaN(t) || math.IsInf(t, 0) {
		return fmt.Errorf("seek target %v: %w", t, ErrInvalidArgument)
	}
	if !c.cur.Seekable() {
		return fmt.Errorf("seek without known duration: %w", ErrNotReady)
	}
	if relative {
		t += c.cur.Position
	}
	target := c.cur.ClampPosition(t)
	if err := c.sink.SetCurrentTime(target); err != nil {
		return fmt.Errorf("seek sink: %w", err)
	}
	c.cur.Position = target
	return nil
}

func (c *Controller) setVolume(v float64) error {
	if math.IsNaN(v) {
		return fmt.Errorf("volume %v: %w", v, ErrInvalidArgument)
	}
	v = clamp01(v)
	c.cur.Volume = v
	if v == 0 {
		c.cur.Muted = true
	} else {
		c.lastVolume = v
	}
	c.pushAudioSettings()
	return nil
}

func (c *Controller) selectAudio(id int) error {
	if err := c.requireSession(); err != nil {
		return err
	}
	if !model.HasAudioTrack(c.cur.AudioTracks, id) {
		return fmt.Errorf("audio track %d: %w", id, ErrInvalidArgument)
	}
	switch c.cur.Strategy {
	case model.StrategyAdaptiveEngine:
		if c.handle == nil {
			return ErrNotReady
		}
		c.handle.SelectAudioTrack(id)
	default:
		native, ok := c.sink.(ports.NativeAudioTracks)
		if !ok {
			if id == model.AudioDefault {
				c.cur.SelectedAudioTrack = id
				return nil
			}
			return fmt.Errorf("sink has no native audio tracks: %w", ErrInvalidArgument)
		}
		if id != model.AudioDefault {
			if err := native.EnableAudioTrack(id); err != nil {
				return fmt.Errorf("enable native audio track: %w", err)
			}
		}
		c.cur.SelectedAudioTrack = id
	}
	return nil
}

func (c *Controller) selectQuality(id int) error {
	if err := c.requireSession(); err != nil {
		return err
	}
	if !model.HasQualityLevel(c.cur.QualityLevels, id) {
		return fmt.Errorf("quality level %d: %w", id, ErrInvalidArgument)
	}
	if c.cur.Strategy != model.StrategyAdaptiveEngine {
		if id != model.QualityAuto {
			return fmt.Errorf("native playback only supports auto quality: %w", ErrInvalidArgument)
		}
		c.cur.SelectedQuality = model.QualityAuto
		return nil
	}
	if c.handle == nil {
		return ErrNotReady
	}
	c.handle.SelectQuality(id)
	return nil
}
