// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package hls

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"slices"
	"time"

	"github.com/ManuGH/acmplay/internal/domain/player/ports"
	"github.com/ManuGH/acmplay/internal/log"
	"golang.org/x/time/rate"
)

const (
	minRefresh     = 100 * time.Millisecond
	defaultRefresh = time.Second
)

// playback is the worker-owned view of the bound rendition.
type playback struct {
	levels []ports.EngineLevel
	audio  []ports.EngineAudioTrack
	bound  int
	uri    string

	live        bool
	target      time.Duration
	nextSeq     uint64
	lastAdvance time.Time
	stalled     bool
	failures    uint
}

func (e *Engine) run(ctx context.Context, src *url.URL) {
	body, err := e.fetch(ctx, src.String(), e.cfg.ManifestRetries)
	if err != nil {
		if ctx.Err() != nil {
			return
		}
		e.emitError(fetchErrorType(err), true, err.Error())
		return
	}
	m, err := parseManifest(src, body)
	if err != nil {
		e.emitError(ports.ErrorTypeParsing, true, err.Error())
		return
	}

	pb := &playback{levels: m.levels, audio: m.audio}
	pb.bound = pickAutoLevel(m.levels, e.tuning.StartBitrateCap)
	pb.uri = m.levels[pb.bound].URI

	// A multivariant entry needs one variant fetch to learn liveness.
	var info mediaInfo
	if m.media != nil {
		info = inspectMedia(m.media)
	} else {
		var errType string
		info, errType, err = e.fetchMedia(ctx, pb.uri, e.cfg.ManifestRetries)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			e.emitError(errType, true, err.Error())
			return
		}
	}
	pb.live = info.live
	pb.target = info.target
	pb.nextSeq = info.nextSeq
	pb.lastAdvance = time.Now()

	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return
	}
	e.levels = slices.Clone(m.levels)
	e.audio = slices.Clone(m.audio)
	e.audioTrack = defaultAudio(m.audio)
	e.mu.Unlock()

	e.logger.Info().
		Str(log.FieldEvent, "hls.manifest_parsed").
		Int("levels", len(m.levels)).
		Int("audio_tracks", len(m.audio)).
		Bool("live", pb.live).
		Int("start_level", pb.bound).
		Msg("manifest parsed")
	e.emit(ports.EngineEvent{
		Kind:        ports.EngineManifestParsed,
		Levels:      slices.Clone(m.levels),
		AudioTracks: slices.Clone(m.audio),
		Live:        pb.live,
	})

	if !e.bindLevel(pb, pb.bound, false) {
		return
	}
	e.emit(ports.EngineEvent{Kind: ports.EngineLevelSwitched, Level: pb.bound})
	if track := e.AudioTrack(); track >= 0 {
		e.bindAudio(pb, track)
		e.emit(ports.EngineEvent{Kind: ports.EngineAudioTrackSwitched, AudioTrack: track})
	}
	if info.segments > 0 {
		e.emit(ports.EngineEvent{Kind: ports.EngineBufferAppended})
	}

	if !pb.live {
		e.idle(ctx, pb)
		return
	}
	e.refreshLoop(ctx, pb)
}

// idle serves selection changes until the engine is destroyed.
func (e *Engine) idle(ctx context.Context, pb *playback) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-e.wake:
			if !e.applySelection(pb) {
				return
			}
		}
	}
}

func (e *Engine) refreshLoop(ctx context.Context, pb *playback) {
	limiter := rate.NewLimiter(rate.Every(e.refreshInterval(pb)), 1)
	// The initial fetch consumed the first token.
	limiter.Allow()

	for {
		r := limiter.Reserve()
		timer := time.NewTimer(r.Delay())
		select {
		case <-ctx.Done():
			timer.Stop()
			r.Cancel()
			return
		case <-e.wake:
			timer.Stop()
			r.Cancel()
			if !e.applySelection(pb) {
				return
			}
			continue
		case <-timer.C:
		}

		if !e.refresh(ctx, pb) {
			return
		}
		if !pb.live {
			e.logger.Debug().Str(log.FieldEvent, "hls.live_ended").Msg("playlist closed, refresh stopped")
			e.idle(ctx, pb)
			return
		}
		limiter.SetLimit(rate.Every(e.refreshInterval(pb)))
	}
}

// refresh re-fetches the bound media playlist. It returns false when the
// worker must stop.
func (e *Engine) refresh(ctx context.Context, pb *playback) bool {
	info, errType, err := e.fetchMedia(ctx, pb.uri, 1)
	if err != nil {
		if ctx.Err() != nil {
			return false
		}
		pb.failures++
		fatal := pb.failures >= e.cfg.ManifestRetries
		e.emitError(errType, fatal, fmt.Sprintf("refresh %d/%d: %v", pb.failures, e.cfg.ManifestRetries, err))
		return !fatal && !e.isClosed()
	}

	pb.failures = 0
	pb.live = info.live
	if info.target > 0 {
		pb.target = info.target
	}
	if info.nextSeq > pb.nextSeq {
		pb.nextSeq = info.nextSeq
		pb.lastAdvance = time.Now()
		pb.stalled = false
		e.emit(ports.EngineEvent{Kind: ports.EngineBufferAppended})
		return !e.isClosed()
	}
	if !pb.stalled && time.Since(pb.lastAdvance) >= e.stallAfter(pb) {
		pb.stalled = true
		e.logger.Warn().
			Str(log.FieldEvent, "hls.stalled").
			Uint64("next_seq", pb.nextSeq).
			Dur("since_advance", time.Since(pb.lastAdvance)).
			Msg("live playlist stopped advancing")
		e.emit(ports.EngineEvent{Kind: ports.EngineBufferStalled})
	}
	return !e.isClosed()
}

func (e *Engine) fetchMedia(ctx context.Context, uri string, attempts uint) (mediaInfo, string, error) {
	body, err := e.fetch(ctx, uri, attempts)
	if err != nil {
		return mediaInfo{}, fetchErrorType(err), err
	}
	mp, err := parseMedia(body)
	if err != nil {
		return mediaInfo{}, ports.ErrorTypeParsing, err
	}
	return inspectMedia(mp), "", nil
}

// applySelection rebinds pending level and audio changes.
func (e *Engine) applySelection(pb *playback) bool {
	e.mu.Lock()
	levelDirty, audioDirty := e.levelDirty, e.audioDirty
	level, track := e.level, e.audioTrack
	e.levelDirty, e.audioDirty = false, false
	e.mu.Unlock()

	if levelDirty {
		target := level
		if target < 0 {
			target = pickAutoLevel(pb.levels, e.tuning.StartBitrateCap)
		}
		if target != pb.bound {
			if !e.bindLevel(pb, target, true) {
				return false
			}
		}
		e.emit(ports.EngineEvent{Kind: ports.EngineLevelSwitched, Level: target})
	}
	if audioDirty && track >= 0 {
		e.bindAudio(pb, track)
		e.emit(ports.EngineEvent{Kind: ports.EngineAudioTrackSwitched, AudioTrack: track})
	}
	return !e.isClosed()
}

// loadLevel loads the bound source. A switch during playback must leave the
// sink playing, so it reloads through ports.Reloader when available and
// otherwise resumes after Load.
func (e *Engine) loadLevel(sink ports.Sink, switching bool, pos float64) error {
	if r, ok := sink.(ports.Reloader); ok && switching {
		return r.Reload(pos)
	}
	wasPlaying := switching && !sink.Paused()
	if err := sink.Load(); err != nil {
		return err
	}
	if pos > 0 {
		if err := sink.SetCurrentTime(pos); err != nil {
			e.logger.Debug().Err(err).Str(log.FieldEvent, "hls.seek_failed").Float64(log.FieldPosition, pos).Msg("restore position after level switch")
		}
	}
	if wasPlaying && sink.Paused() {
		ctx, cancel := context.WithTimeout(context.Background(), e.cfg.RequestTimeout)
		defer cancel()
		if err := sink.Play(ctx); err != nil {
			e.logger.Warn().Err(err).Str(log.FieldEvent, "hls.resume_failed").Msg("resume after level switch")
		}
	}
	return nil
}

// bindLevel points the sink at level idx. keepPosition restores the playhead
// for on-demand sources.
func (e *Engine) bindLevel(pb *playback, idx int, keepPosition bool) bool {
	sink := e.boundSink()
	if sink == nil {
		return false
	}
	pos := 0.0
	if keepPosition && !pb.live {
		pos = sink.CurrentTime()
	}
	uri := pb.levels[idx].URI
	if err := sink.SetSource(uri); err != nil {
		e.emitError(ports.ErrorTypeMedia, true, fmt.Sprintf("bind level %d: %v", idx, err))
		return false
	}
	if err := e.loadLevel(sink, keepPosition, pos); err != nil {
		e.emitError(ports.ErrorTypeMedia, true, fmt.Sprintf("load level %d: %v", idx, err))
		return false
	}
	if uri != pb.uri {
		// Sequence numbers are per rendition.
		pb.nextSeq = 0
		pb.lastAdvance = time.Now()
		pb.stalled = false
	}
	pb.bound = idx
	pb.uri = uri
	e.logger.Debug().
		Str(log.FieldEvent, "hls.level_bound").
		Int("level", idx).
		Int("bitrate", pb.levels[idx].Bitrate).
		Msg("level bound to sink")
	return true
}

func (e *Engine) bindAudio(pb *playback, idx int) {
	if idx < 0 || idx >= len(pb.audio) {
		return
	}
	uri := pb.audio[idx].URI
	if uri == "" {
		return
	}
	setter, ok := e.boundSink().(ports.AudioSourceSetter)
	if !ok {
		return
	}
	if err := setter.SetAudioSource(uri); err != nil {
		e.emitError(ports.ErrorTypeMedia, false, fmt.Sprintf("bind audio %d: %v", idx, err))
	}
}

func (e *Engine) refreshInterval(pb *playback) time.Duration {
	if e.cfg.RefreshInterval > 0 {
		return e.cfg.RefreshInterval
	}
	d := pb.target
	if d <= 0 {
		d = defaultRefresh
	}
	if e.tuning.LowLatencyMode {
		d /= 2
	}
	return max(d, minRefresh)
}

func (e *Engine) stallAfter(pb *playback) time.Duration {
	if e.tuning.MaxBufferLength > 0 {
		return time.Duration(e.tuning.MaxBufferLength * float64(time.Second))
	}
	target := pb.target
	if target <= 0 {
		target = defaultRefresh
	}
	return target * time.Duration(e.cfg.StallSegments)
}

func fetchErrorType(err error) string {
	if errors.Is(err, ErrNotPlaylist) {
		return ports.ErrorTypeParsing
	}
	return ports.ErrorTypeNetwork
}
