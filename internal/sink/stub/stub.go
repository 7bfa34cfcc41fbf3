// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

// Package stub provides an in-memory media sink for headless runs and tests.
package stub

import (
	"context"
	"math"
	"slices"
	"sync"

	"github.com/ManuGH/acmplay/internal/domain/player/ports"
)

// DefaultNativeTypes are the formats the stub claims to decode.
var DefaultNativeTypes = []string{"video/mp4", "video/webm", "audio/mpeg", "audio/mp4"}

// Option configures a Sink.
type Option func(*Sink)

// WithNativeTypes replaces the natively playable MIME types.
func WithNativeTypes(types ...string) Option {
	return func(s *Sink) { s.nativeTypes = slices.Clone(types) }
}

// WithNativeHLS makes the sink report native manifest support.
func WithNativeHLS() Option {
	return func(s *Sink) { s.nativeTypes = append(s.nativeTypes, ports.HLSMimeType) }
}

// WithAutoEvents makes the sink behave like a real player: Load emits
// loadedmetadata with duration, Play emits play and playing, Pause emits pause.
// A duration of +Inf simulates a live source.
func WithAutoEvents(duration float64) Option {
	return func(s *Sink) {
		s.auto = true
		s.duration = duration
	}
}

// WithPausingLoad makes Load pause the sink first, the way mpv starts every
// loadfile paused.
func WithPausingLoad() Option {
	return func(s *Sink) { s.pausingLoad = true }
}

// WithNativeAudioTracks exposes native audio tracks.
func WithNativeAudioTracks(tracks ...ports.NativeAudioTrack) Option {
	return func(s *Sink) { s.audioTracks = slices.Clone(tracks) }
}

// Sink records every call and lets tests emit media events.
type Sink struct {
	mu          sync.Mutex
	source      string
	audioSource string
	loads       int
	paused      bool
	volume      float64
	muted       bool
	rate        float64
	position    float64
	duration    float64
	nativeTypes []string
	audioTracks []ports.NativeAudioTrack
	calls       []string
	auto        bool
	pausingLoad bool

	playErr  error
	playFunc func(ctx context.Context) error

	handlers map[uint64]ports.MediaHandler
	nextID   uint64
}

// New creates a paused sink at full volume.
func New(opts ...Option) *Sink {
	s := &Sink{
		paused:      true,
		volume:      1,
		rate:        1,
		duration:    math.NaN(),
		nativeTypes: slices.Clone(DefaultNativeTypes),
		handlers:    make(map[uint64]ports.MediaHandler),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Sink) record(call string) {
	s.calls = append(s.calls, call)
}

// SetSource implements ports.Sink. An empty url unloads the sink.
func (s *Sink) SetSource(url string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.record("set_source")
	s.source = url
	s.position = 0
	if url == "" {
		s.paused = true
		s.audioSource = ""
	}
	return nil
}

// Load implements ports.Sink.
func (s *Sink) Load() error {
	s.mu.Lock()
	s.record("load")
	s.loads++
	paused := s.auto && s.pausingLoad && !s.paused
	if s.pausingLoad {
		s.paused = true
	}
	emit := s.auto && s.source != ""
	ev := ports.MediaEvent{Kind: ports.MediaLoadedMetadata, Duration: s.duration}
	s.mu.Unlock()
	if paused {
		s.Emit(ports.MediaEvent{Kind: ports.MediaPause})
	}
	if emit {
		s.Emit(ev)
	}
	return nil
}

// Play implements ports.Sink. It returns the scripted result.
func (s *Sink) Play(ctx context.Context) error {
	s.mu.Lock()
	s.record("play")
	fn := s.playFunc
	err := s.playErr
	s.mu.Unlock()

	if fn != nil {
		err = fn(ctx)
	}
	if err != nil {
		return err
	}

	s.mu.Lock()
	s.paused = false
	auto := s.auto
	pos := s.position
	s.mu.Unlock()
	if auto {
		s.Emit(ports.MediaEvent{Kind: ports.MediaPlay, Position: pos})
		s.Emit(ports.MediaEvent{Kind: ports.MediaPlaying, Position: pos})
	}
	return nil
}

// Pause implements ports.Sink.
func (s *Sink) Pause() error {
	s.mu.Lock()
	s.record("pause")
	wasPlaying := !s.paused
	s.paused = true
	auto := s.auto
	s.mu.Unlock()
	if auto && wasPlaying {
		s.Emit(ports.MediaEvent{Kind: ports.MediaPause})
	}
	return nil
}

// SetVolume implements ports.Sink.
func (s *Sink) SetVolume(v float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.record("set_volume")
	s.volume = v
	return nil
}

// SetMuted implements ports.Sink.
func (s *Sink) SetMuted(muted bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.record("set_muted")
	s.muted = muted
	return nil
}

// SetPlaybackRate implements ports.Sink.
func (s *Sink) SetPlaybackRate(rate float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.record("set_rate")
	s.rate = rate
	return nil
}

// SetCurrentTime implements ports.Sink.
func (s *Sink) SetCurrentTime(seconds float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.record("seek")
	s.position = seconds
	return nil
}

// CurrentTime implements ports.Sink.
func (s *Sink) CurrentTime() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.position
}

// Duration implements ports.Sink.
func (s *Sink) Duration() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.duration
}

// Paused implements ports.Sink.
func (s *Sink) Paused() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.paused
}

// CanPlayNatively implements ports.Sink.
func (s *Sink) CanPlayNatively(mimeHint string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Contains(s.nativeTypes, mimeHint)
}

// Subscribe implements ports.Sink.
func (s *Sink) Subscribe(h ports.MediaHandler) func() {
	s.mu.Lock()
	s.nextID++
	id := s.nextID
	s.handlers[id] = h
	s.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			delete(s.handlers, id)
			s.mu.Unlock()
		})
	}
}

// AudioTracks implements ports.NativeAudioTracks.
func (s *Sink) AudioTracks() []ports.NativeAudioTrack {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.audioTracks)
}

// EnableAudioTrack implements ports.NativeAudioTracks.
func (s *Sink) EnableAudioTrack(id int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.record("enable_audio")
	for i := range s.audioTracks {
		s.audioTracks[i].Enabled = s.audioTracks[i].ID == id
	}
	return nil
}

// SetAudioSource implements ports.AudioSourceSetter.
func (s *Sink) SetAudioSource(url string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.record("set_audio_source")
	s.audioSource = url
	return nil
}

// Emit delivers ev to every subscriber synchronously. Position and Duration
// are also stored so later reads agree with the event.
func (s *Sink) Emit(ev ports.MediaEvent) {
	s.mu.Lock()
	switch ev.Kind {
	case ports.MediaTimeUpdate:
		s.position = ev.Position
	case ports.MediaLoadedMetadata:
		s.duration = ev.Duration
	case ports.MediaPause, ports.MediaEnded:
		s.paused = true
	case ports.MediaPlay, ports.MediaPlaying:
		s.paused = false
	}
	hs := make([]ports.MediaHandler, 0, len(s.handlers))
	for _, h := range s.handlers {
		hs = append(hs, h)
	}
	s.mu.Unlock()

	for _, h := range hs {
		h(ev)
	}
}

// SetPlayResult scripts the error returned by the next Play calls.
func (s *Sink) SetPlayResult(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.playErr = err
}

// SetPlayFunc replaces Play's behaviour, e.g. to block until released.
func (s *Sink) SetPlayFunc(fn func(ctx context.Context) error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.playFunc = fn
}

// Calls returns the recorded call names in order.
func (s *Sink) Calls() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.calls)
}

// Source returns the current source url.
func (s *Sink) Source() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.source
}

// AudioSource returns the external audio rendition url.
func (s *Sink) AudioSource() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.audioSource
}

// Loads returns how many times Load was called.
func (s *Sink) Loads() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loads
}

// Volume returns the last applied volume.
func (s *Sink) Volume() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.volume
}

// Muted returns the last applied mute flag.
func (s *Sink) Muted() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.muted
}

// Rate returns the last applied playback rate.
func (s *Sink) Rate() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rate
}

// Subscribers returns the number of active subscriptions.
func (s *Sink) Subscribers() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.handlers)
}

var (
	_ ports.Sink              = (*Sink)(nil)
	_ ports.NativeAudioTracks = (*Sink)(nil)
	_ ports.AudioSourceSetter = (*Sink)(nil)
)
