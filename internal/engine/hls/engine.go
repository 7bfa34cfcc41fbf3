// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

// Package hls is an adaptive engine for sinks that play single media
// playlists but not multivariant manifests. It fetches and decodes the
// manifest, binds a variant to the sink and keeps live playlists fresh.
package hls

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"github.com/ManuGH/acmplay/internal/domain/player/model"
	"github.com/ManuGH/acmplay/internal/domain/player/ports"
	"github.com/ManuGH/acmplay/internal/log"
	"github.com/rs/zerolog"
	"github.com/sourcegraph/conc"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

var (
	ErrDestroyed     = errors.New("engine destroyed")
	ErrSourceLoaded  = errors.New("source already loaded")
	ErrMediaAttached = errors.New("media already attached")
	ErrInvalidSource = errors.New("invalid source url")
)

// Config holds the engine's network settings.
type Config struct {
	Client *http.Client
	// ManifestRetries is the attempt count for the initial fetch and the
	// number of consecutive live refresh failures tolerated.
	ManifestRetries uint
	RetryDelay      time.Duration
	RequestTimeout  time.Duration
	UserAgent       string
	// StallSegments sets the stall window in target durations when the
	// tuning has no MaxBufferLength.
	StallSegments int
	// RefreshInterval overrides the live refresh period derived from the
	// playlist target duration.
	RefreshInterval time.Duration
	Disabled        bool
}

func (c Config) withDefaults() Config {
	if c.Client == nil {
		c.Client = &http.Client{Transport: otelhttp.NewTransport(http.DefaultTransport)}
	}
	if c.ManifestRetries == 0 {
		c.ManifestRetries = 3
	}
	if c.RetryDelay <= 0 {
		c.RetryDelay = 500 * time.Millisecond
	}
	if c.RequestTimeout <= 0 {
		c.RequestTimeout = 10 * time.Second
	}
	if c.UserAgent == "" {
		c.UserAgent = "acmplay"
	}
	if c.StallSegments <= 0 {
		c.StallSegments = 3
	}
	return c
}

// Factory implements ports.EngineFactory.
type Factory struct {
	cfg Config
}

// NewFactory returns a factory whose engines share cfg.
func NewFactory(cfg Config) *Factory {
	return &Factory{cfg: cfg.withDefaults()}
}

// IsSupported reports whether engines may be built.
func (f *Factory) IsSupported() bool {
	return f != nil && !f.cfg.Disabled
}

// New builds an idle engine with tuning t.
func (f *Factory) New(t ports.Tuning) (ports.Engine, error) {
	if !f.IsSupported() {
		return nil, errors.New("hls engine disabled")
	}
	return newEngine(f.cfg, t), nil
}

// Engine implements ports.Engine. Events are delivered on the engine's
// worker goroutine.
type Engine struct {
	cfg    Config
	tuning ports.Tuning
	logger zerolog.Logger

	mu       sync.Mutex
	source   *url.URL
	sink     ports.Sink
	started  bool
	closed   bool
	cancel   context.CancelFunc
	handlers map[uint64]ports.EngineHandler
	nextID   uint64

	levels     []ports.EngineLevel
	audio      []ports.EngineAudioTrack
	level      int
	audioTrack int
	levelDirty bool
	audioDirty bool

	wake        chan struct{}
	wg          conc.WaitGroup
	dispatching atomic.Bool
}

func newEngine(cfg Config, t ports.Tuning) *Engine {
	return &Engine{
		cfg:        cfg,
		tuning:     t,
		logger:     log.WithComponent("hls"),
		handlers:   make(map[uint64]ports.EngineHandler),
		level:      model.QualityAuto,
		audioTrack: model.AudioDefault,
		wake:       make(chan struct{}, 1),
	}
}

// LoadSource sets the manifest URL. The worker starts once media is attached.
func (e *Engine) LoadSource(raw string) error {
	u, err := url.Parse(raw)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return ErrInvalidSource
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	switch {
	case e.closed:
		return ErrDestroyed
	case e.source != nil:
		return ErrSourceLoaded
	}
	e.source = u
	e.startLocked()
	return nil
}

// AttachMedia binds the sink the engine feeds.
func (e *Engine) AttachMedia(sink ports.Sink) error {
	if sink == nil {
		return errors.New("attach nil sink")
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	switch {
	case e.closed:
		return ErrDestroyed
	case e.sink != nil:
		return ErrMediaAttached
	}
	e.sink = sink
	e.startLocked()
	return nil
}

func (e *Engine) startLocked() {
	if e.started || e.source == nil || e.sink == nil {
		return
	}
	e.started = true
	ctx, cancel := context.WithCancel(context.Background())
	e.cancel = cancel
	src := e.source
	e.logger = e.logger.With().Str(log.FieldSourceURL, log.RedactURL(src.String())).Logger()
	e.wg.Go(func() { e.run(ctx, src) })
}

// Destroy stops the worker and drops every handler. Called from a handler it
// does not wait for the worker, which exits once the handler returns.
func (e *Engine) Destroy() {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return
	}
	e.closed = true
	e.handlers = nil
	e.sink = nil
	cancel := e.cancel
	e.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	if e.dispatching.Load() {
		return
	}
	e.wg.Wait()
}

// SetCurrentLevel selects level index, or automatic selection for an index
// outside the announced levels.
func (e *Engine) SetCurrentLevel(index int) {
	e.mu.Lock()
	if index < 0 || index >= len(e.levels) {
		index = model.QualityAuto
	}
	e.level = index
	e.levelDirty = true
	e.mu.Unlock()
	e.signal()
}

// CurrentLevel returns the selected level or model.QualityAuto.
func (e *Engine) CurrentLevel() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.level
}

// SetAudioTrack selects an audio rendition. Unknown indices are ignored.
func (e *Engine) SetAudioTrack(index int) {
	e.mu.Lock()
	if index < 0 || index >= len(e.audio) {
		e.mu.Unlock()
		return
	}
	e.audioTrack = index
	e.audioDirty = true
	e.mu.Unlock()
	e.signal()
}

// AudioTrack returns the selected rendition or model.AudioDefault.
func (e *Engine) AudioTrack() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.audioTrack
}

// Subscribe registers h for engine events.
func (e *Engine) Subscribe(h ports.EngineHandler) func() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return func() {}
	}
	e.nextID++
	id := e.nextID
	e.handlers[id] = h
	var once sync.Once
	return func() {
		once.Do(func() {
			e.mu.Lock()
			delete(e.handlers, id)
			e.mu.Unlock()
		})
	}
}

func (e *Engine) signal() {
	select {
	case e.wake <- struct{}{}:
	default:
	}
}

// emit delivers ev to the current handlers in subscription order.
func (e *Engine) emit(ev ports.EngineEvent) {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return
	}
	ids := make([]uint64, 0, len(e.handlers))
	for id := range e.handlers {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	hs := make([]ports.EngineHandler, 0, len(ids))
	for _, id := range ids {
		hs = append(hs, e.handlers[id])
	}
	e.mu.Unlock()

	e.dispatching.Store(true)
	defer e.dispatching.Store(false)
	for _, h := range hs {
		if e.isClosed() {
			return
		}
		h(ev)
	}
}

func (e *Engine) emitError(errType string, fatal bool, details string) {
	ev := e.logger.Warn()
	if fatal {
		ev = e.logger.Error()
	}
	ev.Str(log.FieldEvent, "hls.error").
		Str("error_type", errType).
		Bool("fatal", fatal).
		Str("details", details).
		Msg("engine error")
	e.emit(ports.EngineEvent{Kind: ports.EngineError, ErrorType: errType, Fatal: fatal, Details: details})
}

func (e *Engine) isClosed() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.closed
}

// boundSink returns the attached sink, or nil after Destroy.
func (e *Engine) boundSink() ports.Sink {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return nil
	}
	return e.sink
}
