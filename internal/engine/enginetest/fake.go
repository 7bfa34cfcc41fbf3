// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

// Package enginetest provides a scriptable adaptive engine for controller tests.
package enginetest

import (
	"errors"
	"slices"
	"sync"

	"github.com/ManuGH/acmplay/internal/domain/player/model"
	"github.com/ManuGH/acmplay/internal/domain/player/ports"
)

// ErrDestroyed is returned by calls on a destroyed engine.
var ErrDestroyed = errors.New("engine destroyed")

// Factory hands out Engines and remembers them.
type Factory struct {
	mu        sync.Mutex
	supported bool
	newErr    error
	engines   []*Engine
	onNew     func(*Engine)
}

// NewFactory returns a supported factory.
func NewFactory() *Factory {
	return &Factory{supported: true}
}

// SetSupported toggles IsSupported.
func (f *Factory) SetSupported(v bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.supported = v
}

// FailNew makes New return err.
func (f *Factory) FailNew(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.newErr = err
}

// OnNew registers a hook that runs on each new engine before it is returned.
func (f *Factory) OnNew(fn func(*Engine)) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.onNew = fn
}

// IsSupported implements ports.EngineFactory.
func (f *Factory) IsSupported() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.supported
}

// New implements ports.EngineFactory.
func (f *Factory) New(t ports.Tuning) (ports.Engine, error) {
	f.mu.Lock()
	if f.newErr != nil {
		err := f.newErr
		f.mu.Unlock()
		return nil, err
	}
	e := &Engine{
		tuning:   t,
		level:    model.QualityAuto,
		audio:    model.AudioDefault,
		handlers: make(map[uint64]ports.EngineHandler),
	}
	f.engines = append(f.engines, e)
	hook := f.onNew
	f.mu.Unlock()
	if hook != nil {
		hook(e)
	}
	return e, nil
}

// Engines returns every engine built so far.
func (f *Factory) Engines() []*Engine {
	f.mu.Lock()
	defer f.mu.Unlock()
	return slices.Clone(f.engines)
}

// Last returns the most recent engine or nil.
func (f *Factory) Last() *Engine {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.engines) == 0 {
		return nil
	}
	return f.engines[len(f.engines)-1]
}

// Engine is a scriptable ports.Engine. Level and track indices outside the
// last announced manifest are coerced to the sentinels.
type Engine struct {
	mu        sync.Mutex
	tuning    ports.Tuning
	source    string
	sink      ports.Sink
	level     int
	audio     int
	levels    int
	tracks    int
	destroyed int
	loadErr   error
	attachErr error
	calls     []string

	handlers map[uint64]ports.EngineHandler
	nextID   uint64
}

// FailLoad makes LoadSource return err.
func (e *Engine) FailLoad(err error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.loadErr = err
}

// FailAttach makes AttachMedia return err.
func (e *Engine) FailAttach(err error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.attachErr = err
}

// LoadSource implements ports.Engine.
func (e *Engine) LoadSource(url string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.calls = append(e.calls, "load_source")
	if e.destroyed > 0 {
		return ErrDestroyed
	}
	if e.loadErr != nil {
		return e.loadErr
	}
	e.source = url
	return nil
}

// AttachMedia implements ports.Engine.
func (e *Engine) AttachMedia(sink ports.Sink) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.calls = append(e.calls, "attach_media")
	if e.destroyed > 0 {
		return ErrDestroyed
	}
	if e.attachErr != nil {
		return e.attachErr
	}
	e.sink = sink
	return nil
}

// Destroy implements ports.Engine. It counts every call so tests can assert
// exactly-once release.
func (e *Engine) Destroy() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.calls = append(e.calls, "destroy")
	e.destroyed++
	e.handlers = map[uint64]ports.EngineHandler{}
	e.sink = nil
}

// SetCurrentLevel implements ports.Engine.
func (e *Engine) SetCurrentLevel(index int) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.calls = append(e.calls, "set_level")
	if index < 0 || index >= e.levels {
		index = model.QualityAuto
	}
	e.level = index
}

// CurrentLevel implements ports.Engine.
func (e *Engine) CurrentLevel() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.level
}

// SetAudioTrack implements ports.Engine. Invalid indices leave the track unchanged.
func (e *Engine) SetAudioTrack(index int) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.calls = append(e.calls, "set_audio")
	if index >= 0 && index < e.tracks {
		e.audio = index
	}
}

// AudioTrack implements ports.Engine.
func (e *Engine) AudioTrack() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.audio
}

// Subscribe implements ports.Engine.
func (e *Engine) Subscribe(h ports.EngineHandler) func() {
	e.mu.Lock()
	e.nextID++
	id := e.nextID
	e.handlers[id] = h
	e.mu.Unlock()
	return func() {
		e.mu.Lock()
		delete(e.handlers, id)
		e.mu.Unlock()
	}
}

// Emit delivers ev synchronously to current subscribers. Handlers may call
// Destroy.
func (e *Engine) Emit(ev ports.EngineEvent) {
	e.mu.Lock()
	if ev.Kind == ports.EngineManifestParsed {
		e.levels = len(ev.Levels)
		e.tracks = len(ev.AudioTracks)
	}
	hs := make([]ports.EngineHandler, 0, len(e.handlers))
	for _, h := range e.handlers {
		hs = append(hs, h)
	}
	e.mu.Unlock()
	for _, h := range hs {
		h(ev)
	}
}

// EmitManifest announces n levels of increasing height and the given audio languages.
func (e *Engine) EmitManifest(levels int, audioLangs ...string) {
	ev := ports.EngineEvent{Kind: ports.EngineManifestParsed}
	for i := 0; i < levels; i++ {
		ev.Levels = append(ev.Levels, ports.EngineLevel{Index: i, Height: 360 * (i + 1), Bitrate: 800_000 * (i + 1)})
	}
	for i, lang := range audioLangs {
		ev.AudioTracks = append(ev.AudioTracks, ports.EngineAudioTrack{Index: i, Language: lang, Default: i == 0})
	}
	e.Emit(ev)
}

// EmitFatal reports a fatal engine error.
func (e *Engine) EmitFatal(details string) {
	e.Emit(ports.EngineEvent{Kind: ports.EngineError, Fatal: true, ErrorType: ports.ErrorTypeNetwork, Details: details})
}

// DestroyCount returns how often Destroy ran.
func (e *Engine) DestroyCount() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.destroyed
}

// Source returns the loaded source.
func (e *Engine) Source() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.source
}

// Tuning returns the tuning the engine was built with.
func (e *Engine) Tuning() ports.Tuning {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.tuning
}

// Calls returns the recorded call names.
func (e *Engine) Calls() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return slices.Clone(e.calls)
}

// Subscribers returns the number of active handlers.
func (e *Engine) Subscribers() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.handlers)
}

var (
	_ ports.EngineFactory = (*Factory)(nil)
	_ ports.Engine        = (*Engine)(nil)
)
