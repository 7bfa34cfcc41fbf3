// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package adapter

import (
	"errors"
	"sync"
	"testing"

	"github.com/ManuGH/acmplay/internal/domain/player/model"
	"github.com/ManuGH/acmplay/internal/domain/player/ports"
	"github.com/ManuGH/acmplay/internal/engine/enginetest"
	"github.com/ManuGH/acmplay/internal/sink/stub"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recorder struct {
	mu     sync.Mutex
	events []Event
}

func (r *recorder) emit(ev Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
}

func (r *recorder) kinds() []EventKind {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]EventKind, len(r.events))
	for i, ev := range r.events {
		out[i] = ev.Kind
	}
	return out
}

func (r *recorder) last() Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.events[len(r.events)-1]
}

func attach(t *testing.T) (*Handle, *enginetest.Engine, *recorder) {
	t.Helper()
	factory := enginetest.NewFactory()
	rec := &recorder{}
	h, err := New(factory).Attach("https://cdn.example.com/live.m3u8", stub.New(), model.DefaultProfile(), rec.emit)
	require.NoError(t, err)
	return h, factory.Last(), rec
}

func TestAttach_LoadsAndBindsWithTuning(t *testing.T) {
	h, engine, _ := attach(t)
	defer h.Detach()

	assert.Equal(t, []string{"load_source", "attach_media"}, engine.Calls())
	assert.Equal(t, "https://cdn.example.com/live.m3u8", engine.Source())
	assert.Equal(t, model.DefaultTuning(), engine.Tuning())
	assert.NotZero(t, h.ID())
}

func TestAttach_FailureReleasesEngine(t *testing.T) {
	factory := enginetest.NewFactory()
	factory.OnNew(func(e *enginetest.Engine) { e.FailAttach(errors.New("no media")) })

	h, err := New(factory).Attach("x.m3u8", stub.New(), model.DefaultProfile(), nil)
	require.Error(t, err)
	assert.Nil(t, h)
	assert.Equal(t, model.ErrAttachFailed, model.ErrorKindOf(err))
	assert.Equal(t, 1, factory.Last().DestroyCount())
	assert.Equal(t, 0, factory.Last().Subscribers())
}

func TestAttach_FactoryErrorAndNilFactory(t *testing.T) {
	factory := enginetest.NewFactory()
	factory.FailNew(errors.New("boom"))
	_, err := New(factory).Attach("x.m3u8", stub.New(), model.DefaultProfile(), nil)
	assert.Equal(t, model.ErrAttachFailed, model.ErrorKindOf(err))

	_, err = New(nil).Attach("x.m3u8", stub.New(), model.DefaultProfile(), nil)
	assert.Equal(t, model.ErrAttachFailed, model.ErrorKindOf(err))
}

func TestHandle_ManifestMapping(t *testing.T) {
	h, engine, rec := attach(t)
	defer h.Detach()

	engine.Emit(ports.EngineEvent{
		Kind: ports.EngineManifestParsed,
		Levels: []ports.EngineLevel{
			{Height: 360, Bitrate: 800_000},
			{Name: "HD", Height: 720, Bitrate: 2_500_000},
			{Bitrate: 128_400},
		},
		AudioTracks: []ports.EngineAudioTrack{
			{Name: "Commentary", Language: "en"},
			{Language: "de"},
			{},
		},
		Live: true,
	})

	ev := rec.last()
	require.Equal(t, EvManifestReady, ev.Kind)
	assert.Equal(t, h.ID(), ev.HandleID)
	assert.True(t, ev.Live)
	assert.Equal(t, []model.QualityLevel{
		{ID: 0, Label: "360p", Height: 360, Bitrate: 800_000},
		{ID: 1, Label: "HD", Height: 720, Bitrate: 2_500_000},
		{ID: 2, Label: "128kbps", Bitrate: 128_400},
	}, ev.QualityLevels)
	assert.Equal(t, []model.AudioTrack{
		{ID: 0, Label: "Commentary", Language: "en"},
		{ID: 1, Label: "German", Language: "de"},
		{ID: 2, Label: "Track 2"},
	}, ev.AudioTracks)
}

func TestHandle_BufferAppendedOnlyResumesAfterStall(t *testing.T) {
	h, engine, rec := attach(t)
	defer h.Detach()

	engine.Emit(ports.EngineEvent{Kind: ports.EngineBufferAppended})
	assert.Empty(t, rec.kinds())

	engine.Emit(ports.EngineEvent{Kind: ports.EngineBufferStalled})
	engine.Emit(ports.EngineEvent{Kind: ports.EngineBufferStalled})
	engine.Emit(ports.EngineEvent{Kind: ports.EngineBufferAppended})
	engine.Emit(ports.EngineEvent{Kind: ports.EngineBufferAppended})

	assert.Equal(t, []EventKind{EvBufferStalled, EvBufferResumed}, rec.kinds())
}

func TestHandle_SelectionReadsBackCommittedValue(t *testing.T) {
	h, engine, rec := attach(t)
	defer h.Detach()
	engine.EmitManifest(3, "en", "fr")

	h.SelectQuality(2)
	assert.Equal(t, Event{HandleID: h.ID(), Kind: EvQualityChanged, ID: 2}, rec.last())

	// Out-of-range indices are coerced to auto by the engine.
	h.SelectQuality(9)
	assert.Equal(t, model.QualityAuto, rec.last().ID)

	h.SelectAudioTrack(1)
	assert.Equal(t, Event{HandleID: h.ID(), Kind: EvAudioChanged, ID: 1}, rec.last())
}

func TestHandle_FatalErrorDetachesThenReports(t *testing.T) {
	h, engine, rec := attach(t)

	var destroyedAtEmit int
	h.emit = func(ev Event) {
		destroyedAtEmit = engine.DestroyCount()
		rec.emit(ev)
	}
	engine.EmitFatal("manifest 404")

	ev := rec.last()
	assert.Equal(t, EvError, ev.Kind)
	assert.True(t, ev.Fatal)
	assert.Equal(t, model.ErrEngineFatal, ev.ErrorKind)
	assert.Contains(t, ev.Message, "manifest 404")
	assert.Equal(t, 1, destroyedAtEmit, "engine must be released before the error is reported")
	assert.True(t, h.Detached())

	h.Detach()
	h.Detach()
	assert.Equal(t, 1, engine.DestroyCount())
}

func TestHandle_NonFatalErrorIsWarning(t *testing.T) {
	h, engine, rec := attach(t)
	defer h.Detach()

	engine.Emit(ports.EngineEvent{Kind: ports.EngineError, ErrorType: ports.ErrorTypeNetwork, Details: "fragLoadError"})
	ev := rec.last()
	assert.False(t, ev.Fatal)
	assert.Equal(t, model.ErrEngineWarning, ev.ErrorKind)
	assert.False(t, h.Detached())
}

func TestHandle_EventsAfterDetachDropped(t *testing.T) {
	h, engine, rec := attach(t)
	h.Detach()

	engine.EmitManifest(2)
	h.SelectQuality(1)
	h.SelectAudioTrack(0)
	assert.Empty(t, rec.kinds())
	assert.Equal(t, 1, engine.DestroyCount())

	var nilHandle *Handle
	nilHandle.Detach()
	assert.True(t, nilHandle.Detached())
}

func TestLevelLabelFallbacks(t *testing.T) {
	assert.Equal(t, "Source", LevelLabel(ports.EngineLevel{Name: " Source ", Height: 1080}))
	assert.Equal(t, "1080p", LevelLabel(ports.EngineLevel{Height: 1080}))
	assert.Equal(t, "2500kbps", LevelLabel(ports.EngineLevel{Bitrate: 2_499_600}))
	assert.Equal(t, "", LanguageName("not a tag!"))
	assert.Equal(t, "French", LanguageName("fr"))
}
