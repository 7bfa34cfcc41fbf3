// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package session

import (
	"context"
	"errors"
	"math"
	"sync"
	"testing"
	"time"

	"github.com/ManuGH/acmplay/internal/domain/player/model"
	"github.com/ManuGH/acmplay/internal/domain/player/ports"
	"github.com/ManuGH/acmplay/internal/engine/enginetest"
	"github.com/ManuGH/acmplay/internal/sink/stub"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

const (
	clipURL = "https://cdn.example.test/media/clip.mp4"
	liveURL = "https://cdn.example.test/live/live.m3u8"
)

type recordingBus struct {
	mu     sync.Mutex
	events map[string][]interface{}
}

func newRecordingBus() *recordingBus {
	return &recordingBus{events: make(map[string][]interface{})}
}

func (b *recordingBus) Publish(_ context.Context, topic string, event interface{}) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.events[topic] = append(b.events[topic], event)
	return nil
}

func (b *recordingBus) gestures() []model.GestureRequest {
	b.mu.Lock()
	defer b.mu.Unlock()
	var out []model.GestureRequest
	for _, ev := range b.events[ports.TopicGesture] {
		out = append(out, ev.(model.GestureRequest))
	}
	return out
}

func (b *recordingBus) states() []model.Snapshot {
	b.mu.Lock()
	defer b.mu.Unlock()
	var out []model.Snapshot
	for _, ev := range b.events[ports.TopicState] {
		out = append(out, ev.(model.Snapshot))
	}
	return out
}

func startController(t *testing.T, opts Options) *Controller {
	t.Helper()
	if opts.Profile == (model.Profile{}) {
		opts.Profile = model.DefaultProfile()
	}
	c := New(opts)
	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- c.Run(ctx) }()
	t.Cleanup(func() {
		cancel()
		select {
		case err := <-errCh:
			assert.NoError(t, err)
		case <-time.After(5 * time.Second):
			t.Error("controller did not stop")
		}
	})
	return c
}

func waitState(t *testing.T, c *Controller, want model.PlaybackState) model.Snapshot {
	t.Helper()
	require.Eventually(t, func() bool {
		return c.Snapshot().State == want
	}, 2*time.Second, 5*time.Millisecond, "state never became %s (last %s)", want, c.Snapshot().State)
	return c.Snapshot()
}

// flush waits until every item queued before it has been processed.
func flush(t *testing.T, c *Controller) {
	t.Helper()
	require.NoError(t, c.do(context.Background(), "flush", func() error { return nil }))
}

func TestNativeClipBecomesReadyThenPlaying(t *testing.T) {
	ctx := context.Background()
	sink := stub.New(stub.WithAutoEvents(120))
	c := startController(t, Options{Sink: sink, Engines: enginetest.NewFactory()})

	require.NoError(t, c.SubmitSource(ctx, clipURL))
	snap := waitState(t, c, model.StateReady)
	assert.Equal(t, model.StrategyNativeDirect, snap.Strategy)
	assert.Equal(t, 120.0, snap.Duration)
	assert.True(t, snap.DurationKnown)
	assert.NotEmpty(t, snap.SessionID)
	assert.Equal(t, clipURL, sink.Source())

	require.NoError(t, c.Play(ctx))
	snap = waitState(t, c, model.StatePlaying)
	assert.False(t, snap.GestureRequired)
}

func TestLiveManifestUsesAdaptiveEngine(t *testing.T) {
	ctx := context.Background()
	factory := enginetest.NewFactory()
	sink := stub.New()
	c := startController(t, Options{Sink: sink, Engines: factory})

	require.NoError(t, c.SubmitSource(ctx, liveURL))
	snap := c.Snapshot()
	assert.Equal(t, model.StateLoading, snap.State)
	assert.Equal(t, model.StrategyAdaptiveEngine, snap.Strategy)

	eng := factory.Last()
	require.NotNil(t, eng)
	assert.Equal(t, liveURL, eng.Source())
	assert.Equal(t, model.DefaultTuning(), eng.Tuning())
	assert.NotContains(t, sink.Calls(), "play", "attach must not start playback")

	eng.EmitManifest(3, "en", "de")
	snap = waitState(t, c, model.StateReady)
	assert.Len(t, snap.AudioTracks, 2)
	assert.Len(t, snap.QualityLevels, 4)
	assert.Equal(t, model.QualityAuto, snap.SelectedQuality)
	assert.Equal(t, model.AudioDefault, snap.SelectedAudioTrack)
	assert.Equal(t, "Auto", snap.QualityLevels[0].Label)
	assert.Equal(t, "English", snap.AudioTracks[0].Label)
}

func TestSubmitDetachesPreviousSessionFirst(t *testing.T) {
	ctx := context.Background()
	factory := enginetest.NewFactory()
	sink := stub.New()
	c := startController(t, Options{Sink: sink, Engines: factory})

	require.NoError(t, c.SubmitSource(ctx, "https://a.example.test/a.m3u8"))
	engA := factory.Last()
	require.NotNil(t, engA)
	firstID := c.Snapshot().SessionID

	var destroyedBeforeB int
	factory.OnNew(func(*enginetest.Engine) { destroyedBeforeB = engA.DestroyCount() })

	require.NoError(t, c.SubmitSource(ctx, "https://b.example.test/b.m3u8"))
	engB := factory.Last()
	require.NotSame(t, engA, engB)
	assert.Equal(t, 1, destroyedBeforeB, "A must be destroyed before B is built")

	// Late events from A must not reach the new session.
	engA.EmitManifest(2, "en")
	flush(t, c)
	snap := c.Snapshot()
	assert.NotEqual(t, firstID, snap.SessionID)
	assert.Equal(t, model.StateLoading, snap.State)
	assert.Empty(t, snap.AudioTracks)
	assert.Equal(t, 1, engA.DestroyCount())
	assert.Equal(t, 0, engB.DestroyCount())
}

func TestStaleSinkEventsAreDiscarded(t *testing.T) {
	ctx := context.Background()
	sink := stub.New()
	c := startController(t, Options{Sink: sink})

	require.NoError(t, c.SubmitSource(ctx, clipURL))
	require.NoError(t, c.SubmitSource(ctx, "https://cdn.example.test/other.mp4"))
	assert.Equal(t, 1, sink.Subscribers())

	sink.Emit(ports.MediaEvent{Kind: ports.MediaLoadedMetadata, Duration: 30})
	snap := waitState(t, c, model.StateReady)
	assert.Equal(t, 30.0, snap.Duration)
}

func TestVolumeRules(t *testing.T) {
	ctx := context.Background()
	c := startController(t, Options{Sink: stub.New()})

	require.NoError(t, c.SetVolume(ctx, 0))
	snap := c.Snapshot()
	assert.True(t, snap.Muted)
	assert.Equal(t, 0.0, snap.Volume)

	require.NoError(t, c.SetVolume(ctx, 0.4))
	snap = c.Snapshot()
	assert.True(t, snap.Muted, "raising volume never unmutes")
	assert.Equal(t, 0.4, snap.Volume)

	require.NoError(t, c.ToggleMute(ctx))
	require.NoError(t, c.SetVolume(ctx, 0.7))
	require.NoError(t, c.ToggleMute(ctx))
	require.NoError(t, c.ToggleMute(ctx))
	snap = c.Snapshot()
	assert.False(t, snap.Muted)
	assert.Equal(t, 0.7, snap.Volume)

	require.NoError(t, c.SetVolume(ctx, 3))
	assert.Equal(t, 1.0, c.Snapshot().Volume)
	require.NoError(t, c.NudgeVolume(ctx, -0.1))
	assert.InDelta(t, 0.9, c.Snapshot().Volume, 1e-9)
	assert.ErrorIs(t, c.SetVolume(ctx, math.NaN()), ErrInvalidArgument)
}

func TestUnmuteAtZeroRestoresLastVolume(t *testing.T) {
	ctx := context.Background()
	c := startController(t, Options{Sink: stub.New()})

	require.NoError(t, c.SetVolume(ctx, 0.6))
	require.NoError(t, c.SetVolume(ctx, 0))
	require.NoError(t, c.ToggleMute(ctx))
	snap := c.Snapshot()
	assert.False(t, snap.Muted)
	assert.Equal(t, 0.6, snap.Volume)
}

func TestVolumePersistsAcrossSessions(t *testing.T) {
	ctx := context.Background()
	sink := stub.New()
	c := startController(t, Options{Sink: sink})

	require.NoError(t, c.SetVolume(ctx, 0.3))
	require.NoError(t, c.ToggleMute(ctx))
	require.NoError(t, c.SubmitSource(ctx, clipURL))
	snap := c.Snapshot()
	assert.Equal(t, 0.3, snap.Volume)
	assert.True(t, snap.Muted)
	assert.Equal(t, 0.3, sink.Volume())
	assert.True(t, sink.Muted())
	assert.Equal(t, 1.0, snap.PlaybackRate)
}

func TestSeekClampsToDuration(t *testing.T) {
	ctx := context.Background()
	c := startController(t, Options{Sink: stub.New(stub.WithAutoEvents(120))})

	require.NoError(t, c.SubmitSource(ctx, clipURL))
	waitState(t, c, model.StateReady)

	require.NoError(t, c.Seek(ctx, -5))
	assert.Equal(t, 0.0, c.Snapshot().Position)
	require.NoError(t, c.Seek(ctx, 999))
	assert.Equal(t, 120.0, c.Snapshot().Position)
	require.NoError(t, c.SeekBy(ctx, -10))
	assert.Equal(t, 110.0, c.Snapshot().Position)
	assert.ErrorIs(t, c.Seek(ctx, math.Inf(1)), ErrInvalidArgument)
}

func TestLiveSinkSeekOnlyClampsLowerBound(t *testing.T) {
	ctx := context.Background()
	sink := stub.New(stub.WithAutoEvents(math.Inf(1)))
	c := startController(t, Options{Sink: sink})

	require.NoError(t, c.SubmitSource(ctx, clipURL))
	snap := waitState(t, c, model.StateReady)
	assert.True(t, snap.Live)
	assert.False(t, snap.DurationKnown)

	require.NoError(t, c.Seek(ctx, -5))
	assert.Equal(t, 0.0, c.Snapshot().Position)
	require.NoError(t, c.Seek(ctx, 999))
	assert.Equal(t, 999.0, c.Snapshot().Position)

	require.NoError(t, c.Play(ctx))
	waitState(t, c, model.StatePlaying)
	sink.Emit(ports.MediaEvent{Kind: ports.MediaEnded})
	flush(t, c)
	assert.Equal(t, model.StatePlaying, c.Snapshot().State, "live sources never end")
}

func TestSeekWithoutDurationIsNotReady(t *testing.T) {
	ctx := context.Background()
	c := startController(t, Options{Sink: stub.New()})

	require.NoError(t, c.SubmitSource(ctx, clipURL))
	assert.ErrorIs(t, c.Seek(ctx, 10), ErrNotReady)
}

func TestFatalEngineErrorIsTerminal(t *testing.T) {
	ctx := context.Background()
	factory := enginetest.NewFactory()
	sink := stub.New()
	c := startController(t, Options{Sink: sink, Engines: factory})

	require.NoError(t, c.SubmitSource(ctx, liveURL))
	eng := factory.Last()
	eng.EmitManifest(3, "en")
	waitState(t, c, model.StateReady)
	require.NoError(t, c.Play(ctx))
	waitState(t, c, model.StatePlaying)

	eng.EmitFatal("manifest load timeout")
	snap := waitState(t, c, model.StateErrored)
	require.NotNil(t, snap.LastError)
	assert.Equal(t, model.ErrEngineFatal, snap.LastError.Kind)
	assert.Equal(t, 1, eng.DestroyCount())
	assert.Equal(t, 0, sink.Subscribers())

	eng.EmitManifest(2, "de")
	sink.Emit(ports.MediaEvent{Kind: ports.MediaTimeUpdate, Position: 40})
	flush(t, c)
	assert.Equal(t, snap.Seq, c.Snapshot().Seq, "no mutation after a fatal error")
	assert.Equal(t, 1, eng.DestroyCount())

	assert.ErrorIs(t, c.Play(ctx), ErrSessionErrored)
	assert.ErrorIs(t, c.Pause(ctx), ErrSessionErrored)
	assert.ErrorIs(t, c.SelectQuality(ctx, 0), ErrSessionErrored)

	require.NoError(t, c.SubmitSource(ctx, liveURL))
	snap = c.Snapshot()
	assert.Equal(t, model.StateLoading, snap.State)
	assert.Nil(t, snap.LastError)
}

func TestNonFatalEngineErrorIsWarning(t *testing.T) {
	ctx := context.Background()
	factory := enginetest.NewFactory()
	c := startController(t, Options{Sink: stub.New(), Engines: factory})

	require.NoError(t, c.SubmitSource(ctx, liveURL))
	eng := factory.Last()
	eng.EmitManifest(1)
	waitState(t, c, model.StateReady)

	eng.Emit(ports.EngineEvent{Kind: ports.EngineError, ErrorType: ports.ErrorTypeMedia, Details: "fragParsingError"})
	require.Eventually(t, func() bool { return c.Snapshot().LastWarning != nil }, 2*time.Second, 5*time.Millisecond)
	snap := c.Snapshot()
	assert.Equal(t, model.ErrEngineWarning, snap.LastWarning.Kind)
	assert.Equal(t, model.StateReady, snap.State)
	assert.Zero(t, eng.DestroyCount())
}

func TestUnsupportedManifestWithoutEngine(t *testing.T) {
	ctx := context.Background()
	sink := stub.New()
	c := startController(t, Options{Sink: sink})

	require.NoError(t, c.SubmitSource(ctx, liveURL))
	snap := c.Snapshot()
	assert.Equal(t, model.StateErrored, snap.State)
	assert.Equal(t, model.StrategyUnsupported, snap.Strategy)
	require.NotNil(t, snap.LastError)
	assert.Equal(t, model.ErrUnsupportedFormat, snap.LastError.Kind)
	assert.Equal(t, 0, sink.Subscribers())
	assert.Empty(t, sink.Source())
}

func TestNativeHLSSinkPlaysManifestDirectly(t *testing.T) {
	ctx := context.Background()
	factory := enginetest.NewFactory()
	sink := stub.New(stub.WithNativeHLS(), stub.WithAutoEvents(60))
	c := startController(t, Options{Sink: sink, Engines: factory})

	require.NoError(t, c.SubmitSource(ctx, liveURL))
	snap := waitState(t, c, model.StateReady)
	assert.Equal(t, model.StrategyNativeDirect, snap.Strategy)
	assert.Empty(t, factory.Engines())
}

func TestAttachFailureErrorsSession(t *testing.T) {
	ctx := context.Background()
	factory := enginetest.NewFactory()
	factory.OnNew(func(e *enginetest.Engine) { e.FailAttach(errors.New("media element gone")) })
	c := startController(t, Options{Sink: stub.New(), Engines: factory})

	require.NoError(t, c.SubmitSource(ctx, liveURL))
	snap := c.Snapshot()
	assert.Equal(t, model.StateErrored, snap.State)
	require.NotNil(t, snap.LastError)
	assert.Equal(t, model.ErrAttachFailed, snap.LastError.Kind)
	assert.Equal(t, 1, factory.Last().DestroyCount())
}

func TestPlayRejectedRequestsGesture(t *testing.T) {
	ctx := context.Background()
	bus := newRecordingBus()
	sink := stub.New(stub.WithAutoEvents(30))
	sink.SetPlayResult(errors.New("NotAllowedError: play() failed"))
	c := startController(t, Options{Sink: sink, Bus: bus})

	require.NoError(t, c.SubmitSource(ctx, clipURL))
	waitState(t, c, model.StateReady)
	require.NoError(t, c.Play(ctx))

	require.Eventually(t, func() bool { return c.Snapshot().GestureRequired }, 2*time.Second, 5*time.Millisecond)
	snap := c.Snapshot()
	assert.Equal(t, model.StateReady, snap.State)
	require.NotNil(t, snap.LastWarning)
	assert.Equal(t, model.ErrPlayRejected, snap.LastWarning.Kind)
	assert.Nil(t, snap.LastError)

	gestures := bus.gestures()
	require.Len(t, gestures, 1)
	assert.Equal(t, "play-rejected", gestures[0].Reason)
	assert.Equal(t, snap.SessionID, gestures[0].SessionID)

	sink.SetPlayResult(nil)
	require.NoError(t, c.Play(ctx))
	snap = waitState(t, c, model.StatePlaying)
	assert.False(t, snap.GestureRequired)
}

func TestAutoplayBlockedPublishesGestureOnSubmit(t *testing.T) {
	ctx := context.Background()
	bus := newRecordingBus()
	profile := model.DefaultProfile()
	profile.AutoplayPermitted = false
	c := startController(t, Options{Sink: stub.New(), Bus: bus, Profile: profile})

	require.NoError(t, c.SubmitSource(ctx, clipURL))
	assert.True(t, c.Snapshot().GestureRequired)
	gestures := bus.gestures()
	require.Len(t, gestures, 1)
	assert.Equal(t, "autoplay-blocked", gestures[0].Reason)
}

func TestAutoplayOnManifest(t *testing.T) {
	ctx := context.Background()
	factory := enginetest.NewFactory()
	profile := model.DefaultProfile()
	profile.AutoplayOnManifest = true
	c := startController(t, Options{Sink: stub.New(), Engines: factory, Profile: profile})

	require.NoError(t, c.SubmitSource(ctx, liveURL))
	factory.Last().EmitManifest(2)
	waitState(t, c, model.StatePlaying)
}

func TestSetProfileAppliesToNextSession(t *testing.T) {
	ctx := context.Background()
	factory := enginetest.NewFactory()
	c := startController(t, Options{Sink: stub.New(), Engines: factory})

	require.NoError(t, c.SubmitSource(ctx, liveURL))
	first := factory.Last()

	profile := model.DefaultProfile()
	profile.Tuning.MaxBufferLength = 20
	profile.Tuning.LowLatencyMode = false
	require.NoError(t, c.SetProfile(ctx, profile))
	assert.Equal(t, model.DefaultTuning(), first.Tuning())

	require.NoError(t, c.SubmitSource(ctx, liveURL))
	assert.Equal(t, profile.Tuning, factory.Last().Tuning())
}

func TestTrackAndQualitySelection(t *testing.T) {
	ctx := context.Background()
	factory := enginetest.NewFactory()
	c := startController(t, Options{Sink: stub.New(), Engines: factory})

	require.NoError(t, c.SubmitSource(ctx, liveURL))
	factory.Last().EmitManifest(3, "en", "fr")
	waitState(t, c, model.StateReady)

	require.NoError(t, c.SelectQuality(ctx, 1))
	require.Eventually(t, func() bool { return c.Snapshot().SelectedQuality == 1 }, 2*time.Second, 5*time.Millisecond)

	require.NoError(t, c.SelectAudioTrack(ctx, 1))
	require.Eventually(t, func() bool { return c.Snapshot().SelectedAudioTrack == 1 }, 2*time.Second, 5*time.Millisecond)

	require.NoError(t, c.SelectQuality(ctx, model.QualityAuto))
	require.Eventually(t, func() bool { return c.Snapshot().SelectedQuality == model.QualityAuto }, 2*time.Second, 5*time.Millisecond)

	assert.ErrorIs(t, c.SelectQuality(ctx, 9), ErrInvalidArgument)
	assert.ErrorIs(t, c.SelectAudioTrack(ctx, 5), ErrInvalidArgument)
}

func TestNativeSelection(t *testing.T) {
	ctx := context.Background()
	sink := stub.New(
		stub.WithAutoEvents(90),
		stub.WithNativeAudioTracks(
			ports.NativeAudioTrack{ID: 0, Language: "en", Enabled: true},
			ports.NativeAudioTrack{ID: 1, Label: "Commentary", Language: "en"},
		),
	)
	c := startController(t, Options{Sink: sink})

	require.NoError(t, c.SubmitSource(ctx, clipURL))
	snap := waitState(t, c, model.StateReady)
	require.Len(t, snap.AudioTracks, 2)
	assert.Equal(t, "Commentary", snap.AudioTracks[1].Label)
	assert.Equal(t, 0, snap.SelectedAudioTrack)

	require.NoError(t, c.SelectAudioTrack(ctx, 1))
	assert.Equal(t, 1, c.Snapshot().SelectedAudioTrack)
	assert.True(t, sink.AudioTracks()[1].Enabled)

	require.NoError(t, c.SelectQuality(ctx, model.QualityAuto))
	assert.ErrorIs(t, c.SelectQuality(ctx, 0), ErrInvalidArgument)
}

func TestBufferingFollowsSinkEvents(t *testing.T) {
	ctx := context.Background()
	sink := stub.New(stub.WithAutoEvents(60))
	c := startController(t, Options{Sink: sink})

	require.NoError(t, c.SubmitSource(ctx, clipURL))
	waitState(t, c, model.StateReady)
	assert.False(t, c.Snapshot().Buffering)

	sink.Emit(ports.MediaEvent{Kind: ports.MediaWaiting})
	require.Eventually(t, func() bool { return c.Snapshot().Buffering }, 2*time.Second, 5*time.Millisecond)

	sink.Emit(ports.MediaEvent{Kind: ports.MediaPlaying})
	snap := waitState(t, c, model.StatePlaying)
	assert.False(t, snap.Buffering)
}

func TestPauseAndEnd(t *testing.T) {
	ctx := context.Background()
	sink := stub.New(stub.WithAutoEvents(60))
	c := startController(t, Options{Sink: sink})

	require.NoError(t, c.SubmitSource(ctx, clipURL))
	waitState(t, c, model.StateReady)
	require.NoError(t, c.TogglePlay(ctx))
	waitState(t, c, model.StatePlaying)
	require.NoError(t, c.TogglePlay(ctx))
	assert.Equal(t, model.StatePaused, c.Snapshot().State)

	sink.Emit(ports.MediaEvent{Kind: ports.MediaEnded})
	snap := waitState(t, c, model.StateEnded)
	assert.Equal(t, 60.0, snap.Position)
	assert.Equal(t, 1, sink.Loads())

	require.NoError(t, c.Play(ctx))
	assert.Equal(t, 2, sink.Loads(), "play after the end reloads the source")
	assert.Equal(t, 0.0, sink.CurrentTime())
	snap = waitState(t, c, model.StatePlaying)
	assert.Equal(t, 0.0, snap.Position)
	assert.Equal(t, clipURL, sink.Source())
}

func TestSinkMediaErrorIsFatal(t *testing.T) {
	ctx := context.Background()
	sink := stub.New()
	c := startController(t, Options{Sink: sink})

	require.NoError(t, c.SubmitSource(ctx, clipURL))
	sink.Emit(ports.MediaEvent{Kind: ports.MediaError, Message: "MEDIA_ERR_DECODE"})
	snap := waitState(t, c, model.StateErrored)
	require.NotNil(t, snap.LastError)
	assert.Equal(t, model.ErrMediaError, snap.LastError.Kind)
	assert.Equal(t, "MEDIA_ERR_DECODE", snap.LastError.Message)
}

func TestCloseReturnsToIdle(t *testing.T) {
	ctx := context.Background()
	factory := enginetest.NewFactory()
	sink := stub.New()
	c := startController(t, Options{Sink: sink, Engines: factory, InitialVolume: 0.5})

	require.NoError(t, c.SubmitSource(ctx, liveURL))
	require.NoError(t, c.SubmitSource(ctx, "   "))
	snap := c.Snapshot()
	assert.Equal(t, model.StateIdle, snap.State)
	assert.Empty(t, snap.SessionID)
	assert.Equal(t, 0.5, snap.Volume)
	assert.Equal(t, 1, factory.Last().DestroyCount())
	assert.Equal(t, 0, sink.Subscribers())
	assert.Empty(t, sink.Source())

	require.NoError(t, c.Close(ctx), "closing idle is a no-op")
}

func TestIntentErrorsLeaveStateUnchanged(t *testing.T) {
	ctx := context.Background()
	c := startController(t, Options{Sink: stub.New()})

	before := c.Snapshot()
	assert.ErrorIs(t, c.Play(ctx), ErrNoSession)
	assert.ErrorIs(t, c.Pause(ctx), ErrNoSession)
	assert.ErrorIs(t, c.Seek(ctx, 3), ErrNoSession)
	assert.ErrorIs(t, c.SetPlaybackRate(ctx, 2), ErrNoSession)
	assert.Equal(t, before, c.Snapshot())

	require.NoError(t, c.SubmitSource(ctx, clipURL))
	assert.ErrorIs(t, c.Play(ctx), ErrNotReady)
	assert.ErrorIs(t, c.SetPlaybackRate(ctx, 0), ErrInvalidArgument)
	assert.ErrorIs(t, c.SetPlaybackRate(ctx, math.Inf(1)), ErrInvalidArgument)
	require.NoError(t, c.SetPlaybackRate(ctx, 1.5))
	assert.Equal(t, 1.5, c.Snapshot().PlaybackRate)
}

func TestSinkMountRules(t *testing.T) {
	ctx := context.Background()
	first := stub.New()
	c := startController(t, Options{})

	require.NoError(t, c.SubmitSource(ctx, clipURL))
	snap := c.Snapshot()
	assert.Equal(t, model.StateErrored, snap.State)
	assert.NotEmpty(t, snap.SessionID)
	require.NotNil(t, snap.LastError)
	assert.Equal(t, model.ErrAttachFailed, snap.LastError.Kind)
	assert.ErrorIs(t, c.Play(ctx), ErrSessionErrored)

	require.NoError(t, c.MountSink(ctx, first))
	require.NoError(t, c.SubmitSource(ctx, clipURL))

	second := stub.New()
	require.NoError(t, c.MountSink(ctx, second))
	assert.Equal(t, model.StateIdle, c.Snapshot().State)
	assert.Equal(t, 0, first.Subscribers())

	require.NoError(t, c.UnmountSink(ctx))
	require.NoError(t, c.SubmitSource(ctx, clipURL))
	assert.Equal(t, model.StateErrored, c.Snapshot().State)
	assert.Equal(t, 0, second.Subscribers())
	assert.ErrorIs(t, c.MountSink(ctx, nil), ErrInvalidArgument)
}

func TestSnapshotsArePublishedInOrder(t *testing.T) {
	ctx := context.Background()
	bus := newRecordingBus()
	c := startController(t, Options{Sink: stub.New(stub.WithAutoEvents(10)), Bus: bus})

	require.NoError(t, c.SubmitSource(ctx, clipURL))
	waitState(t, c, model.StateReady)

	states := bus.states()
	require.GreaterOrEqual(t, len(states), 3)
	assert.Equal(t, model.StateIdle, states[0].State)
	for i := 1; i < len(states); i++ {
		assert.Greater(t, states[i].Seq, states[i-1].Seq)
	}
	assert.Equal(t, model.StateReady, states[len(states)-1].State)
}

func TestRunLifecycle(t *testing.T) {
	sink := stub.New()
	sink.SetPlayFunc(func(ctx context.Context) error {
		<-ctx.Done()
		return ctx.Err()
	})
	c := New(Options{Sink: sink, Profile: model.DefaultProfile()})
	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- c.Run(ctx) }()

	require.Eventually(t, func() bool { return c.running.Load() }, time.Second, time.Millisecond)
	assert.ErrorIs(t, c.Run(ctx), ErrAlreadyRunning)

	require.NoError(t, c.SubmitSource(context.Background(), clipURL))
	sink.Emit(ports.MediaEvent{Kind: ports.MediaLoadedMetadata, Duration: 10})
	waitState(t, c, model.StateReady)
	require.NoError(t, c.Play(context.Background()))

	cancel()
	select {
	case err := <-errCh:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("run did not return")
	}
	<-c.Done()
	assert.Equal(t, model.StateIdle, c.Snapshot().State)
	assert.Equal(t, 0, sink.Subscribers())
	assert.ErrorIs(t, c.Play(context.Background()), ErrStopped)
}
