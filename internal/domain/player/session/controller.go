// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

// Package session implements the playback session controller: one event
// loop that owns the current source, its attachment strategy and the
// aggregated player state.
package session

import (
	"context"
	"errors"
	"reflect"
	"sync/atomic"
	"time"

	"github.com/ManuGH/acmplay/internal/domain/player/adapter"
	"github.com/ManuGH/acmplay/internal/domain/player/lifecycle"
	"github.com/ManuGH/acmplay/internal/domain/player/model"
	"github.com/ManuGH/acmplay/internal/domain/player/ports"
	"github.com/ManuGH/acmplay/internal/log"
	"github.com/ManuGH/acmplay/internal/metrics"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/trace"
)

const (
	defaultPublishTimeout = 250 * time.Millisecond
	defaultPlayTimeout    = 10 * time.Second
	defaultDrainTimeout   = 2 * time.Second
)

// Options configures a Controller.
type Options struct {
	// Sink is the initially mounted sink. It may be nil and mounted later.
	Sink ports.Sink
	// Engines builds adaptive engines. Nil means no engine is available.
	Engines ports.EngineFactory
	// Bus receives snapshots and gesture requests. Optional.
	Bus ports.Publisher

	Profile model.Profile
	// InitialVolume in [0,1]. Zero means full volume; use StartMuted for silence.
	InitialVolume float64
	StartMuted    bool

	PublishTimeout time.Duration
	PlayTimeout    time.Duration
	DrainTimeout   time.Duration
}

type intent struct {
	name  string
	fn    func() error
	reply chan error
}

type sinkEvent struct {
	gen uint64
	ev  ports.MediaEvent
}

type playResult struct {
	gen uint64
	id  uint64
	err error
}

// Controller serializes every intent and media event through one loop.
// Public methods are safe for concurrent use once Run has started.
type Controller struct {
	engines ports.EngineFactory
	adapter *adapter.Adapter
	bus     ports.Publisher
	opts    Options

	mbox    *mailbox
	workers playWorkers
	latest  atomic.Pointer[model.Snapshot]
	running atomic.Bool
	done    chan struct{}
	logger  zerolog.Logger

	// Owned by the loop goroutine.
	cur            model.Snapshot
	published      model.Snapshot
	sink           ports.Sink
	profile        model.Profile
	sessionProfile model.Profile
	handle         *adapter.Handle
	sinkUnsub      func()
	gen            uint64
	playID         uint64
	pendingPlay    uint64
	lastVolume     float64
	workCtx        context.Context
	span           trace.Span
	sessLog        zerolog.Logger
}

// New builds a controller in the idle state. Call Run to start it.
func New(opts Options) *Controller {
	if opts.PublishTimeout <= 0 {
		opts.PublishTimeout = defaultPublishTimeout
	}
	if opts.PlayTimeout <= 0 {
		opts.PlayTimeout = defaultPlayTimeout
	}
	if opts.DrainTimeout <= 0 {
		opts.DrainTimeout = defaultDrainTimeout
	}
	volume := clamp01(opts.InitialVolume)
	if opts.InitialVolume == 0 {
		volume = 1
	}

	c := &Controller{
		engines:    opts.Engines,
		adapter:    adapter.New(opts.Engines),
		bus:        opts.Bus,
		opts:       opts,
		mbox:       newMailbox(),
		done:       make(chan struct{}),
		logger:     log.WithComponent("player"),
		sink:       opts.Sink,
		profile:    opts.Profile,
		lastVolume: volume,
		workCtx:    context.Background(),
	}
	c.sessLog = c.logger
	c.cur = model.IdleSnapshot(volume, opts.StartMuted)
	c.published = c.cur.Clone()
	initial := c.cur.Clone()
	c.latest.Store(&initial)
	return c
}

// Run processes the mailbox until ctx ends. On return the active session is
// torn down and play workers are drained.
func (c *Controller) Run(ctx context.Context) error {
	if !c.running.CompareAndSwap(false, true) {
		return ErrAlreadyRunning
	}
	workCtx, cancelWork := context.WithCancel(ctx)
	c.workCtx = workCtx
	defer close(c.done)

	c.logger.Info().Str(log.FieldEvent, "player.started").Msg("playback controller started")
	c.publishState(c.latest.Load().Clone())

	for {
		select {
		case <-ctx.Done():
			c.shutdown(cancelWork)
			return nil
		case <-c.mbox.signal:
			c.drain(ctx)
		}
	}
}

// Done is closed when Run has returned.
func (c *Controller) Done() <-chan struct{} {
	return c.done
}

// Snapshot returns the last published state without touching the loop.
func (c *Controller) Snapshot() model.Snapshot {
	return c.latest.Load().Clone()
}

func (c *Controller) drain(ctx context.Context) {
	for ctx.Err() == nil {
		item, ok := c.mbox.pop()
		if !ok {
			return
		}
		c.process(item)
		c.publishIfChanged()
	}
}

func (c *Controller) process(item any) {
	switch it := item.(type) {
	case intent:
		// Publish before replying so callers read their own writes.
		err := it.fn()
		c.publishIfChanged()
		it.reply <- err
	case sinkEvent:
		if it.gen != c.gen || c.sinkUnsub == nil {
			return
		}
		c.onSinkEvent(it.ev)
	case adapter.Event:
		if c.handle == nil || it.HandleID != c.handle.ID() {
			return
		}
		c.onAdapterEvent(it)
	case playResult:
		c.onPlayResult(it)
	}
}

func (c *Controller) shutdown(cancelWork context.CancelFunc) {
	_ = c.closeSession("shutdown")
	c.publishIfChanged()
	cancelWork()

	ctx, cancel := context.WithTimeout(context.Background(), c.opts.DrainTimeout)
	defer cancel()
	if err := c.workers.drain(ctx); err != nil {
		c.logger.Warn().Err(err).Str(log.FieldEvent, "player.drain_timeout").Msg("play workers did not drain")
	}
	for {
		item, ok := c.mbox.pop()
		if !ok {
			break
		}
		if in, ok := item.(intent); ok {
			in.reply <- ErrStopped
		}
	}
	c.logger.Info().Str(log.FieldEvent, "player.stopped").Msg("playback controller stopped")
}

// do enqueues fn and waits for the loop to run it.
func (c *Controller) do(ctx context.Context, name string, fn func() error) error {
	select {
	case <-c.done:
		return ErrStopped
	default:
	}
	in := intent{name: name, fn: fn, reply: make(chan error, 1)}
	c.mbox.push(in)
	select {
	case err := <-in.reply:
		return err
	case <-ctx.Done():
		return ctx.Err()
	case <-c.done:
		select {
		case err := <-in.reply:
			return err
		default:
			return ErrStopped
		}
	}
}

// apply runs a lifecycle event against the current state.
func (c *Controller) apply(ev lifecycle.EventKind) bool {
	prev := c.cur.State
	tr, err := lifecycle.Dispatch(prev, ev)
	if err != nil {
		if !errors.Is(err, lifecycle.ErrAlreadyInState) {
			c.sessLog.Debug().
				Str(log.FieldEvent, "session.transition_ignored").
				Str(log.FieldOldState, string(prev)).
				Str("trigger", ev.String()).
				Str("reason", lifecycle.ForbiddenTransitionReason(prev, ev)).
				Msg("forbidden transition ignored")
		}
		return false
	}
	c.cur.State = tr.To
	c.recordTransition(prev, tr.To, ev)
	return true
}

func (c *Controller) recordTransition(from, to model.PlaybackState, ev lifecycle.EventKind) {
	metrics.IncStateTransition(string(from), string(to))
	c.sessLog.Info().
		Str(log.FieldEvent, "session.state_changed").
		Str(log.FieldOldState, string(from)).
		Str(log.FieldNewState, string(to)).
		Str("trigger", ev.String()).
		Msg("playback state changed")
}

func (c *Controller) publishIfChanged() {
	c.cur.Seq = c.published.Seq
	if reflect.DeepEqual(c.cur, c.published) {
		return
	}
	c.cur.Seq++
	c.published = c.cur.Clone()
	snap := c.cur.Clone()
	c.latest.Store(&snap)
	c.publishState(snap.Clone())
}

func (c *Controller) publishState(snap model.Snapshot) {
	if c.bus == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), c.opts.PublishTimeout)
	defer cancel()
	if err := c.bus.Publish(ctx, ports.TopicState, snap); err != nil {
		c.logger.Debug().Err(err).Str(log.FieldEvent, "player.publish_failed").Uint64("seq", snap.Seq).Msg("snapshot not delivered")
	}
}

func (c *Controller) requestGesture(reason string) {
	c.cur.GestureRequired = true
	if c.bus == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), c.opts.PublishTimeout)
	defer cancel()
	req := model.GestureRequest{SessionID: c.cur.SessionID, Reason: reason}
	if err := c.bus.Publish(ctx, ports.TopicGesture, req); err != nil {
		c.logger.Debug().Err(err).Str(log.FieldEvent, "player.publish_failed").Str("topic", ports.TopicGesture).Msg("gesture request not delivered")
	}
}

func clamp01(v float64) float64 {
	switch {
	case v < 0:
		return 0
	case v > 1:
		return 1
	default:
		return v
	}
}
