// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package bus

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/ManuGH/acmplay/internal/log"
	"github.com/ManuGH/acmplay/internal/metrics"
)

// MemoryBus is an in-memory pub/sub. Delivery is in-process and lasts only
// while the publish context remains active.
type MemoryBus struct {
	mu     sync.RWMutex
	subs   map[string][]*memSub
	buffer int
}

const (
	dropLogEvery      = 100
	defaultSubscriber = 64
)

var dropCount atomic.Uint64

// NewMemoryBus creates a bus whose subscribers buffer 64 messages.
func NewMemoryBus() *MemoryBus {
	return NewMemoryBusWithBuffer(defaultSubscriber)
}

// NewMemoryBusWithBuffer creates a bus with the given per-subscriber buffer.
func NewMemoryBusWithBuffer(n int) *MemoryBus {
	if n <= 0 {
		n = defaultSubscriber
	}
	return &MemoryBus{subs: make(map[string][]*memSub), buffer: n}
}

func publishDropReason(err error) string {
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return "timeout"
	case errors.Is(err, context.Canceled):
		return "canceled"
	default:
		return "context_done"
	}
}

// Publish delivers msg to every current subscriber of topic, blocking on a
// full subscriber until ctx ends.
func (b *MemoryBus) Publish(ctx context.Context, topic string, msg Message) error {
	if ctx == nil {
		return fmt.Errorf("publish context is nil")
	}
	b.mu.RLock()
	subs := append([]*memSub(nil), b.subs[topic]...)
	b.mu.RUnlock()
	for _, s := range subs {
		if err := s.deliver(ctx, msg); err != nil {
			if errors.Is(err, errSubscriberClosed) {
				continue
			}
			reason := publishDropReason(err)
			metrics.IncBusDropReason(topic, reason)
			count := dropCount.Add(1)
			if count%dropLogEvery == 1 {
				log.L().Warn().
					Str(log.FieldEvent, "bus.dropped").
					Str("topic", topic).
					Str("reason", reason).
					Uint64("dropped", count).
					Msg("memory bus failed to publish due to context cancellation")
			}
			return fmt.Errorf("publish topic %q: %w", topic, err)
		}
	}
	return nil
}

// Subscribe registers a new subscriber for topic. The subscription is closed
// when ctx ends or Close is called.
func (b *MemoryBus) Subscribe(ctx context.Context, topic string) (Subscriber, error) {
	if ctx == nil {
		return nil, fmt.Errorf("subscribe context is nil")
	}
	s := &memSub{b: b, topic: topic, ch: make(chan Message, b.buffer), done: make(chan struct{})}

	b.mu.Lock()
	b.subs[topic] = append(b.subs[topic], s)
	b.mu.Unlock()

	if ctx.Done() != nil {
		go func() {
			select {
			case <-ctx.Done():
				_ = s.Close()
			case <-s.done:
			}
		}()
	}
	return s, nil
}

var errSubscriberClosed = errors.New("subscriber closed")

type memSub struct {
	b     *MemoryBus
	topic string
	ch    chan Message

	mu       sync.RWMutex
	closed   bool
	done     chan struct{}
	doneOnce sync.Once
}

func (s *memSub) C() <-chan Message {
	return s.ch
}

// deliver holds the read lock so Close cannot close ch mid-send; Close
// unblocks a pending send through done first.
func (s *memSub) deliver(ctx context.Context, msg Message) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return errSubscriberClosed
	}
	select {
	case s.ch <- msg:
		return nil
	case <-s.done:
		return errSubscriberClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *memSub) Close() error {
	select {
	case <-s.done:
		return nil
	default:
	}

	s.b.mu.Lock()
	lst := s.b.subs[s.topic]
	out := lst[:0]
	for _, c := range lst {
		if c != s {
			out = append(out, c)
		}
	}
	if len(out) == 0 {
		delete(s.b.subs, s.topic)
	} else {
		s.b.subs[s.topic] = out
	}
	s.b.mu.Unlock()

	s.closeOnce()
	return nil
}

func (s *memSub) closeOnce() {
	// Wake any blocked deliver before taking the write lock.
	s.doneOnce.Do(func() { close(s.done) })
	s.mu.Lock()
	if !s.closed {
		s.closed = true
		close(s.ch)
	}
	s.mu.Unlock()
}

// Ensure compliance
var _ Bus = (*MemoryBus)(nil)
