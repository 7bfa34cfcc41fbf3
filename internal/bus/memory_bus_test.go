// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package bus

import (
	"context"
	"testing"
	"time"

	"github.com/ManuGH/acmplay/internal/metrics"
	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func getCounterValue(t *testing.T, counter prometheus.Counter) float64 {
	t.Helper()
	metric := &dto.Metric{}
	require.NoError(t, counter.Write(metric))
	return metric.GetCounter().GetValue()
}

func TestMemoryBusPublishContextTimeoutIncrementsDropMetrics(t *testing.T) {
	b := NewMemoryBusWithBuffer(2)
	sub, err := b.Subscribe(context.Background(), "topic")
	require.NoError(t, err)
	t.Cleanup(func() { _ = sub.Close() })

	// Fill subscriber channel to capacity so next publish blocks.
	for i := 0; i < cap(sub.C()); i++ {
		require.NoError(t, b.Publish(context.Background(), "topic", "msg"))
	}

	before := getCounterValue(t, metrics.BusDroppedTotal.WithLabelValues("topic", "timeout"))

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	err = b.Publish(ctx, "topic", "blocked")
	require.Error(t, err)
	require.ErrorIs(t, err, context.DeadlineExceeded)

	require.Greater(t, getCounterValue(t, metrics.BusDroppedTotal.WithLabelValues("topic", "timeout")), before)
}

func TestMemoryBusPublishRejectsNilContext(t *testing.T) {
	b := NewMemoryBus()
	//nolint:staticcheck // nil context is the case under test
	err := b.Publish(nil, "topic", "msg")
	require.Error(t, err)
	require.Contains(t, err.Error(), "context is nil")
}

func TestMemoryBusDeliversInOrder(t *testing.T) {
	b := NewMemoryBus()
	sub, err := b.Subscribe(context.Background(), "player.state")
	require.NoError(t, err)
	defer func() { _ = sub.Close() }()

	for i := 0; i < 3; i++ {
		require.NoError(t, b.Publish(context.Background(), "player.state", i))
	}
	for i := 0; i < 3; i++ {
		assert.Equal(t, i, <-sub.C())
	}
}

func TestMemoryBusSubscriptionEndsWithContext(t *testing.T) {
	b := NewMemoryBus()
	ctx, cancel := context.WithCancel(context.Background())
	sub, err := b.Subscribe(ctx, "topic")
	require.NoError(t, err)

	cancel()
	select {
	case _, ok := <-sub.C():
		assert.False(t, ok, "channel should be closed")
	case <-time.After(time.Second):
		t.Fatal("subscription not closed after context cancel")
	}

	// Publishing to a closed subscriber is not an error.
	require.NoError(t, b.Publish(context.Background(), "topic", "late"))
	require.NoError(t, sub.Close())
}

func TestMemoryBusCloseUnblocksPublisher(t *testing.T) {
	b := NewMemoryBusWithBuffer(1)
	sub, err := b.Subscribe(context.Background(), "topic")
	require.NoError(t, err)
	require.NoError(t, b.Publish(context.Background(), "topic", 1))

	errCh := make(chan error, 1)
	go func() { errCh <- b.Publish(context.Background(), "topic", 2) }()

	time.Sleep(10 * time.Millisecond)
	require.NoError(t, sub.Close())

	select {
	case err := <-errCh:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("publisher still blocked after close")
	}
}
