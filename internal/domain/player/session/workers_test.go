// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package session

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"
)

func TestPlayWorkers_DrainWaitsForRunning(t *testing.T) {
	var p playWorkers
	release := make(chan struct{})
	finished := make(chan struct{})
	if !p.spawn(func() {
		<-release
		close(finished)
	}) {
		t.Fatal("expected worker to start")
	}
	close(release)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := p.drain(ctx); err != nil {
		t.Fatalf("drain: %v", err)
	}
	select {
	case <-finished:
	default:
		t.Fatal("drain returned before the worker finished")
	}
}

func TestPlayWorkers_DrainTimeout(t *testing.T) {
	var p playWorkers
	block := make(chan struct{})
	p.spawn(func() { <-block })

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	err := p.drain(ctx)
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline error, got %v", err)
	}
	close(block)
	time.Sleep(10 * time.Millisecond)
}

func TestPlayWorkers_SpawnAfterDrainRefused(t *testing.T) {
	var p playWorkers
	if err := p.drain(context.Background()); err != nil {
		t.Fatalf("drain empty: %v", err)
	}
	if p.spawn(func() {}) {
		t.Fatal("expected spawn to be refused after drain")
	}
}

func TestPlayOnce_ConvertsPanic(t *testing.T) {
	sentinel := errors.New("rejected")
	if err := playOnce(func() error { return sentinel }); !errors.Is(err, sentinel) {
		t.Fatalf("expected sentinel, got %v", err)
	}
	err := playOnce(func() error { panic("decoder exploded") })
	if err == nil || !strings.Contains(err.Error(), "decoder exploded") {
		t.Fatalf("expected panic converted to error, got %v", err)
	}
}
