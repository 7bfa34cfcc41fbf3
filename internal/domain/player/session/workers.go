// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package session

import (
	"context"
	"fmt"
	"sync"

	"github.com/sourcegraph/conc"
	"github.com/sourcegraph/conc/panics"
)

// playWorkers runs sink.Play calls off the controller loop. Once drained no
// new worker starts.
type playWorkers struct {
	mu     sync.Mutex
	closed bool
	wg     conc.WaitGroup
}

func (p *playWorkers) spawn(fn func()) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return false
	}
	p.wg.Go(fn)
	return true
}

func (p *playWorkers) drain(ctx context.Context) error {
	p.mu.Lock()
	p.closed = true
	p.mu.Unlock()

	done := make(chan *panics.Recovered, 1)
	go func() { done <- p.wg.WaitAndRecover() }()

	select {
	case r := <-done:
		if r != nil {
			return fmt.Errorf("play worker panicked: %w", r.AsError())
		}
		return nil
	case <-ctx.Done():
		return fmt.Errorf("play workers did not drain: %w", ctx.Err())
	}
}

// playOnce calls play and converts a panic into an error.
func playOnce(play func() error) (err error) {
	var pc panics.Catcher
	pc.Try(func() { err = play() })
	if r := pc.Recovered(); r != nil {
		err = r.AsError()
	}
	return err
}
