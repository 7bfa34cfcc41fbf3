// SPDX-License-Identifier: MIT

package daemon

import (
	"context"
	"errors"
	"net"
	"sync"
	"testing"
	"time"

	"github.com/ManuGH/acmplay/internal/domain/player/model"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func reserveListenAddr(t *testing.T) string {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("failed to reserve listen addr: %v", err)
	}
	addr := ln.Addr().String()
	_ = ln.Close()
	return addr
}

func waitForListen(addr string, timeout time.Duration) error {
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		conn, err := net.DialTimeout("tcp", addr, 50*time.Millisecond)
		if err == nil {
			_ = conn.Close()
			return nil
		}
		time.Sleep(10 * time.Millisecond)
	}
	return errors.New("listen timeout")
}

// fakePlayer blocks in Run until canceled and records profiles.
type fakePlayer struct {
	mu       sync.Mutex
	profiles []model.Profile
	runErr   error
	stopped  chan struct{}
}

func newFakePlayer() *fakePlayer {
	return &fakePlayer{stopped: make(chan struct{})}
}

func (p *fakePlayer) Run(ctx context.Context) error {
	defer close(p.stopped)
	if p.runErr != nil {
		return p.runErr
	}
	<-ctx.Done()
	return nil
}

func (p *fakePlayer) SetProfile(_ context.Context, prof model.Profile) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.profiles = append(p.profiles, prof)
	return nil
}

func (p *fakePlayer) lastProfile() (model.Profile, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.profiles) == 0 {
		return model.Profile{}, false
	}
	return p.profiles[len(p.profiles)-1], true
}

// fakeAPI serves until canceled or fails immediately with err.
type fakeAPI struct {
	err error
}

func (a fakeAPI) ListenAndServe(ctx context.Context) error {
	if a.err != nil {
		return a.err
	}
	<-ctx.Done()
	return nil
}
