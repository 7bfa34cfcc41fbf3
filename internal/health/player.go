// SPDX-License-Identifier: MIT

package health

import (
	"context"

	"github.com/ManuGH/acmplay/internal/domain/player/model"
)

// PlayerSource is the part of the playback controller the checker reads.
type PlayerSource interface {
	Snapshot() model.Snapshot
	Done() <-chan struct{}
}

// PlayerChecker reports the playback loop. A stopped loop is unhealthy; an
// errored session only degrades, since a new source recovers it.
type PlayerChecker struct {
	player PlayerSource
}

// NewPlayerChecker creates a checker for the playback controller.
func NewPlayerChecker(player PlayerSource) *PlayerChecker {
	return &PlayerChecker{player: player}
}

func (c *PlayerChecker) Name() string {
	return "player"
}

func (c *PlayerChecker) Check(context.Context) CheckResult {
	select {
	case <-c.player.Done():
		return CheckResult{Status: StatusUnhealthy, Error: "playback loop stopped"}
	default:
	}

	snap := c.player.Snapshot()
	if snap.State == model.StateErrored {
		res := CheckResult{Status: StatusDegraded, Message: "session errored"}
		if snap.LastError != nil {
			res.Error = snap.LastError.Error()
		}
		return res
	}
	return CheckResult{Status: StatusHealthy, Message: string(snap.State)}
}

// FuncChecker adapts a function to Checker.
type FuncChecker struct {
	name string
	fn   func(ctx context.Context) CheckResult
}

// NewFuncChecker creates a named checker backed by fn.
func NewFuncChecker(name string, fn func(ctx context.Context) CheckResult) *FuncChecker {
	return &FuncChecker{name: name, fn: fn}
}

func (c *FuncChecker) Name() string { return c.name }

func (c *FuncChecker) Check(ctx context.Context) CheckResult { return c.fn(ctx) }
