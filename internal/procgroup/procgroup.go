// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

// Package procgroup starts helper processes in their own process group and
// stops the whole group on shutdown.
package procgroup

import (
	"os/exec"
	"syscall"
	"time"

	"github.com/ManuGH/acmplay/internal/metrics"
)

// Terminate stops the process group of cmd. It sends SIGTERM, waits up to
// grace for waitCh and escalates to SIGKILL. waitCh must deliver the result of
// cmd.Wait; Terminate always drains it and returns that result. Nil commands
// are a no-op.
func Terminate(cmd *exec.Cmd, waitCh <-chan error, grace time.Duration) error {
	if cmd == nil || cmd.Process == nil {
		return nil
	}

	signalGroup(cmd, syscall.SIGTERM)

	select {
	case err := <-waitCh:
		recordExit("exited", err)
		return err
	case <-time.After(grace):
	}

	signalGroup(cmd, syscall.SIGKILL)
	err := <-waitCh
	recordExit("forced", err)
	return err
}

func signalGroup(cmd *exec.Cmd, sig syscall.Signal) {
	name := "SIGTERM"
	if sig == syscall.SIGKILL {
		name = "SIGKILL"
	}
	if err := Kill(cmd, sig); err != nil {
		metrics.IncProcessSignal(name, "error")
		return
	}
	metrics.IncProcessSignal(name, "sent")
}

func recordExit(how string, err error) {
	if err == nil {
		metrics.IncProcessExit(how + "_clean")
		return
	}
	metrics.IncProcessExit(how + "_error")
}
