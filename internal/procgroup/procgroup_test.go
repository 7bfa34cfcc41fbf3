// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

//go:build unix

package procgroup

import (
	"errors"
	"os/exec"
	"syscall"
	"testing"
	"time"

	"github.com/ManuGH/acmplay/internal/metrics"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func start(t *testing.T, script string) (*exec.Cmd, <-chan error) {
	t.Helper()
	cmd := exec.Command("sh", "-c", script)
	Set(cmd)
	require.NoError(t, cmd.Start())

	pgid, err := syscall.Getpgid(cmd.Process.Pid)
	require.NoError(t, err)
	require.Equal(t, cmd.Process.Pid, pgid, "process should lead its group")

	waitCh := make(chan error, 1)
	go func() { waitCh <- cmd.Wait() }()
	// Let the shell spawn its children.
	time.Sleep(100 * time.Millisecond)
	return cmd, waitCh
}

func signaledWith(err error) syscall.Signal {
	var exitErr *exec.ExitError
	if !errors.As(err, &exitErr) {
		return 0
	}
	status, ok := exitErr.Sys().(syscall.WaitStatus)
	if !ok || !status.Signaled() {
		return 0
	}
	return status.Signal()
}

func assertGroupGone(t *testing.T, pgid int) {
	t.Helper()
	assert.Eventually(t, func() bool {
		return errors.Is(syscall.Kill(-pgid, syscall.Signal(0)), syscall.ESRCH)
	}, time.Second, 20*time.Millisecond, "process group %d still exists", pgid)
}

func TestTerminate_StopsGroupWithSIGTERM(t *testing.T) {
	cmd, waitCh := start(t, "sleep 10 & sleep 10")
	pgid := cmd.Process.Pid
	before := testutil.ToFloat64(metrics.ProcessSignalsTotal.WithLabelValues("SIGTERM", "sent"))

	err := Terminate(cmd, waitCh, 2*time.Second)
	require.Error(t, err)
	assert.Equal(t, syscall.SIGTERM, signaledWith(err))
	assertGroupGone(t, pgid)
	assert.Equal(t, before+1, testutil.ToFloat64(metrics.ProcessSignalsTotal.WithLabelValues("SIGTERM", "sent")))
}

func TestTerminate_EscalatesToSIGKILL(t *testing.T) {
	cmd, waitCh := start(t, `trap "" TERM; sleep 10 & sleep 10`)
	pgid := cmd.Process.Pid
	before := testutil.ToFloat64(metrics.ProcessExitsTotal.WithLabelValues("forced_error"))

	err := Terminate(cmd, waitCh, 100*time.Millisecond)
	require.Error(t, err)
	assert.Equal(t, syscall.SIGKILL, signaledWith(err))
	assertGroupGone(t, pgid)
	assert.Equal(t, before+1, testutil.ToFloat64(metrics.ProcessExitsTotal.WithLabelValues("forced_error")))
}

func TestTerminate_ExitedProcess(t *testing.T) {
	cmd, waitCh := start(t, "exit 0")
	// The process is already gone; Terminate still returns its Wait result.
	require.NoError(t, Terminate(cmd, waitCh, time.Second))
}

func TestNilCommand(t *testing.T) {
	assert.NoError(t, Terminate(nil, nil, time.Millisecond))
	assert.NoError(t, Kill(&exec.Cmd{}, syscall.SIGKILL))
}
