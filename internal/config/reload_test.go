// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/ManuGH/acmplay/internal/metrics"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfigHolder_ReloadNotifiesListeners(t *testing.T) {
	fsys := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fsys, testPath, []byte("logLevel: info\n"), 0o600))
	loader := NewLoaderFs(fsys, testPath)
	initial, err := loader.Load()
	require.NoError(t, err)

	h := NewConfigHolder(initial, loader)
	ch := make(chan Config, 1)
	h.RegisterListener(ch)

	before := testutil.ToFloat64(metrics.ConfigReloadsTotal.WithLabelValues("success"))

	require.NoError(t, afero.WriteFile(fsys, testPath, []byte("logLevel: debug\nengine:\n  autoplayOnManifest: true\n"), 0o600))
	require.NoError(t, h.Reload(context.Background()))

	assert.Equal(t, "debug", h.Get().LogLevel)
	select {
	case got := <-ch:
		assert.True(t, got.Profile().AutoplayOnManifest)
	default:
		t.Fatal("listener was not notified")
	}
	assert.Equal(t, before+1, testutil.ToFloat64(metrics.ConfigReloadsTotal.WithLabelValues("success")))
}

func TestConfigHolder_InvalidReloadKeepsCurrent(t *testing.T) {
	fsys := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fsys, testPath, []byte("logLevel: warn\n"), 0o600))
	loader := NewLoaderFs(fsys, testPath)
	initial, err := loader.Load()
	require.NoError(t, err)

	h := NewConfigHolder(initial, loader)
	ch := make(chan Config, 1)
	h.RegisterListener(ch)
	before := testutil.ToFloat64(metrics.ConfigReloadsTotal.WithLabelValues("failure"))

	require.NoError(t, afero.WriteFile(fsys, testPath, []byte("logLevel: loud\n"), 0o600))
	require.Error(t, h.Reload(context.Background()))

	assert.Equal(t, "warn", h.Get().LogLevel)
	assert.Empty(t, ch)
	assert.Equal(t, before+1, testutil.ToFloat64(metrics.ConfigReloadsTotal.WithLabelValues("failure")))
}

func TestConfigHolder_FullListenerIsSkipped(t *testing.T) {
	loader := NewLoaderFs(afero.NewMemMapFs(), "")
	h := NewConfigHolder(Default(), loader)
	ch := make(chan Config) // unbuffered, nobody reading
	h.RegisterListener(ch)

	done := make(chan error, 1)
	go func() { done <- h.Reload(context.Background()) }()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("Reload blocked on a listener")
	}
}

func TestConfigHolder_WatcherReloadsOnAtomicReplace(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")

	cfg := Default()
	cfg.Sink.Kind = SinkNull
	require.NoError(t, WriteFile(path, cfg))

	loader := NewLoader(path)
	initial, err := loader.Load()
	require.NoError(t, err)

	h := NewConfigHolder(initial, loader)
	h.debounce = 20 * time.Millisecond
	ch := make(chan Config, 4)
	h.RegisterListener(ch)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, h.StartWatcher(ctx))

	// Unrelated files in the directory are ignored.
	require.NoError(t, os.WriteFile(filepath.Join(dir, "other.yaml"), []byte("x: 1\n"), 0o600))

	cfg.Engine.AutoplayOnManifest = true
	require.NoError(t, WriteFile(path, cfg))

	select {
	case got := <-ch:
		assert.True(t, got.Engine.AutoplayOnManifest)
	case <-time.After(5 * time.Second):
		t.Fatal("watcher did not reload the config")
	}
	assert.True(t, h.Get().Engine.AutoplayOnManifest)

	cancel()
	// Give the watch loop a moment to close the watcher before goleak runs.
	time.Sleep(50 * time.Millisecond)
}

func TestConfigHolder_WatcherDisabledWithoutPath(t *testing.T) {
	h := NewConfigHolder(Default(), NewLoaderFs(afero.NewMemMapFs(), ""))
	require.NoError(t, h.StartWatcher(context.Background()))
}
