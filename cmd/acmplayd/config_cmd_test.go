// SPDX-License-Identifier: MIT

package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/ManuGH/acmplay/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func runCLI(args ...string) (int, string, string) {
	var stdout, stderr bytes.Buffer
	code := runConfigCLI(args, &stdout, &stderr)
	return code, stdout.String(), stderr.String()
}

func TestConfigInitThenValidate(t *testing.T) {
	t.Setenv(envConfigPath, "")
	path := filepath.Join(t.TempDir(), "conf", "acmplay.yaml")

	code, out, errOut := runCLI("init", path)
	require.Equal(t, 0, code, errOut)
	assert.Contains(t, out, path)

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	code, out, errOut = runCLI("validate", path)
	require.Equal(t, 0, code, errOut)
	assert.Contains(t, out, "is valid")
}

func TestConfigInitRefusesOverwrite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "acmplay.yaml")
	require.NoError(t, os.WriteFile(path, []byte("logLevel: debug\n"), 0o600))

	code, _, errOut := runCLI("init", path)
	assert.Equal(t, 1, code)
	assert.Contains(t, errOut, "already exists")

	code, _, _ = runCLI("init", "--force", path)
	assert.Equal(t, 0, code)
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "logLevel: info")
}

func TestConfigValidateReportsErrors(t *testing.T) {
	path := filepath.Join(t.TempDir(), "acmplay.yaml")
	require.NoError(t, os.WriteFile(path, []byte("playback:\n  initialVolume: 3\n"), 0o600))

	code, _, errOut := runCLI("validate", path)
	assert.Equal(t, 1, code)
	assert.Contains(t, errOut, "initialVolume")

	require.NoError(t, os.WriteFile(path, []byte("bogus: true\n"), 0o600))
	code, _, errOut = runCLI("validate", path)
	assert.Equal(t, 1, code)
	assert.Contains(t, errOut, "bogus")
}

func TestConfigValidateRequiresPath(t *testing.T) {
	t.Setenv(envConfigPath, "")
	code, _, errOut := runCLI("validate")
	assert.Equal(t, 2, code)
	assert.Contains(t, errOut, envConfigPath)
}

func TestConfigDumpJSONAppliesEnv(t *testing.T) {
	t.Setenv(config.EnvPrefix+"API_RATE_LIMIT", "42")
	path := filepath.Join(t.TempDir(), "acmplay.yaml")
	require.NoError(t, os.WriteFile(path, []byte("sink:\n  kind: \"null\"\n"), 0o600))

	code, out, errOut := runCLI("dump", "--format=json", path)
	require.Equal(t, 0, code, errOut)

	var cfg config.Config
	require.NoError(t, json.Unmarshal([]byte(out), &cfg))
	assert.Equal(t, 42, cfg.API.RateLimit)
	assert.Equal(t, config.SinkNull, cfg.Sink.Kind)
}

func TestConfigUnknownSubcommand(t *testing.T) {
	code, _, errOut := runCLI("explode")
	assert.Equal(t, 2, code)
	assert.Contains(t, errOut, "Usage:")
}
