package config

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestLoadDefaultsWithoutFile(t *testing.T) {
	chdir(t, t.TempDir())

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, 3, cfg.Capture.ErrorThreshold)
	assert.Equal(t, time.Second, cfg.Capture.BackoffFloor)
	assert.Equal(t, 0.05, cfg.Transition.Speed)
	assert.Equal(t, 150*time.Millisecond, cfg.Transition.FrameInterval)
	assert.Equal(t, 15, cfg.Transition.BurstSize)
	assert.Equal(t, 0.95, cfg.Transition.Decay)
	assert.Equal(t, 2*time.Second, cfg.Transition.BlinkMin)
	assert.Equal(t, 7*time.Second, cfg.Transition.BlinkMax)
	assert.Equal(t, 9, cfg.Transition.Sequences["anger"])
	assert.Equal(t, "en-US", cfg.Capture.Language)
}

func TestLoadFileAndEnvOverride(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "eye.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
services:
  classifier:
    url: http://classifier:9000
capture:
  backend: none
  error_threshold: 5
transition:
  speed: 0.1
`), 0o644))
	t.Setenv("EYE_CAPTURE_ERROR_THRESHOLD", "7")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "http://classifier:9000", cfg.Services.Classifier.URL)
	assert.Equal(t, "none", cfg.Capture.Backend)
	assert.Equal(t, 7, cfg.Capture.ErrorThreshold)
	assert.Equal(t, 0.1, cfg.Transition.Speed)
	assert.Equal(t, 30*time.Second, cfg.Services.Classifier.Timeout)
}

func TestLoadPicksEnvGuess(t *testing.T) {
	dir := t.TempDir()
	chdir(t, dir)
	t.Setenv("CONFIG_ENV", "test")
	require.NoError(t, os.MkdirAll(filepath.Join("config", "test"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join("config", "test", "config.yaml"),
		[]byte("render:\n  fps: 24\n"), 0o644))

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, 24, cfg.Render.FPS)
}

func TestLoadMissingExplicitFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
}

func TestValidate(t *testing.T) {
	c := Default()
	require.NoError(t, c.Validate())

	c.Capture.BackoffFloor = 0
	assert.Error(t, c.Validate())

	c = Default()
	c.Transition.Decay = 1
	assert.Error(t, c.Validate())

	c = Default()
	c.Transition.BlinkMax = c.Transition.BlinkMin
	assert.Error(t, c.Validate())
}

func TestWriteRoundTripsThroughYAML(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Default().Write(&buf))
	assert.Contains(t, buf.String(), "backoff_floor: 1s")

	var back Root
	require.NoError(t, yaml.Unmarshal(buf.Bytes(), &back))
	assert.Equal(t, Default().Transition, back.Transition)
}

// chdir mirrors testing.T.Chdir (Go 1.24+) for older toolchains.
func chdir(t *testing.T, dir string) {
	t.Helper()
	old, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(old) })
}
