package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

var keys = []string{
	"ULTRASOUND_SAMPLE_RATE", "ULTRASOUND_DEVICE_BUFFER", "ULTRASOUND_FFT_SIZE",
	"ULTRASOUND_SMOOTHING", "ULTRASOUND_RAMP", "ULTRASOUND_DEBOUNCE",
	"ULTRASOUND_PRESET", "ULTRASOUND_VOLUME", "ULTRASOUND_MUSIC_DIR",
	"ULTRASOUND_FPS", "ULTRASOUND_HEADLESS",
}

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range keys {
		t.Setenv(k, "")
	}
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)

	cfg := Load()

	assert.Equal(t, 48000, cfg.SampleRate)
	assert.Equal(t, 50*time.Millisecond, cfg.DeviceBuffer)
	assert.Equal(t, 2048, cfg.FFTSize)
	assert.Equal(t, 0.8, cfg.Smoothing)
	assert.Equal(t, 15*time.Millisecond, cfg.RampTimeConstant)
	assert.Equal(t, 8*time.Millisecond, cfg.Debounce)
	assert.Equal(t, "Crystal Engine", cfg.Preset)
	assert.Equal(t, 0.8, cfg.Volume)
	assert.Empty(t, cfg.MusicDir)
	assert.Equal(t, 60, cfg.FPS)
	assert.False(t, cfg.Headless)
}

func TestLoadFromEnv(t *testing.T) {
	clearEnv(t)
	t.Setenv("ULTRASOUND_SAMPLE_RATE", "44100")
	t.Setenv("ULTRASOUND_DEVICE_BUFFER", "100ms")
	t.Setenv("ULTRASOUND_FFT_SIZE", "4096")
	t.Setenv("ULTRASOUND_SMOOTHING", "0.5")
	t.Setenv("ULTRASOUND_RAMP", "30")
	t.Setenv("ULTRASOUND_DEBOUNCE", "20ms")
	t.Setenv("ULTRASOUND_PRESET", "Pure HD Engine")
	t.Setenv("ULTRASOUND_VOLUME", "0.25")
	t.Setenv("ULTRASOUND_MUSIC_DIR", "/srv/music")
	t.Setenv("ULTRASOUND_FPS", "30")
	t.Setenv("ULTRASOUND_HEADLESS", "true")

	cfg := Load()

	assert.Equal(t, 44100, cfg.SampleRate)
	assert.Equal(t, 100*time.Millisecond, cfg.DeviceBuffer)
	assert.Equal(t, 4096, cfg.FFTSize)
	assert.Equal(t, 0.5, cfg.Smoothing)
	assert.Equal(t, 30*time.Millisecond, cfg.RampTimeConstant)
	assert.Equal(t, 20*time.Millisecond, cfg.Debounce)
	assert.Equal(t, "Pure HD Engine", cfg.Preset)
	assert.Equal(t, 0.25, cfg.Volume)
	assert.Equal(t, "/srv/music", cfg.MusicDir)
	assert.Equal(t, 30, cfg.FPS)
	assert.True(t, cfg.Headless)

	e := cfg.Engine()
	assert.Equal(t, 44100, e.SampleRate)
	assert.Equal(t, 4096, e.FFTSize)
	assert.Equal(t, 30*time.Millisecond, e.RampTimeConstant)
}

func TestLoadInvalidFallsBack(t *testing.T) {
	clearEnv(t)
	t.Setenv("ULTRASOUND_SAMPLE_RATE", "fast")
	t.Setenv("ULTRASOUND_SMOOTHING", "high")
	t.Setenv("ULTRASOUND_DEBOUNCE", "soon")
	t.Setenv("ULTRASOUND_HEADLESS", "maybe")

	cfg := Load()

	assert.Equal(t, 48000, cfg.SampleRate)
	assert.Equal(t, 0.8, cfg.Smoothing)
	assert.Equal(t, 8*time.Millisecond, cfg.Debounce)
	assert.False(t, cfg.Headless)
}
