// Package config loads runtime settings from ULTRASOUND_* environment
// variables. Command-line flags in cmd/ultrasound override the result.
package config

import (
	"os"
	"strconv"
	"time"

	"github.com/cwbudde/ultrasound/internal/audio"
	"github.com/cwbudde/ultrasound/internal/eq"
	"github.com/cwbudde/ultrasound/internal/frameloop"
	"github.com/cwbudde/ultrasound/internal/playback"
)

// Config holds all runtime configuration.
type Config struct {
	// Audio engine
	SampleRate       int
	DeviceBuffer     time.Duration
	FFTSize          int
	Smoothing        float64
	RampTimeConstant time.Duration

	// Controls
	Debounce time.Duration
	Preset   string
	Volume   float64

	// Library and display
	MusicDir string
	FPS      int
	Headless bool
}

// Load reads configuration from environment variables with defaults.
func Load() Config {
	def := audio.DefaultConfig()

	return Config{
		SampleRate:       envInt("ULTRASOUND_SAMPLE_RATE", def.SampleRate),
		DeviceBuffer:     envDuration("ULTRASOUND_DEVICE_BUFFER", def.DeviceBuffer),
		FFTSize:          envInt("ULTRASOUND_FFT_SIZE", def.FFTSize),
		Smoothing:        envFloat("ULTRASOUND_SMOOTHING", def.Smoothing),
		RampTimeConstant: envDuration("ULTRASOUND_RAMP", def.RampTimeConstant),

		Debounce: envDuration("ULTRASOUND_DEBOUNCE", eq.DefaultDebounce),
		Preset:   envStr("ULTRASOUND_PRESET", "Crystal Engine"),
		Volume:   envFloat("ULTRASOUND_VOLUME", playback.DefaultVolume),

		MusicDir: envStr("ULTRASOUND_MUSIC_DIR", ""),
		FPS:      envInt("ULTRASOUND_FPS", frameloop.DefaultFPS),
		Headless: envBool("ULTRASOUND_HEADLESS", false),
	}
}

// Engine returns the audio engine settings.
func (c Config) Engine() audio.Config {
	return audio.Config{
		SampleRate:       c.SampleRate,
		DeviceBuffer:     c.DeviceBuffer,
		FFTSize:          c.FFTSize,
		Smoothing:        c.Smoothing,
		RampTimeConstant: c.RampTimeConstant,
	}
}

func envStr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envFloat(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}

// envDuration accepts Go duration syntax ("15ms") or a bare number of
// milliseconds.
func envDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	if d, err := time.ParseDuration(v); err == nil {
		return d
	}
	if n, err := strconv.Atoi(v); err == nil {
		return time.Duration(n) * time.Millisecond
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}
