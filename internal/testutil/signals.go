package testutil

import (
	"math"
	"math/rand"

	"github.com/gopxl/beep/v2"
)

// DeterministicSine generates a deterministic sine wave.
func DeterministicSine(freqHz, sampleRate, amplitude float64, length int) []float64 {
	out := make([]float64, length)
	step := 2 * math.Pi * freqHz / sampleRate
	for i := range out {
		out[i] = amplitude * math.Sin(step*float64(i))
	}
	return out
}

// DeterministicNoise generates white noise with a fixed seed for reproducibility.
func DeterministicNoise(seed int64, amplitude float64, length int) []float64 {
	out := make([]float64, length)
	rng := rand.New(rand.NewSource(seed))
	for i := range out {
		out[i] = (rng.Float64()*2 - 1) * amplitude
	}
	return out
}

// Stereo duplicates a mono signal into frames.
func Stereo(mono []float64) [][2]float64 {
	out := make([][2]float64, len(mono))
	for i, v := range mono {
		out[i] = [2]float64{v, v}
	}
	return out
}

// Mono extracts one channel from frames.
func Mono(frames [][2]float64, ch int) []float64 {
	out := make([]float64, len(frames))
	for i, f := range frames {
		out[i] = f[ch]
	}
	return out
}

// RMS returns the root mean square of x.
func RMS(x []float64) float64 {
	if len(x) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range x {
		sum += v * v
	}
	return math.Sqrt(sum / float64(len(x)))
}

// Frames is a finite in-memory streamer.
type Frames struct {
	data [][2]float64
	pos  int
}

// NewFrames returns a streamer that plays data once.
func NewFrames(data [][2]float64) *Frames {
	return &Frames{data: data}
}

// SineStreamer returns a finite stereo sine streamer.
func SineStreamer(freqHz, sampleRate, amplitude float64, length int) *Frames {
	return NewFrames(Stereo(DeterministicSine(freqHz, sampleRate, amplitude, length)))
}

func (f *Frames) Stream(samples [][2]float64) (int, bool) {
	if f.pos >= len(f.data) {
		return 0, false
	}
	n := copy(samples, f.data[f.pos:])
	f.pos += n
	return n, true
}

func (f *Frames) Err() error { return nil }

func (f *Frames) Len() int { return len(f.data) }

func (f *Frames) Position() int { return f.pos }

func (f *Frames) Seek(p int) error {
	f.pos = max(0, min(p, len(f.data)))
	return nil
}

// Endless returns a streamer producing a constant frame forever.
func Endless(v float64) beep.Streamer {
	return &constant{v: v}
}

type constant struct{ v float64 }

func (c *constant) Stream(samples [][2]float64) (int, bool) {
	for i := range samples {
		samples[i] = [2]float64{c.v, c.v}
	}
	return len(samples), true
}

func (c *constant) Err() error { return nil }
