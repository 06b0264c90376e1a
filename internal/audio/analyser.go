package audio

import (
	"fmt"
	"math"
	"sync"

	algofft "github.com/MeKo-Christian/algo-fft"
	"github.com/cwbudde/algo-vecmath"
	"gonum.org/v1/gonum/dsp/window"
)

// Analyser defaults match the browser AnalyserNode.
const (
	DefaultFFTSize   = 2048
	DefaultSmoothing = 0.8
	DefaultMinDB     = -100.0
	DefaultMaxDB     = -30.0
)

// silenceThreshold is the peak level below which a block counts as silent.
const silenceThreshold = 1e-6

// Analyser is a passive tap after the gain stage. The render path pushes a
// mono mix into a ring buffer; readers pull frequency data on their own
// cadence. Each frequency read runs one FFT over the newest FFT-size samples
// and folds the result into the smoothed spectrum.
type Analyser struct {
	mu sync.Mutex

	size      int
	smoothing float64
	minDB     float64
	maxDB     float64

	ring   []float64
	write  int
	active bool

	window   []float64
	frame    []float64
	plan     *algofft.Plan[complex128]
	input    []complex128
	output   []complex128
	re, im   []float64
	mag      []float64
	smoothed []float64
}

// NewAnalyser creates an analyser with the given FFT size (a power of two
// in [256, 8192]) and smoothing time constant in [0, 1).
func NewAnalyser(size int, smoothing float64) (*Analyser, error) {
	if !validFFTSize(size) {
		return nil, fmt.Errorf("analyser: invalid fft size %d", size)
	}
	if smoothing < 0 || smoothing >= 1 || math.IsNaN(smoothing) {
		return nil, fmt.Errorf("analyser: smoothing must be in [0, 1): %v", smoothing)
	}

	plan, err := algofft.NewPlan64(size)
	if err != nil {
		return nil, fmt.Errorf("analyser: init fft plan: %w", err)
	}

	win := make([]float64, size)
	for i := range win {
		win[i] = 1
	}
	window.Blackman(win)

	bins := size / 2

	return &Analyser{
		size:      size,
		smoothing: smoothing,
		minDB:     DefaultMinDB,
		maxDB:     DefaultMaxDB,
		ring:      make([]float64, size),
		window:    win,
		frame:     make([]float64, size),
		plan:      plan,
		input:     make([]complex128, size),
		output:    make([]complex128, size),
		re:        make([]float64, bins),
		im:        make([]float64, bins),
		mag:       make([]float64, bins),
		smoothed:  make([]float64, bins),
	}, nil
}

func validFFTSize(n int) bool {
	switch n {
	case 256, 512, 1024, 2048, 4096, 8192:
		return true
	default:
		return false
	}
}

// FFTSize returns the analysis window length.
func (a *Analyser) FFTSize() int { return a.size }

// FrequencyBinCount returns the number of frequency bins (FFTSize/2).
func (a *Analyser) FrequencyBinCount() int { return a.size / 2 }

// SetDecibelRange sets the range mapped onto byte and normalized output.
func (a *Analyser) SetDecibelRange(minDB, maxDB float64) error {
	if !(minDB < maxDB) {
		return fmt.Errorf("analyser: min %v dB must be below max %v dB", minDB, maxDB)
	}

	a.mu.Lock()
	a.minDB, a.maxDB = minDB, maxDB
	a.mu.Unlock()

	return nil
}

// Active reports whether the last pushed block carried signal.
func (a *Analyser) Active() bool {
	a.mu.Lock()
	defer a.mu.Unlock()

	return a.active
}

// push appends the mono mix of one rendered block.
func (a *Analyser) push(left, right []float64) {
	a.mu.Lock()
	defer a.mu.Unlock()

	peak := 0.0
	for i := range left {
		x := 0.5 * (left[i] + right[i])
		a.ring[a.write] = x
		a.write++
		if a.write == a.size {
			a.write = 0
		}
		if ax := math.Abs(x); ax > peak {
			peak = ax
		}
	}
	a.active = peak > silenceThreshold
}

// FloatFrequencyData writes the smoothed spectrum in dB into dst and returns
// the number of bins written.
func (a *Analyser) FloatFrequencyData(dst []float64) int {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.analyse()
	n := min(len(dst), len(a.smoothed))
	for k := 0; k < n; k++ {
		dst[k] = toDB(a.smoothed[k])
	}

	return n
}

// ByteFrequencyData writes the smoothed spectrum scaled into 0..255 over the
// decibel range and returns the number of bins written.
func (a *Analyser) ByteFrequencyData(dst []byte) int {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.analyse()
	n := min(len(dst), len(a.smoothed))
	for k := 0; k < n; k++ {
		v := 255 * a.scale(toDB(a.smoothed[k]))
		dst[k] = byte(math.Floor(v))
	}

	return n
}

// NormalizedFrequencyData writes the smoothed spectrum scaled into 0..1 over
// the decibel range and returns the number of bins written.
func (a *Analyser) NormalizedFrequencyData(dst []float64) int {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.analyse()
	n := min(len(dst), len(a.smoothed))
	for k := 0; k < n; k++ {
		dst[k] = a.scale(toDB(a.smoothed[k]))
	}

	return n
}

// TimeDomainData copies the newest samples, oldest first, into dst.
func (a *Analyser) TimeDomainData(dst []float64) int {
	a.mu.Lock()
	defer a.mu.Unlock()

	n := min(len(dst), a.size)
	start := a.write - n
	if start < 0 {
		start += a.size
	}
	for i := 0; i < n; i++ {
		dst[i] = a.ring[(start+i)%a.size]
	}

	return n
}

// Reset clears the sample history and the smoothed spectrum.
func (a *Analyser) Reset() {
	a.mu.Lock()
	defer a.mu.Unlock()

	clear(a.ring)
	clear(a.smoothed)
	a.write = 0
	a.active = false
}

func (a *Analyser) scale(db float64) float64 {
	v := (db - a.minDB) / (a.maxDB - a.minDB)

	return math.Max(0, math.Min(1, v))
}

func (a *Analyser) analyse() {
	for i := 0; i < a.size; i++ {
		a.frame[i] = a.ring[(a.write+i)%a.size]
	}
	vecmath.MulBlockInPlace(a.frame, a.window)

	for i, x := range a.frame {
		a.input[i] = complex(x, 0)
	}
	if err := a.plan.Forward(a.output, a.input); err != nil {
		return
	}

	for k := range a.re {
		a.re[k] = real(a.output[k])
		a.im[k] = imag(a.output[k])
	}
	vecmath.Magnitude(a.mag, a.re, a.im)

	norm := 1 / float64(a.size)
	s := a.smoothing
	for k, m := range a.mag {
		a.smoothed[k] = s*a.smoothed[k] + (1-s)*m*norm
	}
}

func toDB(mag float64) float64 {
	const eps = 1e-12

	return 20 * math.Log10(math.Max(eps, mag))
}
