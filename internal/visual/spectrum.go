package visual

import (
	"math"
	"sync"
)

// Spectrum bar defaults.
const (
	DefaultBarCount = 64
	idleDecay       = 0.85
	idleFloor       = 0.02
)

// RGB is an 8-bit color.
type RGB struct{ R, G, B uint8 }

// SpectrumBars samples the analyser into a fixed number of bars. While idle
// the bars fall toward a small floor.
type SpectrumBars struct {
	mu   sync.Mutex
	bars []float64
}

// NewSpectrumBars returns n bars (DefaultBarCount when n <= 0).
func NewSpectrumBars(n int) *SpectrumBars {
	if n <= 0 {
		n = DefaultBarCount
	}

	return &SpectrumBars{bars: make([]float64, n)}
}

func (*SpectrumBars) Name() string { return "Spectrum" }

func (s *SpectrumBars) Update(f Frame) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !f.Live() {
		for i, v := range s.bars {
			s.bars[i] = math.Max(idleFloor, v*idleDecay)
		}
		return nil
	}

	step := max(1, len(f.Spectrum)/len(s.bars))
	for i := range s.bars {
		k := i * step
		if k >= len(f.Spectrum) {
			s.bars[i] = 0
			continue
		}
		s.bars[i] = float64(f.Spectrum[k]) / 255
	}

	return nil
}

func (s *SpectrumBars) Reset() {
	s.mu.Lock()
	clear(s.bars)
	s.mu.Unlock()
}

// Bars returns the bar heights in [0, 1].
func (s *SpectrumBars) Bars() []float64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	return append([]float64(nil), s.bars...)
}

// BarColor blends from blue at 0 to gold at 1.
func BarColor(v float64) RGB {
	v = math.Max(0, math.Min(1, v))

	return RGB{
		R: uint8(math.Round(255 * v)),
		G: uint8(math.Round(215*v + 191*(1-v))),
		B: uint8(math.Round(255 * (1 - v))),
	}
}
