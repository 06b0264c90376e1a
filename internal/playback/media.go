package playback

import (
	"math"
	"sync"
	"time"

	"github.com/gopxl/beep/v2"
)

// DefaultVolume is the initial media volume.
const DefaultVolume = 0.8

// Media is the single element feeding the filter chain. It is connected
// once; loading a track swaps the decoded stream behind it. While paused or
// empty it produces silence and stays live.
type Media struct {
	mu     sync.Mutex
	stream beep.StreamSeekCloser
	out    beep.Streamer
	format beep.Format
	rate   beep.SampleRate
	paused bool
	volume float64
	err    error
	// drained is set when the current stream reports its end. Swapping or
	// seeking clears it.
	drained bool
}

// NewMedia returns an empty, paused media element.
func NewMedia() *Media {
	return &Media{paused: true, volume: DefaultVolume}
}

// Stream implements beep.Streamer. It reports false once when the loaded
// stream is drained.
func (m *Media) Stream(samples [][2]float64) (int, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.out == nil || m.paused {
		clear(samples)
		return len(samples), true
	}

	n, ok := m.out.Stream(samples)
	v := m.volume
	for i := range samples[:n] {
		samples[i][0] *= v
		samples[i][1] *= v
	}
	if !ok {
		m.err = m.out.Err()
		m.drained = true
	}

	return n, ok
}

// Err returns the last decoding error.
func (m *Media) Err() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.err
}

// swap replaces the stream, closing the previous one, and pauses. A stream
// whose rate differs from rate is resampled.
func (m *Media) swap(s beep.StreamSeekCloser, format beep.Format, rate beep.SampleRate) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	var err error
	if m.stream != nil {
		err = m.stream.Close()
	}

	m.stream, m.format, m.rate, m.out, m.err = s, format, rate, nil, nil
	m.paused = true
	m.drained = false
	if s != nil {
		m.rebuildLocked()
	}

	return err
}

// rebuildLocked wires the output, resampling when the rates differ. A new
// resampler drops history buffered before a seek.
func (m *Media) rebuildLocked() {
	m.out = m.stream
	if m.format.SampleRate != m.rate {
		m.out = beep.Resample(4, m.format.SampleRate, m.rate, m.stream)
	}
}

func (m *Media) loaded() bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.stream != nil
}

func (m *Media) setPaused(p bool) {
	m.mu.Lock()
	m.paused = p
	m.mu.Unlock()
}

// SetVolume sets the linear volume, clamped to [0, 1].
func (m *Media) SetVolume(v float64) float64 {
	if math.IsNaN(v) {
		v = DefaultVolume
	}
	v = math.Max(0, math.Min(1, v))

	m.mu.Lock()
	m.volume = v
	m.mu.Unlock()

	return v
}

// Volume returns the linear volume.
func (m *Media) Volume() float64 {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.volume
}

// seek moves to d, clamped to the stream length. Unseekable streams ignore
// it.
func (m *Media) seek(d time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.stream == nil {
		return
	}
	n := m.format.SampleRate.N(d)
	n = max(0, min(n, m.stream.Len()))
	if err := m.stream.Seek(n); err == nil {
		m.rebuildLocked()
		m.drained = false
	}
}

// ended reports whether the current stream has drained.
func (m *Media) ended() bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.drained
}

func (m *Media) position() time.Duration {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.stream == nil {
		return 0
	}

	return m.format.SampleRate.D(m.stream.Position())
}

func (m *Media) duration() time.Duration {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.stream == nil || m.stream.Len() <= 0 {
		return 0
	}

	return m.format.SampleRate.D(m.stream.Len())
}
