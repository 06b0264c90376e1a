package audio

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"log"
	"math"
	"math/cmplx"
	"sync"
	"time"

	"github.com/gopxl/beep/v2"
)

// State is the lifecycle state of the filter chain.
type State int

const (
	StateUnbuilt State = iota
	StateRunning
	StateSuspended
	StateUnavailable
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateUnbuilt:
		return "unbuilt"
	case StateRunning:
		return "running"
	case StateSuspended:
		return "suspended"
	case StateUnavailable:
		return "unavailable"
	case StateClosed:
		return "closed"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Config holds engine parameters.
type Config struct {
	SampleRate       int
	DeviceBuffer     time.Duration
	FFTSize          int
	Smoothing        float64
	RampTimeConstant time.Duration
}

// DefaultConfig returns the browser-equivalent defaults at 48 kHz.
func DefaultConfig() Config {
	return Config{
		SampleRate:       48000,
		DeviceBuffer:     50 * time.Millisecond,
		FFTSize:          DefaultFFTSize,
		Smoothing:        DefaultSmoothing,
		RampTimeConstant: 15 * time.Millisecond,
	}
}

// Option configures an Engine.
type Option func(*Engine)

// WithDevice sets the output device opener. The default is NullDevice.
func WithDevice(open Opener) Option {
	return func(e *Engine) { e.open = open }
}

// WithLogger sets the logger used for lifecycle messages.
func WithLogger(l *log.Logger) Option {
	return func(e *Engine) { e.logger = l }
}

// Engine is the audio graph: one connected source feeding twenty peaking
// bands in series, a gain stage and an analyser tap, pulled by one output
// device. Nothing is allocated until the first Activate.
type Engine struct {
	cfg    Config
	open   Opener
	logger *log.Logger

	// ctl serializes lifecycle calls. Device methods run under ctl only,
	// never under mu, because devices may pull from Render while they
	// start or stop.
	ctl sync.Mutex

	mu      sync.Mutex
	state   State
	failure error
	device  Device
	targets [BandCount]float64
	bands   [BandCount]*bandStage
	gain    float64

	analyser *Analyser

	source     beep.Streamer
	sourceLive bool
	onEnd      func()

	left, right []float64
	frames      [][2]float64
}

// NewEngine creates an engine. Invalid config values fall back to defaults.
func NewEngine(cfg Config, opts ...Option) *Engine {
	def := DefaultConfig()
	if cfg.SampleRate <= 0 {
		cfg.SampleRate = def.SampleRate
	}
	if cfg.DeviceBuffer <= 0 {
		cfg.DeviceBuffer = def.DeviceBuffer
	}
	if !validFFTSize(cfg.FFTSize) {
		cfg.FFTSize = def.FFTSize
	}
	if cfg.Smoothing < 0 || cfg.Smoothing >= 1 {
		cfg.Smoothing = def.Smoothing
	}
	if cfg.RampTimeConstant < 0 {
		cfg.RampTimeConstant = 0
	}

	e := &Engine{
		cfg:    cfg,
		open:   NullDevice(),
		logger: log.Default(),
		gain:   1,
	}
	for _, o := range opts {
		o(e)
	}

	return e
}

// SampleRate returns the rate the chain runs at.
func (e *Engine) SampleRate() int { return e.cfg.SampleRate }

// State returns the current lifecycle state.
func (e *Engine) State() State {
	e.mu.Lock()
	defer e.mu.Unlock()

	return e.state
}

// Ready reports whether the chain has been built and not closed.
func (e *Engine) Ready() bool {
	s := e.State()

	return s == StateRunning || s == StateSuspended
}

// Activate builds the chain on first use and resumes it when suspended.
// It never builds twice. A device that cannot be opened makes the engine
// permanently unavailable and every call returns the same ErrUnavailable.
func (e *Engine) Activate(ctx context.Context) error {
	e.ctl.Lock()
	defer e.ctl.Unlock()

	e.mu.Lock()
	state, dev, failure := e.state, e.device, e.failure
	e.mu.Unlock()

	switch state {
	case StateRunning:
		return nil
	case StateSuspended:
		return e.resume(dev)
	case StateUnavailable:
		return failure
	case StateClosed:
		return ErrClosed
	}

	e.mu.Lock()
	err := e.buildLocked()
	e.mu.Unlock()
	if err != nil {
		return err
	}

	dev, err = e.open(ctx, DeviceConfig{SampleRate: e.cfg.SampleRate, Buffer: e.cfg.DeviceBuffer}, engineReader{e})
	if err != nil {
		e.mu.Lock()
		e.state = StateUnavailable
		e.failure = fmt.Errorf("%w: %w", ErrUnavailable, err)
		failure = e.failure
		e.mu.Unlock()
		e.logger.Printf("[engine] audio output unavailable: %v", err)
		return failure
	}

	e.mu.Lock()
	e.device = dev
	e.state = StateSuspended
	e.mu.Unlock()
	e.logger.Printf("[engine] filter chain built: %d bands at %d Hz", BandCount, e.cfg.SampleRate)

	return e.resume(dev)
}

// resume starts dev and marks the engine running. Called with ctl held.
func (e *Engine) resume(dev Device) error {
	if err := dev.Resume(); err != nil {
		return fmt.Errorf("%w: %w", ErrResumeRejected, err)
	}

	e.mu.Lock()
	e.state = StateRunning
	e.mu.Unlock()

	return nil
}

func (e *Engine) buildLocked() error {
	analyser, err := NewAnalyser(e.cfg.FFTSize, e.cfg.Smoothing)
	if err != nil {
		return err
	}
	e.analyser = analyser

	sr := float64(e.cfg.SampleRate)
	tau := e.cfg.RampTimeConstant.Seconds()
	for i := range e.bands {
		e.bands[i] = newBandStage(Frequencies[i], e.targets[i], sr, tau)
	}
	e.left = make([]float64, quantum)
	e.right = make([]float64, quantum)

	return nil
}

// Suspend pauses the device. The chain and its state are kept.
func (e *Engine) Suspend() error {
	e.ctl.Lock()
	defer e.ctl.Unlock()

	e.mu.Lock()
	state, dev := e.state, e.device
	e.mu.Unlock()

	if state != StateRunning {
		return nil
	}
	if err := dev.Suspend(); err != nil {
		return err
	}

	e.mu.Lock()
	e.state = StateSuspended
	e.mu.Unlock()

	return nil
}

// Close releases the device. The engine cannot be reactivated.
func (e *Engine) Close() error {
	e.ctl.Lock()
	defer e.ctl.Unlock()

	e.mu.Lock()
	dev := e.device
	wasOpen := e.state == StateRunning || e.state == StateSuspended
	e.state = StateClosed
	e.device = nil
	e.source = nil
	e.mu.Unlock()

	if wasOpen && dev != nil {
		return dev.Close()
	}

	return nil
}

// Analyser returns the analysis tap, or nil before the chain is built.
func (e *Engine) Analyser() *Analyser {
	e.mu.Lock()
	defer e.mu.Unlock()

	return e.analyser
}

// SetBandGain sets the target gain of band index. The stage ramps toward it.
// Targets set before Activate are used when the chain is built.
func (e *Engine) SetBandGain(index int, gainDB float64) error {
	if index < 0 || index >= BandCount {
		return fmt.Errorf("%w: %d", ErrBandIndex, index)
	}
	gainDB = ClampGain(gainDB)

	e.mu.Lock()
	defer e.mu.Unlock()

	e.targets[index] = gainDB
	if b := e.bands[index]; b != nil {
		b.setTarget(gainDB)
	}

	return nil
}

// BandGain returns the target gain of band index.
func (e *Engine) BandGain(index int) float64 {
	if index < 0 || index >= BandCount {
		return 0
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	return e.targets[index]
}

// CurrentBandGain returns the smoothed gain the band is filtering with.
// Before the chain is built it equals the target.
func (e *Engine) CurrentBandGain(index int) float64 {
	if index < 0 || index >= BandCount {
		return 0
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if b := e.bands[index]; b != nil {
		return b.current
	}

	return e.targets[index]
}

// Bands returns a snapshot of all bands with their target gains.
func (e *Engine) Bands() [BandCount]Band {
	e.mu.Lock()
	defer e.mu.Unlock()

	var out [BandCount]Band
	for i := range out {
		out[i] = Band{Index: i, FrequencyHz: Frequencies[i], GainDB: e.targets[i]}
	}

	return out
}

// SetGainCorrection sets the linear gain stage after the bands, clamped to
// [0, 4].
func (e *Engine) SetGainCorrection(g float64) {
	if math.IsNaN(g) {
		g = 1
	}
	g = math.Max(0, math.Min(4, g))

	e.mu.Lock()
	e.gain = g
	e.mu.Unlock()
}

// ApplyAutoGainCorrection resets the gain stage to unity.
func (e *Engine) ApplyAutoGainCorrection() {
	e.SetGainCorrection(1)
}

// GainCorrection returns the linear gain stage value.
func (e *Engine) GainCorrection() float64 {
	e.mu.Lock()
	defer e.mu.Unlock()

	return e.gain
}

// Connect attaches src to the chain input. Connecting the source that is
// already attached does nothing; a different source replaces it.
func (e *Engine) Connect(src beep.Streamer) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.source == src {
		return
	}
	e.source = src
	e.sourceLive = false
	if src != nil {
		e.logger.Printf("[engine] source connected to filter chain")
	}
}

// Disconnect detaches the current source.
func (e *Engine) Disconnect() {
	e.Connect(nil)
}

// Connections returns the number of sources attached to the chain input.
func (e *Engine) Connections() int {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.source == nil {
		return 0
	}

	return 1
}

// OnSourceEnd registers fn to run when the connected source drains. fn runs
// on the rendering goroutine, outside the engine lock.
func (e *Engine) OnSourceEnd(fn func()) {
	e.mu.Lock()
	e.onEnd = fn
	e.mu.Unlock()
}

// Render fills dst with the processed output. Before activation, after
// Close or without a source it renders silence.
func (e *Engine) Render(dst [][2]float64) {
	e.render(dst)
}

// render reports false when the engine is closed.
func (e *Engine) render(dst [][2]float64) bool {
	e.mu.Lock()
	open := e.state != StateClosed
	ended := e.renderLocked(dst)
	cb := e.onEnd
	e.mu.Unlock()

	if ended && cb != nil {
		cb()
	}

	return open
}

func (e *Engine) renderLocked(dst [][2]float64) bool {
	if e.state != StateRunning && e.state != StateSuspended {
		clear(dst)
		return false
	}

	ended := e.pullLocked(dst)

	for off := 0; off < len(dst); off += quantum {
		block := dst[off:min(off+quantum, len(dst))]
		left, right := e.left[:len(block)], e.right[:len(block)]
		for i, f := range block {
			left[i], right[i] = f[0], f[1]
		}

		for _, b := range e.bands {
			b.advance()
			b.process(left, right)
		}

		g := e.gain
		for i := range block {
			left[i] *= g
			right[i] *= g
			block[i] = [2]float64{left[i], right[i]}
		}
		e.analyser.push(left, right)
	}

	return ended
}

// pullLocked reads from the source and reports a live-to-drained edge.
func (e *Engine) pullLocked(dst [][2]float64) bool {
	if e.source == nil {
		clear(dst)
		return false
	}

	filled, ok := 0, true
	for filled < len(dst) {
		var n int
		n, ok = e.source.Stream(dst[filled:])
		filled += n
		if !ok || n == 0 {
			break
		}
	}
	clear(dst[filled:])
	if ok {
		e.sourceLive = true
		return false
	}
	if !e.sourceLive {
		return false
	}
	e.sourceLive = false

	return true
}

// Read implements io.Reader for the output device: interleaved stereo
// float32 little-endian. It returns ErrClosed after Close.
func (e *Engine) Read(p []byte) (int, error) {
	n := len(p) / BytesPerFrame
	if cap(e.frames) < n {
		e.frames = make([][2]float64, n)
	}
	frames := e.frames[:n]
	if !e.render(frames) {
		return 0, ErrClosed
	}

	for i, f := range frames {
		off := i * BytesPerFrame
		binary.LittleEndian.PutUint32(p[off:], math.Float32bits(float32(clampSample(f[0]))))
		binary.LittleEndian.PutUint32(p[off+4:], math.Float32bits(float32(clampSample(f[1]))))
	}
	clear(p[n*BytesPerFrame:])

	return len(p), nil
}

// engineReader hides Engine's other methods from the device.
type engineReader struct{ e *Engine }

func (r engineReader) Read(p []byte) (int, error) {
	return r.e.Read(p)
}

// ResponseCurveDB returns the magnitude response of the target band gains
// and the gain stage, in dB, at each frequency.
func (e *Engine) ResponseCurveDB(freqs []float64) []float64 {
	e.mu.Lock()
	targets := e.targets
	gain := e.gain
	e.mu.Unlock()

	sr := float64(e.cfg.SampleRate)
	stages := make([]*bandStage, BandCount)
	for i := range stages {
		stages[i] = newBandStage(Frequencies[i], targets[i], sr, 0)
	}

	out := make([]float64, len(freqs))
	for i, f := range freqs {
		f = math.Max(1, math.Min(f, sr*0.49))
		h := complex(gain, 0)
		for _, b := range stages {
			c := b.filter.Coefficients()
			h *= c.Response(f, sr)
		}
		out[i] = 20 * math.Log10(math.Max(1e-12, cmplx.Abs(h)))
	}

	return out
}

// IsUnavailable reports whether err is the terminal capability failure.
func IsUnavailable(err error) bool {
	return errors.Is(err, ErrUnavailable)
}

func clampSample(v float64) float64 {
	return math.Max(-1, math.Min(1, v))
}
