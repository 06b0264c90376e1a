package audio

import (
	"math"
	"strconv"

	"github.com/cwbudde/ultrasound/dsp/filter/biquad"
	"github.com/cwbudde/ultrasound/dsp/filter/design"
)

// BandCount is the number of equalizer bands in the filter chain.
const BandCount = 20

// Gain limits for every band, in dB.
const (
	MinGainDB = -12.0
	MaxGainDB = 12.0
)

// BandQ is the quality factor shared by all peaking bands.
const BandQ = 1.0

// quantum is the number of frames between smoothing updates.
const quantum = 128

// snapDB is the distance at which a ramping gain jumps to its target.
const snapDB = 1e-3

// Frequencies holds the fixed center frequencies of the equalizer bands.
var Frequencies = [BandCount]float64{
	20, 40, 80, 160, 250, 500, 800,
	1000, 1600, 2000, 3150, 4000, 5000,
	6300, 8000, 10000, 12500, 14000, 16000, 20000,
}

// Band describes one equalizer band.
type Band struct {
	Index       int
	FrequencyHz float64
	GainDB      float64
}

// ClampGain limits gainDB to [MinGainDB, MaxGainDB]. NaN maps to 0.
func ClampGain(gainDB float64) float64 {
	if math.IsNaN(gainDB) {
		return 0
	}

	return math.Max(MinGainDB, math.Min(MaxGainDB, gainDB))
}

// FrequencyLabel formats a band frequency the way the UI labels sliders.
func FrequencyLabel(freq float64) string {
	if freq >= 1000 {
		return trimFloat(freq/1000) + "kHz"
	}

	return trimFloat(freq) + "Hz"
}

func trimFloat(v float64) string {
	return strconv.FormatFloat(math.Round(v*100)/100, 'f', -1, 64)
}

// bandStage is one peaking filter in the chain. Gain changes approach the
// target exponentially, one step per quantum.
type bandStage struct {
	freq       float64
	sampleRate float64
	target     float64
	current    float64
	step       float64
	filter     *biquad.Stereo
}

func newBandStage(freq, gainDB, sampleRate float64, ramp float64) *bandStage {
	b := &bandStage{
		freq:       design.ClampFrequency(freq, sampleRate),
		sampleRate: sampleRate,
		target:     gainDB,
		current:    gainDB,
		step:       rampStep(ramp, sampleRate),
	}
	b.filter = biquad.NewStereo(b.design(gainDB))

	return b
}

// rampStep converts a time constant in seconds into the fraction of the
// remaining distance covered per quantum.
func rampStep(tau, sampleRate float64) float64 {
	if tau <= 0 {
		return 1
	}

	return 1 - math.Exp(-quantum/(tau*sampleRate))
}

func (b *bandStage) design(gainDB float64) biquad.Coefficients {
	c := design.Peak(b.freq, gainDB, BandQ, b.sampleRate)
	if c.IsZero() {
		return biquad.Identity()
	}

	return c
}

func (b *bandStage) setTarget(gainDB float64) {
	b.target = gainDB
}

// advance moves the gain one quantum toward the target and redesigns the
// filter when it moved.
func (b *bandStage) advance() {
	if b.current == b.target {
		return
	}

	b.current += (b.target - b.current) * b.step
	if math.Abs(b.target-b.current) < snapDB {
		b.current = b.target
	}
	b.filter.SetCoefficients(b.design(b.current))
}

func (b *bandStage) process(left, right []float64) {
	b.filter.ProcessBlock(left, right)
}
