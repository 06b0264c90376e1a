package design

import (
	"math"

	"github.com/cwbudde/ultrasound/dsp/filter/biquad"
)

const defaultQ = 1 / math.Sqrt2

// MaxFrequencyRatio is the highest center frequency, as a fraction of the
// sample rate, that [ClampFrequency] lets through.
const MaxFrequencyRatio = 0.49

// Peak designs a peaking-EQ biquad with gain in dB using the RBJ cookbook
// formula. A gain of 0 dB yields an identity response.
func Peak(freq, gainDB, q, sampleRate float64) biquad.Coefficients {
	w0, ok := normalizedW0(freq, sampleRate)
	if !ok {
		return biquad.Coefficients{}
	}

	q = normalizedQ(q)
	cw := math.Cos(w0)
	sw := math.Sin(w0)
	alpha := sw / (2 * q)
	a := math.Pow(10, gainDB/40)

	b0 := 1 + alpha*a
	b1 := -2 * cw
	b2 := 1 - alpha*a
	a0 := 1 + alpha/a
	a1 := -2 * cw
	a2 := 1 - alpha/a

	return normalizeBiquad(b0, b1, b2, a0, a1, a2)
}

// ClampFrequency limits freq to (0, MaxFrequencyRatio*sampleRate] so that
// bands defined for a 44.1/48 kHz layout stay realizable at lower rates.
func ClampFrequency(freq, sampleRate float64) float64 {
	limit := sampleRate * MaxFrequencyRatio
	if freq > limit {
		return limit
	}
	if freq <= 0 {
		return 1
	}

	return freq
}

func normalizedW0(freq, sampleRate float64) (float64, bool) {
	if sampleRate <= 0 || math.IsNaN(sampleRate) || math.IsInf(sampleRate, 0) {
		return 0, false
	}

	nyquist := sampleRate / 2
	if freq <= 0 || freq >= nyquist || math.IsNaN(freq) || math.IsInf(freq, 0) {
		return 0, false
	}

	return 2 * math.Pi * freq / sampleRate, true
}

func normalizedQ(q float64) float64 {
	if q <= 0 || math.IsNaN(q) || math.IsInf(q, 0) {
		return defaultQ
	}

	return q
}

func normalizeBiquad(b0, b1, b2, a0, a1, a2 float64) biquad.Coefficients {
	if a0 == 0 || math.IsNaN(a0) || math.IsInf(a0, 0) {
		return biquad.Coefficients{}
	}

	return biquad.Coefficients{
		B0: b0 / a0,
		B1: b1 / a0,
		B2: b2 / a0,
		A1: a1 / a0,
		A2: a2 / a0,
	}
}
