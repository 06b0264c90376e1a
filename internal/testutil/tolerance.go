package testutil

import (
	"math"
	"testing"
)

// RequireSliceNearlyEqual fails t if got and want differ in length or if
// any element pair exceeds eps (absolute tolerance).
func RequireSliceNearlyEqual(t testing.TB, got, want []float64, eps float64) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("length mismatch: got %d, want %d", len(got), len(want))
	}
	for i := range got {
		diff := math.Abs(got[i] - want[i])
		if diff > eps {
			t.Fatalf("index %d: got %v, want %v (diff %v > eps %v)", i, got[i], want[i], diff, eps)
		}
	}
}

// RequireFinite fails t if any sample of any channel is NaN or Inf.
func RequireFinite(t testing.TB, frames [][2]float64) {
	t.Helper()
	for i, f := range frames {
		for ch, v := range f {
			if math.IsNaN(v) || math.IsInf(v, 0) {
				t.Fatalf("frame %d ch %d: non-finite value %v", i, ch, v)
			}
		}
	}
}

// GainDB returns the level of out relative to in, in dB.
func GainDB(in, out []float64) float64 {
	return 20 * math.Log10(RMS(out)/RMS(in))
}
