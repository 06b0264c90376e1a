package audio

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cwbudde/ultrasound/internal/testutil"
)

func feed(a *Analyser, x []float64) {
	for off := 0; off < len(x); off += quantum {
		block := x[off:min(off+quantum, len(x))]
		a.push(block, block)
	}
}

func TestNewAnalyser_Validation(t *testing.T) {
	_, err := NewAnalyser(1000, 0.8)
	require.Error(t, err)
	_, err = NewAnalyser(2048, 1)
	require.Error(t, err)

	a, err := NewAnalyser(DefaultFFTSize, DefaultSmoothing)
	require.NoError(t, err)
	assert.Equal(t, 2048, a.FFTSize())
	assert.Equal(t, 1024, a.FrequencyBinCount())

	require.Error(t, a.SetDecibelRange(-30, -100))
	require.NoError(t, a.SetDecibelRange(-90, -10))
}

func TestAnalyser_SilenceIsFloor(t *testing.T) {
	a, err := NewAnalyser(1024, 0)
	require.NoError(t, err)

	feed(a, make([]float64, 2048))
	assert.False(t, a.Active())

	bins := make([]byte, a.FrequencyBinCount())
	require.Equal(t, 512, a.ByteFrequencyData(bins))
	for k, v := range bins {
		require.Zerof(t, v, "bin %d", k)
	}
}

func TestAnalyser_SinePeakBin(t *testing.T) {
	const sr = 48000.0
	a, err := NewAnalyser(2048, 0)
	require.NoError(t, err)

	feed(a, testutil.DeterministicSine(3000, sr, 0.5, 4096))
	assert.True(t, a.Active())

	db := make([]float64, a.FrequencyBinCount())
	a.FloatFrequencyData(db)

	peak := 0
	for k := range db {
		if db[k] > db[peak] {
			peak = k
		}
	}
	want := 3000 / (sr / 2048)
	assert.InDelta(t, want, float64(peak), 1)

	norm := make([]float64, a.FrequencyBinCount())
	a.NormalizedFrequencyData(norm)
	assert.Equal(t, 1.0, norm[peak])
}

func TestAnalyser_SmoothingDecays(t *testing.T) {
	a, err := NewAnalyser(256, 0.8)
	require.NoError(t, err)

	feed(a, testutil.DeterministicSine(1500, 48000, 0.5, 512))
	db := make([]float64, a.FrequencyBinCount())
	a.FloatFrequencyData(db)
	loud := db[8]

	feed(a, make([]float64, 512))
	a.FloatFrequencyData(db)
	assert.Less(t, db[8], loud)
	assert.Greater(t, db[8], -240.0)
}

func TestAnalyser_TimeDomainAndReset(t *testing.T) {
	a, err := NewAnalyser(256, 0.5)
	require.NoError(t, err)

	x := testutil.DeterministicNoise(3, 0.3, 300)
	feed(a, x)

	got := make([]float64, 100)
	require.Equal(t, 100, a.TimeDomainData(got))
	testutil.RequireSliceNearlyEqual(t, got, x[200:], 1e-12)

	a.Reset()
	assert.False(t, a.Active())
	a.TimeDomainData(got)
	for _, v := range got {
		require.Zero(t, v)
	}
}
