package testutil

import (
	"math"
	"testing"
)

func TestFramesStreamsOnce(t *testing.T) {
	f := SineStreamer(1000, 48000, 0.5, 300)
	buf := make([][2]float64, 128)

	total := 0
	for {
		n, ok := f.Stream(buf)
		if !ok {
			break
		}
		total += n
	}
	if total != 300 {
		t.Fatalf("streamed %d frames, want 300", total)
	}
	if _, ok := f.Stream(buf); ok {
		t.Fatal("drained streamer reported ok")
	}
}

func TestRMSOfSine(t *testing.T) {
	s := DeterministicSine(1000, 48000, 1, 48000)
	if got := RMS(s); math.Abs(got-1/math.Sqrt2) > 1e-3 {
		t.Fatalf("RMS = %v, want %v", got, 1/math.Sqrt2)
	}
}

func TestWriteWAVProducesFile(t *testing.T) {
	path := WriteWAV(t, t.TempDir(), "tone.wav", 8000, 800)
	b := ReadFile(t, path)
	if len(b) < 44+800*4 {
		t.Fatalf("wav too short: %d bytes", len(b))
	}
	if string(b[:4]) != "RIFF" || string(b[8:12]) != "WAVE" {
		t.Fatalf("bad header %q", b[:12])
	}
}
