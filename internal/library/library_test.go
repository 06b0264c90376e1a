package library

import (
	"context"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cwbudde/ultrasound/internal/testutil"
)

func fixedClock() func() time.Time {
	at := time.Unix(1700000000, 42)
	return func() time.Time { return at }
}

func newTestLibrary(t *testing.T, opts ...Option) *Library {
	t.Helper()

	l := New(append([]Option{WithClock(fixedClock())}, opts...)...)
	t.Cleanup(l.Close)

	return l
}

func TestFormatOf(t *testing.T) {
	tests := []struct {
		name, mime string
		want       string
		ok         bool
	}{
		{"song.mp3", "", "mp3", true},
		{"SONG.FLAC", "", "flac", true},
		{"a.b.ogg", "", "ogg", true},
		{"clip.webm", "", "webm", true},
		{"voice.m4a", "", "m4a", true},
		{"notes.xyz", "", "xyz", false},
		{"noext", "", "", false},
		{"blob", "audio/mpeg", "mp3", true},
		{"blob", "audio/wav; codecs=1", "wav", true},
		{"x.wav", "video/unknown", "wav", true},
	}
	for _, tt := range tests {
		got, ok := FormatOf(tt.name, tt.mime)
		assert.Equal(t, tt.want, got, tt.name)
		assert.Equal(t, tt.ok, ok, tt.name)
	}
}

func TestParseName(t *testing.T) {
	tests := []struct {
		file, name, artist string
	}{
		{"Daft Punk - One More Time.mp3", "One More Time", "Daft Punk"},
		{"A - B - C.wav", "B - C", "A"},
		{"untitled.flac", "untitled", UnknownArtist},
		{"/music/Band - Song.ogg", "Song", "Band"},
	}
	for _, tt := range tests {
		name, artist := ParseName(tt.file)
		assert.Equal(t, tt.name, name, tt.file)
		assert.Equal(t, tt.artist, artist, tt.file)
	}
}

func TestAddFiles_RejectsUnsupported(t *testing.T) {
	l := newTestLibrary(t)

	added, err := l.AddFiles(context.Background(), File{Name: "notes.xyz", Size: 10, Data: []byte("nope")})
	require.ErrorIs(t, err, ErrUnsupportedFile)
	assert.Empty(t, added)
	assert.Zero(t, l.Playlist().Len())

	notes := l.Notices().Active()
	require.Len(t, notes, 1)
	assert.Contains(t, notes[0].Message, "notes.xyz")
	assert.Contains(t, notes[0].Message, "MP3, WAV, FLAC, OGG, AAC, M4A, WEBM")
}

func TestAddFiles_OneNoticePerCall(t *testing.T) {
	l := newTestLibrary(t)
	dir := t.TempDir()
	wav := testutil.WriteWAV(t, dir, "Artist - Tone.wav", 8000, 800)

	added, err := l.AddFiles(context.Background(),
		File{Name: "a.doc", Data: []byte("x")},
		File{Name: "Artist - Tone.wav", Size: 10, Path: wav},
		File{Name: "b.exe", Data: []byte("y")},
	)
	require.ErrorIs(t, err, ErrUnsupportedFile)
	require.Len(t, added, 1)
	assert.Equal(t, "Tone", added[0].Name)
	assert.Equal(t, "Artist", added[0].Artist)

	notes := l.Notices().Active()
	require.Len(t, notes, 1)
	assert.True(t, strings.HasPrefix(notes[0].Message, "Rejected: a.doc, b.exe"))
}

func TestNotices_AutoDismiss(t *testing.T) {
	l := newTestLibrary(t, WithNoticeTTL(20*time.Millisecond))

	_, err := l.AddFiles(context.Background(), File{Name: "bad.txt"})
	require.Error(t, err)
	require.Len(t, l.Notices().Active(), 1)

	require.Eventually(t, func() bool { return len(l.Notices().Active()) == 0 }, time.Second, 5*time.Millisecond)
}

func TestAddPaths_ProbesWAVDuration(t *testing.T) {
	l := newTestLibrary(t)
	path := testutil.WriteWAV(t, t.TempDir(), "tone.wav", 8000, 4000)

	added, err := l.AddPaths(context.Background(), path)
	require.NoError(t, err)
	require.Len(t, added, 1)

	tr := added[0]
	assert.Equal(t, "wav", tr.Format)
	assert.Equal(t, UnknownArtist, tr.Artist)
	assert.InDelta(t, float64(500*time.Millisecond), float64(tr.Duration), float64(10*time.Millisecond))

	st, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, "tone.wav-"+strconv.FormatInt(st.Size(), 10)+"-1700000000000000042", tr.ID)
}

func TestAddFiles_ProbeFailureYieldsZero(t *testing.T) {
	l := newTestLibrary(t)

	added, err := l.AddFiles(context.Background(),
		File{Name: "broken.mp3", Size: 3, Data: []byte{1, 2, 3}},
		File{Name: "clip.aac", Size: 3, Data: []byte{4, 5, 6}},
	)
	require.NoError(t, err)
	require.Len(t, added, 2)
	for _, tr := range added {
		assert.Zero(t, tr.Duration, tr.Name)
	}
}

func TestAddFiles_Deduplicates(t *testing.T) {
	l := newTestLibrary(t)
	f := File{Name: "same.aac", Size: 5, Data: []byte("12345")}

	added, err := l.AddFiles(context.Background(), f)
	require.NoError(t, err)
	require.Len(t, added, 1)

	added, err = l.AddFiles(context.Background(), f)
	require.NoError(t, err)
	assert.Empty(t, added)
	assert.Equal(t, 1, l.Playlist().Len())

	assert.True(t, l.Remove("same.aac-5-1700000000000000042"))
	assert.False(t, l.Remove("same.aac-5-1700000000000000042"))
}

func TestAddStream(t *testing.T) {
	l := newTestLibrary(t)

	tr, err := l.AddStream(" https://radio.example.com/live/main.mp3 ")
	require.NoError(t, err)
	assert.True(t, tr.IsStream)
	assert.Equal(t, "main.mp3", tr.Name)
	assert.Equal(t, "radio.example.com", tr.Artist)
	assert.Equal(t, "mp3", tr.Format)
	assert.Equal(t, 1, l.Playlist().Len())

	tr, err = l.AddStream("http://radio.example.com")
	require.NoError(t, err)
	assert.Equal(t, "radio.example.com", tr.Name)

	for _, bad := range []string{"ftp://host/x.mp3", "radio.example.com/x.mp3", "http://", "::"} {
		_, err := l.AddStream(bad)
		require.ErrorIs(t, err, ErrInvalidURL, bad)
	}
	assert.Equal(t, 2, l.Playlist().Len())
	assert.Len(t, l.Notices().Active(), 4)
}

func TestDecode(t *testing.T) {
	path := testutil.WriteWAV(t, t.TempDir(), "tone.wav", 22050, 2205)
	f, err := os.Open(path)
	require.NoError(t, err)

	s, format, err := Decode(f, "wav")
	require.NoError(t, err)
	defer s.Close()

	assert.EqualValues(t, 22050, format.SampleRate)
	assert.Equal(t, 2, format.NumChannels)
	assert.Equal(t, 2205, s.Len())

	f2, err := os.Open(path)
	require.NoError(t, err)
	_, _, err = Decode(f2, "webm")
	require.ErrorIs(t, err, ErrNoDecoder)
}

func TestTrackOpen_Data(t *testing.T) {
	tr := Track{ID: "x", Data: []byte("abc")}
	rc, err := tr.Open(context.Background())
	require.NoError(t, err)
	defer rc.Close()

	buf := make([]byte, 3)
	_, err = rc.Read(buf)
	require.NoError(t, err)
	assert.Equal(t, "abc", string(buf))

	_, err = Track{ID: "empty"}.Open(context.Background())
	require.Error(t, err)
}

func TestWatcher_AddsAndRemoves(t *testing.T) {
	dir := t.TempDir()
	testutil.WriteWAV(t, dir, "existing.wav", 8000, 80)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "readme.txt"), []byte("hi"), 0o644))

	l := newTestLibrary(t)
	w, err := NewWatcher(l, dir)
	require.NoError(t, err)
	require.NoError(t, w.Scan(context.Background()))
	require.Equal(t, 1, l.Playlist().Len())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()
	defer func() {
		cancel()
		require.NoError(t, <-done)
	}()

	path := testutil.WriteWAV(t, dir, "new.wav", 8000, 80)
	require.Eventually(t, func() bool { return l.HasPath(path) }, 2*time.Second, 10*time.Millisecond)

	require.NoError(t, os.Remove(path))
	require.Eventually(t, func() bool { return !l.HasPath(path) }, 2*time.Second, 10*time.Millisecond)
	assert.True(t, l.HasPath(filepath.Join(dir, "existing.wav")))
	assert.Empty(t, l.Notices().Active())
}
