package playback

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/gopxl/beep/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cwbudde/ultrasound/internal/audio"
	"github.com/cwbudde/ultrasound/internal/library"
	"github.com/cwbudde/ultrasound/internal/testutil"
)

const testRate = 8000

func newEngine(t *testing.T, open audio.Opener) *audio.Engine {
	t.Helper()

	cfg := audio.DefaultConfig()
	cfg.SampleRate = testRate
	e := audio.NewEngine(cfg, audio.WithDevice(open))
	t.Cleanup(func() { _ = e.Close() })

	return e
}

// addTracks writes n WAV files of frames each and adds them to a library.
func addTracks(t *testing.T, rate, frames int, names ...string) *library.Library {
	t.Helper()

	dir := t.TempDir()
	lib := library.New()
	t.Cleanup(lib.Close)

	paths := make([]string, len(names))
	for i, n := range names {
		paths[i] = testutil.WriteWAV(t, dir, n, rate, frames)
	}
	_, err := lib.AddPaths(context.Background(), paths...)
	require.NoError(t, err)

	return lib
}

func renderFrames(e *audio.Engine, n int) [][2]float64 {
	out := make([][2]float64, n)
	e.Render(out)
	return out
}

func TestDriver_PlayAndEnd(t *testing.T) {
	e := newEngine(t, audio.PullDevice())
	lib := addTracks(t, testRate, 1000, "a.wav")

	var states []State
	d := New(e, lib.Playlist(), WithOnChange(func(s Session) { states = append(states, s.State) }))
	tracks := lib.Playlist().Tracks()

	require.Equal(t, StateIdle, d.Session().State)
	require.NoError(t, d.Load(context.Background(), tracks[0]))
	require.Equal(t, StateStopped, d.Session().State)
	assert.Equal(t, 125*time.Millisecond, d.Session().Duration)

	require.NoError(t, d.Play(context.Background()))
	assert.True(t, d.Playing())
	assert.Equal(t, audio.StateRunning, e.State())

	out := renderFrames(e, 512)
	assert.Greater(t, testutil.RMS(testutil.Mono(out, 0)), 0.1)
	assert.InDelta(t, float64(64*time.Millisecond), float64(d.Session().Position), float64(time.Millisecond))

	renderFrames(e, 1024)
	s := d.Session()
	assert.Equal(t, StateStopped, s.State)
	assert.Zero(t, s.Position)
	assert.NoError(t, s.LastError)
	assert.True(t, s.Ended)
	assert.Equal(t, []State{StateStopped, StatePlaying, StateStopped}, states)

	// Stopped media is silent.
	out = renderFrames(e, 256)
	assert.Zero(t, testutil.RMS(testutil.Mono(out, 0)))
}

func TestDriver_PauseResume(t *testing.T) {
	e := newEngine(t, audio.PullDevice())
	lib := addTracks(t, testRate, 8000, "a.wav")
	d := New(e, lib.Playlist())
	ctx := context.Background()

	require.NoError(t, d.PlayTrack(ctx, lib.Playlist().Tracks()[0]))
	renderFrames(e, 800)
	d.Pause()
	require.Equal(t, StatePaused, d.Session().State)

	pos := d.Session().Position
	out := renderFrames(e, 800)
	assert.Zero(t, testutil.RMS(testutil.Mono(out, 0)))
	assert.Equal(t, pos, d.Session().Position)

	require.NoError(t, d.Resume(ctx))
	assert.Equal(t, StatePlaying, d.Session().State)

	require.NoError(t, d.TogglePause(ctx))
	assert.Equal(t, StatePaused, d.Session().State)
	require.NoError(t, d.TogglePause(ctx))
	assert.Equal(t, StatePlaying, d.Session().State)

	d.Stop()
	assert.Equal(t, StateStopped, d.Session().State)
	assert.Zero(t, d.Session().Position)
}

func TestDriver_NoConnectionLeak(t *testing.T) {
	e := newEngine(t, audio.PullDevice())
	lib := addTracks(t, testRate, 400, "a.wav", "b.wav", "c.wav")
	d := New(e, lib.Playlist())
	ctx := context.Background()

	require.NoError(t, d.PlayTrack(ctx, lib.Playlist().Tracks()[0]))
	for range 10 {
		require.NoError(t, d.Next(ctx))
		renderFrames(e, 128)
		require.Equal(t, 1, e.Connections())
	}
}

func TestDriver_NextPreviousWrap(t *testing.T) {
	e := newEngine(t, audio.PullDevice())
	lib := addTracks(t, testRate, 400, "a.wav", "b.wav", "c.wav")
	d := New(e, lib.Playlist())
	ctx := context.Background()
	tracks := lib.Playlist().Tracks()

	current := func() string { return d.Session().Track.ID }

	require.NoError(t, d.Load(ctx, tracks[0]))
	require.NoError(t, d.Next(ctx))
	assert.Equal(t, tracks[1].ID, current())
	require.NoError(t, d.Next(ctx))
	assert.Equal(t, tracks[2].ID, current())
	require.NoError(t, d.Next(ctx))
	assert.Equal(t, tracks[0].ID, current())
	require.NoError(t, d.Previous(ctx))
	assert.Equal(t, tracks[2].ID, current())
	assert.Equal(t, StateStopped, d.Session().State)

	require.NoError(t, d.Play(ctx))
	require.NoError(t, d.Previous(ctx))
	assert.Equal(t, tracks[1].ID, current())
	assert.Equal(t, StatePlaying, d.Session().State)
}

func TestDriver_NextWithoutTracks(t *testing.T) {
	e := newEngine(t, audio.PullDevice())
	d := New(e, &library.Playlist{})

	require.ErrorIs(t, d.Next(context.Background()), ErrNoTrack)
	require.ErrorIs(t, d.Play(context.Background()), ErrNoTrack)
	require.ErrorIs(t, d.Seek(time.Second), ErrNoTrack)
}

func TestDriver_CapabilityMissing(t *testing.T) {
	failing := func(context.Context, audio.DeviceConfig, io.Reader) (audio.Device, error) {
		return nil, errors.New("no audio context")
	}
	e := newEngine(t, failing)
	lib := addTracks(t, testRate, 400, "a.wav")
	d := New(e, lib.Playlist())
	ctx := context.Background()

	require.NoError(t, d.Load(ctx, lib.Playlist().Tracks()[0]))
	for range 2 {
		err := d.Play(ctx)
		require.ErrorIs(t, err, ErrCapabilityMissing)
		require.ErrorIs(t, err, audio.ErrUnavailable)
	}

	s := d.Session()
	assert.Equal(t, StateStopped, s.State)
	assert.ErrorIs(t, s.LastError, ErrCapabilityMissing)
	assert.Equal(t, 0, e.Connections())
}

type refusingDevice struct{}

func (refusingDevice) Resume() error  { return errors.New("not allowed") }
func (refusingDevice) Suspend() error { return nil }
func (refusingDevice) Close() error   { return nil }

func TestDriver_PlaybackBlocked(t *testing.T) {
	refusing := func(context.Context, audio.DeviceConfig, io.Reader) (audio.Device, error) {
		return refusingDevice{}, nil
	}
	e := newEngine(t, refusing)
	lib := addTracks(t, testRate, 400, "a.wav")
	d := New(e, lib.Playlist())

	require.NoError(t, d.Load(context.Background(), lib.Playlist().Tracks()[0]))
	err := d.Play(context.Background())
	require.ErrorIs(t, err, ErrPlaybackBlocked)
	assert.Equal(t, StateStopped, d.Session().State)
	assert.ErrorIs(t, d.Session().LastError, ErrPlaybackBlocked)
}

func TestDriver_UnsupportedFormat(t *testing.T) {
	e := newEngine(t, audio.PullDevice())
	lib := library.New()
	t.Cleanup(lib.Close)

	added, err := lib.AddFiles(context.Background(),
		library.File{Name: "clip.m4a", Size: 4, Data: []byte{0, 0, 0, 0}},
		library.File{Name: "broken.wav", Size: 4, Data: []byte("RIFF")},
	)
	require.NoError(t, err)
	require.Len(t, added, 2)

	d := New(e, lib.Playlist())
	for _, tr := range added {
		err := d.Load(context.Background(), tr)
		require.ErrorIs(t, err, ErrUnsupportedFormat, tr.Name)
		assert.Equal(t, StateStopped, d.Session().State)
		assert.Equal(t, tr.ID, d.Session().Track.ID)

		require.ErrorIs(t, d.Play(context.Background()), ErrUnsupportedFormat)
		assert.False(t, d.Playing())
	}
}

func TestDriver_MissingFile(t *testing.T) {
	e := newEngine(t, audio.PullDevice())
	d := New(e, &library.Playlist{})

	err := d.Load(context.Background(), library.Track{ID: "gone", Format: "wav", Path: "/nonexistent/gone.wav"})
	require.ErrorIs(t, err, ErrSourceUnavailable)
}

func TestDriver_SeekClamps(t *testing.T) {
	e := newEngine(t, audio.PullDevice())
	lib := addTracks(t, testRate, 8000, "a.wav")
	d := New(e, lib.Playlist())

	require.NoError(t, d.Load(context.Background(), lib.Playlist().Tracks()[0]))
	require.NoError(t, d.Seek(250*time.Millisecond))
	assert.Equal(t, 250*time.Millisecond, d.Session().Position)

	require.NoError(t, d.Seek(time.Hour))
	assert.Equal(t, time.Second, d.Session().Position)

	require.NoError(t, d.Seek(-time.Second))
	assert.Zero(t, d.Session().Position)
}

func TestDriver_Volume(t *testing.T) {
	e := newEngine(t, audio.PullDevice())
	lib := addTracks(t, testRate, 4000, "a.wav")
	d := New(e, lib.Playlist())

	assert.Equal(t, DefaultVolume, d.Session().Volume)
	d.SetVolume(2)
	assert.Equal(t, 1.0, d.Session().Volume)
	d.SetVolume(-1)
	assert.Equal(t, 0.0, d.Session().Volume)

	require.NoError(t, d.PlayTrack(context.Background(), lib.Playlist().Tracks()[0]))
	out := renderFrames(e, 512)
	assert.Zero(t, testutil.RMS(testutil.Mono(out, 0)))
}

func TestDriver_ResamplesToEngineRate(t *testing.T) {
	e := newEngine(t, audio.PullDevice())
	lib := addTracks(t, 2*testRate, 4000, "hi.wav")
	d := New(e, lib.Playlist())

	require.NoError(t, d.PlayTrack(context.Background(), lib.Playlist().Tracks()[0]))
	assert.Equal(t, 250*time.Millisecond, d.Session().Duration)

	renderFrames(e, 1000)
	// The resampler reads ahead of what it has emitted.
	pos := d.Session().Position
	assert.GreaterOrEqual(t, pos, 115*time.Millisecond)
	assert.Less(t, pos, 200*time.Millisecond)

	renderFrames(e, 2000)
	assert.Equal(t, StateStopped, d.Session().State)
}

func TestDriver_Close(t *testing.T) {
	e := newEngine(t, audio.PullDevice())
	lib := addTracks(t, testRate, 400, "a.wav")
	d := New(e, lib.Playlist())

	require.NoError(t, d.Load(context.Background(), lib.Playlist().Tracks()[0]))
	require.NoError(t, d.Close())
	s := d.Session()
	assert.Equal(t, StateIdle, s.State)
	assert.Nil(t, s.Track)
}

// endEngine hands the end callback to the test instead of calling it.
type endEngine struct {
	onEnd func()
	src   beep.Streamer
}

func (*endEngine) Activate(context.Context) error { return nil }
func (e *endEngine) Connect(src beep.Streamer) { e.src = src }
func (*endEngine) SampleRate() int { return testRate }
func (e *endEngine) OnSourceEnd(fn func()) { e.onEnd = fn }

func TestDriver_LateEndAfterNextIsIgnored(t *testing.T) {
	e := &endEngine{}
	lib := addTracks(t, testRate, 400, "a.wav", "b.wav")
	d := New(e, lib.Playlist())
	ctx := context.Background()
	tracks := lib.Playlist().Tracks()

	require.NoError(t, d.PlayTrack(ctx, tracks[0]))
	require.NoError(t, d.Next(ctx))
	require.Equal(t, tracks[1].ID, d.Session().Track.ID)
	require.Equal(t, StatePlaying, d.Session().State)

	// The drain of track a is reported after b was loaded.
	e.onEnd()

	s := d.Session()
	assert.Equal(t, tracks[1].ID, s.Track.ID)
	assert.Equal(t, StatePlaying, s.State)
	assert.False(t, s.Ended)

	// Draining b itself still ends it.
	buf := make([][2]float64, 1024)
	for range 4 {
		e.src.Stream(buf)
	}
	e.onEnd()
	s = d.Session()
	assert.Equal(t, StateStopped, s.State)
	assert.True(t, s.Ended)
}
