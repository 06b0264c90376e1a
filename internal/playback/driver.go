// Package playback drives one media element through the audio engine and
// keeps the playback session state.
package playback

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"sync"
	"time"

	"github.com/gopxl/beep/v2"

	"github.com/cwbudde/ultrasound/internal/audio"
	"github.com/cwbudde/ultrasound/internal/library"
)

// State is the playback state.
type State int

const (
	StateIdle State = iota
	StateStopped
	StatePlaying
	StatePaused
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateStopped:
		return "stopped"
	case StatePlaying:
		return "playing"
	case StatePaused:
		return "paused"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Engine is the part of *audio.Engine the driver uses.
type Engine interface {
	Activate(ctx context.Context) error
	Connect(src beep.Streamer)
	SampleRate() int
	OnSourceEnd(fn func())
}

// Session is a snapshot of the playback state.
type Session struct {
	Track     *library.Track
	Position  time.Duration
	Duration  time.Duration
	Volume    float64
	State     State
	LastError error
	// Ended is set when the track played to its end.
	Ended bool
}

// Option configures a Driver.
type Option func(*Driver)

// WithLogger sets the logger.
func WithLogger(l *log.Logger) Option {
	return func(d *Driver) { d.logger = l }
}

// WithOnChange registers fn to run after every state transition, outside
// the driver lock.
func WithOnChange(fn func(Session)) Option {
	return func(d *Driver) { d.onChange = fn }
}

// Driver is the playback state machine over a single media element.
type Driver struct {
	engine   Engine
	playlist *library.Playlist
	media    *Media
	logger   *log.Logger
	onChange func(Session)

	mu       sync.Mutex
	state    State
	track    *library.Track
	duration time.Duration
	lastErr  error
	ended    bool
}

// New returns an idle driver. It registers the end-of-source handler on
// engine.
func New(engine Engine, playlist *library.Playlist, opts ...Option) *Driver {
	d := &Driver{
		engine:   engine,
		playlist: playlist,
		media:    NewMedia(),
		logger:   log.New(io.Discard, "", 0),
	}
	for _, o := range opts {
		o(d)
	}
	engine.OnSourceEnd(d.handleEnd)

	return d
}

// Media returns the element connected to the engine.
func (d *Driver) Media() *Media { return d.media }

// Load makes t the current track: the previous stream is closed and t is
// opened and decoded. The state becomes stopped. On failure the track stays
// current without a stream and the error is recorded.
func (d *Driver) Load(ctx context.Context, t library.Track) error {
	d.mu.Lock()
	err := d.loadLocked(ctx, t)
	s := d.sessionLocked()
	d.mu.Unlock()

	d.notify(s)

	return err
}

func (d *Driver) loadLocked(ctx context.Context, t library.Track) error {
	if err := d.media.swap(nil, beep.Format{}, 0); err != nil {
		d.logger.Printf("[playback] close previous stream: %v", err)
	}
	d.track = &t
	d.state = StateStopped
	d.lastErr = nil
	d.ended = false
	d.duration = t.Duration

	rc, err := t.Open(ctx)
	if err != nil {
		d.lastErr = fmt.Errorf("%w: %s: %w", ErrSourceUnavailable, t.Label(), err)
		return d.lastErr
	}

	stream, format, err := library.Decode(rc, t.Format)
	if err != nil {
		d.lastErr = fmt.Errorf("%w: %s: %w", ErrUnsupportedFormat, t.Label(), err)
		d.logger.Printf("[playback] %v", d.lastErr)
		return d.lastErr
	}

	if err := d.media.swap(stream, format, beep.SampleRate(d.engine.SampleRate())); err != nil {
		d.logger.Printf("[playback] swap stream: %v", err)
	}
	if dur := d.media.duration(); dur > 0 {
		d.duration = dur
	}

	return nil
}

// Play starts the current track. The first call builds the audio chain.
// An unusable runtime yields ErrCapabilityMissing with the state unchanged;
// a refused output yields ErrPlaybackBlocked and the state becomes stopped.
func (d *Driver) Play(ctx context.Context) error {
	d.mu.Lock()
	err := d.playLocked(ctx)
	s := d.sessionLocked()
	d.mu.Unlock()

	d.notify(s)

	return err
}

func (d *Driver) playLocked(ctx context.Context) error {
	if d.track == nil {
		return ErrNoTrack
	}
	if d.state == StatePlaying {
		return nil
	}

	if err := d.engine.Activate(ctx); err != nil {
		if errors.Is(err, audio.ErrUnavailable) {
			d.lastErr = fmt.Errorf("%w: %w", ErrCapabilityMissing, err)
			return d.lastErr
		}
		d.lastErr = fmt.Errorf("%w: %w", ErrPlaybackBlocked, err)
		d.state = StateStopped
		return d.lastErr
	}

	if !d.media.loaded() {
		if d.lastErr == nil {
			d.lastErr = ErrNoTrack
		}
		return d.lastErr
	}

	d.engine.Connect(d.media)
	d.media.setPaused(false)
	d.state = StatePlaying
	d.ended = false
	d.lastErr = nil
	d.logger.Printf("[playback] playing %s", d.track.Label())

	return nil
}

// PlayTrack loads t and plays it.
func (d *Driver) PlayTrack(ctx context.Context, t library.Track) error {
	if err := d.Load(ctx, t); err != nil {
		return err
	}

	return d.Play(ctx)
}

// Pause pauses a playing track.
func (d *Driver) Pause() {
	d.mu.Lock()
	changed := d.state == StatePlaying
	if changed {
		d.media.setPaused(true)
		d.state = StatePaused
	}
	s := d.sessionLocked()
	d.mu.Unlock()

	if changed {
		d.notify(s)
	}
}

// Resume continues a paused track.
func (d *Driver) Resume(ctx context.Context) error {
	d.mu.Lock()
	paused := d.state == StatePaused
	d.mu.Unlock()

	if !paused {
		return nil
	}

	return d.Play(ctx)
}

// TogglePause pauses when playing and plays otherwise.
func (d *Driver) TogglePause(ctx context.Context) error {
	if d.Playing() {
		d.Pause()
		return nil
	}

	return d.Play(ctx)
}

// Stop halts playback and rewinds.
func (d *Driver) Stop() {
	d.mu.Lock()
	if d.state == StateIdle {
		d.mu.Unlock()
		return
	}
	d.stopLocked()
	s := d.sessionLocked()
	d.mu.Unlock()

	d.notify(s)
}

func (d *Driver) stopLocked() {
	d.ended = false
	d.media.setPaused(true)
	d.media.seek(0)
	d.state = StateStopped
}

// Seek moves the position, clamped to the track length.
func (d *Driver) Seek(pos time.Duration) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.state == StateIdle {
		return ErrNoTrack
	}
	d.media.seek(max(0, pos))

	return nil
}

// Next loads the following playlist entry, wrapping at the end, and plays
// it if a track was playing.
func (d *Driver) Next(ctx context.Context) error { return d.step(ctx, 1) }

// Previous loads the preceding playlist entry, wrapping at the start, and
// plays it if a track was playing.
func (d *Driver) Previous(ctx context.Context) error { return d.step(ctx, -1) }

func (d *Driver) step(ctx context.Context, delta int) error {
	d.mu.Lock()
	wasPlaying := d.state == StatePlaying
	id := ""
	if d.track != nil {
		id = d.track.ID
	}
	d.mu.Unlock()

	t, ok := d.playlist.Neighbor(id, delta)
	if !ok {
		return ErrNoTrack
	}
	if err := d.Load(ctx, t); err != nil {
		return err
	}
	if wasPlaying {
		return d.Play(ctx)
	}

	return nil
}

// SetVolume sets the media volume, clamped to [0, 1].
func (d *Driver) SetVolume(v float64) {
	d.media.SetVolume(v)
}

// Playing reports whether a track is playing.
func (d *Driver) Playing() bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	return d.state == StatePlaying
}

// Session returns the current session snapshot.
func (d *Driver) Session() Session {
	d.mu.Lock()
	defer d.mu.Unlock()

	return d.sessionLocked()
}

func (d *Driver) sessionLocked() Session {
	s := Session{
		Position:  d.media.position(),
		Duration:  d.duration,
		Volume:    d.media.Volume(),
		State:     d.state,
		LastError: d.lastErr,
		Ended:     d.ended,
	}
	if d.track != nil {
		t := *d.track
		s.Track = &t
	}

	return s
}

// Close releases the current stream.
func (d *Driver) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.state = StateIdle
	d.track = nil

	return d.media.swap(nil, beep.Format{}, 0)
}

// handleEnd runs when the connected stream drains. Calls that arrive after
// another track was loaded are ignored.
func (d *Driver) handleEnd() {
	d.mu.Lock()
	if d.state != StatePlaying || !d.media.ended() {
		d.mu.Unlock()
		return
	}
	if err := d.media.Err(); err != nil {
		d.lastErr = fmt.Errorf("%w: %w", ErrUnsupportedFormat, err)
	}
	d.stopLocked()
	d.ended = true
	s := d.sessionLocked()
	d.mu.Unlock()

	d.logger.Printf("[playback] track ended")
	d.notify(s)
}

func (d *Driver) notify(s Session) {
	if d.onChange != nil {
		d.onChange(s)
	}
}
