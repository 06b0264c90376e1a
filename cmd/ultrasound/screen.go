package main

import (
	"context"
	"fmt"
	"io"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/cwbudde/ultrasound/internal/audio"
	"github.com/cwbudde/ultrasound/internal/eq"
	"github.com/cwbudde/ultrasound/internal/library"
	"github.com/cwbudde/ultrasound/internal/playback"
	"github.com/cwbudde/ultrasound/internal/visual"
)

const (
	barRows    = 12
	drawEvery  = 4
	volumeStep = 0.05
	instStep   = 10.0
)

var blocks = []rune(" ▁▂▃▄▅▆▇█")

// screen owns the terminal display and maps key presses to controls.
type screen struct {
	out    io.Writer
	engine *audio.Engine
	mapper *eq.Mapper
	lib    *library.Library
	driver *playback.Driver

	board  *visual.Board
	bars   *visual.SpectrumBars
	magnet *visual.SoundMagnet
	gate   *visual.BatteryGate

	advancing atomic.Bool

	mu         sync.Mutex
	instrument int
	sb         strings.Builder
}

func newScreen(out io.Writer, e *audio.Engine, m *eq.Mapper, lib *library.Library, d *playback.Driver) *screen {
	s := &screen{
		out:    out,
		engine: e,
		mapper: m,
		lib:    lib,
		driver: d,
		bars:   visual.NewSpectrumBars(0),
		magnet: visual.NewSoundMagnet(),
		gate:   visual.NewBatteryGate(),
	}
	s.board = visual.NewBoard(e, d.Playing, nil,
		s.bars,
		visual.NewSpeakerCone(),
		s.gate,
		s.magnet,
		visual.NewProcessorGrid(nil),
	)
	fmt.Fprint(out, "\x1b[2J\x1b[?25l")

	return s
}

// tick is the frame loop task.
func (s *screen) tick(now time.Time) {
	s.board.Tick(now)
	if f := s.board.Last(); f.Index%drawEvery == 0 {
		s.draw(f)
	}
	if sess := s.driver.Session(); sess.Ended && s.advancing.CompareAndSwap(false, true) {
		go func() {
			defer s.advancing.Store(false)
			if !advance(context.Background(), s.driver, s.lib.Playlist(), sess) {
				s.driver.Stop()
			}
		}()
	}
}

func (s *screen) draw(f visual.Frame) {
	s.mu.Lock()
	defer s.mu.Unlock()

	b := &s.sb
	b.Reset()
	b.WriteString("\x1b[H")

	sess := s.driver.Session()
	snap := s.mapper.Snapshot()

	title := "UltraSound Pro"
	if !s.gate.Unlocked() {
		st := s.gate.State()
		title = fmt.Sprintf("Charging %3d%%  %d W", st.Percent, st.Watts)
	}
	fmt.Fprintf(b, "%s\x1b[K\r\n", title)

	track := "no track"
	if sess.Track != nil {
		track = sess.Track.Label()
	}
	fmt.Fprintf(b, "%-8s %s  %s / %s  vol %3.0f%%\x1b[K\r\n",
		sess.State, track, clock(sess.Position), clock(sess.Duration), sess.Volume*100)

	heights := s.bars.Bars()
	for row := barRows - 1; row >= 0; row-- {
		for _, h := range heights {
			c := visual.BarColor(h)
			level := h*barRows - float64(row)
			idx := int(max(0, min(1, level)) * float64(len(blocks)-1))
			fmt.Fprintf(b, "\x1b[38;2;%d;%d;%dm%c", c.R, c.G, c.B, blocks[idx])
		}
		b.WriteString("\x1b[0m\x1b[K\r\n")
	}

	in := snap.Instruments[s.instrument]
	fmt.Fprintf(b, "preset %-18s  boost %d cut %d flat %d  magnet %s\x1b[K\r\n",
		snap.Preset, snap.Boost, snap.Cut, snap.Center, onOff(s.magnet.On()))
	fmt.Fprintf(b, "instrument %-16s %3.0f%% (%+.1f dB)\x1b[K\r\n", in.Name, in.Percent, in.GainDB)

	for _, sec := range s.board.Sections() {
		if err := sec.Err(); err != nil {
			fmt.Fprintf(b, "%s panel stopped, press r to retry\x1b[K\r\n", sec.Name())
		}
	}
	if sess.LastError != nil {
		fmt.Fprintf(b, "error: %v\x1b[K\r\n", sess.LastError)
	}
	for _, n := range s.lib.Notices().Active() {
		fmt.Fprintf(b, "%s\x1b[K\r\n", n.Message)
	}
	b.WriteString("\x1b[J")

	io.WriteString(s.out, b.String())
}

// handleKeys applies key presses until q or ctx ends.
func (s *screen) handleKeys(ctx context.Context, keys <-chan byte) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case k := <-keys:
			if k == 'q' || k == 3 {
				return nil
			}
			s.key(ctx, k)
		}
	}
}

func (s *screen) key(ctx context.Context, k byte) {
	d := s.driver
	switch k {
	case ' ':
		if d.Session().Track == nil {
			if tracks := s.lib.Playlist().Tracks(); len(tracks) > 0 {
				_ = d.PlayTrack(ctx, tracks[0])
			}
			return
		}
		_ = d.TogglePause(ctx)
	case 'n':
		_ = d.Next(ctx)
	case 'p':
		_ = d.Previous(ctx)
	case 's':
		d.Stop()
	case '+', '=':
		d.SetVolume(d.Session().Volume + volumeStep)
	case '-':
		d.SetVolume(d.Session().Volume - volumeStep)
	case '1', '2', '3', '4':
		presets := eq.Presets()
		if i := int(k - '1'); i < len(presets) {
			_ = s.mapper.ApplyPreset(presets[i].Name)
		}
	case ',', '.':
		n := len(s.mapper.Instruments())
		s.mu.Lock()
		if k == ',' {
			s.instrument = (s.instrument + n - 1) % n
		} else {
			s.instrument = (s.instrument + 1) % n
		}
		s.mu.Unlock()
	case 'j', 'k':
		s.mu.Lock()
		id := s.instrument
		s.mu.Unlock()
		pct := s.mapper.Snapshot().Instruments[id].Percent
		if k == 'j' {
			pct -= instStep
		} else {
			pct += instStep
		}
		_ = s.mapper.SetInstrumentGain(id, pct)
	case 'm':
		s.magnet.Toggle()
	case 'r':
		for _, sec := range s.board.Sections() {
			if sec.Err() != nil {
				sec.Retry()
			}
		}
	}
}

func clock(d time.Duration) string {
	d = d.Round(time.Second)
	return fmt.Sprintf("%d:%02d", int(d.Minutes()), int(d.Seconds())%60)
}

func onOff(v bool) string {
	if v {
		return "on"
	}
	return "off"
}
