package visual

import (
	"io"
	"log"
	"sync"
	"time"

	"github.com/cwbudde/ultrasound/internal/audio"
)

// AnalyserSource yields the analyser once the chain exists. *audio.Engine
// satisfies it.
type AnalyserSource interface {
	Analyser() *audio.Analyser
}

// Board reads the analyser once per tick and hands the same frame to every
// section.
type Board struct {
	source   AnalyserSource
	playing  func() bool
	sections []*Section

	mu    sync.Mutex
	buf   []byte
	index uint64
	last  Frame
}

// NewBoard wraps each panel in a section.
func NewBoard(source AnalyserSource, playing func() bool, logger *log.Logger, panels ...Panel) *Board {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	b := &Board{source: source, playing: playing}
	for _, p := range panels {
		b.sections = append(b.sections, NewSection(p, logger))
	}

	return b
}

// Tick builds one frame and updates every section. It is the frame loop
// task.
func (b *Board) Tick(now time.Time) {
	b.mu.Lock()
	f := b.frameLocked(now)
	b.last = f
	b.mu.Unlock()

	for _, s := range b.sections {
		s.Update(f)
	}
}

func (b *Board) frameLocked(now time.Time) Frame {
	b.index++
	f := Frame{Now: now, Index: b.index, Playing: b.playing()}
	if !f.Playing {
		return f
	}

	a := b.source.Analyser()
	if a == nil {
		return f
	}
	if len(b.buf) != a.FrequencyBinCount() {
		b.buf = make([]byte, a.FrequencyBinCount())
	}
	a.ByteFrequencyData(b.buf)
	f.Spectrum = append([]byte(nil), b.buf...)

	sum := 0
	for _, v := range f.Spectrum {
		sum += int(v)
		f.Peak = max(f.Peak, v)
	}
	f.Level = float64(sum) / float64(len(f.Spectrum)) / 255

	return f
}

// Last returns the most recent frame.
func (b *Board) Last() Frame {
	b.mu.Lock()
	defer b.mu.Unlock()

	return b.last
}

// Sections returns the sections in panel order.
func (b *Board) Sections() []*Section {
	return b.sections
}

// Section returns the section named name, or nil.
func (b *Board) Section(name string) *Section {
	for _, s := range b.sections {
		if s.Name() == name {
			return s
		}
	}

	return nil
}
