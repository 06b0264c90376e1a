package eq

import (
	"fmt"
	"io"
	"log"
	"slices"
	"sync"
	"time"

	"github.com/cwbudde/ultrasound/internal/audio"
)

// DefaultDebounce is the quiet time before a band edit reaches the stage.
const DefaultDebounce = 8 * time.Millisecond

// Origin tags which side of the display started a change. The originating
// side is written directly and never re-derived from the other side.
type Origin int

const (
	OriginBand Origin = iota
	OriginInstrument
	OriginPreset
)

func (o Origin) String() string {
	switch o {
	case OriginBand:
		return "band"
	case OriginInstrument:
		return "instrument"
	case OriginPreset:
		return "preset"
	default:
		return fmt.Sprintf("Origin(%d)", int(o))
	}
}

// Stage receives committed band gains. *audio.Engine satisfies it.
type Stage interface {
	SetBandGain(index int, gainDB float64) error
}

// InstrumentState is one instrument slider with its current value.
type InstrumentState struct {
	Instrument
	Percent float64
	GainDB  float64
}

// Snapshot is a consistent copy of the display state.
type Snapshot struct {
	Bands       [audio.BandCount]audio.Band
	Instruments []InstrumentState
	Preset      string
	Origin      Origin
	// Touched lists the instruments linked to the bands of the last edit.
	Touched []int
	Boost   int
	Cut     int
	Center  int
}

// Option configures a Mapper.
type Option func(*Mapper)

// WithDebounce sets the commit delay for band and instrument edits.
func WithDebounce(d time.Duration) Option {
	return func(m *Mapper) { m.delay = d }
}

// WithInstruments replaces the instrument table. Instruments may link more
// than one band.
func WithInstruments(table []Instrument) Option {
	return func(m *Mapper) { m.instruments = table }
}

// WithLogger sets the logger for commit failures.
func WithLogger(l *log.Logger) Option {
	return func(m *Mapper) { m.logger = l }
}

// Mapper owns band and instrument display state and commits band gains to
// a Stage.
type Mapper struct {
	stage       Stage
	delay       time.Duration
	instruments []Instrument
	logger      *log.Logger

	mu       sync.Mutex
	bands    [audio.BandCount]float64
	percent  []float64
	byBand   [audio.BandCount][]int
	preset   string
	origin   Origin
	touched  []int
	debounce *Debouncer

	subMu  sync.Mutex
	subs   map[int]func(Snapshot)
	nextID int
}

// NewMapper returns a flat mapper committing to stage.
func NewMapper(stage Stage, opts ...Option) (*Mapper, error) {
	m := &Mapper{
		stage:       stage,
		delay:       DefaultDebounce,
		instruments: DefaultInstruments(),
		logger:      log.New(io.Discard, "", 0),
		preset:      FlatPreset,
		subs:        make(map[int]func(Snapshot)),
	}
	for _, o := range opts {
		o(m)
	}
	if err := ValidateInstruments(m.instruments); err != nil {
		return nil, err
	}

	m.percent = make([]float64, len(m.instruments))
	for i, inst := range m.instruments {
		m.percent[i] = NeutralPercent
		for _, b := range inst.Bands {
			m.byBand[b] = append(m.byBand[b], i)
		}
	}
	m.debounce = NewDebouncer(m.delay, m.commit)

	return m, nil
}

// Instruments returns the instrument table.
func (m *Mapper) Instruments() []Instrument {
	return slices.Clone(m.instruments)
}

// SetBandGain updates band index and every instrument linked to it, then
// schedules the commit.
func (m *Mapper) SetBandGain(index int, gainDB float64) error {
	if index < 0 || index >= audio.BandCount {
		return fmt.Errorf("%w: %d", audio.ErrBandIndex, index)
	}

	m.mu.Lock()
	m.apply(OriginBand, -1, map[int]float64{index: audio.ClampGain(gainDB)})
	m.preset = ManualPreset
	err := m.debounce.Trigger(index, m.bands[index])
	snap := m.snapshotLocked()
	m.mu.Unlock()

	m.publish(snap)

	return err
}

// SetInstrumentGain sets instrument id to pct and moves its linked bands,
// then schedules their commits.
func (m *Mapper) SetInstrumentGain(id int, pct float64) error {
	if id < 0 || id >= len(m.instruments) {
		return fmt.Errorf("%w: %d", ErrInstrumentIndex, id)
	}
	pct = ClampPercent(pct)
	gain := PercentToDB(pct)

	m.mu.Lock()
	changes := make(map[int]float64, len(m.instruments[id].Bands))
	for _, b := range m.instruments[id].Bands {
		changes[b] = gain
	}
	m.percent[id] = pct
	m.apply(OriginInstrument, id, changes)
	m.preset = ManualPreset

	var err error
	for _, b := range m.instruments[id].Bands {
		if e := m.debounce.Trigger(b, gain); e != nil {
			err = e
		}
	}
	snap := m.snapshotLocked()
	m.mu.Unlock()

	m.publish(snap)

	return err
}

// ApplyPreset replaces all bands and instruments with the preset named name,
// drops pending commits and commits every band immediately. Subscribers see
// one notification.
func (m *Mapper) ApplyPreset(name string) error {
	p, ok := LookupPreset(name)
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownPreset, name)
	}

	m.mu.Lock()
	m.debounce.Cancel()

	changes := make(map[int]float64, audio.BandCount)
	for i, g := range p.Gains {
		changes[i] = audio.ClampGain(g)
	}
	m.apply(OriginPreset, -1, changes)
	m.preset = p.Name

	var firstErr error
	for i := range m.bands {
		if err := m.stage.SetBandGain(i, m.bands[i]); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	snap := m.snapshotLocked()
	m.mu.Unlock()

	m.publish(snap)

	return firstErr
}

// apply writes changes to the bands and re-derives every instrument linked
// to a changed band, except skip.
func (m *Mapper) apply(origin Origin, skip int, changes map[int]float64) {
	var touched []int
	for b, g := range changes {
		m.bands[b] = g
		for _, id := range m.byBand[b] {
			if !slices.Contains(touched, id) {
				touched = append(touched, id)
			}
		}
	}
	slices.Sort(touched)

	for _, id := range touched {
		if id == skip {
			continue
		}
		m.percent[id] = DBToPercent(m.meanGain(id))
	}

	m.origin = origin
	m.touched = touched
}

func (m *Mapper) meanGain(id int) float64 {
	linked := m.instruments[id].Bands
	sum := 0.0
	for _, b := range linked {
		sum += m.bands[b]
	}

	return sum / float64(len(linked))
}

// commit sends the current display value of band to the stage.
func (m *Mapper) commit(band int, _ float64) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.stage.SetBandGain(band, m.bands[band]); err != nil {
		m.logger.Printf("[eq] commit band %d: %v", band, err)
	}
}

// Flush commits pending edits now.
func (m *Mapper) Flush() {
	m.debounce.Flush()
}

// Pending returns the number of bands waiting to be committed.
func (m *Mapper) Pending() int {
	return m.debounce.Pending()
}

// Close drops pending commits and stops accepting edits.
func (m *Mapper) Close() {
	m.debounce.Stop()
}

// Snapshot returns the current display state.
func (m *Mapper) Snapshot() Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.snapshotLocked()
}

func (m *Mapper) snapshotLocked() Snapshot {
	s := Snapshot{
		Instruments: make([]InstrumentState, len(m.instruments)),
		Preset:      m.preset,
		Origin:      m.origin,
		Touched:     slices.Clone(m.touched),
	}
	for i, g := range m.bands {
		s.Bands[i] = audio.Band{Index: i, FrequencyHz: audio.Frequencies[i], GainDB: g}
		switch {
		case g > 0:
			s.Boost++
		case g < 0:
			s.Cut++
		default:
			s.Center++
		}
	}
	for i, inst := range m.instruments {
		s.Instruments[i] = InstrumentState{
			Instrument: inst,
			Percent:    m.percent[i],
			GainDB:     PercentToDB(m.percent[i]),
		}
	}

	return s
}

// Subscribe registers fn to receive a snapshot after every change. It
// returns a function that removes the subscription.
func (m *Mapper) Subscribe(fn func(Snapshot)) func() {
	m.subMu.Lock()
	id := m.nextID
	m.nextID++
	m.subs[id] = fn
	m.subMu.Unlock()

	return func() {
		m.subMu.Lock()
		delete(m.subs, id)
		m.subMu.Unlock()
	}
}

func (m *Mapper) publish(s Snapshot) {
	m.subMu.Lock()
	fns := make([]func(Snapshot), 0, len(m.subs))
	for _, fn := range m.subs {
		fns = append(fns, fn)
	}
	m.subMu.Unlock()

	for _, fn := range fns {
		fn(s)
	}
}
