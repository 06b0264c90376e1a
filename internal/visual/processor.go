package visual

import (
	"math/rand/v2"
	"slices"
	"sync"
	"time"
)

// ChipStatus is the state of one processor chip.
type ChipStatus int

const (
	ChipActive ChipStatus = iota
	ChipFixing
	ChipFixed
)

func (s ChipStatus) Readout() string {
	switch s {
	case ChipFixing:
		return "FIXING..."
	case ChipFixed:
		return "FIXED"
	default:
		return "OK"
	}
}

// Chip is one cell of the processor grid.
type Chip struct {
	Name   string
	Status ChipStatus
}

// Issue is a detected signal problem shown until it is fixed and cleared.
type Issue struct {
	ID      string
	Type    string
	Message string
	Fixed   bool
}

var chipNames = []string{
	"DSP Core 1", "DSP Core 2", "EQ Processor", "Limiter", "Compressor",
	"Reverb Unit", "Delay Line", "Noise Gate", "Stereo Widener", "Bass Enhancer",
	"Treble Boost", "Mid Scoop", "Harmonic Gen", "Phase Align", "Dynamic EQ",
	"Multiband Comp", "Transient Shaper", "Exciter", "De-Esser", "Master Limiter",
}

// Processor grid timing, in frames and wall time.
const (
	ProcessorBars  = 32
	detectEvery    = 30
	animateEvery   = 90
	fixAfter       = 1500 * time.Millisecond
	clearFixedTime = 2 * time.Second
)

// ProcessorGrid shows per-chip status, a coarse spectrum and auto-fix
// issues detected from the spectrum.
type ProcessorGrid struct {
	mu       sync.Mutex
	rng      *rand.Rand
	chips    []Chip
	bars     [ProcessorBars]float64
	issues   []Issue
	issuesAt time.Time
}

// NewProcessorGrid returns a grid whose chip animation draws from rng. A nil
// rng uses a fixed seed.
func NewProcessorGrid(rng *rand.Rand) *ProcessorGrid {
	if rng == nil {
		rng = rand.New(rand.NewPCG(1, 2))
	}
	g := &ProcessorGrid{rng: rng}
	g.Reset()

	return g
}

func (*ProcessorGrid) Name() string { return "Processor" }

func (g *ProcessorGrid) Update(f Frame) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.expireIssues(f.Now)

	if !f.Live() {
		clear(g.bars[:])
		return nil
	}

	step := max(1, len(f.Spectrum)/ProcessorBars)
	for i := range g.bars {
		if k := i * step; k < len(f.Spectrum) {
			g.bars[i] = float64(f.Spectrum[k]) / 255
		}
	}

	if f.Index%detectEvery != 0 {
		return nil
	}
	if found := detectIssues(f); len(found) > 0 {
		g.issues = found
		g.issuesAt = f.Now
	}
	if f.Index%animateEvery == 0 {
		g.animateChips()
	}

	return nil
}

func detectIssues(f Frame) []Issue {
	avg := f.Level * 255

	var out []Issue
	if f.Peak > 240 {
		out = append(out, Issue{ID: "clip", Type: "Clipping", Message: "Peak level exceeding threshold, applying limiter"})
	}
	if avg < 5 {
		out = append(out, Issue{ID: "stutter", Type: "Buffer Drop", Message: "Low signal detected, checking buffer"})
	}
	if avg > 180 {
		out = append(out, Issue{ID: "distort", Type: "Distortion", Message: "High RMS detected, reducing gain"})
	}

	return out
}

func (g *ProcessorGrid) expireIssues(now time.Time) {
	if len(g.issues) == 0 {
		return
	}
	age := now.Sub(g.issuesAt)
	switch {
	case age >= fixAfter+clearFixedTime:
		g.issues = nil
	case age >= fixAfter:
		for i := range g.issues {
			g.issues[i].Fixed = true
		}
	}
}

func (g *ProcessorGrid) animateChips() {
	for i, c := range g.chips {
		switch {
		case g.rng.Float64() < 0.1:
			g.chips[i].Status = ChipFixing
		case c.Status == ChipFixing:
			g.chips[i].Status = ChipFixed
		case c.Status == ChipFixed:
			g.chips[i].Status = ChipActive
		}
	}
}

func (g *ProcessorGrid) Reset() {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.chips = make([]Chip, len(chipNames))
	for i, n := range chipNames {
		g.chips[i] = Chip{Name: n}
	}
	clear(g.bars[:])
	g.issues = nil
}

// Chips returns the grid cells.
func (g *ProcessorGrid) Chips() []Chip {
	g.mu.Lock()
	defer g.mu.Unlock()

	return slices.Clone(g.chips)
}

// Bars returns the coarse spectrum in [0, 1].
func (g *ProcessorGrid) Bars() [ProcessorBars]float64 {
	g.mu.Lock()
	defer g.mu.Unlock()

	return g.bars
}

// Issues returns the visible issues.
func (g *ProcessorGrid) Issues() []Issue {
	g.mu.Lock()
	defer g.mu.Unlock()

	return slices.Clone(g.issues)
}
