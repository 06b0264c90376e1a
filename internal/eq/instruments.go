package eq

import (
	"fmt"
	"math"

	"github.com/cwbudde/ultrasound/internal/audio"
)

// Instrument percent limits. 100 is neutral.
const (
	MinPercent     = 0.0
	MaxPercent     = 200.0
	NeutralPercent = 100.0
)

// Instrument is a named slider that aliases one or more bands.
type Instrument struct {
	Name  string
	Color string
	Icon  string
	Bands []int
}

var defaultInstruments = []Instrument{
	{Name: "Conga", Color: "#FF4444", Icon: "kick-drum", Bands: []int{0}},
	{Name: "Bongo Drums", Color: "#FF7F50", Icon: "snare", Bands: []int{1}},
	{Name: "Cello", Color: "#CD853F", Icon: "cello", Bands: []int{2}},
	{Name: "Trombone", Color: "#B8860B", Icon: "trumpet", Bands: []int{3}},
	{Name: "French Horn", Color: "#FF6B35", Icon: "trumpet", Bands: []int{4}},
	{Name: "Accordion", Color: "#FF6B35", Icon: "harmonica", Bands: []int{5}},
	{Name: "Bagpipes", Color: "#87CEEB", Icon: "flute", Bands: []int{6}},
	{Name: "Viola", Color: "#F0E68C", Icon: "violin", Bands: []int{7}},
	{Name: "Acoustic Guitar", Color: "#DEB887", Icon: "acoustic-guitar", Bands: []int{8}},
	{Name: "Banjo", Color: "#CD853F", Icon: "acoustic-guitar", Bands: []int{9}},
	{Name: "Saxophone", Color: "#FFA500", Icon: "saxophone", Bands: []int{10}},
	{Name: "Mandolin", Color: "#FFA500", Icon: "acoustic-guitar", Bands: []int{11}},
	{Name: "Violin", Color: "#DEB887", Icon: "violin", Bands: []int{12}},
	{Name: "Harp", Color: "#FFD700", Icon: "harp", Bands: []int{13}},
	{Name: "Electric Guitar", Color: "#00FF7F", Icon: "electric-guitar", Bands: []int{14}},
	{Name: "Trumpet", Color: "#FFD700", Icon: "trumpet", Bands: []int{15}},
	{Name: "Keyboard", Color: "#E0E0E0", Icon: "piano", Bands: []int{16}},
	{Name: "Tambourine", Color: "#FF8C00", Icon: "hi-hat", Bands: []int{17}},
	{Name: "Maracas", Color: "#98FB98", Icon: "snare", Bands: []int{18}},
	{Name: "Cymbals", Color: "#C0C0C0", Icon: "hi-hat", Bands: []int{19}},
}

// DefaultInstruments returns a copy of the built-in table: twenty
// instruments ordered by frequency, each owning exactly one band.
func DefaultInstruments() []Instrument {
	out := make([]Instrument, len(defaultInstruments))
	for i, inst := range defaultInstruments {
		inst.Bands = append([]int(nil), inst.Bands...)
		out[i] = inst
	}

	return out
}

// ValidateInstruments checks that every instrument links at least one band
// and all band indices are in range.
func ValidateInstruments(table []Instrument) error {
	for i, inst := range table {
		if len(inst.Bands) == 0 {
			return fmt.Errorf("%w: instrument %d (%s) has no bands", ErrInstrumentTable, i, inst.Name)
		}
		for _, b := range inst.Bands {
			if b < 0 || b >= audio.BandCount {
				return fmt.Errorf("%w: instrument %d (%s) links band %d", ErrInstrumentTable, i, inst.Name, b)
			}
		}
	}

	return nil
}

// PercentToDB converts an instrument percentage to a band gain.
func PercentToDB(pct float64) float64 {
	return (ClampPercent(pct) - NeutralPercent) / NeutralPercent * audio.MaxGainDB
}

// DBToPercent converts a band gain to an instrument percentage.
func DBToPercent(gainDB float64) float64 {
	return NeutralPercent + audio.ClampGain(gainDB)/audio.MaxGainDB*NeutralPercent
}

// ClampPercent limits pct to [MinPercent, MaxPercent]. NaN maps to neutral.
func ClampPercent(pct float64) float64 {
	if math.IsNaN(pct) {
		return NeutralPercent
	}

	return math.Max(MinPercent, math.Min(MaxPercent, pct))
}
