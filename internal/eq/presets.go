package eq

import "github.com/cwbudde/ultrasound/internal/audio"

// ManualPreset names the state after any hand edit.
const ManualPreset = "Manual"

// Preset is a named vector of band gains.
type Preset struct {
	Name  string
	Gains [audio.BandCount]float64
}

var presets = []Preset{
	{
		Name:  "Crystal Engine",
		Gains: [audio.BandCount]float64{-2, -1, 0, 0, 1, 2, 3, 4, 5, 6, 7, 7, 6, 5, 4, 3, 2, 1, 0, -1},
	},
	{
		Name:  "Deep Bass Engine",
		Gains: [audio.BandCount]float64{10, 9, 8, 7, 6, 4, 2, 0, -1, -2, -2, -1, 0, 0, 0, -1, -2, -3, -4, -5},
	},
	{
		Name:  "Surround Engine",
		Gains: [audio.BandCount]float64{4, 3, 2, 1, 0, -1, 0, 2, 4, 5, 6, 6, 5, 4, 3, 2, 1, 0, -1, -2},
	},
	{
		Name: "Pure HD Engine",
	},
}

// FlatPreset is the preset whose gains are all zero.
const FlatPreset = "Pure HD Engine"

// Presets returns the preset vocabulary in display order.
func Presets() []Preset {
	return append([]Preset(nil), presets...)
}

// LookupPreset returns the preset named name.
func LookupPreset(name string) (Preset, bool) {
	for _, p := range presets {
		if p.Name == name {
			return p, true
		}
	}

	return Preset{}, false
}
