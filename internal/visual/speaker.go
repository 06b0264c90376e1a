package visual

import (
	"math"
	"sync"
)

// Speaker is one simulated cone.
type Speaker struct {
	Label string
	DB    float64
	Watts float64
	Scale float64
	Glow  float64
}

var speakerLabels = [3]string{"Left", "Center", "Right"}

const silentDB = -60.0

// SpeakerCone drives three speaker cones from the overall spectrum level,
// offset per channel.
type SpeakerCone struct {
	mu       sync.Mutex
	speakers [3]Speaker
}

func NewSpeakerCone() *SpeakerCone {
	c := &SpeakerCone{}
	c.Reset()

	return c
}

func (*SpeakerCone) Name() string { return "Speakers" }

func (c *SpeakerCone) Update(f Frame) error {
	if !f.Live() {
		c.Reset()
		return nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	for i := range c.speakers {
		offset := float64(i-1) * 0.1
		n := math.Max(0, math.Min(1, f.Level+offset))
		db := silentDB
		if n > 0 {
			db = math.Round(20 * math.Log10(n+0.001))
		}
		c.speakers[i] = Speaker{
			Label: speakerLabels[i],
			DB:    db,
			Watts: math.Round(n * 60 * 2.5),
			Scale: 1 + n*0.15,
			Glow:  n,
		}
	}

	return nil
}

func (c *SpeakerCone) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()

	for i := range c.speakers {
		c.speakers[i] = Speaker{Label: speakerLabels[i], DB: silentDB, Scale: 1}
	}
}

// Speakers returns Left, Center and Right.
func (c *SpeakerCone) Speakers() [3]Speaker {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.speakers
}
