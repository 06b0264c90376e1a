package visual

import "sync"

const (
	magnetIdleLevel = 0.3
	magnetRings     = 5
)

// SoundMagnet is a rotating ring display. Toggle is the only control.
type SoundMagnet struct {
	mu    sync.Mutex
	on    bool
	angle float64
	level float64
}

func NewSoundMagnet() *SoundMagnet { return &SoundMagnet{} }

func (*SoundMagnet) Name() string { return "Sound Magnet" }

// Toggle switches the magnet and returns the new state.
func (m *SoundMagnet) Toggle() bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.on = !m.on

	return m.on
}

// On reports whether the magnet is on.
func (m *SoundMagnet) On() bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.on
}

func (m *SoundMagnet) Update(f Frame) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.on {
		return nil
	}
	m.level = magnetIdleLevel
	if f.Live() {
		m.level = f.Level
	}
	m.angle += 0.02 + m.level*0.05

	return nil
}

func (m *SoundMagnet) Reset() {
	m.mu.Lock()
	m.angle, m.level = 0, 0
	m.mu.Unlock()
}

// Angle returns the rotation in radians.
func (m *SoundMagnet) Angle() float64 {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.angle
}

// RingRadii returns the radius of each ring for the current level.
func (m *SoundMagnet) RingRadii() [magnetRings]float64 {
	m.mu.Lock()
	defer m.mu.Unlock()

	var r [magnetRings]float64
	for i := range r {
		r[i] = 20 + float64(i)*18 + m.level*15
	}

	return r
}
