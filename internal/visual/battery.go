package visual

import (
	"math"
	"sync"
	"time"
)

// Battery gate constants.
const (
	ChargeDuration   = 12 * time.Second
	MaxCapacityWatts = 80000
	ChargerWatts     = 200000
)

// Battery is the charge display.
type Battery struct {
	Percent     int
	Watts       int
	OutputPower int
	Unlocked    bool
}

// BatteryGate charges from the first frame it sees and unlocks at 100%.
type BatteryGate struct {
	mu      sync.Mutex
	started time.Time
	state   Battery
}

func NewBatteryGate() *BatteryGate { return &BatteryGate{} }

func (*BatteryGate) Name() string { return "Battery" }

func (b *BatteryGate) Update(f Frame) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.state.Unlocked {
		return nil
	}
	if b.started.IsZero() {
		b.started = f.Now
	}

	progress := math.Min(1, float64(f.Now.Sub(b.started))/float64(ChargeDuration))
	pct := int(math.Round(progress * 100))
	watts := int(math.Round(float64(pct) / 100 * MaxCapacityWatts))
	b.state = Battery{
		Percent:     pct,
		Watts:       watts,
		OutputPower: int(math.Round(float64(watts) * 0.85)),
		Unlocked:    pct >= 100,
	}

	return nil
}

func (b *BatteryGate) Reset() {
	b.mu.Lock()
	b.started = time.Time{}
	b.state = Battery{}
	b.mu.Unlock()
}

// State returns the current charge.
func (b *BatteryGate) State() Battery {
	b.mu.Lock()
	defer b.mu.Unlock()

	return b.state
}

// Unlocked reports whether charging finished.
func (b *BatteryGate) Unlocked() bool {
	return b.State().Unlocked
}
