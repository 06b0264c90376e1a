package eq

import (
	"sync"
	"time"
)

// Debouncer delays a per-key action until the key has been quiet for the
// configured delay. Only the last value triggered for a key is delivered.
type Debouncer struct {
	delay time.Duration
	fn    func(key int, value float64)

	mu      sync.Mutex
	pending map[int]*pendingCall
	gen     uint64
	stopped bool
}

type pendingCall struct {
	value float64
	gen   uint64
	timer *time.Timer
}

// NewDebouncer returns a Debouncer that calls fn on its own goroutine once a
// key has been quiet for delay.
func NewDebouncer(delay time.Duration, fn func(key int, value float64)) *Debouncer {
	return &Debouncer{
		delay:   delay,
		fn:      fn,
		pending: make(map[int]*pendingCall),
	}
}

// Trigger schedules fn(key, value), replacing any pending call for key.
func (d *Debouncer) Trigger(key int, value float64) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.stopped {
		return ErrDebouncerStopped
	}

	if p, ok := d.pending[key]; ok {
		p.timer.Stop()
	}
	d.gen++
	gen := d.gen
	d.pending[key] = &pendingCall{
		value: value,
		gen:   gen,
		timer: time.AfterFunc(d.delay, func() { d.fire(key, gen) }),
	}

	return nil
}

func (d *Debouncer) fire(key int, gen uint64) {
	d.mu.Lock()
	p, ok := d.pending[key]
	if !ok || p.gen != gen {
		d.mu.Unlock()
		return
	}
	delete(d.pending, key)
	d.mu.Unlock()

	d.fn(key, p.value)
}

// Pending returns the number of keys waiting to fire.
func (d *Debouncer) Pending() int {
	d.mu.Lock()
	defer d.mu.Unlock()

	return len(d.pending)
}

// Flush runs every pending call now, on the caller's goroutine.
func (d *Debouncer) Flush() {
	d.mu.Lock()
	calls := d.drainLocked()
	d.mu.Unlock()

	for key, p := range calls {
		d.fn(key, p.value)
	}
}

// Cancel drops every pending call.
func (d *Debouncer) Cancel() {
	d.mu.Lock()
	d.drainLocked()
	d.mu.Unlock()
}

// Stop cancels pending calls and rejects further triggers.
func (d *Debouncer) Stop() {
	d.mu.Lock()
	d.stopped = true
	d.drainLocked()
	d.mu.Unlock()
}

func (d *Debouncer) drainLocked() map[int]*pendingCall {
	calls := d.pending
	for _, p := range calls {
		p.timer.Stop()
	}
	d.pending = make(map[int]*pendingCall)

	return calls
}
