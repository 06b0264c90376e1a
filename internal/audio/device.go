package audio

import (
	"context"
	"io"
	"sync"
	"time"
)

// BytesPerFrame is the size of one interleaved stereo float32 frame.
const BytesPerFrame = 8

// Device is an opened audio output that pulls interleaved stereo float32
// little-endian frames from the reader it was opened with.
type Device interface {
	// Resume starts or restarts pulling. It may be refused by the platform.
	Resume() error
	// Suspend stops pulling without releasing the device.
	Suspend() error
	Close() error
}

// DeviceConfig is passed to an Opener.
type DeviceConfig struct {
	SampleRate int
	Buffer     time.Duration
}

// Opener opens the output device. It is called at most once per Engine; an
// error means the runtime cannot process audio at all.
type Opener func(ctx context.Context, cfg DeviceConfig, src io.Reader) (Device, error)

// PullDevice returns an Opener for hosts that call Engine.Render themselves,
// such as a browser AudioWorklet driving the WASM build.
func PullDevice() Opener {
	return func(context.Context, DeviceConfig, io.Reader) (Device, error) {
		return &pullDevice{}, nil
	}
}

type pullDevice struct{}

func (*pullDevice) Resume() error  { return nil }
func (*pullDevice) Suspend() error { return nil }
func (*pullDevice) Close() error   { return nil }

// NullDevice returns an Opener that drains the engine at real-time pace and
// discards the audio. Used by headless builds so the analyser and end-of-track
// events behave as with a sound card.
func NullDevice() Opener {
	return func(_ context.Context, cfg DeviceConfig, src io.Reader) (Device, error) {
		period := cfg.Buffer
		if period <= 0 {
			period = 20 * time.Millisecond
		}
		frames := cfg.SampleRate * int(period/time.Millisecond) / 1000
		if frames < 1 {
			frames = 1
		}

		return &nullDevice{
			src:    src,
			period: period,
			buf:    make([]byte, frames*BytesPerFrame),
		}, nil
	}
}

type nullDevice struct {
	src    io.Reader
	period time.Duration
	buf    []byte

	mu      sync.Mutex
	running bool
	stopCh  chan struct{}
	done    chan struct{}
}

func (d *nullDevice) Resume() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.running {
		return nil
	}
	d.running = true
	d.stopCh = make(chan struct{})
	d.done = make(chan struct{})

	go d.loop(d.stopCh, d.done)

	return nil
}

func (d *nullDevice) loop(stop <-chan struct{}, done chan<- struct{}) {
	defer close(done)

	ticker := time.NewTicker(d.period)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			if _, err := d.src.Read(d.buf); err != nil {
				return
			}
		}
	}
}

func (d *nullDevice) Suspend() error {
	d.mu.Lock()
	if !d.running {
		d.mu.Unlock()
		return nil
	}
	d.running = false
	stop, done := d.stopCh, d.done
	d.mu.Unlock()

	close(stop)
	<-done

	return nil
}

func (d *nullDevice) Close() error {
	return d.Suspend()
}
