//go:build !headless

// Package otodevice plays the engine output through the system sound card
// using oto.
package otodevice

import (
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/ebitengine/oto/v3"

	"github.com/cwbudde/ultrasound/internal/audio"
)

// Opener returns an audio.Opener backed by an oto context. oto allows one
// context per process, so the opener must be used by a single engine.
func Opener() audio.Opener {
	return open
}

func open(ctx context.Context, cfg audio.DeviceConfig, src io.Reader) (audio.Device, error) {
	op := &oto.NewContextOptions{
		SampleRate:   cfg.SampleRate,
		ChannelCount: 2,
		Format:       oto.FormatFloat32LE,
		BufferSize:   cfg.Buffer,
	}

	octx, ready, err := oto.NewContext(op)
	if err != nil {
		return nil, fmt.Errorf("otodevice: new context: %w", err)
	}

	select {
	case <-ready:
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	return &device{ctx: octx, player: octx.NewPlayer(src)}, nil
}

type device struct {
	ctx    *oto.Context
	player *oto.Player

	mu      sync.Mutex
	started bool
}

func (d *device) Resume() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if !d.started {
		d.player.Play()
		d.started = true
		return nil
	}

	return d.ctx.Resume()
}

func (d *device) Suspend() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if !d.started {
		return nil
	}

	return d.ctx.Suspend()
}

func (d *device) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.started = false

	return d.player.Close()
}
