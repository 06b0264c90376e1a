//go:build !headless

package main

import (
	"github.com/cwbudde/ultrasound/internal/audio"
	"github.com/cwbudde/ultrasound/internal/otodevice"
)

func deviceOpener(headless bool) audio.Opener {
	if headless {
		return audio.NullDevice()
	}
	return otodevice.Opener()
}
