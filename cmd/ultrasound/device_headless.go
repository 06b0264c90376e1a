//go:build headless

package main

import "github.com/cwbudde/ultrasound/internal/audio"

func deviceOpener(bool) audio.Opener {
	return audio.NullDevice()
}
