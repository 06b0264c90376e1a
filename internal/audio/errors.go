package audio

import "errors"

var (
	// ErrUnavailable reports that the runtime has no usable audio output.
	// It is terminal: the engine never retries after returning it.
	ErrUnavailable = errors.New("audio: processing unavailable")

	// ErrResumeRejected reports that the device refused to resume.
	ErrResumeRejected = errors.New("audio: resume rejected")

	// ErrClosed is returned by operations on a closed engine.
	ErrClosed = errors.New("audio: engine closed")

	// ErrBandIndex reports a band index outside [0, BandCount).
	ErrBandIndex = errors.New("audio: band index out of range")
)
