package library

import "errors"

var (
	// ErrUnsupportedFile reports a file outside the format allow-list.
	ErrUnsupportedFile = errors.New("library: unsupported file")

	// ErrInvalidURL reports a stream URL that is not absolute http(s).
	ErrInvalidURL = errors.New("library: invalid stream url")

	// ErrNoDecoder reports a format that is accepted but cannot be decoded.
	ErrNoDecoder = errors.New("library: no decoder for format")

	ErrProbeTimeout = errors.New("library: duration probe timed out")
)
