package playback

import "errors"

var (
	// ErrCapabilityMissing reports that the runtime cannot process audio.
	// Playback controls should be disabled; retrying will not help.
	ErrCapabilityMissing = errors.New("playback: audio processing not supported")

	// ErrPlaybackBlocked reports that the output refused to start, e.g.
	// without a user gesture. Retry is allowed.
	ErrPlaybackBlocked = errors.New("playback: playback blocked")

	// ErrUnsupportedFormat reports a track that could not be decoded.
	ErrUnsupportedFormat = errors.New("playback: unsupported format")

	// ErrSourceUnavailable reports a track whose bytes could not be opened.
	ErrSourceUnavailable = errors.New("playback: source unavailable")

	ErrNoTrack = errors.New("playback: no track loaded")
)
