package library

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/go-audio/wav"
)

// DefaultProbeTimeout bounds how long a duration probe may take.
const DefaultProbeTimeout = 3 * time.Second

// ProbeDuration reads the track's length. Streams, undecodable formats,
// failures and timeouts all yield 0.
func ProbeDuration(ctx context.Context, t Track, timeout time.Duration) time.Duration {
	if t.IsStream {
		return 0
	}

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	rc, err := t.Open(ctx)
	if err != nil {
		return 0
	}

	type result struct {
		d   time.Duration
		err error
	}
	done := make(chan result, 1)
	go func() {
		d, err := probe(rc, t.Format)
		done <- result{d, err}
	}()

	select {
	case r := <-done:
		if r.err != nil {
			return 0
		}
		return r.d
	case <-ctx.Done():
		// Closing the reader unblocks the probe goroutine.
		rc.Close()
		return 0
	}
}

func probe(rc io.ReadCloser, format string) (time.Duration, error) {
	if format == "wav" {
		defer rc.Close()

		rs, ok := rc.(io.ReadSeeker)
		if !ok {
			return 0, fmt.Errorf("library: wav source is not seekable")
		}
		dec := wav.NewDecoder(rs)
		if !dec.IsValidFile() {
			return 0, fmt.Errorf("library: invalid wav file")
		}
		return dec.Duration()
	}

	s, f, err := Decode(rc, format)
	if err != nil {
		return 0, err
	}
	defer s.Close()

	return f.SampleRate.D(s.Len()), nil
}
