package library

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/gopxl/beep/v2"
	"github.com/gopxl/beep/v2/flac"
	"github.com/gopxl/beep/v2/mp3"
	"github.com/gopxl/beep/v2/vorbis"
	beepwav "github.com/gopxl/beep/v2/wav"
)

// Decode decodes rc according to format (see FormatOf). The returned
// streamer owns rc. Formats on the allow-list without a decoder (aac, m4a,
// webm) fail with ErrNoDecoder and rc is closed.
func Decode(rc io.ReadCloser, format string) (beep.StreamSeekCloser, beep.Format, error) {
	var (
		s   beep.StreamSeekCloser
		f   beep.Format
		err error
	)

	switch format {
	case "mp3":
		s, f, err = mp3.Decode(rc)
	case "ogg":
		s, f, err = vorbis.Decode(rc)
	case "wav":
		s, f, err = beepwav.Decode(rc)
		s = ownedStreamer{s, rc}
	case "flac":
		s, f, err = flac.Decode(rc)
		s = ownedStreamer{s, rc}
	default:
		rc.Close()
		return nil, beep.Format{}, fmt.Errorf("%w: %q", ErrNoDecoder, format)
	}
	if err != nil {
		rc.Close()
		return nil, beep.Format{}, fmt.Errorf("library: decode %s: %w", format, err)
	}

	return s, f, nil
}

// ownedStreamer closes the underlying reader for decoders that take a plain
// io.Reader.
type ownedStreamer struct {
	beep.StreamSeekCloser
	rc io.Closer
}

func (o ownedStreamer) Close() error {
	err := o.StreamSeekCloser.Close()
	if cerr := o.rc.Close(); cerr != nil && !errors.Is(cerr, os.ErrClosed) && err == nil {
		err = cerr
	}

	return err
}
