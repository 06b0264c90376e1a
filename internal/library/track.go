package library

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// UnknownArtist is used when a file name carries no artist.
const UnknownArtist = "Unknown Artist"

// Track is one playlist entry.
type Track struct {
	ID       string
	Name     string
	Artist   string
	Format   string
	Duration time.Duration
	IsStream bool

	// Exactly one of Path, URL and Data is set.
	Path string
	URL  string
	Data []byte
}

// Label returns "Artist - Name".
func (t Track) Label() string {
	return t.Artist + " - " + t.Name
}

// Open returns a reader over the track's encoded bytes. Files and in-memory
// data are seekable; streams are not.
func (t Track) Open(ctx context.Context) (io.ReadCloser, error) {
	switch {
	case t.Path != "":
		return os.Open(t.Path)
	case t.Data != nil:
		return nopSeekCloser{bytes.NewReader(t.Data)}, nil
	case t.URL != "":
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, t.URL, nil)
		if err != nil {
			return nil, fmt.Errorf("library: build request: %w", err)
		}
		resp, err := http.DefaultClient.Do(req)
		if err != nil {
			return nil, fmt.Errorf("library: open stream: %w", err)
		}
		if resp.StatusCode != http.StatusOK {
			resp.Body.Close()
			return nil, fmt.Errorf("library: open stream: %s", resp.Status)
		}
		return resp.Body, nil
	default:
		return nil, fmt.Errorf("library: track %q has no source", t.ID)
	}
}

type nopSeekCloser struct {
	*bytes.Reader
}

func (nopSeekCloser) Close() error { return nil }

// ParseName splits "Artist - Title.ext" into title and artist. Names without
// the separator get UnknownArtist.
func ParseName(filename string) (name, artist string) {
	base := filepath.Base(filename)
	base = strings.TrimSuffix(base, filepath.Ext(base))

	before, after, ok := strings.Cut(base, " - ")
	if !ok {
		return base, UnknownArtist
	}

	return strings.TrimSpace(after), strings.TrimSpace(before)
}

// trackID builds "<base name>-<size>-<unix nanos>".
func trackID(name string, size int64, at time.Time) string {
	return filepath.Base(name) + "-" + strconv.FormatInt(size, 10) + "-" + strconv.FormatInt(at.UnixNano(), 10)
}

// streamName derives a display name from a stream URL.
func streamName(u *url.URL) string {
	if base := path.Base(u.Path); base != "." && base != "/" {
		return base
	}

	return u.Host
}
