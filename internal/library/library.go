package library

import (
	"context"
	"fmt"
	"io"
	"log"
	"net/url"
	"os"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"
)

// File is one user-supplied file. Either Path or Data holds the content.
type File struct {
	Name string
	MIME string
	Size int64
	Path string
	Data []byte
}

// Option configures a Library.
type Option func(*Library)

// WithClock sets the time source used for track IDs.
func WithClock(now func() time.Time) Option {
	return func(l *Library) { l.now = now }
}

// WithProbeTimeout sets the duration probe limit.
func WithProbeTimeout(d time.Duration) Option {
	return func(l *Library) { l.probeTimeout = d }
}

// WithNoticeTTL sets how long rejection notices stay visible.
func WithNoticeTTL(d time.Duration) Option {
	return func(l *Library) { l.noticeTTL = d }
}

// WithLogger sets the logger.
func WithLogger(lg *log.Logger) Option {
	return func(l *Library) { l.logger = lg }
}

// Library validates input, builds tracks and owns the playlist.
type Library struct {
	playlist     *Playlist
	notices      *Notices
	now          func() time.Time
	probeTimeout time.Duration
	noticeTTL    time.Duration
	logger       *log.Logger
}

// New returns an empty library.
func New(opts ...Option) *Library {
	l := &Library{
		playlist:     &Playlist{},
		now:          time.Now,
		probeTimeout: DefaultProbeTimeout,
		noticeTTL:    DefaultNoticeTTL,
		logger:       log.New(io.Discard, "", 0),
	}
	for _, o := range opts {
		o(l)
	}
	l.notices = NewNotices(l.noticeTTL)

	return l
}

// Playlist returns the track list.
func (l *Library) Playlist() *Playlist { return l.playlist }

// Notices returns the transient notifications.
func (l *Library) Notices() *Notices { return l.notices }

// Close clears pending notifications.
func (l *Library) Close() { l.notices.Close() }

// AddFiles validates files against the allow-list, probes the accepted ones
// concurrently and appends them to the playlist. Rejected names are reported
// in one notice and in the returned error, which wraps ErrUnsupportedFile.
// Accepted files are added even when others are rejected.
func (l *Library) AddFiles(ctx context.Context, files ...File) ([]Track, error) {
	var (
		rejected []string
		tracks   []Track
	)
	for _, f := range files {
		format, ok := FormatOf(f.Name, f.MIME)
		if !ok {
			rejected = append(rejected, f.Name)
			continue
		}
		name, artist := ParseName(f.Name)
		tracks = append(tracks, Track{
			ID:     trackID(f.Name, f.Size, l.now()),
			Name:   name,
			Artist: artist,
			Format: format,
			Path:   f.Path,
			Data:   f.Data,
		})
	}

	var rejectErr error
	if len(rejected) > 0 {
		msg := fmt.Sprintf("Rejected: %s. Only %s accepted", strings.Join(rejected, ", "), AcceptedList())
		l.notices.Post(msg)
		rejectErr = fmt.Errorf("%w: %s", ErrUnsupportedFile, strings.Join(rejected, ", "))
	}

	g, gctx := errgroup.WithContext(ctx)
	for i := range tracks {
		g.Go(func() error {
			tracks[i].Duration = ProbeDuration(gctx, tracks[i], l.probeTimeout)
			return nil
		})
	}
	_ = g.Wait()

	added := l.playlist.Add(tracks...)
	for _, t := range added {
		l.logger.Printf("[library] added %s (%s, %s)", t.Label(), t.Format, t.Duration.Round(time.Second))
	}

	return added, rejectErr
}

// AddPaths adds files from disk.
func (l *Library) AddPaths(ctx context.Context, paths ...string) ([]Track, error) {
	files := make([]File, 0, len(paths))
	for _, p := range paths {
		st, err := os.Stat(p)
		if err != nil {
			return nil, fmt.Errorf("library: %w", err)
		}
		files = append(files, File{Name: st.Name(), Size: st.Size(), Path: p})
	}

	return l.AddFiles(ctx, files...)
}

// AddStream adds an http or https stream. Invalid URLs post a notice and
// wrap ErrInvalidURL.
func (l *Library) AddStream(raw string) (Track, error) {
	raw = strings.TrimSpace(raw)
	u, err := url.Parse(raw)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		l.notices.Post("URL must start with http:// or https://")
		return Track{}, fmt.Errorf("%w: %q", ErrInvalidURL, raw)
	}

	name := streamName(u)
	format, ok := FormatOf(u.Path, "")
	if !ok {
		// Most internet radio is MP3.
		format = "mp3"
	}
	t := Track{
		ID:       trackID(name, 0, l.now()),
		Name:     name,
		Artist:   u.Host,
		Format:   format,
		IsStream: true,
		URL:      u.String(),
	}
	l.playlist.Add(t)
	l.logger.Printf("[library] added stream %s", t.URL)

	return t, nil
}

// Remove deletes the track with id from the playlist.
func (l *Library) Remove(id string) bool {
	_, ok := l.playlist.Remove(id)
	return ok
}

// RemovePath deletes every track read from path.
func (l *Library) RemovePath(path string) int {
	return l.playlist.RemoveFunc(func(t Track) bool { return t.Path == path })
}

// HasPath reports whether a track was read from path.
func (l *Library) HasPath(path string) bool {
	for _, t := range l.playlist.Tracks() {
		if t.Path == path {
			return true
		}
	}

	return false
}
