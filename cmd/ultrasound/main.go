// Command ultrasound plays local files and stream URLs through the
// twenty-band equalizer and draws the spectrum in the terminal.
//
// Usage:
//
//	ultrasound [flags] [file-or-url ...]
//
// Examples:
//
//	ultrasound song.mp3 other.flac
//	ultrasound -preset "Deep Bass Engine" -dir ~/Music
//	ultrasound -headless https://radio.example/live.mp3
//
// Keys: space play/pause, n/p next/previous, s stop, +/- volume,
// 1-4 presets, ,/. select instrument, j/k lower/raise it, m magnet,
// r retry failed panels, q quit.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/term"

	"github.com/cwbudde/ultrasound/internal/audio"
	"github.com/cwbudde/ultrasound/internal/config"
	"github.com/cwbudde/ultrasound/internal/eq"
	"github.com/cwbudde/ultrasound/internal/frameloop"
	"github.com/cwbudde/ultrasound/internal/library"
	"github.com/cwbudde/ultrasound/internal/playback"
)

func main() {
	cfg := config.Load()

	flag.IntVar(&cfg.SampleRate, "rate", cfg.SampleRate, "output sample rate in Hz")
	flag.DurationVar(&cfg.DeviceBuffer, "buffer", cfg.DeviceBuffer, "output device buffer")
	flag.IntVar(&cfg.FFTSize, "fft", cfg.FFTSize, "analyser FFT size (power of two, 256..8192)")
	flag.Float64Var(&cfg.Smoothing, "smoothing", cfg.Smoothing, "analyser smoothing in [0, 1)")
	flag.DurationVar(&cfg.RampTimeConstant, "ramp", cfg.RampTimeConstant, "band gain ramp time constant")
	flag.DurationVar(&cfg.Debounce, "debounce", cfg.Debounce, "band edit debounce delay")
	flag.StringVar(&cfg.Preset, "preset", cfg.Preset, "initial preset")
	flag.Float64Var(&cfg.Volume, "volume", cfg.Volume, "initial volume in [0, 1]")
	flag.StringVar(&cfg.MusicDir, "dir", cfg.MusicDir, "music folder to scan and watch")
	flag.IntVar(&cfg.FPS, "fps", cfg.FPS, "display frame rate")
	flag.BoolVar(&cfg.Headless, "headless", cfg.Headless, "discard audio and skip the terminal display")
	list := flag.Bool("presets", false, "list presets and exit")
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: ultrasound [flags] [file-or-url ...]\n\n")
		fmt.Fprintf(os.Stderr, "Plays audio through a twenty-band equalizer.\n\nFlags:\n")
		flag.PrintDefaults()
	}
	flag.Parse()

	if *list {
		for _, p := range eq.Presets() {
			fmt.Println(p.Name)
		}
		return
	}

	if err := run(cfg, flag.Args()); err != nil {
		log.Fatal(err)
	}
}

func run(cfg config.Config, args []string) error {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	interactive := !cfg.Headless && term.IsTerminal(int(os.Stdin.Fd()))

	// Raw mode garbles log lines; keep them for the exit summary instead.
	logger := log.Default()
	var logs strings.Builder
	if interactive {
		logger = log.New(&logs, "", log.Ltime)
	}

	engine := audio.NewEngine(cfg.Engine(),
		audio.WithDevice(deviceOpener(cfg.Headless)),
		audio.WithLogger(logger),
	)
	defer engine.Close()

	mapper, err := eq.NewMapper(engine, eq.WithDebounce(cfg.Debounce), eq.WithLogger(logger))
	if err != nil {
		return err
	}
	defer mapper.Close()
	if err := mapper.ApplyPreset(cfg.Preset); err != nil {
		return err
	}

	lib := library.New(library.WithLogger(logger))
	defer lib.Close()

	driver := playback.New(engine, lib.Playlist(), playback.WithLogger(logger))
	defer driver.Close()
	driver.SetVolume(cfg.Volume)

	if err := addArgs(ctx, lib, args); err != nil {
		logger.Printf("[main] %v", err)
	}

	g, gctx := errgroup.WithContext(ctx)

	if cfg.MusicDir != "" {
		w, err := library.NewWatcher(lib, cfg.MusicDir)
		if err != nil {
			return err
		}
		if err := w.Scan(gctx); err != nil {
			logger.Printf("[main] scan %s: %v", cfg.MusicDir, err)
		}
		g.Go(func() error { return w.Run(gctx) })
	}

	if tracks := lib.Playlist().Tracks(); len(tracks) > 0 {
		if err := driver.PlayTrack(gctx, tracks[0]); err != nil {
			logger.Printf("[main] %v", err)
			if errors.Is(err, playback.ErrCapabilityMissing) {
				return err
			}
		}
	}

	if !interactive {
		g.Go(func() error { return waitIdle(gctx, driver, lib.Playlist()) })
		return ignoreCanceled(g.Wait())
	}

	ui := newScreen(os.Stdout, engine, mapper, lib, driver)
	loop := frameloop.New(cfg.FPS, ui.tick)
	loop.Start(gctx)
	defer loop.Stop()

	keys, restore, err := readKeys(gctx)
	if err != nil {
		return err
	}
	defer func() {
		restore()
		fmt.Print(logs.String())
	}()

	g.Go(func() error {
		defer cancel()
		return ui.handleKeys(gctx, keys)
	})

	return ignoreCanceled(g.Wait())
}

// addArgs adds each argument as a stream when it parses as an http(s) URL and
// as a file otherwise.
func addArgs(ctx context.Context, lib *library.Library, args []string) error {
	var errs []error
	var paths []string
	for _, a := range args {
		if strings.HasPrefix(a, "http://") || strings.HasPrefix(a, "https://") {
			if _, err := lib.AddStream(a); err != nil {
				errs = append(errs, err)
			}
			continue
		}
		paths = append(paths, a)
	}
	if len(paths) > 0 {
		if _, err := lib.AddPaths(ctx, paths...); err != nil {
			errs = append(errs, err)
		}
	}

	return errors.Join(errs...)
}

// waitIdle returns once the last track has finished.
func waitIdle(ctx context.Context, d *playback.Driver, pl *library.Playlist) error {
	t := time.NewTicker(250 * time.Millisecond)
	defer t.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-t.C:
			switch s := d.Session(); s.State {
			case playback.StatePlaying, playback.StatePaused:
			default:
				if !advance(ctx, d, pl, s) {
					return nil
				}
			}
		}
	}
}

// advance plays the track after a cleanly finished one. It reports false at
// the end of the playlist.
func advance(ctx context.Context, d *playback.Driver, pl *library.Playlist, s playback.Session) bool {
	if s.Track == nil || !s.Ended {
		return false
	}
	i := pl.Index(s.Track.ID)
	if i < 0 || i >= pl.Len()-1 {
		return false
	}

	if err := d.Next(ctx); err != nil {
		return false
	}

	return d.Play(ctx) == nil
}

func ignoreCanceled(err error) error {
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

// readKeys puts stdin into raw mode and delivers single key presses.
func readKeys(ctx context.Context) (<-chan byte, func(), error) {
	fd := int(os.Stdin.Fd())
	old, err := term.MakeRaw(fd)
	if err != nil {
		return nil, nil, fmt.Errorf("raw mode: %w", err)
	}

	keys := make(chan byte)
	go func() {
		buf := make([]byte, 1)
		for {
			n, err := os.Stdin.Read(buf)
			if err == io.EOF || (err != nil && n == 0) {
				return
			}
			select {
			case keys <- buf[0]:
			case <-ctx.Done():
				return
			}
		}
	}()

	restore := func() {
		_ = term.Restore(fd, old)
		fmt.Print("\x1b[?25h\r\n")
	}

	return keys, restore, nil
}
