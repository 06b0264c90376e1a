package library

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/fsnotify/fsnotify"
)

// Watcher keeps the library in sync with a music folder: accepted files
// created there are added, removed or renamed ones are dropped. Files with
// other extensions are ignored without a notice.
type Watcher struct {
	lib *Library
	dir string
	w   *fsnotify.Watcher
}

// NewWatcher starts watching dir.
func NewWatcher(lib *Library, dir string) (*Watcher, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("library: watcher: %w", err)
	}
	if err := w.Add(dir); err != nil {
		w.Close()
		return nil, fmt.Errorf("library: watch %s: %w", dir, err)
	}

	return &Watcher{lib: lib, dir: dir, w: w}, nil
}

// Scan adds the accepted files already present in the folder, in name order.
func (w *Watcher) Scan(ctx context.Context) error {
	entries, err := os.ReadDir(w.dir)
	if err != nil {
		return fmt.Errorf("library: scan %s: %w", w.dir, err)
	}

	var paths []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if _, ok := FormatOf(e.Name(), ""); ok {
			paths = append(paths, filepath.Join(w.dir, e.Name()))
		}
	}
	sort.Strings(paths)
	if len(paths) == 0 {
		return nil
	}

	_, err = w.lib.AddPaths(ctx, paths...)

	return err
}

// Run processes folder events until ctx is done, then closes the watcher.
func (w *Watcher) Run(ctx context.Context) error {
	defer w.w.Close()

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-w.w.Events:
			if !ok {
				return nil
			}
			w.handle(ctx, ev)
		case err, ok := <-w.w.Errors:
			if !ok {
				return nil
			}
			w.lib.logger.Printf("[library] watcher: %v", err)
		}
	}
}

func (w *Watcher) handle(ctx context.Context, ev fsnotify.Event) {
	switch {
	case ev.Has(fsnotify.Remove), ev.Has(fsnotify.Rename):
		if n := w.lib.RemovePath(ev.Name); n > 0 {
			w.lib.logger.Printf("[library] removed %s", filepath.Base(ev.Name))
		}
	case ev.Has(fsnotify.Create), ev.Has(fsnotify.Write):
		if _, ok := FormatOf(ev.Name, ""); !ok || w.lib.HasPath(ev.Name) {
			return
		}
		if _, err := w.lib.AddPaths(ctx, ev.Name); err != nil && !errors.Is(err, os.ErrNotExist) {
			w.lib.logger.Printf("[library] add %s: %v", filepath.Base(ev.Name), err)
		}
	}
}
