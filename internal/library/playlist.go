package library

import (
	"slices"
	"sync"
)

// Playlist is an ordered, duplicate-free list of tracks.
type Playlist struct {
	mu     sync.RWMutex
	tracks []Track
}

// Add appends tracks whose IDs are not yet present and returns the ones
// added.
func (p *Playlist) Add(tracks ...Track) []Track {
	p.mu.Lock()
	defer p.mu.Unlock()

	var added []Track
	for _, t := range tracks {
		if p.indexLocked(t.ID) >= 0 {
			continue
		}
		p.tracks = append(p.tracks, t)
		added = append(added, t)
	}

	return added
}

// Remove deletes the track with id.
func (p *Playlist) Remove(id string) (Track, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	i := p.indexLocked(id)
	if i < 0 {
		return Track{}, false
	}
	t := p.tracks[i]
	p.tracks = slices.Delete(p.tracks, i, i+1)

	return t, true
}

// RemoveFunc deletes every track for which fn returns true and returns the
// number removed.
func (p *Playlist) RemoveFunc(fn func(Track) bool) int {
	p.mu.Lock()
	defer p.mu.Unlock()

	before := len(p.tracks)
	p.tracks = slices.DeleteFunc(p.tracks, fn)

	return before - len(p.tracks)
}

// Tracks returns a copy of the list.
func (p *Playlist) Tracks() []Track {
	p.mu.RLock()
	defer p.mu.RUnlock()

	return slices.Clone(p.tracks)
}

// Len returns the number of tracks.
func (p *Playlist) Len() int {
	p.mu.RLock()
	defer p.mu.RUnlock()

	return len(p.tracks)
}

// Get returns the track with id.
func (p *Playlist) Get(id string) (Track, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	if i := p.indexLocked(id); i >= 0 {
		return p.tracks[i], true
	}

	return Track{}, false
}

// Index returns the position of id, or -1.
func (p *Playlist) Index(id string) int {
	p.mu.RLock()
	defer p.mu.RUnlock()

	return p.indexLocked(id)
}

// Neighbor returns the track delta positions away from id, wrapping around
// both ends. An unknown id starts from the first track.
func (p *Playlist) Neighbor(id string, delta int) (Track, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	n := len(p.tracks)
	if n == 0 {
		return Track{}, false
	}
	i := p.indexLocked(id)
	if i < 0 {
		return p.tracks[0], true
	}

	return p.tracks[((i+delta)%n+n)%n], true
}

func (p *Playlist) indexLocked(id string) int {
	return slices.IndexFunc(p.tracks, func(t Track) bool { return t.ID == id })
}
