package library

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPlaylist_NeighborWraps(t *testing.T) {
	var p Playlist
	p.Add(Track{ID: "a"}, Track{ID: "b"}, Track{ID: "c"})

	tests := []struct {
		from  string
		delta int
		want  string
	}{
		{"a", 1, "b"},
		{"c", 1, "a"},
		{"a", -1, "c"},
		{"b", -1, "a"},
		{"b", 4, "c"},
		{"missing", 1, "a"},
	}
	for _, tt := range tests {
		got, ok := p.Neighbor(tt.from, tt.delta)
		require.True(t, ok)
		assert.Equal(t, tt.want, got.ID, "%s%+d", tt.from, tt.delta)
	}

	var empty Playlist
	_, ok := empty.Neighbor("a", 1)
	assert.False(t, ok)
}

func TestPlaylist_AddRemove(t *testing.T) {
	var p Playlist

	added := p.Add(Track{ID: "a"}, Track{ID: "a"}, Track{ID: "b", Path: "/x/b.mp3"})
	require.Len(t, added, 2)
	assert.Equal(t, 1, p.Index("b"))
	assert.Equal(t, -1, p.Index("zz"))

	tr, ok := p.Get("b")
	require.True(t, ok)
	assert.Equal(t, "/x/b.mp3", tr.Path)

	assert.Equal(t, 1, p.RemoveFunc(func(t Track) bool { return t.Path == "/x/b.mp3" }))
	_, ok = p.Remove("a")
	assert.True(t, ok)
	assert.Zero(t, p.Len())
}
