package playlist

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/osa030/playdeck/internal/domain/track"
)

func makeTracks(n int) []track.Track {
	tracks := make([]track.Track, n)
	for i := range tracks {
		tracks[i] = track.Track{ID: int64(i + 1)}
	}
	return tracks
}

func TestPlaylist_TrackIDs(t *testing.T) {
	tests := []struct {
		name     string
		tracks   []track.Track
		expected []int64
	}{
		{
			name:     "empty playlist",
			tracks:   []track.Track{},
			expected: []int64{},
		},
		{
			name:     "multiple tracks",
			tracks:   makeTracks(3),
			expected: []int64{1, 2, 3},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := &Playlist{Name: "mix", Tracks: tt.tracks}
			assert.Equal(t, tt.expected, p.TrackIDs())
		})
	}
}

func TestPlaylist_Contains(t *testing.T) {
	p := &Playlist{Name: "mix", Tracks: makeTracks(2)}
	assert.True(t, p.Contains(2))
	assert.False(t, p.Contains(3))
}

func TestPlaylist_Page(t *testing.T) {
	tests := []struct {
		name          string
		count         int
		page          int
		perPage       int
		expectedIDs   []int64
		expectedTotal int
	}{
		{
			name:          "first page",
			count:         20,
			page:          1,
			perPage:       15,
			expectedIDs:   []int64{1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12, 13, 14, 15},
			expectedTotal: 2,
		},
		{
			name:          "partial last page",
			count:         20,
			page:          2,
			perPage:       15,
			expectedIDs:   []int64{16, 17, 18, 19, 20},
			expectedTotal: 2,
		},
		{
			name:          "page past the end",
			count:         20,
			page:          3,
			perPage:       15,
			expectedIDs:   []int64{},
			expectedTotal: 2,
		},
		{
			name:          "page zero",
			count:         5,
			page:          0,
			perPage:       15,
			expectedIDs:   []int64{},
			expectedTotal: 1,
		},
		{
			name:          "default per page",
			count:         16,
			page:          2,
			perPage:       0,
			expectedIDs:   []int64{16},
			expectedTotal: 2,
		},
		{
			name:          "empty playlist",
			count:         0,
			page:          1,
			perPage:       15,
			expectedIDs:   []int64{},
			expectedTotal: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := &Playlist{Name: "mix", Tracks: makeTracks(tt.count)}
			page := p.Page(tt.page, tt.perPage)

			ids := make([]int64, 0, len(page.Tracks))
			for _, tr := range page.Tracks {
				ids = append(ids, tr.ID)
			}
			assert.Equal(t, tt.expectedIDs, ids)
			assert.Equal(t, tt.expectedTotal, page.TotalPages)
			assert.Equal(t, "mix", page.Name)
			assert.Equal(t, tt.page, page.Page)
		})
	}
}
