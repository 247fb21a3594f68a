// Package playlist provides the Playlist domain entity.
package playlist

import "github.com/osa030/playdeck/internal/domain/track"

// DefaultPerPage is the number of tracks shown on one playlist page.
const DefaultPerPage = 15

// Playlist represents a named, ordered list of tracks.
type Playlist struct {
	Name   string        `json:"name" yaml:"name"`
	Tracks []track.Track `json:"tracks" yaml:"tracks"`
}

// Page is one page of a playlist.
type Page struct {
	Name       string        `json:"name"`
	Page       int           `json:"page"`
	TotalPages int           `json:"total_pages"`
	Tracks     []track.Track `json:"tracks"`
}

// TrackIDs returns all track IDs in the playlist.
func (p *Playlist) TrackIDs() []int64 {
	ids := make([]int64, len(p.Tracks))
	for i, t := range p.Tracks {
		ids[i] = t.ID
	}
	return ids
}

// Contains reports whether the playlist holds the given track ID.
func (p *Playlist) Contains(trackID int64) bool {
	for _, t := range p.Tracks {
		if t.ID == trackID {
			return true
		}
	}
	return false
}

// TotalPages returns ceil(len(tracks)/perPage).
func (p *Playlist) TotalPages(perPage int) int {
	if perPage <= 0 {
		perPage = DefaultPerPage
	}
	return (len(p.Tracks) + perPage - 1) / perPage
}

// Page returns the 1-based page of the playlist.
// Pages outside the range come back with no tracks.
func (p *Playlist) Page(page, perPage int) Page {
	if perPage <= 0 {
		perPage = DefaultPerPage
	}
	result := Page{
		Name:       p.Name,
		Page:       page,
		TotalPages: p.TotalPages(perPage),
		Tracks:     []track.Track{},
	}
	if page < 1 {
		return result
	}

	start := (page - 1) * perPage
	if start >= len(p.Tracks) {
		return result
	}
	end := start + perPage
	if end > len(p.Tracks) {
		end = len(p.Tracks)
	}
	result.Tracks = append(result.Tracks, p.Tracks[start:end]...)
	return result
}
