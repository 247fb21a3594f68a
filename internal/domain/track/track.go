// Package track provides the Track domain entity.
package track

import "regexp"

// Track represents a playlist track backed by a YouTube video.
type Track struct {
	ID        int64  `json:"id" yaml:"id"`                 // Catalog track ID
	Date      string `json:"date" yaml:"date"`             // Release or added date, free-form
	Artist    string `json:"artist" yaml:"artist"`         // Artist name
	Title     string `json:"title" yaml:"title"`           // Track title
	URL       string `json:"url" yaml:"url"`               // YouTube URL
	PlayCount int    `json:"play_count" yaml:"play_count"` // Server-side play count
}

// videoIDPattern matches the 11-character YouTube ID after "v=" or a slash.
var videoIDPattern = regexp.MustCompile(`(?:v=|/)([0-9A-Za-z_-]{11}).*`)

// VideoIDFromURL extracts the YouTube video ID from a URL.
// Returns false if the URL does not contain one.
func VideoIDFromURL(rawURL string) (string, bool) {
	m := videoIDPattern.FindStringSubmatch(rawURL)
	if m == nil {
		return "", false
	}
	return m[1], true
}

// VideoID returns the YouTube video ID of the track, or "" if the URL has none.
func (t *Track) VideoID() string {
	id, _ := VideoIDFromURL(t.URL)
	return id
}

// SameSong reports whether two tracks share artist and title.
// The catalog uses this to deduplicate tracks on insert.
func (t *Track) SameSong(other Track) bool {
	return t.Artist == other.Artist && t.Title == other.Title
}
