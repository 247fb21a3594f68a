package filter

import (
	"context"
	"regexp"
	"strings"

	"github.com/osa030/playdeck/internal/domain/track"
)

// DuplicateTrackFilter checks for duplicate tracks in the playlist.
// Detects:
// - The same video
// - Remasters (normalized title + same artist)
// Excludes:
// - Cover songs (same title but different artist)
type DuplicateTrackFilter struct{}

// NewDuplicateTrackFilter creates a new duplicate track filter.
func NewDuplicateTrackFilter() *DuplicateTrackFilter {
	return &DuplicateTrackFilter{}
}

// Name returns the filter name.
func (f *DuplicateTrackFilter) Name() string {
	return "duplicate_track_filter"
}

// Description returns the filter description.
func (f *DuplicateTrackFilter) Description() string {
	return "Rejects songs already in the playlist, remasters included. Covers by other artists are allowed"
}

// ReturnCodes returns possible return codes.
func (f *DuplicateTrackFilter) ReturnCodes() []string {
	return []string{"duplicate_track"}
}

// ValidateConfig validates the filter configuration.
func (f *DuplicateTrackFilter) ValidateConfig(config map[string]any) error {
	// No configuration needed
	return nil
}

// Check checks if the track is a duplicate.
func (f *DuplicateTrackFilter) Check(ctx context.Context, req Request, existing []track.Track) Result {
	videoID := req.Track.VideoID()

	for _, t := range existing {
		// 1. Same video
		if videoID != "" && t.VideoID() == videoID {
			return Reject("duplicate_track")
		}

		// 2. Remaster detection: normalized title + same artist
		if f.isRemaster(t, req.Track) {
			return Reject("duplicate_track")
		}
	}

	return Accept()
}

// isRemaster checks if two tracks are the same song (remaster/different version).
// Returns true if:
// - Normalized titles match
// - Artist is the same
func (f *DuplicateTrackFilter) isRemaster(track1, track2 track.Track) bool {
	// Normalize titles
	name1 := normalizeTrackName(track1.Title)
	name2 := normalizeTrackName(track2.Title)

	// If normalized names don't match, they're different songs
	if name1 != name2 {
		return false
	}

	// Same normalized name - check if same artist
	// If different artists, it's a cover song (allowed)
	return isSameArtist(track1, track2)
}

// versionMarkers match remaster and version annotations in a title, in the
// order they are stripped.
var versionMarkers = []*regexp.Regexp{
	regexp.MustCompile(`\s*-?\s*\d{4}\s+remaster(ed)?`),      // "- 2011 Remaster"
	regexp.MustCompile(`\s*\(remaster(ed)?\s*\d{0,4}\)`),     // "(Remastered 2023)"
	regexp.MustCompile(`\s*\[remaster(ed)?\s*\d{0,4}\]`),     // "[Remastered]"
	regexp.MustCompile(`\s*-?\s*remaster(ed)?(\s+version)?`), // "- Remastered"
	regexp.MustCompile(`\s*\(.*?remaster.*?\)`),              // "(Any Remaster text)"
	regexp.MustCompile(`\s*\[.*?remaster.*?\]`),              // "[Any Remaster text]"
	regexp.MustCompile(`\s*\(.*?version\)`),                  // "(Single Version)"
	regexp.MustCompile(`\s*\(.*?edit\)`),                     // "(Radio Edit)"
	regexp.MustCompile(`\s*\(official\s+(music\s+)?video\)`), // "(Official Video)"
	regexp.MustCompile(`\s*\(.*?audio\)`),                    // "(Official Audio)"
	regexp.MustCompile(`\s*-?\s*live`),                       // "- Live"
	regexp.MustCompile(`\s*\(live\)`),                        // "(Live)"
	regexp.MustCompile(`\s*-?\s*radio\s+edit`),               // "- Radio Edit"
	regexp.MustCompile(`\s*-?\s*single\s+version`),           // "- Single Version"
}

var spaces = regexp.MustCompile(`\s+`)

// normalizeTrackName lowercases a title and strips version annotations.
func normalizeTrackName(name string) string {
	normalized := strings.ToLower(name)
	for _, pattern := range versionMarkers {
		normalized = pattern.ReplaceAllString(normalized, "")
	}
	normalized = spaces.ReplaceAllString(strings.TrimSpace(normalized), " ")
	return strings.TrimRight(normalized, " -")
}

// isSameArtist checks if two tracks have the same artist, ignoring case.
func isSameArtist(track1, track2 track.Track) bool {
	if track1.Artist == "" || track2.Artist == "" {
		return false
	}
	return strings.EqualFold(strings.TrimSpace(track1.Artist), strings.TrimSpace(track2.Artist))
}

func init() {
	Register("duplicate_track_filter", func() Filter {
		return &DuplicateTrackFilter{}
	})
}
