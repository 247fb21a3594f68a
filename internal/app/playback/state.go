// Package playback drives one embedded player per video and reports progress.
package playback

// State represents the state of an embedded player.
type State int

const (
	StateUnstarted State = iota // Player created, nothing played yet
	StatePlaying                // Media is playing
	StatePaused                 // Media is paused
	StateBuffering              // Media is loading
	StateEnded                  // Media reached its end
)

// String returns the string representation of the state.
func (s State) String() string {
	switch s {
	case StateUnstarted:
		return "unstarted"
	case StatePlaying:
		return "playing"
	case StatePaused:
		return "paused"
	case StateBuffering:
		return "buffering"
	case StateEnded:
		return "ended"
	default:
		return "unknown"
	}
}
