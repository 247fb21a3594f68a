package playback

import "context"

// Options configure a newly created player.
type Options struct {
	Height   int  // 0 keeps the player hidden
	Width    int  // 0 keeps the player hidden
	Autoplay bool // Start playback as soon as the media is loaded
	Controls bool // Show the engine's native controls
}

// Handler receives player notifications.
// OnReady is invoked once, OnStateChange on every state transition.
// Either may be called from a goroutine owned by the engine.
type Handler struct {
	OnReady       func(p Player)
	OnStateChange func(p Player, state State)
}

// Player is a single embedded media player.
type Player interface {
	Play() error
	Pause() error
	State() (State, error)
	Duration() (float64, error)    // Seconds, 0 when unknown
	CurrentTime() (float64, error) // Seconds
	Close() error
}

// Engine creates embedded players.
type Engine interface {
	// Create instantiates a player for videoID bound to the node named NodeID(videoID).
	Create(ctx context.Context, videoID string, opts Options, h Handler) (Player, error)
}

// NodeID returns the player node name for a video.
func NodeID(videoID string) string {
	return "player-" + videoID
}
