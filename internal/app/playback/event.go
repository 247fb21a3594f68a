package playback

// EventType represents a playback event type.
type EventType int

const (
	EventSessionCreated EventType = iota // First play request created a session
	EventReady                           // Player finished loading and started
	EventStateChanged                    // Player state changed (play/pause/end)
	EventProgress                        // Polling tick updated the progress
	EventThresholdReached                // Progress crossed the play-count threshold
)

// String returns the string representation of the event type.
func (e EventType) String() string {
	switch e {
	case EventSessionCreated:
		return "session_created"
	case EventReady:
		return "ready"
	case EventStateChanged:
		return "state_changed"
	case EventProgress:
		return "progress"
	case EventThresholdReached:
		return "threshold_reached"
	default:
		return "unknown"
	}
}

// Event represents a playback event.
type Event struct {
	Type     EventType
	VideoID  string
	State    State
	Progress float64 // Percent, only set for EventProgress and EventThresholdReached
}
