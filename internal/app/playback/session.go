package playback

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// Session holds the runtime state of one video: its player, its polling task,
// and whether the play count was already reported.
type Session struct {
	ID        string    // UUID, used to correlate log lines
	VideoID   string    // YouTube video ID
	CreatedAt time.Time // First play request

	mu      sync.Mutex
	player  Player
	task    *Task
	counted bool
}

func newSession(videoID string) *Session {
	return &Session{
		ID:        uuid.New().String(),
		VideoID:   videoID,
		CreatedAt: time.Now(),
	}
}

// Player returns the attached player, or nil while it is still being created.
func (s *Session) Player() Player {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.player
}

// attach sets the player if none is set yet.
func (s *Session) attach(p Player) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.player == nil {
		s.player = p
	}
}

// Polling returns true if the progress task is active.
func (s *Session) Polling() bool {
	return s.task.Running()
}

// Counted returns true once the play count was reported.
func (s *Session) Counted() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.counted
}

// markCounted flips the counted flag. It returns true only for the call
// that performed the false→true transition.
func (s *Session) markCounted() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.counted {
		return false
	}
	s.counted = true
	return true
}
