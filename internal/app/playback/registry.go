package playback

import (
	"sync"

	"github.com/cockroachdb/errors"
)

var ErrSessionNotFound = errors.New("session not found")

// Registry maps video IDs to sessions with thread-safe access.
type Registry struct {
	mu       sync.RWMutex
	sessions map[string]*Session
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		sessions: make(map[string]*Session),
	}
}

// GetOrCreate returns the session for videoID, creating it with create if absent.
// The second return value is true if the session was created by this call.
func (r *Registry) GetOrCreate(videoID string, create func() *Session) (*Session, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if s, ok := r.sessions[videoID]; ok {
		return s, false
	}
	s := create()
	r.sessions[videoID] = s
	return s, true
}

// Get retrieves a session by video ID.
func (r *Registry) Get(videoID string) (*Session, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	s, ok := r.sessions[videoID]
	if !ok {
		return nil, ErrSessionNotFound
	}
	return s, nil
}

// Remove deletes a session. Removing an unknown video is a no-op.
func (r *Registry) Remove(videoID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.sessions, videoID)
}

// All returns all sessions.
func (r *Registry) All() []*Session {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]*Session, 0, len(r.sessions))
	for _, s := range r.sessions {
		result = append(result, s)
	}
	return result
}

// Count returns the number of sessions.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}
