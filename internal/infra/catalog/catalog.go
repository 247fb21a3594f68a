// Package catalog provides the in-memory playlist and track store served by
// the playdeck server.
package catalog

import (
	"math/rand/v2"
	"os"
	"slices"
	"strings"
	"sync"

	"github.com/cockroachdb/errors"
	zlog "github.com/rs/zerolog/log"
	"gopkg.in/yaml.v3"

	"github.com/osa030/playdeck/internal/domain/playlist"
	"github.com/osa030/playdeck/internal/domain/track"
)

// Errors
var (
	ErrPlaylistNotFound  = errors.New("playlist not found")
	ErrPlaylistExists    = errors.New("playlist already exists")
	ErrPlaylistNotEmpty  = errors.New("playlist is not empty")
	ErrInvalidName       = errors.New("playlist name is required")
	ErrIncompleteTrack   = errors.New("date, artist, title and url are required")
	ErrTrackNotFound     = errors.New("track not found")
	ErrAlreadyInPlaylist = errors.New("track already in playlist")
	ErrNoTracks          = errors.New("catalog has no tracks")
)

// Seed is the YAML layout of a catalog file.
type Seed struct {
	Tracks    []track.Track  `yaml:"tracks"`
	Playlists []SeedPlaylist `yaml:"playlists"`
}

// SeedPlaylist names a playlist and its track IDs in order.
type SeedPlaylist struct {
	Name   string  `yaml:"name"`
	Tracks []int64 `yaml:"tracks"`
}

// Store is a thread-safe in-memory catalog.
type Store struct {
	mu        sync.RWMutex
	tracks    map[int64]*track.Track
	names     []string           // playlist names in creation order
	members   map[string][]int64 // playlist name -> track IDs
	nextID    int64
	randomInt func(n int) int
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{
		tracks:    make(map[int64]*track.Track),
		members:   make(map[string][]int64),
		nextID:    1,
		randomInt: rand.IntN,
	}
}

// Load reads a YAML seed file into a new store.
func Load(path string) (*Store, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read catalog file")
	}

	var seed Seed
	if err := yaml.Unmarshal(data, &seed); err != nil {
		return nil, errors.Wrap(err, "failed to parse catalog file")
	}

	s := NewStore()
	if err := s.apply(seed); err != nil {
		return nil, errors.Wrapf(err, "invalid catalog file %s", path)
	}
	zlog.Info().Msgf("catalog: loaded %d tracks in %d playlists from %s", len(s.tracks), len(s.names), path)
	return s, nil
}

// FromSeed builds a store from an in-memory seed.
func FromSeed(seed Seed) (*Store, error) {
	s := NewStore()
	if err := s.apply(seed); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Store) apply(seed Seed) error {
	for _, t := range seed.Tracks {
		if t.ID <= 0 {
			t.ID = s.nextID
		}
		if _, exists := s.tracks[t.ID]; exists {
			return errors.Newf("duplicate track id %d", t.ID)
		}
		stored := t
		s.tracks[t.ID] = &stored
		if t.ID >= s.nextID {
			s.nextID = t.ID + 1
		}
	}

	for _, p := range seed.Playlists {
		name := strings.TrimSpace(p.Name)
		if name == "" {
			return ErrInvalidName
		}
		if _, exists := s.members[name]; exists {
			return errors.Wrapf(ErrPlaylistExists, "playlist %q", name)
		}
		ids := make([]int64, 0, len(p.Tracks))
		for _, id := range p.Tracks {
			if _, ok := s.tracks[id]; !ok {
				return errors.Wrapf(ErrTrackNotFound, "playlist %q references track %d", name, id)
			}
			if containsID(ids, id) {
				continue
			}
			ids = append(ids, id)
		}
		s.names = append(s.names, name)
		s.members[name] = ids
	}
	return nil
}

// Playlists returns all playlist names in creation order.
func (s *Store) Playlists() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	names := make([]string, len(s.names))
	copy(names, s.names)
	return names
}

// Playlist returns a copy of the named playlist.
func (s *Store) Playlist(name string) (*playlist.Playlist, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids, ok := s.members[name]
	if !ok {
		return nil, ErrPlaylistNotFound
	}
	p := &playlist.Playlist{Name: name, Tracks: make([]track.Track, 0, len(ids))}
	for _, id := range ids {
		p.Tracks = append(p.Tracks, *s.tracks[id])
	}
	return p, nil
}

// Track returns a copy of a track.
func (s *Store) Track(id int64) (track.Track, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	t, ok := s.tracks[id]
	if !ok {
		return track.Track{}, ErrTrackNotFound
	}
	return *t, nil
}

// RandomTrack returns a uniformly chosen track.
func (s *Store) RandomTrack() (track.Track, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if len(s.tracks) == 0 {
		return track.Track{}, ErrNoTracks
	}
	// Iterate in ID order so the choice depends only on randomInt.
	ids := s.sortedIDs()
	return *s.tracks[ids[s.randomInt(len(ids))]], nil
}

// CreatePlaylist adds an empty playlist. Names are unique.
func (s *Store) CreatePlaylist(name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return ErrInvalidName
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.members[name]; exists {
		return ErrPlaylistExists
	}
	s.names = append(s.names, name)
	s.members[name] = []int64{}
	zlog.Info().Msgf("catalog: playlist created: %s", name)
	return nil
}

// RemovePlaylist deletes a playlist. Only empty playlists can be removed.
func (s *Store) RemovePlaylist(name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	ids, ok := s.members[name]
	if !ok {
		return ErrPlaylistNotFound
	}
	if len(ids) > 0 {
		return ErrPlaylistNotEmpty
	}
	delete(s.members, name)
	for i, n := range s.names {
		if n == name {
			s.names = append(s.names[:i], s.names[i+1:]...)
			break
		}
	}
	zlog.Info().Msgf("catalog: playlist removed: %s", name)
	return nil
}

// AddTrack adds a track to a playlist and returns the stored track.
// A track with the same artist and title is reused instead of duplicated.
func (s *Store) AddTrack(name string, t track.Track) (track.Track, error) {
	if t.Date == "" || t.Artist == "" || t.Title == "" || t.URL == "" {
		return track.Track{}, ErrIncompleteTrack
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	ids, ok := s.members[name]
	if !ok {
		return track.Track{}, ErrPlaylistNotFound
	}

	stored := s.findSong(t)
	if stored == nil {
		t.ID = s.nextID
		t.PlayCount = 0
		s.nextID++
		stored = &t
		s.tracks[t.ID] = stored
	}

	if containsID(ids, stored.ID) {
		return *stored, ErrAlreadyInPlaylist
	}
	s.members[name] = append(ids, stored.ID)
	zlog.Info().Msgf("catalog: track added: playlist=%s id=%d artist=%s title=%s", name, stored.ID, stored.Artist, stored.Title)
	return *stored, nil
}

// RemoveTrack removes a track from a playlist. The track stays in the catalog.
func (s *Store) RemoveTrack(name string, trackID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	ids, ok := s.members[name]
	if !ok {
		return ErrPlaylistNotFound
	}
	for i, id := range ids {
		if id == trackID {
			s.members[name] = append(ids[:i], ids[i+1:]...)
			zlog.Info().Msgf("catalog: track removed: playlist=%s id=%d", name, trackID)
			return nil
		}
	}
	return ErrTrackNotFound
}

// IncrementPlayCount adds one play to a track and returns the new count.
func (s *Store) IncrementPlayCount(trackID int64) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, ok := s.tracks[trackID]
	if !ok {
		return 0, ErrTrackNotFound
	}
	t.PlayCount++
	return t.PlayCount, nil
}

func (s *Store) findSong(t track.Track) *track.Track {
	for _, id := range s.sortedIDs() {
		if stored := s.tracks[id]; stored.SameSong(t) {
			return stored
		}
	}
	return nil
}

func (s *Store) sortedIDs() []int64 {
	ids := make([]int64, 0, len(s.tracks))
	for id := range s.tracks {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}

func containsID(ids []int64, id int64) bool {
	return slices.Contains(ids, id)
}
