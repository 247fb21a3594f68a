// Package rest provides the playdeck HTTP API.
package rest

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	zlog "github.com/rs/zerolog/log"

	"github.com/osa030/playdeck/internal/app/filter"
	"github.com/osa030/playdeck/internal/domain/playlist"
	"github.com/osa030/playdeck/internal/domain/track"
	"github.com/osa030/playdeck/internal/infra/catalog"
)

// Store is the catalog behind the API.
type Store interface {
	Playlists() []string
	Playlist(name string) (*playlist.Playlist, error)
	RandomTrack() (track.Track, error)
	CreatePlaylist(name string) error
	RemovePlaylist(name string) error
	AddTrack(name string, t track.Track) (track.Track, error)
	RemoveTrack(name string, trackID int64) error
	IncrementPlayCount(trackID int64) (int, error)
}

// Admission decides whether a track may join a playlist.
type Admission interface {
	Execute(ctx context.Context, req filter.Request, existing []track.Track) filter.Result
}

// Handler serves the playdeck API.
type Handler struct {
	store     Store
	admission Admission
	perPage   int
}

// NewHandler creates a new API handler. A nil admission accepts every track.
func NewHandler(store Store, perPage int, admission Admission) *Handler {
	if perPage <= 0 {
		perPage = playlist.DefaultPerPage
	}
	return &Handler{store: store, admission: admission, perPage: perPage}
}

// Router returns the chi router with every route mounted.
func (h *Handler) Router() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(requestLogger)

	r.Get("/api/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Route("/api/playlists", func(r chi.Router) {
		r.Get("/", h.ListPlaylists)
		r.Post("/", h.CreatePlaylist)
		r.Get("/{name}", h.GetPlaylist)
		r.Delete("/{name}", h.RemovePlaylist)
		r.Post("/{name}/tracks", h.AddTrack)
		r.Delete("/{name}/tracks/{trackID}", h.RemoveTrack)
	})
	r.Get("/api/tracks/random", h.RandomTrack)
	r.Post("/increment_play_count/{trackID}", h.IncrementPlayCount)
	return r
}

type playlistsResponse struct {
	Playlists []string `json:"playlists"`
}

type createPlaylistRequest struct {
	Name string `json:"name"`
}

type incrementResponse struct {
	Success bool `json:"success"`
}

// ListPlaylists returns all playlist names.
func (h *Handler) ListPlaylists(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, playlistsResponse{Playlists: h.store.Playlists()})
}

// GetPlaylist returns one page of a playlist. The page defaults to 1.
func (h *Handler) GetPlaylist(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")

	page := 1
	if raw := r.URL.Query().Get("page"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, "page must be an integer")
			return
		}
		page = n
	}

	p, err := h.store.Playlist(name)
	if err != nil {
		h.writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, p.Page(page, h.perPage))
}

// RandomTrack returns one track chosen at random.
func (h *Handler) RandomTrack(w http.ResponseWriter, r *http.Request) {
	t, err := h.store.RandomTrack()
	if err != nil {
		h.writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, t)
}

// CreatePlaylist creates an empty playlist.
func (h *Handler) CreatePlaylist(w http.ResponseWriter, r *http.Request) {
	var req createPlaylistRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	name := strings.TrimSpace(req.Name)
	if err := h.store.CreatePlaylist(name); err != nil {
		h.writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, createPlaylistRequest{Name: name})
}

// RemovePlaylist deletes an empty playlist.
func (h *Handler) RemovePlaylist(w http.ResponseWriter, r *http.Request) {
	if err := h.store.RemovePlaylist(chi.URLParam(r, "name")); err != nil {
		h.writeStoreError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// AddTrack adds a track to a playlist.
func (h *Handler) AddTrack(w http.ResponseWriter, r *http.Request) {
	var req track.Track
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	name := chi.URLParam(r, "name")
	if h.admission != nil {
		p, err := h.store.Playlist(name)
		if err != nil {
			h.writeStoreError(w, err)
			return
		}
		result := h.admission.Execute(r.Context(), filter.Request{Playlist: name, Track: req}, p.Tracks)
		if !result.Accepted {
			zlog.Info().Msgf("rest: track rejected: playlist=%s artist=%s title=%s code=%s", name, req.Artist, req.Title, result.Code)
			writeError(w, http.StatusUnprocessableEntity, result.Code)
			return
		}
	}

	t, err := h.store.AddTrack(name, req)
	if err != nil {
		h.writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, t)
}

// RemoveTrack removes a track from a playlist.
func (h *Handler) RemoveTrack(w http.ResponseWriter, r *http.Request) {
	trackID, err := strconv.ParseInt(chi.URLParam(r, "trackID"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "track ID must be an integer")
		return
	}

	if err := h.store.RemoveTrack(chi.URLParam(r, "name"), trackID); err != nil {
		h.writeStoreError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// IncrementPlayCount counts one play of a track. The body is always
// {"success": bool}; an unknown track is reported as success=false.
func (h *Handler) IncrementPlayCount(w http.ResponseWriter, r *http.Request) {
	trackID, err := strconv.ParseInt(chi.URLParam(r, "trackID"), 10, 64)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, incrementResponse{Success: false})
		return
	}

	count, err := h.store.IncrementPlayCount(trackID)
	if err != nil {
		zlog.Warn().Msgf("rest: failed to increment play count: track=%d err=%v", trackID, err)
		writeJSON(w, http.StatusOK, incrementResponse{Success: false})
		return
	}
	zlog.Info().Msgf("rest: play counted: track=%d count=%d", trackID, count)
	writeJSON(w, http.StatusOK, incrementResponse{Success: true})
}

func (h *Handler) writeStoreError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, catalog.ErrPlaylistNotFound),
		errors.Is(err, catalog.ErrTrackNotFound),
		errors.Is(err, catalog.ErrNoTracks):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, catalog.ErrPlaylistExists),
		errors.Is(err, catalog.ErrPlaylistNotEmpty),
		errors.Is(err, catalog.ErrAlreadyInPlaylist):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, catalog.ErrInvalidName),
		errors.Is(err, catalog.ErrIncompleteTrack):
		writeError(w, http.StatusBadRequest, err.Error())
	default:
		zlog.Error().Msgf("rest: unexpected store error: %v", err)
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}
