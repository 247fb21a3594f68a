// Package deckapi provides a client for the playdeck server API.
package deckapi

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	zlog "github.com/rs/zerolog/log"

	"github.com/osa030/playdeck/internal/domain/playlist"
	"github.com/osa030/playdeck/internal/domain/track"
)

// Client is a playdeck server API client.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// Config represents client configuration.
type Config struct {
	BaseURL string        // e.g. http://localhost:5001
	Timeout time.Duration // 0 means no timeout
}

// IncrementResponse is the body of POST /increment_play_count/{trackID}.
type IncrementResponse struct {
	Success bool `json:"success"`
}

// PlaylistsResponse is the body of GET /api/playlists.
type PlaylistsResponse struct {
	Playlists []string `json:"playlists"`
}

// ErrorResponse is the body of a non-2xx response.
type ErrorResponse struct {
	Error string `json:"error"`
}

// New creates a new client.
func New(cfg Config) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, errors.New("server base URL is required")
	}
	if _, err := url.Parse(cfg.BaseURL); err != nil {
		return nil, errors.Wrap(err, "invalid server base URL")
	}

	return &Client{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		httpClient: &http.Client{Timeout: cfg.Timeout},
	}, nil
}

// IncrementPlayCount asks the server to count one play of trackID.
// It returns the server's success flag.
func (c *Client) IncrementPlayCount(ctx context.Context, trackID string) (bool, error) {
	if trackID == "" {
		return false, errors.New("track ID is required")
	}

	reqURL := c.baseURL + "/increment_play_count/" + url.PathEscape(trackID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, reqURL, nil)
	if err != nil {
		return false, errors.Wrap(err, "failed to create request")
	}
	req.Header.Set("Content-Type", "application/json")

	var response IncrementResponse
	if err := c.do(req, &response); err != nil {
		return false, err
	}
	zlog.Debug().Msgf("deckapi: increment play count: track=%s success=%t", trackID, response.Success)
	return response.Success, nil
}

// Playlists returns the names of all playlists.
func (c *Client) Playlists(ctx context.Context) ([]string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/playlists", nil)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create request")
	}

	var response PlaylistsResponse
	if err := c.do(req, &response); err != nil {
		return nil, err
	}
	return response.Playlists, nil
}

// PlaylistPage returns one page of a playlist.
func (c *Client) PlaylistPage(ctx context.Context, name string, page int) (*playlist.Page, error) {
	if name == "" {
		return nil, errors.New("playlist name is required")
	}
	if page <= 0 {
		page = 1
	}

	params := url.Values{}
	params.Set("page", strconv.Itoa(page))
	reqURL := c.baseURL + "/api/playlists/" + url.PathEscape(name) + "?" + params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create request")
	}

	var response playlist.Page
	if err := c.do(req, &response); err != nil {
		return nil, err
	}
	return &response, nil
}

// RandomTrack returns a random track from the catalog.
func (c *Client) RandomTrack(ctx context.Context) (*track.Track, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/tracks/random", nil)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create request")
	}

	var response track.Track
	if err := c.do(req, &response); err != nil {
		return nil, err
	}
	return &response, nil
}

// RemoveTrack removes a track from a playlist.
func (c *Client) RemoveTrack(ctx context.Context, name string, trackID int64) error {
	if name == "" {
		return errors.New("playlist name is required")
	}

	reqURL := c.baseURL + "/api/playlists/" + url.PathEscape(name) + "/tracks/" + strconv.FormatInt(trackID, 10)
	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, reqURL, nil)
	if err != nil {
		return errors.Wrap(err, "failed to create request")
	}
	return c.do(req, nil)
}

// do sends req and decodes a JSON body into out. A nil out discards the body.
func (c *Client) do(req *http.Request, out any) error {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return errors.Wrap(err, "failed to send request")
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return errors.Wrap(err, "failed to read response body")
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var apiError ErrorResponse
		if err := json.Unmarshal(body, &apiError); err == nil && apiError.Error != "" {
			return errors.Newf("server error %d: %s", resp.StatusCode, apiError.Error)
		}
		return errors.Newf("server error %d", resp.StatusCode)
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		return errors.Wrap(err, "failed to parse response")
	}
	return nil
}
