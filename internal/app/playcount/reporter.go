// Package playcount reports plays to the server and reconciles the displayed count.
package playcount

import (
	"context"
	"strconv"
	"strings"
	"sync"

	"github.com/cockroachdb/errors"
	zlog "github.com/rs/zerolog/log"
)

// Errors
var (
	ErrTrackNotFound   = errors.New("no track bound to player")
	ErrNotCounted      = errors.New("server did not count the play")
	ErrInvalidCount    = errors.New("play count display is not an integer")
	ErrDisplayNotFound = errors.New("play count display not found")
)

// Incrementer sends the increment request.
type Incrementer interface {
	IncrementPlayCount(ctx context.Context, trackID string) (bool, error)
}

// Display exposes the nodes the reporter reads and writes.
type Display interface {
	// TrackIDFor returns the data-track-id of the player node of videoID.
	TrackIDFor(videoID string) (string, bool)
	// PlayCountText returns the text of play-count-<trackID>.
	PlayCountText(trackID string) (string, bool)
	// SetPlayCountText replaces the text of play-count-<trackID>.
	SetPlayCountText(trackID, text string) bool
}

// Reporter reports plays asynchronously. Failures are logged, never retried.
type Reporter struct {
	client  Incrementer
	display Display
	wg      sync.WaitGroup
}

// NewReporter creates a reporter.
func NewReporter(client Incrementer, display Display) *Reporter {
	return &Reporter{
		client:  client,
		display: display,
	}
}

// Report increments the play count of videoID in the background.
func (r *Reporter) Report(ctx context.Context, videoID string) {
	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		if err := r.Increment(ctx, videoID); err != nil {
			zlog.Error().Err(err).Msgf("playcount: failed to increment play count: video=%s", videoID)
		}
	}()
}

// Wait blocks until every pending report finished.
func (r *Reporter) Wait() {
	r.wg.Wait()
}

// Increment sends the request for videoID and, on success, bumps the
// displayed count by one.
func (r *Reporter) Increment(ctx context.Context, videoID string) error {
	trackID, ok := r.display.TrackIDFor(videoID)
	if !ok || trackID == "" {
		return errors.Wrapf(ErrTrackNotFound, "video %s", videoID)
	}

	success, err := r.client.IncrementPlayCount(ctx, trackID)
	if err != nil {
		return errors.Wrapf(err, "track %s", trackID)
	}
	if !success {
		return errors.Wrapf(ErrNotCounted, "track %s", trackID)
	}

	zlog.Info().Msgf("playcount: play counted: track=%s video=%s", trackID, videoID)
	return r.bump(trackID)
}

// bump adds one to the displayed count. A missing display is not an error.
func (r *Reporter) bump(trackID string) error {
	text, ok := r.display.PlayCountText(trackID)
	if !ok {
		zlog.Debug().Msgf("playcount: no play count display: track=%s", trackID)
		return nil
	}

	n, err := strconv.Atoi(strings.TrimSpace(text))
	if err != nil {
		return errors.Wrapf(ErrInvalidCount, "track %s: %q", trackID, text)
	}
	if !r.display.SetPlayCountText(trackID, strconv.Itoa(n+1)) {
		return errors.Wrapf(ErrDisplayNotFound, "track %s", trackID)
	}
	return nil
}
