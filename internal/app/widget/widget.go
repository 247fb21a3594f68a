// Package widget provides the playlist player widget: dropdown menus, one
// embedded player per track, progress bars and play-count reporting.
package widget

import (
	"context"
	"sync"

	"github.com/cockroachdb/errors"
	zlog "github.com/rs/zerolog/log"

	"github.com/osa030/playdeck/internal/app/menu"
	"github.com/osa030/playdeck/internal/app/playback"
	"github.com/osa030/playdeck/internal/app/playcount"
	"github.com/osa030/playdeck/internal/domain/track"
)

// Errors
var (
	ErrAlreadyMounted = errors.New("widget already mounted")
	ErrNotMounted     = errors.New("widget not mounted")
	ErrUnmounted      = errors.New("widget was unmounted; create a new one")
)

// Config holds widget configuration.
type Config struct {
	Playback playback.Config
	Menu     menu.Config
}

// Option customizes a Widget.
type Option func(*options)

type options struct {
	scheduler playback.Scheduler
}

// WithScheduler replaces the progress polling scheduler.
func WithScheduler(s playback.Scheduler) Option {
	return func(o *options) {
		o.scheduler = s
	}
}

// Widget is the playlist player widget. Its lifetime is one Mount/Unmount cycle.
type Widget struct {
	mu        sync.Mutex
	release   func()
	mounted   bool
	unmounted bool

	board    *Board
	menus    *menu.Controller
	player   *playback.Controller
	reporter *playcount.Reporter
}

// New creates a widget ready to be mounted.
func New(cfg Config, engine playback.Engine, client playcount.Incrementer, opts ...Option) *Widget {
	o := options{}
	for _, opt := range opts {
		opt(&o)
	}

	board := NewBoard()
	reporter := playcount.NewReporter(client, board)
	return &Widget{
		board:    board,
		menus:    menu.NewController(cfg.Menu),
		reporter: reporter,
		player: playback.NewController(cfg.Playback, playback.Dependencies{
			Engine:    engine,
			Scheduler: o.scheduler,
			Progress:  board,
			Reporter:  reporter,
		}),
	}
}

// Load adds a row and a dropdown for every track.
func (w *Widget) Load(tracks []track.Track) {
	for _, t := range tracks {
		row := w.board.AddTrack(t)
		w.menus.Register(row.TrackID)
	}
	zlog.Debug().Msgf("widget: loaded %d tracks", len(tracks))
}

// Mount subscribes the outside-click handler to clicks.
// A widget mounts once.
func (w *Widget) Mount(clicks menu.ClickSource) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.unmounted {
		return ErrUnmounted
	}
	if w.mounted {
		return ErrAlreadyMounted
	}
	w.release = w.menus.Mount(clicks)
	w.mounted = true
	return nil
}

// Unmount releases the click subscription, stops every polling task and
// closes every player.
func (w *Widget) Unmount() error {
	w.mu.Lock()
	if !w.mounted {
		w.mu.Unlock()
		return ErrNotMounted
	}
	w.release()
	w.release = nil
	w.mounted = false
	w.unmounted = true
	w.mu.Unlock()

	w.player.Close()
	return nil
}

// ToggleDropdown flips the dropdown of trackID. Unknown tracks are ignored.
func (w *Widget) ToggleDropdown(trackID string) {
	if !w.menus.Toggle(trackID) {
		zlog.Debug().Msgf("widget: no dropdown for track %s", trackID)
	}
}

// Trigger returns the click target of the menu button of trackID.
func (w *Widget) Trigger(trackID string) menu.Target {
	return w.menus.Trigger(trackID)
}

// Click routes a click directly to the menus, bypassing the click source.
func (w *Widget) Click(target menu.Target) {
	w.menus.Click(target)
}

// PlayAudio starts or toggles playback of videoID, dimming its row while it plays.
func (w *Widget) PlayAudio(ctx context.Context, videoID string) error {
	return w.player.PlayAudio(ctx, videoID, w.board.Cue(videoID))
}

// Events returns the playback event channel.
func (w *Widget) Events() <-chan playback.Event {
	return w.player.Events()
}

// Sessions returns the playback session registry.
func (w *Widget) Sessions() *playback.Registry {
	return w.player.Registry()
}

// Snapshot returns the current rows with their menu state.
func (w *Widget) Snapshot() []Row {
	rows := w.board.Rows()
	for i := range rows {
		rows[i].MenuOpen = w.menus.Visible(rows[i].TrackID)
	}
	return rows
}

// Wait blocks until pending play-count reports finished.
func (w *Widget) Wait() {
	w.reporter.Wait()
}
