package widget

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/osa030/playdeck/internal/app/menu"
	"github.com/osa030/playdeck/internal/app/playback"
	"github.com/osa030/playdeck/internal/app/playback/playbacktest"
	"github.com/osa030/playdeck/internal/domain/track"
	"github.com/osa030/playdeck/internal/infra/deckapi"
)

var testTracks = []track.Track{
	{ID: 7, Artist: "Artist A", Title: "First", URL: "https://www.youtube.com/watch?v=aaaaaaaaaaa", PlayCount: 3},
	{ID: 8, Artist: "Artist B", Title: "Second", URL: "https://youtu.be/bbbbbbbbbbb", PlayCount: 0},
}

type fixture struct {
	widget    *Widget
	engine    *playbacktest.Engine
	scheduler *playbacktest.Scheduler
	bus       *menu.Bus
	requests  *int32
}

func newFixture(t *testing.T, body string) *fixture {
	t.Helper()
	var requests int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&requests, 1)
		assert.Equal(t, "/increment_play_count/7", r.URL.Path)
		fmt.Fprint(w, body)
	}))
	t.Cleanup(server.Close)

	client, err := deckapi.New(deckapi.Config{BaseURL: server.URL})
	require.NoError(t, err)

	f := &fixture{
		engine:    playbacktest.NewEngine(),
		scheduler: playbacktest.NewScheduler(),
		bus:       menu.NewBus(),
		requests:  &requests,
	}
	f.widget = New(Config{
		Playback: playback.DefaultConfig(),
		Menu:     menu.Config{TriggerClass: "bg-sky-800", MenuClass: "origin-top-right"},
	}, f.engine, client, WithScheduler(f.scheduler))
	f.widget.Load(testTracks)
	require.NoError(t, f.widget.Mount(f.bus))
	t.Cleanup(func() { _ = f.widget.Unmount() })
	return f
}

func rowFor(rows []Row, trackID string) Row {
	for _, r := range rows {
		if r.TrackID == trackID {
			return r
		}
	}
	return Row{}
}

func TestWidget_EndToEndPlayCount(t *testing.T) {
	f := newFixture(t, `{"success": true}`)
	ctx := context.Background()

	require.NoError(t, f.widget.PlayAudio(ctx, "aaaaaaaaaaa"))
	p, err := f.engine.Player("aaaaaaaaaaa")
	require.NoError(t, err)
	p.Ready()

	row := rowFor(f.widget.Snapshot(), "7")
	assert.Equal(t, playback.DimmedOpacity, row.Opacity)

	for _, current := range []float64{50, 55, 60, 65} {
		p.SetTimes(current, 100)
		f.scheduler.Tick()
		f.widget.Wait()
	}

	row = rowFor(f.widget.Snapshot(), "7")
	assert.Equal(t, "65%", row.ProgressWidth)
	assert.Equal(t, "4", row.PlayCount)
	assert.Equal(t, int32(1), atomic.LoadInt32(f.requests))
}

func TestWidget_RejectedPlayCountKeepsDisplay(t *testing.T) {
	f := newFixture(t, `{"success": false}`)

	require.NoError(t, f.widget.PlayAudio(context.Background(), "aaaaaaaaaaa"))
	p, err := f.engine.Player("aaaaaaaaaaa")
	require.NoError(t, err)
	p.Ready()

	p.SetTimes(70, 100)
	f.scheduler.Tick()
	f.widget.Wait()

	assert.Equal(t, "3", rowFor(f.widget.Snapshot(), "7").PlayCount)
	assert.Equal(t, int32(1), atomic.LoadInt32(f.requests))
}

func TestWidget_PauseRestoresOpacity(t *testing.T) {
	f := newFixture(t, `{"success": true}`)
	ctx := context.Background()

	require.NoError(t, f.widget.PlayAudio(ctx, "bbbbbbbbbbb"))
	p, err := f.engine.Player("bbbbbbbbbbb")
	require.NoError(t, err)
	p.Ready()

	require.NoError(t, f.widget.PlayAudio(ctx, "bbbbbbbbbbb"))
	row := rowFor(f.widget.Snapshot(), "8")
	assert.Equal(t, playback.NormalOpacity, row.Opacity)
	assert.Equal(t, 0, f.scheduler.Active())
	assert.Equal(t, 1, f.widget.Sessions().Count())
}

func TestWidget_Dropdowns(t *testing.T) {
	f := newFixture(t, `{"success": true}`)

	f.widget.ToggleDropdown("7")
	f.widget.ToggleDropdown("8")
	f.widget.ToggleDropdown("99")
	assert.True(t, rowFor(f.widget.Snapshot(), "7").MenuOpen)
	assert.True(t, rowFor(f.widget.Snapshot(), "8").MenuOpen)

	f.bus.Publish(menu.Target{ID: "menu-button-7", Classes: []string{"bg-sky-800"}})
	assert.True(t, rowFor(f.widget.Snapshot(), "7").MenuOpen)

	f.bus.Publish(menu.Target{ID: "body"})
	assert.False(t, rowFor(f.widget.Snapshot(), "7").MenuOpen)
	assert.False(t, rowFor(f.widget.Snapshot(), "8").MenuOpen)
}

func TestWidget_MountLifecycle(t *testing.T) {
	f := newFixture(t, `{"success": true}`)

	assert.ErrorIs(t, f.widget.Mount(f.bus), ErrAlreadyMounted)
	assert.Equal(t, 1, f.bus.Subscribers())

	require.NoError(t, f.widget.PlayAudio(context.Background(), "aaaaaaaaaaa"))
	p, err := f.engine.Player("aaaaaaaaaaa")
	require.NoError(t, err)
	p.Ready()

	require.NoError(t, f.widget.Unmount())
	assert.Equal(t, 0, f.bus.Subscribers())
	assert.Equal(t, 0, f.scheduler.Active())
	assert.True(t, p.Closed())
	assert.ErrorIs(t, f.widget.Unmount(), ErrNotMounted)

	assert.ErrorIs(t, f.widget.Mount(f.bus), ErrUnmounted)
	assert.Equal(t, 0, f.bus.Subscribers())
}

func TestBoard_MissingNodes(t *testing.T) {
	b := NewBoard()
	b.AddTrack(track.Track{ID: 1, URL: "no video here", PlayCount: 2})

	assert.False(t, b.SetProgress("zzzzzzzzzzz", "10%"))
	_, ok := b.TrackIDFor("zzzzzzzzzzz")
	assert.False(t, ok)
	_, ok = b.PlayCountText("2")
	assert.False(t, ok)
	assert.False(t, b.SetPlayCountText("2", "5"))

	text, ok := b.PlayCountText("1")
	assert.True(t, ok)
	assert.Equal(t, "2", text)

	// Cue on an unknown video is a no-op.
	assert.NotPanics(t, func() { b.Cue("zzzzzzzzzzz").SetOpacity(0.5) })
}
