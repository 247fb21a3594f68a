package ui

import (
	"context"
	"sync"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/osa030/playdeck/internal/app/menu"
	"github.com/osa030/playdeck/internal/app/playback"
	"github.com/osa030/playdeck/internal/app/playback/playbacktest"
	"github.com/osa030/playdeck/internal/app/widget"
	"github.com/osa030/playdeck/internal/domain/playlist"
	"github.com/osa030/playdeck/internal/domain/track"
)

type fakeSource struct {
	mu      sync.Mutex
	list    playlist.Playlist
	removed []int64
	err     error
}

func (s *fakeSource) PlaylistPage(_ context.Context, name string, page int) (*playlist.Page, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return nil, s.err
	}
	p := s.list.Page(page, 2)
	return &p, nil
}

func (s *fakeSource) RemoveTrack(_ context.Context, name string, trackID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.removed = append(s.removed, trackID)
	for i, t := range s.list.Tracks {
		if t.ID == trackID {
			s.list.Tracks = append(s.list.Tracks[:i], s.list.Tracks[i+1:]...)
			break
		}
	}
	return nil
}

type noopIncrementer struct{}

func (noopIncrementer) IncrementPlayCount(context.Context, string) (bool, error) {
	return true, nil
}

type uiFixture struct {
	model   Model
	source  *fakeSource
	engine  *playbacktest.Engine
	widgets []*widget.Widget
}

func newUIFixture(t *testing.T) *uiFixture {
	t.Helper()
	f := &uiFixture{
		source: &fakeSource{list: playlist.Playlist{Name: "mix", Tracks: []track.Track{
			{ID: 1, Artist: "A", Title: "One", URL: "https://youtu.be/aaaaaaaaaaa"},
			{ID: 2, Artist: "B", Title: "Two", URL: "https://youtu.be/bbbbbbbbbbb"},
			{ID: 3, Artist: "C", Title: "Three", URL: "https://youtu.be/ccccccccccc"},
		}}},
		engine: playbacktest.NewEngine(),
	}
	factory := func() *widget.Widget {
		w := widget.New(widget.Config{
			Playback: playback.DefaultConfig(),
			Menu:     menu.Config{TriggerClass: "bg-sky-800", MenuClass: "origin-top-right"},
		}, f.engine, noopIncrementer{}, widget.WithScheduler(playbacktest.NewScheduler()))
		f.widgets = append(f.widgets, w)
		return w
	}
	f.model = New(context.Background(), f.source, factory, "mix")
	f.load(t, 1)
	return f
}

func (f *uiFixture) load(t *testing.T, page int) {
	t.Helper()
	f.update(f.model.loadPage(page)())
	require.NotNil(t, f.model.widget)
}

func (f *uiFixture) update(msg tea.Msg) tea.Cmd {
	next, cmd := f.model.Update(msg)
	f.model = next.(Model)
	return cmd
}

func (f *uiFixture) press(keys string) tea.Cmd {
	switch keys {
	case "enter":
		return f.update(tea.KeyMsg{Type: tea.KeyEnter})
	case "esc":
		return f.update(tea.KeyMsg{Type: tea.KeyEsc})
	case "down":
		return f.update(tea.KeyMsg{Type: tea.KeyDown})
	}
	return f.update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(keys)})
}

func TestModel_LoadsFirstPage(t *testing.T) {
	f := newUIFixture(t)

	assert.Equal(t, 1, f.model.page)
	assert.Equal(t, 2, f.model.totalPages)
	require.Len(t, f.model.rows, 2)
	assert.Equal(t, "One", f.model.rows[0].Title)
	assert.Contains(t, f.model.View(), "page 1/2")
}

func TestModel_MenuToggleAndOutsideClick(t *testing.T) {
	f := newUIFixture(t)

	f.press("m")
	assert.True(t, f.model.rows[0].MenuOpen, "trigger click keeps the menu open")
	assert.Contains(t, f.model.View(), "remove from playlist")

	f.press("m")
	assert.False(t, f.model.rows[0].MenuOpen, "second toggle hides it")

	f.press("m")
	f.press("down")
	f.press("m")
	assert.True(t, f.model.rows[0].MenuOpen)
	assert.True(t, f.model.rows[1].MenuOpen)

	f.press("esc")
	assert.False(t, f.model.rows[0].MenuOpen)
	assert.False(t, f.model.rows[1].MenuOpen)
}

func TestModel_MouseClickClosesMenus(t *testing.T) {
	f := newUIFixture(t)

	f.press("m")
	f.update(tea.MouseMsg{Action: tea.MouseActionPress, Button: tea.MouseButtonLeft})
	assert.False(t, f.model.rows[0].MenuOpen)
}

func TestModel_PlayCreatesPlayer(t *testing.T) {
	f := newUIFixture(t)

	cmd := f.press("enter")
	require.NotNil(t, cmd)
	f.update(cmd())
	assert.Nil(t, f.model.err)
	assert.Equal(t, 1, f.engine.Creates())

	p, err := f.engine.Player("aaaaaaaaaaa")
	require.NoError(t, err)
	p.Ready()
	f.update(refreshMsg{})
	assert.Equal(t, playback.DimmedOpacity, f.model.rows[0].Opacity)
	assert.Contains(t, f.model.View(), "▶")
}

func TestModel_PlaybackEventsUpdateStatus(t *testing.T) {
	f := newUIFixture(t)

	cmd := f.press("enter")
	f.update(cmd())

	listen := f.model.listen()
	require.NotNil(t, listen)
	f.update(listen())
	assert.Equal(t, "loading A - One", f.model.status)

	stale := playbackMsg{generation: f.model.generation - 1, ok: true, event: playback.Event{Type: playback.EventReady, VideoID: "aaaaaaaaaaa"}}
	f.update(stale)
	assert.Equal(t, "loading A - One", f.model.status, "events of unmounted widgets are ignored")
}

func TestModel_PageNavigationRemountsWidget(t *testing.T) {
	f := newUIFixture(t)
	first := f.model.widget

	cmd := f.press("n")
	require.NotNil(t, cmd)
	f.update(cmd())

	assert.Equal(t, 2, f.model.page)
	require.Len(t, f.model.rows, 1)
	assert.Equal(t, "Three", f.model.rows[0].Title)
	assert.NotSame(t, first, f.model.widget)
	assert.Equal(t, 1, f.model.clicks.Subscribers(), "old widget released its click subscription")

	assert.Nil(t, f.press("n"), "no page after the last one")

	cmd = f.press("p")
	require.NotNil(t, cmd)
	f.update(cmd())
	assert.Equal(t, 1, f.model.page)
}

func TestModel_RemoveTrackNeedsOpenMenu(t *testing.T) {
	f := newUIFixture(t)

	assert.Nil(t, f.press("x"))

	f.press("m")
	cmd := f.press("x")
	require.NotNil(t, cmd)
	reload := f.update(cmd())
	require.NotNil(t, reload)
	f.update(reload())

	assert.Equal(t, []int64{1}, f.source.removed)
	assert.Equal(t, "Two", f.model.rows[0].Title)
}

func TestModel_LoadError(t *testing.T) {
	f := newUIFixture(t)
	f.source.err = errors.New("connection refused")

	cmd := f.press("n")
	f.update(cmd())
	require.Error(t, f.model.err)
	assert.Contains(t, f.model.View(), "connection refused")
}

func TestModel_Quit(t *testing.T) {
	f := newUIFixture(t)

	cmd := f.press("q")
	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())
	assert.Nil(t, f.model.widget)
	assert.Equal(t, 0, f.model.clicks.Subscribers())
	assert.Empty(t, f.model.View())
}

func TestWidthRatio(t *testing.T) {
	tests := []struct {
		width string
		want  float64
	}{
		{"", 0},
		{"65%", 0.65},
		{"100%", 1},
		{"140%", 1},
		{"NaN%", 0},
		{"+Inf%", 0},
		{"garbage", 0},
	}

	for _, tt := range tests {
		t.Run(tt.width, func(t *testing.T) {
			assert.InDelta(t, tt.want, widthRatio(tt.width), 1e-9)
		})
	}
}
