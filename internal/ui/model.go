// Package ui provides the terminal user interface of the playlist player.
package ui

import (
	"context"
	"strconv"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"
	zlog "github.com/rs/zerolog/log"

	"github.com/osa030/playdeck/internal/app/menu"
	"github.com/osa030/playdeck/internal/app/playback"
	"github.com/osa030/playdeck/internal/app/widget"
	"github.com/osa030/playdeck/internal/domain/playlist"
)

const refreshInterval = 200 * time.Millisecond

// Source provides playlist pages.
type Source interface {
	PlaylistPage(ctx context.Context, name string, page int) (*playlist.Page, error)
	RemoveTrack(ctx context.Context, name string, trackID int64) error
}

// WidgetFactory creates the widget of one playlist page.
type WidgetFactory func() *widget.Widget

// Messages
type (
	pageLoadedMsg struct {
		page *playlist.Page
		err  error
	}
	playbackMsg struct {
		generation int
		event      playback.Event
		ok         bool
	}
	playResultMsg struct {
		videoID string
		err     error
	}
	removedMsg struct {
		trackID string
		err     error
	}
	refreshMsg struct{}
)

// Model is the bubbletea model rendering one playlist page at a time.
// Every page gets a fresh widget; leaving a page unmounts it.
type Model struct {
	ctx       context.Context
	source    Source
	newWidget WidgetFactory
	clicks    *menu.Bus

	playlist   string
	page       int
	totalPages int

	widget     *widget.Widget
	generation int
	rows       []widget.Row
	cursor     int

	status string
	err    error

	keys     keyMap
	help     help.Model
	bar      progress.Model
	width    int
	quitting bool
}

// New creates a model for a playlist.
func New(ctx context.Context, source Source, newWidget WidgetFactory, playlistName string) Model {
	bar := progress.New(progress.WithSolidFill("#EF4444"), progress.WithoutPercentage())
	bar.Width = 30
	return Model{
		ctx:       ctx,
		source:    source,
		newWidget: newWidget,
		clicks:    menu.NewBus(),
		playlist:  playlistName,
		page:      1,
		keys:      newKeyMap(),
		help:      help.New(),
		bar:       bar,
	}
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return tea.Batch(m.loadPage(m.page), refresh())
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.help.Width = msg.Width
		m.bar.Width = max(10, min(40, msg.Width-50))
		return m, nil

	case tea.MouseMsg:
		if msg.Action == tea.MouseActionPress && msg.Button == tea.MouseButtonLeft {
			m.clickOutside("board")
		}
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)

	case pageLoadedMsg:
		return m.showPage(msg)

	case playbackMsg:
		if msg.generation != m.generation || !msg.ok {
			return m, nil
		}
		m.describe(msg.event)
		m.snapshot()
		return m, m.listen()

	case playResultMsg:
		if msg.err != nil {
			zlog.Error().Msgf("ui: playback failed: video=%s err=%v", msg.videoID, msg.err)
			m.err = msg.err
		}
		m.snapshot()
		return m, nil

	case removedMsg:
		if msg.err != nil {
			zlog.Error().Msgf("ui: failed to remove track %s: %v", msg.trackID, msg.err)
			m.err = msg.err
			return m, nil
		}
		m.status = "removed track " + msg.trackID
		return m, m.loadPage(m.page)

	case refreshMsg:
		m.snapshot()
		return m, refresh()
	}
	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.quit):
		m.quitting = true
		m.unmount()
		return m, tea.Quit

	case key.Matches(msg, m.keys.help):
		m.help.ShowAll = !m.help.ShowAll

	case key.Matches(msg, m.keys.up):
		if m.cursor > 0 {
			m.cursor--
		}

	case key.Matches(msg, m.keys.down):
		if m.cursor < len(m.rows)-1 {
			m.cursor++
		}

	case key.Matches(msg, m.keys.dismiss):
		m.clickOutside("board")

	case key.Matches(msg, m.keys.menu):
		row, ok := m.selected()
		if !ok {
			break
		}
		m.widget.ToggleDropdown(row.TrackID)
		m.clicks.Publish(m.widget.Trigger(row.TrackID))
		m.snapshot()

	case key.Matches(msg, m.keys.remove):
		row, ok := m.selected()
		if !ok || !row.MenuOpen {
			break
		}
		m.clickOutside("remove-" + row.TrackID)
		return m, m.removeTrack(row.TrackID)

	case key.Matches(msg, m.keys.play):
		row, ok := m.selected()
		if !ok {
			break
		}
		m.clickOutside("image-" + row.VideoID)
		if row.VideoID == "" {
			m.status = "no video for " + row.Title
			break
		}
		return m, m.playAudio(row.VideoID)

	case key.Matches(msg, m.keys.nextPage):
		if m.page < m.totalPages {
			m.clickOutside("next")
			return m, m.loadPage(m.page + 1)
		}

	case key.Matches(msg, m.keys.prevPage):
		if m.page > 1 {
			m.clickOutside("previous")
			return m, m.loadPage(m.page - 1)
		}
	}
	return m, nil
}

// showPage replaces the widget with one for the loaded page.
func (m Model) showPage(msg pageLoadedMsg) (tea.Model, tea.Cmd) {
	if msg.err != nil {
		zlog.Error().Msgf("ui: failed to load playlist %s: %v", m.playlist, msg.err)
		m.err = msg.err
		return m, nil
	}

	m.unmount()
	w := m.newWidget()
	w.Load(msg.page.Tracks)
	if err := w.Mount(m.clicks); err != nil {
		m.err = err
		return m, nil
	}

	m.widget = w
	m.generation++
	m.page = msg.page.Page
	m.totalPages = msg.page.TotalPages
	m.err = nil
	m.snapshot()
	if m.cursor >= len(m.rows) {
		m.cursor = max(0, len(m.rows)-1)
	}
	zlog.Debug().Msgf("ui: showing playlist %s page %d/%d", m.playlist, m.page, m.totalPages)
	return m, m.listen()
}

// Close unmounts the current widget, stopping every player.
func (m Model) Close() {
	m.unmount()
}

func (m *Model) unmount() {
	if m.widget == nil {
		return
	}
	if err := m.widget.Unmount(); err != nil {
		zlog.Debug().Msgf("ui: unmount: %v", err)
	}
	m.widget = nil
	m.rows = nil
}

func (m *Model) snapshot() {
	if m.widget != nil {
		m.rows = m.widget.Snapshot()
	}
}

func (m *Model) selected() (widget.Row, bool) {
	if m.widget == nil || m.cursor < 0 || m.cursor >= len(m.rows) {
		return widget.Row{}, false
	}
	return m.rows[m.cursor], true
}

// clickOutside publishes a click on a target that is not a menu trigger.
func (m *Model) clickOutside(id string) {
	m.clicks.Publish(menu.Target{ID: id})
	m.snapshot()
}

func (m *Model) describe(e playback.Event) {
	title := e.VideoID
	for _, r := range m.rows {
		if r.VideoID == e.VideoID {
			title = r.Artist + " - " + r.Title
			break
		}
	}

	switch e.Type {
	case playback.EventSessionCreated:
		m.status = "loading " + title
	case playback.EventReady:
		m.status = "playing " + title
	case playback.EventStateChanged:
		m.status = e.State.String() + " " + title
	case playback.EventThresholdReached:
		m.status = "counted a play of " + title
	}
}

func (m Model) loadPage(page int) tea.Cmd {
	ctx, source, name := m.ctx, m.source, m.playlist
	return func() tea.Msg {
		p, err := source.PlaylistPage(ctx, name, page)
		return pageLoadedMsg{page: p, err: err}
	}
}

func (m Model) playAudio(videoID string) tea.Cmd {
	ctx, w := m.ctx, m.widget
	return func() tea.Msg {
		return playResultMsg{videoID: videoID, err: w.PlayAudio(ctx, videoID)}
	}
}

func (m Model) removeTrack(trackID string) tea.Cmd {
	ctx, source, name := m.ctx, m.source, m.playlist
	return func() tea.Msg {
		id, err := strconv.ParseInt(trackID, 10, 64)
		if err != nil {
			return removedMsg{trackID: trackID, err: err}
		}
		return removedMsg{trackID: trackID, err: source.RemoveTrack(ctx, name, id)}
	}
}

// listen waits for the next playback event of the current widget.
func (m Model) listen() tea.Cmd {
	if m.widget == nil {
		return nil
	}
	events, generation := m.widget.Events(), m.generation
	return func() tea.Msg {
		e, ok := <-events
		return playbackMsg{generation: generation, event: e, ok: ok}
	}
}

func refresh() tea.Cmd {
	return tea.Tick(refreshInterval, func(time.Time) tea.Msg {
		return refreshMsg{}
	})
}
