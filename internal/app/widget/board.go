package widget

import (
	"strconv"
	"sync"

	"github.com/osa030/playdeck/internal/app/playback"
	"github.com/osa030/playdeck/internal/domain/track"
)

// Row is the rendered state of one track.
type Row struct {
	TrackID       string
	VideoID       string
	Artist        string
	Title         string
	Date          string
	Opacity       float64 // Trigger cue opacity
	ProgressWidth string  // e.g. "42%", "" before the first tick
	PlayCount     string  // Text of the play-count node
	MenuOpen      bool
}

// Board is the display model of a playlist page. Nodes are addressed the way
// the page names them: player-<videoID>, progress-<videoID>,
// play-count-<trackID>. Absent nodes are reported with ok=false.
type Board struct {
	mu sync.RWMutex

	rows     []*Row
	byTrack  map[string]*Row
	players  map[string]string // player-<videoID> → data-track-id
	progress map[string]*Row   // progress-<videoID>
}

// NewBoard creates an empty board.
func NewBoard() *Board {
	return &Board{
		byTrack:  make(map[string]*Row),
		players:  make(map[string]string),
		progress: make(map[string]*Row),
	}
}

// AddTrack adds a row for t. Tracks without a video ID get no player or
// progress node. Adding a track twice keeps the existing row.
func (b *Board) AddTrack(t track.Track) *Row {
	b.mu.Lock()
	defer b.mu.Unlock()

	trackID := strconv.FormatInt(t.ID, 10)
	if row, ok := b.byTrack[trackID]; ok {
		return row
	}

	row := &Row{
		TrackID:   trackID,
		VideoID:   t.VideoID(),
		Artist:    t.Artist,
		Title:     t.Title,
		Date:      t.Date,
		Opacity:   playback.NormalOpacity,
		PlayCount: strconv.Itoa(t.PlayCount),
	}
	b.rows = append(b.rows, row)
	b.byTrack[trackID] = row
	if row.VideoID != "" {
		b.players[row.VideoID] = trackID
		b.progress[row.VideoID] = row
	}
	return row
}

// Rows returns a copy of every row in insertion order.
func (b *Board) Rows() []Row {
	b.mu.RLock()
	defer b.mu.RUnlock()

	rows := make([]Row, len(b.rows))
	for i, r := range b.rows {
		rows[i] = *r
	}
	return rows
}

// SetProgress sets the width of progress-<videoID>.
func (b *Board) SetProgress(videoID, width string) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	row, ok := b.progress[videoID]
	if !ok {
		return false
	}
	row.ProgressWidth = width
	return true
}

// TrackIDFor returns the data-track-id of player-<videoID>.
func (b *Board) TrackIDFor(videoID string) (string, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	id, ok := b.players[videoID]
	return id, ok
}

// PlayCountText returns the text of play-count-<trackID>.
func (b *Board) PlayCountText(trackID string) (string, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	row, ok := b.byTrack[trackID]
	if !ok {
		return "", false
	}
	return row.PlayCount, true
}

// SetPlayCountText replaces the text of play-count-<trackID>.
func (b *Board) SetPlayCountText(trackID, text string) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	row, ok := b.byTrack[trackID]
	if !ok {
		return false
	}
	row.PlayCount = text
	return true
}

// Cue returns the trigger cue of the row playing videoID.
func (b *Board) Cue(videoID string) playback.Cue {
	return cue{board: b, videoID: videoID}
}

// cue sets the opacity of a row's trigger image.
type cue struct {
	board   *Board
	videoID string
}

func (c cue) SetOpacity(opacity float64) {
	c.board.mu.Lock()
	defer c.board.mu.Unlock()

	if row, ok := c.board.progress[c.videoID]; ok {
		row.Opacity = opacity
	}
}
