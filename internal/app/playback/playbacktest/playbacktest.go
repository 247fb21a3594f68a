// Package playbacktest provides in-memory engine and scheduler fakes for
// exercising the playback controller without a media backend or real timers.
package playbacktest

import (
	"context"
	"sync"
	"time"

	"github.com/cockroachdb/errors"

	"github.com/osa030/playdeck/internal/app/playback"
)

// Player is a scriptable playback.Player.
type Player struct {
	mu       sync.Mutex
	VideoID  string
	Opts     playback.Options
	handler  playback.Handler
	state    playback.State
	duration float64
	current  float64
	plays    int
	pauses   int
	closed   bool
}

// Ready fires the ready notification, as the engine does once media is loaded.
func (p *Player) Ready() {
	p.handler.OnReady(p)
}

// Play starts playback and notifies a state change.
func (p *Player) Play() error {
	p.mu.Lock()
	p.state = playback.StatePlaying
	p.plays++
	p.mu.Unlock()
	p.notify(playback.StatePlaying)
	return nil
}

// Pause pauses playback and notifies a state change.
func (p *Player) Pause() error {
	p.mu.Lock()
	p.state = playback.StatePaused
	p.pauses++
	p.mu.Unlock()
	p.notify(playback.StatePaused)
	return nil
}

// SetState forces a state and notifies it, e.g. to simulate the media ending.
func (p *Player) SetState(s playback.State) {
	p.mu.Lock()
	p.state = s
	p.mu.Unlock()
	p.notify(s)
}

// State returns the current state.
func (p *Player) State() (playback.State, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state, nil
}

// SetTimes sets the reported position and duration in seconds.
func (p *Player) SetTimes(current, duration float64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.current = current
	p.duration = duration
}

// Duration returns the scripted duration.
func (p *Player) Duration() (float64, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.duration, nil
}

// CurrentTime returns the scripted position.
func (p *Player) CurrentTime() (float64, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.current, nil
}

// Close marks the player closed.
func (p *Player) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.closed = true
	return nil
}

// Plays returns how many times Play was called.
func (p *Player) Plays() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.plays
}

// Pauses returns how many times Pause was called.
func (p *Player) Pauses() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.pauses
}

// Closed returns true once Close was called.
func (p *Player) Closed() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.closed
}

func (p *Player) notify(s playback.State) {
	if p.handler.OnStateChange != nil {
		p.handler.OnStateChange(p, s)
	}
}

// Engine records created players. Set Err to make Create fail.
type Engine struct {
	mu      sync.Mutex
	players map[string]*Player
	creates int
	Err     error
}

// NewEngine creates an empty fake engine.
func NewEngine() *Engine {
	return &Engine{players: make(map[string]*Player)}
}

// Create instantiates a fake player. Ready is not fired automatically.
func (e *Engine) Create(_ context.Context, videoID string, opts playback.Options, h playback.Handler) (playback.Player, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.creates++
	if e.Err != nil {
		return nil, e.Err
	}
	p := &Player{VideoID: videoID, Opts: opts, handler: h, state: playback.StateUnstarted}
	e.players[videoID] = p
	return p, nil
}

// Player returns the fake player created for videoID.
func (e *Engine) Player(videoID string) (*Player, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	p, ok := e.players[videoID]
	if !ok {
		return nil, errors.Newf("no player for %s", videoID)
	}
	return p, nil
}

// Creates returns how many times Create was called.
func (e *Engine) Creates() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.creates
}

type job struct {
	period time.Duration
	fn     func()
}

// Scheduler is a manual playback.Scheduler: ticks happen only on Tick.
type Scheduler struct {
	mu     sync.Mutex
	nextID int
	jobs   map[int]job
	peak   int
}

// NewScheduler creates a manual scheduler.
func NewScheduler() *Scheduler {
	return &Scheduler{jobs: make(map[int]job)}
}

// Every registers fn; it runs on each Tick until stopped.
func (s *Scheduler) Every(period time.Duration, fn func()) func() {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := s.nextID
	s.nextID++
	s.jobs[id] = job{period: period, fn: fn}
	if len(s.jobs) > s.peak {
		s.peak = len(s.jobs)
	}
	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.jobs, id)
	}
}

// Tick runs every active job once.
func (s *Scheduler) Tick() {
	s.mu.Lock()
	fns := make([]func(), 0, len(s.jobs))
	for _, j := range s.jobs {
		fns = append(fns, j.fn)
	}
	s.mu.Unlock()

	for _, fn := range fns {
		fn()
	}
}

// Active returns the number of running jobs.
func (s *Scheduler) Active() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.jobs)
}

// Peak returns the highest number of simultaneously running jobs.
func (s *Scheduler) Peak() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.peak
}

// Periods returns the periods of the running jobs.
func (s *Scheduler) Periods() []time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	periods := make([]time.Duration, 0, len(s.jobs))
	for _, j := range s.jobs {
		periods = append(periods, j.period)
	}
	return periods
}
