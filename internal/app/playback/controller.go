package playback

import (
	"context"
	"strconv"
	"sync"
	"time"

	"github.com/cockroachdb/errors"
	zlog "github.com/rs/zerolog/log"
)

// Errors
var (
	ErrPlayerNotReady = errors.New("player not ready")
	ErrClosed         = errors.New("controller closed")
)

// Opacity values applied to the trigger cue.
const (
	DimmedOpacity = 0.5
	NormalOpacity = 1.0
)

// Config holds controller configuration.
type Config struct {
	Interval         time.Duration // Progress polling period
	ThresholdPercent float64       // Progress at which the play count is reported
	Player           Options       // Options for newly created players
}

// DefaultConfig returns the standard configuration: 1s polling, 60% threshold,
// hidden autoplaying players without controls.
func DefaultConfig() Config {
	return Config{
		Interval:         time.Second,
		ThresholdPercent: 60,
		Player: Options{
			Height:   0,
			Width:    0,
			Autoplay: true,
			Controls: false,
		},
	}
}

// Cue is the visual element that triggered playback.
type Cue interface {
	SetOpacity(opacity float64)
}

// ProgressSink receives progress bar widths. SetProgress returns false when
// no progress bar exists for the video.
type ProgressSink interface {
	SetProgress(videoID string, width string) bool
}

// Reporter is notified once per session when the threshold is crossed.
// Report must not block.
type Reporter interface {
	Report(ctx context.Context, videoID string)
}

// Dependencies are the collaborators of a Controller.
type Dependencies struct {
	Engine    Engine
	Scheduler Scheduler // Defaults to TickerScheduler
	Progress  ProgressSink
	Reporter  Reporter
}

// Controller manages one session per video.
type Controller struct {
	mu     sync.Mutex
	closed bool

	registry  *Registry
	engine    Engine
	scheduler Scheduler
	progress  ProgressSink
	reporter  Reporter

	// Configuration
	config Config

	// Events
	eventCh chan Event

	// Context
	ctx    context.Context
	cancel context.CancelFunc
}

// NewController creates a new playback controller.
func NewController(config Config, deps Dependencies) *Controller {
	if config.Interval <= 0 {
		config.Interval = time.Second
	}
	if deps.Scheduler == nil {
		deps.Scheduler = TickerScheduler{}
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &Controller{
		registry:  NewRegistry(),
		engine:    deps.Engine,
		scheduler: deps.Scheduler,
		progress:  deps.Progress,
		reporter:  deps.Reporter,
		config:    config,
		eventCh:   make(chan Event, 64),
		ctx:       ctx,
		cancel:    cancel,
	}
}

// Events returns the event channel.
func (c *Controller) Events() <-chan Event {
	return c.eventCh
}

// Registry returns the session registry.
func (c *Controller) Registry() *Registry {
	return c.registry
}

// PlayAudio starts or toggles playback of a video.
// The first call creates a session and a hidden player; the player starts on
// its ready notification. Later calls pause a playing session and resume any
// other one.
func (c *Controller) PlayAudio(ctx context.Context, videoID string, cue Cue) error {
	if c.isClosed() {
		return ErrClosed
	}

	s, created := c.registry.GetOrCreate(videoID, func() *Session {
		s := newSession(videoID)
		s.task = NewTask(c.scheduler, c.config.Interval, func() { c.tick(s) })
		return s
	})
	if !created {
		return c.toggle(s, cue)
	}

	zlog.Debug().Msgf("playback: creating player: video=%s session=%s node=%s", videoID, s.ID, NodeID(videoID))
	c.sendEvent(Event{Type: EventSessionCreated, VideoID: videoID, State: StateUnstarted})

	handler := Handler{
		OnReady: func(p Player) {
			if !c.attachPlayer(s, p) {
				return
			}
			if err := p.Play(); err != nil {
				zlog.Error().Err(err).Msgf("playback: failed to start player: video=%s", videoID)
			}
			setOpacity(cue, DimmedOpacity)
			c.startPolling(s)
			c.sendEvent(Event{Type: EventReady, VideoID: videoID, State: StatePlaying})
		},
		OnStateChange: func(p Player, state State) {
			if state == StatePlaying {
				c.startPolling(s)
			} else {
				s.task.Stop()
			}
			zlog.Debug().Msgf("playback: state changed: video=%s state=%s", videoID, state)
			c.sendEvent(Event{Type: EventStateChanged, VideoID: videoID, State: state})
		},
	}

	p, err := c.engine.Create(ctx, videoID, c.config.Player, handler)
	if err != nil {
		// Forget the session so the next request retries the creation.
		c.registry.Remove(videoID)
		return errors.Wrapf(err, "failed to create player for video %s", videoID)
	}
	if !c.attachPlayer(s, p) {
		// Closed while the player was being created.
		if err := p.Close(); err != nil {
			zlog.Warn().Err(err).Msgf("playback: failed to close player: video=%s", videoID)
		}
		c.registry.Remove(videoID)
		return ErrClosed
	}
	return nil
}

// toggle pauses a playing session and resumes any other one.
func (c *Controller) toggle(s *Session, cue Cue) error {
	p := s.Player()
	if p == nil {
		return ErrPlayerNotReady
	}

	state, err := p.State()
	if err != nil {
		return errors.Wrapf(err, "failed to read player state for video %s", s.VideoID)
	}

	if state == StatePlaying {
		if err := p.Pause(); err != nil {
			return errors.Wrapf(err, "failed to pause video %s", s.VideoID)
		}
		setOpacity(cue, NormalOpacity)
		s.task.Stop()
		return nil
	}

	if err := p.Play(); err != nil {
		return errors.Wrapf(err, "failed to play video %s", s.VideoID)
	}
	setOpacity(cue, DimmedOpacity)
	c.startPolling(s)
	return nil
}

// UpdateProgress restarts the polling task of a session.
func (c *Controller) UpdateProgress(videoID string) error {
	s, err := c.registry.Get(videoID)
	if err != nil {
		return err
	}
	if !c.startPolling(s) {
		return ErrClosed
	}
	return nil
}

// tick samples the player, updates the progress bar and reports the play
// count once the threshold is crossed.
func (c *Controller) tick(s *Session) {
	p := s.Player()
	if p == nil {
		return
	}

	duration, err := p.Duration()
	if err != nil {
		zlog.Debug().Msgf("playback: duration unavailable: video=%s err=%v", s.VideoID, err)
		return
	}
	current, err := p.CurrentTime()
	if err != nil {
		zlog.Debug().Msgf("playback: position unavailable: video=%s err=%v", s.VideoID, err)
		return
	}

	progress := Progress(current, duration)
	if c.progress != nil {
		c.progress.SetProgress(s.VideoID, FormatWidth(progress))
	}
	c.sendEvent(Event{Type: EventProgress, VideoID: s.VideoID, State: StatePlaying, Progress: progress})

	if progress >= c.config.ThresholdPercent && s.markCounted() {
		zlog.Info().Msgf("playback: play count threshold reached: video=%s progress=%.1f%%", s.VideoID, progress)
		c.sendEvent(Event{Type: EventThresholdReached, VideoID: s.VideoID, State: StatePlaying, Progress: progress})
		if c.reporter != nil {
			c.reporter.Report(c.ctx, s.VideoID)
		}
	}
}

// Progress returns currentTime/duration as a percentage.
// A zero duration yields NaN or +Inf; callers render it as-is.
func Progress(currentTime, duration float64) float64 {
	return currentTime / duration * 100
}

// FormatWidth renders a progress percentage as a width string, e.g. "65%".
func FormatWidth(progress float64) string {
	return strconv.FormatFloat(progress, 'f', -1, 64) + "%"
}

// Close stops every polling task, closes every player and releases resources.
func (c *Controller) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	c.cancel()
	close(c.eventCh)
	c.mu.Unlock()

	for _, s := range c.registry.All() {
		s.task.Stop()
		if p := s.Player(); p != nil {
			if err := p.Close(); err != nil {
				zlog.Warn().Err(err).Msgf("playback: failed to close player: video=%s", s.VideoID)
			}
		}
	}
}

// attachPlayer binds p to s unless the controller is closed. Close only sees
// players attached before it marked the controller closed.
func (c *Controller) attachPlayer(s *Session, p Player) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return false
	}
	s.attach(p)
	return true
}

// startPolling (re)starts the polling task of s unless the controller is closed.
func (c *Controller) startPolling(s *Session) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return false
	}
	s.task.Start()
	return true
}

func (c *Controller) isClosed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

// sendEvent sends an event without blocking.
func (c *Controller) sendEvent(e Event) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return
	}
	select {
	case c.eventCh <- e:
	default:
		// Channel full, drop event
	}
}

func setOpacity(cue Cue, opacity float64) {
	if cue != nil {
		cue.SetOpacity(opacity)
	}
}
