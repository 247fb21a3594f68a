// Package mpv implements the playback engine on top of mpv's JSON-IPC protocol.
// Each player is a separate mpv process controlled through its own socket.
package mpv

import (
	"context"
	"fmt"
	"net"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
	"github.com/mitchellh/mapstructure"
	zlog "github.com/rs/zerolog/log"

	"github.com/osa030/playdeck/internal/app/playback"
)

const (
	socketWaitRetries = 20
	socketWaitDelay   = 150 * time.Millisecond
	quitTimeout       = 3 * time.Second

	defaultWatchURL = "https://www.youtube.com/watch?v="
)

// Config represents engine configuration.
type Config struct {
	Path      string         // mpv binary, "mpv" when empty
	SocketDir string         // Directory for IPC sockets, os.TempDir() when empty
	WatchURL  string         // Prefix the video ID is appended to
	Settings  map[string]any // Free-form settings, see Settings
}

// Settings are optional mpv tweaks decoded from Config.Settings.
type Settings struct {
	Volume     int      `mapstructure:"volume"`
	YTDLFormat string   `mapstructure:"ytdl_format"`
	ExtraArgs  []string `mapstructure:"extra_args"`
}

// DecodeSettings decodes a free-form settings map.
func DecodeSettings(raw map[string]any) (Settings, error) {
	var s Settings
	if len(raw) == 0 {
		return s, nil
	}
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           &s,
		WeaklyTypedInput: true,
		ErrorUnused:      true,
	})
	if err != nil {
		return s, errors.Wrap(err, "failed to create settings decoder")
	}
	if err := decoder.Decode(raw); err != nil {
		return s, errors.Wrap(err, "invalid mpv settings")
	}
	return s, nil
}

// Engine starts one mpv process per video.
type Engine struct {
	config   Config
	settings Settings
}

// New creates an engine.
func New(cfg Config) (*Engine, error) {
	if cfg.Path == "" {
		cfg.Path = "mpv"
	}
	if cfg.SocketDir == "" {
		cfg.SocketDir = os.TempDir()
	}
	if cfg.WatchURL == "" {
		cfg.WatchURL = defaultWatchURL
	}
	settings, err := DecodeSettings(cfg.Settings)
	if err != nil {
		return nil, err
	}
	return &Engine{config: cfg, settings: settings}, nil
}

// Args returns the mpv command line for a player listening on socketPath.
// The media is loaded later over IPC so that no event is missed.
func (e *Engine) Args(socketPath string, opts playback.Options) []string {
	args := []string{
		"--no-terminal",
		"--really-quiet",
		"--idle=yes",
		"--keep-open=yes",
		fmt.Sprintf("--input-ipc-server=%s", socketPath),
	}
	if opts.Width <= 0 || opts.Height <= 0 {
		args = append(args, "--no-video")
	} else {
		args = append(args, fmt.Sprintf("--geometry=%dx%d", opts.Width, opts.Height), "--force-window=yes")
	}
	if !opts.Controls {
		args = append(args, "--no-osc", "--no-input-default-bindings")
	}
	if !opts.Autoplay {
		args = append(args, "--pause=yes")
	}
	if e.settings.Volume > 0 {
		args = append(args, fmt.Sprintf("--volume=%d", e.settings.Volume))
	}
	if e.settings.YTDLFormat != "" {
		args = append(args, fmt.Sprintf("--ytdl-format=%s", e.settings.YTDLFormat))
	}
	return append(args, e.settings.ExtraArgs...)
}

// MediaURL returns the URL mpv loads for videoID.
func (e *Engine) MediaURL(videoID string) string {
	return e.config.WatchURL + videoID
}

// Create starts mpv for videoID and loads the media.
func (e *Engine) Create(ctx context.Context, videoID string, opts playback.Options, h playback.Handler) (playback.Player, error) {
	if videoID == "" || strings.HasPrefix(videoID, "-") {
		return nil, errors.Newf("invalid video ID %q", videoID)
	}

	socketPath := filepath.Join(e.config.SocketDir, "playdeck-"+uuid.New().String()+".sock")
	cmd := exec.Command(e.config.Path, e.Args(socketPath, opts)...)
	cmd.Stdin = nil
	cmd.Stdout = nil
	cmd.Stderr = nil

	if err := cmd.Start(); err != nil {
		return nil, errors.Wrap(err, "start mpv")
	}

	exited := make(chan struct{})
	go func() {
		_ = cmd.Wait()
		close(exited)
	}()

	if err := waitForSocket(ctx, socketPath, exited); err != nil {
		select {
		case <-exited:
		default:
			zlog.Warn().Msgf("mpv: killing process, socket never became ready: video=%s", videoID)
			_ = cmd.Process.Kill()
		}
		return nil, errors.Wrap(err, "mpv socket not ready")
	}

	p := newPlayer(videoID, socketPath, h)
	p.cmd = cmd
	p.exited = exited
	if err := p.start(e.MediaURL(videoID)); err != nil {
		_ = p.Close()
		return nil, err
	}

	zlog.Debug().Msgf("mpv: player started: video=%s socket=%s", videoID, socketPath)
	return p, nil
}

// waitForSocket polls until the socket accepts connections.
func waitForSocket(ctx context.Context, socketPath string, exited <-chan struct{}) error {
	for i := 0; i < socketWaitRetries; i++ {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-exited:
			return errors.New("mpv exited before socket was ready")
		case <-time.After(socketWaitDelay):
		}

		nc, err := net.Dial("unix", socketPath)
		if err == nil {
			nc.Close()
			return nil
		}
	}
	return errors.Newf("socket %s not ready after %d attempts", socketPath, socketWaitRetries)
}

// Player is one mpv process.
type Player struct {
	videoID    string
	socketPath string
	conn       *conn
	handler    playback.Handler

	cmd      *exec.Cmd
	exited   chan struct{}
	listener *listener

	readyOnce sync.Once
	mu        sync.Mutex
	ready     bool
	closed    bool
}

func newPlayer(videoID, socketPath string, h playback.Handler) *Player {
	return &Player{
		videoID:    videoID,
		socketPath: socketPath,
		conn:       &conn{socketPath: socketPath},
		handler:    h,
	}
}

// start subscribes to events, then loads the media.
func (p *Player) start(mediaURL string) error {
	l, err := listen(p.socketPath, p.onEvent)
	if err != nil {
		return err
	}
	p.listener = l

	if _, err := p.conn.send("loadfile", mediaURL, "replace"); err != nil {
		return errors.Wrap(err, "loadfile")
	}
	return nil
}

// onEvent translates mpv events into handler notifications.
func (p *Player) onEvent(ev ipcEvent) {
	switch ev.Event {
	case "file-loaded":
		p.readyOnce.Do(func() {
			p.mu.Lock()
			p.ready = true
			p.mu.Unlock()
			if p.handler.OnReady != nil {
				p.handler.OnReady(p)
			}
		})
	case "property-change":
		if !p.isReady() || p.handler.OnStateChange == nil {
			return
		}
		flag, ok := ev.Data.(bool)
		if !ok {
			return
		}
		switch ev.Name {
		case "pause":
			if flag {
				p.handler.OnStateChange(p, playback.StatePaused)
			} else {
				p.handler.OnStateChange(p, playback.StatePlaying)
			}
		case "eof-reached":
			if flag {
				p.handler.OnStateChange(p, playback.StateEnded)
			}
		}
	}
}

func (p *Player) isReady() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.ready
}

// Play resumes playback.
func (p *Player) Play() error {
	_, err := p.conn.send("set_property", "pause", false)
	return err
}

// Pause pauses playback.
func (p *Player) Pause() error {
	_, err := p.conn.send("set_property", "pause", true)
	return err
}

// State derives the player state from the pause and eof-reached properties.
func (p *Player) State() (playback.State, error) {
	eof, err := p.conn.flag("eof-reached")
	if errors.Is(err, errPropertyUnavailable) {
		return playback.StateUnstarted, nil
	}
	if err != nil {
		return playback.StateUnstarted, err
	}
	if eof {
		return playback.StateEnded, nil
	}

	paused, err := p.conn.flag("pause")
	if err != nil {
		return playback.StateUnstarted, err
	}
	if paused {
		return playback.StatePaused, nil
	}
	return playback.StatePlaying, nil
}

// Duration returns the media length in seconds, 0 while unknown.
func (p *Player) Duration() (float64, error) {
	return p.optionalNumber("duration")
}

// CurrentTime returns the playback position in seconds, 0 while unknown.
func (p *Player) CurrentTime() (float64, error) {
	return p.optionalNumber("time-pos")
}

func (p *Player) optionalNumber(name string) (float64, error) {
	v, err := p.conn.number(name)
	if errors.Is(err, errPropertyUnavailable) {
		return 0, nil
	}
	return v, err
}

// Close quits mpv and removes the socket.
func (p *Player) Close() error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil
	}
	p.closed = true
	p.mu.Unlock()

	if p.listener != nil {
		p.listener.close()
	}
	_, _ = p.conn.send("quit")

	if p.exited != nil {
		select {
		case <-p.exited:
		case <-time.After(quitTimeout):
			if p.cmd != nil && p.cmd.Process != nil {
				_ = p.cmd.Process.Kill()
			}
		}
	}
	if err := os.Remove(p.socketPath); err != nil && !os.IsNotExist(err) {
		return errors.Wrap(err, "remove socket")
	}
	return nil
}
